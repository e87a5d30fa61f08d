package rules

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/common"
	"gopkg.in/yaml.v3"
)

// Service holds the session rule context: rules accumulate across review
// submissions and are deduplicated by exact string equality. The set lives
// only for the lifetime of the process - persistence is deliberately out
// of scope.
//
// The review core never reads this store; handlers merge it into the rule
// list they pass to the review service.
type Service struct {
	mu     sync.Mutex
	rules  []string
	index  map[string]struct{}
	logger arbor.ILogger
}

// seedFile is the YAML shape for an optional startup rule set.
type seedFile struct {
	Rules []string `yaml:"rules"`
}

// NewService creates a rule store, seeding it from config.Rules.File when
// set. A missing or unreadable seed file is an error - a configured seed
// that silently loads nothing would be confusing.
func NewService(config *common.RulesConfig, logger arbor.ILogger) (*Service, error) {
	s := &Service{
		index:  make(map[string]struct{}),
		logger: logger,
	}

	if config != nil && config.File != "" {
		seeds, err := loadSeedFile(config.File)
		if err != nil {
			return nil, err
		}
		added := s.Add(seeds...)
		logger.Info().
			Str("file", config.File).
			Int("rules", added).
			Msg("Seed rules loaded into session context")
	}

	return s, nil
}

// Add merges rules into the set. Blank strings and exact duplicates are
// skipped; surviving rules keep insertion order. Returns the number added.
func (s *Service) Add(rules ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		if _, exists := s.index[rule]; exists {
			continue
		}
		s.index[rule] = struct{}{}
		s.rules = append(s.rules, rule)
		added++
	}
	return added
}

// List returns a copy of the current rule set in insertion order.
func (s *Service) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.rules))
	copy(out, s.rules)
	return out
}

// Clear empties the session rule context.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules = nil
	s.index = make(map[string]struct{})
}

// Count returns the number of rules currently in the context.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rules)
}

// loadSeedFile reads a YAML rule list: {rules: [...]}.
func loadSeedFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules seed file %s: %w", path, err)
	}

	var seeds seedFile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse rules seed file %s: %w", path, err)
	}

	return seeds.Rules, nil
}
