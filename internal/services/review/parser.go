// -----------------------------------------------------------------------
// Verdict parser - layered best-effort parsing of LLM compliance replies
// -----------------------------------------------------------------------

package review

import (
	"strings"

	"github.com/ternarybob/custos/internal/models"
)

// Marker prefixes accepted on a reply line, matched case-insensitively.
// Models frequently decorate the requested format with markdown emphasis
// or drop the colon, so all three variants are tolerated.
var (
	statusPrefixes  = []string{"STATUS:", "STATUS ", "**STATUS"}
	contentPrefixes = []string{"CONTENT:", "CONTENT ", "**CONTENT"}
)

// ParseVerdict extracts a normalized verdict from one raw LLM reply.
//
// The parse is a fallback chain; each stage runs only when the prior
// stage did not establish a value:
//  1. line scan for STATUS/CONTENT marked lines
//  2. whole-text substring search for a status keyword
//  3. whole trimmed reply as content
//
// When no status keyword exists anywhere the status is ERROR. A verdict is
// always produced - malformed replies degrade to (ERROR, raw text) rather
// than failing, so no information is lost. Pure function: the same input
// always yields the same verdict.
func ParseVerdict(raw string) models.Verdict {
	trimmed := strings.TrimSpace(raw)

	status, statusFound := scanStatusLines(trimmed)
	content, contentFound := scanContentLines(trimmed)

	if !statusFound {
		status, statusFound = classifyStatus(trimmed)
	}
	if !statusFound {
		status = models.StatusError
	}
	if !contentFound {
		content = trimmed
	}

	return models.Verdict{Status: status, Content: content}
}

// scanStatusLines finds STATUS-marked lines and classifies the keyword on
// them. Later marked lines overwrite earlier ones. A marked line without a
// recognizable keyword establishes nothing.
func scanStatusLines(text string) (models.Status, bool) {
	status := models.StatusError
	found := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !hasAnyPrefix(line, statusPrefixes) {
			continue
		}
		if s, ok := classifyStatus(line); ok {
			status = s
			found = true
		}
	}
	return status, found
}

// scanContentLines finds CONTENT-marked lines and takes everything after
// the first colon, trimmed. A marked line without a colon contributes the
// whole line. Later marked lines overwrite earlier ones.
func scanContentLines(text string) (string, bool) {
	content := ""
	found := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !hasAnyPrefix(line, contentPrefixes) {
			continue
		}
		if idx := strings.Index(line, ":"); idx >= 0 {
			content = strings.TrimSpace(line[idx+1:])
		} else {
			content = line
		}
		found = true
	}
	return content, found
}

// classifyStatus searches s case-insensitively for a status keyword.
// Compound forms are tested before the bare MET substring - NOT_MET and
// NOT_FOUND would otherwise be shadowed, silently inverting verdicts.
func classifyStatus(s string) (models.Status, bool) {
	upper := strings.ToUpper(s)
	switch {
	case strings.Contains(upper, "NOT_MET"):
		return models.StatusNotMet, true
	case strings.Contains(upper, "NOT_FOUND"):
		return models.StatusNotFound, true
	case strings.Contains(upper, "MET"):
		return models.StatusMet, true
	}
	return models.StatusError, false
}

func hasAnyPrefix(line string, prefixes []string) bool {
	upper := strings.ToUpper(line)
	for _, prefix := range prefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
