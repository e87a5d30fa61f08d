package models

import "fmt"

// Status is the normalized outcome of evaluating one rule against the
// subject text. The three compliance states come back from the LLM reply;
// StatusError covers backend failures and unparsable replies.
type Status string

const (
	StatusMet      Status = "MET"
	StatusNotMet   Status = "NOT_MET"
	StatusNotFound Status = "NOT_FOUND"
	StatusError    Status = "ERROR"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusMet, StatusNotMet, StatusNotFound, StatusError:
		return true
	}
	return false
}

// Verdict is the parsed (status, content) pair derived from a single raw
// LLM reply. Content carries the violating excerpt for NOT_MET, the
// suggested addition for NOT_FOUND, or the raw reply text as a fallback.
type Verdict struct {
	Status  Status `json:"status"`
	Content string `json:"content"`
}

// RuleVerdict binds a Verdict to the rule it was evaluated for. Index is
// 0-based and matches the position of the rule in the submitted rule list.
type RuleVerdict struct {
	Index int    `json:"index"`
	Rule  string `json:"rule"`
	Verdict
	Raw string `json:"raw,omitempty"`
}

// Label returns the 1-based rule label used in logs and API payloads,
// e.g. "rule_1" for index 0.
func (rv RuleVerdict) Label() string {
	return fmt.Sprintf("rule_%d", rv.Index+1)
}
