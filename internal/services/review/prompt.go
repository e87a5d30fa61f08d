package review

import "fmt"

// promptTemplate is the fixed per-rule evaluation prompt. Each rule is
// judged independently in a single stateless user turn; the instruction
// block mandates the two-line STATUS/CONTENT reply shape the parser
// expects, though replies are not guaranteed to follow it.
const promptTemplate = `Analyze the following text against this rule:
Rule: %s
Text: %s

Determine if the rule is:
1. MET - The text clearly follows the rule
2. NOT_MET - The text violates the rule (provide the violating content)
3. NOT_FOUND - The rule cannot be evaluated from the given text (suggest what content should be added)

Respond in this exact format:
STATUS: [MET/NOT_MET/NOT_FOUND]
CONTENT: [relevant content or suggestion]`

// BuildPrompt composes the evaluation prompt for one rule and the subject
// text. Rule and text are embedded literally - no escaping or truncation.
func BuildPrompt(rule, text string) string {
	return fmt.Sprintf(promptTemplate, rule, text)
}

// RuleLabel returns the 1-based label for a rule index, e.g. "rule_1".
func RuleLabel(index int) string {
	return fmt.Sprintf("rule_%d", index+1)
}
