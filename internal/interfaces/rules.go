package interfaces

// RuleStore holds the session rule context: an ordered set of rule strings
// deduplicated by exact string equality. The review core never touches the
// store directly; handlers merge it into the rule list passed to Review.
type RuleStore interface {
	// Add merges rules into the set, skipping blanks and exact duplicates,
	// and returns the number of rules actually added.
	Add(rules ...string) int
	// List returns a copy of the current rule set in insertion order.
	List() []string
	Clear()
	Count() int
}
