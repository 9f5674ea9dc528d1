package orchestrator

import "strings"

// Predicate decides a branch of the turn from a piece of text.
type Predicate func(text string) bool

// KeywordSet is a list of case-insensitive substrings.
type KeywordSet []string

// MatchAny reports whether the lowercased text contains any keyword.
func (k KeywordSet) MatchAny(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range k {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Predicate returns MatchAny as a Predicate.
func (k KeywordSet) Predicate() Predicate {
	return k.MatchAny
}

var (
	// DecompositionKeywords flag prompts that likely hold several questions.
	DecompositionKeywords = KeywordSet{"compare", "difference", "how to", "steps", "advantages", "benefits"}

	// ImprovementKeywords flag critiques that found the answer lacking.
	ImprovementKeywords = KeywordSet{"improve", "incomplete", "partial", "unclear"}
)

// NeedsDecomposition reports whether prompt should be split into subtasks.
func NeedsDecomposition(prompt string) bool {
	return DecompositionKeywords.MatchAny(prompt)
}

// NeedsImprovement reports whether critique asks for a better answer.
func NeedsImprovement(critique string) bool {
	return ImprovementKeywords.MatchAny(critique)
}
