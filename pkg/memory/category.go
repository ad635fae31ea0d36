package memory

import "regexp"

// categoryRules is an ordered rule list; the first matching rule wins.
var categoryRules = []struct {
	category Category
	pattern  *regexp.Regexp
}{
	{CategoryPreference, regexp.MustCompile(`(?i)\b(?:prefer|prefers|favorite|favourite|like|likes|love|loves|hate|hates|dislike|dislikes)\b`)},
	{CategoryDecision, regexp.MustCompile(`(?i)\b(?:decided|decision|agreed|chose|chosen|going with|settled on|will use|we'll)\b`)},
	{CategoryProject, regexp.MustCompile(`(?i)\b(?:project|architecture|database|schema|api|service|endpoint|repo|repository|module|deploy|deployment)\b`)},
	{CategoryTechnical, regexp.MustCompile(`(?i)\b(?:bug|bugs|error|errors|crash|crashes|exception|panic|stack trace|regression)\b`)},
	{CategoryFact, regexp.MustCompile(`(?i)\b(?:is|are|was|were|has|have)\b`)},
}

// DetectCategory assigns a coarse label to a fact. Deterministic,
// case-insensitive, single pass over the ordered rule list; anything that
// matches no rule is CategoryGeneral.
func DetectCategory(text string) Category {
	for _, rule := range categoryRules {
		if rule.pattern.MatchString(text) {
			return rule.category
		}
	}
	return CategoryGeneral
}
