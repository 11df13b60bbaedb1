package usecase

import (
	"strings"
	"unicode"
)

// Intent is the outcome of the pre-retrieval gates.
type Intent int

const (
	// IntentFactual means no gate matched; the query proceeds to retrieval.
	IntentFactual Intent = iota
	// IntentSmallTalk covers greetings and pleasantries that need no grounding.
	IntentSmallTalk
	// IntentSubjective covers opinion, moral or otherwise subjective requests
	// where factual grounding does not apply.
	IntentSubjective
)

// IntentClassifier decides whether a query bypasses retrieval entirely.
type IntentClassifier interface {
	Classify(query string) Intent
}

// RuleSet is the data for a RuleClassifier. SmallTalk entries match the whole
// normalized query; Subjective entries match as substrings of it. Both sides
// are compared in normalized form (lower-case, punctuation stripped,
// whitespace collapsed).
type RuleSet struct {
	SmallTalk  []string
	Subjective []string
}

func DefaultRules() RuleSet {
	return RuleSet{
		SmallTalk: []string{
			"hi", "hello", "hey", "hey there", "hiya", "yo",
			"good morning", "good afternoon", "good evening",
			"thanks", "thank you", "thanks a lot", "ok", "okay",
			"how are you", "how are you doing", "whats up", "sup",
			"bye", "goodbye", "see you", "good night",
		},
		Subjective: []string{
			"what do you think", "your opinion", "in your opinion",
			"do you think", "do you believe", "your view",
			"should i", "would you rather", "is it right to", "is it wrong to",
			"morally", "immoral", "ethical", "unethical", "ethics",
			"religious", "religion", "political", "politics",
		},
	}
}

// RuleClassifier is a table-driven classifier: no model call, trivially
// testable apart from the router.
type RuleClassifier struct {
	smallTalk  map[string]struct{}
	subjective []string
}

func NewRuleClassifier(rules RuleSet) *RuleClassifier {
	smallTalk := make(map[string]struct{}, len(rules.SmallTalk))
	for _, phrase := range rules.SmallTalk {
		smallTalk[normalizeQuery(phrase)] = struct{}{}
	}

	subjective := make([]string, 0, len(rules.Subjective))
	for _, marker := range rules.Subjective {
		if normalized := normalizeQuery(marker); normalized != "" {
			subjective = append(subjective, normalized)
		}
	}

	return &RuleClassifier{
		smallTalk:  smallTalk,
		subjective: subjective,
	}
}

func (c *RuleClassifier) Classify(query string) Intent {
	normalized := normalizeQuery(query)

	// An empty query after normalization has nothing to retrieve for.
	if normalized == "" {
		return IntentSmallTalk
	}
	if _, ok := c.smallTalk[normalized]; ok {
		return IntentSmallTalk
	}
	for _, marker := range c.subjective {
		if strings.Contains(normalized, marker) {
			return IntentSubjective
		}
	}
	return IntentFactual
}

// normalizeQuery lower-cases, strips punctuation and collapses whitespace.
func normalizeQuery(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for _, r := range strings.ToLower(query) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
