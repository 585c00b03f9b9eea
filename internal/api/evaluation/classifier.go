package evaluation

import (
	"strings"

	"github.com/FACorreiaa/go-family-journey/internal/types"
)

// Category is the conversational signal class a message falls into.
type Category string

const (
	CategoryNeutral   Category = "neutral"
	CategoryEngaged   Category = "engaged"
	CategoryRejection Category = "rejection"
)

// Classifier decides what a user utterance signals. The keyword
// implementation below can be swapped for a model-based one without
// touching the evaluator or the ledger.
type Classifier interface {
	Classify(text string, lang types.Language) Category
}

var engagementKeywords = map[types.Language][]string{
	types.LanguageSpanish: {
		"interesante", "fascinante", "increíble", "guau", "wow",
		"cuéntame más", "qué pasó", "y luego", "me gusta",
		"¿en serio?", "no sabía", "qué curioso", "impresionante",
	},
	types.LanguageEnglish: {
		"interesting", "fascinating", "incredible", "wow", "amazing",
		"tell me more", "what happened", "and then", "i like",
		"really?", "didn't know", "how curious", "impressive",
	},
}

var rejectionKeywords = map[types.Language][]string{
	types.LanguageSpanish: {"no sé", "no lo sé", "paso", "siguiente", "no me interesa"},
	types.LanguageEnglish: {"don't know", "i don't know", "skip", "next", "not interested"},
}

// KeywordClassifier classifies by curated substring lists plus punctuation
// cues. Explicit refusals take precedence over engagement cues.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (c *KeywordClassifier) Classify(text string, lang types.Language) Category {
	lower := strings.ToLower(text)

	for _, word := range keywordsFor(rejectionKeywords, lang) {
		if strings.Contains(lower, word) {
			return CategoryRejection
		}
	}

	for _, word := range keywordsFor(engagementKeywords, lang) {
		if strings.Contains(lower, word) {
			return CategoryEngaged
		}
	}
	if strings.ContainsAny(text, "?!¡") {
		return CategoryEngaged
	}

	return CategoryNeutral
}

func keywordsFor(table map[types.Language][]string, lang types.Language) []string {
	if words, ok := table[lang]; ok {
		return words
	}
	// Unknown languages fall back to Spanish, the route's home language.
	return table[types.LanguageSpanish]
}
