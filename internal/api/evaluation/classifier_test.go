package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-family-journey/internal/types"
)

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()

	tests := []struct {
		name string
		text string
		lang types.Language
		want Category
	}{
		{"spanish engagement keyword", "qué fascinante historia", types.LanguageSpanish, CategoryEngaged},
		{"english engagement keyword", "wow, that is amazing", types.LanguageEnglish, CategoryEngaged},
		{"question mark", "cuando se construyó?", types.LanguageSpanish, CategoryEngaged},
		{"inverted exclamation", "¡hemos llegado", types.LanguageSpanish, CategoryEngaged},
		{"spanish rejection", "no sé", types.LanguageSpanish, CategoryRejection},
		{"english rejection", "skip this one", types.LanguageEnglish, CategoryRejection},
		{"rejection beats punctuation", "¡paso!", types.LanguageSpanish, CategoryRejection},
		{"neutral", "vale", types.LanguageSpanish, CategoryNeutral},
		{"case insensitive", "FASCINANTE", types.LanguageSpanish, CategoryEngaged},
		{"unknown language falls back to spanish", "interesante", types.Language("fr"), CategoryEngaged},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.text, tc.lang))
		})
	}
}
