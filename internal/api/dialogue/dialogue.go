package dialogue

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/FACorreiaa/go-family-journey/internal/api/memory"
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

// Generator produces the guide's reply for one turn. Implementations must be
// safe for concurrent use; the engine calls them from per-family goroutines.
type Generator interface {
	Generate(ctx context.Context, progress *types.FamilyProgress, userMessage string, history []memory.ContextMessage) (string, error)
}

// storyMarkers are phrases the guide uses when narrating. A reply carrying
// one of them counts as "the agent told a story" for the evaluation rules.
var storyMarkers = []string{
	"había una vez",
	"hace muchos años",
	"cuenta la leyenda",
	"os voy a contar",
	"once upon a time",
	"legend has it",
	"let me tell you",
	"many years ago",
}

// minStoryLength: long replies read as narration even without a marker phrase.
const minStoryLength = 280

// DeriveTurnFlags inspects an agent reply and reports what the agent did in
// that turn. The engine feeds the previous turn's flags into evaluation, so a
// family answering the guide's question earns participation credit.
func DeriveTurnFlags(agentReply string) types.TurnFlags {
	lower := strings.ToLower(agentReply)

	flags := types.TurnFlags{
		AgentAskedQuestion: strings.ContainsAny(agentReply, "?¿"),
	}
	for _, marker := range storyMarkers {
		if strings.Contains(lower, marker) {
			flags.AgentToldStory = true
			return flags
		}
	}
	if utf8.RuneCountInString(agentReply) >= minStoryLength {
		flags.AgentToldStory = true
	}
	return flags
}

// FallbackReply is what the family sees when response generation fails. The
// turn still counts for points, so the engine degrades to this rather than
// surfacing an error mid-adventure.
func FallbackReply(lang types.Language) string {
	if lang == types.LanguageEnglish {
		return "My whiskers got tangled for a moment! Could you tell me that again?"
	}
	return "¡Se me han enredado los bigotes un momento! ¿Me lo podéis repetir?"
}

// BuildSystemPrompt composes the guide persona with the family's context so
// the model addresses members by name and matches their ages.
func BuildSystemPrompt(progress *types.FamilyProgress) string {
	var b strings.Builder

	if progress.PreferredLanguage == types.LanguageEnglish {
		b.WriteString("You are Ratoncito Pérez, a magical and charming guide to Madrid. ")
		b.WriteString("You help families discover the city in a fun, educational and memorable way. ")
		b.WriteString("You tell fascinating stories about each place, adapt to the ages present, ")
		b.WriteString("celebrate discoveries, and always keep the family safe. Answer in English.\n")
	} else {
		b.WriteString("Eres el Ratoncito Pérez, un guía mágico y encantador de Madrid. ")
		b.WriteString("Ayudas a familias a descubrir la ciudad de manera divertida, educativa y memorable. ")
		b.WriteString("Cuentas historias fascinantes sobre cada lugar, adaptas tu comunicación a las edades presentes, ")
		b.WriteString("celebras los descubrimientos y siempre cuidas de la familia. Responde en español.\n")
	}

	if len(progress.Members) > 0 {
		b.WriteString("\nFamily members:\n")
		for _, m := range progress.Members {
			fmt.Fprintf(&b, "- %s (%d, %s)\n", m.Name, m.Age, m.MemberType)
		}
	}
	if progress.CurrentSpeaker != "" {
		fmt.Fprintf(&b, "\nThe person speaking right now is %s.\n", progress.CurrentSpeaker)
	}
	fmt.Fprintf(&b, "\nAddress the family as %q.\n", progress.AddressTerm())
	return b.String()
}
