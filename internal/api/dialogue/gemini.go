package dialogue

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-family-journey/internal/api/memory"
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

const defaultModel = "gemini-2.0-flash"

var _ Generator = (*GeminiGenerator)(nil)

// GeminiGenerator talks to the Gemini API. The conversation window comes in
// as history, so each call is stateless on the client side.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, logger *slog.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, logger: logger}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, progress *types.FamilyProgress, userMessage string, history []memory.ContextMessage) (string, error) {
	ctx, span := otel.Tracer("GeminiGenerator").Start(ctx, "Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("family.id", progress.FamilyID.String()),
		attribute.String("model", g.model),
		attribute.Int("history.len", len(history)),
	)

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		var role genai.Role = genai.RoleUser
		if msg.Role == memory.RoleAssistant {
			role = genai.RoleModel
		}
		text := msg.Content
		if msg.Speaker != "" {
			text = msg.Speaker + ": " + text
		}
		contents = append(contents, genai.NewContentFromText(text, role))
	}
	contents = append(contents, genai.NewContentFromText(userMessage, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.7),
		SystemInstruction: genai.NewContentFromText(BuildSystemPrompt(progress), genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	reply := result.Text()
	if reply == "" {
		g.logger.WarnContext(ctx, "empty model reply",
			slog.String("family_id", progress.FamilyID.String()))
		return "", fmt.Errorf("model returned an empty reply")
	}

	span.SetStatus(codes.Ok, "reply generated")
	return reply, nil
}
