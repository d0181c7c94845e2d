package intelligence

import (
	"context"
	"fmt"
	"strings"

	"glowdesk/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiGenerator rephrases canned booking prompts through Gemini. It
// never decides control flow; the conversation machine falls back to the
// canned text whenever this returns an error or an empty string.
type GeminiGenerator struct {
	model *genai.GenerativeModel
}

// NewGeminiGenerator creates a generator bound to the salon assistant
// system instruction.
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("models/gemini-1.5-pro")
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(
			"You are a friendly salon booking assistant. Rephrase the given " +
				"message naturally without changing its meaning. Keep every " +
				"date, time, price, name and link exactly as given. Reply " +
				"with the rephrased message only.",
		)},
	}
	return &GeminiGenerator{model: model}, nil
}

// GenerateReply rephrases the prompt context in the conversation language.
func (g *GeminiGenerator) GenerateReply(ctx context.Context, promptContext string, lang models.Language) (string, error) {
	instruction := "Respond in English.\n"
	if lang == models.LanguageArabic {
		instruction = "Respond in Arabic.\n"
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(instruction+promptContext))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
