package classifier

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/carteiraapp/carteira/internal/domain"
)

// DefaultModelName is the Gemini model used for fallback categorization.
const DefaultModelName = "gemini-2.0-flash"

// GeminiFallback asks Gemini to place notification text into the fixed
// category taxonomy. It is consulted only when keyword matching lands on the
// catch-all category, so call volume stays low.
type GeminiFallback struct {
	client *genai.Client
	model  string
}

// NewGeminiFallback creates a fallback backed by the Gemini API.
// An empty model selects DefaultModelName.
func NewGeminiFallback(ctx context.Context, apiKey, model string) (*GeminiFallback, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiFallback: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiFallback{client: client, model: model}, nil
}

// Categorize returns one category label from the fixed taxonomy.
func (g *GeminiFallback) Categorize(ctx context.Context, text string) (string, error) {
	prompt := "You are a personal-finance categorizer for Brazilian bank notifications.\n\n" +
		"Task:\n" +
		"- Classify the notification text below into exactly one category.\n" +
		"- Answer with the category name only, no punctuation, no explanation.\n\n" +
		"Categories: " + strings.Join(domain.Categories, ", ") + "\n\n" +
		"Notification: " + text + "\n"

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Categorize: generate content: %w", err)
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", fmt.Errorf("Categorize: empty response from model")
	}
	return answer, nil
}
