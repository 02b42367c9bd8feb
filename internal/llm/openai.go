// ABOUTME: OpenAI insight provider using chat completions (gpt-4o-mini by default)
// ABOUTME: Retries transient failures with exponential backoff before giving up

package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/review-rescue/internal/models"
	"github.com/harper/review-rescue/internal/util"
)

// DefaultOpenAIModel is the default chat model for insight generation.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig holds configuration for the OpenAI generator.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
}

// OpenAIGenerator generates insights via the OpenAI chat API.
type OpenAIGenerator struct {
	client     *openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
}

// NewOpenAIGenerator creates a generator, applying defaults for unset fields.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &OpenAIGenerator{
		client:     openai.NewClient(cfg.APIKey),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		now:        time.Now,
	}, nil
}

// Generate produces insights from the given reviews.
func (g *OpenAIGenerator) Generate(ctx context.Context, reviews []models.Review) ([]models.Insight, error) {
	userPrompt := buildPrompt(reviews)

	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(util.CalculateBackoff(g.retryDelay, attempt)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		resp, err := g.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: 0.3,
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("attempt %d: no completion choices returned", attempt+1)
			continue
		}

		insights, err := parseInsights(resp.Choices[0].Message.Content, len(reviews), g.now())
		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		return insights, nil
	}

	return nil, fmt.Errorf("insight generation failed after %d attempts: %w", g.maxRetries, lastErr)
}
