// ABOUTME: Claude insight provider using the Anthropic Messages API
// ABOUTME: Same prompt and parsing as the OpenAI provider, different transport

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/harper/review-rescue/internal/models"
	"github.com/harper/review-rescue/internal/util"
)

// DefaultClaudeModel is the default model for insight generation.
const DefaultClaudeModel = "claude-3-5-haiku-latest"

// ClaudeConfig holds configuration for the Claude generator.
type ClaudeConfig struct {
	APIKey     string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
}

// ClaudeGenerator generates insights via the Anthropic API.
type ClaudeGenerator struct {
	client     anthropic.Client
	model      anthropic.Model
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
}

// NewClaudeGenerator creates a generator, applying defaults for unset fields.
func NewClaudeGenerator(cfg ClaudeConfig) (*ClaudeGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultClaudeModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &ClaudeGenerator{
		client:     anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:      anthropic.Model(cfg.Model),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		now:        time.Now,
	}, nil
}

// Generate produces insights from the given reviews.
func (g *ClaudeGenerator) Generate(ctx context.Context, reviews []models.Review) ([]models.Insight, error) {
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
		message, err := g.client.Messages.New(callCtx, anthropic.MessageNewParams{
			Model:     g.model,
			MaxTokens: 2048,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
			},
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}

		var content strings.Builder
		for _, block := range message.Content {
			if block.Type == "text" {
				content.WriteString(block.Text)
			}
		}
		if content.Len() == 0 {
			lastErr = fmt.Errorf("attempt %d: empty response", attempt+1)
			continue
		}

		insights, err := parseInsights(content.String(), len(reviews), g.now())
		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		return insights, nil
	}

	return nil, fmt.Errorf("insight generation failed after %d attempts: %w", g.maxRetries, lastErr)
}
