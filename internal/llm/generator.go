// ABOUTME: Insight generation over cached reviews via an LLM provider
// ABOUTME: Shared prompt, code-fence-tolerant JSON parsing, and the TTL-cached service

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harper/review-rescue/internal/errs"
	"github.com/harper/review-rescue/internal/models"
	"github.com/harper/review-rescue/internal/storage"
)

// Generator produces insights from a set of reviews.
type Generator interface {
	Generate(ctx context.Context, reviews []models.Review) ([]models.Insight, error)
}

// maxPromptReviews bounds how many reviews are inlined into the prompt.
const maxPromptReviews = 100

const systemPrompt = `You are a review analysis assistant. Given a user's reviews, produce insights about their reviewing behavior.

Produce insights of these types:
- sentiment: overall tone and rating tendencies
- category: what kinds of businesses they review most
- pattern: notable habits (timing, length, photo usage)
- personalized: a suggestion tailored to this reviewer

Return ONLY a JSON array of insight objects. Each object must have:
- type: one of sentiment, category, pattern, personalized
- title: short heading
- insight_text: one or two sentences
- confidence_score: 0.0 to 1.0

No additional text.`

// buildPrompt renders the review set as the user message.
func buildPrompt(reviews []models.Review) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these %d reviews:\n\n", len(reviews))

	count := len(reviews)
	if count > maxPromptReviews {
		count = maxPromptReviews
	}
	for _, r := range reviews[:count] {
		fmt.Fprintf(&b, "- %s (%d stars, %s): %s\n",
			r.BusinessName, r.Rating, r.ReviewDate.Format("2006-01-02"), r.ReviewText)
	}
	if len(reviews) > count {
		fmt.Fprintf(&b, "\n(%d more reviews omitted)\n", len(reviews)-count)
	}
	return b.String()
}

type insightPayload struct {
	Type            string          `json:"type"`
	Title           string          `json:"title"`
	InsightText     string          `json:"insight_text"`
	ConfidenceScore float64         `json:"confidence_score"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
}

// parseInsights extracts the JSON insight array from a model response.
// Models sometimes wrap the payload in markdown code fences or preamble
// text, so this scans for the array rather than requiring a clean body.
func parseInsights(content string, reviewCount int, now time.Time) ([]models.Insight, error) {
	content = strings.TrimSpace(content)

	// Strip a ```json ... ``` fence if present
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	// Fall back to the outermost bracketed span
	if !strings.HasPrefix(content, "[") {
		start := strings.Index(content, "[")
		end := strings.LastIndex(content, "]")
		if start < 0 || end <= start {
			return nil, errs.New(errs.SerializationError, "response contains no JSON array")
		}
		content = content[start : end+1]
	}

	var payloads []insightPayload
	if err := json.Unmarshal([]byte(content), &payloads); err != nil {
		return nil, errs.Wrap(errs.SerializationError, "failed to parse insights", err)
	}

	insights := make([]models.Insight, 0, len(payloads))
	for _, p := range payloads {
		if p.InsightText == "" {
			continue
		}
		insights = append(insights, models.Insight{
			ID:              "ins_" + uuid.New().String(),
			Type:            normalizeInsightType(p.Type),
			Title:           p.Title,
			InsightText:     p.InsightText,
			ConfidenceScore: clampScore(p.ConfidenceScore),
			ReviewCount:     reviewCount,
			GeneratedAt:     now,
			Metadata:        p.Metadata,
		})
	}
	if len(insights) == 0 {
		return nil, errs.New(errs.SerializationError, "response contained no usable insights")
	}
	return insights, nil
}

func normalizeInsightType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case models.InsightSentiment, models.InsightCategory, models.InsightPattern, models.InsightPersonalized:
		return strings.ToLower(strings.TrimSpace(t))
	default:
		return models.InsightPattern
	}
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// Service answers insight requests from the cache when fresh, generating
// only on a miss, expiry, or an explicit force.
type Service struct {
	generators map[string]Generator
	cache      *storage.InsightsCache
	prefs      *storage.PreferencesStore
	reviews    *storage.ReviewCache
}

// NewService wires the service to its providers and stores.
func NewService(generators map[string]Generator, cache *storage.InsightsCache, prefs *storage.PreferencesStore, reviews *storage.ReviewCache) *Service {
	return &Service{
		generators: generators,
		cache:      cache,
		prefs:      prefs,
		reviews:    reviews,
	}
}

// Insights returns the current insight set: the cached snapshot while it
// is within its TTL, otherwise a freshly generated one. force bypasses
// the freshness check entirely.
func (s *Service) Insights(ctx context.Context, force bool) ([]models.Insight, error) {
	prefs, err := s.prefs.Get()
	if err != nil {
		return nil, err
	}

	if !force && s.cache.IsValid(prefs.InsightsCacheHours) {
		snapshot, err := s.cache.Get()
		if err == nil && snapshot != nil {
			return snapshot.Insights, nil
		}
	}

	reviews, err := s.reviews.List()
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, errs.New(errs.Unknown, "no reviews to analyze; sync first")
	}

	generator, ok := s.generators[prefs.AIProvider]
	if !ok {
		return nil, errs.Newf(errs.Unknown, "no %q insight provider configured", prefs.AIProvider)
	}

	insights, err := generator.Generate(ctx, reviews)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(insights); err != nil {
		return nil, err
	}
	return insights, nil
}
