// ABOUTME: HTTP client for the reviews API, paginated full fetches and since-filtered deltas
// ABOUTME: Implements sync.ReviewSource and maps response statuses onto error kinds

package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/harper/review-rescue/internal/errs"
	"github.com/harper/review-rescue/internal/models"
	syncer "github.com/harper/review-rescue/internal/sync"
)

// DefaultPageSize matches the server's maximum page size.
const DefaultPageSize = 50

// TokenSource supplies a valid bearer token for each request.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// ReviewsConfig configures the reviews API client.
type ReviewsConfig struct {
	BaseURL    string
	PageSize   int
	HTTPClient *http.Client
}

// ReviewsClient fetches the user's reviews from the remote API.
type ReviewsClient struct {
	baseURL  string
	pageSize int
	tokens   TokenSource
	client   *http.Client
}

// NewReviewsClient creates a client against the given base URL.
func NewReviewsClient(cfg ReviewsConfig, tokens TokenSource) *ReviewsClient {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ReviewsClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: pageSize,
		tokens:   tokens,
		client:   client,
	}
}

// reviewPayload is the wire shape of one review.
type reviewPayload struct {
	ID               string    `json:"id"`
	BusinessName     string    `json:"business_name"`
	BusinessLocation string    `json:"business_location"`
	Rating           int       `json:"rating"`
	ReviewText       string    `json:"review_text"`
	AuthorName       string    `json:"author_name"`
	AuthorPhotoURL   string    `json:"author_photo_url"`
	ReviewDate       time.Time `json:"review_date"`
	Photos           []struct {
		ID           string `json:"id"`
		URL          string `json:"url"`
		ThumbnailURL string `json:"thumbnail_url"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
	} `json:"photos"`
	Response *struct {
		Text          string    `json:"text"`
		Date          time.Time `json:"date"`
		ResponderName string    `json:"responder_name"`
	} `json:"response"`
}

type reviewsPage struct {
	Reviews       []reviewPayload `json:"reviews"`
	NextPageToken string          `json:"next_page_token"`
}

// FetchAll returns one page of the complete review set.
func (c *ReviewsClient) FetchAll(ctx context.Context, pageToken string) (*syncer.Page, error) {
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(c.pageSize))
	if pageToken != "" {
		query.Set("page_token", pageToken)
	}

	page, err := c.getReviews(ctx, query)
	if err != nil {
		return nil, err
	}
	return &syncer.Page{
		Reviews:       toModels(page.Reviews),
		NextPageToken: page.NextPageToken,
	}, nil
}

// FetchSince returns reviews created or modified after the given time,
// draining pagination internally.
func (c *ReviewsClient) FetchSince(ctx context.Context, since time.Time) ([]models.Review, error) {
	var all []models.Review
	pageToken := ""
	for {
		query := url.Values{}
		query.Set("page_size", strconv.Itoa(c.pageSize))
		query.Set("updated_since", since.UTC().Format(time.RFC3339))
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		page, err := c.getReviews(ctx, query)
		if err != nil {
			return nil, err
		}
		all = append(all, toModels(page.Reviews)...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *ReviewsClient) getReviews(ctx context.Context, query url.Values) (*reviewsPage, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/v1/reviews?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, "reviews request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, classifyReviewsStatus(resp.StatusCode, string(body))
	}

	var page reviewsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errs.Wrap(errs.SerializationError, "malformed reviews response", err)
	}
	return &page, nil
}

func classifyReviewsStatus(status int, body string) error {
	body = strings.TrimSpace(body)
	switch {
	case status == http.StatusUnauthorized:
		return errs.Newf(errs.TokenExpired, "token rejected: %s", body)
	case status == http.StatusForbidden:
		return errs.Newf(errs.PermissionDenied, "reviews access denied: %s", body)
	case status == http.StatusTooManyRequests || status >= 500:
		return errs.Newf(errs.NetworkError, "reviews API unavailable (%d): %s", status, body)
	default:
		return errs.Newf(errs.Unknown, "unexpected status %d: %s", status, body)
	}
}

func toModels(payloads []reviewPayload) []models.Review {
	reviews := make([]models.Review, 0, len(payloads))
	for _, p := range payloads {
		review := models.Review{
			ExternalID:       p.ID,
			BusinessName:     p.BusinessName,
			BusinessLocation: p.BusinessLocation,
			Rating:           p.Rating,
			ReviewText:       p.ReviewText,
			AuthorName:       p.AuthorName,
			AuthorPhotoURL:   p.AuthorPhotoURL,
			ReviewDate:       p.ReviewDate,
		}
		for _, photo := range p.Photos {
			review.Photos = append(review.Photos, models.Photo{
				ID:           photo.ID,
				URL:          photo.URL,
				ThumbnailURL: photo.ThumbnailURL,
				Width:        photo.Width,
				Height:       photo.Height,
			})
		}
		if p.Response != nil {
			review.Response = &models.ReviewResponse{
				Text:          p.Response.Text,
				Date:          p.Response.Date,
				ResponderName: p.Response.ResponderName,
			}
		}
		reviews = append(reviews, review)
	}
	return reviews
}
