// ABOUTME: Review is the core record cached locally from the remote source
// ABOUTME: Includes the derived ReviewIndex, which is rebuildable and never authoritative
package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Review is a single review record. The local id is generated once and
// stable; ExternalID is the remote source's key and the deduplication key.
type Review struct {
	ID               string          `json:"id"`
	ExternalID       string          `json:"external_id"`
	BusinessName     string          `json:"business_name"`
	BusinessLocation string          `json:"business_location,omitempty"`
	Rating           int             `json:"rating"` // 1-5
	ReviewText       string          `json:"review_text"`
	AuthorName       string          `json:"author_name"`
	AuthorPhotoURL   string          `json:"author_photo_url,omitempty"`
	ReviewDate       time.Time       `json:"review_date"`
	Photos           []Photo         `json:"photos,omitempty"`
	Response         *ReviewResponse `json:"response,omitempty"`
	SyncedAt         time.Time       `json:"synced_at"`
}

// Photo is an image attached to a review.
type Photo struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// ReviewResponse is the business owner's reply.
type ReviewResponse struct {
	Text          string    `json:"text"`
	Date          time.Time `json:"date"`
	ResponderName string    `json:"responder_name,omitempty"`
}

// NewReviewID generates a local review id.
func NewReviewID() string {
	return "rev_" + uuid.New().String()
}

// ReviewUpdate is a partial review; nil fields are left untouched when
// applied to an existing record.
type ReviewUpdate struct {
	BusinessName     *string         `json:"business_name,omitempty"`
	BusinessLocation *string         `json:"business_location,omitempty"`
	Rating           *int            `json:"rating,omitempty"`
	ReviewText       *string         `json:"review_text,omitempty"`
	AuthorName       *string         `json:"author_name,omitempty"`
	AuthorPhotoURL   *string         `json:"author_photo_url,omitempty"`
	ReviewDate       *time.Time      `json:"review_date,omitempty"`
	Photos           []Photo         `json:"photos,omitempty"`
	Response         *ReviewResponse `json:"response,omitempty"`
	SyncedAt         *time.Time      `json:"synced_at,omitempty"`
}

// Apply merges the set fields into r.
func (u ReviewUpdate) Apply(r *Review) {
	if u.BusinessName != nil {
		r.BusinessName = *u.BusinessName
	}
	if u.BusinessLocation != nil {
		r.BusinessLocation = *u.BusinessLocation
	}
	if u.Rating != nil {
		r.Rating = *u.Rating
	}
	if u.ReviewText != nil {
		r.ReviewText = *u.ReviewText
	}
	if u.AuthorName != nil {
		r.AuthorName = *u.AuthorName
	}
	if u.AuthorPhotoURL != nil {
		r.AuthorPhotoURL = *u.AuthorPhotoURL
	}
	if u.ReviewDate != nil {
		r.ReviewDate = *u.ReviewDate
	}
	if u.Photos != nil {
		r.Photos = u.Photos
	}
	if u.Response != nil {
		r.Response = u.Response
	}
	if u.SyncedAt != nil {
		r.SyncedAt = *u.SyncedAt
	}
}

// ReviewIndex is derived from the review collection and always
// reconstructible from it. It is a cache of a cache: readers that find it
// missing or stale rebuild it rather than trusting it.
type ReviewIndex struct {
	ByExternalID map[string]string   `json:"by_external_id"`
	ByBusiness   map[string][]string `json:"by_business"`
	TotalCount   int                 `json:"total_count"`
	LastUpdated  time.Time           `json:"last_updated"`
}

// BuildReviewIndex scans the whole collection once and produces a fresh
// index. O(n) per call; n is bounded by the migration threshold.
func BuildReviewIndex(reviews []Review, now time.Time) *ReviewIndex {
	idx := &ReviewIndex{
		ByExternalID: make(map[string]string, len(reviews)),
		ByBusiness:   make(map[string][]string),
		TotalCount:   len(reviews),
		LastUpdated:  now,
	}
	for _, r := range reviews {
		idx.ByExternalID[r.ExternalID] = r.ID
		idx.ByBusiness[r.BusinessName] = append(idx.ByBusiness[r.BusinessName], r.ID)
	}
	for name := range idx.ByBusiness {
		sort.Strings(idx.ByBusiness[name])
	}
	return idx
}
