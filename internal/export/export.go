// ABOUTME: Review exporters rendering CSV and JSON files
// ABOUTME: PDF is recognized but reported as unsupported rather than silently dropped

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"github.com/harper/review-rescue/internal/errs"
	"github.com/harper/review-rescue/internal/models"
)

// File is a rendered export ready to hand to the caller.
type File struct {
	Name     string
	Data     []byte
	MIMEType string
}

// Export renders reviews in the given format.
func Export(reviews []models.Review, format string, now time.Time) (*File, error) {
	switch format {
	case models.FormatCSV:
		return exportCSV(reviews, now)
	case models.FormatJSON:
		return exportJSON(reviews, now)
	case models.FormatPDF:
		return nil, errs.New(errs.Unknown, "pdf export is not supported yet")
	default:
		return nil, errs.Newf(errs.Unknown, "unknown export format %q", format)
	}
}

func exportCSV(reviews []models.Review, now time.Time) (*File, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "business_name", "business_location", "rating",
		"review_text", "author_name", "review_date", "photo_count",
		"has_response", "synced_at",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range reviews {
		record := []string{
			r.ID,
			r.BusinessName,
			r.BusinessLocation,
			strconv.Itoa(r.Rating),
			r.ReviewText,
			r.AuthorName,
			r.ReviewDate.Format(time.RFC3339),
			strconv.Itoa(len(r.Photos)),
			strconv.FormatBool(r.Response != nil),
			r.SyncedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return &File{
		Name:     models.ExportFileName(models.FormatCSV, now),
		Data:     buf.Bytes(),
		MIMEType: "text/csv",
	}, nil
}

type jsonExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Count      int             `json:"count"`
	Reviews    []models.Review `json:"reviews"`
}

func exportJSON(reviews []models.Review, now time.Time) (*File, error) {
	doc := jsonExport{
		ExportedAt: now,
		Count:      len(reviews),
		Reviews:    reviews,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.SerializationError, "failed to encode export", err)
	}
	return &File{
		Name:     models.ExportFileName(models.FormatJSON, now),
		Data:     data,
		MIMEType: "application/json",
	}, nil
}
