package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/camp-registry-api/internal/models"
)

// DefaultBaseURL is the spreadsheet export endpoint prefix. The sheet must be
// link-readable; authenticated access is handled outside this service.
const DefaultBaseURL = "https://docs.google.com/spreadsheets/d"

// SheetsSource reads a camp's sheet through the CSV export endpoint.
type SheetsSource struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewSheetsSource builds a sheet-backed feed source.
func NewSheetsSource(baseURL string, timeout time.Duration, logger *zap.Logger) *SheetsSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetsSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Snapshot downloads and parses the current sheet content. Ragged rows are
// tolerated: form edits can leave trailing columns empty.
func (s *SheetsSource) Snapshot(ctx context.Context, camp *models.Camp) (Rows, error) {
	if camp.SheetID == "" {
		return nil, fmt.Errorf("camp %s has no sheet id", camp.Slug)
	}

	url := fmt.Sprintf("%s/%s/export?format=csv", s.baseURL, camp.SheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed for camp %s: %w", camp.Slug, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed for camp %s: unexpected status %d", camp.Slug, resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse feed csv for camp %s: %w", camp.Slug, err)
	}

	s.logger.Debug("feed snapshot fetched",
		zap.String("camp", camp.Slug),
		zap.Int("rows", len(records)),
		zap.Duration("latency", time.Since(start)),
	)
	return Rows(records), nil
}
