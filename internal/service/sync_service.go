package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/camp-registry-api/internal/feed"
	"github.com/noah-isme/camp-registry-api/internal/models"
	appErrors "github.com/noah-isme/camp-registry-api/pkg/errors"
)

// acceptanceColumn is the optional feed column carrying a pre-assigned
// workflow state. It is lifted onto the record and never kept as a raw field.
const acceptanceColumn = "acceptance_status"

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"1/2/2006 15:04:05",
}

type syncFeed interface {
	Snapshot(ctx context.Context, camp *models.Camp) (feed.Rows, error)
}

type historyStore interface {
	LoadHistory(ctx context.Context, campID string) ([]*models.Registration, error)
	ReplaceHistory(ctx context.Context, campID string, history []*models.Registration, cursor int) error
}

// SyncService merges newly appended feed rows into the locally owned history.
// The feed is treated as append-only: rows already merged are never re-read,
// so edits made directly to synced sheet rows stay unreconciled. This is a
// known limitation inherited from the sheet-based workflow.
type SyncService struct {
	source  syncFeed
	store   historyStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSyncService constructs a SyncService.
func NewSyncService(source syncFeed, store historyStore, metrics *MetricsService, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{source: source, store: store, metrics: metrics, logger: logger}
}

// Sync reads the current feed snapshot and merges rows appended since the
// camp's cursor into the history, assigning the next free ids. History and
// cursor are persisted atomically; a failed feed read leaves both untouched.
// An unreadable persisted history is rebuilt from the feed rather than
// failing: availability wins over strict consistency there.
func (s *SyncService) Sync(ctx context.Context, camp *models.Camp) ([]*models.Registration, int, error) {
	rows, err := s.source.Snapshot(ctx, camp)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordSync(camp.Slug, false, 0)
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrFeedRead.Code, appErrors.ErrFeedRead.Status, appErrors.ErrFeedRead.Message)
	}

	cursor := camp.LastRowProcessed
	rebuilt := false
	history, loadErr := s.store.LoadHistory(ctx, camp.ID)
	if loadErr != nil {
		s.logger.Warn("persisted history unreadable, rebuilding from feed",
			zap.String("camp", camp.Slug),
			zap.Error(loadErr),
		)
		history = nil
		cursor = 0
		rebuilt = true
	}

	headers := rows.Headers()
	dataRows := rows.DataRows()
	if cursor > len(dataRows) {
		// The cursor must never exceed the feed row count; a trimmed sheet is
		// treated like a rebuilt one.
		s.logger.Warn("cursor beyond feed length, resetting",
			zap.String("camp", camp.Slug),
			zap.Int("cursor", cursor),
			zap.Int("feed_rows", len(dataRows)),
		)
		cursor = len(dataRows)
	}

	nextID := 1
	for _, record := range history {
		if record.ID >= nextID {
			nextID = record.ID + 1
		}
	}

	newRows := dataRows[cursor:]
	merged := history
	for _, row := range newRows {
		record := recordFromRow(headers, row)
		record.ID = nextID
		nextID++
		merged = append(merged, record)
	}
	newCursor := len(dataRows)

	if len(newRows) == 0 && newCursor == camp.LastRowProcessed && !rebuilt {
		// Nothing appended since the last sync; history and cursor stand.
		return merged, newCursor, nil
	}

	if err := s.store.ReplaceHistory(ctx, camp.ID, merged, newCursor); err != nil {
		if s.metrics != nil {
			s.metrics.RecordSync(camp.Slug, false, 0)
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	camp.LastRowProcessed = newCursor

	if s.metrics != nil {
		s.metrics.RecordSync(camp.Slug, true, len(newRows))
	}
	s.logger.Info("feed merged",
		zap.String("camp", camp.Slug),
		zap.Int("new_rows", len(newRows)),
		zap.Int("cursor", newCursor),
		zap.Int("history", len(merged)),
	)
	return merged, newCursor, nil
}

// recordFromRow converts one positional feed row into a registration. Rows
// shorter than the header are padded with blanks; the acceptance column, when
// present, seeds the workflow state instead of staying a raw field.
func recordFromRow(headers []string, row []string) *models.Registration {
	record := &models.Registration{AcceptanceStatus: models.AcceptancePending}
	for i, header := range headers {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		if strings.EqualFold(strings.TrimSpace(header), acceptanceColumn) {
			if status := models.AcceptanceStatus(strings.ToLower(strings.TrimSpace(value))); models.ValidAcceptanceStatus(status) {
				record.AcceptanceStatus = status
			}
			continue
		}
		record.Fields = append(record.Fields, models.Field{Name: header, Value: value})
	}
	record.CreatedAt = submissionTime(record.Fields)
	return record
}

// submissionTime parses the feed's timestamp column when one is present and
// parseable; otherwise the merge time is used.
func submissionTime(fields models.Fields) time.Time {
	for _, field := range fields {
		if !strings.Contains(strings.ToLower(field.Name), "timestamp") {
			continue
		}
		raw := strings.TrimSpace(field.Value)
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts
			}
		}
		break
	}
	return time.Now().UTC()
}
