package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/camp-registry-api/internal/feed"
	"github.com/noah-isme/camp-registry-api/internal/models"
	appErrors "github.com/noah-isme/camp-registry-api/pkg/errors"
)

type stubFeed struct {
	rows feed.Rows
	err  error
}

func (s *stubFeed) Snapshot(ctx context.Context, camp *models.Camp) (feed.Rows, error) {
	return s.rows, s.err
}

// memStore keeps one camp's history in memory, mimicking the repository's
// replace-then-update-cursor contract.
type memStore struct {
	history      []*models.Registration
	cursor       int
	loadErr      error
	replaceErr   error
	replaceCalls int
}

func (m *memStore) LoadHistory(ctx context.Context, campID string) ([]*models.Registration, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]*models.Registration, len(m.history))
	copy(out, m.history)
	return out, nil
}

func (m *memStore) ReplaceHistory(ctx context.Context, campID string, history []*models.Registration, cursor int) error {
	m.replaceCalls++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.history = make([]*models.Registration, len(history))
	copy(m.history, history)
	m.cursor = cursor
	return nil
}

func feedRows(rows ...[]string) feed.Rows {
	return feed.Rows(rows)
}

var testHeaders = []string{"Timestamp", "Child Name", "Parent Name", "Parent Email", "Phone"}

func testCamp() *models.Camp {
	return &models.Camp{ID: "camp-1", Slug: "estate-2026", Name: "Estate 2026", SheetID: "sheet-1"}
}

func TestSyncFirstRunAssignsSequentialIDs(t *testing.T) {
	source := &stubFeed{rows: feedRows(
		testHeaders,
		[]string{"2026-06-01 10:00:00", "Al", "Ada", "ada@example.com", "111"},
		[]string{"2026-06-01 11:00:00", "Bo", "Ada", "ada@example.com", "111"},
		[]string{"2026-06-01 12:00:00", "Cy", "Eve", "eve@example.com", "222"},
	)}
	store := &memStore{}
	svc := NewSyncService(source, store, nil, nil)

	camp := testCamp()
	history, cursor, err := svc.Sync(context.Background(), camp)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, cursor)
	assert.Equal(t, 3, camp.LastRowProcessed)
	for i, record := range history {
		assert.Equal(t, i+1, record.ID)
	}
	child, ok := history[0].Fields.Get("Child Name")
	require.True(t, ok)
	assert.Equal(t, "Al", child)
	assert.Equal(t, 3, store.cursor)
}

func TestSyncMergesOnlyRowsPastCursor(t *testing.T) {
	source := &stubFeed{rows: feedRows(
		testHeaders,
		[]string{"t1", "Al", "Ada", "ada@example.com", "111"},
		[]string{"t2", "Bo", "Eve", "eve@example.com", "222"},
		[]string{"t3", "Cy", "Ivy", "ivy@example.com", "333"},
	)}
	existing := []*models.Registration{
		{ID: 1, Fields: models.Fields{{Name: "Child Name", Value: "Al (edited locally)"}}, AcceptanceStatus: models.AcceptanceAccepted},
		{ID: 2, Fields: models.Fields{{Name: "Child Name", Value: "Bo"}}, AcceptanceStatus: models.AcceptancePending},
	}
	store := &memStore{history: existing, cursor: 2}
	svc := NewSyncService(source, store, nil, nil)

	camp := testCamp()
	camp.LastRowProcessed = 2
	history, cursor, err := svc.Sync(context.Background(), camp)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, cursor)

	// Already-merged rows are never re-read: local edits and workflow state survive.
	edited, _ := history[0].Fields.Get("Child Name")
	assert.Equal(t, "Al (edited locally)", edited)
	assert.Equal(t, models.AcceptanceAccepted, history[0].AcceptanceStatus)
	assert.Equal(t, 3, history[2].ID)
}

func TestSyncIsIdempotentWithoutNewRows(t *testing.T) {
	source := &stubFeed{rows: feedRows(
		testHeaders,
		[]string{"t1", "Al", "Ada", "ada@example.com", "111"},
	)}
	store := &memStore{history: []*models.Registration{{ID: 1}}, cursor: 1}
	svc := NewSyncService(source, store, nil, nil)

	camp := testCamp()
	camp.LastRowProcessed = 1
	history, cursor, err := svc.Sync(context.Background(), camp)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 1, cursor)
	assert.Zero(t, store.replaceCalls)
}

func TestSyncFeedErrorLeavesStateUntouched(t *testing.T) {
	source := &stubFeed{err: errors.New("boom")}
	store := &memStore{history: []*models.Registration{{ID: 1}}, cursor: 1}
	svc := NewSyncService(source, store, nil, nil)

	camp := testCamp()
	camp.LastRowProcessed = 1
	_, _, err := svc.Sync(context.Background(), camp)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFeedRead.Code, appErrors.FromError(err).Code)
	assert.Zero(t, store.replaceCalls)
	assert.Equal(t, 1, camp.LastRowProcessed)
}

func TestSyncRebuildsWhenHistoryUnreadable(t *testing.T) {
	source := &stubFeed{rows: feedRows(
		testHeaders,
		[]string{"t1", "Al", "Ada", "ada@example.com", "111"},
		[]string{"t2", "Bo", "Eve", "eve@example.com", "222"},
	)}
	store := &memStore{loadErr: errors.New("corrupt payload")}
	svc := NewSyncService(source, store, nil, nil)

	camp := testCamp()
	camp.LastRowProcessed = 2
	history, cursor, err := svc.Sync(context.Background(), camp)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, cursor)
	assert.Equal(t, 1, history[0].ID)
	assert.Equal(t, 2, history[1].ID)
	assert.Equal(t, 1, store.replaceCalls)
}

func TestSyncPersistFailureSurfacesTyped(t *testing.T) {
	source := &stubFeed{rows: feedRows(
		testHeaders,
		[]string{"t1", "Al", "Ada", "ada@example.com", "111"},
	)}
	store := &memStore{replaceErr: errors.New("disk full")}
	svc := NewSyncService(source, store, nil, nil)

	_, _, err := svc.Sync(context.Background(), testCamp())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPersistence.Code, appErrors.FromError(err).Code)
}

func TestRecordFromRowLiftsAcceptanceColumn(t *testing.T) {
	headers := []string{"Timestamp", "Child Name", "acceptance_status"}
	record := recordFromRow(headers, []string{"2026-06-01T10:00:00Z", "Al", "ACCEPTED"})

	assert.Equal(t, models.AcceptanceAccepted, record.AcceptanceStatus)
	_, kept := record.Fields.Get("acceptance_status")
	assert.False(t, kept, "acceptance column must not stay a raw field")

	expected := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, record.CreatedAt.Equal(expected))
}

func TestRecordFromRowPadsShortRows(t *testing.T) {
	record := recordFromRow(testHeaders, []string{"t1", "Al"})
	require.Len(t, record.Fields, len(testHeaders))
	email, _ := record.Fields.Get("Parent Email")
	assert.Equal(t, "", email)
	assert.Equal(t, models.AcceptancePending, record.AcceptanceStatus)
}

func TestRecordFromRowUnparseableTimestampFallsBack(t *testing.T) {
	before := time.Now().UTC()
	record := recordFromRow([]string{"Timestamp", "Child Name"}, []string{"not a time", "Al"})
	assert.False(t, record.CreatedAt.Before(before))
}
