package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/camp-registry-api/internal/classify"
	"github.com/noah-isme/camp-registry-api/internal/feed"
	"github.com/noah-isme/camp-registry-api/internal/models"
	"github.com/noah-isme/camp-registry-api/internal/service"
	"github.com/noah-isme/camp-registry-api/pkg/response"
)

type campReaderMock struct{}

func (m *campReaderMock) FindByID(ctx context.Context, id string) (*models.Camp, error) {
	return &models.Camp{ID: id, Slug: "estate-2026", Name: "Estate 2026", SheetID: "sheet-1"}, nil
}

type feedMock struct {
	rows feed.Rows
}

func (m *feedMock) Snapshot(ctx context.Context, camp *models.Camp) (feed.Rows, error) {
	return m.rows, nil
}

type storeMock struct {
	history []*models.Registration
}

func (m *storeMock) LoadHistory(ctx context.Context, campID string) ([]*models.Registration, error) {
	out := make([]*models.Registration, len(m.history))
	copy(out, m.history)
	return out, nil
}

func (m *storeMock) ReplaceHistory(ctx context.Context, campID string, history []*models.Registration, cursor int) error {
	m.history = make([]*models.Registration, len(history))
	copy(m.history, history)
	return nil
}

func newRegistrationHandler(store *storeMock, rows feed.Rows) *RegistrationHandler {
	camps := &campReaderMock{}
	classifier := classify.New(nil, nil, nil)
	syncer := service.NewSyncService(&feedMock{rows: rows}, store, nil, nil)
	svc := service.NewRegistrationService(camps, store, syncer, classifier, nil, nil, nil)
	return NewRegistrationHandler(svc)
}

func seedHistory() []*models.Registration {
	return []*models.Registration{
		{ID: 1, Fields: models.Fields{
			{Name: "Timestamp", Value: "t1"},
			{Name: "Child Name", Value: "Al"},
			{Name: "Parent Email", Value: "ada@example.com"},
		}, AcceptanceStatus: models.AcceptancePending},
		{ID: 2, Fields: models.Fields{
			{Name: "Timestamp", Value: "t2"},
			{Name: "Child Name", Value: "Bo"},
			{Name: "Parent Email", Value: "eve@example.com"},
		}, AcceptanceStatus: models.AcceptancePending},
	}
}

func putRegistrations(t *testing.T, h *RegistrationHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPut, "/camps/camp-1/registrations", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "campID", Value: "camp-1"}}
	h.Modify(c)
	return w
}

func TestRegistrationHandlerModifySingleObject(t *testing.T) {
	store := &storeMock{history: seedHistory()}
	h := newRegistrationHandler(store, nil)

	w := putRegistrations(t, h, `{"id":1,"fields":{"Child Name":"Alfred"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	child, _ := store.history[0].Fields.Get("Child Name")
	assert.Equal(t, "Alfred", child)
}

func TestRegistrationHandlerModifyArray(t *testing.T) {
	store := &storeMock{history: seedHistory()}
	h := newRegistrationHandler(store, nil)

	w := putRegistrations(t, h, `[{"id":1,"fields":{"Child Name":"Alfred"}},{"id":2,"fields":{"Child Name":"Bob"}}]`)
	require.Equal(t, http.StatusOK, w.Code)

	first, _ := store.history[0].Fields.Get("Child Name")
	second, _ := store.history[1].Fields.Get("Child Name")
	assert.Equal(t, "Alfred", first)
	assert.Equal(t, "Bob", second)
}

func TestRegistrationHandlerModifyUnknownIDIsNotFound(t *testing.T) {
	store := &storeMock{history: seedHistory()}
	h := newRegistrationHandler(store, nil)

	w := putRegistrations(t, h, `{"id":99,"fields":{"Child Name":"Ghost"}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistrationHandlerModifyMalformedBody(t *testing.T) {
	h := newRegistrationHandler(&storeMock{}, nil)

	w := putRegistrations(t, h, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationHandlerDeleteRejectsBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newRegistrationHandler(&storeMock{}, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/camps/camp-1/registrations/abc", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "campID", Value: "camp-1"}, {Key: "id", Value: "abc"}}

	h.Delete(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationHandlerListCarriesClassification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rows := feed.Rows{
		{"Timestamp", "Child Name", "Parent Email"},
		{"t1", "Al", "ada@example.com"},
		{"t2", "Bo", "ada@example.com"},
	}
	h := newRegistrationHandler(&storeMock{}, rows)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/camps/camp-1/registrations", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "campID", Value: "camp-1"}}

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Classification)
	assert.Equal(t, 2, envelope.Classification.TotalCount)
	assert.Equal(t, 1, envelope.Classification.SiblingGroupsCount)
}
