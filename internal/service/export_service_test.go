package service

import (
	"context"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/camp-registry-api/internal/models"
	appErrors "github.com/noah-isme/camp-registry-api/pkg/errors"
)

type stubCampGetter struct {
	camp *models.Camp
}

func (s *stubCampGetter) Get(ctx context.Context, id string) (*models.Camp, error) {
	return s.camp, nil
}

type stubLister struct {
	set *RegistrationSet
}

func (s *stubLister) List(ctx context.Context, campID string) (*RegistrationSet, error) {
	return s.set, nil
}

func exportFixture() *RegistrationSet {
	dup := 1
	return &RegistrationSet{
		Registrations: []*models.Registration{
			{
				ID: 1,
				Fields: models.Fields{
					{Name: "Child Name", Value: "Al"},
					{Name: "Parent Email", Value: "ada@example.com"},
				},
				Status:           models.RecordStatusValid,
				AcceptanceStatus: models.AcceptanceAccepted,
			},
			{
				ID: 2,
				Fields: models.Fields{
					{Name: "Child Name", Value: "Al"},
					{Name: "Parent Email", Value: "ada@example.com"},
				},
				Status:           models.RecordStatusDuplicate,
				DuplicateOf:      &dup,
				AcceptanceStatus: models.AcceptancePending,
			},
			{
				ID:               3,
				Fields:           models.Fields{{Name: "Child Name", Value: "Bo"}},
				Status:           models.RecordStatusInvalid,
				ValidationErrors: pq.StringArray{"Missing required field: Parent Email"},
				AcceptanceStatus: models.AcceptancePending,
			},
		},
		SiblingGroups: []models.FamilyGroup{
			{FamilyKey: "ada@example.com", ParentName: "Ada", ChildCount: 2, ChildrenNames: "Al, Bo"},
		},
		Classification: models.Classification{ValidCount: 1, InvalidCount: 1, DuplicateCount: 1, SiblingGroupsCount: 1, TotalCount: 3},
	}
}

func newExportService() *ExportService {
	camps := &stubCampGetter{camp: testCamp()}
	return NewExportService(camps, &stubLister{set: exportFixture()}, nil, nil, nil)
}

func TestExportCSVContainsRawAndDerivedColumns(t *testing.T) {
	svc := newExportService()

	result, err := svc.Generate(context.Background(), "camp-1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Child Name")
	assert.Contains(t, lines[0], "Acceptance Status")
	assert.Contains(t, body, "Missing required field: Parent Email")
	// Duplicate row points back at its original.
	assert.Contains(t, lines[2], "duplicate")
}

func TestExportPDFRendersReport(t *testing.T) {
	svc := newExportService()

	result, err := svc.Generate(context.Background(), "camp-1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := newExportService()

	_, err := svc.Generate(context.Background(), "camp-1", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
