package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/camp-registry-api/internal/classify"
	"github.com/noah-isme/camp-registry-api/internal/models"
	appErrors "github.com/noah-isme/camp-registry-api/pkg/errors"
)

type stubCamps struct {
	camp *models.Camp
	err  error
}

func (s *stubCamps) FindByID(ctx context.Context, id string) (*models.Camp, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.camp, nil
}

func makeRecord(id int, child, email string) *models.Registration {
	return &models.Registration{
		ID: id,
		Fields: models.Fields{
			{Name: "Timestamp", Value: "t"},
			{Name: "Child Name", Value: child},
			{Name: "Parent Email", Value: email},
		},
		AcceptanceStatus: models.AcceptancePending,
	}
}

func newFacade(store *memStore, source *stubFeed) *RegistrationService {
	camps := &stubCamps{camp: testCamp()}
	classifier := classify.New(nil, nil, nil)
	syncer := NewSyncService(source, store, nil, nil)
	return NewRegistrationService(camps, store, syncer, classifier, nil, nil, nil)
}

func TestRegistrationAddAssignsNextDenseID(t *testing.T) {
	store := &memStore{history: []*models.Registration{
		makeRecord(1, "Al", "ada@example.com"),
		makeRecord(2, "Bo", "eve@example.com"),
	}}
	svc := newFacade(store, &stubFeed{})

	set, err := svc.Add(context.Background(), "camp-1", AddRegistrationRequest{
		Fields: models.Fields{
			{Name: "Timestamp", Value: "t"},
			{Name: "Child Name", Value: "Cy"},
			{Name: "Parent Email", Value: "ivy@example.com"},
		},
	})
	require.NoError(t, err)
	require.Len(t, set.Registrations, 3)

	added := set.Registrations[2]
	assert.Equal(t, 3, added.ID)
	assert.Equal(t, models.AcceptancePending, added.AcceptanceStatus)
	assert.False(t, added.CreatedAt.IsZero())
	assert.Equal(t, 3, set.Classification.TotalCount)
	assert.Equal(t, 1, store.replaceCalls)
}

func TestRegistrationAddUnknownCamp(t *testing.T) {
	svc := NewRegistrationService(&stubCamps{err: sql.ErrNoRows}, &memStore{}, nil, classify.New(nil, nil, nil), nil, nil, nil)

	_, err := svc.Add(context.Background(), "nope", AddRegistrationRequest{
		Fields: models.Fields{{Name: "Child Name", Value: "Cy"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationModifyMergesColumns(t *testing.T) {
	store := &memStore{history: []*models.Registration{
		makeRecord(1, "Al", "ada@example.com"),
	}}
	svc := newFacade(store, &stubFeed{})

	set, err := svc.Modify(context.Background(), "camp-1", []ModifyRegistrationRequest{
		{ID: 1, Fields: models.Fields{
			{Name: "Child Name", Value: "Alfred"},
			{Name: "Notes", Value: "vegetarian"},
		}},
	})
	require.NoError(t, err)

	record := set.Registrations[0]
	child, _ := record.Fields.Get("Child Name")
	assert.Equal(t, "Alfred", child)
	notes, _ := record.Fields.Get("Notes")
	assert.Equal(t, "vegetarian", notes)
	// Merged columns keep their original position; new ones go last.
	assert.Equal(t, []string{"Timestamp", "Child Name", "Parent Email", "Notes"}, record.Fields.Names())
}

func TestRegistrationModifyUnknownIDAbortsBatch(t *testing.T) {
	store := &memStore{history: []*models.Registration{
		makeRecord(1, "Al", "ada@example.com"),
	}}
	svc := newFacade(store, &stubFeed{})

	_, err := svc.Modify(context.Background(), "camp-1", []ModifyRegistrationRequest{
		{ID: 1, Fields: models.Fields{{Name: "Child Name", Value: "Alfred"}}},
		{ID: 99, Fields: models.Fields{{Name: "Child Name", Value: "Ghost"}}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Zero(t, store.replaceCalls)
}

func TestRegistrationDeleteRenumbers(t *testing.T) {
	store := &memStore{history: []*models.Registration{
		makeRecord(1, "Al", "ada@example.com"),
		makeRecord(2, "Bo", "eve@example.com"),
		makeRecord(3, "Cy", "ivy@example.com"),
		makeRecord(4, "Di", "joy@example.com"),
	}}
	svc := newFacade(store, &stubFeed{})

	set, err := svc.Delete(context.Background(), "camp-1", 2)
	require.NoError(t, err)
	require.Len(t, set.Registrations, 3)

	names := make([]string, 0, 3)
	for i, record := range set.Registrations {
		assert.Equal(t, i+1, record.ID)
		child, _ := record.Fields.Get("Child Name")
		names = append(names, child)
	}
	assert.Equal(t, []string{"Al", "Cy", "Di"}, names)
}

func TestRegistrationDeleteUnknownID(t *testing.T) {
	store := &memStore{history: []*models.Registration{makeRecord(1, "Al", "ada@example.com")}}
	svc := newFacade(store, &stubFeed{})

	_, err := svc.Delete(context.Background(), "camp-1", 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationAcceptanceUpdatesMatchingRecords(t *testing.T) {
	store := &memStore{history: []*models.Registration{
		makeRecord(1, "Al", "ada@example.com"),
		makeRecord(2, "Bo", "eve@example.com"),
	}}
	svc := newFacade(store, &stubFeed{})

	set, err := svc.UpdateAcceptance(context.Background(), "camp-1", AcceptanceRequest{
		IDs:    []int{2},
		Status: models.AcceptanceAccepted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AcceptancePending, set.Registrations[0].AcceptanceStatus)
	assert.Equal(t, models.AcceptanceAccepted, set.Registrations[1].AcceptanceStatus)
}

func TestRegistrationAcceptanceZeroMatchesFails(t *testing.T) {
	store := &memStore{history: []*models.Registration{makeRecord(1, "Al", "ada@example.com")}}
	svc := newFacade(store, &stubFeed{})

	_, err := svc.UpdateAcceptance(context.Background(), "camp-1", AcceptanceRequest{
		IDs:    []int{8, 9},
		Status: models.AcceptanceRejected,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Zero(t, store.replaceCalls)
}

func TestRegistrationAcceptanceUnknownStatus(t *testing.T) {
	svc := newFacade(&memStore{}, &stubFeed{})

	_, err := svc.UpdateAcceptance(context.Background(), "camp-1", AcceptanceRequest{
		IDs:    []int{1},
		Status: models.AcceptanceStatus("maybe"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

// End-to-end over the real sync pipeline: a first sheet snapshot is merged,
// classified and returned in one List call.
func TestRegistrationListFirstSync(t *testing.T) {
	source := &stubFeed{rows: feedRows(
		testHeaders,
		[]string{"t1", "Al", "Ada", "ada@example.com", "111"},
		[]string{"t2", "Bo", "Ada", "ada@example.com", "111"},
		[]string{"t3", "Cy", "Eve", "eve@example.com", "222"},
	)}
	store := &memStore{}
	svc := newFacade(store, source)

	set, err := svc.List(context.Background(), "camp-1")
	require.NoError(t, err)
	require.Len(t, set.Registrations, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{set.Registrations[0].ID, set.Registrations[1].ID, set.Registrations[2].ID})

	require.Len(t, set.SiblingGroups, 1)
	group := set.SiblingGroups[0]
	assert.Equal(t, "ada@example.com", group.FamilyKey)
	assert.Equal(t, 2, group.ChildCount)
	assert.Equal(t, "Al, Bo", group.ChildrenNames)

	assert.Equal(t, 3, set.Classification.TotalCount)
	assert.Equal(t, 1, set.Classification.SiblingGroupsCount)
}
