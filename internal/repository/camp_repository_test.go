package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/camp-registry-api/internal/models"
)

func TestCampRepositoryFindBySlug(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCampRepository(db)

	rows := sqlmock.NewRows([]string{"id", "slug", "name", "sheet_id", "last_row_processed", "created_at", "updated_at"}).
		AddRow("camp-1", "estate-2026", "Estate 2026", "sheet-1", 3, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, slug, name, sheet_id, last_row_processed, created_at, updated_at FROM camps WHERE slug = $1")).
		WithArgs("estate-2026").
		WillReturnRows(rows)

	camp, err := repo.FindBySlug(context.Background(), "estate-2026")
	require.NoError(t, err)
	assert.Equal(t, "camp-1", camp.ID)
	assert.Equal(t, 3, camp.LastRowProcessed)
}

func TestCampRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCampRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO camps")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	camp := &models.Camp{ID: "camp-1", Slug: "estate-2026", Name: "Estate 2026", SheetID: "sheet-1"}
	require.NoError(t, repo.Create(context.Background(), camp))
	assert.False(t, camp.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampRepositoryDeleteRemovesHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCampRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registrations WHERE camp_id = $1")).
		WithArgs("camp-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM camps WHERE id = $1")).
		WithArgs("camp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "camp-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCampRepository(db)

	rows := sqlmock.NewRows([]string{"id", "slug", "name", "sheet_id", "last_row_processed", "created_at", "updated_at"}).
		AddRow("camp-1", "estate-2026", "Estate 2026", "sheet-1", 0, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, slug, name, sheet_id, last_row_processed, created_at, updated_at").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM camps")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	camps, total, err := repo.List(context.Background(), models.CampFilter{})
	require.NoError(t, err)
	assert.Len(t, camps, 1)
	assert.Equal(t, 1, total)
}
