package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/camp-registry-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRegistrationRepositoryLoadHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	fields := models.Fields{{Name: "Timestamp", Value: "t1"}, {Name: "Child", Value: "Al"}}
	stored, err := fields.Value()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"seq", "fields", "status", "validation_errors", "duplicate_of", "acceptance_status", "created_at"}).
		AddRow(1, stored, models.RecordStatusValid, pq.StringArray(nil), nil, models.AcceptancePending, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seq, fields, status, validation_errors, duplicate_of, acceptance_status, created_at")).
		WithArgs("camp-1").
		WillReturnRows(rows)

	history, err := repo.LoadHistory(context.Background(), "camp-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].ID)
	value, ok := history[0].Fields.Get("Child")
	require.True(t, ok)
	assert.Equal(t, "Al", value)
	// Column order must survive the round trip.
	assert.Equal(t, []string{"Timestamp", "Child"}, history[0].Fields.Names())
}

func TestRegistrationRepositoryReplaceHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	history := []*models.Registration{
		{ID: 1, Fields: models.Fields{{Name: "Child", Value: "Al"}}, Status: models.RecordStatusValid, AcceptanceStatus: models.AcceptancePending, CreatedAt: time.Now()},
		{ID: 2, Fields: models.Fields{{Name: "Child", Value: "Bo"}}, Status: models.RecordStatusValid, AcceptanceStatus: models.AcceptancePending, CreatedAt: time.Now()},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registrations WHERE camp_id = $1")).
		WithArgs("camp-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE camps SET last_row_processed = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceHistory(context.Background(), "camp-1", history, 2))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryReplaceHistoryRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	history := []*models.Registration{
		{ID: 1, Fields: models.Fields{{Name: "Child", Value: "Al"}}, Status: models.RecordStatusValid, AcceptanceStatus: models.AcceptancePending, CreatedAt: time.Now()},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registrations WHERE camp_id = $1")).
		WithArgs("camp-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ReplaceHistory(context.Background(), "camp-1", history, 1)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
