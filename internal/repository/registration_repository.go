package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/camp-registry-api/internal/models"
)

// RegistrationRepository persists each camp's registration history together
// with its sync cursor. The history is replace-on-write: every mutation and
// every merge rewrites the camp's rows and the cursor in a single transaction
// so a cursor can never advance without its rows being present.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// LoadHistory returns the camp's full history in id order.
func (r *RegistrationRepository) LoadHistory(ctx context.Context, campID string) ([]*models.Registration, error) {
	query := `SELECT seq, fields, status, validation_errors, duplicate_of, acceptance_status, created_at
        FROM registrations WHERE camp_id = $1 ORDER BY seq`
	var history []*models.Registration
	if err := r.db.SelectContext(ctx, &history, query, campID); err != nil {
		return nil, fmt.Errorf("load history for camp %s: %w", campID, err)
	}
	return history, nil
}

// ReplaceHistory rewrites the camp's history and advances the sync cursor
// atomically.
func (r *RegistrationRepository) ReplaceHistory(ctx context.Context, campID string, history []*models.Registration, cursor int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace history: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE camp_id = $1`, campID); err != nil {
		return fmt.Errorf("clear history for camp %s: %w", campID, err)
	}

	insert := `INSERT INTO registrations (camp_id, seq, fields, status, validation_errors, duplicate_of, acceptance_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, record := range history {
		if _, err := tx.ExecContext(ctx, insert,
			campID,
			record.ID,
			record.Fields,
			record.Status,
			record.ValidationErrors,
			record.DuplicateOf,
			record.AcceptanceStatus,
			record.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert registration %d for camp %s: %w", record.ID, campID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE camps SET last_row_processed = $1, updated_at = $2 WHERE id = $3`,
		cursor, time.Now().UTC(), campID,
	); err != nil {
		return fmt.Errorf("advance cursor for camp %s: %w", campID, err)
	}

	return tx.Commit()
}
