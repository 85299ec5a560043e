package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/camp-registry-api/internal/models"
)

// CampRepository handles persistence of camps.
type CampRepository struct {
	db *sqlx.DB
}

// NewCampRepository constructs the repository.
func NewCampRepository(db *sqlx.DB) *CampRepository {
	return &CampRepository{db: db}
}

// List returns camps filtered by the provided criteria.
func (r *CampRepository) List(ctx context.Context, filter models.CampFilter) ([]models.Camp, int, error) {
	base := "FROM camps"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR slug ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "name",
		"slug":       "slug",
		"created_at": "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, slug, name, sheet_id, last_row_processed, created_at, updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var camps []models.Camp
	if err := r.db.SelectContext(ctx, &camps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list camps: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count camps: %w", err)
	}
	return camps, total, nil
}

// FindByID returns the camp with the given id.
func (r *CampRepository) FindByID(ctx context.Context, id string) (*models.Camp, error) {
	var camp models.Camp
	query := `SELECT id, slug, name, sheet_id, last_row_processed, created_at, updated_at FROM camps WHERE id = $1`
	if err := r.db.GetContext(ctx, &camp, query, id); err != nil {
		return nil, err
	}
	return &camp, nil
}

// FindBySlug returns the camp with the given slug.
func (r *CampRepository) FindBySlug(ctx context.Context, slug string) (*models.Camp, error) {
	var camp models.Camp
	query := `SELECT id, slug, name, sheet_id, last_row_processed, created_at, updated_at FROM camps WHERE slug = $1`
	if err := r.db.GetContext(ctx, &camp, query, slug); err != nil {
		return nil, err
	}
	return &camp, nil
}

// Create inserts a new camp.
func (r *CampRepository) Create(ctx context.Context, camp *models.Camp) error {
	query := `INSERT INTO camps (id, slug, name, sheet_id, last_row_processed, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	now := time.Now().UTC()
	camp.CreatedAt = now
	camp.UpdatedAt = now
	if _, err := r.db.ExecContext(ctx, query, camp.ID, camp.Slug, camp.Name, camp.SheetID, camp.LastRowProcessed, camp.CreatedAt, camp.UpdatedAt); err != nil {
		return fmt.Errorf("create camp: %w", err)
	}
	return nil
}

// Delete removes the camp and its registration history.
func (r *CampRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete camp: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE camp_id = $1`, id); err != nil {
		return fmt.Errorf("delete camp registrations: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM camps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete camp: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete camp rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
