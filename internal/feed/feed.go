// Package feed abstracts the external registration source: an operator-owned
// spreadsheet fed by a public form. The engine only ever reads a full
// snapshot; the sheet grows by appended rows between syncs.
package feed

import (
	"context"

	"github.com/noah-isme/camp-registry-api/internal/models"
)

// Rows is one feed snapshot. Row 0 holds the header names; every following
// row is aligned positionally to the headers.
type Rows [][]string

// Headers returns the header row, or nil for an empty snapshot.
func (r Rows) Headers() []string {
	if len(r) == 0 {
		return nil
	}
	return r[0]
}

// DataRows returns the rows after the header row.
func (r Rows) DataRows() [][]string {
	if len(r) <= 1 {
		return nil
	}
	return r[1:]
}

// Source reads the current snapshot of a camp's feed.
type Source interface {
	Snapshot(ctx context.Context, camp *models.Camp) (Rows, error)
}
