package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/parttrack/internal/event"
)

// supersededQuery selects, for every part, the rows that are neither the
// part's most recent row nor carry a connection target.
const supersededQuery = `
	SELECT ` + connectionColumns + `
	FROM connections c
	WHERE c.connected_to IS NULL
	  AND c.id != (
		SELECT c2.id FROM connections c2
		WHERE c2.part_number = c.part_number
		ORDER BY c2.scan_time DESC, c2.id DESC
		LIMIT 1
	  )
	ORDER BY c.part_number ASC, c.scan_time ASC, c.id ASC
`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// FindSupersededDuplicates returns the rows DeleteSupersededDuplicates would
// remove, without removing them.
func (s *Store) FindSupersededDuplicates(ctx context.Context) ([]event.ConnectionEvent, error) {
	return findSuperseded(ctx, s.db)
}

// DeleteSupersededDuplicates removes, for each part, every row except the
// most recent one and any row with a connection target. Selection and
// deletion happen in one transaction.
//
// confirm, if non-nil, is called inside the transaction with the rows about
// to be removed; returning an error aborts without deleting anything.
//
// The effective state of every part is unchanged because each part's most
// recent row is always kept.
func (s *Store) DeleteSupersededDuplicates(
	ctx context.Context,
	confirm func([]event.ConnectionEvent) error,
) (event.DeletionReport, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return event.DeletionReport{}, fmt.Errorf("delete duplicates: begin tx: %w", err)
	}
	defer tx.Rollback()

	victims, err := findSuperseded(ctx, tx)
	if err != nil {
		return event.DeletionReport{}, fmt.Errorf("delete duplicates: %w", err)
	}

	if confirm != nil {
		if err := confirm(victims); err != nil {
			return event.DeletionReport{}, err
		}
	}

	if len(victims) > 0 {
		placeholders := make([]string, len(victims))
		args := make([]any, len(victims))
		for i, ev := range victims {
			placeholders[i] = "?"
			args[i] = ev.ID
		}
		query := `DELETE FROM connections WHERE id IN (` + strings.Join(placeholders, ",") + `)`
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return event.DeletionReport{}, fmt.Errorf("delete duplicates: delete: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return event.DeletionReport{}, fmt.Errorf("delete duplicates: commit: %w", err)
	}

	return newDeletionReport(victims), nil
}

func findSuperseded(ctx context.Context, q queryer) ([]event.ConnectionEvent, error) {
	rows, err := q.QueryContext(ctx, supersededQuery)
	if err != nil {
		return nil, fmt.Errorf("query superseded rows: %w", err)
	}
	return collectConnections(rows, "superseded rows")
}

func newDeletionReport(removed []event.ConnectionEvent) event.DeletionReport {
	seen := make(map[string]bool)
	parts := []string{}
	for _, ev := range removed {
		if !seen[ev.PartNumber] {
			seen[ev.PartNumber] = true
			parts = append(parts, ev.PartNumber)
		}
	}
	sort.Strings(parts)
	return event.DeletionReport{Removed: removed, Parts: parts}
}
