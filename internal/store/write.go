package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/parttrack/internal/event"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Append inserts one connection event and returns its row ID.
// The insert is a single statement, so it is atomic. No business rules are
// applied here; only storage failures are reported.
func (s *Store) Append(ctx context.Context, ev event.ConnectionEvent) (int64, error) {
	id, err := insertConnection(ctx, s.db, ev)
	if err != nil {
		return 0, fmt.Errorf("append connection: %w", err)
	}
	return id, nil
}

// AppendBatch inserts several events in one transaction. Used for
// symmetric (bidirectional) writes so both rows land or neither does.
// Returns the row IDs in input order.
func (s *Store) AppendBatch(ctx context.Context, events []event.ConnectionEvent) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("append batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		id, err := insertConnection(ctx, tx, ev)
		if err != nil {
			return nil, fmt.Errorf("append batch: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("append batch: commit: %w", err)
	}

	return ids, nil
}

func insertConnection(ctx context.Context, x execer, ev event.ConnectionEvent) (int64, error) {
	status := ev.Status
	if status == "" {
		status = event.StatusConnected
	}

	result, err := x.ExecContext(ctx, `
		INSERT INTO connections
		(part_number, part_type, polarization, scan_time,
		 connected_to, connected_to_type, connected_polarization,
		 connected_scan_time, connection_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.PartNumber,
		ev.PartType,
		ev.Polarization,
		marshalTime(ev.ScanTime),
		marshalTarget(ev.ConnectedTo),
		ev.ConnectedToType,
		ev.ConnectedPolarization,
		marshalOptionalTime(ev.ConnectedScanTime),
		string(status),
	)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}
