package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/parttrack/internal/event"
)

// AllEvents returns the whole connection log in replay order:
// ORDER BY scan_time ASC, id ASC.
//
// Returns an empty slice (not nil) for an empty log.
func (s *Store) AllEvents(ctx context.Context) ([]event.ConnectionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+connectionColumns+`
		FROM connections
		ORDER BY scan_time ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all connections: %w", err)
	}
	return collectConnections(rows, "connections")
}

// EventsForPart returns every row that mentions part, either as the scanned
// part or as the connection target, in replay order.
func (s *Store) EventsForPart(ctx context.Context, part string) ([]event.ConnectionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+connectionColumns+`
		FROM connections
		WHERE part_number = ? OR connected_to = ?
		ORDER BY scan_time ASC, id ASC
	`, part, part)
	if err != nil {
		return nil, fmt.Errorf("query part history: %w", err)
	}
	return collectConnections(rows, "part history")
}

// LatestEventForPart returns the most recent row scanned for part.
// Returns sql.ErrNoRows if the part has never been scanned.
func (s *Store) LatestEventForPart(ctx context.Context, part string) (event.ConnectionEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+connectionColumns+`
		FROM connections
		WHERE part_number = ?
		ORDER BY scan_time DESC, id DESC
		LIMIT 1
	`, part)
	return scanConnection(row)
}

// ReadEvent retrieves a single row by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadEvent(ctx context.Context, id int64) (event.ConnectionEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+connectionColumns+`
		FROM connections
		WHERE id = ?
	`, id)
	return scanConnection(row)
}

// CountEvents returns the number of rows in the connection log.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM connections`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count connections: %w", err)
	}
	return count, nil
}

// LastUpdate returns the latest scan_time or connected_scan_time in the log,
// or nil when the log is empty.
func (s *Store) LastUpdate(ctx context.Context) (*time.Time, error) {
	var scan, connected sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(scan_time), MAX(connected_scan_time) FROM connections
	`).Scan(&scan, &connected)
	if err != nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	latest := scan
	if connected.Valid && (!latest.Valid || connected.Int64 > latest.Int64) {
		latest = connected
	}
	return unmarshalOptionalTime(latest), nil
}
