package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/parttrack/internal/event"
)

// connectionColumns is the column list shared by every connections query.
// scanConnection expects this exact order.
const connectionColumns = `id, part_number, part_type, polarization, scan_time,
	connected_to, connected_to_type, connected_polarization,
	connected_scan_time, connection_status`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// marshalTime converts a timestamp to INTEGER unix nanoseconds.
func marshalTime(t time.Time) int64 {
	return t.UTC().UnixNano()
}

// unmarshalTime converts INTEGER unix nanoseconds back to a UTC time.
func unmarshalTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// marshalOptionalTime maps nil to NULL.
func marshalOptionalTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: marshalTime(*t), Valid: true}
}

func unmarshalOptionalTime(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := unmarshalTime(n.Int64)
	return &t
}

// marshalTarget maps the empty target to NULL.
func marshalTarget(part string) sql.NullString {
	if part == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: part, Valid: true}
}

// scanConnection scans one connections row selected with connectionColumns.
// Errors are returned unwrapped so sql.ErrNoRows survives for callers.
func scanConnection(row rowScanner) (event.ConnectionEvent, error) {
	var ev event.ConnectionEvent
	var scanTime int64
	var target sql.NullString
	var targetScan sql.NullInt64
	var status string

	if err := row.Scan(
		&ev.ID, &ev.PartNumber, &ev.PartType, &ev.Polarization, &scanTime,
		&target, &ev.ConnectedToType, &ev.ConnectedPolarization,
		&targetScan, &status,
	); err != nil {
		return event.ConnectionEvent{}, err
	}

	parsed, err := event.ParseStatus(status)
	if err != nil {
		return event.ConnectionEvent{}, fmt.Errorf("scan connection %d: %w", ev.ID, err)
	}

	ev.Status = parsed
	ev.ScanTime = unmarshalTime(scanTime)
	ev.ConnectedTo = target.String
	ev.ConnectedScanTime = unmarshalOptionalTime(targetScan)
	return ev, nil
}

// collectConnections drains rows into a non-nil slice.
func collectConnections(rows *sql.Rows, what string) ([]event.ConnectionEvent, error) {
	defer rows.Close()

	events := []event.ConnectionEvent{}
	for rows.Next() {
		ev, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}

	return events, nil
}
