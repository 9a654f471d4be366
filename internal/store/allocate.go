package store

import (
	"context"
	"fmt"
	"time"
)

// AllocatedPart is one row of the part-number registry.
type AllocatedPart struct {
	PartNumber  string    `json:"part_number"`
	PartType    string    `json:"part_type"`
	AllocatedAt time.Time `json:"allocated_at"`
}

// AllocatePartNumbers reserves count consecutive serials for prefix and
// records the resulting part numbers. format turns a serial into a part
// number and may reject serials it cannot represent. The whole reservation runs in one transaction, so concurrent
// allocators never receive the same serial.
func (s *Store) AllocatePartNumbers(
	ctx context.Context,
	partType, prefix string,
	count int,
	format func(serial int64) (string, error),
	now time.Time,
) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("allocate part numbers: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO part_serials (prefix, next_serial)
		VALUES (?, 1)
		ON CONFLICT(prefix) DO NOTHING
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("allocate part numbers: init serial: %w", err)
	}

	var first int64
	err = tx.QueryRowContext(ctx, `
		SELECT next_serial FROM part_serials WHERE prefix = ?
	`, prefix).Scan(&first)
	if err != nil {
		return nil, fmt.Errorf("allocate part numbers: read serial: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE part_serials SET next_serial = ? WHERE prefix = ?
	`, first+int64(count), prefix)
	if err != nil {
		return nil, fmt.Errorf("allocate part numbers: advance serial: %w", err)
	}

	numbers := make([]string, 0, count)
	for serial := first; serial < first+int64(count); serial++ {
		number, err := format(serial)
		if err != nil {
			return nil, fmt.Errorf("allocate part numbers: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO parts (part_number, part_type, allocated_at)
			VALUES (?, ?, ?)
		`, number, partType, marshalTime(now))
		if err != nil {
			return nil, fmt.Errorf("allocate part numbers: insert %s: %w", number, err)
		}
		numbers = append(numbers, number)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("allocate part numbers: commit: %w", err)
	}

	return numbers, nil
}

// IsAllocated reports whether part was handed out by the allocator.
func (s *Store) IsAllocated(ctx context.Context, part string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM parts WHERE part_number = ?
	`, part).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check allocated: %w", err)
	}
	return count > 0, nil
}

// ListAllocated returns allocated parts, optionally restricted to one part
// type, ordered by part number.
func (s *Store) ListAllocated(ctx context.Context, partType string) ([]AllocatedPart, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT part_number, part_type, allocated_at
		FROM parts
		WHERE ? = '' OR part_type = ?
		ORDER BY part_number ASC
	`, partType, partType)
	if err != nil {
		return nil, fmt.Errorf("list allocated: %w", err)
	}
	defer rows.Close()

	parts := []AllocatedPart{}
	for rows.Next() {
		var p AllocatedPart
		var at int64
		if err := rows.Scan(&p.PartNumber, &p.PartType, &at); err != nil {
			return nil, fmt.Errorf("scan allocated part: %w", err)
		}
		p.AllocatedAt = unmarshalTime(at)
		parts = append(parts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allocated parts: %w", err)
	}

	return parts, nil
}
