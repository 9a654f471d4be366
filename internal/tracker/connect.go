package tracker

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/parttrack/internal/event"
	"github.com/roach88/parttrack/internal/parts"
)

// ConnectRequest is one scan pairing Part with Target.
type ConnectRequest struct {
	Part               string     `json:"part_number" binding:"required"`
	PartType           string     `json:"part_type,omitempty"`
	Polarization       string     `json:"polarization,omitempty"`
	Target             string     `json:"connected_to" binding:"required"`
	TargetType         string     `json:"connected_to_type,omitempty"`
	TargetPolarization string     `json:"connected_polarization,omitempty"`
	ScanTime           *time.Time `json:"scan_time,omitempty"`
	TargetScanTime     *time.Time `json:"connected_scan_time,omitempty"`
}

// DisconnectRequest records that Part no longer has an outgoing connection.
// Target is optional and only kept for history.
type DisconnectRequest struct {
	Part     string     `json:"part_number" binding:"required"`
	Target   string     `json:"connected_to,omitempty"`
	ScanTime *time.Time `json:"scan_time,omitempty"`
}

// scanned is a validated side of a request.
type scanned struct {
	part         parts.Part
	polarization string
}

// RecordConnection validates req and appends it to the log. With the
// bidirectional policy the mirror row is appended in the same transaction.
// Returns the stored rows.
func (s *Service) RecordConnection(ctx context.Context, req ConnectRequest) ([]event.ConnectionEvent, error) {
	from, err := s.checkSide(req.Part, req.PartType, req.Polarization)
	if err != nil {
		return nil, err
	}
	to, err := s.checkSide(req.Target, req.TargetType, req.TargetPolarization)
	if err != nil {
		return nil, err
	}

	if from.part.Number == to.part.Number {
		return nil, validationError(CodeSelfConnection, from.part.Number, "a part cannot connect to itself")
	}
	if s.policy.EnforceOrder && !s.catalog.CanConnect(from.part.Kind, to.part.Kind) {
		return nil, validationError(CodeIllegalOrder, from.part.Number,
			"%s cannot connect to %s", from.part.Kind, to.part.Kind)
	}

	scanTime := s.scanTime(req.ScanTime)
	forward := event.ConnectionEvent{
		PartNumber:            from.part.Number,
		PartType:              string(from.part.Kind),
		Polarization:          from.polarization,
		ScanTime:              scanTime,
		ConnectedTo:           to.part.Number,
		ConnectedToType:       string(to.part.Kind),
		ConnectedPolarization: to.polarization,
		ConnectedScanTime:     utcPtr(req.TargetScanTime),
		Status:                event.StatusConnected,
	}
	rows := []event.ConnectionEvent{forward}
	if s.policy.Bidirectional {
		rows = append(rows, mirror(forward))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy.Strict {
		for _, row := range rows {
			if err := s.checkNoActiveEdge(ctx, row.PartNumber, row.ConnectedTo); err != nil {
				return nil, err
			}
		}
	}

	stored, err := s.appendRows(ctx, rows)
	if err != nil {
		return nil, err
	}

	s.logger.Info("connection recorded",
		zap.String("part_number", forward.PartNumber),
		zap.String("connected_to", forward.ConnectedTo),
		zap.Int("rows", len(stored)),
	)
	return stored, nil
}

// RecordDisconnection appends a disconnected row for req.Part. Repeating it
// is harmless: the part simply stays disconnected. With the bidirectional
// policy the target also gets a disconnected row, but only while its latest
// scan still points back at req.Part; a target that has since been
// connected elsewhere keeps that link.
func (s *Service) RecordDisconnection(ctx context.Context, req DisconnectRequest) ([]event.ConnectionEvent, error) {
	from, err := s.checkSide(req.Part, "", "")
	if err != nil {
		return nil, err
	}

	var target parts.Part
	if req.Target != "" {
		to, err := s.checkSide(req.Target, "", "")
		if err != nil {
			return nil, err
		}
		target = to.part
	}

	row := event.ConnectionEvent{
		PartNumber:      from.part.Number,
		PartType:        string(from.part.Kind),
		ScanTime:        s.scanTime(req.ScanTime),
		ConnectedTo:     target.Number,
		ConnectedToType: string(target.Kind),
		Status:          event.StatusDisconnected,
	}
	rows := []event.ConnectionEvent{row}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy.Bidirectional && target.Number != "" {
		linked, err := s.pointsAt(ctx, target.Number, row.PartNumber)
		if err != nil {
			return nil, err
		}
		if linked {
			rows = append(rows, mirror(row))
		}
	}

	stored, err := s.appendRows(ctx, rows)
	if err != nil {
		return nil, err
	}

	s.logger.Info("disconnection recorded",
		zap.String("part_number", row.PartNumber),
		zap.Int("rows", len(stored)),
	)
	return stored, nil
}

func (s *Service) checkSide(id, declaredType, polarization string) (scanned, error) {
	p, err := s.catalog.Parse(id)
	if err != nil {
		return scanned{}, &Error{
			Kind:       KindValidation,
			Code:       CodeInvalidPartNumber,
			Message:    "invalid part number",
			PartNumber: parts.Normalize(id),
			Err:        err,
		}
	}

	if declaredType != "" {
		k, err := parts.ParseKind(declaredType)
		if err != nil || k != p.Kind {
			return scanned{}, validationError(CodeTypeMismatch, p.Number,
				"declared type %q does not match part number type %s", declaredType, p.Kind)
		}
	}

	pol := parts.Normalize(polarization)
	if pol != "" {
		spec, _ := s.catalog.Spec(p.Kind)
		if !spec.Polarized || !s.catalog.ValidPolarization(pol) {
			return scanned{}, validationError(CodeInvalidPolarization, p.Number,
				"polarization %q not valid for %s", polarization, p.Kind)
		}
	}

	return scanned{part: p, polarization: pol}, nil
}

// pointsAt reports whether part's latest scan is an active connection to
// target.
func (s *Service) pointsAt(ctx context.Context, part, target string) (bool, error) {
	latest, err := s.store.LatestEventForPart(ctx, part)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageError("load latest scan", err)
	}
	rec := latest.Record()
	return rec.Connected() && rec.ConnectedTo == target, nil
}

// checkNoActiveEdge enforces at most one active outgoing edge per part.
// Re-scanning the same connection is allowed.
func (s *Service) checkNoActiveEdge(ctx context.Context, part, target string) error {
	latest, err := s.store.LatestEventForPart(ctx, part)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return storageError("load latest scan", err)
	}

	rec := latest.Record()
	if rec.Connected() && rec.ConnectedTo != target {
		return &Error{
			Kind:       KindConflict,
			Code:       CodeAlreadyConnected,
			Message:    "part is already connected to " + rec.ConnectedTo,
			PartNumber: part,
		}
	}
	return nil
}

func (s *Service) appendRows(ctx context.Context, rows []event.ConnectionEvent) ([]event.ConnectionEvent, error) {
	if len(rows) == 1 {
		id, err := s.store.Append(ctx, rows[0])
		if err != nil {
			return nil, storageError("append connection", err)
		}
		rows[0].ID = id
	} else {
		ids, err := s.store.AppendBatch(ctx, rows)
		if err != nil {
			return nil, storageError("append connections", err)
		}
		for i := range rows {
			rows[i].ID = ids[i]
		}
	}
	s.observer.EventsAppended(len(rows))
	return rows, nil
}

func (s *Service) scanTime(t *time.Time) time.Time {
	if t != nil && !t.IsZero() {
		return t.UTC()
	}
	return s.now().UTC()
}

// mirror returns the symmetric row of ev: target and part swapped.
func mirror(ev event.ConnectionEvent) event.ConnectionEvent {
	m := ev
	m.PartNumber, m.ConnectedTo = ev.ConnectedTo, ev.PartNumber
	m.PartType, m.ConnectedToType = ev.ConnectedToType, ev.PartType
	m.Polarization, m.ConnectedPolarization = ev.ConnectedPolarization, ev.Polarization
	if ev.ConnectedScanTime != nil {
		m.ScanTime = *ev.ConnectedScanTime
	}
	st := ev.ScanTime
	m.ConnectedScanTime = &st
	return m
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
