package event

import (
	"fmt"
	"time"
)

// Status is the lifecycle marker carried by every connection event.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// ParseStatus converts a stored status string to a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusConnected, StatusDisconnected:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown connection status %q", s)
	}
}

// ConnectionEvent is one row of the connection event log: a single scan
// recording that PartNumber was connected to (or disconnected from)
// ConnectedTo at ScanTime.
type ConnectionEvent struct {
	ID                    int64      `json:"id"`
	PartNumber            string     `json:"part_number"`
	PartType              string     `json:"part_type"`
	Polarization          string     `json:"polarization,omitempty"`
	ScanTime              time.Time  `json:"scan_time"`
	ConnectedTo           string     `json:"connected_to,omitempty"`
	ConnectedToType       string     `json:"connected_to_type,omitempty"`
	ConnectedPolarization string     `json:"connected_polarization,omitempty"`
	ConnectedScanTime     *time.Time `json:"connected_scan_time,omitempty"`
	Status                Status     `json:"connection_status"`
}

// Record projects the event onto the fields the resolver reasons about.
func (e ConnectionEvent) Record() Record {
	return Record{
		ConnectedTo:       e.ConnectedTo,
		ScanTime:          e.ScanTime,
		ConnectedScanTime: e.ConnectedScanTime,
		Status:            e.Status,
	}
}

// Record is the resolver's view of a connection: where a part points and
// when that was observed.
type Record struct {
	ConnectedTo       string     `json:"connected_to,omitempty"`
	ScanTime          time.Time  `json:"scan_time"`
	ConnectedScanTime *time.Time `json:"connected_scan_time,omitempty"`
	Status            Status     `json:"connection_status"`
}

// Connected reports whether the record carries an active outgoing edge.
func (r Record) Connected() bool {
	return r.ConnectedTo != "" && r.Status != StatusDisconnected
}

// Latest returns the later of ScanTime and ConnectedScanTime.
func (r Record) Latest() time.Time {
	if r.ConnectedScanTime != nil && r.ConnectedScanTime.After(r.ScanTime) {
		return *r.ConnectedScanTime
	}
	return r.ScanTime
}

// Before reports whether e sorts ahead of other in log order:
// scan_time ascending, then row ID ascending.
func (e ConnectionEvent) Before(other ConnectionEvent) bool {
	if !e.ScanTime.Equal(other.ScanTime) {
		return e.ScanTime.Before(other.ScanTime)
	}
	return e.ID < other.ID
}

// DeletionReport describes rows removed by duplicate pruning.
type DeletionReport struct {
	Removed []ConnectionEvent `json:"removed"`
	Parts   []string          `json:"parts"`
}

// Count returns the number of removed rows.
func (r DeletionReport) Count() int {
	return len(r.Removed)
}
