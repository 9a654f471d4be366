package testutil

import (
	"github.com/roach88/parttrack/internal/event"
)

// Connect builds a connected event from part to target stamped At(tick).
// The id is the row order tie breaker.
func Connect(id int64, part, target string, tick int64) event.ConnectionEvent {
	return event.ConnectionEvent{
		ID:          id,
		PartNumber:  part,
		ScanTime:    At(tick),
		ConnectedTo: target,
		Status:      event.StatusConnected,
	}
}

// Disconnect builds a disconnected event for part stamped At(tick). Target
// may be empty.
func Disconnect(id int64, part, target string, tick int64) event.ConnectionEvent {
	return event.ConnectionEvent{
		ID:          id,
		PartNumber:  part,
		ScanTime:    At(tick),
		ConnectedTo: target,
		Status:      event.StatusDisconnected,
	}
}
