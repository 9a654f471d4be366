// Package event defines the connection event records shared by the store,
// the chain resolver, and the presentation layers.
//
// This package contains type definitions only. Other internal packages
// import event; event imports nothing internal.
//
// Key design constraints:
//   - Events are immutable once written; corrections are new events
//   - Ordering is scan_time ascending, ties broken by row ID
//   - An empty ConnectedTo means "no connection recorded"
//   - All JSON tags use snake_case
package event
