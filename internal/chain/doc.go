// Package chain rebuilds assembly chains from the connection event log.
//
// The resolver is a pure function over a slice of events. It performs a full
// replay on every call; there is no incremental index.
//
// # Resolution Steps
//
//  1. Reduce to effective state: replay events ordered by (scan_time, id);
//     the last event seen for a part wins. A part whose last event is
//     disconnected stays in the map with no target.
//  2. Classify duplicates: every part with more than one raw event, with all
//     of its raw records. Diagnostic only.
//  3. Determine roots: parts that no effective edge points into. If every
//     part is someone's target, every part is treated as a root.
//  4. Traverse roots in ascending order with a global visited set, so a
//     part appears in at most one chain and cycles terminate.
//  5. Optionally keep only chains mentioning a requested part.
package chain
