// Package tracker is the service layer over the connection event log.
//
// A Service validates scans against the part catalog before appending them
// to the store, rebuilds assembly chains on demand by running the resolver
// over the full log, and runs the two-step duplicate prune with an audit
// trail. Every read is a full re-read of the log; there is no cached state.
//
// Writes and prunes hold the service's write lock and chain builds hold the
// read lock, so a prune never runs underneath a resolver pass.
package tracker
