// Package poller periodically reads controller state and fans snapshots
// out to consumers.
//
// The monitor daemon runs one Poller against the protocol client. Each
// cycle performs the bulk-data and thermostat exchanges back to back,
// merges the results into a Snapshot, and pushes it to all subscribers.
// Failed cycles keep the last good readings and set LastError; after
// several consecutive failures the snapshot is flagged stale so consumers
// can tell "old data" from "fresh data".
//
// Subscribers receive snapshots on a buffered channel and are never able
// to block the poll loop: a slow subscriber misses intermediate snapshots
// and always finds the newest one.
package poller
