// Package server publishes controller snapshots over HTTP and WebSocket.
//
// The monitor daemon mounts three endpoints:
//
//	GET /values   latest snapshot as JSON (503 until the first cycle)
//	GET /healthz  liveness plus data freshness (503 when stale)
//	GET /ws       WebSocket push stream of snapshots
//
// The WebSocket stream sends the current snapshot on connect and then one
// message per completed poll cycle. The stream is push-only; inbound data
// from the peer is discarded. Standard ping/pong keepalive detects dead
// peers.
package server
