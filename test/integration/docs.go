// Package integration contains end-to-end tests for the relay server.
//
// These tests start the server in-process against a temporary PostgreSQL database
// (migrations applied on startup) and call the HTTP API over a real socket. The ledger
// network is replaced by an in-memory fake so no RPC node is needed.
//
// These tests assume the ledger and envelope packages are working correctly (tested separately).
// If bugs are introduced in lower-level packages, there will be cascading failures here -
// fix the low-level problems first.
package integration
