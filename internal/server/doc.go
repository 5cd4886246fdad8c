// Package server provides the HTTP gateway for the relay.
//
// the server is configured through environment variables
// (see internal/config/config.go for details)
//
// Routes:
//   - common infrastructure routes (health, version, metrics)
//   - /api/mobile: build, relay and query transfers, faucet credit and envelope verification
//
// handlers are in internal/server/handlers and middleware is in internal/server/middleware
package server
