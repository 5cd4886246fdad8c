// Package handlers provides the HTTP handlers for the relay gateway.
//
// health.go has the infrastructure handlers (health, version). The /api/mobile handlers are
// split by concern: transactions.go (build, submit, status), accounts.go (balance, faucet,
// connection) and envelopes.go (envelope verification).
//
// Handlers report failures with api.RespondWithErrorResponse so that every error body has the
// same shape.
package handlers
