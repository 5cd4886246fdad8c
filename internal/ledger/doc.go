// Package ledger builds, relays and queries transfer transactions on the ledger network.
//
// The components (Builder, Submitter, QueryClient, Confirmer) are stateless and safe for
// concurrent use. Each one is constructed with an explicit Network so tests can substitute
// a mock for the RPC implementation.
//
// Errors are returned as *LedgerError values carrying an ErrorCode; see errors.go for the taxonomy.
package ledger
