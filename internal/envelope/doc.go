// Package envelope implements the package envelope used to carry transactions, messages and assets
// across untrusted channels.
//
// An envelope has four sections:
//
//	{
//	  "header":     {"id", "type", "version", "createdAt", "sender", "recipient"},
//	  "meta":       {"network", "retries"?, "expiry"?, "tags"?},
//	  "payload":    {"encrypted", "encoding", "data", "checksum"},
//	  "signatures": [{"signer", "signature"}]
//	}
//
// payload.checksum is the lowercase hex SHA-256 of the payload bytes after undoing payload.encoding
// (the raw bytes, never the text form).
//
// Signatures are ed25519 over the RFC 8785 canonical JSON of {"header","meta","payload"}. The
// signatures section is never part of the signed bytes, so parties can sign in any order. The same
// rule applies to every package type, including "multi".
//
// Verify runs the checks in a fixed order and stops at the first failure:
//
//  1. checksum
//  2. expiry
//  3. signatures
//  4. type/payload consistency (skipped for encrypted payloads)
//
// The codec never decrypts. Encrypted payload data is opaque here; see the sealer package.
//
// header.id must be unique per logical transaction. The codec does not enforce this: replay detection
// is done by the consumer (see the store package).
package envelope
