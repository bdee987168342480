// Package storage defines persistence contracts for guild moderation state.
//
// One aggregate exists per guild: prison role and court category
// configuration, the lawsuit ledger, provisioned court rooms, and prison
// entries. Implementations (MongoDB, SQLite, in-memory) live in subpackages.
//
// Common error types:
//   - ErrNotFound: requested record is missing or no longer active
package storage
