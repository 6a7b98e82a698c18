// Package store provides a SQLite-backed header database.
//
// Each row holds one header as its binary image, zstd-compressed, keyed by
// a UUIDv7 row ID and deduplicated by the image digest. Putting the same
// header twice returns the existing row.
//
// # Critical Patterns
//
// Content identity:
//   - UNIQUE(digest) constraint, digest = SHA-256 of the image with domain
//     separation (see tag.Digest)
//   - Put uses ON CONFLICT(digest) DO NOTHING
//
// Logical ordering:
//   - Rows carry a seq INTEGER assigned on insert, never a timestamp
//   - All listings use ORDER BY seq ASC, id COLLATE BINARY ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
