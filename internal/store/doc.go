// Package store provides SQLite-backed storage for encoded datasets.
//
// A dataset is one matrix produced by the codec, stored with:
//   - Schemas: content-addressed by schema hash, with a JSON field description
//   - Datasets: uuid id, name, row/column counts and an lz4-compressed
//     gonum binary matrix
//
// # Ordering
//
// Every save takes the next seq value. Listing uses
// ORDER BY seq ASC, id ASC COLLATE BINARY; loading by name picks the highest seq.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
