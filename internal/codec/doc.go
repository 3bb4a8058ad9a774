// Package codec converts between records and dense numeric matrices.
//
// The matrix is the contract with a numeric model backend: row-major
// float64, one row per record, one column per unit of schema width, no
// header. The schema is the out-of-band mapping between names and columns.
// Encode and Decode are pure functions and safe for concurrent use.
package codec
