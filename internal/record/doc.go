// Package record provides schema-bound value tuples.
//
// A Record is built from positional values, a string-keyed map or a JSON
// object, and becomes encodable once Validate has passed every field through
// its feature type. Records are immutable; every operation returns a copy.
package record
