// Package schema provides the ordered, named record shape used by records and
// the codec.
//
// A Schema is built once with a Builder, which fixes every field's index and
// column offset at Build time. Feature types stay stateless and may be reused
// across schemas. Field names are NFC-normalized.
package schema
