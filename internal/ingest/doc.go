// Package ingest reads source rows from CSV, JSON and JSONL and turns them
// into validated records.
//
// Readers only parse; they know nothing about feature types. Records and
// Pairs then validate every row and report all failing rows at once.
package ingest
