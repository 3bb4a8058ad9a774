// Package harness runs codec conformance scenarios.
//
// A scenario is a YAML file naming a CUE schema, some records or a matrix,
// and a list of assertions. Run compiles the schema, validates and encodes
// the records, stores and reloads the matrix through an in-memory store,
// decodes it, and evaluates the assertions:
//
//	name: output-roundtrip
//	description: Encode and decode the Output schema
//	cue: |
//	  schema: Output: {
//	    b: "number"
//	    e: label: ["a", "b"]
//	    f: "complex"
//	  }
//	schema: Output
//	records:
//	  - {b: 3, e: a, f: "1+2i"}
//	assertions:
//	  - type: matrix
//	    rows: [[3, 1, 0, 1, 2]]
//	  - type: roundtrip
//
// RunWithGolden additionally snapshots the run as JSON under
// testdata/golden for regression comparison.
package harness
