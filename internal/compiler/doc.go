// Package compiler turns CUE declarations into schemas and models.
//
// Schemas live under the top-level "schema" key and models under "model":
//
//	schema: Input: {
//		a: "number"
//		note: "tag"
//	}
//	schema: Output: {
//		b: "number"
//		e: label: ["a", "b"]
//		f: "complex"
//	}
//	model: Demo: {input: "Input", output: "Output"}
//
// Field order in the CUE struct is the schema's field order.
package compiler
