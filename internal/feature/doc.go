// Package feature provides the field-level type descriptors of featcodec.
//
// A FeatureType validates raw values into canonical form, reports a static
// numeric width, and converts between canonical values and flat float chunks
// of exactly that width. Variants:
//   - Number (float64, width 1)
//   - Integer (int64, width 1, round half to even)
//   - Complex (complex128, width 2)
//   - Label (declared category, width = category count, one-hot)
//   - Tag (opaque passthrough, width 1, input-only)
//   - Vector (Tuple of child values, width = sum of child widths)
//
// All types are immutable and safe for concurrent use. This package imports
// nothing internal.
package feature
