package record

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// maxHashDepth bounds the walk into nested and self-referencing values.
const maxHashDepth = 64

// Hash returns a structural hash of the values. Records that are Equal
// hash equal: floats are hashed by value with -0 folded into 0, and
// pointers by what they point to, matching reflect.DeepEqual.
func (r Record) Hash() uint64 {
	h := xxhash.New()
	for _, v := range r.values {
		hashValue(h, reflect.ValueOf(v), 0)
		h.Write([]byte{0x00})
	}
	return h.Sum64()
}

func hashValue(h *xxhash.Digest, v reflect.Value, depth int) {
	if !v.IsValid() {
		h.Write([]byte{0x01})
		return
	}
	h.WriteString(v.Type().String())
	if depth >= maxHashDepth {
		return
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		hashUint(h, uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		hashUint(h, v.Uint())
	case reflect.Float32, reflect.Float64:
		hashFloat(h, v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		hashFloat(h, real(c))
		hashFloat(h, imag(c))
	case reflect.String:
		hashUint(h, uint64(v.Len()))
		h.WriteString(v.String())
	case reflect.Slice, reflect.Array:
		hashUint(h, uint64(v.Len()))
		for i := range v.Len() {
			hashValue(h, v.Index(i), depth+1)
		}
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			h.Write([]byte{0x01})
			return
		}
		hashValue(h, v.Elem(), depth+1)
	case reflect.Map:
		hashUint(h, uint64(v.Len()))
		// Entries are combined order-independently.
		var sum uint64
		iter := v.MapRange()
		for iter.Next() {
			e := xxhash.New()
			hashValue(e, iter.Key(), depth+1)
			hashValue(e, iter.Value(), depth+1)
			sum += e.Sum64()
		}
		hashUint(h, sum)
	case reflect.Struct:
		for i := range v.NumField() {
			hashValue(h, v.Field(i), depth+1)
		}
	case reflect.Func:
		// Non-nil funcs are never DeepEqual, so only nil-ness is hashed.
		if v.IsNil() {
			h.Write([]byte{0x01})
		}
	case reflect.Chan, reflect.UnsafePointer:
		hashUint(h, uint64(v.Pointer()))
	}
}

func hashFloat(h *xxhash.Digest, f float64) {
	if f == 0 {
		f = 0
	}
	hashUint(h, math.Float64bits(f))
}

func hashUint(h *xxhash.Digest, u uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u)
	h.Write(buf[:])
}
