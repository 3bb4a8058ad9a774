package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/featcodec/internal/feature"
)

// DomainSchema prefixes schema hashes. The version suffix allows the
// canonical form to change without colliding with stored hashes.
const DomainSchema = "featcodec/schema/v1"

type canonicalType struct {
	Kind       feature.Kind    `json:"kind"`
	Width      int             `json:"width"`
	Categories []string        `json:"categories,omitempty"`
	Children   []canonicalType `json:"children,omitempty"`
}

type canonicalField struct {
	Name string        `json:"name"`
	Type canonicalType `json:"type"`
}

// Hash returns a content-addressed identity for the schema's field layout.
// Two schemas hash equal iff they declare the same names, kinds, category
// sets and children in the same order. The schema name is not part of the
// identity.
func (s *Schema) Hash() string {
	fields := make([]canonicalField, len(s.fields))
	for i, f := range s.fields {
		fields[i] = canonicalField{Name: f.Name, Type: canonicalize(feature.Describe(f.Type))}
	}
	// Marshal cannot fail: every value is a string, int or nested struct.
	data, _ := json.Marshal(fields)
	return hashWithDomain(DomainSchema, data)
}

func canonicalize(d feature.Descriptor) canonicalType {
	c := canonicalType{Kind: d.Kind, Width: d.Width}
	for _, cat := range d.Categories {
		// Type-qualified so that "1" and 1 stay distinct.
		c.Categories = append(c.Categories, norm.NFC.String(fmt.Sprintf("%T:%v", cat, cat)))
	}
	for _, child := range d.Children {
		c.Children = append(c.Children, canonicalize(child))
	}
	return c
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
