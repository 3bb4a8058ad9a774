package store

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"gonum.org/v1/gonum/mat"
)

// marshalMatrix serializes m with gonum's binary format and compresses it.
func marshalMatrix(m *mat.Dense) ([]byte, error) {
	raw, err := m.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal matrix: %w", err)
	}

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress matrix: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress matrix: %w", err)
	}
	return buf.Bytes(), nil
}

// unmarshalMatrix reverses marshalMatrix.
func unmarshalMatrix(blob []byte) (*mat.Dense, error) {
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(blob)))
	if err != nil {
		return nil, fmt.Errorf("decompress matrix: %w", err)
	}

	var m mat.Dense
	if err := m.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("unmarshal matrix: %w", err)
	}
	return &m, nil
}
