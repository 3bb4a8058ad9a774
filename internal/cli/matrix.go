package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gonum.org/v1/gonum/mat"
)

// Matrix file formats.
const (
	MatrixCSV  = "csv"
	MatrixJSON = "json"
)

// matrixFormatFromPath picks a matrix format from a file extension,
// defaulting to CSV.
func matrixFormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return MatrixJSON
	}
	return MatrixCSV
}

// matrixRows copies m into a slice of rows.
func matrixRows(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range r {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}

// writeMatrix writes m as headerless CSV or as a JSON array of rows.
func writeMatrix(w io.Writer, m mat.Matrix, format string) error {
	switch format {
	case MatrixJSON:
		rows := matrixRows(m)
		if rows == nil {
			rows = [][]float64{}
		}
		return json.NewEncoder(w).Encode(rows)
	case MatrixCSV:
		cw := csv.NewWriter(w)
		r, c := m.Dims()
		cells := make([]string, c)
		for i := range r {
			for j := range c {
				cells[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
			}
			if err := cw.Write(cells); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unknown matrix format %q", format)
	}
}

// readMatrix reads a matrix written by writeMatrix. Every row must have the
// same number of columns. An empty input yields an empty matrix.
func readMatrix(r io.Reader, format string) (*mat.Dense, error) {
	var rows [][]float64
	var err error
	switch format {
	case MatrixJSON:
		rows, err = readMatrixJSON(r)
	case MatrixCSV:
		rows, err = readMatrixCSV(r)
	default:
		return nil, fmt.Errorf("unknown matrix format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return &mat.Dense{}, nil
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d: expected %d values, got %d", i+1, cols, len(row))
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

func readMatrixCSV(r io.Reader) ([][]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	rows := make([][]float64, 0, len(records))
	for i, rec := range records {
		row := make([]float64, len(rec))
		for j, cell := range rec {
			f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: %q is not a number", i+1, j+1, cell)
			}
			row[j] = f
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readMatrixJSON(r io.Reader) ([][]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("expected a JSON array of rows")
	}

	var rows [][]float64
	var rowErr error
	doc.ForEach(func(_, rowVal gjson.Result) bool {
		if !rowVal.IsArray() {
			rowErr = fmt.Errorf("row %d: expected an array", len(rows)+1)
			return false
		}
		var row []float64
		rowVal.ForEach(func(_, cell gjson.Result) bool {
			if cell.Type != gjson.Number {
				rowErr = fmt.Errorf("row %d, column %d: %s is not a number", len(rows)+1, len(row)+1, cell.Raw)
				return false
			}
			row = append(row, cell.Float())
			return true
		})
		if rowErr != nil {
			return false
		}
		rows = append(rows, row)
		return true
	})
	return rows, rowErr
}
