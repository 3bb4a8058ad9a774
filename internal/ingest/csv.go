package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// HeaderMode controls how the first CSV row is treated.
type HeaderMode string

const (
	// HeaderAuto treats the first row as a header iff its cells are exactly
	// the expected column set, in any order.
	HeaderAuto HeaderMode = "auto"
	// HeaderPresent always treats the first row as a header.
	HeaderPresent HeaderMode = "present"
	// HeaderAbsent never treats the first row as a header.
	HeaderAbsent HeaderMode = "absent"
)

// CSVConf configures ReadCSV.
type CSVConf struct {
	Delimiter rune       // Defaults to ,
	Comment   rune       // Lines beginning with the comment character are ignored. Defaults to none.
	Header    HeaderMode // Defaults to HeaderAuto.
}

func (c *CSVConf) applyDefaults() {
	if c.Delimiter == 0 {
		c.Delimiter = ','
	}
	if c.Header == "" {
		c.Header = HeaderAuto
	}
}

// ErrTooFewColumns is wrapped by row errors for short CSV rows.
var ErrTooFewColumns = errors.New("too few columns")

// ReadCSV reads rows keyed by column name. Without a header, cells map to
// columns in the given order. Cells holding JSON arrays ("[1, 2]") are
// parsed so vector and complex pair fields can be expressed in one cell.
// Extra trailing cells are ignored.
func ReadCSV(r io.Reader, columns []string, conf CSVConf) ([]Row, error) {
	conf.applyDefaults()

	reader := csv.NewReader(r)
	reader.Comma = conf.Delimiter
	reader.Comment = conf.Comment
	reader.FieldsPerRecord = -1

	var records [][]string
	var lines []int
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		// Physical line of the record's first cell; quoted cells may span lines.
		line, _ := reader.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	if len(records) == 0 {
		return nil, nil
	}

	order := columns
	start := 0
	switch conf.Header {
	case HeaderPresent:
		order = trimAll(records[0])
		start = 1
	case HeaderAuto:
		if sameSet(trimAll(records[0]), columns) {
			order = trimAll(records[0])
			start = 1
		}
	}

	rows := make([]Row, 0, len(records)-start)
	for i := start; i < len(records); i++ {
		cells := records[i]
		line := lines[i]
		if len(cells) < len(order) {
			return nil, &RowError{Line: line, Err: fmt.Errorf("%w: expected %d, got %d", ErrTooFewColumns, len(order), len(cells))}
		}
		fields := make(map[string]any, len(order))
		for j, name := range order {
			fields[name] = cellValue(cells[j])
		}
		rows = append(rows, Row{Line: line, Fields: fields})
	}
	return rows, nil
}

// cellValue keeps cells as text except JSON arrays.
func cellValue(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if strings.HasPrefix(trimmed, "[") && gjson.Valid(trimmed) {
		return gjson.Parse(trimmed).Value()
	}
	return cell
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func sameSet(a, b []string) bool {
	as := make(map[string]bool, len(a))
	for _, s := range a {
		as[s] = true
	}
	bs := make(map[string]bool, len(b))
	for _, s := range b {
		bs[s] = true
	}
	if len(as) != len(bs) {
		return false
	}
	for s := range as {
		if !bs[s] {
			return false
		}
	}
	return true
}
