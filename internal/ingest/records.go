package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/featcodec/internal/record"
	"github.com/roach88/featcodec/internal/schema"
)

// Format names an input file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

// FormatFromPath picks a format from a file extension, defaulting to JSONL.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return FormatCSV
	case ".json":
		return FormatJSON
	default:
		return FormatJSONL
	}
}

// Read reads rows in the given format. columns is the expected CSV column
// set and is ignored for JSON formats.
func Read(r io.Reader, format Format, columns []string, conf CSVConf) ([]Row, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r, columns, conf)
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read json: %w", err)
		}
		return ReadJSON(data)
	case FormatJSONL:
		return ReadJSONL(r)
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// Records builds and validates one record of s per row.
//
// Every row is attempted. Rows that fail are reported together in a
// *multierror.Error of *RowError values; the returned slice holds the
// validated records of the rows that passed, in source order.
func Records(s *schema.Schema, rows []Row) ([]record.Record, error) {
	var result *multierror.Error
	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		r, err := build(s, row)
		if err == nil {
			r, err = r.Validate()
		}
		if err != nil {
			result = multierror.Append(result, &RowError{Line: row.Line, Err: err})
			continue
		}
		out = append(out, r)
	}
	return out, result.ErrorOrNil()
}

// Pair is one (input, output) record pair produced from a single row.
type Pair struct {
	Input  record.Record
	Output record.Record
}

// Pairs builds validated input/output pairs. Keyed rows are filtered per
// schema; positional rows are split after the input field count.
func Pairs(in, out *schema.Schema, rows []Row) ([]Pair, error) {
	var result *multierror.Error
	pairs := make([]Pair, 0, len(rows))
	for _, row := range rows {
		p, err := buildPair(in, out, row)
		if err != nil {
			result = multierror.Append(result, &RowError{Line: row.Line, Err: err})
			continue
		}
		pairs = append(pairs, p)
	}
	return pairs, result.ErrorOrNil()
}

// Columns returns the CSV column set for a pair of schemas.
func Columns(schemas ...*schema.Schema) []string {
	var cols []string
	for _, s := range schemas {
		cols = append(cols, s.Names()...)
	}
	return cols
}

func build(s *schema.Schema, row Row) (record.Record, error) {
	if row.Keyed() {
		return record.FromMap(s, row.Fields), nil
	}
	return record.New(s, row.Values...)
}

func buildPair(in, out *schema.Schema, row Row) (Pair, error) {
	var inRec, outRec record.Record
	var err error
	if row.Keyed() {
		inRec = record.FromMap(in, row.Fields)
		outRec = record.FromMap(out, row.Fields)
	} else {
		n := in.Len()
		if len(row.Values) < n {
			n = len(row.Values)
		}
		if inRec, err = record.New(in, row.Values[:n]...); err != nil {
			return Pair{}, err
		}
		if outRec, err = record.New(out, row.Values[n:]...); err != nil {
			return Pair{}, err
		}
	}
	if inRec, err = inRec.Validate(); err != nil {
		return Pair{}, err
	}
	if outRec, err = outRec.Validate(); err != nil {
		return Pair{}, err
	}
	return Pair{Input: inRec, Output: outRec}, nil
}
