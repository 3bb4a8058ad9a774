package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// ReadJSONL reads one JSON object or array per line. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var rows []Row
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if !gjson.Valid(text) {
			return nil, &RowError{Line: line, Err: fmt.Errorf("invalid JSON")}
		}
		row, err := rowFromResult(line, gjson.Parse(text))
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return rows, nil
}

// ReadJSON reads a top-level JSON array of objects or arrays. Line numbers
// are 1-based element positions.
func ReadJSON(data []byte) ([]Row, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("read json: invalid JSON")
	}
	top := gjson.ParseBytes(data)
	if !top.IsArray() {
		return nil, fmt.Errorf("read json: expected a top-level array, got %s", top.Type)
	}

	var rows []Row
	for i, elem := range top.Array() {
		row, err := rowFromResult(i+1, elem)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
