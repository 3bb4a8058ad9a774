package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrNotFound is returned when no dataset matches a lookup.
var ErrNotFound = errors.New("dataset not found")

// Dataset describes a stored matrix without its contents.
type Dataset struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SchemaHash string `json:"schema_hash"`
	SchemaName string `json:"schema_name"`
	Rows       int    `json:"rows"`
	Cols       int    `json:"cols"`
	Seq        int64  `json:"seq"`
}

const datasetColumns = `d.id, d.name, d.schema_hash, s.name, d.rows, d.cols, d.seq`

// ListDatasets returns every stored dataset.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+datasetColumns+`
		FROM datasets d JOIN schemas s ON s.hash = d.schema_hash
		ORDER BY d.seq ASC, d.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	datasets := []Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return datasets, nil
}

// LoadDataset returns a dataset and its matrix. ref is either a dataset id
// or a dataset name; a name resolves to its most recent save.
func (s *Store) LoadDataset(ctx context.Context, ref string) (Dataset, *mat.Dense, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+datasetColumns+`, d.matrix
		FROM datasets d JOIN schemas s ON s.hash = d.schema_hash
		WHERE d.id = ? OR d.name = ?
		ORDER BY (d.id = ?) DESC, d.seq DESC
		LIMIT 1
	`, ref, ref, ref)

	var ds Dataset
	var blob []byte
	err := row.Scan(&ds.ID, &ds.Name, &ds.SchemaHash, &ds.SchemaName, &ds.Rows, &ds.Cols, &ds.Seq, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Dataset{}, nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return Dataset{}, nil, fmt.Errorf("load dataset: %w", err)
	}

	m, err := unmarshalMatrix(blob)
	if err != nil {
		return Dataset{}, nil, fmt.Errorf("load dataset %s: %w", ds.ID, err)
	}
	if r, c := m.Dims(); r != ds.Rows || c != ds.Cols {
		return Dataset{}, nil, fmt.Errorf("load dataset %s: stored matrix is %dx%d, expected %dx%d", ds.ID, r, c, ds.Rows, ds.Cols)
	}
	return ds, m, nil
}

// DeleteDataset removes a dataset by id. Deleting a missing id returns ErrNotFound.
func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func scanDataset(rows *sql.Rows) (Dataset, error) {
	var ds Dataset
	if err := rows.Scan(&ds.ID, &ds.Name, &ds.SchemaHash, &ds.SchemaName, &ds.Rows, &ds.Cols, &ds.Seq); err != nil {
		return Dataset{}, fmt.Errorf("scan dataset: %w", err)
	}
	return ds, nil
}
