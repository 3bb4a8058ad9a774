package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/featcodec/internal/feature"
	"github.com/roach88/featcodec/internal/schema"
)

// ErrEmptyMatrix is returned when saving a matrix with no rows or columns.
var ErrEmptyMatrix = errors.New("cannot store an empty matrix")

// storedField is the persisted description of one schema field.
type storedField struct {
	Name string             `json:"name"`
	Type feature.Descriptor `json:"type"`
}

// SaveSchema records a schema under its content hash.
// Uses ON CONFLICT(hash) DO NOTHING for idempotency.
func (s *Store) SaveSchema(ctx context.Context, sc *schema.Schema) error {
	return s.saveSchema(ctx, s.db, sc)
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) saveSchema(ctx context.Context, db dbtx, sc *schema.Schema) error {
	fields := make([]storedField, 0, sc.Len())
	for f := range sc.Offsets() {
		fields = append(fields, storedField{Name: f.Name, Type: feature.Describe(f.Type)})
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("save schema: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO schemas (hash, name, width, fields)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, sc.Hash(), sc.Name(), sc.Width(), string(fieldsJSON))
	if err != nil {
		return fmt.Errorf("save schema: %w", err)
	}
	return nil
}

// SaveDataset stores an encoded matrix under a fresh id and the next
// sequence number. The schema is saved alongside it. The matrix must have
// exactly sc.Width() columns.
func (s *Store) SaveDataset(ctx context.Context, name string, sc *schema.Schema, m *mat.Dense) (Dataset, error) {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return Dataset{}, ErrEmptyMatrix
	}
	if cols != sc.Width() {
		return Dataset{}, feature.NewError(feature.ErrCodeWidth, "matrix has %d column(s), schema %s has width %d", cols, sc.Name(), sc.Width())
	}

	blob, err := marshalMatrix(m)
	if err != nil {
		return Dataset{}, fmt.Errorf("save dataset: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Dataset{}, fmt.Errorf("save dataset: begin: %w", err)
	}
	defer tx.Rollback()

	if err := s.saveSchema(ctx, tx, sc); err != nil {
		return Dataset{}, err
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM datasets`).Scan(&seq); err != nil {
		return Dataset{}, fmt.Errorf("save dataset: next seq: %w", err)
	}

	ds := Dataset{
		ID:         uuid.NewString(),
		Name:       name,
		SchemaHash: sc.Hash(),
		SchemaName: sc.Name(),
		Rows:       rows,
		Cols:       cols,
		Seq:        seq,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (id, name, schema_hash, rows, cols, matrix, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ds.ID, ds.Name, ds.SchemaHash, ds.Rows, ds.Cols, blob, ds.Seq)
	if err != nil {
		return Dataset{}, fmt.Errorf("save dataset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Dataset{}, fmt.Errorf("save dataset: commit: %w", err)
	}

	s.logger.Debug("dataset saved",
		zap.String("id", ds.ID),
		zap.String("name", ds.Name),
		zap.String("schema", ds.SchemaName),
		zap.Int("rows", ds.Rows),
		zap.Int("cols", ds.Cols),
		zap.Int("blob_bytes", len(blob)),
	)
	return ds, nil
}
