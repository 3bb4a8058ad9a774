package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/featcodec/internal/feature"
	"github.com/roach88/featcodec/internal/schema"
)

func outputSchema() *schema.Schema {
	return schema.NewBuilder("Output").
		Add("b", feature.Number{}).
		Add("e", feature.MustLabel("a", "b")).
		Add("f", feature.Complex{}).
		MustBuild()
}

func TestSaveAndLoadDataset(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sc := outputSchema()

	m := mat.NewDense(2, 5, []float64{
		3, 1, 0, 1, 2,
		-1.5, 0, 1, 0, -1,
	})
	ds, err := s.SaveDataset(ctx, "train", sc, m)
	require.NoError(t, err)

	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "train", ds.Name)
	assert.Equal(t, sc.Hash(), ds.SchemaHash)
	assert.Equal(t, "Output", ds.SchemaName)
	assert.Equal(t, 2, ds.Rows)
	assert.Equal(t, 5, ds.Cols)
	assert.Equal(t, int64(1), ds.Seq)

	got, loaded, err := s.LoadDataset(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, ds, got)
	assert.True(t, mat.Equal(m, loaded))
}

func TestLoadDatasetByNameReturnsLatest(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sc := outputSchema()

	first, err := s.SaveDataset(ctx, "train", sc, mat.NewDense(1, 5, []float64{1, 1, 0, 0, 0}))
	require.NoError(t, err)
	second, err := s.SaveDataset(ctx, "train", sc, mat.NewDense(1, 5, []float64{2, 0, 1, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, first.Seq+1, second.Seq)

	ds, m, err := s.LoadDataset(ctx, "train")
	require.NoError(t, err)
	assert.Equal(t, second.ID, ds.ID)
	assert.Equal(t, 2.0, m.At(0, 0))

	// An id still addresses the older save.
	ds, _, err = s.LoadDataset(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, ds.ID)
}

func TestLoadDatasetNotFound(t *testing.T) {
	s := createTestStore(t)
	_, _, err := s.LoadDataset(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveDatasetRejectsBadShapes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.SaveDataset(ctx, "empty", outputSchema(), &mat.Dense{})
	assert.ErrorIs(t, err, ErrEmptyMatrix)

	_, err = s.SaveDataset(ctx, "narrow", outputSchema(), mat.NewDense(1, 3, nil))
	assert.True(t, feature.HasCode(err, feature.ErrCodeWidth))
}

func TestListDatasets(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	list, err := s.ListDatasets(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	in := schema.NewBuilder("Input").Add("a", feature.Number{}).MustBuild()
	_, err = s.SaveDataset(ctx, "x", in, mat.NewDense(3, 1, []float64{1, 2, 3}))
	require.NoError(t, err)
	_, err = s.SaveDataset(ctx, "y", outputSchema(), mat.NewDense(1, 5, nil))
	require.NoError(t, err)

	list, err = s.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "x", list[0].Name)
	assert.Equal(t, "Input", list[0].SchemaName)
	assert.Equal(t, 3, list[0].Rows)
	assert.Equal(t, "y", list[1].Name)
}

func TestSaveSchemaIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSchema(ctx, outputSchema()))
	require.NoError(t, s.SaveSchema(ctx, outputSchema()))

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM schemas").Scan(&count))
	assert.Equal(t, 1, count)

	var fields string
	require.NoError(t, s.db.QueryRow("SELECT fields FROM schemas").Scan(&fields))
	assert.JSONEq(t, `[
		{"name":"b","type":{"kind":"number","width":1}},
		{"name":"e","type":{"kind":"label","width":2,"categories":["a","b"]}},
		{"name":"f","type":{"kind":"complex","width":2}}
	]`, fields)
}

func TestDeleteDataset(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ds, err := s.SaveDataset(ctx, "x", outputSchema(), mat.NewDense(1, 5, nil))
	require.NoError(t, err)

	require.NoError(t, s.DeleteDataset(ctx, ds.ID))
	assert.ErrorIs(t, s.DeleteDataset(ctx, ds.ID), ErrNotFound)

	_, _, err = s.LoadDataset(ctx, ds.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMatrixBlobRoundTrip(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	blob, err := marshalMatrix(m)
	require.NoError(t, err)

	back, err := unmarshalMatrix(blob)
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, back))

	_, err = unmarshalMatrix(bytes.Repeat([]byte{0xff}, 16))
	assert.Error(t, err)
}

func TestSaveDatasetLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), WithLogger(zap.New(core)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.SaveDataset(context.Background(), "x", outputSchema(), mat.NewDense(1, 5, nil))
	require.NoError(t, err)

	entries := logs.FilterMessage("dataset saved").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "x", entries[0].ContextMap()["name"])
}
