package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/featcodec/internal/codec"
	"github.com/roach88/featcodec/internal/store"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Schema       string
	Input        string
	InputFormat  string
	Output       string // matrix file; stdout when empty
	MatrixFormat string // csv | json
	DB           string // store path; defaults to store.path from config
	Dataset      string // persist the matrix under this dataset name
}

// EncodeResult summarizes an encode run.
type EncodeResult struct {
	Schema  string         `json:"schema"`
	Rows    int            `json:"rows"`
	Cols    int            `json:"cols"`
	Matrix  [][]float64    `json:"matrix,omitempty"`
	Output  string         `json:"output,omitempty"`
	Dataset *store.Dataset `json:"dataset,omitempty"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <schemas>",
		Short: "Encode records into a numeric matrix",
		Long: `Validate the records of an input file against a schema and encode them
into a matrix with one row per record and one column per encoded value.

The matrix is written as headerless CSV (or JSON with --matrix-format json)
to --output, or to stdout. With --dataset it is also saved in the dataset
store for a later decode.

Examples:
  featcodec encode schemas.cue --schema Input --input rows.csv
  featcodec encode schemas/ -s Input -i rows.jsonl -o matrix.csv
  featcodec encode schemas/ -s Input -i rows.jsonl --db features.db --dataset train`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "schema to encode with")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "record file (csv, json or jsonl)")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "input format (csv|json|jsonl); defaults to the file extension")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "matrix output file")
	cmd.Flags().StringVar(&opts.MatrixFormat, "matrix-format", "", "matrix format (csv|json); defaults to the output extension")
	cmd.Flags().StringVar(&opts.DB, "db", "", "dataset store path")
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "save the matrix under this dataset name")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runEncode(opts *EncodeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	s, err := loadSchema(formatter, path, opts.Schema)
	if err != nil {
		return err
	}

	records, failures, err := readRecords(opts.RootOptions, formatter, s, opts.Input, opts.InputFormat)
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		return formatter.Fail(ExitFailure, ErrCodeInvalidRecords,
			fmt.Sprintf("%d of %d record(s) failed validation", len(failures), len(failures)+len(records)), failures)
	}

	m, err := codec.Encode(s, records)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeEncodeFailed, err.Error(), nil)
	}
	rows, cols := m.Dims()
	formatter.Logger.Debug("records encoded", zap.String("schema", s.Name()), zap.Int("rows", rows), zap.Int("cols", cols))

	result := &EncodeResult{Schema: s.Name(), Rows: rows, Cols: cols}

	if opts.Dataset != "" {
		dbPath := opts.storePath(opts.DB)
		if dbPath == "" {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "--dataset requires --db or store.path in the config", nil)
		}
		st, err := store.Open(dbPath, store.WithLogger(formatter.Logger))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
		}
		defer st.Close()

		ds, err := st.SaveDataset(cmd.Context(), opts.Dataset, s, m)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("saving dataset: %v", err), nil)
		}
		result.Dataset = &ds
	}

	matrixFormat := opts.MatrixFormat
	if matrixFormat == "" {
		matrixFormat = matrixFormatFromPath(opts.Output)
	}

	if opts.Output != "" {
		var buf bytes.Buffer
		if err := writeMatrix(&buf, m, matrixFormat); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
		}
		if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		result.Output = opts.Output
		return formatter.Success(result, func(w io.Writer) { writeEncodeSummary(w, result) })
	}

	if formatter.JSON() {
		result.Matrix = matrixRows(m)
		return formatter.Success(result, nil)
	}
	if err := writeMatrix(formatter.Writer, m, matrixFormat); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}
	if result.Dataset != nil {
		formatter.Logger.Info("dataset saved", zap.String("id", result.Dataset.ID), zap.String("name", result.Dataset.Name))
	}
	return nil
}

func writeEncodeSummary(w io.Writer, result *EncodeResult) {
	fmt.Fprintf(w, "✓ Encoded %d record(s) of %s into %d column(s)\n", result.Rows, result.Schema, result.Cols)
	fmt.Fprintf(w, "Wrote matrix to %s\n", result.Output)
	if result.Dataset != nil {
		fmt.Fprintf(w, "Saved dataset %s (%s, seq %d)\n", result.Dataset.Name, result.Dataset.ID, result.Dataset.Seq)
	}
}
