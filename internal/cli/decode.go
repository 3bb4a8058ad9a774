package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/featcodec/internal/codec"
	"github.com/roach88/featcodec/internal/record"
	"github.com/roach88/featcodec/internal/schema"
	"github.com/roach88/featcodec/internal/store"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Schema       string
	Input        string // matrix file
	MatrixFormat string // csv | json
	DB           string
	Dataset      string // dataset id or name
	Output       string // JSON lines file; stdout when empty
}

// DecodeResult holds decoded records for JSON output.
type DecodeResult struct {
	Schema  string          `json:"schema"`
	Records []record.Record `json:"records"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <schemas>",
		Short: "Decode a numeric matrix into records",
		Long: `Decode every row of a matrix into a record of the schema. Labels take
the category with the highest score, integers round half to even and
vectors are decoded child by child.

The matrix comes from --input (CSV or JSON) or from a stored --dataset.
Records are written as JSON lines.

Examples:
  featcodec decode schemas.cue --schema Output --input predictions.csv
  featcodec decode schemas/ -s Output --db features.db --dataset train`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "schema to decode with")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "matrix file (csv or json)")
	cmd.Flags().StringVar(&opts.MatrixFormat, "matrix-format", "", "matrix format (csv|json); defaults to the input extension")
	cmd.Flags().StringVar(&opts.DB, "db", "", "dataset store path")
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "stored dataset id or name")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write JSON lines to a file")
	cmd.MarkFlagsMutuallyExclusive("input", "dataset")
	cmd.MarkFlagsOneRequired("input", "dataset")

	return cmd
}

func runDecode(opts *DecodeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	s, err := loadSchema(formatter, path, opts.Schema)
	if err != nil {
		return err
	}

	var m *mat.Dense
	if opts.Dataset != "" {
		m, err = loadStoredMatrix(opts, formatter, cmd, s)
	} else {
		m, err = loadMatrixFile(opts, formatter)
	}
	if err != nil {
		return err
	}

	records, err := codec.Decode(s, m)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeDecodeFailed, err.Error(), nil)
	}
	formatter.Logger.Debug("matrix decoded", zap.String("schema", s.Name()), zap.Int("records", len(records)))
	if records == nil {
		records = []record.Record{}
	}

	if opts.Output != "" {
		file, err := os.Create(opts.Output)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("creating output file: %v", err), nil)
		}
		if err := writeJSONLines(file, records); err != nil {
			file.Close()
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
		}
		if err := file.Close(); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
		}
		return formatter.Success(map[string]any{"schema": s.Name(), "records": len(records), "output": opts.Output}, func(w io.Writer) {
			fmt.Fprintf(w, "✓ Decoded %d record(s) of %s\n", len(records), s.Name())
			fmt.Fprintf(w, "Wrote records to %s\n", opts.Output)
		})
	}

	if formatter.JSON() {
		return formatter.Success(DecodeResult{Schema: s.Name(), Records: records}, nil)
	}
	return writeJSONLines(formatter.Writer, records)
}

func loadMatrixFile(opts *DecodeOptions, f *OutputFormatter) (*mat.Dense, error) {
	file, err := os.Open(opts.Input)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeInputFailed, fmt.Sprintf("opening input: %v", err), nil)
	}
	defer file.Close()

	format := opts.MatrixFormat
	if format == "" {
		format = matrixFormatFromPath(opts.Input)
	}
	m, err := readMatrix(file, format)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeInputFailed, fmt.Sprintf("reading %s: %v", opts.Input, err), nil)
	}
	return m, nil
}

func loadStoredMatrix(opts *DecodeOptions, f *OutputFormatter, cmd *cobra.Command, s *schema.Schema) (*mat.Dense, error) {
	dbPath := opts.storePath(opts.DB)
	if dbPath == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreFailed, "--dataset requires --db or store.path in the config", nil)
	}
	st, err := store.Open(dbPath, store.WithLogger(f.Logger))
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	defer st.Close()

	ds, m, err := st.LoadDataset(cmd.Context(), opts.Dataset)
	if errors.Is(err, store.ErrNotFound) {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("dataset %q not found", opts.Dataset), nil)
	}
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	if ds.SchemaHash != s.Hash() {
		return nil, f.Fail(ExitCommandError, ErrCodeDecodeFailed,
			fmt.Sprintf("dataset %s was encoded with schema %s, which differs from %s", ds.Name, ds.SchemaName, s.Name()), nil)
	}
	return m, nil
}

// writeJSONLines writes one JSON object per record.
func writeJSONLines(w io.Writer, records []record.Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return bw.Flush()
}
