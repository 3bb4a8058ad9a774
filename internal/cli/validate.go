package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/featcodec/internal/compiler"
	"github.com/roach88/featcodec/internal/ingest"
	"github.com/roach88/featcodec/internal/record"
	"github.com/roach88/featcodec/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Schema      string // schema to validate records against
	Model       string // model whose input and output schemas each row must satisfy
	Input       string // record file (csv, json, jsonl)
	InputFormat string // overrides the format implied by the file extension
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Schemas int                        `json:"schemas"`
	Models  int                        `json:"models"`
	Records int                        `json:"records,omitempty"`
	Lint    []compiler.ValidationError `json:"lint,omitempty"`
	Rows    []RowFailure               `json:"rows,omitempty"`
}

// RowFailure is one input row that failed validation.
type RowFailure struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <schemas>",
		Short: "Validate schemas and, optionally, records",
		Long: `Compile CUE schema declarations and lint every model: output fields
that can never be decoded (tags), labels with a single category and field
names shared by a model's input and output are reported.

With --input, every record in the file is validated against --schema and
every failing row is reported, not only the first. With --model instead of
--schema, each row must hold both the model's input and output fields.

Exit codes:
  0 - Everything valid
  1 - Lint findings or invalid records
  2 - Command error (compile errors, unreadable input, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "schema to validate records against")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "record file to validate (csv, json or jsonl)")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "input format (csv|json|jsonl); defaults to the file extension")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "validate paired input/output rows of a model")
	cmd.MarkFlagsMutuallyExclusive("schema", "model")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	loadResult, loadErrors := LoadSchemas(path, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := &ValidationResult{
		Schemas: len(loadResult.Schemas),
		Models:  len(loadResult.Models),
	}
	for _, m := range loadResult.Models {
		result.Lint = append(result.Lint, compiler.ValidateModel(m)...)
	}

	if opts.Input != "" && opts.Model != "" {
		m, ok := loadResult.Model(opts.Model)
		if !ok {
			return formatter.Fail(ExitCommandError, ErrCodeUnknownSchema, fmt.Sprintf("model %q is not declared in %s", opts.Model, path), nil)
		}
		pairs, failures, err := readPairs(opts.RootOptions, formatter, m, opts.Input, opts.InputFormat)
		if err != nil {
			return err
		}
		result.Records = len(pairs) + len(failures)
		result.Rows = failures
	} else if opts.Input != "" {
		s, err := selectSchema(formatter, loadResult.Result, path, opts.Schema)
		if err != nil {
			return err
		}
		records, failures, err := readRecords(opts.RootOptions, formatter, s, opts.Input, opts.InputFormat)
		if err != nil {
			return err
		}
		result.Records = len(records) + len(failures)
		result.Rows = failures
	}

	result.Valid = len(result.Lint) == 0 && len(result.Rows) == 0
	formatter.Logger.Debug("validation finished",
		zap.Bool("valid", result.Valid),
		zap.Int("lint", len(result.Lint)),
		zap.Int("invalid_rows", len(result.Rows)),
	)

	if err := formatter.Success(result, func(w io.Writer) { writeValidateText(w, result) }); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d finding(s)", len(result.Lint)+len(result.Rows)))
	}
	return nil
}

func writeValidateText(w io.Writer, result *ValidationResult) {
	if result.Valid {
		fmt.Fprintf(w, "✓ %d schema(s), %d model(s) valid", result.Schemas, result.Models)
		if result.Records > 0 {
			fmt.Fprintf(w, ", %d record(s) valid", result.Records)
		}
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, e := range result.Lint {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
	for _, row := range result.Rows {
		fmt.Fprintf(w, "  line %d: %s\n", row.Line, row.Message)
	}
	if len(result.Rows) > 0 {
		fmt.Fprintf(w, "\n%d of %d record(s) invalid\n", len(result.Rows), result.Records)
	}
}

// selectSchema picks the schema called name from a compiled result. An
// empty name is allowed when exactly one schema is declared.
func selectSchema(f *OutputFormatter, r *compiler.Result, path, name string) (*schema.Schema, error) {
	if name == "" {
		if len(r.Schemas) != 1 {
			return nil, f.Fail(ExitCommandError, ErrCodeUnknownSchema,
				fmt.Sprintf("--schema is required when %s declares %d schemas", path, len(r.Schemas)), nil)
		}
		return r.Schemas[0], nil
	}
	s, ok := r.Schema(name)
	if !ok {
		return nil, f.Fail(ExitCommandError, ErrCodeUnknownSchema, fmt.Sprintf("schema %q is not declared in %s", name, path), nil)
	}
	return s, nil
}

// readRecords reads an input file and validates one record per row.
// Rows that fail validation are returned as failures; the error return is
// reserved for command errors, which have already been reported through f.
func readRecords(opts *RootOptions, f *OutputFormatter, s *schema.Schema, input, format string) ([]record.Record, []RowFailure, error) {
	file, err := os.Open(input)
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeInputFailed, fmt.Sprintf("opening input: %v", err), nil)
	}
	defer file.Close()

	fmtName := ingest.FormatFromPath(input)
	if format != "" {
		fmtName = ingest.Format(format)
	}

	rows, err := ingest.Read(file, fmtName, s.Names(), opts.CSVConf())
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeInputFailed, fmt.Sprintf("reading %s: %v", input, err), nil)
	}
	f.Logger.Debug("input read", zap.String("path", input), zap.String("format", string(fmtName)), zap.Int("rows", len(rows)))

	records, err := ingest.Records(s, rows)
	return records, rowFailures(err), nil
}

// readPairs reads an input file whose rows carry both halves of a model.
func readPairs(opts *RootOptions, f *OutputFormatter, m *compiler.Model, input, format string) ([]ingest.Pair, []RowFailure, error) {
	file, err := os.Open(input)
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeInputFailed, fmt.Sprintf("opening input: %v", err), nil)
	}
	defer file.Close()

	fmtName := ingest.FormatFromPath(input)
	if format != "" {
		fmtName = ingest.Format(format)
	}

	rows, err := ingest.Read(file, fmtName, ingest.Columns(m.Input, m.Output), opts.CSVConf())
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeInputFailed, fmt.Sprintf("reading %s: %v", input, err), nil)
	}
	f.Logger.Debug("input read", zap.String("path", input), zap.String("model", m.Name), zap.Int("rows", len(rows)))

	pairs, err := ingest.Pairs(m.Input, m.Output, rows)
	return pairs, rowFailures(err), nil
}

// rowFailures flattens the multierror returned by ingest.Records.
func rowFailures(err error) []RowFailure {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return []RowFailure{{Message: err.Error()}}
	}
	out := make([]RowFailure, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		var rowErr *ingest.RowError
		if errors.As(e, &rowErr) {
			out = append(out, RowFailure{Line: rowErr.Line, Message: rowErr.Err.Error()})
			continue
		}
		out = append(out, RowFailure{Message: e.Error()})
	}
	return out
}
