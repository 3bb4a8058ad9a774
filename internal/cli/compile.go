package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/featcodec/internal/compiler"
	"github.com/roach88/featcodec/internal/feature"
	"github.com/roach88/featcodec/internal/schema"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the JSON description of every compiled schema and model.
type CompilationResult struct {
	Schemas []SchemaInfo `json:"schemas"`
	Models  []ModelInfo  `json:"models,omitempty"`
}

// SchemaInfo describes one compiled schema.
type SchemaInfo struct {
	Name   string      `json:"name"`
	Hash   string      `json:"hash"`
	Width  int         `json:"width"`
	Fields []FieldInfo `json:"fields"`
}

// FieldInfo describes one field and its column range.
type FieldInfo struct {
	Name   string             `json:"name"`
	Offset int                `json:"offset"`
	Width  int                `json:"width"`
	Type   feature.Descriptor `json:"type"`
}

// ModelInfo names a model's input and output schemas.
type ModelInfo struct {
	Name   string `json:"name"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schemas>",
		Short: "Compile CUE schema declarations",
		Long: `Compile CUE schema declarations and print each field's kind,
column offset and width.

<schemas> is a .cue file or a directory of .cue files sharing one package.
Every error is reported, not only the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled description as JSON to a file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	loadResult, loadErrors := LoadSchemas(path, LoadModeCollectAll)

	// Handle load errors (path not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.Logger.Debug("loaded CUE files", zap.Int("files", loadResult.FileCount), zap.String("path", path))

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := describe(loadResult.Result)

	if opts.Output != "" {
		if err := writeJSONFile(result, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return formatter.Success(result, func(w io.Writer) {
		writeCompileText(w, result, opts.Output)
	})
}

// describe converts compiled schemas and models into their JSON form.
func describe(r *compiler.Result) *CompilationResult {
	out := &CompilationResult{Schemas: make([]SchemaInfo, 0, len(r.Schemas))}
	for _, s := range r.Schemas {
		out.Schemas = append(out.Schemas, describeSchema(s))
	}
	for _, m := range r.Models {
		out.Models = append(out.Models, ModelInfo{
			Name:   m.Name,
			Input:  m.Input.Name(),
			Output: m.Output.Name(),
		})
	}
	return out
}

func describeSchema(s *schema.Schema) SchemaInfo {
	info := SchemaInfo{
		Name:   s.Name(),
		Hash:   s.Hash(),
		Width:  s.Width(),
		Fields: make([]FieldInfo, 0, s.Len()),
	}
	for f := range s.Offsets() {
		info.Fields = append(info.Fields, FieldInfo{
			Name:   f.Name,
			Offset: f.Offset,
			Width:  f.Width(),
			Type:   feature.Describe(f.Type),
		})
	}
	return info
}

func writeCompileText(w io.Writer, result *CompilationResult, outputFile string) {
	fmt.Fprintf(w, "✓ Compiled %d schema(s), %d model(s)\n\n", len(result.Schemas), len(result.Models))

	for _, s := range result.Schemas {
		fmt.Fprintf(w, "%s (width %d)\n", s.Name, s.Width)
		for _, f := range s.Fields {
			fmt.Fprintf(w, "  %-12s %-8s columns %d-%d\n", f.Name, f.Type.Kind, f.Offset, f.Offset+f.Width-1)
		}
		fmt.Fprintln(w)
	}

	if len(result.Models) > 0 {
		fmt.Fprintln(w, "Models:")
		for _, m := range result.Models {
			fmt.Fprintf(w, "  %s: %s → %s\n", m.Name, m.Input, m.Output)
		}
		fmt.Fprintln(w)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote schema description to %s\n", outputFile)
	}
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Compilation failed")
	fmt.Fprintln(w)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(w, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(w, "  %s: %s\n\n", code, message)
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeJSONFile writes v as indented JSON.
func writeJSONFile(v any, filename string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
