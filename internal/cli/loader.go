package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"go.uber.org/zap"

	"github.com/roach88/featcodec/internal/compiler"
	"github.com/roach88/featcodec/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the schemas and models loaded from a path.
type LoadResult struct {
	*compiler.Result
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchemas loads and compiles CUE schema declarations from a single file
// or from every .cue file of a directory. The files of a directory must
// share one CUE package.
//
// A nil result means nothing could be compiled; errs then holds a single
// *LoadError.
func LoadSchemas(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema path: %v", err)}}
	}

	var (
		files []string
		cfg   = &load.Config{}
		args  []string
	)
	if info.IsDir() {
		files, err = FindCUEFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		cfg.Dir = path
		args = []string{"."}
	} else {
		if filepath.Ext(path) != ".cue" {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("not a CUE file: %s", path)}}
		}
		files = []string{path}
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	compiled, compileErrs := compiler.CompileAll(value, mode == LoadModeFailFast)
	result := &LoadResult{
		Result:    compiled,
		CUEValue:  value,
		FileCount: len(files),
	}
	errs := make([]error, 0, len(compileErrs))
	for _, err := range compileErrs {
		errs = append(errs, convertCompileError(err))
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		msg := compileErr.Message
		if compileErr.Path != "" {
			msg = compileErr.Path + ": " + msg
		}
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: msg,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// loadSchema loads path fail-fast and selects the schema called name,
// reporting failures through f.
func loadSchema(f *OutputFormatter, path, name string) (*schema.Schema, error) {
	result, errs := LoadSchemas(path, LoadModeFailFast)
	if len(errs) > 0 {
		var loadErr *LoadError
		if errors.As(errs[0], &loadErr) {
			return nil, f.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, errs[0].Error(), nil)
	}
	s, err := selectSchema(f, result.Result, path, name)
	if err != nil {
		return nil, err
	}
	f.Logger.Debug("schema loaded",
		zap.String("schema", s.Name()),
		zap.Int("fields", s.Len()),
		zap.Int("width", s.Width()),
	)
	return s, nil
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeUnknownSchema = "E008" // --schema names no compiled schema
	ErrCodeInputFailed   = "E009" // Input file could not be read

	// Schema declaration errors
	ErrCodeSchemaDecl   = "E101" // No schemas / empty schema
	ErrCodeFieldDecl    = "E102" // Invalid or duplicate field
	ErrCodeInvalidType  = "E103" // Unknown type name
	ErrCodeInvalidLabel = "E104" // Malformed label categories
	ErrCodeInvalidVec   = "E105" // Malformed vector children
	ErrCodeModelDecl    = "E106" // Model referencing unknown schemas

	// Record and matrix errors
	ErrCodeInvalidRecords = "E301" // One or more rows failed validation
	ErrCodeEncodeFailed   = "E302" // Encoding failed
	ErrCodeDecodeFailed   = "E303" // Decoding failed
	ErrCodeStoreFailed    = "E304" // Dataset store error
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "schema":
		return ErrCodeSchemaDecl
	case "field":
		return ErrCodeFieldDecl
	case "type":
		return ErrCodeInvalidType
	case "label":
		return ErrCodeInvalidLabel
	case "vector":
		return ErrCodeInvalidVec
	case "model":
		return ErrCodeModelDecl
	case "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}
