package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/featcodec/internal/config"
	"github.com/roach88/featcodec/internal/ingest"
	"github.com/roach88/featcodec/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to a YAML config file

	// Settings is the loaded configuration. Flags take precedence over it.
	Settings config.Config

	logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the featcodec CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Settings: config.Default()}

	cmd := &cobra.Command{
		Use:   "featcodec",
		Short: "featcodec - feature schema codec",
		Long:  "Declare typed feature schemas in CUE and convert records to and from numeric matrices.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to a YAML config file")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewDatasetsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// init loads the config file, lets it fill in flags the user did not set,
// validates the format and builds the stderr logger.
func (o *RootOptions) init(cmd *cobra.Command) error {
	settings, err := config.Load(o.Config)
	if err != nil {
		return o.startupError(cmd, WrapExitError(ExitCommandError, "loading config", err))
	}
	o.Settings = settings

	if !cmd.Flags().Changed("format") {
		o.Format = settings.Output.Format
	}
	if !isValidFormat(o.Format) {
		return o.startupError(cmd, NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats)))
	}

	level := settings.Logging.Level
	if o.Verbose {
		level = "debug"
	}
	var l *zap.Logger
	if settings.Logging.Env == "prod" {
		// JSON lines on stderr for log collectors.
		l, err = logger.NewLogger(settings.Logging.Env, level)
	} else {
		l, err = logger.NewWriterLogger(cmd.ErrOrStderr(), level)
	}
	if err != nil {
		return o.startupError(cmd, WrapExitError(ExitCommandError, "creating logger", err))
	}
	o.logger = l
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.ContextWithLogger(ctx, l))
	return nil
}

// startupError reports err on stderr before any formatter exists.
func (o *RootOptions) startupError(cmd *cobra.Command, err *ExitError) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	return err
}

// Logger returns the command logger, or a no-op logger when the root
// command did not run (as in tests that build subcommands directly).
func (o *RootOptions) Logger() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

// CSVConf returns the CSV reader settings from the configuration.
func (o *RootOptions) CSVConf() ingest.CSVConf {
	conf := ingest.CSVConf{Header: ingest.HeaderMode(o.Settings.CSV.Header)}
	if o.Settings.CSV.Delimiter != "" {
		conf.Delimiter = o.Settings.CSV.DelimiterRune()
	}
	return conf
}

// storePath picks the --db flag, falling back to the configured store path.
func (o *RootOptions) storePath(flag string) string {
	if flag != "" {
		return flag
	}
	return o.Settings.Store.Path
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
