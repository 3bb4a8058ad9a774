package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/featcodec/internal/store"
)

// DatasetsOptions holds flags for the datasets command.
type DatasetsOptions struct {
	*RootOptions
	DB     string
	Delete string // dataset id to delete
}

// NewDatasetsCommand creates the datasets command.
func NewDatasetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DatasetsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List stored datasets",
		Long: `List the matrices saved by "encode --dataset", oldest first.

Examples:
  featcodec datasets --db features.db
  featcodec datasets --db features.db --delete 3f2c...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDatasets(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "dataset store path")
	cmd.Flags().StringVar(&opts.Delete, "delete", "", "delete the dataset with this id")

	return cmd
}

func runDatasets(opts *DatasetsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	dbPath := opts.storePath(opts.DB)
	if dbPath == "" {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "--db or store.path in the config is required", nil)
	}
	st, err := store.Open(dbPath, store.WithLogger(formatter.Logger))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	if opts.Delete != "" {
		err := st.DeleteDataset(ctx, opts.Delete)
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("dataset %q not found", opts.Delete), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
		}
		return formatter.Success(map[string]string{"deleted": opts.Delete}, func(w io.Writer) {
			fmt.Fprintf(w, "✓ Deleted dataset %s\n", opts.Delete)
		})
	}

	datasets, err := st.ListDatasets(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	return formatter.Success(datasets, func(w io.Writer) { writeDatasetsText(w, datasets) })
}

func writeDatasetsText(w io.Writer, datasets []store.Dataset) {
	if len(datasets) == 0 {
		fmt.Fprintln(w, "No datasets stored.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tNAME\tSCHEMA\tROWS\tCOLS\tID")
	for _, ds := range datasets {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n", ds.Seq, ds.Name, ds.SchemaName, ds.Rows, ds.Cols, ds.ID)
	}
	tw.Flush()
}
