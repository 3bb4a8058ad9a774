package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/featcodec/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Flag and argument errors from cobra; command failures are
		// already reported by the output formatter.
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
