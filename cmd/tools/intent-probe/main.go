// cmd/tools/intent-probe/main.go
//
// intent-probe runs the pattern-based parts of the conversation pipeline
// offline: no LLM, no search API, no stores. Useful for checking how a phrase
// will be routed before touching the regex tables.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"logo-workers/internal/common/logger"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "intent-probe",
		Short:         "Probe the offline intent, query and preview rules",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log component decisions to stderr")

	base := func() logger.Logger {
		if verbose {
			return logger.NewStructured("debug", "console")
		}
		return logger.NewNoOpLogger()
	}

	root.AddCommand(
		classifyCmd(base),
		extractCmd(base),
		composeCmd(base),
		replyCmd(),
	)
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
