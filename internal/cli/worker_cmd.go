package cli

import (
	"os"

	"github.com/opencode-ai/illo/internal/worker"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(workerCmd)
}

var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Serve the rendering worker protocol on stdin and stdout",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return worker.Serve(cmd.Context(), os.Stdin, os.Stdout)
	},
}
