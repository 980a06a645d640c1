// Package cli implements the reloop command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reloop-exchange/reloop/internal/api"
)

var rootCmd = &cobra.Command{
	Use:   "reloop",
	Short: "Materials-exchange purchase coordinator",
	Long: `reloop records material purchases across three stores: the relational
transaction ledger, the impact report document store, and the
hash-chained proof ledger. Run 'reloop serve' to start the service.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the reloop version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "reloop %s\n", api.Version)
	},
}
