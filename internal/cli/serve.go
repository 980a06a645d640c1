package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reloop-exchange/reloop/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("home", "", "Override the reloop home directory")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reloop service",
	Long: `Start the HTTP API, the proof reconciliation loop, and the metrics
endpoint. Configuration is read from <home>/config.toml; missing values
fall back to defaults.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString("home")
	if home == "" {
		home = daemon.Home()
	}

	cfg, err := daemon.LoadConfig(home)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	d, err := daemon.New(cfg, home)
	if err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	return d.Run(context.Background())
}
