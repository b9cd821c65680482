package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the backend is reachable",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.client.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("backend %s is not reachable: %w", a.client.BaseURL(), err)
	}
	a.printer.Success("Backend %s is reachable", a.client.BaseURL())
	a.printer.Success("Council: %s", councilSummary(a.council))
	return nil
}
