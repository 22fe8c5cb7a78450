package cli

import (
	"github.com/spf13/cobra"

	"github.com/shayne-snap/llmroof/internal/display"
	"github.com/shayne-snap/llmroof/internal/hardware"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show detected hardware and the matching catalog accelerator",
	Args:  cobra.NoArgs,
	RunE:  runSystem,
}

func runSystem(cmd *cobra.Command, args []string) error {
	host, err := hardware.Detect()
	if err != nil {
		return err
	}
	catalog, err := hardware.LoadCatalog()
	if err != nil {
		return err
	}
	var matched *hardware.Accelerator
	if acc, ok := catalog.MatchHost(host); ok {
		matched = &acc
	}
	display.System(cmd.OutOrStdout(), host, matched, globalJSON)
	return nil
}
