package cli

import (
	"github.com/spf13/cobra"

	"github.com/shayne-snap/llmroof/internal/display"
	"github.com/shayne-snap/llmroof/internal/models"
)

var infoCmd = &cobra.Command{
	Use:   "info [model]",
	Short: "Show architecture, KV cache and weight sizes of a model",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	m, err := resolveModel(cmd, args[0])
	if err != nil {
		return err
	}
	display.Info(cmd.OutOrStdout(), m, models.DefaultQuantTable(), globalJSON)
	return nil
}
