package cli

import (
	"github.com/spf13/cobra"

	"github.com/shayne-snap/llmroof/internal/display"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for models by name, provider, or size",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	results, err := findModels(cmd, query)
	if err != nil {
		return err
	}
	display.Search(cmd.OutOrStdout(), results, query, globalJSON)
	return nil
}
