package cli

import (
	"github.com/spf13/cobra"

	"github.com/shayne-snap/llmroof/internal/display"
	"github.com/shayne-snap/llmroof/internal/models"
)

var listUseCase string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"models"},
	Short:   "List all models in the catalog",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := models.NewDB()
		if err != nil {
			return err
		}
		list := models.FilterByUseCase(db.GetAllModels(), listUseCase)
		display.List(cmd.OutOrStdout(), list, globalJSON)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listUseCase, "use-case", "", "Filter: general, coding, reasoning, chat, multimodal, embedding")
}
