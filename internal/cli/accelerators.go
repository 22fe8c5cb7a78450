package cli

import (
	"github.com/spf13/cobra"

	"github.com/shayne-snap/llmroof/internal/display"
	"github.com/shayne-snap/llmroof/internal/hardware"
)

var acceleratorsVendor string

var acceleratorsCmd = &cobra.Command{
	Use:     "accelerators",
	Aliases: []string{"accel"},
	Short:   "List the accelerator catalog",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := hardware.LoadCatalog()
		if err != nil {
			return err
		}
		list := hardware.FilterByVendor(catalog.All(), acceleratorsVendor)
		display.Accelerators(cmd.OutOrStdout(), list, globalJSON)
		return nil
	},
}

func init() {
	acceleratorsCmd.Flags().StringVar(&acceleratorsVendor, "vendor", "", "Only accelerators of this vendor")
}
