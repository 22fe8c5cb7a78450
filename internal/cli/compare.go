package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shayne-snap/llmroof/internal/compare"
	"github.com/shayne-snap/llmroof/internal/display"
	"github.com/shayne-snap/llmroof/internal/hardware"
)

type compareFlags struct {
	vendor    string
	fitsOnly  bool
	limit     int
	bestQuant bool
}

var (
	compareWorkload workloadFlags
	compareOpts     compareFlags
)

var compareCmd = &cobra.Command{
	Use:   "compare [model]",
	Short: "Rank catalog accelerators for one model by throughput",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		compareWorkload.applyConfig(cmd, cfg)
		return runCompareWith(cmd, args[0], &compareWorkload, compareOpts)
	},
}

func init() {
	compareWorkload.register(compareCmd)
	f := compareCmd.Flags()
	f.StringVar(&compareOpts.vendor, "vendor", "", "Only accelerators of this vendor")
	f.BoolVar(&compareOpts.fitsOnly, "fits-only", false, "Hide accelerators the model does not fit on")
	f.IntVarP(&compareOpts.limit, "limit", "n", 0, "Show at most N accelerators (0 = all)")
	f.BoolVar(&compareOpts.bestQuant, "best-quant", false, "Pick the highest-precision format that fits each accelerator")
}

// runCompareWith is shared by compare and the root command's --cli mode.
func runCompareWith(cmd *cobra.Command, query string, wf *workloadFlags, cf compareFlags) error {
	catalog, err := hardware.LoadCatalog()
	if err != nil {
		return err
	}
	accs := catalog.All()
	if wf.accelerator != "" {
		if accs = catalog.Find(wf.accelerator); len(accs) == 0 {
			return fmt.Errorf("no accelerator matching %q", wf.accelerator)
		}
	}
	spec, err := wf.modelSpec(cmd, query)
	if err != nil {
		return err
	}
	e, opts, err := newEngine()
	if err != nil {
		return err
	}
	copts := compare.Options{Approximate: wf.approximate, Overhead: wf.overhead()}
	var rows []*compare.Row
	if cf.bestQuant {
		rows = compare.CompareBestQuant(e, accs, spec, copts)
	} else {
		rows = compare.Compare(e, accs, spec, copts)
	}
	rows = compare.RankByThroughput(rows)
	rows = compare.FilterByVendor(rows, cf.vendor)
	if cf.fitsOnly {
		rows = compare.FilterFitsOnly(rows)
	}
	rows = compare.Limit(rows, cf.limit)
	display.Compare(cmd.OutOrStdout(), spec, rows, opts, globalJSON)
	return nil
}
