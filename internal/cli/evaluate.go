package cli

import (
	"github.com/spf13/cobra"

	"github.com/shayne-snap/llmroof/internal/compare"
	"github.com/shayne-snap/llmroof/internal/display"
	"github.com/shayne-snap/llmroof/internal/hardware"
)

var evalWorkload workloadFlags

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [model]",
	Short: "Roofline analysis of one model on one accelerator",
	Long: "Evaluates a model on an accelerator: ops:byte ratio vs arithmetic intensity, prefill and " +
		"per-token latency, throughput, memory breakdown and fit. Without --accelerator the detected GPU is used.",
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evalWorkload.register(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	evalWorkload.applyConfig(cmd, cfg)
	catalog, err := hardware.LoadCatalog()
	if err != nil {
		return err
	}
	acc, err := resolveAccelerator(catalog, evalWorkload.accelerator)
	if err != nil {
		return err
	}
	spec, err := evalWorkload.modelSpec(cmd, args[0])
	if err != nil {
		return err
	}
	e, opts, err := newEngine()
	if err != nil {
		return err
	}
	row := compare.Evaluate(e, acc, spec, compare.Options{
		Approximate: evalWorkload.approximate,
		Overhead:    evalWorkload.overhead(),
	})
	failed := row.Result == nil && row.Estimate == nil
	// with --json the failed row, error included, is printed before returning the error
	if failed && !globalJSON {
		return row.Err
	}
	display.Evaluate(cmd.OutOrStdout(), spec, row, opts, globalJSON)
	if failed {
		return row.Err
	}
	return nil
}
