// Package cli wires the cobra command tree: flag parsing, config defaults, and dispatch to the engines.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shayne-snap/llmroof/internal/config"
	"github.com/shayne-snap/llmroof/internal/display"
	"github.com/shayne-snap/llmroof/internal/hardware"
	"github.com/shayne-snap/llmroof/internal/logging"
	"github.com/shayne-snap/llmroof/internal/models"
	"github.com/shayne-snap/llmroof/internal/roofline"
	"github.com/shayne-snap/llmroof/internal/tui"
)

// Version is set by main from ldflags or "dev". Used for --version / -v.
var Version string

var (
	globalJSON       bool
	globalCLI        bool
	globalStrict     bool
	globalKVBasis    string
	globalConfigPath string
	globalLogLevel   string
	globalLogFormat  string
	showVersion      bool

	// cfg is loaded once per invocation in PersistentPreRunE.
	cfg config.Config

	rootWorkload workloadFlags
)

var rootCmd = &cobra.Command{
	Use:   "llmroof [model]",
	Short: "Roofline analysis of LLM inference on accelerators",
	Long: "llmroof estimates how an LLM performs on an accelerator with the roofline model: " +
		"compute- or memory-bound, prefill and per-token latency, throughput, and whether the weights " +
		"and KV cache fit. It also compares accelerators, inspects models and suggests an LLM stack. " +
		"TUI by default; use --cli for table output.",
	Args:          cobra.MaximumNArgs(1),
	RunE:          runDefault,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			if Version == "" {
				Version = "dev"
			}
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			os.Exit(0)
		}
		return loadConfig(cmd)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&globalJSON, "json", false, "Output results as JSON")
	pf.BoolVar(&globalCLI, "cli", false, "Use classic CLI table output instead of TUI (when no subcommand)")
	pf.BoolVar(&globalStrict, "strict", true, "Require complete architecture metadata; --strict=false substitutes defaults and skips activation memory")
	pf.StringVar(&globalKVBasis, "kv-basis", "actual", "KV cache sizing: actual (prompt+output tokens) or context (full context window)")
	pf.StringVar(&globalConfigPath, "config", "", "Config file (default: user config dir/llmroof/config.yaml)")
	pf.StringVar(&globalLogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	pf.StringVar(&globalLogFormat, "log-format", "text", "Log format: text or json")
	pf.BoolVarP(&showVersion, "version", "v", false, "Print version and exit")

	rootWorkload.register(rootCmd)

	rootCmd.AddCommand(evaluateCmd, compareCmd, acceleratorsCmd, listCmd, searchCmd, infoCmd,
		systemCmd, stackCmd, updateListCmd)
}

// Execute runs the root command, cancelling in-flight requests on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads the config file and fills root flags the user did not set, then installs the logger.
func loadConfig(cmd *cobra.Command) error {
	path := globalConfigPath
	if path == "" {
		path = config.Path()
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = c
	flags := cmd.Flags()
	if !flags.Changed("strict") && cfg.Strict != nil {
		globalStrict = *cfg.Strict
	}
	if !flags.Changed("kv-basis") && cfg.KVBasis != "" {
		globalKVBasis = cfg.KVBasis
	}
	if !flags.Changed("log-level") && cfg.LogLevel != "" {
		globalLogLevel = cfg.LogLevel
	}
	if !flags.Changed("log-format") && cfg.LogFormat != "" {
		globalLogFormat = cfg.LogFormat
	}
	if _, err := logging.Setup(cmd.ErrOrStderr(), globalLogLevel, globalLogFormat); err != nil {
		return err
	}
	slog.Debug("config loaded", "path", path, "strict", globalStrict, "kv_basis", globalKVBasis)
	return nil
}

// engineOptions builds roofline options from --strict and --kv-basis.
func engineOptions() (roofline.Options, error) {
	basis, err := roofline.ParseKVCacheBasis(globalKVBasis)
	if err != nil {
		return roofline.Options{}, err
	}
	return roofline.Options{StrictArchitecture: globalStrict, KVBasis: basis}, nil
}

func runDefault(cmd *cobra.Command, args []string) error {
	rootWorkload.applyConfig(cmd, cfg)
	if globalCLI {
		if len(args) == 0 {
			db, err := models.NewDB()
			if err != nil {
				return err
			}
			display.List(cmd.OutOrStdout(), db.GetAllModels(), globalJSON)
			return nil
		}
		return runCompareWith(cmd, args[0], &rootWorkload, compareFlags{})
	}

	db, err := models.NewDB()
	if err != nil {
		return err
	}
	catalog, err := hardware.LoadCatalog()
	if err != nil {
		return err
	}
	opts, err := engineOptions()
	if err != nil {
		return err
	}
	w, err := rootWorkload.workload()
	if err != nil {
		return err
	}
	host, err := hardware.Detect()
	if err != nil {
		slog.Warn("hardware detection failed", "error", err)
	}
	all := db.GetAllModels()
	index := 0
	if len(args) == 1 {
		m, err := resolveModel(cmd, args[0])
		if err != nil {
			return err
		}
		index = -1
		for i, candidate := range all {
			if candidate.Name == m.Name {
				index = i
			}
		}
		// fetched from HuggingFace
		if index < 0 {
			all = append(all, m)
			index = len(all) - 1
		}
	}
	overhead := rootWorkload.overhead()
	if err := overhead.Validate(); err != nil {
		return err
	}
	return tui.Run(tui.Setup{
		Host:          host,
		Models:        all,
		ModelIndex:    index,
		Accelerators:  catalog.All(),
		Table:         models.DefaultQuantTable(),
		Workload:      w,
		Options:       opts,
		Overhead:      *overhead,
		Approximate:   rootWorkload.approximate,
	})
}
