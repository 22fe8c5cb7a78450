package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shayne-snap/llmroof/internal/config"
	"github.com/shayne-snap/llmroof/internal/fetch"
	"github.com/shayne-snap/llmroof/internal/hardware"
	"github.com/shayne-snap/llmroof/internal/models"
	"github.com/shayne-snap/llmroof/internal/roofline"
)

func looksLikeRepoID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && len(parts[1]) > 0 && !strings.ContainsAny(s, " \t\n")
}

func confirmFetch(cmd *cobra.Command, query string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s not in list. Fetch from HuggingFace? [y/N] ", query)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return false
	}
	line := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return line == "y" || line == "yes"
}

// findModels searches the catalog and, for an unknown repo ID the user agrees to fetch,
// pulls the model from HuggingFace and caches it.
func findModels(cmd *cobra.Command, query string) ([]*models.LlmModel, error) {
	db, err := models.NewDB()
	if err != nil {
		return nil, err
	}
	results := db.FindModel(query)
	if len(results) > 0 || !looksLikeRepoID(query) || !confirmFetch(cmd, query) {
		return results, nil
	}
	m, err := fetch.FetchModel(cmd.Context(), query)
	if err != nil {
		return nil, fmt.Errorf("could not fetch model: %w", err)
	}
	if err := models.AppendModelToCache(m); err != nil {
		slog.Warn("could not save fetched model to cache", "model", m.Name, "error", err)
	}
	return []*models.LlmModel{m}, nil
}

// resolveModel narrows a query to exactly one model.
func resolveModel(cmd *cobra.Command, query string) (*models.LlmModel, error) {
	results, err := findModels(cmd, query)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
		return nil, fmt.Errorf("no model found matching %q", query)
	case 1:
		return results[0], nil
	}
	names := make([]string, 0, len(results))
	for _, m := range results {
		names = append(names, m.Name)
	}
	return nil, fmt.Errorf("multiple models match %q, be more specific: %s", query, strings.Join(names, ", "))
}

// resolveAccelerator returns the named catalog accelerator, or the one matching this host's GPU.
func resolveAccelerator(catalog *hardware.Catalog, name string) (hardware.Accelerator, error) {
	if name != "" {
		return catalog.Get(name)
	}
	host, err := hardware.Detect()
	if err != nil {
		return hardware.Accelerator{}, fmt.Errorf("detect hardware: %w (use --accelerator)", err)
	}
	acc, ok := catalog.MatchHost(host)
	if !ok {
		return hardware.Accelerator{}, fmt.Errorf("no catalog accelerator matches this machine's GPU; use --accelerator")
	}
	slog.Info("using detected accelerator", "accelerator", acc.Name, "memory_gb", acc.MemoryGB)
	return acc, nil
}

// workloadFlags are the request-shape flags shared by the root command, evaluate and compare.
type workloadFlags struct {
	quant             string
	context           uint32
	batch             uint32
	prompt            uint32
	output            uint32
	efficiency        float64
	prefillEfficiency float64
	decodeEfficiency  float64
	approximate       bool
	accelerator       string

	// set from the command line or the config file; a set phase overrides efficiency
	prefillSet bool
	decodeSet  bool
}

func (f *workloadFlags) register(cmd *cobra.Command) {
	d := roofline.DefaultWorkload()
	fl := cmd.Flags()
	fl.StringVar(&f.quant, "quant", "", "Quantization: FP32, FP16, INT8, INT4 (default: the model's own)")
	fl.Uint32Var(&f.context, "context", 0, "Context length (default: min(4096, model context))")
	fl.Uint32Var(&f.batch, "batch", d.BatchSize, "Batch size")
	fl.Uint32Var(&f.prompt, "prompt-tokens", d.PromptTokens, "Prompt tokens per request")
	fl.Uint32Var(&f.output, "output-tokens", d.OutputTokens, "Output tokens per request")
	fl.Float64Var(&f.efficiency, "efficiency", 100, "System efficiency percent applied to prefill and decode")
	fl.Float64Var(&f.prefillEfficiency, "prefill-efficiency", 0, "Prefill efficiency percent (overrides --efficiency)")
	fl.Float64Var(&f.decodeEfficiency, "decode-efficiency", 0, "Decode efficiency percent (overrides --efficiency)")
	fl.BoolVar(&f.approximate, "approximate", false, "Fall back to a weights-only estimate when the precise evaluation fails")
	fl.StringVarP(&f.accelerator, "accelerator", "a", "", "Accelerator name from the catalog (default: detected GPU)")
}

// applyConfig fills flags the user did not set from the config file.
func (f *workloadFlags) applyConfig(cmd *cobra.Command, c config.Config) {
	fl := cmd.Flags()
	unset := func(name string) bool {
		flag := fl.Lookup(name)
		return flag != nil && !flag.Changed
	}
	if unset("quant") && c.Quantization != "" {
		f.quant = c.Quantization
	}
	if unset("accelerator") && c.Accelerator != "" {
		f.accelerator = c.Accelerator
	}
	setUint := func(name string, dst *uint32, v *uint32) {
		if unset(name) && v != nil {
			*dst = *v
		}
	}
	setUint("context", &f.context, c.ContextLength)
	setUint("batch", &f.batch, c.BatchSize)
	setUint("prompt-tokens", &f.prompt, c.PromptTokens)
	setUint("output-tokens", &f.output, c.OutputTokens)
	setFloat := func(name string, dst *float64, v *float64) {
		if unset(name) && v != nil {
			*dst = *v
		}
	}
	setFloat("efficiency", &f.efficiency, c.SystemEfficiency)
	setFloat("prefill-efficiency", &f.prefillEfficiency, c.PrefillEfficiency)
	setFloat("decode-efficiency", &f.decodeEfficiency, c.DecodeEfficiency)
	if unset("approximate") && c.Approximate != nil {
		f.approximate = *c.Approximate
	}
	f.prefillSet = fl.Changed("prefill-efficiency") || c.PrefillEfficiency != nil
	f.decodeSet = fl.Changed("decode-efficiency") || c.DecodeEfficiency != nil
}

func (f *workloadFlags) workload() (roofline.Workload, error) {
	if f.batch == 0 {
		return roofline.Workload{}, fmt.Errorf("--batch must be at least 1")
	}
	w := roofline.Workload{
		ContextLength: f.context,
		BatchSize:     f.batch,
		PromptTokens:  f.prompt,
		OutputTokens:  f.output,
	}
	if f.quant != "" {
		q, err := models.ParseQuantization(f.quant)
		if err != nil {
			return roofline.Workload{}, err
		}
		w.Quantization = q
	}
	return w, nil
}

// overhead resolves the efficiency flags; a set per-phase value wins over --efficiency.
// Values pass through unchanged so the engine rejects anything outside 1..200.
func (f *workloadFlags) overhead() *roofline.Overhead {
	o := roofline.SystemEfficiency(f.efficiency)
	if f.prefillSet {
		o.PrefillPct = f.prefillEfficiency
	}
	if f.decodeSet {
		o.DecodePct = f.decodeEfficiency
	}
	return o
}

// modelSpec resolves the model query and combines it with the workload flags.
func (f *workloadFlags) modelSpec(cmd *cobra.Command, query string) (roofline.ModelSpec, error) {
	w, err := f.workload()
	if err != nil {
		return roofline.ModelSpec{}, err
	}
	m, err := resolveModel(cmd, query)
	if err != nil {
		return roofline.ModelSpec{}, err
	}
	return roofline.SpecFor(m, w)
}

func newEngine() (*roofline.Engine, roofline.Options, error) {
	opts, err := engineOptions()
	if err != nil {
		return nil, opts, err
	}
	e, err := roofline.New(models.DefaultQuantTable(), opts)
	return e, opts, err
}
