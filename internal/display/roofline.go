package display

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/shayne-snap/llmroof/internal/compare"
	"github.com/shayne-snap/llmroof/internal/roofline"
)

var evaluateTpl = template.Must(template.New("evaluate").Parse(
	`
=== {{.Model}} on {{.Accelerator}} ===

Workload: {{.Quant}}, batch {{.Batch}}, {{.Prompt}} prompt + {{.Output}} output tokens, context {{.Context}}
Mode: {{.Mode}}
Fit: {{.Fit}}

Roofline:
  Ops:Byte Ratio: {{.Ratio}}
  Arithmetic Intensity: {{.Intensity}}
  Bound: {{.Bound}}

Latency:
  Prefill: {{.Prefill}} ms
  Per Token: {{.PerToken}} ms
  Total: {{.Total}} ms
  Throughput: {{.Throughput}} tok/s
{{- if .Cost}}
  Cost: ${{.Cost}} per 1M tokens{{end}}

Memory:
  Model Weights: {{.ModelGB}} GB
  KV Cache: {{.KVGB}} GB ({{.KVPerToken}} per token x {{.SeqTokens}} tokens x batch {{.Batch}})
  Activations: {{.ActivationGB}} GB
  Runtime Overhead: {{.OverheadGB}} GB
  Total: {{.TotalGB}} / {{.CapacityGB}} GB ({{.Utilization}})
  Max Batch Size: {{.MaxBatch}}
  Max KV Cache Tokens: {{.MaxKV}}
{{- if .Warnings}}

Warnings:
{{.Warnings}}{{end}}

`))

var approxTpl = template.Must(template.New("approx").Parse(
	`
=== {{.Model}} on {{.Accelerator}} (approx) ===

Precise evaluation failed: {{.Error}}
Weights-only estimate (KV cache and activations not counted):
  Model Weights: {{.ModelGB}} GB
  Memory Utilization: {{.Utilization}}
  Per Token: {{.PerToken}} ms
  Throughput: {{.Throughput}} tok/s
  Fit: {{.Fit}}

`))

type evaluateData struct {
	Model, Accelerator, Quant, Mode, Fit, Bound, Cost                  string
	Batch, Prompt, Output, Context, SeqTokens                          uint32
	Ratio, Intensity, Prefill, PerToken, Total, Throughput             string
	ModelGB, KVGB, KVPerToken, ActivationGB, OverheadGB                string
	TotalGB, CapacityGB, Utilization, MaxBatch, MaxKV, Warnings, Error string
}

// Evaluate prints one accelerator's evaluation (precise, approximate or failed).
func Evaluate(out io.Writer, spec roofline.ModelSpec, row *compare.Row, opts roofline.Options, useJSON bool) {
	if useJSON {
		writeJSON(out, map[string]interface{}{
			"mode":       opts.Mode(),
			"kv_basis":   opts.KVBasis,
			"model":      spec,
			"evaluation": row,
		})
		return
	}
	d := evaluateData{
		Model:       spec.Name,
		Accelerator: row.Accelerator.Name,
		Quant:       string(spec.Quantization),
		Mode:        fmt.Sprintf("%s, KV cache basis %s", opts.Mode(), opts.KVBasis),
		Fit:         row.Fit.Emoji() + " " + row.Fit.String(),
		Batch:       spec.BatchSize,
		Prompt:      spec.PromptTokens,
		Output:      spec.OutputTokens,
		Context:     spec.ContextLength,
		Error:       row.Error,
	}
	if row.CostPer1M != nil {
		d.Cost = row.CostPer1M.StringFixed(4)
	}
	switch {
	case row.Result != nil:
		r := row.Result
		d.Ratio = fmt.Sprintf("%.2f", r.OpsToByteRatio)
		d.Intensity = fmt.Sprintf("%.2f", r.ArithmeticIntensity)
		d.Bound = r.Bound.String() + "-bound"
		d.Prefill = fmt.Sprintf("%.2f", r.PrefillMs)
		d.PerToken = fmt.Sprintf("%.2f", r.PerTokenMs)
		d.Total = fmt.Sprintf("%.2f", r.TotalMs)
		d.Throughput = fmt.Sprintf("%.2f", r.ThroughputTPS)
		d.ModelGB = fmt.Sprintf("%.2f", r.Memory.ModelSizeGB)
		d.KVGB = fmt.Sprintf("%.2f", r.Memory.KVCacheGB)
		d.KVPerToken = humanize.Bytes(uint64(r.Memory.KVPerTokenBytes))
		d.SeqTokens = r.Memory.SequenceTokens
		d.ActivationGB = fmt.Sprintf("%.2f", r.Memory.ActivationGB)
		d.OverheadGB = fmt.Sprintf("%.2f", r.Memory.OverheadGB)
		d.TotalGB = fmt.Sprintf("%.2f", r.Memory.TotalGB)
		d.CapacityGB = fmt.Sprintf("%.0f", r.Memory.CapacityGB)
		d.Utilization = utilization(r.MemoryUtilizationPct)
		d.MaxBatch = humanize.Comma(int64(r.MaxBatchSize))
		d.MaxKV = humanize.Comma(int64(r.MaxKVCacheTokens))
		d.Warnings = warningsBlock(r)
		_ = evaluateTpl.Execute(out, d)
	case row.Estimate != nil:
		e := row.Estimate
		d.ModelGB = fmt.Sprintf("%.2f", e.ModelSizeGB)
		d.Utilization = utilization(e.MemoryUtilizationPct)
		d.PerToken = fmt.Sprintf("%.2f", e.PerTokenMs)
		d.Throughput = fmt.Sprintf("%.2f", e.ThroughputTPS)
		_ = approxTpl.Execute(out, d)
	default:
		fmt.Fprintf(out, "\nCannot evaluate %s on %s: %s\n", spec.Name, row.Accelerator.Name, row.Error)
	}
}

func warningsBlock(r *roofline.Result) string {
	var lines []string
	for _, w := range []*roofline.Warning{r.MemoryWarning, r.PerformanceWarning} {
		if w != nil {
			lines = append(lines, "  ⚠ "+w.Message)
		}
	}
	return strings.Join(lines, "\n")
}

func utilization(pct float64) string {
	if pct >= roofline.UtilizationDisplayCap {
		return fmt.Sprintf(">%d%%", roofline.UtilizationDisplayCap)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// Compare prints ranked accelerator rows for one model.
func Compare(out io.Writer, spec roofline.ModelSpec, rows []*compare.Row, opts roofline.Options, useJSON bool) {
	if useJSON {
		writeJSON(out, map[string]interface{}{
			"mode":         opts.Mode(),
			"kv_basis":     opts.KVBasis,
			"model":        spec,
			"accelerators": rows,
		})
		return
	}
	if len(rows) == 0 {
		fmt.Fprintf(out, "\nNo accelerators to compare for %s.\n", spec.Name)
		return
	}
	fmt.Fprintf(out, "\n=== %s (%s, batch %d, %d+%d tokens) ===\n", spec.Name, spec.Quantization, spec.BatchSize, spec.PromptTokens, spec.OutputTokens)
	fmt.Fprintf(out, "Compared %d accelerator(s), %s mode\n\n", len(rows), opts.Mode())
	tbl := tablewriter.NewWriter(out)
	tbl.Header("Status", "Accelerator", "Vendor", "tok/s", "ms/token", "Bound", "Mem %", "Max Batch", "$/1M tok")
	for _, r := range rows {
		tbl.Append(compareRow(r))
	}
	_ = tbl.Render()
	for _, r := range rows {
		if r.Result == nil && r.Error != "" {
			fmt.Fprintf(out, "  %s: %s\n", r.Accelerator.Name, r.Error)
		}
	}
}

func compareRow(r *compare.Row) []string {
	cost := "-"
	if r.CostPer1M != nil {
		cost = r.CostPer1M.StringFixed(2)
	}
	status := r.Fit.Emoji() + " " + r.Fit.String()
	switch {
	case r.Result != nil:
		res := r.Result
		return []string{
			status,
			r.Accelerator.Name,
			r.Accelerator.Vendor,
			fmt.Sprintf("%.1f", res.ThroughputTPS),
			fmt.Sprintf("%.2f", res.PerTokenMs),
			res.Bound.String(),
			utilization(res.MemoryUtilizationPct),
			humanize.Comma(int64(res.MaxBatchSize)),
			cost,
		}
	case r.Estimate != nil:
		e := r.Estimate
		return []string{
			status + " (approx)",
			r.Accelerator.Name,
			r.Accelerator.Vendor,
			fmt.Sprintf("%.1f", e.ThroughputTPS),
			fmt.Sprintf("%.2f", e.PerTokenMs),
			"-",
			utilization(e.MemoryUtilizationPct),
			"-",
			cost,
		}
	}
	return []string{"✗ Error", r.Accelerator.Name, r.Accelerator.Vendor, "-", "-", "-", "-", "-", "-"}
}
