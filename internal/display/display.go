// Package display handles CLI table and JSON output for evaluations, comparisons, catalogs and the host.
package display

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"

	"github.com/shayne-snap/llmroof/internal/hardware"
	"github.com/shayne-snap/llmroof/internal/models"
)

var (
	systemTpl *template.Template
	infoTpl   *template.Template
)

func init() {
	systemTpl = template.Must(template.New("system").Parse(
		`
=== System Specifications ===
CPU: {{.CPUName}} ({{.CPUCores}} cores)
Total RAM: {{.TotalRAMGB}}
Available RAM: {{.AvailableRAMGB}}
{{.GPUBlock}}
Catalog Match: {{.Match}}

`))
	infoTpl = template.Must(template.New("info").Parse(
		`
=== {{.Name}} ===

Provider: {{.Provider}}
Parameters: {{.ParameterCount}}
Quantization: {{.Quantization}}
Context Length: {{.ContextLength}} tokens
Use Case: {{.UseCase}}
Category: {{.Category}}

Architecture:
{{.ArchBlock}}

Weights by Format:
{{.WeightsBlock}}

`))
}

// writeJSON encodes v indented; output errors are the writer's concern.
func writeJSON(out io.Writer, v interface{}) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// System prints the detected host and the accelerator it maps to (nil when unmatched).
func System(out io.Writer, host *hardware.Host, matched *hardware.Accelerator, useJSON bool) {
	if useJSON {
		obj := map[string]interface{}{"system": systemJSON(host)}
		if matched != nil {
			obj["accelerator"] = matched
		}
		writeJSON(out, obj)
		return
	}
	match := "none (use --accelerator with a catalog name)"
	if matched != nil {
		match = fmt.Sprintf("%s (%.0f TFLOPS, %.0f GB/s, %.0f GB)",
			matched.Name, matched.ComputeTFLOPS, matched.MemoryBandwidthGBps, matched.MemoryGB)
	}
	data := struct {
		CPUName, GPUBlock, Match   string
		CPUCores                   int
		TotalRAMGB, AvailableRAMGB string
	}{
		CPUName:        host.CPUName,
		CPUCores:       host.CPUCores,
		TotalRAMGB:     fmt.Sprintf("%.2f GB", host.TotalRAMGB),
		AvailableRAMGB: fmt.Sprintf("%.2f GB", host.AvailableRAMGB),
		GPUBlock:       buildSystemGPUBlock(host),
		Match:          match,
	}
	_ = systemTpl.Execute(out, data)
}

func buildSystemGPUBlock(host *hardware.Host) string {
	if len(host.GPUs) == 0 {
		return "GPU: Not detected"
	}
	var lines []string
	for i, g := range host.GPUs {
		prefix := "GPU: "
		if len(host.GPUs) > 1 {
			prefix = fmt.Sprintf("GPU %d: ", i+1)
		}
		var line string
		switch {
		case g.UnifiedMemory && g.VRAMGB != nil:
			line = fmt.Sprintf("%s%s (unified memory, %.2f GB shared)", prefix, g.Name, *g.VRAMGB)
		case g.VRAMGB != nil && g.Count > 1:
			line = fmt.Sprintf("%s%s x%d (%.2f GB VRAM each)", prefix, g.Name, g.Count, *g.VRAMGB)
		case g.VRAMGB != nil:
			line = fmt.Sprintf("%s%s (%.2f GB VRAM)", prefix, g.Name, *g.VRAMGB)
		default:
			line = fmt.Sprintf("%s%s (VRAM unknown)", prefix, g.Name)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func systemJSON(host *hardware.Host) map[string]interface{} {
	gpus := make([]map[string]interface{}, 0, len(host.GPUs))
	for _, g := range host.GPUs {
		m := map[string]interface{}{
			"name":           g.Name,
			"vendor":         g.Vendor,
			"count":          g.Count,
			"unified_memory": g.UnifiedMemory,
		}
		if g.VRAMGB != nil {
			m["vram_gb"] = round2(*g.VRAMGB)
		}
		gpus = append(gpus, m)
	}
	return map[string]interface{}{
		"total_ram_gb":     round2(host.TotalRAMGB),
		"available_ram_gb": round2(host.AvailableRAMGB),
		"cpu_cores":        host.CPUCores,
		"cpu_name":         host.CPUName,
		"gpus":             gpus,
	}
}

// Accelerators prints the accelerator catalog.
func Accelerators(out io.Writer, list []hardware.Accelerator, useJSON bool) {
	if useJSON {
		writeJSON(out, map[string]interface{}{"accelerators": list})
		return
	}
	fmt.Fprintln(out, "\n=== Accelerator Catalog ===")
	fmt.Fprintf(out, "Total accelerators: %d\n\n", len(list))
	tbl := tablewriter.NewWriter(out)
	tbl.Header("Accelerator", "Vendor", "TFLOPS", "GB/s", "Memory", "Ops:Byte", "$/hr")
	for _, a := range list {
		price := "-"
		if a.PricePerHour != nil {
			price = fmt.Sprintf("%.2f", *a.PricePerHour)
		}
		tbl.Append([]string{
			a.Name,
			a.Vendor,
			fmt.Sprintf("%.0f", a.ComputeTFLOPS),
			fmt.Sprintf("%.0f", a.MemoryBandwidthGBps),
			fmt.Sprintf("%.0f GB", a.MemoryGB),
			fmt.Sprintf("%.1f", a.FLOPs()/a.BandwidthBps()),
			price,
		})
	}
	_ = tbl.Render()
}

func modelRow(m *models.LlmModel) []string {
	return []string{
		m.Name,
		m.Provider,
		m.ParameterCount,
		m.Quantization,
		contextK(m.ContextLength),
		kvPerToken(m),
		models.UseCaseFromModel(m).String(),
	}
}

var modelHeader = []any{"Model", "Provider", "Size", "Quant", "Context", "KV/token", "Category"}

// List prints all models as table to out.
func List(out io.Writer, modelList []*models.LlmModel, useJSON bool) {
	if useJSON {
		writeJSON(out, map[string]interface{}{"models": modelsJSON(modelList)})
		return
	}
	fmt.Fprintln(out, "\n=== Available LLM Models ===")
	fmt.Fprintf(out, "Total models: %d\n\n", len(modelList))
	tbl := tablewriter.NewWriter(out)
	tbl.Header(modelHeader...)
	for _, m := range modelList {
		tbl.Append(modelRow(m))
	}
	_ = tbl.Render()
}

// Search prints search results table to out.
func Search(out io.Writer, results []*models.LlmModel, query string, useJSON bool) {
	if useJSON {
		writeJSON(out, map[string]interface{}{"query": query, "models": modelsJSON(results)})
		return
	}
	if len(results) == 0 {
		fmt.Fprintf(out, "\nNo models found matching '%s'\n", query)
		return
	}
	fmt.Fprintf(out, "\n=== Search Results for '%s' ===\n", query)
	fmt.Fprintf(out, "Found %d model(s)\n\n", len(results))
	tbl := tablewriter.NewWriter(out)
	tbl.Header(modelHeader...)
	for _, m := range results {
		tbl.Append(modelRow(m))
	}
	_ = tbl.Render()
}

// infoData holds template data for Info view.
type infoData struct {
	Name, Provider, ParameterCount, Quantization, UseCase, Category string
	ContextLength, ArchBlock, WeightsBlock                          string
}

// Info prints single model detail: architecture, KV cache per token and weight size per format.
func Info(out io.Writer, m *models.LlmModel, table models.QuantTable, useJSON bool) {
	if useJSON {
		obj := modelJSON(m)
		weights := map[string]float64{}
		for _, q := range models.QuantHierarchy {
			if f, err := table.Lookup(q); err == nil {
				weights[string(q)] = round2(m.WeightsGB(f))
			}
		}
		obj["weights_gb"] = weights
		writeJSON(out, map[string]interface{}{"model": obj})
		return
	}
	data := infoData{
		Name:           m.Name,
		Provider:       m.Provider,
		ParameterCount: m.ParameterCount,
		Quantization:   m.Quantization,
		ContextLength:  humanize.Comma(int64(m.ContextLength)),
		UseCase:        m.UseCase,
		Category:       models.UseCaseFromModel(m).String(),
		ArchBlock:      buildInfoArchBlock(m),
		WeightsBlock:   buildInfoWeightsBlock(m, table),
	}
	_ = infoTpl.Execute(out, data)
}

func buildInfoArchBlock(m *models.LlmModel) string {
	a := m.Architecture
	field := func(label string, v *uint32) string {
		if v == nil {
			return fmt.Sprintf("  %s: unknown", label)
		}
		return fmt.Sprintf("  %s: %d", label, *v)
	}
	lines := []string{
		field("Layers", a.Layers),
		field("Attention Heads", a.Heads),
		field("KV Heads", a.EffectiveKVHeads()),
		field("Head Dim", a.HeadDim),
		field("Hidden Size", a.HiddenSize),
		field("Intermediate Size", a.IntermediateSize),
		"  KV Cache per Token: " + kvPerToken(m),
	}
	if !a.Complete() {
		lines = append(lines, "  Strict mode unavailable: architecture incomplete (use --strict=false)")
	}
	return strings.Join(lines, "\n")
}

func buildInfoWeightsBlock(m *models.LlmModel, table models.QuantTable) string {
	var lines []string
	for _, q := range models.QuantHierarchy {
		f, err := table.Lookup(q)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-5s %8.2f GB", q, m.WeightsGB(f)))
	}
	return strings.Join(lines, "\n")
}

// kvPerToken formats the KV cache bytes per token at the model's own precision.
func kvPerToken(m *models.LlmModel) string {
	q, err := m.DefaultQuant()
	if err != nil {
		return "-"
	}
	f, err := models.DefaultQuantTable().Lookup(q)
	if err != nil {
		return "-"
	}
	b, ok := m.Architecture.KVBytesPerToken(f.BytesPerParameter)
	if !ok {
		return "-"
	}
	return humanize.Bytes(uint64(b))
}

func modelsJSON(list []*models.LlmModel) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(list))
	for _, m := range list {
		out = append(out, modelJSON(m))
	}
	return out
}

func modelJSON(m *models.LlmModel) map[string]interface{} {
	obj := map[string]interface{}{
		"name":            m.Name,
		"provider":        m.Provider,
		"parameter_count": m.ParameterCount,
		"params_b":        round2(m.ParamsB()),
		"quantization":    m.Quantization,
		"context_length":  m.ContextLength,
		"use_case":        m.UseCase,
		"category":        models.UseCaseFromModel(m).String(),
		"architecture":    m.Architecture,
	}
	if q, err := m.DefaultQuant(); err == nil {
		if f, err := models.DefaultQuantTable().Lookup(q); err == nil {
			if b, ok := m.Architecture.KVBytesPerToken(f.BytesPerParameter); ok {
				obj["kv_bytes_per_token"] = b
			}
		}
	}
	return obj
}

func contextK(n uint32) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%dk", n/1000)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
