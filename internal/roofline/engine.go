package roofline

import (
	"fmt"
	"math"

	"github.com/shayne-snap/llmroof/internal/hardware"
	"github.com/shayne-snap/llmroof/internal/models"
)

// Engine evaluates workloads under a fixed policy. It holds no mutable state.
type Engine struct {
	quants models.QuantTable
	opts   Options
}

// New builds an engine. A nil table uses models.DefaultQuantTable.
func New(table models.QuantTable, opts Options) (*Engine, error) {
	if table == nil {
		table = models.DefaultQuantTable()
	}
	switch opts.KVBasis {
	case KVBasisActualTokens, KVBasisContextLength:
	default:
		return nil, fmt.Errorf("unknown kv-cache basis %d", opts.KVBasis)
	}
	return &Engine{quants: table, opts: opts}, nil
}

// Options returns the policy the engine was built with.
func (e *Engine) Options() Options { return e.opts }

// Quant returns the quantization table the engine evaluates with.
func (e *Engine) Quant(q models.Quantization) (models.QuantFormat, error) {
	return e.quants.Lookup(q)
}

// Evaluate runs memory, roofline and latency for one workload on one accelerator.
// A nil overhead means 100% efficiency. On error no result is returned.
func (e *Engine) Evaluate(acc hardware.Accelerator, spec ModelSpec, overhead *Overhead) (*Result, error) {
	r, err := e.evaluate(acc, spec, overhead.orDefault())
	if err != nil {
		return nil, fmt.Errorf("evaluate %s on %s: %w", spec.Name, acc.Name, err)
	}
	return r, nil
}

func (e *Engine) evaluate(acc hardware.Accelerator, spec ModelSpec, o Overhead) (*Result, error) {
	if err := validateInputs(acc, spec, o); err != nil {
		return nil, err
	}
	q, err := e.quants.Lookup(spec.Quantization)
	if err != nil {
		return nil, &InvalidInputError{Field: "quantization", Stage: StageInput, Reason: err.Error()}
	}
	a, err := e.resolveArch(spec.Arch)
	if err != nil {
		return nil, err
	}

	flops, bw := acc.FLOPs(), acc.BandwidthBps()
	mem := e.memory(spec, a, q, acc.CapacityBytes())
	ratio := OpsToByteRatio(flops, bw, q.ComputeMultiplier)
	intensity := ArithmeticIntensity(float64(spec.ContextLength), a.headDim, q.BytesPerParameter, float64(spec.BatchSize))
	lat := latency(spec, mem.modelBytes, flops, bw, q.ComputeMultiplier, o)

	for _, v := range []struct {
		name string
		x    float64
	}{{"prefill_ms", lat.PrefillMs}, {"per_token_ms", lat.PerTokenMs}, {"total_ms", lat.TotalMs}} {
		if !finite(v.x) {
			return nil, &InvalidInputError{Field: v.name, Stage: StageLatency, Reason: "computed value is not finite"}
		}
	}

	return &Result{
		OpsToByteRatio:       ratio,
		ArithmeticIntensity:  intensity,
		Bound:                ClassifyBound(intensity, ratio),
		PrefillMs:            lat.PrefillMs,
		PerTokenMs:           lat.PerTokenMs,
		TotalMs:              lat.TotalMs,
		ThroughputTPS:        lat.ThroughputTPS,
		Memory:               mem.breakdown,
		MemoryUtilizationPct: math.Min(utilizationPct(mem.totalBytes, mem.capacityBytes), UtilizationDisplayCap),
		RawUtilizationPct:    utilizationPct(mem.totalBytes, mem.capacityBytes),
		MaxBatchSize:         mem.maxBatchSize,
		MaxKVCacheTokens:     mem.maxKVCacheTokens,
		MemoryWarning:        memoryWarning(mem.totalBytes, mem.capacityBytes),
		PerformanceWarning:   performanceWarning(lat.ThroughputTPS),
	}, nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func positive(field string, x float64) error {
	if !finite(x) || x <= 0 {
		return &InvalidInputError{Field: field, Stage: StageInput, Reason: fmt.Sprintf("must be a positive number, got %v", x)}
	}
	return nil
}

func validateInputs(acc hardware.Accelerator, spec ModelSpec, o Overhead) error {
	checks := []struct {
		field string
		x     float64
	}{
		{"accelerator compute_tflops", acc.ComputeTFLOPS},
		{"accelerator memory_bandwidth_gbps", acc.MemoryBandwidthGBps},
		{"accelerator memory_gb", acc.MemoryGB},
		{"parameter count", spec.ParamsB},
		{"context length", float64(spec.ContextLength)},
		{"batch size", float64(spec.BatchSize)},
	}
	for _, c := range checks {
		if err := positive(c.field, c.x); err != nil {
			return err
		}
	}
	return o.Validate()
}
