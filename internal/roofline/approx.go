package roofline

import (
	"fmt"
	"math"

	"github.com/shayne-snap/llmroof/internal/hardware"
)

// Estimate is a weights-only approximation: no KV cache, activations or attention terms.
// It is produced only on request and always carries Approximate=true.
type Estimate struct {
	Approximate          bool    `json:"approximate"`
	ModelSizeGB          float64 `json:"model_size_gb"`
	MemoryUtilizationPct float64 `json:"memory_utilization_pct"`
	RawUtilizationPct    float64 `json:"raw_memory_utilization_pct"`
	PerTokenMs           float64 `json:"per_token_ms"`
	ThroughputTPS        float64 `json:"throughput_tps"`
}

// Fits reports whether the weights alone fit; a fitting estimate can still overflow in practice.
func (e *Estimate) Fits() bool { return e.RawUtilizationPct <= 100 }

// Approximate sizes weights and decode speed from parameter count and quantization only.
// It needs no architecture fields, so it serves models the precise path rejects.
func (e *Engine) Approximate(acc hardware.Accelerator, spec ModelSpec, overhead *Overhead) (*Estimate, error) {
	o := overhead.orDefault()
	est, err := e.approximate(acc, spec, o)
	if err != nil {
		return nil, fmt.Errorf("approximate %s on %s: %w", spec.Name, acc.Name, err)
	}
	return est, nil
}

func (e *Engine) approximate(acc hardware.Accelerator, spec ModelSpec, o Overhead) (*Estimate, error) {
	for _, c := range []struct {
		field string
		x     float64
	}{
		{"accelerator memory_bandwidth_gbps", acc.MemoryBandwidthGBps},
		{"accelerator memory_gb", acc.MemoryGB},
		{"parameter count", spec.ParamsB},
		{"decode efficiency", o.DecodePct},
	} {
		if err := positive(c.field, c.x); err != nil {
			return nil, err
		}
	}
	q, err := e.quants.Lookup(spec.Quantization)
	if err != nil {
		return nil, &InvalidInputError{Field: "quantization", Stage: StageInput, Reason: err.Error()}
	}
	modelBytes := spec.ParamsB * 1e9 * q.BytesPerParameter
	perToken := Derate(DecodeBaseMs(modelBytes, acc.BandwidthBps()), o.DecodePct)
	return &Estimate{
		Approximate:          true,
		ModelSizeGB:          modelBytes / bytesPerGB,
		MemoryUtilizationPct: math.Min(utilizationPct(modelBytes, acc.CapacityBytes()), UtilizationDisplayCap),
		RawUtilizationPct:    utilizationPct(modelBytes, acc.CapacityBytes()),
		PerTokenMs:           perToken,
		ThroughputTPS:        Throughput(1, perToken),
	}, nil
}
