package roofline

import (
	"fmt"

	"github.com/shayne-snap/llmroof/internal/models"
)

// ModelSpec is one workload: a model shape plus the request being served.
type ModelSpec struct {
	Name          string              `json:"name"`
	ParamsB       float64             `json:"params_b"`
	ContextLength uint32              `json:"context_length"`
	BatchSize     uint32              `json:"batch_size"`
	PromptTokens  uint32              `json:"prompt_tokens"`
	OutputTokens  uint32              `json:"output_tokens"`
	Quantization  models.Quantization `json:"quantization"`
	Arch          models.Architecture `json:"architecture"`
}

// Overhead derates the theoretical latencies. Percentages run 1–200; above 100 models kernels
// that beat the baseline.
type Overhead struct {
	PrefillPct float64 `json:"prefill_pct" yaml:"prefill_pct"`
	DecodePct  float64 `json:"decode_pct" yaml:"decode_pct"`
}

// SystemEfficiency applies one percentage to both prefill and decode.
func SystemEfficiency(pct float64) *Overhead {
	return &Overhead{PrefillPct: pct, DecodePct: pct}
}

// Validate rejects a phase efficiency outside 1..200 percent.
func (o Overhead) Validate() error {
	for _, p := range []struct {
		field string
		pct   float64
	}{{"prefill efficiency", o.PrefillPct}, {"decode efficiency", o.DecodePct}} {
		if !finite(p.pct) || p.pct < 1 || p.pct > 200 {
			return &InvalidInputError{Field: p.field, Stage: StageInput, Reason: fmt.Sprintf("must be between 1 and 200 percent, got %v", p.pct)}
		}
	}
	return nil
}

func (o *Overhead) orDefault() Overhead {
	if o == nil {
		return Overhead{PrefillPct: 100, DecodePct: 100}
	}
	return *o
}

// Workload is the request side of a ModelSpec, combined with a catalog model by SpecFor.
type Workload struct {
	Quantization  models.Quantization `json:"quantization,omitempty" yaml:"quantization,omitempty"`
	ContextLength uint32              `json:"context_length,omitempty" yaml:"context_length,omitempty"`
	BatchSize     uint32              `json:"batch_size" yaml:"batch_size"`
	PromptTokens  uint32              `json:"prompt_tokens" yaml:"prompt_tokens"`
	OutputTokens  uint32              `json:"output_tokens" yaml:"output_tokens"`
}

// DefaultWorkload is a single chat request: 350 prompt tokens, 150 output tokens, batch 1.
func DefaultWorkload() Workload {
	return Workload{BatchSize: 1, PromptTokens: 350, OutputTokens: 150}
}

// DefaultContextLength caps the attention window used when the workload does not set one.
const DefaultContextLength = 4096

// SpecFor builds a ModelSpec from a catalog model. An empty quantization uses the model's own;
// a zero context length uses min(4096, model context).
func SpecFor(m *models.LlmModel, w Workload) (ModelSpec, error) {
	q := w.Quantization
	if q == "" {
		var err error
		if q, err = m.DefaultQuant(); err != nil {
			return ModelSpec{}, err
		}
	}
	ctx := w.ContextLength
	if ctx == 0 {
		ctx = DefaultContextLength
		if m.ContextLength > 0 && m.ContextLength < ctx {
			ctx = m.ContextLength
		}
	}
	return ModelSpec{
		Name:          m.Name,
		ParamsB:       m.ParamsB(),
		ContextLength: ctx,
		BatchSize:     w.BatchSize,
		PromptTokens:  w.PromptTokens,
		OutputTokens:  w.OutputTokens,
		Quantization:  q,
		Arch:          m.Architecture,
	}, nil
}
