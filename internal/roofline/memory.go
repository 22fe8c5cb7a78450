package roofline

import (
	"fmt"
	"math"

	"github.com/shayne-snap/llmroof/internal/models"
)

const (
	bytesPerGB = 1e9
	// runtimeOverheadBytes covers CUDA context, allocator slack and framework buffers.
	runtimeOverheadBytes = 1e9
	// UtilizationDisplayCap bounds MemoryUtilizationPct; comparisons use the raw value.
	UtilizationDisplayCap = 999
)

// arch is the resolved architecture: every field a stage reads is present.
type arch struct {
	headDim      float64
	layers       float64
	kvHeads      float64
	hidden       float64
	intermediate float64
}

// resolveArch applies the policy: strict reports the first missing field, lenient substitutes defaults.
func (e *Engine) resolveArch(a models.Architecture) (arch, error) {
	var r arch
	kv := a.EffectiveKVHeads()
	if !e.opts.StrictArchitecture {
		r.headDim = float64(deref(a.HeadDim, DefaultHeadDim))
		r.layers = float64(deref(a.Layers, DefaultLayers))
		r.kvHeads = float64(deref(kv, DefaultHeads))
		return r, nil
	}
	required := []struct {
		v     *uint32
		field string
		stage string
	}{
		{a.Layers, "num_layers", StageKVCache},
		{kv, "num_kv_heads (or num_heads)", StageKVCache},
		{a.HeadDim, "head_dim", StageKVCache},
		{a.HiddenSize, "hidden_size", StageActivation},
		{a.IntermediateSize, "intermediate_size", StageActivation},
	}
	for _, f := range required {
		if f.v == nil {
			return arch{}, &MissingFieldError{Field: f.field, Stage: f.stage}
		}
		if *f.v == 0 {
			return arch{}, &InvalidInputError{Field: f.field, Stage: f.stage, Reason: "must be positive"}
		}
	}
	r.layers = float64(*a.Layers)
	r.kvHeads = float64(*kv)
	r.headDim = float64(*a.HeadDim)
	r.hidden = float64(*a.HiddenSize)
	r.intermediate = float64(*a.IntermediateSize)
	return r, nil
}

func deref(p *uint32, def uint32) uint32 {
	if p == nil || *p == 0 {
		return def
	}
	return *p
}

type memoryFigures struct {
	breakdown        MemoryBreakdown
	modelBytes       float64
	totalBytes       float64
	capacityBytes    float64
	maxKVCacheTokens uint64
	maxBatchSize     uint64
}

// memory sizes weights, KV cache, activations and overhead, and derives the KV headroom.
func (e *Engine) memory(spec ModelSpec, a arch, q models.QuantFormat, capacity float64) memoryFigures {
	modelBytes := spec.ParamsB * 1e9 * q.BytesPerParameter
	kvPerToken := 2 * a.layers * a.kvHeads * a.headDim * q.BytesPerParameter

	actual := spec.PromptTokens + spec.OutputTokens
	seq := actual
	if e.opts.KVBasis == KVBasisContextLength {
		seq = spec.ContextLength
	}
	batch := float64(spec.BatchSize)
	kvBytes := kvPerToken * float64(seq) * batch

	var activation, overhead float64
	if e.opts.StrictArchitecture {
		activation = batch * float64(actual) * (18*a.hidden + 4*a.intermediate)
		overhead = runtimeOverheadBytes
	}
	fixed := modelBytes + overhead + activation
	total := fixed + kvBytes

	free := math.Max(0, capacity-fixed)
	var maxKV, maxBatch uint64
	if kvPerToken > 0 {
		maxKV = uint64(math.Floor(free / kvPerToken))
	}
	if seq > 0 {
		maxBatch = maxKV / uint64(seq)
	}
	return memoryFigures{
		breakdown: MemoryBreakdown{
			ModelSizeGB:     modelBytes / bytesPerGB,
			KVPerTokenBytes: kvPerToken,
			KVCacheGB:       kvBytes / bytesPerGB,
			ActivationGB:    activation / bytesPerGB,
			OverheadGB:      overhead / bytesPerGB,
			TotalGB:         total / bytesPerGB,
			CapacityGB:      capacity / bytesPerGB,
			SequenceTokens:  seq,
		},
		modelBytes:       modelBytes,
		totalBytes:       total,
		capacityBytes:    capacity,
		maxKVCacheTokens: maxKV,
		maxBatchSize:     maxBatch,
	}
}

func utilizationPct(total, capacity float64) float64 {
	if capacity <= 0 {
		return math.Inf(1)
	}
	return 100 * total / capacity
}

// memoryWarning applies the precedence overflow > high (>90%) > moderate (>80%).
func memoryWarning(total, capacity float64) *Warning {
	util := utilizationPct(total, capacity)
	switch {
	case total > capacity:
		short := (total - capacity) / bytesPerGB
		return &Warning{Kind: WarnMemoryOverflow, Message: fmt.Sprintf(
			"Requires %.1f GB but only %.1f GB is available (short by %.1f GB). Use a smaller quantization, reduce batch size or context, or pick an accelerator with more memory.",
			total/bytesPerGB, capacity/bytesPerGB, short)}
	case util > 90:
		return &Warning{Kind: WarnMemoryHigh, Message: fmt.Sprintf(
			"High memory usage (%.0f%%): little headroom for longer sequences or larger batches.", util)}
	case util > 80:
		return &Warning{Kind: WarnMemoryModerate, Message: fmt.Sprintf(
			"Moderate memory usage (%.0f%%): leave headroom for peak activations.", util)}
	}
	return nil
}
