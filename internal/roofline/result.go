package roofline

// BoundType is the roofline classification of a workload.
type BoundType int

const (
	BoundCompute BoundType = iota
	BoundMemory
)

func (b BoundType) String() string {
	switch b {
	case BoundMemory:
		return "memory"
	default:
		return "compute"
	}
}

// MarshalText renders the bound by name.
func (b BoundType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// WarningKind identifies an advisory condition on a successful result.
type WarningKind int

const (
	WarnMemoryModerate WarningKind = iota
	WarnMemoryHigh
	WarnMemoryOverflow
	WarnLowThroughput
)

func (k WarningKind) String() string {
	switch k {
	case WarnMemoryModerate:
		return "memory-moderate"
	case WarnMemoryHigh:
		return "memory-high"
	case WarnMemoryOverflow:
		return "memory-overflow"
	case WarnLowThroughput:
		return "low-throughput"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name.
func (k WarningKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Warning is an advisory flag with a human-readable message.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// MemoryBreakdown itemizes the memory a workload occupies. Sizes are decimal GB.
type MemoryBreakdown struct {
	ModelSizeGB     float64 `json:"model_size_gb"`
	KVPerTokenBytes float64 `json:"kv_per_token_bytes"`
	KVCacheGB       float64 `json:"kv_cache_gb"`
	ActivationGB    float64 `json:"activation_gb"`
	OverheadGB      float64 `json:"overhead_gb"`
	TotalGB         float64 `json:"total_gb"`
	CapacityGB      float64 `json:"capacity_gb"`
	SequenceTokens  uint32  `json:"sequence_tokens"`
}

// Result is a fully derived evaluation. It is never returned partially populated.
type Result struct {
	OpsToByteRatio       float64         `json:"ops_to_byte_ratio"`
	ArithmeticIntensity  float64         `json:"arithmetic_intensity"`
	Bound                BoundType       `json:"bound"`
	PrefillMs            float64         `json:"prefill_ms"`
	PerTokenMs           float64         `json:"per_token_ms"`
	TotalMs              float64         `json:"total_ms"`
	ThroughputTPS        float64         `json:"throughput_tps"`
	Memory               MemoryBreakdown `json:"memory"`
	MemoryUtilizationPct float64         `json:"memory_utilization_pct"`
	RawUtilizationPct    float64         `json:"raw_memory_utilization_pct"`
	MaxBatchSize         uint64          `json:"max_batch_size"`
	MaxKVCacheTokens     uint64          `json:"max_kv_cache_tokens"`
	MemoryWarning        *Warning        `json:"memory_warning,omitempty"`
	PerformanceWarning   *Warning        `json:"performance_warning,omitempty"`
}

// IsMemoryBound reports whether intensity is below the hardware ops-to-byte ratio.
func (r *Result) IsMemoryBound() bool { return r.Bound == BoundMemory }

// IsComputeBound is the exact complement of IsMemoryBound.
func (r *Result) IsComputeBound() bool { return r.Bound == BoundCompute }

// Fits reports whether total memory is within capacity.
func (r *Result) Fits() bool { return r.Memory.TotalGB <= r.Memory.CapacityGB }

