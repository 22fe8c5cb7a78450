package roofline

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"k8s.io/utils/ptr"

	"github.com/shayne-snap/llmroof/internal/hardware"
	"github.com/shayne-snap/llmroof/internal/models"
)

func testAccelerator(memGB float64) hardware.Accelerator {
	return hardware.Accelerator{Name: "Test Accelerator", Vendor: "Test", ComputeTFLOPS: 1000, MemoryBandwidthGBps: 3000, MemoryGB: memGB}
}

func llama7BArch() models.Architecture {
	return models.Architecture{
		HeadDim:          ptr.To[uint32](128),
		Layers:           ptr.To[uint32](32),
		Heads:            ptr.To[uint32](32),
		HiddenSize:       ptr.To[uint32](4096),
		IntermediateSize: ptr.To[uint32](11008),
	}
}

func spec7B() ModelSpec {
	return ModelSpec{
		Name:          "test-7b",
		ParamsB:       7,
		ContextLength: 4096,
		BatchSize:     1,
		PromptTokens:  350,
		OutputTokens:  150,
		Quantization:  models.QuantFP16,
		Arch:          llama7BArch(),
	}
}

func mustEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := New(nil, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestEvaluate_Reference7B(t *testing.T) {
	e := mustEngine(t, DefaultOptions())
	r, err := e.Evaluate(testAccelerator(80), spec7B(), nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	checks := []struct {
		name      string
		got, want float64
		tol       float64
	}{
		{"ModelSizeGB", r.Memory.ModelSizeGB, 14, 1e-9},
		{"OpsToByteRatio", r.OpsToByteRatio, 1000.0 / 3, 1e-9},
		{"ArithmeticIntensity", r.ArithmeticIntensity, 4096.0 * 515 / (8 * 4224), 1e-9},
		{"KVPerTokenBytes", r.Memory.KVPerTokenBytes, 524288, 0},
		{"KVCacheGB", r.Memory.KVCacheGB, 0.262144, 1e-12},
		{"ActivationGB", r.Memory.ActivationGB, 0.05888, 1e-12},
		{"OverheadGB", r.Memory.OverheadGB, 1, 0},
		{"TotalGB", r.Memory.TotalGB, 15.321024, 1e-9},
		{"MemoryUtilizationPct", r.MemoryUtilizationPct, 19.15128, 1e-9},
		{"PrefillMs", r.PrefillMs, 4.9, 1e-9},
		{"PerTokenMs", r.PerTokenMs, 14.0 / 3, 1e-9},
		{"TotalMs", r.TotalMs, 704.9, 1e-9},
		{"ThroughputTPS", r.ThroughputTPS, 500 / 704.9 * 1000, 1e-6},
	}
	for _, c := range checks {
		if !approx(c.got, c.want, c.tol) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if r.Bound != BoundMemory || !r.IsMemoryBound() || r.IsComputeBound() {
		t.Errorf("Bound = %v, want memory (intensity %.2f < ratio %.2f)", r.Bound, r.ArithmeticIntensity, r.OpsToByteRatio)
	}
	if r.MaxKVCacheTokens != 123865 {
		t.Errorf("MaxKVCacheTokens = %d, want 123865", r.MaxKVCacheTokens)
	}
	if r.MaxBatchSize != 247 {
		t.Errorf("MaxBatchSize = %d, want 247", r.MaxBatchSize)
	}
	if r.MemoryWarning != nil || r.PerformanceWarning != nil {
		t.Errorf("unexpected warnings: %+v %+v", r.MemoryWarning, r.PerformanceWarning)
	}
	if !r.Fits() {
		t.Error("Fits() = false, want true")
	}
}

func TestEvaluate_OverflowShortfall(t *testing.T) {
	e := mustEngine(t, Options{StrictArchitecture: false, KVBasis: KVBasisActualTokens})
	s := spec7B()
	s.Arch = models.Architecture{}
	r, err := e.Evaluate(testAccelerator(8), s, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.MemoryWarning == nil || r.MemoryWarning.Kind != WarnMemoryOverflow {
		t.Fatalf("MemoryWarning = %+v, want overflow", r.MemoryWarning)
	}
	if !strings.Contains(r.MemoryWarning.Message, "short by 6.3 GB") {
		t.Errorf("message %q does not state the shortfall", r.MemoryWarning.Message)
	}
	if r.Fits() {
		t.Error("Fits() = true for an overflowing workload")
	}
	if r.MaxBatchSize != 0 || r.MaxKVCacheTokens != 0 {
		t.Errorf("MaxBatchSize, MaxKVCacheTokens = %d, %d, want 0, 0", r.MaxBatchSize, r.MaxKVCacheTokens)
	}
	if r.Memory.ActivationGB != 0 || r.Memory.OverheadGB != 0 {
		t.Errorf("lenient mode counted activation %v / overhead %v", r.Memory.ActivationGB, r.Memory.OverheadGB)
	}
}

func TestEvaluate_MemoryWarningPrecedence(t *testing.T) {
	// lenient 7B FP16 totals 14.262144 GB
	tests := []struct {
		capacityGB float64
		want       *WarningKind
	}{
		{1, ptr.To(WarnMemoryOverflow)},
		{14, ptr.To(WarnMemoryOverflow)},
		{15, ptr.To(WarnMemoryHigh)},
		{17, ptr.To(WarnMemoryModerate)},
		{20, nil},
	}
	e := mustEngine(t, Options{KVBasis: KVBasisActualTokens})
	for _, tt := range tests {
		r, err := e.Evaluate(testAccelerator(tt.capacityGB), spec7B(), nil)
		if err != nil {
			t.Fatalf("Evaluate(%v GB): %v", tt.capacityGB, err)
		}
		switch {
		case tt.want == nil && r.MemoryWarning != nil:
			t.Errorf("%v GB: MemoryWarning = %v, want none", tt.capacityGB, r.MemoryWarning.Kind)
		case tt.want != nil && (r.MemoryWarning == nil || r.MemoryWarning.Kind != *tt.want):
			t.Errorf("%v GB: MemoryWarning = %+v, want %v", tt.capacityGB, r.MemoryWarning, *tt.want)
		}
	}
}

func TestEvaluate_UtilizationDisplayCap(t *testing.T) {
	e := mustEngine(t, Options{KVBasis: KVBasisActualTokens})
	r, err := e.Evaluate(testAccelerator(1), spec7B(), nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.MemoryUtilizationPct != UtilizationDisplayCap {
		t.Errorf("MemoryUtilizationPct = %v, want %v", r.MemoryUtilizationPct, UtilizationDisplayCap)
	}
	if !approx(r.RawUtilizationPct, 1426.2144, 1e-6) {
		t.Errorf("RawUtilizationPct = %v, want 1426.2144", r.RawUtilizationPct)
	}

	body, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded struct {
		Capped float64 `json:"memory_utilization_pct"`
		Raw    float64 `json:"raw_memory_utilization_pct"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Capped != UtilizationDisplayCap || !approx(decoded.Raw, 1426.2144, 1e-6) {
		t.Errorf("JSON utilization = %v capped, %v raw", decoded.Capped, decoded.Raw)
	}
}

func TestEvaluate_ContextLengthBasis(t *testing.T) {
	e := mustEngine(t, Options{StrictArchitecture: true, KVBasis: KVBasisContextLength})
	r, err := e.Evaluate(testAccelerator(80), spec7B(), nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !approx(r.Memory.KVCacheGB, 524288*4096/1e9, 1e-12) {
		t.Errorf("KVCacheGB = %v, want %v", r.Memory.KVCacheGB, 524288*4096/1e9)
	}
	if r.Memory.SequenceTokens != 4096 {
		t.Errorf("SequenceTokens = %d, want 4096", r.Memory.SequenceTokens)
	}
	if r.MaxBatchSize != 30 {
		t.Errorf("MaxBatchSize = %d, want 30", r.MaxBatchSize)
	}
	// activation still follows actual tokens
	if !approx(r.Memory.ActivationGB, 0.05888, 1e-12) {
		t.Errorf("ActivationGB = %v, want 0.05888", r.Memory.ActivationGB)
	}
}

func TestEvaluate_GroupedQueryAttention(t *testing.T) {
	e := mustEngine(t, DefaultOptions())
	s := spec7B()
	s.Arch.KVHeads = ptr.To[uint32](8)
	r, err := e.Evaluate(testAccelerator(80), s, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.Memory.KVPerTokenBytes != 524288/4 {
		t.Errorf("KVPerTokenBytes = %v, want %v", r.Memory.KVPerTokenBytes, 524288/4)
	}
}

func TestEvaluate_StrictMissingFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.Architecture)
		wantField string
		wantStage string
	}{
		{"no architecture", func(a *models.Architecture) { *a = models.Architecture{} }, "num_layers", StageKVCache},
		{"no heads", func(a *models.Architecture) { a.Heads = nil }, "num_kv_heads (or num_heads)", StageKVCache},
		{"no head_dim", func(a *models.Architecture) { a.HeadDim = nil }, "head_dim", StageKVCache},
		{"no hidden", func(a *models.Architecture) { a.HiddenSize = nil }, "hidden_size", StageActivation},
		{"no intermediate", func(a *models.Architecture) { a.IntermediateSize = nil }, "intermediate_size", StageActivation},
	}
	e := mustEngine(t, DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := spec7B()
			tt.mutate(&s.Arch)
			r, err := e.Evaluate(testAccelerator(80), s, nil)
			if r != nil {
				t.Fatalf("Evaluate returned a result alongside error %v", err)
			}
			if !errors.Is(err, ErrMissingArchitecture) {
				t.Fatalf("err = %v, want ErrMissingArchitecture", err)
			}
			var mf *MissingFieldError
			if !errors.As(err, &mf) || mf.Field != tt.wantField || mf.Stage != tt.wantStage {
				t.Errorf("MissingFieldError = %+v, want field %q stage %q", mf, tt.wantField, tt.wantStage)
			}
			if !strings.HasPrefix(err.Error(), "evaluate test-7b on Test Accelerator: ") {
				t.Errorf("err = %q, want engine context prefix", err)
			}
		})
	}
}

func TestEvaluate_LenientDefaults(t *testing.T) {
	e := mustEngine(t, Options{KVBasis: KVBasisActualTokens})
	s := spec7B()
	s.Arch = models.Architecture{Layers: ptr.To[uint32](16)}
	r, err := e.Evaluate(testAccelerator(80), s, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// 2 × 16 layers × 32 default heads × 128 default head_dim × 2 bytes
	if r.Memory.KVPerTokenBytes != 262144 {
		t.Errorf("KVPerTokenBytes = %v, want 262144", r.Memory.KVPerTokenBytes)
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		acc      hardware.Accelerator
		mutate   func(*ModelSpec)
		overhead *Overhead
		field    string
	}{
		{"zero batch", testAccelerator(80), func(s *ModelSpec) { s.BatchSize = 0 }, nil, "batch size"},
		{"zero params", testAccelerator(80), func(s *ModelSpec) { s.ParamsB = 0 }, nil, "parameter count"},
		{"NaN params", testAccelerator(80), func(s *ModelSpec) { s.ParamsB = math.NaN() }, nil, "parameter count"},
		{"zero context", testAccelerator(80), func(s *ModelSpec) { s.ContextLength = 0 }, nil, "context length"},
		{"zero bandwidth", hardware.Accelerator{Name: "x", ComputeTFLOPS: 1, MemoryGB: 1}, func(*ModelSpec) {}, nil, "accelerator memory_bandwidth_gbps"},
		{"unknown quant", testAccelerator(80), func(s *ModelSpec) { s.Quantization = "FP8" }, nil, "quantization"},
		{"efficiency too low", testAccelerator(80), func(*ModelSpec) {}, SystemEfficiency(0), "prefill efficiency"},
		{"efficiency too high", testAccelerator(80), func(*ModelSpec) {}, &Overhead{PrefillPct: 100, DecodePct: 201}, "decode efficiency"},
	}
	e := mustEngine(t, DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := spec7B()
			tt.mutate(&s)
			r, err := e.Evaluate(tt.acc, s, tt.overhead)
			if r != nil || !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Evaluate = %v, %v; want nil, ErrInvalidInput", r, err)
			}
			var ie *InvalidInputError
			if !errors.As(err, &ie) || ie.Field != tt.field {
				t.Errorf("InvalidInputError = %+v, want field %q", ie, tt.field)
			}
		})
	}
}

func TestEvaluate_ZeroTimeThroughput(t *testing.T) {
	e := mustEngine(t, DefaultOptions())
	s := spec7B()
	s.PromptTokens, s.OutputTokens = 0, 0
	r, err := e.Evaluate(testAccelerator(80), s, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.TotalMs != 0 || r.ThroughputTPS != 0 {
		t.Errorf("TotalMs, ThroughputTPS = %v, %v; want 0, 0", r.TotalMs, r.ThroughputTPS)
	}
	if r.MaxBatchSize != 0 {
		t.Errorf("MaxBatchSize = %d, want 0 for an empty sequence", r.MaxBatchSize)
	}
}

func TestEvaluate_LowThroughputWarning(t *testing.T) {
	e := mustEngine(t, DefaultOptions())
	slow := hardware.Accelerator{Name: "slow", ComputeTFLOPS: 1, MemoryBandwidthGBps: 10, MemoryGB: 80}
	r, err := e.Evaluate(slow, spec7B(), nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.ThroughputTPS >= LowThroughputTPS {
		t.Fatalf("ThroughputTPS = %v, expected below %v", r.ThroughputTPS, LowThroughputTPS)
	}
	if r.PerformanceWarning == nil || r.PerformanceWarning.Kind != WarnLowThroughput {
		t.Errorf("PerformanceWarning = %+v, want low-throughput", r.PerformanceWarning)
	}
}

func TestEvaluate_EfficiencyDerating(t *testing.T) {
	e := mustEngine(t, DefaultOptions())
	base, err := e.Evaluate(testAccelerator(80), spec7B(), nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	full, _ := e.Evaluate(testAccelerator(80), spec7B(), SystemEfficiency(100))
	if full.PrefillMs != base.PrefillMs || full.PerTokenMs != base.PerTokenMs {
		t.Errorf("100%% efficiency changed latency: %v/%v vs %v/%v", full.PrefillMs, full.PerTokenMs, base.PrefillMs, base.PerTokenMs)
	}
	prev := 0.0
	for pct := 200.0; pct >= 1; pct -= 7 {
		r, err := e.Evaluate(testAccelerator(80), spec7B(), SystemEfficiency(pct))
		if err != nil {
			t.Fatalf("Evaluate(%v%%): %v", pct, err)
		}
		if r.TotalMs < prev {
			t.Errorf("TotalMs at %v%% = %v, less than %v at higher efficiency", pct, r.TotalMs, prev)
		}
		prev = r.TotalMs
	}
	half, _ := e.Evaluate(testAccelerator(80), spec7B(), &Overhead{PrefillPct: 50, DecodePct: 100})
	if !approx(half.PrefillMs, 2*base.PrefillMs, 1e-12) || half.PerTokenMs != base.PerTokenMs {
		t.Errorf("prefill-only derating: prefill %v per-token %v", half.PrefillMs, half.PerTokenMs)
	}
}

func TestOverheadValidate(t *testing.T) {
	tests := []struct {
		name    string
		o       Overhead
		wantErr bool
	}{
		{"bounds", Overhead{PrefillPct: 1, DecodePct: 200}, false},
		{"negative prefill", Overhead{PrefillPct: -40, DecodePct: 100}, true},
		{"zero decode", Overhead{PrefillPct: 100, DecodePct: 0}, true},
		{"above range", Overhead{PrefillPct: 500, DecodePct: 100}, true},
		{"nan", Overhead{PrefillPct: 100, DecodePct: math.NaN()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.o.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%+v) = %v, wantErr %v", tt.o, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error %v should match ErrInvalidInput", err)
			}
		})
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := mustEngine(t, DefaultOptions())
	a, err := e.Evaluate(testAccelerator(8), spec7B(), SystemEfficiency(85))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	b, _ := e.Evaluate(testAccelerator(8), spec7B(), SystemEfficiency(85))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("second evaluation differs (-first +second):\n%s", diff)
	}
}

func TestEvaluate_ModelSizeLinear(t *testing.T) {
	e := mustEngine(t, Options{KVBasis: KVBasisActualTokens})
	table := models.DefaultQuantTable()
	for _, q := range models.QuantHierarchy {
		for _, p := range []float64{1, 7, 70} {
			s := spec7B()
			s.ParamsB, s.Quantization = p, q
			r, err := e.Evaluate(testAccelerator(1000), s, nil)
			if err != nil {
				t.Fatalf("Evaluate(%v, %vB): %v", q, p, err)
			}
			want := p * table[q].BytesPerParameter
			if !approx(r.Memory.ModelSizeGB, want, 1e-9) {
				t.Errorf("ModelSizeGB(%v, %vB) = %v, want %v", q, p, r.Memory.ModelSizeGB, want)
			}
		}
	}
}

func TestNew_RejectsUnknownBasis(t *testing.T) {
	if _, err := New(nil, Options{KVBasis: KVCacheBasis(9)}); err == nil {
		t.Error("New accepted an unknown kv-cache basis")
	}
}
