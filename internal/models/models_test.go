package models

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func u32(v uint32) *uint32 { return &v }

func TestParseQuantization(t *testing.T) {
	tests := []struct {
		in      string
		want    Quantization
		wantErr bool
	}{
		{"FP32", QuantFP32, false},
		{"f32", QuantFP32, false},
		{"FP16", QuantFP16, false},
		{"BF16", QuantFP16, false},
		{"bfloat16", QuantFP16, false},
		{"INT8", QuantINT8, false},
		{"Q8_0", QuantINT8, false},
		{"Q6_K", QuantINT8, false},
		{"Q5_K_M", QuantINT8, false},
		{"Q4_K_M", QuantINT4, false},
		{"awq", QuantINT4, false},
		{"Q2_K", QuantINT4, false},
		{" int4 ", QuantINT4, false},
		{"unknown", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseQuantization(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseQuantization(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseQuantization(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuantTable_Lookup(t *testing.T) {
	table := DefaultQuantTable()
	tests := []struct {
		q    Quantization
		bpp  float64
		mult float64
	}{
		{QuantFP32, 4, 0.5},
		{QuantFP16, 2, 1},
		{QuantINT8, 1, 2},
		{QuantINT4, 0.5, 4},
	}
	for _, tt := range tests {
		f, err := table.Lookup(tt.q)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", tt.q, err)
		}
		if f.BytesPerParameter != tt.bpp || f.ComputeMultiplier != tt.mult {
			t.Errorf("Lookup(%q) = %+v, want bpp %v mult %v", tt.q, f, tt.bpp, tt.mult)
		}
	}
	if _, err := table.Lookup("FP8"); err == nil {
		t.Error("Lookup(FP8) should fail")
	}
}

func TestDefaultQuantTable_IsCopy(t *testing.T) {
	a := DefaultQuantTable()
	delete(a, QuantINT4)
	if _, err := DefaultQuantTable().Lookup(QuantINT4); err != nil {
		t.Error("mutating one table must not affect the next")
	}
}

func TestQuantHierarchy_Order(t *testing.T) {
	table := DefaultQuantTable()
	for i := 1; i < len(QuantHierarchy); i++ {
		prev, _ := table.Lookup(QuantHierarchy[i-1])
		cur, _ := table.Lookup(QuantHierarchy[i])
		if cur.BytesPerParameter >= prev.BytesPerParameter {
			t.Errorf("%s should be smaller than %s", cur.Name, prev.Name)
		}
	}
}

func TestLlmModel_ParamsB(t *testing.T) {
	raw7B := uint64(7_000_000_000)
	raw1_5B := uint64(1_500_000_000)
	tests := []struct {
		name  string
		model *LlmModel
		wantB float64
	}{
		{"7B string", &LlmModel{ParameterCount: "7B"}, 7.0},
		{"70B string", &LlmModel{ParameterCount: "70B"}, 70.0},
		{"1.5B string", &LlmModel{ParameterCount: "1.5B"}, 1.5},
		{"600M string", &LlmModel{ParameterCount: "600M"}, 0.6},
		{"137M string", &LlmModel{ParameterCount: "137M"}, 0.137},
		{"ParametersRaw 7B", &LlmModel{ParametersRaw: &raw7B, ParameterCount: "?"}, 7.0},
		{"ParametersRaw 1.5B", &LlmModel{ParametersRaw: &raw1_5B}, 1.5},
		{"unknown", &LlmModel{ParameterCount: ""}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.model.ParamsB()
			if math.Abs(got-tt.wantB) > 0.01 {
				t.Errorf("ParamsB() = %v, want %v", got, tt.wantB)
			}
		})
	}
}

func TestLlmModel_DefaultQuant(t *testing.T) {
	if q, err := (&LlmModel{}).DefaultQuant(); err != nil || q != QuantFP16 {
		t.Errorf("empty quantization = %q, %v; want FP16", q, err)
	}
	if q, err := (&LlmModel{Quantization: "Q4_K_M"}).DefaultQuant(); err != nil || q != QuantINT4 {
		t.Errorf("Q4_K_M = %q, %v; want INT4", q, err)
	}
	if _, err := (&LlmModel{Name: "x", Quantization: "weird"}).DefaultQuant(); err == nil {
		t.Error("unknown quantization should fail")
	}
}

func TestLlmModel_WeightsGB(t *testing.T) {
	m := &LlmModel{ParameterCount: "7B"}
	table := DefaultQuantTable()
	if got := m.WeightsGB(table[QuantFP16]); math.Abs(got-14) > 1e-9 {
		t.Errorf("WeightsGB(FP16) = %v, want 14", got)
	}
	if got := m.WeightsGB(table[QuantINT4]); math.Abs(got-3.5) > 1e-9 {
		t.Errorf("WeightsGB(INT4) = %v, want 3.5", got)
	}
}

func TestArchitecture_EffectiveKVHeads(t *testing.T) {
	a := Architecture{Heads: u32(32)}
	if kv := a.EffectiveKVHeads(); kv == nil || *kv != 32 {
		t.Errorf("EffectiveKVHeads() = %v, want heads fallback 32", kv)
	}
	a.KVHeads = u32(8)
	if kv := a.EffectiveKVHeads(); *kv != 8 {
		t.Errorf("EffectiveKVHeads() = %d, want 8", *kv)
	}
	if (Architecture{}).EffectiveKVHeads() != nil {
		t.Error("empty architecture should have no KV heads")
	}
}

func TestArchitecture_KVBytesPerToken(t *testing.T) {
	a := Architecture{Layers: u32(32), Heads: u32(32), HeadDim: u32(128)}
	got, ok := a.KVBytesPerToken(2)
	if !ok || got != 524288 {
		t.Errorf("KVBytesPerToken(2) = %v, %v; want 524288", got, ok)
	}
	if _, ok := (Architecture{Layers: u32(32)}).KVBytesPerToken(2); ok {
		t.Error("missing head_dim should report false")
	}
}

func TestArchitecture_Complete(t *testing.T) {
	a := Architecture{Layers: u32(32), Heads: u32(32), HeadDim: u32(128), HiddenSize: u32(4096)}
	if a.Complete() {
		t.Error("missing intermediate_size should be incomplete")
	}
	a.IntermediateSize = u32(11008)
	if !a.Complete() {
		t.Error("all fields set should be complete")
	}
}

func TestUseCaseFromModel(t *testing.T) {
	tests := []struct {
		name string
		m    *LlmModel
		want UseCase
	}{
		{"embedding use_case", &LlmModel{Name: "x", UseCase: "Text embeddings for RAG"}, UseCaseEmbedding},
		{"embed in name", &LlmModel{Name: "my-embed-model", UseCase: ""}, UseCaseEmbedding},
		{"bge in name", &LlmModel{Name: "BAAI/bge-large", UseCase: ""}, UseCaseEmbedding},
		{"code in name", &LlmModel{Name: "starcoder-7b", UseCase: ""}, UseCaseCoding},
		{"code use_case", &LlmModel{Name: "x", UseCase: "code generation"}, UseCaseCoding},
		{"vision use_case", &LlmModel{Name: "x", UseCase: "vision"}, UseCaseMultimodal},
		{"reason use_case", &LlmModel{Name: "x", UseCase: "reasoning"}, UseCaseReasoning},
		{"deepseek-r1", &LlmModel{Name: "deepseek-r1-7b", UseCase: ""}, UseCaseReasoning},
		{"chat use_case", &LlmModel{Name: "x", UseCase: "chat"}, UseCaseChat},
		{"instruction", &LlmModel{Name: "x", UseCase: "instruction following"}, UseCaseChat},
		{"general", &LlmModel{Name: "llama-7b", UseCase: "text generation"}, UseCaseGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UseCaseFromModel(tt.m)
			if got != tt.want {
				t.Errorf("UseCaseFromModel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewDB(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	db, err := NewDB()
	if err != nil {
		t.Fatalf("NewDB() err = %v", err)
	}
	all := db.GetAllModels()
	if len(all) == 0 {
		t.Fatal("GetAllModels() returned empty")
	}
	for _, m := range all {
		if m.ParamsB() <= 0 {
			t.Errorf("%s: ParamsB() = %v", m.Name, m.ParamsB())
		}
		if _, err := m.DefaultQuant(); err != nil {
			t.Errorf("%s: %v", m.Name, err)
		}
	}
}

func TestNewDB_MergesCache(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	path, err := CachePath()
	if err != nil {
		t.Skipf("no config dir: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	overlay := `[{"name":"TinyLlama/TinyLlama-1.1B-Chat-v1.0","provider":"Override","parameter_count":"1.1B"},
		{"name":"org/new-model","provider":"Org","parameter_count":"3B"}]`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}
	db, err := NewDB()
	if err != nil {
		t.Fatalf("NewDB() err = %v", err)
	}
	tiny := db.FindModel("TinyLlama/TinyLlama-1.1B-Chat-v1.0")
	if len(tiny) != 1 || tiny[0].Provider != "Override" {
		t.Errorf("cache entry should replace embedded one, got %+v", tiny)
	}
	if len(db.FindModel("org/new-model")) != 1 {
		t.Error("cache-only entry should be appended")
	}
}

func TestMergeModels(t *testing.T) {
	base := []*LlmModel{{Name: "a", Provider: "1"}, {Name: "b", Provider: "1"}}
	overlay := []*LlmModel{{Name: "b", Provider: "2"}, {Name: "c", Provider: "2"}}
	got := mergeModels(base, overlay)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Name != "a" || got[1].Provider != "2" || got[2].Name != "c" {
		t.Errorf("merge order/overwrite wrong: %+v %+v %+v", got[0], got[1], got[2])
	}
}

func TestParseModelList_SkipsUnnamed(t *testing.T) {
	list, err := ParseModelList([]byte(`[{"name":"a"},{"name":""},null]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("len = %d, want 1", len(list))
	}
	if _, err := ParseModelList([]byte(`{`)); err == nil {
		t.Error("invalid JSON should fail")
	}
}

func TestModelDatabase_FindModel(t *testing.T) {
	db := NewDBFromModels([]*LlmModel{
		{Name: "meta-llama/Llama-3.1-8B-Instruct", Provider: "Meta", ParameterCount: "8B"},
		{Name: "meta-llama/Llama-3.1-8B", Provider: "Meta", ParameterCount: "8B"},
		{Name: "BAAI/bge-large-en-v1.5", Provider: "BAAI", ParameterCount: "335M"},
	})
	if got := db.FindModel("meta"); len(got) != 2 {
		t.Errorf("FindModel(meta) = %d results, want 2", len(got))
	}
	if got := db.FindModel("META-LLAMA/Llama-3.1-8B"); len(got) != 1 {
		t.Errorf("exact match should be returned alone, got %d", len(got))
	}
	if got := db.FindModel("335m"); len(got) != 1 {
		t.Errorf("FindModel(335m) = %d results, want 1", len(got))
	}
	if got := db.FindModel("nonexistent-model-xyz"); len(got) != 0 {
		t.Errorf("FindModel(nonexistent) = %d results", len(got))
	}
}

func TestFilterByUseCase(t *testing.T) {
	list := []*LlmModel{
		{Name: "org/coder-7b"},
		{Name: "BAAI/bge-small"},
		{Name: "org/llama"},
	}
	if got := FilterByUseCase(list, "coding"); len(got) != 1 || got[0].Name != "org/coder-7b" {
		t.Errorf("FilterByUseCase(coding) = %v", got)
	}
	if got := FilterByUseCase(list, "nope"); len(got) != 3 {
		t.Errorf("unknown use case should keep all, got %d", len(got))
	}
}

func TestUseCase_String(t *testing.T) {
	tests := []struct {
		u    UseCase
		want string
	}{
		{UseCaseGeneral, "General"},
		{UseCaseCoding, "Coding"},
		{UseCaseReasoning, "Reasoning"},
		{UseCaseChat, "Chat"},
		{UseCaseMultimodal, "Multimodal"},
		{UseCaseEmbedding, "Embedding"},
	}
	for _, tt := range tests {
		got := tt.u.String()
		if got != tt.want {
			t.Errorf("UseCase(%d).String() = %q, want %q", tt.u, got, tt.want)
		}
	}
}
