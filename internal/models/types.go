package models

import (
	"fmt"
	"strconv"
	"strings"
)

// UseCase is the model use case (general, coding, reasoning, chat, etc.).
type UseCase int

const (
	UseCaseGeneral UseCase = iota
	UseCaseCoding
	UseCaseReasoning
	UseCaseChat
	UseCaseMultimodal
	UseCaseEmbedding
)

func (u UseCase) String() string {
	switch u {
	case UseCaseGeneral:
		return "General"
	case UseCaseCoding:
		return "Coding"
	case UseCaseReasoning:
		return "Reasoning"
	case UseCaseChat:
		return "Chat"
	case UseCaseMultimodal:
		return "Multimodal"
	case UseCaseEmbedding:
		return "Embedding"
	default:
		return "General"
	}
}

// Architecture holds the transformer shape fields the roofline engine needs.
// A nil field is absent; KVHeads falls back to Heads and nothing else falls back.
type Architecture struct {
	HeadDim          *uint32 `json:"head_dim,omitempty" yaml:"head_dim,omitempty"`
	Layers           *uint32 `json:"num_layers,omitempty" yaml:"num_layers,omitempty"`
	Heads            *uint32 `json:"num_heads,omitempty" yaml:"num_heads,omitempty"`
	KVHeads          *uint32 `json:"num_kv_heads,omitempty" yaml:"num_kv_heads,omitempty"`
	HiddenSize       *uint32 `json:"hidden_size,omitempty" yaml:"hidden_size,omitempty"`
	IntermediateSize *uint32 `json:"intermediate_size,omitempty" yaml:"intermediate_size,omitempty"`
}

// EffectiveKVHeads returns KVHeads, falling back to Heads (grouped-query attention support).
func (a Architecture) EffectiveKVHeads() *uint32 {
	if a.KVHeads != nil {
		return a.KVHeads
	}
	return a.Heads
}

// Complete reports whether every field needed by the strict engine is present.
func (a Architecture) Complete() bool {
	return a.HeadDim != nil && a.Layers != nil && a.EffectiveKVHeads() != nil &&
		a.HiddenSize != nil && a.IntermediateSize != nil
}

// KVBytesPerToken returns 2 × layers × kvHeads × headDim × bpp, or false when a field is missing.
func (a Architecture) KVBytesPerToken(bpp float64) (float64, bool) {
	kv := a.EffectiveKVHeads()
	if a.Layers == nil || kv == nil || a.HeadDim == nil {
		return 0, false
	}
	return 2 * float64(*a.Layers) * float64(*kv) * float64(*a.HeadDim) * bpp, true
}

// LlmModel is a single catalog entry (fields align with data/models.json and the user cache).
type LlmModel struct {
	Name           string       `json:"name"`
	Provider       string       `json:"provider"`
	ParameterCount string       `json:"parameter_count"`
	ParametersRaw  *uint64      `json:"parameters_raw,omitempty"`
	Quantization   string       `json:"quantization"`
	ContextLength  uint32       `json:"context_length"`
	UseCase        string       `json:"use_case"`
	Architecture   Architecture `json:"architecture"`
}

// ModelDatabase holds the merged model list (embedded + user cache).
type ModelDatabase struct {
	models []*LlmModel
}

// ParamsB returns parameter count in billions.
func (m *LlmModel) ParamsB() float64 {
	if m.ParametersRaw != nil {
		return float64(*m.ParametersRaw) / 1e9
	}
	s := strings.TrimSpace(strings.ToUpper(m.ParameterCount))
	if strings.HasSuffix(s, "B") {
		n, _ := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-1]), 64)
		return n
	}
	if strings.HasSuffix(s, "M") {
		n, _ := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-1]), 64)
		return n / 1000
	}
	return 0
}

// DefaultQuant returns the catalog quantization parsed into a format, FP16 when unset.
func (m *LlmModel) DefaultQuant() (Quantization, error) {
	if strings.TrimSpace(m.Quantization) == "" {
		return QuantFP16, nil
	}
	q, err := ParseQuantization(m.Quantization)
	if err != nil {
		return "", fmt.Errorf("model %s: %w", m.Name, err)
	}
	return q, nil
}

// WeightsGB returns the weight footprint in decimal GB for the given format.
func (m *LlmModel) WeightsGB(f QuantFormat) float64 {
	return m.ParamsB() * f.BytesPerParameter
}
