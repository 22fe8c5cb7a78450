// Package models provides the model catalog, architecture metadata and the quantization table.
package models

import (
	"fmt"
	"sort"
	"strings"
)

// Quantization is the numeric encoding format of model weights.
type Quantization string

const (
	QuantFP32 Quantization = "FP32"
	QuantFP16 Quantization = "FP16"
	QuantINT8 Quantization = "INT8"
	QuantINT4 Quantization = "INT4"
)

// QuantHierarchy lists formats from highest precision to most compressed (used for best-quant selection).
var QuantHierarchy = []Quantization{QuantFP32, QuantFP16, QuantINT8, QuantINT4}

// QuantFormat is one row of the quantization table. ComputeMultiplier is relative to FP16.
type QuantFormat struct {
	Name              Quantization `json:"name" yaml:"name"`
	BytesPerParameter float64      `json:"bytes_per_parameter" yaml:"bytes_per_parameter"`
	ComputeMultiplier float64      `json:"compute_multiplier" yaml:"compute_multiplier"`
}

// QuantTable maps formats to their fixed byte and compute factors. Treat it as read-only.
type QuantTable map[Quantization]QuantFormat

// DefaultQuantTable returns a fresh copy of the built-in table.
func DefaultQuantTable() QuantTable {
	return QuantTable{
		QuantFP32: {Name: QuantFP32, BytesPerParameter: 4, ComputeMultiplier: 0.5},
		QuantFP16: {Name: QuantFP16, BytesPerParameter: 2, ComputeMultiplier: 1.0},
		QuantINT8: {Name: QuantINT8, BytesPerParameter: 1, ComputeMultiplier: 2.0},
		QuantINT4: {Name: QuantINT4, BytesPerParameter: 0.5, ComputeMultiplier: 4.0},
	}
}

// Lookup returns the format for q, or an error naming the known formats.
func (t QuantTable) Lookup(q Quantization) (QuantFormat, error) {
	f, ok := t[q]
	if !ok {
		return QuantFormat{}, fmt.Errorf("unknown quantization %q (known: %s)", q, strings.Join(t.names(), ", "))
	}
	return f, nil
}

func (t QuantTable) names() []string {
	out := make([]string, 0, len(t))
	for q := range t {
		out = append(out, string(q))
	}
	sort.Strings(out)
	return out
}

// ParseQuantization accepts the canonical names plus common HF/GGUF spellings and maps them to a format.
func ParseQuantization(s string) (Quantization, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case u == "FP32" || u == "F32" || u == "FLOAT32":
		return QuantFP32, nil
	case u == "FP16" || u == "F16" || u == "BF16" || u == "FLOAT16" || u == "BFLOAT16":
		return QuantFP16, nil
	case u == "INT8" || u == "FP8" || strings.HasPrefix(u, "Q8") || strings.HasPrefix(u, "Q6") || strings.HasPrefix(u, "Q5"):
		return QuantINT8, nil
	case u == "INT4" || u == "AWQ" || u == "GPTQ" || strings.HasPrefix(u, "Q4") || strings.HasPrefix(u, "Q3") || strings.HasPrefix(u, "Q2"):
		return QuantINT4, nil
	}
	return "", fmt.Errorf("unknown quantization %q", s)
}
