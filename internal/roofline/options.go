// Package roofline classifies an LLM inference workload as compute- or memory-bound on an
// accelerator and derives latency, throughput and memory fit from closed-form formulas.
// Every evaluation is a pure function of its inputs; nothing is cached between calls.
package roofline

import (
	"fmt"
	"strings"
)

// KVCacheBasis selects which token count sizes the current KV cache.
type KVCacheBasis int

const (
	// KVBasisActualTokens sizes the cache by prompt+output tokens.
	KVBasisActualTokens KVCacheBasis = iota
	// KVBasisContextLength sizes the cache by the full context window.
	KVBasisContextLength
)

func (b KVCacheBasis) String() string {
	switch b {
	case KVBasisActualTokens:
		return "actual"
	case KVBasisContextLength:
		return "context"
	default:
		return "actual"
	}
}

// MarshalText renders the basis by name in JSON and YAML.
func (b KVCacheBasis) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText accepts the names ParseKVCacheBasis accepts.
func (b *KVCacheBasis) UnmarshalText(text []byte) error {
	v, err := ParseKVCacheBasis(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ParseKVCacheBasis parses "actual" / "context" (and their long forms).
func ParseKVCacheBasis(s string) (KVCacheBasis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "actual", "actual-tokens", "tokens":
		return KVBasisActualTokens, nil
	case "context", "context-length", "ctx":
		return KVBasisContextLength, nil
	}
	return 0, fmt.Errorf("unknown kv-cache basis %q (want actual or context)", s)
}

// Options is the engine policy, fixed at construction.
//
// StrictArchitecture requires every architecture field a stage needs and adds activation memory
// plus a fixed 1 GB runtime overhead. Lenient mode substitutes head_dim=128, layers=32, heads=32
// and counts only weights and KV cache.
type Options struct {
	StrictArchitecture bool         `json:"strict_architecture" yaml:"strict_architecture"`
	KVBasis            KVCacheBasis `json:"kv_cache_basis" yaml:"kv_cache_basis"`
}

// DefaultOptions returns strict validation with the KV cache sized by actual tokens.
func DefaultOptions() Options {
	return Options{StrictArchitecture: true, KVBasis: KVBasisActualTokens}
}

// Mode returns "strict" or "lenient".
func (o Options) Mode() string {
	if o.StrictArchitecture {
		return "strict"
	}
	return "lenient"
}

// Lenient-mode architecture defaults.
const (
	DefaultHeadDim = 128
	DefaultLayers  = 32
	DefaultHeads   = 32
)
