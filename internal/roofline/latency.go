package roofline

import "fmt"

// LowThroughputTPS is the throughput below which a performance warning is raised.
const LowThroughputTPS = 5

// Latency is the timing part of a result.
type Latency struct {
	PrefillMs     float64
	PerTokenMs    float64
	TotalMs       float64
	ThroughputTPS float64
}

// PrefillBaseMs is time-to-first-token at 100% efficiency: 2 FLOPs per parameter per prompt token.
func PrefillBaseMs(promptTokens, paramsB, flops, computeMultiplier float64) float64 {
	return promptTokens * paramsB * 1e9 * 2 * 1000 / (flops * computeMultiplier)
}

// DecodeBaseMs is inter-token latency at 100% efficiency: every weight is read once per token.
func DecodeBaseMs(modelBytes, bandwidthBps float64) float64 {
	return modelBytes * 1000 / bandwidthBps
}

// Derate stretches a base time by an efficiency percentage; 100 returns base unchanged.
func Derate(baseMs, pct float64) float64 {
	return baseMs / (pct / 100)
}

// Throughput is tokens per second over the whole generation, 0 when total time is 0.
func Throughput(tokens, totalMs float64) float64 {
	if totalMs <= 0 {
		return 0
	}
	return tokens / totalMs * 1000
}

func latency(spec ModelSpec, modelBytes, flops, bw, computeMultiplier float64, o Overhead) Latency {
	prefill := Derate(PrefillBaseMs(float64(spec.PromptTokens), spec.ParamsB, flops, computeMultiplier), o.PrefillPct)
	perToken := Derate(DecodeBaseMs(modelBytes, bw), o.DecodePct)
	total := prefill + perToken*float64(spec.OutputTokens)
	return Latency{
		PrefillMs:     prefill,
		PerTokenMs:    perToken,
		TotalMs:       total,
		ThroughputTPS: Throughput(float64(spec.PromptTokens+spec.OutputTokens), total),
	}
}

func performanceWarning(tps float64) *Warning {
	if tps >= LowThroughputTPS {
		return nil
	}
	return &Warning{Kind: WarnLowThroughput, Message: fmt.Sprintf(
		"Low throughput (%.1f tok/s): try a more compressed quantization, a smaller model, or an accelerator with more bandwidth.", tps)}
}
