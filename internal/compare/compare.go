// Package compare evaluates one workload across many accelerators and ranks the outcomes.
package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shayne-snap/llmroof/internal/hardware"
	"github.com/shayne-snap/llmroof/internal/models"
	"github.com/shayne-snap/llmroof/internal/roofline"
)

// FitLevel is how comfortably a workload fits an accelerator's memory.
type FitLevel int

const (
	FitPerfect FitLevel = iota
	FitGood
	FitMarginal
	FitTooTight
)

func (f FitLevel) String() string {
	switch f {
	case FitPerfect:
		return "Perfect"
	case FitGood:
		return "Good"
	case FitMarginal:
		return "Marginal"
	case FitTooTight:
		return "Too Tight"
	default:
		return "Marginal"
	}
}

// MarshalText renders the level by name.
func (f FitLevel) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Emoji returns the status marker for the level.
func (f FitLevel) Emoji() string {
	switch f {
	case FitPerfect:
		return "🟢"
	case FitGood:
		return "🟡"
	case FitMarginal:
		return "🟠"
	default:
		return "🔴"
	}
}

// FitFromUtilization maps raw memory utilization to a level: ≤80 Perfect, ≤90 Good, ≤100 Marginal.
func FitFromUtilization(pct float64) FitLevel {
	switch {
	case pct <= 80:
		return FitPerfect
	case pct <= 90:
		return FitGood
	case pct <= 100:
		return FitMarginal
	}
	return FitTooTight
}

// Row is one accelerator's outcome. Exactly one of Result and Err is set, except in
// approximate mode where a failed precise evaluation may also carry a labeled Estimate.
type Row struct {
	Accelerator  hardware.Accelerator `json:"accelerator"`
	Quantization models.Quantization  `json:"quantization"`
	Fit          FitLevel             `json:"fit"`
	Result       *roofline.Result     `json:"result,omitempty"`
	Estimate     *roofline.Estimate   `json:"estimate,omitempty"`
	Err          error                `json:"-"`
	Error        string               `json:"error,omitempty"`
	CostPer1M    *decimal.Decimal     `json:"cost_per_1m_tokens_usd,omitempty"`
	Notes        []string             `json:"notes,omitempty"`
}

// Approximate reports whether the row's figures come from the weights-only estimate.
func (r *Row) Approximate() bool { return r.Result == nil && r.Estimate != nil }

// ThroughputTPS returns the precise or estimated throughput, 0 without either.
func (r *Row) ThroughputTPS() float64 {
	switch {
	case r.Result != nil:
		return r.Result.ThroughputTPS
	case r.Estimate != nil:
		return r.Estimate.ThroughputTPS
	}
	return 0
}

// UtilizationPct returns the displayed (capped) utilization, or -1 without figures.
func (r *Row) UtilizationPct() float64 {
	switch {
	case r.Result != nil:
		return r.Result.MemoryUtilizationPct
	case r.Estimate != nil:
		return r.Estimate.MemoryUtilizationPct
	}
	return -1
}

// Options controls a comparison run.
type Options struct {
	// Approximate falls back to roofline.Estimate when the precise evaluation fails.
	Approximate bool
	Overhead    *roofline.Overhead
}

// Compare evaluates spec on every accelerator in order.
func Compare(e *roofline.Engine, accs []hardware.Accelerator, spec roofline.ModelSpec, opts Options) []*Row {
	out := make([]*Row, 0, len(accs))
	for _, acc := range accs {
		out = append(out, Evaluate(e, acc, spec, opts))
	}
	return out
}

// Evaluate builds one row.
func Evaluate(e *roofline.Engine, acc hardware.Accelerator, spec roofline.ModelSpec, opts Options) *Row {
	row := &Row{Accelerator: acc, Quantization: spec.Quantization}
	res, err := e.Evaluate(acc, spec, opts.Overhead)
	if err == nil {
		row.Result = res
		row.Fit = FitFromUtilization(res.RawUtilizationPct)
		row.CostPer1M = CostPer1MTokens(acc.PricePerHour, res.ThroughputTPS)
		row.Notes = notes(res)
		return row
	}
	row.Err = err
	row.Error = err.Error()
	row.Fit = FitTooTight
	if !opts.Approximate {
		return row
	}
	est, estErr := e.Approximate(acc, spec, opts.Overhead)
	if estErr != nil {
		return row
	}
	row.Estimate = est
	row.Fit = FitFromUtilization(est.RawUtilizationPct)
	row.CostPer1M = CostPer1MTokens(acc.PricePerHour, est.ThroughputTPS)
	row.Notes = []string{"approx: weights only, KV cache and activations not counted"}
	return row
}

func notes(r *roofline.Result) []string {
	out := []string{fmt.Sprintf("%s-bound (intensity %.1f vs ratio %.1f)", r.Bound, r.ArithmeticIntensity, r.OpsToByteRatio)}
	if r.MemoryWarning != nil {
		out = append(out, r.MemoryWarning.Message)
	}
	if r.PerformanceWarning != nil {
		out = append(out, r.PerformanceWarning.Message)
	}
	return out
}

var (
	secondsPerHour = decimal.NewFromInt(3600)
	million        = decimal.NewFromInt(1_000_000)
)

// CostPer1MTokens converts an hourly price and throughput to USD per million tokens.
// Returns nil when the price is unknown or throughput is not positive.
func CostPer1MTokens(pricePerHour *float64, tps float64) *decimal.Decimal {
	if pricePerHour == nil || tps <= 0 {
		return nil
	}
	perSecond := decimal.NewFromFloat(*pricePerHour).Div(secondsPerHour)
	cost := perSecond.Div(decimal.NewFromFloat(tps)).Mul(million).Round(4)
	return &cost
}

// RankByThroughput sorts by throughput descending with Too Tight rows last; the input is not modified.
func RankByThroughput(rows []*Row) []*Row {
	out := make([]*Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		at, bt := out[i].Fit == FitTooTight, out[j].Fit == FitTooTight
		if at != bt {
			return !at
		}
		return out[i].ThroughputTPS() > out[j].ThroughputTPS()
	})
	return out
}

// FilterFitsOnly drops Too Tight rows.
func FilterFitsOnly(rows []*Row) []*Row {
	var out []*Row
	for _, r := range rows {
		if r.Fit != FitTooTight {
			out = append(out, r)
		}
	}
	return out
}

// FilterByVendor keeps rows whose accelerator vendor matches (case-insensitive); empty keeps all.
func FilterByVendor(rows []*Row, vendor string) []*Row {
	if strings.TrimSpace(vendor) == "" {
		return rows
	}
	var out []*Row
	for _, r := range rows {
		if strings.EqualFold(r.Accelerator.Vendor, vendor) {
			out = append(out, r)
		}
	}
	return out
}

// Limit truncates to n rows; n == 0 keeps all.
func Limit(rows []*Row, n int) []*Row {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
