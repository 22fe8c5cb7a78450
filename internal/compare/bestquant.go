package compare

import (
	"errors"
	"fmt"

	"github.com/shayne-snap/llmroof/internal/hardware"
	"github.com/shayne-snap/llmroof/internal/models"
	"github.com/shayne-snap/llmroof/internal/roofline"
)

// ErrNoQuantFits is returned when even the most compressed format overflows memory.
var ErrNoQuantFits = errors.New("no quantization fits")

// BestQuant returns the highest-precision format whose evaluation fits the accelerator's memory,
// with that evaluation. Evaluation errors other than overflow are returned as-is.
func BestQuant(e *roofline.Engine, acc hardware.Accelerator, spec roofline.ModelSpec, overhead *roofline.Overhead) (models.Quantization, *roofline.Result, error) {
	for _, q := range models.QuantHierarchy {
		s := spec
		s.Quantization = q
		r, err := e.Evaluate(acc, s, overhead)
		if err != nil {
			return "", nil, err
		}
		if r.Fits() {
			return q, r, nil
		}
	}
	return "", nil, fmt.Errorf("%s on %s: %w", spec.Name, acc.Name, ErrNoQuantFits)
}

// CompareBestQuant evaluates each accelerator at its BestQuant format. Accelerators where nothing
// fits are evaluated at the most compressed format so they rank as Too Tight with real figures.
func CompareBestQuant(e *roofline.Engine, accs []hardware.Accelerator, spec roofline.ModelSpec, opts Options) []*Row {
	smallest := models.QuantHierarchy[len(models.QuantHierarchy)-1]
	out := make([]*Row, 0, len(accs))
	for _, acc := range accs {
		s := spec
		q, _, err := BestQuant(e, acc, spec, opts.Overhead)
		switch {
		case err == nil:
			s.Quantization = q
		case errors.Is(err, ErrNoQuantFits):
			s.Quantization = smallest
		}
		out = append(out, Evaluate(e, acc, s, opts))
	}
	return out
}
