package roofline

import (
	"errors"
	"fmt"
)

// ErrMissingArchitecture matches every MissingFieldError via errors.Is.
var ErrMissingArchitecture = errors.New("missing architecture field")

// ErrInvalidInput matches every InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Evaluation stages named in errors.
const (
	StageInput      = "input"
	StageKVCache    = "kv-cache"
	StageActivation = "activation-memory"
	StageIntensity  = "arithmetic-intensity"
	StageLatency    = "latency"
)

// MissingFieldError reports an architecture field that a stage needed but the model did not provide.
type MissingFieldError struct {
	Field string
	Stage string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing architecture field %s", e.Stage, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingArchitecture }

// InvalidInputError reports a non-positive or non-finite value with no meaningful fallback.
type InvalidInputError struct {
	Field  string
	Stage  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Stage, e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }
