package sim

import (
	"fmt"
	"math"
)

// utilizationEpsilon bounds rounding drift in utilization inputs.
const utilizationEpsilon = 1e-3

// ratioTolerance bounds rounding drift when checking that ratios sum to 1.
const ratioTolerance = 1e-6

// PowerModel maps host utilization to a draw in watts.
type PowerModel interface {
	Power(utilization Resources) float64
	MaxPower() float64
	StaticPower() float64
}

// PowerSpec configures a power model. Ratios weight each resource's
// utilization and must sum to 1.
type PowerSpec struct {
	MaxPower      float64   `yaml:"max_power"`
	StaticPower   float64   `yaml:"static_power"`
	Ratios        Resources `yaml:"ratios"`
	Consolidation bool      `yaml:"consolidation"`
}

// ValidPowerModels is the set of recognized power model names.
var ValidPowerModels = map[string]bool{"": true, "linear": true}

// IsValidPowerModel returns true if name is a recognized power model.
func IsValidPowerModel(name string) bool {
	return ValidPowerModels[name]
}

// NewPowerModel creates a power model by name. Empty string means linear.
// Panics on unrecognized names.
func NewPowerModel(name string, spec PowerSpec) (PowerModel, error) {
	if !ValidPowerModels[name] {
		panic(fmt.Sprintf("unknown power model %q", name))
	}
	return NewLinearPowerModel(spec)
}

// ValidateRatios checks that every ratio is non-negative and that they sum to 1.
func ValidateRatios(r Resources) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("power ratios: %w", err)
	}
	sum := r.Compute + r.Memory + r.Bandwidth + r.Storage
	if math.Abs(sum-1) > ratioTolerance {
		return fmt.Errorf("power ratios must sum to 1, got %f", sum)
	}
	return nil
}

// LinearPowerModel draws static + (max - static) * weighted utilization. With
// consolidation an idle host (weighted utilization 0) draws nothing.
type LinearPowerModel struct {
	spec PowerSpec
}

// NewLinearPowerModel validates spec and builds the model.
func NewLinearPowerModel(spec PowerSpec) (*LinearPowerModel, error) {
	if spec.StaticPower < 0 || spec.MaxPower < 0 {
		return nil, fmt.Errorf("power values must be non-negative, got max=%f static=%f", spec.MaxPower, spec.StaticPower)
	}
	if spec.StaticPower > spec.MaxPower {
		return nil, fmt.Errorf("static power %f exceeds max power %f", spec.StaticPower, spec.MaxPower)
	}
	if err := ValidateRatios(spec.Ratios); err != nil {
		return nil, err
	}
	return &LinearPowerModel{spec: spec}, nil
}

// Power returns the draw for the given utilization.
func (m *LinearPowerModel) Power(u Resources) float64 {
	weighted := 0.0
	for _, kind := range ResourceKinds {
		v := u.Get(kind)
		if v < -utilizationEpsilon || v > 1+utilizationEpsilon {
			panic(fmt.Sprintf("LinearPowerModel.Power: %s utilization %f out of range", kind, v))
		}
		weighted += m.spec.Ratios.Get(kind) * v
	}
	static := m.spec.StaticPower
	if m.spec.Consolidation && weighted == 0 {
		static = 0
	}
	return static + (m.spec.MaxPower-m.spec.StaticPower)*weighted
}

// MaxPower returns the draw at full utilization.
func (m *LinearPowerModel) MaxPower() float64 { return m.spec.MaxPower }

// StaticPower returns the idle draw.
func (m *LinearPowerModel) StaticPower() float64 { return m.spec.StaticPower }
