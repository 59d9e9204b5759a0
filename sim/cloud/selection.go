package cloud

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/inference-sim/cloudsim/sim"
)

// SelectionPolicy picks the datacenter for each placement attempt.
// Select returns an index into the cloud's datacenter list; Accept and Reject
// report the outcome of that attempt. Reject returns false when the policy
// has no further candidate for the current request.
type SelectionPolicy interface {
	Select(vm *sim.VM) int
	Accept()
	Reject() bool
}

// ValidSelectionPolicies is the set of recognized datacenter selection policy names.
var ValidSelectionPolicies = map[string]bool{
	"": true, "first-fit": true, "round-robin": true, "least-cost": true,
	"least-power": true, "max-green": true, "learned": true,
}

// IsValidSelectionPolicy returns true if name is a recognized selection policy.
func IsValidSelectionPolicy(name string) bool {
	return ValidSelectionPolicies[name]
}

// SelectionOptions carries the parameters only some policies use.
type SelectionOptions struct {
	// Agent drives the learned policy. Required for "learned".
	Agent Agent
	// Evaluation stops the learned policy from feeding rewards back.
	Evaluation bool
	// TerminalVMID marks the VM whose decision ends an episode.
	TerminalVMID string
	// RequestWeights weight each resource when sizing a request for reward scaling.
	RequestWeights sim.Resources
}

// NewSelectionPolicy creates a selection policy over dcs by name.
// Empty string means round-robin. Panics on unrecognized names, an empty pool,
// or "learned" without an agent.
func NewSelectionPolicy(name string, dcs []*Datacenter, opts SelectionOptions) SelectionPolicy {
	if len(dcs) == 0 {
		panic("NewSelectionPolicy: empty datacenter pool")
	}
	if !ValidSelectionPolicies[name] {
		panic(fmt.Sprintf("unknown selection policy %q", name))
	}
	switch name {
	case "", "round-robin":
		return NewRoundRobinSelection(len(dcs))
	case "first-fit":
		return &FirstFitSelection{n: len(dcs)}
	case "least-cost":
		return &LeastCostSelection{metricSelection: newMetricSelection(dcs, false, func(dc *Datacenter) float64 {
			return dc.BrownCost(0)
		})}
	case "least-power":
		return &LeastPowerSelection{metricSelection: newMetricSelection(dcs, false, func(dc *Datacenter) float64 {
			return dc.Power()
		})}
	case "max-green":
		return &MaxGreenSelection{metricSelection: newMetricSelection(dcs, true, func(dc *Datacenter) float64 {
			return dc.Green()
		})}
	case "learned":
		if opts.Agent == nil {
			panic("NewSelectionPolicy: learned policy requires an agent")
		}
		return NewLearnedSelection(dcs, opts)
	default:
		panic(fmt.Sprintf("unhandled selection policy %q", name))
	}
}

// FirstFitSelection always starts from datacenter 0 and walks forward on
// rejection.
type FirstFitSelection struct {
	n      int
	cursor int
}

// Select implements SelectionPolicy for FirstFitSelection.
func (ff *FirstFitSelection) Select(vm *sim.VM) int { return ff.cursor }

// Accept implements SelectionPolicy for FirstFitSelection.
func (ff *FirstFitSelection) Accept() { ff.cursor = 0 }

// Reject implements SelectionPolicy for FirstFitSelection.
func (ff *FirstFitSelection) Reject() bool {
	ff.cursor = (ff.cursor + 1) % ff.n
	return true
}

// RoundRobinSelection rotates through datacenters across requests. Each
// request gets at most one attempt per datacenter.
type RoundRobinSelection struct {
	n     int
	last  int
	tried int
}

// NewRoundRobinSelection starts the rotation at datacenter 0.
func NewRoundRobinSelection(n int) *RoundRobinSelection {
	return &RoundRobinSelection{n: n, last: n - 1}
}

// Select implements SelectionPolicy for RoundRobinSelection.
func (rr *RoundRobinSelection) Select(vm *sim.VM) int {
	return (rr.last + 1) % rr.n
}

// Accept implements SelectionPolicy for RoundRobinSelection.
func (rr *RoundRobinSelection) Accept() {
	rr.last = (rr.last + 1) % rr.n
	rr.tried = 0
}

// Reject implements SelectionPolicy for RoundRobinSelection.
func (rr *RoundRobinSelection) Reject() bool {
	rr.last = (rr.last + 1) % rr.n
	rr.tried++
	if rr.tried >= rr.n {
		rr.tried = 0
		return false
	}
	return true
}

// metricSelection picks the arg-min (or arg-max) of a datacenter metric among
// datacenters not yet rejected for the current request. Ties go to the lowest
// index.
type metricSelection struct {
	dcs      []*Datacenter
	maximize bool
	metric   func(*Datacenter) float64
	excluded []bool
	selected int
}

func newMetricSelection(dcs []*Datacenter, maximize bool, metric func(*Datacenter) float64) metricSelection {
	return metricSelection{
		dcs:      dcs,
		maximize: maximize,
		metric:   metric,
		excluded: make([]bool, len(dcs)),
	}
}

// Select implements SelectionPolicy.
func (m *metricSelection) Select(vm *sim.VM) int {
	if m.allExcluded() {
		m.clear()
	}
	scores := make([]float64, len(m.dcs))
	for i, dc := range m.dcs {
		switch {
		case m.excluded[i] && m.maximize:
			scores[i] = math.Inf(-1)
		case m.excluded[i]:
			scores[i] = math.Inf(1)
		default:
			scores[i] = m.metric(dc)
		}
	}
	if m.maximize {
		m.selected = floats.MaxIdx(scores)
	} else {
		m.selected = floats.MinIdx(scores)
	}
	return m.selected
}

// Accept implements SelectionPolicy.
func (m *metricSelection) Accept() { m.clear() }

// Reject implements SelectionPolicy. It returns false, and resets the mask,
// once every datacenter has been excluded.
func (m *metricSelection) Reject() bool {
	m.excluded[m.selected] = true
	if m.allExcluded() {
		m.clear()
		return false
	}
	return true
}

func (m *metricSelection) allExcluded() bool {
	for _, ex := range m.excluded {
		if !ex {
			return false
		}
	}
	return true
}

func (m *metricSelection) clear() {
	for i := range m.excluded {
		m.excluded[i] = false
	}
}

// LeastCostSelection prefers the datacenter with the lowest accumulated brown cost.
type LeastCostSelection struct{ metricSelection }

// LeastPowerSelection prefers the datacenter drawing the least facility power.
type LeastPowerSelection struct{ metricSelection }

// MaxGreenSelection prefers the datacenter with the most stored green energy.
type MaxGreenSelection struct{ metricSelection }
