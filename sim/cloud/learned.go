package cloud

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cloudsim/sim"
)

// Agent is the decision-maker behind LearnedSelection. Act returns a
// datacenter index for the given state; independent asks for a decision
// that does not depend on exploration (evaluation runs). Observe receives
// the reward of the previous action.
type Agent interface {
	Act(state []float64, independent bool) int
	Observe(terminal bool, reward float64)
}

// StateFeatures is the number of state entries per datacenter.
const StateFeatures = 6

// State feature offsets within a datacenter block.
const (
	FeatureBrownCost = iota
	FeatureBrownPrice
	FeatureStoredGreen
	FeaturePUE
	FeatureSuitable
	FeatureUtilization
)

const (
	// rejectPenalty is added to the reward of a rejected placement.
	rejectPenalty = -1e8
	// repeatRejectPenalty replaces rejectPenalty when the agent picks a
	// datacenter that already rejected the current request.
	repeatRejectPenalty = -1e9
)

// LearnedSelection delegates the choice to an Agent and converts each
// outcome into a reward.
type LearnedSelection struct {
	dcs          []*Datacenter
	agent        Agent
	evaluation   bool
	terminalVMID string
	weights      sim.Resources
	maxCapacity  sim.Resources

	action   int
	terminal bool
	reqSize  float64
	preCosts []float64
	rejected []bool
}

// NewLearnedSelection builds the policy. The per-resource host maxima across
// all datacenters normalize request sizes.
func NewLearnedSelection(dcs []*Datacenter, opts SelectionOptions) *LearnedSelection {
	ls := &LearnedSelection{
		dcs:          dcs,
		agent:        opts.Agent,
		evaluation:   opts.Evaluation,
		terminalVMID: opts.TerminalVMID,
		weights:      opts.RequestWeights,
		preCosts:     make([]float64, len(dcs)),
		rejected:     make([]bool, len(dcs)),
	}
	for _, dc := range dcs {
		for _, h := range dc.Hosts() {
			for _, kind := range sim.ResourceKinds {
				if c := h.Capacity(kind); c > ls.maxCapacity.Get(kind) {
					ls.maxCapacity.Set(kind, c)
				}
			}
		}
	}
	return ls
}

// State builds the observation for vm: one block of StateFeatures entries per
// datacenter, every entry in [0, 1].
func (ls *LearnedSelection) State(vm *sim.VM) []float64 {
	state := make([]float64, 0, len(ls.dcs)*StateFeatures)
	for _, dc := range ls.dcs {
		suitable := 0.0
		if dc.IsSuitableForVM(vm) {
			suitable = 1
		}
		state = append(state,
			normalize(dc.BrownCost(1), dc.MaxCost()),
			normalize(dc.BrownPrice(), dc.MaxBrownPrice()),
			normalize(dc.Green(), dc.BatteryCapacity()),
			normalize(dc.PUE(), dc.MaxPUE()),
			suitable,
			clamp01(dc.AvgUtilization()),
		)
	}
	return state
}

// Select implements SelectionPolicy for LearnedSelection.
func (ls *LearnedSelection) Select(vm *sim.VM) int {
	ls.terminal = ls.terminalVMID != "" && vm.ID == ls.terminalVMID
	ls.reqSize = ls.requestSize(vm)
	state := ls.State(vm)
	for i := range ls.dcs {
		ls.preCosts[i] = state[i*StateFeatures+FeatureBrownCost]
	}
	action := ls.agent.Act(state, ls.evaluation)
	if action < 0 || action >= len(ls.dcs) {
		panic(fmt.Sprintf("LearnedSelection: agent returned action %d for %d datacenters", action, len(ls.dcs)))
	}
	ls.action = action
	return action
}

// Accept implements SelectionPolicy for LearnedSelection.
func (ls *LearnedSelection) Accept() {
	for i := range ls.rejected {
		ls.rejected[i] = false
	}
	ls.observe(ls.outcomeReward())
}

// Reject implements SelectionPolicy for LearnedSelection. The cloud's attempt
// bound ends the request, so this always asks for another attempt.
func (ls *LearnedSelection) Reject() bool {
	reward := rejectPenalty
	if ls.rejected[ls.action] {
		reward = repeatRejectPenalty
	}
	ls.rejected[ls.action] = true
	ls.observe(reward + ls.outcomeReward())
	return true
}

// outcomeReward divides the chosen datacenter's reward by the request size.
// A brown cost is offset by the normalized cost seen before the decision.
func (ls *LearnedSelection) outcomeReward() float64 {
	r := ls.dcs[ls.action].Reward()
	if r < 0 {
		return -(-r - ls.preCosts[ls.action]) / ls.reqSize
	}
	return r / ls.reqSize
}

func (ls *LearnedSelection) observe(reward float64) {
	if ls.evaluation {
		return
	}
	logrus.Debugf("learned selection: action=%d reward=%f terminal=%v", ls.action, reward, ls.terminal)
	ls.agent.Observe(ls.terminal, reward)
}

// requestSize weights each demand by its share of the largest host capacity.
func (ls *LearnedSelection) requestSize(vm *sim.VM) float64 {
	size := 0.0
	for _, kind := range sim.ResourceKinds {
		if c := ls.maxCapacity.Get(kind); c > 0 {
			size += ls.weights.Get(kind) * vm.Demand.Get(kind) / c
		}
	}
	if size <= 0 {
		return 1
	}
	return size
}

func normalize(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return clamp01(v / limit)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
