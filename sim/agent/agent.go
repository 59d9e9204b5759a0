// Package agent provides reference decision-makers for the learned
// datacenter selection policy.
package agent

import (
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cloudsim/sim/cloud"
)

// ValidAgents is the set of recognized agent names.
var ValidAgents = map[string]bool{"random": true, "greedy": true}

// IsValidAgent returns true if name is a recognized agent.
func IsValidAgent(name string) bool {
	return ValidAgents[name]
}

// Stats accumulates what an agent has seen.
type Stats struct {
	Decisions    int
	Observations int
	Episodes     int
	TotalReward  float64
}

// StatsAgent is an agent that reports its accumulated statistics.
type StatsAgent interface {
	cloud.Agent
	Stats() Stats
}

// NewAgent creates an agent by name for a pool of numDCs datacenters.
// rng is used only by agents that explore. Panics on unrecognized names or
// an empty pool.
func NewAgent(name string, rng *rand.Rand, numDCs int) StatsAgent {
	if numDCs < 1 {
		panic(fmt.Sprintf("NewAgent: need at least one datacenter, got %d", numDCs))
	}
	switch name {
	case "random":
		if rng == nil {
			panic("NewAgent: random agent requires an rng")
		}
		return &Random{rng: rng, n: numDCs}
	case "greedy":
		return &Greedy{n: numDCs}
	default:
		panic(fmt.Sprintf("unknown agent %q", name))
	}
}

// recorder implements Observe and Stats for the reference agents.
type recorder struct {
	stats Stats
}

func (r *recorder) Observe(terminal bool, reward float64) {
	r.stats.Observations++
	r.stats.TotalReward += reward
	if terminal {
		r.stats.Episodes++
		logrus.Debugf("agent: episode %d ended, total reward %f", r.stats.Episodes, r.stats.TotalReward)
	}
}

func (r *recorder) Stats() Stats { return r.stats }

// Random picks a datacenter uniformly at random.
type Random struct {
	recorder
	rng *rand.Rand
	n   int
}

// Act implements cloud.Agent.
func (a *Random) Act(state []float64, independent bool) int {
	a.stats.Decisions++
	return a.rng.IntN(a.n)
}

// Greedy picks the suitable datacenter with the lowest normalized recent
// brown cost, breaking ties by brown price and then by index. When no
// datacenter is suitable it falls back to the cheapest overall.
type Greedy struct {
	recorder
	n int
}

// Act implements cloud.Agent.
func (a *Greedy) Act(state []float64, independent bool) int {
	if len(state) != a.n*cloud.StateFeatures {
		panic(fmt.Sprintf("Greedy.Act: state has %d entries, want %d", len(state), a.n*cloud.StateFeatures))
	}
	a.stats.Decisions++
	if best := a.cheapest(state, true); best >= 0 {
		return best
	}
	return a.cheapest(state, false)
}

func (a *Greedy) cheapest(state []float64, suitableOnly bool) int {
	best := -1
	for i := 0; i < a.n; i++ {
		block := state[i*cloud.StateFeatures : (i+1)*cloud.StateFeatures]
		if suitableOnly && block[cloud.FeatureSuitable] < 1 {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		cur := state[best*cloud.StateFeatures : (best+1)*cloud.StateFeatures]
		if block[cloud.FeatureBrownCost] < cur[cloud.FeatureBrownCost] ||
			(block[cloud.FeatureBrownCost] == cur[cloud.FeatureBrownCost] &&
				block[cloud.FeatureBrownPrice] < cur[cloud.FeatureBrownPrice]) {
			best = i
		}
	}
	return best
}
