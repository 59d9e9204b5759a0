package agent

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/cloud"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.ErrorLevel)
	}
	os.Exit(m.Run())
}

// block builds one datacenter's state entries.
func block(cost, price, suitable float64) []float64 {
	b := make([]float64, cloud.StateFeatures)
	b[cloud.FeatureBrownCost] = cost
	b[cloud.FeatureBrownPrice] = price
	b[cloud.FeatureSuitable] = suitable
	return b
}

func state(blocks ...[]float64) []float64 {
	var s []float64
	for _, b := range blocks {
		s = append(s, b...)
	}
	return s
}

func TestNewAgent(t *testing.T) {
	rng := sim.NewPartitionedRNG(1).ForSubsystem(sim.SubsystemAgent)
	assert.IsType(t, &Random{}, NewAgent("random", rng, 3))
	assert.IsType(t, &Greedy{}, NewAgent("greedy", nil, 3))
	assert.True(t, IsValidAgent("greedy"))
	assert.False(t, IsValidAgent("ppo"))
	assert.Panics(t, func() { NewAgent("ppo", rng, 3) })
	assert.Panics(t, func() { NewAgent("random", nil, 3) })
	assert.Panics(t, func() { NewAgent("greedy", nil, 0) })
}

func TestRandom_ActionsInRangeAndReproducible(t *testing.T) {
	a := NewAgent("random", sim.NewPartitionedRNG(7).ForSubsystem(sim.SubsystemAgent), 4)
	b := NewAgent("random", sim.NewPartitionedRNG(7).ForSubsystem(sim.SubsystemAgent), 4)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		x := a.Act(nil, false)
		require.Equal(t, x, b.Act(nil, false))
		require.GreaterOrEqual(t, x, 0)
		require.Less(t, x, 4)
		seen[x] = true
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, 200, a.Stats().Decisions)
}

func TestGreedy_PicksCheapestSuitable(t *testing.T) {
	g := NewAgent("greedy", nil, 3)

	// GIVEN the cheapest datacenter cannot take the VM
	s := state(block(0.1, 0.5, 0), block(0.4, 0.5, 1), block(0.3, 0.9, 1))

	// THEN the cheapest suitable one wins
	assert.Equal(t, 2, g.Act(s, true))

	// AND equal costs fall back to the lower price
	s = state(block(0.3, 0.5, 1), block(0.3, 0.2, 1), block(0.9, 0.1, 1))
	assert.Equal(t, 1, g.Act(s, false))

	// AND with nothing suitable the cheapest overall is chosen
	s = state(block(0.5, 0, 0), block(0.2, 0, 0), block(0.3, 0, 0))
	assert.Equal(t, 1, g.Act(s, false))

	assert.Panics(t, func() { g.Act([]float64{1}, false) })
}

func TestRecorder_CountsEpisodes(t *testing.T) {
	g := NewAgent("greedy", nil, 1)
	g.Observe(false, -2)
	g.Observe(true, 0.5)
	g.Observe(false, 1)
	st := g.Stats()
	assert.Equal(t, 3, st.Observations)
	assert.Equal(t, 1, st.Episodes)
	assert.InDelta(t, -0.5, st.TotalReward, 1e-12)
}

func TestGreedy_DrivesLearnedSelection(t *testing.T) {
	// GIVEN a cheap small datacenter and an expensive large one
	small := cloud.NewDatacenter("small", []*sim.Host{sim.NewHost(0, sim.Resources{Compute: 5, Memory: 5, Bandwidth: 5, Storage: 5}, nil)}, "first-fit",
		cloud.NewEnergyAccount(cloud.DefaultEnergyTraces(), 0))
	large := cloud.NewDatacenter("large", []*sim.Host{sim.NewHost(0, sim.Resources{Compute: 50, Memory: 50, Bandwidth: 50, Storage: 50}, nil)}, "first-fit",
		cloud.NewEnergyAccount(cloud.DefaultEnergyTraces(), 0))
	g := NewAgent("greedy", nil, 2)
	vm := sim.NewVM("1", "u", sim.Resources{Compute: 10, Memory: 10, Bandwidth: 10, Storage: 10}, 0, 5)

	// WHEN a run places one VM too large for the small datacenter
	s := cloud.NewSimulation(cloud.SimulationConfig{SimTime: 10, SelectionPolicy: "learned",
		Selection: cloud.SelectionOptions{Agent: g}}, []*cloud.Datacenter{small, large}, []*sim.VM{vm}, nil)
	r := s.Run()

	// THEN greedy goes straight to the suitable datacenter
	assert.Equal(t, 1, r.Created)
	assert.Equal(t, 1, g.Stats().Decisions)
	assert.Equal(t, 1, r.Datacenters[1].Created)
}
