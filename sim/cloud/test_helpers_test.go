package cloud

import (
	"fmt"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/trace"
)

// computeOnly puts all power weight on compute utilization.
var computeOnly = sim.Resources{Compute: 1}

// uniformCapacity returns a capacity with v in every dimension.
func uniformCapacity(v float64) sim.Resources {
	return sim.Resources{Compute: v, Memory: v, Bandwidth: v, Storage: v}
}

// testHost builds a host whose draw is static + (max-static) * compute utilization.
func testHost(id int, capacity sim.Resources, maxPower, staticPower float64, consolidation bool) *sim.Host {
	model, err := sim.NewLinearPowerModel(sim.PowerSpec{
		MaxPower:      maxPower,
		StaticPower:   staticPower,
		Ratios:        computeOnly,
		Consolidation: consolidation,
	})
	if err != nil {
		panic(err)
	}
	return sim.NewHost(id, capacity, model)
}

// testDatacenter builds a datacenter of identical hosts with an energy account.
func testDatacenter(id string, hosts int, capacity float64, traces EnergyTraces, battery float64) *Datacenter {
	pool := make([]*sim.Host, hosts)
	for i := range pool {
		pool[i] = testHost(i, uniformCapacity(capacity), 20, 10, true)
	}
	return NewDatacenter(id, pool, "first-fit", NewEnergyAccount(traces, battery))
}

func testVM(id string, size float64, arrival, duration int64) *sim.VM {
	return sim.NewVM(id, "u", uniformCapacity(size), arrival, duration)
}

// submit runs one creation request for each vm at time 0 through a fresh cloud.
func submit(dcs []*Datacenter, policy SelectionPolicy, vms ...*sim.VM) (*sim.Kernel, *Broker, *trace.SimulationTrace) {
	return submitUntil(dcs, policy, 0, vms...)
}

// submitUntil runs the broker over vms through a fresh cloud up to time until.
func submitUntil(dcs []*Datacenter, policy SelectionPolicy, until int64, vms ...*sim.VM) (*sim.Kernel, *Broker, *trace.SimulationTrace) {
	k := sim.NewKernel()
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	c := NewCloud(k, dcs, policy, nil, tr)
	b := NewBroker(vms)
	c.AttachBroker(b)
	k.Process("broker", b.Run)
	k.RunUntil(until)
	return k, b, tr
}

// scriptedAgent returns actions in order and records everything it sees.
type scriptedAgent struct {
	actions     []int
	next        int
	states      [][]float64
	independent []bool
	rewards     []float64
	terminals   []bool
}

func (a *scriptedAgent) Act(state []float64, independent bool) int {
	a.states = append(a.states, append([]float64(nil), state...))
	a.independent = append(a.independent, independent)
	if a.next >= len(a.actions) {
		panic(fmt.Sprintf("scriptedAgent: no action %d", a.next))
	}
	action := a.actions[a.next]
	a.next++
	return action
}

func (a *scriptedAgent) Observe(terminal bool, reward float64) {
	a.terminals = append(a.terminals, terminal)
	a.rewards = append(a.rewards, reward)
}
