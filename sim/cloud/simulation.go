package cloud

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/trace"
)

// SimulationConfig holds the run-level parameters.
type SimulationConfig struct {
	// SimTime is the horizon in ticks; events after it never run.
	SimTime int64
	// SelectionPolicy names the datacenter selection policy.
	SelectionPolicy string
	Selection       SelectionOptions
	// MonitorInterval samples energy gauges every N ticks; 0 disables sampling.
	MonitorInterval int64
	Trace           trace.TraceConfig
}

// Simulation wires a kernel, a cloud and a broker for one run.
type Simulation struct {
	config  SimulationConfig
	kernel  *sim.Kernel
	cloud   *Cloud
	broker  *Broker
	metrics *Metrics
	trace   *trace.SimulationTrace
	hasRun  bool
	results *Results
}

// NewSimulation builds a run over dcs and the workload vms. scope may be nil.
// Panics on an empty datacenter pool, a negative horizon, or an unknown policy.
func NewSimulation(config SimulationConfig, dcs []*Datacenter, vms []*sim.VM, scope tally.Scope) *Simulation {
	if config.SimTime < 0 {
		panic(fmt.Sprintf("NewSimulation: negative sim time %d", config.SimTime))
	}
	k := sim.NewKernel()
	metrics := NewMetrics(scope)
	var tr *trace.SimulationTrace
	if config.Trace.Enabled() {
		tr = trace.NewSimulationTrace(config.Trace)
	}
	policy := NewSelectionPolicy(config.SelectionPolicy, dcs, config.Selection)
	c := NewCloud(k, dcs, policy, metrics, tr)
	b := NewBroker(vms)
	c.AttachBroker(b)
	return &Simulation{
		config:  config,
		kernel:  k,
		cloud:   c,
		broker:  b,
		metrics: metrics,
		trace:   tr,
	}
}

// Kernel returns the simulation kernel.
func (s *Simulation) Kernel() *sim.Kernel { return s.kernel }

// Cloud returns the cloud.
func (s *Simulation) Cloud() *Cloud { return s.cloud }

// Broker returns the broker.
func (s *Simulation) Broker() *Broker { return s.broker }

// Run executes the simulation until SimTime and returns its results.
// Panics if called more than once.
func (s *Simulation) Run() *Results {
	if s.hasRun {
		panic("Simulation.Run() called more than once")
	}
	s.hasRun = true

	logrus.Infof("Starting simulation: %d datacenters, %d VMs, sim time %d, selection %q",
		len(s.cloud.datacenters), len(s.broker.workload), s.config.SimTime, s.config.SelectionPolicy)

	s.kernel.Process("cloud", s.cloud.Run)
	s.kernel.Process("broker", s.broker.Run)
	var monitor *sim.Process
	if s.config.MonitorInterval > 0 {
		monitor = s.kernel.Process("energy monitor", s.cloud.Monitor(s.config.MonitorInterval))
	}

	s.kernel.RunUntil(s.config.SimTime)
	if monitor != nil && monitor.Interrupt("simulation ended") {
		s.kernel.RunUntil(s.config.SimTime)
	}

	for _, dc := range s.cloud.datacenters {
		if dc.energy != nil {
			dc.energy.Refresh(s.config.SimTime)
		}
	}
	s.kernel.Close()

	s.results = s.collect()
	logrus.Infof("Simulation ended at tick %d: %d created, %d rejected, total brown cost %.2f",
		s.config.SimTime, s.results.Created, s.results.Rejected, s.results.TotalBrownCost)
	return s.results
}

// Results returns the results of a completed run.
// Panics if called before Run() has completed.
func (s *Simulation) Results() *Results {
	if !s.hasRun {
		panic("Simulation.Results() called before Run()")
	}
	return s.results
}
