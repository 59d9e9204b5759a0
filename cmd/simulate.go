package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/agent"
	"github.com/inference-sim/cloudsim/sim/cloud"
	"github.com/inference-sim/cloudsim/sim/trace"
)

// outcome is what one invocation of `run` produced.
type outcome struct {
	Results *cloud.Results
	// Agent is nil unless the learned policy was used.
	Agent agent.StatsAgent
	// Episodes counts the training runs before Results.
	Episodes int
}

// simulate runs the configured simulation. With the learned policy and
// Episodes > 0 the agent first trains on that many runs, then Results comes
// from a final evaluation run that gives the agent no feedback.
func simulate(cfg RunConfig, scope tally.Scope) (*outcome, error) {
	out := &outcome{}
	opts := cloud.SelectionOptions{
		TerminalVMID:   cfg.TerminalVMID,
		RequestWeights: cfg.RequestWeights,
	}
	if cfg.SelectionPolicy == "learned" {
		rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).ForSubsystem(sim.SubsystemAgent)
		dcs, err := buildDatacenters(cfg)
		if err != nil {
			return nil, err
		}
		out.Agent = agent.NewAgent(cfg.Agent, rng, len(dcs))
		opts.Agent = out.Agent

		for i := 0; i < cfg.Episodes; i++ {
			r, err := simulateOnce(cfg, opts, nil)
			if err != nil {
				return nil, fmt.Errorf("episode %d: %w", i, err)
			}
			out.Episodes++
			logrus.Infof("Episode %d: %d created, %d rejected, brown cost %.2f",
				i, r.Created, r.Rejected, r.TotalBrownCost)
		}
		opts.Evaluation = cfg.Episodes > 0
	}

	r, err := simulateOnce(cfg, opts, scope)
	if err != nil {
		return nil, err
	}
	out.Results = r
	return out, nil
}

func simulateOnce(cfg RunConfig, opts cloud.SelectionOptions, scope tally.Scope) (*cloud.Results, error) {
	dcs, err := buildDatacenters(cfg)
	if err != nil {
		return nil, err
	}
	vms, err := buildWorkload(cfg)
	if err != nil {
		return nil, err
	}
	s := cloud.NewSimulation(cloud.SimulationConfig{
		SimTime:         cfg.SimTime,
		SelectionPolicy: cfg.SelectionPolicy,
		Selection:       opts,
		MonitorInterval: cfg.MonitorInterval,
		Trace:           trace.TraceConfig{Level: trace.TraceLevel(cfg.TraceLevel)},
	}, dcs, vms, scope)
	return s.Run(), nil
}

// newMetricsScope returns a root scope whose final values are logged at
// debug level when the closer is closed.
func newMetricsScope() (tally.Scope, io.Closer) {
	return tally.NewRootScope(tally.ScopeOptions{
		Prefix:   "cloudsim",
		Reporter: logReporter{},
	}, 0)
}
