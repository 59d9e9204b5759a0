package cmd

import (
	"fmt"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/cloud"
	"github.com/inference-sim/cloudsim/sim/workload"
)

// buildDatacenters instantiates the topology with its energy traces. Each
// call returns fresh hosts and accounts.
func buildDatacenters(cfg RunConfig) ([]*cloud.Datacenter, error) {
	specs := append([]sim.DatacenterSpec(nil), cfg.Datacenters...)
	if cfg.DCFile != "" {
		loaded, err := workload.LoadTopology(cfg.DCFile)
		if err != nil {
			return nil, err
		}
		specs = loaded
	}

	ids := make([]string, len(specs))
	for i := range specs {
		ids[i] = specs[i].ID
		hosts := make([]sim.HostSpec, len(specs[i].Hosts))
		copy(hosts, specs[i].Hosts)
		for j := range hosts {
			hosts[j].Power.Consolidation = cfg.Consolidation
		}
		specs[i].Hosts = hosts
	}
	traces, err := workload.LoadEnergyTraces(ids, workload.TraceFiles{
		PUE:        cfg.PUEFile,
		Solar:      cfg.SolarFile,
		BrownPrice: cfg.BrownPriceFile,
	})
	if err != nil {
		return nil, err
	}

	dcs := make([]*cloud.Datacenter, len(specs))
	for i, spec := range specs {
		dc, err := cloud.BuildDatacenter(spec, cfg.PowerModel, cfg.AllocationPolicy, traces[i], cfg.BatteryCapacity)
		if err != nil {
			return nil, fmt.Errorf("building datacenter %s: %w", spec.ID, err)
		}
		dcs[i] = dc
	}
	return dcs, nil
}

// buildWorkload loads the VM file or generates the synthetic workload from
// the run seed. Each call returns fresh, unplaced VMs.
func buildWorkload(cfg RunConfig) ([]*sim.VM, error) {
	if cfg.VMFile != "" {
		return workload.LoadVMs(cfg.VMFile)
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
	return workload.GenerateVMs(rng.ForSubsystem(sim.SubsystemWorkload), cfg.Synthetic)
}
