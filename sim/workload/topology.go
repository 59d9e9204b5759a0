package workload

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cloudsim/sim"
)

var topologyColumns = []string{
	"dc_id", "num_host", "ram", "mips", "bw", "storage",
	"max_power", "stat_power", "mips_pr", "ram_pr", "bw_pr", "storage_pr",
}

// LoadTopology reads a datacenter topology CSV. Each row is a group of
// identical hosts; rows sharing a dc_id are merged into one datacenter, and
// datacenters keep the order of their first row.
func LoadTopology(path string) ([]sim.DatacenterSpec, error) {
	first, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	h, err := newHeader(first, topologyColumns)
	if err != nil {
		return nil, fmt.Errorf("topology %s: %w", path, err)
	}

	var specs []sim.DatacenterSpec
	index := make(map[string]int)
	for i, row := range rows {
		id := h.str(row, "dc_id")
		if id == "" {
			return nil, fmt.Errorf("topology %s row %d: empty dc_id", path, i+2)
		}
		group, err := parseHostGroup(h, row)
		if err != nil {
			return nil, fmt.Errorf("topology %s row %d: %w", path, i+2, err)
		}
		j, ok := index[id]
		if !ok {
			j = len(specs)
			index[id] = j
			specs = append(specs, sim.DatacenterSpec{ID: id})
		}
		specs[j].Hosts = append(specs[j].Hosts, group)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("topology %s: no datacenters", path)
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("topology %s: %w", path, err)
		}
	}
	logrus.Infof("Loaded %d datacenters from %s", len(specs), path)
	return specs, nil
}

func parseHostGroup(h header, row []string) (sim.HostSpec, error) {
	count, err := strconv.Atoi(h.str(row, "num_host"))
	if err != nil {
		return sim.HostSpec{}, fmt.Errorf("column num_host: %w", err)
	}
	values := make(map[string]float64, len(topologyColumns))
	for _, column := range topologyColumns[2:] {
		v, err := h.float(row, column)
		if err != nil {
			return sim.HostSpec{}, err
		}
		values[column] = v
	}
	return sim.HostSpec{
		Count: count,
		Capacity: sim.Resources{
			Compute:   values["mips"],
			Memory:    values["ram"],
			Bandwidth: values["bw"],
			Storage:   values["storage"],
		},
		Power: sim.PowerSpec{
			MaxPower:    values["max_power"],
			StaticPower: values["stat_power"],
			Ratios: sim.Resources{
				Compute:   values["mips_pr"],
				Memory:    values["ram_pr"],
				Bandwidth: values["bw_pr"],
				Storage:   values["storage_pr"],
			},
		},
	}, nil
}
