package workload

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cloudsim/sim"
)

// vmColumns is the workload file header, in export order.
var vmColumns = []string{"vm_id", "user_id", "mips", "ram", "bw", "storage", "arrival_time", "duration"}

// LoadVMs reads a workload CSV. Columns are looked up by header name; extra
// columns are ignored. Arrival and duration are rounded to whole ticks.
func LoadVMs(path string) ([]*sim.VM, error) {
	first, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	h, err := newHeader(first, vmColumns)
	if err != nil {
		return nil, fmt.Errorf("workload %s: %w", path, err)
	}

	vms := make([]*sim.VM, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		vm, err := parseVM(h, row)
		if err != nil {
			return nil, fmt.Errorf("workload %s row %d: %w", path, i+2, err)
		}
		if seen[vm.UID()] {
			return nil, fmt.Errorf("workload %s row %d: duplicate VM %s", path, i+2, vm.UID())
		}
		seen[vm.UID()] = true
		vms = append(vms, vm)
	}
	logrus.Infof("Loaded %d VMs from %s", len(vms), path)
	return vms, nil
}

func parseVM(h header, row []string) (*sim.VM, error) {
	id := h.str(row, "vm_id")
	if id == "" {
		return nil, fmt.Errorf("empty vm_id")
	}
	var demand sim.Resources
	for _, c := range []struct {
		column string
		kind   sim.ResourceKind
	}{
		{"mips", sim.Compute},
		{"ram", sim.Memory},
		{"bw", sim.Bandwidth},
		{"storage", sim.Storage},
	} {
		v, err := h.float(row, c.column)
		if err != nil {
			return nil, err
		}
		demand.Set(c.kind, v)
	}
	if err := demand.Validate(); err != nil {
		return nil, fmt.Errorf("VM %s: %w", id, err)
	}
	arrival, err := h.tick(row, "arrival_time")
	if err != nil {
		return nil, err
	}
	duration, err := h.tick(row, "duration")
	if err != nil {
		return nil, err
	}
	if arrival < 0 {
		return nil, fmt.Errorf("VM %s: negative arrival time %d", id, arrival)
	}
	if duration < 0 {
		return nil, fmt.Errorf("VM %s: negative duration %d", id, duration)
	}
	return sim.NewVM(id, h.str(row, "user_id"), demand, arrival, duration), nil
}

// ExportVMs writes vms in the format LoadVMs reads.
func ExportVMs(path string, vms []*sim.VM) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating workload file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(vmColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, vm := range vms {
		row := []string{
			vm.ID,
			vm.UserID,
			strconv.FormatFloat(vm.Demand.Compute, 'f', -1, 64),
			strconv.FormatFloat(vm.Demand.Memory, 'f', -1, 64),
			strconv.FormatFloat(vm.Demand.Bandwidth, 'f', -1, 64),
			strconv.FormatFloat(vm.Demand.Storage, 'f', -1, 64),
			strconv.FormatInt(vm.Arrival, 10),
			strconv.FormatInt(vm.Duration, 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing VM %s: %w", vm.UID(), err)
		}
	}
	writer.Flush()
	return writer.Error()
}
