package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// AllocationPolicy places VMs on the hosts of one datacenter.
// Implementations keep exactly one placement-table entry per placed VM.
type AllocationPolicy interface {
	Allocate(vm *VM) bool
	Deallocate(vm *VM)
	HostOf(vm *VM) (*Host, bool)
}

// ValidAllocationPolicies is the set of recognized VM allocation policy names.
var ValidAllocationPolicies = map[string]bool{"": true, "first-fit": true, "least-available-compute": true}

// IsValidAllocationPolicy returns true if name is a recognized allocation policy.
func IsValidAllocationPolicy(name string) bool {
	return ValidAllocationPolicies[name]
}

// NewAllocationPolicy creates an allocation policy over hosts by name.
// Empty string means first-fit. Panics on unrecognized names or an empty pool.
func NewAllocationPolicy(name string, hosts []*Host) AllocationPolicy {
	if len(hosts) == 0 {
		panic("NewAllocationPolicy: empty host pool")
	}
	if !ValidAllocationPolicies[name] {
		panic(fmt.Sprintf("unknown allocation policy %q", name))
	}
	table := placementTable{hosts: hosts, table: make(map[string]int)}
	switch name {
	case "", "first-fit":
		return &FirstFitAllocation{placementTable: table}
	case "least-available-compute":
		return &LeastAvailableComputeAllocation{placementTable: table}
	default:
		panic(fmt.Sprintf("unhandled allocation policy %q", name))
	}
}

// placementTable maps VM uid to an index in the host arena.
type placementTable struct {
	hosts []*Host
	table map[string]int
}

func (pt *placementTable) place(vm *VM, idx int) bool {
	if !pt.hosts[idx].CreateVM(vm) {
		return false
	}
	pt.table[vm.UID()] = idx
	return true
}

// Deallocate destroys vm on its host and drops the table entry.
func (pt *placementTable) Deallocate(vm *VM) {
	idx, ok := pt.table[vm.UID()]
	if !ok {
		return
	}
	pt.hosts[idx].DestroyVM(vm)
	delete(pt.table, vm.UID())
}

// HostOf returns the host vm was placed on by this policy.
func (pt *placementTable) HostOf(vm *VM) (*Host, bool) {
	idx, ok := pt.table[vm.UID()]
	if !ok {
		return nil, false
	}
	return pt.hosts[idx], true
}

// Len returns the number of placed VMs.
func (pt *placementTable) Len() int { return len(pt.table) }

// FirstFitAllocation places each VM on the first host, in id order, that is
// suitable and accepts it. Re-allocating a placed VM moves it.
type FirstFitAllocation struct {
	placementTable
}

// Allocate implements AllocationPolicy for FirstFitAllocation.
func (ff *FirstFitAllocation) Allocate(vm *VM) bool {
	ff.Deallocate(vm)
	for i, h := range ff.hosts {
		if h.IsSuitableForVM(vm) && ff.place(vm, i) {
			logrus.Debugf("first-fit placed %s on host %d", vm.UID(), h.ID())
			return true
		}
	}
	return false
}

// LeastAvailableComputeAllocation tries suitable hosts in ascending order of
// available compute, ties broken by host id, which packs VMs onto the fullest
// host that still fits.
type LeastAvailableComputeAllocation struct {
	placementTable
}

// Allocate implements AllocationPolicy for LeastAvailableComputeAllocation.
func (lc *LeastAvailableComputeAllocation) Allocate(vm *VM) bool {
	lc.Deallocate(vm)
	candidates := make([]int, 0, len(lc.hosts))
	for i, h := range lc.hosts {
		if h.IsSuitableForVM(vm) {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		ha, hb := lc.hosts[candidates[a]], lc.hosts[candidates[b]]
		if ha.Available(Compute) != hb.Available(Compute) {
			return ha.Available(Compute) < hb.Available(Compute)
		}
		return ha.ID() < hb.ID()
	})
	for _, idx := range candidates {
		if lc.place(vm, idx) {
			logrus.Debugf("least-available-compute placed %s on host %d", vm.UID(), lc.hosts[idx].ID())
			return true
		}
	}
	return false
}
