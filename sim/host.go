package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// allocationOrder is the order in which CreateVM reserves resources.
var allocationOrder = [...]ResourceKind{Bandwidth, Memory, Compute, Storage}

// Host is a physical machine with one Provisioner per resource kind and an
// optional power model.
type Host struct {
	id           int
	datacenter   string
	provisioners [numResourceKinds]*Provisioner
	vms          []*VM
	power        PowerModel
}

// NewHost creates a host with the given capacities. model may be nil for
// hosts whose power draw is not tracked.
func NewHost(id int, capacity Resources, model PowerModel) *Host {
	if err := capacity.Validate(); err != nil {
		panic(fmt.Sprintf("NewHost %d: %v", id, err))
	}
	h := &Host{id: id, power: model}
	for _, kind := range ResourceKinds {
		h.provisioners[kind] = NewProvisioner(kind, capacity.Get(kind))
	}
	return h
}

// ID returns the host id, unique within its datacenter.
func (h *Host) ID() int { return h.id }

// Datacenter returns the owning datacenter id.
func (h *Host) Datacenter() string { return h.datacenter }

// SetDatacenter records the owning datacenter. Called once by the datacenter
// that adopts the host.
func (h *Host) SetDatacenter(id string) { h.datacenter = id }

// Ref returns the host's stable reference.
func (h *Host) Ref() HostRef { return HostRef{Datacenter: h.datacenter, Host: h.id} }

// Provisioner returns the ledger for kind.
func (h *Host) Provisioner(kind ResourceKind) *Provisioner { return h.provisioners[kind] }

// VMs returns the resident VMs in placement order.
func (h *Host) VMs() []*VM { return h.vms }

// Capacity returns the total amount of kind.
func (h *Host) Capacity(kind ResourceKind) float64 { return h.provisioners[kind].Capacity() }

// Available returns the free amount of kind.
func (h *Host) Available(kind ResourceKind) float64 { return h.provisioners[kind].Available() }

// Utilization returns the used fraction of every kind.
func (h *Host) Utilization() Resources {
	var u Resources
	for _, kind := range ResourceKinds {
		u.Set(kind, h.provisioners[kind].Utilization())
	}
	return u
}

// IsSuitableForVM reports whether every ledger could take the VM's demand.
func (h *Host) IsSuitableForVM(vm *VM) bool {
	for _, kind := range ResourceKinds {
		if !h.provisioners[kind].IsSuitable(vm, vm.Demand.Get(kind)) {
			return false
		}
	}
	return true
}

// CreateVM reserves the VM's full demand, or nothing. Resources are taken in
// the order bandwidth, memory, compute, storage; on the first failure every
// reservation made so far is released.
func (h *Host) CreateVM(vm *VM) bool {
	for i, kind := range allocationOrder {
		if h.provisioners[kind].Allocate(vm, vm.Demand.Get(kind)) {
			continue
		}
		logrus.Warnf("Allocation of %s for %s failed on host %d of %s", kind, vm, h.id, h.datacenter)
		for _, done := range allocationOrder[:i] {
			h.provisioners[done].Deallocate(vm)
		}
		return false
	}
	h.vms = append(h.vms, vm)
	vm.host = h.Ref()
	vm.placed = true
	return true
}

// DestroyVM releases every reservation of vm and drops it from the resident list.
func (h *Host) DestroyVM(vm *VM) {
	for _, kind := range ResourceKinds {
		h.provisioners[kind].Deallocate(vm)
	}
	for i, resident := range h.vms {
		if resident == vm {
			h.vms = append(h.vms[:i], h.vms[i+1:]...)
			break
		}
	}
	if vm.placed && vm.host == h.Ref() {
		vm.placed = false
		vm.host = HostRef{}
	}
}

// DestroyAllVMs evicts every resident VM.
func (h *Host) DestroyAllVMs() {
	for len(h.vms) > 0 {
		h.DestroyVM(h.vms[0])
	}
}

// Power returns the current draw in watts, or 0 without a power model.
func (h *Host) Power() float64 {
	if h.power == nil {
		return 0
	}
	return h.power.Power(h.Utilization())
}

// MaxPower returns the peak draw in watts, or 0 without a power model.
func (h *Host) MaxPower() float64 {
	if h.power == nil {
		return 0
	}
	return h.power.MaxPower()
}
