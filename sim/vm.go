package sim

import "fmt"

// HostRef locates a host inside a cloud: the owning datacenter id and the
// host id within it.
type HostRef struct {
	Datacenter string
	Host       int
}

// VM is a virtual machine request and, once placed, its live allocation.
type VM struct {
	ID     string
	UserID string
	Demand Resources
	// Arrival is the tick at which the request reaches the broker.
	Arrival int64
	// Duration is the residency in ticks once placed.
	Duration int64

	// written only by Provisioners
	allocated Resources
	// written only by Host
	host   HostRef
	placed bool
}

// NewVM creates an unplaced VM.
func NewVM(id, userID string, demand Resources, arrival, duration int64) *VM {
	return &VM{
		ID:       id,
		UserID:   userID,
		Demand:   demand,
		Arrival:  arrival,
		Duration: duration,
	}
}

// UID is the cloud-wide identifier used as the key of every ledger.
func (vm *VM) UID() string {
	return vm.UserID + "-" + vm.ID
}

// Allocated returns the amount of kind currently held by the VM.
func (vm *VM) Allocated(kind ResourceKind) float64 {
	return vm.allocated.Get(kind)
}

// AllocatedResources returns every allocated amount.
func (vm *VM) AllocatedResources() Resources {
	return vm.allocated
}

// Host returns where the VM is placed, if anywhere.
func (vm *VM) Host() (HostRef, bool) {
	return vm.host, vm.placed
}

func (vm *VM) String() string {
	return fmt.Sprintf("VM %s (user %s, compute=%.0f mem=%.0f bw=%.0f storage=%.0f)",
		vm.ID, vm.UserID, vm.Demand.Compute, vm.Demand.Memory, vm.Demand.Bandwidth, vm.Demand.Storage)
}
