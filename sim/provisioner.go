package sim

import "fmt"

// Provisioner is the ledger of one resource kind on one host.
// Invariant: capacity - available equals the sum of the table.
type Provisioner struct {
	kind      ResourceKind
	capacity  float64
	available float64
	table     map[string]float64 // VM uid -> amount held
}

// NewProvisioner creates an empty ledger with the full capacity available.
func NewProvisioner(kind ResourceKind, capacity float64) *Provisioner {
	if capacity < 0 {
		panic(fmt.Sprintf("NewProvisioner: negative %s capacity %f", kind, capacity))
	}
	return &Provisioner{
		kind:      kind,
		capacity:  capacity,
		available: capacity,
		table:     make(map[string]float64),
	}
}

// Allocate reserves amount for vm, releasing whatever vm already held here
// first. On failure the VM is left holding nothing on this ledger.
func (p *Provisioner) Allocate(vm *VM, amount float64) bool {
	p.Deallocate(vm)
	if amount < 0 || p.available < amount {
		return false
	}
	p.available -= amount
	p.table[vm.UID()] = amount
	vm.allocated.Set(p.kind, amount)
	return true
}

// Deallocate releases vm's reservation. Unknown VMs are ignored.
func (p *Provisioner) Deallocate(vm *VM) {
	amount, ok := p.table[vm.UID()]
	if !ok {
		return
	}
	p.available += amount
	delete(p.table, vm.UID())
	vm.allocated.Set(p.kind, 0)
}

// IsSuitable reports whether Allocate(vm, amount) would succeed, without
// changing the ledger or the VM. An existing reservation of vm counts as free.
func (p *Provisioner) IsSuitable(vm *VM, amount float64) bool {
	if amount < 0 {
		return false
	}
	return p.available+p.table[vm.UID()] >= amount
}

// AllocatedFor returns what vm holds here.
func (p *Provisioner) AllocatedFor(vm *VM) float64 {
	return p.table[vm.UID()]
}

// Kind returns the resource kind.
func (p *Provisioner) Kind() ResourceKind { return p.kind }

// Capacity returns the total amount.
func (p *Provisioner) Capacity() float64 { return p.capacity }

// Available returns the unreserved amount.
func (p *Provisioner) Available() float64 { return p.available }

// Used returns the reserved amount.
func (p *Provisioner) Used() float64 { return p.capacity - p.available }

// Len returns the number of VMs holding a reservation.
func (p *Provisioner) Len() int { return len(p.table) }

// Utilization returns Used/Capacity, or 0 for an empty ledger.
func (p *Provisioner) Utilization() float64 {
	if p.capacity == 0 {
		return 0
	}
	return p.Used() / p.capacity
}

// TableSum returns the sum of all reservations.
func (p *Provisioner) TableSum() float64 {
	sum := 0.0
	for _, v := range p.table {
		sum += v
	}
	return sum
}
