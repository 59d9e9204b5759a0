package cloud

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/cloudsim/sim"
)

// Datacenter owns a host arena, the allocation policy over it and, for power
// datacenters, an energy account.
type Datacenter struct {
	id      string
	index   int
	hosts   []*sim.Host
	policy  sim.AllocationPolicy
	vms     []*sim.VM
	energy  *EnergyAccount
	kernel  *sim.Kernel
	metrics *DatacenterMetrics
	run     *Metrics

	created   int
	rejected  int
	destroyed int
}

// NewDatacenter adopts hosts and builds the named allocation policy over
// them. energy may be nil for a datacenter without power accounting.
// Panics on an empty host pool.
func NewDatacenter(id string, hosts []*sim.Host, allocationPolicy string, energy *EnergyAccount) *Datacenter {
	if len(hosts) == 0 {
		panic(fmt.Sprintf("NewDatacenter %s: empty host pool", id))
	}
	for _, h := range hosts {
		h.SetDatacenter(id)
	}
	return &Datacenter{
		id:     id,
		hosts:  hosts,
		policy: sim.NewAllocationPolicy(allocationPolicy, hosts),
		energy: energy,
	}
}

// BuildDatacenter instantiates spec with one energy account per datacenter.
func BuildDatacenter(spec sim.DatacenterSpec, powerModel, allocationPolicy string, traces EnergyTraces, batteryCapacity float64) (*Datacenter, error) {
	hosts, err := spec.BuildHosts(powerModel)
	if err != nil {
		return nil, err
	}
	return NewDatacenter(spec.ID, hosts, allocationPolicy, NewEnergyAccount(traces, batteryCapacity)), nil
}

// attach binds the datacenter to a kernel, its position in the cloud and its metrics.
func (d *Datacenter) attach(k *sim.Kernel, index int, m *Metrics) {
	d.kernel = k
	d.index = index
	d.metrics = m.Datacenter(d.id)
	d.run = m
}

// ID returns the datacenter id.
func (d *Datacenter) ID() string { return d.id }

// Index returns the position in the cloud's datacenter list.
func (d *Datacenter) Index() int { return d.index }

// Hosts returns the host arena.
func (d *Datacenter) Hosts() []*sim.Host { return d.hosts }

// VMs returns the resident VMs in placement order.
func (d *Datacenter) VMs() []*sim.VM { return d.vms }

// Energy returns the energy account, or nil.
func (d *Datacenter) Energy() *EnergyAccount { return d.energy }

// Created returns the number of VMs placed here.
func (d *Datacenter) Created() int { return d.created }

// Rejected returns the number of placement attempts turned down here.
func (d *Datacenter) Rejected() int { return d.rejected }

// Destroyed returns the number of VMs that left after their residency.
func (d *Datacenter) Destroyed() int { return d.destroyed }

func (d *Datacenter) now() int64 {
	if d.kernel == nil {
		return 0
	}
	return d.kernel.Now()
}

// ProcessVMCreate places vm on a host and schedules its destruction after
// vm.Duration. It never suspends the caller.
func (d *Datacenter) ProcessVMCreate(vm *sim.VM) bool {
	if d.kernel == nil {
		panic(fmt.Sprintf("Datacenter %s: not attached to a kernel", d.id))
	}
	if !d.policy.Allocate(vm) {
		logrus.Warnf("[tick %07d] %s: no host can take VM %s", d.now(), d.id, vm.UID())
		d.rejected++
		if d.metrics != nil {
			d.metrics.Rejections.Inc(1)
		}
		return false
	}
	d.vms = append(d.vms, vm)
	d.created++
	host, _ := d.policy.HostOf(vm)
	logrus.Infof("[tick %07d] VM %s created on host %d of %s", d.now(), vm.UID(), host.ID(), d.id)

	d.kernel.ProcessDelayed(vm.Duration, "destroy "+vm.UID(), func(p *sim.Process) error {
		d.ProcessVMDestroy(vm)
		return nil
	})
	d.refreshPower()
	if d.metrics != nil {
		d.metrics.Placements.Inc(1)
	}
	return true
}

// ProcessVMDestroy releases vm and refreshes the power draw.
func (d *Datacenter) ProcessVMDestroy(vm *sim.VM) {
	if _, ok := d.policy.HostOf(vm); !ok {
		return
	}
	d.policy.Deallocate(vm)
	for i, resident := range d.vms {
		if resident == vm {
			d.vms = append(d.vms[:i], d.vms[i+1:]...)
			break
		}
	}
	d.destroyed++
	if d.run != nil {
		d.run.Destroyed.Inc(1)
	}
	logrus.Infof("[tick %07d] VM %s destroyed in %s", d.now(), vm.UID(), d.id)
	d.refreshPower()
}

func (d *Datacenter) refreshPower() {
	if d.energy != nil {
		d.energy.Update(d.now(), d.ITPower())
	}
	if d.metrics != nil {
		d.metrics.ResidentVMs.Update(float64(len(d.vms)))
		d.metrics.PowerWatts.Update(d.Power())
	}
}

// IsSuitableForVM reports whether any host could take vm.
func (d *Datacenter) IsSuitableForVM(vm *sim.VM) bool {
	for _, h := range d.hosts {
		if h.IsSuitableForVM(vm) {
			return true
		}
	}
	return false
}

// AvgUtilization returns the mean compute utilization across hosts.
func (d *Datacenter) AvgUtilization() float64 {
	utils := make([]float64, len(d.hosts))
	for i, h := range d.hosts {
		utils[i] = h.Provisioner(sim.Compute).Utilization()
	}
	return stat.Mean(utils, nil)
}

// ITPower returns the summed host draw in watts.
func (d *Datacenter) ITPower() float64 {
	total := 0.0
	for _, h := range d.hosts {
		total += h.Power()
	}
	return total
}

// MaxITPower returns the summed peak host draw in watts.
func (d *Datacenter) MaxITPower() float64 {
	total := 0.0
	for _, h := range d.hosts {
		total += h.MaxPower()
	}
	return total
}

// Power returns the facility draw now. Without an energy account it is the IT draw.
func (d *Datacenter) Power() float64 {
	if d.energy == nil {
		return d.ITPower()
	}
	return d.energy.Power(d.now())
}

// Green returns the stored green energy now.
func (d *Datacenter) Green() float64 {
	if d.energy == nil {
		return 0
	}
	return d.energy.Green(d.now())
}

// BrownCost sums the brown cost over the last window timesteps; window <= 0
// covers the whole history.
func (d *Datacenter) BrownCost(window int) float64 {
	if d.energy == nil {
		return 0
	}
	return d.energy.BrownCost(d.now(), window)
}

// Reward is the energy account's reward signal now.
func (d *Datacenter) Reward() float64 {
	if d.energy == nil {
		return 0
	}
	return d.energy.Reward(d.now())
}

// PUE returns the current PUE.
func (d *Datacenter) PUE() float64 {
	if d.energy == nil {
		return 1
	}
	return d.energy.PUE(d.now())
}

// BrownPrice returns the current brown price.
func (d *Datacenter) BrownPrice() float64 {
	if d.energy == nil {
		return 0
	}
	return d.energy.BrownPrice(d.now())
}

// MaxPUE returns the largest PUE in the trace.
func (d *Datacenter) MaxPUE() float64 {
	if d.energy == nil {
		return 1
	}
	return d.energy.MaxPUE()
}

// MaxBrownPrice returns the largest brown price in the trace.
func (d *Datacenter) MaxBrownPrice() float64 {
	if d.energy == nil {
		return 0
	}
	return d.energy.MaxBrownPrice()
}

// MaxCost bounds the brown cost of one timestep: every host at peak, worst
// PUE, highest price, no green.
func (d *Datacenter) MaxCost() float64 {
	return d.MaxITPower() * d.MaxPUE() * d.MaxBrownPrice()
}

// BatteryCapacity returns the green storage cap.
func (d *Datacenter) BatteryCapacity() float64 {
	if d.energy == nil {
		return 0
	}
	return d.energy.BatteryCapacity()
}
