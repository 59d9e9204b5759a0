package cloud

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/trace"
)

// Cloud routes creation requests to datacenters through a selection policy,
// retrying on rejection at most once per datacenter.
type Cloud struct {
	kernel      *sim.Kernel
	datacenters []*Datacenter
	policy      SelectionPolicy
	broker      *Broker
	metrics     *Metrics
	trace       *trace.SimulationTrace
}

// NewCloud attaches dcs to k in list order. metrics may be nil; tr may be nil
// to disable decision tracing. Panics on an empty pool.
func NewCloud(k *sim.Kernel, dcs []*Datacenter, policy SelectionPolicy, metrics *Metrics, tr *trace.SimulationTrace) *Cloud {
	if len(dcs) == 0 {
		panic("NewCloud: empty datacenter pool")
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	for i, dc := range dcs {
		dc.attach(k, i, metrics)
	}
	return &Cloud{
		kernel:      k,
		datacenters: dcs,
		policy:      policy,
		metrics:     metrics,
		trace:       tr,
	}
}

// AttachBroker links the broker that receives acknowledgements.
func (c *Cloud) AttachBroker(b *Broker) {
	c.broker = b
	b.cloud = c
}

// Run is the cloud's startup process body. Requests arrive through
// ProcessVMCreate, so it only announces the pool and yields.
func (c *Cloud) Run(p *sim.Process) error {
	logrus.Infof("[tick %07d] cloud started with %d datacenters", p.Now(), len(c.datacenters))
	return p.Timeout(0)
}

// Datacenters returns the pool in selection-index order.
func (c *Cloud) Datacenters() []*Datacenter { return c.datacenters }

// ProcessVMCreate tries up to len(datacenters) placements for vm, then
// acknowledges the outcome to the broker in a child process that p waits on.
func (c *Cloud) ProcessVMCreate(p *sim.Process, vm *sim.VM) error {
	c.metrics.Requests.Inc(1)
	for attempt := 1; attempt <= len(c.datacenters); attempt++ {
		idx := c.policy.Select(vm)
		if idx < 0 || idx >= len(c.datacenters) {
			panic(fmt.Sprintf("Cloud: selection policy returned index %d for %d datacenters", idx, len(c.datacenters)))
		}
		dc := c.datacenters[idx]
		c.metrics.Attempts.Inc(1)
		ok := dc.ProcessVMCreate(vm)
		c.recordSelection(vm, attempt, dc, ok)
		if ok {
			c.policy.Accept()
			c.metrics.Created.Inc(1)
			return c.acknowledge(p, Acknowledgement{
				Kind:    AckCreated,
				VMID:    vm.ID,
				Message: fmt.Sprintf("VM created in %s", dc.ID()),
			})
		}
		if !c.policy.Reject() {
			break
		}
	}
	logrus.Warnf("[tick %07d] VM %s rejected by every datacenter tried", p.Now(), vm.UID())
	c.metrics.Rejected.Inc(1)
	return c.acknowledge(p, Acknowledgement{
		Kind:    AckRejected,
		VMID:    vm.ID,
		Message: "VM creation request rejected",
	})
}

func (c *Cloud) acknowledge(p *sim.Process, ack Acknowledgement) error {
	if c.trace != nil {
		c.trace.RecordAck(trace.AckRecord{VMID: ack.VMID, Clock: p.Now(), Created: ack.Kind == AckCreated})
	}
	if c.broker == nil {
		return nil
	}
	child := p.Kernel().Process("ack "+ack.VMID, func(ap *sim.Process) error {
		ack.Clock = ap.Now()
		c.broker.ProcessAck(ack)
		return nil
	})
	return p.Wait(child)
}

func (c *Cloud) recordSelection(vm *sim.VM, attempt int, dc *Datacenter, accepted bool) {
	if c.trace == nil {
		return
	}
	c.trace.RecordSelection(trace.SelectionRecord{
		VMID:       vm.UID(),
		Clock:      c.kernel.Now(),
		Attempt:    attempt,
		Datacenter: dc.ID(),
		Accepted:   accepted,
	})
}

// Monitor is a process body that samples every datacenter's energy account
// each interval ticks, keeping histories and gauges current between
// placements. It returns when interrupted.
func (c *Cloud) Monitor(interval int64) sim.ProcessFunc {
	if interval <= 0 {
		panic(fmt.Sprintf("Cloud.Monitor: interval must be positive, got %d", interval))
	}
	return func(p *sim.Process) error {
		for {
			for _, dc := range c.datacenters {
				dc.metrics.PowerWatts.Update(dc.Power())
				dc.metrics.StoredGreen.Update(dc.Green())
				dc.metrics.BrownCostSum.Update(dc.BrownCost(0))
			}
			if err := p.Timeout(interval); err != nil {
				if _, ok := sim.AsInterrupt(err); ok {
					logrus.Debugf("[tick %07d] energy monitor stopped", p.Now())
					return nil
				}
				return err
			}
		}
	}
}
