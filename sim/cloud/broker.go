package cloud

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cloudsim/sim"
)

// AckKind is the outcome reported back to the broker.
type AckKind string

const (
	AckCreated  AckKind = "created"
	AckRejected AckKind = "rejected"
)

// Acknowledgement tells the broker how a creation request ended. It is
// observational only; no placement decision depends on it.
type Acknowledgement struct {
	Kind    AckKind
	VMID    string
	Message string
	Clock   int64
}

// Broker submits the workload to the cloud in arrival order and collects
// acknowledgements.
type Broker struct {
	cloud    *Cloud
	workload []*sim.VM
	acks     []Acknowledgement
	created  int
	rejected int
}

// NewBroker sorts vms by arrival time. VMs with equal arrival keep their
// input order.
func NewBroker(vms []*sim.VM) *Broker {
	workload := make([]*sim.VM, len(vms))
	copy(workload, vms)
	sort.SliceStable(workload, func(i, j int) bool {
		return workload[i].Arrival < workload[j].Arrival
	})
	return &Broker{workload: workload}
}

// Workload returns the VMs in submission order.
func (b *Broker) Workload() []*sim.VM { return b.workload }

// Run is the broker's process body: for each VM it waits until the arrival
// time and submits the request, one request at a time.
func (b *Broker) Run(p *sim.Process) error {
	if b.cloud == nil {
		panic("Broker.Run: broker is not attached to a cloud")
	}
	k := p.Kernel()
	for _, vm := range b.workload {
		send := func(rp *sim.Process) error {
			return b.cloud.ProcessVMCreate(rp, vm)
		}
		var request *sim.Process
		delay := vm.Arrival - p.Now()
		if delay <= 0 {
			if delay < 0 {
				logrus.Warnf("[tick %07d] VM %s arrived at %d, submitting late", p.Now(), vm.UID(), vm.Arrival)
			}
			request = k.Process("request "+vm.UID(), send)
		} else {
			request = k.ProcessDelayed(delay, "request "+vm.UID(), send)
		}
		if err := p.Wait(request); err != nil {
			return err
		}
	}
	logrus.Infof("[tick %07d] broker submitted all %d VMs", p.Now(), len(b.workload))
	return nil
}

// ProcessAck records an acknowledgement.
func (b *Broker) ProcessAck(ack Acknowledgement) {
	b.acks = append(b.acks, ack)
	switch ack.Kind {
	case AckCreated:
		b.created++
		logrus.Infof("[tick %07d] broker: VM %s %s", ack.Clock, ack.VMID, ack.Message)
	case AckRejected:
		b.rejected++
		logrus.Warnf("[tick %07d] broker: VM %s %s", ack.Clock, ack.VMID, ack.Message)
	}
}

// Acks returns every acknowledgement in arrival order.
func (b *Broker) Acks() []Acknowledgement { return b.acks }

// Created returns the number of created acknowledgements.
func (b *Broker) Created() int { return b.created }

// Rejected returns the number of rejected acknowledgements.
func (b *Broker) Rejected() int { return b.rejected }
