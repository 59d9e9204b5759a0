package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Forever is the horizon used by Run.
const Forever int64 = math.MaxInt64

type queuedEvent struct {
	ev  Event
	seq uint64
}

// EventQueue implements heap.Interface and orders events by (timestamp, submission sequence).
// Events scheduled for the same tick fire in the order they were scheduled.
type EventQueue []queuedEvent

func (eq EventQueue) Len() int { return len(eq) }
func (eq EventQueue) Less(i, j int) bool {
	ti, tj := eq[i].ev.Timestamp(), eq[j].ev.Timestamp()
	if ti != tj {
		return ti < tj
	}
	return eq[i].seq < eq[j].seq
}
func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(queuedEvent))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Kernel is the discrete-event core: it holds the clock, the pending event
// queue and the bookkeeping for cooperative processes.
//
// Thread-safety: exactly one goroutine (the caller of Run/RunUntil, or the one
// process it handed control to) touches kernel state at any moment.
type Kernel struct {
	clock    int64
	queue    EventQueue
	seq      uint64
	nextPID  uint64
	yield    chan struct{}
	active   *Process
	live     map[uint64]*Process
	panicked any
	executed int64
	closed   bool
}

// NewKernel creates a kernel with the clock at zero.
func NewKernel() *Kernel {
	return &Kernel{
		queue: make(EventQueue, 0),
		yield: make(chan struct{}),
		live:  make(map[uint64]*Process),
	}
}

// Now returns the current simulation time in ticks.
func (k *Kernel) Now() int64 {
	return k.clock
}

// Pending returns the number of events still queued.
func (k *Kernel) Pending() int {
	return len(k.queue)
}

// Executed returns the number of events executed so far.
func (k *Kernel) Executed() int64 {
	return k.executed
}

// Schedule pushes an event into the queue. Events in the past are a programming error.
func (k *Kernel) Schedule(ev Event) {
	if ev.Timestamp() < k.clock {
		panic(fmt.Sprintf("Kernel.Schedule: event %T at %d is before current time %d", ev, ev.Timestamp(), k.clock))
	}
	heap.Push(&k.queue, queuedEvent{ev: ev, seq: k.seq})
	k.seq++
}

// Run drains the queue completely.
func (k *Kernel) Run() {
	k.RunUntil(Forever)
}

// RunUntil executes every event whose fire time is <= until, then leaves the
// clock at until. Events after the horizon stay queued and never run.
func (k *Kernel) RunUntil(until int64) {
	if k.active != nil {
		panic("Kernel.RunUntil: called from inside a process")
	}
	if k.closed {
		panic("Kernel.RunUntil: kernel is closed")
	}
	for len(k.queue) > 0 {
		if k.queue[0].ev.Timestamp() > until {
			break
		}
		item := heap.Pop(&k.queue).(queuedEvent)
		k.clock = item.ev.Timestamp()
		k.executed++
		item.ev.Execute(k)
	}
	if until != Forever && until > k.clock {
		k.clock = until
	}
	logrus.Debugf("[tick %07d] kernel paused with %d pending events", k.clock, len(k.queue))
}

// Close terminates the goroutines of every process still suspended. The
// kernel cannot be run again afterwards.
func (k *Kernel) Close() {
	if k.closed {
		return
	}
	k.closed = true
	for _, p := range k.liveProcesses() {
		if p.state != stateSuspended && p.state != statePending {
			continue
		}
		if !p.started {
			p.state = stateDone
			delete(k.live, p.id)
			continue
		}
		p.killed = true
		p.wake <- errKilled
		<-k.yield
	}
	k.queue = k.queue[:0]
}

// liveProcesses returns live processes in creation order so shutdown is deterministic.
func (k *Kernel) liveProcesses() []*Process {
	out := make([]*Process, 0, len(k.live))
	for id := uint64(0); id < k.nextPID; id++ {
		if p, ok := k.live[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// resume transfers control to p and blocks until p suspends or finishes.
func (k *Kernel) resume(p *Process, err error) {
	k.active = p
	p.state = stateRunning
	if !p.started {
		p.started = true
		go p.body()
	} else {
		p.wake <- err
	}
	<-k.yield
	k.active = nil
	if k.panicked != nil {
		v := k.panicked
		k.panicked = nil
		panic(v)
	}
}
