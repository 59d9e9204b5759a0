package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all kernel events.
// Each event must have a Timestamp (in ticks) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() int64
	Execute(*Kernel)
}

// FuncEvent runs an arbitrary callback at a fixed time.
type FuncEvent struct {
	time int64
	Name string
	Fn   func(*Kernel)
}

// NewFuncEvent creates a FuncEvent firing at the given time.
func NewFuncEvent(time int64, name string, fn func(*Kernel)) *FuncEvent {
	return &FuncEvent{time: time, Name: name, Fn: fn}
}

// Timestamp returns the scheduled time of the FuncEvent.
func (e *FuncEvent) Timestamp() int64 {
	return e.time
}

// Execute invokes the callback.
func (e *FuncEvent) Execute(k *Kernel) {
	logrus.Debugf("<< %s at %d ticks", e.Name, e.time)
	e.Fn(k)
}

// resumeEvent hands control back to a suspended process. The token must match
// the process's current wait, otherwise the wake-up is stale and dropped.
type resumeEvent struct {
	time  int64
	proc  *Process
	token uint64
	err   error
}

// Timestamp returns the scheduled time of the resumeEvent.
func (e *resumeEvent) Timestamp() int64 {
	return e.time
}

// Execute resumes the process if the wake-up is still current.
func (e *resumeEvent) Execute(k *Kernel) {
	p := e.proc
	if p.state == stateDone || p.token != e.token {
		logrus.Debugf("<< dropping stale wake-up of %s at %d ticks", p.name, e.time)
		return
	}
	k.resume(p, e.err)
}
