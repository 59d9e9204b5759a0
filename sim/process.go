package sim

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
)

// ProcessFunc is the body of a cooperative process. It runs until it returns,
// suspending only through the Process methods Timeout and Wait.
type ProcessFunc func(p *Process) error

type processState int

const (
	statePending processState = iota
	stateRunning
	stateSuspended
	stateDone
)

// errKilled is delivered to suspended processes when the kernel shuts down.
var errKilled = errors.New("kernel closed")

// Interrupt is returned from Timeout or Wait when another party aborted the wait.
type Interrupt struct {
	Cause any
}

func (i *Interrupt) Error() string {
	return fmt.Sprintf("interrupted: %v", i.Cause)
}

// AsInterrupt reports whether err carries an Interrupt.
func AsInterrupt(err error) (*Interrupt, bool) {
	var intr *Interrupt
	if errors.As(err, &intr) {
		return intr, true
	}
	return nil, false
}

type waiter struct {
	proc  *Process
	token uint64
}

// Process is a cooperative, kernel-scheduled coroutine backed by a goroutine.
// Only one process body executes at a time; control moves between the kernel
// and a process over unbuffered channels.
type Process struct {
	k       *Kernel
	id      uint64
	name    string
	fn      ProcessFunc
	state   processState
	started bool
	killed  bool
	token   uint64
	wake    chan error
	waiters []waiter
	err     error
}

// Process starts fn as a new process at the current time.
func (k *Kernel) Process(name string, fn ProcessFunc) *Process {
	p := &Process{
		k:    k,
		id:   k.nextPID,
		name: name,
		fn:   fn,
		wake: make(chan error),
	}
	k.nextPID++
	k.live[p.id] = p
	k.Schedule(&resumeEvent{time: k.clock, proc: p, token: p.token})
	logrus.Debugf("[tick %07d] process %s scheduled", k.clock, name)
	return p
}

// ProcessDelayed starts fn after delay ticks. The delay is a wait of the new
// process itself, so interrupting it during the delay returns the Interrupt
// without ever running fn.
func (k *Kernel) ProcessDelayed(delay int64, name string, fn ProcessFunc) *Process {
	if delay < 0 {
		panic(fmt.Sprintf("Kernel.ProcessDelayed: negative delay %d for %s", delay, name))
	}
	return k.Process(name, func(p *Process) error {
		if err := p.Timeout(delay); err != nil {
			return err
		}
		return fn(p)
	})
}

// Name returns the process name.
func (p *Process) Name() string { return p.name }

// Kernel returns the owning kernel.
func (p *Process) Kernel() *Kernel { return p.k }

// Now returns the kernel's current time.
func (p *Process) Now() int64 { return p.k.clock }

// Done reports whether the process body has returned.
func (p *Process) Done() bool { return p.state == stateDone }

// Err returns the error the process body returned, if it finished.
func (p *Process) Err() error { return p.err }

// Timeout suspends the calling process for delay ticks.
func (p *Process) Timeout(delay int64) error {
	p.mustBeActive("Timeout")
	if delay < 0 {
		panic(fmt.Sprintf("Process.Timeout: negative delay %d in %s", delay, p.name))
	}
	p.token++
	p.k.Schedule(&resumeEvent{time: p.k.clock + delay, proc: p, token: p.token})
	return p.suspend()
}

// Wait suspends the calling process until child finishes and returns the
// child's error. A finished child returns immediately.
func (p *Process) Wait(child *Process) error {
	p.mustBeActive("Wait")
	if child == p {
		panic(fmt.Sprintf("Process.Wait: %s cannot wait on itself", p.name))
	}
	if child.state == stateDone {
		return child.err
	}
	p.token++
	child.waiters = append(child.waiters, waiter{proc: p, token: p.token})
	return p.suspend()
}

// Interrupt aborts the process's current Timeout or Wait, which then returns
// an *Interrupt carrying cause. It returns false, and does nothing, when the
// process is not suspended.
func (p *Process) Interrupt(cause any) bool {
	if p.state != stateSuspended {
		return false
	}
	p.token++
	p.k.Schedule(&resumeEvent{time: p.k.clock, proc: p, token: p.token, err: &Interrupt{Cause: cause}})
	logrus.Debugf("[tick %07d] process %s interrupted: %v", p.k.clock, p.name, cause)
	return true
}

func (p *Process) mustBeActive(op string) {
	if p.k.active != p {
		panic(fmt.Sprintf("Process.%s: %s is not the running process", op, p.name))
	}
}

func (p *Process) suspend() error {
	p.state = stateSuspended
	p.k.yield <- struct{}{}
	err := <-p.wake
	if err == errKilled {
		runtime.Goexit()
	}
	return err
}

// body runs on the process goroutine.
func (p *Process) body() {
	var err error
	defer func() {
		if r := recover(); r != nil {
			p.k.panicked = r
			err = fmt.Errorf("process %s panicked: %v", p.name, r)
		}
		p.finish(err)
		p.k.yield <- struct{}{}
	}()
	err = p.fn(p)
}

func (p *Process) finish(err error) {
	p.state = stateDone
	p.err = err
	delete(p.k.live, p.id)
	if p.killed {
		return
	}
	for _, w := range p.waiters {
		p.k.Schedule(&resumeEvent{time: p.k.clock, proc: w.proc, token: w.token, err: err})
	}
	p.waiters = nil
	logrus.Debugf("[tick %07d] process %s finished", p.k.clock, p.name)
}
