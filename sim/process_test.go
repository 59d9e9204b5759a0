package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_Timeout_ResumesAtDelay(t *testing.T) {
	k := NewKernel()
	var wokeAt []int64
	k.Process("sleeper", func(p *Process) error {
		for i := 0; i < 3; i++ {
			if err := p.Timeout(4); err != nil {
				return err
			}
			wokeAt = append(wokeAt, p.Now())
		}
		return nil
	})
	k.Run()
	assert.Equal(t, []int64{4, 8, 12}, wokeAt)
}

func TestProcess_ZeroTimeout_YieldsToSameTickPeers(t *testing.T) {
	// GIVEN two processes started at the same tick
	k := NewKernel()
	var order []string
	k.Process("a", func(p *Process) error {
		order = append(order, "a1")
		_ = p.Timeout(0)
		order = append(order, "a2")
		return nil
	})
	k.Process("b", func(p *Process) error {
		order = append(order, "b1")
		return nil
	})

	// WHEN run
	k.Run()

	// THEN a's zero timeout lets b run before a continues
	assert.Equal(t, []string{"a1", "b1", "a2"}, order)
}

func TestProcess_Wait_ReturnsChildResult(t *testing.T) {
	k := NewKernel()
	childErr := errors.New("child failed")
	var got error
	var resumedAt int64
	k.Process("parent", func(p *Process) error {
		child := p.Kernel().ProcessDelayed(7, "child", func(c *Process) error {
			return childErr
		})
		got = p.Wait(child)
		resumedAt = p.Now()
		return nil
	})
	k.Run()
	assert.ErrorIs(t, got, childErr)
	assert.Equal(t, int64(7), resumedAt)
}

func TestProcess_Wait_FinishedChild_ReturnsImmediately(t *testing.T) {
	k := NewKernel()
	child := k.Process("child", func(c *Process) error { return nil })
	k.Run()
	require.True(t, child.Done())

	returned := false
	k.Process("parent", func(p *Process) error {
		assert.NoError(t, p.Wait(child))
		returned = true
		return nil
	})
	k.Run()
	assert.True(t, returned)
}

func TestProcess_Interrupt_AbortsTimeout(t *testing.T) {
	// GIVEN a sleeper and an interrupter that fires at tick 3
	k := NewKernel()
	var caught *Interrupt
	var wokeAt int64
	sleeper := k.Process("sleeper", func(p *Process) error {
		err := p.Timeout(100)
		if intr, ok := AsInterrupt(err); ok {
			caught = intr
		}
		wokeAt = p.Now()
		return nil
	})
	k.Process("interrupter", func(p *Process) error {
		_ = p.Timeout(3)
		assert.True(t, sleeper.Interrupt("shutdown"))
		return nil
	})

	// WHEN run to completion
	k.Run()

	// THEN the sleeper woke early with the cause and the stale wake-up at 100 was dropped
	require.NotNil(t, caught)
	assert.Equal(t, "shutdown", caught.Cause)
	assert.Equal(t, int64(3), wokeAt)
	assert.True(t, sleeper.Done())
	assert.Equal(t, int64(100), k.Now(), "the stale event still pops, but does nothing")
}

func TestProcess_Interrupt_DelayedStartNeverRunsBody(t *testing.T) {
	k := NewKernel()
	ran := false
	delayed := k.ProcessDelayed(50, "destroy", func(p *Process) error {
		ran = true
		return nil
	})
	k.Process("canceller", func(p *Process) error {
		_ = p.Timeout(10)
		delayed.Interrupt("cancelled")
		return nil
	})
	k.Run()
	assert.False(t, ran)
	_, isInterrupt := AsInterrupt(delayed.Err())
	assert.True(t, isInterrupt)
}

func TestProcess_Interrupt_CanBeCaughtAndWaitContinued(t *testing.T) {
	// GIVEN a parent waiting on a child, interrupted once
	k := NewKernel()
	var interrupts int
	var finishedAt int64
	var parent *Process
	parent = k.Process("parent", func(p *Process) error {
		child := p.Kernel().ProcessDelayed(20, "child", func(*Process) error { return nil })
		for {
			err := p.Wait(child)
			if _, ok := AsInterrupt(err); ok {
				interrupts++
				continue
			}
			finishedAt = p.Now()
			return err
		}
	})
	k.Process("poke", func(p *Process) error {
		_ = p.Timeout(5)
		parent.Interrupt("poke")
		return nil
	})

	// WHEN run
	k.Run()

	// THEN the parent handled the interrupt and still observed the child's completion
	assert.Equal(t, 1, interrupts)
	assert.Equal(t, int64(20), finishedAt)
}

func TestProcess_Interrupt_NotSuspended_IsNoop(t *testing.T) {
	k := NewKernel()
	done := k.Process("done", func(*Process) error { return nil })
	pending := k.Process("pending", func(*Process) error { return nil })
	assert.False(t, pending.Interrupt("too early"))
	k.Run()
	assert.False(t, done.Interrupt("too late"))

	k.Process("self", func(p *Process) error {
		assert.False(t, p.Interrupt("self"))
		return nil
	})
	k.Run()
}

func TestProcess_TimeoutOutsideProcess_Panics(t *testing.T) {
	k := NewKernel()
	p := k.Process("idle", func(*Process) error { return nil })
	assert.Panics(t, func() { _ = p.Timeout(1) })
}
