package cloud

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// EnergyTraces are the exogenous per-timestep inputs of one datacenter.
type EnergyTraces struct {
	PUE        *Series
	Solar      *Series
	BrownPrice *Series
}

// DefaultEnergyTraces returns PUE 1, no solar and a brown price of 1.
func DefaultEnergyTraces() EnergyTraces {
	return EnergyTraces{
		PUE:        ConstantSeries("pue", 1),
		Solar:      ConstantSeries("solar", 0),
		BrownPrice: ConstantSeries("brown_price", 1),
	}
}

// History is the per-timestep record of a datacenter's energy account.
// Index t holds timestep t.
type History struct {
	Power     []float64 // facility draw (IT draw x PUE)
	Green     []float64 // green energy stored at the end of the timestep
	BrownCost []float64 // cost of the brown energy bought in the timestep
	GreenUsed []float64 // green energy consumed in the timestep
}

// EnergyAccount extends the history lazily, one timestep at a time, whenever
// the IT draw changes or a reader asks for a value.
//
// Timestep t depends only on timestep t-1 and the traces at t. A timestep is
// fixed the first time it is computed: a draw set during a timestep that is
// already recorded takes effect from the next one.
type EnergyAccount struct {
	traces  EnergyTraces
	battery float64
	itPower float64
	history History
}

// NewEnergyAccount creates an empty account. Panics on missing traces or a
// negative battery capacity.
func NewEnergyAccount(traces EnergyTraces, batteryCapacity float64) *EnergyAccount {
	if traces.PUE == nil || traces.Solar == nil || traces.BrownPrice == nil {
		panic("NewEnergyAccount: every trace is required")
	}
	if batteryCapacity < 0 {
		panic(fmt.Sprintf("NewEnergyAccount: negative battery capacity %f", batteryCapacity))
	}
	return &EnergyAccount{traces: traces, battery: batteryCapacity}
}

// Update records a new IT draw at time now. Missing timesteps before now are
// filled with the previous draw. If timestep now is not yet recorded it uses
// the new draw, otherwise the new draw starts at now+1.
func (e *EnergyAccount) Update(now int64, itWatts float64) {
	if now < 0 {
		panic(fmt.Sprintf("EnergyAccount.Update: negative time %d", now))
	}
	n := int64(len(e.history.Power))
	if now < n-1 {
		panic(fmt.Sprintf("EnergyAccount.Update: time %d is before the open timestep %d", now, n-1))
	}
	for t := n; t < now; t++ {
		e.record(t, e.itPower)
	}
	if now >= n {
		e.record(now, itWatts)
	}
	e.itPower = itWatts
}

// Refresh extends the history through now with the current draw.
func (e *EnergyAccount) Refresh(now int64) {
	e.Update(now, e.itPower)
}

// record computes and appends timestep t.
func (e *EnergyAccount) record(t int64, itWatts float64) {
	draw := itWatts * e.traces.PUE.At(t)
	prevGreen := 0.0
	if t > 0 {
		prevGreen = e.history.Green[t-1]
	}
	carried := math.Min(prevGreen+e.traces.Solar.At(t), e.battery)

	var green, brown, used float64
	if carried >= draw {
		green = math.Min(carried-draw, e.battery)
		used = draw
	} else {
		brown = (draw - carried) * e.traces.BrownPrice.At(t)
		used = carried
	}

	h := &e.history
	h.Power = append(h.Power, draw)
	h.Green = append(h.Green, green)
	h.BrownCost = append(h.BrownCost, brown)
	h.GreenUsed = append(h.GreenUsed, used)
}

// Len returns the number of recorded timesteps.
func (e *EnergyAccount) Len() int { return len(e.history.Power) }

// History returns the recorded history. Callers must not modify it.
func (e *EnergyAccount) History() History { return e.history }

// ITPower returns the most recent IT draw in watts. It may not be reflected
// in the history until the next timestep.
func (e *EnergyAccount) ITPower() float64 { return e.itPower }

// Power returns the facility draw at now.
func (e *EnergyAccount) Power(now int64) float64 {
	e.Refresh(now)
	return e.history.Power[now]
}

// Green returns the green energy stored at the end of timestep now.
func (e *EnergyAccount) Green(now int64) float64 {
	e.Refresh(now)
	return e.history.Green[now]
}

// BrownCost sums the brown cost of the last window timesteps up to now.
// A window <= 0 sums the whole history.
func (e *EnergyAccount) BrownCost(now int64, window int) float64 {
	e.Refresh(now)
	costs := e.history.BrownCost
	if window > 0 && window < len(costs) {
		costs = costs[len(costs)-window:]
	}
	return floats.Sum(costs)
}

// Reward is the negated brown cost at now when any was incurred, otherwise
// the stored green surplus.
func (e *EnergyAccount) Reward(now int64) float64 {
	e.Refresh(now)
	if b := e.history.BrownCost[now]; b > 0 {
		return -b
	}
	return e.history.Green[now]
}

// PUE returns the PUE trace value at now.
func (e *EnergyAccount) PUE(now int64) float64 { return e.traces.PUE.At(now) }

// BrownPrice returns the brown price trace value at now.
func (e *EnergyAccount) BrownPrice(now int64) float64 { return e.traces.BrownPrice.At(now) }

// MaxPUE returns the trace maximum.
func (e *EnergyAccount) MaxPUE() float64 { return e.traces.PUE.Max() }

// MaxBrownPrice returns the trace maximum.
func (e *EnergyAccount) MaxBrownPrice() float64 { return e.traces.BrownPrice.Max() }

// BatteryCapacity returns the green storage cap.
func (e *EnergyAccount) BatteryCapacity() float64 { return e.battery }

// TotalEnergy returns the facility energy drawn over the history.
func (e *EnergyAccount) TotalEnergy() float64 { return floats.Sum(e.history.Power) }

// TotalGreenUsed returns the green energy consumed over the history.
func (e *EnergyAccount) TotalGreenUsed() float64 { return floats.Sum(e.history.GreenUsed) }
