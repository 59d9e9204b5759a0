package cloud

import (
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func traces(pue, solar, price []float64) EnergyTraces {
	return EnergyTraces{
		PUE:        NewSeries("pue", pue),
		Solar:      NewSeries("solar", solar),
		BrownPrice: NewSeries("brown_price", price),
	}
}

func TestEnergyAccount_BrownDeficit(t *testing.T) {
	// GIVEN PUE 1, no solar, no battery and a brown price of 2
	e := NewEnergyAccount(traces([]float64{1}, []float64{0}, []float64{2}), 0)

	// WHEN the host starts drawing 10 W at t=5
	e.Update(5, 10)

	// THEN timestep 5 buys 10 W of brown energy at price 2
	h := e.History()
	require.Len(t, h.Power, 6)
	assert.Equal(t, 20.0, h.BrownCost[5])
	assert.Equal(t, 0.0, h.Green[5])
	assert.Equal(t, 10.0, h.Power[5])
	for ts := 0; ts < 5; ts++ {
		assert.Equal(t, 0.0, h.BrownCost[ts], "t=%d drew nothing", ts)
	}
}

func TestEnergyAccount_PUEScalesDraw(t *testing.T) {
	e := NewEnergyAccount(traces([]float64{1.5}, []float64{0}, []float64{1}), 0)
	e.Update(0, 100)
	assert.Equal(t, 150.0, e.History().Power[0])
	assert.Equal(t, 150.0, e.History().BrownCost[0])
}

func TestEnergyAccount_GreenSurplusIsStoredUpToCapacity(t *testing.T) {
	// GIVEN 5 of solar per step, a battery of 8 and a constant 2 W draw
	e := NewEnergyAccount(traces([]float64{1}, []float64{5}, []float64{1}), 8)

	// WHEN the account is extended through t=2
	e.Update(0, 2)
	e.Refresh(2)

	// THEN storage fills and caps at capacity minus the draw
	h := e.History()
	assert.Equal(t, []float64{3, 6, 6}, h.Green)
	assert.Equal(t, []float64{0, 0, 0}, h.BrownCost)
	assert.Equal(t, []float64{2, 2, 2}, h.GreenUsed)
}

func TestEnergyAccount_PartialGreen_BuysOnlyTheDeficit(t *testing.T) {
	e := NewEnergyAccount(traces([]float64{1}, []float64{1}, []float64{2}), 10)
	e.Update(0, 3)
	h := e.History()
	assert.Equal(t, 4.0, h.BrownCost[0])
	assert.Equal(t, 0.0, h.Green[0])
	assert.Equal(t, 1.0, h.GreenUsed[0])
}

func TestEnergyAccount_GapIsFilledWithPreviousDraw(t *testing.T) {
	// GIVEN a 4 W draw set at t=1
	e := NewEnergyAccount(traces([]float64{1}, []float64{0}, []float64{1}), 0)
	e.Update(1, 4)

	// WHEN the draw changes to 9 W at t=4
	e.Update(4, 9)

	// THEN t=2,3 carry the old draw and t=4 the new one
	assert.Equal(t, []float64{0, 4, 4, 4, 9}, e.History().Power)
}

func TestEnergyAccount_SameTimestepUpdate_TakesEffectNextTimestep(t *testing.T) {
	// GIVEN PUE 1, no solar, no battery and a brown price of 2
	e := NewEnergyAccount(traces([]float64{1}, []float64{0}, []float64{2}), 0)

	// WHEN the draw is set to 10 W and then to 30 W within t=5
	e.Update(5, 10)
	e.Update(5, 30)

	// THEN timestep 5 keeps the first draw and the second starts at t=6
	h := e.History()
	require.Equal(t, 6, e.Len())
	assert.Equal(t, 10.0, h.Power[5])
	assert.Equal(t, 20.0, h.BrownCost[5])
	assert.Equal(t, 30.0, e.ITPower())

	e.Refresh(6)
	h = e.History()
	assert.Equal(t, 20.0, h.BrownCost[5])
	assert.Equal(t, 30.0, h.Power[6])
	assert.Equal(t, 60.0, h.BrownCost[6])
}

func TestEnergyAccount_ReadFixesTimestepBeforeUpdate(t *testing.T) {
	// GIVEN a reader that computed t=0 before any draw was set
	e := NewEnergyAccount(traces([]float64{1}, []float64{0}, []float64{1}), 0)
	assert.Equal(t, 0.0, e.Power(0))

	// WHEN a draw arrives in the same timestep
	e.Update(0, 8)

	// THEN t=0 stays at zero and the draw shows from t=1
	assert.Equal(t, 0.0, e.Reward(0))
	assert.Equal(t, -8.0, e.Reward(1))
	assert.Equal(t, []float64{0, 8}, e.History().Power)
}

func TestEnergyAccount_HistoryIsCausal(t *testing.T) {
	// GIVEN varying traces and a random sequence of draw changes
	rng := rand.New(rand.NewPCG(1, 2))
	pue := make([]float64, 50)
	solar := make([]float64, 50)
	price := make([]float64, 50)
	for i := range pue {
		pue[i] = 1 + rng.Float64()
		solar[i] = 20 * rng.Float64()
		price[i] = rng.Float64()
	}
	e := NewEnergyAccount(traces(pue, solar, price), 30)

	now := int64(0)
	for step := 0; step < 40; step++ {
		now += int64(rng.IntN(4))
		before := e.History()
		frozen := History{
			Power:     append([]float64(nil), before.Power...),
			Green:     append([]float64(nil), before.Green...),
			BrownCost: append([]float64(nil), before.BrownCost...),
		}

		// WHEN the draw changes
		e.Update(now, 40*rng.Float64())

		// THEN the history covers exactly 0..now and no computed entry moved
		h := e.History()
		require.Len(t, h.Power, int(now)+1)
		for ts := 0; ts < len(frozen.Power); ts++ {
			assert.Equal(t, frozen.Power[ts], h.Power[ts], "power at t=%d", ts)
			assert.Equal(t, frozen.Green[ts], h.Green[ts], "green at t=%d", ts)
			assert.Equal(t, frozen.BrownCost[ts], h.BrownCost[ts], "brown cost at t=%d", ts)
		}
		for ts := range h.Green {
			assert.GreaterOrEqual(t, h.Green[ts], 0.0)
			assert.LessOrEqual(t, h.Green[ts], 30.0)
		}
	}
}

func TestEnergyAccount_BrownCostWindow(t *testing.T) {
	e := NewEnergyAccount(traces([]float64{1}, []float64{0}, []float64{1, 2, 3, 4}), 0)
	e.Update(0, 1)
	assert.Equal(t, 10.0, e.BrownCost(3, 0), "all history: 1+2+3+4")
	assert.Equal(t, 7.0, e.BrownCost(3, 2), "last two: 3+4")
	assert.Equal(t, 10.0, e.BrownCost(3, 100))
}

func TestEnergyAccount_Reward(t *testing.T) {
	brown := NewEnergyAccount(traces([]float64{1}, []float64{0}, []float64{3}), 0)
	brown.Update(0, 2)
	assert.Equal(t, -6.0, brown.Reward(0))

	green := NewEnergyAccount(traces([]float64{1}, []float64{10}, []float64{3}), 100)
	green.Update(0, 2)
	assert.Equal(t, 8.0, green.Reward(0))
}

func TestEnergyAccount_UpdateBeforeOpenTimestep_Panics(t *testing.T) {
	e := NewEnergyAccount(DefaultEnergyTraces(), 0)
	e.Update(5, 1)
	assert.Panics(t, func() { e.Update(4, 1) })
	assert.Panics(t, func() { NewEnergyAccount(EnergyTraces{}, 0) })
	assert.Panics(t, func() { NewEnergyAccount(DefaultEnergyTraces(), -1) })
}

func TestSeries_ClampsAndWarnsOnce(t *testing.T) {
	// GIVEN a three-value series and a captured logger
	hook := logtest.NewGlobal()
	defer hook.Reset()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.WarnLevel)
	defer logrus.SetLevel(level)
	s := NewSeries("solar", []float64{1, 2, 3})

	// WHEN reading inside and twice past the end
	assert.Equal(t, 2.0, s.At(1))
	assert.Equal(t, 3.0, s.At(3))
	assert.Equal(t, 3.0, s.At(1000))

	// THEN the last value is used and exactly one warning was logged
	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 1.0, s.At(-1))
	assert.Equal(t, 3.0, s.Max())
}

func TestSeries_ConstantNeverWarns(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.WarnLevel)
	defer logrus.SetLevel(level)

	s := ConstantSeries("pue", 1.2)
	assert.Equal(t, 1.2, s.At(500))
	assert.Empty(t, hook.AllEntries())
	assert.Panics(t, func() { NewSeries("empty", nil) })
}
