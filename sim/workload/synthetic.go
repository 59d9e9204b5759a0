package workload

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inference-sim/cloudsim/sim"
)

// SyntheticConfig parameterizes GenerateVMs.
type SyntheticConfig struct {
	Count  int    `yaml:"count"`
	UserID string `yaml:"user_id"`
	// MaxDemand bounds each resource; demands are uniform integers in
	// [1, max]. A zero bound yields zero demand for that resource.
	MaxDemand   sim.Resources `yaml:"max_demand"`
	MaxDuration int64         `yaml:"max_duration"`
	// ArrivalRate, when positive, draws exponential inter-arrival times with
	// this many arrivals per tick. Otherwise arrivals are uniform integers
	// in [1, MaxArrival].
	ArrivalRate float64 `yaml:"arrival_rate"`
	MaxArrival  int64   `yaml:"max_arrival"`
}

// DefaultSyntheticConfig returns 100 small VMs arriving within the first 10
// ticks and living up to 10 ticks.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Count:       100,
		UserID:      "1",
		MaxDemand:   sim.Resources{Compute: 100, Memory: 256, Bandwidth: 1000, Storage: 100000},
		MaxDuration: 10,
		MaxArrival:  10,
	}
}

// Validate checks counts and bounds.
func (c SyntheticConfig) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("synthetic count must be non-negative, got %d", c.Count)
	}
	if err := c.MaxDemand.Validate(); err != nil {
		return fmt.Errorf("synthetic max demand: %w", err)
	}
	if c.MaxDuration < 1 {
		return fmt.Errorf("synthetic max duration must be at least 1, got %d", c.MaxDuration)
	}
	if math.IsNaN(c.ArrivalRate) || math.IsInf(c.ArrivalRate, 0) || c.ArrivalRate < 0 {
		return fmt.Errorf("synthetic arrival rate must be a finite non-negative number, got %f", c.ArrivalRate)
	}
	if c.ArrivalRate == 0 && c.MaxArrival < 1 {
		return fmt.Errorf("synthetic max arrival must be at least 1 without an arrival rate, got %d", c.MaxArrival)
	}
	return nil
}

// GenerateVMs draws cfg.Count VMs from rng. VM ids are their index.
func GenerateVMs(rng *rand.Rand, cfg SyntheticConfig) ([]*sim.VM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var iat distuv.Exponential
	if cfg.ArrivalRate > 0 {
		iat = distuv.Exponential{Rate: cfg.ArrivalRate, Src: rng}
	}

	vms := make([]*sim.VM, 0, cfg.Count)
	clock := 0.0
	for i := 0; i < cfg.Count; i++ {
		var demand sim.Resources
		for _, kind := range sim.ResourceKinds {
			demand.Set(kind, float64(uniformInt(rng, int64(cfg.MaxDemand.Get(kind)))))
		}
		var arrival int64
		if cfg.ArrivalRate > 0 {
			clock += iat.Rand()
			arrival = int64(math.Round(clock))
		} else {
			arrival = uniformInt(rng, cfg.MaxArrival)
		}
		duration := uniformInt(rng, cfg.MaxDuration)
		vms = append(vms, sim.NewVM(strconv.Itoa(i), cfg.UserID, demand, arrival, duration))
	}
	logrus.Infof("Generated %d synthetic VMs", len(vms))
	return vms, nil
}

// uniformInt returns an integer uniform in [1, limit], or 0 when limit < 1.
func uniformInt(rng *rand.Rand, limit int64) int64 {
	if limit < 1 {
		return 0
	}
	u := distuv.Uniform{Min: 1, Max: float64(limit + 1), Src: rng}
	v := int64(math.Floor(u.Rand()))
	if v > limit {
		return limit
	}
	return v
}
