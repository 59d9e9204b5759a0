package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/agent"
	"github.com/inference-sim/cloudsim/sim/cloud"
	"github.com/inference-sim/cloudsim/sim/trace"
	"github.com/inference-sim/cloudsim/sim/workload"
)

// RunConfig is the full configuration of a `run` invocation. It can be read
// from YAML; flags set on the command line override file values.
type RunConfig struct {
	Seed     int64  `yaml:"seed"`
	SimTime  int64  `yaml:"sim_time"`
	LogLevel string `yaml:"log_level"`
	EnvFile  string `yaml:"env_file"`

	// Inputs. Without a VM file a synthetic workload is generated; without a
	// DC file the inline datacenters are used.
	VMFile         string                   `yaml:"vm_file"`
	DCFile         string                   `yaml:"dc_file"`
	PUEFile        string                   `yaml:"pue_file"`
	SolarFile      string                   `yaml:"solar_file"`
	BrownPriceFile string                   `yaml:"br_cost_file"`
	Datacenters    []sim.DatacenterSpec     `yaml:"datacenters"`
	Synthetic      workload.SyntheticConfig `yaml:"synthetic"`

	SelectionPolicy  string  `yaml:"selection_policy"`
	AllocationPolicy string  `yaml:"allocation_policy"`
	PowerModel       string  `yaml:"power_model"`
	BatteryCapacity  float64 `yaml:"battery_capacity"`
	Consolidation    bool    `yaml:"consolidation"`

	// Learned selection.
	Agent          string        `yaml:"agent"`
	Episodes       int           `yaml:"episodes"`
	TerminalVMID   string        `yaml:"terminal_vm_id"`
	RequestWeights sim.Resources `yaml:"request_weights"`

	MonitorInterval int64  `yaml:"monitor_interval"`
	TraceLevel      string `yaml:"trace_level"`

	// Outputs.
	HistoryOut string        `yaml:"history_out"`
	MetricsOut string        `yaml:"metrics_out"`
	Influx     bool          `yaml:"influx"`
	InfluxStep time.Duration `yaml:"influx_step"`
}

// defaultHostSpec is the host used when no topology is given.
var defaultHostSpec = sim.HostSpec{
	Count:    10,
	Capacity: sim.Resources{Compute: 1000, Memory: 2048, Bandwidth: 100000, Storage: 1000000},
	Power: sim.PowerSpec{
		MaxPower:    195,
		StaticPower: 52,
		Ratios:      sim.Resources{Compute: 0.7, Memory: 0.26, Bandwidth: 0.04},
	},
}

// DefaultRunConfig returns the configuration used when nothing is specified.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Seed:     42,
		SimTime:  10000,
		LogLevel: "warn",
		EnvFile:  ".env",
		Datacenters: []sim.DatacenterSpec{
			{ID: "1", Hosts: []sim.HostSpec{defaultHostSpec}},
			{ID: "2", Hosts: []sim.HostSpec{defaultHostSpec}},
		},
		Synthetic:        workload.DefaultSyntheticConfig(),
		SelectionPolicy:  "round-robin",
		AllocationPolicy: "first-fit",
		PowerModel:       "linear",
		Consolidation:    true,
		Agent:            "greedy",
		Episodes:         0,
		RequestWeights:   sim.Resources{Compute: 0.7, Memory: 0.24, Bandwidth: 0.06},
		TraceLevel:       string(trace.TraceLevelNone),
		InfluxStep:       time.Minute,
	}
}

// loadRunConfig overlays the YAML file at path on the defaults. Unknown
// keys are rejected.
func loadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks names against the registered policies and numeric ranges.
func (c RunConfig) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.SimTime <= 0 {
		return fmt.Errorf("sim time must be positive, got %d", c.SimTime)
	}
	if !cloud.IsValidSelectionPolicy(c.SelectionPolicy) {
		return fmt.Errorf("unknown selection policy %q", c.SelectionPolicy)
	}
	if !sim.IsValidAllocationPolicy(c.AllocationPolicy) {
		return fmt.Errorf("unknown allocation policy %q", c.AllocationPolicy)
	}
	if !sim.IsValidPowerModel(c.PowerModel) {
		return fmt.Errorf("unknown power model %q", c.PowerModel)
	}
	if c.BatteryCapacity < 0 {
		return fmt.Errorf("battery capacity must be non-negative, got %f", c.BatteryCapacity)
	}
	if c.SelectionPolicy == "learned" && !agent.IsValidAgent(c.Agent) {
		return fmt.Errorf("unknown agent %q", c.Agent)
	}
	if c.Episodes < 0 {
		return fmt.Errorf("episodes must be non-negative, got %d", c.Episodes)
	}
	if err := c.RequestWeights.Validate(); err != nil {
		return fmt.Errorf("request weights: %w", err)
	}
	if c.MonitorInterval < 0 {
		return fmt.Errorf("monitor interval must be non-negative, got %d", c.MonitorInterval)
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	if c.DCFile == "" {
		if len(c.Datacenters) == 0 {
			return fmt.Errorf("no datacenters: set dc_file or datacenters")
		}
		for _, dc := range c.Datacenters {
			if err := dc.Validate(); err != nil {
				return err
			}
		}
	}
	if c.VMFile == "" {
		if err := c.Synthetic.Validate(); err != nil {
			return err
		}
	}
	if c.Influx && c.InfluxStep <= 0 {
		return fmt.Errorf("influx step must be positive, got %s", c.InfluxStep)
	}
	return nil
}
