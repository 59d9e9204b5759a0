package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/export"
	"github.com/inference-sim/cloudsim/sim/workload"
)

var (
	configPath string // YAML run config
	flagCfg    = DefaultRunConfig()

	// generate
	generateOut string
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cloudsim",
	Short: "Discrete-event simulator for VM placement across power-aware datacenters",
}

// runCmd executes the simulation using parameters from the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the placement simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", cfg.LogLevel)
		}
		logrus.SetLevel(level)
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		loadEnvironment(cfg.EnvFile)

		logrus.Infof("Starting run: selection=%s allocation=%s sim_time=%d seed=%d",
			cfg.SelectionPolicy, cfg.AllocationPolicy, cfg.SimTime, cfg.Seed)
		startTime := time.Now()

		scope, closer := newMetricsScope()
		out, err := simulate(cfg, scope)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		if err := closer.Close(); err != nil {
			logrus.Warnf("Closing metrics scope: %v", err)
		}

		if err := printReport(os.Stdout, out, time.Since(startTime)); err != nil {
			logrus.Fatalf("Writing report: %v", err)
		}
		if err := writeOutputs(cmd.Context(), cfg, out); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// generateCmd writes a synthetic workload in the VM file format.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic VM workload CSV",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if generateOut == "" {
			logrus.Fatalf("--out is required")
		}
		rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
		vms, err := workload.GenerateVMs(rng.ForSubsystem(sim.SubsystemWorkload), cfg.Synthetic)
		if err != nil {
			logrus.Fatalf("Generating workload: %v", err)
		}
		if err := workload.ExportVMs(generateOut, vms); err != nil {
			logrus.Fatalf("Writing workload: %v", err)
		}
		logrus.Infof("Wrote %d VMs to %s", len(vms), generateOut)
	},
}

// resolveRunConfig starts from the config file (or defaults) and applies
// every flag the user set explicitly.
func resolveRunConfig(cmd *cobra.Command) (RunConfig, error) {
	cfg := DefaultRunConfig()
	if configPath != "" {
		loaded, err := loadRunConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	applyFlags(cmd, &cfg)
	return cfg, nil
}

// applyFlags copies explicitly-set flags from flagCfg into cfg.
func applyFlags(cmd *cobra.Command, cfg *RunConfig) {
	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	if changed("seed") {
		cfg.Seed = flagCfg.Seed
	}
	if changed("sim-time") {
		cfg.SimTime = flagCfg.SimTime
	}
	if changed("log") {
		cfg.LogLevel = flagCfg.LogLevel
	}
	if changed("env-file") {
		cfg.EnvFile = flagCfg.EnvFile
	}
	if changed("vms") {
		cfg.VMFile = flagCfg.VMFile
	}
	if changed("dcs") {
		cfg.DCFile = flagCfg.DCFile
	}
	if changed("pue") {
		cfg.PUEFile = flagCfg.PUEFile
	}
	if changed("solar") {
		cfg.SolarFile = flagCfg.SolarFile
	}
	if changed("br-cost") {
		cfg.BrownPriceFile = flagCfg.BrownPriceFile
	}
	if changed("num-vms") {
		cfg.Synthetic.Count = flagCfg.Synthetic.Count
	}
	if changed("max-arrival") {
		cfg.Synthetic.MaxArrival = flagCfg.Synthetic.MaxArrival
	}
	if changed("arrival-rate") {
		cfg.Synthetic.ArrivalRate = flagCfg.Synthetic.ArrivalRate
	}
	if changed("selection") {
		cfg.SelectionPolicy = flagCfg.SelectionPolicy
	}
	if changed("allocation") {
		cfg.AllocationPolicy = flagCfg.AllocationPolicy
	}
	if changed("power-model") {
		cfg.PowerModel = flagCfg.PowerModel
	}
	if changed("battery") {
		cfg.BatteryCapacity = flagCfg.BatteryCapacity
	}
	if changed("consolidation") {
		cfg.Consolidation = flagCfg.Consolidation
	}
	if changed("agent") {
		cfg.Agent = flagCfg.Agent
	}
	if changed("episodes") {
		cfg.Episodes = flagCfg.Episodes
	}
	if changed("terminal-vm") {
		cfg.TerminalVMID = flagCfg.TerminalVMID
	}
	if changed("monitor-interval") {
		cfg.MonitorInterval = flagCfg.MonitorInterval
	}
	if changed("trace-level") {
		cfg.TraceLevel = flagCfg.TraceLevel
	}
	if changed("history-out") {
		cfg.HistoryOut = flagCfg.HistoryOut
	}
	if changed("metrics-out") {
		cfg.MetricsOut = flagCfg.MetricsOut
	}
	if changed("influx") {
		cfg.Influx = flagCfg.Influx
	}
}

// writeOutputs writes every output the configuration asks for.
func writeOutputs(ctx context.Context, cfg RunConfig, out *outcome) error {
	if cfg.HistoryOut != "" {
		if err := export.WriteHistoryCSV(cfg.HistoryOut, out.Results); err != nil {
			return err
		}
		logrus.Infof("Wrote energy history to %s", cfg.HistoryOut)
	}
	if cfg.MetricsOut != "" {
		if err := export.WritePrometheusTextfile(cfg.MetricsOut, out.Results); err != nil {
			return err
		}
		logrus.Infof("Wrote metrics to %s", cfg.MetricsOut)
	}
	if cfg.Influx {
		icfg, err := influxConfigFromEnv(cfg.InfluxStep)
		if err != nil {
			return err
		}
		if ctx == nil {
			ctx = context.Background()
		}
		exporter, err := export.DialInflux(ctx, icfg)
		if err != nil {
			return err
		}
		defer exporter.Close()
		if _, err := exporter.Export(ctx, out.Results); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run configuration flags shared by run and generate.
func registerRunFlags(cmd *cobra.Command) {
	d := DefaultRunConfig()
	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML run configuration; explicit flags override it")
	f.Int64Var(&flagCfg.Seed, "seed", d.Seed, "Seed for synthetic workloads and agents")
	f.Int64Var(&flagCfg.Synthetic.MaxArrival, "max-arrival", d.Synthetic.MaxArrival, "Latest arrival tick of synthetic VMs")
	f.IntVar(&flagCfg.Synthetic.Count, "num-vms", d.Synthetic.Count, "Number of synthetic VMs when no VM file is given")
	f.Float64Var(&flagCfg.Synthetic.ArrivalRate, "arrival-rate", d.Synthetic.ArrivalRate, "Synthetic arrivals per tick (0 draws uniform arrival ticks)")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)
	f := runCmd.Flags()
	d := DefaultRunConfig()
	f.Int64Var(&flagCfg.SimTime, "sim-time", d.SimTime, "Simulation horizon (in ticks)")
	f.StringVar(&flagCfg.LogLevel, "log", d.LogLevel, "Log level (trace, debug, info, warn, error, fatal, panic)")
	f.StringVar(&flagCfg.EnvFile, "env-file", d.EnvFile, "Env file with INFLUX_* settings")

	// inputs
	f.StringVar(&flagCfg.VMFile, "vms", "", "Workload CSV (vm_id,user_id,mips,ram,bw,storage,arrival_time,duration)")
	f.StringVar(&flagCfg.DCFile, "dcs", "", "Topology CSV (dc_id,num_host,ram,mips,bw,storage,max_power,stat_power,*_pr)")
	f.StringVar(&flagCfg.PUEFile, "pue", "", "PUE trace CSV, one row per datacenter")
	f.StringVar(&flagCfg.SolarFile, "solar", "", "Solar generation trace CSV, one row per datacenter")
	f.StringVar(&flagCfg.BrownPriceFile, "br-cost", "", "Brown energy price trace CSV, one row per datacenter")

	// policies
	f.StringVar(&flagCfg.SelectionPolicy, "selection", d.SelectionPolicy, "Datacenter selection: first-fit, round-robin, least-cost, least-power, max-green, learned")
	f.StringVar(&flagCfg.AllocationPolicy, "allocation", d.AllocationPolicy, "Host allocation: first-fit, least-available-compute")
	f.StringVar(&flagCfg.PowerModel, "power-model", d.PowerModel, "Host power model: linear")
	f.Float64Var(&flagCfg.BatteryCapacity, "battery", d.BatteryCapacity, "Green energy storage capacity per datacenter")
	f.BoolVar(&flagCfg.Consolidation, "consolidation", d.Consolidation, "Idle hosts draw no power")
	f.StringVar(&flagCfg.Agent, "agent", d.Agent, "Agent for learned selection: random, greedy")
	f.IntVar(&flagCfg.Episodes, "episodes", d.Episodes, "Training episodes before the evaluation run (learned selection)")
	f.StringVar(&flagCfg.TerminalVMID, "terminal-vm", "", "VM id whose decision ends a learning episode")

	// observability and outputs
	f.Int64Var(&flagCfg.MonitorInterval, "monitor-interval", 0, "Sample energy gauges every N ticks (0 = off)")
	f.StringVar(&flagCfg.TraceLevel, "trace-level", d.TraceLevel, "Decision trace level: none, decisions")
	f.StringVar(&flagCfg.HistoryOut, "history-out", "", "Write per-timestep energy history CSV")
	f.StringVar(&flagCfg.MetricsOut, "metrics-out", "", "Write Prometheus textfile metrics")
	f.BoolVar(&flagCfg.Influx, "influx", false, "Export history to InfluxDB (INFLUX_* environment)")

	registerRunFlags(generateCmd)
	generateCmd.Flags().StringVar(&generateOut, "out", "", "Output workload CSV")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateCmd)
}
