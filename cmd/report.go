package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
)

// powerStats summarizes a datacenter's per-timestep facility draw.
type powerStats struct {
	Mean, P50, P90, P99, Max float64
}

func summarizePower(history []float64) (powerStats, error) {
	var ps powerStats
	if len(history) == 0 {
		return ps, nil
	}
	data := stats.Float64Data(history)
	var err error
	if ps.Mean, err = stats.Mean(data); err != nil {
		return ps, fmt.Errorf("mean power: %w", err)
	}
	for _, p := range []struct {
		dst *float64
		pct float64
	}{{&ps.P50, 50}, {&ps.P90, 90}, {&ps.P99, 99}} {
		if *p.dst, err = stats.Percentile(data, p.pct); err != nil {
			return ps, fmt.Errorf("percentile %v of power: %w", p.pct, err)
		}
	}
	if ps.Max, err = stats.Max(data); err != nil {
		return ps, fmt.Errorf("max power: %w", err)
	}
	return ps, nil
}

// printReport writes the human-readable run summary.
func printReport(w io.Writer, out *outcome, elapsed time.Duration) error {
	r := out.Results
	fmt.Fprintf(w, "=== Simulation Results (%s) ===\n", r.Policy)
	fmt.Fprintf(w, "Sim time:        %s ticks\n", humanize.Comma(r.SimTime))
	fmt.Fprintf(w, "Events executed: %s\n", humanize.Comma(r.EventsExecuted))
	fmt.Fprintf(w, "Requests:        %d (%d created, %d rejected, %.1f%% accepted)\n",
		r.Requested, r.Created, r.Rejected, 100*r.AcceptanceRate)
	fmt.Fprintf(w, "Total energy:    %s W-ticks\n", humanize.SIWithDigits(r.TotalEnergy, 2, ""))
	fmt.Fprintf(w, "Brown cost:      %s\n", humanize.CommafWithDigits(r.TotalBrownCost, 2))
	if out.Agent != nil {
		st := out.Agent.Stats()
		fmt.Fprintf(w, "Agent:           %d training episodes, %d decisions, total reward %.3f\n",
			out.Episodes, st.Decisions, st.TotalReward)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s %6s %8s %8s %12s %10s %10s %10s %10s %10s %10s\n",
		"DC", "hosts", "created", "rejected", "brown cost", "mean W", "p50 W", "p90 W", "p99 W", "max W", "green %")
	for _, dc := range r.Datacenters {
		ps, err := summarizePower(dc.History.Power)
		if err != nil {
			return fmt.Errorf("datacenter %s: %w", dc.ID, err)
		}
		fmt.Fprintf(w, "%-10s %6d %8d %8d %12s %10.1f %10.1f %10.1f %10.1f %10.1f %10.1f\n",
			dc.ID, dc.Hosts, dc.Created, dc.Rejected,
			humanize.CommafWithDigits(dc.TotalBrownCost, 2),
			ps.Mean, ps.P50, ps.P90, ps.P99, ps.Max, 100*dc.GreenUtilization)
	}

	if r.Trace != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Attempts: %d total, %.2f mean, %d max per request\n",
			r.Trace.TotalAttempts, r.Trace.MeanAttempts, r.Trace.MaxAttempts)
		ids := make([]string, 0, len(r.Trace.TargetDistribution))
		for id := range r.Trace.TargetDistribution {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(w, "  %-10s %d placements\n", id, r.Trace.TargetDistribution[id])
		}
	}
	fmt.Fprintf(w, "\nWall time: %s\n", elapsed.Round(time.Millisecond))
	return nil
}
