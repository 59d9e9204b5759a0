package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalRequests      int
	CreatedCount       int
	RejectedCount      int
	TotalAttempts      int
	MeanAttempts       float64
	MaxAttempts        int
	UniqueTargets      int
	TargetDistribution map[string]int // datacenter ID → count of VMs placed there
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalRequests = len(st.Acks)
	for _, a := range st.Acks {
		if a.Created {
			summary.CreatedCount++
		} else {
			summary.RejectedCount++
		}
	}

	summary.TotalAttempts = len(st.Selections)
	for _, s := range st.Selections {
		if s.Accepted {
			summary.TargetDistribution[s.Datacenter]++
		}
		if s.Attempt > summary.MaxAttempts {
			summary.MaxAttempts = s.Attempt
		}
	}
	if summary.TotalRequests > 0 {
		summary.MeanAttempts = float64(summary.TotalAttempts) / float64(summary.TotalRequests)
	}

	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
