package cloud

import (
	"github.com/inference-sim/cloudsim/sim/trace"
)

// DatacenterResult summarizes one datacenter after a run.
type DatacenterResult struct {
	ID          string
	Hosts       int
	Created     int
	Rejected    int
	Destroyed   int
	ResidentVMs int
	// Energy figures are zero for datacenters without an energy account.
	TotalBrownCost   float64
	TotalEnergy      float64
	TotalGreenUsed   float64
	GreenUtilization float64 // green energy used / energy drawn
	History          History
}

// Results summarizes a completed run.
type Results struct {
	SimTime        int64
	Policy         string
	Requested      int
	Created        int
	Rejected       int
	AcceptanceRate float64
	TotalBrownCost float64
	TotalEnergy    float64
	EventsExecuted int64
	Datacenters    []DatacenterResult
	Acks           []Acknowledgement
	// Trace is nil when decision tracing is off.
	Trace *trace.TraceSummary
}

func (s *Simulation) collect() *Results {
	r := &Results{
		SimTime:        s.config.SimTime,
		Policy:         s.config.SelectionPolicy,
		Requested:      len(s.broker.acks),
		Created:        s.broker.created,
		Rejected:       s.broker.rejected,
		EventsExecuted: s.kernel.Executed(),
		Acks:           s.broker.acks,
	}
	if r.Requested > 0 {
		r.AcceptanceRate = float64(r.Created) / float64(r.Requested)
	}
	for _, dc := range s.cloud.datacenters {
		dr := DatacenterResult{
			ID:          dc.id,
			Hosts:       len(dc.hosts),
			Created:     dc.created,
			Rejected:    dc.rejected,
			Destroyed:   dc.destroyed,
			ResidentVMs: len(dc.vms),
		}
		if dc.energy != nil {
			dr.History = dc.energy.History()
			dr.TotalBrownCost = dc.energy.BrownCost(s.config.SimTime, 0)
			dr.TotalEnergy = dc.energy.TotalEnergy()
			dr.TotalGreenUsed = dc.energy.TotalGreenUsed()
			if dr.TotalEnergy > 0 {
				dr.GreenUtilization = dr.TotalGreenUsed / dr.TotalEnergy
			}
		}
		r.TotalBrownCost += dr.TotalBrownCost
		r.TotalEnergy += dr.TotalEnergy
		r.Datacenters = append(r.Datacenters, dr)
	}
	if s.trace != nil {
		r.Trace = trace.Summarize(s.trace)
	}
	return r
}
