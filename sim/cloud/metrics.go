package cloud

import (
	"github.com/uber-go/tally/v4"
)

// Metrics contains the live counters and gauges of one simulation run
type Metrics struct {
	// Requests counts VM creation requests submitted to the cloud
	Requests tally.Counter
	// Created counts requests that ended with a placement
	Created tally.Counter
	// Rejected counts requests that exhausted their attempts
	Rejected tally.Counter
	// Attempts counts datacenter attempts across all requests
	Attempts tally.Counter
	// Destroyed counts VMs that reached the end of their residency
	Destroyed tally.Counter

	scope       tally.Scope
	datacenters map[string]*DatacenterMetrics
}

// DatacenterMetrics are tagged with the datacenter id.
type DatacenterMetrics struct {
	Placements   tally.Counter
	Rejections   tally.Counter
	ResidentVMs  tally.Gauge
	PowerWatts   tally.Gauge
	StoredGreen  tally.Gauge
	BrownCostSum tally.Gauge
}

// NewMetrics returns a new Metrics struct with all metrics rooted below scope.
// A nil scope records nothing.
func NewMetrics(scope tally.Scope) *Metrics {
	if scope == nil {
		scope = tally.NoopScope
	}
	requestScope := scope.SubScope("request")
	return &Metrics{
		Requests:    requestScope.Counter("submitted"),
		Created:     requestScope.Tagged(map[string]string{"result": "created"}).Counter("completed"),
		Rejected:    requestScope.Tagged(map[string]string{"result": "rejected"}).Counter("completed"),
		Attempts:    requestScope.Counter("attempts"),
		Destroyed:   scope.SubScope("vm").Counter("destroyed"),
		scope:       scope,
		datacenters: make(map[string]*DatacenterMetrics),
	}
}

// Datacenter returns the metrics tagged with id, creating them on first use.
func (m *Metrics) Datacenter(id string) *DatacenterMetrics {
	if dm, ok := m.datacenters[id]; ok {
		return dm
	}
	dcScope := m.scope.SubScope("datacenter").Tagged(map[string]string{"datacenter": id})
	dm := &DatacenterMetrics{
		Placements:   dcScope.Counter("placements"),
		Rejections:   dcScope.Counter("rejections"),
		ResidentVMs:  dcScope.Gauge("resident_vms"),
		PowerWatts:   dcScope.Gauge("power_watts"),
		StoredGreen:  dcScope.Gauge("stored_green"),
		BrownCostSum: dcScope.Gauge("brown_cost"),
	}
	m.datacenters[id] = dm
	return dm
}
