package export

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/cloudsim/sim/cloud"
)

// NewRegistry builds a registry holding the final placement and energy
// figures of a run.
func NewRegistry(results *cloud.Results) (*prometheus.Registry, error) {
	placements := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudsim_placements_total",
			Help: "Placement attempts per datacenter by outcome.",
		},
		[]string{"datacenter", "outcome"},
	)
	brownCost := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cloudsim_brown_cost_total",
			Help: "Brown energy cost accumulated over the run.",
		},
		[]string{"datacenter"},
	)
	energy := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cloudsim_energy_total",
			Help: "Facility energy drawn over the run.",
		},
		[]string{"datacenter"},
	)
	acceptance := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cloudsim_acceptance_ratio",
		Help: "Created requests over submitted requests.",
	})

	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{placements, brownCost, energy, acceptance} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	for _, dc := range results.Datacenters {
		placements.WithLabelValues(dc.ID, "created").Add(float64(dc.Created))
		placements.WithLabelValues(dc.ID, "rejected").Add(float64(dc.Rejected))
		brownCost.WithLabelValues(dc.ID).Set(dc.TotalBrownCost)
		energy.WithLabelValues(dc.ID).Set(dc.TotalEnergy)
	}
	acceptance.Set(results.AcceptanceRate)
	return reg, nil
}

// WritePrometheusTextfile writes the run's metrics in the node-exporter
// textfile format.
func WritePrometheusTextfile(path string, results *cloud.Results) error {
	reg, err := NewRegistry(results)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
