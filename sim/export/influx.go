package export

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cloudsim/sim/cloud"
)

const (
	energyMeasurement  = "datacenter_energy"
	summaryMeasurement = "simulation_summary"
	// pointsPerWrite bounds a single blocking write.
	pointsPerWrite = 5000
)

// PointWriter is the write side of an InfluxDB client.
// api.WriteAPIBlocking satisfies it.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxConfig locates the InfluxDB bucket and maps ticks to wall time.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	// Start is the timestamp of tick 0.
	Start time.Time
	// Step is the wall-clock length of one tick.
	Step time.Duration
	// RunID tags every point; empty generates a fresh id.
	RunID string
}

// InfluxExporter writes run results as InfluxDB points.
type InfluxExporter struct {
	writer PointWriter
	client influxdb2.Client
	runID  string
	start  time.Time
	step   time.Duration
}

// NewInfluxExporter wraps an existing writer. An empty runID generates one.
func NewInfluxExporter(w PointWriter, runID string, start time.Time, step time.Duration) *InfluxExporter {
	if runID == "" {
		runID = NewRunID()
	}
	if step <= 0 {
		step = time.Second
	}
	return &InfluxExporter{writer: w, runID: runID, start: start, step: step}
}

// DialInflux connects to InfluxDB, checks its health and returns an
// exporter over the blocking write API.
func DialInflux(ctx context.Context, cfg InfluxConfig) (*InfluxExporter, error) {
	if cfg.URL == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx export needs a URL and a bucket")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	health, err := client.Health(hctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to InfluxDB at %s: %w", cfg.URL, err)
	}
	if health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB at %s is unhealthy: %s", cfg.URL, health.Status)
	}
	logrus.WithFields(logrus.Fields{
		"url":    cfg.URL,
		"bucket": cfg.Bucket,
		"org":    cfg.Org,
	}).Info("Connected to InfluxDB")

	e := NewInfluxExporter(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), cfg.RunID, cfg.Start, cfg.Step)
	e.client = client
	return e, nil
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.New() }

// RunID returns the tag value written on every point.
func (e *InfluxExporter) RunID() string { return e.runID }

// Points converts results into one point per datacenter per timestep plus
// one summary point.
func (e *InfluxExporter) Points(results *cloud.Results) []*write.Point {
	var points []*write.Point
	for _, dc := range results.Datacenters {
		tags := map[string]string{"dc_id": dc.ID, "run": e.runID}
		h := dc.History
		for t := range h.Power {
			points = append(points, influxdb2.NewPoint(energyMeasurement, tags,
				map[string]interface{}{
					"power_w":    h.Power[t],
					"green":      h.Green[t],
					"brown_cost": h.BrownCost[t],
					"green_used": h.GreenUsed[t],
				},
				e.timestamp(int64(t))))
		}
	}
	points = append(points, influxdb2.NewPoint(summaryMeasurement,
		map[string]string{"run": e.runID, "policy": results.Policy},
		map[string]interface{}{
			"requested":        results.Requested,
			"created":          results.Created,
			"rejected":         results.Rejected,
			"acceptance_rate":  results.AcceptanceRate,
			"total_brown_cost": results.TotalBrownCost,
			"total_energy":     results.TotalEnergy,
		},
		e.timestamp(results.SimTime)))
	return points
}

func (e *InfluxExporter) timestamp(tick int64) time.Time {
	return e.start.Add(time.Duration(tick) * e.step)
}

// Export writes every point, in batches, and returns how many were written.
func (e *InfluxExporter) Export(ctx context.Context, results *cloud.Results) (int, error) {
	points := e.Points(results)
	for lo := 0; lo < len(points); lo += pointsPerWrite {
		hi := min(lo+pointsPerWrite, len(points))
		if err := e.writer.WritePoint(ctx, points[lo:hi]...); err != nil {
			return lo, fmt.Errorf("failed to write data points: %w", err)
		}
	}
	logrus.Infof("Exported %d points to InfluxDB (run %s)", len(points), e.runID)
	return len(points), nil
}

// Close releases the client opened by DialInflux.
func (e *InfluxExporter) Close() {
	if e.client != nil {
		e.client.Close()
	}
}
