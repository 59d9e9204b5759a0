package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/cloudsim/sim/cloud"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.ErrorLevel)
	}
	os.Exit(m.Run())
}

func sampleResults() *cloud.Results {
	return &cloud.Results{
		SimTime:        2,
		Policy:         "least-cost",
		Requested:      4,
		Created:        3,
		Rejected:       1,
		AcceptanceRate: 0.75,
		TotalBrownCost: 7,
		TotalEnergy:    30,
		Datacenters: []cloud.DatacenterResult{
			{
				ID: "a", Created: 2, Rejected: 1, TotalBrownCost: 7, TotalEnergy: 20,
				History: cloud.History{
					Power:     []float64{10, 10, 0},
					Green:     []float64{0, 1.5, 3},
					BrownCost: []float64{5, 2, 0},
					GreenUsed: []float64{0, 3, 0},
				},
			},
			{
				ID: "b", Created: 1, TotalEnergy: 10,
				History: cloud.History{
					Power:     []float64{0, 5, 5},
					Green:     []float64{4, 4, 4},
					BrownCost: []float64{0, 0, 0},
					GreenUsed: []float64{0, 5, 5},
				},
			},
		},
	}
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, sampleResults()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "dc_id,t,power_w,green,brown_cost,green_used", lines[0])
	assert.Equal(t, "a,1,10,1.5,2,3", lines[2])
	assert.Equal(t, "b,2,5,4,0,5", lines[6])
}

func TestWriteHistoryCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, WriteHistoryCSV(path, sampleResults()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "dc_id,t,"))

	assert.Error(t, WriteHistoryCSV(filepath.Join(t.TempDir(), "missing", "x.csv"), sampleResults()))
}

type fakeWriter struct {
	batches [][]*write.Point
	err     error
}

func (f *fakeWriter) WritePoint(_ context.Context, points ...*write.Point) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, points)
	return nil
}

func TestInfluxExporter_Points(t *testing.T) {
	// GIVEN tick 0 at a fixed instant and one minute per tick
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := &fakeWriter{}
	e := NewInfluxExporter(w, "run-1", start, time.Minute)

	// WHEN results are exported
	n, err := e.Export(context.Background(), sampleResults())
	require.NoError(t, err)

	// THEN there is one point per datacenter per tick plus the summary
	assert.Equal(t, 7, n)
	require.Len(t, w.batches, 1)
	points := w.batches[0]

	p := points[1]
	assert.Equal(t, "datacenter_energy", p.Name())
	assert.Equal(t, start.Add(time.Minute), p.Time())
	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"dc_id": "a", "run": "run-1"}, tags)
	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, 1.5, fields["green"])
	assert.Equal(t, 2.0, fields["brown_cost"])

	summary := points[len(points)-1]
	assert.Equal(t, "simulation_summary", summary.Name())
	assert.Equal(t, start.Add(2*time.Minute), summary.Time())
}

func TestInfluxExporter_WriteError(t *testing.T) {
	e := NewInfluxExporter(&fakeWriter{err: errors.New("unavailable")}, "", time.Time{}, 0)
	assert.NotEmpty(t, e.RunID())
	_, err := e.Export(context.Background(), sampleResults())
	assert.ErrorContains(t, err, "unavailable")
}

func TestDialInflux_RequiresURLAndBucket(t *testing.T) {
	_, err := DialInflux(context.Background(), InfluxConfig{Bucket: "b"})
	assert.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(sampleResults())
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "cloudsim_placements_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	expected := `
# HELP cloudsim_acceptance_ratio Created requests over submitted requests.
# TYPE cloudsim_acceptance_ratio gauge
cloudsim_acceptance_ratio 0.75
# HELP cloudsim_brown_cost_total Brown energy cost accumulated over the run.
# TYPE cloudsim_brown_cost_total gauge
cloudsim_brown_cost_total{datacenter="a"} 7
cloudsim_brown_cost_total{datacenter="b"} 0
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"cloudsim_acceptance_ratio", "cloudsim_brown_cost_total"))
}

func TestWritePrometheusTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloudsim.prom")
	require.NoError(t, WritePrometheusTextfile(path, sampleResults()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cloudsim_placements_total{datacenter="a",outcome="rejected"} 1`)
	assert.Contains(t, string(data), `cloudsim_energy_total{datacenter="b"} 10`)
}
