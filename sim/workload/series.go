package workload

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/inference-sim/cloudsim/sim/cloud"
)

// LoadSeries reads a headerless numeric CSV: one row per datacenter, one
// column per timestep. Rows may differ in length but none may be empty.
func LoadSeries(path string) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	series := make([][]float64, 0, len(rows))
	for i, row := range rows {
		values := make([]float64, 0, len(row))
		for j, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" && j == len(row)-1 {
				break
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %d: %w", path, i+1, j+1, err)
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%s row %d: no values", path, i+1)
		}
		series = append(series, values)
	}
	return series, nil
}

// TraceFiles names the per-datacenter trace files. An empty path selects
// the constant default for that trace.
type TraceFiles struct {
	PUE        string
	Solar      string
	BrownPrice string
}

// LoadEnergyTraces builds one EnergyTraces per datacenter id, taking row i
// of each file for datacenter i.
func LoadEnergyTraces(ids []string, files TraceFiles) ([]cloud.EnergyTraces, error) {
	defaults := cloud.DefaultEnergyTraces()
	pue, err := loadTrace("pue", files.PUE, ids, defaults.PUE)
	if err != nil {
		return nil, err
	}
	solar, err := loadTrace("solar", files.Solar, ids, defaults.Solar)
	if err != nil {
		return nil, err
	}
	price, err := loadTrace("brown_price", files.BrownPrice, ids, defaults.BrownPrice)
	if err != nil {
		return nil, err
	}
	traces := make([]cloud.EnergyTraces, len(ids))
	for i := range ids {
		traces[i] = cloud.EnergyTraces{PUE: pue[i], Solar: solar[i], BrownPrice: price[i]}
	}
	return traces, nil
}

func loadTrace(name, path string, ids []string, fallback *cloud.Series) ([]*cloud.Series, error) {
	out := make([]*cloud.Series, len(ids))
	if path == "" {
		for i := range out {
			out[i] = fallback
		}
		return out, nil
	}
	rows, err := LoadSeries(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s trace: %w", name, err)
	}
	if len(rows) < len(ids) {
		return nil, fmt.Errorf("%s trace %s has %d rows for %d datacenters", name, path, len(rows), len(ids))
	}
	for i, id := range ids {
		out[i] = cloud.NewSeries(fmt.Sprintf("%s[%s]", name, id), rows[i])
	}
	return out, nil
}
