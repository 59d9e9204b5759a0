// Package export writes simulation results to files and time-series stores.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/inference-sim/cloudsim/sim/cloud"
)

var historyColumns = []string{"dc_id", "t", "power_w", "green", "brown_cost", "green_used"}

// WriteHistoryCSV writes every datacenter's per-timestep energy history to path.
func WriteHistoryCSV(path string, results *cloud.Results) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating history file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return WriteHistory(file, results)
}

// WriteHistory writes the history CSV to w, datacenters in pool order.
func WriteHistory(w io.Writer, results *cloud.Results) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(historyColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, dc := range results.Datacenters {
		h := dc.History
		for t := range h.Power {
			row := []string{
				dc.ID,
				strconv.Itoa(t),
				formatFloat(h.Power[t]),
				formatFloat(h.Green[t]),
				formatFloat(h.BrownCost[t]),
				formatFloat(h.GreenUsed[t]),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("writing %s t=%d: %w", dc.ID, t, err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
