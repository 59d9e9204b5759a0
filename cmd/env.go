package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cloudsim/sim/export"
)

// influxEnvVars are read when exporting to InfluxDB.
var influxEnvVars = []string{"INFLUX_URL", "INFLUX_TOKEN", "INFLUX_ORG", "INFLUX_BUCKET"}

// loadEnvironment loads path into the process environment if it exists.
// Variables already set are not overridden.
func loadEnvironment(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		logrus.WithField("file", path).Debug("No env file")
		return
	}
	if err := godotenv.Load(path); err != nil {
		logrus.WithField("file", path).WithError(err).Warn("Error loading env file")
		return
	}
	logrus.WithField("file", path).Debug("Loaded environment variables")
}

// influxConfigFromEnv builds the export target from the environment.
func influxConfigFromEnv(step time.Duration) (export.InfluxConfig, error) {
	var missing []string
	for _, name := range influxEnvVars {
		if name == "INFLUX_TOKEN" {
			continue
		}
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return export.InfluxConfig{}, fmt.Errorf("missing environment variables for influx export: %v", missing)
	}
	return export.InfluxConfig{
		URL:    os.Getenv("INFLUX_URL"),
		Token:  os.Getenv("INFLUX_TOKEN"),
		Org:    os.Getenv("INFLUX_ORG"),
		Bucket: os.Getenv("INFLUX_BUCKET"),
		Start:  time.Now().Truncate(time.Second),
		Step:   step,
	}, nil
}
