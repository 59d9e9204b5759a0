package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// logReporter is a tally.StatsReporter that writes every reported value to
// the debug log.
type logReporter struct{}

type logCapabilities struct{}

func (logCapabilities) Reporting() bool { return true }
func (logCapabilities) Tagging() bool   { return true }

func (logReporter) Capabilities() tally.Capabilities { return logCapabilities{} }

func (logReporter) Flush() {}

func (logReporter) ReportCounter(name string, tags map[string]string, value int64) {
	logrus.WithFields(fields(tags)).Debugf("counter %s = %d", name, value)
}

func (logReporter) ReportGauge(name string, tags map[string]string, value float64) {
	logrus.WithFields(fields(tags)).Debugf("gauge %s = %f", name, value)
}

func (logReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	logrus.WithFields(fields(tags)).Debugf("timer %s = %s", name, interval)
}

func (logReporter) ReportHistogramValueSamples(name string, tags map[string]string, _ tally.Buckets,
	lower, upper float64, samples int64) {
	logrus.WithFields(fields(tags)).Debugf("histogram %s [%f, %f) = %d", name, lower, upper, samples)
}

func (logReporter) ReportHistogramDurationSamples(name string, tags map[string]string, _ tally.Buckets,
	lower, upper time.Duration, samples int64) {
	logrus.WithFields(fields(tags)).Debugf("histogram %s [%s, %s) = %d", name, lower, upper, samples)
}

func fields(tags map[string]string) logrus.Fields {
	f := make(logrus.Fields, len(tags))
	for k, v := range tags {
		f[k] = v
	}
	return f
}
