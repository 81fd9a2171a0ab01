// Package cli holds option groups shared by the funes commands.
package cli

import (
	"fmt"

	"github.com/funes-project/funes/metrics"

	log "gopkg.in/src-d/go-log.v1"
)

// MetricsOpts holds cli configuration to expose metrics.
type MetricsOpts struct {
	Metrics     bool `long:"metrics" env:"FUNES_METRICS" description:"expose a metrics endpoint using an HTTP server"`
	MetricsPort int  `long:"metrics-port" env:"FUNES_METRICS_PORT" description:"port to bind metrics to" default:"6062"`
}

// MaybeStartMetrics starts the metrics server if configured.
func (c *MetricsOpts) MaybeStartMetrics() {
	if c.Metrics {
		addr := fmt.Sprintf("0.0.0.0:%d", c.MetricsPort)
		go func() {
			logger := log.New(log.Fields{"address": addr})
			logger.Debugf("started metrics service")
			if err := metrics.Start(addr); err != nil {
				logger.With(log.Fields{
					"error": err,
				}).Warningf("metrics service stopped")
			}
		}()
	}
}
