// Package metrics exports coverage numbers as a Prometheus textfile for the
// node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dkoosis/speccov/pkg/report"
)

// Collector holds the coverage gauges for one run.
type Collector struct {
	registry *prometheus.Registry
	specs    *prometheus.GaugeVec
	percent  prometheus.Gauge
	sections *prometheus.GaugeVec
	orphans  prometheus.Gauge
	unlinked prometheus.Gauge
	tests    prometheus.Gauge
	textfile string
}

// NewCollector returns a Collector that writes to textfile.
func NewCollector(textfile string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		specs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "speccov_specs", Help: "Leaf specs by coverage status"},
			[]string{"status"},
		),
		percent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "speccov_coverage_percent",
			Help: "Covered specs over covered plus uncovered, 0-100",
		}),
		sections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "speccov_section_coverage_percent", Help: "Coverage per top-level section"},
			[]string{"section"},
		),
		orphans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "speccov_orphan_links",
			Help: "Test links naming an unknown spec",
		}),
		unlinked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "speccov_unlinked_tests",
			Help: "Tests without a scenario mark",
		}),
		tests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "speccov_linked_tests_executed",
			Help: "Executed tests linked to a known spec",
		}),
		textfile: textfile,
	}
	c.registry.MustRegister(c.specs, c.percent, c.sections, c.orphans, c.unlinked, c.tests)
	return c
}

// Name identifies the sink in logs.
func (c *Collector) Name() string { return "metrics" }

// Observe records p into the gauges.
func (c *Collector) Observe(p *report.Payload) {
	s := p.Summary
	c.specs.WithLabelValues(string(report.StatusCovered)).Set(float64(s.Covered))
	c.specs.WithLabelValues(string(report.StatusUncovered)).Set(float64(s.Uncovered))
	c.specs.WithLabelValues(string(report.StatusSkipped)).Set(float64(s.Skipped))
	c.percent.Set(s.Percent)
	c.orphans.Set(float64(s.Orphans))
	c.unlinked.Set(float64(s.Unlinked))
	c.tests.Set(float64(len(p.Tests)))

	if p.Root == nil {
		return
	}
	for _, n := range p.Root.Children {
		if n.Status != report.StatusSection {
			continue
		}
		c.sections.WithLabelValues(n.ID).Set(sectionPercent(n.Counts))
	}
}

// Write observes p and writes the textfile atomically.
func (c *Collector) Write(p *report.Payload) error {
	if p == nil {
		return nil
	}
	c.Observe(p)
	if err := prometheus.WriteToTextfile(c.textfile, c.registry); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

// Gatherer exposes the registry, mainly for tests.
func (c *Collector) Gatherer() prometheus.Gatherer { return c.registry }

func sectionPercent(c report.Counts) float64 {
	den := c.Covered + c.Uncovered
	if den == 0 {
		return 100
	}
	return float64(c.Covered) / float64(den) * 100
}
