// Package metrics exposes solve and emissions figures as Prometheus
// metrics. Batch runs write them to a textfile for node-exporter style
// collection rather than serving them.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/derekprior/greenleague/internal/schedule"
	"github.com/derekprior/greenleague/internal/verify"
)

// Recorder holds one run's metrics. A nil *Recorder discards everything.
type Recorder struct {
	reg *prometheus.Registry

	variables   *prometheus.GaugeVec
	constraints *prometheus.GaugeVec
	wallTime    *prometheus.GaugeVec
	nodes       *prometheus.GaugeVec
	objective   *prometheus.GaugeVec
	gap         *prometheus.GaugeVec
	emissions   *prometheus.GaugeVec
	pairedTrips *prometheus.GaugeVec
	outcomes    *prometheus.CounterVec
}

func seasonGauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "greenleague",
		Name:      name,
		Help:      help,
	}, []string{"season"})
}

// New registers the schedule metrics on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		reg:         prometheus.NewRegistry(),
		variables:   seasonGauge("model_variables", "Boolean variables in the season model"),
		constraints: seasonGauge("model_constraints", "Linear constraints in the season model"),
		wallTime:    seasonGauge("solve_seconds", "Wall time spent in the solver"),
		nodes:       seasonGauge("solve_nodes", "Search nodes explored by the solver"),
		objective:   seasonGauge("objective_kg", "Optimizer objective in kg CO2, with averaged pairing savings"),
		gap:         seasonGauge("relative_gap", "Relative gap between the objective and the best bound"),
		emissions:   seasonGauge("verified_emissions_kg", "Verified schedule emissions in kg CO2"),
		pairedTrips: seasonGauge("paired_trips", "Paired road trips in the verified schedule"),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "greenleague",
			Name:      "season_outcomes_total",
			Help:      "Seasons processed, by solver status",
		}, []string{"status"}),
	}
	r.reg.MustRegister(r.variables, r.constraints, r.wallTime, r.nodes,
		r.objective, r.gap, r.emissions, r.pairedTrips, r.outcomes)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// ObserveSolve records model size and solver statistics for a season.
func (r *Recorder) ObserveSolve(season int, res *schedule.Result) {
	if r == nil || res == nil {
		return
	}
	s := strconv.Itoa(season)
	r.variables.WithLabelValues(s).Set(float64(res.Variables))
	r.constraints.WithLabelValues(s).Set(float64(res.Constraints))
	r.wallTime.WithLabelValues(s).Set(res.WallTime.Seconds())
	r.nodes.WithLabelValues(s).Set(float64(res.Nodes))
	if res.Schedule != nil {
		r.objective.WithLabelValues(s).Set(res.Objective)
		r.gap.WithLabelValues(s).Set(res.Gap)
	}
}

// ObserveEmissions records the verified emissions of a season.
func (r *Recorder) ObserveEmissions(season int, rep verify.Report) {
	if r == nil {
		return
	}
	s := strconv.Itoa(season)
	r.emissions.WithLabelValues(s).Set(rep.TotalKg)
	r.pairedTrips.WithLabelValues(s).Set(float64(rep.PairedTrips))
}

// ObserveOutcome counts a finished season under status.
func (r *Recorder) ObserveOutcome(status string) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(status).Inc()
}

// WriteFile writes every metric to path in the text exposition format.
func (r *Recorder) WriteFile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
