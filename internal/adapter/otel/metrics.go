package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "switchyard"

// Metrics holds all Switchyard metric instruments.
type Metrics struct {
	DecisionsRouted       metric.Int64Counter
	ComplexityScore       metric.Float64Histogram
	ConsultationsOpened   metric.Int64Counter
	ConsultationsResolved metric.Int64Counter
	ConsultationsTimedOut metric.Int64Counter
	ConsultationDuration  metric.Float64Histogram
	TaskForcesConvened    metric.Int64Counter
	TaskForceMessages     metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.DecisionsRouted, err = meter.Int64Counter("switchyard.decisions.routed",
		metric.WithDescription("Number of routing decisions made, by decision type"))
	if err != nil {
		return nil, err
	}

	m.ComplexityScore, err = meter.Float64Histogram("switchyard.complexity.score",
		metric.WithDescription("Distribution of total complexity scores"))
	if err != nil {
		return nil, err
	}

	m.ConsultationsOpened, err = meter.Int64Counter("switchyard.consultations.opened",
		metric.WithDescription("Number of consultations opened"))
	if err != nil {
		return nil, err
	}

	m.ConsultationsResolved, err = meter.Int64Counter("switchyard.consultations.resolved",
		metric.WithDescription("Number of consultations resolved by a human"))
	if err != nil {
		return nil, err
	}

	m.ConsultationsTimedOut, err = meter.Int64Counter("switchyard.consultations.timedout",
		metric.WithDescription("Number of consultations closed by the timeout sweeper"))
	if err != nil {
		return nil, err
	}

	m.ConsultationDuration, err = meter.Float64Histogram("switchyard.consultation.duration_seconds",
		metric.WithDescription("Time from consultation open to close in seconds"))
	if err != nil {
		return nil, err
	}

	m.TaskForcesConvened, err = meter.Int64Counter("switchyard.taskforces.convened",
		metric.WithDescription("Number of task forces convened"))
	if err != nil {
		return nil, err
	}

	m.TaskForceMessages, err = meter.Int64Counter("switchyard.taskforces.messages",
		metric.WithDescription("Number of collaboration log entries appended"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
