package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeteredAPI forwards every call to an inner API and additionally records
// ReportCount values on an OpenTelemetry gauge keyed by id.
type MeteredAPI struct {
	inner API
	gauge metric.Int64Gauge
}

func NewMeteredAPI(inner API) MeteredAPI {
	meter := otel.Meter("gradewatch")
	gauge, err := meter.Int64Gauge("gradewatch.count")
	if err != nil {
		inner.ReportBroken("telemetry.metered-api", err)
	}
	return MeteredAPI{inner: inner, gauge: gauge}
}

func (m MeteredAPI) ReportBroken(id string, params ...any) {
	m.inner.ReportBroken(id, params...)
}

func (m MeteredAPI) ReportWarning(id string, params ...any) {
	m.inner.ReportWarning(id, params...)
}

func (m MeteredAPI) ReportDebug(msg string, params ...any) {
	m.inner.ReportDebug(msg, params...)
}

func (m MeteredAPI) ReportCount(id string, count int64) {
	m.inner.ReportCount(id, count)
	if m.gauge == nil {
		return
	}
	m.gauge.Record(
		context.Background(),
		count,
		metric.WithAttributes(attribute.String("id", id)),
	)
}
