package telemetry

import "fmt"

// API is how components report what happened to them. Everything that
// logs or records metrics goes through it so tests can assert on reports
// with telemetrytest.Recorder.
//
// Ids name the component that reported, not the line of code. They are
// lowercase, dot separated from the outer component inwards and use dashes
// inside a segment, ex. `client.login` or `store.write-if-changed`. Extra
// detail goes into params or a wrapped error.
type API interface {
	// ReportBroken reports a failure that someone should look at.
	ReportBroken(id string, params ...any)
	// ReportWarning reports something unexpected that was recovered from.
	ReportWarning(id string, params ...any)
	// ReportDebug is only shown in verbose mode.
	ReportDebug(msg string, params ...any)
	// ReportCount records the current value of a quantity, values are
	// points in time and are never summed.
	ReportCount(id string, count int64)
}

// KV is a named param, it is rendered as `key=value` instead of a positional param.
type KV struct {
	Key   string
	Value any
}

// ScopedAPI prefixes every id with a namespace.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}

// TaggedAPI appends a fixed set of params to every report, it is used to attach
// things like a run id to everything reported during a single run.
type TaggedAPI struct {
	tags  []any
	inner API
}

func NewTaggedAPI(inner API, tags ...any) TaggedAPI {
	return TaggedAPI{tags: tags, inner: inner}
}

func (t TaggedAPI) ReportBroken(id string, params ...any) {
	t.inner.ReportBroken(id, append(params, t.tags...)...)
}

func (t TaggedAPI) ReportWarning(id string, params ...any) {
	t.inner.ReportWarning(id, append(params, t.tags...)...)
}

func (t TaggedAPI) ReportDebug(msg string, params ...any) {
	t.inner.ReportDebug(msg, append(params, t.tags...)...)
}

func (t TaggedAPI) ReportCount(id string, count int64) {
	t.inner.ReportCount(id, count)
}
