// Package telemetrytest provides a telemetry.API that records every report so
// tests can assert on what a component reported.
package telemetrytest

import (
	"strings"
	"sync"
)

type Report struct {
	Kind   string
	Id     string
	Params []any
}

type Recorder struct {
	mutex   sync.Mutex
	reports []Report
	counts  map[string]int64
}

func NewRecorder() *Recorder {
	return &Recorder{counts: map[string]int64{}}
}

func (r *Recorder) add(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, Id: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add("broken", id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add("warning", id, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add("debug", msg, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.counts[id] = count
}

func (r *Recorder) filter(kind string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var out []Report
	for _, rep := range r.reports {
		if rep.Kind == kind {
			out = append(out, rep)
		}
	}
	return out
}

func (r *Recorder) Broken() []Report {
	return r.filter("broken")
}

func (r *Recorder) Warnings() []Report {
	return r.filter("warning")
}

// Count returns the last count reported under an id ending with suffix.
func (r *Recorder) Count(suffix string) (int64, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for id, n := range r.counts {
		if strings.HasSuffix(id, suffix) {
			return n, true
		}
	}
	return 0, false
}

// HasBroken returns true if a broken report was made with an id ending with suffix.
func (r *Recorder) HasBroken(suffix string) bool {
	for _, rep := range r.Broken() {
		if strings.HasSuffix(rep.Id, suffix) {
			return true
		}
	}
	return false
}

// HasWarning returns true if a warning was made with an id ending with suffix.
func (r *Recorder) HasWarning(suffix string) bool {
	for _, rep := range r.Warnings() {
		if strings.HasSuffix(rep.Id, suffix) {
			return true
		}
	}
	return false
}
