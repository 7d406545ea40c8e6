package watcher

import (
	"context"
	"fmt"
	"gradewatch/internal/components/assert"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/grades"
	"gradewatch/internal/scrapers/interage"
	"gradewatch/internal/snapshot"

	"github.com/mazen160/go-random"
)

const (
	report_run_scrape   = "run.scrape"
	report_run_read_old = "run.read-snapshot"
	report_run_write    = "run.write-snapshot"
	report_subjects     = "subjects"
	report_changes      = "changes"
)

type Scraper interface {
	Scrape(ctx context.Context, creds interage.Credentials) ([]grades.Record, error)
}

type Notifier interface {
	Notify(ctx context.Context, changes []grades.Change)
}

type Result struct {
	Subjects int
	// the changes that were persisted during the run
	Changes []grades.Change
}

// Watcher runs a single check of the portal against the stored snapshot.
type Watcher struct {
	scraper  Scraper
	creds    interage.Credentials
	store    snapshot.Store
	notifier Notifier
	tel      telemetry.API
}

func NewWatcher(
	scraper Scraper,
	creds interage.Credentials,
	store snapshot.Store,
	notifier Notifier,
	tel telemetry.API,
) Watcher {
	assert.NotNil(scraper)
	assert.NotNil(store)
	assert.NotNil(notifier)
	assert.NotNil(tel)

	return Watcher{
		scraper:  scraper,
		creds:    creds,
		store:    store,
		notifier: notifier,
		tel:      telemetry.NewScopedAPI("watcher", tel),
	}
}

func (w Watcher) runTelemetry() telemetry.API {
	runId, err := random.String(8)
	if err != nil {
		w.tel.ReportWarning("run.id", fmt.Errorf("generate run id: %w", err))
		return w.tel
	}
	return telemetry.NewTaggedAPI(w.tel, telemetry.KV{Key: "run", Value: runId})
}

// Run scrapes the current grades, persists the ones that changed and emails
// a report if anything did.
func (w Watcher) Run(ctx context.Context) (Result, error) {
	tel := w.runTelemetry()

	records, err := w.scraper.Scrape(ctx, w.creds)
	if err != nil {
		tel.ReportBroken(report_run_scrape, err)
		return Result{}, err
	}
	tel.ReportCount(report_subjects, int64(len(records)))

	previous, err := w.store.ReadAll(ctx)
	if err != nil {
		tel.ReportBroken(report_run_read_old, err)
		return Result{}, fmt.Errorf("read snapshot: %w", err)
	}

	changes, err := w.store.WriteIfChanged(ctx, records, previous)
	result := Result{Subjects: len(records), Changes: changes}
	tel.ReportCount(report_changes, int64(len(changes)))
	if err != nil {
		tel.ReportBroken(report_run_write, err, telemetry.KV{Key: "written", Value: len(changes)})
		return result, fmt.Errorf("write snapshot: %w", err)
	}

	if len(changes) == 0 {
		tel.ReportDebug("no grade changes detected")
		return result, nil
	}

	tel.ReportDebug("changed grades detected, notifying", telemetry.KV{Key: "changes", Value: len(changes)})
	w.notifier.Notify(ctx, changes)
	return result, nil
}
