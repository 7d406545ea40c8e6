package watcher

import (
	"context"
	"errors"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/components/telemetry/telemetrytest"
	"gradewatch/internal/grades"
	"gradewatch/internal/notify"
	"gradewatch/internal/scrapers/interage"
	"gradewatch/internal/scrapers/interage/interagetest"
	"gradewatch/internal/snapshot"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

const calculoPage = `<html><body>
	<div class="bloco-conteudo-cabecalho"><h4>Notas (Semestre Atual)</h4></div>
	<div class="bloco-conteudo-intermediario">
		<div class="panel panel-default">
			<h4 class="panel-title"><a class="tabela-notas">ECM401 - Calculo</a></h4>
			<table><tbody>
				<tr><td>P1</td><td>7,0</td></tr>
				<tr><td>P2</td><td>9,0</td></tr>
				<tr><td>Média</td><td>8,0</td></tr>
			</tbody></table>
		</div>
	</div>
</body></html>`

type recordingMailer struct {
	sent []notify.Message
}

func (m *recordingMailer) Send(ctx context.Context, msg notify.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	portal  *interagetest.Portal
	store   *snapshot.MemoryStore
	mailer  *recordingMailer
	rec     *telemetrytest.Recorder
	watcher Watcher
}

func setup(t *testing.T, seed ...grades.Record) fixture {
	rec := telemetrytest.NewRecorder()
	portal := interagetest.NewPortal()

	client, err := interage.NewClient(interage.Options{
		BaseUrl:           portal.Start(t),
		Timeout:           5 * time.Second,
		RequestsPerSecond: -1,
	}, rec)
	require.NoError(t, err)

	store := snapshot.NewMemoryStore(rec, seed...)
	mailer := &recordingMailer{}
	w := NewWatcher(
		client,
		interage.Credentials{Username: interagetest.Username, Password: interagetest.Password},
		store,
		notify.NewNotifier(mailer, rec),
		rec,
	)
	return fixture{
		portal:  portal,
		store:   store,
		mailer:  mailer,
		rec:     rec,
		watcher: w,
	}
}

func TestRunChangedSubject(t *testing.T) {
	old := grades.Record{
		Subject: "Calculo",
		Scores:  grades.Scores{{Label: "P1", Value: null.StringFrom("7.0")}},
		Average: null.StringFrom("7.0"),
	}
	f := setup(t, old)
	f.portal.SetGradesPage([]byte(calculoPage))

	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Subjects)
	require.Len(t, result.Changes, 1)
	require.Equal(t, &old, result.Changes[0].Old)

	require.Len(t, f.mailer.sent, 1)
	require.Equal(t, "Grade update: Calculo", f.mailer.sent[0].Subject)

	stored, _, err := f.store.ReadOne(context.Background(), "Calculo")
	require.NoError(t, err)
	require.Equal(t, "8.0", stored.Average.String)

	n, ok := f.rec.Count(report_changes)
	require.True(t, ok)
	require.Equal(t, int64(1), n)
}

func TestRunUnchanged(t *testing.T) {
	f := setup(t)

	result, err := f.watcher.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Changes, 4)
	require.Len(t, f.mailer.sent, 1)
	require.Equal(t, 4, f.store.Writes())

	result, err = f.watcher.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Changes)
	require.Equal(t, 4, result.Subjects)
	require.Len(t, f.mailer.sent, 1)
	require.Equal(t, 4, f.store.Writes())
}

func TestRunScrapeFailure(t *testing.T) {
	f := setup(t)
	f.portal.SetLoginPage(interagetest.LoginNoTokenPage)

	_, err := f.watcher.Run(context.Background())
	require.ErrorIs(t, err, interage.ErrTokenNotFound)
	require.Zero(t, f.store.Writes())
	require.Empty(t, f.mailer.sent)
	require.True(t, f.rec.HasBroken(report_run_scrape))
}

type brokenStore struct {
	snapshot.Store
}

func (brokenStore) ReadAll(ctx context.Context) ([]grades.Record, error) {
	return nil, errors.New("table not found")
}

func TestRunReadFailure(t *testing.T) {
	rec := telemetrytest.NewRecorder()
	mailer := &recordingMailer{}
	w := NewWatcher(
		staticScraper{records: []grades.Record{{Subject: "Calculo"}}},
		interage.Credentials{},
		brokenStore{},
		notify.NewNotifier(mailer, rec),
		rec,
	)

	_, err := w.Run(context.Background())
	require.ErrorContains(t, err, "table not found")
	require.Empty(t, mailer.sent)
	require.True(t, rec.HasBroken(report_run_read_old))
}

// staleStore hides what a concurrent run already wrote from ReadAll.
type staleStore struct {
	*snapshot.MemoryStore
}

func (staleStore) ReadAll(ctx context.Context) ([]grades.Record, error) {
	return nil, nil
}

func TestRunNotifiesOnlyWrittenChanges(t *testing.T) {
	calculo := grades.Record{Subject: "Calculo", Average: null.StringFrom("8.0")}
	fisica := grades.Record{Subject: "Fisica", Average: null.StringFrom("6.0")}

	rec := telemetrytest.NewRecorder()
	mailer := &recordingMailer{}
	store := snapshot.NewMemoryStore(rec, calculo)
	w := NewWatcher(
		staticScraper{records: []grades.Record{calculo, fisica}},
		interage.Credentials{},
		staleStore{store},
		notify.NewNotifier(mailer, rec),
		rec,
	)

	result, err := w.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Changes, 1)
	require.Equal(t, "Fisica", result.Changes[0].Subject)
	require.True(t, rec.HasWarning("write-if-changed.conflict"))

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "Grade update: Fisica", mailer.sent[0].Subject)
	require.NotContains(t, mailer.sent[0].Text, "Calculo")
}

type staticScraper struct {
	records []grades.Record
}

func (s staticScraper) Scrape(ctx context.Context, creds interage.Credentials) ([]grades.Record, error) {
	return s.records, nil
}

func TestRunTagsReportsWithRunId(t *testing.T) {
	rec := telemetrytest.NewRecorder()
	w := NewWatcher(
		staticScraper{},
		interage.Credentials{},
		brokenStore{},
		notify.NewNotifier(&recordingMailer{}, rec),
		rec,
	)
	_, err := w.Run(context.Background())
	require.Error(t, err)

	broken := rec.Broken()
	require.NotEmpty(t, broken)
	last := broken[len(broken)-1].Params
	tag, ok := last[len(last)-1].(telemetry.KV)
	require.True(t, ok)
	require.Equal(t, "run", tag.Key)
	require.Len(t, tag.Value, 8)
}
