package app

import (
	"context"
	"database/sql"
	"fmt"
	"gradewatch/internal/components/assert"
	"gradewatch/internal/components/chrono"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/config"
	"gradewatch/internal/db"
	"gradewatch/internal/notify"
	"gradewatch/internal/scrapers/interage"
	"gradewatch/internal/snapshot"
	"gradewatch/internal/watcher"
	"gradewatch/pkg/sqliteutil"
	"io"
	"os"
)

type Options struct {
	// if true, nothing is written to the store and reports are printed
	// instead of being emailed
	DryRun bool
	// where dry run reports are printed, defaults to stdout
	Stdout io.Writer
	// if set, every portal request and response is dumped here
	Output telemetry.MessageOutput
}

// App holds everything needed to run the watcher.
type App struct {
	Config  config.Config
	Clock   chrono.StandardTime
	Client  interage.Client
	Store   snapshot.Store
	Watcher watcher.Watcher

	database *sql.DB
}

// OpenStore opens the store the config points to.
func OpenStore(cfg config.Config, clock chrono.TimeAPI, tel telemetry.API) (snapshot.SqliteStore, *sql.DB, error) {
	database, err := sqliteutil.OpenDB(db.Schema, cfg.GradesTable)
	if err != nil {
		return snapshot.SqliteStore{}, nil, err
	}
	return snapshot.NewSqliteStore(db.New(database), clock, tel), database, nil
}

func NewClock(cfg config.Config) (chrono.StandardTime, error) {
	if cfg.Timezone == "" {
		return chrono.StandardTime{}, nil
	}
	clock, err := chrono.NewStandardTime(cfg.Timezone)
	if err != nil {
		return chrono.StandardTime{}, config.ConfigurationError{
			Message: fmt.Sprintf("invalid timezone %q: %s", cfg.Timezone, err.Error()),
		}
	}
	return clock, nil
}

func New(ctx context.Context, cfg config.Config, opts Options, tel telemetry.API) (*App, error) {
	assert.NotNil(tel)

	clock, err := NewClock(cfg)
	if err != nil {
		return nil, err
	}

	client, err := interage.NewClient(interage.Options{
		BaseUrl:           cfg.Portal.BaseUrl,
		Timeout:           cfg.Portal.Timeout(),
		RequestsPerSecond: cfg.Portal.RequestsPerSecond,
		BypassCloudflare:  cfg.Portal.BypassCloudflare,
		Matchers:          interage.MatchersFromConfig(cfg.Portal.Markers),
		Output:            opts.Output,
	}, tel)
	if err != nil {
		return nil, config.ConfigurationError{Message: fmt.Sprintf("invalid portal config: %s", err.Error())}
	}

	sqliteStore, database, err := OpenStore(cfg, clock, tel)
	if err != nil {
		return nil, fmt.Errorf("open grades table: %w", err)
	}

	var store snapshot.Store = sqliteStore
	var mailer notify.Mailer = notify.NewSMTPMailer(cfg.Email)
	if opts.DryRun {
		current, err := sqliteStore.ReadAll(ctx)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		store = snapshot.NewMemoryStore(tel, current...)

		stdout := opts.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		mailer = notify.WriterMailer{Writer: stdout}
	}

	w := watcher.NewWatcher(
		client,
		interage.Credentials{
			Username: cfg.Portal.Username,
			Password: cfg.Portal.Password,
		},
		store,
		notify.NewNotifier(mailer, tel),
		tel,
	)

	return &App{
		Config:   cfg,
		Clock:    clock,
		Client:   client,
		Store:    store,
		Watcher:  w,
		database: database,
	}, nil
}

func (a *App) Close() error {
	if a.database == nil {
		return nil
	}
	return a.database.Close()
}

// RunOnce loads the configuration, runs the watcher a single time and
// releases everything it opened.
func RunOnce(ctx context.Context, configFile string, opts Options, tel telemetry.API) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	app, err := New(ctx, cfg, opts, tel)
	if err != nil {
		return err
	}
	defer app.Close()

	_, err = app.Watcher.Run(ctx)
	return err
}
