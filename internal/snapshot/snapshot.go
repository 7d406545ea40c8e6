package snapshot

import (
	"context"
	"errors"
	"fmt"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/grades"
)

const (
	report_db_query       = "db.query"
	report_decode_record  = "decode-record"
	report_write_conflict = "write-if-changed.conflict"
)

// ErrConflict is returned when a record changed in the store between it
// being read and being written.
var ErrConflict = errors.New("record was modified concurrently")

// Store persists the last known record of every subject.
type Store interface {
	// ReadAll returns every stored record, in no particular order.
	ReadAll(ctx context.Context) ([]grades.Record, error)
	ReadOne(ctx context.Context, subject string) (grades.Record, bool, error)
	// WriteIfChanged persists every record in next that differs from the
	// record with the same subject in prev and returns what was written.
	//
	// subjects are written one by one, if a write fails the changes already
	// written are returned along with the error.
	WriteIfChanged(ctx context.Context, next, prev []grades.Record) ([]grades.Change, error)
}

type writeFunc func(ctx context.Context, record grades.Record, old *grades.Record) error

func writeIfChanged(
	ctx context.Context,
	tel telemetry.API,
	next, prev []grades.Record,
	write writeFunc,
) ([]grades.Change, error) {
	var written []grades.Change
	for _, change := range grades.ComputeChanges(prev, next) {
		err := write(ctx, change.New, change.Old)
		if errors.Is(err, ErrConflict) {
			tel.ReportWarning(
				report_write_conflict,
				err,
				telemetry.KV{Key: "subject", Value: change.Subject},
			)
			continue
		}
		if err != nil {
			return written, fmt.Errorf("write %q: %w", change.Subject, err)
		}
		written = append(written, change)
	}
	return written, nil
}
