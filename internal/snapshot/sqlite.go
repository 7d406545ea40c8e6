package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"gradewatch/internal/components/assert"
	"gradewatch/internal/components/chrono"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/db"
	"gradewatch/internal/grades"

	"github.com/volatiletech/null/v8"
)

type SqliteStore struct {
	db   *db.Queries
	time chrono.TimeAPI
	tel  telemetry.API
}

func NewSqliteStore(qry *db.Queries, clock chrono.TimeAPI, tel telemetry.API) SqliteStore {
	assert.NotNil(qry)
	assert.NotNil(clock)
	assert.NotNil(tel)

	return SqliteStore{
		db:   qry,
		time: clock,
		tel:  telemetry.NewScopedAPI("snapshot", tel),
	}
}

func encodeScores(scores grades.Scores) (string, error) {
	if scores == nil {
		scores = grades.Scores{}
	}
	buf, err := json.Marshal(scores)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func toNullString(v null.String) sql.NullString {
	return sql.NullString{String: v.String, Valid: v.Valid}
}

func (s SqliteStore) decode(row db.GradeRecord) (grades.Record, error) {
	var scores grades.Scores
	err := json.Unmarshal([]byte(row.Scores), &scores)
	if err != nil {
		s.tel.ReportBroken(report_decode_record, err, telemetry.KV{Key: "subject", Value: row.SubjectName})
		return grades.Record{}, fmt.Errorf("decode scores of %q: %w", row.SubjectName, err)
	}
	if scores == nil {
		scores = grades.Scores{}
	}
	return grades.Record{
		Subject: row.SubjectName,
		Scores:  scores,
		Average: null.NewString(row.Average.String, row.Average.Valid),
	}, nil
}

func (s SqliteStore) ReadAll(ctx context.Context) ([]grades.Record, error) {
	rows, err := s.db.ListGradeRecords(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "ListGradeRecords")
		return nil, err
	}
	records := make([]grades.Record, 0, len(rows))
	for _, row := range rows {
		record, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s SqliteStore) ReadOne(ctx context.Context, subject string) (grades.Record, bool, error) {
	row, err := s.db.GetGradeRecord(ctx, subject)
	if errors.Is(err, sql.ErrNoRows) {
		return grades.Record{}, false, nil
	}
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetGradeRecord", subject)
		return grades.Record{}, false, err
	}
	record, err := s.decode(row)
	if err != nil {
		return grades.Record{}, false, err
	}
	return record, true, nil
}

func (s SqliteStore) WriteIfChanged(ctx context.Context, next, prev []grades.Record) ([]grades.Change, error) {
	return writeIfChanged(ctx, s.tel, next, prev, s.write)
}

// write inserts a subject never seen before or overwrites it only if the
// stored row still holds old.
func (s SqliteStore) write(ctx context.Context, record grades.Record, old *grades.Record) error {
	scores, err := encodeScores(record.Scores)
	if err != nil {
		return err
	}
	now := s.time.Now().Unix()

	if old == nil {
		affected, err := s.db.InsertGradeRecord(ctx, db.InsertGradeRecordParams{
			SubjectName: record.Subject,
			Scores:      scores,
			Average:     toNullString(record.Average),
			UpdatedAt:   now,
		})
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "InsertGradeRecord", record.Subject)
			return err
		}
		if affected == 0 {
			return ErrConflict
		}
		return nil
	}

	oldScores, err := encodeScores(old.Scores)
	if err != nil {
		return err
	}
	affected, err := s.db.UpdateGradeRecord(ctx, db.UpdateGradeRecordParams{
		Scores:      scores,
		Average:     toNullString(record.Average),
		UpdatedAt:   now,
		SubjectName: record.Subject,
		OldScores:   oldScores,
		OldAverage:  toNullString(old.Average),
	})
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "UpdateGradeRecord", record.Subject)
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}
