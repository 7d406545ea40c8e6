package snapshot

import (
	"context"
	"gradewatch/internal/components/assert"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/grades"
	"sort"
	"sync"
)

// MemoryStore keeps records in memory, it is used for dry runs and tests.
type MemoryStore struct {
	mutex   sync.Mutex
	records map[string]grades.Record
	writes  int
	tel     telemetry.API
}

func NewMemoryStore(tel telemetry.API, seed ...grades.Record) *MemoryStore {
	assert.NotNil(tel)

	records := make(map[string]grades.Record, len(seed))
	for _, r := range seed {
		records[r.Subject] = r
	}
	return &MemoryStore{
		records: records,
		tel:     telemetry.NewScopedAPI("snapshot", tel),
	}
}

// Writes is the number of records written since the store was created.
func (s *MemoryStore) Writes() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.writes
}

func (s *MemoryStore) ReadAll(ctx context.Context) ([]grades.Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]grades.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Subject < out[j].Subject
	})
	return out, nil
}

func (s *MemoryStore) ReadOne(ctx context.Context, subject string) (grades.Record, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	r, ok := s.records[subject]
	return r, ok, nil
}

func (s *MemoryStore) WriteIfChanged(ctx context.Context, next, prev []grades.Record) ([]grades.Change, error) {
	return writeIfChanged(ctx, s.tel, next, prev, s.write)
}

func (s *MemoryStore) write(ctx context.Context, record grades.Record, old *grades.Record) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	current, exists := s.records[record.Subject]
	if old == nil && exists {
		return ErrConflict
	}
	if old != nil && (!exists || !current.Equal(*old)) {
		return ErrConflict
	}
	s.records[record.Subject] = record
	s.writes++
	return nil
}
