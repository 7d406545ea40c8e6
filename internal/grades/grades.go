package grades

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/volatiletech/null/v8"
)

// Score is a single graded component of a subject, Value is null when the
// portal shows no score for it yet.
type Score struct {
	Label string
	Value null.String
}

// MarshalJSON encodes the score as a `[label, value]` pair.
func (s Score) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]null.String{null.StringFrom(s.Label), s.Value})
}

func (s *Score) UnmarshalJSON(data []byte) error {
	var pair [2]null.String
	err := json.Unmarshal(data, &pair)
	if err != nil {
		return err
	}
	if !pair[0].Valid {
		return fmt.Errorf("score label cannot be null")
	}
	s.Label = pair[0].String
	s.Value = pair[1]
	return nil
}

// Scores keeps score components in the order they were first seen.
type Scores []Score

func (s Scores) index(label string) int {
	for i, score := range s {
		if score.Label == label {
			return i
		}
	}
	return -1
}

func (s Scores) Has(label string) bool {
	return s.index(label) >= 0
}

func (s Scores) Get(label string) (null.String, bool) {
	i := s.index(label)
	if i < 0 {
		return null.String{}, false
	}
	return s[i].Value, true
}

// Set overwrites the value of an existing label in place or appends a new one.
func (s Scores) Set(label string, value null.String) Scores {
	i := s.index(label)
	if i >= 0 {
		s[i].Value = value
		return s
	}
	return append(s, Score{Label: label, Value: value})
}

// Equal compares scores by label, the order they are listed in only
// matters for display.
func (s Scores) Equal(other Scores) bool {
	if len(s) != len(other) {
		return false
	}
	for _, score := range s {
		value, ok := other.Get(score.Label)
		if !ok || !nullEqual(score.Value, value) {
			return false
		}
	}
	return true
}

func (s Scores) String() string {
	parts := make([]string, len(s))
	for i, score := range s {
		parts[i] = fmt.Sprintf("%s: %s", score.Label, FormatValue(score.Value, "null"))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Record is the last known state of a subject.
type Record struct {
	Subject string
	Scores  Scores
	Average null.String
}

func (r Record) Equal(other Record) bool {
	return r.Subject == other.Subject &&
		r.Scores.Equal(other.Scores) &&
		nullEqual(r.Average, other.Average)
}

// Change is a subject whose record differs from the previous snapshot, Old
// is nil when the subject was never seen before.
type Change struct {
	Subject string
	Old     *Record
	New     Record
}

// ComputeChanges returns a change for every record in next that is not equal
// to the record with the same subject in prev, in the order of next.
//
// if next contains the same subject more than once, the last record wins but
// the subject keeps the position it was first seen at.
func ComputeChanges(prev, next []Record) []Change {
	prevMap := make(map[string]Record, len(prev))
	for _, r := range prev {
		prevMap[r.Subject] = r
	}

	order := []string{}
	nextMap := make(map[string]Record, len(next))
	for _, r := range next {
		if _, seen := nextMap[r.Subject]; !seen {
			order = append(order, r.Subject)
		}
		nextMap[r.Subject] = r
	}

	var changes []Change
	for _, subject := range order {
		current := nextMap[subject]
		old, ok := prevMap[subject]
		if ok && old.Equal(current) {
			continue
		}
		change := Change{Subject: subject, New: current}
		if ok {
			change.Old = &old
		}
		changes = append(changes, change)
	}
	return changes
}

// FormatValue renders an optional value, using fallback for null.
func FormatValue(v null.String, fallback string) string {
	if !v.Valid {
		return fallback
	}
	return v.String
}

func nullEqual(a, b null.String) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.String == b.String
}
