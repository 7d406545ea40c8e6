package commands

import (
	"gradewatch/internal/grades"
	"gradewatch/pkg/htmlutil"
	"io"
	"sort"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
)

const suggestionThreshold = 0.75

// renderRecords writes one row per score, the average is shown on the
// first row of every subject. Names are cleaned up for display only.
func renderRecords(w io.Writer, records []grades.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Subject", "Label", "Value", "Average"})

	for _, r := range records {
		name := htmlutil.CleanText(r.Subject)
		average := grades.FormatValue(r.Average, "N/A")
		if len(r.Scores) == 0 {
			t.AppendRow(table.Row{name, "", "", average})
			t.AppendSeparator()
			continue
		}
		for i, s := range r.Scores {
			subject := ""
			avg := ""
			if i == 0 {
				subject = name
				avg = average
			}
			t.AppendRow(table.Row{subject, htmlutil.CleanText(s.Label), grades.FormatValue(s.Value, "-"), avg})
		}
		t.AppendSeparator()
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

type suggestion struct {
	subject    string
	similarity float64
}

// suggestSubjects returns the known subjects most similar to target,
// best match first.
func suggestSubjects(target string, records []grades.Record) []string {
	var candidates []suggestion
	for _, r := range records {
		similarity := matchr.JaroWinkler(target, r.Subject, false)
		if similarity < suggestionThreshold {
			continue
		}
		candidates = append(candidates, suggestion{subject: r.Subject, similarity: similarity})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.subject
	}
	return out
}
