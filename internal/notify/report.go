package notify

import (
	"bytes"
	"fmt"
	"gradewatch/internal/grades"
	"html/template"
	"strings"

	"github.com/volatiletech/null/v8"
)

// Report is the rendered notification for a set of changes.
type Report struct {
	Subject string
	Text    string
	HTML    string
}

func reportSubject(changes []grades.Change) string {
	if len(changes) == 1 {
		return fmt.Sprintf("Grade update: %s", changes[0].Subject)
	}
	names := make([]string, len(changes))
	for i, c := range changes {
		names[i] = c.Subject
	}
	return fmt.Sprintf("Grade updates: %s", strings.Join(names, ", "))
}

func reportText(changes []grades.Change) string {
	var out strings.Builder
	out.WriteString("The following grades have changed:\n")
	for _, c := range changes {
		previousScores := "N/A"
		previousAverage := "N/A"
		if c.Old != nil {
			previousScores = c.Old.Scores.String()
			previousAverage = grades.FormatValue(c.Old.Average, "N/A")
		}
		fmt.Fprintf(
			&out,
			"\nSubject: %s\nPrevious grades: %s\nCurrent grades:    %s\nPrevious average: %s\nCurrent average:    %s\n",
			c.Subject,
			previousScores,
			c.New.Scores.String(),
			previousAverage,
			grades.FormatValue(c.New.Average, "N/A"),
		)
	}
	return out.String()
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"value": func(v null.String, fallback string) string {
		return grades.FormatValue(v, fallback)
	},
}).Parse(`<html><body><h3>Hello! 😃 The following grades have changed:</h3><hr>
{{- range . }}
<h3 style="margin-bottom:2px;">{{ .Subject }}</h3>
<table border="1" cellpadding="0" cellspacing="0" style="border-collapse:collapse;margin-bottom:10px;">
  <tr><th style="padding:4px 8px;background:#f0f0f0;">Previous Grades</th><th style="padding:4px 8px;background:#f0f0f0;">Current Grades</th></tr>
  <tr>
    <td valign="top"><table>{{ range .OldScores }}<tr><td style="padding:4px 8px;">{{ .Label }}</td><td style="padding:4px 8px;">{{ value .Value "-" }}</td></tr>{{ end }}</table></td>
    <td valign="top"><table>{{ range .NewScores }}<tr><td style="padding:4px 8px;">{{ .Label }}</td><td style="padding:4px 8px;">{{ value .Value "-" }}</td></tr>{{ end }}</table></td>
  </tr>
  <tr><td style="padding:4px 8px;">Previous Average: <b>{{ value .OldAverage "N/A" }}</b></td><td style="padding:4px 8px;">Current Average: <b>{{ value .NewAverage "N/A" }}</b></td></tr>
</table>
{{- end }}
</body></html>`))

type htmlChange struct {
	Subject    string
	OldScores  grades.Scores
	NewScores  grades.Scores
	OldAverage null.String
	NewAverage null.String
}

func reportHTML(changes []grades.Change) (string, error) {
	data := make([]htmlChange, len(changes))
	for i, c := range changes {
		data[i] = htmlChange{
			Subject:    c.Subject,
			NewScores:  c.New.Scores,
			NewAverage: c.New.Average,
		}
		if c.Old != nil {
			data[i].OldScores = c.Old.Scores
			data[i].OldAverage = c.Old.Average
		}
	}

	var out bytes.Buffer
	err := htmlTemplate.Execute(&out, data)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// BuildReport renders the changes, it should only be called with at least one change.
func BuildReport(changes []grades.Change) (Report, error) {
	html, err := reportHTML(changes)
	if err != nil {
		return Report{}, fmt.Errorf("render html report: %w", err)
	}
	return Report{
		Subject: reportSubject(changes),
		Text:    reportText(changes),
		HTML:    html,
	}, nil
}
