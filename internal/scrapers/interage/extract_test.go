package interage

import (
	"errors"
	"gradewatch/internal/components/telemetry/telemetrytest"
	"gradewatch/internal/grades"
	"gradewatch/internal/scrapers/interage/interagetest"
	"gradewatch/pkg/textutil"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

func value(v string) null.String {
	return null.StringFrom(v)
}

var expectedRecords = []grades.Record{
	{
		Subject: "Cálculo Diferencial e Integral I",
		Scores: grades.Scores{
			{Label: "Prova 1", Value: value("8.5")},
			{Label: "Prova 2", Value: null.String{}},
		},
	},
	{
		Subject: "Física I",
		Scores: grades.Scores{
			{Label: "P1", Value: value("7.0")},
			{Label: "Lista", Value: value("1.25")},
			{Label: "P2", Value: value("9.0")},
		},
		Average: value("8.0"),
	},
	{
		Subject: "Algoritmos e Programação",
		Scores:  grades.Scores{},
	},
	{
		Subject: "Química Geral",
		Scores: grades.Scores{
			{Label: "Prova 1", Value: value("6.0")},
		},
	},
}

func TestExtract(t *testing.T) {
	rec := telemetrytest.NewRecorder()
	extractor := NewExtractor(DefaultMatchers(), rec)

	records, err := extractor.Extract(interagetest.GradesPage)
	require.NoError(t, err)

	if diff := cmp.Diff(expectedRecords, records); diff != "" {
		t.Fatal(diff)
	}

	// one panel without an anchor and one without a hyphen in its title
	require.Len(t, rec.Warnings(), 2)
	require.Empty(t, rec.Broken())
}

func TestExtractDeterministic(t *testing.T) {
	extractor := NewExtractor(DefaultMatchers(), telemetrytest.NewRecorder())

	first, err := extractor.Extract(interagetest.GradesPage)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := extractor.Extract(interagetest.GradesPage)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatal(diff)
		}
	}
}

func wrapPanels(panels string) []byte {
	return []byte(`<html><body>
		<div class="bloco-conteudo-cabecalho"><h4>Notas (Semestre Atual)</h4></div>
		<div class="bloco-conteudo-intermediario">` + panels + `</div>
	</body></html>`)
}

func panel(title, rows string) string {
	return `<div class="panel panel-default">
		<h4 class="panel-title"><a class="tabela-notas">` + title + `</a></h4>
		<table><tbody>` + rows + `</tbody></table>
	</div>`
}

func TestExtractMissingValueIsNull(t *testing.T) {
	extractor := NewExtractor(DefaultMatchers(), telemetrytest.NewRecorder())

	records, err := extractor.Extract(wrapPanels(panel(
		"ECM401 - Calculo",
		`<tr><td>Prova 1</td><td>8,5</td></tr>
		<tr><td>Prova 2</td><td></td></tr>`,
	)))
	require.NoError(t, err)

	expected := []grades.Record{{
		Subject: "Calculo",
		Scores: grades.Scores{
			{Label: "Prova 1", Value: value("8.5")},
			{Label: "Prova 2", Value: null.String{}},
		},
	}}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractRepeatedLabelKeepsFirstPosition(t *testing.T) {
	extractor := NewExtractor(DefaultMatchers(), telemetrytest.NewRecorder())

	records, err := extractor.Extract(wrapPanels(panel(
		"ECM401 - Calculo",
		`<tr><td>P1</td><td></td></tr>
		<tr><td>P2</td><td>5,0</td></tr>
		<tr><td>P1</td><td>7,0</td></tr>
		<tr><td>Média Final</td><td>6,0</td></tr>
		<tr><td>Final</td><td></td></tr>`,
	)))
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.Equal(t, grades.Scores{
		{Label: "P1", Value: value("7.0")},
		{Label: "P2", Value: value("5.0")},
	}, records[0].Scores)
	// the last average row wins, even when it is empty
	require.False(t, records[0].Average.Valid)
}

func TestExtractDuplicateSubject(t *testing.T) {
	rec := telemetrytest.NewRecorder()
	extractor := NewExtractor(DefaultMatchers(), rec)

	records, err := extractor.Extract(wrapPanels(
		panel("ECM401 - Calculo", `<tr><td>P1</td><td>1,0</td></tr>`) +
			panel("ECM402 - Calculo", `<tr><td>P1</td><td>2,0</td></tr>`),
	))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "1.0", records[0].Scores[0].Value.String)
	require.True(t, rec.HasWarning(report_extract_panel))
}

func TestExtractCustomMatchers(t *testing.T) {
	matchers := Matchers{
		GradesHeader: textutil.Contains("Grades"),
		Average:      textutil.Contains("Average"),
	}
	extractor := NewExtractor(matchers, telemetrytest.NewRecorder())

	records, err := extractor.Extract([]byte(`<html><body>
		<div class="bloco-conteudo-cabecalho"><h4>Grades</h4></div>
		<div class="bloco-conteudo-intermediario">` +
		panel("CS101 - Intro", `<tr><td>Média</td><td>1</td></tr><tr><td>Average</td><td>2</td></tr>`) +
		`</div></body></html>`))
	require.NoError(t, err)

	expected := []grades.Record{{
		Subject: "Intro",
		Scores:  grades.Scores{{Label: "Média", Value: value("1")}},
		Average: value("2"),
	}}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractStructuralErrors(t *testing.T) {
	cases := []struct {
		name     string
		html     string
		expected error
	}{
		{
			name: "no header",
			html: `<html><body>
				<div class="bloco-conteudo-cabecalho"><h4>Notas (Semestre Anterior)</h4></div>
				<div class="bloco-conteudo-intermediario"></div>
			</body></html>`,
			expected: ErrHeaderNotFound,
		},
		{
			name:     "header without h4",
			html:     `<html><body><div class="bloco-conteudo-cabecalho">Notas (Semestre Atual)</div></body></html>`,
			expected: ErrHeaderNotFound,
		},
		{
			name: "no content block",
			html: `<html><body>
				<div class="bloco-conteudo-intermediario"></div>
				<div class="bloco-conteudo-cabecalho"><h4>Notas (Semestre Atual)</h4></div>
			</body></html>`,
			expected: ErrContentBlockNotFound,
		},
		{
			name: "no panels",
			html: `<html><body>
				<div class="bloco-conteudo-cabecalho"><h4>Notas (Semestre Atual)</h4></div>
				<div class="bloco-conteudo-intermediario"><p>Sem disciplinas.</p></div>
			</body></html>`,
			expected: ErrNoPanelsFound,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := telemetrytest.NewRecorder()
			extractor := NewExtractor(DefaultMatchers(), rec)

			_, err := extractor.Extract([]byte(c.html))
			require.ErrorIs(t, err, c.expected)

			var extractionErr *ExtractionError
			require.True(t, errors.As(err, &extractionErr))
			require.Len(t, rec.Broken(), 1)
		})
	}
}

func TestExtractionErrorIs(t *testing.T) {
	err := &ExtractionError{Kind: SessionExpired}
	require.ErrorIs(t, err, ErrSessionExpired)
	require.NotErrorIs(t, err, ErrTokenNotFound)
	require.Equal(t, "Session expired or not authenticated.", err.Error())
	require.Equal(t, "NoPanelsFound", NoPanelsFound.String())
}
