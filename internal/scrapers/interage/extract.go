package interage

import (
	"bytes"
	"fmt"
	"gradewatch/internal/components/assert"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/grades"
	"gradewatch/pkg/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/volatiletech/null/v8"
)

const (
	report_extract_parse         = "extract.parse"
	report_extract_header        = "extract.header"
	report_extract_content_block = "extract.content-block"
	report_extract_panels        = "extract.panels"
	report_extract_panel         = "extract.panel"
)

// Extractor turns the grades page into records, it does not touch the network.
type Extractor struct {
	matchers Matchers
	tel      telemetry.API
}

func NewExtractor(matchers Matchers, tel telemetry.API) Extractor {
	assert.NotNil(tel)
	return Extractor{
		matchers: matchers.withDefaults(),
		tel:      tel,
	}
}

func (e Extractor) Extract(html []byte) ([]grades.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(html))
	if err != nil {
		e.tel.ReportBroken(report_extract_parse, err)
		return nil, fmt.Errorf("parse grades page: %w", err)
	}

	header := e.findGradesHeader(doc)
	if header == nil {
		e.tel.ReportBroken(report_extract_header, ErrHeaderNotFound)
		return nil, ErrHeaderNotFound
	}

	content := header.NextAllFiltered("div.bloco-conteudo-intermediario").First()
	if content.Length() == 0 {
		e.tel.ReportBroken(report_extract_content_block, ErrContentBlockNotFound)
		return nil, ErrContentBlockNotFound
	}

	panels := content.Find("div.panel.panel-default")
	if panels.Length() == 0 {
		e.tel.ReportBroken(report_extract_panels, ErrNoPanelsFound)
		return nil, ErrNoPanelsFound
	}

	seen := map[string]struct{}{}
	records := []grades.Record{}
	panels.Each(func(i int, panel *goquery.Selection) {
		subject := subjectName(panel)
		if subject == "" {
			e.tel.ReportWarning(
				report_extract_panel,
				fmt.Errorf("could not find subject name"),
				telemetry.KV{Key: "panel", Value: i},
			)
			return
		}
		if _, ok := seen[subject]; ok {
			e.tel.ReportWarning(
				report_extract_panel,
				fmt.Errorf("duplicate subject"),
				telemetry.KV{Key: "subject", Value: subject},
			)
			return
		}
		seen[subject] = struct{}{}

		scores, average := e.tableData(panel.Find("table").First())
		records = append(records, grades.Record{
			Subject: subject,
			Scores:  scores,
			Average: average,
		})
	})

	e.tel.ReportDebug("extracted grades", telemetry.KV{Key: "subjects", Value: len(records)})
	return records, nil
}

func (e Extractor) findGradesHeader(doc *goquery.Document) *goquery.Selection {
	var header *goquery.Selection
	doc.Find("div.bloco-conteudo-cabecalho").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		h4 := div.Find("h4").First()
		if h4.Length() > 0 && e.matchers.GradesHeader(h4.Text()) {
			header = div
			return false
		}
		return true
	})
	return header
}

// subjectName takes the text after the first hyphen of the panel's title,
// titles look like "ECM401 - Cálculo Diferencial e Integral I".
func subjectName(panel *goquery.Selection) string {
	title := panel.Find("h4.panel-title").First()
	if title.Length() == 0 {
		return ""
	}
	anchor := title.Find("a.tabela-notas").First()
	if anchor.Length() == 0 {
		return ""
	}
	parts := strings.Split(strings.TrimSpace(htmlutil.JoinedText(anchor, " ")), "-")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type tableRow struct {
	label string
	value string
}

func tableRows(table *goquery.Selection) []tableRow {
	if table.Length() == 0 {
		return nil
	}
	tbody := table.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil
	}
	var rows []tableRow
	tbody.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cols := tr.Find("td")
		if cols.Length() < 2 {
			return
		}
		rows = append(rows, tableRow{
			label: htmlutil.StrippedText(cols.Eq(0)),
			value: htmlutil.StrippedText(cols.Eq(1)),
		})
	})
	return rows
}

// tableData reads the rows of a subject's table in two passes, the first
// assigns values and picks out the average, the second makes sure every
// non-average label ends up in the scores even without a value.
func (e Extractor) tableData(table *goquery.Selection) (grades.Scores, null.String) {
	rows := tableRows(table)

	scores := grades.Scores{}
	var average null.String
	for _, row := range rows {
		var value null.String
		if row.value != "" {
			value = null.StringFrom(strings.ReplaceAll(row.value, ",", "."))
		}
		if e.matchers.Average(row.label) {
			average = value
		} else if row.label != "" {
			scores = scores.Set(row.label, value)
		}
	}
	for _, row := range rows {
		if row.label != "" && !scores.Has(row.label) && !e.matchers.Average(row.label) {
			scores = scores.Set(row.label, null.String{})
		}
	}

	return scores, average
}
