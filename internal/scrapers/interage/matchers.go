package interage

import (
	"gradewatch/internal/config"
	"gradewatch/pkg/textutil"
)

// Matchers are the text markers the scraper looks for in portal pages.
type Matchers struct {
	// matched against the body of the login response
	InvalidCredentials textutil.Matcher
	// matched against the body of the grades page
	SessionExpired textutil.Matcher
	// matched against the final url of the grades page, after redirects
	LoginPath textutil.Matcher
	// matched against the h4 of a content header block
	GradesHeader textutil.Matcher
	// matched against the label of a table row
	Average textutil.Matcher
}

var defaultMarkers = config.Markers{
	InvalidCredentials: []string{"Usuário ou senha inválidos"},
	SessionExpired:     []string{"Sessão expirada"},
	LoginPath:          []string{"login"},
	GradesHeader:       []string{"Notas (Semestre Atual)"},
	Average:            []string{"Média", "Final"},
}

func DefaultMatchers() Matchers {
	return MatchersFromConfig(config.Markers{})
}

// MatchersFromConfig builds matchers from configured markers, any marker
// list left empty keeps its default. With FoldCase set every marker,
// default or not, ignores case and whitespace.
func MatchersFromConfig(markers config.Markers) Matchers {
	contains := textutil.Contains
	if markers.FoldCase {
		contains = textutil.ContainsFold
	}
	pick := func(configured, fallback []string) textutil.Matcher {
		if len(configured) > 0 {
			return contains(configured...)
		}
		return contains(fallback...)
	}
	return Matchers{
		InvalidCredentials: pick(markers.InvalidCredentials, defaultMarkers.InvalidCredentials),
		SessionExpired:     pick(markers.SessionExpired, defaultMarkers.SessionExpired),
		LoginPath:          pick(markers.LoginPath, defaultMarkers.LoginPath),
		GradesHeader:       pick(markers.GradesHeader, defaultMarkers.GradesHeader),
		Average:            pick(markers.Average, defaultMarkers.Average),
	}
}

func (m Matchers) withDefaults() Matchers {
	defaults := DefaultMatchers()
	if m.InvalidCredentials == nil {
		m.InvalidCredentials = defaults.InvalidCredentials
	}
	if m.SessionExpired == nil {
		m.SessionExpired = defaults.SessionExpired
	}
	if m.LoginPath == nil {
		m.LoginPath = defaults.LoginPath
	}
	if m.GradesHeader == nil {
		m.GradesHeader = defaults.GradesHeader
	}
	if m.Average == nil {
		m.Average = defaults.Average
	}
	return m
}
