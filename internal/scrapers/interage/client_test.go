package interage

import (
	"context"
	"gradewatch/internal/components/telemetry/telemetrytest"
	"gradewatch/internal/config"
	"gradewatch/internal/scrapers/interage/interagetest"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, portal *interagetest.Portal) (Client, *telemetrytest.Recorder) {
	rec := telemetrytest.NewRecorder()
	client, err := NewClient(Options{
		BaseUrl:           portal.Start(t),
		Timeout:           5 * time.Second,
		RequestsPerSecond: -1,
	}, rec)
	require.NoError(t, err)
	return client, rec
}

func validCredentials() Credentials {
	return Credentials{Username: interagetest.Username, Password: interagetest.Password}
}

func portalWithLogin(page []byte) *interagetest.Portal {
	portal := interagetest.NewPortal()
	portal.SetLoginPage(page)
	return portal
}

func TestScrape(t *testing.T) {
	client, rec := newTestClient(t, interagetest.NewPortal())

	records, err := client.Scrape(context.Background(), validCredentials())
	require.NoError(t, err)
	if diff := cmp.Diff(expectedRecords, records); diff != "" {
		t.Fatal(diff)
	}
	require.Empty(t, rec.Broken())
}

func TestLoginTokenNotFound(t *testing.T) {
	client, rec := newTestClient(t, portalWithLogin(interagetest.LoginNoTokenPage))

	_, err := client.Login(context.Background(), validCredentials())
	require.ErrorIs(t, err, ErrTokenNotFound)
	require.True(t, rec.HasBroken(report_client_login))
}

func TestLoginInvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, interagetest.NewPortal())

	_, err := client.Login(context.Background(), Credentials{Username: interagetest.Username, Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginMissingCredentials(t *testing.T) {
	portal := interagetest.NewPortal()
	client, _ := newTestClient(t, portal)

	_, err := client.Login(context.Background(), Credentials{Username: interagetest.Username})
	require.ErrorIs(t, err, config.ErrCredentialsNotSet)
	require.True(t, config.IsConfigurationError(err))
	require.Zero(t, portal.Requests.Load())
}

func TestLoginServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseUrl: server.URL, RequestsPerSecond: -1}, telemetrytest.NewRecorder())
	require.NoError(t, err)

	_, err = client.Login(context.Background(), validCredentials())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTokenNotFound)
	require.Contains(t, err.Error(), "503")
}

func TestFetchGradesPageSessionExpiredMarker(t *testing.T) {
	portal := interagetest.NewPortal()
	portal.SetGradesPage(interagetest.SessionExpiredPage)
	client, _ := newTestClient(t, portal)

	session, err := client.Login(context.Background(), validCredentials())
	require.NoError(t, err)

	_, err = session.FetchGradesPage(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestFetchGradesPageRedirectedToLogin(t *testing.T) {
	portal := interagetest.NewPortal()
	portal.ForgetSession.Store(true)
	client, rec := newTestClient(t, portal)

	session, err := client.Login(context.Background(), validCredentials())
	require.NoError(t, err)

	_, err = session.FetchGradesPage(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	require.True(t, rec.HasWarning(report_client_fetch_grades))
}

func TestSessionsDoNotShareCookies(t *testing.T) {
	portal := interagetest.NewPortal()
	client, _ := newTestClient(t, portal)

	_, err := client.Login(context.Background(), validCredentials())
	require.NoError(t, err)

	// a second session that fails to log in must not reuse the first one's cookie
	_, err = client.Login(context.Background(), Credentials{Username: interagetest.Username, Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	portal.ForgetSession.Store(true)
	session, err := client.Login(context.Background(), validCredentials())
	require.NoError(t, err)
	_, err = session.FetchGradesPage(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestNewClientInvalidBaseUrl(t *testing.T) {
	_, err := NewClient(Options{BaseUrl: "not a url"}, telemetrytest.NewRecorder())
	require.Error(t, err)
}

func TestMatchersFromConfig(t *testing.T) {
	m := MatchersFromConfig(config.Markers{Average: []string{"Exame"}})
	require.True(t, m.Average("Exame Final"))
	require.False(t, m.Average("Média"))
	require.True(t, m.GradesHeader("Notas (Semestre Atual)"))
}

func TestMatchersFromConfigFoldCase(t *testing.T) {
	strict := MatchersFromConfig(config.Markers{})
	require.False(t, strict.SessionExpired("SESSÃO   EXPIRADA"))

	folded := MatchersFromConfig(config.Markers{FoldCase: true, Average: []string{"media final"}})
	require.True(t, folded.SessionExpired("SESSÃO   EXPIRADA"))
	require.True(t, folded.GradesHeader("notas (semestre atual)"))
	require.True(t, folded.Average("MEDIA  FINAL"))
	require.False(t, folded.Average("Prova 1"))
}
