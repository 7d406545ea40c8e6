// Package interagetest provides saved portal pages and a fake portal server
// for tests that need to log in and fetch grades.
package interagetest

import (
	_ "embed"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

var (
	//go:embed testdata/login.html
	LoginPage []byte
	//go:embed testdata/login_no_token.html
	LoginNoTokenPage []byte
	//go:embed testdata/login_invalid.html
	LoginInvalidPage []byte
	//go:embed testdata/home.html
	HomePage []byte
	//go:embed testdata/session_expired.html
	SessionExpiredPage []byte
	//go:embed testdata/grades.html
	GradesPage []byte
)

const (
	Username = "ra12345"
	Password = "hunter2"
	Token    = "CfDJ8Nq-token-value"

	loginPath     = "/secureserver/portal/"
	loginRedirect = "/secureserver/portal/login"
	gradesPath    = "/secureserver/portal/graduacao/secretaria/consultas/notas"
	sessionCookie = ".AspNetCore.Session"
	sessionValue  = "authenticated"
)

// Portal imitates the login and grades endpoints of the portal.
type Portal struct {
	loginPage  atomic.Pointer[[]byte]
	gradesPage atomic.Pointer[[]byte]
	// if true, the portal accepts the login but never sets the session cookie
	ForgetSession atomic.Bool
	// number of requests received
	Requests atomic.Int64
}

func NewPortal() *Portal {
	p := &Portal{}
	p.SetLoginPage(LoginPage)
	p.SetGradesPage(GradesPage)
	return p
}

func (p *Portal) SetLoginPage(page []byte) {
	p.loginPage.Store(&page)
}

func (p *Portal) SetGradesPage(page []byte) {
	p.gradesPage.Store(&page)
}

func writeHtml(w http.ResponseWriter, page []byte) {
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Write(page)
}

func (p *Portal) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		p.Requests.Add(1)
		if r.URL.Path != loginPath {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodGet {
			writeHtml(w, *p.loginPage.Load())
			return
		}

		err := r.ParseForm()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("__RequestVerificationToken") != Token {
			http.Error(w, "bad token", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("Usuario") != Username || r.PostForm.Get("Senha") != Password {
			writeHtml(w, LoginInvalidPage)
			return
		}
		if !p.ForgetSession.Load() {
			http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sessionValue, Path: "/"})
		}
		writeHtml(w, HomePage)
	})
	mux.HandleFunc(loginRedirect, func(w http.ResponseWriter, r *http.Request) {
		p.Requests.Add(1)
		writeHtml(w, *p.loginPage.Load())
	})
	mux.HandleFunc(gradesPath, func(w http.ResponseWriter, r *http.Request) {
		p.Requests.Add(1)
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value != sessionValue {
			http.Redirect(w, r, loginRedirect+"?ReturnUrl=%2Fnotas", http.StatusFound)
			return
		}
		writeHtml(w, *p.gradesPage.Load())
	})
	return mux
}

// Start serves the portal until the test finishes and returns its base url.
func (p *Portal) Start(t testing.TB) string {
	server := httptest.NewServer(p.Handler())
	t.Cleanup(server.Close)
	return server.URL
}
