// client.go contains the logic for logging into the portal and fetching pages,
// everything to do with the structure of the grades page is in extract.go.

package interage

import (
	"bytes"
	"context"
	"fmt"
	"gradewatch/internal/components/assert"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/config"
	"gradewatch/internal/grades"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseUrl = "https://interage.fei.org.br"

	LoginPath  = "/secureserver/portal/"
	GradesPath = "/secureserver/portal/graduacao/secretaria/consultas/notas"
)

const (
	report_client_login        = "client.login"
	report_client_fetch_grades = "client.fetch-grades"
)

type Options struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// per request timeout, defaults to 30 seconds
	Timeout time.Duration
	// defaults to 2, a negative value disables rate limiting
	RequestsPerSecond float64
	BypassCloudflare  bool
	Matchers          Matchers
	// if set, every request and response is dumped here
	Output telemetry.MessageOutput
}

type Credentials struct {
	Username string
	Password string
}

type Client struct {
	baseUrl   *url.URL
	options   Options
	extractor Extractor
	tel       telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (Client, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("interage", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultPortalTimeout
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 2
	}
	opts.Matchers = opts.Matchers.withDefaults()

	parsedBaseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return Client{}, fmt.Errorf("parse base url: %w", err)
	}
	if parsedBaseUrl.Hostname() == "" {
		return Client{}, fmt.Errorf("base url %q has no host", opts.BaseUrl)
	}

	return Client{
		baseUrl:   parsedBaseUrl,
		options:   opts,
		extractor: NewExtractor(opts.Matchers, tel),
		tel:       tel,
	}, nil
}

// newHttpClient creates a client with a fresh cookie jar, each session gets its own.
func (c Client) newHttpClient() (*resty.Client, error) {
	httpClient := resty.New()
	httpClient.SetBaseURL(c.baseUrl.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if c.options.BypassCloudflare {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(c.baseUrl.Hostname()),
	)
	httpClient.SetTimeout(c.options.Timeout)

	if c.options.RequestsPerSecond > 0 {
		// max burst >= 2 just means that no requests will be dropped
		rateLimiter := rate.NewLimiter(rate.Limit(c.options.RequestsPerSecond), 2)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, c.tel, c.options.Output)

	return httpClient, nil
}

// Session is an authenticated portal session, requests made through it carry
// the cookies set during login.
type Session struct {
	http     *resty.Client
	matchers Matchers
	tel      telemetry.API
}

func statusError(res *resty.Response) error {
	return fmt.Errorf("unexpected status %s from %s", res.Status(), res.Request.URL)
}

func (c Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, config.ErrCredentialsNotSet
	}

	loginError := func(err error) error {
		return fmt.Errorf("interage: login failed: %w", err)
	}

	httpClient, err := c.newHttpClient()
	if err != nil {
		return nil, loginError(err)
	}

	res, err := httpClient.R().
		SetContext(ctx).
		Get(LoginPath)
	if err != nil {
		c.tel.ReportBroken(
			report_client_login,
			fmt.Errorf("login page request: %w", err),
		)
		return nil, loginError(err)
	}
	if res.IsError() {
		err := statusError(res)
		c.tel.ReportBroken(report_client_login, err)
		return nil, loginError(err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(
			report_client_login,
			fmt.Errorf("parse login page: %w", err),
		)
		return nil, loginError(err)
	}
	token, ok := doc.Find("input[name=__RequestVerificationToken]").First().Attr("value")
	if !ok {
		c.tel.ReportBroken(report_client_login, ErrTokenNotFound)
		return nil, ErrTokenNotFound
	}

	res, err = httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"__RequestVerificationToken": token,
			"Usuario":                    creds.Username,
			"Senha":                      creds.Password,
		}).
		Post(LoginPath)
	if err != nil {
		c.tel.ReportBroken(
			report_client_login,
			fmt.Errorf("login request: %w", err),
		)
		return nil, loginError(err)
	}
	if res.IsError() {
		err := statusError(res)
		c.tel.ReportBroken(report_client_login, err)
		return nil, loginError(err)
	}
	if c.options.Matchers.InvalidCredentials(string(res.Body())) {
		c.tel.ReportWarning(report_client_login, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	c.tel.ReportDebug("login successful")

	return &Session{
		http:     httpClient,
		matchers: c.options.Matchers,
		tel:      c.tel,
	}, nil
}

func (s *Session) FetchGradesPage(ctx context.Context) ([]byte, error) {
	res, err := s.http.R().
		SetContext(ctx).
		Get(GradesPath)
	if err != nil {
		s.tel.ReportBroken(
			report_client_fetch_grades,
			fmt.Errorf("fetch: %w", err),
		)
		return nil, fmt.Errorf("interage: fetch grades page: %w", err)
	}
	if res.IsError() {
		err := statusError(res)
		s.tel.ReportBroken(report_client_fetch_grades, err)
		return nil, fmt.Errorf("interage: fetch grades page: %w", err)
	}

	finalUrl := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalUrl = res.RawResponse.Request.URL.String()
	}
	if s.matchers.SessionExpired(string(res.Body())) || s.matchers.LoginPath(finalUrl) {
		s.tel.ReportWarning(
			report_client_fetch_grades,
			ErrSessionExpired,
			telemetry.KV{Key: "url", Value: finalUrl},
		)
		return nil, ErrSessionExpired
	}

	return res.Body(), nil
}

func (c Client) Extract(html []byte) ([]grades.Record, error) {
	return c.extractor.Extract(html)
}

// Scrape logs in, fetches the grades page and extracts it.
func (c Client) Scrape(ctx context.Context, creds Credentials) ([]grades.Record, error) {
	session, err := c.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	html, err := session.FetchGradesPage(ctx)
	if err != nil {
		return nil, err
	}
	return c.Extract(html)
}
