package config

import (
	"errors"
	"fmt"
	"gradewatch/pkg/configutil"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ConfigurationError is returned when a required setting is missing or
// invalid, it is not worth retrying a run that failed with it.
type ConfigurationError struct {
	Message string
}

func (e ConfigurationError) Error() string {
	return e.Message
}

var ErrCredentialsNotSet = ConfigurationError{Message: "Credentials not set in environment."}

func IsConfigurationError(err error) bool {
	var target ConfigurationError
	return errors.As(err, &target)
}

const (
	DefaultSmtpServer    = "smtp.gmail.com"
	DefaultSmtpPort      = 587
	DefaultPortalTimeout = 30 * time.Second
	DefaultSchedule      = "@every 30m"
	DefaultPort          = 8000
)

type Markers struct {
	InvalidCredentials []string `json:"invalid_credentials"`
	SessionExpired     []string `json:"session_expired"`
	LoginPath          []string `json:"login_path"`
	GradesHeader       []string `json:"grades_header"`
	Average            []string `json:"average"`
	// FoldCase makes every marker ignore case and whitespace.
	FoldCase           bool     `json:"fold_case"`
}

type Portal struct {
	Username string `json:"-"`
	Password string `json:"-"`

	BaseUrl           string  `json:"base_url"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	BypassCloudflare  bool    `json:"bypass_cloudflare"`
	Markers           Markers `json:"markers"`

	// set from PORTAL_TIMEOUT, takes precedence over TimeoutSeconds
	RequestTimeout time.Duration `json:"-"`
}

func (p Portal) Timeout() time.Duration {
	if p.RequestTimeout > 0 {
		return p.RequestTimeout
	}
	if p.TimeoutSeconds <= 0 {
		return DefaultPortalTimeout
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

type Email struct {
	Sender   string `json:"-"`
	Receiver string `json:"-"`
	Password string `json:"-"`

	SmtpServer string `json:"smtp_server"`
	SmtpPort   int    `json:"smtp_port"`
}

type Service struct {
	Port        int    `json:"port"`
	AccessToken string `json:"access_token"`
}

type Config struct {
	Portal   Portal  `json:"portal"`
	Email    Email   `json:"email"`
	Service  Service `json:"service"`
	Schedule string  `json:"schedule"`
	Timezone string  `json:"timezone"`

	// GradesTable is a sqlite file path, `:memory:` or a libsql url.
	GradesTable string `json:"-"`
}

// Load reads the configuration like Read and then validates it.
//
// missing credentials or store identifier result in a ConfigurationError,
// email settings are only checked when an email is sent.
func Load(file string) (Config, error) {
	cfg, err := Read(file)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Read reads the optional .env and config files then applies the
// environment and defaults on top, file may be empty to skip reading a
// config file. Malformed values are reported but nothing is validated.
func Read(file string) (Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if file != "" {
		cfg, err = configutil.ReadConfig[Config](file)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	err = cfg.applyEnv(os.Getenv)
	if err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	c.Portal.Username = getenv("PORTAL_USERNAME")
	c.Portal.Password = getenv("PORTAL_PASSWORD")
	c.GradesTable = getenv("GRADES_TABLE")
	c.Email.Sender = getenv("EMAIL_SENDER")
	c.Email.Receiver = getenv("EMAIL_RECEIVER")
	c.Email.Password = getenv("EMAIL_PASSWORD")

	if v := getenv("SMTP_SERVER"); v != "" {
		c.Email.SmtpServer = v
	}
	if v := getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return ConfigurationError{Message: fmt.Sprintf("SMTP_PORT is not a number: %q", v)}
		}
		c.Email.SmtpPort = port
	}
	if v := getenv("PORTAL_BASE_URL"); v != "" {
		c.Portal.BaseUrl = v
	}
	if v := getenv("PORTAL_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return ConfigurationError{Message: fmt.Sprintf("PORTAL_TIMEOUT is not a duration: %q", v)}
		}
		if timeout <= 0 {
			return ConfigurationError{Message: fmt.Sprintf("PORTAL_TIMEOUT must be positive: %q", v)}
		}
		c.Portal.RequestTimeout = timeout
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Email.SmtpServer == "" {
		c.Email.SmtpServer = DefaultSmtpServer
	}
	if c.Email.SmtpPort == 0 {
		c.Email.SmtpPort = DefaultSmtpPort
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.Service.Port == 0 {
		c.Service.Port = DefaultPort
	}
}

func (c Config) Validate() error {
	if c.Portal.Username == "" || c.Portal.Password == "" {
		return ErrCredentialsNotSet
	}
	if c.GradesTable == "" {
		return ConfigurationError{Message: "GRADES_TABLE not set in environment."}
	}
	return nil
}

// Validate checks the settings required to send an email.
func (e Email) Validate() error {
	if e.Sender == "" || e.Receiver == "" || e.Password == "" {
		return ConfigurationError{Message: "Email credentials not set in environment."}
	}
	return nil
}
