package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestApplyEnv(t *testing.T) {
	var cfg Config
	err := cfg.applyEnv(env(map[string]string{
		"PORTAL_USERNAME": "ra123",
		"PORTAL_PASSWORD": "secret",
		"GRADES_TABLE":    ":memory:",
		"EMAIL_SENDER":    "bot@example.com",
		"EMAIL_RECEIVER":  "me@example.com",
		"EMAIL_PASSWORD":  "app-password",
		"SMTP_PORT":       "2525",
		"PORTAL_TIMEOUT":  "10s",
	}))
	require.NoError(t, err)
	cfg.applyDefaults()

	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Email.Validate())
	require.Equal(t, "smtp.gmail.com", cfg.Email.SmtpServer)
	require.Equal(t, 2525, cfg.Email.SmtpPort)
	require.Equal(t, 10*time.Second, cfg.Portal.Timeout())
	require.Equal(t, DefaultSchedule, cfg.Schedule)
}

func TestApplyEnvSubSecondTimeout(t *testing.T) {
	var cfg Config
	err := cfg.applyEnv(env(map[string]string{"PORTAL_TIMEOUT": "500ms"}))
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, cfg.Portal.Timeout())

	for _, v := range []string{"0s", "-1s", "soon"} {
		err = cfg.applyEnv(env(map[string]string{"PORTAL_TIMEOUT": v}))
		require.True(t, IsConfigurationError(err), v)
	}
}

func TestApplyEnvInvalidPort(t *testing.T) {
	var cfg Config
	err := cfg.applyEnv(env(map[string]string{"SMTP_PORT": "abc"}))
	require.True(t, IsConfigurationError(err))
}

func TestValidateMissingCredentials(t *testing.T) {
	cfg := Config{GradesTable: ":memory:"}
	cfg.Portal.Username = "ra123"

	err := cfg.Validate()
	require.True(t, errors.Is(err, ErrCredentialsNotSet))
	require.Equal(t, "Credentials not set in environment.", err.Error())
}

func TestValidateMissingTable(t *testing.T) {
	cfg := Config{}
	cfg.Portal.Username = "ra123"
	cfg.Portal.Password = "secret"
	require.True(t, IsConfigurationError(cfg.Validate()))
}

func TestPortalTimeoutDefault(t *testing.T) {
	require.Equal(t, DefaultPortalTimeout, Portal{}.Timeout())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "gradewatch.json5")
	err := os.WriteFile(file, []byte(`{
		portal: {
			base_url: "http://localhost:9999",
			markers: {average: ["Média", "Final", "Exame"], fold_case: true},
		},
		schedule: "@every 1h",
	}`), 0644)
	require.NoError(t, err)

	t.Setenv("PORTAL_USERNAME", "ra123")
	t.Setenv("PORTAL_PASSWORD", "secret")
	t.Setenv("GRADES_TABLE", ":memory:")
	t.Setenv("SMTP_SERVER", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("PORTAL_BASE_URL", "")
	t.Setenv("PORTAL_TIMEOUT", "")

	cfg, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9999", cfg.Portal.BaseUrl)
	require.Equal(t, []string{"Média", "Final", "Exame"}, cfg.Portal.Markers.Average)
	require.True(t, cfg.Portal.Markers.FoldCase)
	require.Equal(t, "@every 1h", cfg.Schedule)
	require.Equal(t, DefaultPort, cfg.Service.Port)
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("PORTAL_USERNAME", "")
	t.Setenv("PORTAL_PASSWORD", "")
	t.Setenv("GRADES_TABLE", ":memory:")

	_, err := Load("")
	require.ErrorIs(t, err, ErrCredentialsNotSet)
}

func TestReadSkipsValidation(t *testing.T) {
	t.Setenv("PORTAL_USERNAME", "")
	t.Setenv("PORTAL_PASSWORD", "")
	t.Setenv("GRADES_TABLE", "grades.db")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("PORTAL_TIMEOUT", "")

	cfg, err := Read("")
	require.NoError(t, err)
	require.Equal(t, "grades.db", cfg.GradesTable)

	t.Setenv("SMTP_PORT", "abc")
	_, err = Read("")
	require.ErrorContains(t, err, "SMTP_PORT is not a number")
}
