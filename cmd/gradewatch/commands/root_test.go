package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func withConfigFile(t *testing.T, path string) {
	previous := configFile
	configFile = path
	t.Cleanup(func() { configFile = previous })
}

func TestLoadConfigOfflineSkipsCredentials(t *testing.T) {
	withConfigFile(t, filepath.Join(t.TempDir(), "gradewatch.json5"))
	t.Setenv("PORTAL_USERNAME", "")
	t.Setenv("PORTAL_PASSWORD", "")
	t.Setenv("GRADES_TABLE", "grades.db")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("PORTAL_TIMEOUT", "")

	cfg, err := loadConfig(false)
	require.NoError(t, err)
	require.Equal(t, "grades.db", cfg.GradesTable)

	_, err = loadConfig(true)
	require.EqualError(t, err, "Credentials not set in environment.")
}

func TestLoadConfigOfflineReportsMalformedValues(t *testing.T) {
	withConfigFile(t, filepath.Join(t.TempDir(), "gradewatch.json5"))
	t.Setenv("GRADES_TABLE", "grades.db")
	t.Setenv("SMTP_PORT", "abc")

	_, err := loadConfig(false)
	require.ErrorContains(t, err, "SMTP_PORT is not a number")
}
