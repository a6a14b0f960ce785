package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/siadash/internal/settings"
)

// isolate keeps the user's real config files out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Chdir(dir)
	return dir
}

// execute runs the command tree with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	root := newRootCmd(viper.New(), logger, &slog.LevelVar{})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRenderSettings_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	var yamlOut bytes.Buffer
	require.NoError(t, renderSettings(&yamlOut, settings.Default(), false))
	g.Assert(t, "settings_default_yaml", yamlOut.Bytes())

	var jsonOut bytes.Buffer
	require.NoError(t, renderSettings(&jsonOut, settings.Default(), true))
	g.Assert(t, "settings_default_json", jsonOut.Bytes())
}

func TestSettingsShow_AppliesConfiguredDefaults(t *testing.T) {
	dir := isolate(t)
	t.Setenv("SIADASH_DEFAULTS_THEME", "dark")
	path := filepath.Join(dir, "settings.json")

	out, _, err := execute(t, "settings", "show", "--settings-file", path)

	require.NoError(t, err)
	assert.Contains(t, out, "# "+path)
	assert.Contains(t, out, "theme: dark")
	assert.NoFileExists(t, path, "show must not write the settings file")
}

func TestSettingsSet_WritesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "settings.json")

	out, _, err := execute(t, "settings", "set", "--settings-file", path,
		"theme=light", "auto-lock-timeout=10", "fiat=EUR", "siascan=false")

	require.NoError(t, err)
	assert.Contains(t, out, "theme: light")

	rec, err := settings.NewFileStore(path).Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.NotNil(t, rec.Theme)
	assert.Equal(t, "light", *rec.Theme)
	require.NotNil(t, rec.AutoLockTimeout)
	assert.Equal(t, (10 * time.Minute).Milliseconds(), *rec.AutoLockTimeout)
	require.NotNil(t, rec.CurrencyFiat)
	assert.Equal(t, "eur", *rec.CurrencyFiat)
	require.NotNil(t, rec.Siascan)
	assert.False(t, *rec.Siascan)
}

func TestSettingsSet_ConfiguredDefaultsStillApply(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "settings.json")

	t.Setenv("SIADASH_DEFAULTS_THEME", "light")
	_, _, err := execute(t, "settings", "set", "--settings-file", path, "fiat=eur")
	require.NoError(t, err)

	rec, err := settings.NewFileStore(path).Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Nil(t, rec.Theme, "the configured default is not written")
	assert.Nil(t, rec.AutoLock, "untouched built-in defaults are not written")

	t.Setenv("SIADASH_DEFAULTS_THEME", "dark")
	out, _, err := execute(t, "settings", "show", "--settings-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "theme: dark")
	assert.Contains(t, out, "currency_fiat: eur")
}

func TestSettingsSet_HelpExplainsManagedExplorer(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "settings", "set", "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "the dashboard ignores the stored value")
}

func TestSettingsSet_InvalidValueWritesNothing(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "settings.json")

	_, _, err := execute(t, "settings", "set", "--settings-file", path,
		"theme=light", "auto-lock-timeout=7m")

	require.Error(t, err)
	assert.ErrorIs(t, err, settings.ErrInvalidConfigValue)
	assert.NoFileExists(t, path)
}

func TestSettingsSet_Errors(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"missing equals", "theme", "want key=value"},
		{"unknown key", "colour=blue", "unknown setting"},
		{"bad bool", "siascan=maybe", "not a boolean"},
		{"gpu unsupported", "gpu=true", settings.ErrGPUUnsupported.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			_, _, err := execute(t, "settings", "set", "--settings-file", filepath.Join(dir, "s.json"), tt.arg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSettingsReset_RestoresDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "settings.json")

	_, _, err := execute(t, "settings", "set", "--settings-file", path, "theme=dark", "auto-lock=false")
	require.NoError(t, err)

	out, _, err := execute(t, "settings", "reset", "--settings-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Settings reset")

	out, _, err = execute(t, "settings", "show", "--json", "--settings-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"theme": "system"`)
	assert.Contains(t, out, `"autoLock": true`)
}

func TestSettingsShow_CorruptFileWarns(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	out, errOut, err := execute(t, "settings", "show", "--settings-file", path)

	require.NoError(t, err)
	assert.Contains(t, errOut, "warning:")
	assert.Contains(t, out, "theme: system")
	assert.FileExists(t, path+".backup")
}

func TestVersion(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "siadash dev\n", out)
}

func TestParseTimeout(t *testing.T) {
	d, err := parseTimeout("20")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Minute, d)

	d, err = parseTimeout("1h")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	_, err = parseTimeout("soon")
	assert.ErrorIs(t, err, settings.ErrInvalidConfigValue)
}
