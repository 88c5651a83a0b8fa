package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calcore/recur/alog"
	"github.com/calcore/recur/atime/rrecur"
)

func writeTunablesFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTunables_MergesInOrder(t *testing.T) {
	dir := t.TempDir()
	base := writeTunablesFile(t, dir, "base.json", `{
		"iterationBudget": 500,
		"defaultWeekStart": "Sunday"
	}`)
	override := writeTunablesFile(t, dir, "override.json", `{
		"defaultWeekStart": "Monday",
		"defaultZone": "America/New_York"
	}`)

	tunables, err := LoadTunables(base, override)
	require.NoError(t, err)
	assert.Equal(t, 500, tunables.IterationBudget)
	assert.Equal(t, "Monday", tunables.DefaultWeekStart)
	assert.Equal(t, "America/New_York", tunables.DefaultZone)
}

func TestLoadTunables_RejectsBadZone(t *testing.T) {
	dir := t.TempDir()
	path := writeTunablesFile(t, dir, "bad.json", `{"defaultZone": "Not/AZone"}`)

	_, err := LoadTunables(path)
	assert.Error(t, err)
}

func TestTunables_Apply_PushesIterationBudget(t *testing.T) {
	original := rrecur.IterationBudget()
	defer rrecur.SetIterationBudget(original)

	tunables := &Tunables{IterationBudget: 42}
	require.NoError(t, tunables.Apply())
	assert.Equal(t, 42, rrecur.IterationBudget())
}

func TestInitLogging_AppliesChannelOverrides(t *testing.T) {
	dir := t.TempDir()
	err := initLogging(dir, alog.LogChannelConfigMap{
		alog.LOGGER_APP: {LogLevel: "debug", WriterTypes: alog.WriterTypes{alog.WRITERTYPE_FILE}},
	})
	require.NoError(t, err)

	cfg := alog.GetGlobalLoggerConfig()
	require.NotNil(t, cfg)
	require.True(t, cfg.HasChannels())
}

func TestWatchTunables_ReappliesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeTunablesFile(t, dir, "watched.json", `{"iterationBudget": 10}`)

	original := rrecur.IterationBudget()
	defer rrecur.SetIterationBudget(original)

	w, err := WatchTunables(path)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	assert.Equal(t, 10, rrecur.IterationBudget())

	require.NoError(t, os.WriteFile(path, []byte(`{"iterationBudget": 20}`), 0o644))

	assert.Eventually(t, func() bool {
		return rrecur.IterationBudget() == 20
	}, 2*time.Second, 50*time.Millisecond)
}
