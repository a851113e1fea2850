package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "observer_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesAndKeepsRest(t *testing.T) {
	path := writeConfig(t, `
# observer settings
MQTT_BROKER = tcp://broker:1883
OBSERVER_NAME=obs2
PERIOD_MS=25
CALIBRATION_TRIALS = 3
MODE=timing
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
	assert.Equal(t, "obs2", cfg.ObserverName)
	assert.Equal(t, 25, cfg.PeriodMS)
	assert.Equal(t, 3, cfg.CalibrationTrials)
	assert.Equal(t, ModeTiming, cfg.Mode)

	// Untouched keys keep their defaults.
	def := Default()
	assert.Equal(t, def.Robot, cfg.Robot)
	assert.Equal(t, def.WebServerPort, cfg.WebServerPort)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "NO_SUCH_KEY=1\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadMode(t *testing.T) {
	path := writeConfig(t, "MODE=verbose\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODE")
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	path := writeConfig(t, "PERIOD_MS\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveValues(t *testing.T) {
	for _, line := range []string{
		"PERIOD_MS=0",
		"PERIOD_MS=abc",
		"CALIBRATION_TRIALS=-1",
		"MOCKRIG_INTERVAL_MS=0",
	} {
		path := writeConfig(t, line+"\n")
		_, err := Load(path)
		assert.Error(t, err, "line %q must be rejected", line)
	}
}

func TestLoadRejectsEmptyRequiredField(t *testing.T) {
	path := writeConfig(t, "ROBOT=\n")
	_, err := Load(path)
	assert.Error(t, err)
}
