// Package bootconfig loads the process-level configuration: state file
// paths, HAL trigger polarity, and diagnostics listen address, read from
// the environment after a best-effort .env load.
package bootconfig

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/pifire-go/pifire-core/internal/store"
)

// Config is the boot-time environment, loaded once in cmd/pifired/main.go.
type Config struct {
	ControlPath  string
	SettingsPath string
	PelletDBPath string
	HistoryPath  string

	TriggerLevel store.TriggerLevel

	DiagListenAddr string

	ProbePorts struct {
		Grill, Probe1, Probe2 int
	}
}

const (
	envControlPath  = "PIFIRE_CONTROL_PATH"
	envSettingsPath = "PIFIRE_SETTINGS_PATH"
	envPelletDBPath = "PIFIRE_PELLETDB_PATH"
	envHistoryPath  = "PIFIRE_HISTORY_PATH"
	envTriggerLevel = "PIFIRE_TRIGGER_LEVEL" // "ActiveHigh" or "ActiveLow"
	envDiagAddr     = "PIFIRE_DIAG_ADDR"
	envProbeGrill   = "PIFIRE_PROBE_PORT_GRILL"
	envProbe1       = "PIFIRE_PROBE_PORT_1"
	envProbe2       = "PIFIRE_PROBE_PORT_2"
)

// Load reads a .env file (if present, silently ignored otherwise) and
// parses the environment into a Config, applying development defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ControlPath:    getenvDefault(envControlPath, "./data/control.json"),
		SettingsPath:   getenvDefault(envSettingsPath, "./data/settings.json"),
		PelletDBPath:   getenvDefault(envPelletDBPath, "./data/pelletdb.json"),
		HistoryPath:    getenvDefault(envHistoryPath, "./data/history.json"),
		DiagListenAddr: getenvDefault(envDiagAddr, ":9247"),
	}

	switch os.Getenv(envTriggerLevel) {
	case "ActiveLow":
		cfg.TriggerLevel = store.TriggerActiveLow
	case "ActiveHigh", "":
		cfg.TriggerLevel = store.TriggerActiveHigh
	default:
		return Config{}, fmt.Errorf("%s: unrecognized trigger level %q", envTriggerLevel, os.Getenv(envTriggerLevel))
	}

	var err error
	if cfg.ProbePorts.Grill, err = getenvIntDefault(envProbeGrill, 0); err != nil {
		return Config{}, err
	}
	if cfg.ProbePorts.Probe1, err = getenvIntDefault(envProbe1, 1); err != nil {
		return Config{}, err
	}
	if cfg.ProbePorts.Probe2, err = getenvIntDefault(envProbe2, 2); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvIntDefault(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
