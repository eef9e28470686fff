package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables overriding manifest values.
const (
	EnvPollInterval         = "PROCRACE_POLL_INTERVAL"
	EnvTerminateWhenAllDead = "PROCRACE_TERMINATE_WHEN_ALL_DEAD"
)

// ApplyEnvOverrides applies PROCRACE_* environment overrides to m.
func ApplyEnvOverrides(m *Manifest) error {
	if value := os.Getenv(EnvPollInterval); value != "" {
		interval, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		m.Poller.Interval = Duration{Duration: interval, explicit: true}
	}
	if value := os.Getenv(EnvTerminateWhenAllDead); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTerminateWhenAllDead, err)
		}
		m.Poller.TerminateWhenAllDead = &enabled
	}
	return nil
}
