package config

import (
	"github.com/Paintersrp/procrace/internal/liveness"
	"github.com/Paintersrp/procrace/internal/race"
)

const (
	// DefaultFile is the manifest looked up when no path is given.
	DefaultFile = "procrace.yaml"

	defaultLongCommand  = "./never_ending.sh"
	defaultShortCommand = "./finishes_fast.sh"
	currentVersion      = "1"
)

// Default returns the built-in manifest: three never-ending children racing one
// short-lived child, polled every two seconds.
func Default() *Manifest {
	m := &Manifest{Version: currentVersion}
	for _, p := range race.DefaultParticipants(defaultLongCommand, defaultShortCommand) {
		m.Participants = append(m.Participants, ParticipantSpec{Name: p.Name, Command: p.Command})
	}
	m.ApplyDefaults()
	return m
}

// ApplyDefaults fills unset fields.
func (m *Manifest) ApplyDefaults() {
	if m.Version == "" {
		m.Version = currentVersion
	}
	if !m.Poller.Interval.IsSet() {
		m.Poller.Interval.Duration = liveness.DefaultInterval
	}
	if m.Poller.TerminateWhenAllDead == nil {
		enabled := true
		m.Poller.TerminateWhenAllDead = &enabled
	}
}
