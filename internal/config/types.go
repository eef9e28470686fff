package config

import (
	"fmt"
	"time"

	"github.com/Paintersrp/procrace/internal/race"
)

// Duration wraps time.Duration for YAML unmarshalling.
type Duration struct {
	time.Duration
	explicit bool
}

// UnmarshalText parses duration strings such as "2s".
func (d *Duration) UnmarshalText(text []byte) error {
	d.explicit = true
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// IsSet reports whether the duration was explicitly provided or non-zero.
func (d Duration) IsSet() bool {
	return d.explicit || d.Duration != 0
}

// Manifest mirrors the procrace.yaml document structure.
type Manifest struct {
	Version      string            `yaml:"version"`
	Workdir      string            `yaml:"workdir,omitempty"`
	Env          map[string]string `yaml:"env,omitempty"`
	EnvFromFile  string            `yaml:"envFromFile,omitempty"`
	Poller       PollerSpec        `yaml:"poller"`
	Participants []ParticipantSpec `yaml:"participants"`

	// Source is the absolute path the manifest was loaded from. Empty for the
	// built-in defaults.
	Source string `yaml:"-"`
}

// PollerSpec configures the liveness poller.
type PollerSpec struct {
	Interval             Duration `yaml:"interval"`
	TerminateWhenAllDead *bool    `yaml:"terminateWhenAllDead,omitempty"`
}

// ParticipantSpec declares one racing child.
type ParticipantSpec struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
}

// TerminatesWhenAllDead reports the effective poller termination policy.
func (p PollerSpec) TerminatesWhenAllDead() bool {
	return p.TerminateWhenAllDead == nil || *p.TerminateWhenAllDead
}

// RaceParticipants converts the declared participants for the race coordinator.
func (m *Manifest) RaceParticipants() []race.Participant {
	out := make([]race.Participant, 0, len(m.Participants))
	for _, p := range m.Participants {
		out = append(out, race.Participant{Name: p.Name, Command: p.Command})
	}
	return out
}
