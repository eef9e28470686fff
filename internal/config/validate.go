package config

import (
	"errors"
	"fmt"
)

// Validate checks semantic constraints the schema cannot express.
func (m *Manifest) Validate() error {
	if m.Poller.Interval.Duration <= 0 {
		return errors.New("poller.interval: must be positive")
	}
	if len(m.Participants) == 0 {
		return errors.New("participants: at least one participant is required")
	}
	seen := make(map[string]int, len(m.Participants))
	for i, p := range m.Participants {
		field := fmt.Sprintf("participants[%d]", i)
		if p.Name == "" {
			return fmt.Errorf("%s.name: must not be empty", field)
		}
		if p.Command == "" {
			return fmt.Errorf("%s.command: must not be empty", field)
		}
		if prev, ok := seen[p.Name]; ok {
			return fmt.Errorf("%s.name: duplicate participant %q (also participants[%d])", field, p.Name, prev)
		}
		seen[p.Name] = i
	}
	return nil
}
