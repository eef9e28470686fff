package liveness

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Paintersrp/procrace/internal/tracker"
)

const reportDelimiter = "----"

// Status pairs a tracked process with its observed liveness.
type Status struct {
	tracker.Process
	Alive bool `json:"alive" yaml:"alive"`
}

// Report is the outcome of a single poll cycle, in registry order.
type Report struct {
	Processes []Status `json:"processes" yaml:"processes"`
}

// Alive returns the number of processes observed alive.
func (r Report) Alive() int {
	n := 0
	for _, st := range r.Processes {
		if st.Alive {
			n++
		}
	}
	return n
}

// AllDead reports whether the report is non-empty and no process is alive.
func (r Report) AllDead() bool {
	return len(r.Processes) > 0 && r.Alive() == 0
}

// WriteTo renders the report as human readable lines.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString(reportDelimiter + "\n")
	for _, st := range r.Processes {
		fmt.Fprintf(&buf, "%s -- alive: %t\n", st.Process, st.Alive)
	}
	buf.WriteString(reportDelimiter + "\n\n")
	return buf.WriteTo(w)
}

func (r Report) String() string {
	var buf bytes.Buffer
	_, _ = r.WriteTo(&buf)
	return buf.String()
}

func buildReport(procs []tracker.Process, pids map[int32]struct{}) Report {
	report := Report{Processes: make([]Status, 0, len(procs))}
	for _, p := range procs {
		_, alive := pids[p.PID]
		report.Processes = append(report.Processes, Status{Process: p, Alive: alive})
	}
	return report
}
