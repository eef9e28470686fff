package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Spawn outcomes recorded by ObserveSpawn.
const (
	SpawnStarted = "started"
	SpawnFailed  = "failed"
)

var (
	registry = prometheus.NewRegistry()

	processSpawns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procrace",
		Name:      "process_spawns_total",
		Help:      "Child process spawn attempts by outcome.",
	}, []string{"outcome"})

	pollCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procrace",
		Name:      "poll_cycles_total",
		Help:      "Completed liveness poll cycles.",
	})

	trackedProcesses = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "procrace",
		Name:      "tracked_processes",
		Help:      "Number of processes in the registry at the last poll.",
	})

	aliveProcesses = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "procrace",
		Name:      "alive_processes",
		Help:      "Number of tracked processes present in the OS process table at the last poll.",
	})

	raceWins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procrace",
		Name:      "race_wins_total",
		Help:      "Races resolved by each participant.",
	}, []string{"participant"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "procrace",
		Name:      "build_info",
		Help:      "Build metadata for the running procrace binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(processSpawns, pollCycles, trackedProcesses, aliveProcesses, raceWins, buildInfo)
}

// Registry returns the Prometheus registry containing all procrace metrics.
func Registry() *prometheus.Registry {
	return registry
}

// ObserveSpawn counts a spawn attempt with the given outcome.
func ObserveSpawn(outcome string) {
	if outcome == "" {
		return
	}
	processSpawns.WithLabelValues(outcome).Inc()
}

// ObservePoll records the result of one liveness poll cycle.
func ObservePoll(tracked, alive int) {
	pollCycles.Inc()
	trackedProcesses.Set(float64(tracked))
	aliveProcesses.Set(float64(alive))
}

// ObserveRaceWin counts a race resolved by participant.
func ObserveRaceWin(participant string) {
	label := participant
	if label == "" {
		label = "unknown"
	}
	raceWins.WithLabelValues(label).Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
