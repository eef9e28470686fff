package cli

import (
	stdcontext "context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/Paintersrp/procrace/internal/api/http"
	"github.com/Paintersrp/procrace/internal/engine"
)

func newRunCmd(ctx *context) *cobra.Command {
	var (
		interval    time.Duration
		keepPolling bool
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Launch the participants and stop every child once the first one exits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.loadManifest()
			if err != nil {
				return err
			}
			if interval > 0 {
				doc.Poller.Interval.Duration = interval
			}
			terminate := doc.Poller.TerminatesWhenAllDead()
			if keepPolling {
				terminate = false
			}

			logger := newLogger(cmd.ErrOrStderr(), *ctx.logLevel)

			var ln net.Listener
			if metricsAddr != "" {
				ln, err = httpapi.Listen(metricsAddr)
				if err != nil {
					return fmt.Errorf("metrics server: %w", err)
				}
			}

			source := doc.Source
			if source == "" {
				source = "built-in defaults"
			}
			logger.Info("starting race", "manifest", source, "participants", len(doc.Participants), "interval", doc.Poller.Interval.Duration, "terminate_when_all_dead", terminate)

			sup := engine.NewSupervisor(engine.Config{
				Participants:         doc.RaceParticipants(),
				Workdir:              doc.Workdir,
				Env:                  doc.Env,
				PollInterval:         doc.Poller.Interval.Duration,
				TerminateWhenAllDead: terminate,
				Output:               cmd.OutOrStdout(),
				ChildStdout:          cmd.OutOrStdout(),
				ChildStderr:          cmd.ErrOrStderr(),
				Logger:               logger,
			})

			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = stdcontext.Background()
			}

			serverDone := make(chan error, 1)
			serverCtx, stopServer := stdcontext.WithCancel(runCtx)
			defer stopServer()
			if ln != nil {
				srv, err := httpapi.NewServer(httpapi.Config{Addr: metricsAddr, Listener: ln, Reporter: sup.Poller()})
				if err != nil {
					_ = ln.Close()
					return err
				}
				logger.Info("serving metrics", "addr", srv.Addr())
				go func() { serverDone <- srv.Run(serverCtx) }()
			} else {
				close(serverDone)
			}

			result, runErr := sup.Run(runCtx)
			stopServer()
			if err := <-serverDone; err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
			if runErr != nil {
				return fmt.Errorf("race failed: %w", runErr)
			}
			logger.Info("race complete", "winner", result.Winner.Name, "status", result.Status.String())
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Liveness poll interval (overrides the manifest)")
	cmd.Flags().BoolVar(&keepPolling, "keep-polling", false, "Abandon the poller after the race instead of waiting for every child to be reported dead")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /api/v1/processes on this address")
	return cmd
}
