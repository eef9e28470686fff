package cli

import (
	stdcontext "context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/procrace/internal/config"
)

const envLogLevel = "PROCRACE_LOG_LEVEL"

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	var manifestFile string
	logLevel := os.Getenv(envLogLevel)
	if logLevel == "" {
		logLevel = "info"
	}

	root := &cobra.Command{
		Use:   "procrace",
		Short: "Race supervised child processes and report their liveness",
	}

	root.PersistentFlags().
		StringVarP(&manifestFile, "file", "f", config.DefaultFile, "Path to race manifest")
	root.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "Log level (trace, debug, info, warn, error)")

	ctx := &context{manifestFile: &manifestFile, logLevel: &logLevel}
	root.AddCommand(newRunCmd(ctx))
	root.AddCommand(newConfigCmd(ctx))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

type context struct {
	manifestFile *string
	logLevel     *string
}

func (c *context) loadManifest() (*config.Manifest, error) {
	return config.LoadOrDefault(*c.manifestFile)
}
