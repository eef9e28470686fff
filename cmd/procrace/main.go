package main

import (
	"github.com/Paintersrp/procrace/internal/cli"
	"github.com/Paintersrp/procrace/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
