package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Apurer/petclinic-scheduling/internal/app/schedctl"
	platformobservability "github.com/Apurer/petclinic-scheduling/internal/platform/observability"
)

func main() {
	logger := platformobservability.NewLogger(platformobservability.Settings{
		ServiceName: "schedctl",
		LogLevel:    slog.LevelWarn,
		LogOutput:   os.Stderr,
	})
	if err := schedctl.NewRootCmd(schedctl.EnvServiceFactory(logger)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
