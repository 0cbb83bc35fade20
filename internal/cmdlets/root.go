// Package cmdlets contains the main entrypoints of the various
// functions that the dstation tool can perform.
package cmdlets

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	// Version is the release number for this build
	Version = "dev"

	// Commit is the specific git hash
	Commit = "UNKNOWN"

	// BuildDate is the build timestamp
	BuildDate = time.Now().String()

	rootCmd = &cobra.Command{
		Use:   "dstation",
		Short: "Entrypoint for all driver station commands",
		Long:  rootCmdLongDocs,
	}
	rootCmdLongDocs = `dstation runs a standalone driver's station: it discovers a robot on the field network, streams joystick input and control state over UDP, and reports telemetry back to the operator.`

	appLogger = hclog.NewNullLogger()
)

// Entrypoint is the entrypoint into all cmdlets, it will dispatch to
// the right one.
func Entrypoint() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func initLogger(name string) {
	ll := os.Getenv("LOG_LEVEL")
	if ll == "" {
		ll = "INFO"
	}
	appLogger = hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(ll),
	})
	appLogger.Info("Log level", "level", appLogger.GetLevel())
}
