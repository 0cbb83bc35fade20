//go:build linux

package cmdlets

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gizmo-platform/dstation/pkg/config"
)

var (
	dsConfigureCmd = &cobra.Command{
		Use:   "configure",
		Short: "Interactively build a driver-station connection config",
		Long:  dsConfigureCmdLongDocs,
		Run:   dsConfigureCmdRun,
		Args:  cobra.ExactArgs(1),
	}

	dsConfigureCmdLongDocs = `configure walks through a short series of prompts describing how to reach the robot and which station this driver's station occupies, then writes the result to the given path.  Run it again against an existing file to change any answer; unanswered fields keep their previous value as the default.`
)

func init() {
	dsCmd.AddCommand(dsConfigureCmd)
}

func dsConfigureCmdRun(c *cobra.Command, args []string) {
	initLogger("ds")

	base := config.DefaultConfig()
	if existing, err := config.Load(args[0]); err == nil {
		base = *existing
	}

	cfg, err := config.Wizard(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building configuration: %s\n", err)
		return
	}

	if err := config.Save(args[0], cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing configuration: %s\n", err)
		return
	}

	fmt.Printf("Wrote configuration to %s\n", args[0])
}
