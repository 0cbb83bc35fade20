//go:build linux

package cmdlets

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/gizmo-platform/dstation/pkg/config"
	"github.com/gizmo-platform/dstation/pkg/controlloop"
	"github.com/gizmo-platform/dstation/pkg/deviceapi"
	"github.com/gizmo-platform/dstation/pkg/fieldfeed"
	"github.com/gizmo-platform/dstation/pkg/gamepad"
	"github.com/gizmo-platform/dstation/pkg/gamepad/shim"
	"github.com/gizmo-platform/dstation/pkg/metrics"
	"github.com/gizmo-platform/dstation/pkg/telemetry"
)

var (
	dsRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the main driver-station process",
		Long:  dsRunCmdLongDocs,
		Run:   dsRunCmdRun,
		Args:  cobra.ExactArgs(1),
	}

	dsRunCmdLongDocs = `The driver's station is a long lived process that discovers a robot, streams control input, and reports telemetry.  This command runs that process until interrupted.`

	dsRunListenAddr   string
	dsRunPractice     bool
	dsRunPracticeAddr string
)

func init() {
	dsRunCmd.Flags().StringVar(&dsRunListenAddr, "telemetry-addr", ":8100", "address to serve the telemetry websocket and metrics endpoint on")
	dsRunCmd.Flags().BoolVar(&dsRunPractice, "practice", false, "when no field-control broker is configured, start an embedded MQTT broker instead of running fully standalone")
	dsRunCmd.Flags().StringVar(&dsRunPracticeAddr, "practice-addr", "127.0.0.1:1883", "bind address for the embedded practice broker")
	dsCmd.AddCommand(dsRunCmd)
}

func dsRunCmdRun(c *cobra.Command, args []string) {
	initLogger("driver-station")

	cfg, err := config.Load(args[0])
	if err != nil {
		appLogger.Error("Error loading config", "error", err)
		return
	}

	// One SessionID per connect-discover-run lifecycle, tagged onto
	// every log line and telemetry event this process emits so they
	// can be correlated after the fact. It is deliberately not a
	// metrics label: Prometheus series are meant to be long-lived, and
	// a fresh UUID every run would make every metric's cardinality
	// grow without bound.
	session := config.NewSessionID()
	appLogger = appLogger.With("session", session.String())
	appLogger.Info("starting driver station session")

	joy := gamepad.New(gamepad.WithLogger(appLogger))
	joy.Subscribe(deviceFeedFor(cfg, appLogger))
	if err := joy.Bind("primary", 0); err != nil {
		appLogger.Error("failed to bind primary controller", "error", err)
		return
	}

	stream := telemetry.New(telemetry.WithLogger(appLogger), telemetry.WithSession(session.String()))
	m := metrics.New(metrics.WithLogger(appLogger))

	field := fieldFeedFor(*cfg, dsRunPractice, dsRunPracticeAddr, appLogger)

	drv := controlloop.New(*cfg,
		controlloop.WithLogger(appLogger),
		controlloop.WithSession(session),
		controlloop.WithGamepad(joy),
		controlloop.WithFieldFeed(field),
		controlloop.WithTelemetry(stream),
		controlloop.WithMetrics(m),
	)

	go serveTelemetry(dsRunListenAddr, stream, m, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Info("Shutdown requested")
		cancel()
	}()

	if err := drv.Run(ctx); err != nil && ctx.Err() == nil {
		appLogger.Error("Driver station exited with error", "error", err)
		os.Exit(1)
	}
}

// deviceFeedFor selects the concrete joystick backend. A single
// station drives one physical controller today; multi-device binding
// happens through the aggregator's own Bind once attached.
func deviceFeedFor(cfg *config.Config, l hclog.Logger) deviceapi.Feed {
	return shim.New("primary", 0, l)
}

// serveTelemetry mounts the telemetry websocket and the Prometheus
// metrics endpoint on addr. It runs until the process exits; a
// listener failure just gets logged, since losing observability
// should not take down the control loop itself.
func serveTelemetry(addr string, stream *telemetry.Stream, m *metrics.Metrics, l hclog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", stream.Handler)
	mux.Handle("/metrics", m.Handler())

	l.Info("serving telemetry and metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		l.Error("telemetry server stopped", "error", err)
	}
}

// fieldFeedFor picks the field-directive transport. With an external
// broker configured, it dials that broker directly. Standalone (no
// broker configured), --practice starts an embedded broker so the
// MQTT path still gets exercised by a second process feeding
// practice-match directives; without the flag it falls back to Null.
func fieldFeedFor(cfg config.Config, practice bool, practiceAddr string, l hclog.Logger) fieldfeed.Feed {
	if cfg.FieldFeedBroker != "" {
		feed, err := fieldfeed.DialMQTT(cfg.FieldFeedBroker, cfg.Team, l)
		if err != nil {
			l.Error("failed to connect to field-control broker, running standalone", "error", err)
			return fieldfeed.NewNull()
		}
		return feed
	}

	if practice {
		feed, err := fieldfeed.NewPractice(practiceAddr, cfg.Team, l)
		if err != nil {
			l.Error("failed to start practice broker, running standalone", "error", err)
			return fieldfeed.NewNull()
		}
		return feed
	}

	return fieldfeed.NewNull()
}
