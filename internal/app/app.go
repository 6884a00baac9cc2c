package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/awesomecuber/tron/internal/signal"
	"github.com/awesomecuber/tron/internal/telemetry"
	"github.com/awesomecuber/tron/internal/transport"
	"github.com/awesomecuber/tron/logging"
	loggingSinks "github.com/awesomecuber/tron/logging/sinks"
)

// RunConfig carries what the binary provides: the key source and any
// render hooks.
type RunConfig struct {
	Logger telemetry.Logger
	Input  InputSource
	Hooks  Hooks
}

// Run wires configuration, logging, transport and matchmaking together
// and drives one match until ctx is cancelled or the run fails.
func Run(ctx context.Context, cfg RunConfig) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	appCfg := LoadConfig(telemetryLogger)

	logCfg := logging.DefaultConfig()
	if appCfg.LogJSONPath != "" {
		logCfg.JSON.FilePath = appCfg.LogJSONPath
		logCfg.EnabledSinks = append(logCfg.EnabledSinks, "json")
	}

	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logCfg.Console)},
	}
	if logCfg.JSON.FilePath != "" {
		file, err := os.Create(logCfg.JSON.FilePath)
		if err != nil {
			return fmt.Errorf("open json log %q: %w", logCfg.JSON.FilePath, err)
		}
		defer file.Close()
		namedSinks = append(namedSinks, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(file, logCfg.JSON.FlushInterval)})
	}

	router, err := logging.NewRouter(logCfg, logging.SystemClock{}, namedSinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		// The run context is already cancelled on a normal quit, so the
		// router gets its own deadline to flush.
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metrics := &logging.Metrics{}

	channel, err := transport.ListenUDP(transport.UDPConfig{
		ListenAddr: appCfg.UDPListenAddr,
		Logger:     telemetryLogger,
		Metrics:    telemetry.WrapMetrics(metrics),
	})
	if err != nil {
		return fmt.Errorf("bind udp: %w", err)
	}
	defer channel.Close()

	negotiator := signal.NewNegotiator(signal.Config{
		ServerURL: appCfg.SignalServerAddr,
		Room:      appCfg.RoomName,
		LocalAddr: channel.LocalAddr(),
		Checksum:  appCfg.Tuning.Checksum(),
	}, signal.Deps{
		Publisher: router,
		Logger:    telemetryLogger,
	})
	if err := negotiator.Start(); err != nil {
		return fmt.Errorf("matchmaking: %w", err)
	}
	defer negotiator.Close()

	driver, err := NewDriver(DriverConfig{
		Tuning: appCfg.Tuning,
	}, DriverDeps{
		Matchmaker: negotiator,
		Channel:    channel,
		Input:      cfg.Input,
		Hooks:      cfg.Hooks,
		Publisher:  router,
		Logger:     telemetryLogger,
		Metrics:    telemetry.WrapMetrics(metrics),
	})
	if err != nil {
		return err
	}

	telemetryLogger.Printf("waiting in room %q via %s, udp on %s", appCfg.RoomName, appCfg.SignalServerAddr, channel.LocalAddr())
	return driver.Run(ctx)
}
