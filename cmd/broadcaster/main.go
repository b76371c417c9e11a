// Package main runs the endless shipping forecast broadcast in a terminal.
//
// It wires the generation pipeline (area cycler, report generator, report
// buffer), the focus monitor and warning injector, and a console speaker,
// then loops until interrupted. Focus transitions can be driven over stdin
// for local experimentation: "hide" simulates losing the listener, "show"
// brings them back.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"longwave/internal/broadcast"
	"longwave/internal/bus"
	"longwave/internal/config"
	"longwave/internal/focus"
	"longwave/internal/forecast"
	"longwave/internal/injector"
	"longwave/internal/vocab"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit
// on error.
func run() error {
	cfg, err := config.LoadBroadcast()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("broadcast starting",
		"environment", cfg.Environment,
		"phantom_probability", cfg.Broadcast.PhantomProbability,
	)

	rng := forecast.NewRand()

	cycler, err := forecast.NewAreaCycler(
		vocab.StandardAreas(),
		vocab.PhantomAreas(),
		cfg.Broadcast.PhantomProbability,
		rng,
	)
	if err != nil {
		return fmt.Errorf("creating area cycler: %w", err)
	}

	generator, err := forecast.NewReportGenerator(cycler, rng)
	if err != nil {
		return fmt.Errorf("creating report generator: %w", err)
	}

	buffer, err := forecast.NewReportBuffer(cfg.Broadcast.BufferMin, cfg.Broadcast.BufferMax)
	if err != nil {
		return fmt.Errorf("creating report buffer: %w", err)
	}

	events := bus.New()

	monitor := focus.NewMonitor(events, focus.RealClock(), logger,
		focus.WithDebounce(cfg.Broadcast.RestoreDebounce),
	)

	var speaker broadcast.Speaker = broadcast.NewConsoleSpeaker(os.Stdout, cfg.Broadcast.SpeakPause)
	if cfg.Broadcast.ProxyURL != "" {
		speaker, err = broadcast.NewProxySpeaker(
			cfg.Broadcast.ProxyURL,
			cfg.Broadcast.ProxyOrigin,
			cfg.Broadcast.AudioDir,
			os.Stdout,
			cfg.Broadcast.SpeakPause,
			logger,
		)
		if err != nil {
			return fmt.Errorf("creating proxy speaker: %w", err)
		}
	}

	session, err := broadcast.NewSession(generator, buffer, events, speaker, rng, logger)
	if err != nil {
		return fmt.Errorf("creating broadcast session: %w", err)
	}

	if _, err := injector.NewInjector(monitor, session, events, rng, logger,
		injector.WithThreshold(cfg.Broadcast.WarningThreshold),
	); err != nil {
		return fmt.Errorf("creating warning injector: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	go driveFocusFromStdin(monitor, logger)

	if err := session.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("broadcast session: %w", err)
	}

	logger.Info("broadcast stopped cleanly")
	return nil
}

// driveFocusFromStdin maps simple stdin commands onto focus transitions,
// standing in for the page-visibility signal a browser frontend would send.
func driveFocusFromStdin(monitor *focus.Monitor, logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "hide":
			monitor.SignalHidden()
			logger.Info("focus hidden")
		case "show":
			monitor.SignalVisible()
			logger.Info("focus visible")
		case "":
		default:
			logger.Info("unknown command; use 'hide' or 'show'")
		}
	}
}

// newLogger creates a structured slog.Logger for the given log level.
// Broadcast text goes to stdout; logs stay on stderr so a listener can
// pipe the forecast cleanly.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
