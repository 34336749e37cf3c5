package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/xvzc/ipksniff/internal/config"
	"github.com/xvzc/ipksniff/internal/filter"
	"github.com/xvzc/ipksniff/internal/logging"
	"github.com/xvzc/ipksniff/internal/packet"
	"github.com/xvzc/ipksniff/internal/session"
	"github.com/xvzc/ipksniff/version"
)

const (
	exitSuccess          = 0
	exitInvalidArguments = 1
	exitInvalidInterface = 2
	exitInvalidPort      = 3
	exitNoDevices        = 4
	exitInternalError    = 99
	exitInterrupted      = 130
)

var errInternal = errors.New("internal error")

// loggedError marks an error that was already written to the log.
type loggedError struct{ error }

func (e loggedError) Unwrap() error { return e.error }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := config.CreateCommand(runApp, version.String())
	err := cmd.Run(ctx, config.NormalizeArgs(os.Args))

	var logged loggedError
	if err != nil && !errors.As(err, &logged) {
		fmt.Fprintf(os.Stderr, "ipksniff: %s\n", err)
	}

	stop()
	os.Exit(exitCode(err))
}

func runApp(ctx context.Context, configPath string, cfg *config.Config) error {
	logger := logging.NewLogger(logging.Options{
		Level:   *cfg.General.LogLevel,
		File:    *cfg.General.LogFile,
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	})

	ctx = session.WithNewRunID(ctx)
	mainLogger := logging.WithLocalScope(ctx, logging.WithScope(logger, "MAIN"), "run")
	if configPath != "" {
		mainLogger.Debug().Str("path", configPath).Msg("config file loaded")
	}

	a := &app{
		logger: logger,
		out:    os.Stdout,
		list:   packet.ListDevices,
		open:   packet.OpenHandle,
	}

	err := a.run(ctx, cfg)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		mainLogger.Info().Msg("interrupted")
		return err
	default:
		mainLogger.Error().Err(err).Msg("exiting")
		return loggedError{err}
	}
}

type openFunc func(backend packet.Backend, device string, opts packet.HandleOptions) (packet.Handle, error)

type app struct {
	logger zerolog.Logger
	out    io.Writer
	list   packet.DeviceLister
	open   openFunc
}

func (a *app) run(ctx context.Context, cfg *config.Config) error {
	capture := cfg.Capture
	if capture.Listing() {
		return a.listDevices()
	}

	device, err := packet.FindDevice(a.list, *capture.Interface)
	if errors.Is(err, packet.ErrDeviceNotFound) {
		return err
	} else if err != nil {
		return fmt.Errorf("%w: %w", errInternal, err)
	}
	ctx = session.WithDevice(ctx, device.Name)

	expr := a.buildFilter(ctx, capture.Selection())

	backend := *capture.Backend
	opts := capture.HandleOptions()
	sniffer := packet.NewSniffer(
		logging.WithScope(a.logger, "SNIFF"),
		func() (packet.Handle, error) {
			return a.open(backend, device.Name, opts)
		},
		packet.NewReporter(packet.WithColor(*cfg.General.Color)),
		a.out,
		packet.SnifferAttrs{
			Filter: expr.Text,
			Limit:  *capture.Count,
		},
	)

	status, err := sniffer.Run(ctx)
	switch status {
	case packet.StatusSuccess:
		return nil
	case packet.StatusInterrupted:
		return err
	default:
		return fmt.Errorf("%w: %w", errInternal, err)
	}
}

func (a *app) buildFilter(ctx context.Context, sel filter.Selection) filter.Expression {
	logger := logging.WithLocalScope(ctx, logging.WithScope(a.logger, "FILTER"), "build")

	expr := filter.Build(sel)
	for _, advisory := range expr.Advisories {
		logger.Warn().Msg(advisory)
	}
	logger.Debug().Str("expr", expr.Text).Msg("filter built")

	return expr
}

// listDevices prints the name of every capture device, one per line.
func (a *app) listDevices() error {
	devices, err := a.list()
	if err != nil {
		if errors.Is(err, packet.ErrNoDevices) {
			return err
		}
		return fmt.Errorf("%w: %w", errInternal, err)
	}

	for _, d := range devices {
		if _, err := fmt.Fprintln(a.out, d.Name); err != nil {
			return fmt.Errorf("%w: %w", errInternal, err)
		}
	}

	return nil
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, errInternal):
		return exitInternalError
	case errors.Is(err, packet.ErrNoDevices):
		return exitNoDevices
	case errors.Is(err, packet.ErrDeviceNotFound):
		return exitInvalidInterface
	case errors.Is(err, config.ErrInvalidPort):
		return exitInvalidPort
	default:
		return exitInvalidArguments
	}
}
