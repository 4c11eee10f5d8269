package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	app "github.com/okian/coffeerun/internal/app"
	"github.com/okian/coffeerun/internal/config"
	"github.com/okian/coffeerun/internal/domain/race"
	"github.com/okian/coffeerun/pkg/logger"
)

const (
	defaultNames   = "Ana,Bo,Cy,Di,Eve"
	logPermissions = 0600
)

func main() {
	var (
		names   = flag.String("names", defaultNames, "Comma-separated runner names")
		seed    = flag.Int64("seed", 0, "Race seed (default: config or current time)")
		mute    = flag.Bool("mute", false, "Disable finish tones")
		logFile = flag.String("log", "", "Log file (default: discard)")
	)
	flag.Parse()

	if err := run(*names, *seed, *mute, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "race-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(names string, seed int64, mute bool, logFile string) error {
	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logPermissions)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := logger.Init(logger.WithWriter(out)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	sound, err := newChime(mute)
	if err != nil {
		logger.Get().Warn(ctx, "audio unavailable", logger.Error(err))
	}
	defer sound.close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	v := newViewer(screen, newEngine(cfg, seed, sound), parseNames(names))
	if err := v.start(time.Now()); err != nil {
		return err
	}
	v.run(ctx, cfg.FrameInterval())
	return nil
}

func newEngine(cfg *config.Config, seed int64, obs race.Observer) *race.Engine {
	opts := append(app.EngineOptions(cfg), race.WithObserver(obs))
	if seed == 0 {
		seed = cfg.Seed
	}
	if seed != 0 {
		opts = append(opts, race.WithSeed(seed))
	}
	return race.New(opts...)
}

func parseNames(list string) []string {
	return strings.Split(list, ",")
}
