package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/coffeerun/internal/racecheck"
	"github.com/okian/coffeerun/pkg/logger"
)

const defaultCheckTimeout = 10 * time.Minute

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		races       = flag.Int("races", racecheck.DefaultRaces, "Number of races to run")
		minRunners  = flag.Int("min", racecheck.DefaultMinRunners, "Smallest roster")
		maxRunners  = flag.Int("max", racecheck.DefaultMaxRunners, "Largest roster")
		workers     = flag.Int("workers", runtime.NumCPU(), "Races driven concurrently")
		timeout     = flag.Duration("timeout", racecheck.DefaultTimeout, "HTTP request timeout")
		raceTimeout = flag.Duration("race-timeout", racecheck.DefaultRaceTimeout, "How long one race may take to complete")
		poll        = flag.Duration("poll", racecheck.DefaultPollInterval, "Delay between race polls")
		seed        = flag.Int64("seed", 0, "Roster size seed (default: current time)")
		output      = flag.String("output", "", "YAML report file (default: race_check_TIMESTAMP.yaml)")
		verbose     = flag.Bool("verbose", false, "Log every race")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		racecheck.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	if *output == "" {
		*output = "race_check_" + time.Now().Format("20060102_150405") + ".yaml"
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultCheckTimeout)
	defer cancel()

	cfg := &racecheck.Config{
		BaseURL:      *baseURL,
		Races:        *races,
		MinRunners:   *minRunners,
		MaxRunners:   *maxRunners,
		Workers:      *workers,
		Timeout:      *timeout,
		RaceTimeout:  *raceTimeout,
		PollInterval: *poll,
		Seed:         *seed,
		Output:       *output,
		Verbose:      *verbose,
	}

	if _, err := racecheck.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Race check failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
