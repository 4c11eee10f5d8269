package racecheck

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/coffeerun/pkg/logger"
)

// ErrRacesFailed is returned by Run when at least one race failed a check.
var ErrRacesFailed = errors.New("races failed verification")

// Run drives cfg.Races races through the service, verifies every result and
// writes a YAML report when cfg.Output is set. The report is returned even
// when verification fails.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	applyDefaults(cfg)
	log := logger.Get().Named("racecheck")
	report := &Report{
		BaseURL:   cfg.BaseURL,
		StartedAt: time.Now(),
		Races:     cfg.Races,
	}

	log.Info(ctx, "starting coffee run race check",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("races", cfg.Races),
		logger.Int("workers", cfg.Workers),
		logger.Int("minRunners", cfg.MinRunners),
		logger.Int("maxRunners", cfg.MaxRunners),
		logger.Duration("raceTimeout", cfg.RaceTimeout))

	c := newClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := c.health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate rosters
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // roster sizes only
	list := rosters(rng, cfg.Races, cfg.MinRunners, cfg.MaxRunners)

	// Step 3: Run races concurrently
	report.Details = runRaces(ctx, cfg, c, list)

	// Step 4: Tally
	for _, d := range report.Details {
		switch {
		case d.Error != "":
			report.Errored++
		case len(d.Problems) > 0:
			report.Failed++
		default:
			report.Passed++
		}
		if d.Held {
			report.ScriptHeld++
		}
	}
	report.Duration = time.Since(report.StartedAt)

	// Step 5: Save report
	if cfg.Output != "" {
		if err := WriteReport(cfg.Output, report); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		} else {
			log.Info(ctx, "report saved", logger.String("output", cfg.Output))
		}
	}

	displayFinalStats(ctx, report)

	if report.Failed > 0 || report.Errored > 0 {
		return report, fmt.Errorf("%w: %d failed, %d errored", ErrRacesFailed, report.Failed, report.Errored)
	}
	log.Info(ctx, "race check completed successfully")
	return report, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Races <= 0 {
		cfg.Races = DefaultRaces
	}
	if cfg.MinRunners <= 0 {
		cfg.MinRunners = DefaultMinRunners
	}
	if cfg.MaxRunners < cfg.MinRunners {
		cfg.MaxRunners = cfg.MinRunners
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RaceTimeout <= 0 {
		cfg.RaceTimeout = DefaultRaceTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
}

// runRaces feeds rosters to cfg.Workers goroutines and collects one report
// per roster, in roster order.
func runRaces(ctx context.Context, cfg *Config, c *client, list [][]string) []RaceReport {
	out := make([]RaceReport, len(list))
	jobs := make(chan int, len(list))
	for i := range list {
		jobs <- i
	}
	close(jobs)

	var done int64
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = runRace(ctx, cfg, c, list[i])
				n := atomic.AddInt64(&done, 1)
				if cfg.Verbose {
					logRace(ctx, out[i], n, len(list))
				}
			}
		}()
	}
	wg.Wait()
	return out
}

// runRace creates one race, waits for it to complete, verifies the result
// and deletes the session.
func runRace(ctx context.Context, cfg *Config, c *client, roster []string) RaceReport {
	rep := RaceReport{Runners: roster}
	started := time.Now()
	defer func() { rep.Duration = time.Since(started) }()

	view, err := c.create(ctx, roster)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.Session = view.ID
	rep.RaceID = view.RaceID
	defer func() {
		if err := c.remove(context.WithoutCancel(ctx), view.ID); err != nil {
			logger.Get().Debug(ctx, "failed to delete race", logger.String("session", view.ID), logger.Error(err))
		}
	}()

	if err := waitCompleted(ctx, cfg, c, view); err != nil {
		rep.Error = err.Error()
		return rep
	}

	res, err := c.results(ctx, view.ID)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.Loser = res.Loser.Name
	rep.Held = res.ScriptHeld
	rep.Problems = Verify(roster, res)
	return rep
}

func waitCompleted(ctx context.Context, cfg *Config, c *client, view View) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.RaceTimeout)
	defer cancel()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for view.Phase != phaseCompleted {
		select {
		case <-ctx.Done():
			return fmt.Errorf("race %s stuck in %s: %w", view.ID, view.Phase, ctx.Err())
		case <-ticker.C:
		}
		next, err := c.view(ctx, view.ID)
		if err != nil {
			return err
		}
		view = next
	}
	return nil
}

func logRace(ctx context.Context, r RaceReport, n int64, total int) {
	fields := []logger.Field{
		logger.Int64("done", n),
		logger.Int("total", total),
		logger.String("session", r.Session),
		logger.Int("runners", len(r.Runners)),
		logger.String("loser", r.Loser),
		logger.Bool("scriptHeld", r.Held),
		logger.Duration("duration", r.Duration),
	}
	switch {
	case r.Error != "":
		logger.Get().Warn(ctx, "race errored", append(fields, logger.String("error", r.Error))...)
	case len(r.Problems) > 0:
		logger.Get().Warn(ctx, "race failed verification", append(fields, logger.Any("problems", r.Problems))...)
	default:
		logger.Get().Info(ctx, "race verified", fields...)
	}
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, r *Report) {
	var passRate, heldRate float64
	if r.Races > 0 {
		passRate = float64(r.Passed) / float64(r.Races) * percentageMultiplier
		heldRate = float64(r.ScriptHeld) / float64(r.Races) * percentageMultiplier
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("races", r.Races),
		logger.Int("passed", r.Passed),
		logger.Int("failed", r.Failed),
		logger.Int("errored", r.Errored),
		logger.Int("scriptHeld", r.ScriptHeld),
		logger.Float64("passRate", passRate),
		logger.Float64("scriptHeldRate", heldRate),
		logger.String("duration", r.Duration.String()))
}
