package service

import (
	"context"

	"github.com/okian/coffeerun/internal/domain/race"
	"github.com/okian/coffeerun/pkg/logger"
	"github.com/okian/coffeerun/pkg/metrics"
)

// raceObserver turns engine notifications into log lines and metrics.
type raceObserver struct {
	sessionID string
	logger    logger.Logger
}

func (o raceObserver) RaceStarted(s race.Started) {
	metrics.RecordRaceStarted()
	o.logger.Info(context.Background(), "race started",
		logger.String("session", o.sessionID),
		logger.Int("runners", len(s.Names)),
	)
}

func (o raceObserver) EventFired(e race.FiredEvent) {
	metrics.RecordCheckpointEvent(e.Event.Label)
	o.logger.Debug(context.Background(), "checkpoint event",
		logger.String("session", o.sessionID),
		logger.Int("checkpoint", e.Checkpoint),
		logger.String("runner", e.Name),
		logger.String("event", e.Event.Label),
		logger.Float64("delta", e.Event.Delta),
	)
}

func (o raceObserver) LaceStalled(s race.Stalled) {
	metrics.RecordLaceStall()
	o.logger.Info(context.Background(), "lace stall",
		logger.String("session", o.sessionID),
		logger.String("runner", s.Name),
		logger.Float64("position", s.Position),
	)
}

func (o raceObserver) RunnerFinished(f race.Finish) {
	metrics.RecordRunnerFinish(f.FinishTime.Seconds())
	o.logger.Debug(context.Background(), "runner finished",
		logger.String("session", o.sessionID),
		logger.String("runner", f.Name),
		logger.Int("order", f.FinishOrder),
		logger.Duration("time", f.FinishTime),
	)
}

func (o raceObserver) RaceCompleted(r race.Result) {
	metrics.RecordRaceCompleted(r.ScriptHeld)
	o.logger.Info(context.Background(), "race completed",
		logger.String("session", o.sessionID),
		logger.String("loser", r.Loser.Name),
		logger.Duration("loser_time", r.Loser.FinishTime),
		logger.Bool("script_held", r.ScriptHeld),
	)
}
