package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/coffeerun/internal/adapters/mq/queue"
	"github.com/okian/coffeerun/internal/domain/model"
	"github.com/okian/coffeerun/internal/domain/session"
	"github.com/okian/coffeerun/pkg/logger"
	"github.com/okian/coffeerun/pkg/metrics"
)

// runFrameClock schedules a frame for every live session once per interval.
func (s *Service) runFrameClock(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.ScheduleFrames(ctx)
		}
	}
}

// ScheduleFrames enqueues one frame, stamped with the current time, for
// each session that still needs frames and has none pending. It returns the
// number of frames enqueued.
func (s *Service) ScheduleFrames(ctx context.Context) int {
	now := s.clock()
	scheduled := 0

	s.sessions.Range(ctx, func(sess *session.Session) bool {
		if !sess.NeedsFrames() {
			return true
		}
		id := sess.ID()
		if s.coalescer.Claim(ctx, id) {
			metrics.RecordFrameCoalesced()
			return true
		}
		if err := s.frames.Enqueue(ctx, model.Frame{SessionID: id, At: now}); err != nil {
			s.coalescer.Release(ctx, id)
			if errors.Is(err, queue.ErrClosed) {
				return false
			}
			s.logger.Debug(ctx, "frame not enqueued", logger.String("session", id), logger.Error(err))
			return true
		}
		scheduled++
		return true
	})
	return scheduled
}
