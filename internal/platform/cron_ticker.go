package platform

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"thetool/internal/core/countdown"
	"thetool/internal/logfields"
)

// CronTicker schedules countdown ticks as gocron duration jobs. Overlapping runs of one
// job are collapsed, so a slow tick handler delays the next tick instead of stacking them.
type CronTicker struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewCronTicker creates and starts a gocron scheduler driven by clock.
func NewCronTicker(clock clockwork.Clock, logger *slog.Logger) (*CronTicker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	options := []gocron.SchedulerOption{}
	if clock != nil {
		options = append(options, gocron.WithClock(clock))
	}
	s, err := gocron.NewScheduler(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	s.Start()
	return &CronTicker{scheduler: s, logger: logger}, nil
}

// ScheduleRepeating runs fn every interval until the returned cancel is called. Cancel does
// not wait for the job to be removed; a tick already queued may still run.
func (ticker *CronTicker) ScheduleRepeating(interval time.Duration, fn func()) (countdown.CancelFunc, error) {
	job, err := ticker.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName("countdown-tick"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tick job: %w", err)
	}

	id := job.ID()
	var once sync.Once
	return func() {
		once.Do(func() {
			// Cancel is called from inside tick handlers, so removal happens off this goroutine.
			go ticker.remove(id)
		})
	}, nil
}

// Active reports the number of scheduled tick jobs.
func (ticker *CronTicker) Active() int {
	return len(ticker.scheduler.Jobs())
}

// Shutdown stops the scheduler and every remaining job.
func (ticker *CronTicker) Shutdown() error {
	return ticker.scheduler.Shutdown()
}

func (ticker *CronTicker) remove(id uuid.UUID) {
	if err := ticker.scheduler.RemoveJob(id); err != nil {
		ticker.logger.Debug("Tick job already gone", slog.String("job_id", id.String()), logfields.Error(err))
	}
}
