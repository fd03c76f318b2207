// Package worker runs the scheduled background jobs.
package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"eventhub-backend/config"
)

// Reminder sends event reminders for events starting within window.
type Reminder interface {
	SendReminders(ctx context.Context, window time.Duration) (int, error)
}

// ReminderWorker periodically reminds attendees of upcoming events.
type ReminderWorker struct {
	reminder Reminder
	log      *logrus.Logger
	interval time.Duration
	window   time.Duration
}

func NewReminderWorker(reminder Reminder, log *logrus.Logger, cfg config.ReminderConfig) *ReminderWorker {
	return &ReminderWorker{
		reminder: reminder,
		log:      log,
		interval: cfg.Interval,
		window:   cfg.Window,
	}
}

// RunOnce sends one batch of reminders. Failures are logged, not returned,
// so the next tick retries.
func (w *ReminderWorker) RunOnce(ctx context.Context) {
	sent, err := w.reminder.SendReminders(ctx, w.window)
	if err != nil {
		w.log.WithError(err).Error("Failed to send event reminders")
		return
	}
	w.log.WithField("sent", sent).Info("Event reminders processed")
}

// Run schedules RunOnce every interval, starting immediately, until ctx is done.
func (w *ReminderWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return errors.New("reminder interval must be positive")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "failed to create scheduler")
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.RunOnce(ctx) }),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.Wrap(err, "failed to schedule reminder job")
	}

	w.log.WithFields(logrus.Fields{
		"interval": w.interval,
		"window":   w.window,
	}).Info("Starting reminder worker")
	scheduler.Start()

	<-ctx.Done()
	w.log.Info("Stopping reminder worker")
	return errors.Wrap(scheduler.Shutdown(), "scheduler shutdown failed")
}
