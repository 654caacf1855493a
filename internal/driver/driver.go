// Package driver runs the auction's periodic jobs: the expiry tick that
// closes timed-out items and answers timed-out RTM offers, plus housekeeping.
package driver

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultTickSchedule fires the auction tick once per second.
const DefaultTickSchedule = "@every 1s"

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Driver schedules jobs on cron specs. A run that is still in progress when
// the next one is due is skipped.
type Driver struct {
	cron    *cron.Cron
	log     *slog.Logger
	baseCtx context.Context
}

// New creates a driver whose jobs run with ctx. Specs accept an optional
// leading seconds field as well as descriptors such as "@every 1s".
func New(ctx context.Context, log *slog.Logger) *Driver {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = slog.Default()
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Driver{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log:     log,
		baseCtx: ctx,
	}
}

// Add registers job under name. Errors returned by the job are logged and
// the schedule continues.
func (d *Driver) Add(name, spec string, job Job) error {
	_, err := d.cron.AddFunc(spec, func() { d.run(name, job) })
	if err != nil {
		return err
	}
	d.log.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

func (d *Driver) run(name string, job Job) {
	if d.baseCtx.Err() != nil {
		return
	}
	if err := job(d.baseCtx); err != nil {
		d.log.Error("scheduled job failed", "job", name, "error", err)
	}
}

// Start begins running jobs in the background.
func (d *Driver) Start() {
	d.log.Info("driver started")
	d.cron.Start()
}

// Stop halts the schedule and waits for running jobs to finish.
func (d *Driver) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	d.log.Info("driver stopped")
}
