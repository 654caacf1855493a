package driver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

type counter struct {
	calls atomic.Int32
	err   error
}

func (c *counter) Tick(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDriverRunsJob(t *testing.T) {
	c := &counter{}
	d := New(context.Background(), quietLogger())
	assert.NoError(t, d.Add("tick", DefaultTickSchedule, c.Tick))

	d.Start()
	waitFor(t, func() bool { return c.calls.Load() >= 1 })
	d.Stop()

	n := c.calls.Load()
	time.Sleep(1200 * time.Millisecond)
	check.Equal(t, n, c.calls.Load())
}

func TestDriverKeepsRunningAfterError(t *testing.T) {
	c := &counter{err: errors.New("boom")}
	d := New(context.Background(), quietLogger())
	assert.NoError(t, d.Add("tick", "* * * * * *", c.Tick))

	d.Start()
	defer d.Stop()
	waitFor(t, func() bool { return c.calls.Load() >= 2 })
}

func TestDriverSkipsAfterContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &counter{}
	d := New(ctx, quietLogger())
	d.run("tick", c.Tick)
	check.Equal(t, int32(0), c.calls.Load())
}

func TestDriverAcceptsFiveFieldSpecs(t *testing.T) {
	d := New(context.Background(), quietLogger())
	check.NoError(t, d.Add("hourly", "0 * * * *", func(context.Context) error { return nil }))
	check.NoError(t, d.Add("descriptor", "@hourly", func(context.Context) error { return nil }))
}

func TestDriverRejectsBadSchedule(t *testing.T) {
	d := New(context.Background(), quietLogger())
	check.Error(t, d.Add("bad", "not a schedule", func(context.Context) error { return nil }))
}
