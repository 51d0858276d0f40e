package bot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/shelfbot/internal/bot/tasks"
	"github.com/edgard/shelfbot/internal/config"
)

type blockingListener struct {
	err error
}

func (l blockingListener) Run(ctx context.Context) error {
	if l.err != nil {
		return l.err
	}
	<-ctx.Done()
	return nil
}

type fakeDrainer struct {
	calls atomic.Int32
	err   error
}

func (d *fakeDrainer) Shutdown(context.Context) error {
	d.calls.Add(1)
	return d.err
}

func testConfig() *config.Config {
	return &config.Config{Navigation: config.NavigationConfig{ShutdownTimeout: time.Second}}
}

func TestBot_RunStopsOnCancelAndDrains(t *testing.T) {
	t.Parallel()
	drainer := &fakeDrainer{}
	sched, err := NewScheduler(nil, &config.SchedulerConfig{}, nil)
	require.NoError(t, err)

	b := NewBot(nil, testConfig(), blockingListener{}, sched, drainer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, int32(1), drainer.calls.Load())
}

func TestBot_ListenerFailure(t *testing.T) {
	t.Parallel()
	drainer := &fakeDrainer{}
	boom := errors.New("bind: address already in use")

	b := NewBot(nil, testConfig(), blockingListener{err: boom}, nil, drainer)

	err := b.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), drainer.calls.Load(), "in-flight work is drained even on failure")
}

func TestBot_DrainTimeoutIsReported(t *testing.T) {
	t.Parallel()
	drainer := &fakeDrainer{err: context.DeadlineExceeded}
	b := NewBot(nil, testConfig(), blockingListener{}, nil, drainer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Run(ctx), context.DeadlineExceeded)
}

func TestScheduler_Start(t *testing.T) {
	t.Parallel()
	noop := func(context.Context) error { return nil }

	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"enabled":  {Enabled: true, Schedule: "0 0 4 * * *"},
		"disabled": {Enabled: false, Schedule: "0 0 4 * * *"},
		"bad_cron": {Enabled: true, Schedule: "not a cron"},
		"unknown":  {Enabled: true, Schedule: "0 0 4 * * *"},
	}}
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"enabled":  noop,
		"disabled": noop,
		"bad_cron": noop,
	}

	s, err := NewScheduler(nil, cfg, taskMap)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	assert.Equal(t, []string{"enabled"}, s.Jobs())
	assert.Error(t, s.Start(), "second start")
}

func TestScheduler_RunsTask(t *testing.T) {
	t.Parallel()
	var runs atomic.Int32
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"tick": {Enabled: true, Schedule: "* * * * * *"},
	}}
	s, err := NewScheduler(nil, cfg, map[string]tasks.ScheduledTaskFunc{
		"tick": func(context.Context) error {
			runs.Add(1)
			return errors.New("task errors are logged, not fatal")
		},
	})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop(), "stopping twice is a no-op")
}
