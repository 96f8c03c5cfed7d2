package cli

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emonupg/essync/internal/core/ports/driving"
)

func TestServeCmd_NotConfigured(t *testing.T) {
	withServices(t, Services{})

	_, err := execute(t, "serve")

	assert.EqualError(t, err, "scheduler not configured")
}

func TestSuperviseScheduler_StopsOnCancel(t *testing.T) {
	scheduler := &mockScheduler{}
	withServices(t, Services{NewScheduler: func() driving.Scheduler { return scheduler }})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- superviseScheduler(ctx, make(chan struct{})) }()

	require.Eventually(t, func() bool {
		started, _ := scheduler.counts()
		return started == 1
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop")
	}
	_, stopped := scheduler.counts()
	assert.Equal(t, 1, stopped)
}

func TestSuperviseScheduler_RestartsOnReload(t *testing.T) {
	scheduler := &mockScheduler{}
	built := 0
	withServices(t, Services{NewScheduler: func() driving.Scheduler {
		built++
		return scheduler
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reload := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() { done <- superviseScheduler(ctx, reload) }()

	require.Eventually(t, func() bool {
		started, _ := scheduler.counts()
		return started == 1
	}, time.Second, 5*time.Millisecond)

	reload <- struct{}{}

	require.Eventually(t, func() bool {
		started, _ := scheduler.counts()
		return started == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 2, built)
}

// failingScheduler returns an error from Start immediately.
type failingScheduler struct{ err error }

func (f failingScheduler) Start(context.Context) error { return f.err }
func (f failingScheduler) Stop() error                 { return nil }

func TestSuperviseScheduler_ReturnsStartError(t *testing.T) {
	boom := errors.New("store unavailable")
	withServices(t, Services{NewScheduler: func() driving.Scheduler { return failingScheduler{err: boom} }})

	err := superviseScheduler(context.Background(), make(chan struct{}))

	assert.ErrorIs(t, err, boom)
}

func TestServeCmd_ReloadsOnConfigChange(t *testing.T) {
	scheduler := &mockScheduler{}
	watcher := &mockWatcher{changes: make(chan struct{})}
	withServices(t, Services{
		NewScheduler:  func() driving.Scheduler { return scheduler },
		ConfigWatcher: watcher,
	})

	rootCmd.SetOut(io.Discard)
	rootCmd.SetArgs([]string{"serve"})
	defer rootCmd.SetArgs(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rootCmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		started, _ := scheduler.counts()
		return started == 1
	}, time.Second, 5*time.Millisecond)

	watcher.changes <- struct{}{}

	require.Eventually(t, func() bool {
		started, _ := scheduler.counts()
		return started == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("serve did not stop")
	}
}
