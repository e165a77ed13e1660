package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jcastellanos/credifacil-api/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestWorker_EnqueueRunsJob(t *testing.T) {
	logger.Setup("test")

	w := NewWorker(2)

	var mu sync.Mutex
	ran := false
	done := make(chan struct{})

	w.Enqueue(func(ctx context.Context) error {
		mu.Lock()
		ran = true
		mu.Unlock()
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}

	w.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, ran)
}

func TestWorker_StatsCountFailures(t *testing.T) {
	logger.Setup("test")

	w := NewWorker(1)

	done := make(chan struct{})
	w.Enqueue(func(ctx context.Context) error {
		defer close(done)
		return errors.New("boom")
	})

	<-done
	w.Shutdown()

	stats := w.GetStats()
	assert.Equal(t, int64(1), stats.CompletedJobs)
	assert.Equal(t, int64(1), stats.FailedJobs)
	assert.Equal(t, int64(0), stats.ActiveJobs)
}

func TestWorker_PanicDoesNotKillPool(t *testing.T) {
	logger.Setup("test")

	w := NewWorker(1)

	first := make(chan struct{})
	w.Enqueue(func(ctx context.Context) error {
		defer close(first)
		panic("bad job")
	})
	<-first

	second := make(chan struct{})
	w.Enqueue(func(ctx context.Context) error {
		close(second)
		return nil
	})

	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not survive a panicking job")
	}

	w.Shutdown()
	assert.Equal(t, int64(1), w.GetStats().FailedJobs)
}

func TestWorker_ScheduleEveryImmediateRunsRightAway(t *testing.T) {
	logger.Setup("test")

	w := NewWorker(1)

	done := make(chan struct{})
	var once sync.Once
	w.ScheduleEveryImmediate(time.Hour, func(ctx context.Context) error {
		once.Do(func() { close(done) })
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("immediate schedule never fired")
	}

	w.Shutdown()
}

func TestWorker_ShutdownStopsScheduler(t *testing.T) {
	logger.Setup("test")

	w := NewWorker(1)

	var mu sync.Mutex
	runs := 0
	w.ScheduleEvery(10*time.Millisecond, func(ctx context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	})

	time.Sleep(50 * time.Millisecond)
	w.Shutdown()

	mu.Lock()
	after := runs
	mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, after, runs)
}
