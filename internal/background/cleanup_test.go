package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakeDeleter) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, f.err
}

func (f *fakeDeleter) calls() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.cutoffs...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestCleanupManager_SweepsWithRetentionCutoff(t *testing.T) {
	deleter := &fakeDeleter{}
	cm := NewCleanupManager(deleter, testLogger(), time.Hour)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cm.now = func() time.Time { return now }

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return len(deleter.calls()) == 1 }, time.Second, 5*time.Millisecond)
	cm.Stop()
	cm.Stop()
	<-done

	assert.Equal(t, now.Add(-24*time.Hour), deleter.calls()[0])
}

func TestCleanupManager_StopsOnContextAndSurvivesErrors(t *testing.T) {
	deleter := &fakeDeleter{err: errors.New("db down")}
	cm := NewCleanupManager(deleter, testLogger(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(deleter.calls()) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup manager did not stop")
	}
}
