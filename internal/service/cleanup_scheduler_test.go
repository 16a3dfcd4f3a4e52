package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingCleaner struct {
	mu    sync.Mutex
	calls []time.Duration
	err   error
}

func (c *countingCleaner) Cleanup(ttl time.Duration) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, ttl)
	return nil, c.err
}

func (c *countingCleaner) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestCleanupSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewCleanupScheduler(&countingCleaner{}, "every now and then", time.Hour, nil)
	require.Error(t, err)
}

func TestCleanupSchedulerRunOnceUsesTTL(t *testing.T) {
	cleaner := &countingCleaner{err: errors.New("disk busy")}
	s, err := NewCleanupScheduler(cleaner, "", 30*time.Minute, nil)
	require.NoError(t, err)

	s.RunOnce()
	require.Equal(t, 1, cleaner.count())
	assert.Equal(t, 30*time.Minute, cleaner.calls[0])
}

func TestCleanupSchedulerRunsOnSchedule(t *testing.T) {
	defer goleak.VerifyNone(t)

	cleaner := &countingCleaner{}
	s, err := NewCleanupScheduler(cleaner, "@every 1s", time.Minute, nil)
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return cleaner.count() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
