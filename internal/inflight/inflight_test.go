package inflight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoCollapsesConcurrentTriggers(t *testing.T) {
	var g Group
	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = g.Do(ctx, "save", func(context.Context) error {
			atomic.AddInt32(&calls, 1)
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	var sharedCount int32
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shared, _ := g.Do(ctx, "save", func(context.Context) error {
				atomic.AddInt32(&calls, 1)
				return nil
			})
			if shared {
				atomic.AddInt32(&sharedCount, 1)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(3), atomic.LoadInt32(&sharedCount))
}

func TestDoRunsAgainAfterSettled(t *testing.T) {
	var g Group
	ctx := context.Background()
	calls := 0
	boom := errors.New("boom")

	_, err := g.Do(ctx, "delete:1", func(context.Context) error { calls++; return boom })
	assert.ErrorIs(t, err, boom)

	shared, err := g.Do(ctx, "delete:1", func(context.Context) error { calls++; return nil })
	assert.NoError(t, err)
	assert.False(t, shared)
	assert.Equal(t, 2, calls)
}

func TestValue(t *testing.T) {
	var g Group
	v, err := Value(context.Background(), &g, "fetch", func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)
}

func TestKey(t *testing.T) {
	type payload struct{ Name string }

	assert.Equal(t, "refresh", Key("refresh"))
	assert.Equal(t, Key("save:", payload{"Nurse"}), Key("save:", payload{"Nurse"}))
	assert.NotEqual(t, Key("save:", payload{"Nurse"}), Key("save:", payload{"Doctor"}))
	assert.NotEqual(t, Key("send-otp", "9876543210"), Key("send-otp", "9123456789"))
	assert.NotEqual(t, Key("login", "9876543210", "1234"), Key("login", "9876543210", "4321"))
}

func TestDistinctKeysRunSeparately(t *testing.T) {
	var g Group
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int32

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = g.Do(ctx, Key("send-otp", "9876543210"), func(context.Context) error {
			atomic.AddInt32(&calls, 1)
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	shared, err := g.Do(ctx, Key("send-otp", "9123456789"), func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, shared)

	close(release)
	wg.Wait()
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCancelledStarterDoesNotFailJoiner(t *testing.T) {
	var g Group
	release := make(chan struct{})
	started := make(chan struct{})

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := g.Do(first, "toggle:1", func(run context.Context) error {
			close(started)
			select {
			case <-release:
				return nil
			case <-run.Done():
				return run.Err()
			}
		})
		firstErr <- err
	}()
	<-started

	joined := make(chan error, 1)
	go func() {
		_, err := g.Do(context.Background(), "toggle:1", func(context.Context) error {
			return errors.New("should have joined")
		})
		joined <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.NoError(t, <-joined)
}
