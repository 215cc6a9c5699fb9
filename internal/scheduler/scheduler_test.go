package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/internal/service"
	"github.com/thep200/workflow-popularity/pkg/log"
)

type countingRunner struct {
	calls   atomic.Int32
	block   chan struct{}
	err     error
	regions []string
}

func (r *countingRunner) CollectAll(_ context.Context, regions []string) (*service.CollectionResult, error) {
	r.calls.Add(1)
	r.regions = regions
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, r.err
	}
	return &service.CollectionResult{RunID: "run"}, nil
}

func testLogger(t *testing.T) log.Logger {
	t.Helper()
	logger, err := log.NewCslLoggerTo(io.Discard, true)
	require.NoError(t, err)
	return logger
}

func testConfig() *cfg.Config {
	config := cfg.Defaults()
	config.Schedule.Timezone = "UTC"
	return config
}

func TestNew_Validates(t *testing.T) {
	config := testConfig()
	config.Schedule.Hour = 24
	_, err := New(testLogger(t), config, &countingRunner{})
	assert.Error(t, err)

	config = testConfig()
	config.Schedule.Timezone = "Mars/Olympus"
	_, err = New(testLogger(t), config, &countingRunner{})
	assert.Error(t, err)
}

func TestSchedule_DailyAtConfiguredTime(t *testing.T) {
	config := testConfig()
	config.Schedule.Hour = 2
	config.Schedule.Minute = 30
	config.Schedule.RunOnStart = false

	s, err := New(testLogger(t), config, &countingRunner{})
	require.NoError(t, err)
	assert.Equal(t, "30 2 * * *", s.Spec())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	next := s.Next().UTC()
	assert.Equal(t, 2, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.True(t, next.After(time.Now()))
	assert.True(t, next.Before(time.Now().Add(25*time.Hour)))
}

func TestStart_RunsOnStartup(t *testing.T) {
	runner := &countingRunner{err: errors.New("all sources down")}
	s, err := New(testLogger(t), testConfig(), runner)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	s.Stop()

	assert.Equal(t, int32(1), runner.calls.Load())
	assert.Equal(t, []string{"US", "IN"}, runner.regions)
}

func TestRun_SkipsWhileRunning(t *testing.T) {
	runner := &countingRunner{block: make(chan struct{})}
	s, err := New(testLogger(t), testConfig(), runner)
	require.NoError(t, err)

	ctx := context.Background()
	done := make(chan bool)
	go func() { done <- s.Run(ctx, "first") }()

	require.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, s.Run(ctx, "second"))

	close(runner.block)
	assert.True(t, <-done)
	assert.True(t, s.Run(ctx, "third"))
	assert.Equal(t, int32(2), runner.calls.Load())
}
