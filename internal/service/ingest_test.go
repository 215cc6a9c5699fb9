package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/internal/testsupport"
)

func TestIngestor_StoresBatches(t *testing.T) {
	config := testsupport.Config(t)
	config.Kafka.BatchSize = 2
	config.Kafka.BatchTimeout = 1
	store := testsupport.MustOpenStore(t, config)

	ing := NewIngestor(testsupport.Logger(t), config, store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ing.Run(ctx)
		close(done)
	}()

	handle := ing.Handler(ctx)
	require.NoError(t, handle([]byte(`{"subject":"Slack Automation","source":"Google","metrics":{"average_interest":12.5},"region":"US"}`)))
	require.NoError(t, handle([]byte(`{"subject":"Email Automation","source":"Google","metrics":{},"region":"US"}`)))
	assert.Error(t, handle([]byte(`{not json`)))
	assert.Error(t, handle([]byte(`{"source":"Google"}`)))

	assert.Eventually(t, func() bool {
		rows, err := store.Query(context.Background(), model.Filter{Source: "Google"})
		return err == nil && len(rows) == 2
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}

func TestIngestor_StoresQueuedRecordsOnShutdown(t *testing.T) {
	config := testsupport.Config(t)
	config.Kafka.BatchSize = 2
	config.Kafka.BatchTimeout = 60
	store := testsupport.MustOpenStore(t, config)

	ing := NewIngestor(testsupport.Logger(t), config, store, nil)
	handle := ing.Handler(context.Background())
	for _, subject := range []string{"a", "b", "c"} {
		require.NoError(t, handle([]byte(`{"subject":"`+subject+`","source":"Forum","metrics":{},"region":"Global"}`)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ing.Run(ctx)

	rows, err := store.Query(context.Background(), model.Filter{Source: "Forum"})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
