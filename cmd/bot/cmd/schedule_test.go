package cmd

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// slowListener termina uma resposta em andamento depois do cancelamento
type slowListener struct {
	started  chan struct{}
	finished atomic.Bool
}

func (l *slowListener) Listen(ctx context.Context) {
	close(l.started)
	<-ctx.Done()
	time.Sleep(50 * time.Millisecond)
	l.finished.Store(true)
}

func TestStartListenerStopWaitsForListener(t *testing.T) {
	l := &slowListener{started: make(chan struct{})}

	stop := startListener(context.Background(), l)
	<-l.started
	assert.False(t, l.finished.Load())

	stop()
	assert.True(t, l.finished.Load())
}

func TestStartListenerStopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &slowListener{started: make(chan struct{})}

	stop := startListener(ctx, l)
	<-l.started
	cancel()

	assert.Eventually(t, l.finished.Load, time.Second, 10*time.Millisecond)
	stop()
}
