package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/firmflex/config"
	coremon "github.com/kilianp07/firmflex/core/monitoring"
)

type captureTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (c *captureTransport) Configure(sentry.ClientOptions)        {}
func (c *captureTransport) Flush(time.Duration) bool              { return true }
func (c *captureTransport) FlushWithContext(context.Context) bool { return true }
func (c *captureTransport) Close()                                {}
func (c *captureTransport) SendEvent(e *sentry.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	_, ok := m.(coremon.NopMonitor)
	assert.True(t, ok)
}

func TestSentryMonitorCapturesWithTags(t *testing.T) {
	tr := &captureTransport{}
	m, err := newSentryMonitor(sentry.ClientOptions{Dsn: "https://key@example.com/1", Transport: tr})
	require.NoError(t, err)

	m.CaptureException(errors.New("site failed"), map[string]string{"site": "A"})
	m.CaptureException(nil, nil)
	m.CapturePanic("boom", map[string]string{"site": "B"})
	assert.True(t, m.Flush(time.Second))

	tr.mu.Lock()
	defer tr.mu.Unlock()
	require.Len(t, tr.events, 2)
	assert.Equal(t, "A", tr.events[0].Tags["site"])
	assert.Equal(t, "B", tr.events[1].Tags["site"])
}
