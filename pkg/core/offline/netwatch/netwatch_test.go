package netwatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) (*resty.Client, *atomic.Bool) {
	t.Helper()
	healthy := &atomic.Bool{}
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" || !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	t.Cleanup(srv.Close)
	return resty.New().SetBaseURL(srv.URL), healthy
}

func TestCheckNotifiesOnTransitions(t *testing.T) {
	client, healthy := newBackend(t)
	m := New(client, Options{HealthPath: "/health", Timeout: time.Second})
	ctx := context.Background()

	var mu sync.Mutex
	var seen []bool
	unsub := m.Subscribe(func(online bool) {
		mu.Lock()
		seen = append(seen, online)
		mu.Unlock()
	})

	assert.False(t, m.Online())
	assert.True(t, m.Check(ctx))
	assert.True(t, m.Check(ctx))
	assert.True(t, m.Online())

	healthy.Store(false)
	assert.False(t, m.Check(ctx))
	assert.False(t, m.Check(ctx))

	healthy.Store(true)
	m.Check(ctx)
	unsub()
	healthy.Store(false)
	m.Check(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false, true}, seen)
}

func TestUnreachableBackendIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := New(resty.New().SetBaseURL(url), Options{Timeout: time.Second})
	assert.False(t, m.Check(context.Background()))
}

func TestStartStop(t *testing.T) {
	client, healthy := newBackend(t)
	m := New(client, Options{Interval: 10 * time.Millisecond, Timeout: time.Second})

	m.Start(context.Background())
	require.Eventually(t, m.Online, time.Second, 5*time.Millisecond)
	healthy.Store(false)
	require.Eventually(t, func() bool { return !m.Online() }, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Stop()
}
