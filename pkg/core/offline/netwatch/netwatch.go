package netwatch

import (
	"context"
	"sync"
	"time"

	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/utils"
	"github.com/go-resty/resty/v2"
)

const (
	defaultInterval = 10 * time.Second
	defaultTimeout  = 30 * time.Second
)

type Options struct {
	HealthPath string
	Interval   time.Duration
	Timeout    time.Duration
}

type state int

const (
	unknown state = iota
	online
	offline
)

// Monitor polls the backend health endpoint and reports connectivity
// transitions.
type Monitor struct {
	client   *resty.Client
	path     string
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	state   state
	subs    map[uint64]func(online bool)
	nextSub uint64

	cancel context.CancelFunc
	wait   sync.WaitGroup
	once   sync.Once
}

func New(client *resty.Client, opts Options) *Monitor {
	m := &Monitor{
		client:   client,
		path:     opts.HealthPath,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		subs:     map[uint64]func(bool){},
	}
	if m.path == "" {
		m.path = "/health"
	}
	if m.interval <= 0 {
		m.interval = defaultInterval
	}
	if m.timeout <= 0 {
		m.timeout = defaultTimeout
	}
	return m
}

// Start probes once and then on every interval until Stop or ctx ends.
func (m *Monitor) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wait.Add(1)
	utils.SafelyGo(func() {
		ticker := time.NewTicker(m.interval)
		defer func() {
			ticker.Stop()
			m.wait.Done()
		}()
		m.Check(loopCtx)
		for {
			select {
			case <-loopCtx.Done():
				logger.Infof(ctx, "netwatch monitor exit")
				return
			case <-ticker.C:
				m.Check(loopCtx)
			}
		}
	}, func(err error) {
		logger.Errorf(ctx, "netwatch monitor SafelyGo err: %+v", err)
	})
}

func (m *Monitor) Stop() {
	m.once.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
	})
	m.wait.Wait()
}

// Check runs one probe, records the result and notifies on a transition.
func (m *Monitor) Check(ctx context.Context) bool {
	up := m.probe(ctx)
	next := offline
	if up {
		next = online
	}

	m.mu.Lock()
	changed := m.state != next
	m.state = next
	var subs []func(bool)
	if changed {
		for _, fn := range m.subs {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	if changed {
		logger.Infof(ctx, "netwatch backend online: %t", up)
	}
	for _, fn := range subs {
		if err := utils.SafelyRun(func() { fn(up) }); err != nil {
			logger.Errorf(ctx, "netwatch subscriber panic: %+v", err)
		}
	}
	return up
}

// Online reports the last probe result. Before the first probe it is false.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == online
}

// Subscribe registers fn for connectivity transitions. The first probe
// always counts as a transition.
func (m *Monitor) Subscribe(fn func(online bool)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Monitor) probe(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.client.R().SetContext(pctx).Get(m.path)
	if err != nil {
		logger.Debugf(ctx, "netwatch probe %s fail err: %+v", m.path, err)
		return false
	}
	return resp.IsSuccess()
}
