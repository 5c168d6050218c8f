package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/common/uuid"
	"github.com/crowelm/crowelm/pkg/core/offline"
	"github.com/crowelm/crowelm/pkg/core/offline/queue"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/crowelm/crowelm/pkg/utils"
)

// Watcher reports connectivity transitions.
type Watcher interface {
	Subscribe(fn func(online bool)) (unsubscribe func())
}

type MutateResult struct {
	Queued    bool               `json:"queued"`
	Operation *offline.Operation `json:"operation,omitempty"`
}

// Syncer sends mutations online when possible, queues them on network
// failure, and drains the queue whenever connectivity comes back.
type Syncer struct {
	queue *queue.Queue
	unsub func()
	wait  sync.WaitGroup
	once  sync.Once
	// OnSynced is called after every automatic pass.
	OnSynced func(ctx context.Context, res *offline.SyncResult)
}

func New(q *queue.Queue) *Syncer {
	return &Syncer{queue: q}
}

// Watch subscribes to w and runs a sync pass on every transition to online.
func (s *Syncer) Watch(ctx context.Context, w Watcher) {
	s.unsub = w.Subscribe(func(online bool) {
		if !online {
			return
		}
		s.wait.Add(1)
		utils.SafelyGo(func() {
			defer s.wait.Done()
			res, err := s.queue.SyncPending(ctx)
			if errors.Is(err, code.SyncInProgressErr) {
				return
			}
			if err != nil {
				logger.Errorf(ctx, "syncer reconnect sync fail err: %+v", err)
				return
			}
			if s.OnSynced != nil {
				s.OnSynced(ctx, res)
			}
		}, func(err error) {
			logger.Errorf(ctx, "syncer SafelyGo err: %+v", err)
		})
	})
}

// Close unsubscribes and waits for a running pass.
func (s *Syncer) Close() {
	s.once.Do(func() {
		if s.unsub != nil {
			s.unsub()
		}
	})
	s.wait.Wait()
}

// Do runs call as the online form of op. op gets its ID before call runs and
// call sees it as the idempotency key, so a queued replay repeats the same
// attempt. When call fails with a network error, op is queued for the next
// sync pass instead; any other failure is returned as is.
func (s *Syncer) Do(ctx context.Context, op offline.Operation, call func(ctx context.Context) error) (*MutateResult, error) {
	if !op.Type.Valid() {
		return nil, code.ValidationErr.WithMsgf("unknown operation type %q", op.Type)
	}
	if op.ID.IsNil() {
		op.ID = uuid.NewV7()
	}
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now()
	}

	err := call(repo.WithIdempotencyKey(ctx, op.ID.String()))
	if err == nil {
		return &MutateResult{Operation: &op}, nil
	}
	if !errors.Is(err, code.NetworkErr) {
		return nil, err
	}
	queued, qerr := s.queue.Enqueue(ctx, op)
	if qerr != nil {
		return nil, qerr
	}
	logger.Warnf(ctx, "syncer queued %s %s id: %s err: %+v", queued.Type, queued.Endpoint, queued.ID, err)
	return &MutateResult{Queued: true, Operation: &queued}, nil
}

func (s *Syncer) SyncPending(ctx context.Context) (*offline.SyncResult, error) {
	return s.queue.SyncPending(ctx)
}

func (s *Syncer) Pending(ctx context.Context) ([]*offline.Operation, error) {
	return s.queue.Pending(ctx)
}
