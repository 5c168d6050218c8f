package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/common/uuid"
	"github.com/crowelm/crowelm/pkg/core/offline"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/crowelm/crowelm/pkg/utils"
)

// Queue is the persisted FIFO of mutations made while offline.
type Queue struct {
	store    repo.KVStore
	replayer offline.Replayer
	now      func() time.Time

	// mu serializes read-modify-write of the persisted list.
	mu      sync.Mutex
	syncing atomic.Bool
}

func New(store repo.KVStore, replayer offline.Replayer) *Queue {
	return &Queue{store: store, replayer: replayer, now: time.Now}
}

// Enqueue appends op, assigning an ID and timestamp when missing.
func (q *Queue) Enqueue(ctx context.Context, op offline.Operation) (offline.Operation, error) {
	if !op.Type.Valid() {
		return op, code.ValidationErr.WithMsgf("unknown operation type %q", op.Type)
	}
	if op.Endpoint == "" {
		return op, code.ValidationErr.WithMsg("operation endpoint is empty")
	}
	if op.ID.IsNil() {
		op.ID = uuid.NewV7()
	}
	if op.Timestamp.IsZero() {
		op.Timestamp = q.now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	ops, err := q.load(ctx)
	if err != nil {
		return op, err
	}
	ops = append(ops, &op)
	if err := q.save(ctx, ops); err != nil {
		return op, err
	}
	logger.Infof(ctx, "queue enqueue %s %s id: %s pending: %d", op.Type, op.Endpoint, op.ID, len(ops))
	return op, nil
}

func (q *Queue) Pending(ctx context.Context) ([]*offline.Operation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

// SyncPending replays every queued operation in order. Successes are removed,
// failures stay in their original order, and operations enqueued during the
// pass are kept after them. Only one pass runs at a time.
func (q *Queue) SyncPending(ctx context.Context) (*offline.SyncResult, error) {
	if !q.syncing.CompareAndSwap(false, true) {
		return nil, code.SyncInProgressErr
	}
	defer q.syncing.Store(false)

	snapshot, err := q.Pending(ctx)
	if err != nil {
		return nil, err
	}
	res := &offline.SyncResult{}
	if len(snapshot) == 0 {
		return res, nil
	}

	attempted := make(map[uuid.UUID]struct{}, len(snapshot))
	retained := make([]*offline.Operation, 0, len(snapshot))
	for _, op := range snapshot {
		attempted[op.ID] = struct{}{}
		if ctx.Err() != nil {
			retained = append(retained, op)
			continue
		}

		res.Attempted++
		if err := q.replay(ctx, op); err != nil {
			op.Attempts++
			op.LastError = err.Error()
			retained = append(retained, op)
			res.Failed = append(res.Failed, op)
			logger.Warnf(ctx, "queue replay %s %s id: %s fail err: %+v", op.Type, op.Endpoint, op.ID, err)
			continue
		}
		res.Synced++
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	current, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, op := range current {
		if _, ok := attempted[op.ID]; !ok {
			retained = append(retained, op)
		}
	}
	if err := q.save(ctx, retained); err != nil {
		return nil, err
	}
	res.Remaining = len(retained)
	logger.Infof(ctx, "queue sync attempted: %d synced: %d remaining: %d", res.Attempted, res.Synced, res.Remaining)
	return res, nil
}

func (q *Queue) replay(ctx context.Context, op *offline.Operation) (err error) {
	if perr := utils.SafelyRun(func() { err = q.replayer.Replay(ctx, op) }); perr != nil {
		return code.UnknownErr.WithErr(perr)
	}
	return err
}

func (q *Queue) load(ctx context.Context) ([]*offline.Operation, error) {
	raw, err := q.store.Get(ctx, utils.PendingQueueKey)
	if errors.Is(err, code.NotFoundErr) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ops := make([]*offline.Operation, 0)
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, code.StorageErr.WithMsg("decode pending queue").WithErr(err)
	}
	return ops, nil
}

func (q *Queue) save(ctx context.Context, ops []*offline.Operation) error {
	if len(ops) == 0 {
		return q.store.Delete(ctx, utils.PendingQueueKey)
	}
	raw, err := json.Marshal(ops)
	if err != nil {
		return code.StorageErr.WithMsg("encode pending queue").WithErr(err)
	}
	return q.store.Set(ctx, utils.PendingQueueKey, raw)
}
