package viewer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/utils"
)

// FrameFunc renders one frame. dt is the time since the previous frame.
type FrameFunc func(ctx context.Context, frame uint64, dt time.Duration)

// Loop is a cancelable repeating frame task. The owner must call Stop when
// the view it drives goes away.
type Loop struct {
	cancel context.CancelFunc
	done   chan struct{}
	frames atomic.Uint64
	once   sync.Once
}

// Start runs fn at fps frames per second until Stop is called or ctx ends.
func Start(ctx context.Context, fps int, fn FrameFunc) *Loop {
	if fps <= 0 {
		fps = 30
	}
	loopCtx, cancel := context.WithCancel(ctx)
	l := &Loop{cancel: cancel, done: make(chan struct{})}
	ticker := time.NewTicker(time.Second / time.Duration(fps))

	utils.SafelyGo(func() {
		defer func() {
			ticker.Stop()
			close(l.done)
		}()
		last := time.Now()
		for {
			select {
			case <-loopCtx.Done():
				return
			case now := <-ticker.C:
				fn(loopCtx, l.frames.Add(1), now.Sub(last))
				last = now
			}
		}
	}, func(err error) {
		logger.Errorf(ctx, "viewer loop frame panic: %+v", err)
	})
	return l
}

// Stop cancels the loop and waits for the in-flight frame. Safe to call more
// than once.
func (l *Loop) Stop() {
	l.once.Do(l.cancel)
	<-l.done
}

func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}
