package sse

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/crowelm/crowelm/pkg/common/uuid"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/gin-gonic/gin"
)

const (
	clientBuffer = 16
	keepAlive    = 15 * time.Second
)

// Handle fans notifications out to server-sent-event clients. Slow clients
// drop messages instead of blocking publishers.
type Handle struct {
	clients *haxmap.Map[string, chan string]
	done    chan struct{}
	once    sync.Once
}

func NewSSEHandle() *Handle {
	return &Handle{
		clients: haxmap.New[string, chan string](),
		done:    make(chan struct{}),
	}
}

func (h *Handle) Publish(ctx context.Context, msg string) error {
	h.clients.ForEach(func(id string, ch chan string) bool {
		select {
		case ch <- msg:
		default:
			logger.Warnf(ctx, "sse client %s buffer full, drop msg", id)
		}
		return true
	})
	return nil
}

// Close ends every open stream.
func (h *Handle) Close() {
	h.once.Do(func() { close(h.done) })
}

func (h *Handle) Notify(ctx *gin.Context) {
	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")
	ctx.Writer.Header().Set("X-Accel-Buffering", "no")

	id := uuid.NewV4().String()
	ch := make(chan string, clientBuffer)
	h.clients.Set(id, ch)
	defer h.clients.Del(id)

	ctx.SSEvent("ready", gin.H{"client_id": id})
	ctx.Writer.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	ctx.Stream(func(w io.Writer) bool {
		select {
		case msg := <-ch:
			ctx.SSEvent(action(msg), msg)
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		case <-h.done:
			return false
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

func action(msg string) string {
	m := struct {
		Action string `json:"action"`
	}{}
	if err := json.Unmarshal([]byte(msg), &m); err != nil || m.Action == "" {
		return "message"
	}
	return m.Action
}
