package notify

import (
	"context"

	"github.com/crowelm/crowelm/pkg/common/uuid"
)

type Action string

const (
	CacheUpdate  Action = "cache-update"
	SyncDone     Action = "sync-done"
	Connectivity Action = "connectivity"
)

type SendMsg struct {
	Channel   Action    `json:"action"`
	Key       string    `json:"key,omitempty"`
	Status    string    `json:"status,omitempty"`
	Data      any       `json:"data,omitempty"`
	UUID      uuid.UUID `json:"uuid"`
	Timestamp int64     `json:"timestamp"`
}

type HandleFunc func(ctx context.Context, msg string) error

// MsgCenter fans messages out to every gateway process.
type MsgCenter interface {
	Registry(ctx context.Context, msgName Action, handleFunc HandleFunc) error
	Broadcast(ctx context.Context, msg *SendMsg) error
	Close(ctx context.Context) error
}
