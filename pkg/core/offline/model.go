package offline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/crowelm/crowelm/pkg/common/uuid"
)

type Status string

const (
	StatusEmpty   Status = "empty"
	StatusLoading Status = "loading"
	StatusFresh   Status = "fresh"
	StatusStale   Status = "stale"
	StatusError   Status = "error"
)

// Entry is the persisted form of one cached value.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	TTL       time.Duration   `json:"ttl"`
}

// Fresh reports whether now - Timestamp <= TTL.
func (e *Entry) Fresh(now time.Time) bool {
	return now.Sub(e.Timestamp) <= e.TTL
}

// State is what a reader sees for one key. Data and Err are not exclusive:
// a failed revalidation keeps the previous data and reports the error.
type State[T any] struct {
	Data      T
	HasData   bool
	IsStale   bool
	IsLoading bool
	Err       error
	Status    Status
	UpdatedAt time.Time
}

type Fetcher[T any] func(ctx context.Context) (T, error)

type OpType string

const (
	OpCreate OpType = "CREATE"
	OpUpdate OpType = "UPDATE"
	OpDelete OpType = "DELETE"
)

func (t OpType) Valid() bool {
	switch t {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Operation is a mutation waiting to be replayed against the backend.
type Operation struct {
	ID        uuid.UUID       `json:"id"`
	Type      OpType          `json:"type"`
	Endpoint  string          `json:"endpoint"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
}

// Replayer sends one queued operation to the backend.
type Replayer interface {
	Replay(ctx context.Context, op *Operation) error
}

type SyncResult struct {
	Attempted int          `json:"attempted"`
	Synced    int          `json:"synced"`
	Remaining int          `json:"remaining"`
	Failed    []*Operation `json:"failed,omitempty"`
}
