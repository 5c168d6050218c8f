package research

import (
	"context"
	"encoding/json"
	"time"

	"github.com/crowelm/crowelm/pkg/core/molecule"
	"github.com/crowelm/crowelm/pkg/core/offline"
	"github.com/crowelm/crowelm/pkg/repo"
)

const (
	ActivityKey = "activity:recent"
	ProfileKey  = "auth:profile"
)

func TargetKey(id string) string {
	return "target:" + id
}

// StateResp is the wire form of a cache state.
type StateResp[T any] struct {
	Data      *T        `json:"data,omitempty"`
	Status    string    `json:"status"`
	Stale     bool      `json:"stale"`
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

func NewStateResp[T any](s offline.State[T]) *StateResp[T] {
	resp := &StateResp[T]{
		Status:    string(s.Status),
		Stale:     s.IsStale,
		Loading:   s.IsLoading,
		UpdatedAt: s.UpdatedAt,
	}
	if s.HasData {
		data := s.Data
		resp.Data = &data
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	return resp
}

type LoginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResp struct {
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

type GenerateReq struct {
	NumMolecules int     `json:"num_molecules"`
	SeedSmiles   *string `json:"seed_smiles,omitempty"`
}

type GenerateResp struct {
	Queued      bool             `json:"queued"`
	OperationID string           `json:"operation_id,omitempty"`
	Molecules   []map[string]any `json:"molecules,omitempty"`
}

type StructureReq struct {
	Sequence string `json:"sequence" binding:"required"`
	Mode     string `json:"mode"`
}

type StructureResp struct {
	PDB     string          `json:"pdb"`
	Formula string          `json:"formula"`
	Atoms   int             `json:"atoms"`
	Bonds   int             `json:"bonds"`
	Scene   *molecule.Scene `json:"scene"`
}

type SyncStatus struct {
	Online  bool                 `json:"online"`
	Pending []*offline.Operation `json:"pending"`
}

// Service is the gateway's view of the research backend. Reads go through
// the offline cache; generation is queued while the backend is unreachable.
type Service interface {
	Login(ctx context.Context, req *LoginReq) (*LoginResp, error)
	Logout(ctx context.Context) error
	RefreshToken(ctx context.Context) (*LoginResp, error)
	Profile(ctx context.Context) offline.State[json.RawMessage]

	RecentActivity(ctx context.Context) offline.State[json.RawMessage]
	Target(ctx context.Context, targetID string) offline.State[repo.Target]
	Refresh(ctx context.Context, key string) (*StateResp[json.RawMessage], error)
	Clear(ctx context.Context, key string) error

	GenerateMolecules(ctx context.Context, req *GenerateReq) (*GenerateResp, error)
	Properties(ctx context.Context, req *repo.PropertiesReq) (json.RawMessage, error)
	PredictStructure(ctx context.Context, req *StructureReq) (*StructureResp, error)
	RunPipeline(ctx context.Context, req *repo.PipelineReq) (json.RawMessage, error)
	PipelineStatus(ctx context.Context, jobID string) (json.RawMessage, error)
	PipelineResults(ctx context.Context, jobID string) (json.RawMessage, error)
	Chat(ctx context.Context, req *repo.ChatReq) (*repo.ChatResp, error)

	SyncStatus(ctx context.Context) (*SyncStatus, error)
	Sync(ctx context.Context) (*offline.SyncResult, error)
}
