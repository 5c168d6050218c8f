package repo

import (
	"context"
	"encoding/json"

	"github.com/crowelm/crowelm/pkg/core/offline"
)

type idempotencyKey struct{}

// WithIdempotencyKey marks requests made with ctx as attempts of one
// operation, so the backend can drop repeats.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKey{}).(string)
	return key
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

type Target struct {
	TargetID          string   `json:"target_id"`
	Gene              *string  `json:"gene,omitempty"`
	ProteinName       *string  `json:"protein_name,omitempty"`
	DruggabilityScore *float64 `json:"druggability_score,omitempty"`
	Analysis          *string  `json:"analysis,omitempty"`
}

type GenerateReq struct {
	NumMolecules int     `json:"num_molecules"`
	SeedSmiles   *string `json:"seed_smiles,omitempty"`
}

type GenerateResp struct {
	Molecules []map[string]any `json:"molecules"`
}

type PropertiesReq struct {
	Smiles []string `json:"smiles"`
}

type StructureReq struct {
	Sequence string `json:"sequence"`
}

type StructureResp struct {
	PDB        string          `json:"pdb"`
	Confidence json.RawMessage `json:"confidence,omitempty"`
}

type PipelineReq struct {
	TargetID         string `json:"target_id"`
	GenerateLigands  bool   `json:"generate_ligands"`
	NumMolecules     int    `json:"num_molecules,omitempty"`
	PredictStructure bool   `json:"predict_structure"`
}

type ChatReq struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

type ChatResp struct {
	Response string `json:"response"`
	Model    string `json:"model"`
}

// Backend is the CroweLM HTTP API. Transport failures, timeouts and 5xx
// responses are code.NetworkErr; other non-2xx responses are
// code.RPCHttpCodeErr, code.NotFoundErr or code.InvalidToken.
type Backend interface {
	offline.Replayer

	Health(ctx context.Context) error

	Login(ctx context.Context, req *LoginReq) (*TokenResp, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context, refreshToken string) (*TokenResp, error)
	Profile(ctx context.Context) (json.RawMessage, error)

	Target(ctx context.Context, targetID string) (*Target, error)
	GenerateMolecules(ctx context.Context, req *GenerateReq) (*GenerateResp, error)
	Properties(ctx context.Context, req *PropertiesReq) (json.RawMessage, error)
	PredictStructure(ctx context.Context, req *StructureReq) (*StructureResp, error)

	RunPipeline(ctx context.Context, req *PipelineReq) (json.RawMessage, error)
	PipelineStatus(ctx context.Context, jobID string) (json.RawMessage, error)
	PipelineResults(ctx context.Context, jobID string) (json.RawMessage, error)

	RecentActivity(ctx context.Context) (json.RawMessage, error)
	Chat(ctx context.Context, req *ChatReq) (*ChatResp, error)
}
