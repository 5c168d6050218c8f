package research

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/core/molecule"
	"github.com/crowelm/crowelm/pkg/core/notify"
	"github.com/crowelm/crowelm/pkg/core/offline"
	"github.com/crowelm/crowelm/pkg/core/offline/cache"
	"github.com/crowelm/crowelm/pkg/core/offline/syncer"
	"github.com/crowelm/crowelm/pkg/core/research"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/crowelm/crowelm/pkg/repo/credential"
	"github.com/panjf2000/ants/v2"
)

const (
	ActivityTTL = 5 * time.Minute
	TargetTTL   = time.Hour
	ProfileTTL  = time.Hour

	maxGenerate     = 100
	defaultGenerate = 10
)

// Connectivity reports whether the backend answered its last health probe.
type Connectivity interface {
	Online() bool
}

type Deps struct {
	Backend      repo.Backend
	Credential   repo.Credential
	Store        repo.KVStore
	Pool         *ants.Pool
	Syncer       *syncer.Syncer
	Connectivity Connectivity
	Center       notify.MsgCenter
	Engine       *molecule.Engine
	FetchTimeout time.Duration
	ActivityTTL  time.Duration
	Now          func() time.Time
}

type researchImpl struct {
	backend     repo.Backend
	credential  repo.Credential
	syncer      *syncer.Syncer
	conn        Connectivity
	center      notify.MsgCenter
	engine      *molecule.Engine
	activityTTL time.Duration
	now         func() time.Time

	activity *cache.Cache[json.RawMessage]
	profile  *cache.Cache[json.RawMessage]
	targets  *cache.Cache[repo.Target]
}

func New(d *Deps) research.Service {
	r := &researchImpl{
		backend:     d.Backend,
		credential:  d.Credential,
		syncer:      d.Syncer,
		conn:        d.Connectivity,
		center:      d.Center,
		engine:      d.Engine,
		activityTTL: d.ActivityTTL,
		now:         d.Now,
	}
	if r.activityTTL <= 0 {
		r.activityTTL = ActivityTTL
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.engine == nil {
		r.engine = &molecule.Engine{
			Rule:    molecule.DistanceRule(molecule.BondingThreshold),
			Palette: molecule.DefaultPalette,
			Mode:    molecule.BallStick,
		}
	}

	opts := cache.Options{
		Store:        d.Store,
		Pool:         d.Pool,
		FetchTimeout: d.FetchTimeout,
		Now:          d.Now,
		OnUpdate:     r.onCacheUpdate,
	}
	r.activity = cache.New[json.RawMessage](opts)
	r.profile = cache.New[json.RawMessage](opts)
	r.targets = cache.New[repo.Target](opts)
	return r
}

func (r *researchImpl) onCacheUpdate(key string, status offline.Status) {
	if r.center == nil {
		return
	}
	ctx := context.Background()
	if err := r.center.Broadcast(ctx, &notify.SendMsg{
		Channel: notify.CacheUpdate,
		Key:     key,
		Status:  string(status),
	}); err != nil {
		logger.Warnf(ctx, "broadcast cache update %s err: %+v", key, err)
	}
}

func (r *researchImpl) Login(ctx context.Context, req *research.LoginReq) (*research.LoginResp, error) {
	resp, err := r.backend.Login(ctx, &repo.LoginReq{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, err
	}
	tok := credential.FromResp(resp, r.now())
	if err := r.credential.Save(ctx, tok); err != nil {
		return nil, err
	}
	return &research.LoginResp{TokenType: tok.TokenType, ExpiresAt: tok.Expiry}, nil
}

// Logout always drops local credentials and cached profile, even when the
// backend cannot be told.
func (r *researchImpl) Logout(ctx context.Context) error {
	if err := r.backend.Logout(ctx); err != nil {
		logger.Warnf(ctx, "backend logout err: %+v", err)
	}
	if err := r.profile.Clear(ctx, research.ProfileKey); err != nil {
		return err
	}
	return r.credential.Clear(ctx)
}

func (r *researchImpl) RefreshToken(ctx context.Context) (*research.LoginResp, error) {
	old, err := r.credential.Load(ctx)
	if errors.Is(err, code.NotFoundErr) {
		return nil, code.UnLogin
	}
	if err != nil {
		return nil, err
	}
	if old.RefreshToken == "" {
		return nil, code.InvalidToken.WithMsg("no refresh token")
	}

	resp, err := r.backend.Refresh(ctx, old.RefreshToken)
	if err != nil {
		return nil, err
	}
	tok := credential.FromResp(resp, r.now())
	if tok.RefreshToken == "" {
		tok.RefreshToken = old.RefreshToken
	}
	if err := r.credential.Save(ctx, tok); err != nil {
		return nil, err
	}
	return &research.LoginResp{TokenType: tok.TokenType, ExpiresAt: tok.Expiry}, nil
}

func (r *researchImpl) Profile(ctx context.Context) offline.State[json.RawMessage] {
	return r.profile.Read(ctx, research.ProfileKey, r.backend.Profile, ProfileTTL)
}

func (r *researchImpl) RecentActivity(ctx context.Context) offline.State[json.RawMessage] {
	return r.activity.Read(ctx, research.ActivityKey, r.backend.RecentActivity, r.activityTTL)
}

func (r *researchImpl) Target(ctx context.Context, targetID string) offline.State[repo.Target] {
	return r.targets.Read(ctx, research.TargetKey(targetID), func(ctx context.Context) (repo.Target, error) {
		t, err := r.backend.Target(ctx, targetID)
		if err != nil {
			return repo.Target{}, err
		}
		return *t, nil
	}, TargetTTL)
}

func (r *researchImpl) Refresh(ctx context.Context, key string) (*research.StateResp[json.RawMessage], error) {
	switch {
	case key == research.ActivityKey:
		return research.NewStateResp(r.activity.Refresh(ctx, key)), nil
	case key == research.ProfileKey:
		return research.NewStateResp(r.profile.Refresh(ctx, key)), nil
	case strings.HasPrefix(key, research.TargetKey("")):
		return rawState(r.targets.Refresh(ctx, key))
	default:
		return nil, code.ParamErr.WithMsgf("unknown cache key %s", key)
	}
}

func rawState[T any](s offline.State[T]) (*research.StateResp[json.RawMessage], error) {
	out := offline.State[json.RawMessage]{
		HasData:   s.HasData,
		IsStale:   s.IsStale,
		IsLoading: s.IsLoading,
		Err:       s.Err,
		Status:    s.Status,
		UpdatedAt: s.UpdatedAt,
	}
	if s.HasData {
		raw, err := json.Marshal(s.Data)
		if err != nil {
			return nil, code.UnknownErr.WithErr(err)
		}
		out.Data = raw
	}
	return research.NewStateResp(out), nil
}

func (r *researchImpl) Clear(ctx context.Context, key string) error {
	switch {
	case key == research.ActivityKey:
		return r.activity.Clear(ctx, key)
	case key == research.ProfileKey:
		return r.profile.Clear(ctx, key)
	case strings.HasPrefix(key, research.TargetKey("")):
		return r.targets.Clear(ctx, key)
	default:
		return code.ParamErr.WithMsgf("unknown cache key %s", key)
	}
}

// GenerateMolecules runs online when it can. While the backend is
// unreachable the request is queued and replayed on reconnect.
func (r *researchImpl) GenerateMolecules(ctx context.Context, req *research.GenerateReq) (*research.GenerateResp, error) {
	n := req.NumMolecules
	if n == 0 {
		n = defaultGenerate
	}
	if n < 0 || n > maxGenerate {
		return nil, code.ValidationErr.WithMsgf("num_molecules must be between 1 and %d", maxGenerate)
	}
	body := &repo.GenerateReq{NumMolecules: n, SeedSmiles: req.SeedSmiles}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, code.UnknownErr.WithErr(err)
	}

	var generated *repo.GenerateResp
	res, err := r.syncer.Do(ctx, offline.Operation{
		Type:     offline.OpCreate,
		Endpoint: "/molecules/generate",
		Payload:  payload,
	}, func(ctx context.Context) error {
		var err error
		generated, err = r.backend.GenerateMolecules(ctx, body)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res.Queued {
		return &research.GenerateResp{Queued: true, OperationID: res.Operation.ID.String()}, nil
	}
	return &research.GenerateResp{Molecules: generated.Molecules}, nil
}

func (r *researchImpl) Properties(ctx context.Context, req *repo.PropertiesReq) (json.RawMessage, error) {
	if len(req.Smiles) == 0 {
		return nil, code.ValidationErr.WithMsg("smiles is empty")
	}
	return r.backend.Properties(ctx, req)
}

// PredictStructure asks the backend to fold a sequence and lays the
// returned PDB out as a scene.
func (r *researchImpl) PredictStructure(ctx context.Context, req *research.StructureReq) (*research.StructureResp, error) {
	mode, ok := molecule.ParseMode(req.Mode)
	if !ok {
		return nil, code.ValidationErr.WithMsgf("unknown display mode %q", req.Mode)
	}
	if req.Mode == "" {
		mode = r.engine.Mode
	}

	pred, err := r.backend.PredictStructure(ctx, &repo.StructureReq{Sequence: req.Sequence})
	if err != nil {
		return nil, err
	}
	g, err := r.engine.Parse(pred.PDB)
	if err != nil {
		return nil, err
	}
	return &research.StructureResp{
		PDB:     pred.PDB,
		Formula: molecule.Formula(g.Atoms),
		Atoms:   len(g.Atoms),
		Bonds:   len(g.Bonds),
		Scene:   r.engine.Scene(g, mode),
	}, nil
}

func (r *researchImpl) RunPipeline(ctx context.Context, req *repo.PipelineReq) (json.RawMessage, error) {
	if req.TargetID == "" {
		return nil, code.ValidationErr.WithMsg("target_id is empty")
	}
	return r.backend.RunPipeline(ctx, req)
}

func (r *researchImpl) PipelineStatus(ctx context.Context, jobID string) (json.RawMessage, error) {
	return r.backend.PipelineStatus(ctx, jobID)
}

func (r *researchImpl) PipelineResults(ctx context.Context, jobID string) (json.RawMessage, error) {
	return r.backend.PipelineResults(ctx, jobID)
}

func (r *researchImpl) Chat(ctx context.Context, req *repo.ChatReq) (*repo.ChatResp, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, code.ValidationErr.WithMsg("message is empty")
	}
	return r.backend.Chat(ctx, req)
}

func (r *researchImpl) SyncStatus(ctx context.Context) (*research.SyncStatus, error) {
	pending, err := r.syncer.Pending(ctx)
	if err != nil {
		return nil, err
	}
	status := &research.SyncStatus{Pending: pending}
	if r.conn != nil {
		status.Online = r.conn.Online()
	}
	return status, nil
}

func (r *researchImpl) Sync(ctx context.Context) (*offline.SyncResult, error) {
	res, err := r.syncer.SyncPending(ctx)
	if err != nil {
		return nil, err
	}
	if r.center != nil {
		if err := r.center.Broadcast(ctx, &notify.SendMsg{Channel: notify.SyncDone, Data: res}); err != nil {
			logger.Warnf(ctx, "broadcast sync done err: %+v", err)
		}
	}
	return res, nil
}
