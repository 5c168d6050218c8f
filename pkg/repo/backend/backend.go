package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/core/offline"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 30 * time.Second

var tracer = otel.Tracer("github.com/crowelm/crowelm/pkg/repo/backend")

type Config struct {
	Addr    string
	Timeout time.Duration
}

// TokenFunc supplies the bearer for each request; "" sends none.
type TokenFunc func(ctx context.Context) (string, error)

type backendImpl struct {
	client *resty.Client
	token  TokenFunc
}

func New(conf *Config, token TokenFunc) repo.Backend {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New().
		SetBaseURL(conf.Addr).
		SetTimeout(timeout).
		SetHeaders(map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		})
	return &backendImpl{client: client, token: token}
}

func (b *backendImpl) request(ctx context.Context) (*resty.Request, error) {
	req := b.client.R().SetContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if key := repo.IdempotencyKey(ctx); key != "" {
		req.SetHeader("Idempotency-Key", key)
	}
	if b.token == nil {
		return req, nil
	}
	bearer, err := b.token(ctx)
	if err != nil {
		return nil, err
	}
	if bearer != "" {
		req.SetAuthToken(bearer)
	}
	return req, nil
}

// Client exposes the configured resty client for the reachability monitor.
func Client(b repo.Backend) *resty.Client {
	if impl, ok := b.(*backendImpl); ok {
		return impl.client
	}
	return nil
}

func startSpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
}

func endSpan(span trace.Span, res *resty.Response, err error) {
	if res != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode()))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}

func (b *backendImpl) call(ctx context.Context, method, path string, body, result any) (err error) {
	ctx, span := startSpan(ctx, method, path)
	var res *resty.Response
	defer func() { endSpan(span, res, err) }()

	req, err := b.request(ctx)
	if err != nil {
		return err
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result).ForceContentType("application/json")
	}

	res, err = req.Execute(method, path)
	if err != nil {
		logger.Warnf(ctx, "backend %s %s err: %+v", method, path, err)
		return code.NetworkErr.WithMsgf("%s %s", method, path).WithErr(err)
	}
	return statusErr(method, path, res)
}

func statusErr(method, path string, res *resty.Response) error {
	status := res.StatusCode()
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 500:
		return code.NetworkErr.WithMsgf("%s %s http code: %d", method, path, status)
	case status == http.StatusUnauthorized:
		return code.InvalidToken.WithMsgf("%s %s http code: %d", method, path, status)
	case status == http.StatusNotFound:
		return code.NotFoundErr.WithMsgf("%s %s", method, path)
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return code.ValidationErr.WithMsgf("%s %s: %s", method, path, res.String())
	default:
		return code.RPCHttpCodeErr.WithMsgf("%s %s http code: %d", method, path, status)
	}
}

var methods = map[offline.OpType]string{
	offline.OpCreate: http.MethodPost,
	offline.OpUpdate: http.MethodPut,
	offline.OpDelete: http.MethodDelete,
}

// Replay sends a queued operation. The operation ID goes out as the
// Idempotency-Key header so the backend can drop duplicates.
func (b *backendImpl) Replay(ctx context.Context, op *offline.Operation) (err error) {
	method, ok := methods[op.Type]
	if !ok {
		return code.ValidationErr.WithMsgf("unknown operation type %q", op.Type)
	}
	ctx, span := startSpan(ctx, method, op.Endpoint)
	span.SetAttributes(attribute.String("crowelm.operation.id", op.ID.String()))
	var res *resty.Response
	defer func() { endSpan(span, res, err) }()

	req, err := b.request(repo.WithIdempotencyKey(ctx, op.ID.String()))
	if err != nil {
		return err
	}
	if len(op.Payload) > 0 && op.Type != offline.OpDelete {
		req.SetBody([]byte(op.Payload))
	}
	res, err = req.Execute(method, op.Endpoint)
	if err != nil {
		return code.NetworkErr.WithMsgf("replay %s %s", method, op.Endpoint).WithErr(err)
	}
	return statusErr(method, op.Endpoint, res)
}

func (b *backendImpl) Health(ctx context.Context) error {
	return b.call(ctx, http.MethodGet, "/health", nil, nil)
}

func (b *backendImpl) Login(ctx context.Context, req *repo.LoginReq) (*repo.TokenResp, error) {
	ret := &repo.TokenResp{}
	if err := b.call(ctx, http.MethodPost, "/auth/login", req, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (b *backendImpl) Logout(ctx context.Context) error {
	return b.call(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (b *backendImpl) Refresh(ctx context.Context, refreshToken string) (*repo.TokenResp, error) {
	ret := &repo.TokenResp{}
	body := map[string]string{"refresh_token": refreshToken}
	if err := b.call(ctx, http.MethodPost, "/auth/refresh", body, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (b *backendImpl) Profile(ctx context.Context) (json.RawMessage, error) {
	return b.raw(ctx, http.MethodGet, "/auth/profile", nil)
}

func (b *backendImpl) Target(ctx context.Context, targetID string) (*repo.Target, error) {
	ret := &repo.Target{}
	if err := b.call(ctx, http.MethodGet, "/target/"+url.PathEscape(targetID), nil, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (b *backendImpl) GenerateMolecules(ctx context.Context, req *repo.GenerateReq) (*repo.GenerateResp, error) {
	ret := &repo.GenerateResp{}
	if err := b.call(ctx, http.MethodPost, "/molecules/generate", req, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (b *backendImpl) Properties(ctx context.Context, req *repo.PropertiesReq) (json.RawMessage, error) {
	return b.raw(ctx, http.MethodPost, "/molecules/properties", req)
}

func (b *backendImpl) PredictStructure(ctx context.Context, req *repo.StructureReq) (*repo.StructureResp, error) {
	ret := &repo.StructureResp{}
	if err := b.call(ctx, http.MethodPost, "/structure/predict", req, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (b *backendImpl) RunPipeline(ctx context.Context, req *repo.PipelineReq) (json.RawMessage, error) {
	return b.raw(ctx, http.MethodPost, "/pipeline/run", req)
}

func (b *backendImpl) PipelineStatus(ctx context.Context, jobID string) (json.RawMessage, error) {
	return b.raw(ctx, http.MethodGet, fmt.Sprintf("/pipeline/%s/status", url.PathEscape(jobID)), nil)
}

func (b *backendImpl) PipelineResults(ctx context.Context, jobID string) (json.RawMessage, error) {
	return b.raw(ctx, http.MethodGet, fmt.Sprintf("/pipeline/%s/results", url.PathEscape(jobID)), nil)
}

func (b *backendImpl) RecentActivity(ctx context.Context) (json.RawMessage, error) {
	return b.raw(ctx, http.MethodGet, "/activity/recent", nil)
}

func (b *backendImpl) Chat(ctx context.Context, req *repo.ChatReq) (*repo.ChatResp, error) {
	ret := &repo.ChatResp{}
	if err := b.call(ctx, http.MethodPost, "/chat", req, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (b *backendImpl) raw(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	ret := json.RawMessage{}
	if err := b.call(ctx, method, path, body, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}
