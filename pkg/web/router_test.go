package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crowelm/crowelm/pkg/common"
	"github.com/crowelm/crowelm/pkg/core/molecule"
	"github.com/crowelm/crowelm/pkg/core/notify"
	"github.com/crowelm/crowelm/pkg/core/notify/local"
	"github.com/crowelm/crowelm/pkg/core/offline/queue"
	"github.com/crowelm/crowelm/pkg/core/offline/syncer"
	researchImpl "github.com/crowelm/crowelm/pkg/core/research/research"
	"github.com/crowelm/crowelm/pkg/repo/backend"
	"github.com/crowelm/crowelm/pkg/repo/credential"
	"github.com/crowelm/crowelm/pkg/repo/kvstore"
	"github.com/crowelm/crowelm/pkg/web/views/health"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var carbonDioxidePDB = strings.Join([]string{
	"HETATM    1 O1   CO2 A   1       8.840   0.000   0.000  1.00  0.00           O",
	"HETATM    2 C    CO2 A   1      10.000   0.000   0.000  1.00  0.00           C",
	"HETATM    3 O2   CO2 A   1      11.160   0.000   0.000  1.00  0.00           O",
}, "\n")

type gateway struct {
	engine *gin.Engine
	down   *atomic.Bool
	center notify.MsgCenter
}

func newGateway(t *testing.T, checks map[string]health.Check) *gateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	down := &atomic.Bool{}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
		case "/activity/recent":
			_, _ = w.Write([]byte(`[{"id":1}]`))
		case "/molecules/generate":
			_, _ = w.Write([]byte(`{"molecules":[{"smiles":"CCO"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(api.Close)

	store := kvstore.NewMemory()
	cred := credential.New(store)
	b := backend.New(&backend.Config{Addr: api.URL, Timeout: time.Second}, cred.AccessToken)
	engine, err := molecule.NewEngine(&molecule.EngineConfig{})
	require.NoError(t, err)
	center := local.New()

	svc := researchImpl.New(&researchImpl.Deps{
		Backend:    b,
		Credential: cred,
		Store:      store,
		Syncer:     syncer.New(queue.New(store, b)),
		Center:     center,
		Engine:     engine,
	})

	g := gin.New()
	feeds := NewRouter(context.Background(), g, &Deps{
		Research:   svc,
		Engine:     engine,
		Credential: cred,
		Center:     center,
		Checks:     checks,
	})
	t.Cleanup(func() { _ = feeds.Close() })
	return &gateway{engine: g, down: down, center: center}
}

func (gw *gateway) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, *common.Resp) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	gw.engine.ServeHTTP(w, req)

	resp := &common.Resp{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), resp))
	}
	return w, resp
}

func dataMap(t *testing.T, resp *common.Resp) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func TestHealth(t *testing.T) {
	gw := newGateway(t, map[string]health.Check{
		"store": func(context.Context) error { return nil },
	})
	w, _ := gw.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = gw.do(t, http.MethodGet, "/api/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	gw = newGateway(t, map[string]health.Check{
		"redis": func(context.Context) error { return errors.New("down") },
	})
	w, _ = gw.do(t, http.MethodGet, "/api/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"unhealthy"`)
}

func TestResearchRoutesNeedLogin(t *testing.T) {
	gw := newGateway(t, nil)

	w, _ := gw.do(t, http.MethodGet, "/api/v1/activity", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = gw.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.c", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := gw.do(t, http.MethodGet, "/api/v1/activity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := dataMap(t, resp)
	assert.Equal(t, "fresh", state["status"])
	assert.Equal(t, false, state["stale"])
	assert.NotNil(t, state["data"])
}

func TestLoginValidation(t *testing.T) {
	gw := newGateway(t, nil)
	w, resp := gw.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.c"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
}

func TestGenerateQueuedWhenBackendDown(t *testing.T) {
	gw := newGateway(t, nil)
	w, _ := gw.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.c", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)

	gw.down.Store(true)
	w, resp := gw.do(t, http.MethodPost, "/api/v1/molecules/generate", map[string]int{"num_molecules": 3})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, true, dataMap(t, resp)["queued"])

	w, resp = gw.do(t, http.MethodGet, "/api/v1/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending, ok := dataMap(t, resp)["pending"].([]any)
	require.True(t, ok)
	assert.Len(t, pending, 1)

	gw.down.Store(false)
	w, resp = gw.do(t, http.MethodPost, "/api/v1/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, dataMap(t, resp)["synced"])
}

func TestMoleculeRoutes(t *testing.T) {
	gw := newGateway(t, nil)

	w, resp := gw.do(t, http.MethodPost, "/api/v1/molecule/parse", map[string]string{"pdb": carbonDioxidePDB})
	require.Equal(t, http.StatusOK, w.Code)
	parsed := dataMap(t, resp)
	assert.Equal(t, "CO2", parsed["formula"])
	graph := parsed["graph"].(map[string]any)
	assert.Len(t, graph["bonds"], 2)

	w, resp = gw.do(t, http.MethodPost, "/api/v1/molecule/scene", map[string]any{
		"atoms": []map[string]any{
			{"element": "C", "position": map[string]float64{"x": 0}},
			{"element": "O", "position": map[string]float64{"x": 1.2}},
		},
		"mode": "space-fill",
	})
	require.Equal(t, http.StatusOK, w.Code)
	scene := dataMap(t, resp)
	assert.Equal(t, "space-fill", scene["mode"])
	assert.Len(t, scene["spheres"], 2)
	assert.Len(t, scene["cylinders"], 1)

	w, _ = gw.do(t, http.MethodPost, "/api/v1/molecule/scene", map[string]string{"pdb": carbonDioxidePDB, "mode": "cartoon"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = gw.do(t, http.MethodPost, "/api/v1/molecule/parse", map[string]string{"pdb": "ATOM      1  C   ALA A   1      xx.xxx   0.000   0.000  1.00  0.00           C"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = gw.do(t, http.MethodPost, "/api/v1/molecule/parse", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = gw.do(t, http.MethodPost, "/api/v1/molecule/frames", map[string]any{"pdb": carbonDioxidePDB, "frames": 4})
	require.Equal(t, http.StatusOK, w.Code)
	frames := dataMap(t, resp)["frames"].([]any)
	assert.Len(t, frames, 4)
}

func TestStreamOrbitAndNotify(t *testing.T) {
	gw := newGateway(t, nil)
	srv := httptest.NewServer(gw.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() map[string]any {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, b, err := conn.ReadMessage()
		require.NoError(t, err)
		m := map[string]any{}
		require.NoError(t, json.Unmarshal(b, &m))
		return m
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "orbit", "pdb": carbonDioxidePDB, "fps": 60}))
	assert.Equal(t, "scene", read()["action"])
	frame := read()
	assert.Equal(t, "frame", frame["action"])
	positions := frame["data"].(map[string]any)["positions"].([]any)
	assert.Len(t, positions, 3)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "stop"}))
	require.NoError(t, gw.center.Broadcast(context.Background(), &notify.SendMsg{
		Channel: notify.CacheUpdate,
		Key:     "activity:recent",
		Status:  "fresh",
	}))
	for {
		msg := read()
		if msg["action"] == "frame" {
			continue
		}
		assert.Equal(t, string(notify.CacheUpdate), msg["action"])
		assert.Equal(t, "activity:recent", msg["key"])
		break
	}
}

func TestEventsFeed(t *testing.T) {
	gw := newGateway(t, nil)
	srv := httptest.NewServer(gw.engine)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	waitEvent := func(name string) {
		timeout := time.After(3 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed before event %s", name)
				if strings.HasPrefix(line, "event:") && strings.TrimSpace(strings.TrimPrefix(line, "event:")) == name {
					return
				}
			case <-timeout:
				t.Fatalf("no %s event", name)
			}
		}
	}

	waitEvent("ready")
	require.NoError(t, gw.center.Broadcast(context.Background(), &notify.SendMsg{
		Channel: notify.SyncDone,
		Data:    map[string]int{"synced": 1},
	}))
	waitEvent(string(notify.SyncDone))
}
