package stream

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/crowelm/crowelm/pkg/common/uuid"
	"github.com/crowelm/crowelm/pkg/core/molecule"
	"github.com/crowelm/crowelm/pkg/core/molecule/viewer"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/olahol/melody"
)

const (
	MaxMessageSize = 4 << 20

	defaultFPS   = 30
	maxFPS       = 60
	defaultSpeed = 0.5
)

type Action string

const (
	ActionOrbit Action = "orbit"
	ActionStop  Action = "stop"
	ActionScene Action = "scene"
	ActionFrame Action = "frame"
	ActionError Action = "error"
)

type ClientMsg struct {
	Action Action          `json:"action"`
	PDB    string          `json:"pdb,omitempty"`
	Atoms  []molecule.Atom `json:"atoms,omitempty"`
	Bonds  []molecule.Bond `json:"bonds,omitempty"`
	Mode   string          `json:"mode,omitempty"`
	FPS    int             `json:"fps,omitempty"`
	Speed  float64         `json:"speed,omitempty"`
}

type ServerMsg struct {
	Action Action `json:"action"`
	Data   any    `json:"data,omitempty"`
}

type FrameData struct {
	Frame     uint64          `json:"frame"`
	Angle     float64         `json:"angle"`
	Positions []molecule.Vec3 `json:"positions"`
}

// Handle serves one websocket per client. Sessions receive published
// notifications, and may ask for a server-driven orbit of a structure.
type Handle struct {
	wsClient *melody.Melody
	engine   *molecule.Engine
	loops    *haxmap.Map[string, *viewer.Loop]
}

func NewStreamHandle(engine *molecule.Engine) *Handle {
	wsClient := melody.New()
	wsClient.Config.MaxMessageSize = MaxMessageSize

	h := &Handle{
		wsClient: wsClient,
		engine:   engine,
		loops:    haxmap.New[string, *viewer.Loop](),
	}
	h.initWebSocket()
	return h
}

// Publish forwards a notification to every connected session.
func (h *Handle) Publish(_ context.Context, msg string) error {
	return h.wsClient.Broadcast([]byte(msg))
}

func (h *Handle) Stream(ctx *gin.Context) {
	if err := h.wsClient.HandleRequestWithKeys(ctx.Writer, ctx.Request, map[string]any{
		"ctx":        ctx.Request.Context(),
		"session_id": uuid.NewV4().String(),
	}); err != nil {
		logger.Errorf(ctx, "Stream HandleRequestWithKeys err: %+v", err)
	}
}

// Close stops every orbit and closes all sessions.
func (h *Handle) Close() error {
	h.loops.ForEach(func(_ string, l *viewer.Loop) bool {
		l.Stop()
		return true
	})
	return h.wsClient.Close()
}

func sessionCtx(s *melody.Session) context.Context {
	if v, ok := s.Get("ctx"); ok {
		if ctx, ok := v.(context.Context); ok {
			return ctx
		}
	}
	return context.Background()
}

func sessionID(s *melody.Session) string {
	return s.MustGet("session_id").(string)
}

func (h *Handle) initWebSocket() {
	h.wsClient.HandleDisconnect(func(s *melody.Session) {
		h.stopOrbit(s)
		logger.Infof(sessionCtx(s), "stream ws client disconnected keys: %+v", s.Keys)
	})

	h.wsClient.HandleError(func(s *melody.Session, err error) {
		if errors.Is(err, melody.ErrMessageBufferFull) {
			return
		}
		if closeErr, ok := err.(*websocket.CloseError); ok && closeErr.Code == websocket.CloseGoingAway {
			return
		}
		logger.Errorf(sessionCtx(s), "stream ws error keys: %+v, err: %+v", s.Keys, err)
	})

	h.wsClient.HandleConnect(func(s *melody.Session) {
		logger.Infof(sessionCtx(s), "stream ws connect keys: %+v", s.Keys)
	})

	h.wsClient.HandleMessage(func(s *melody.Session, b []byte) {
		ctx := sessionCtx(s)
		msg := &ClientMsg{}
		if err := json.Unmarshal(b, msg); err != nil {
			h.send(s, ActionError, gin.H{"msg": "invalid message"})
			return
		}
		switch msg.Action {
		case ActionOrbit:
			if err := h.startOrbit(ctx, s, msg); err != nil {
				h.send(s, ActionError, gin.H{"msg": err.Error()})
			}
		case ActionStop:
			h.stopOrbit(s)
		default:
			h.send(s, ActionError, gin.H{"msg": "unknown action " + string(msg.Action)})
		}
	})
}

func (h *Handle) send(s *melody.Session, action Action, data any) {
	b, err := json.Marshal(&ServerMsg{Action: action, Data: data})
	if err != nil {
		logger.Errorf(sessionCtx(s), "stream marshal %s err: %+v", action, err)
		return
	}
	if s.IsClosed() {
		return
	}
	if err := s.Write(b); err != nil && !errors.Is(err, melody.ErrSessionClosed) {
		logger.Warnf(sessionCtx(s), "stream write %s err: %+v", action, err)
	}
}

// startOrbit replaces the session's current orbit, if any.
func (h *Handle) startOrbit(ctx context.Context, s *melody.Session, msg *ClientMsg) error {
	var (
		g   *molecule.Graph
		err error
	)
	switch {
	case msg.PDB != "":
		g, err = h.engine.Parse(msg.PDB)
	case len(msg.Atoms) > 0:
		g, err = h.engine.Graph(msg.Atoms, msg.Bonds)
	default:
		return errors.New("pdb or atoms is required")
	}
	if err != nil {
		return err
	}

	mode, ok := molecule.ParseMode(msg.Mode)
	if !ok {
		return errors.New("unknown display mode " + msg.Mode)
	}
	if msg.Mode == "" {
		mode = h.engine.Mode
	}
	fps := min(max(msg.FPS, 0), maxFPS)
	if fps == 0 {
		fps = defaultFPS
	}
	speed := msg.Speed
	if speed == 0 {
		speed = defaultSpeed
	}

	h.stopOrbit(s)
	h.send(s, ActionScene, h.engine.Scene(g, mode))

	orbit := viewer.NewOrbit(g.Atoms, speed)
	loop := viewer.Start(ctx, fps, func(_ context.Context, frame uint64, dt time.Duration) {
		angle, positions := orbit.Step(dt)
		h.send(s, ActionFrame, &FrameData{Frame: frame, Angle: angle, Positions: positions})
	})
	h.loops.Set(sessionID(s), loop)
	return nil
}

func (h *Handle) stopOrbit(s *melody.Session) {
	id := sessionID(s)
	if loop, ok := h.loops.Get(id); ok {
		h.loops.Del(id)
		loop.Stop()
	}
}
