package molecule

import (
	"time"

	"github.com/crowelm/crowelm/pkg/common"
	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/core/molecule"
	"github.com/crowelm/crowelm/pkg/core/molecule/viewer"
	"github.com/gin-gonic/gin"
)

const (
	defaultFrames = 60
	maxFrames     = 600
	defaultFPS    = 30
	defaultSpeed  = 0.5
)

type Handle struct {
	engine *molecule.Engine
}

func NewMoleculeHandle(engine *molecule.Engine) *Handle {
	return &Handle{engine: engine}
}

// StructureReq carries either PDB text or explicit atoms. Omitting bonds
// infers them; an empty list means no bonds.
type StructureReq struct {
	PDB   string          `json:"pdb"`
	Atoms []molecule.Atom `json:"atoms"`
	Bonds []molecule.Bond `json:"bonds"`
	Mode  string          `json:"mode"`
}

type ParseResp struct {
	Graph       *molecule.Graph `json:"graph"`
	Formula     string          `json:"formula"`
	Composition map[string]int  `json:"composition"`
	Centroid    molecule.Vec3   `json:"centroid"`
}

type FramesReq struct {
	StructureReq
	Frames int     `json:"frames"`
	FPS    int     `json:"fps"`
	Speed  float64 `json:"speed"`
}

type Frame struct {
	Index     int             `json:"index"`
	Angle     float64         `json:"angle"`
	Positions []molecule.Vec3 `json:"positions"`
}

type FramesResp struct {
	FPS    int             `json:"fps"`
	Scene  *molecule.Scene `json:"scene"`
	Frames []Frame         `json:"frames"`
}

func (h *Handle) graph(req *StructureReq) (*molecule.Graph, error) {
	switch {
	case req.PDB != "":
		return h.engine.Parse(req.PDB)
	case len(req.Atoms) > 0:
		return h.engine.Graph(req.Atoms, req.Bonds)
	default:
		return nil, code.ParamErr.WithMsg("pdb or atoms is required")
	}
}

func mode(s string) (molecule.Mode, error) {
	if s == "" {
		return "", nil
	}
	m, ok := molecule.ParseMode(s)
	if !ok {
		return "", code.ValidationErr.WithMsgf("unknown display mode %q", s)
	}
	return m, nil
}

// Parse godoc
// @Summary	Parse PDB text or atoms into a bonded graph
// @Tags		molecule
// @Accept		json
// @Produce	json
// @Param		req	body		StructureReq	true	"structure"
// @Success	200	{object}	ParseResp
// @Failure	422
// @Router		/v1/molecule/parse [post]
func (h *Handle) Parse(ctx *gin.Context) {
	req := &StructureReq{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		common.ReplyErr(ctx, code.ParamErr, err.Error())
		return
	}
	g, err := h.graph(req)
	if err != nil {
		common.ReplyErr(ctx, err)
		return
	}
	common.ReplyOk(ctx, &ParseResp{
		Graph:       g,
		Formula:     molecule.Formula(g.Atoms),
		Composition: molecule.Composition(g.Atoms),
		Centroid:    molecule.Centroid(g.Atoms),
	})
}

// Scene godoc
// @Summary	Lay out spheres and bond cylinders for a display mode
// @Tags		molecule
// @Accept		json
// @Produce	json
// @Param		req	body		StructureReq	true	"structure"
// @Success	200	{object}	molecule.Scene
// @Router		/v1/molecule/scene [post]
func (h *Handle) Scene(ctx *gin.Context) {
	req := &StructureReq{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		common.ReplyErr(ctx, code.ParamErr, err.Error())
		return
	}
	m, err := mode(req.Mode)
	if err != nil {
		common.ReplyErr(ctx, err)
		return
	}
	g, err := h.graph(req)
	if err != nil {
		common.ReplyErr(ctx, err)
		return
	}
	common.ReplyOk(ctx, h.engine.Scene(g, m))
}

// Frames precomputes an orbit animation for clients that cannot run the
// render loop themselves.
func (h *Handle) Frames(ctx *gin.Context) {
	req := &FramesReq{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		common.ReplyErr(ctx, code.ParamErr, err.Error())
		return
	}
	if req.Frames == 0 {
		req.Frames = defaultFrames
	}
	if req.FPS == 0 {
		req.FPS = defaultFPS
	}
	if req.Speed == 0 {
		req.Speed = defaultSpeed
	}
	if req.Frames < 0 || req.Frames > maxFrames || req.FPS < 0 {
		common.ReplyErr(ctx, code.ValidationErr.WithMsgf("frames must be between 1 and %d", maxFrames))
		return
	}
	m, err := mode(req.Mode)
	if err != nil {
		common.ReplyErr(ctx, err)
		return
	}
	g, err := h.graph(&req.StructureReq)
	if err != nil {
		common.ReplyErr(ctx, err)
		return
	}

	orbit := viewer.NewOrbit(g.Atoms, req.Speed)
	dt := time.Second / time.Duration(req.FPS)
	frames := make([]Frame, 0, req.Frames)
	for i := range req.Frames {
		angle, positions := orbit.Step(dt)
		frames = append(frames, Frame{Index: i, Angle: angle, Positions: positions})
	}
	common.ReplyOk(ctx, &FramesResp{FPS: req.FPS, Scene: h.engine.Scene(g, m), Frames: frames})
}
