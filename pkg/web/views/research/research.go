package research

import (
	"encoding/json"
	"net/http"

	"github.com/crowelm/crowelm/pkg/common"
	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/core/research"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/gin-gonic/gin"
)

type Handle struct {
	rService research.Service
}

func NewResearchHandle(rService research.Service) *Handle {
	return &Handle{rService: rService}
}

type CacheKeyReq struct {
	Key string `json:"key" form:"key" binding:"required"`
}

// Login godoc
// @Summary	Sign in against the research backend
// @Tags		auth
// @Accept		json
// @Produce	json
// @Param		req	body		research.LoginReq	true	"credentials"
// @Success	200	{object}	research.LoginResp
// @Router		/v1/auth/login [post]
func (h *Handle) Login(ctx *gin.Context) {
	req := &research.LoginReq{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		logger.Errorf(ctx, "parse Login param err: %+v", err.Error())
		common.ReplyErr(ctx, code.ParamErr, err.Error())
		return
	}
	resp, err := h.rService.Login(ctx, req)
	common.Reply(ctx, err, resp)
}

func (h *Handle) Logout(ctx *gin.Context) {
	common.Reply(ctx, h.rService.Logout(ctx))
}

func (h *Handle) Refresh(ctx *gin.Context) {
	resp, err := h.rService.RefreshToken(ctx)
	common.Reply(ctx, err, resp)
}

func (h *Handle) Profile(ctx *gin.Context) {
	common.ReplyOk(ctx, research.NewStateResp(h.rService.Profile(ctx)))
}

// RecentActivity godoc
// @Summary	Recent activity, served stale while revalidating
// @Tags		research
// @Produce	json
// @Success	200	{object}	research.StateResp[json.RawMessage]
// @Router		/v1/activity [get]
func (h *Handle) RecentActivity(ctx *gin.Context) {
	common.ReplyOk(ctx, research.NewStateResp(h.rService.RecentActivity(ctx)))
}

// Target godoc
// @Summary	Target details, cached per target
// @Tags		research
// @Produce	json
// @Param		target_id	path		string	true	"target id"
// @Success	200			{object}	research.StateResp[repo.Target]
// @Router		/v1/target/{target_id} [get]
func (h *Handle) Target(ctx *gin.Context) {
	common.ReplyOk(ctx, research.NewStateResp(h.rService.Target(ctx, ctx.Param("target_id"))))
}

func (h *Handle) RefreshCache(ctx *gin.Context) {
	req := &CacheKeyReq{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		common.ReplyErr(ctx, code.ParamErr, err.Error())
		return
	}
	resp, err := h.rService.Refresh(ctx, req.Key)
	common.Reply(ctx, err, resp)
}

func (h *Handle) ClearCache(ctx *gin.Context) {
	req := &CacheKeyReq{}
	if err := ctx.ShouldBindQuery(req); err != nil {
		common.ReplyErr(ctx, code.ParamErr, err.Error())
		return
	}
	common.Reply(ctx, h.rService.Clear(ctx, req.Key))
}

// GenerateMolecules godoc
// @Summary	Generate molecules, queued for replay while offline
// @Description	Answers 202 when the request was queued for sync.
// @Tags		research
// @Accept		json
// @Produce	json
// @Param		req	body		research.GenerateReq	true	"generation request"
// @Success	200	{object}	research.GenerateResp
// @Success	202	{object}	research.GenerateResp
// @Router		/v1/molecules/generate [post]
func (h *Handle) GenerateMolecules(ctx *gin.Context) {
	req := &research.GenerateReq{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		logger.Errorf(ctx, "parse GenerateMolecules param err: %+v", err.Error())
		common.ReplyErr(ctx, code.ParamErr, err.Error())
		return
	}
	resp, err := h.rService.GenerateMolecules(ctx, req)
	if err != nil {
		common.ReplyErr(ctx, err)
		return
	}
	if resp.Queued {
		ctx.JSON(http.StatusAccepted, &common.Resp{Code: code.QueuedErr.Code, Data: resp})
		return
	}
	common.ReplyOk(ctx, resp)
}

func (h *Handle) Properties(ctx *gin.Context) {
	req := &repo.PropertiesReq{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		common.ReplyErr(ctx, code.ParamErr, err.Error())
		return
	}
	resp, err := h.rService.Properties(ctx, req)
	common.Reply(ctx, err, raw(resp))
}

func (h *Handle) PredictStructure(ctx *gin.Context) {
	req := &research.StructureReq{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		common.ReplyErr(ctx, code.ParamErr, err.Error())
		return
	}
	resp, err := h.rService.PredictStructure(ctx, req)
	common.Reply(ctx, err, resp)
}

func (h *Handle) RunPipeline(ctx *gin.Context) {
	req := &repo.PipelineReq{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		common.ReplyErr(ctx, code.ParamErr, err.Error())
		return
	}
	resp, err := h.rService.RunPipeline(ctx, req)
	common.Reply(ctx, err, raw(resp))
}

func (h *Handle) PipelineStatus(ctx *gin.Context) {
	resp, err := h.rService.PipelineStatus(ctx, ctx.Param("job_id"))
	common.Reply(ctx, err, raw(resp))
}

func (h *Handle) PipelineResults(ctx *gin.Context) {
	resp, err := h.rService.PipelineResults(ctx, ctx.Param("job_id"))
	common.Reply(ctx, err, raw(resp))
}

func (h *Handle) Chat(ctx *gin.Context) {
	req := &repo.ChatReq{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		common.ReplyErr(ctx, code.ParamErr, err.Error())
		return
	}
	resp, err := h.rService.Chat(ctx, req)
	common.Reply(ctx, err, resp)
}

// SyncStatus godoc
// @Summary	Connectivity and pending operations
// @Tags		sync
// @Produce	json
// @Success	200	{object}	research.SyncStatus
// @Router		/v1/sync [get]
func (h *Handle) SyncStatus(ctx *gin.Context) {
	resp, err := h.rService.SyncStatus(ctx)
	common.Reply(ctx, err, resp)
}

// Sync godoc
// @Summary	Replay pending operations now
// @Tags		sync
// @Produce	json
// @Success	200	{object}	offline.SyncResult
// @Failure	409
// @Router		/v1/sync [post]
func (h *Handle) Sync(ctx *gin.Context) {
	resp, err := h.rService.Sync(ctx)
	common.Reply(ctx, err, resp)
}

// raw keeps a nil payload from being encoded as an empty byte string.
func raw(m json.RawMessage) any {
	if m == nil {
		return nil
	}
	return m
}
