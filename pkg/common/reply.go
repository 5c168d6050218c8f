package common

import (
	"net/http"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/gin-gonic/gin"
)

type Error struct {
	Msg  string   `json:"msg"`
	Info []string `json:"info,omitempty"`
}

type RespT[T any] struct {
	Code  int    `json:"code"`
	Error *Error `json:"error,omitempty"`
	Data  T      `json:"data,omitempty"`
}

type Resp = RespT[any]

func ReplyOk(ctx *gin.Context, data ...any) {
	resp := &Resp{Code: code.Success}
	if len(data) > 0 {
		resp.Data = data[0]
	}
	ctx.JSON(http.StatusOK, resp)
}

func ReplyErr(ctx *gin.Context, err error, info ...string) {
	c := code.As(err)
	ctx.JSON(c.HTTPStatus(), &Resp{
		Code: c.Code,
		Error: &Error{
			Msg:  err.Error(),
			Info: info,
		},
	})
}

// Reply picks ReplyErr or ReplyOk based on err.
func Reply(ctx *gin.Context, err error, data ...any) {
	if err != nil {
		ReplyErr(ctx, err)
		return
	}
	ReplyOk(ctx, data...)
}
