package auth

import (
	"errors"

	"github.com/crowelm/crowelm/pkg/common"
	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/gin-gonic/gin"
)

// AuthWeb requires a stored, unexpired backend credential. The gateway
// signs in once for the device; callers do not send their own tokens.
func AuthWeb(cred repo.Credential) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := cred.AccessToken(ctx)
		if err != nil {
			if !errors.Is(err, code.TokenExpired) {
				logger.Errorf(ctx, "AuthWeb load credential err: %+v", err)
			}
			common.ReplyErr(ctx, err)
			ctx.Abort()
			return
		}
		if token == "" {
			common.ReplyErr(ctx, code.UnLogin)
			ctx.Abort()
			return
		}
		ctx.Set(TOKENKEY, token)
		ctx.Next()
	}
}
