package auth

import "github.com/gin-gonic/gin"

type AuthType string

const (
	AuthTypeBearer AuthType = "Bearer"

	// TOKENKEY holds the backend bearer on the gin context after AuthWeb.
	TOKENKEY = "AUTH_TOKEN_KEY"
)

func GetToken(ctx *gin.Context) string {
	return ctx.GetString(TOKENKEY)
}
