package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crowelm/crowelm/pkg/repo/credential"
	"github.com/crowelm/crowelm/pkg/repo/kvstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newEngine(t *testing.T) (*gin.Engine, func(tok *oauth2.Token)) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cred := credential.New(kvstore.NewMemory())
	g := gin.New()
	g.GET("/private", AuthWeb(cred), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, GetToken(ctx))
	})
	return g, func(tok *oauth2.Token) {
		require.NoError(t, cred.Save(context.Background(), tok))
	}
}

func get(g *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	return w
}

func TestAuthWeb(t *testing.T) {
	g, save := newEngine(t)

	assert.Equal(t, http.StatusUnauthorized, get(g).Code)

	save(&oauth2.Token{AccessToken: "expired", Expiry: time.Now().Add(-time.Hour)})
	assert.Equal(t, http.StatusUnauthorized, get(g).Code)

	save(&oauth2.Token{AccessToken: "live", Expiry: time.Now().Add(time.Hour)})
	w := get(g)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "live", w.Body.String())
}
