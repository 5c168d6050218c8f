package credential

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/crowelm/crowelm/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

type credentialImpl struct {
	store repo.KVStore
	now   func() time.Time
}

func New(store repo.KVStore) repo.Credential {
	return &credentialImpl{store: store, now: time.Now}
}

// FromResp converts a backend token response. The JWT exp claim wins over
// expires_in when the access token carries one.
func FromResp(resp *repo.TokenResp, now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if resp.ExpiresIn > 0 {
		tok.Expiry = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	if exp, ok := Expiry(resp.AccessToken); ok {
		tok.Expiry = exp
	}
	return tok
}

// Expiry reads the exp claim without verifying the signature.
func Expiry(accessToken string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (c *credentialImpl) Save(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return code.InvalidToken.WithMsg("empty access token")
	}
	if tok.Expiry.IsZero() {
		if exp, ok := Expiry(tok.AccessToken); ok {
			tok.Expiry = exp
		}
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		return code.StorageErr.WithErr(err)
	}
	return c.store.Set(ctx, utils.CredentialKey, raw)
}

func (c *credentialImpl) Load(ctx context.Context) (*oauth2.Token, error) {
	raw, err := c.store.Get(ctx, utils.CredentialKey)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(raw, tok); err != nil {
		return nil, code.StorageErr.WithMsg("decode credential").WithErr(err)
	}
	return tok, nil
}

func (c *credentialImpl) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, utils.CredentialKey)
}

func (c *credentialImpl) AccessToken(ctx context.Context) (string, error) {
	tok, err := c.Load(ctx)
	if errors.Is(err, code.NotFoundErr) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !tok.Expiry.IsZero() && !tok.Expiry.After(c.now()) {
		return "", code.TokenExpired
	}
	return tok.AccessToken, nil
}
