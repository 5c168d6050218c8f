package repo

import (
	"context"

	"golang.org/x/oauth2"
)

// Credential keeps the signed-in user's token pair.
type Credential interface {
	Save(ctx context.Context, tok *oauth2.Token) error
	// Load returns code.NotFoundErr when nobody is signed in.
	Load(ctx context.Context) (*oauth2.Token, error)
	Clear(ctx context.Context) error
	// AccessToken returns the bearer for outgoing requests, or "" when
	// signed out. An expired token is code.TokenExpired.
	AccessToken(ctx context.Context) (string, error)
}
