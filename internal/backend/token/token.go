package token

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrNoToken is returned when no source can produce a bearer token.
// The triggering action fails; nothing is retried.
var ErrNoToken = errors.New("no authentication token available")

// Source yields a bearer token for an outbound backend call.
type Source interface {
	Token(ctx context.Context) (string, error)
}

type ctxKey struct{}

// WithCallerToken stores a caller-supplied bearer token on the context.
func WithCallerToken(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, ctxKey{}, tok)
}

// CallerToken returns the bearer token stored by WithCallerToken, if any.
func CallerToken(ctx context.Context) string {
	tok, _ := ctx.Value(ctxKey{}).(string)
	return tok
}

// ContextSource forwards the caller's own bearer token.
type ContextSource struct{}

func (ContextSource) Token(ctx context.Context) (string, error) {
	if tok := CallerToken(ctx); tok != "" {
		return tok, nil
	}
	return "", ErrNoToken
}

// StaticSource returns a fixed token from configuration.
type StaticSource string

func (s StaticSource) Token(ctx context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// OAuthSource obtains tokens via the OAuth2 client-credentials flow.
// The underlying token source caches and refreshes automatically.
type OAuthSource struct {
	src oauth2.TokenSource
}

// NewOAuthSource constructs an OAuthSource against the given token endpoint.
func NewOAuthSource(tokenURL, clientID, clientSecret string, scopes []string) (*OAuthSource, error) {
	if strings.TrimSpace(tokenURL) == "" || strings.TrimSpace(clientID) == "" {
		return nil, errors.New("token url and client id are required")
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	return &OAuthSource{src: cfg.TokenSource(context.Background())}, nil
}

func (o *OAuthSource) Token(ctx context.Context) (string, error) {
	tok, err := o.src.Token()
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", ErrNoToken
	}
	return tok.AccessToken, nil
}

// Chain tries each source in order and returns the first token found.
// Sources that fail for reasons other than ErrNoToken abort the chain.
type Chain []Source

func (c Chain) Token(ctx context.Context) (string, error) {
	for _, s := range c {
		tok, err := s.Token(ctx)
		if err == nil {
			return tok, nil
		}
		if !errors.Is(err, ErrNoToken) {
			return "", err
		}
	}
	return "", ErrNoToken
}
