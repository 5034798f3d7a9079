package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/gin-gonic/gin"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Verifier verifies a raw token. *Codec satisfies it.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// Gate resolves the caller's identity from the session cookie or a Bearer
// header. It never rejects a request: a missing or bad token just leaves the
// request anonymous, and handlers decide whether that is acceptable.
type Gate struct {
	verifier   Verifier
	cookieName string
}

func NewGate(verifier Verifier, cookieName string) *Gate {
	if cookieName == "" {
		cookieName = common.DefaultSessionCookieName
	}
	return &Gate{verifier: verifier, cookieName: cookieName}
}

// Identify returns the verified identity for r, or false when the request
// carries no usable token. A non-blank cookie wins over the header.
func (g *Gate) Identify(r *http.Request) (Identity, bool) {
	token := g.extract(r)
	if token == "" {
		return Identity{}, false
	}

	id, err := g.verifier.Verify(token)
	if err != nil {
		return Identity{}, false
	}
	return id, true
}

func (g *Gate) extract(r *http.Request) string {
	if c, err := r.Cookie(g.cookieName); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}

	header := r.Header.Get(common.AuthorizationHeaderName)
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
}

// Middleware attaches the identity, if any, to the request context and
// always continues the chain.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := g.Identify(c.Request); ok {
			c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		}
		c.Next()
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext reports the caller attached by the gate.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
