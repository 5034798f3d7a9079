package common

// DefaultSessionCookieName is the cookie that carries the session token for
// browser clients.
const DefaultSessionCookieName = "sensum_token"

// AuthorizationHeaderName and BearerPrefix describe the header fallback used
// by clients that cannot send the session cookie.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
)

// MaxMomentTextLength bounds the free-text note attached to a quest completion.
const MaxMomentTextLength = 200
