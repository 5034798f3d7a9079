// Package auth issues and verifies session tokens and resolves the caller's
// identity for each HTTP request.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// MinKeyLength is the smallest HMAC key accepted by NewCodec (256 bits).
const MinKeyLength = 32

// Claims is the token payload: the user id travels as the subject,
// the email as a private claim.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Identity is the verified caller derived from a token.
type Identity struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

// Codec signs and verifies HS256 session tokens with a fixed secret.
type Codec struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewCodec returns a Codec that issues tokens valid for validity.
func NewCodec(secret []byte, validity time.Duration) (*Codec, error) {
	if len(secret) < MinKeyLength {
		return nil, fmt.Errorf("secret key must be at least %d bytes", MinKeyLength)
	}
	if validity <= 0 {
		return nil, fmt.Errorf("token validity must be positive")
	}
	return &Codec{secret: secret, validity: validity, now: time.Now}, nil
}

// Validity reports how long issued tokens stay valid.
func (c *Codec) Validity() time.Duration {
	return c.validity
}

// Issue signs a token for the given user.
func (c *Codec) Issue(userID int64, email string) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
		},
		Email: email,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature and expiry and returns the embedded identity.
// Every failure matches common.ErrInvalidToken; expired tokens additionally
// match common.ErrTokenExpired.
func (c *Codec) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return Identity{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return Identity{}, common.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad subject", common.ErrInvalidToken)
	}

	return Identity{
		UserID:    userID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
