// Package auth verifies and issues the relay's HMAC-signed identity tokens.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrEmptyKey     = errors.New("signing key is empty")
)

var validMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// ExternalID is the uid claim. Identity providers send it either as a
// string or as a number; both decode to the same textual form.
type ExternalID string

func (e *ExternalID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*e = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = ExternalID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("uid must be a string or a number: %w", err)
	}
	*e = ExternalID(n.String())
	return nil
}

// Claims carried by a relay token. The jti is used for revocation.
type Claims struct {
	UID        ExternalID `json:"uid,omitempty"`
	Username   string     `json:"username"`
	ProfileURL string     `json:"profileUrl,omitempty"`
	AvatarURL  string     `json:"avatarUrl,omitempty"`
	Icon       string     `json:"utfIcon,omitempty"`
	jwt.RegisteredClaims
}

// Identity maps the claims as signed. uid falls back to sub.
func (c *Claims) Identity() domain.Identity {
	uid := string(c.UID)
	if uid == "" {
		uid = c.Subject
	}
	return domain.Identity{
		ExternalID: uid,
		Username:   c.Username,
		ProfileURL: c.ProfileURL,
		AvatarURL:  c.AvatarURL,
		Icon:       c.Icon,
	}
}

// JWTVerifier implements core.TokenVerifier for HMAC tokens.
type JWTVerifier struct {
	key     []byte
	revoked RevocationList
	parser  *jwt.Parser
}

// NewJWTVerifier builds a verifier. revoked may be nil.
func NewJWTVerifier(key string, revoked RevocationList) (*JWTVerifier, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &JWTVerifier{
		key:     []byte(key),
		revoked: revoked,
		parser:  jwt.NewParser(jwt.WithValidMethods(validMethods), jwt.WithLeeway(5*time.Second)),
	}, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (domain.Identity, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	if v.revoked != nil && claims.ID != "" {
		revoked, err := v.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			// fail open: a revocation store outage must not lock everyone out
			log.Error().Err(err).Str("module", "auth").Str("jti", claims.ID).Msg("revocation check failed")
		}
		if revoked {
			return domain.Identity{}, ErrTokenRevoked
		}
	}

	return claims.Identity(), nil
}

// Issuer mints tokens the JWTVerifier accepts.
type Issuer struct {
	key    []byte
	method jwt.SigningMethod
	now    func() time.Time
}

func NewIssuer(key string) (*Issuer, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &Issuer{
		key:    []byte(key),
		method: jwt.SigningMethodHS256,
		now:    time.Now,
	}, nil
}

// Sign returns a signed token for id. A zero ttl yields a token without exp.
func (i *Issuer) Sign(id domain.Identity, ttl time.Duration) (string, string, error) {
	now := i.now()
	jti := uuid.NewString()
	claims := Claims{
		UID:        ExternalID(id.ExternalID),
		Username:   id.Username,
		ProfileURL: id.ProfileURL,
		AvatarURL:  id.AvatarURL,
		Icon:       id.Icon,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       jti,
			Subject:  id.ExternalID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.key)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return signed, jti, nil
}
