package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "estatehub-api"
	tokenAudience = "estatehub-client"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the session token payload.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// Session is an issued token.
type Session struct {
	Token     string    `json:"token"`
	ID        string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer for secret with sessions lasting ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a session token for id.
func (t *TokenIssuer) Issue(id Identity) (Session, error) {
	if len(t.secret) == 0 {
		return Session{}, fmt.Errorf("JWT secret not configured")
	}
	now := t.now()
	exp := now.Add(t.ttl)
	jti := uuid.NewString()

	claims := Claims{
		Name:  id.Name,
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id.ID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: signed, ID: jti, ExpiresAt: exp}, nil
}

// Parse verifies token and returns the identity and expiry it carries.
func (t *TokenIssuer) Parse(token string) (Identity, time.Time, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, time.Time{}, ErrInvalidToken
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || !claims.Role.Valid() || claims.ID == "" {
		return Identity{}, time.Time{}, ErrInvalidToken
	}

	return Identity{
		ID:        uint(uid),
		Name:      claims.Name,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.ID,
	}, claims.ExpiresAt.Time, nil
}
