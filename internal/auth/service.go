package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long an issued admin token stays valid.
const DefaultTokenTTL = 24 * time.Hour

const issuer = "grant-agent"

var (
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Authenticator guards the admin endpoints. Callers present either the shared
// admin secret or a short-lived HS256 token issued in exchange for it.
type Authenticator struct {
	adminSecret string
	jwtSecret   []byte
	TTL         time.Duration
	Now         func() time.Time
}

// NewAuthenticator uses the given secrets, generating ephemeral in-memory ones
// for any left empty. An ephemeral admin secret locks the admin API until restart.
func NewAuthenticator(adminSecret, jwtSecret string) (*Authenticator, error) {
	adminSecret = strings.TrimSpace(adminSecret)
	if adminSecret == "" {
		s, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
		}
		adminSecret = s
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	}

	jwtSecret = strings.TrimSpace(jwtSecret)
	if jwtSecret == "" {
		s, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT fallback secret: %w", err)
		}
		jwtSecret = s
		log.Print("JWT_SECRET is not set; using ephemeral in-memory fallback secret")
	}

	return &Authenticator{
		adminSecret: adminSecret,
		jwtSecret:   []byte(jwtSecret),
		TTL:         DefaultTokenTTL,
		Now:         time.Now,
	}, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CheckSecret compares in constant time.
func (a *Authenticator) CheckSecret(candidate string) bool {
	if candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(a.adminSecret)) == 1
}

// IssueToken exchanges the admin secret for a signed token naming subject.
func (a *Authenticator) IssueToken(secret, subject string) (string, time.Time, error) {
	if !a.CheckSecret(secret) {
		return "", time.Time{}, ErrInvalidCreds
	}
	if subject == "" {
		subject = "admin"
	}

	now := a.Now()
	expires := now.Add(a.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// VerifyToken returns the token's subject.
func (a *Authenticator) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
