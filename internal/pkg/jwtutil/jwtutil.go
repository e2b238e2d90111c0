package jwtutil

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// wrong type or malformed payload.
var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID uint      `json:"user_id"`
	Type   TokenType `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Manager issues and verifies stateless HS256 session tokens. There is no
// revocation: a token stays valid until it expires.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock returns a copy of m that reads the current time from now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *Manager) TTL(typ TokenType) time.Duration {
	if typ == TokenTypeRefresh {
		return m.refreshTTL
	}
	return m.accessTTL
}

func (m *Manager) Issue(userID uint, typ TokenType) (string, time.Time, error) {
	if userID == 0 {
		return "", time.Time{}, fmt.Errorf("issue %s token: empty user id", typ)
	}
	if typ != TokenTypeAccess && typ != TokenTypeRefresh {
		return "", time.Time{}, fmt.Errorf("issue token: unknown type %q", typ)
	}

	now := m.now()
	expiresAt := now.Add(m.TTL(typ))
	claims := Claims{
		UserID: userID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token failed: %w", typ, err)
	}
	return token, expiresAt, nil
}

func (m *Manager) IssuePair(userID uint) (*TokenPair, error) {
	access, accessExp, err := m.Issue(userID, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := m.Issue(userID, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *Manager) Verify(tokenString string, expected TokenType) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Type != expected || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	if claims.Subject != strconv.FormatUint(uint64(claims.UserID), 10) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
