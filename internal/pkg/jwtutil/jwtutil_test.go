package jwtutil_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-backend/internal/pkg/jwtutil"
)

const secret = "test-secret"

func newManager() *jwtutil.Manager {
	return jwtutil.NewManager(secret, 30*time.Minute, 7*24*time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	m := newManager()

	for _, typ := range []jwtutil.TokenType{jwtutil.TokenTypeAccess, jwtutil.TokenTypeRefresh} {
		t.Run(string(typ), func(t *testing.T) {
			token, expiresAt, err := m.Issue(42, typ)
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().Add(m.TTL(typ)), expiresAt, 5*time.Second)

			claims, err := m.Verify(token, typ)
			require.NoError(t, err)
			assert.Equal(t, uint(42), claims.UserID)
			assert.Equal(t, "42", claims.Subject)
			assert.Equal(t, typ, claims.Type)
		})
	}
}

func TestIssuePair_Lifetimes(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newManager().WithClock(func() time.Time { return now })

	pair, err := m.IssuePair(7)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), pair.AccessExpiresAt)
	assert.Equal(t, now.Add(7*24*time.Hour), pair.RefreshExpiresAt)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
}

func TestVerify_RejectsWrongType(t *testing.T) {
	m := newManager()
	pair, err := m.IssuePair(1)
	require.NoError(t, err)

	_, err = m.Verify(pair.RefreshToken, jwtutil.TokenTypeAccess)
	assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)

	_, err = m.Verify(pair.AccessToken, jwtutil.TokenTypeRefresh)
	assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)
}

func TestVerify_RejectsExpired(t *testing.T) {
	past := time.Now().Add(-8 * 24 * time.Hour)
	issuer := newManager().WithClock(func() time.Time { return past })

	pair, err := issuer.IssuePair(1)
	require.NoError(t, err)

	m := newManager()
	_, err = m.Verify(pair.AccessToken, jwtutil.TokenTypeAccess)
	assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)
	_, err = m.Verify(pair.RefreshToken, jwtutil.TokenTypeRefresh)
	assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)
}

func TestVerify_AccessExpiresBeforeRefresh(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	pair, err := newManager().WithClock(func() time.Time { return issuedAt }).IssuePair(3)
	require.NoError(t, err)

	later := newManager().WithClock(func() time.Time { return issuedAt.Add(time.Hour) })
	_, err = later.Verify(pair.AccessToken, jwtutil.TokenTypeAccess)
	assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)

	claims, err := later.Verify(pair.RefreshToken, jwtutil.TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
}

func TestVerify_RejectsTampering(t *testing.T) {
	m := newManager()
	token, _, err := m.Issue(1, jwtutil.TokenTypeAccess)
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		other := jwtutil.NewManager("another-secret", time.Minute, time.Hour)
		_, err := other.Verify(token, jwtutil.TokenTypeAccess)
		assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)
	})

	t.Run("modified signature", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		_, err := m.Verify(parts[0]+"."+parts[1]+"."+string(sig), jwtutil.TokenTypeAccess)
		assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "a.b.c"} {
			_, err := m.Verify(raw, jwtutil.TokenTypeAccess)
			assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)
		}
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := jwtutil.Claims{
			UserID: 1,
			Type:   jwtutil.TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Verify(unsigned, jwtutil.TokenTypeAccess)
		assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := jwtutil.Claims{
			UserID:           1,
			Type:             jwtutil.TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		_, err = m.Verify(raw, jwtutil.TokenTypeAccess)
		assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)
	})
}

func TestIssue_RejectsBadInput(t *testing.T) {
	m := newManager()
	_, _, err := m.Issue(0, jwtutil.TokenTypeAccess)
	assert.Error(t, err)
	_, _, err = m.Issue(1, jwtutil.TokenType("session"))
	assert.Error(t, err)
}
