package app

import (
	"context"

	"blog-backend/internal/model"
	"blog-backend/internal/pkg/jwtutil"
	"blog-backend/internal/repository"
)

type AccessLevel int

const (
	RequireActiveUser AccessLevel = iota
	RequireVerifiedUser
)

// AuthGate turns a session token into a user. Checks run in a fixed order:
// token present, signature and expiry, user lookup, active, then verified.
type AuthGate struct {
	users  *repository.UserRepository
	tokens *jwtutil.Manager
}

func NewAuthGate(users *repository.UserRepository, tokens *jwtutil.Manager) *AuthGate {
	return &AuthGate{users: users, tokens: tokens}
}

func (g *AuthGate) Resolve(ctx context.Context, token string, tokenType jwtutil.TokenType, level AccessLevel) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := g.tokens.Verify(token, tokenType)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, ErrInactive
	}
	if level == RequireVerifiedUser && !user.Verified {
		return nil, ErrUnverified
	}
	return user, nil
}
