package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already taken")
	ErrEmailExists       = errors.New("email already registered")
	ErrInvalidCredential = errors.New("incorrect email or password")
	ErrInvalidOrExpired  = errors.New("invalid or expired otp")
	ErrUserNotFound      = errors.New("user not found")
	ErrUnauthenticated   = errors.New("could not validate credentials")
	ErrUnverified        = errors.New("please verify your email first")
	ErrInactive          = errors.New("user account is deactivated")
	ErrForbidden         = errors.New("not authorized to modify this blog")
	ErrPostNotFound      = errors.New("blog not found")
	ErrNoPosts           = errors.New("no blogs found")
	ErrSlugCollision     = errors.New("slug already in use, retry")
	ErrTooManyRequests   = errors.New("otp requested too recently")
)
