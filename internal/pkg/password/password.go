package password

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("password cannot be empty")

type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	// VerifyDummy burns the same CPU as Verify for callers that have no digest.
	VerifyDummy(plaintext string)
}

type BcryptHasher struct {
	cost int
	// dummy is a digest of random bytes at the same cost as real digests.
	dummy []byte
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	seed := make([]byte, 32)
	_, _ = rand.Read(seed)
	dummy, _ := bcrypt.GenerateFromPassword(seed, cost)
	return &BcryptHasher{cost: cost, dummy: dummy}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

func (h *BcryptHasher) VerifyDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}
