// Package identity verifies bearer credentials and yields the caller's
// subject id and profile claims.
package identity

import (
	"context"
	"errors"
)

var ErrInvalidCredential = errors.New("invalid credential")

// Claims is what a verified credential tells us about its holder.
type Claims struct {
	Subject     string
	Email       string
	DisplayName string
	PhotoURL    string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (*Claims, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (*Claims, error) {
	return f(ctx, token)
}
