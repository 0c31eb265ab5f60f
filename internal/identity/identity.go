// Package identity verifies stored credentials against the backend during
// bootstrap.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/amoura-app/amoura/internal/backend"
	apperrors "github.com/amoura-app/amoura/internal/platform/errors"
	"github.com/amoura-app/amoura/internal/session"
)

// ErrInvalid reports a credential the backend will never accept again. The
// caller must treat the client as signed out, never retry.
var ErrInvalid = apperrors.New(apperrors.CodeCredentialInvalid, "credential invalid")

// ProfileFetcher is the slice of the backend client the resolver needs.
type ProfileFetcher interface {
	Me(ctx context.Context, credential string) (session.Profile, error)
}

// Resolver turns a stored credential into a verified profile.
type Resolver struct {
	fetcher ProfileFetcher
	now     func() time.Time
}

// NewResolver builds a resolver over the given profile source.
func NewResolver(fetcher ProfileFetcher) *Resolver {
	return &Resolver{fetcher: fetcher, now: time.Now}
}

// Resolve verifies the credential and fetches its profile.
//
// A credential whose expiry has already passed fails locally with ErrInvalid
// and never reaches the backend. Rejection by the backend also maps to
// ErrInvalid. Any other failure is transient and keeps the credential intact.
func (r *Resolver) Resolve(ctx context.Context, credential string) (session.Profile, error) {
	if credential == "" {
		return session.Profile{}, apperrors.New(apperrors.CodeCredentialMissing, "no credential stored")
	}

	if expired, err := r.expired(credential); err == nil && expired {
		return session.Profile{}, fmt.Errorf("credential expired: %w", ErrInvalid)
	}

	profile, err := r.fetcher.Me(ctx, credential)
	if errors.Is(err, backend.ErrUnauthorized) {
		return session.Profile{}, fmt.Errorf("credential rejected: %w", ErrInvalid)
	}
	if err != nil {
		return session.Profile{}, fmt.Errorf("resolve identity: %w", err)
	}
	return profile, nil
}

// expired inspects the credential's exp claim without verifying the
// signature. Signature verification is the backend's job; this only short
// circuits the obviously dead case.
func (r *Resolver) expired(credential string) (bool, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(credential, claims); err != nil {
		return false, fmt.Errorf("parse credential: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, err
	}
	return exp.Before(r.now()), nil
}
