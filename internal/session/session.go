// Package session tracks the signed-in identity for each browser client.
//
// Only the long-lived credential is persisted. The profile attached to a
// session is resolved fresh from the backend on every bootstrap, so stale
// entitlement data never survives a restart.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/amoura-app/amoura/internal/storage"
)

// Profile is the backend's view of the signed-in account.
type Profile struct {
	Username   string  `json:"username"`
	Credits    int     `json:"credits"`
	IsPremium  bool    `json:"is_premium"`
	TotalSpent float64 `json:"total_spent"`
}

// Session is the per-client identity snapshot held in memory.
// Profile is nil until the credential has been verified against the backend.
type Session struct {
	Credential string
	Profile    *Profile
}

// SignedIn reports whether the session carries a verified profile.
func (s Session) SignedIn() bool {
	return s.Profile != nil
}

// Premium reports whether the signed-in account holds an active subscription.
func (s Session) Premium() bool {
	return s.Profile != nil && s.Profile.IsPremium
}

// Manager persists credentials and owns the teardown cascade on sign-out.
type Manager struct {
	credentials storage.CredentialStore
	drafts      storage.GuestDraftStore
}

// NewManager wires the credential store and the draft store the teardown
// cascade reaches into.
func NewManager(credentials storage.CredentialStore, drafts storage.GuestDraftStore) *Manager {
	return &Manager{credentials: credentials, drafts: drafts}
}

// Credential loads the stored credential for a client. The second return
// reports whether one exists.
func (m *Manager) Credential(ctx context.Context, clientID string) (string, bool, error) {
	token, err := m.credentials.GetCredential(ctx, clientID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load credential: %w", err)
	}
	return token, true, nil
}

// SetCredential stores the credential issued on register or login.
func (m *Manager) SetCredential(ctx context.Context, clientID string, credential string) error {
	if err := m.credentials.PutCredential(ctx, clientID, credential); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Clear tears the session down completely: the credential and any in-flight
// guest draft are both discarded. Nothing survives into the next identity.
func (m *Manager) Clear(ctx context.Context, clientID string) error {
	if err := m.credentials.DeleteCredential(ctx, clientID); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	if err := m.drafts.DeleteGuestDraft(ctx, clientID); err != nil {
		return fmt.Errorf("clear guest draft: %w", err)
	}
	return nil
}
