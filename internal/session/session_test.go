package session

import (
	"context"
	"testing"

	"github.com/amoura-app/amoura/internal/storage"
)

type memoryStores struct {
	credentials map[string]string
	drafts      map[string]storage.GuestDraft
}

func newMemoryStores() *memoryStores {
	return &memoryStores{
		credentials: map[string]string{},
		drafts:      map[string]storage.GuestDraft{},
	}
}

func (m *memoryStores) PutCredential(_ context.Context, clientID, credential string) error {
	m.credentials[clientID] = credential
	return nil
}

func (m *memoryStores) GetCredential(_ context.Context, clientID string) (string, error) {
	token, ok := m.credentials[clientID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return token, nil
}

func (m *memoryStores) DeleteCredential(_ context.Context, clientID string) error {
	delete(m.credentials, clientID)
	return nil
}

func (m *memoryStores) PutGuestDraft(_ context.Context, clientID string, draft storage.GuestDraft) error {
	m.drafts[clientID] = draft
	return nil
}

func (m *memoryStores) TakeGuestDraft(_ context.Context, clientID string) (storage.GuestDraft, bool, error) {
	draft, ok := m.drafts[clientID]
	if ok {
		delete(m.drafts, clientID)
	}
	return draft, ok, nil
}

func (m *memoryStores) DeleteGuestDraft(_ context.Context, clientID string) error {
	delete(m.drafts, clientID)
	return nil
}

func TestCredentialLifecycle(t *testing.T) {
	stores := newMemoryStores()
	manager := NewManager(stores, stores)
	ctx := context.Background()

	_, ok, err := manager.Credential(ctx, "client-1")
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if ok {
		t.Fatal("Credential() ok = true before set, want false")
	}

	if err := manager.SetCredential(ctx, "client-1", "token-a"); err != nil {
		t.Fatalf("SetCredential() error = %v", err)
	}

	token, ok, err := manager.Credential(ctx, "client-1")
	if err != nil {
		t.Fatalf("Credential() after set error = %v", err)
	}
	if !ok {
		t.Fatal("Credential() ok = false after set, want true")
	}
	if token != "token-a" {
		t.Fatalf("Credential() = %q, want %q", token, "token-a")
	}
}

func TestClearRemovesCredentialAndDraft(t *testing.T) {
	stores := newMemoryStores()
	manager := NewManager(stores, stores)
	ctx := context.Background()

	if err := manager.SetCredential(ctx, "client-1", "token-a"); err != nil {
		t.Fatalf("SetCredential() error = %v", err)
	}
	if err := stores.PutGuestDraft(ctx, "client-1", storage.GuestDraft{Name: "Luna"}); err != nil {
		t.Fatalf("PutGuestDraft() error = %v", err)
	}

	if err := manager.Clear(ctx, "client-1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if _, ok, _ := manager.Credential(ctx, "client-1"); ok {
		t.Fatal("Credential() ok = true after Clear, want false")
	}
	if _, ok, _ := stores.TakeGuestDraft(ctx, "client-1"); ok {
		t.Fatal("TakeGuestDraft() ok = true after Clear, want false")
	}
}

func TestSessionViews(t *testing.T) {
	var anon Session
	if anon.SignedIn() {
		t.Fatal("SignedIn() = true for anonymous session, want false")
	}
	if anon.Premium() {
		t.Fatal("Premium() = true for anonymous session, want false")
	}

	free := Session{Credential: "t", Profile: &Profile{Username: "ada"}}
	if !free.SignedIn() {
		t.Fatal("SignedIn() = false for session with profile, want true")
	}
	if free.Premium() {
		t.Fatal("Premium() = true for free profile, want false")
	}

	premium := Session{Credential: "t", Profile: &Profile{Username: "ada", IsPremium: true}}
	if !premium.Premium() {
		t.Fatal("Premium() = false for premium profile, want true")
	}
}
