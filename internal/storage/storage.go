// Package storage defines the persistence contracts for funnel state that must
// survive a full navigation away from the app (credential, guest draft, payment
// return marker). Everything else is reconstructed from the backend on load.
package storage

import (
	"context"
	"time"

	"github.com/amoura-app/amoura/internal/platform/errors"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New(errors.CodeNotFound, "record not found")

// GuestDraft is a character created by a visitor before they had an account.
// It is held durably until registration and payment complete, then consumed.
type GuestDraft struct {
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Description  string `json:"description"`
	VisualPrompt string `json:"visual_prompt"`
}

// CredentialStore persists the long-lived authentication credential per client.
type CredentialStore interface {
	PutCredential(ctx context.Context, clientID string, credential string) error
	GetCredential(ctx context.Context, clientID string) (string, error)
	DeleteCredential(ctx context.Context, clientID string) error
}

// GuestDraftStore persists at most one in-flight guest draft per client.
//
// TakeGuestDraft is read-and-delete: the first caller receives the draft and
// later callers see it absent. A stored draft that fails to decode is cleared
// and reported absent rather than surfacing an error.
type GuestDraftStore interface {
	PutGuestDraft(ctx context.Context, clientID string, draft GuestDraft) error
	TakeGuestDraft(ctx context.Context, clientID string) (GuestDraft, bool, error)
	DeleteGuestDraft(ctx context.Context, clientID string) error
}

// PaymentReturn records a payment-processor completion marker awaiting follow-up.
type PaymentReturn struct {
	ClientID     string
	CompletionID string
	CreatedAt    time.Time
}

// PaymentReturnStore persists completion markers between the redirect that
// strips them from the address and the bootstrap that acts on them.
//
// ConsumePaymentReturn is read-and-delete so a completed load never reprocesses
// a marker that a refresh or back-navigation would otherwise replay.
type PaymentReturnStore interface {
	RecordPaymentReturn(ctx context.Context, ret PaymentReturn) error
	ConsumePaymentReturn(ctx context.Context, clientID string) (PaymentReturn, bool, error)
}
