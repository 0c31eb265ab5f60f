// Package reconcile recovers user intent after a full navigation away from
// the app, most importantly the round trip to the external payment page.
package reconcile

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/amoura-app/amoura/internal/backend"
	"github.com/amoura-app/amoura/internal/storage"
)

// Markers carried in the page address on return or deep link. session_id is
// set by the payment processor; payment is the legacy completion flag from
// earlier funnel revisions; join is the direct-to-creator shortcut.
const (
	paramCompletion    = "session_id"
	paramLegacyPayment = "payment"
	paramJoin          = "join"
)

// Return is what the initial page address carried. It is ephemeral: parsed
// once at bootstrap and never stored in this form.
type Return struct {
	CompletionID string
	JoinShortcut bool
}

// PaymentCompleted reports whether the address carried a completion marker.
func (r Return) PaymentCompleted() bool {
	return r.CompletionID != ""
}

// ParseReturn reads the payment and join markers from a page address and
// returns the address with the markers removed. The caller must redirect to
// the cleaned address before doing any asynchronous work, so a refresh or
// back-navigation can never reprocess the markers.
func ParseReturn(u *url.URL) (Return, *url.URL) {
	query := u.Query()

	var ret Return
	ret.CompletionID = query.Get(paramCompletion)
	if ret.CompletionID == "" && query.Get(paramLegacyPayment) != "" {
		// Older checkout flows only set a boolean success flag.
		ret.CompletionID = "legacy"
	}
	ret.JoinShortcut = query.Get(paramJoin) != ""

	query.Del(paramCompletion)
	query.Del(paramLegacyPayment)
	query.Del(paramJoin)

	clean := *u
	clean.RawQuery = query.Encode()
	return ret, &clean
}

// CharacterCreator is the slice of the backend client deferred creation uses.
type CharacterCreator interface {
	CreateCharacter(ctx context.Context, credential string, input backend.CharacterInput) (backend.Character, error)
}

// Runner performs the post-payment follow-up during bootstrap.
type Runner struct {
	returns    storage.PaymentReturnStore
	drafts     storage.GuestDraftStore
	characters CharacterCreator
}

// NewRunner wires the stores and backend slice deferred creation needs.
func NewRunner(returns storage.PaymentReturnStore, drafts storage.GuestDraftStore, characters CharacterCreator) *Runner {
	return &Runner{returns: returns, drafts: drafts, characters: characters}
}

// RecordReturn persists a completion marker so the follow-up survives an
// interrupted load. The marker is consumed exactly once by AfterPaymentReturn.
func (r *Runner) RecordReturn(ctx context.Context, clientID string, ret Return) error {
	if !ret.PaymentCompleted() {
		return nil
	}
	return r.returns.RecordPaymentReturn(ctx, storage.PaymentReturn{
		ClientID:     clientID,
		CompletionID: ret.CompletionID,
		CreatedAt:    time.Now(),
	})
}

// AfterPaymentReturn consumes any pending completion marker and submits the
// guest draft it was protecting.
//
// The submission is best effort: payment has already succeeded, so a failed
// creation is logged and swallowed rather than blocking the user from the
// product. The returned character is nil when no creation happened. The
// second return reports whether a marker was consumed, which tells the
// caller to re-resolve identity because the premium flag may have changed.
func (r *Runner) AfterPaymentReturn(ctx context.Context, clientID string, credential string) (*backend.Character, bool, error) {
	pending, ok, err := r.returns.ConsumePaymentReturn(ctx, clientID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	draft, ok, err := r.drafts.TakeGuestDraft(ctx, clientID)
	if err != nil {
		log.Printf("reconcile: take draft for client %s: %v", clientID, err)
		return nil, true, nil
	}
	if !ok {
		return nil, true, nil
	}

	character, err := r.characters.CreateCharacter(ctx, credential, backend.CharacterInput{
		Name:         draft.Name,
		Age:          draft.Age,
		Description:  draft.Description,
		VisualPrompt: draft.VisualPrompt,
	})
	if err != nil {
		log.Printf("reconcile: deferred creation for completion %s: %v", pending.CompletionID, err)
		return nil, true, nil
	}
	return &character, true, nil
}
