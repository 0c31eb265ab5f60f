package funnel

// Effect is an instruction the reducer hands back to the caller. The reducer
// never performs side effects itself; it only names them.
type Effect interface {
	isEffect()
}

// SaveDraft persists a guest's wizard output so it survives registration and
// the payment round trip.
type SaveDraft struct {
	Draft Draft
}

// DiscardDraft removes any pending guest draft.
type DiscardDraft struct{}

// ClearSession destroys the stored credential and, through the session
// teardown cascade, the guest draft too.
type ClearSession struct{}

// CreateCharacter submits a character to the backend under the signed-in
// account.
type CreateCharacter struct {
	Draft Draft
}

// StartLoader schedules the paced creating interstitial; its completion is
// delivered back as a LoaderFinished event.
type StartLoader struct {
	CharacterName string
}

// StartOfferCountdown schedules the post-decline discount countdown; its
// expiry is delivered back as an OfferExpired event.
type StartOfferCountdown struct{}

// NavigateCheckout sends the client to the hosted payment page. Everything
// in memory is torn down; only persisted state survives the round trip.
type NavigateCheckout struct {
	CheckoutURL string
}

func (SaveDraft) isEffect() {}
func (DiscardDraft) isEffect() {}
func (ClearSession) isEffect() {}
func (CreateCharacter) isEffect() {}
func (StartLoader) isEffect() {}
func (StartOfferCountdown) isEffect() {}
func (NavigateCheckout) isEffect() {}
