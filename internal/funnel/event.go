package funnel

// Event is one discrete input to the funnel. The set is closed; the reducer
// handles every concrete type below and ignores anything else.
type Event interface {
	isEvent()
}

// BootstrapCompleted fires once per page load after identity resolution and
// any payment-return follow-up have both settled.
type BootstrapCompleted struct {
	JoinShortcut bool
}

// CredentialRejected fires when the identity resolver reports the stored
// credential as permanently invalid.
type CredentialRejected struct{}

// SignInOpened fires when the visitor asks to sign in.
type SignInOpened struct{}

// AuthClosed fires when the visitor dismisses the auth overlay.
type AuthClosed struct{}

// CreatorStarted fires on "get started". No account is required yet.
type CreatorStarted struct{}

// WizardCompleted fires when the creation wizard's final step is submitted.
type WizardCompleted struct {
	Draft Draft
}

// CharacterCreated fires when a requested character creation succeeds.
type CharacterCreated struct {
	CompanionID   string
	CharacterName string
}

// RegistrationSucceeded fires when a new account's credential is stored.
type RegistrationSucceeded struct {
	CharacterName string
}

// LoaderFinished fires when the paced creating interstitial runs out.
type LoaderFinished struct {
	CharacterName string
}

// LoginSucceeded fires when an existing account's credential is stored.
type LoginSucceeded struct{}

// CheckoutOpened fires when the backend has issued a hosted payment page.
type CheckoutOpened struct {
	CheckoutURL string
}

// PaywallDeclined fires when the visitor walks away from the subscription
// prompt.
type PaywallDeclined struct{}

// OfferDismissed fires when the visitor closes the post-decline discount
// prompt.
type OfferDismissed struct{}

// OfferExpired fires when the post-decline discount countdown runs out.
type OfferExpired struct{}

// CompanionSelected fires when the visitor picks a companion to chat with.
type CompanionSelected struct {
	CompanionID string
}

// NavigatedHome fires when the visitor asks for the home screen.
type NavigatedHome struct{}

// SignedOut fires on explicit logout.
type SignedOut struct{}

func (BootstrapCompleted) isEvent() {}
func (CredentialRejected) isEvent() {}
func (SignInOpened) isEvent() {}
func (AuthClosed) isEvent() {}
func (CreatorStarted) isEvent() {}
func (WizardCompleted) isEvent() {}
func (CharacterCreated) isEvent() {}
func (RegistrationSucceeded) isEvent() {}
func (LoaderFinished) isEvent() {}
func (LoginSucceeded) isEvent() {}
func (CheckoutOpened) isEvent() {}
func (PaywallDeclined) isEvent() {}
func (OfferDismissed) isEvent() {}
func (OfferExpired) isEvent() {}
func (CompanionSelected) isEvent() {}
func (NavigatedHome) isEvent() {}
func (SignedOut) isEvent() {}
