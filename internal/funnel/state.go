// Package funnel decides which screen and overlays a client sees.
//
// The whole package is a pure reducer: Next takes the current state, a view
// of the session, and one event, and returns the new state plus the side
// effects the caller must execute. Nothing here touches storage or the
// network, which is what makes every transition testable in isolation.
package funnel

// Screen is the single active top-level screen.
type Screen int

const (
	ScreenUnspecified Screen = iota
	ScreenLanding
	ScreenHome
	ScreenChat
	ScreenCreator
)

// String returns the screen name for logs and wire payloads.
func (s Screen) String() string {
	switch s {
	case ScreenLanding:
		return "landing"
	case ScreenHome:
		return "home"
	case ScreenChat:
		return "chat"
	case ScreenCreator:
		return "creator"
	default:
		return "unspecified"
	}
}

// AuthMode selects which face the auth overlay opens with.
type AuthMode int

const (
	AuthModeUnspecified AuthMode = iota
	AuthModeLogin
	AuthModeRegister
)

func (m AuthMode) String() string {
	switch m {
	case AuthModeLogin:
		return "login"
	case AuthModeRegister:
		return "register"
	default:
		return "unspecified"
	}
}

// AuthOverlay is the sign-in or sign-up dialog. At most one is open.
type AuthOverlay struct {
	Mode AuthMode
}

// PaywallOverlay is the subscription prompt. At most one is open. The
// character name personalizes the pitch after a guest finishes the wizard.
type PaywallOverlay struct {
	CharacterName string
}

// OfferOverlay is the last-chance discount prompt shown after a paywall
// decline. It runs its own countdown and closes on dismissal or expiry.
type OfferOverlay struct{}

// Draft is the creation wizard's output.
type Draft struct {
	Name         string
	Age          int
	Description  string
	VisualPrompt string
}

// State is the full visible state of the funnel for one client.
//
// Auth and Paywall are nil when closed. Creating marks the paced
// "creating your companion" interstitial, which always ends by opening the
// paywall. CompanionID is the chat target and is screen-local: it never
// survives a sign-out.
type State struct {
	Screen      Screen
	Auth        *AuthOverlay
	Paywall     *PaywallOverlay
	Offer       *OfferOverlay
	Creating    bool
	CompanionID string
}

// Account is the slice of the session the reducer's guards read.
type Account struct {
	SignedIn bool
	Premium  bool
}
