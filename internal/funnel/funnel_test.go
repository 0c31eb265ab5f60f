package funnel

import (
	"reflect"
	"testing"
)

func TestBootstrapCompleted(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		event   BootstrapCompleted
		want    State
	}{
		{
			name:  "fresh visitor lands on landing",
			event: BootstrapCompleted{},
			want:  State{Screen: ScreenLanding},
		},
		{
			name:  "join shortcut skips landing",
			event: BootstrapCompleted{JoinShortcut: true},
			want:  State{Screen: ScreenCreator},
		},
		{
			name:    "premium session goes home",
			account: Account{SignedIn: true, Premium: true},
			event:   BootstrapCompleted{},
			want:    State{Screen: ScreenHome},
		},
		{
			name:    "non-premium session gets the paywall",
			account: Account{SignedIn: true},
			event:   BootstrapCompleted{},
			want:    State{Screen: ScreenHome, Paywall: &PaywallOverlay{}},
		},
		{
			name:    "join shortcut is ignored with a session",
			account: Account{SignedIn: true, Premium: true},
			event:   BootstrapCompleted{JoinShortcut: true},
			want:    State{Screen: ScreenHome},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, effects := Next(State{}, tt.account, tt.event)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Next() state = %+v, want %+v", got, tt.want)
			}
			if len(effects) != 0 {
				t.Fatalf("Next() effects = %v, want none", effects)
			}
		})
	}
}

func TestCredentialRejectedClearsEverything(t *testing.T) {
	prior := State{Screen: ScreenHome, CompanionID: "char-1", Paywall: &PaywallOverlay{}}

	got, effects := Next(prior, Account{SignedIn: true}, CredentialRejected{})
	if got.Screen != ScreenLanding {
		t.Fatalf("Next() screen = %v, want landing", got.Screen)
	}
	if got.CompanionID != "" {
		t.Fatalf("Next() companion = %q, want cleared", got.CompanionID)
	}
	if got.Auth != nil || got.Paywall != nil || got.Creating {
		t.Fatalf("Next() overlays = %+v, want none", got)
	}
	wantEffects := []Effect{ClearSession{}}
	if !reflect.DeepEqual(effects, wantEffects) {
		t.Fatalf("Next() effects = %v, want %v", effects, wantEffects)
	}
}

func TestSignInOverlayOpenAndClose(t *testing.T) {
	state := State{Screen: ScreenLanding}

	state, _ = Next(state, Account{}, SignInOpened{})
	if state.Auth == nil || state.Auth.Mode != AuthModeLogin {
		t.Fatalf("Next() auth overlay = %+v, want login", state.Auth)
	}

	state, _ = Next(state, Account{}, AuthClosed{})
	if state.Auth != nil {
		t.Fatalf("Next() auth overlay = %+v, want closed", state.Auth)
	}
}

func TestGuestWizardSavesDraftAndOpensRegister(t *testing.T) {
	draft := Draft{Name: "Luna", Age: 24, Description: "night owl", VisualPrompt: "soft light"}

	got, effects := Next(State{Screen: ScreenCreator}, Account{}, WizardCompleted{Draft: draft})
	if got.Screen != ScreenLanding {
		t.Fatalf("Next() screen = %v, want landing", got.Screen)
	}
	if got.Auth == nil || got.Auth.Mode != AuthModeRegister {
		t.Fatalf("Next() auth overlay = %+v, want register", got.Auth)
	}
	wantEffects := []Effect{SaveDraft{Draft: draft}}
	if !reflect.DeepEqual(effects, wantEffects) {
		t.Fatalf("Next() effects = %v, want %v", effects, wantEffects)
	}
}

func TestAuthenticatedWizardCreatesCharacter(t *testing.T) {
	draft := Draft{Name: "Luna", Age: 24}

	_, effects := Next(State{Screen: ScreenCreator}, Account{SignedIn: true, Premium: true}, WizardCompleted{Draft: draft})
	wantEffects := []Effect{CreateCharacter{Draft: draft}}
	if !reflect.DeepEqual(effects, wantEffects) {
		t.Fatalf("Next() effects = %v, want %v", effects, wantEffects)
	}
}

func TestCharacterCreated(t *testing.T) {
	t.Run("premium goes straight to chat", func(t *testing.T) {
		got, effects := Next(State{Screen: ScreenCreator}, Account{SignedIn: true, Premium: true},
			CharacterCreated{CompanionID: "char-1", CharacterName: "Luna"})
		if got.Screen != ScreenChat {
			t.Fatalf("Next() screen = %v, want chat", got.Screen)
		}
		if got.CompanionID != "char-1" {
			t.Fatalf("Next() companion = %q, want %q", got.CompanionID, "char-1")
		}
		if got.Paywall != nil {
			t.Fatalf("Next() paywall = %+v, want none", got.Paywall)
		}
		if len(effects) != 0 {
			t.Fatalf("Next() effects = %v, want none", effects)
		}
	})

	t.Run("non-premium lands on home behind the paywall", func(t *testing.T) {
		got, _ := Next(State{Screen: ScreenCreator}, Account{SignedIn: true},
			CharacterCreated{CompanionID: "char-1", CharacterName: "Luna"})
		if got.Screen != ScreenHome {
			t.Fatalf("Next() screen = %v, want home", got.Screen)
		}
		if got.Paywall == nil || got.Paywall.CharacterName != "Luna" {
			t.Fatalf("Next() paywall = %+v, want name Luna", got.Paywall)
		}
	})
}

func TestRegistrationThenLoaderThenPaywall(t *testing.T) {
	state := State{Screen: ScreenLanding, Auth: &AuthOverlay{Mode: AuthModeRegister}}
	account := Account{SignedIn: true}

	state, effects := Next(state, account, RegistrationSucceeded{CharacterName: "Luna"})
	if state.Auth != nil {
		t.Fatalf("Next() auth overlay = %+v, want closed", state.Auth)
	}
	if !state.Creating {
		t.Fatal("Next() creating = false, want interstitial running")
	}
	wantEffects := []Effect{StartLoader{CharacterName: "Luna"}}
	if !reflect.DeepEqual(effects, wantEffects) {
		t.Fatalf("Next() effects = %v, want %v", effects, wantEffects)
	}

	state, effects = Next(state, account, LoaderFinished{CharacterName: "Luna"})
	if state.Creating {
		t.Fatal("Next() creating = true, want interstitial stopped")
	}
	if state.Paywall == nil || state.Paywall.CharacterName != "Luna" {
		t.Fatalf("Next() paywall = %+v, want name Luna", state.Paywall)
	}
	if len(effects) != 0 {
		t.Fatalf("Next() effects = %v, want none", effects)
	}
}

func TestLoginSucceeded(t *testing.T) {
	t.Run("premium", func(t *testing.T) {
		got, _ := Next(State{Screen: ScreenLanding, Auth: &AuthOverlay{Mode: AuthModeLogin}},
			Account{SignedIn: true, Premium: true}, LoginSucceeded{})
		if got.Screen != ScreenHome || got.Auth != nil || got.Paywall != nil {
			t.Fatalf("Next() state = %+v, want clean home", got)
		}
	})

	t.Run("non-premium is gated", func(t *testing.T) {
		got, _ := Next(State{Screen: ScreenLanding, Auth: &AuthOverlay{Mode: AuthModeLogin}},
			Account{SignedIn: true}, LoginSucceeded{})
		if got.Screen != ScreenHome {
			t.Fatalf("Next() screen = %v, want home", got.Screen)
		}
		if got.Paywall == nil {
			t.Fatal("Next() paywall = nil, want forced open")
		}
	})
}

func TestCheckoutOpenedSuspends(t *testing.T) {
	prior := State{Screen: ScreenHome, Paywall: &PaywallOverlay{CharacterName: "Luna"}}

	got, effects := Next(prior, Account{SignedIn: true}, CheckoutOpened{CheckoutURL: "https://pay.example/cs_1"})
	if !reflect.DeepEqual(got, prior) {
		t.Fatalf("Next() state = %+v, want unchanged %+v", got, prior)
	}
	wantEffects := []Effect{NavigateCheckout{CheckoutURL: "https://pay.example/cs_1"}}
	if !reflect.DeepEqual(effects, wantEffects) {
		t.Fatalf("Next() effects = %v, want %v", effects, wantEffects)
	}
}

func TestPaywallDeclinedIsHardLogout(t *testing.T) {
	prior := State{Screen: ScreenHome, Paywall: &PaywallOverlay{CharacterName: "Luna"}}

	got, effects := Next(prior, Account{SignedIn: true}, PaywallDeclined{})
	want := State{Screen: ScreenLanding, Offer: &OfferOverlay{}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Next() state = %+v, want %+v", got, want)
	}
	wantEffects := []Effect{ClearSession{}, StartOfferCountdown{}}
	if !reflect.DeepEqual(effects, wantEffects) {
		t.Fatalf("Next() effects = %v, want %v", effects, wantEffects)
	}
}

func TestOfferPromptCloses(t *testing.T) {
	prior := State{Screen: ScreenLanding, Offer: &OfferOverlay{}}

	for _, event := range []Event{OfferDismissed{}, OfferExpired{}} {
		got, effects := Next(prior, Account{}, event)
		want := State{Screen: ScreenLanding}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Next(%T) state = %+v, want %+v", event, got, want)
		}
		if len(effects) != 0 {
			t.Fatalf("Next(%T) effects = %v, want none", event, effects)
		}
	}
}

func TestCompanionSelected(t *testing.T) {
	t.Run("premium opens chat", func(t *testing.T) {
		got, _ := Next(State{Screen: ScreenHome}, Account{SignedIn: true, Premium: true},
			CompanionSelected{CompanionID: "char-2"})
		if got.Screen != ScreenChat || got.CompanionID != "char-2" {
			t.Fatalf("Next() state = %+v, want chat with char-2", got)
		}
	})

	t.Run("non-premium stays gated", func(t *testing.T) {
		got, _ := Next(State{Screen: ScreenHome}, Account{SignedIn: true},
			CompanionSelected{CompanionID: "char-2"})
		if got.Screen != ScreenHome {
			t.Fatalf("Next() screen = %v, want home", got.Screen)
		}
		if got.Paywall == nil {
			t.Fatal("Next() paywall = nil, want forced open")
		}
		if got.CompanionID != "" {
			t.Fatalf("Next() companion = %q, want empty", got.CompanionID)
		}
	})

	t.Run("no session falls back to landing", func(t *testing.T) {
		got, _ := Next(State{Screen: ScreenLanding}, Account{}, CompanionSelected{CompanionID: "char-2"})
		if got.Screen != ScreenLanding || got.CompanionID != "" {
			t.Fatalf("Next() state = %+v, want clean landing", got)
		}
	})
}

func TestCreatorStarted(t *testing.T) {
	t.Run("guest mode allowed", func(t *testing.T) {
		got, _ := Next(State{Screen: ScreenLanding}, Account{}, CreatorStarted{})
		if got.Screen != ScreenCreator {
			t.Fatalf("Next() screen = %v, want creator", got.Screen)
		}
	})

	t.Run("non-premium account is gated", func(t *testing.T) {
		got, _ := Next(State{Screen: ScreenHome}, Account{SignedIn: true}, CreatorStarted{})
		if got.Screen != ScreenHome || got.Paywall == nil {
			t.Fatalf("Next() state = %+v, want home behind paywall", got)
		}
	})

	t.Run("premium account passes", func(t *testing.T) {
		got, _ := Next(State{Screen: ScreenHome}, Account{SignedIn: true, Premium: true}, CreatorStarted{})
		if got.Screen != ScreenCreator {
			t.Fatalf("Next() screen = %v, want creator", got.Screen)
		}
	})
}

func TestSignedOutClearsSelection(t *testing.T) {
	prior := State{Screen: ScreenChat, CompanionID: "char-1"}

	got, effects := Next(prior, Account{SignedIn: true, Premium: true}, SignedOut{})
	want := State{Screen: ScreenLanding}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Next() state = %+v, want %+v", got, want)
	}
	wantEffects := []Effect{ClearSession{}}
	if !reflect.DeepEqual(effects, wantEffects) {
		t.Fatalf("Next() effects = %v, want %v", effects, wantEffects)
	}
}

func TestCanAccess(t *testing.T) {
	if CanAccess(Account{SignedIn: true}) {
		t.Fatal("CanAccess() = true for non-premium account, want false")
	}
	if !CanAccess(Account{SignedIn: true, Premium: true}) {
		t.Fatal("CanAccess() = false for premium account, want true")
	}
	if CanAccess(Account{}) {
		t.Fatal("CanAccess() = true with no session, want false")
	}
}
