package funnel

// Next applies one event to the current state and returns the new state plus
// the effects the caller must run. It is a pure function; callers serialize
// invocations per client.
func Next(state State, account Account, event Event) (State, []Effect) {
	switch e := event.(type) {
	case BootstrapCompleted:
		return applyBootstrapCompleted(account, e)
	case CredentialRejected:
		return landingReset(), []Effect{ClearSession{}}
	case SignInOpened:
		state.Auth = &AuthOverlay{Mode: AuthModeLogin}
		return state, nil
	case AuthClosed:
		state.Auth = nil
		return state, nil
	case CreatorStarted:
		return applyCreatorStarted(state, account)
	case WizardCompleted:
		return applyWizardCompleted(state, account, e)
	case CharacterCreated:
		return applyCharacterCreated(state, account, e)
	case RegistrationSucceeded:
		state.Auth = nil
		state.Creating = true
		return state, []Effect{StartLoader{CharacterName: e.CharacterName}}
	case LoaderFinished:
		state.Creating = false
		state.Paywall = &PaywallOverlay{CharacterName: e.CharacterName}
		return state, nil
	case LoginSucceeded:
		state.Auth = nil
		return enterScreen(state, account, ScreenHome), nil
	case CheckoutOpened:
		return state, []Effect{NavigateCheckout{CheckoutURL: e.CheckoutURL}}
	case PaywallDeclined:
		// Declining is a hard logout, but the visitor gets one last-chance
		// discount prompt with its own countdown.
		next := landingReset()
		next.Offer = &OfferOverlay{}
		return next, []Effect{ClearSession{}, StartOfferCountdown{}}
	case OfferDismissed:
		state.Offer = nil
		return state, nil
	case OfferExpired:
		state.Offer = nil
		return state, nil
	case CompanionSelected:
		next := enterScreen(state, account, ScreenChat)
		if next.Screen == ScreenChat {
			next.CompanionID = e.CompanionID
		}
		return next, nil
	case NavigatedHome:
		return enterScreen(state, account, ScreenHome), nil
	case SignedOut:
		return landingReset(), []Effect{ClearSession{}}
	default:
		return state, nil
	}
}

// landingReset is the logged-out zero point: landing screen, no overlays, no
// companion selection.
func landingReset() State {
	return State{Screen: ScreenLanding}
}

func applyBootstrapCompleted(account Account, e BootstrapCompleted) (State, []Effect) {
	if !account.SignedIn {
		if e.JoinShortcut {
			return State{Screen: ScreenCreator}, nil
		}
		return landingReset(), nil
	}
	if account.Premium {
		return State{Screen: ScreenHome}, nil
	}
	return State{Screen: ScreenHome, Paywall: &PaywallOverlay{}}, nil
}

func applyCreatorStarted(state State, account Account) (State, []Effect) {
	// Guests may build a companion before they have an account.
	if !account.SignedIn {
		state.Screen = ScreenCreator
		state.Auth = nil
		return state, nil
	}
	return enterScreen(state, account, ScreenCreator), nil
}

func applyWizardCompleted(state State, account Account, e WizardCompleted) (State, []Effect) {
	if !account.SignedIn {
		// The draft outlives the coming registration and payment round
		// trip; it is consumed on return.
		state.Screen = ScreenLanding
		state.Auth = &AuthOverlay{Mode: AuthModeRegister}
		return state, []Effect{SaveDraft{Draft: e.Draft}}
	}
	return state, []Effect{CreateCharacter{Draft: e.Draft}}
}

func applyCharacterCreated(state State, account Account, e CharacterCreated) (State, []Effect) {
	if account.Premium {
		state.Screen = ScreenChat
		state.CompanionID = e.CompanionID
		state.Auth = nil
		state.Paywall = nil
		state.Creating = false
		return state, nil
	}
	state.Screen = ScreenHome
	state.Paywall = &PaywallOverlay{CharacterName: e.CharacterName}
	return state, nil
}
