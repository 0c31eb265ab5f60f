package funnel

// CanAccess reports whether the account may reach screens beyond the
// paywall. Only an active subscription passes.
func CanAccess(account Account) bool {
	return account.Premium
}

// enterScreen applies the access gate to a screen-entry transition.
//
// A blocked signed-in account is kept on the home screen with the paywall
// forced open instead of being bounced away, so the surrounding chrome stays
// visible. A visitor with no session at all falls back to the landing
// screen, except for the creator which allows guest mode.
func enterScreen(state State, account Account, target Screen) State {
	if target == ScreenLanding {
		state.Screen = ScreenLanding
		return state
	}
	if !account.SignedIn {
		if target == ScreenCreator {
			state.Screen = ScreenCreator
			return state
		}
		return landingReset()
	}
	if !CanAccess(account) {
		state.Screen = ScreenHome
		if state.Paywall == nil {
			state.Paywall = &PaywallOverlay{}
		}
		return state
	}
	state.Screen = target
	return state
}
