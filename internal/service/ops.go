package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amoura-app/amoura/internal/backend"
	"github.com/amoura-app/amoura/internal/funnel"
	apperrors "github.com/amoura-app/amoura/internal/platform/errors"
	"github.com/amoura-app/amoura/internal/session"
)

// Wizard age bounds. The form defaults to 24.
const (
	wizardMinAge = 18
	wizardMaxAge = 35
)

// View is the client-facing snapshot of one controller.
type View struct {
	Screen      string           `json:"screen"`
	Auth        *AuthView        `json:"auth,omitempty"`
	Paywall     *PaywallView     `json:"paywall,omitempty"`
	Offer       *OfferView       `json:"offer,omitempty"`
	Creating    bool             `json:"creating,omitempty"`
	CompanionID string           `json:"companion_id,omitempty"`
	Profile     *session.Profile `json:"profile,omitempty"`
}

// AuthView describes the open auth overlay.
type AuthView struct {
	Mode string `json:"mode"`
}

// PaywallView describes the open paywall, including the remaining seconds
// on the discounted offer.
type PaywallView struct {
	CharacterName    string `json:"character_name,omitempty"`
	OfferSecondsLeft int    `json:"offer_seconds_left"`
}

// OfferView describes the last-chance prompt shown after a paywall decline.
type OfferView struct {
	SecondsLeft int `json:"seconds_left"`
}

// Snapshot bootstraps the client if needed and returns its current view.
func (s *Service) Snapshot(ctx context.Context, clientID string) (View, error) {
	c := s.client(clientID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.bootstrapped {
		if err := s.bootstrap(ctx, c); err != nil {
			return View{}, err
		}
	}
	return s.view(c), nil
}

func (s *Service) view(c *controller) View {
	view := View{
		Screen:      c.state.Screen.String(),
		Creating:    c.state.Creating,
		CompanionID: c.state.CompanionID,
		Profile:     c.profile,
	}
	if c.state.Auth != nil {
		view.Auth = &AuthView{Mode: c.state.Auth.Mode.String()}
	}
	if c.state.Paywall != nil {
		view.Paywall = &PaywallView{
			CharacterName:    c.state.Paywall.CharacterName,
			OfferSecondsLeft: s.offerSecondsLeft(c),
		}
	}
	if c.state.Offer != nil {
		view.Offer = &OfferView{SecondsLeft: s.offerSecondsLeft(c)}
	}
	return view
}

func (s *Service) offerSecondsLeft(c *controller) int {
	if c.offerDeadline.IsZero() {
		return 0
	}
	remaining := c.offerDeadline.Sub(s.clock.Now())
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}

// Register creates an account, stores its credential, and advances the
// funnel into the creating interstitial.
func (s *Service) Register(ctx context.Context, clientID, email, password string) error {
	c := s.client(clientID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.bootstrapped {
		if err := s.bootstrap(ctx, c); err != nil {
			return err
		}
	}

	creds, err := s.api.Register(ctx, email, password)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if err := s.adoptCredential(ctx, c, creds.AccessToken); err != nil {
		return err
	}
	return s.apply(ctx, c, funnel.RegistrationSucceeded{CharacterName: c.draftName})
}

// Login exchanges credentials and advances the funnel home.
func (s *Service) Login(ctx context.Context, clientID, email, password string) error {
	c := s.client(clientID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.bootstrapped {
		if err := s.bootstrap(ctx, c); err != nil {
			return err
		}
	}

	creds, err := s.api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := s.adoptCredential(ctx, c, creds.AccessToken); err != nil {
		return err
	}
	return s.apply(ctx, c, funnel.LoginSucceeded{})
}

// adoptCredential persists a freshly issued credential and resolves its
// profile. Caller holds c.mu.
func (s *Service) adoptCredential(ctx context.Context, c *controller, credential string) error {
	if err := s.sessions.SetCredential(ctx, c.id, credential); err != nil {
		return err
	}
	c.credential = credential
	profile, err := s.resolver.Resolve(ctx, credential)
	if err != nil {
		return fmt.Errorf("resolve fresh credential: %w", err)
	}
	c.profile = &profile
	return nil
}

// CompleteWizard validates the form output and feeds it to the funnel.
// Validation failures block the transition locally and never reach the
// backend.
func (s *Service) CompleteWizard(ctx context.Context, clientID string, draft funnel.Draft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return apperrors.New(apperrors.CodeWizardNameRequired, "companion name is required")
	}
	if draft.Age < wizardMinAge || draft.Age > wizardMaxAge {
		return apperrors.WithMetadata(apperrors.CodeWizardAgeOutOfRange,
			fmt.Sprintf("age must be between %d and %d", wizardMinAge, wizardMaxAge),
			map[string]string{"age": fmt.Sprintf("%d", draft.Age)})
	}
	draft.Name = strings.TrimSpace(draft.Name)
	return s.Dispatch(ctx, clientID, funnel.WizardCompleted{Draft: draft})
}

// Subscribe opens a hosted checkout for the given credit package and returns
// its URL. A failure here stays inline on the paywall: the state does not
// change and the client may simply resubmit.
func (s *Service) Subscribe(ctx context.Context, clientID, packageID string) (string, error) {
	if strings.TrimSpace(packageID) == "" {
		return "", apperrors.New(apperrors.CodeCheckoutPackageEmpty, "package id is required")
	}

	c := s.client(clientID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.bootstrapped {
		if err := s.bootstrap(ctx, c); err != nil {
			return "", err
		}
	}
	if c.profile == nil {
		return "", apperrors.New(apperrors.CodeCheckoutNotPermitted, "sign in before subscribing")
	}

	successURL := s.baseURL + "/?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := s.baseURL + "/"
	checkout, err := s.api.CreateCheckout(ctx, c.credential, packageID, successURL, cancelURL)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeCheckoutUnavailable, "create checkout", err)
	}

	if err := s.apply(ctx, c, funnel.CheckoutOpened{CheckoutURL: checkout.CheckoutURL}); err != nil {
		return "", err
	}
	return checkout.CheckoutURL, nil
}

// Packages lists the purchasable credit bundles for the paywall.
func (s *Service) Packages(ctx context.Context) ([]backend.CreditPackage, error) {
	return s.api.Packages(ctx)
}
