// Package service hosts the funnel over HTTP: one controller per browser
// client, each serializing its events and executing the reducer's effects.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/amoura-app/amoura/internal/backend"
	"github.com/amoura-app/amoura/internal/funnel"
	"github.com/amoura-app/amoura/internal/identity"
	apperrors "github.com/amoura-app/amoura/internal/platform/errors"
	"github.com/amoura-app/amoura/internal/reconcile"
	"github.com/amoura-app/amoura/internal/session"
	"github.com/amoura-app/amoura/internal/storage"
)

// API is the slice of the backend client the service calls directly.
// Identity resolution goes through the resolver instead.
type API interface {
	Register(ctx context.Context, email, password string) (backend.Credentials, error)
	Login(ctx context.Context, email, password string) (backend.Credentials, error)
	CreateCharacter(ctx context.Context, credential string, input backend.CharacterInput) (backend.Character, error)
	CreateCheckout(ctx context.Context, credential, packageID, successURL, cancelURL string) (backend.Checkout, error)
	Packages(ctx context.Context) ([]backend.CreditPackage, error)
}

// Resolver verifies a stored credential during bootstrap.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (session.Profile, error)
}

// Service owns every per-client controller and the shared collaborators.
type Service struct {
	sessions *session.Manager
	drafts   storage.GuestDraftStore
	resolver Resolver
	api      API
	runner   *reconcile.Runner
	clock    Clock
	baseURL  string

	mu      sync.Mutex
	clients map[string]*controller
}

// NewService wires the funnel service.
func NewService(sessions *session.Manager, drafts storage.GuestDraftStore, resolver Resolver, api API, runner *reconcile.Runner, clock Clock, baseURL string) *Service {
	if clock == nil {
		clock = NewClock()
	}
	return &Service{
		sessions: sessions,
		drafts:   drafts,
		resolver: resolver,
		api:      api,
		runner:   runner,
		clock:    clock,
		baseURL:  baseURL,
		clients:  map[string]*controller{},
	}
}

// controller is the per-client funnel instance. All access happens under mu,
// which serializes events exactly like a single-threaded event loop would.
type controller struct {
	id string
	mu sync.Mutex

	state      funnel.State
	credential string
	profile    *session.Profile

	bootstrapped bool
	pendingJoin  bool
	draftName    string

	// epoch invalidates timer callbacks scheduled before a session reset.
	epoch       int
	loaderTimer Timer
	offerTimer  Timer

	offerDeadline time.Time
}

func (c *controller) account() funnel.Account {
	return funnel.Account{
		SignedIn: c.profile != nil,
		Premium:  c.profile != nil && c.profile.IsPremium,
	}
}

// client returns the controller for a browser client, creating it on first
// sight.
func (s *Service) client(clientID string) *controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok {
		c = &controller{id: clientID}
		s.clients[clientID] = c
	}
	return c
}

// apply runs one event through the reducer, executes the resulting effects,
// and keeps going while effects produce follow-up events. Caller holds c.mu.
func (s *Service) apply(ctx context.Context, c *controller, event funnel.Event) error {
	queue := []funnel.Event{event}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		state, effects := funnel.Next(c.state, c.account(), next)
		c.state = state

		for _, effect := range effects {
			followUps, err := s.runEffect(ctx, c, effect)
			if err != nil {
				return err
			}
			queue = append(queue, followUps...)
		}
	}

	// The discounted offer countdown runs while the paywall or the
	// post-decline prompt is open and resets once both are gone.
	if c.state.Paywall == nil && c.state.Offer == nil {
		c.offerDeadline = time.Time{}
		s.stopOffer(c)
	} else if c.offerDeadline.IsZero() {
		c.offerDeadline = s.clock.Now().Add(offerWindow)
	}
	return nil
}

func (s *Service) runEffect(ctx context.Context, c *controller, effect funnel.Effect) ([]funnel.Event, error) {
	switch e := effect.(type) {
	case funnel.SaveDraft:
		draft := storage.GuestDraft{
			Name:         e.Draft.Name,
			Age:          e.Draft.Age,
			Description:  e.Draft.Description,
			VisualPrompt: e.Draft.VisualPrompt,
		}
		if err := s.drafts.PutGuestDraft(ctx, c.id, draft); err != nil {
			return nil, fmt.Errorf("save guest draft: %w", err)
		}
		c.draftName = e.Draft.Name
		return nil, nil

	case funnel.DiscardDraft:
		if err := s.drafts.DeleteGuestDraft(ctx, c.id); err != nil {
			return nil, fmt.Errorf("discard guest draft: %w", err)
		}
		c.draftName = ""
		return nil, nil

	case funnel.ClearSession:
		s.resetIdentity(c)
		if err := s.sessions.Clear(ctx, c.id); err != nil {
			return nil, fmt.Errorf("clear session: %w", err)
		}
		return nil, nil

	case funnel.CreateCharacter:
		character, err := s.api.CreateCharacter(ctx, c.credential, backend.CharacterInput{
			Name:         e.Draft.Name,
			Age:          e.Draft.Age,
			Description:  e.Draft.Description,
			VisualPrompt: e.Draft.VisualPrompt,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeUnknown, "create character", err)
		}
		return []funnel.Event{funnel.CharacterCreated{
			CompanionID:   character.ID,
			CharacterName: character.Name,
		}}, nil

	case funnel.StartLoader:
		s.stopLoader(c)
		epoch := c.epoch
		name := e.CharacterName
		c.loaderTimer = s.clock.AfterFunc(loaderDuration(), func() {
			s.loaderFired(c, epoch, name)
		})
		return nil, nil

	case funnel.StartOfferCountdown:
		// Scheduled after ClearSession, so the captured epoch is the fresh
		// one and a later sign-out still cancels the expiry.
		s.stopOffer(c)
		c.offerDeadline = s.clock.Now().Add(offerWindow)
		epoch := c.epoch
		c.offerTimer = s.clock.AfterFunc(offerWindow, func() {
			s.offerFired(c, epoch)
		})
		return nil, nil

	case funnel.NavigateCheckout:
		// The hosted payment URL travels back in the HTTP response; the
		// client navigates away and this controller goes quiet until the
		// return reconciliation.
		return nil, nil

	default:
		return nil, nil
	}
}

// resetIdentity wipes everything in memory tied to the current identity and
// invalidates outstanding timer callbacks.
func (s *Service) resetIdentity(c *controller) {
	c.credential = ""
	c.profile = nil
	c.draftName = ""
	c.offerDeadline = time.Time{}
	c.epoch++
	s.stopLoader(c)
	s.stopOffer(c)
}

func (s *Service) stopLoader(c *controller) {
	if c.loaderTimer != nil {
		c.loaderTimer.Stop()
		c.loaderTimer = nil
	}
}

func (s *Service) stopOffer(c *controller) {
	if c.offerTimer != nil {
		c.offerTimer.Stop()
		c.offerTimer = nil
	}
}

// loaderFired delivers the interstitial completion. A callback scheduled
// before a sign-out carries a stale epoch and is dropped.
func (s *Service) loaderFired(c *controller, epoch int, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	c.loaderTimer = nil
	if err := s.apply(context.Background(), c, funnel.LoaderFinished{CharacterName: name}); err != nil {
		log.Printf("service: loader completion for client %s: %v", c.id, err)
	}
}

// offerFired closes the post-decline prompt when its countdown runs out.
func (s *Service) offerFired(c *controller, epoch int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	c.offerTimer = nil
	if c.state.Offer == nil {
		return
	}
	if err := s.apply(context.Background(), c, funnel.OfferExpired{}); err != nil {
		log.Printf("service: offer expiry for client %s: %v", c.id, err)
	}
}

// markReturn records the address markers before the redirect to the cleaned
// address. The completion marker is made durable; the join shortcut only
// needs to survive the immediate redirect.
func (s *Service) markReturn(ctx context.Context, clientID string, ret reconcile.Return) error {
	c := s.client(clientID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if ret.JoinShortcut {
		c.pendingJoin = true
	}
	// Any marker arriving on a client that already bootstrapped means a full
	// navigation just happened (payment round trip or deep link); force a
	// fresh bootstrap so the marker is acted on instead of serving cached
	// state.
	if ret.PaymentCompleted() || ret.JoinShortcut {
		c.bootstrapped = false
	}
	return s.runner.RecordReturn(ctx, clientID, ret)
}

// bootstrap reconstructs the funnel from persisted state: credential, then
// payment follow-up, then the initial screen.
func (s *Service) bootstrap(ctx context.Context, c *controller) error {
	c.state = funnel.State{}
	c.profile = nil
	c.credential = ""

	credential, ok, err := s.sessions.Credential(ctx, c.id)
	if err != nil {
		return err
	}
	if ok {
		profile, err := s.resolver.Resolve(ctx, credential)
		switch {
		case errors.Is(err, identity.ErrInvalid):
			// The credential is dead. The client is logged out quietly.
			if applyErr := s.apply(ctx, c, funnel.CredentialRejected{}); applyErr != nil {
				return applyErr
			}
			c.bootstrapped = true
			c.pendingJoin = false
			return nil
		case err != nil:
			// Transient outage: the credential stays for next time, this
			// load proceeds signed out.
			log.Printf("service: resolve identity for client %s: %v", c.id, err)
		default:
			c.credential = credential
			c.profile = &profile
		}
	}

	var created *backend.Character
	if c.credential != "" {
		character, processed, err := s.runner.AfterPaymentReturn(ctx, c.id, c.credential)
		if err != nil {
			log.Printf("service: payment follow-up for client %s: %v", c.id, err)
		}
		if processed {
			// Paying may have flipped the premium flag.
			if profile, err := s.resolver.Resolve(ctx, c.credential); err == nil {
				c.profile = &profile
			} else {
				log.Printf("service: refresh identity for client %s: %v", c.id, err)
			}
		}
		created = character
	}

	join := c.pendingJoin
	c.pendingJoin = false
	if err := s.apply(ctx, c, funnel.BootstrapCompleted{JoinShortcut: join}); err != nil {
		return err
	}
	if created != nil {
		if err := s.apply(ctx, c, funnel.CharacterCreated{
			CompanionID:   created.ID,
			CharacterName: created.Name,
		}); err != nil {
			return err
		}
	}
	c.bootstrapped = true
	return nil
}

// Dispatch runs one user event for a client, bootstrapping first if needed.
func (s *Service) Dispatch(ctx context.Context, clientID string, event funnel.Event) error {
	c := s.client(clientID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.bootstrapped {
		if err := s.bootstrap(ctx, c); err != nil {
			return err
		}
	}
	return s.apply(ctx, c, event)
}
