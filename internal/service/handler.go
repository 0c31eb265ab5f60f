package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/amoura-app/amoura/internal/funnel"
	apperrors "github.com/amoura-app/amoura/internal/platform/errors"
	"github.com/amoura-app/amoura/internal/platform/id"
	"github.com/amoura-app/amoura/internal/reconcile"
)

// clientCookie identifies a browser across visits, including the round trip
// to the external payment page.
const clientCookie = "amoura_client"

// NewHandler builds the HTTP surface of the funnel service.
func NewHandler(svc *Service) http.Handler {
	h := &handler{svc: svc}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /paywall/packages", h.packages)

	mux.HandleFunc("POST /auth/open", h.authOpen)
	mux.HandleFunc("POST /auth/close", h.event(funnel.AuthClosed{}))
	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/login", h.login)

	mux.HandleFunc("POST /creator/start", h.event(funnel.CreatorStarted{}))
	mux.HandleFunc("POST /creator/complete", h.creatorComplete)

	mux.HandleFunc("POST /paywall/subscribe", h.subscribe)
	mux.HandleFunc("POST /paywall/decline", h.event(funnel.PaywallDeclined{}))
	mux.HandleFunc("POST /offer/dismiss", h.event(funnel.OfferDismissed{}))

	mux.HandleFunc("POST /companions/select", h.selectCompanion)
	mux.HandleFunc("POST /home", h.event(funnel.NavigatedHome{}))
	mux.HandleFunc("POST /logout", h.event(funnel.SignedOut{}))

	return mux
}

type handler struct {
	svc *Service
}

// clientID reads the client cookie, minting one on first visit. The second
// return reports whether a usable id exists; on a mint failure the error
// response has already been written.
func (h *handler) clientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(clientCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	clientID, err := id.NewID()
	if err != nil {
		h.writeError(w, fmt.Errorf("mint client id: %w", err))
		return "", false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookie,
		Value:    clientID,
		Path:     "/",
		MaxAge:   365 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return clientID, true
}

// root serves the funnel snapshot. A load carrying payment or join markers
// is recorded and redirected to the cleaned address first, so a refresh of
// the resulting page can never reprocess them.
func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	ret, clean := reconcile.ParseReturn(r.URL)
	if ret.PaymentCompleted() || ret.JoinShortcut {
		if err := h.svc.markReturn(r.Context(), clientID, ret); err != nil {
			h.writeError(w, err)
			return
		}
		http.Redirect(w, r, clean.RequestURI(), http.StatusFound)
		return
	}

	view, err := h.svc.Snapshot(r.Context(), clientID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) packages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.svc.Packages(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, packages)
}

// event builds a handler that dispatches a fixed funnel event and returns
// the resulting view.
func (h *handler) event(ev funnel.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := h.clientID(w, r)
		if !ok {
			return
		}
		if err := h.svc.Dispatch(r.Context(), clientID, ev); err != nil {
			h.writeError(w, err)
			return
		}
		h.respondView(w, r, clientID)
	}
}

func (h *handler) authOpen(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Dispatch(r.Context(), clientID, funnel.SignInOpened{}); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, clientID)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.readJSON(w, r, &body) {
		return
	}
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Register(r.Context(), clientID, body.Email, body.Password); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, clientID)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.readJSON(w, r, &body) {
		return
	}
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Login(r.Context(), clientID, body.Email, body.Password); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, clientID)
}

func (h *handler) creatorComplete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name         string `json:"name"`
		Age          int    `json:"age"`
		Description  string `json:"description"`
		VisualPrompt string `json:"visual_prompt"`
	}
	if !h.readJSON(w, r, &body) {
		return
	}
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	err := h.svc.CompleteWizard(r.Context(), clientID, funnel.Draft{
		Name:         body.Name,
		Age:          body.Age,
		Description:  body.Description,
		VisualPrompt: body.VisualPrompt,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, clientID)
}

func (h *handler) subscribe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PackageID string `json:"package_id"`
	}
	if !h.readJSON(w, r, &body) {
		return
	}
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	checkoutURL, err := h.svc.Subscribe(r.Context(), clientID, body.PackageID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"checkout_url": checkoutURL})
}

func (h *handler) selectCompanion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CompanionID string `json:"companion_id"`
	}
	if !h.readJSON(w, r, &body) {
		return
	}
	if body.CompanionID == "" {
		h.writeError(w, apperrors.New(apperrors.CodeCompanionNotSelected, "companion id is required"))
		return
	}
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Dispatch(r.Context(), clientID, funnel.CompanionSelected{CompanionID: body.CompanionID}); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, clientID)
}

func (h *handler) respondView(w http.ResponseWriter, r *http.Request, clientID string) {
	view, err := h.svc.Snapshot(r.Context(), clientID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *handler) readJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(out); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("service: encode response: %v", err)
	}
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		h.writeJSON(w, appErr.Code.HTTPStatus(), map[string]string{
			"error": appErr.Message,
			"code":  string(appErr.Code),
		})
		return
	}
	log.Printf("service: internal error: %v", err)
	h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
