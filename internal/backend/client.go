// Package backend is the HTTP client for the Amoura account and catalog API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/amoura-app/amoura/internal/session"
)

// ErrUnauthorized reports that the backend rejected the presented credential.
var ErrUnauthorized = errors.New("backend: credential rejected")

const tracerName = "github.com/amoura-app/amoura/internal/backend"

// Client calls the account backend over HTTP with JSON bodies.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient builds a backend client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tracer:     otel.Tracer(tracerName),
	}
}

// Credentials is the token material returned by register and login.
type Credentials struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CharacterInput is the payload for creating a companion.
type CharacterInput struct {
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Description  string `json:"description"`
	VisualPrompt string `json:"visual_prompt"`
}

// Character is a created companion as reported by the backend.
type Character struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// CreditPackage is one purchasable credit bundle.
type CreditPackage struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Credits int     `json:"credits"`
	PriceUS float64 `json:"price_usd"`
}

// Checkout is the hosted payment page handed back for a package purchase.
type Checkout struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

// Me fetches the profile for the presented credential. A 401 maps to
// ErrUnauthorized so callers can distinguish a bad credential from an outage.
func (c *Client) Me(ctx context.Context, credential string) (session.Profile, error) {
	var profile session.Profile
	err := c.do(ctx, http.MethodGet, "/auth/me", credential, nil, &profile)
	if err != nil {
		return session.Profile{}, err
	}
	return profile, nil
}

// Register creates an account and returns its credential.
func (c *Client) Register(ctx context.Context, email, password string) (Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", body, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// Login exchanges account credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// CreateCharacter creates a companion under the signed-in account.
func (c *Client) CreateCharacter(ctx context.Context, credential string, input CharacterInput) (Character, error) {
	var character Character
	if err := c.do(ctx, http.MethodPost, "/characters", credential, input, &character); err != nil {
		return Character{}, err
	}
	return character, nil
}

// Packages lists purchasable credit bundles.
func (c *Client) Packages(ctx context.Context) ([]CreditPackage, error) {
	var packages []CreditPackage
	if err := c.do(ctx, http.MethodGet, "/credits/packages", "", nil, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// CreateCheckout opens a hosted payment page for a credit package. The
// success and cancel URLs point back at this service so the return can be
// reconciled.
func (c *Client) CreateCheckout(ctx context.Context, credential, packageID, successURL, cancelURL string) (Checkout, error) {
	body := map[string]string{
		"package_id":  packageID,
		"success_url": successURL,
		"cancel_url":  cancelURL,
	}
	var checkout Checkout
	if err := c.do(ctx, http.MethodPost, "/credits/checkout", credential, body, &checkout); err != nil {
		return Checkout{}, err
	}
	return checkout, nil
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path, credential string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "backend"+path, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	))
	defer span.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope)
		if envelope.Detail != "" {
			return fmt.Errorf("backend %s: %s (status %d)", path, envelope.Detail, resp.StatusCode)
		}
		return fmt.Errorf("backend %s: unexpected status %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
