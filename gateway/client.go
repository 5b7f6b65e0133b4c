package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/renatrack/renatrack-client/csrf"
	"github.com/renatrack/renatrack-client/internal/config"
	apperrors "github.com/renatrack/renatrack-client/internal/errors"
	"github.com/renatrack/renatrack-client/users"
)

// maxResponseSize caps how much of a response body is read. The session
// endpoints return small payloads; anything larger is a broken server.
const maxResponseSize = 1 << 20

// Client is the HTTP implementation of API. Credentials ride on a cookie
// jar; the anti-forgery token is attached as a header on mutating calls.
type Client struct {
	baseURL    string
	csrfHeader string
	http       *http.Client
	csrf       *csrf.Store
	log        zerolog.Logger
}

var _ API = (*Client)(nil)

// ClientOption modifies the Client instance.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithHTTPClient substitutes the underlying http.Client (primarily for
// testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient initializes a gateway client against the configured base URL.
func NewClient(cfg config.APIConfig, csrfStore *csrf.Store, options ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[NewClient] config is required")
	}
	if csrfStore == nil {
		return nil, errors.New("[NewClient] csrf store is required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[NewClient] cookiejar.New")
	}

	client := &Client{
		baseURL:    cfg.GetAPIBaseURL(),
		csrfHeader: cfg.GetCSRFHeader(),
		csrf:       csrfStore,
		http: &http.Client{
			Jar:     jar,
			Timeout: cfg.GetHTTPTimeout(),
		},
		log: zerolog.Nop(),
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// envelope is the server's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// authPayload is the data half of every session-establishing response.
type authPayload struct {
	User    *users.User     `json:"user"`
	Profile *users.Profile  `json:"profile"`
	Session *sessionPayload `json:"session"`
}

type sessionPayload struct {
	ExpiresAt *time.Time `json:"expiresAt"`
	Token     string     `json:"token,omitempty"`
}

// expiry resolves the declared expiry, falling back to the session token's
// exp claim when the server sent a token but no timestamp.
func (p *authPayload) expiry() *time.Time {
	if p == nil || p.Session == nil {
		return nil
	}
	return p.Session.expiry()
}

func (s *sessionPayload) expiry() *time.Time {
	if s == nil {
		return nil
	}
	if s.ExpiresAt != nil {
		return s.ExpiresAt
	}
	if s.Token != "" {
		if t, err := tokenExpiry(s.Token); err == nil {
			return t
		}
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature. The
// client is not the token's verifier; it only needs the timestamp.
func tokenExpiry(raw string) (*time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, errors.Wrap(err, "[tokenExpiry] ParseUnverified")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("[tokenExpiry] no exp claim")
	}
	return &exp.Time, nil
}

func (c *Client) Me(ctx context.Context) (*AuthResult, error) {
	var payload authPayload
	if err := c.do(ctx, http.MethodGet, RouteMe, nil, &payload, apperrors.ErrSessionInvalid); err != nil {
		return nil, errors.Wrap(err, "[Client.Me] do")
	}
	if payload.User == nil {
		return nil, errors.Wrap(apperrors.ErrMalformedResponse, "[Client.Me] missing user")
	}
	return &AuthResult{User: payload.User, Profile: payload.Profile, ExpiresAt: payload.expiry()}, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var payload authPayload
	if err := c.do(ctx, http.MethodPost, RouteLogin, body, &payload, apperrors.ErrInvalidCredentials); err != nil {
		return nil, errors.Wrap(err, "[Client.Login] do")
	}
	if payload.User == nil {
		return nil, errors.Wrap(apperrors.ErrMalformedResponse, "[Client.Login] missing user")
	}
	return &AuthResult{User: payload.User, Profile: payload.Profile, ExpiresAt: payload.expiry()}, nil
}

func (c *Client) LoginWithGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	body := map[string]string{"idToken": idToken}
	var payload authPayload
	if err := c.do(ctx, http.MethodPost, RouteGoogleLogin, body, &payload, apperrors.ErrInvalidCredentials); err != nil {
		return nil, errors.Wrap(err, "[Client.LoginWithGoogle] do")
	}
	if payload.User == nil {
		return nil, errors.Wrap(apperrors.ErrMalformedResponse, "[Client.LoginWithGoogle] missing user")
	}
	return &AuthResult{User: payload.User, Profile: payload.Profile, ExpiresAt: payload.expiry()}, nil
}

func (c *Client) Register(ctx context.Context, email, password, fullName string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password, "fullName": fullName}
	var payload authPayload
	if err := c.do(ctx, http.MethodPost, RouteRegister, body, &payload, apperrors.ErrRegistrationFailed); err != nil {
		return nil, errors.Wrap(err, "[Client.Register] do")
	}
	if payload.User == nil {
		return nil, errors.Wrap(apperrors.ErrMalformedResponse, "[Client.Register] missing user")
	}
	return &AuthResult{User: payload.User, Profile: payload.Profile, ExpiresAt: payload.expiry()}, nil
}

func (c *Client) Refresh(ctx context.Context) (*time.Time, error) {
	var payload struct {
		Session *sessionPayload `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, RouteRefresh, nil, &payload, apperrors.ErrSessionInvalid); err != nil {
		return nil, errors.Wrap(err, "[Client.Refresh] do")
	}
	return payload.Session.expiry(), nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, RouteLogout, nil, nil, apperrors.ErrSessionInvalid); err != nil {
		return errors.Wrap(err, "[Client.Logout] do")
	}
	return nil
}

func (c *Client) AcceptTerms(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, RouteAcceptTerms, nil, nil, apperrors.ErrSessionInvalid); err != nil {
		return errors.Wrap(err, "[Client.AcceptTerms] do")
	}
	return nil
}

func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := c.do(ctx, http.MethodGet, RouteCSRFToken, nil, &payload, apperrors.ErrSessionInvalid); err != nil {
		return "", errors.Wrap(err, "[Client.CSRFToken] do")
	}
	if payload.CSRFToken == "" {
		return "", errors.Wrap(apperrors.ErrMalformedResponse, "[Client.CSRFToken] empty token")
	}
	return payload.CSRFToken, nil
}

// do issues a request and decodes the envelope. authFailureErr is the
// sentinel used for 401/403 responses: invalid credentials on the login
// endpoints, session invalid everywhere else.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authFailureErr error) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.do] marshal body")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "[Client.do] NewRequestWithContext")
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		if token, ok := c.csrf.Token(); ok {
			req.Header.Set(c.csrfHeader, token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "[Client.do] http.Do")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return errors.Wrap(err, "[Client.do] read body")
	}

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("session service call")

	var env envelope
	if len(raw) > 0 {
		// Tolerate an empty or non-JSON body on error statuses; the
		// status code alone decides the outcome below.
		_ = json.Unmarshal(raw, &env)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrap(authFailureErr, serverMessage(env, "authentication rejected"))
	case resp.StatusCode == http.StatusConflict:
		return errors.Wrap(apperrors.ErrEmailAlreadyRegistered, serverMessage(env, "conflict"))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errors.Wrap(apperrors.ErrServerError, serverMessage(env, resp.Status))
	case len(raw) > 0 && !env.Success:
		return errors.Wrap(apperrors.ErrServerError, serverMessage(env, "request rejected"))
	}

	if out != nil {
		if env.Data == nil {
			return errors.Wrap(apperrors.ErrMalformedResponse, "[Client.do] missing data")
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrapf(apperrors.ErrMalformedResponse, "[Client.do] decode data: %v", err)
		}
	}
	return nil
}

func serverMessage(env envelope, fallback string) string {
	if env.Message != "" {
		return env.Message
	}
	return fallback
}
