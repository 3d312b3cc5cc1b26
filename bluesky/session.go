// Package bluesky implements the session gateway and feed source over the
// Bluesky XRPC HTTP API.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-feed-relay/core"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxResponseBodyBytes  = 1 << 20

	createSessionPath  = "/xrpc/com.atproto.server.createSession"
	refreshSessionPath = "/xrpc/com.atproto.server.refreshSession"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type GatewayConfig struct {
	ServiceURL     string
	Identifier     string
	AppPassword    string
	FeedPageSize   int
	RequestTimeout time.Duration
	HTTPClient     HTTPDoer
	Logger         core.Logger
	Now            func() time.Time
}

// Gateway resolves an authenticated feed client for an account. Resume of a
// cached session is attempted first; credential login is the fallback; a
// failure of both is fatal to the run.
type Gateway struct {
	config     GatewayConfig
	sessions   core.SessionStore
	httpClient HTTPDoer
	logger     core.Logger
}

func NewGateway(cfg GatewayConfig, sessions core.SessionStore) (*Gateway, error) {
	if sessions == nil {
		return nil, fmt.Errorf("bluesky: session store is required")
	}
	serviceURL := strings.TrimRight(strings.TrimSpace(cfg.ServiceURL), "/")
	if serviceURL == "" {
		serviceURL = "https://bsky.social"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	logger := glog.Ensure(cfg.Logger)

	return &Gateway{
		config: GatewayConfig{
			ServiceURL:     serviceURL,
			Identifier:     strings.TrimSpace(cfg.Identifier),
			AppPassword:    strings.TrimSpace(cfg.AppPassword),
			FeedPageSize:   cfg.FeedPageSize,
			RequestTimeout: timeout,
			Now:            now,
		},
		sessions:   sessions,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Establish returns an authenticated client for the account. A cached
// session is refreshed when present; on refresh failure (or no cache) the
// gateway logs in with the configured credentials. The fresh session is
// persisted back through the store; persist failures are logged and
// swallowed since the in-memory session is still usable for this run.
func (g *Gateway) Establish(ctx context.Context, accountID string) (core.FeedClient, error) {
	if g == nil || g.httpClient == nil {
		return nil, fmt.Errorf("bluesky: gateway is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("bluesky: account id is required")
	}

	cached, found, err := g.sessions.Get(ctx, accountID)
	if err != nil {
		g.logger.Warn("session cache read failed", "account_id", accountID, "error", err.Error())
		found = false
	}

	if found && strings.TrimSpace(cached.RefreshJWT) != "" {
		refreshed, refreshErr := g.refreshSession(ctx, cached)
		if refreshErr == nil {
			g.logger.Info("session resumed", "account_id", accountID, "did", refreshed.DID)
			g.persistSession(ctx, accountID, refreshed)
			return g.newClient(refreshed), nil
		}
		g.logger.Warn("session resume failed", "account_id", accountID, "error", refreshErr.Error())
	}

	created, loginErr := g.createSession(ctx)
	if loginErr != nil {
		return nil, core.NewAuthError(
			fmt.Sprintf("bluesky: login failed for account %q", accountID),
			loginErr,
		)
	}
	g.logger.Info("session created", "account_id", accountID, "did", created.DID)
	g.persistSession(ctx, accountID, created)
	return g.newClient(created), nil
}

func (g *Gateway) refreshSession(ctx context.Context, cached core.Session) (core.Session, error) {
	return g.sessionCall(ctx, refreshSessionPath, nil, cached.RefreshJWT)
}

func (g *Gateway) createSession(ctx context.Context) (core.Session, error) {
	if g.config.Identifier == "" || g.config.AppPassword == "" {
		return core.Session{}, fmt.Errorf("bluesky: identifier and app password are required")
	}
	body, err := json.Marshal(createSessionRequest{
		Identifier: g.config.Identifier,
		Password:   g.config.AppPassword,
	})
	if err != nil {
		return core.Session{}, fmt.Errorf("bluesky: encode login request: %w", err)
	}
	return g.sessionCall(ctx, createSessionPath, body, "")
}

func (g *Gateway) sessionCall(ctx context.Context, path string, body []byte, bearer string) (core.Session, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.ServiceURL+path, reader)
	if err != nil {
		return core.Session{}, fmt.Errorf("bluesky: build session request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := g.httpClient.Do(req)
	if err != nil {
		return core.Session{}, fmt.Errorf("bluesky: session request transport failure: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodyBytes))
	if err != nil {
		return core.Session{}, fmt.Errorf("bluesky: read session response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return core.Session{}, fmt.Errorf("bluesky: session request returned status %d: %s", res.StatusCode, decodeXRPCError(raw))
	}

	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return core.Session{}, fmt.Errorf("bluesky: decode session response: %w", err)
	}
	if strings.TrimSpace(payload.AccessJWT) == "" {
		return core.Session{}, fmt.Errorf("bluesky: session response is missing access token")
	}

	return core.Session{
		AccountID:  g.config.Identifier,
		DID:        payload.DID,
		Handle:     payload.Handle,
		AccessJWT:  payload.AccessJWT,
		RefreshJWT: payload.RefreshJWT,
		Payload:    raw,
		UpdatedAt:  g.config.Now(),
	}, nil
}

func (g *Gateway) persistSession(ctx context.Context, accountID string, session core.Session) {
	session.AccountID = accountID
	if err := g.sessions.Put(ctx, session); err != nil {
		// Non-fatal: the in-memory session still authenticates this run.
		g.logger.Warn("session persist failed", "account_id", accountID, "error", err.Error())
		return
	}
	g.logger.Debug("session persisted", "account_id", accountID)
}

func (g *Gateway) newClient(session core.Session) *Client {
	return &Client{
		serviceURL: g.config.ServiceURL,
		pageSize:   g.config.FeedPageSize,
		httpClient: g.httpClient,
		session:    session,
	}
}

func decodeXRPCError(raw []byte) string {
	var payload xrpcError
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		if payload.Message != "" {
			return payload.Error + ": " + payload.Message
		}
		return payload.Error
	}
	snippet := strings.TrimSpace(string(raw))
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}
	return snippet
}

var _ core.SessionGateway = (*Gateway)(nil)
