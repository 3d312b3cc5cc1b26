package bluesky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-feed-relay/core"
)

const (
	authorFeedPath      = "/xrpc/app.bsky.feed.getAuthorFeed"
	defaultFeedPageSize = 50
	maxFeedPageSize     = 100
)

// Client is an authenticated handle onto the feed service for a single run.
type Client struct {
	serviceURL string
	pageSize   int
	httpClient HTTPDoer
	session    core.Session
}

// Session exposes the authenticated session backing this client.
func (c *Client) Session() core.Session {
	if c == nil {
		return core.Session{}
	}
	return c.session
}

// FetchRecent returns the account's current recent-posts snapshot, newest
// first, bounded by one feed page. The engine reverses and filters it; no
// pagination happens here.
func (c *Client) FetchRecent(ctx context.Context, accountID string) ([]core.Post, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("bluesky: feed client is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("bluesky: account id is required")
	}

	pageSize := c.pageSize
	if pageSize <= 0 {
		pageSize = defaultFeedPageSize
	}
	if pageSize > maxFeedPageSize {
		pageSize = maxFeedPageSize
	}

	query := url.Values{}
	query.Set("actor", accountID)
	query.Set("limit", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.serviceURL+authorFeedPath+"?"+query.Encode(),
		nil,
	)
	if err != nil {
		return nil, core.NewFetchError("bluesky: build author feed request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.session.AccessJWT)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.NewFetchError("bluesky: fetch author feed", err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, core.NewFetchError("bluesky: read author feed response", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, core.NewFetchError(
			fmt.Sprintf("bluesky: author feed returned status %d: %s", res.StatusCode, decodeXRPCError(raw)),
			nil,
		)
	}

	var payload authorFeedResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, core.NewFetchError("bluesky: decode author feed response", err)
	}

	posts := make([]core.Post, 0, len(payload.Feed))
	for _, item := range payload.Feed {
		posts = append(posts, item.Post.toDomain())
	}
	return posts, nil
}

var _ core.FeedClient = (*Client)(nil)
