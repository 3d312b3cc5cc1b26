package sqlstore

import "github.com/goliatone/go-feed-relay/core"

var (
	_ core.WatermarkStore = (*WatermarkStore)(nil)
	_ core.SessionStore   = (*SessionStore)(nil)
	_ core.SessionStore   = (*CachedSessionStore)(nil)
)
