package core

import (
	"fmt"
	"strings"
	"time"
)

// EffectiveTimestamp derives the ordering/dedup timestamp for a post in unix
// milliseconds: the record's creation time when present and parseable,
// otherwise the feed-supplied index time. When neither parses the post is
// unusable for watermark comparison and an error is returned; the engine
// treats that as a fetch-class failure rather than comparing against junk.
func EffectiveTimestamp(post Post) (int64, error) {
	if ts, ok := parseWireTime(post.CreatedAt); ok {
		return ts, nil
	}
	if ts, ok := parseWireTime(post.IndexedAt); ok {
		return ts, nil
	}
	return 0, fmt.Errorf(
		"core: post %s has no parseable timestamp (created_at=%q indexed_at=%q)",
		strings.TrimSpace(post.URI), post.CreatedAt, post.IndexedAt,
	)
}

func parseWireTime(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UnixMilli(), true
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UnixMilli(), true
	}
	return 0, false
}
