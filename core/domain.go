package core

import (
	"strings"
	"time"
)

// Author describes the feed account that wrote a post. DisplayName and
// AvatarURL are optional; Handle is always present on the wire.
type Author struct {
	Handle      string
	DisplayName string
	AvatarURL   string
}

// EmbeddedImage is one image attached to a post. Alt may be empty.
type EmbeddedImage struct {
	ThumbURL string
	FullURL  string
	Alt      string
}

// Post is an immutable record observed from the feed. Optional fields are
// empty strings or nil slices, never dynamic lookups.
type Post struct {
	URI       string
	CID       string
	Author    Author
	Text      string
	CreatedAt string
	IndexedAt string
	Images    []EmbeddedImage
}

// ID returns the final path segment of the post URI, used to build the
// bsky.app deep link.
func (p Post) ID() string {
	uri := strings.TrimSpace(p.URI)
	if uri == "" {
		return ""
	}
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}

// Watermark is the dedup/resume cursor for one account: the effective
// timestamp (unix milliseconds) of the most recently confirmed-delivered
// post. LastTimestamp never regresses for a given account.
type Watermark struct {
	ID            string
	AccountID     string
	LastTimestamp int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type AdvanceWatermarkInput struct {
	AccountID     string
	LastTimestamp int64
}

// Session is the cached authentication state for one account. Payload keeps
// the raw wire blob so token fields the relay does not model still round-trip.
type Session struct {
	AccountID  string
	DID        string
	Handle     string
	AccessJWT  string
	RefreshJWT string
	Payload    []byte
	UpdatedAt  time.Time
}

// RunReport summarizes one engine invocation.
type RunReport struct {
	RunID           string
	AccountID       string
	PostsSeen       int
	PostsDispatched int
	WatermarkBefore int64
	WatermarkAfter  int64
	StartedAt       time.Time
	Duration        time.Duration
}

// Message is the webhook payload: an ordered sequence of presentation blocks.
type Message struct {
	Blocks []Block `json:"blocks"`
}

const (
	BlockTypeContext = "context"
	BlockTypeSection = "section"
	BlockTypeImage   = "image"
	BlockTypeActions = "actions"
)

type Block struct {
	Type     string `json:"type"`
	Elements []any  `json:"elements,omitempty"`
	Text     *Text  `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	// AltText is a pointer so image blocks can carry an explicit empty
	// alt_text while other block types omit the field entirely.
	AltText *string `json:"alt_text,omitempty"`
}

type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// PlainText builds a plain_text object with emoji rendering enabled.
func PlainText(value string) *Text {
	return &Text{Type: "plain_text", Text: value, Emoji: true}
}

// ContextImage is an image element inside a context block.
type ContextImage struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
	AltText  string `json:"alt_text"`
}

// Button is the single element of the actions block; URL carries the
// bsky.app deep link and Value the raw post URI.
type Button struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text"`
	Value    string `json:"value"`
	URL      string `json:"url"`
	ActionID string `json:"action_id"`
}
