package slack

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/goliatone/go-feed-relay/core"
)

func TestFormatter_FullPost(t *testing.T) {
	post := core.Post{
		URI: "at://did:plc:abc/app.bsky.feed.post/3k2a",
		Author: core.Author{
			Handle:      "alice.bsky.social",
			DisplayName: "Alice",
			AvatarURL:   "https://cdn.bsky.app/avatar/alice.jpg",
		},
		Text: "hello from bluesky",
		Images: []core.EmbeddedImage{
			{ThumbURL: "https://cdn.bsky.app/thumb/1.jpg", Alt: "a cat"},
			{ThumbURL: "https://cdn.bsky.app/thumb/2.jpg"},
		},
	}

	msg := NewFormatter().Format(post, "alice.bsky.social")

	if len(msg.Blocks) != 5 {
		t.Fatalf("expected 5 blocks (context, section, 2 images, actions), got %d", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != core.BlockTypeContext {
		t.Fatalf("expected context block first, got %q", msg.Blocks[0].Type)
	}
	if len(msg.Blocks[0].Elements) != 2 {
		t.Fatalf("expected avatar + name elements, got %d", len(msg.Blocks[0].Elements))
	}
	if msg.Blocks[1].Type != core.BlockTypeSection || msg.Blocks[1].Text.Text != "hello from bluesky" {
		t.Fatalf("expected verbatim section text, got %+v", msg.Blocks[1])
	}
	if msg.Blocks[2].ImageURL != "https://cdn.bsky.app/thumb/1.jpg" || *msg.Blocks[2].AltText != "a cat" {
		t.Fatalf("unexpected first image block: %+v", msg.Blocks[2])
	}
	if *msg.Blocks[3].AltText != "" {
		t.Fatalf("expected empty alt for missing alt text, got %q", *msg.Blocks[3].AltText)
	}

	actions := msg.Blocks[4]
	if actions.Type != core.BlockTypeActions || len(actions.Elements) != 1 {
		t.Fatalf("expected single-button actions block, got %+v", actions)
	}
	button, ok := actions.Elements[0].(core.Button)
	if !ok {
		t.Fatalf("expected button element, got %T", actions.Elements[0])
	}
	if button.URL != "https://bsky.app/profile/alice.bsky.social/post/3k2a" {
		t.Fatalf("unexpected deep link %q", button.URL)
	}
	if button.Value != post.URI {
		t.Fatalf("expected button value to carry post uri, got %q", button.Value)
	}
	if button.ActionID != "button-action" {
		t.Fatalf("unexpected action id %q", button.ActionID)
	}
}

func TestFormatter_MinimalPostSkipsOptionalBlocks(t *testing.T) {
	post := core.Post{
		URI:    "at://did:plc:abc/app.bsky.feed.post/3k2b",
		Author: core.Author{Handle: "alice.bsky.social"},
	}

	msg := NewFormatter().Format(post, "alice.bsky.social")

	if len(msg.Blocks) != 2 {
		t.Fatalf("expected context + actions only, got %d blocks", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != core.BlockTypeContext || msg.Blocks[1].Type != core.BlockTypeActions {
		t.Fatalf("unexpected block order: %q, %q", msg.Blocks[0].Type, msg.Blocks[1].Type)
	}
	if len(msg.Blocks[0].Elements) != 1 {
		t.Fatalf("expected handle-only context, got %d elements", len(msg.Blocks[0].Elements))
	}
	label, ok := msg.Blocks[0].Elements[0].(*core.Text)
	if !ok || label.Text != "alice.bsky.social" {
		t.Fatalf("expected handle fallback label, got %+v", msg.Blocks[0].Elements[0])
	}
}

func TestFormatter_WirePayloadShape(t *testing.T) {
	post := core.Post{
		URI:    "at://did:plc:abc/app.bsky.feed.post/3k2c",
		Author: core.Author{Handle: "alice.bsky.social"},
		Text:   "shape check",
		Images: []core.EmbeddedImage{{ThumbURL: "https://cdn.bsky.app/thumb/3.jpg"}},
	}

	raw, err := json.Marshal(NewFormatter().Format(post, "alice.bsky.social"))
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	payload := string(raw)

	for _, want := range []string{
		`"blocks":[`,
		`"type":"context"`,
		`"type":"section"`,
		`"text":{"type":"plain_text","text":"shape check","emoji":true}`,
		`"type":"image","image_url":"https://cdn.bsky.app/thumb/3.jpg","alt_text":""`,
		`"type":"actions"`,
		`"action_id":"button-action"`,
		`"url":"https://bsky.app/profile/alice.bsky.social/post/3k2c"`,
	} {
		if !strings.Contains(payload, want) {
			t.Fatalf("payload missing %s:\n%s", want, payload)
		}
	}
	if strings.Contains(payload, `"alt_text"`) && strings.Count(payload, `"alt_text"`) != 1 {
		t.Fatalf("alt_text should only appear on image blocks:\n%s", payload)
	}
}

func TestFormatter_IsDeterministic(t *testing.T) {
	post := core.Post{
		URI:    "at://did:plc:abc/app.bsky.feed.post/3k2d",
		Author: core.Author{Handle: "alice.bsky.social", DisplayName: "Alice"},
		Text:   "same in, same out",
	}
	first, err := json.Marshal(NewFormatter().Format(post, "alice.bsky.social"))
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	second, err := json.Marshal(NewFormatter().Format(post, "alice.bsky.social"))
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("formatter output is not deterministic")
	}
}
