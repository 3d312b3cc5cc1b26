// Package slack formats relay posts as Slack Block Kit payloads and
// delivers them to an incoming-webhook URL.
package slack

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-feed-relay/core"
)

const (
	profileURLTemplate = "https://bsky.app/profile/%s/post/%s"
	openButtonLabel    = "Open in bsky.app"
	buttonActionID     = "button-action"
)

// Formatter is a pure mapping from one post to a webhook payload. It holds
// no state and performs no I/O.
type Formatter struct{}

func NewFormatter() Formatter {
	return Formatter{}
}

// Format builds the block sequence for one post: author context, optional
// text section, one image block per embedded image, then the deep-link
// action. Block order is part of the webhook contract.
func (Formatter) Format(post core.Post, accountID string) core.Message {
	blocks := make([]core.Block, 0, 3+len(post.Images))

	blocks = append(blocks, contextBlock(post.Author))

	if text := post.Text; text != "" {
		blocks = append(blocks, core.Block{
			Type: core.BlockTypeSection,
			Text: core.PlainText(text),
		})
	}

	for _, image := range post.Images {
		alt := image.Alt
		blocks = append(blocks, core.Block{
			Type:     core.BlockTypeImage,
			ImageURL: image.ThumbURL,
			AltText:  &alt,
		})
	}

	blocks = append(blocks, core.Block{
		Type: core.BlockTypeActions,
		Elements: []any{
			core.Button{
				Type:     "button",
				Text:     core.PlainText(openButtonLabel),
				Value:    post.URI,
				URL:      deepLink(accountID, post.ID()),
				ActionID: buttonActionID,
			},
		},
	})

	return core.Message{Blocks: blocks}
}

func contextBlock(author core.Author) core.Block {
	elements := make([]any, 0, 2)
	if author.AvatarURL != "" {
		elements = append(elements, core.ContextImage{
			Type:     "image",
			ImageURL: author.AvatarURL,
			AltText:  author.Handle,
		})
	}
	label := author.DisplayName
	if strings.TrimSpace(label) == "" {
		label = author.Handle
	}
	elements = append(elements, core.PlainText(label))
	return core.Block{Type: core.BlockTypeContext, Elements: elements}
}

func deepLink(accountID string, postID string) string {
	return fmt.Sprintf(profileURLTemplate, strings.TrimSpace(accountID), postID)
}

var _ core.Formatter = Formatter{}
