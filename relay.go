// Package relay periodically mirrors one Bluesky account's recent posts to
// a Slack incoming webhook, deduplicating across runs with a persistent
// per-account watermark.
package relay

import "github.com/goliatone/go-feed-relay/core"

type Config = core.Config

type AccountConfig = core.AccountConfig

type FeedConfig = core.FeedConfig

type WebhookConfig = core.WebhookConfig

type Post = core.Post
type Author = core.Author
type EmbeddedImage = core.EmbeddedImage
type Watermark = core.Watermark
type Session = core.Session
type RunReport = core.RunReport
type Message = core.Message

type WatermarkStore = core.WatermarkStore
type SessionStore = core.SessionStore
type SessionGateway = core.SessionGateway
type FeedClient = core.FeedClient
type Formatter = core.Formatter
type Dispatcher = core.Dispatcher
type AccountLocker = core.AccountLocker

type Logger = core.Logger
type LoggerProvider = core.LoggerProvider

func DefaultConfig() Config {
	return core.DefaultConfig()
}
