package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goliatone/go-feed-relay/adapters/gologger"
	"github.com/goliatone/go-feed-relay/bluesky"
	"github.com/goliatone/go-feed-relay/command"
	"github.com/goliatone/go-feed-relay/core"
	"github.com/goliatone/go-feed-relay/query"
	"github.com/goliatone/go-feed-relay/slack"
	sqlstore "github.com/goliatone/go-feed-relay/store/sql"
	relaysync "github.com/goliatone/go-feed-relay/sync"
)

// Commands groups the write-side handlers the relay exposes.
type Commands struct {
	TriggerRun        *command.TriggerRunCommand
	AdvanceWatermark  *command.AdvanceWatermarkCommand
	InvalidateSession *command.InvalidateSessionCommand
}

// Queries groups the read-side handlers the relay exposes.
type Queries struct {
	GetWatermark *query.GetWatermarkQuery
	GetSession   *query.GetSessionQuery
}

type facadeOptions struct {
	logger            core.Logger
	loggerProvider    core.LoggerProvider
	httpClient        *http.Client
	persistenceClient any
	watermarks        core.WatermarkStore
	sessions          core.SessionStore
	locker            core.AccountLocker
	now               func() time.Time
}

// Option customizes facade construction.
type Option func(*facadeOptions)

func WithLogger(logger core.Logger) Option {
	return func(o *facadeOptions) {
		o.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *facadeOptions) {
		o.loggerProvider = provider
	}
}

// WithHTTPClient sets the client used for both XRPC and webhook calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *facadeOptions) {
		o.httpClient = client
	}
}

// WithPersistenceClient supplies the database the default stores are built
// on. Accepts a *persistence.Client, a *bun.DB, or anything exposing
// DB() *bun.DB.
func WithPersistenceClient(client any) Option {
	return func(o *facadeOptions) {
		o.persistenceClient = client
	}
}

// WithWatermarkStore overrides the SQL-backed watermark store.
func WithWatermarkStore(store core.WatermarkStore) Option {
	return func(o *facadeOptions) {
		o.watermarks = store
	}
}

// WithSessionStore overrides the SQL-backed session store.
func WithSessionStore(store core.SessionStore) Option {
	return func(o *facadeOptions) {
		o.sessions = store
	}
}

// WithAccountLocker replaces the in-process run lease. Deployments with
// more than one relay instance should provide a shared locker.
func WithAccountLocker(locker core.AccountLocker) Option {
	return func(o *facadeOptions) {
		o.locker = locker
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(o *facadeOptions) {
		o.now = now
	}
}

// Facade wires the stores, the Bluesky gateway, the Slack dispatcher, and
// the sync engine into one ready-to-run relay for a single account.
type Facade struct {
	config     Config
	engine     *relaysync.Engine
	gateway    *bluesky.Gateway
	watermarks core.WatermarkStore
	sessions   core.SessionStore
	commands   Commands
	queries    Queries
}

// New builds a relay from configuration. Stores come from an explicit
// override or the persistence client; one of the two is required.
func New(cfg Config, opts ...Option) (*Facade, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := facadeOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	_, logger := gologger.Resolve(cfg.ServiceName, o.loggerProvider, o.logger)

	watermarks := o.watermarks
	sessions := o.sessions
	if watermarks == nil || sessions == nil {
		if o.persistenceClient == nil {
			return nil, fmt.Errorf("relay: a persistence client or explicit stores are required")
		}
		factory := sqlstore.NewRepositoryFactory()
		if err := factory.BuildStores(o.persistenceClient); err != nil {
			return nil, fmt.Errorf("relay: build stores: %w", err)
		}
		if watermarks == nil {
			watermarks = factory.WatermarkStore()
		}
		if sessions == nil {
			sessions = factory.SessionStore()
		}
	}

	gateway, err := bluesky.NewGateway(bluesky.GatewayConfig{
		ServiceURL:   cfg.Feed.ServiceURL,
		Identifier:   cfg.Account.Identifier,
		AppPassword:  cfg.Account.AppPassword,
		FeedPageSize: cfg.Feed.PageSize,
		HTTPClient:   doerOrNil(o.httpClient),
		Logger:       logger,
		Now:          o.now,
	}, sessions)
	if err != nil {
		return nil, err
	}

	dispatcher, err := slack.NewDispatcher(slack.DispatcherConfig{
		WebhookURL: cfg.Webhook.URL,
		HTTPClient: slackDoerOrNil(o.httpClient),
	})
	if err != nil {
		return nil, err
	}

	engine := relaysync.NewEngine(gateway, watermarks, slack.NewFormatter(), dispatcher)
	engine.Logger = logger
	if o.locker != nil {
		engine.Locker = o.locker
	}
	if cfg.RunLeaseTTL > 0 {
		engine.LeaseTTL = cfg.RunLeaseTTL
	}
	if o.now != nil {
		engine.Now = o.now
	}

	f := &Facade{
		config:     cfg,
		engine:     engine,
		gateway:    gateway,
		watermarks: watermarks,
		sessions:   sessions,
	}
	f.commands = Commands{
		TriggerRun:        command.NewTriggerRunCommand(engine),
		AdvanceWatermark:  command.NewAdvanceWatermarkCommand(watermarks),
		InvalidateSession: command.NewInvalidateSessionCommand(sessions),
	}
	f.queries = Queries{
		GetWatermark: query.NewGetWatermarkQuery(watermarks),
		GetSession:   query.NewGetSessionQuery(sessions),
	}
	return f, nil
}

// NewFromProvider loads configuration through the provider, layers the
// runtime overrides on top, and builds the relay from the result.
func NewFromProvider(ctx context.Context, provider core.ConfigProvider, overrides Config, opts ...Option) (*Facade, error) {
	if provider == nil {
		return nil, fmt.Errorf("relay: config provider is required")
	}
	loaded, err := provider.Load(ctx, DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("relay: load config: %w", err)
	}
	resolved, err := core.GoOptionsResolver{}.Resolve(DefaultConfig(), loaded, overrides)
	if err != nil {
		return nil, fmt.Errorf("relay: resolve config: %w", err)
	}
	return New(resolved, opts...)
}

// Run executes one relay pass for the configured account.
func (f *Facade) Run(ctx context.Context) (core.RunReport, error) {
	if f == nil || f.engine == nil {
		return core.RunReport{}, fmt.Errorf("relay: facade is not initialized")
	}
	report, err := f.engine.Run(ctx, f.config.Account.Identifier)
	return report, core.NormalizeError(err)
}

func (f *Facade) Config() Config {
	if f == nil {
		return Config{}
	}
	return f.config
}

func (f *Facade) Engine() *relaysync.Engine {
	if f == nil {
		return nil
	}
	return f.engine
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) WatermarkStore() core.WatermarkStore {
	if f == nil {
		return nil
	}
	return f.watermarks
}

func (f *Facade) SessionStore() core.SessionStore {
	if f == nil {
		return nil
	}
	return f.sessions
}

func doerOrNil(client *http.Client) bluesky.HTTPDoer {
	if client == nil {
		return nil
	}
	return client
}

func slackDoerOrNil(client *http.Client) slack.HTTPDoer {
	if client == nil {
		return nil
	}
	return client
}
