package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
	"memoriesbot/internal/structures"
)

const (
	defaultQueueSize     = 256
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
	defaultEventTimeout  = 30 * time.Second

	intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsGuildMembers
)

// EventHandler receives pin bookkeeping events in gateway order.
type EventHandler interface {
	OnPinsUpdated(ctx context.Context, channelID uint64) error
	OnMessageDeleted(ctx context.Context, channelID, messageID uint64) error
}

// restClient is the subset of *discordgo.Session used for REST calls.
type restClient interface {
	ChannelMessagesPinned(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type driverConfig struct {
	status        string
	queueSize     int
	retryAttempts uint
	retryDelay    time.Duration
	eventTimeout  time.Duration
}

// DriverOption mutates driver configuration.
type DriverOption func(*driverConfig)

// WithStatus sets the "watching" activity sent with IDENTIFY.
func WithStatus(status string) DriverOption {
	return func(cfg *driverConfig) {
		cfg.status = status
	}
}

// WithQueueSize bounds the number of gateway events waiting for the worker.
func WithQueueSize(size int) DriverOption {
	return func(cfg *driverConfig) {
		if size > 0 {
			cfg.queueSize = size
		}
	}
}

// WithRetry configures retries of temporary REST failures.
func WithRetry(attempts uint, delay time.Duration) DriverOption {
	return func(cfg *driverConfig) {
		if attempts > 0 {
			cfg.retryAttempts = attempts
		}
		if delay > 0 {
			cfg.retryDelay = delay
		}
	}
}

// WithEventTimeout bounds the handling time of one gateway event.
func WithEventTimeout(timeout time.Duration) DriverOption {
	return func(cfg *driverConfig) {
		if timeout > 0 {
			cfg.eventTimeout = timeout
		}
	}
}

type eventKind int

const (
	eventPinsUpdated eventKind = iota
	eventMessageDeleted
)

type event struct {
	kind      eventKind
	channelID uint64
	messageID uint64
}

// Driver connects to the Discord gateway, feeds pin events to an EventHandler
// and implements models.Platform and models.Notifier on top of the REST API.
type Driver struct {
	cfg     driverConfig
	token   string
	session *discordgo.Session
	rest    restClient
	guilds  func() []models.Guild
	logger  providers.Logger

	mu        sync.Mutex
	opened    bool
	events    chan event
	quit      chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	removes   []func()
	ready     chan struct{}
	readyOnce sync.Once
}

func NewDriver(conf *structures.Config, logger providers.Logger) (*Driver, error) {
	return New(conf.Bot.Token, logger,
		WithStatus(conf.Bot.Status),
		WithRetry(conf.Discord.RetryAttempts, conf.Discord.RetryDelay),
		WithEventTimeout(conf.Discord.EventTimeout),
	)
}

// New creates a driver for a bot token. The gateway is not contacted until Open.
func New(token string, logger providers.Logger, options ...DriverOption) (*Driver, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("new discord session: %w", err)
	}
	session.Identify.Intents = intents
	session.SyncEvents = true

	d := newDriver(session, logger, options...)
	if d.cfg.status != "" {
		session.Identify.Presence = watchingPresence(d.cfg.status)
	}
	d.token = token
	d.session = session
	d.guilds = func() []models.Guild {
		return stateGuilds(session.State)
	}
	return d, nil
}

func newDriver(rest restClient, logger providers.Logger, options ...DriverOption) *Driver {
	cfg := driverConfig{
		queueSize:     defaultQueueSize,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
		eventTimeout:  defaultEventTimeout,
	}
	for _, option := range options {
		option(&cfg)
	}
	return &Driver{
		cfg:    cfg,
		rest:   rest,
		logger: logger,
		guilds: func() []models.Guild { return nil },
		ready:  make(chan struct{}),
	}
}

// Open registers the gateway handlers, starts the event worker and connects.
func (d *Driver) Open(handler EventHandler) error {
	if handler == nil {
		return errors.New("open discord driver: nil handler")
	}
	if d.token == "" {
		return errors.New("open discord driver: bot token is not configured")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opened {
		return errors.New("open discord driver: already open")
	}

	d.start(handler)
	d.removes = append(d.removes,
		d.session.AddHandler(func(_ *discordgo.Session, e *discordgo.ChannelPinsUpdate) {
			d.onPinsUpdate(e)
		}),
		d.session.AddHandler(func(_ *discordgo.Session, e *discordgo.MessageDelete) {
			d.onMessageDelete(e)
		}),
		// With SyncEvents the READY handler runs while Open holds the session
		// lock, so it must not call back into the session.
		d.session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Ready) {
			d.readyOnce.Do(func() { close(d.ready) })
		}),
	)

	if err := d.session.Open(); err != nil {
		d.stop()
		return fmt.Errorf("open discord gateway: %w", err)
	}
	d.opened = true
	d.logger.Infof(providers.TypeEvent, "Connected to Discord gateway")
	return nil
}

// Close disconnects from the gateway and drains the event worker.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return nil
	}
	d.opened = false

	err := d.session.Close()
	d.stop()
	if err != nil {
		return fmt.Errorf("close discord gateway: %w", err)
	}
	return nil
}

// WaitReady blocks until the gateway delivered READY and the guild list is known.
func (d *Driver) WaitReady(ctx context.Context) error {
	select {
	case <-d.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for discord ready: %w", ctx.Err())
	}
}

func (d *Driver) start(handler EventHandler) {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.quit = make(chan struct{})
	d.events = make(chan event, d.cfg.queueSize)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.work(ctx, handler)
	}()
}

func (d *Driver) stop() {
	for _, remove := range d.removes {
		remove()
	}
	d.removes = nil
	if d.cancel != nil {
		close(d.quit)
		d.wg.Wait()
		d.cancel()
		d.cancel = nil
	}
}

// work handles queued events one at a time. On quit it drains what is
// already queued and returns.
func (d *Driver) work(ctx context.Context, handler EventHandler) {
	for {
		select {
		case ev := <-d.events:
			d.dispatch(ctx, handler, ev)
		case <-d.quit:
			for {
				select {
				case ev := <-d.events:
					d.dispatch(ctx, handler, ev)
				default:
					return
				}
			}
		}
	}
}

func (d *Driver) dispatch(ctx context.Context, handler EventHandler, ev event) {
	eventCtx, cancel := context.WithTimeout(ctx, d.cfg.eventTimeout)
	defer cancel()

	var err error
	switch ev.kind {
	case eventPinsUpdated:
		err = handler.OnPinsUpdated(eventCtx, ev.channelID)
	case eventMessageDeleted:
		err = handler.OnMessageDeleted(eventCtx, ev.channelID, ev.messageID)
	}
	if err != nil {
		d.logger.Warnf(providers.TypeEvent, "Event for channel %d failed: %s", ev.channelID, err)
	}
}

func (d *Driver) enqueue(ev event) {
	select {
	case d.events <- ev:
	default:
		d.logger.Errorf(providers.TypeEvent, "Event queue is full, dropping event for channel %d", ev.channelID)
	}
}

func (d *Driver) onPinsUpdate(e *discordgo.ChannelPinsUpdate) {
	if e == nil || e.GuildID == "" {
		return
	}
	channelID, err := parseID(e.ChannelID)
	if err != nil {
		d.logger.Warnf(providers.TypeEvent, "Ignoring pins update: %s", err)
		return
	}
	d.enqueue(event{kind: eventPinsUpdated, channelID: channelID})
}

func (d *Driver) onMessageDelete(e *discordgo.MessageDelete) {
	if e == nil || e.Message == nil || e.GuildID == "" {
		return
	}
	channelID, err := parseID(e.ChannelID)
	if err != nil {
		d.logger.Warnf(providers.TypeEvent, "Ignoring message delete: %s", err)
		return
	}
	messageID, err := parseID(e.ID)
	if err != nil {
		d.logger.Warnf(providers.TypeEvent, "Ignoring message delete: %s", err)
		return
	}
	d.enqueue(event{kind: eventMessageDeleted, channelID: channelID, messageID: messageID})
}

func watchingPresence(status string) discordgo.GatewayStatusUpdate {
	return discordgo.GatewayStatusUpdate{
		Game:   discordgo.Activity{Name: status, Type: discordgo.ActivityTypeWatching},
		Status: string(discordgo.StatusOnline),
	}
}

func stateGuilds(state *discordgo.State) []models.Guild {
	if state == nil {
		return nil
	}
	state.RLock()
	defer state.RUnlock()

	guilds := make([]models.Guild, 0, len(state.Guilds))
	for _, g := range state.Guilds {
		id, err := parseID(g.ID)
		if err != nil {
			continue
		}
		guilds = append(guilds, models.Guild{ID: id, Name: g.Name})
	}
	return guilds
}
