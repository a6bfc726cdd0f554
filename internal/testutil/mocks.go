package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Contains reports whether any rendered entry of the level contains substr.
func (m *MockLogger) Contains(level, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level && strings.Contains(fmt.Sprintf(e.Format, e.Args...), substr) {
			return true
		}
	}
	return false
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key []byte) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[string(key)]
	return val, ok
}

func (m *MockCache) Set(key, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[string(key)] = value
}

// MockCompressor implements backup.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {
	m.Closed = true
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu                sync.Mutex
	Requests          map[string]int
	CacheHits         int
	CacheMisses       int
	StoreWrites       map[string]int
	PinsTotal         int
	Scans             map[string]int
	MemoriesFound     int
	NotificationsSent int
	Skipped           map[string]int
	DeliveryFailures  map[string]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Requests:         make(map[string]int),
		StoreWrites:      make(map[string]int),
		Scans:            make(map[string]int),
		Skipped:          make(map[string]int),
		DeliveryFailures: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests[fmt.Sprintf("%s %d", endpoint, status)]++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) ObserveStoreWrite(store string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreWrites[store]++
}

func (m *MockMetrics) SetPinsTotal(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PinsTotal = count
}

func (m *MockMetrics) IncScans(trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scans[trigger]++
}

func (m *MockMetrics) ObserveScanDuration(_ time.Duration) {}

func (m *MockMetrics) IncMemoriesFound() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MemoriesFound++
}

func (m *MockMetrics) IncNotificationsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationsSent++
}

func (m *MockMetrics) IncSkippedRecords(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Skipped[reason]++
}

func (m *MockMetrics) IncDeliveryFailures(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeliveryFailures[reason]++
}

// MemberKey addresses a member inside a guild.
type MemberKey struct {
	GuildID uint64
	UserID  uint64
}

// MockPlatform implements models.Platform over in-memory fixtures. Missing
// fixtures resolve to ErrUnresolvedReference.
type MockPlatform struct {
	mu sync.Mutex

	GuildList []models.Guild
	GuildsErr error
	Channels  map[uint64]models.Channel
	Messages  map[uint64]models.Message
	Pins      map[uint64][]models.Message
	PinsErr   map[uint64]error
	Members   map[MemberKey]models.Member

	MemberCalls int
}

func NewMockPlatform() *MockPlatform {
	return &MockPlatform{
		Channels: make(map[uint64]models.Channel),
		Messages: make(map[uint64]models.Message),
		Pins:     make(map[uint64][]models.Message),
		PinsErr:  make(map[uint64]error),
		Members:  make(map[MemberKey]models.Member),
	}
}

// AddChannel registers a channel of a guild.
func (m *MockPlatform) AddChannel(guildID, channelID uint64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Channels[channelID] = models.Channel{ID: channelID, GuildID: guildID, Name: name}
}

// AddMessage registers a resolvable message.
func (m *MockPlatform) AddMessage(msg models.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.JumpLink == "" {
		msg.JumpLink = fmt.Sprintf("https://discord.com/channels/%d/%d/%d", msg.GuildID, msg.ChannelID, msg.ID)
	}
	m.Messages[msg.ID] = msg
}

// AddMember registers a resolvable member.
func (m *MockPlatform) AddMember(guildID, userID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Members[MemberKey{GuildID: guildID, UserID: userID}] = models.Member{
		UserID:  userID,
		Mention: fmt.Sprintf("<@%d>", userID),
	}
}

func (m *MockPlatform) Guilds(_ context.Context) ([]models.Guild, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GuildsErr != nil {
		return nil, m.GuildsErr
	}
	return slices.Clone(m.GuildList), nil
}

func (m *MockPlatform) PinnedMessages(_ context.Context, channelID uint64) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.PinsErr[channelID]; err != nil {
		return nil, err
	}
	if _, ok := m.Channels[channelID]; !ok {
		return nil, fmt.Errorf("channel %d: %w", channelID, models.ErrUnresolvedReference)
	}
	return slices.Clone(m.Pins[channelID]), nil
}

func (m *MockPlatform) Message(_ context.Context, channelID, messageID uint64) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.Messages[messageID]
	if !ok || msg.ChannelID != channelID {
		return nil, fmt.Errorf("message %d: %w", messageID, models.ErrUnresolvedReference)
	}
	return &msg, nil
}

func (m *MockPlatform) Member(_ context.Context, guildID, userID uint64) (*models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MemberCalls++
	member, ok := m.Members[MemberKey{GuildID: guildID, UserID: userID}]
	if !ok {
		return nil, fmt.Errorf("member %d: %w", userID, models.ErrUnresolvedReference)
	}
	return &member, nil
}

func (m *MockPlatform) Channel(_ context.Context, guildID, channelID uint64) (*models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	channel, ok := m.Channels[channelID]
	if !ok || channel.GuildID != guildID {
		return nil, fmt.Errorf("channel %d: %w", channelID, models.ErrUnresolvedReference)
	}
	return &channel, nil
}

func (m *MockPlatform) ChannelByName(_ context.Context, guildID uint64, name string) (*models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.Channel
	for _, channel := range m.Channels {
		if channel.GuildID != guildID || channel.Name != name {
			continue
		}
		if found == nil || channel.ID < found.ID {
			c := channel
			found = &c
		}
	}
	if found == nil {
		return nil, fmt.Errorf("channel %q: %w", name, models.ErrUnresolvedReference)
	}
	return found, nil
}

// Sent is one message delivered through MockNotifier.
type Sent struct {
	ChannelID    uint64
	Text         string
	Notification *models.Notification
}

// MockNotifier implements models.Notifier and records deliveries.
type MockNotifier struct {
	mu       sync.Mutex
	Sent     []Sent
	TextErr  error
	NotifErr error
}

func (m *MockNotifier) SendText(_ context.Context, channelID uint64, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TextErr != nil {
		return m.TextErr
	}
	m.Sent = append(m.Sent, Sent{ChannelID: channelID, Text: content})
	return nil
}

func (m *MockNotifier) SendNotification(_ context.Context, channelID uint64, notification models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NotifErr != nil {
		return m.NotifErr
	}
	m.Sent = append(m.Sent, Sent{ChannelID: channelID, Notification: &notification})
	return nil
}

// Notifications returns the structured deliveries in order.
func (m *MockNotifier) Notifications() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, s := range m.Sent {
		if s.Notification != nil {
			out = append(out, *s.Notification)
		}
	}
	return out
}

// Texts returns the plain text deliveries in order.
func (m *MockNotifier) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.Sent {
		if s.Notification == nil {
			out = append(out, s.Text)
		}
	}
	return out
}
