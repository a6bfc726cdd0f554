package services

import (
	"context"
	"errors"
	"fmt"

	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
	"memoriesbot/internal/store"
)

// PinService applies platform events and operator requests to the stores.
type PinService struct {
	channels *store.ChannelRegistry
	pins     *store.PinStore
	roles    *store.RoleStore
	platform models.Platform
	logger   providers.Logger
}

func NewPinService(channels *store.ChannelRegistry, pins *store.PinStore, roles *store.RoleStore, platform models.Platform, logger providers.Logger) *PinService {
	return &PinService{
		channels: channels,
		pins:     pins,
		roles:    roles,
		platform: platform,
		logger:   logger,
	}
}

// OnPinsUpdated archives the channel's most recent pin. Pin updates also fire
// on unpin, so a pin that is already archived is left alone.
func (ps *PinService) OnPinsUpdated(ctx context.Context, channelID uint64) error {
	if !ps.channels.Contains(channelID) {
		return nil
	}

	pinned, err := ps.platform.PinnedMessages(ctx, channelID)
	if err != nil {
		return fmt.Errorf("fetch pins of channel %d: %w", channelID, err)
	}
	if len(pinned) == 0 {
		return nil
	}

	latest := pinned[0]
	exists, err := ps.pins.Contains(latest.ID)
	if err != nil {
		return err
	}
	if exists {
		ps.logger.Debugf(providers.TypeEvent, "Pin %d in channel %d already archived", latest.ID, channelID)
		return nil
	}

	if err := ps.pins.Append(ctx, latest.PinRecord()); err != nil {
		return err
	}
	ps.logger.Infof(providers.TypeEvent, "Archived pin %d from channel %d", latest.ID, channelID)
	return nil
}

// OnMessageDeleted drops the archived pin of a deleted message.
func (ps *PinService) OnMessageDeleted(ctx context.Context, channelID, messageID uint64) error {
	if !ps.channels.Contains(channelID) {
		return nil
	}
	removed, err := ps.pins.RemoveByMessageID(ctx, messageID)
	if err != nil {
		return err
	}
	if removed > 0 {
		ps.logger.Infof(providers.TypeEvent, "Removed deleted pin %d from channel %d", messageID, channelID)
	}
	return nil
}

// AddChannel starts watching a channel of the guild and archives its current pins.
func (ps *PinService) AddChannel(ctx context.Context, guildID, channelID uint64) (int, error) {
	if ps.channels.Contains(channelID) {
		return 0, fmt.Errorf("channel %d: %w", channelID, models.ErrChannelAlreadyWatched)
	}
	if _, err := ps.platform.Channel(ctx, guildID, channelID); err != nil {
		return 0, fmt.Errorf("channel %d in guild %d: %w", channelID, guildID, err)
	}

	pinned, err := ps.platform.PinnedMessages(ctx, channelID)
	if err != nil {
		return 0, fmt.Errorf("fetch pins of channel %d: %w", channelID, err)
	}

	if err := ps.channels.Append(ctx, channelID); err != nil {
		return 0, err
	}
	if err := ps.pins.BulkWrite(ctx, toRecords(pinned), store.Append); err != nil {
		return 0, err
	}
	ps.logger.Infof(providers.TypeEvent, "Watching channel %d, archived %d pins", channelID, len(pinned))
	return len(pinned), nil
}

// ResyncPins refetches the pins of every watched channel and replaces the pin
// store in a single write. Nothing is written if a fetch fails.
func (ps *PinService) ResyncPins(ctx context.Context) (int, error) {
	watched, err := ps.channels.Channels()
	if err != nil {
		return 0, err
	}
	guilds, err := ps.platform.Guilds(ctx)
	if err != nil {
		return 0, fmt.Errorf("list guilds: %w", err)
	}

	var records []models.PinRecord
	seen := make(map[uint64]struct{}, len(watched))
	for _, guild := range guilds {
		for _, channelID := range watched {
			if _, done := seen[channelID]; done {
				continue
			}
			if _, err := ps.platform.Channel(ctx, guild.ID, channelID); err != nil {
				if errors.Is(err, models.ErrUnresolvedReference) {
					continue
				}
				return 0, fmt.Errorf("resolve channel %d: %w", channelID, err)
			}
			seen[channelID] = struct{}{}

			pinned, err := ps.platform.PinnedMessages(ctx, channelID)
			if err != nil {
				return 0, fmt.Errorf("fetch pins of channel %d: %w", channelID, err)
			}
			records = append(records, toRecords(pinned)...)
		}
	}

	if err := ps.pins.BulkWrite(ctx, records, store.Overwrite); err != nil {
		return 0, err
	}
	ps.logger.Infof(providers.TypeEvent, "Resynced %d pins from %d channels", len(records), len(seen))
	return len(records), nil
}

// SetRole makes roleID the role mentioned with the guild's memories.
func (ps *PinService) SetRole(ctx context.Context, guildID, roleID uint64) error {
	if err := ps.roles.SetBindingForGuild(ctx, guildID, roleID); err != nil {
		return err
	}
	ps.logger.Infof(providers.TypeEvent, "Role %d bound to guild %d", roleID, guildID)
	return nil
}

// Reset wipes all three stores. A failure part way leaves the earlier stores empty.
func (ps *PinService) Reset(ctx context.Context) error {
	if err := ps.pins.BulkWrite(ctx, nil, store.Overwrite); err != nil {
		return err
	}
	if err := ps.channels.Reset(ctx); err != nil {
		return err
	}
	if err := ps.roles.Reset(ctx); err != nil {
		return err
	}
	ps.logger.Warnf(providers.TypeEvent, "All stores reset")
	return nil
}

type StoreStatus struct {
	Channels int `json:"channels"`
	Pins     int `json:"pins"`
	Roles    int `json:"roles"`
}

func (ps *PinService) Status() (StoreStatus, error) {
	pins, err := ps.pins.PublishTotal()
	if err != nil {
		return StoreStatus{}, err
	}
	roles, err := ps.roles.Load()
	if err != nil {
		return StoreStatus{}, err
	}
	return StoreStatus{Channels: ps.channels.Len(), Pins: pins, Roles: len(roles)}, nil
}

// Pins returns the archived records in store order.
func (ps *PinService) Pins() ([]models.PinRecord, error) {
	return ps.pins.Load()
}

func toRecords(messages []models.Message) []models.PinRecord {
	records := make([]models.PinRecord, len(messages))
	for i, m := range messages {
		records[i] = m.PinRecord()
	}
	return records
}
