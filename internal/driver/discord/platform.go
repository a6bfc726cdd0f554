package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/avast/retry-go/v4"
	"github.com/bwmarrin/discordgo"

	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
)

var (
	_ models.Platform = (*Driver)(nil)
	_ models.Notifier = (*Driver)(nil)
)

func (d *Driver) Guilds(_ context.Context) ([]models.Guild, error) {
	return d.guilds(), nil
}

// PinnedMessages lists the channel's pins newest first.
func (d *Driver) PinnedMessages(ctx context.Context, channelID uint64) ([]models.Message, error) {
	channel, err := d.fetchChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	guildID, err := parseID(channel.GuildID)
	if err != nil {
		return nil, fmt.Errorf("channel %d: %w: not a guild channel", channelID, models.ErrUnresolvedReference)
	}

	pinned, err := withRetry(ctx, d, "list pins", func() ([]*discordgo.Message, error) {
		return d.rest.ChannelMessagesPinned(formatID(channelID), discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, mapLookupError(fmt.Sprintf("list pins of channel %d", channelID), err)
	}

	messages := make([]models.Message, 0, len(pinned))
	for _, m := range pinned {
		msg, err := toMessage(m, guildID)
		if err != nil {
			d.logger.Warnf(providers.TypeEvent, "Skipping pinned message in channel %d: %s", channelID, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (d *Driver) Message(ctx context.Context, channelID, messageID uint64) (*models.Message, error) {
	channel, err := d.fetchChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	guildID, err := parseID(channel.GuildID)
	if err != nil {
		return nil, fmt.Errorf("channel %d: %w: not a guild channel", channelID, models.ErrUnresolvedReference)
	}

	m, err := withRetry(ctx, d, "get message", func() (*discordgo.Message, error) {
		return d.rest.ChannelMessage(formatID(channelID), formatID(messageID), discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, mapLookupError(fmt.Sprintf("get message %d", messageID), err)
	}
	msg, err := toMessage(m, guildID)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (d *Driver) Member(ctx context.Context, guildID, userID uint64) (*models.Member, error) {
	m, err := withRetry(ctx, d, "get member", func() (*discordgo.Member, error) {
		return d.rest.GuildMember(formatID(guildID), formatID(userID), discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, mapLookupError(fmt.Sprintf("get member %d of guild %d", userID, guildID), err)
	}
	if m == nil || m.User == nil {
		return nil, fmt.Errorf("member %d: %w", userID, models.ErrUnresolvedReference)
	}
	return &models.Member{UserID: userID, Mention: m.User.Mention()}, nil
}

// Channel resolves a channel and requires it to belong to the guild.
func (d *Driver) Channel(ctx context.Context, guildID, channelID uint64) (*models.Channel, error) {
	channel, err := d.fetchChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel.GuildID != formatID(guildID) {
		return nil, fmt.Errorf("channel %d in guild %d: %w", channelID, guildID, models.ErrUnresolvedReference)
	}
	return &models.Channel{ID: channelID, GuildID: guildID, Name: channel.Name}, nil
}

// ChannelByName returns the first text or announcement channel of the guild
// with the name.
func (d *Driver) ChannelByName(ctx context.Context, guildID uint64, name string) (*models.Channel, error) {
	channels, err := withRetry(ctx, d, "list channels", func() ([]*discordgo.Channel, error) {
		return d.rest.GuildChannels(formatID(guildID), discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, mapLookupError(fmt.Sprintf("list channels of guild %d", guildID), err)
	}
	for _, c := range channels {
		if c == nil || !messageChannel(c.Type) || c.Name != name {
			continue
		}
		id, err := parseID(c.ID)
		if err != nil {
			continue
		}
		return &models.Channel{ID: id, GuildID: guildID, Name: c.Name}, nil
	}
	return nil, fmt.Errorf("channel %q in guild %d: %w", name, guildID, models.ErrUnresolvedReference)
}

func messageChannel(t discordgo.ChannelType) bool {
	return t == discordgo.ChannelTypeGuildText || t == discordgo.ChannelTypeGuildNews
}

func (d *Driver) SendText(ctx context.Context, channelID uint64, content string) error {
	_, err := withRetry(ctx, d, "send text", func() (*discordgo.Message, error) {
		return d.rest.ChannelMessageSend(formatID(channelID), content, discordgo.WithContext(ctx))
	})
	return mapSendError(fmt.Sprintf("send text to channel %d", channelID), err)
}

func (d *Driver) SendNotification(ctx context.Context, channelID uint64, notification models.Notification) error {
	embed := toEmbed(notification)
	_, err := withRetry(ctx, d, "send embed", func() (*discordgo.Message, error) {
		return d.rest.ChannelMessageSendEmbed(formatID(channelID), embed, discordgo.WithContext(ctx))
	})
	return mapSendError(fmt.Sprintf("send notification to channel %d", channelID), err)
}

func (d *Driver) fetchChannel(ctx context.Context, channelID uint64) (*discordgo.Channel, error) {
	channel, err := withRetry(ctx, d, "get channel", func() (*discordgo.Channel, error) {
		return d.rest.Channel(formatID(channelID), discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, mapLookupError(fmt.Sprintf("get channel %d", channelID), err)
	}
	if channel == nil {
		return nil, fmt.Errorf("channel %d: %w", channelID, models.ErrUnresolvedReference)
	}
	return channel, nil
}

func withRetry[T any](ctx context.Context, d *Driver, operation string, fn func() (T, error)) (T, error) {
	return retry.DoWithData(fn,
		retry.Context(ctx),
		retry.Attempts(d.cfg.retryAttempts),
		retry.Delay(d.cfg.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) && isTemporary(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			d.logger.Warnf(providers.TypeEvent, "%s: attempt %d failed: %s", operation, n+1, err)
		}),
	)
}

func toMessage(m *discordgo.Message, guildID uint64) (models.Message, error) {
	if m == nil {
		return models.Message{}, fmt.Errorf("empty message: %w", models.ErrUnresolvedReference)
	}
	id, err := parseID(m.ID)
	if err != nil {
		return models.Message{}, err
	}
	channelID, err := parseID(m.ChannelID)
	if err != nil {
		return models.Message{}, err
	}
	if m.Author == nil {
		return models.Message{}, fmt.Errorf("message %d has no author: %w", id, models.ErrUnresolvedReference)
	}
	authorID, err := parseID(m.Author.ID)
	if err != nil {
		return models.Message{}, err
	}
	return models.Message{
		ID:        id,
		ChannelID: channelID,
		GuildID:   guildID,
		AuthorID:  authorID,
		Timestamp: m.Timestamp,
		JumpLink:  JumpLink(guildID, channelID, id),
	}, nil
}

func toEmbed(n models.Notification) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: n.Title,
		URL:   n.URL,
	}
	for _, f := range n.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value})
	}
	return embed
}
