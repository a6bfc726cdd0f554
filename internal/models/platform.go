package models

import (
	"context"
	"time"
)

// Guild is a server the bot currently belongs to.
type Guild struct {
	ID   uint64
	Name string
}

// Channel is a resolved channel inside a guild.
type Channel struct {
	ID      uint64
	GuildID uint64
	Name    string
}

// Message is a platform message as seen by the pin bookkeeping.
type Message struct {
	ID        uint64
	ChannelID uint64
	GuildID   uint64
	AuthorID  uint64
	Timestamp time.Time
	JumpLink  string
}

// PinRecord converts the message into its archived form.
func (m Message) PinRecord() PinRecord {
	return PinRecord{
		MessageID: m.ID,
		Timestamp: m.Timestamp,
		AuthorID:  m.AuthorID,
		ChannelID: m.ChannelID,
	}
}

// Member is a resolved guild member.
type Member struct {
	UserID  uint64
	Mention string
}

// NotificationField is one name/value row of a notification.
type NotificationField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Notification is the structured memory message.
type Notification struct {
	Title  string              `json:"title"`
	Fields []NotificationField `json:"fields"`
	URL    string              `json:"url"`
}

// Platform is the query side of the chat platform. Lookups that cannot be
// resolved return an error wrapping ErrUnresolvedReference.
type Platform interface {
	Guilds(ctx context.Context) ([]Guild, error)
	PinnedMessages(ctx context.Context, channelID uint64) ([]Message, error)
	Message(ctx context.Context, channelID, messageID uint64) (*Message, error)
	Member(ctx context.Context, guildID, userID uint64) (*Member, error)
	Channel(ctx context.Context, guildID, channelID uint64) (*Channel, error)
	ChannelByName(ctx context.Context, guildID uint64, name string) (*Channel, error)
}

// Notifier delivers messages. Failures wrap ErrDeliveryFailure.
type Notifier interface {
	SendText(ctx context.Context, channelID uint64, content string) error
	SendNotification(ctx context.Context, channelID uint64, notification Notification) error
}
