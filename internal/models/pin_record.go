package models

import (
	"fmt"
	"strconv"
	"time"
)

// PinRecord is one archived pin.
type PinRecord struct {
	MessageID uint64    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
	AuthorID  uint64    `json:"author_id"`
	ChannelID uint64    `json:"channel_id"`
}

// FormatLine renders the record as `messageId, isoTimestamp, authorId, channelId`.
func (r PinRecord) FormatLine() string {
	return strconv.FormatUint(r.MessageID, 10) + fieldSeparator +
		r.Timestamp.Format(time.RFC3339Nano) + fieldSeparator +
		strconv.FormatUint(r.AuthorID, 10) + fieldSeparator +
		strconv.FormatUint(r.ChannelID, 10)
}

// ParsePinRecord is the inverse of FormatLine.
func ParsePinRecord(line string) (PinRecord, error) {
	fields := splitFields(line)
	if len(fields) != 4 {
		return PinRecord{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}
	messageID, err := parseID("message id", fields[0])
	if err != nil {
		return PinRecord{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, fields[1])
	if err != nil {
		return PinRecord{}, fmt.Errorf("timestamp %q: %w", fields[1], err)
	}
	authorID, err := parseID("author id", fields[2])
	if err != nil {
		return PinRecord{}, err
	}
	channelID, err := parseID("channel id", fields[3])
	if err != nil {
		return PinRecord{}, err
	}
	return PinRecord{MessageID: messageID, Timestamp: ts, AuthorID: authorID, ChannelID: channelID}, nil
}
