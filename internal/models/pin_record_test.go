package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinRecord_FormatLine(t *testing.T) {
	r := PinRecord{
		MessageID: 1087712669981233182,
		Timestamp: time.Date(2023, 1, 1, 12, 30, 0, 0, time.UTC),
		AuthorID:  2,
		ChannelID: 3,
	}
	assert.Equal(t, "1087712669981233182, 2023-01-01T12:30:00Z, 2, 3", r.FormatLine())
}

func TestParsePinRecord(t *testing.T) {
	r, err := ParsePinRecord("10, 2023-01-01T12:30:00.5+02:00, 20, 30")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), r.MessageID)
	assert.Equal(t, uint64(20), r.AuthorID)
	assert.Equal(t, uint64(30), r.ChannelID)
	assert.True(t, r.Timestamp.Equal(time.Date(2023, 1, 1, 10, 30, 0, 500_000_000, time.UTC)))
}

func TestParsePinRecord_ToleratesSpacing(t *testing.T) {
	r, err := ParsePinRecord("10,2023-01-01T00:00:00Z,20 ,  30")
	require.NoError(t, err)
	assert.Equal(t, uint64(30), r.ChannelID)
}

func TestParsePinRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "10, 2023-01-01T00:00:00Z, 20"},
		{"too many fields", "10, 2023-01-01T00:00:00Z, 20, 30, 40"},
		{"bad message id", "x, 2023-01-01T00:00:00Z, 20, 30"},
		{"negative author", "10, 2023-01-01T00:00:00Z, -20, 30"},
		{"bad channel", "10, 2023-01-01T00:00:00Z, 20, 3.0"},
		{"bad timestamp", "10, 01/01/2023, 20, 30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePinRecord(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestMessage_PinRecord(t *testing.T) {
	ts := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	m := Message{ID: 1, ChannelID: 2, GuildID: 3, AuthorID: 4, Timestamp: ts, JumpLink: "x"}
	assert.Equal(t, PinRecord{MessageID: 1, Timestamp: ts, AuthorID: 4, ChannelID: 2}, m.PinRecord())
}
