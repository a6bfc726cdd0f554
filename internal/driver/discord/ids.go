package discord

import (
	"fmt"
	"strconv"
)

const jumpLinkFormat = "https://discord.com/channels/%s/%s/%s"

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse snowflake %q: %w", raw, err)
	}
	return id, nil
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// JumpLink builds the permalink of a message.
func JumpLink(guildID, channelID, messageID uint64) string {
	return fmt.Sprintf(jumpLinkFormat, formatID(guildID), formatID(channelID), formatID(messageID))
}
