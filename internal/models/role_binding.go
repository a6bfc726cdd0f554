package models

import (
	"fmt"
	"strconv"
)

// RoleBinding is the role mentioned alongside memories posted in a guild.
type RoleBinding struct {
	RoleID  uint64 `json:"role_id"`
	GuildID uint64 `json:"guild_id"`
}

// Mention renders the platform role mention token.
func (b RoleBinding) Mention() string {
	return "<@&" + strconv.FormatUint(b.RoleID, 10) + ">"
}

// FormatLine renders the binding as `roleId, guildId`.
func (b RoleBinding) FormatLine() string {
	return strconv.FormatUint(b.RoleID, 10) + fieldSeparator + strconv.FormatUint(b.GuildID, 10)
}

func ParseRoleBinding(line string) (RoleBinding, error) {
	fields := splitFields(line)
	if len(fields) != 2 {
		return RoleBinding{}, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	roleID, err := parseID("role id", fields[0])
	if err != nil {
		return RoleBinding{}, err
	}
	guildID, err := parseID("guild id", fields[1])
	if err != nil {
		return RoleBinding{}, err
	}
	return RoleBinding{RoleID: roleID, GuildID: guildID}, nil
}

func FormatChannelLine(channelID uint64) string {
	return strconv.FormatUint(channelID, 10)
}

func ParseChannelLine(line string) (uint64, error) {
	fields := splitFields(line)
	if len(fields) != 1 {
		return 0, fmt.Errorf("expected 1 field, got %d", len(fields))
	}
	return parseID("channel id", fields[0])
}
