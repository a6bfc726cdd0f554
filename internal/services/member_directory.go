package services

import (
	"context"
	"encoding/binary"

	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
	"memoriesbot/internal/structures"
)

// MemberDirectory resolves author mentions, caching hits. A member that cannot
// be fetched for any reason is shown with the deleted account label.
type MemberDirectory struct {
	platform models.Platform
	cache    providers.CacheProviderInterface
	fallback string
	logger   providers.Logger
}

func NewMemberDirectory(conf *structures.Config, platform models.Platform, cache providers.CacheProviderInterface, logger providers.Logger) *MemberDirectory {
	return &MemberDirectory{
		platform: platform,
		cache:    cache,
		fallback: conf.Memories.DeletedAccountLabel,
		logger:   logger,
	}
}

// Mention returns the author's mention and whether the member resolved.
func (d *MemberDirectory) Mention(ctx context.Context, guildID, userID uint64) (string, bool) {
	key := memberKey(guildID, userID)
	if val, ok := d.cache.Get(key); ok {
		return string(val), true
	}

	member, err := d.platform.Member(ctx, guildID, userID)
	if err != nil || member == nil {
		d.logger.Debugf(providers.TypeScan, "Member %d of guild %d unavailable, using %q: %v", userID, guildID, d.fallback, err)
		return d.fallback, false
	}
	d.cache.Set(key, []byte(member.Mention))
	return member.Mention, true
}

// memberKey packs both ids big-endian into 16 bytes.
func memberKey(guildID, userID uint64) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key, guildID)
	binary.BigEndian.PutUint64(key[8:], userID)
	return key
}
