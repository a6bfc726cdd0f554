package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"memoriesbot/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("bot.status", "old pins. Add a channel to get started!")
	v.SetDefault("storage.channelsFile", "channels.txt")
	v.SetDefault("storage.pinsFile", "pins.txt")
	v.SetDefault("storage.rolesFile", "roles.txt")
	v.SetDefault("storage.lockTimeout", 5*time.Second)
	v.SetDefault("memories.channelName", "memories-channel")
	v.SetDefault("memories.deletedAccountLabel", "Deleted Account")
	v.SetDefault("memories.hour", 12)
	v.SetDefault("memories.minute", 0)
	v.SetDefault("discord.retryAttempts", 3)
	v.SetDefault("discord.retryDelay", time.Second)
	v.SetDefault("discord.eventTimeout", 30*time.Second)
	v.SetDefault("cache.ttl", 10*time.Minute)

	v.BindEnv("bot.token", "MEMORIES_BOT_TOKEN")
	v.BindEnv("logger.level", "MEMORIES_LOG_LEVEL")
	v.BindEnv("storage.dir", "MEMORIES_DATA_DIR")
	v.BindEnv("memories.hour", "MEMORIES_SCAN_HOUR")
	v.BindEnv("memories.minute", "MEMORIES_SCAN_MINUTE")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "MemoriesBot"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

// StoragePath joins a store file name onto the data directory.
func StoragePath(conf *structures.Config, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(conf.Storage.Dir, name)
}
