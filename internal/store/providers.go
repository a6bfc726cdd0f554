package store

import (
	"memoriesbot/internal/providers"
	"memoriesbot/internal/structures"
)

func ProvideChannelRegistry(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *ChannelRegistry {
	return NewChannelRegistry(providers.StoragePath(conf, conf.Storage.ChannelsFile), conf.Storage.LockTimeout, logger, metrics)
}

func ProvidePinStore(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *PinStore {
	return NewPinStore(providers.StoragePath(conf, conf.Storage.PinsFile), conf.Storage.LockTimeout, logger, metrics)
}

func ProvideRoleStore(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *RoleStore {
	return NewRoleStore(providers.StoragePath(conf, conf.Storage.RolesFile), conf.Storage.LockTimeout, logger, metrics)
}
