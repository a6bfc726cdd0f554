//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"memoriesbot/internal"
	"memoriesbot/internal/backup"
	"memoriesbot/internal/controllers"
	"memoriesbot/internal/driver/discord"
	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
	"memoriesbot/internal/schedule"
	"memoriesbot/internal/schedule/interfaces"
	"memoriesbot/internal/services"
	"memoriesbot/internal/store"
	"memoriesbot/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		store.ProvideChannelRegistry,
		store.ProvidePinStore,
		store.ProvideRoleStore,
		wire.Bind(new(services.PinSource), new(*store.PinStore)),
		wire.Bind(new(services.RoleSource), new(*store.RoleStore)),
		wire.Bind(new(services.ChannelSource), new(*store.ChannelRegistry)),

		discord.NewDriver,
		wire.Bind(new(models.Platform), new(*discord.Driver)),
		wire.Bind(new(models.Notifier), new(*discord.Driver)),

		services.NewMemberDirectory,
		services.NewAnniversaryScanner,
		services.NewPinService,
		wire.Bind(new(schedule.Scanner), new(*services.AnniversaryScanner)),

		backup.NewZstdCompressor,
		backup.NewFileManager,
		schedule.NewScheduler,

		wire.Bind(new(controllers.MemoryChecker), new(interfaces.SchedulerInterface)),
		wire.Bind(new(controllers.Snapshotter), new(interfaces.SchedulerInterface)),
		wire.Bind(new(controllers.PinAdmin), new(*services.PinService)),
		controllers.NewAdminController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
