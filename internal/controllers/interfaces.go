package controllers

import (
	"context"

	"memoriesbot/internal/models"
	"memoriesbot/internal/services"
)

type MemoryChecker interface {
	Trigger(ctx context.Context) (services.ScanReport, error)
	LastReport() (services.ScanReport, bool)
}

type PinAdmin interface {
	AddChannel(ctx context.Context, guildID, channelID uint64) (int, error)
	SetRole(ctx context.Context, guildID, roleID uint64) error
	Reset(ctx context.Context) error
	ResyncPins(ctx context.Context) (int, error)
	Pins() ([]models.PinRecord, error)
	Status() (services.StoreStatus, error)
}

// Snapshotter writes the store backup. It is a no-op when backups are disabled.
type Snapshotter interface {
	Persist() error
}
