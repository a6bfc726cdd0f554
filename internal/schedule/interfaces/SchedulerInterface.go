package interfaces

import (
	"context"

	"memoriesbot/internal/services"
)

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
	Trigger(ctx context.Context) (services.ScanReport, error)
	LastReport() (services.ScanReport, bool)
}
