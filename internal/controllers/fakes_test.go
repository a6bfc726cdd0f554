package controllers

import (
	"context"

	"memoriesbot/internal/models"
	"memoriesbot/internal/services"
)

type fakeChecker struct {
	report    services.ScanReport
	err       error
	last      *services.ScanReport
	triggered int
}

func (f *fakeChecker) Trigger(_ context.Context) (services.ScanReport, error) {
	f.triggered++
	return f.report, f.err
}

func (f *fakeChecker) LastReport() (services.ScanReport, bool) {
	if f.last == nil {
		return services.ScanReport{}, false
	}
	return *f.last, true
}

type fakePins struct {
	added     [][2]uint64
	roles     [][2]uint64
	resets    int
	records   []models.PinRecord
	status    services.StoreStatus
	resynced  int
	err       error
	statusErr error
}

func (f *fakePins) ResyncPins(_ context.Context) (int, error) {
	return f.resynced, f.err
}

func (f *fakePins) Pins() ([]models.PinRecord, error) {
	return f.records, f.err
}

func (f *fakePins) Status() (services.StoreStatus, error) {
	return f.status, f.statusErr
}

func (f *fakePins) AddChannel(_ context.Context, guildID, channelID uint64) (int, error) {
	f.added = append(f.added, [2]uint64{guildID, channelID})
	return len(f.records), f.err
}

func (f *fakePins) SetRole(_ context.Context, guildID, roleID uint64) error {
	f.roles = append(f.roles, [2]uint64{guildID, roleID})
	return f.err
}

func (f *fakePins) Reset(_ context.Context) error {
	f.resets++
	return f.err
}

type fakeSnapshots struct {
	persisted int
	err       error
}

func (f *fakeSnapshots) Persist() error {
	f.persisted++
	return f.err
}
