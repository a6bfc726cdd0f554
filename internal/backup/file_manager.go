package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
	"memoriesbot/internal/store"
)

// FileManager writes and restores compressed snapshots of the stores.
type FileManager struct {
	channels   *store.ChannelRegistry
	pins       *store.PinStore
	roles      *store.RoleStore
	compressor CompressorInterface
	logger     providers.Logger
	now        func() time.Time
}

func NewFileManager(compressor CompressorInterface, channels *store.ChannelRegistry, pins *store.PinStore, roles *store.RoleStore, logger providers.Logger) *FileManager {
	return &FileManager{
		channels:   channels,
		pins:       pins,
		roles:      roles,
		compressor: compressor,
		logger:     logger,
		now:        time.Now,
	}
}

func (f *FileManager) Snapshot() (*models.Snapshot, error) {
	channels, err := f.channels.Load()
	if err != nil {
		return nil, err
	}
	pins, err := f.pins.Load()
	if err != nil {
		return nil, err
	}
	roles, err := f.roles.Load()
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{
		Version:  models.SnapshotVersion,
		TakenAt:  f.now().UTC(),
		Channels: channels,
		Pins:     pins,
		Roles:    roles,
	}, nil
}

func (f *FileManager) SaveToFile(fileName string) error {
	snapshot, err := f.Snapshot()
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// LoadFromFile returns nil without error when no snapshot exists yet.
func (f *FileManager) LoadFromFile(fileName string) (*models.Snapshot, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return nil, err
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(decompressedData, &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Version != models.SnapshotVersion {
		return nil, fmt.Errorf("snapshot %s: unsupported version %d", fileName, snapshot.Version)
	}
	return &snapshot, nil
}

// RestoreIfEmpty refills the stores from the snapshot when all of them are
// empty. Stores with any content are never overwritten.
func (f *FileManager) RestoreIfEmpty(ctx context.Context, fileName string) (bool, error) {
	current, err := f.Snapshot()
	if err != nil {
		return false, err
	}
	if !current.Empty() {
		return false, nil
	}

	snapshot, err := f.LoadFromFile(fileName)
	if err != nil {
		return false, err
	}
	if snapshot == nil || snapshot.Empty() {
		return false, nil
	}

	f.logger.Warnf(providers.TypeStore, "Stores are empty, restoring snapshot taken at %s", snapshot.TakenAt.Format(time.RFC3339))
	if err := f.channels.Replace(ctx, snapshot.Channels); err != nil {
		return false, err
	}
	if err := f.pins.BulkWrite(ctx, snapshot.Pins, store.Overwrite); err != nil {
		return false, err
	}
	if err := f.roles.Replace(ctx, snapshot.Roles); err != nil {
		return false, err
	}
	f.logger.Infof(providers.TypeStore, "Restored %d channels, %d pins, %d roles", len(snapshot.Channels), len(snapshot.Pins), len(snapshot.Roles))
	return true, nil
}

func (f *FileManager) Close() {
	f.compressor.Close()
}
