package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
)

// ChannelRegistry holds the watched channel ids. Reads are served from memory
// once loaded; this process is the only writer of the file.
type ChannelRegistry struct {
	path    string
	lock    *writerLock
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	mu     sync.RWMutex
	loaded bool
	ids    []uint64
	set    *roaring64.Bitmap
}

func NewChannelRegistry(path string, lockTimeout time.Duration, logger providers.Logger, metrics providers.MetricsProviderInterface) *ChannelRegistry {
	return &ChannelRegistry{
		path:    path,
		lock:    newWriterLock("channels", lockTimeout),
		logger:  logger,
		metrics: metrics,
		set:     roaring64.New(),
	}
}

// Load rereads the channel list. A malformed line fails the whole load and
// leaves the previous in-memory view untouched.
func (r *ChannelRegistry) Load() ([]uint64, error) {
	ids, err := r.read()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.replace(ids)
	r.mu.Unlock()
	return slices.Clone(ids), nil
}

// Contains reports membership, loading the file on first use. A load failure
// is logged and treated as "not watched".
func (r *ChannelRegistry) Contains(channelID uint64) bool {
	if err := r.ensureLoaded(); err != nil {
		r.logger.Errorf(providers.TypeStore, "Cannot load channel list %s: %s", r.path, err)
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.Contains(channelID)
}

// Channels returns the ids in file order.
func (r *ChannelRegistry) Channels() ([]uint64, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.ids), nil
}

// Len is the number of lines in the channel list, duplicates included.
func (r *ChannelRegistry) Len() int {
	ids, err := r.Channels()
	if err != nil {
		return 0
	}
	return len(ids)
}

// Append adds channelID to the end of the list. Avoiding duplicates is the caller's job.
func (r *ChannelRegistry) Append(ctx context.Context, channelID uint64) error {
	return r.rewrite(ctx, func(ids []uint64) []uint64 {
		return append(ids, channelID)
	})
}

// Reset empties the channel list.
func (r *ChannelRegistry) Reset(ctx context.Context) error {
	return r.rewrite(ctx, func([]uint64) []uint64 { return nil })
}

// Replace writes ids as the whole channel list.
func (r *ChannelRegistry) Replace(ctx context.Context, ids []uint64) error {
	return r.rewrite(ctx, func([]uint64) []uint64 { return slices.Clone(ids) })
}

func (r *ChannelRegistry) rewrite(ctx context.Context, apply func([]uint64) []uint64) error {
	release, err := r.lock.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	ids, err := r.read()
	if err != nil {
		return err
	}
	next := apply(ids)

	start := time.Now()
	lines := make([]string, len(next))
	for i, id := range next {
		lines[i] = models.FormatChannelLine(id)
	}
	if err := models.WriteLines(r.path, models.KindChannels, lines); err != nil {
		r.logger.Errorf(providers.TypeStore, "Error while writing %s: %s", r.path, err)
		return err
	}
	r.metrics.ObserveStoreWrite("channels", time.Since(start))

	r.mu.Lock()
	r.replace(next)
	r.mu.Unlock()
	return nil
}

func (r *ChannelRegistry) ensureLoaded() error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	_, err := r.Load()
	return err
}

func (r *ChannelRegistry) read() ([]uint64, error) {
	var ids []uint64
	for line, err := range models.ReadLines(r.path, models.KindChannels) {
		if err != nil {
			return nil, err
		}
		id, err := models.ParseChannelLine(line.Text)
		if err != nil {
			return nil, &models.MalformedRecordError{File: r.path, Line: line.Number, Reason: err.Error()}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// replace must be called under r.mu.Lock().
func (r *ChannelRegistry) replace(ids []uint64) {
	set := roaring64.New()
	for _, id := range ids {
		set.Add(id)
	}
	r.ids = ids
	r.set = set
	r.loaded = true
}
