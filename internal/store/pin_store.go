package store

import (
	"context"
	"iter"
	"time"

	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
)

// WriteMode selects how BulkWrite treats existing content.
type WriteMode int

const (
	// Overwrite truncates the store and writes only the given records.
	Overwrite WriteMode = iota
	// Append keeps existing records and adds the batch after them.
	Append
)

// PinStore is the ordered, durable collection of pin records. Every mutation
// rewrites the whole file through an atomic rename, so readers never take the
// writer lock and always see a complete file.
type PinStore struct {
	path    string
	lock    *writerLock
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewPinStore(path string, lockTimeout time.Duration, logger providers.Logger, metrics providers.MetricsProviderInterface) *PinStore {
	return &PinStore{
		path:    path,
		lock:    newWriterLock("pins", lockTimeout),
		logger:  logger,
		metrics: metrics,
	}
}

func (s *PinStore) Path() string {
	return s.path
}

// Records lazily yields records in insertion order. The first malformed line
// ends the sequence with a *models.MalformedRecordError.
func (s *PinStore) Records() iter.Seq2[models.PinRecord, error] {
	return func(yield func(models.PinRecord, error) bool) {
		for line, err := range models.ReadLines(s.path, models.KindPins) {
			if err != nil {
				yield(models.PinRecord{}, err)
				return
			}
			record, err := models.ParsePinRecord(line.Text)
			if err != nil {
				yield(models.PinRecord{}, &models.MalformedRecordError{File: s.path, Line: line.Number, Reason: err.Error()})
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

// Load reads every record, failing the whole load on the first malformed line.
func (s *PinStore) Load() ([]models.PinRecord, error) {
	var records []models.PinRecord
	for record, err := range s.Records() {
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// PublishTotal loads the store and reports its size to the pins gauge, which
// otherwise only moves on writes.
func (s *PinStore) PublishTotal() (int, error) {
	records, err := s.Load()
	if err != nil {
		return 0, err
	}
	s.metrics.SetPinsTotal(len(records))
	return len(records), nil
}

// Append adds record at the end. Duplicate message ids are not checked here.
func (s *PinStore) Append(ctx context.Context, record models.PinRecord) error {
	return s.mutate(ctx, func(records []models.PinRecord) ([]models.PinRecord, bool) {
		return append(records, record), true
	})
}

// RemoveByMessageID drops every record for the message and reports how many were removed.
// Nothing is rewritten when no record matches.
func (s *PinStore) RemoveByMessageID(ctx context.Context, messageID uint64) (int, error) {
	removed := 0
	err := s.mutate(ctx, func(records []models.PinRecord) ([]models.PinRecord, bool) {
		kept := records[:0]
		for _, r := range records {
			if r.MessageID == messageID {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		return kept, removed > 0
	})
	return removed, err
}

// BulkWrite replaces the store with records, or appends them, depending on mode.
func (s *PinStore) BulkWrite(ctx context.Context, records []models.PinRecord, mode WriteMode) error {
	if mode == Overwrite {
		release, err := s.lock.acquire(ctx)
		if err != nil {
			return err
		}
		defer release()
		return s.write(records)
	}
	return s.mutate(ctx, func(existing []models.PinRecord) ([]models.PinRecord, bool) {
		return append(existing, records...), true
	})
}

// ReplaceForChannel swaps the records of one channel for records. Records of
// other channels keep their positions, the new batch goes to the end.
func (s *PinStore) ReplaceForChannel(ctx context.Context, channelID uint64, records []models.PinRecord) error {
	return s.mutate(ctx, func(existing []models.PinRecord) ([]models.PinRecord, bool) {
		kept := existing[:0]
		for _, r := range existing {
			if r.ChannelID != channelID {
				kept = append(kept, r)
			}
		}
		return append(kept, records...), true
	})
}

// Contains reports whether a record for the message exists.
func (s *PinStore) Contains(messageID uint64) (bool, error) {
	for record, err := range s.Records() {
		if err != nil {
			return false, err
		}
		if record.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (s *PinStore) mutate(ctx context.Context, apply func([]models.PinRecord) ([]models.PinRecord, bool)) error {
	release, err := s.lock.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	records, err := s.Load()
	if err != nil {
		return err
	}
	next, changed := apply(records)
	if !changed {
		return nil
	}
	return s.write(next)
}

func (s *PinStore) write(records []models.PinRecord) error {
	start := time.Now()
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.FormatLine()
	}
	if err := models.WriteLines(s.path, models.KindPins, lines); err != nil {
		s.logger.Errorf(providers.TypeStore, "Error while writing %s: %s", s.path, err)
		return err
	}
	s.metrics.ObserveStoreWrite("pins", time.Since(start))
	s.metrics.SetPinsTotal(len(records))
	s.logger.Debugf(providers.TypeStore, "Wrote %d pins to %s", len(records), s.path)
	return nil
}
