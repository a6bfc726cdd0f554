package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoriesbot/internal/backup"
	"memoriesbot/internal/models"
	"memoriesbot/internal/services"
	"memoriesbot/internal/store"
	"memoriesbot/internal/structures"
	"memoriesbot/internal/testutil"
)

type fakeScanner struct {
	mu       sync.Mutex
	triggers []string
	err      error
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeScanner) Scan(ctx context.Context, trigger string) (services.ScanReport, error) {
	f.mu.Lock()
	f.triggers = append(f.triggers, trigger)
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return services.ScanReport{}, ctx.Err()
		}
	}
	if f.err != nil {
		return services.ScanReport{}, f.err
	}
	return services.ScanReport{RunID: "run-" + trigger, Trigger: trigger, Matched: 1}, nil
}

func (f *fakeScanner) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.triggers...)
}

func testConfig(dir string) *structures.Config {
	return &structures.Config{
		Memories: structures.MemoriesConfig{
			Hour:      9,
			Minute:    0,
			StatePath: filepath.Join(dir, "state.json"),
		},
		Backup: structures.BackupConfig{
			FilePath: filepath.Join(dir, "backup.zst"),
			Interval: time.Hour,
		},
	}
}

func newTestFileManager(t *testing.T, dir string, compressor backup.CompressorInterface) *backup.FileManager {
	t.Helper()
	logger := &testutil.MockLogger{}
	metrics := testutil.NewMockMetrics()
	channels := store.NewChannelRegistry(filepath.Join(dir, "channels.txt"), time.Second, logger, metrics)
	pins := store.NewPinStore(filepath.Join(dir, "pins.txt"), time.Second, logger, metrics)
	roles := store.NewRoleStore(filepath.Join(dir, "roles.txt"), time.Second, logger, metrics)
	return backup.NewFileManager(compressor, channels, pins, roles, logger)
}

func newTestScheduler(t *testing.T, scanner Scanner) (*Scheduler, *structures.Config, *testutil.MockLogger) {
	t.Helper()
	dir := t.TempDir()
	conf := testConfig(dir)
	logger := &testutil.MockLogger{}
	s := newScheduler(conf, logger, scanner, newTestFileManager(t, dir, &testutil.MockCompressor{}))
	return s, conf, logger
}

func TestScheduler_TriggerStoresLastReport(t *testing.T) {
	scanner := &fakeScanner{}
	s, _, _ := newTestScheduler(t, scanner)

	_, ok := s.LastReport()
	assert.False(t, ok)

	report, err := s.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TriggerManual, report.Trigger)

	last, ok := s.LastReport()
	require.True(t, ok)
	assert.Equal(t, "run-manual", last.RunID)
	assert.Equal(t, []string{TriggerManual}, scanner.calls())
}

func TestScheduler_FailedScanKeepsPreviousReport(t *testing.T) {
	scanner := &fakeScanner{}
	s, _, _ := newTestScheduler(t, scanner)

	_, err := s.Trigger(context.Background())
	require.NoError(t, err)

	scanner.err = models.ErrMalformedRecord
	_, err = s.Trigger(context.Background())
	assert.ErrorIs(t, err, models.ErrMalformedRecord)

	last, ok := s.LastReport()
	require.True(t, ok)
	assert.Equal(t, "run-manual", last.RunID)
}

func TestScheduler_OneScanPerTrigger(t *testing.T) {
	scanner := &fakeScanner{started: make(chan struct{}, 2), release: make(chan struct{})}
	s, _, _ := newTestScheduler(t, scanner)

	done := make(chan error, 1)
	go func() {
		_, err := s.Trigger(context.Background())
		done <- err
	}()
	<-scanner.started

	_, err := s.Trigger(context.Background())
	assert.ErrorIs(t, err, models.ErrScanInFlight)

	// A different trigger identity is not blocked.
	dailyDone := make(chan error, 1)
	go func() {
		_, err := s.run(context.Background(), TriggerDaily)
		dailyDone <- err
	}()
	<-scanner.started

	close(scanner.release)
	require.NoError(t, <-done)
	require.NoError(t, <-dailyDone)

	_, err = s.Trigger(context.Background())
	assert.NoError(t, err)
}

func TestScheduler_TriggerOutlivesCaller(t *testing.T) {
	scanner := &fakeScanner{started: make(chan struct{}, 1), release: make(chan struct{})}
	s, _, _ := newTestScheduler(t, scanner)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Trigger(ctx)
		done <- err
	}()
	<-scanner.started

	cancel()
	close(scanner.release)
	require.NoError(t, <-done)

	last, ok := s.LastReport()
	require.True(t, ok)
	assert.Equal(t, "run-manual", last.RunID)
}

func TestScheduler_UnknownTrigger(t *testing.T) {
	s, _, _ := newTestScheduler(t, &fakeScanner{})
	_, err := s.run(context.Background(), "weekly")
	assert.ErrorContains(t, err, "unknown trigger")
}

func TestScheduler_DailyRunRecordsFireTime(t *testing.T) {
	s, _, _ := newTestScheduler(t, &fakeScanner{})
	now := time.Date(2024, 5, 1, 9, 0, 5, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	_, err := s.run(context.Background(), TriggerDaily)
	require.NoError(t, err)

	last, ok, err := s.state.lastFire()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, last.Equal(now))
}

func TestScheduler_ManualRunLeavesFireTime(t *testing.T) {
	s, _, _ := newTestScheduler(t, &fakeScanner{})

	_, err := s.Trigger(context.Background())
	require.NoError(t, err)

	_, ok, err := s.state.lastFire()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScheduler_CatchUpRunsMissedFire(t *testing.T) {
	scanner := &fakeScanner{}
	s, _, logger := newTestScheduler(t, scanner)
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	require.NoError(t, s.state.markFired(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)))

	s.catchUp()
	s.Stop()

	assert.Equal(t, []string{TriggerDaily}, scanner.calls())
	assert.True(t, logger.Contains("warn", "was missed"))
}

func TestScheduler_CatchUpSkipsWhenCurrent(t *testing.T) {
	scanner := &fakeScanner{}
	s, _, _ := newTestScheduler(t, scanner)
	now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	require.NoError(t, s.state.markFired(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)))

	s.catchUp()
	s.Stop()

	assert.Empty(t, scanner.calls())
}

func TestScheduler_FirstStartWritesBaseline(t *testing.T) {
	scanner := &fakeScanner{}
	s, _, _ := newTestScheduler(t, scanner)
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	s.catchUp()
	s.Stop()

	assert.Empty(t, scanner.calls())
	last, ok, err := s.state.lastFire()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, last.Equal(now))
}

func TestScheduler_CorruptStateSkipsCatchUp(t *testing.T) {
	scanner := &fakeScanner{}
	s, conf, logger := newTestScheduler(t, scanner)
	require.NoError(t, os.WriteFile(conf.Memories.StatePath, []byte("{"), 0o644))

	s.catchUp()
	s.Stop()

	assert.Empty(t, scanner.calls())
	assert.True(t, logger.Contains("error", "Cannot read scheduler state"))
}

func TestScheduler_InitAndStop(t *testing.T) {
	scanner := &fakeScanner{}
	s, conf, _ := newTestScheduler(t, scanner)
	conf.Backup.Enabled = true

	s.Init()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	_, ok, err := s.state.lastFire()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestScheduler_StopWithoutInit(t *testing.T) {
	s, _, _ := newTestScheduler(t, &fakeScanner{})
	s.Stop()
}

func TestScheduler_StopCancelsRunningScan(t *testing.T) {
	scanner := &fakeScanner{started: make(chan struct{}, 1), release: make(chan struct{})}
	s, _, logger := newTestScheduler(t, scanner)
	s.Init()

	go s.fire(TriggerDaily)
	<-scanner.started
	s.Stop()

	assert.True(t, logger.Contains("error", "context canceled"))

	// Jobs scheduled after Stop are dropped.
	s.fire(TriggerDaily)
	assert.Len(t, scanner.calls(), 1)
}

func TestScheduler_PersistDisabled(t *testing.T) {
	s, conf, _ := newTestScheduler(t, &fakeScanner{})

	require.NoError(t, s.Persist())
	_, err := os.Stat(conf.Backup.FilePath)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.Restore())
}

func TestScheduler_PersistAndRestore(t *testing.T) {
	s, conf, _ := newTestScheduler(t, &fakeScanner{})
	conf.Backup.Enabled = true

	require.NoError(t, s.Persist())
	_, err := os.Stat(conf.Backup.FilePath)
	require.NoError(t, err)
	assert.NoError(t, s.Restore())
}

func TestScheduler_PersistError(t *testing.T) {
	dir := t.TempDir()
	conf := testConfig(dir)
	conf.Backup.Enabled = true
	comp := &testutil.MockCompressor{
		CompressFn: func([]byte) ([]byte, error) { return nil, errors.New("compress error") },
	}
	logger := &testutil.MockLogger{}
	s := newScheduler(conf, logger, &fakeScanner{}, newTestFileManager(t, dir, comp))

	assert.Error(t, s.Persist())
	assert.True(t, logger.Contains("error", "Error while writing backup"))
}

func TestPreviousFire(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"after today's fire", time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)},
		{"exactly at fire", time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC), time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)},
		{"before today's fire", time.Date(2024, 5, 2, 8, 59, 0, 0, time.UTC), time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		{"month boundary", time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC), time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)},
		{"non-UTC input", time.Date(2024, 5, 2, 11, 0, 0, 0, time.FixedZone("CEST", 2*3600)), time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(previousFire(tt.now, 9, 0)), previousFire(tt.now, 9, 0))
		})
	}
}

func TestStateFile_Roundtrip(t *testing.T) {
	st := newStateFile(filepath.Join(t.TempDir(), "nested", "state.json"))

	_, ok, err := st.lastFire()
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 5, 1, 11, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	require.NoError(t, st.markFired(at))

	got, ok, err := st.lastFire()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(at))
	assert.Equal(t, time.UTC, got.Location())
}
