package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roylee0704/gron"
	"github.com/roylee0704/gron/xtime"
	"go.uber.org/atomic"

	"memoriesbot/internal/backup"
	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
	"memoriesbot/internal/schedule/interfaces"
	"memoriesbot/internal/services"
	"memoriesbot/internal/structures"
)

const (
	TriggerDaily  = "daily"
	TriggerManual = "manual"
)

type Scanner interface {
	Scan(ctx context.Context, trigger string) (services.ScanReport, error)
}

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	scanner     Scanner
	fileManager *backup.FileManager
	state       *stateFile
	cron        *gron.Cron
	opsMu       sync.Mutex
	now         func() time.Time

	inFlight map[string]*atomic.Bool
	lifeMu   sync.Mutex
	stopped  bool
	jobs     sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	reportMu   sync.RWMutex
	lastReport services.ScanReport
	hasReport  bool
}

// Init starts the daily scan at the configured UTC time and, when enabled,
// the periodic backup. A daily fire missed while the process was down runs
// once right away.
func (s *Scheduler) Init() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = gron.New()

	at := fmt.Sprintf("%02d:%02d", s.config.Memories.Hour, s.config.Memories.Minute)
	s.cron.AddFunc(gron.Every(xtime.Day).At(at), func() {
		s.fire(TriggerDaily)
	})

	if s.config.Backup.Enabled {
		s.cron.AddFunc(gron.Every(s.config.Backup.Interval), func() {
			if err := s.Persist(); err == nil {
				s.logger.Infof(providers.TypeApp, "Backup written to %s", s.config.Backup.FilePath)
			}
		})
	}

	s.catchUp()
	s.cron.Start()
	s.logger.Infof(providers.TypeApp, "Daily memory check scheduled at %s UTC", at)
}

func (s *Scheduler) catchUp() {
	last, ok, err := s.state.lastFire()
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Cannot read scheduler state %s: %s", s.config.Memories.StatePath, err)
		return
	}
	now := s.now()
	if !ok {
		if err := s.state.markFired(now); err != nil {
			s.logger.Errorf(providers.TypeApp, "Cannot write scheduler state: %s", err)
		}
		return
	}
	due := previousFire(now, s.config.Memories.Hour, s.config.Memories.Minute)
	if last.Before(due) {
		s.logger.Warnf(providers.TypeApp, "Daily check due at %s was missed, running it now", due.Format(time.RFC3339))
		if !s.track() {
			return
		}
		go func() {
			defer s.jobs.Done()
			s.runLogged(TriggerDaily)
		}()
	}
}

func (s *Scheduler) fire(trigger string) {
	if !s.track() {
		return
	}
	defer s.jobs.Done()
	s.runLogged(trigger)
}

// track registers a background job unless Stop has begun.
func (s *Scheduler) track() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.stopped {
		return false
	}
	s.jobs.Add(1)
	return true
}

func (s *Scheduler) runLogged(trigger string) {
	if _, err := s.run(s.ctx, trigger); err != nil {
		if errors.Is(err, models.ErrScanInFlight) {
			s.logger.Warnf(providers.TypeApp, "Skipping %s check: %s", trigger, err)
			return
		}
		s.logger.Errorf(providers.TypeApp, "Memory check (%s) failed: %s", trigger, err)
	}
}

// run executes one scan. At most one scan per trigger identity is in flight.
func (s *Scheduler) run(ctx context.Context, trigger string) (services.ScanReport, error) {
	flag, ok := s.inFlight[trigger]
	if !ok {
		return services.ScanReport{}, fmt.Errorf("unknown trigger %q", trigger)
	}
	if !flag.CompareAndSwap(false, true) {
		return services.ScanReport{}, fmt.Errorf("%s trigger: %w", trigger, models.ErrScanInFlight)
	}
	defer flag.Store(false)

	if trigger == TriggerDaily {
		if err := s.state.markFired(s.now()); err != nil {
			s.logger.Errorf(providers.TypeApp, "Cannot write scheduler state: %s", err)
		}
	}

	report, err := s.scanner.Scan(ctx, trigger)
	if err != nil {
		return report, err
	}

	s.reportMu.Lock()
	s.lastReport, s.hasReport = report, true
	s.reportMu.Unlock()
	return report, nil
}

// Trigger runs the manual check now. Running it twice on one day posts the memories twice.
// The scan keeps going when the caller's ctx is cancelled, so a dropped request
// does not leave half of the memories unsent.
func (s *Scheduler) Trigger(ctx context.Context) (services.ScanReport, error) {
	return s.run(context.WithoutCancel(ctx), TriggerManual)
}

func (s *Scheduler) LastReport() (services.ScanReport, bool) {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()
	return s.lastReport, s.hasReport
}

func (s *Scheduler) Stop() {
	s.lifeMu.Lock()
	s.stopped = true
	s.lifeMu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.jobs.Wait()
}

func (s *Scheduler) Restore() error {
	if !s.config.Backup.Enabled {
		return nil
	}
	_, err := s.fileManager.RestoreIfEmpty(context.Background(), s.config.Backup.FilePath)
	return err
}

func (s *Scheduler) Persist() error {
	if !s.config.Backup.Enabled {
		return nil
	}
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Writing backup snapshot...")
	err := s.fileManager.SaveToFile(s.config.Backup.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while writing backup: %s", err)
		return err
	}
	return nil
}

// SetClock replaces the wall clock used for the fire-time bookkeeping.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

func NewScheduler(config *structures.Config, logger providers.Logger, scanner Scanner, fileManager *backup.FileManager) interfaces.SchedulerInterface {
	return newScheduler(config, logger, scanner, fileManager)
}

func newScheduler(config *structures.Config, logger providers.Logger, scanner Scanner, fileManager *backup.FileManager) *Scheduler {
	return &Scheduler{
		config:      config,
		logger:      logger,
		scanner:     scanner,
		fileManager: fileManager,
		state:       newStateFile(config.Memories.StatePath),
		now:         time.Now,
		ctx:         context.Background(),
		inFlight: map[string]*atomic.Bool{
			TriggerDaily:  atomic.NewBool(false),
			TriggerManual: atomic.NewBool(false),
		},
	}
}
