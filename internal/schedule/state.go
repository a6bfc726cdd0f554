package schedule

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// triggerState is what survives restarts: when the daily trigger last fired.
type triggerState struct {
	LastFire time.Time `json:"last_fire"`
}

type stateFile struct {
	mu   sync.Mutex
	path string
}

func newStateFile(path string) *stateFile {
	return &stateFile{path: path}
}

// lastFire returns false when the trigger never fired.
func (s *stateFile) lastFire() (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	var st triggerState
	if err := json.Unmarshal(data, &st); err != nil {
		return time.Time{}, false, err
	}
	return st.LastFire, !st.LastFire.IsZero(), nil
}

func (s *stateFile) markFired(at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(triggerState{LastFire: at.UTC()})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	tmpFile := s.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpFile, s.path)
}

// previousFire is the latest daily fire time at hh:mm UTC not after now.
func previousFire(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	fire := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if fire.After(now) {
		fire = fire.AddDate(0, 0, -1)
	}
	return fire
}
