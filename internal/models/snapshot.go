package models

import "time"

// SnapshotVersion is bumped whenever Snapshot changes incompatibly.
const SnapshotVersion = 1

// Snapshot is the backup of all three stores.
type Snapshot struct {
	Version  int           `json:"version"`
	TakenAt  time.Time     `json:"taken_at"`
	Channels []uint64      `json:"channels"`
	Pins     []PinRecord   `json:"pins"`
	Roles    []RoleBinding `json:"roles"`
}

func (s *Snapshot) Empty() bool {
	return len(s.Channels) == 0 && len(s.Pins) == 0 && len(s.Roles) == 0
}
