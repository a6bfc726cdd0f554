package store

import (
	"context"
	"time"

	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
)

// RoleStore maps a guild to the role mentioned with its memories.
// Writes keep at most one binding per guild: an existing binding is replaced
// in place, a new guild is appended, other guilds are left alone.
type RoleStore struct {
	path    string
	lock    *writerLock
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewRoleStore(path string, lockTimeout time.Duration, logger providers.Logger, metrics providers.MetricsProviderInterface) *RoleStore {
	return &RoleStore{
		path:    path,
		lock:    newWriterLock("roles", lockTimeout),
		logger:  logger,
		metrics: metrics,
	}
}

func (s *RoleStore) Load() ([]models.RoleBinding, error) {
	var bindings []models.RoleBinding
	for line, err := range models.ReadLines(s.path, models.KindRoles) {
		if err != nil {
			return nil, err
		}
		binding, err := models.ParseRoleBinding(line.Text)
		if err != nil {
			return nil, &models.MalformedRecordError{File: s.path, Line: line.Number, Reason: err.Error()}
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}

// BindingForGuild returns the guild's binding. Files written by older versions
// can hold several lines for one guild; the last one wins.
func (s *RoleStore) BindingForGuild(guildID uint64) (models.RoleBinding, bool, error) {
	bindings, err := s.Load()
	if err != nil {
		return models.RoleBinding{}, false, err
	}
	var (
		found   models.RoleBinding
		present bool
	)
	for _, b := range bindings {
		if b.GuildID == guildID {
			found, present = b, true
		}
	}
	return found, present, nil
}

func (s *RoleStore) SetBindingForGuild(ctx context.Context, guildID, roleID uint64) error {
	return s.rewrite(ctx, func(bindings []models.RoleBinding) []models.RoleBinding {
		next := make([]models.RoleBinding, 0, len(bindings)+1)
		replaced := false
		for _, b := range bindings {
			if b.GuildID != guildID {
				next = append(next, b)
				continue
			}
			if !replaced {
				next = append(next, models.RoleBinding{RoleID: roleID, GuildID: guildID})
				replaced = true
			}
		}
		if !replaced {
			next = append(next, models.RoleBinding{RoleID: roleID, GuildID: guildID})
		}
		return next
	})
}

// Replace writes bindings as the whole file, verbatim.
func (s *RoleStore) Replace(ctx context.Context, bindings []models.RoleBinding) error {
	return s.rewrite(ctx, func([]models.RoleBinding) []models.RoleBinding { return bindings })
}

func (s *RoleStore) Reset(ctx context.Context) error {
	return s.rewrite(ctx, func([]models.RoleBinding) []models.RoleBinding { return nil })
}

func (s *RoleStore) rewrite(ctx context.Context, apply func([]models.RoleBinding) []models.RoleBinding) error {
	release, err := s.lock.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	bindings, err := s.Load()
	if err != nil {
		return err
	}
	next := apply(bindings)

	start := time.Now()
	lines := make([]string, len(next))
	for i, b := range next {
		lines[i] = b.FormatLine()
	}
	if err := models.WriteLines(s.path, models.KindRoles, lines); err != nil {
		s.logger.Errorf(providers.TypeStore, "Error while writing %s: %s", s.path, err)
		return err
	}
	s.metrics.ObserveStoreWrite("roles", time.Since(start))
	return nil
}
