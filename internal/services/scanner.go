package services

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
	"memoriesbot/internal/structures"
)

type PinSource interface {
	Records() iter.Seq2[models.PinRecord, error]
}

type RoleSource interface {
	BindingForGuild(guildID uint64) (models.RoleBinding, bool, error)
}

type ChannelSource interface {
	Channels() ([]uint64, error)
}

type GuildReport struct {
	GuildID   uint64 `json:"guild_id"`
	Matched   int    `json:"matched"`
	Delivered int    `json:"delivered"`
}

// ScanReport summarises one anniversary scan.
type ScanReport struct {
	RunID        string        `json:"run_id"`
	Trigger      string        `json:"trigger"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Evaluated    int           `json:"evaluated"`
	Matched      int           `json:"matched"`
	Delivered    int           `json:"delivered"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	NoMemory     bool          `json:"no_memory"`
	SetupMissing bool          `json:"setup_missing"`
	Guilds       []GuildReport `json:"guilds"`
}

// AnniversaryScanner walks the pin store once per guild and posts a memory
// for every record whose pin date is a whole number of years ago.
type AnniversaryScanner struct {
	pins     PinSource
	roles    RoleSource
	channels ChannelSource
	platform models.Platform
	notifier models.Notifier
	members  *MemberDirectory
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface

	memoriesChannel string
	now             func() time.Time
}

func NewAnniversaryScanner(
	conf *structures.Config,
	pins PinSource,
	roles RoleSource,
	channels ChannelSource,
	platform models.Platform,
	notifier models.Notifier,
	members *MemberDirectory,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) *AnniversaryScanner {
	return &AnniversaryScanner{
		pins:            pins,
		roles:           roles,
		channels:        channels,
		platform:        platform,
		notifier:        notifier,
		members:         members,
		logger:          logger,
		metrics:         metrics,
		memoriesChannel: conf.Memories.ChannelName,
		now:             time.Now,
	}
}

// SetClock replaces the wall clock.
func (s *AnniversaryScanner) SetClock(now func() time.Time) {
	s.now = now
}

// Scan runs one pass over every guild. Only a malformed store file aborts it;
// unresolved references and failed deliveries are logged and skipped. A done
// ctx is not a stop signal: calls made with it fail and are skipped the same way.
func (s *AnniversaryScanner) Scan(ctx context.Context, trigger string) (ScanReport, error) {
	now := s.now()
	report := ScanReport{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: now,
	}
	start := time.Now()
	defer func() {
		s.metrics.IncScans(trigger)
		s.metrics.ObserveScanDuration(time.Since(start))
	}()

	s.logger.Infof(providers.TypeScan, "[%s] Checking for memory (trigger=%s)", report.RunID, trigger)

	ready, err := s.setupDone()
	if err != nil {
		return report, err
	}
	if !ready {
		s.logger.Warnf(providers.TypeScan, "[%s] Setup must be run before checking for memories", report.RunID)
		report.SetupMissing = true
		report.NoMemory = true
		return report, nil
	}

	guilds, err := s.platform.Guilds(ctx)
	if err != nil {
		s.logger.Errorf(providers.TypeScan, "[%s] Cannot list guilds: %s", report.RunID, err)
		report.NoMemory = true
		return report, nil
	}

	for _, guild := range guilds {
		gr, err := s.scanGuild(ctx, &report, guild, now)
		if err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		if gr.Matched == 0 {
			s.logger.Infof(providers.TypeScan, "[%s] No memory found for today in guild %d", report.RunID, guild.ID)
		}
		report.Guilds = append(report.Guilds, gr)
	}

	report.NoMemory = report.Matched == 0
	report.Duration = time.Since(start)
	s.logger.Infof(providers.TypeScan, "[%s] Scan done: %d matched, %d delivered, %d skipped, %d failed",
		report.RunID, report.Matched, report.Delivered, report.Skipped, report.Failed)
	return report, nil
}

// setupDone reads the whole pin store once, so a malformed line aborts the
// scan before any memory is sent.
func (s *AnniversaryScanner) setupDone() (bool, error) {
	channels, err := s.channels.Channels()
	if err != nil {
		return false, err
	}
	if len(channels) == 0 {
		return false, nil
	}
	records := 0
	for _, err := range s.pins.Records() {
		if err != nil {
			return false, err
		}
		records++
	}
	return records > 0, nil
}

// guildPass holds lookups made at most once per guild per scan.
type guildPass struct {
	guild models.Guild

	target    *models.Channel
	targetErr error
	targetSet bool

	binding    models.RoleBinding
	hasBinding bool
	bindingSet bool
}

func (s *AnniversaryScanner) scanGuild(ctx context.Context, report *ScanReport, guild models.Guild, now time.Time) (GuildReport, error) {
	gr := GuildReport{GuildID: guild.ID}
	pass := &guildPass{guild: guild}

	for record, err := range s.pins.Records() {
		if err != nil {
			return gr, err
		}
		report.Evaluated++

		if !IsAnniversary(now, record.Timestamp) {
			continue
		}

		channel, err := s.platform.Channel(ctx, guild.ID, record.ChannelID)
		if err != nil {
			// Records of other guilds land here too; they are visited again in their own pass.
			s.logger.Debugf(providers.TypeScan, "[%s] Channel %d not in guild %d: %s", report.RunID, record.ChannelID, guild.ID, err)
			continue
		}

		gr.Matched++
		report.Matched++
		s.metrics.IncMemoriesFound()
		s.logger.Infof(providers.TypeScan, "[%s] Memory found: message %d pinned %s", report.RunID, record.MessageID,
			humanize.RelTime(record.Timestamp, now, "ago", "from now"))

		delivered, err := s.deliver(ctx, report, pass, channel, record)
		if err != nil {
			return gr, err
		}
		if delivered {
			gr.Delivered++
			report.Delivered++
		}
	}
	return gr, nil
}

func (s *AnniversaryScanner) deliver(ctx context.Context, report *ScanReport, pass *guildPass, channel *models.Channel, record models.PinRecord) (bool, error) {
	message, err := s.platform.Message(ctx, channel.ID, record.MessageID)
	if err != nil {
		s.logger.Warnf(providers.TypeScan, "[%s] Skipping message %d in channel %d: %s", report.RunID, record.MessageID, channel.ID, err)
		s.metrics.IncSkippedRecords("message")
		report.Skipped++
		return false, nil
	}

	author, _ := s.members.Mention(ctx, pass.guild.ID, record.AuthorID)

	target, err := s.target(ctx, pass)
	if err != nil {
		s.logger.Errorf(providers.TypeScan, "[%s] Cannot deliver memory %d: %s", report.RunID, record.MessageID, err)
		s.metrics.IncDeliveryFailures("memories_channel")
		report.Failed++
		return false, nil
	}

	binding, ok, err := s.binding(pass)
	if err != nil {
		return false, err
	}
	if ok {
		if err := s.notifier.SendText(ctx, target.ID, binding.Mention()); err != nil {
			s.logger.Warnf(providers.TypeScan, "[%s] Role mention for guild %d not sent: %s", report.RunID, pass.guild.ID, err)
			s.metrics.IncDeliveryFailures("role_mention")
		}
	}

	notification := BuildNotification(record, author, message.JumpLink)
	if err := s.notifier.SendNotification(ctx, target.ID, notification); err != nil {
		s.logger.Errorf(providers.TypeScan, "[%s] Memory %d not delivered: %s", report.RunID, record.MessageID, err)
		s.metrics.IncDeliveryFailures("send")
		report.Failed++
		return false, nil
	}
	s.metrics.IncNotificationsSent()
	s.logger.Infof(providers.TypeScan, "[%s] Memory %d sent to #%s", report.RunID, record.MessageID, target.Name)
	return true, nil
}

func (s *AnniversaryScanner) target(ctx context.Context, pass *guildPass) (*models.Channel, error) {
	if !pass.targetSet {
		pass.target, pass.targetErr = s.platform.ChannelByName(ctx, pass.guild.ID, s.memoriesChannel)
		if pass.targetErr == nil && pass.target == nil {
			pass.targetErr = models.ErrUnresolvedReference
		}
		if pass.targetErr != nil {
			pass.targetErr = errors.Join(models.ErrDeliveryFailure, pass.targetErr)
		}
		pass.targetSet = true
	}
	return pass.target, pass.targetErr
}

func (s *AnniversaryScanner) binding(pass *guildPass) (models.RoleBinding, bool, error) {
	if !pass.bindingSet {
		binding, ok, err := s.roles.BindingForGuild(pass.guild.ID)
		if err != nil {
			return models.RoleBinding{}, false, err
		}
		pass.binding, pass.hasBinding, pass.bindingSet = binding, ok, true
	}
	return pass.binding, pass.hasBinding, nil
}
