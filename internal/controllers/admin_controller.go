package controllers

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"memoriesbot/internal/models"
	"memoriesbot/internal/providers"
)

type AdminController struct {
	logger    providers.Logger
	checker   MemoryChecker
	pins      PinAdmin
	snapshots Snapshotter
}

func NewAdminController(logger providers.Logger, checker MemoryChecker, pins PinAdmin, snapshots Snapshotter) *AdminController {
	return &AdminController{
		logger:    logger,
		checker:   checker,
		pins:      pins,
		snapshots: snapshots,
	}
}

// Check runs the manual memory check and returns its report.
func (ac *AdminController) Check(w http.ResponseWriter, r *http.Request) {
	report, err := ac.checker.Trigger(r.Context())
	if err != nil {
		ac.fail(w, "check", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Resync refetches the pins of all watched channels.
func (ac *AdminController) Resync(w http.ResponseWriter, r *http.Request) {
	count, err := ac.pins.ResyncPins(r.Context())
	if err != nil {
		ac.fail(w, "resync", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"pins": count})
}

type addChannelRequest struct {
	GuildID   uint64 `json:"guild_id,string"`
	ChannelID uint64 `json:"channel_id,string"`
}

type setRoleRequest struct {
	GuildID uint64 `json:"guild_id,string"`
	RoleID  uint64 `json:"role_id,string"`
}

// AddChannel starts watching a channel and archives its current pins.
func (ac *AdminController) AddChannel(w http.ResponseWriter, r *http.Request) {
	var req addChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GuildID == 0 || req.ChannelID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "guild_id and channel_id are required"})
		return
	}
	count, err := ac.pins.AddChannel(r.Context(), req.GuildID, req.ChannelID)
	if err != nil {
		ac.fail(w, "add channel", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"pins": count})
}

// SetRole binds the role mentioned with the guild's memories.
func (ac *AdminController) SetRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GuildID == 0 || req.RoleID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "guild_id and role_id are required"})
		return
	}
	if err := ac.pins.SetRole(r.Context(), req.GuildID, req.RoleID); err != nil {
		ac.fail(w, "set role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset wipes the channel, pin and role stores. The backup is rewritten right
// away, otherwise the next start would restore the wiped stores from it.
func (ac *AdminController) Reset(w http.ResponseWriter, r *http.Request) {
	if err := ac.pins.Reset(r.Context()); err != nil {
		ac.fail(w, "reset", err)
		return
	}
	if err := ac.snapshots.Persist(); err != nil {
		ac.fail(w, "reset backup", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *AdminController) ListPins(w http.ResponseWriter, r *http.Request) {
	records, err := ac.pins.Pins()
	if err != nil {
		ac.fail(w, "list pins", err)
		return
	}
	if records == nil {
		records = []models.PinRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (ac *AdminController) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrScanInFlight), errors.Is(err, models.ErrWriteConflict),
		errors.Is(err, models.ErrChannelAlreadyWatched):
		status = http.StatusConflict
	case errors.Is(err, models.ErrUnresolvedReference):
		status = http.StatusNotFound
	}
	ac.logger.Errorf(providers.TypeHTTP, "%s failed: %s", op, err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}
