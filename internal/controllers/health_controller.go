package controllers

import (
	"fmt"
	"net/http"
	"time"

	"memoriesbot/internal/services"
)

type HealthController struct {
	pins      PinAdmin
	checker   MemoryChecker
	startTime time.Time
}

type healthResponse struct {
	Status        string               `json:"status"`
	Uptime        string               `json:"uptime"`
	UptimeSeconds float64              `json:"uptime_seconds"`
	Channels      int                  `json:"channels"`
	Pins          int                  `json:"pins"`
	Roles         int                  `json:"roles"`
	StoreError    string               `json:"store_error,omitempty"`
	LastScan      *services.ScanReport `json:"last_scan,omitempty"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
	}

	status, err := hc.pins.Status()
	if err != nil {
		resp.Status = "degraded"
		resp.StoreError = err.Error()
	} else {
		resp.Channels = status.Channels
		resp.Pins = status.Pins
		resp.Roles = status.Roles
	}
	if report, ok := hc.checker.LastReport(); ok {
		resp.LastScan = &report
	}

	writeJSON(w, http.StatusOK, resp)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(pins PinAdmin, checker MemoryChecker) *HealthController {
	return &HealthController{
		pins:      pins,
		checker:   checker,
		startTime: time.Now(),
	}
}
