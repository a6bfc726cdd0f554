package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoriesbot/internal/models"
	"memoriesbot/internal/services"
	"memoriesbot/internal/testutil"
)

func TestAdmin_CheckReturnsReport(t *testing.T) {
	checker := &fakeChecker{report: services.ScanReport{RunID: "abc", Trigger: "manual", Matched: 2, Delivered: 1, Failed: 1}}
	ac := NewAdminController(&testutil.MockLogger{}, checker, &fakePins{}, &fakeSnapshots{})

	rr := httptest.NewRecorder()
	ac.Check(rr, httptest.NewRequest(http.MethodPost, "/check", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, checker.triggered)

	var report services.ScanReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, "abc", report.RunID)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 1, report.Failed)
}

func TestAdmin_CheckInFlightIsConflict(t *testing.T) {
	logger := &testutil.MockLogger{}
	checker := &fakeChecker{err: fmt.Errorf("manual: %w", models.ErrScanInFlight)}
	ac := NewAdminController(logger, checker, &fakePins{}, &fakeSnapshots{})

	rr := httptest.NewRecorder()
	ac.Check(rr, httptest.NewRequest(http.MethodPost, "/check", nil))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.True(t, logger.Contains("error", "check failed"))
}

func TestAdmin_CheckMalformedStoreIsServerError(t *testing.T) {
	checker := &fakeChecker{err: &models.MalformedRecordError{File: "pins.txt", Line: 2, Reason: "expected 4 fields"}}
	ac := NewAdminController(&testutil.MockLogger{}, checker, &fakePins{}, &fakeSnapshots{})

	rr := httptest.NewRecorder()
	ac.Check(rr, httptest.NewRequest(http.MethodPost, "/check", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "pins.txt:2")
}

func TestAdmin_Resync(t *testing.T) {
	ac := NewAdminController(&testutil.MockLogger{}, &fakeChecker{}, &fakePins{resynced: 5}, &fakeSnapshots{})

	rr := httptest.NewRecorder()
	ac.Resync(rr, httptest.NewRequest(http.MethodPost, "/resync", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"pins":5}`, rr.Body.String())
}

func TestAdmin_ResyncWriteConflict(t *testing.T) {
	ac := NewAdminController(&testutil.MockLogger{}, &fakeChecker{}, &fakePins{err: models.ErrWriteConflict}, &fakeSnapshots{})

	rr := httptest.NewRecorder()
	ac.Resync(rr, httptest.NewRequest(http.MethodPost, "/resync", nil))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAdmin_ListPins(t *testing.T) {
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	pins := &fakePins{records: []models.PinRecord{{MessageID: 10, Timestamp: ts, AuthorID: 20, ChannelID: 30}}}
	ac := NewAdminController(&testutil.MockLogger{}, &fakeChecker{}, pins, &fakeSnapshots{})

	rr := httptest.NewRecorder()
	ac.ListPins(rr, httptest.NewRequest(http.MethodGet, "/pins", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var got []models.PinRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, uint64(10), got[0].MessageID)
	assert.True(t, ts.Equal(got[0].Timestamp))
}

func TestAdmin_ListPinsEmptyIsArray(t *testing.T) {
	ac := NewAdminController(&testutil.MockLogger{}, &fakeChecker{}, &fakePins{}, &fakeSnapshots{})

	rr := httptest.NewRecorder()
	ac.ListPins(rr, httptest.NewRequest(http.MethodGet, "/pins", nil))

	assert.Equal(t, "[]", rr.Body.String())
}

func TestAdmin_AddChannel(t *testing.T) {
	pins := &fakePins{}
	ac := NewAdminController(&testutil.MockLogger{}, &fakeChecker{}, pins, &fakeSnapshots{})

	body := strings.NewReader(`{"guild_id":"1087712669981233180","channel_id":"1087712669981233181"}`)
	rr := httptest.NewRecorder()
	ac.AddChannel(rr, httptest.NewRequest(http.MethodPost, "/channels", body))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, [][2]uint64{{1087712669981233180, 1087712669981233181}}, pins.added)
}

func TestAdmin_AddChannelAlreadyWatched(t *testing.T) {
	pins := &fakePins{err: fmt.Errorf("channel 2: %w", models.ErrChannelAlreadyWatched)}
	ac := NewAdminController(&testutil.MockLogger{}, &fakeChecker{}, pins, &fakeSnapshots{})

	rr := httptest.NewRecorder()
	ac.AddChannel(rr, httptest.NewRequest(http.MethodPost, "/channels", strings.NewReader(`{"guild_id":"1","channel_id":"2"}`)))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAdmin_AddChannelRejectsBadBody(t *testing.T) {
	pins := &fakePins{}
	ac := NewAdminController(&testutil.MockLogger{}, &fakeChecker{}, pins, &fakeSnapshots{})

	for _, body := range []string{"", "{", `{"guild_id":"1"}`, `{"guild_id":"x","channel_id":"2"}`} {
		rr := httptest.NewRecorder()
		ac.AddChannel(rr, httptest.NewRequest(http.MethodPost, "/channels", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	assert.Empty(t, pins.added)
}

func TestAdmin_SetRole(t *testing.T) {
	pins := &fakePins{}
	ac := NewAdminController(&testutil.MockLogger{}, &fakeChecker{}, pins, &fakeSnapshots{})

	rr := httptest.NewRecorder()
	ac.SetRole(rr, httptest.NewRequest(http.MethodPost, "/role", strings.NewReader(`{"guild_id":"1","role_id":"9"}`)))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, [][2]uint64{{1, 9}}, pins.roles)
}

func TestAdmin_Reset(t *testing.T) {
	pins := &fakePins{}
	snapshots := &fakeSnapshots{}
	ac := NewAdminController(&testutil.MockLogger{}, &fakeChecker{}, pins, snapshots)

	rr := httptest.NewRecorder()
	ac.Reset(rr, httptest.NewRequest(http.MethodPost, "/reset", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1, pins.resets)
	assert.Equal(t, 1, snapshots.persisted)
}

func TestAdmin_ResetFailureSkipsBackup(t *testing.T) {
	pins := &fakePins{err: models.ErrWriteConflict}
	snapshots := &fakeSnapshots{}
	ac := NewAdminController(&testutil.MockLogger{}, &fakeChecker{}, pins, snapshots)

	rr := httptest.NewRecorder()
	ac.Reset(rr, httptest.NewRequest(http.MethodPost, "/reset", nil))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Zero(t, snapshots.persisted)
}
