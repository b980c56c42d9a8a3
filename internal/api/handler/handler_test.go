package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocheckout.service/internal/core"
	"autocheckout.service/internal/core/model"
	"autocheckout.service/internal/gateway"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

type stubGateway struct {
	checkIns []gateway.CheckInRequest
	err      error
}

func (g *stubGateway) GetMyAttendance(context.Context, gateway.AttendanceQuery) ([]model.AttendanceRecord, error) {
	return nil, nil
}

func (g *stubGateway) CheckOut(context.Context, gateway.CheckOutRequest) error { return g.err }

func (g *stubGateway) CheckIn(_ context.Context, req gateway.CheckInRequest) error {
	g.checkIns = append(g.checkIns, req)
	return g.err
}

type stubExecutor struct {
	triggers []model.CheckoutTrigger
	err      error
}

func (e *stubExecutor) PerformCheckout(_ context.Context, _ model.LocalDate, _ string, trigger model.CheckoutTrigger) error {
	e.triggers = append(e.triggers, trigger)
	return e.err
}

func newTestHandler(now time.Time) (*AgentHandler, *stubGateway, *stubExecutor) {
	clock := &stubClock{now: now}
	gw := &stubGateway{}
	exec := &stubExecutor{}
	return &AgentHandler{
		Scheduler: core.NewScheduler(clock, time.UTC, exec, nil),
		Gateway:   gw,
		Executor:  exec,
		Clock:     clock,
		Location:  time.UTC,
		Workplace: "Office",
	}, gw, exec
}

func TestStatus(t *testing.T) {
	h, _, _ := newTestHandler(time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC))
	h.Scheduler.SetEnabled(true)

	rr := httptest.NewRecorder()
	h.Status(rr, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var st core.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.True(t, st.IsAutoCheckoutEnabled)
	require.NotNil(t, st.NextAutoCheckoutTime)
	assert.Equal(t, time.Date(2026, time.January, 20, 18, 30, 0, 0, time.UTC), st.NextAutoCheckoutTime.UTC())
	assert.False(t, st.WasAutoCheckedOut)
}

func TestPresence(t *testing.T) {
	h, _, _ := newTestHandler(time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC))

	body := bytes.NewBufferString(`{"checkedIn": true}`)
	rr := httptest.NewRecorder()
	h.Presence(rr, httptest.NewRequest(http.MethodPost, "/api/v1/presence", body))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, h.Scheduler.Enabled())

	body = bytes.NewBufferString(`{"checkedIn": false}`)
	rr = httptest.NewRecorder()
	h.Presence(rr, httptest.NewRequest(http.MethodPost, "/api/v1/presence", body))

	assert.False(t, h.Scheduler.Enabled())
}

func TestPresence_BadBody(t *testing.T) {
	h, _, _ := newTestHandler(time.Now())

	rr := httptest.NewRecorder()
	h.Presence(rr, httptest.NewRequest(http.MethodPost, "/api/v1/presence", bytes.NewBufferString("{")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCheckIn(t *testing.T) {
	h, gw, _ := newTestHandler(time.Date(2026, time.January, 20, 9, 15, 0, 0, time.UTC))

	body := bytes.NewBufferString(`{"location": "Home"}`)
	rr := httptest.NewRecorder()
	h.CheckIn(rr, httptest.NewRequest(http.MethodPost, "/api/v1/check-in", body))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, gw.checkIns, 1)
	assert.Equal(t, "2026-01-20", gw.checkIns[0].Date)
	assert.Equal(t, "09:15:00", gw.checkIns[0].CheckInTime)
	assert.Equal(t, "Home", gw.checkIns[0].Location)
	assert.True(t, h.Scheduler.Enabled())
}

func TestCheckIn_DefaultsWorkplace(t *testing.T) {
	h, gw, _ := newTestHandler(time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC))

	rr := httptest.NewRecorder()
	h.CheckIn(rr, httptest.NewRequest(http.MethodPost, "/api/v1/check-in", bytes.NewBufferString(`{}`)))

	require.Len(t, gw.checkIns, 1)
	assert.Equal(t, "Office", gw.checkIns[0].Location)
}

func TestCheckIn_GatewayError(t *testing.T) {
	h, gw, _ := newTestHandler(time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC))
	gw.err = assert.AnError

	rr := httptest.NewRecorder()
	h.CheckIn(rr, httptest.NewRequest(http.MethodPost, "/api/v1/check-in", bytes.NewBufferString(`{}`)))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, h.Scheduler.Enabled(), "a failed check-in must not arm the scheduler")
}

func TestCheckOut(t *testing.T) {
	h, _, exec := newTestHandler(time.Date(2026, time.January, 20, 17, 0, 0, 0, time.UTC))
	h.Scheduler.SetEnabled(true)

	rr := httptest.NewRecorder()
	h.CheckOut(rr, httptest.NewRequest(http.MethodPost, "/api/v1/check-out", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, exec.triggers, 1)
	assert.Equal(t, model.TriggerManual, exec.triggers[0])
	assert.False(t, h.Scheduler.Enabled())
}

func TestCheckOut_ExecutorError(t *testing.T) {
	h, _, exec := newTestHandler(time.Date(2026, time.January, 20, 17, 0, 0, 0, time.UTC))
	h.Scheduler.SetEnabled(true)
	exec.err = assert.AnError

	rr := httptest.NewRecorder()
	h.CheckOut(rr, httptest.NewRequest(http.MethodPost, "/api/v1/check-out", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.True(t, h.Scheduler.Enabled(), "a failed checkout must leave the scheduler armed")
}
