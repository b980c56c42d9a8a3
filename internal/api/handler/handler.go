package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"autocheckout.service/internal/core"
	"autocheckout.service/internal/core/model"
	"autocheckout.service/internal/gateway"
)

// AgentHandler exposes the scheduler's status surface and the manual
// clock-in/out proxies to the hosting UI.
type AgentHandler struct {
	Scheduler *core.Scheduler
	Gateway   gateway.AttendanceAPI
	Executor  core.Executor
	Clock     core.Clock
	Location  *time.Location
	Workplace string
}

type PresenceRequest struct {
	CheckedIn bool `json:"checkedIn"`
}

type CheckInRequest struct {
	Location string `json:"location"`
}

// Status reports the scheduler snapshot: enabled flag, next trigger time,
// and whether today's automatic checkout already fired.
func (h *AgentHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Scheduler.Snapshot())
}

// Presence lets the hosting UI report whether the user currently holds an
// open record. The server's record stays authoritative; this only arms or
// disarms the scheduler.
func (h *AgentHandler) Presence(w http.ResponseWriter, r *http.Request) {
	var req PresenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.Scheduler.SetEnabled(req.CheckedIn)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Scheduler.Snapshot())
}

// CheckIn proxies a clock-in to the attendance API and arms the scheduler.
// Flipping the enabled flag here is the caller-side half of the contract:
// the scheduler itself never decides the user is clocked in.
func (h *AgentHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Location == "" {
		req.Location = h.Workplace
	}

	now := h.Clock.Now()
	err := h.Gateway.CheckIn(r.Context(), gateway.CheckInRequest{
		Date:        model.DateOf(now, h.Location).String(),
		CheckInTime: core.TimeOfDay(now, h.Location),
		Location:    req.Location,
		Status:      string(model.StatusPresent),
	})
	if err != nil {
		http.Error(w, "Service error recording check-in", http.StatusInternalServerError)
		return
	}

	h.Scheduler.SetEnabled(true)

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"message": "Check-in recorded."})
}

// CheckOut proxies a manual checkout. It may race with an in-flight
// automatic attempt; the attendance API resolves duplicates idempotently
// per (user, date).
func (h *AgentHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	now := h.Clock.Now()
	date := model.DateOf(now, h.Location)

	err := h.Executor.PerformCheckout(r.Context(), date, core.TimeOfDay(now, h.Location), model.TriggerManual)
	if err != nil {
		http.Error(w, "Service error recording check-out", http.StatusInternalServerError)
		return
	}

	h.Scheduler.SetEnabled(false)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"message": "Check-out recorded."})
}
