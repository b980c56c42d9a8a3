package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"sync"
)

// In-memory stand-in for the staff portal's attendance API, for local runs
// of the agent. Checkout is idempotent per date: last write wins.

type record struct {
	ID             int64   `json:"id"`
	UserID         int64   `json:"user_id"`
	Date           string  `json:"date"`
	CheckInTime    *string `json:"check_in_time"`
	CheckOutTime   *string `json:"check_out_time"`
	Status         string  `json:"status"`
	IsAutoCheckout bool    `json:"is_auto_checkout"`
}

type checkInRequest struct {
	Date        string `json:"date"`
	CheckInTime string `json:"check_in_time"`
	Location    string `json:"location"`
	Status      string `json:"status"`
}

type checkOutRequest struct {
	Date           string `json:"date"`
	CheckOutTime   string `json:"check_out_time"`
	Location       string `json:"location"`
	IsAutoCheckout bool   `json:"is_auto_checkout"`
}

type store struct {
	mu      sync.Mutex
	nextID  int64
	records map[string]*record // keyed by date
}

func newStore() *store {
	return &store{nextID: 1, records: make(map[string]*record)}
}

func (s *store) checkIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Date == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec, ok := s.records[req.Date]
	if !ok {
		rec = &record{ID: s.nextID, UserID: 1, Date: req.Date, Status: req.Status}
		s.nextID++
		s.records[req.Date] = rec
	}
	rec.CheckInTime = &req.CheckInTime
	s.mu.Unlock()

	log.Printf("Check-in for %s at %s", req.Date, req.CheckInTime)
	writeEnvelope(w, "Check-in recorded", nil)
}

func (s *store) checkOut(w http.ResponseWriter, r *http.Request) {
	var req checkOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Date == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec, ok := s.records[req.Date]
	if !ok {
		rec = &record{ID: s.nextID, UserID: 1, Date: req.Date, Status: "present"}
		s.nextID++
		s.records[req.Date] = rec
	}
	rec.CheckOutTime = &req.CheckOutTime
	rec.IsAutoCheckout = req.IsAutoCheckout
	s.mu.Unlock()

	log.Printf("Check-out for %s at %s (auto=%v)", req.Date, req.CheckOutTime, req.IsAutoCheckout)
	writeEnvelope(w, "Check-out recorded", nil)
}

func (s *store) myAttendance(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")

	s.mu.Lock()
	var out []record
	for date, rec := range s.records {
		if (start == "" || date >= start) && (end == "" || date <= end) {
			out = append(out, *rec)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	writeEnvelope(w, "OK", out)
}

func writeEnvelope(w http.ResponseWriter, message string, attendance []record) {
	if attendance == nil {
		attendance = []record{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": message,
		"data":    map[string]any{"attendance": attendance},
	})
}

func main() {
	s := newStore()
	http.HandleFunc("/api/attendance/my", s.myAttendance)
	http.HandleFunc("/api/attendance/check-in", s.checkIn)
	http.HandleFunc("/api/attendance/check-out", s.checkOut)
	log.Println("Attendance API mock server starting on port 3000...")
	log.Fatal(http.ListenAndServe(":3000", nil))
}
