package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"autocheckout.service/internal/api/handler"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(h *handler.AgentHandler) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	api.HandleFunc("/presence", h.Presence).Methods(http.MethodPost)
	api.HandleFunc("/check-in", h.CheckIn).Methods(http.MethodPost)
	api.HandleFunc("/check-out", h.CheckOut).Methods(http.MethodPost)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
