// Package api exposes HTTP handlers for the fit-tracker service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/fittracker/internal/domain"
	"example.com/fittracker/internal/export"
	"example.com/fittracker/internal/observability"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/users/", h.userByID)
	mux.HandleFunc("/user/get-summary/", h.dailySummary)
	mux.HandleFunc("/export/csv", h.exportCSV)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) userByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/users/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing user id")
		return
	}

	sample, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "user with user_id "+userID+" not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", "unable to fetch user data")
		return
	}

	writeJSON(w, http.StatusOK, toUserView(*sample))
}

func (h *Handler) dailySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/user/get-summary/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing user id")
		return
	}

	rawDate := r.URL.Query().Get("date")
	if rawDate == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing date parameter")
		return
	}
	day, err := time.ParseInLocation("2006-01-02", rawDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "date must be formatted YYYY-MM-DD")
		return
	}

	summary, err := h.service.GetDailySummary(r.Context(), userID, day)
	if err != nil {
		if errors.Is(err, domain.ErrNoSamples) {
			writeError(w, http.StatusNotFound, "not_found", "no data found for this user on the given date")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", "unable to compute daily summary")
		return
	}

	writeJSON(w, http.StatusOK, toSummaryView(summary))
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	summaries, err := h.service.ExportSummaries(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoSummaries) {
			writeError(w, http.StatusNotFound, "not_found", "no user data available for export")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", "unable to export user data")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=user_data.csv`)
	w.WriteHeader(http.StatusOK)
	if err := export.WriteSummaries(w, summaries); err != nil {
		// Headers are already out; nothing to do beyond noting the failure.
		return
	}
	observability.RecordCSVExport()
}

// UserView is the response body for GET /users/{user_id}.
type UserView struct {
	UserID    string  `json:"user_id"`
	Steps     int     `json:"steps"`
	HeartBeat int     `json:"heart_beat"`
	MET       float64 `json:"met"`
	Height    int     `json:"height"`
	Weight    int     `json:"weight"`
}

// DailySummaryView is the response body for GET /user/get-summary/{user_id}.
type DailySummaryView struct {
	UserID           string  `json:"user_id"`
	TotalSteps       int     `json:"total_steps"`
	Distance         float64 `json:"distance"`
	AverageHeartBeat float64 `json:"average_heart_beat"`
	KcalBurned       float64 `json:"kcal_burned"`
	Date             string  `json:"date"`
}

func toUserView(sample domain.RawSample) UserView {
	return UserView{
		UserID:    sample.UserID,
		Steps:     sample.Steps,
		HeartBeat: sample.HeartBeat,
		MET:       sample.MET,
		Height:    sample.Height,
		Weight:    sample.Weight,
	}
}

func toSummaryView(summary domain.DailySummary) DailySummaryView {
	return DailySummaryView{
		UserID:           summary.UserID,
		TotalSteps:       summary.TotalSteps,
		Distance:         summary.Distance,
		AverageHeartBeat: summary.AverageHeartBeat,
		KcalBurned:       summary.KcalBurned,
		Date:             summary.Date.Format("2006-01-02"),
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
