package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/services"

	"github.com/gorilla/mux"
)

type ProgressHandler struct {
	service *services.ProgressService
}

func NewProgressHandler(service *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

func (h *ProgressHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/students/{studentID}/progress", h.GetProgress).Methods("GET")
	router.HandleFunc("/students/{studentID}/sessions", h.GetSessions).Methods("GET")
}

// GetProgress lists a student's mastery records. An optional ?topic=
// query narrows the list by fuzzy topic match.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	studentID := vars["studentID"]
	topicQuery := r.URL.Query().Get("topic")

	log.Printf("[INFO] Fetching progress for student %s (topic query: %q)", studentID, topicQuery)

	records, err := h.service.SearchTopics(r.Context(), studentID, topicQuery)
	if err != nil {
		log.Printf("[ERROR] Failed to fetch progress: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch progress")
		return
	}
	if records == nil {
		records = []*models.ProgressRecord{}
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]any{
		"student_id": studentID,
		"progress":   records,
	})
}

// GetSessions lists a student's study history, most recent first.
func (h *ProgressHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	studentID := vars["studentID"]

	log.Printf("[INFO] Fetching study sessions for student %s", studentID)

	sessions, err := h.service.ListSessions(r.Context(), studentID)
	if err != nil {
		log.Printf("[ERROR] Failed to fetch study sessions: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch study sessions")
		return
	}
	if sessions == nil {
		sessions = []*models.StudySession{}
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]any{
		"student_id": studentID,
		"sessions":   sessions,
	})
}

func (h *ProgressHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *ProgressHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
