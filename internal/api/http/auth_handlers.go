package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	authmw "github.com/kixlab/kuiz/internal/auth/middleware"
	"github.com/kixlab/kuiz/internal/question"
	syncx "github.com/kixlab/kuiz/internal/sync"
)

// POST /auth/class/join  { "code": "..." }
func JoinClassHandler(store question.Store, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Code) == "" {
			http.Error(w, "code required", http.StatusBadRequest)
			return
		}
		c, err := store.JoinClassByCode(r.Context(), strings.TrimSpace(req.Code), userID)
		if err != nil {
			if errors.Is(err, question.ErrNotFound) {
				http.Error(w, "class not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if events != nil {
			data, _ := json.Marshal(map[string]string{"cid": c.ID, "uid": userID})
			_ = events.Append(r.Context(), syncx.Event{
				SiteID: "local", Type: syncx.EventStudentEnrolled, Key: c.ID, DataJSON: string(data),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"cid": c.ID, "name": c.Name})
	}
}

// POST /auth/student-id  { "student_id": "..." }
func RegisterStudentIDHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			StudentID string `json:"student_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.StudentID) == "" {
			http.Error(w, "student_id required", http.StatusBadRequest)
			return
		}
		if err := store.SetStudentID(r.Context(), userID, strings.TrimSpace(req.StudentID)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
}

// POST /auth/consent  { "consent": true }
func SetConsentHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			Consent bool `json:"consent"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := store.SetConsent(r.Context(), userID, req.Consent); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
}

// GET /me — the session payload the web client loads on sign-in.
func MeHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		p, err := store.Profile(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	}
}
