package http

import (
	"encoding/json"
	"net/http"

	authmw "github.com/kixlab/kuiz/internal/auth/middleware"
	"github.com/kixlab/kuiz/internal/question"
)

// POST /question/made/stem  { "cid": "...", "topic": "..." } (both optional)
// Rows come back in creation order; the web client reverses once at cache
// write time so consumers always see newest-first.
func MadeStemsHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			CID   string `json:"cid"`
			Topic string `json:"topic"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		stems, err := store.AuthoredStems(r.Context(), question.AuthoredOpts{
			UserID:  userID,
			ClassID: req.CID,
			Topic:   req.Topic,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"made_stem": stems})
	}
}

// POST /question/made/option  { "cid": "...", "topic": "..." }
func MadeOptionsHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			CID   string `json:"cid"`
			Topic string `json:"topic"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		opts, err := store.AuthoredOptions(r.Context(), question.AuthoredOpts{
			UserID:  userID,
			ClassID: req.CID,
			Topic:   req.Topic,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"made_option": opts})
	}
}

// POST /question/stems-by-option  { "qstems": ["id1", "id2", ...] }
// Batch resolve of parent stems; output order matches input id order.
func StemsByOptionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QStems []string `json:"qstems"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		stems, err := store.StemsByIDs(r.Context(), req.QStems)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"qstems": stems})
	}
}
