package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/kixlab/kuiz/internal/question"
)

// GET /class/info?cid=...
func ClassInfoHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := strings.TrimSpace(r.URL.Query().Get("cid"))
		if cid == "" {
			http.Error(w, "cid required", http.StatusBadRequest)
			return
		}
		info, err := store.ClassInfo(r.Context(), cid)
		if err != nil {
			if errors.Is(err, question.ErrNotFound) {
				http.Error(w, "class not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	}
}

// POST /admin/class/create  { "name": "...", "code": "..." }
func CreateClassHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Code) == "" {
			http.Error(w, "name and code required", http.StatusBadRequest)
			return
		}
		c, err := store.CreateClass(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Code))
		if err != nil {
			if errors.Is(err, question.ErrAlreadyExists) {
				http.Error(w, "code already in use", http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(c)
	}
}

// POST /admin/topic/create
func CreateTopicHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CID                    string `json:"cid"`
			Label                  string `json:"label"`
			RequiredQuestionNumber int    `json:"required_question_number"`
			RequiredOptionNumber   int    `json:"required_option_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.CID) == "" || strings.TrimSpace(req.Label) == "" {
			http.Error(w, "cid and label required", http.StatusBadRequest)
			return
		}
		t, err := store.CreateTopic(r.Context(), question.Topic{
			ClassID:                req.CID,
			Label:                  req.Label,
			RequiredQuestionNumber: req.RequiredQuestionNumber,
			RequiredOptionNumber:   req.RequiredOptionNumber,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"topic": t})
	}
}

// POST /admin/topic/update
func UpdateTopicHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topic question.Topic `json:"topic"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Topic.ID == "" {
			http.Error(w, "topic with id required", http.StatusBadRequest)
			return
		}
		if err := store.UpdateTopic(r.Context(), req.Topic); err != nil {
			if errors.Is(err, question.ErrNotFound) {
				http.Error(w, "topic not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
}

// POST /admin/topic/delete  { "tid": "..." }
func DeleteTopicHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TID string `json:"tid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TID == "" {
			http.Error(w, "tid required", http.StatusBadRequest)
			return
		}
		if err := store.DeleteTopic(r.Context(), req.TID); err != nil {
			if errors.Is(err, question.ErrNotFound) {
				http.Error(w, "topic not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
}

// POST /admin/topic/current  { "cid": "...", "topic_id": "..." }
func SetCurrentTopicHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CID     string `json:"cid"`
			TopicID string `json:"topic_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CID == "" {
			http.Error(w, "cid required", http.StatusBadRequest)
			return
		}
		if err := store.SetCurrentTopic(r.Context(), req.CID, req.TopicID); err != nil {
			if errors.Is(err, question.ErrNotFound) {
				http.Error(w, "class not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
}

// GET /admin/activity?cid=...&topic=...&uid=...
func ActivityHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := strings.TrimSpace(r.URL.Query().Get("cid"))
		uid := strings.TrimSpace(r.URL.Query().Get("uid"))
		if cid == "" || uid == "" {
			http.Error(w, "cid and uid required", http.StatusBadRequest)
			return
		}
		act, err := store.UserActivity(r.Context(), cid, strings.TrimSpace(r.URL.Query().Get("topic")), uid)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(act)
	}
}

// GET /admin/students?cid=...
func ListStudentsHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := strings.TrimSpace(r.URL.Query().Get("cid"))
		if cid == "" {
			http.Error(w, "cid required", http.StatusBadRequest)
			return
		}
		students, err := store.ListStudents(r.Context(), cid)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(students)
	}
}

// POST /admin/cluster?qid=... — body is the raw cluster JSON array produced
// by the external clustering pipeline.
func PutClusterHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qid := strings.TrimSpace(r.URL.Query().Get("qid"))
		if qid == "" {
			http.Error(w, "qid required", http.StatusBadRequest)
			return
		}
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil || !json.Valid(raw) {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := store.PutCluster(r.Context(), qid, question.Cluster(raw)); err != nil {
			if errors.Is(err, question.ErrNotFound) {
				http.Error(w, "question not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
}
