package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	authmw "github.com/kixlab/kuiz/internal/auth/middleware"
	"github.com/kixlab/kuiz/internal/question"
	syncx "github.com/kixlab/kuiz/internal/sync"
)

// POST /question/create
func CreateStemHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		var req struct {
			CID               string   `json:"cid"`
			StemText          string   `json:"stem_text"`
			Explanation       string   `json:"explanation"`
			LearningObjective string   `json:"learning_objective"`
			Keywords          []string `json:"keywords"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.CID) == "" || strings.TrimSpace(req.StemText) == "" {
			http.Error(w, "cid and stem_text required", http.StatusBadRequest)
			return
		}
		s, err := store.CreateStem(r.Context(), question.QStem{
			ClassID:           req.CID,
			AuthorID:          userID,
			StemText:          req.StemText,
			Explanation:       req.Explanation,
			LearningObjective: req.LearningObjective,
			Keywords:          req.Keywords,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(s)
	}
}

// POST /question/option/create
func CreateOptionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		var req struct {
			QStemID    string   `json:"qstem"`
			OptionText string   `json:"option_text"`
			IsAnswer   bool     `json:"is_answer"`
			Keywords   []string `json:"keywords"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.QStemID) == "" || strings.TrimSpace(req.OptionText) == "" {
			http.Error(w, "qstem and option_text required", http.StatusBadRequest)
			return
		}
		o, err := store.CreateOption(r.Context(), question.Option{
			QStemID:    req.QStemID,
			AuthorID:   userID,
			OptionText: req.OptionText,
			IsAnswer:   req.IsAnswer,
			Keywords:   req.Keywords,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(o)
	}
}

// GET /question/list?cid=...&topic=...&page=1&per_page=20
func ListQuestionsHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := strings.TrimSpace(r.URL.Query().Get("cid"))
		if cid == "" {
			http.Error(w, "cid required", http.StatusBadRequest)
			return
		}
		page, err := store.ListClassStems(r.Context(), question.ListOpts{
			ClassID: cid,
			Topic:   strings.TrimSpace(r.URL.Query().Get("topic")),
			Page:    parseIntDefault(r.URL.Query().Get("page"), 1),
			PerPage: parseIntDefault(r.URL.Query().Get("per_page"), 20),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}
}

// GET /question/detail?qid=...
func QuestionDetailHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qid := strings.TrimSpace(r.URL.Query().Get("qid"))
		if qid == "" {
			http.Error(w, "qid required", http.StatusBadRequest)
			return
		}
		stem, err := store.GetStem(r.Context(), qid)
		if err != nil {
			http.Error(w, "question not found", http.StatusNotFound)
			return
		}
		opts, err := store.StemOptions(r.Context(), qid)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"qinfo": stem, "options": opts})
	}
}

// GET /question/cluster?qid=...
// The clustering itself runs in an external pipeline; the stored JSON array
// is served untouched.
func ClusterHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qid := strings.TrimSpace(r.URL.Query().Get("qid"))
		if qid == "" {
			http.Error(w, "qid required", http.StatusBadRequest)
			return
		}
		c, err := store.Cluster(r.Context(), qid)
		if err != nil {
			http.Error(w, "question not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"cluster": c})
	}
}

// POST /question/solve
func SolveHandler(store question.Store, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		var req struct {
			QID            string   `json:"qid"`
			SelectedOption string   `json:"selected_option"`
			IsCorrect      bool     `json:"is_correct"`
			OptionSet      []string `json:"option_set"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.QID) == "" {
			http.Error(w, "qid required", http.StatusBadRequest)
			return
		}
		err := store.RecordSolve(r.Context(), question.SolveRecord{
			QStemID:        req.QID,
			UserID:         userID,
			SelectedOption: req.SelectedOption,
			IsCorrect:      req.IsCorrect,
			OptionSet:      req.OptionSet,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if events != nil {
			data, _ := json.Marshal(map[string]any{"qid": req.QID, "uid": userID, "correct": req.IsCorrect})
			_ = events.Append(r.Context(), syncx.Event{
				SiteID: "local", Type: syncx.EventQuestionSolved, Key: req.QID, DataJSON: string(data),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
}

// POST /question/report
func ReportHandler(store question.Store, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		var req struct {
			QID     string `json:"qid"`
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.QID) == "" || strings.TrimSpace(req.Content) == "" {
			http.Error(w, "qid and content required", http.StatusBadRequest)
			return
		}
		err := store.CreateReport(r.Context(), question.Report{
			QStemID: req.QID,
			UserID:  userID,
			Content: req.Content,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if events != nil {
			data, _ := json.Marshal(map[string]string{"qid": req.QID, "uid": userID})
			_ = events.Append(r.Context(), syncx.Event{
				SiteID: "local", Type: syncx.EventOptionReported, Key: req.QID, DataJSON: string(data),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
