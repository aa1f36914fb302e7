package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/kixlab/kuiz/internal/api/http"
	"github.com/kixlab/kuiz/internal/auth"
	authmw "github.com/kixlab/kuiz/internal/auth/middleware"
	"github.com/kixlab/kuiz/internal/config"
	"github.com/kixlab/kuiz/internal/db"
	"github.com/kixlab/kuiz/internal/question"
	"github.com/kixlab/kuiz/internal/rbac"
	syncx "github.com/kixlab/kuiz/internal/sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := question.NewSQLStore(dbh, cfg.DBDriver)
	events := syncx.NewEventRepo(dbh)

	authSvc := authmw.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Local login (enabled in offline mode by default; can be enabled online via env)
	if cfg.EnableLocalAuth {
		r.Post("/auth/login", authmw.LoginHandler(authSvc, dbh))
	}
	if cfg.EnableGoogleAuth {
		r.Get("/auth/google/login", auth.GoogleLoginHandler(cfg))
		r.Get("/auth/google/callback", auth.GoogleCallbackHandler(authSvc, dbh, cfg))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))

		pr.Get("/me", api.MeHandler(store))

		pr.With(rbac.Require("class:join")).
			Post("/auth/class/join", api.JoinClassHandler(store, events))
		pr.With(rbac.Require("profile:update")).
			Post("/auth/student-id", api.RegisterStudentIDHandler(store))
		pr.With(rbac.Require("profile:update")).
			Post("/auth/consent", api.SetConsentHandler(store))

		pr.With(rbac.Require("question:create")).
			Post("/question/create", api.CreateStemHandler(store))
		pr.With(rbac.Require("option:create")).
			Post("/question/option/create", api.CreateOptionHandler(store))
		pr.With(rbac.Require("question:view")).
			Get("/question/list", api.ListQuestionsHandler(store))
		pr.With(rbac.Require("question:view")).
			Get("/question/detail", api.QuestionDetailHandler(store))
		pr.With(rbac.Require("question:view")).
			Get("/question/cluster", api.ClusterHandler(store))
		pr.With(rbac.Require("question:solve")).
			Post("/question/solve", api.SolveHandler(store, events))
		pr.With(rbac.Require("report:create")).
			Post("/question/report", api.ReportHandler(store, events))

		// "my page" data: authored stems/options plus parent-stem batch resolve
		pr.With(rbac.Require("question:view")).
			Post("/question/made/stem", api.MadeStemsHandler(store))
		pr.With(rbac.Require("question:view")).
			Post("/question/made/option", api.MadeOptionsHandler(store))
		pr.With(rbac.Require("question:view")).
			Post("/question/stems-by-option", api.StemsByOptionHandler(store))

		pr.With(rbac.Require("class:view")).
			Get("/class/info", api.ClassInfoHandler(store))

		// Admin
		pr.With(rbac.Require("class:create")).
			Post("/admin/class/create", api.CreateClassHandler(store))
		pr.With(rbac.Require("topic:manage")).
			Post("/admin/topic/create", api.CreateTopicHandler(store))
		pr.With(rbac.Require("topic:manage")).
			Post("/admin/topic/update", api.UpdateTopicHandler(store))
		pr.With(rbac.Require("topic:manage")).
			Post("/admin/topic/delete", api.DeleteTopicHandler(store))
		pr.With(rbac.Require("topic:manage")).
			Post("/admin/topic/current", api.SetCurrentTopicHandler(store))
		pr.With(rbac.Require("class:analytics")).
			Get("/admin/activity", api.ActivityHandler(store))
		pr.With(rbac.Require("class:analytics")).
			Get("/admin/students", api.ListStudentsHandler(store))
		pr.With(rbac.Require("topic:manage")).
			Post("/admin/cluster", api.PutClusterHandler(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
