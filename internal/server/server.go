package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/plothq/plot/internal/blueprint"
	"github.com/plothq/plot/internal/budget"
	"github.com/plothq/plot/internal/handler"
	"github.com/plothq/plot/internal/middleware"
	"github.com/plothq/plot/internal/store"
	ws "github.com/plothq/plot/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	householdH  *handler.HouseholdHandler
	paycycleH   *handler.PaycycleHandler
	seedH       *handler.SeedHandler
	potH        *handler.PotHandler
	repaymentH  *handler.RepaymentHandler
	taskH       *handler.TaskHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	categories := budget.DefaultCategories()
	householdStore := store.NewHouseholdStore(db)
	paycycleStore := store.NewPaycycleStore(db, categories)
	seedStore := store.NewSeedStore(db)
	potStore := store.NewPotStore(db)
	repaymentStore := store.NewRepaymentStore(db)
	taskStore := store.NewTaskStore(db)

	svc := blueprint.NewService(householdStore, paycycleStore, seedStore, potStore, repaymentStore,
		categories, logger.With("component", "blueprint"))

	return &Server{
		db:          db,
		hub:         hub,
		householdH:  handler.NewHouseholdHandler(householdStore, hub),
		paycycleH:   handler.NewPaycycleHandler(svc, paycycleStore, householdStore, hub, logger.With("component", "paycycle")),
		seedH:       handler.NewSeedHandler(seedStore, paycycleStore, householdStore, hub),
		potH:        handler.NewPotHandler(potStore, householdStore, hub),
		repaymentH:  handler.NewRepaymentHandler(repaymentStore, householdStore, hub),
		taskH:       handler.NewTaskHandler(taskStore, householdStore, hub),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	// Household + partner sharing
	mux.HandleFunc("GET /api/household", s.householdH.Get)
	mux.HandleFunc("POST /api/household", s.householdH.Create)
	mux.HandleFunc("PUT /api/household/settings", s.householdH.UpdateSettings)
	mux.HandleFunc("POST /api/household/invite", s.householdH.CreateInvite)
	mux.HandleFunc("POST /api/household/invite/accept", s.rateLimited(s.householdH.AcceptInvite))

	// Paycycles
	mux.HandleFunc("GET /api/paycycles", s.paycycleH.List)
	mux.HandleFunc("POST /api/paycycles", s.paycycleH.Create)
	mux.HandleFunc("GET /api/paycycles/current", s.paycycleH.Current)
	mux.HandleFunc("GET /api/paycycles/{id}/blueprint", s.paycycleH.GetBlueprint)
	mux.HandleFunc("POST /api/paycycles/{id}/next", s.rateLimited(s.paycycleH.CreateNext))
	mux.HandleFunc("POST /api/paycycles/{id}/resync", s.rateLimited(s.paycycleH.Resync))
	mux.HandleFunc("POST /api/paycycles/{id}/activate", s.rateLimited(s.paycycleH.Activate))
	mux.HandleFunc("POST /api/paycycles/{id}/close-ritual", s.paycycleH.CloseRitual)
	mux.HandleFunc("POST /api/paycycles/{id}/mark-overdue", s.paycycleH.MarkOverdue)
	mux.HandleFunc("POST /api/paycycles/{id}/recompute", s.paycycleH.Recompute)
	mux.HandleFunc("GET /api/paycycles/{id}/seeds", s.seedH.List)

	// Seeds
	mux.HandleFunc("POST /api/seeds", s.seedH.Create)
	mux.HandleFunc("PUT /api/seeds/{id}", s.seedH.Update)
	mux.HandleFunc("DELETE /api/seeds/{id}", s.seedH.Delete)
	mux.HandleFunc("POST /api/seeds/{id}/pay", s.seedH.Pay)
	mux.HandleFunc("DELETE /api/seeds/{id}/pay", s.seedH.Unpay)

	// Pots
	mux.HandleFunc("GET /api/pots", s.potH.List)
	mux.HandleFunc("POST /api/pots", s.potH.Create)
	mux.HandleFunc("PUT /api/pots/{id}", s.potH.Update)
	mux.HandleFunc("POST /api/pots/{id}/complete", s.potH.Complete)
	mux.HandleFunc("DELETE /api/pots/{id}/complete", s.potH.Reopen)

	// Repayments
	mux.HandleFunc("GET /api/repayments", s.repaymentH.List)
	mux.HandleFunc("POST /api/repayments", s.repaymentH.Create)
	mux.HandleFunc("PUT /api/repayments/{id}", s.repaymentH.Update)

	// Tasks
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("DELETE /api/tasks/{id}/complete", s.taskH.Uncomplete)
	mux.HandleFunc("GET /api/tasks/fairness", s.taskH.Fairness)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimited guards the heavier cycle mutations against accidental request
// storms from a stuck client.
func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
