package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/docketops/courtrules/districtengine"
	"github.com/docketops/courtrules/filing"
	"github.com/docketops/courtrules/internal/logger"
	"github.com/docketops/courtrules/rulepack"
	"github.com/docketops/courtrules/rules"
)

const dateLayout = "2006-01-02"

// districtHeader selects the court district on filing routes.
const districtHeader = "X-Court-District"

type Server struct {
	db       *sql.DB
	manager  *districtengine.Manager
	pipeline *filing.Pipeline
	router   *chi.Mux
	log      *slog.Logger
}

func NewServer(databaseURL, redisAddr string, logg *slog.Logger) (*Server, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newServer(db, redisAddr, logg)
}

// NewServerWithDB builds a server on an existing connection. Used by tests.
func NewServerWithDB(db *sql.DB) (*Server, error) {
	return newServer(db, "", logger.New("courtrules"))
}

func newServer(db *sql.DB, redisAddr string, logg *slog.Logger) (*Server, error) {
	var manager *districtengine.Manager
	if redisAddr != "" {
		manager = districtengine.NewManagerWithRedis(db, redisAddr, logg)
	} else {
		manager = districtengine.NewManager(db, logg)
	}

	if err := manager.LoadAllDistricts(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load districts: %w", err)
	}

	s := &Server{
		db:       db,
		manager:  manager,
		pipeline: filing.NewPipeline(logg),
		log:      logg,
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/api/v1/health", s.handleHealth)

	// Filing pipeline
	r.Post("/api/v1/filings", s.handleSubmitFiling)
	r.Post("/api/v1/filings/validate", s.handleValidateFiling)

	// Evaluation and deadlines
	r.Post("/api/v1/evaluate", s.handleEvaluate)
	r.Post("/api/v1/deadlines/compute", s.handleComputeDeadline)
	r.Get("/api/v1/deadlines/holidays", s.handleListHolidays)

	// District management
	r.Route("/api/v1/districts", func(r chi.Router) {
		r.Get("/", s.handleListDistricts)
		r.Post("/", s.handleCreateDistrict)

		r.Route("/{districtId}", func(r chi.Router) {
			r.Post("/reload", s.handleReloadDistrict)

			// Rule management
			r.Post("/rules", s.handleCreateRule)
			r.Get("/rules", s.handleListRules)
			r.Get("/rules/{ruleId}", s.handleGetRule)
			r.Put("/rules/{ruleId}", s.handleUpdateRule)
			r.Delete("/rules/{ruleId}", s.handleDeleteRule)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// engineFor resolves a district by ID or name to its engine.
func (s *Server) engineFor(district string) (*rules.Engine, error) {
	if engine, err := s.manager.GetEngine(district); err == nil {
		return engine, nil
	}
	for _, de := range s.manager.ListDistricts() {
		if de.Name == district {
			return de.Engine, nil
		}
	}
	return nil, fmt.Errorf("district %s not found", district)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"districtsLoaded": len(s.manager.ListDistricts()),
	})
}

// Filing submission handler
func (s *Server) handleSubmitFiling(w http.ResponseWriter, r *http.Request) {
	s.runFiling(w, r, s.pipeline.Submit, http.StatusCreated)
}

// Filing validation (dry run) handler
func (s *Server) handleValidateFiling(w http.ResponseWriter, r *http.Request) {
	s.runFiling(w, r, s.pipeline.Validate, http.StatusOK)
}

func (s *Server) runFiling(w http.ResponseWriter, r *http.Request,
	run func(*rules.Engine, filing.FilingSubmission) (*filing.SubmissionOutcome, error), acceptStatus int) {

	district := r.Header.Get(districtHeader)
	if district == "" {
		respondError(w, http.StatusBadRequest, districtHeader+" header is required", nil)
		return
	}

	engine, err := s.engineFor(district)
	if err != nil {
		respondError(w, http.StatusNotFound, "district not found", err)
		return
	}

	var sub filing.FilingSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if sub.CaseNumber == "" || sub.DocumentType == "" {
		respondError(w, http.StatusBadRequest, "case_number and document_type are required", nil)
		return
	}

	outcome, err := run(engine, sub)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "filing pipeline failed", err)
		return
	}

	if !outcome.Accepted {
		respondJSON(w, http.StatusUnprocessableEntity, outcome)
		return
	}
	respondJSON(w, acceptStatus, outcome)
}

// Evaluation handler
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.District == "" {
		respondError(w, http.StatusBadRequest, "district is required", nil)
		return
	}
	if req.TriggerEvent == "" {
		respondError(w, http.StatusBadRequest, "trigger_event is required", nil)
		return
	}

	engine, err := s.engineFor(req.District)
	if err != nil {
		respondError(w, http.StatusNotFound, "district not found", err)
		return
	}

	triggerDate, err := parseDateOrToday(req.TriggerDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid trigger_date", err)
		return
	}
	asOf := triggerDate
	if req.AsOf != "" {
		if asOf, err = parseDateOrToday(req.AsOf); err != nil {
			respondError(w, http.StatusBadRequest, "invalid as_of", err)
			return
		}
	}

	startTime := time.Now()
	res, err := engine.EvaluateEvent(
		rules.TriggerEvent(req.TriggerEvent),
		rules.Context(req.Context),
		triggerDate,
		rules.ServiceMethod(req.ServiceMethod),
		asOf,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "evaluation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, EvaluateResponse{
		Deadlines:      res.Deadlines,
		Effects:        res.Effects,
		Errors:         res.Errors,
		Blocked:        res.Blocked(),
		EvaluationTime: time.Since(startTime).String(),
	})
}

// Standalone deadline computation handler
func (s *Server) handleComputeDeadline(w http.ResponseWriter, r *http.Request) {
	var req ComputeDeadlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	triggerDate, err := parseDateOrToday(req.TriggerDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid trigger_date", err)
		return
	}

	method := rules.ServiceMethod(req.ServiceMethod)

	var result rules.DeadlineResult
	if req.District != "" {
		engine, err := s.engineFor(req.District)
		if err != nil {
			respondError(w, http.StatusNotFound, "district not found", err)
			return
		}
		result, err = engine.ComputeDeadline(triggerDate, req.PeriodDays, method)
		if err != nil {
			respondError(w, http.StatusBadRequest, "deadline computation failed", err)
			return
		}
	} else {
		year := triggerDate.Year()
		holidays := append(rules.FederalHolidays(year), rules.FederalHolidays(year+1)...)
		result, err = rules.ComputeDeadline(triggerDate, req.PeriodDays, method, holidays)
		if err != nil {
			respondError(w, http.StatusBadRequest, "deadline computation failed", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, result)
}

// Federal holidays listing handler
func (s *Server) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1900 || parsed > 2200 {
			respondError(w, http.StatusBadRequest, "invalid year", err)
			return
		}
		year = parsed
	}

	respondJSON(w, http.StatusOK, HolidaysResponse{
		Year:     year,
		Holidays: rules.FederalHolidays(year),
	})
}

// List districts handler
func (s *Server) handleListDistricts(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM districts ORDER BY name")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list districts", err)
		return
	}
	defer rows.Close()

	districts := []DistrictResponse{}
	for rows.Next() {
		var d DistrictResponse
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to scan district", err)
			return
		}
		districts = append(districts, d)
	}

	respondJSON(w, http.StatusOK, DistrictsListResponse{Districts: districts})
}

// Create district handler
func (s *Server) handleCreateDistrict(w http.ResponseWriter, r *http.Request) {
	var req CreateDistrictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	var districtID string
	err := s.db.QueryRow(`
		INSERT INTO districts (name) VALUES ($1) RETURNING id
	`, req.Name).Scan(&districtID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create district", err)
		return
	}

	if err := s.manager.LoadDistrict(r.Context(), districtID, req.Name); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to initialize district", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":   districtID,
		"name": req.Name,
	})
}

// Reload district handler
func (s *Server) handleReloadDistrict(w http.ResponseWriter, r *http.Request) {
	districtID := chi.URLParam(r, "districtId")

	if err := s.manager.ReloadDistrict(districtID); err != nil {
		respondError(w, http.StatusNotFound, "district not found", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// Create rule handler
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	districtID := chi.URLParam(r, "districtId")

	engine, err := s.manager.GetEngine(districtID)
	if err != nil {
		respondError(w, http.StatusNotFound, "district not found", err)
		return
	}

	var rule rules.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.Status == "" {
		rule.Status = rules.StatusDraft
	}

	if err := districtengine.ValidateRule(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule", err)
		return
	}

	if err := engine.AddRule(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to add rule", err)
		return
	}

	respondJSON(w, http.StatusCreated, &rule)
}

// List rules handler
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	districtID := chi.URLParam(r, "districtId")

	engine, err := s.manager.GetEngine(districtID)
	if err != nil {
		respondError(w, http.StatusNotFound, "district not found", err)
		return
	}

	rulesList, err := engine.Store().List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}
	if rulesList == nil {
		rulesList = []*rules.Rule{}
	}

	respondJSON(w, http.StatusOK, RulesListResponse{Rules: rulesList})
}

// Get rule handler
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	districtID := chi.URLParam(r, "districtId")
	ruleID := chi.URLParam(r, "ruleId")

	engine, err := s.manager.GetEngine(districtID)
	if err != nil {
		respondError(w, http.StatusNotFound, "district not found", err)
		return
	}

	rule, err := engine.Store().Get(ruleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

// Update rule handler
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	districtID := chi.URLParam(r, "districtId")
	ruleID := chi.URLParam(r, "ruleId")

	engine, err := s.manager.GetEngine(districtID)
	if err != nil {
		respondError(w, http.StatusNotFound, "district not found", err)
		return
	}

	var rule rules.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	rule.ID = ruleID

	if err := districtengine.ValidateRule(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule", err)
		return
	}

	if err := engine.UpdateRule(&rule); err != nil {
		respondError(w, http.StatusNotFound, "failed to update rule", err)
		return
	}

	respondJSON(w, http.StatusOK, &rule)
}

// Delete rule handler
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	districtID := chi.URLParam(r, "districtId")
	ruleID := chi.URLParam(r, "ruleId")

	engine, err := s.manager.GetEngine(districtID)
	if err != nil {
		respondError(w, http.StatusNotFound, "district not found", err)
		return
	}

	if err := engine.DeleteRule(ruleID); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// seedRulePacks loads YAML rule packs from dir, creating districts and
// rules that are not already present.
func (s *Server) seedRulePacks(ctx context.Context, dir string) error {
	packs, err := rulepack.LoadDir(dir)
	if err != nil {
		return err
	}

	for _, pack := range packs {
		if pack.District == "" {
			continue
		}

		var districtID string
		err := s.db.QueryRow(`SELECT id FROM districts WHERE name = $1`, pack.District).Scan(&districtID)
		if err == sql.ErrNoRows {
			err = s.db.QueryRow(`INSERT INTO districts (name) VALUES ($1) RETURNING id`, pack.District).Scan(&districtID)
		}
		if err != nil {
			return fmt.Errorf("district %s: %w", pack.District, err)
		}

		store := rules.NewPostgresRuleStore(s.db, districtID)
		added := 0
		for _, rule := range pack.Rules {
			if err := districtengine.ValidateRule(rule); err != nil {
				s.log.Warn("skipping invalid pack rule",
					slog.String("district", pack.District),
					slog.String("rule", rule.Name),
					slog.String("error", err.Error()))
				continue
			}
			if _, err := store.Get(rule.ID); err == nil {
				continue
			}
			if err := store.Add(rule); err != nil {
				return fmt.Errorf("district %s rule %s: %w", pack.District, rule.Name, err)
			}
			added++
		}

		for _, h := range pack.Holidays {
			_, err := s.db.Exec(`
				INSERT INTO district_holidays (district_id, holiday_date, name)
				VALUES ($1, $2, $3)
				ON CONFLICT (district_id, holiday_date) DO NOTHING
			`, districtID, h.Date, h.Name)
			if err != nil {
				return fmt.Errorf("district %s holidays: %w", pack.District, err)
			}
		}

		if err := s.manager.LoadDistrict(ctx, districtID, pack.District); err != nil {
			return fmt.Errorf("district %s: %w", pack.District, err)
		}

		s.log.Info("rule pack seeded",
			slog.String("district", pack.District),
			slog.Int("rules_added", added),
			slog.Int("holidays", len(pack.Holidays)))
	}

	return nil
}

// Helper functions
func parseDateOrToday(s string) (time.Time, error) {
	if s == "" {
		return rules.Day(time.Now()), nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return rules.Day(d), nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	logg := logger.New("courtrules")

	server, err := NewServer(databaseURL, os.Getenv("REDIS_ADDR"), logg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer server.db.Close()

	if dir := os.Getenv("RULEPACK_DIR"); dir != "" {
		if err := server.seedRulePacks(context.Background(), dir); err != nil {
			log.Fatalf("Failed to seed rule packs: %v", err)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logg.Info("server starting", slog.String("port", port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logg.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logg.Error("server shutdown error", slog.String("error", err.Error()))
	}

	logg.Info("server stopped")
}
