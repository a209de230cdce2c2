package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/jobs"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/outreach"
	"github.com/sells-group/leadgen-cli/internal/search"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// searchStarter launches a background search unless the product already has
// one running, in which case it returns that job's id.
type searchStarter interface {
	Start(ctx context.Context, req search.Request) (string, error)
}

// emailGenerator drafts an outreach email for a stored lead.
type emailGenerator interface {
	GenerateForLead(ctx context.Context, leadID string) (*outreach.Email, error)
}

// apiServer holds the dependencies of the HTTP handlers.
type apiServer struct {
	baseCtx   context.Context
	registry  jobs.Registry
	searches  searchStarter
	emails    emailGenerator
	defaults  config.SearchConfig
	retention time.Duration
	validate  *validator.Validate
	newJobID  func() string
}

type searchRequest struct {
	ProductID       string  `json:"product_id" validate:"required"`
	Location        *string `json:"location"`
	Limit           *int    `json:"limit" validate:"omitempty,min=1,max=500"`
	MinScore        *int    `json:"min_score" validate:"omitempty,min=0,max=100"`
	IncludeProvince bool    `json:"include_province"`
}

type generateEmailRequest struct {
	LeadID string `json:"lead_id" validate:"required"`
}

// corsOrigins returns the configured dashboard origins plus frontendURL.
func corsOrigins(c config.ServerConfig) []string {
	origins := append([]string(nil), c.CORSOrigins...)
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	return origins
}

// buildMux wires the API routes. Searches started through it run under
// baseCtx so they outlive the request that started them.
func buildMux(s *apiServer, origins []string) http.Handler {
	if s.validate == nil {
		s.validate = validator.New(validator.WithRequiredStructEnabled())
		s.validate.RegisterTagNameFunc(jsonFieldName)
	}
	if s.newJobID == nil {
		s.newJobID = uuid.NewString
	}
	if s.baseCtx == nil {
		s.baseCtx = context.Background()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/search", s.handleSearch)
	r.Get("/search-status/{jobID}", s.handleSearchStatus)
	r.Get("/searches", s.handleListSearches)
	r.Post("/stop-search/{jobID}", s.handleStopSearch)
	r.Post("/generate-email", s.handleGenerateEmail)

	return r
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if !s.decode(w, r, &body) {
		return
	}

	req := s.searchRequest(body)
	existing, err := s.searches.Start(s.baseCtx, req)
	if err != nil {
		zap.L().Error("api: start search", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != "" {
		zap.L().Info("api: search already running",
			zap.String("product_id", body.ProductID),
			zap.String("job_id", existing),
		)
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "already_running",
			"job_id":  existing,
			"message": "Una ricerca per questo prodotto è già in corso",
		})
		return
	}

	zap.L().Info("api: search started",
		zap.String("job_id", req.JobID),
		zap.String("product_id", req.ProductID),
		zap.String("location", req.Location),
		zap.Int("limit", req.Limit),
		zap.Int("min_score", req.MinScore),
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "started",
		"job_id":  req.JobID,
		"message": fmt.Sprintf("Ricerca avviata, solo lead con score ≥ %d verranno salvati", req.MinScore),
	})
}

// searchRequest applies the configured defaults to absent fields.
func (s *apiServer) searchRequest(body searchRequest) search.Request {
	req := search.Request{
		ProductID:       body.ProductID,
		Location:        s.defaults.DefaultLocation,
		Limit:           s.defaults.DefaultLimit,
		MinScore:        s.defaults.DefaultMinScore,
		JobID:           s.newJobID(),
		IncludeProvince: body.IncludeProvince,
	}
	if body.Location != nil && strings.TrimSpace(*body.Location) != "" {
		req.Location = strings.TrimSpace(*body.Location)
	}
	if body.Limit != nil {
		req.Limit = *body.Limit
	}
	if body.MinScore != nil {
		req.MinScore = *body.MinScore
	}
	return req
}

func (s *apiServer) handleSearchStatus(w http.ResponseWriter, r *http.Request) {
	if n := s.registry.Sweep(s.retention); n > 0 {
		zap.L().Info("api: swept finished jobs", zap.Int("removed", n))
	}

	job, err := s.registry.Get(chi.URLParam(r, "jobID"))
	if errors.Is(err, jobs.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "Job non trovato")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// jobListing is a job without its lead buckets.
type jobListing struct {
	ID            string             `json:"id"`
	Status        jobs.Status        `json:"status"`
	Progress      string             `json:"progress"`
	ProductID     string             `json:"product_id"`
	Stats         model.Stats        `json:"stats"`
	CreatedAt     time.Time          `json:"created_at"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	StoppedReason jobs.StoppedReason `json:"stopped_reason,omitempty"`
}

// handleListSearches lists the jobs still held in memory, newest first.
func (s *apiServer) handleListSearches(w http.ResponseWriter, _ *http.Request) {
	if n := s.registry.Sweep(s.retention); n > 0 {
		zap.L().Info("api: swept finished jobs", zap.Int("removed", n))
	}

	list := s.registry.List()
	out := make([]jobListing, 0, len(list))
	for _, job := range list {
		out = append(out, jobListing{
			ID:            job.ID,
			Status:        job.Status,
			Progress:      job.Progress,
			ProductID:     job.ProductID,
			Stats:         job.Stats,
			CreatedAt:     job.CreatedAt,
			CompletedAt:   job.CompletedAt,
			StoppedReason: job.StoppedReason,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": out})
}

func (s *apiServer) handleStopSearch(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	res, err := s.registry.RequestStop(jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "Job non trovato")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if res == jobs.StopAlreadyFinished {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  string(res),
			"message": "La ricerca è già terminata",
		})
		return
	}
	zap.L().Info("api: stop requested", zap.String("job_id", jobID))
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  string(res),
		"message": "Arresto ricerca in corso...",
	})
}

func (s *apiServer) handleGenerateEmail(w http.ResponseWriter, r *http.Request) {
	var body generateEmailRequest
	if !s.decode(w, r, &body) {
		return
	}

	email, err := s.emails.GenerateForLead(r.Context(), body.LeadID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Lead non trovato")
		return
	case errors.Is(err, outreach.ErrNoWebsite):
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "error",
			"message": "Nessun sito web disponibile per questo contatto.",
		})
		return
	case err != nil:
		zap.L().Error("api: generate email", zap.String("lead_id", body.LeadID), zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "completed",
		"email":  email,
	})
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, validationMessage(verrs[0]))
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return fe.Field() + " is required"
	}
	return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
}

// jsonFieldName reports validation errors under the JSON field name.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
