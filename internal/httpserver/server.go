package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radiusdt/marketing-dashboard/internal/analytics"
	"github.com/radiusdt/marketing-dashboard/internal/config"
	"github.com/radiusdt/marketing-dashboard/internal/dashboard"
	"github.com/radiusdt/marketing-dashboard/internal/metrics"
	"github.com/radiusdt/marketing-dashboard/internal/middleware"
	"github.com/radiusdt/marketing-dashboard/internal/models"
	"github.com/radiusdt/marketing-dashboard/internal/snapshot"
	"github.com/radiusdt/marketing-dashboard/internal/warehouse"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	Source    warehouse.Source
	Loader    *snapshot.Loader
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	RateLimit *middleware.RateLimitMiddleware
	// Cache is the optional shared snapshot tier. Its health is reported
	// by /ready but never fails readiness.
	Cache HealthChecker
	// Now defaults to time.Now.
	Now func() time.Time
}

// HealthChecker is a connection that can be probed.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server wraps HTTP handlers around the snapshot cache and the renderer.
type Server struct {
	source  warehouse.Source
	cache   HealthChecker
	loader  *snapshot.Loader
	config  *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	alertsMu       sync.Mutex
	alertsLoadedAt time.Time
}

const (
	defaultPath      = "/views/executive-summary"
	warehouseFailure = "Failed to load data from warehouse: "
)

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	s := &Server{
		source:  deps.Source,
		cache:   deps.Cache,
		loader:  deps.Loader,
		config:  deps.Config,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		now:     deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	rl := deps.RateLimit
	if rl == nil {
		rl = middleware.NewRateLimitMiddleware(deps.Config.RateLimit, s.logger)
	}
	rl.SetMetrics(deps.Metrics)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.NewRecoveryMiddleware(s.logger).Handler)
	r.Use(middleware.NewLoggingMiddleware(s.logger).Handler)
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics).Handler)

	// Probes and scrapes are never rate limited.
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	if deps.Config.Metrics.Enabled && deps.Metrics != nil {
		r.Handle(deps.Config.Metrics.Path, deps.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(rl.Handler)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, defaultPath, http.StatusFound)
		})
		r.Get("/views/{view}", s.handleView)
		r.Post("/refresh", s.handleRefresh)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/views/{view}", s.handleViewJSON)
			r.Get("/overview", s.handleOverview)
			r.Get("/campaigns/{id}", s.handleCampaign)
		})
	})

	r.NotFound(s.handleNotFound)

	return r
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.source.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		s.errorResponse(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	status := map[string]string{"status": "ready"}
	if s.cache != nil {
		status["cache"] = "ok"
		if err := s.cache.Health(ctx); err != nil {
			s.logger.Warn("snapshot cache unavailable", zap.Error(err))
			status["cache"] = "degraded"
		}
	}
	s.jsonResponse(w, status)
}

// ---- HTML views ----

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	view, err := dashboard.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		s.htmlError(w, r, "Page not found", err.Error(), http.StatusNotFound)
		return
	}

	page, err := s.render(r, view)
	if err != nil {
		s.htmlFailure(w, r, err)
		return
	}

	var buf bytes.Buffer
	data := layoutData{
		AppTitle: s.config.Dashboard.Title,
		Nav:      navigation(view, true),
		Next:     r.URL.RequestURI(),
		Page:     &page,
	}
	if err := renderLayout(&buf, data); err != nil {
		s.logger.Error("template execution failed", zap.String("view", view.Slug()), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.loader.Invalidate(r.Context())
	http.Redirect(w, r, refreshTarget(r), http.StatusSeeOther)
}

// refreshTarget returns the view to go back to after a refresh. Only local
// /views/ paths are accepted.
func refreshTarget(r *http.Request) string {
	candidates := []string{r.FormValue("next"), r.Referer()}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		u, err := url.Parse(c)
		if err != nil || !strings.HasPrefix(u.Path, "/views/") {
			continue
		}
		if u.Host != "" && u.Host != r.Host {
			continue
		}
		target := u.Path
		if u.RawQuery != "" {
			target += "?" + u.RawQuery
		}
		return target
	}
	return defaultPath
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.errorResponse(w, "not found", http.StatusNotFound)
		return
	}
	s.htmlError(w, r, "Page not found", "No page at "+r.URL.Path, http.StatusNotFound)
}

// ---- JSON API ----

func (s *Server) handleViewJSON(w http.ResponseWriter, r *http.Request) {
	view, err := dashboard.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusNotFound)
		return
	}

	page, err := s.render(r, view)
	if err != nil {
		s.jsonFailure(w, err)
		return
	}
	s.jsonResponse(w, page)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.jsonFailure(w, err)
		return
	}
	s.jsonResponse(w, dashboard.Summarize(snap))
}

func (s *Server) handleCampaign(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.loader.Table(r.Context(), models.TableCampaigns)
	if err != nil {
		s.jsonFailure(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	s.jsonResponse(w, struct {
		CampaignID string `json:"campaign_id"`
		*dashboard.Table
	}{id, dashboard.CampaignRows(campaigns, id)})
}

// ---- Rendering ----

func (s *Server) snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	snap, err := s.loader.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.observeAlerts(snap)
	return snap, nil
}

func (s *Server) render(r *http.Request, view dashboard.View) (dashboard.Page, error) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.recordRender(view, "error")
		return dashboard.Page{}, err
	}

	page := dashboard.Render(snap, dashboard.Selection{
		View:       view,
		CampaignID: r.URL.Query().Get("campaign"),
		Now:        s.now(),
	})
	s.recordRender(view, "ok")
	return page, nil
}

func (s *Server) recordRender(view dashboard.View, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordRender(view.Slug(), outcome)
	}
}

// observeAlerts refreshes the alert gauge once per snapshot fill.
func (s *Server) observeAlerts(snap *snapshot.Snapshot) {
	if s.metrics == nil {
		return
	}

	s.alertsMu.Lock()
	defer s.alertsMu.Unlock()
	if !snap.LoadedAt.IsZero() && snap.LoadedAt.Equal(s.alertsLoadedAt) {
		return
	}
	s.alertsLoadedAt = snap.LoadedAt

	alerts := analytics.Flag(models.Campaigns(snap.Campaigns))
	counts := make(map[[2]string]int)
	for _, a := range alerts {
		counts[[2]string{a.Issue, string(a.Severity)}]++
	}
	s.metrics.SetAlertCounts(counts)
}

// ---- Errors ----

// failureMessage maps a load error to a status code and a user-visible
// message.
func failureMessage(err error) (int, string) {
	var dsErr *warehouse.DataSourceError
	if errors.As(err, &dsErr) {
		return http.StatusBadGateway, warehouseFailure + dsErr.Err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

func (s *Server) htmlFailure(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := failureMessage(err)
	s.logger.Error("render failed",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	s.htmlError(w, r, "Something went wrong", msg, code)
}

func (s *Server) jsonFailure(w http.ResponseWriter, err error) {
	code, msg := failureMessage(err)
	s.logger.Error("api request failed", zap.Error(err))
	s.errorResponse(w, msg, code)
}

func (s *Server) htmlError(w http.ResponseWriter, r *http.Request, title, message string, code int) {
	var buf bytes.Buffer
	data := layoutData{
		AppTitle: s.config.Dashboard.Title,
		Nav:      navigation(0, false),
		Next:     r.URL.RequestURI(),
		Error:    &errorView{Title: title, Message: message},
	}
	if err := renderLayout(&buf, data); err != nil {
		s.logger.Error("error template execution failed", zap.Error(err))
		http.Error(w, message, code)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

// ---- Helpers ----

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
