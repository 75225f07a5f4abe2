package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/storecheck/internal/domain"
	apimw "github.com/hamed0406/storecheck/internal/httpapi/middleware"
	"github.com/hamed0406/storecheck/internal/repo"
	"github.com/hamed0406/storecheck/internal/schema"
)

const (
	defaultReportLimit = 20
	maxReportLimit     = 500
)

// CheckRunner runs one probe sequence and stores the report.
type CheckRunner interface {
	RunOnce(ctx context.Context) *domain.Report
}

type Server struct {
	Logger  *zap.Logger
	Reports repo.ReportStore
	Checks  CheckRunner
	Table   string
}

func NewServer(l *zap.Logger, reports repo.ReportStore, checks CheckRunner, table string) *Server {
	if table == "" {
		table = schema.DefaultTable
	}
	return &Server{Logger: l, Reports: reports, Checks: checks, Table: table}
}

// Router builds the HTTP handler. Empty allowedOrigins allows any origin.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.corsHandler(allowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Group(func(pub chi.Router) {
			pub.Use(apimw.RequireAny(keys))
			pub.Use(apimw.RateLimit(pubRPM, pubBurst))
			pub.Get("/reports", s.handleListReports)
			pub.Get("/reports/latest", s.handleLatestReport)
			pub.Get("/schema", s.handleSchema)
		})
		api.Group(func(adm chi.Router) {
			adm.Use(apimw.RequireAdmin(keys))
			adm.Use(apimw.RateLimit(admRPM, admBurst))
			adm.Post("/checks", s.handleRunCheck)
		})
	})

	return r
}

func (s *Server) corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	})
}

func (s *Server) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	rep := s.Checks.RunOnce(r.Context())
	s.Logger.Info("manual_check",
		zap.String("report_id", rep.ID),
		zap.Bool("healthy", rep.Healthy),
		zap.String("failure", rep.Failure),
	)
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Reports.Latest(r.Context())
	if err != nil {
		s.Logger.Warn("latest_report_error", zap.Error(err))
		http.Error(w, "latest error", http.StatusInternalServerError)
		return
	}
	if rep == nil {
		http.Error(w, "no reports yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultReportLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxReportLimit)
	}
	reps, err := s.Reports.Recent(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("list_reports_error", zap.Error(err))
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	if reps == nil {
		reps = []*domain.Report{}
	}
	writeJSON(w, http.StatusOK, reps)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(schema.DDL(s.Table)))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
