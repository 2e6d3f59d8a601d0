package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"netpulse/internal/config"
	"netpulse/internal/metrics"
	"netpulse/internal/report"
	"netpulse/internal/storage"
)

//go:embed static/*
var embeddedStatic embed.FS

// Server wraps HTTP serving of the dashboard API + static assets.
type Server struct {
	httpServer *http.Server
	source     storage.Source
	staticFS   fs.FS
	exporter   *metrics.Exporter
	opts       report.Options
	refresh    time.Duration
	log        logrus.FieldLogger
}

// payload is the JSON document behind every dashboard refresh.
type payload struct {
	report.Report
	RefreshSeconds int `json:"refresh_seconds"`
}

// New creates a configured HTTP server reading measurements from source.
func New(cfg config.Dashboard, source storage.Source, log logrus.FieldLogger) *Server {
	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		panic("static assets missing: " + err.Error())
	}
	refresh := cfg.Refresh()
	if refresh <= 0 {
		refresh = 10 * time.Second
	}

	s := &Server{
		source:   source,
		staticFS: staticFS,
		exporter: metrics.NewExporter(),
		opts: report.Options{
			RecentLimit: cfg.RecentLimit,
			TrendPoints: cfg.TrendPoints,
		},
		refresh: refresh,
		log:     log,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the routed handler; exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(s.staticFS))))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/export.csv", s.handleExport)
	})
	r.Get("/ws/report", s.handleReportWS)
	r.Get("/metrics", s.handleMetrics)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data, err := fs.ReadFile(s.staticFS, "index.html")
	if err != nil {
		http.Error(w, "index missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	p := s.buildPayload(r.Context())
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	rep := s.loadReport(r.Context())
	s.exporter.ServeSnapshot(w, r, snapshotOf(rep))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	_, measurements, err := report.Load(r.Context(), s.source, s.opts)
	if err != nil {
		s.log.WithError(err).Error("export: read measurements")
		http.Error(w, "failed to read measurements", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.CSVFilename+`"`)
	if err := report.WriteCSV(w, measurements); err != nil {
		s.log.WithError(err).Warn("export: write csv")
	}
}

// buildPayload re-runs the whole read path and publishes the result to the
// metrics exporter.
func (s *Server) buildPayload(ctx context.Context) payload {
	rep := s.loadReport(ctx)
	s.exporter.Update(snapshotOf(rep))
	return payload{Report: rep, RefreshSeconds: int(s.refresh / time.Second)}
}

// loadReport turns read failures into a warning on an empty report so the
// page keeps rendering.
func (s *Server) loadReport(ctx context.Context) report.Report {
	rep, _, err := report.Load(ctx, s.source, s.opts)
	if err != nil {
		s.log.WithError(err).Error("read measurements")
		rep = report.Build(nil, s.opts)
		rep.Warning = "Failed to read measurements: " + err.Error()
	}
	return rep
}

func snapshotOf(rep report.Report) metrics.Snapshot {
	snap := metrics.Snapshot{Uptime: rep.Uptime, Skipped: rep.Stats.Skipped}
	if rep.AverageLatency != nil {
		snap.AverageLatency = *rep.AverageLatency
		snap.HasLatency = true
	}
	return snap
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("http request")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s.log.WithError(err).Error("encode json response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
