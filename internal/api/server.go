// Package api exposes the orchestrator over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/llm"
	"github.com/berth-dev/briefing/internal/orchestrator"
)

// Server is the HTTP front of an Orchestrator.
type Server struct {
	orch     *orchestrator.Orchestrator
	gen      llm.Generator
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   *chi.Mux
}

// NewServer builds the router. gatherer may be nil, in which case /metrics
// is not served.
func NewServer(orch *orchestrator.Orchestrator, gen llm.Generator, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{orch: orch, gen: gen, gatherer: gatherer, logger: logger}
	s.setupRouter()
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/stats", s.handleStats)
			r.Get("/insights", s.handleInsights)
			r.Post("/idea", s.handleSubmitIdea)
			r.Post("/competency", s.handleRunCompetency)
			r.Post("/competency/answers", s.handleCompetencyAnswers)
			r.Post("/questions", s.handleGenerateQuestions)
			r.Post("/answers", s.handleMainAnswers)
			r.Post("/reformulations", s.handleReformulate)
			r.Post("/process", s.handleProcess)
			r.Post("/feedback", s.handleFeedback)
			r.Post("/approve", s.handleApprove)
			r.Post("/iterate", s.handleIterate)
			r.Post("/stages/{step}/reset", s.handleResetStage)
		})
	})

	s.router = r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// Serve handles requests on ln until ctx is done, then shuts down. When
// reapEvery is positive, stage histories older than reapAge are dropped
// periodically.
func (s *Server) Serve(ctx context.Context, ln net.Listener, reapEvery, reapAge time.Duration) error {
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	if reapEvery > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(reapEvery)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					if n := s.orch.Monitor().Cleanup(reapAge); n > 0 {
						s.logger.Debug("reaped stage histories", zap.Int("sessions", n))
					}
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("serving", zap.String("addr", ln.Addr().String()))

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = srv.Shutdown(shutdownCtx)
		cancel()
		<-errCh
	case err = <-errCh:
	}
	close(stop)
	wg.Wait()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
