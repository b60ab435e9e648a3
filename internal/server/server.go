package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"github.com/KaramelBytes/tabloom-cli/internal/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server is the HTTP surface: one request is one interaction with a stored session.
type Server struct {
	store    *session.Store
	sessions *SessionHandler
	log      *zap.Logger
}

// New builds a server over wf. Sessions expire after the configured idle minutes.
func New(wf *workflow.Workflow, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	store := session.NewStore(time.Duration(wf.Config().SessionTTLMin) * time.Minute)
	return &Server{
		store:    store,
		sessions: NewSessionHandler(store, wf, log),
		log:      log,
	}
}

// Router returns the chi router with every route registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", HealthCheckHandler)
	s.sessions.RegisterRoutes(r)
	return r
}

// HealthCheckHandler answers 200 OK.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Run serves on addr until ctx is cancelled, sweeping idle sessions once a minute.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.store.Sweep(); n > 0 {
					s.log.Info("expired idle sessions", zap.Int("count", n))
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
