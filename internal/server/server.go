package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xtding233/shardcost/internal/api"
	"github.com/xtding233/shardcost/internal/dashboard"
	"github.com/xtding233/shardcost/internal/game"
	"github.com/xtding233/shardcost/internal/pricing"
)

type errResp struct {
	Err string `json:"err"`
}

// Server exposes the published snapshots over HTTP.
type Server struct {
	store  *dashboard.Store
	log    *zap.Logger
	router *mux.Router
}

func New(store *dashboard.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{store: store, log: log, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests, s.recoverPanics)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/games", s.handleGames).Methods(http.MethodGet)
	v1.HandleFunc("/games/{game}/catalogs", s.handleCatalogs).Methods(http.MethodGet)
	v1.HandleFunc("/games/{game}/cost", s.handleCost).Methods(http.MethodGet)
	v1.HandleFunc("/games/{game}/table", s.handleTable).Methods(http.MethodGet)
	v1.HandleFunc("/games/{game}/compare", s.handleCompare).Methods(http.MethodGet)
	v1.HandleFunc("/games/{game}/summary", s.handleSummary).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errResp{Err: "not found"})
	})
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

// recoverPanics answers a handler panic with a JSON 500.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("http panic",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("panic", fmt.Sprint(rec)),
					zap.ByteString("stack", debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, errResp{Err: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if len(s.store.Games()) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, errResp{Err: "no games loaded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGames(w http.ResponseWriter, _ *http.Request) {
	out := []api.GameView{}
	for _, id := range s.store.Games() {
		snap, err := s.store.Get(id)
		if err != nil {
			continue
		}
		out = append(out, api.Game(snap))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCatalogs(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, api.Catalogs(snap))
}

func (s *Server) handleCost(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	pulls, msg := parseInt(r, "pulls")
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	regime, err := pricing.ParseRegime(r.URL.Query().Get("regime"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	strategy := pricing.Strategy(r.URL.Query().Get("strategy"))
	plan, err := snap.Plan(regime, strategy, pulls)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.Plan(snap.Game.ID, regime, strategy, plan))
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	regime, err := pricing.ParseRegime(r.URL.Query().Get("regime"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	tbl, err := snap.Table(regime, pricing.Strategy(r.URL.Query().Get("strategy")))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.Table(snap.Game.ID, tbl))
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	pulls, msg := parseInt(r, "pulls")
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	c, err := snap.Compare(pulls)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.Comparison(c))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	if snap.Summary == nil {
		s.writeErr(w, dashboard.ErrNoComparison)
		return
	}
	writeJSON(w, http.StatusOK, api.Summary(snap.Game.ID, *snap.Summary))
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*dashboard.Snapshot, bool) {
	snap, err := s.store.Get(mux.Vars(r)["game"])
	if err != nil {
		s.writeErr(w, err)
		return nil, false
	}
	return snap, true
}

func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errResp{Err: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrUnknownGame):
		return http.StatusNotFound
	case errors.Is(err, pricing.ErrInvalidArgument), errors.Is(err, pricing.ErrUnknownRegime):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrNoComparison):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func parseInt(r *http.Request, key string) (int, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, "missing param " + key
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, "invalid " + key
	}
	return v, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
