// Package api exposes the load engine over HTTP and pushes snapshots over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/NotCoffee418/energy_monitor/pkg/loader"
	"github.com/NotCoffee418/energy_monitor/pkg/metrics"
	"github.com/NotCoffee418/energy_monitor/pkg/periods"
	"github.com/NotCoffee418/energy_monitor/pkg/types"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	engine      Engine
	metrics     *metrics.Metrics
	logger      *zap.Logger
	title       string
	hub         *wsHub
	updates     <-chan loader.Snapshot
	unsubscribe func()
}

// NewServer creates the API for an engine and subscribes to its snapshots. m may be nil.
func NewServer(engine Engine, m *metrics.Metrics, title string, logger *zap.Logger) *Server {
	updates, unsubscribe := engine.Subscribe()
	return &Server{
		engine:      engine,
		metrics:     m,
		logger:      logger,
		title:       title,
		hub:         newHub(logger),
		updates:     updates,
		unsubscribe: unsubscribe,
	}
}

// Handler builds the router with CORS and request logging.
func (s *Server) Handler(corsOrigins []string) http.Handler {
	r := mux.NewRouter()

	s.route(r, "/", "root", s.handleRoot).Methods(http.MethodGet)
	s.route(r, "/health", "health", s.handleHealth).Methods(http.MethodGet)
	s.route(r, "/devices", "devices", s.handleDevices).Methods(http.MethodGet)
	s.route(r, "/devices/refresh", "devices_refresh", s.handleRefreshDevices).Methods(http.MethodPost)
	s.route(r, "/entities", "entities", s.handleEntities).Methods(http.MethodGet)
	s.route(r, "/entities/validate", "entities_validate", s.handleValidate).Methods(http.MethodGet)
	s.route(r, "/entities/{entity_id}/stats", "entity_stats", s.handleEntityStats).Methods(http.MethodGet)
	s.route(r, "/state", "state", s.handleState).Methods(http.MethodGet)
	s.route(r, "/load", "load", s.handleLoad).Methods(http.MethodPost)
	s.route(r, "/period", "period", s.handlePeriod).Methods(http.MethodPost)
	s.route(r, "/comparison", "comparison", s.handleComparison).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(corsOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.LoggingHandler(zap.NewStdLog(s.logger).Writer(), cors(r))
}

func (s *Server) route(r *mux.Router, path, name string, h http.HandlerFunc) *mux.Route {
	return r.Handle(path, s.metrics.WrapHandler(name, h))
}

// Run broadcasts every engine snapshot to the WebSocket clients until ctx is done.
func (s *Server) Run(ctx context.Context) {
	defer s.unsubscribe()
	for {
		select {
		case <-ctx.Done():
			s.hub.closeAll()
			return
		case snap := <-s.updates:
			s.hub.broadcast(snap)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": s.title,
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"loading": s.engine.Loading(),
	})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Devices())
}

func (s *Server) handleRefreshDevices(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RefreshDevices(r.Context()); err != nil {
		s.logger.Error("device refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Devices())
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Candidates())
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Validation())
}

func (s *Server) handleEntityStats(w http.ResponseWriter, r *http.Request) {
	entityID := mux.Vars(r)["entity_id"]
	p, stats, err := s.engine.EntityStats(r.Context(), entityID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{EntityID: entityID, Period: p, Stats: stats})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if !s.engine.StartLoad(r.Context()) {
		writeJSON(w, http.StatusConflict, loadResponse{Started: false, Message: "load already in progress"})
		return
	}
	writeJSON(w, http.StatusAccepted, loadResponse{Started: true, Message: "load started"})
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	s.handleSelection(w, r, s.engine.SelectPeriod)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	s.handleSelection(w, r, s.engine.SelectComparison)
}

// handleSelection applies ?period=&start=&end= and triggers a reload.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request, apply func(periods.Selector, types.Period) error) {
	q := r.URL.Query()
	selector := periods.Selector(q.Get("period"))

	var custom types.Period
	resp := selectionResponse{Selector: selector}
	if selector == periods.Custom {
		var err error
		if custom, err = parseCustom(q.Get("start"), q.Get("end")); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.Start, resp.End = &custom.Start, &custom.End
	}

	if err := apply(selector, custom); err != nil {
		if errors.Is(err, periods.ErrUnknownPeriod) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp.LoadStarted = s.engine.StartLoad(r.Context())
	writeJSON(w, http.StatusOK, resp)
}

func parseCustom(start, end string) (types.Period, error) {
	if start == "" || end == "" {
		return types.Period{}, fmt.Errorf("custom period requires start and end")
	}
	s, err := types.ParseDate(start)
	if err != nil {
		return types.Period{}, err
	}
	e, err := types.ParseDate(end)
	if err != nil {
		return types.Period{}, err
	}
	return periods.CustomPeriod(s, e), nil
}
