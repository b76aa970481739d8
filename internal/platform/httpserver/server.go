package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	slaengine "stagewatch/contexts/crm-compliance/sla-engine"
	domainerrors "stagewatch/contexts/crm-compliance/sla-engine/domain/errors"
	slahttp "stagewatch/contexts/crm-compliance/sla-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "stagewatch/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	engine slaengine.Module
}

func New(engine slaengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		engine: engine,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/sla/v1/rules", s.handleCreateRule)
	s.mux.HandleFunc("GET /api/sla/v1/rules", s.handleListRules)
	s.mux.HandleFunc("GET /api/sla/v1/rules/{rule_id}", s.handleGetRule)
	s.mux.HandleFunc("POST /api/sla/v1/rules/{rule_id}/activate", s.handleActivateRule)
	s.mux.HandleFunc("POST /api/sla/v1/rules/{rule_id}/deactivate", s.handleDeactivateRule)
	s.mux.HandleFunc("GET /api/sla/v1/breaches", s.handleListBreaches)
	s.mux.HandleFunc("POST /api/sla/v1/detector/run", s.handleRunDetector)
	s.mux.HandleFunc("POST /api/sla/v1/summary/run", s.handleRunSummary)
	s.mux.HandleFunc("POST /api/sla/v1/records/stage-change", s.handleStageChange)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req slahttp.CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	resp, err := s.engine.Handler.CreateRuleHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Handler.ListRulesHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Handler.GetRuleHandler(r.Context(), r.PathValue("rule_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActivateRule(w http.ResponseWriter, r *http.Request) {
	s.toggleRule(w, r, true)
}

func (s *Server) handleDeactivateRule(w http.ResponseWriter, r *http.Request) {
	s.toggleRule(w, r, false)
}

func (s *Server) toggleRule(w http.ResponseWriter, r *http.Request, active bool) {
	if err := s.engine.Handler.SetRuleActiveHandler(r.Context(), r.PathValue("rule_id"), active); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (s *Server) handleListBreaches(w http.ResponseWriter, r *http.Request) {
	sinceHours := 24.0
	if raw := r.URL.Query().Get("since_hours"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_since_hours", "since_hours must be a positive number")
			return
		}
		sinceHours = value
	}
	resp, err := s.engine.Handler.ListBreachesHandler(r.Context(), sinceHours)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunDetector(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Handler.RunDetectorHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Handler.RunSummaryHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStageChange(w http.ResponseWriter, r *http.Request) {
	var req slahttp.StageChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Handler.StageChangeHandler(r.Context(), req))
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrRuleNotFound):
		writeError(w, http.StatusNotFound, "rule_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidRuleInput):
		writeError(w, http.StatusBadRequest, "invalid_rule_input", err.Error())
	default:
		s.logger.Error("request failed",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, slahttp.ErrorResponse{Code: code, Message: message})
}
