package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/llm"
	"github.com/berth-dev/briefing/internal/model"
	"github.com/berth-dev/briefing/internal/orchestrator"
	"github.com/berth-dev/briefing/internal/session"
)

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiResponse{Success: status >= 200 && status < 300, Data: data}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiResponse{Error: &apiError{Code: code, Message: message}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode error response", zap.Error(err))
	}
}

// fail maps orchestrator errors to HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, orchestrator.ErrSessionBusy):
		s.respondError(w, http.StatusConflict, "session_busy", err.Error())
	case errors.Is(err, orchestrator.ErrIllegalTransition):
		s.respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, orchestrator.ErrStageLoop):
		s.respondError(w, http.StatusTooManyRequests, "stage_loop", err.Error())
	case errors.Is(err, orchestrator.ErrIdeaTooShort),
		errors.Is(err, orchestrator.ErrNoAnswers),
		errors.Is(err, orchestrator.ErrUnknownFeedback):
		s.respondError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, llm.ErrConnectivity):
		s.respondError(w, http.StatusBadGateway, "generator_unavailable", err.Error())
	default:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.gen.CheckAvailability(r.Context()) {
		s.respondError(w, http.StatusServiceUnavailable, "not_ready", "text generator unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.orch.ListSessions()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []model.Summary{}
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Idea string `json:"idea"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	sess, err := s.orch.CreateSession(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Idea != "" {
		if sess, err = s.orch.SubmitIdea(r.Context(), sess.SessionID, req.Idea); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.orch.LoadSession(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.DeleteSession(chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.orch.Stats(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	in, err := s.orch.Insights(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, in)
}

func (s *Server) handleSubmitIdea(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Idea string `json:"idea"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.reply(w, r)(s.orch.SubmitIdea(r.Context(), chi.URLParam(r, "id"), req.Idea))
}

func (s *Server) handleRunCompetency(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r)(s.orch.RunCompetencyAnalysis(r.Context(), chi.URLParam(r, "id")))
}

type answersRequest struct {
	Answers []model.Answer `json:"answers"`
}

func (s *Server) handleCompetencyAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.reply(w, r)(s.orch.SubmitCompetencyAnswers(r.Context(), chi.URLParam(r, "id"), req.Answers))
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r)(s.orch.GenerateQuestions(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleMainAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.reply(w, r)(s.orch.SubmitMainAnswers(r.Context(), chi.URLParam(r, "id"), req.Answers))
}

func (s *Server) handleReformulate(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r)(s.orch.ReformulateUnclear(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Clarifications []model.Answer `json:"clarifications"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.reply(w, r)(s.orch.ProcessAnswers(r.Context(), chi.URLParam(r, "id"), req.Clarifications))
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Feedback string `json:"feedback"`
		Comments string `json:"comments"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.reply(w, r)(s.orch.SubmitFeedback(r.Context(), chi.URLParam(r, "id"), req.Feedback, req.Comments))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r)(s.orch.Approve(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleIterate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comments string `json:"comments"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.reply(w, r)(s.orch.IterateAgain(r.Context(), chi.URLParam(r, "id"), req.Comments))
}

func (s *Server) handleResetStage(w http.ResponseWriter, r *http.Request) {
	step, err := model.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.orch.ResetStage(chi.URLParam(r, "id"), step)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// reply writes the session returned by an orchestrator operation.
func (s *Server) reply(w http.ResponseWriter, r *http.Request) func(*model.SessionData, error) {
	return func(sess *model.SessionData, err error) {
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, sess)
	}
}
