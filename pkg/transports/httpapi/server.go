package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/echoverse/narrate/pkg/errorsx"
	"github.com/echoverse/narrate/pkg/narrate"
	"github.com/echoverse/narrate/pkg/speech"
)

// Server exposes the narration service over a small JSON API.
type Server struct {
	svc    *narrate.Service
	logger *slog.Logger
}

func NewServer(svc *narrate.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/narrate", s.handleNarrate)
	mux.HandleFunc("GET /v1/voices", s.handleVoices)
	mux.HandleFunc("GET /v1/languages", s.handleLanguages)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

type narrateResponse struct {
	RunID      string           `json:"run_id"`
	Provider   string           `json:"provider"`
	Voice      string           `json:"voice"`
	Reference  string           `json:"reference,omitempty"`
	DurationMS int64            `json:"duration_ms,omitempty"`
	Attempts   []speech.Outcome `json:"attempts"`
}

type errorResponse struct {
	Error    string           `json:"error"`
	Code     string           `json:"code"`
	Attempts []speech.Outcome `json:"attempts,omitempty"`
}

func (s *Server) handleNarrate(w http.ResponseWriter, r *http.Request) {
	var in narrate.GenerateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "malformed request body",
			Code:  string(errorsx.ReasonInvalidRequest),
		})
		return
	}

	out, err := s.svc.Generate(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, narrateResponse{
		RunID:      out.RunID,
		Provider:   out.Provider,
		Voice:      out.Voice,
		Reference:  out.Reference,
		DurationMS: out.DurationMS,
		Attempts:   out.Attempts,
	})
}

type voiceEntry struct {
	Provider string `json:"provider"`
	Voice    string `json:"voice"`
	Language string `json:"language"`
	Persona  string `json:"persona,omitempty"`
	Tier     string `json:"tier"`
	Default  bool   `json:"default,omitempty"`
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	language := strings.TrimSpace(r.URL.Query().Get("language"))
	if language == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "language query parameter is required",
			Code:  string(errorsx.ReasonInvalidRequest),
		})
		return
	}
	voices := s.svc.Voices(language)
	out := make([]voiceEntry, 0, len(voices))
	for _, v := range voices {
		out = append(out, voiceEntry{
			Provider: v.Provider,
			Voice:    v.ID,
			Language: v.Language,
			Persona:  v.Persona,
			Tier:     v.Tier.String(),
			Default:  v.Default,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"voices": out})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"languages": s.svc.Languages()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps engine reasons onto HTTP statuses. Exhaustion is 502: the
// request was fine, every upstream was not.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError
	switch {
	case errorsx.HasReason(err, errorsx.ReasonInvalidRequest):
		status = http.StatusBadRequest
		resp.Code = string(errorsx.ReasonInvalidRequest)
	case errorsx.HasReason(err, errorsx.ReasonUnsupportedLanguage):
		status = http.StatusUnprocessableEntity
		resp.Code = string(errorsx.ReasonUnsupportedLanguage)
	case errorsx.HasReason(err, errorsx.ReasonExhausted):
		status = http.StatusBadGateway
		resp.Code = string(errorsx.ReasonExhausted)
		var exhausted *speech.ExhaustedError
		if errors.As(err, &exhausted) {
			resp.Attempts = exhausted.Attempts
		}
	case errors.Is(err, http.ErrHandlerTimeout):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
