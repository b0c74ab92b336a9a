package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	s.logger.Debug("ask request", zap.String("question", req.Question))
	res, err := s.answerer.Run(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("ask failed", zap.Error(err))
		if embedding.IsServiceError(err) {
			s.respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if r.URL.Query().Get("debug") == "true" {
		s.respondJSON(w, http.StatusOK, newDebugView(res))
		return
	}
	s.respondJSON(w, http.StatusOK, res.Answer)
}

type sourceView struct {
	Position int     `json:"position"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// debugView is a pipeline.Result without the context embeddings.
type debugView struct {
	Answer           models.Answer   `json:"answer"`
	State            pipeline.State  `json:"state"`
	Refused          bool            `json:"refused"`
	Reason           pipeline.Reason `json:"reason,omitempty"`
	TopScore         float64         `json:"top_score"`
	EmbModel         string          `json:"emb_model,omitempty"`
	IndexFingerprint string          `json:"index_fingerprint,omitempty"`
	EventID          string          `json:"event_id,omitempty"`
	Sources          []sourceView    `json:"sources"`
}

func newDebugView(res *pipeline.Result) debugView {
	v := debugView{
		Answer:           res.Answer,
		State:            res.State,
		Refused:          res.Refused,
		Reason:           res.Reason,
		TopScore:         res.TopScore,
		EmbModel:         res.EmbModel,
		IndexFingerprint: res.IndexFingerprint,
		EventID:          res.EventID,
		Sources:          make([]sourceView, 0, len(res.Contexts)),
	}
	for _, c := range res.Contexts {
		v.Sources = append(v.Sources, sourceView{Position: c.Position, Score: c.Score, Text: c.Text})
	}
	return v
}

func (s *Server) handleListAnswers(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.respondError(w, http.StatusNotFound, "journal disabled")
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxListLimit)
	}
	answers, err := s.journal.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger.Error("list answers failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"answers": answers})
}

func (s *Server) handleGetAnswer(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.respondError(w, http.StatusNotFound, "journal disabled")
		return
	}
	id := chi.URLParam(r, "id")
	ev, err := s.journal.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "answer not found")
		return
	}
	if err != nil {
		s.logger.Error("get answer failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, ev)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"index": s.index.Stats(),
	}
	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"embedding_provider":   s.config.Embedding.Provider,
			"generation_provider":  s.config.Generation.Provider,
			"generation_model":     s.config.Generation.Model,
			"top_k":                s.config.Retrieval.TopK,
			"similarity_threshold": s.config.Retrieval.ThresholdOrDefault(),
			"index_path":           s.config.Index.Path,
		}
	}
	if s.journal != nil {
		count, err := s.journal.Count(r.Context())
		if err != nil {
			s.logger.Error("status: count answers failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["answers"] = count
	}
	if s.config != nil {
		indexBytes, err := storage.DiskUsageBytes(s.config.Index.Path)
		if err == nil {
			resp["index_bytes"] = indexBytes
		}
		if s.journal != nil {
			if dbBytes, err := storage.DatabaseUsageBytes(s.config.Journal.DatabasePath); err == nil {
				resp["journal_bytes"] = dbBytes
			}
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
