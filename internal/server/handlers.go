package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hikari/ronbun/internal/markdown"
	"github.com/hikari/ronbun/internal/models"
	"github.com/hikari/ronbun/internal/resolve"
	"github.com/hikari/ronbun/internal/store"
	"github.com/hikari/ronbun/internal/stream"
	"github.com/hikari/ronbun/internal/translate"
	"github.com/hikari/ronbun/pkg/utils"
	"go.uber.org/zap"
)

var langRE = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stages := map[string]int64{}
	if s.ledger != nil {
		counts, err := s.ledger.CountByStage(r.Context())
		if err != nil {
			s.logger.Error("status: ledger counts failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		stages = counts
	}
	resp := map[string]interface{}{
		"stages": stages,
		"config": map[string]interface{}{
			"local_root":       s.config.Storage.LocalRoot,
			"namespace":        s.config.Storage.Namespace,
			"durable_enabled":  s.config.Storage.OSS.Enabled(),
			"translate_model":  s.config.Translate.Model,
			"stream_chunk":     s.config.Stream.ChunkBytes,
			"stream_keepalive": s.config.Stream.KeepaliveSeconds,
		},
	}
	diskBytes, err := store.DiskUsageBytes(s.config.Storage.LocalRoot, s.config.Storage.LedgerPath)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	id := store.SanitizeID(chi.URLParam(r, "id"))
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "paper id is required")
		return
	}
	bilingual := boolParam(r, "bilingual")
	s.logger.Debug("content request", zap.String("paper_id", id), zap.Bool("bilingual", bilingual))

	content, err := s.resolver.Resolve(r.Context(), id, bilingual)
	if err != nil {
		if errors.Is(err, resolve.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "paper not found")
			return
		}
		s.logger.Error("resolution failed", zap.String("paper_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"paper_id":  id,
		"bilingual": bilingual,
		"content":   content,
	})
}

func (s *Server) handleTranslateStream(w http.ResponseWriter, r *http.Request) {
	id := store.SanitizeID(chi.URLParam(r, "id"))
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "paper id is required")
		return
	}
	lang, ok := s.langParam(w, r)
	if !ok {
		return
	}
	requestID := uuid.NewString()
	s.logger.Info("translate stream start",
		zap.String("request_id", requestID), zap.String("paper_id", id), zap.String("lang", lang))

	var content string
	if boolParam(r, "mock") {
		content = resolve.MockBilingual(id, lang)
	} else {
		// Production survives a client disconnect: the artifact is still
		// published for the next request. Writes stop with r.Context().
		c, err := s.resolver.Resolve(context.WithoutCancel(r.Context()), id, true)
		switch {
		case errors.Is(err, resolve.ErrNotFound):
			s.logger.Warn("no artifact, streaming mock content",
				zap.String("request_id", requestID), zap.String("paper_id", id))
			content = resolve.MockBilingual(id, lang)
		case err != nil:
			s.logger.Error("resolution failed",
				zap.String("request_id", requestID), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		default:
			content = c
		}
	}
	s.streamContent(w, r, requestID, content)
}

func (s *Server) handleTranslateInline(w http.ResponseWriter, r *http.Request) {
	var input models.TranslateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Text == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	lang := input.Lang
	if lang == "" {
		lang = s.config.Translate.TargetLang
	}
	if !langRE.MatchString(lang) {
		s.respondError(w, http.StatusBadRequest, "invalid lang tag")
		return
	}
	requestID := uuid.NewString()
	s.logger.Info("inline translate stream start",
		zap.String("request_id", requestID),
		zap.Int("chars", len(input.Text)),
		zap.String("preview", utils.Truncate(input.Text, 80)),
		zap.Bool("mock", input.Mock))

	tr := s.translator
	if input.Mock {
		tr = translate.NewTranslator(nil, 0, 0, s.logger)
	}
	chunks := markdown.Chunk(input.Text, s.config.Translate.MinHeadingLevel)
	doc := tr.TranslateDocument(context.WithoutCancel(r.Context()), "inline", lang, chunks)
	content := markdown.RenderBilingual(doc, markdown.ParseStyle(s.config.Translate.Style))
	s.streamContent(w, r, requestID, content)
}

// streamContent delivers content in bounded fragments with keepalive padding.
// The stream simply ends on a mid-stream failure; there is no trailer protocol.
func (s *Server) streamContent(w http.ResponseWriter, r *http.Request, requestID, content string) {
	chunkBytes := s.config.Stream.ChunkBytes
	if chunkBytes <= 0 {
		chunkBytes = 4096
	}
	keepalive := time.Duration(s.config.Stream.KeepaliveSeconds) * time.Second

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	frags := make(chan string)
	go func() {
		defer close(frags)
		for _, f := range stream.Split(content, chunkBytes) {
			select {
			case frags <- f:
			case <-r.Context().Done():
				return
			}
		}
	}()
	if err := stream.Stream(r.Context(), w, frags, keepalive); err != nil {
		s.logger.Debug("stream ended early", zap.String("request_id", requestID), zap.Error(err))
		return
	}
	s.logger.Info("stream complete",
		zap.String("request_id", requestID), zap.Int("bytes", len(content)))
}

// langParam extracts and validates the lang query parameter, defaulting to the
// configured target language. Responds 400 and returns ok=false when invalid.
func (s *Server) langParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = s.config.Translate.TargetLang
	}
	if !langRE.MatchString(lang) {
		s.respondError(w, http.StatusBadRequest, "invalid lang tag")
		return "", false
	}
	return lang, true
}

func boolParam(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
