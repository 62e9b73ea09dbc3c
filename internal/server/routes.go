package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phuslu/log"

	"github.com/ziadkadry99/docchat/internal/assistant"
	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/qa"
	"github.com/ziadkadry99/docchat/internal/session"
	"github.com/ziadkadry99/docchat/internal/validate"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

func (s *Server) registerRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", s.handleProcess)
		r.Get("/documents", s.handleListDocuments)
		r.Post("/search", s.handleSearch)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions/{id}/ask", s.handleAsk)
		r.Get("/sessions/{id}/turns", s.handleTurns)
		r.Get("/sessions/{id}/export", s.handleExport)
		r.Get("/ws", s.handleWebsocket)
	})
}

type processResponse struct {
	Type       string `json:"type"`
	Files      int    `json:"files"`
	Characters int    `json:"characters"`
	Chunks     int    `json:"chunks"`
	StagedPath string `json:"staged_path,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	docs := make([]document.Document, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("reading %s", fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("reading %s", fh.Filename))
			return
		}
		docs = append(docs, document.Document{Name: fh.Filename, Data: data})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sess *session.Session
	if id := r.FormValue("session_id"); id != "" {
		var err error
		if sess, err = s.session(r.Context(), id); err != nil {
			writeCoreError(w, err)
			return
		}
	}

	res, err := s.svc.Process(r.Context(), sess, docs)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, processResponse{
		Type:       string(res.Type),
		Files:      res.Files,
		Characters: res.Characters,
		Chunks:     res.Chunks,
		StagedPath: res.StagedPath,
		DurationMs: res.Duration.Milliseconds(),
	})
}

type documentResponse struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	ContentHash string    `json:"content_hash"`
	Chunks      int       `json:"chunks"`
	ProcessedAt time.Time `json:"processed_at"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Store()
	if store == nil {
		writeJSON(w, http.StatusOK, []documentResponse{})
		return
	}
	recs, err := store.ListDocuments(r.Context())
	if err != nil {
		writeCoreError(w, err)
		return
	}
	out := make([]documentResponse, len(recs))
	for i, rec := range recs {
		out[i] = documentResponse{
			Name:        rec.Name,
			Type:        rec.Type,
			Size:        rec.Size,
			ContentHash: rec.ContentHash,
			Chunks:      rec.Chunks,
			ProcessedAt: rec.ProcessedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResult struct {
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float32 `json:"similarity"`
	Content    string  `json:"content"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	results, err := s.svc.Search(r.Context(), req.Query, req.Limit)
	s.mu.Unlock()
	if err != nil {
		writeCoreError(w, err)
		return
	}

	out := make([]searchResult, len(results))
	for i, res := range results {
		out[i] = searchResult{
			Source:     res.Document.Metadata.Source,
			ChunkIndex: res.Document.Metadata.ChunkIndex,
			Similarity: res.Similarity,
			Content:    res.Document.Content,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type sessionResponse struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	Turns     int       `json:"turns"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sess, err := s.newSession(r.Context())
	s.mu.Unlock()
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:        sess.ID,
		Mode:      string(sess.Mode),
		CreatedAt: sess.CreatedAt,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []sessionResponse
	if store := s.svc.Store(); store != nil {
		sums, err := store.List(r.Context())
		if err != nil {
			writeCoreError(w, err)
			return
		}
		for _, sum := range sums {
			out = append(out, sessionResponse{ID: sum.ID, Mode: string(sum.Mode), CreatedAt: sum.CreatedAt, Turns: sum.Turns})
		}
	} else {
		for _, sess := range s.sessions {
			out = append(out, sessionResponse{ID: sess.ID, Mode: string(sess.Mode), CreatedAt: sess.CreatedAt, Turns: sess.Len()})
		}
	}
	if out == nil {
		out = []sessionResponse{}
	}
	writeJSON(w, http.StatusOK, out)
}

type askRequest struct {
	Question string `json:"question"`
}

type answerResponse struct {
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Context   []string `json:"context"`
	Model     string   `json:"model"`
	LatencyMs int64    `json:"latency_ms"`
	NotFound  bool     `json:"not_found"`
}

func toAnswerResponse(ans *qa.Answer) answerResponse {
	ctx := ans.Context
	if ctx == nil {
		ctx = []string{}
	}
	return answerResponse{
		Question:  ans.Question,
		Answer:    ans.Text,
		Context:   ctx,
		Model:     ans.Model,
		LatencyMs: ans.Latency.Milliseconds(),
		NotFound:  ans.NotFound(),
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ans, err := s.ask(r, chi.URLParam(r, "id"), req.Question)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnswerResponse(ans))
}

func (s *Server) ask(r *http.Request, sessionID, question string) (*qa.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(r.Context(), sessionID)
	if err != nil {
		return nil, err
	}
	return s.svc.Ask(r.Context(), sess, question)
}

type turnResponse struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// handleTurns lists a session's turns newest first.
func (s *Server) handleTurns(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sess, err := s.session(r.Context(), chi.URLParam(r, "id"))
	var turns []session.ChatTurn
	if err == nil {
		turns = sess.Recent()
	}
	s.mu.Unlock()
	if err != nil {
		writeCoreError(w, err)
		return
	}

	out := make([]turnResponse, len(turns))
	for i, t := range turns {
		out[i] = turnResponse{Question: t.Question, Answer: t.Answer, Source: string(t.Source), CreatedAt: t.CreatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeCoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="chat_history_%s.csv"`, sess.ID))
	if err := sess.WriteCSV(w); err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("exporting chat history")
	}
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validate.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, vectordb.ErrIndexNotFound):
		return http.StatusConflict
	case errors.Is(err, document.ErrExtraction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeCoreError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError && !assistant.IsUserError(err) {
		log.Error().Err(err).Msg("request failed")
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("writing response")
	}
}
