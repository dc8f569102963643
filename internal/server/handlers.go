package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/vadym-shevikov/cv-tailor/internal/knowledge"
	"github.com/vadym-shevikov/cv-tailor/internal/pipeline"
)

// Multipart form fields of POST /analyze
const (
	fieldCV               = "cv"
	fieldJobText          = "job_text"
	fieldJobURL           = "job_url"
	fieldKnowledgeBackend = "knowledge_backend"
	fieldCompletionModel  = "completion_model"
)

// handleAnalyze runs the pipeline on an uploaded CV and returns the report as
// JSON, or as Markdown when the client accepts text/markdown.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, cfg, err := s.parseAnalyzeRequest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	report := s.runner.Run(r.Context(), req, cfg)

	status := http.StatusOK
	if report.Status == pipeline.StatusFailed {
		status = http.StatusUnprocessableEntity
	}

	if wantsMarkdown(r) {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("X-Run-ID", report.RunID)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, report.Markdown)
		return
	}
	s.jsonResponse(w, status, report)
}

// handleAnalyzeStream runs the pipeline and streams progress events via SSE,
// ending with the report.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req, cfg, err := s.parseAnalyzeRequest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	req.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent(eventProgress, event); err != nil {
			s.logger.Debug("client stopped reading progress", "error", err)
		}
	}

	report := s.runner.Run(r.Context(), req, cfg)
	if err := sse.WriteEvent(eventReport, report); err != nil {
		sse.WriteError("failed to encode report")
		return
	}
	sse.WriteComplete(report.RunID, string(report.Status))
}

// parseAnalyzeRequest reads the multipart form and applies per-request overrides.
func (s *Server) parseAnalyzeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, pipeline.Config, error) {
	var req pipeline.Request
	cfg := s.base

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, cfg, &ErrTooLarge{Limit: s.maxUpload}
		}
		return req, cfg, &ErrValidation{Field: "body", Message: "expected multipart/form-data"}
	}

	file, header, err := r.FormFile(fieldCV)
	if err != nil {
		return req, cfg, &ErrValidation{Field: fieldCV, Message: "a CV file is required"}
	}
	defer func() { _ = file.Close() }()

	document, err := io.ReadAll(file)
	if err != nil {
		return req, cfg, &ErrValidation{Field: fieldCV, Message: "failed to read upload"}
	}
	if len(document) == 0 {
		return req, cfg, &ErrValidation{Field: fieldCV, Message: "the uploaded file is empty"}
	}
	req.Document = document
	req.Filename = header.Filename

	jobText := strings.TrimSpace(r.FormValue(fieldJobText))
	jobURL := strings.TrimSpace(r.FormValue(fieldJobURL))
	if jobText == "" && jobURL != "" {
		jobText, err = s.fetchJob(r.Context(), jobURL)
		if err != nil {
			return req, cfg, err
		}
	}
	req.JobText = jobText

	if backend := r.FormValue(fieldKnowledgeBackend); backend != "" {
		switch knowledge.Backend(backend) {
		case knowledge.BackendRemote, knowledge.BackendLocal:
			cfg.KnowledgeBackend = knowledge.Backend(backend)
		default:
			return req, cfg, &ErrValidation{Field: fieldKnowledgeBackend, Message: "must be remote or local"}
		}
	}
	if model := strings.TrimSpace(r.FormValue(fieldCompletionModel)); model != "" {
		cfg.CompletionModel = model
	}
	return req, cfg, nil
}

func (s *Server) fetchJob(ctx context.Context, url string) (string, error) {
	if s.jobs == nil {
		return "", &ErrValidation{Field: fieldJobURL, Message: "job URL fetching is not enabled"}
	}
	text, err := s.jobs.JobText(ctx, url)
	if err != nil {
		s.logger.Warn("job posting fetch failed", "url", url, "error", err)
		return "", &ErrJobFetch{URL: url, Cause: err}
	}
	return text, nil
}

// wantsMarkdown reports whether the Accept header asks for text/markdown
func wantsMarkdown(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/markdown")
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]string{"status": "ok"}
	if src, ok := s.knowledge.(interface{ ActiveSource() string }); ok {
		resp["knowledge_source"] = src.ActiveSource()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleListKnowledge lists the known knowledge topics
func (s *Server) handleListKnowledge(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"topics": knowledge.Topics()})
}

// handleKnowledge returns the advisory text of one topic
func (s *Server) handleKnowledge(w http.ResponseWriter, r *http.Request) {
	topic, err := knowledge.ParseTopic(r.PathValue("topic"))
	if err != nil {
		s.writeError(w, &ErrNotFound{What: "knowledge topic"})
		return
	}
	if s.knowledge == nil {
		s.writeError(w, &ErrNotFound{What: "knowledge content"})
		return
	}

	content := s.knowledge.Fetch(r.Context(), topic)
	if content == "" {
		s.writeError(w, &ErrNotFound{What: "knowledge content"})
		return
	}
	if wantsMarkdown(r) {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, content)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"topic": string(topic), "content": content})
}
