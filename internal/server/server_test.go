package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadym-shevikov/cv-tailor/internal/knowledge"
	"github.com/vadym-shevikov/cv-tailor/internal/pipeline"
	"github.com/vadym-shevikov/cv-tailor/internal/server/ratelimit"
	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

type fakeRunner struct {
	mu     sync.Mutex
	status pipeline.Status
	reqs   []pipeline.Request
	cfgs   []pipeline.Config
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request, cfg pipeline.Config) *pipeline.Report {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.cfgs = append(f.cfgs, cfg)
	f.mu.Unlock()

	status := f.status
	if status == "" {
		status = pipeline.StatusCompleted
	}
	if req.OnProgress != nil {
		req.OnProgress(pipeline.ProgressEvent{RunID: "run-1", Stage: pipeline.StageExtraction, Status: pipeline.StatusExtracted, Message: "extracted"})
	}
	if status == pipeline.StatusFailed {
		return &pipeline.Report{RunID: "run-1", Status: status, StatusDetail: "the document contains no extractable text",
			Markdown: pipeline.RenderFailure("the document contains no extractable text")}
	}
	analysis := &types.AnalysisReport{MatchLevel: types.LevelHigh, ATSReadinessLevel: types.LevelMedium}
	return &pipeline.Report{
		RunID:    "run-1",
		Status:   status,
		Analysis: analysis,
		Markdown: pipeline.RenderMarkdown(analysis, nil, nil),
	}
}

func (f *fakeRunner) lastRequest(t *testing.T) (pipeline.Request, pipeline.Config) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.reqs)
	return f.reqs[len(f.reqs)-1], f.cfgs[len(f.cfgs)-1]
}

type fakeJobs struct {
	text string
	err  error
	urls []string
}

func (f *fakeJobs) JobText(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.text, f.err
}

type fakeKnowledge map[knowledge.Topic]string

func (f fakeKnowledge) Fetch(_ context.Context, topic knowledge.Topic) string { return f[topic] }
func (f fakeKnowledge) ActiveSource() string { return "local" }

func newTestServer(runner Runner, opts ...Option) *Server {
	cfg := Config{
		Pipeline:  pipeline.DefaultConfig(),
		RateLimit: ratelimit.Config{Enabled: false},
	}
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(cfg, runner, opts...)
}

func multipartBody(t *testing.T, cv []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if cv != nil {
		fw, err := mw.CreateFormFile(fieldCV, "cv.txt")
		require.NoError(t, err)
		_, err = fw.Write(cv)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postAnalyze(t *testing.T, h http.Handler, path string, cv []byte, fields map[string]string, accept string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, cv, fields)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyze_JSON(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(runner).Handler()

	rec := postAnalyze(t, h, "/analyze", []byte("Summary\nBackend engineer"), map[string]string{fieldJobText: "Requirements: Go"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report pipeline.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, pipeline.StatusCompleted, report.Status)
	assert.Equal(t, types.LevelHigh, report.Analysis.MatchLevel)

	req, cfg := runner.lastRequest(t)
	assert.Equal(t, "Summary\nBackend engineer", string(req.Document))
	assert.Equal(t, "cv.txt", req.Filename)
	assert.Equal(t, "Requirements: Go", req.JobText)
	assert.Equal(t, pipeline.DefaultConfig(), cfg)
}

func TestAnalyze_Markdown(t *testing.T) {
	h := newTestServer(&fakeRunner{}).Handler()

	rec := postAnalyze(t, h, "/analyze", []byte("cv"), nil, "text/markdown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "run-1", rec.Header().Get("X-Run-ID"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "## CV Optimization Assistant"))
}

func TestAnalyze_FailedRun(t *testing.T) {
	h := newTestServer(&fakeRunner{status: pipeline.StatusFailed}).Handler()

	rec := postAnalyze(t, h, "/analyze", []byte("%PDF-1.4"), nil, "text/markdown")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Unable to analyze the CV: the document contains no extractable text\n", rec.Body.String())
}

func TestAnalyze_Overrides(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(runner).Handler()

	rec := postAnalyze(t, h, "/analyze", []byte("cv"), map[string]string{
		fieldKnowledgeBackend: "remote",
		fieldCompletionModel:  "gemini-2.5-pro",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, cfg := runner.lastRequest(t)
	assert.Equal(t, knowledge.BackendRemote, cfg.KnowledgeBackend)
	assert.Equal(t, "gemini-2.5-pro", cfg.CompletionModel)
}

func TestAnalyze_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		cv      []byte
		fields  map[string]string
		status  int
		message string
	}{
		{"missing cv", nil, map[string]string{fieldJobText: "x"}, http.StatusBadRequest, "a CV file is required"},
		{"empty cv", []byte{}, nil, http.StatusBadRequest, "the uploaded file is empty"},
		{"bad backend", []byte("cv"), map[string]string{fieldKnowledgeBackend: "cloud"}, http.StatusBadRequest, "must be remote or local"},
		{"job url without fetcher", []byte("cv"), map[string]string{fieldJobURL: "https://example.com/job"}, http.StatusBadRequest, "not enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			h := newTestServer(runner).Handler()

			rec := postAnalyze(t, h, "/analyze", tt.cv, tt.fields, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
			assert.Empty(t, runner.reqs)
		})
	}
}

func TestAnalyze_NotMultipart(t *testing.T) {
	h := newTestServer(&fakeRunner{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"cv":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "multipart/form-data")
}

func TestAnalyze_TooLarge(t *testing.T) {
	runner := &fakeRunner{}
	s := New(Config{MaxUploadBytes: 1024, RateLimit: ratelimit.Config{}}, runner,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	rec := postAnalyze(t, s.Handler(), "/analyze", bytes.Repeat([]byte("a"), 4096), nil, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, runner.reqs)
}

func TestAnalyze_JobURL(t *testing.T) {
	runner := &fakeRunner{}
	jobs := &fakeJobs{text: "Requirements\n- Go"}
	h := newTestServer(runner, WithJobFetcher(jobs)).Handler()

	rec := postAnalyze(t, h, "/analyze", []byte("cv"), map[string]string{fieldJobURL: "https://jobs.lever.co/acme/1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	req, _ := runner.lastRequest(t)
	assert.Equal(t, "Requirements\n- Go", req.JobText)
	assert.Equal(t, []string{"https://jobs.lever.co/acme/1"}, jobs.urls)
}

func TestAnalyze_JobTextWinsOverURL(t *testing.T) {
	runner := &fakeRunner{}
	jobs := &fakeJobs{text: "fetched"}
	h := newTestServer(runner, WithJobFetcher(jobs)).Handler()

	rec := postAnalyze(t, h, "/analyze", []byte("cv"), map[string]string{
		fieldJobText: "pasted",
		fieldJobURL:  "https://example.com/job",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	req, _ := runner.lastRequest(t)
	assert.Equal(t, "pasted", req.JobText)
	assert.Empty(t, jobs.urls)
}

func TestAnalyze_JobURLFetchFails(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(runner, WithJobFetcher(&fakeJobs{err: errors.New("HTTP status 404")})).Handler()

	rec := postAnalyze(t, h, "/analyze", []byte("cv"), map[string]string{fieldJobURL: "https://example.com/gone"}, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to fetch job posting")
	assert.Empty(t, runner.reqs)
}

func TestAnalyze_RateLimited(t *testing.T) {
	s := New(Config{RateLimit: ratelimit.Config{Enabled: true, PerHour: 1, Burst: 1}}, &fakeRunner{},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer s.limiter.Stop()
	h := s.Handler()

	first := postAnalyze(t, h, "/analyze", []byte("cv"), nil, "")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := postAnalyze(t, h, "/analyze", []byte("cv"), nil, "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	health := httptest.NewRecorder()
	h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code, "health is never limited")
}

func TestAnalyzeStream(t *testing.T) {
	h := newTestServer(&fakeRunner{}).Handler()

	rec := postAnalyze(t, h, "/analyze/stream", []byte("cv"), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	progress := strings.Index(body, "event: progress")
	report := strings.Index(body, "event: report")
	complete := strings.Index(body, "event: complete")
	require.NotEqual(t, -1, progress)
	assert.Greater(t, report, progress)
	assert.Greater(t, complete, report)
	assert.Contains(t, body, `"status":"Completed"`)
}

func TestHealth(t *testing.T) {
	h := newTestServer(&fakeRunner{}, WithKnowledge(fakeKnowledge{})).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "local", body["knowledge_source"])
}

func TestKnowledge(t *testing.T) {
	kp := fakeKnowledge{knowledge.TopicATSTips: "Use standard headings."}
	h := newTestServer(&fakeRunner{}, WithKnowledge(kp)).Handler()

	tests := []struct {
		name   string
		path   string
		accept string
		status int
		body   string
	}{
		{"json", "/knowledge/ats_tips", "", http.StatusOK, `"content":"Use standard headings."`},
		{"markdown", "/knowledge/ats_tips", "text/markdown", http.StatusOK, "Use standard headings."},
		{"unknown topic", "/knowledge/salaries", "", http.StatusNotFound, "knowledge topic not found"},
		{"no content", "/knowledge/bullet_examples", "", http.StatusNotFound, "knowledge content not found"},
		{"list", "/knowledge", "", http.StatusOK, `"cv_best_practices"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&fakeRunner{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/analyze", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(&ErrValidation{Field: "cv"}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, HTTPStatus(&ErrTooLarge{Limit: 1}))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(&ErrJobFetch{URL: "u", Cause: errors.New("x")}))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(&ErrNotFound{What: "topic"}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
