package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadym-shevikov/cv-tailor/internal/knowledge"
	"github.com/vadym-shevikov/cv-tailor/internal/llm"
	"github.com/vadym-shevikov/cv-tailor/internal/schemas"
	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

const cleanCV = `Jane Doe

Summary
Backend engineer building payment services in Go.

Skills
Go, Docker

Experience
Software Engineer | Acme Corp | 2020 - Present
- Built payment APIs in Go
- Reduced latency by 40%
- Ran services on Docker`

const cleanJob = `Backend Engineer

Responsibilities:
- Build payment APIs for merchants

Requirements:
- Strong Go experience
- Kubernetes in production`

// fixedClient answers every completion call with the same response.
type fixedClient struct {
	mu     sync.Mutex
	text   string
	err    error
	calls  int
	closed bool
}

func (c *fixedClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateJSON(ctx, prompt, tier)
}

func (c *fixedClient) GenerateJSON(context.Context, string, llm.ModelTier) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.text, c.err
}

func (c *fixedClient) GetModel(llm.ModelTier) string { return "fixed" }

func (c *fixedClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func factoryFor(client llm.Client) ClientFactory {
	return func(context.Context, string, time.Duration) (llm.Client, error) {
		return client, nil
	}
}

// countingProvider serves fixed content and counts fetches.
type countingProvider struct {
	mu      sync.Mutex
	content string
	calls   int
}

func (p *countingProvider) Fetch(context.Context, knowledge.Topic) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.content
}

func requireValidReport(t *testing.T, report *Report) {
	t.Helper()
	data, err := json.Marshal(report)
	require.NoError(t, err)
	require.NoError(t, schemas.Validate(schemas.Report, data))
}

func TestRun_CleanInput(t *testing.T) {
	client := &fixedClient{err: errors.New("offline")}
	o := NewOrchestrator(WithClientFactory(factoryFor(client)))

	report := o.Run(context.Background(), Request{Document: []byte(cleanCV), JobText: cleanJob}, DefaultConfig())

	assert.Equal(t, StatusCompleted, report.Status)
	assert.Empty(t, report.Notices)
	require.NotNil(t, report.Analysis)
	assert.Equal(t, []string{"kubernetes"}, report.Analysis.MissingKeywords)
	assert.Equal(t, types.LevelMedium, report.Analysis.MatchLevel)

	require.Len(t, report.Rewrites, 3)
	assert.Equal(t, types.SummaryID, report.Rewrites[0].Section)
	assert.Equal(t, types.SkillsID, report.Rewrites[1].Section)
	assert.Equal(t, types.ExperienceID(0), report.Rewrites[2].Section)
	for _, rw := range report.Rewrites {
		assert.True(t, rw.Unchanged)
		assert.Equal(t, rw.Before, rw.After)
		assert.NotEmpty(t, rw.Rationale)
	}

	assert.Contains(t, report.Markdown, "## CV Optimization Assistant")
	assert.Contains(t, report.Markdown, "- Missing keywords: kubernetes")
	assert.Contains(t, report.Markdown, "#### Role 1: Software Engineer at Acme Corp")
	assert.True(t, client.closed)
	requireValidReport(t, report)
}

func TestRun_NoSegmentableStructure(t *testing.T) {
	cv := "Jane Doe\nI enjoy building reliable software and have done so for many years.\nReach me any time."
	o := NewOrchestrator()

	report := o.Run(context.Background(), Request{Document: []byte(cv), JobText: cleanJob}, DefaultConfig())

	assert.Equal(t, StatusDegraded, report.Status)
	assert.NotEmpty(t, report.StatusDetail)
	require.NotNil(t, report.Analysis)
	assert.Contains(t, report.Markdown, "> **Reduced confidence:**")
	assert.Empty(t, report.Rewrites)
	assert.Equal(t, []string{"go", "kubernetes"}, report.Analysis.MissingKeywords)
	requireValidReport(t, report)
}

func TestRun_EmptyJobText(t *testing.T) {
	o := NewOrchestrator()

	report := o.Run(context.Background(), Request{Document: []byte(cleanCV)}, DefaultConfig())

	assert.Equal(t, StatusDegraded, report.Status)
	require.NotNil(t, report.Analysis)
	assert.Equal(t, types.LevelLow, report.Analysis.MatchLevel)
	assert.True(t, report.Analysis.Minimal)
	assert.Empty(t, report.Analysis.MissingKeywords)
	for _, target := range report.Analysis.ImprovementTargets {
		assert.Empty(t, target.Keyword)
		assert.NotEmpty(t, target.Section)
	}
	assert.Contains(t, report.Notices, "No job description was provided; skill comparison was skipped.")
	requireValidReport(t, report)
}

func TestRun_NoExtractableText(t *testing.T) {
	client := &fixedClient{}
	o := NewOrchestrator(WithClientFactory(factoryFor(client)))

	report := o.Run(context.Background(), Request{Document: []byte("  \n "), JobText: cleanJob}, DefaultConfig())

	assert.Equal(t, StatusFailed, report.Status)
	assert.Equal(t, "Unable to analyze the CV: the document contains no extractable text\n", report.Markdown)
	assert.Nil(t, report.Analysis)
	assert.Nil(t, report.Rewrites)
	assert.Zero(t, client.calls)
	requireValidReport(t, report)
}

func TestRun_UnsupportedFormat(t *testing.T) {
	o := NewOrchestrator()
	doc := []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0x00, 0x10, 0x11}

	report := o.Run(context.Background(), Request{Document: doc, Filename: "cv.png", JobText: cleanJob}, DefaultConfig())

	assert.Equal(t, StatusFailed, report.Status)
	assert.Contains(t, report.Markdown, "unsupported document format")
}

func TestRun_CompletionKeepsViolating(t *testing.T) {
	client := &fixedClient{text: `{"after": "Backend engineer building payment services in Go on Kubernetes at Google.", "rationale": "Adds kubernetes to the Summary."}`}
	cfg := DefaultConfig()
	cfg.MaxExperienceRewrites = 1
	o := NewOrchestrator(WithClientFactory(factoryFor(client)))

	report := o.Run(context.Background(), Request{Document: []byte(cleanCV), JobText: cleanJob}, cfg)

	assert.Equal(t, StatusCompleted, report.Status)
	require.NotEmpty(t, report.Rewrites)
	summary := report.Rewrites[0]
	assert.Equal(t, types.SummaryID, summary.Section)
	assert.Equal(t, summary.Before, summary.After)
	assert.Contains(t, summary.Rationale, "No safe improvement found")
	assert.Equal(t, 2, summary.Attempts)
	requireValidReport(t, report)
}

func TestRun_KnowledgeBackendSelection(t *testing.T) {
	remote := &countingProvider{content: "- Use standard headings"}
	local := &countingProvider{content: "- Use standard headings"}
	o := NewOrchestrator(WithKnowledge(remote, local))

	cfg := DefaultConfig()
	cfg.KnowledgeBackend = knowledge.BackendRemote
	o.Run(context.Background(), Request{Document: []byte(cleanCV), JobText: cleanJob}, cfg)
	assert.Positive(t, remote.calls)
	assert.Zero(t, local.calls)

	cfg.KnowledgeBackend = knowledge.BackendLocal
	o.Run(context.Background(), Request{Document: []byte(cleanCV), JobText: cleanJob}, cfg)
	assert.Positive(t, local.calls)
}

func TestRun_CompletionUnavailable(t *testing.T) {
	failing := func(context.Context, string, time.Duration) (llm.Client, error) {
		return nil, errors.New("missing API key")
	}
	o := NewOrchestrator(WithClientFactory(failing))

	report := o.Run(context.Background(), Request{Document: []byte(cleanCV), JobText: cleanJob}, DefaultConfig())

	assert.Equal(t, StatusCompleted, report.Status)
	assert.Contains(t, report.Notices, "The completion service is unavailable; every section is shown unchanged.")
}

func TestRun_PassesModelAndTimeout(t *testing.T) {
	var gotModel string
	var gotTimeout time.Duration
	factory := func(_ context.Context, model string, timeout time.Duration) (llm.Client, error) {
		gotModel, gotTimeout = model, timeout
		return &fixedClient{err: errors.New("offline")}, nil
	}
	cfg := DefaultConfig()
	cfg.CompletionModel = "gemini-2.5-pro"
	cfg.CompletionTimeout = 5 * time.Second

	NewOrchestrator(WithClientFactory(factory)).Run(context.Background(), Request{Document: []byte(cleanCV), JobText: cleanJob}, cfg)

	assert.Equal(t, "gemini-2.5-pro", gotModel)
	assert.Equal(t, 5*time.Second, gotTimeout)
}

func TestRun_ProgressEvents(t *testing.T) {
	var events []ProgressEvent
	req := Request{
		Document:   []byte(cleanCV),
		JobText:    cleanJob,
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	}

	report := NewOrchestrator().Run(context.Background(), req, DefaultConfig())

	require.Len(t, events, 4)
	stages := []string{events[0].Stage, events[1].Stage, events[2].Stage, events[3].Stage}
	assert.Equal(t, []string{StageExtraction, StageAnalysis, StageRewrite, StageReport}, stages)
	assert.Equal(t, StatusExtracted, events[0].Status)
	assert.Equal(t, StatusCompleted, events[3].Status)
	for _, e := range events {
		assert.Equal(t, report.RunID, e.RunID)
	}
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	o := NewOrchestrator()
	const runs = 8

	reports := make([]*Report, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			job := cleanJob
			if i%2 == 1 {
				job = ""
			}
			reports[i] = o.Run(context.Background(), Request{Document: []byte(cleanCV), JobText: job}, DefaultConfig())
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i, r := range reports {
		assert.False(t, seen[r.RunID], "duplicate run id")
		seen[r.RunID] = true
		if i%2 == 1 {
			assert.Equal(t, StatusDegraded, r.Status)
		} else {
			assert.Equal(t, StatusCompleted, r.Status)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.MatchThresholds.Low = 0.9
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MaxExperienceRewrites = 4
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MaxImprovementTargets = 0
	assert.Error(t, bad.Validate())
}
