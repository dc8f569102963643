package knowledge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds a single remote read.
const DefaultTimeout = 5 * time.Second

// Source is a knowledge transport: topic in, text out.
type Source interface {
	Read(ctx context.Context, topic Topic) (string, error)
	Name() string
}

// Writer is implemented by sources that can store topic content.
type Writer interface {
	Write(ctx context.Context, topic Topic, content string) error
}

// Provider resolves topics to advisory text. Fetch never fails: empty text means
// no guidance is available.
type Provider interface {
	Fetch(ctx context.Context, topic Topic) string
}

// FallbackProvider reads from a remote source until the first failure, then
// switches to the local source for the rest of the process lifetime.
type FallbackProvider struct {
	remote  Source
	local   Source
	timeout time.Duration
	logger  *slog.Logger

	downgraded atomic.Bool
	mu         sync.Mutex
	reason     error
}

// Option configures a FallbackProvider.
type Option func(*FallbackProvider)

// WithTimeout sets the per-call timeout for remote reads.
func WithTimeout(d time.Duration) Option {
	return func(p *FallbackProvider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger used to report downgrades.
func WithLogger(logger *slog.Logger) Option {
	return func(p *FallbackProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewFallbackProvider creates a provider. A nil remote means the provider is
// local-only from the start.
func NewFallbackProvider(remote, local Source, opts ...Option) *FallbackProvider {
	p := &FallbackProvider{
		remote:  remote,
		local:   local,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if remote == nil {
		p.downgraded.Store(true)
	}
	return p
}

// NewLocalProvider creates a provider that only reads local content.
func NewLocalProvider(local Source, opts ...Option) *FallbackProvider {
	return NewFallbackProvider(nil, local, opts...)
}

// Fetch returns the topic text, or "" when neither source can supply it.
func (p *FallbackProvider) Fetch(ctx context.Context, topic Topic) string {
	if !topic.Valid() {
		p.logger.Warn("unknown knowledge topic requested", "topic", topic)
		return ""
	}

	if !p.downgraded.Load() {
		text, err := p.readRemote(ctx, topic)
		if err == nil {
			return text
		}
		if ctx.Err() != nil {
			// Caller gave up; that says nothing about the remote source.
			return ""
		}
		p.Downgrade(err)
	}

	if p.local == nil {
		return ""
	}
	text, err := p.local.Read(ctx, topic)
	if err != nil {
		p.logger.Warn("local knowledge read failed", "topic", topic, "source", p.local.Name(), "error", err)
		return ""
	}
	return text
}

func (p *FallbackProvider) readRemote(ctx context.Context, topic Topic) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.remote.Read(callCtx, topic)
	if err != nil {
		return "", err
	}
	if callCtx.Err() != nil {
		return "", &TransportError{Source: p.remote.Name(), Topic: topic, Cause: callCtx.Err()}
	}
	return text, nil
}

// Downgrade permanently switches the provider to the local source.
// Only the first call has an effect.
func (p *FallbackProvider) Downgrade(reason error) {
	if reason == nil {
		reason = errors.New("downgrade requested")
	}
	if !p.downgraded.CompareAndSwap(false, true) {
		return
	}
	p.mu.Lock()
	p.reason = reason
	p.mu.Unlock()

	name := "none"
	if p.remote != nil {
		name = p.remote.Name()
	}
	p.logger.Warn("remote knowledge source disabled for the rest of the process",
		"source", name, "error", reason)
}

// Downgraded reports whether the provider is using the local source only.
func (p *FallbackProvider) Downgraded() bool {
	return p.downgraded.Load()
}

// DowngradeReason returns the error that caused the downgrade, if any.
func (p *FallbackProvider) DowngradeReason() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reason
}

// ActiveSource returns the name of the source Fetch will try first.
func (p *FallbackProvider) ActiveSource() string {
	if !p.downgraded.Load() && p.remote != nil {
		return p.remote.Name()
	}
	if p.local != nil {
		return p.local.Name()
	}
	return "none"
}
