package knowledge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Backend selects the primary knowledge strategy.
type Backend string

// Backends
const (
	BackendRemote Backend = "remote"
	BackendLocal  Backend = "local"
)

// Transport selects the remote source implementation.
type Transport string

// Transports
const (
	TransportMCP      Transport = "mcp"
	TransportS3       Transport = "s3"
	TransportPostgres Transport = "postgres"
)

// Config selects and configures the knowledge sources.
type Config struct {
	Backend     Backend
	Transport   Transport
	Dir         string // Local directory; empty uses the embedded files
	Timeout     time.Duration
	MCP         MCPConfig
	S3          S3Config
	DatabaseURL string
}

// New builds the process-wide provider. A remote source that fails to
// initialize leaves the provider downgraded; only an unusable local directory
// is reported as an error. The returned close function releases the remote source.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*FallbackProvider, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	local, err := NewLocalSource(cfg.Dir)
	if err != nil {
		return nil, nil, err
	}

	opts := []Option{WithTimeout(cfg.Timeout), WithLogger(logger)}
	if cfg.Backend != BackendRemote {
		return NewLocalProvider(local, opts...), func() {}, nil
	}

	remote, err := OpenRemote(ctx, cfg)
	if err != nil {
		p := NewFallbackProvider(nil, local, opts...)
		p.Downgrade(err)
		return p, func() {}, nil
	}

	closeFn := func() {
		if c, ok := remote.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close knowledge source", "source", remote.Name(), "error", err)
			}
		}
	}
	logger.Info("remote knowledge source ready", "source", remote.Name())
	return NewFallbackProvider(remote, local, opts...), closeFn, nil
}

// OpenRemote initializes the configured remote source within the configured timeout.
func OpenRemote(ctx context.Context, cfg Config) (Source, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		src Source
		err error
	)
	switch cfg.Transport {
	case TransportMCP, "":
		var m *MCPSource
		if m, err = NewMCPSource(initCtx, cfg.MCP); err == nil {
			src = m
		}
	case TransportS3:
		var s *S3Source
		if s, err = NewS3Source(initCtx, cfg.S3); err == nil {
			src = s
		}
	case TransportPostgres:
		// The pool outlives initialization, so it gets the parent context.
		var pg *PostgresSource
		if pg, err = NewPostgresSource(ctx, cfg.DatabaseURL); err == nil {
			src = pg
		}
	default:
		err = &TransportError{Source: string(cfg.Transport), Cause: fmt.Errorf("unknown transport")}
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Seed copies every topic from src into dst.
func Seed(ctx context.Context, src Source, dst Writer) ([]Topic, error) {
	var written []Topic
	for _, topic := range Topics() {
		content, err := src.Read(ctx, topic)
		if err != nil {
			return written, fmt.Errorf("failed to read %s: %w", topic, err)
		}
		if err := dst.Write(ctx, topic, content); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", topic, err)
		}
		written = append(written, topic)
	}
	return written, nil
}
