package knowledge

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultMCPTool is the filesystem server tool used to read a file.
const DefaultMCPTool = "read_file"

// MCPConfig describes how to launch and query a filesystem MCP server over stdio.
type MCPConfig struct {
	Command string
	Args    []string
	Env     []string
	Root    string // Directory prefix passed in the tool's path argument
	Tool    string
}

// mcpSession is the subset of the MCP client used here.
type mcpSession interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// MCPSource reads topics through a filesystem MCP server.
type MCPSource struct {
	session mcpSession
	root    string
	tool    string
}

// NewMCPSource starts the server process and performs the MCP handshake.
func NewMCPSource(ctx context.Context, cfg MCPConfig) (*MCPSource, error) {
	if cfg.Command == "" {
		return nil, &TransportError{Source: "mcp", Cause: errors.New("server command is required")}
	}

	c, err := client.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
	if err != nil {
		return nil, &TransportError{Source: "mcp", Cause: fmt.Errorf("failed to start server: %w", err)}
	}

	src := newMCPSource(c, cfg)
	if err := src.initialize(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return src, nil
}

func newMCPSource(session mcpSession, cfg MCPConfig) *MCPSource {
	tool := cfg.Tool
	if tool == "" {
		tool = DefaultMCPTool
	}
	return &MCPSource{session: session, root: cfg.Root, tool: tool}
}

func (s *MCPSource) initialize(ctx context.Context) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "cv-tailor",
		Version: "1.0.0",
	}

	if _, err := s.session.Initialize(ctx, req); err != nil {
		return &TransportError{Source: s.Name(), Cause: fmt.Errorf("initialize: %w", err)}
	}
	return nil
}

// Name identifies the source in logs.
func (s *MCPSource) Name() string {
	return "mcp"
}

// Read calls the read tool for the topic file and joins the text content it returns.
func (s *MCPSource) Read(ctx context.Context, topic Topic) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = s.tool
	req.Params.Arguments = map[string]any{
		"path": path.Join(s.root, topic.Filename()),
	}

	res, err := s.session.CallTool(ctx, req)
	if err != nil {
		return "", &TransportError{Source: s.Name(), Topic: topic, Cause: err}
	}

	text := collectText(res.Content)
	if res.IsError {
		return "", &TransportError{Source: s.Name(), Topic: topic, Cause: fmt.Errorf("tool error: %s", text)}
	}
	if text == "" {
		return "", &TransportError{Source: s.Name(), Topic: topic, Cause: ErrNotFound}
	}
	return text, nil
}

// Close stops the server process.
func (s *MCPSource) Close() error {
	return s.session.Close()
}

func collectText(contents []mcp.Content) string {
	var parts []string
	for _, c := range contents {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
