// Package mcpserver exposes the page editor and the menu builder to AI
// agents over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"pagebuilder/internal/builder"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
)

// EventBlocksChanged is emitted after a tool edits the open page.
const EventBlocksChanged = "mcp:blocks-changed"

// Server is the MCP server for the page builder.
// It exposes tools, resources, and prompts over the editor and menu services.
type Server struct {
	mcp      *server.MCPServer
	emitter  service.EventEmitter
	approval *ApprovalQueue
	confirm  bool
	logger   *zap.Logger
	now      func() time.Time

	api       service.AdminAPI
	editor    *service.EditorService
	menus     *service.MenuService
	sources   *service.DataSourceService
	session   *service.SessionService
	registry  *builder.Registry
	templates *builder.TemplateSet
}

// Deps holds all dependencies of the MCP server. Sources and Session are
// optional.
type Deps struct {
	API       service.AdminAPI
	Editor    *service.EditorService
	Menus     *service.MenuService
	Sources   *service.DataSourceService
	Session   *service.SessionService
	Registry  *builder.Registry
	Templates *builder.TemplateSet
	Emitter   service.EventEmitter
	Logger    *zap.Logger
	Now       func() time.Time

	// Approval gates destructive tools. Nil runs them without asking.
	Approval *ApprovalQueue
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	emitter := deps.Emitter
	if emitter == nil {
		emitter = service.NewLogEmitter(logger)
	}
	s := &Server{
		emitter:   emitter,
		approval:  deps.Approval,
		confirm:   deps.Approval != nil,
		logger:    logger.Named("mcp"),
		now:       now,
		api:       deps.API,
		editor:    deps.Editor,
		menus:     deps.Menus,
		sources:   deps.Sources,
		session:   deps.Session,
		registry:  deps.Registry,
		templates: deps.Templates,
	}

	s.mcp = server.NewMCPServer(
		"pagebuilder-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerCatalogTools()
	s.registerEditorTools()
	s.registerMenuTools()
	if s.sources != nil {
		s.registerDataSourceTools()
	}
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// ── Helpers ────────────────────────────────────────────────

// emitBlocksChanged notifies listeners that the open page changed.
func (s *Server) emitBlocksChanged(ctx context.Context) {
	s.emitter.Emit(ctx, EventBlocksChanged, map[string]string{"pageId": s.editor.Page().ID})
}

// confirmAction asks for approval when the server was built with a queue.
func (s *Server) confirmAction(ctx context.Context, tool, description string, metadata any) error {
	if !s.confirm {
		return nil
	}
	meta := ""
	if metadata != nil {
		if data, err := json.Marshal(metadata); err == nil {
			meta = string(data)
		}
	}
	s.logger.Info("awaiting approval", zap.String("tool", tool))
	return s.approval.Request(ctx, tool, description, meta)
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// requireSite returns the open site or an error telling the agent to open one.
func (s *Server) requireSite() (domain.Site, error) {
	site, ok := s.editor.Site()
	if !ok {
		return domain.Site{}, fmt.Errorf("no site open (use open_page first)")
	}
	return site, nil
}

func boolPtr(v bool) *bool { return &v }
