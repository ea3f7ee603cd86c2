package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	resourceKinds     = "pagebuilder://catalog/kinds"
	resourceTemplates = "pagebuilder://catalog/templates"
	resourcePage      = "pagebuilder://editor/page"
	resourceMenus     = "pagebuilder://editor/menus"
)

func (s *Server) registerResources() {
	// ── pagebuilder://catalog/kinds ────────────────────
	s.mcp.AddResource(mcp.NewResource(
		resourceKinds,
		"Block Kinds",
		mcp.WithMIMEType("application/json"),
	), s.jsonResource(func(context.Context) (any, error) {
		return s.registry.Kinds(), nil
	}))

	// ── pagebuilder://catalog/templates ────────────────
	s.mcp.AddResource(mcp.NewResource(
		resourceTemplates,
		"Block Templates",
		mcp.WithMIMEType("application/json"),
	), s.jsonResource(func(context.Context) (any, error) {
		return s.templates.List(), nil
	}))

	// ── pagebuilder://editor/page ──────────────────────
	s.mcp.AddResource(mcp.NewResource(
		resourcePage,
		"Open Page",
		mcp.WithMIMEType("application/json"),
	), s.jsonResource(func(context.Context) (any, error) {
		if _, err := s.requireSite(); err != nil {
			return nil, err
		}
		return map[string]any{
			"page":   s.pageInfo(),
			"blocks": summarizeBlocks(s.editor.Blocks(), s.editor.ActiveID()),
		}, nil
	}))

	// ── pagebuilder://editor/menus ─────────────────────
	s.mcp.AddResource(mcp.NewResource(
		resourceMenus,
		"Open Menus",
		mcp.WithMIMEType("application/json"),
	), s.jsonResource(func(context.Context) (any, error) {
		if _, _, ok := s.menus.Loaded(); !ok {
			return nil, fmt.Errorf("no menus loaded")
		}
		return s.menus.Set(), nil
	}))
}

// jsonResource adapts a value producer into a resource handler.
func (s *Server) jsonResource(fn func(context.Context) (any, error)) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}
