package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/builder"
)

func (s *Server) registerCatalogTools() {
	// ── list_kinds ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_kinds",
		mcp.WithDescription("List the block kinds of the palette with their default props and container slots"),
		mcp.WithString("category", mcp.Description("Filter by palette category (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListKinds)

	// ── list_templates ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the multi-block templates that can be dropped in one step"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListTemplates)

	// ── compose_template ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("compose_template",
		mcp.WithDescription("Show the blocks a template would insert, without touching the page"),
		mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleComposeTemplate)

	// ── list_sites ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_sites",
		mcp.WithDescription("List the sites managed by the admin API"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListSites)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListKinds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := stringArg(req.GetArguments(), "category")
	kinds := []builder.KindDef{}
	for _, k := range s.registry.Kinds() {
		if category == "" || k.Category == category {
			kinds = append(kinds, k)
		}
	}
	return jsonResult(kinds)
}

type templateSummary struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Blocks      int    `json:"blocks"`
}

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out []templateSummary
	for _, t := range s.templates.List() {
		out = append(out, templateSummary{ID: t.ID, Label: t.Label, Description: t.Description, Blocks: len(t.Nodes)})
	}
	return jsonResult(out)
}

func (s *Server) handleComposeTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(req.GetArguments(), "templateId")
	if err != nil {
		return nil, err
	}
	blocks := s.templates.Compose(id, builder.SequentialIDs("preview"), s.registry)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("template %q not found or empty", id)
	}
	return jsonResult(blocks)
}

func (s *Server) handleListSites(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sites, err := s.api.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(sites)
}
