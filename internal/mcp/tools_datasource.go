package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/datasource"
	"pagebuilder/internal/service"
)

func (s *Server) registerDataSourceTools() {
	// ── list_data_sources ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_data_sources",
		mcp.WithDescription("List the product databases ProductRail blocks can read from"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListDataSources)

	// ── preview_products ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("preview_products",
		mcp.WithDescription("Read products from a data source. With blockId the query of that ProductRail block is used."),
		mcp.WithString("blockId", mcp.Description("ProductRail block ID (optional)")),
		mcp.WithString("source", mcp.Description("Data source name or ID (optional with blockId)")),
		mcp.WithString("category", mcp.Description("Category filter (optional)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of products (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handlePreviewProducts)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListDataSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.sources.List()
	if err != nil {
		return nil, err
	}
	return jsonResult(list)
}

func (s *Server) handlePreviewProducts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var (
		source string
		q      datasource.ProductQuery
	)
	if id := stringArg(args, "blockId"); id != "" {
		found := false
		for _, b := range s.editor.Blocks() {
			if b.ID == id {
				source, q = service.RailQuery(b.Props)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("block %q is not on the page", id)
		}
	}
	if v := stringArg(args, "source"); v != "" {
		source = v
	}
	if v := stringArg(args, "category"); v != "" {
		q.Category = v
	}
	if n, ok := intArg(args, "limit"); ok {
		q.Limit = n
	}
	if source == "" {
		return nil, fmt.Errorf("source is required (see list_data_sources)")
	}
	products, err := s.sources.Preview(ctx, source, q)
	if err != nil {
		return nil, err
	}
	return jsonResult(products)
}
