package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("landing_page",
		mcp.WithPromptDescription("Guide through building a campaign landing page from templates and blocks"),
		mcp.WithArgument("campaign",
			mcp.ArgumentDescription("Campaign or product the page promotes"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("siteId",
			mcp.ArgumentDescription("Site to build the page on"),
			mcp.RequiredArgument(),
		),
	), s.handleLandingPagePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("seasonal_menu",
		mcp.WithPromptDescription("Add a scheduled menu link that switches target on given dates"),
		mcp.WithArgument("label",
			mcp.ArgumentDescription("Menu label, e.g. Summer Sale"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("starts",
			mcp.ArgumentDescription("Date the campaign target goes live (YYYY-MM-DD)"),
			mcp.RequiredArgument(),
		),
	), s.handleSeasonalMenuPrompt)
}

func (s *Server) handleLandingPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	campaign := req.Params.Arguments["campaign"]
	siteID := req.Params.Arguments["siteId"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a landing page for: %s", campaign),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a landing page for "%s" on site %s. Follow these steps:

1. Call open_page with siteId %q to start a new page, then set_page_meta with a title and SEO description
2. Call list_templates and drop a hero template at the root with drop_template
3. Use update_block to replace placeholder headlines and button labels with campaign copy
4. Add a Countdown block if the campaign has an end date, and a ProductRail bound to a data source (list_data_sources) if products should be shown
5. Review the tree with list_blocks, then save_page
6. Only publish_page when the user asks for it`, campaign, siteID, siteID),
				},
			},
		},
	}, nil
}

func (s *Server) handleSeasonalMenuPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	label := req.Params.Arguments["label"]
	starts := req.Params.Arguments["starts"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Schedule the %q menu link", label),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Add a scheduled "%s" link to the home menu. Follow these steps:

1. Call menu_load for the open site and menu_pages to see the internal pages
2. Call menu_add_item with label %q and a schedules array: a teaser target from today, then the campaign target from %s
3. Check the result with menu_resolve at a date before and after %s
4. Call menu_save when both dates resolve to the expected targets`, label, label, starts, starts),
				},
			},
		},
	}, nil
}
