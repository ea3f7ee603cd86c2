package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"pagebuilder/internal/builder"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
)

func (s *Server) registerEditorTools() {
	// ── open_page ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_page",
		mcp.WithDescription("Open a page for editing. Without pageId a new unsaved page is started on the site."),
		mcp.WithString("siteId", mcp.Description("Site ID (optional, defaults to the page's site or the last used site)")),
		mcp.WithString("pageId", mcp.Description("Page ID (optional)")),
	), s.handleOpenPage)

	// ── page_info ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("page_info",
		mcp.WithDescription("Show the open page's metadata, selection, mode and unsaved state"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handlePageInfo)

	// ── set_page_meta ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_page_meta",
		mcp.WithDescription("Change the title, slug, path, SEO fields or scheduled publish time of the open page"),
		mcp.WithString("title", mcp.Description("Page title")),
		mcp.WithString("slug", mcp.Description("URL slug (derived from the title when empty)")),
		mcp.WithString("path", mcp.Description("Public path (defaults to /slug)")),
		mcp.WithString("seoTitle", mcp.Description("SEO title")),
		mcp.WithString("seoDescription", mcp.Description("SEO description")),
		mcp.WithString("publishAt", mcp.Description("Publish automatically at this time (RFC 3339 or YYYY-MM-DD)")),
	), s.handleSetPageMeta)

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the blocks of the open page in order, optionally filtered by kind"),
		mcp.WithString("kind", mcp.Description("Filter by block kind (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListBlocks)

	// ── select_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_block",
		mcp.WithDescription("Make a block the active block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleSelectBlock)

	// ── drop_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("drop_block",
		mcp.WithDescription("Insert a block of the given kind at the root or inside a container"),
		mcp.WithString("kind", mcp.Description("Block kind (see list_kinds)"), mcp.Required()),
		mcp.WithString("parentId", mcp.Description("Container block ID (optional, root when omitted)")),
		mcp.WithNumber("col", mcp.Description("Column index when the parent is a Row")),
		mcp.WithString("slot", mcp.Description("Slot name when the parent is a Section")),
	), s.handleDropBlock)

	// ── drop_template ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("drop_template",
		mcp.WithDescription("Insert every block of a template at the root or inside a container"),
		mcp.WithString("templateId", mcp.Description("Template ID (see list_templates)"), mcp.Required()),
		mcp.WithString("parentId", mcp.Description("Container block ID (optional, root when omitted)")),
		mcp.WithNumber("col", mcp.Description("Column index when the parent is a Row")),
		mcp.WithString("slot", mcp.Description("Slot name when the parent is a Section")),
	), s.handleDropTemplate)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block one step up or down in page order"),
		mcp.WithString("blockId", mcp.Description("Block ID (optional, defaults to the active block)")),
		mcp.WithString("direction", mcp.Description("up or down"), mcp.Required()),
	), s.handleMoveBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Change a block's props or kind. A null prop value deletes the prop."),
		mcp.WithString("blockId", mcp.Description("Block ID (optional, defaults to the active block)")),
		mcp.WithString("kind", mcp.Description("New kind (optional)")),
		mcp.WithString("props", mcp.Description("JSON object of props to merge (optional)")),
	), s.handleUpdateBlock)

	// ── duplicate_block ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_block",
		mcp.WithDescription("Copy a block and everything inside it"),
		mcp.WithString("blockId", mcp.Description("Block ID (optional, defaults to the active block)")),
	), s.handleDuplicateBlock)

	// ── remove_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a block and, for containers, its contents. May require user approval."),
		mcp.WithString("blockId", mcp.Description("Block ID (optional, defaults to the active block)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveBlock)

	// ── toggle_mode ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("toggle_mode",
		mcp.WithDescription("Switch the editor between design and preview"),
	), s.handleToggleMode)

	// ── save_page ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_page",
		mcp.WithDescription("Save the open page through the admin API"),
	), s.handleSavePage)

	// ── publish_page (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("publish_page",
		mcp.WithDescription("🛑 Publish the saved page to its public URL. May require user approval."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handlePublishPage)
}

// ── Summaries ──────────────────────────────────────────────

type blockSummary struct {
	ID        string           `json:"id"`
	Kind      string           `json:"kind"`
	Placement domain.Placement `json:"placement"`
	Props     map[string]any   `json:"props,omitempty"`
	Active    bool             `json:"active,omitempty"`
}

func summarizeBlock(b domain.Block, activeID string) blockSummary {
	return blockSummary{ID: b.ID, Kind: b.Kind, Placement: b.Placement, Props: b.Props, Active: b.ID == activeID}
}

func summarizeBlocks(blocks []domain.Block, activeID string) []blockSummary {
	out := make([]blockSummary, len(blocks))
	for i, b := range blocks {
		out[i] = summarizeBlock(b, activeID)
	}
	return out
}

type pageInfo struct {
	ID        string            `json:"id,omitempty"`
	SiteID    string            `json:"siteId"`
	Title     string            `json:"title"`
	Slug      string            `json:"slug"`
	Path      string            `json:"path"`
	Status    domain.PageStatus `json:"status"`
	Blocks    int               `json:"blocks"`
	ActiveID  string            `json:"activeId,omitempty"`
	Mode      builder.Mode      `json:"mode"`
	Dirty     bool              `json:"dirty"`
	PublicURL string            `json:"publicUrl,omitempty"`
}

func (s *Server) pageInfo() pageInfo {
	p := s.editor.Page()
	info := pageInfo{
		ID:       p.ID,
		SiteID:   p.SiteID,
		Title:    p.Title,
		Slug:     p.Slug,
		Path:     p.Path,
		Status:   p.Status,
		Blocks:   len(p.Blocks),
		ActiveID: s.editor.ActiveID(),
		Mode:     s.editor.Mode(),
		Dirty:    s.editor.Dirty(),
	}
	if site, ok := s.editor.Site(); ok && p.Path != "" {
		info.PublicURL = site.PublicURL(p.Path)
	}
	return info
}

// ── Argument helpers ───────────────────────────────────────

// selectArg makes the blockId argument active when it is given.
func (s *Server) selectArg(args map[string]any) error {
	id := stringArg(args, "blockId")
	if id == "" {
		if s.editor.ActiveID() == "" {
			return fmt.Errorf("no block selected (pass blockId)")
		}
		return nil
	}
	if !s.editor.Select(id) {
		return fmt.Errorf("block %q is not on the page", id)
	}
	return nil
}

// targetArg builds the drop placement from parentId, col and slot. A
// parent given without col or slot gets column 0 of a Row and the default
// slot of any other container.
func (s *Server) targetArg(args map[string]any) (domain.Placement, error) {
	parentID := stringArg(args, "parentId")
	if parentID == "" {
		return domain.Root(), nil
	}
	var parent *domain.Block
	blocks := s.editor.Blocks()
	for i := range blocks {
		if blocks[i].ID == parentID {
			parent = &blocks[i]
			break
		}
	}
	if parent == nil {
		return domain.Placement{}, fmt.Errorf("parent %q is not on the page", parentID)
	}
	if col, ok := intArg(args, "col"); ok {
		return domain.InRowColumn(parentID, col), nil
	}
	if slot := stringArg(args, "slot"); slot != "" {
		return domain.InSlot(parentID, slot), nil
	}
	if def, ok := s.registry.Lookup(parent.Kind); ok && def.Columns {
		return domain.InRowColumn(parentID, 0), nil
	}
	return domain.InSlot(parentID, ""), nil
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleOpenPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	siteID := stringArg(args, "siteId")
	pageID := stringArg(args, "pageId")
	if siteID == "" && pageID == "" && s.session != nil {
		siteID = s.session.LastSiteID()
	}
	if siteID == "" && pageID == "" {
		return nil, fmt.Errorf("siteId or pageId is required (see list_sites)")
	}
	if err := s.editor.Open(ctx, siteID, pageID); err != nil {
		return nil, err
	}
	if site, ok := s.editor.Site(); ok && s.session != nil {
		if err := s.session.SetLastSiteID(site.ID); err != nil {
			s.logger.Warn("remember site failed", zap.Error(err))
		}
	}
	s.emitBlocksChanged(ctx)
	return jsonResult(s.pageInfo())
}

func (s *Server) handlePageInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.requireSite(); err != nil {
		return nil, err
	}
	return jsonResult(s.pageInfo())
}

func (s *Server) handleSetPageMeta(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.requireSite(); err != nil {
		return nil, err
	}
	args := req.GetArguments()
	p := s.editor.Page()
	meta := service.PageMeta{Title: p.Title, Slug: p.Slug, Path: p.Path, SEO: p.SEO, PublishAt: p.PublishAt}
	if v, ok := args["title"].(string); ok {
		meta.Title = v
	}
	if v, ok := args["slug"].(string); ok {
		meta.Slug = v
	}
	if v, ok := args["path"].(string); ok {
		meta.Path = v
	}
	if v, ok := args["seoTitle"].(string); ok {
		meta.SEO.Title = v
	}
	if v, ok := args["seoDescription"].(string); ok {
		meta.SEO.Description = v
	}
	if _, ok := args["publishAt"]; ok {
		at, err := timeArg(args, "publishAt")
		if err != nil {
			return nil, err
		}
		meta.PublishAt = at
	}
	s.editor.SetMeta(meta)
	return jsonResult(s.pageInfo())
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := stringArg(req.GetArguments(), "kind")
	var blocks []domain.Block
	for _, b := range s.editor.Blocks() {
		if kind == "" || b.Kind == kind {
			blocks = append(blocks, b)
		}
	}
	return jsonResult(summarizeBlocks(blocks, s.editor.ActiveID()))
}

func (s *Server) handleSelectBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(req.GetArguments(), "blockId")
	if err != nil {
		return nil, err
	}
	if !s.editor.Select(id) {
		return nil, fmt.Errorf("block %q is not on the page", id)
	}
	return textResult(fmt.Sprintf("Selected %s", id)), nil
}

func (s *Server) handleDropBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	kind, err := requiredString(args, "kind")
	if err != nil {
		return nil, err
	}
	if _, ok := s.registry.Lookup(kind); !ok {
		return nil, fmt.Errorf("unknown kind %q (see list_kinds)", kind)
	}
	return s.drop(ctx, args, kind)
}

func (s *Server) handleDropTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requiredString(args, "templateId")
	if err != nil {
		return nil, err
	}
	if _, ok := s.templates.Get(id); !ok {
		return nil, fmt.Errorf("unknown template %q (see list_templates)", id)
	}
	return s.drop(ctx, args, builder.TemplatePrefix+id)
}

func (s *Server) drop(ctx context.Context, args map[string]any, payload string) (*mcp.CallToolResult, error) {
	if _, err := s.requireSite(); err != nil {
		return nil, err
	}
	target, err := s.targetArg(args)
	if err != nil {
		return nil, err
	}
	inserted := s.editor.Drop(ctx, builder.DropRequest{Payload: payload, Target: target})
	if len(inserted) == 0 {
		return nil, fmt.Errorf("nothing was inserted for %q", payload)
	}
	s.emitBlocksChanged(ctx)
	return jsonResult(summarizeBlocks(inserted, s.editor.ActiveID()))
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var dir int
	switch stringArg(args, "direction") {
	case "up":
		dir = -1
	case "down":
		dir = 1
	default:
		return nil, fmt.Errorf("direction must be up or down")
	}
	if err := s.selectArg(args); err != nil {
		return nil, err
	}
	if !s.editor.Move(dir) {
		return textResult("Block is already at the edge of the page"), nil
	}
	s.emitBlocksChanged(ctx)
	return textResult(fmt.Sprintf("Moved %s %s", s.editor.ActiveID(), stringArg(args, "direction"))), nil
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	if err := s.selectArg(args); err != nil {
		return nil, err
	}
	patch := builder.Patch{Kind: stringArg(args, "kind")}
	if raw := stringArg(args, "props"); raw != "" {
		if err := parseJSON(raw, &patch.Props); err != nil {
			return nil, fmt.Errorf("invalid props JSON: %w", err)
		}
	}
	if patch.Kind != "" {
		if _, ok := s.registry.Lookup(patch.Kind); !ok {
			return nil, fmt.Errorf("unknown kind %q (see list_kinds)", patch.Kind)
		}
	}
	b, ok := s.editor.UpdateActive(patch)
	if !ok {
		return nil, fmt.Errorf("no active block")
	}
	s.emitBlocksChanged(ctx)
	return jsonResult(summarizeBlock(b, b.ID))
}

func (s *Server) handleDuplicateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.selectArg(req.GetArguments()); err != nil {
		return nil, err
	}
	copies := s.editor.Duplicate()
	if len(copies) == 0 {
		return nil, fmt.Errorf("nothing to duplicate")
	}
	s.emitBlocksChanged(ctx)
	return jsonResult(summarizeBlocks(copies, s.editor.ActiveID()))
}

func (s *Server) handleRemoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.selectArg(req.GetArguments()); err != nil {
		return nil, err
	}
	id := s.editor.ActiveID()
	desc := fmt.Sprintf("Remove block %s and its contents", id)
	if err := s.confirmAction(ctx, "remove_block", desc, map[string]string{"blockId": id}); err != nil {
		return nil, err
	}
	// The selection may have moved while waiting for approval.
	if !s.editor.Select(id) {
		return nil, fmt.Errorf("block %q is no longer on the page", id)
	}
	removed := s.editor.Remove(ctx)
	s.emitBlocksChanged(ctx)
	return jsonResult(map[string]any{"removed": removed})
}

func (s *Server) handleToggleMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textResult(string(s.editor.ToggleMode())), nil
}

func (s *Server) handleSavePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.editor.Save(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]string{"pageId": id, "path": s.editor.Page().Path})
}

func (s *Server) handlePublishPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := s.editor.Page()
	if p.ID == "" {
		return nil, service.ErrNotSaved
	}
	desc := fmt.Sprintf("Publish %q at %s", p.Title, p.Path)
	if err := s.confirmAction(ctx, "publish_page", desc, map[string]string{"pageId": p.ID}); err != nil {
		return nil, err
	}
	url, err := s.editor.Publish(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]string{"pageId": p.ID, "url": url})
}
