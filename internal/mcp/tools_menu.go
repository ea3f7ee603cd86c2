package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/menu"
)

func (s *Server) registerMenuTools() {
	// ── menu_load ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("menu_load",
		mcp.WithDescription("Open the home and secondary menus of a site. An unsaved draft is resumed when one exists."),
		mcp.WithString("siteId", mcp.Description("Site ID (optional, defaults to the site of the open page)")),
		mcp.WithString("locale", mcp.Description("Locale (optional, defaults to the site's first locale)")),
	), s.handleMenuLoad)

	// ── menu_show ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("menu_show",
		mcp.WithDescription("Show a menu as a nested tree"),
		mcp.WithString("menu", mcp.Description("home or secondary (default home)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleMenuShow)

	// ── menu_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("menu_pages",
		mcp.WithDescription("List the well-known pages internal links can point at for the loaded site"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleMenuPages)

	// ── menu_add_item ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("menu_add_item",
		mcp.WithDescription("Add a menu item at the top level or under a parent"),
		mcp.WithString("menu", mcp.Description("home or secondary (default home)")),
		mcp.WithString("label", mcp.Description("Item label"), mcp.Required()),
		mcp.WithString("parentId", mcp.Description("Parent item ID (optional)")),
		mcp.WithString("url", mcp.Description("Link target; paths of known pages become internal links")),
		mcp.WithString("schedules", mcp.Description(`JSON array of dated targets [{"when":"2026-01-01","url":"/sale"}] making a scheduled link`)),
		mcp.WithString("target", mcp.Description("Link target attribute, e.g. _blank (optional)")),
	), s.handleMenuAddItem)

	// ── menu_update_item ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("menu_update_item",
		mcp.WithDescription("Change the label, link or schedule of a menu item"),
		mcp.WithString("menu", mcp.Description("home or secondary (default home)")),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
		mcp.WithString("label", mcp.Description("New label (optional)")),
		mcp.WithString("url", mcp.Description("New link target (optional)")),
		mcp.WithString("schedules", mcp.Description("JSON array of dated targets (optional)")),
		mcp.WithString("target", mcp.Description("Link target attribute (optional)")),
	), s.handleMenuUpdateItem)

	// ── menu_move_item ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("menu_move_item",
		mcp.WithDescription("Move a menu item under another item, or to the top level when parentId is empty"),
		mcp.WithString("menu", mcp.Description("home or secondary (default home)")),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
		mcp.WithString("parentId", mcp.Description("New parent item ID (optional)")),
	), s.handleMenuMoveItem)

	// ── menu_remove_item (destructive) ─────────────────
	s.mcp.AddTool(mcp.NewTool("menu_remove_item",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a menu item and its children. May require user approval."),
		mcp.WithString("menu", mcp.Description("home or secondary (default home)")),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleMenuRemoveItem)

	// ── menu_save ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("menu_save",
		mcp.WithDescription("Save both menus through the admin API and drop the draft"),
	), s.handleMenuSave)

	// ── menu_discard ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("menu_discard",
		mcp.WithDescription("Drop the unsaved draft and reload the menus from the server"),
	), s.handleMenuDiscard)

	// ── menu_resolve ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("menu_resolve",
		mcp.WithDescription("Resolve every item's href at a point in time, including scheduled links"),
		mcp.WithString("at", mcp.Description("RFC 3339 time or YYYY-MM-DD (optional, defaults to now)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleMenuResolve)
}

// menuSite resolves the site for menu_load.
func (s *Server) menuSite(ctx context.Context, siteID string) (domain.Site, error) {
	if siteID == "" {
		if site, ok := s.editor.Site(); ok {
			return site, nil
		}
		if s.session != nil {
			siteID = s.session.LastSiteID()
		}
	}
	if siteID == "" {
		return domain.Site{}, fmt.Errorf("siteId is required (see list_sites)")
	}
	sites, err := s.api.ListSites(ctx)
	if err != nil {
		return domain.Site{}, err
	}
	for _, site := range sites {
		if site.ID == siteID {
			return site, nil
		}
	}
	return domain.Site{}, fmt.Errorf("site %q not found", siteID)
}

// applyLink sets the link fields of it from url, schedules and target
// arguments. Schedules win over url; a url matching a known page becomes
// an internal link.
func applyLink(kind domain.SiteKind, it *domain.MenuItem, args map[string]any) error {
	if raw := stringArg(args, "schedules"); raw != "" {
		var schedules []domain.Schedule
		if err := parseJSON(raw, &schedules); err != nil {
			return fmt.Errorf("invalid schedules JSON: %w", err)
		}
		for _, sc := range schedules {
			if _, ok := menu.ParseWhen(sc.When); !ok {
				return fmt.Errorf("schedule date %q is not a date", sc.When)
			}
		}
		it.LinkType = domain.LinkScheduled
		it.Schedules = schedules
		it.InternalPageID = ""
		it.URL = ""
	} else if url, ok := args["url"].(string); ok {
		url = strings.TrimSpace(url)
		it.URL = url
		it.Schedules = nil
		it.InternalPageID = ""
		it.LinkType = domain.LinkExternal
		if page, ok := menu.MatchInternal(kind, url); ok {
			it.LinkType = domain.LinkInternal
			it.InternalPageID = page.ID
		}
	}
	if target, ok := args["target"].(string); ok {
		it.Target = target
	}
	return nil
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleMenuLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	site, err := s.menuSite(ctx, stringArg(args, "siteId"))
	if err != nil {
		return nil, err
	}
	if err := s.menus.Load(ctx, site, stringArg(args, "locale")); err != nil {
		return nil, err
	}
	return jsonResult(s.menus.Set())
}

func (s *Server) handleMenuShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := menuArg(req.GetArguments())
	if err != nil {
		return nil, err
	}
	tree := s.menus.Tree(name)
	if tree == nil {
		tree = []*domain.MenuItem{}
	}
	return jsonResult(tree)
}

func (s *Server) handleMenuPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	site, _, ok := s.menus.Loaded()
	if !ok {
		return nil, fmt.Errorf("no menus loaded (use menu_load first)")
	}
	return jsonResult(menu.PagesFor(site.Kind))
}

func (s *Server) handleMenuAddItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := menuArg(args)
	if err != nil {
		return nil, err
	}
	label, err := requiredString(args, "label")
	if err != nil {
		return nil, err
	}
	site, _, ok := s.menus.Loaded()
	if !ok {
		return nil, fmt.Errorf("no menus loaded (use menu_load first)")
	}
	// Validate link arguments before the item exists.
	var probe domain.MenuItem
	if err := applyLink(site.Kind, &probe, args); err != nil {
		return nil, err
	}
	item, err := s.menus.Add(name, label, stringArg(args, "parentId"))
	if err != nil {
		return nil, err
	}
	var updated domain.MenuItem
	err = s.menus.Update(name, item.ID, func(it domain.MenuItem) domain.MenuItem {
		_ = applyLink(site.Kind, &it, args)
		updated = it
		return it
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(updated)
}

func (s *Server) handleMenuUpdateItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := menuArg(args)
	if err != nil {
		return nil, err
	}
	id, err := requiredString(args, "itemId")
	if err != nil {
		return nil, err
	}
	site, _, ok := s.menus.Loaded()
	if !ok {
		return nil, fmt.Errorf("no menus loaded (use menu_load first)")
	}
	var probe domain.MenuItem
	if err := applyLink(site.Kind, &probe, args); err != nil {
		return nil, err
	}
	var updated domain.MenuItem
	err = s.menus.Update(name, id, func(it domain.MenuItem) domain.MenuItem {
		if label := stringArg(args, "label"); label != "" {
			it.Label = label
		}
		_ = applyLink(site.Kind, &it, args)
		updated = it
		return it
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(updated)
}

func (s *Server) handleMenuMoveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := menuArg(args)
	if err != nil {
		return nil, err
	}
	id, err := requiredString(args, "itemId")
	if err != nil {
		return nil, err
	}
	if parentID := stringArg(args, "parentId"); parentID != "" {
		err = s.menus.MoveToChildren(name, id, parentID)
	} else {
		err = s.menus.MoveToRoot(name, id)
	}
	if err != nil {
		return nil, err
	}
	return jsonResult(s.menus.Tree(name))
}

func (s *Server) handleMenuRemoveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := menuArg(args)
	if err != nil {
		return nil, err
	}
	id, err := requiredString(args, "itemId")
	if err != nil {
		return nil, err
	}
	it := menu.Find(s.menus.Tree(name), id)
	if it == nil {
		return nil, fmt.Errorf("%w: %s", menu.ErrNotFound, id)
	}
	desc := fmt.Sprintf("Remove menu item %q and its %d children", it.Label, len(it.Children))
	if err := s.confirmAction(ctx, "menu_remove_item", desc, map[string]string{"itemId": id, "menu": string(name)}); err != nil {
		return nil, err
	}
	if err := s.menus.Remove(name, id); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Removed %s", id)), nil
}

func (s *Server) handleMenuSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.menus.Save(ctx); err != nil {
		return nil, err
	}
	return textResult("Menus saved"), nil
}

func (s *Server) handleMenuDiscard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.menus.Discard(ctx); err != nil {
		return nil, err
	}
	return jsonResult(s.menus.Set())
}

func (s *Server) handleMenuResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	at, err := timeArg(req.GetArguments(), "at")
	if err != nil {
		return nil, err
	}
	now := s.now()
	if at != nil {
		now = *at
	}
	return jsonResult(s.menus.Resolve(now))
}
