package app

import (
	"context"

	mcpserver "pagebuilder/internal/mcp"
)

// MCPServer builds the MCP server over the app's services. When confirm is
// set, destructive tools wait for a decision recorded in the approvals
// table by `pagebuilder approvals approve|reject`.
func (a *App) MCPServer(confirm bool) *mcpserver.Server {
	var approval *mcpserver.ApprovalQueue
	if confirm {
		approval = mcpserver.NewApprovalQueue(a.emitter, mcpserver.DefaultApprovalTimeout)
		approval.SetStore(a.approvals)
	}
	return mcpserver.New(mcpserver.Deps{
		API:       a.client,
		Editor:    a.editor,
		Menus:     a.menus,
		Sources:   a.sources,
		Session:   a.session,
		Registry:  a.registry,
		Templates: a.templates,
		Emitter:   a.emitter,
		Logger:    a.logger,
		Now:       a.now,
		Approval:  approval,
	})
}

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects
// or ctx ends.
func (a *App) ServeMCP(ctx context.Context, confirm bool) error {
	srv := a.MCPServer(confirm)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
