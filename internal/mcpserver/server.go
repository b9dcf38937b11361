// Package mcpserver exposes comment link resolution to editors and agents as
// Model Context Protocol tools over stdio.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	ToolResolve = "resolve_comment_links"
	ToolScan    = "scan_workspace"
)

// New creates the MCP server and registers the tools. Protocol translation
// lives here; resolution is delegated to handler.
func New(handler *Handler, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"commentlink",
		version,
		server.WithToolCapabilities(false),
	)

	resolveTool := mcp.NewTool(ToolResolve,
		mcp.WithDescription("Resolve the [label](path:line) links written in the comments of one source file. Returns every link with its status, the file it points to and hover markdown."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path of the source file whose comments are scanned"),
		),
		mcp.WithString("workspace_root",
			mcp.Description("Root for workspace-relative links. Defaults to the enclosing git repository or the file's directory"),
		),
		mcp.WithString("text",
			mcp.Description("Current buffer content; when given it is scanned instead of the file on disk"),
		),
	)
	s.AddTool(resolveTool, handler.HandleResolve)

	scanTool := mcp.NewTool(ToolScan,
		mcp.WithDescription("Scan every source file under a workspace and report comment links that do not resolve."),
		mcp.WithString("workspace_root",
			mcp.Required(),
			mcp.Description("Directory to scan"),
		),
	)
	s.AddTool(scanTool, handler.HandleScan)

	return s
}

// ServeStdio serves s on stdin and stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
