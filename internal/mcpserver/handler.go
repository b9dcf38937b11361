package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"git.home.luguber.info/inful/commentlink/internal/logfields"
	"git.home.luguber.info/inful/commentlink/internal/report"
	"git.home.luguber.info/inful/commentlink/internal/scan"
)

// ScannerFactory builds a scanner for the workspace that contains start.
// An empty root means auto-detection.
type ScannerFactory func(root, start string) (*scan.Scanner, error)

// Handler turns tool calls into scans.
type Handler struct {
	newScanner ScannerFactory
	logger     *slog.Logger
}

// NewHandler creates a Handler; logger may be nil.
func NewHandler(newScanner ScannerFactory, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{newScanner: newScanner, logger: logger}
}

// LinkOutput is one resolved link with its hover text.
type LinkOutput struct {
	scan.Link
	Hover string `json:"hover"`
}

// ResolveOutput is the JSON payload of resolve_comment_links.
type ResolveOutput struct {
	File          string       `json:"file"`
	WorkspaceRoot string       `json:"workspace_root"`
	Links         []LinkOutput `json:"links"`
}

// ScanOutput is the JSON payload of scan_workspace.
type ScanOutput struct {
	BatchID       string         `json:"batch_id"`
	WorkspaceRoot string         `json:"workspace_root"`
	Summary       scan.Summary   `json:"summary"`
	Unresolved    []UnresolvedAt `json:"unresolved"`
}

// UnresolvedAt locates an unresolved link.
type UnresolvedAt struct {
	File string `json:"file"`
	LinkOutput
}

// HandleResolve implements resolve_comment_links.
func (h *Handler) HandleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawPath, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError("file_path is required"), nil
	}
	filePath, err := filepath.Abs(rawPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid file_path: %v", err)), nil
	}
	root := req.GetString("workspace_root", "")

	scanner, err := h.newScanner(root, filepath.Dir(filePath))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open workspace: %v", err)), nil
	}

	var fileReport scan.FileReport
	if text, ok := req.GetArguments()["text"].(string); ok {
		fileReport, err = scanner.ScanText(ctx, filePath, text)
	} else {
		fileReport, err = scanner.ScanFile(ctx, filePath)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve links: %v", err)), nil
	}
	h.logger.Debug("Resolved comment links", logfields.File(filePath), logfields.Count(len(fileReport.Links)))

	out := ResolveOutput{
		File:          fileReport.Path,
		WorkspaceRoot: filepath.ToSlash(scanner.Workspace().Root),
		Links:         make([]LinkOutput, 0, len(fileReport.Links)),
	}
	for _, l := range fileReport.Links {
		out.Links = append(out.Links, LinkOutput{Link: l, Hover: report.Hover(l.Result)})
	}
	return jsonResult(out)
}

// HandleScan implements scan_workspace.
func (h *Handler) HandleScan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := req.RequireString("workspace_root")
	if err != nil {
		return mcp.NewToolResultError("workspace_root is required"), nil
	}
	scanner, err := h.newScanner(root, root)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open workspace: %v", err)), nil
	}
	batch, err := scanner.ScanWorkspace(ctx)
	if err != nil && batch == nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}
	if err != nil {
		h.logger.Warn("Workspace scan finished with error", logfields.BatchID(batch.ID), logfields.Error(err))
	}

	out := ScanOutput{
		BatchID:       batch.ID,
		WorkspaceRoot: batch.WorkspaceRoot,
		Summary:       batch.Summary,
		Unresolved:    []UnresolvedAt{},
	}
	for _, f := range batch.Files {
		for _, l := range f.Links {
			if !l.IsResolved() {
				out.Unresolved = append(out.Unresolved, UnresolvedAt{
					File:       f.RelPath,
					LinkOutput: LinkOutput{Link: l, Hover: report.Hover(l.Result)},
				})
			}
		}
	}
	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
