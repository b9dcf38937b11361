package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/fsprobe"
	"git.home.luguber.info/inful/commentlink/internal/scan"
	"git.home.luguber.info/inful/commentlink/internal/testutil"
	"git.home.luguber.info/inful/commentlink/internal/workspace"
)

func testFactory(t *testing.T) ScannerFactory {
	t.Helper()
	resolver, err := commentlink.NewResolver(commentlink.Options{FileSystem: &fsprobe.OSProbe{}})
	require.NoError(t, err)
	return func(root, start string) (*scan.Scanner, error) {
		ws, err := workspace.Open(root, start)
		if err != nil {
			return nil, err
		}
		return scan.New(ws, resolver, scan.Options{}), nil
	}
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func workspaceFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"pkg/target.py": "a\nb\nc\n",
		"pkg/main.py":   "# [t](target.py:2) [x](missing.py)\n",
	})
	return root
}

func TestHandleResolve(t *testing.T) {
	root := workspaceFixture(t)
	h := NewHandler(testFactory(t), nil)

	res, err := h.HandleResolve(context.Background(), callTool(ToolResolve, map[string]any{
		"file_path":      filepath.Join(root, "pkg", "main.py"),
		"workspace_root": root,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out ResolveOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, filepath.ToSlash(root), out.WorkspaceRoot)
	require.Len(t, out.Links, 2)
	assert.Equal(t, commentlink.StatusResolved, out.Links[0].Status)
	assert.Contains(t, out.Links[0].Hover, "#L2)")
	assert.Equal(t, commentlink.StatusFileNotFound, out.Links[1].Status)
}

func TestHandleResolveUsesBufferText(t *testing.T) {
	root := workspaceFixture(t)
	h := NewHandler(testFactory(t), nil)

	res, err := h.HandleResolve(context.Background(), callTool(ToolResolve, map[string]any{
		"file_path":      filepath.Join(root, "pkg", "unsaved.py"),
		"workspace_root": root,
		"text":           "# [t](target.py:9)\n",
	}))
	require.NoError(t, err)

	var out ResolveOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	require.Len(t, out.Links, 1)
	assert.Equal(t, commentlink.StatusLineOutOfRange, out.Links[0].Status)
}

func TestHandleResolveRequiresFilePath(t *testing.T) {
	h := NewHandler(testFactory(t), nil)
	res, err := h.HandleResolve(context.Background(), callTool(ToolResolve, map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleScan(t *testing.T) {
	root := workspaceFixture(t)
	h := NewHandler(testFactory(t), nil)

	res, err := h.HandleScan(context.Background(), callTool(ToolScan, map[string]any{"workspace_root": root}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out ScanOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.NotEmpty(t, out.BatchID)
	assert.Equal(t, 2, out.Summary.Files)
	require.Len(t, out.Unresolved, 1)
	assert.Equal(t, "pkg/main.py", out.Unresolved[0].File)
	assert.Equal(t, "x", out.Unresolved[0].Occurrence.Label)
}

func TestNewRegistersTools(t *testing.T) {
	s := New(NewHandler(testFactory(t), nil), "test")
	require.NotNil(t, s)

	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), ToolResolve)
	assert.Contains(t, string(data), ToolScan)
}
