// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only vault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultview/internal/apperr"
	"github.com/starford/vaultview/internal/render"
	"github.com/starford/vaultview/internal/vault"
)

const treeResourceURI = "vault://tree"

// Vault is the part of the vault service exposed over MCP.
type Vault interface {
	BuildTree(ctx context.Context) (*vault.TreeResult, error)
	GetFile(ctx context.Context, rel string) (*vault.File, error)
}

// Renderer converts note content to HTML.
type Renderer interface {
	Render(notePath string, src []byte) (*render.Result, error)
}

// Server wraps the MCP server with vault tools.
type Server struct {
	mcp      *server.MCPServer
	vault    Vault
	renderer Renderer
	logger   *slog.Logger
}

// FileInfo is the result of the file_info tool.
type FileInfo struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	MIME     string    `json:"mime"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// New creates a new MCP server with all vault tools registered.
func New(v Vault, renderer Renderer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{vault: v, renderer: renderer, logger: logger}

	s.mcp = server.NewMCPServer(
		"VaultView",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tree",
		mcp.WithDescription("List the vault as a tree of folders and Markdown notes. "+
			"Hidden entries, non-note files and folders without notes are omitted."),
		mcp.WithBoolean("warnings", mcp.Description("Also return entries skipped because they could not be read")),
	), s.listTree)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the raw Markdown content of a note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("render_note",
		mcp.WithDescription("Render a note to HTML. Image embeds point at the /api/file endpoint."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the note")),
	), s.renderNote)

	s.mcp.AddTool(mcp.NewTool("file_info",
		mcp.WithDescription("Return the category, MIME type, size and modification time of a note or image."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the file")),
	), s.fileInfo)

	s.mcp.AddResource(
		mcp.NewResource(treeResourceURI, "Vault Tree",
			mcp.WithResourceDescription("The current note tree as JSON."),
			mcp.WithMIMEType("application/json"),
		),
		s.readTreeResource,
	)

	return s
}

// Listen serves MCP over in and out until ctx is done or in is closed.
// Transport errors go to the server's logger.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.vault.BuildTree(ctx)
	if err != nil {
		return s.toolError("list_tree", err), nil
	}

	var v any = res.Nodes
	if req.GetBool("warnings", false) {
		v = res
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, result := s.openNote(ctx, "read_note", req)
	if result != nil {
		return result, nil
	}
	return mcp.NewToolResultText(f.Content), nil
}

func (s *Server) renderNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, result := s.openNote(ctx, "render_note", req)
	if result != nil {
		return result, nil
	}
	res, err := s.renderer.Render(f.Path, []byte(f.Content))
	if err != nil {
		return s.toolError("render_note", apperr.Internal(err)), nil
	}
	return mcp.NewToolResultText(res.HTML), nil
}

func (s *Server) fileInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.vault.GetFile(ctx, path)
	if err != nil {
		return s.toolError("file_info", err), nil
	}
	defer f.Close()

	out, _ := json.MarshalIndent(FileInfo{
		Path:     f.Path,
		Name:     f.Name,
		Category: f.Category.String(),
		MIME:     f.MIME,
		Size:     f.Size,
		Modified: f.ModTime,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readTreeResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	res, err := s.vault.BuildTree(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(res.Nodes)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      treeResourceURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

// openNote fetches a Markdown note for a tool call. A non-nil result is an
// error to hand back to the client.
func (s *Server) openNote(ctx context.Context, tool string, req mcp.CallToolRequest) (*vault.File, *mcp.CallToolResult) {
	path, err := req.RequireString("path")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	f, err := s.vault.GetFile(ctx, path)
	if err != nil {
		return nil, s.toolError(tool, err)
	}
	if f.Category != vault.Markdown {
		_ = f.Close()
		return nil, s.toolError(tool, apperr.UnsupportedType(f.MIME))
	}
	return f, nil
}

// toolError reports err to the client by its public message only.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	if kind := apperr.KindOf(err); kind == apperr.KindInternal || kind == apperr.KindVaultUnavailable {
		s.logger.Error("mcp: tool failed", slog.String("tool", tool), slog.String("error", err.Error()))
	}
	return mcp.NewToolResultError(apperr.Message(err))
}
