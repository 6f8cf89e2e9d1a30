// Package mcpserver exposes the actions as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mindm/internal/actions"
	"mindm/internal/export"
	"mindm/internal/log"
)

// Version is reported to clients during initialization.
var Version = "dev"

const instructions = `Tools for reading and creating mind maps.
Read the current map with get_mindmap or serialize_mermaid, the selected topics with
get_selection, and a short context summary with get_grounding_information.
create_from_mermaid builds a new map from a Mermaid mindmap diagram.`

// Server wires the actions service into an MCP server.
type Server struct {
	svc    *actions.Service
	logger *log.Logger
	mcp    *server.MCPServer
}

// New creates the server and registers every tool.
func New(svc *actions.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{svc: svc, logger: logger}
	s.mcp = server.NewMCPServer(
		"mindm",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	s.mcp.AddTool(getMindmapTool(), s.handleGetMindmap)
	s.mcp.AddTool(getSelectionTool(), s.handleGetSelection)
	s.mcp.AddTool(getGroundingTool(), s.handleGetGrounding)
	s.mcp.AddTool(getLibraryFolderTool(), s.handleGetLibraryFolder)
	s.mcp.AddTool(serializeMermaidTool(), s.handleSerializeMermaid)
	s.mcp.AddTool(createFromMermaidTool(), s.handleCreateFromMermaid)
	s.mcp.AddTool(exportTool(), s.handleExport)
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves requests read from in until ctx is done or in closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info(ctx, "MCP server started", log.Fields{"version": Version})
	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func modeOption() mcp.ToolOption {
	return mcp.WithString("mode",
		mcp.Description("How much of each topic is read: text, content or full."),
		mcp.Enum("text", "content", "full"),
		mcp.DefaultString("full"),
	)
}

func turboOption() mcp.ToolOption {
	return mcp.WithBoolean("turbo_mode",
		mcp.Description("Read text only and skip links and tags."),
		mcp.DefaultBool(false),
	)
}

func getMindmapTool() mcp.Tool {
	return mcp.NewTool("get_mindmap",
		mcp.WithDescription("Return the current mind map as a tree of topics."),
		modeOption(),
		turboOption(),
	)
}

func getSelectionTool() mcp.Tool {
	return mcp.NewTool("get_selection",
		mcp.WithDescription("Return the selected topics of the current mind map."),
		turboOption(),
	)
}

func getGroundingTool() mcp.Tool {
	return mcp.NewTool("get_grounding_information",
		mcp.WithDescription("Return the central topic and the selected subtopics as context strings."),
		modeOption(),
		turboOption(),
	)
}

func getLibraryFolderTool() mcp.Tool {
	return mcp.NewTool("get_library_folder",
		mcp.WithDescription("Return the library folder of the mind map application."),
	)
}

func serializeMermaidTool() mcp.Tool {
	return mcp.NewTool("serialize_mermaid",
		mcp.WithDescription("Return the current mind map as a Mermaid mindmap diagram. Full mode keeps topic metadata."),
		mcp.WithBoolean("id_only",
			mcp.Description("Emit only topic ids in the metadata comments."),
			mcp.DefaultBool(false),
		),
		modeOption(),
		turboOption(),
	)
}

func createFromMermaidTool() mcp.Tool {
	return mcp.NewTool("create_from_mermaid",
		mcp.WithDescription("Create a new mind map from a Mermaid mindmap diagram, with or without metadata."),
		mcp.WithString("mermaid",
			mcp.Required(),
			mcp.Description("The Mermaid mindmap diagram."),
		),
		turboOption(),
	)
}

func exportTool() mcp.Tool {
	types := make([]string, len(export.Types))
	for i, t := range export.Types {
		types[i] = string(t)
	}
	return mcp.NewTool("export_mindmap",
		mcp.WithDescription("Render the current mind map in another format and return the output."),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Export format."),
			mcp.Enum(types...),
		),
	)
}

// result turns an action outcome into a tool result. Strings are returned
// as is, everything else as JSON. Action failures become error results
// carrying the payload.
func (s *Server) result(ctx context.Context, tool string, v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		var e *actions.Error
		if !errors.As(err, &e) {
			e = &actions.Error{Kind: actions.KindInternal, Message: err.Error()}
		}
		s.logger.Warn(ctx, "Tool failed", log.Fields{"tool": tool, "error": e.Message})
		data, merr := json.Marshal(e)
		if merr != nil {
			return nil, merr
		}
		return mcp.NewToolResultError(string(data)), nil
	}
	if text, ok := v.(string); ok {
		return mcp.NewToolResultText(text), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetMindmap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.GetMindmap(ctx, req.GetString("mode", "full"), req.GetBool("turbo_mode", false))
	return s.result(ctx, "get_mindmap", v, err)
}

func (s *Server) handleGetSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.GetSelection(ctx, req.GetBool("turbo_mode", false))
	return s.result(ctx, "get_selection", v, err)
}

func (s *Server) handleGetGrounding(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.GetGroundingInformation(ctx, req.GetString("mode", "full"), req.GetBool("turbo_mode", false))
	return s.result(ctx, "get_grounding_information", v, err)
}

func (s *Server) handleGetLibraryFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.GetLibraryFolder(ctx)
	return s.result(ctx, "get_library_folder", v, err)
}

func (s *Server) handleSerializeMermaid(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.SerializeMermaid(ctx, req.GetBool("id_only", false), req.GetString("mode", "full"), req.GetBool("turbo_mode", false))
	return s.result(ctx, "serialize_mermaid", v, err)
}

func (s *Server) handleCreateFromMermaid(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.CreateFromMermaid(ctx, req.GetString("mermaid", ""), req.GetBool("turbo_mode", false))
	return s.result(ctx, "create_from_mermaid", v, err)
}

func (s *Server) handleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.svc.Export(ctx, req.GetString("type", ""))
	if err != nil {
		return s.result(ctx, "export_mindmap", nil, err)
	}
	return s.result(ctx, "export_mindmap", r.Output, nil)
}
