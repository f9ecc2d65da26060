package mcpadapter

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/docscout/internal/core/ports"
)

const serverVersion = "1.0.0"

// Server exposes the retrieval engine over MCP stdio so coding agents can
// call it as a tool.
type Server struct {
	mcp       *server.MCPServer
	questions ports.QuestionService
}

func NewServer(name string, questions ports.QuestionService) *Server {
	s := &Server{
		mcp:       server.NewMCPServer(name, serverVersion),
		questions: questions,
	}
	s.mcp.AddTool(searchDocsTool(), s.handleSearchDocs)
	s.mcp.AddTool(askDocsTool(), s.handleAskDocs)
	return s
}

// Serve runs the server on stdio until the client disconnects or ctx is
// cancelled; cancellation is a clean shutdown, not an error.
func (s *Server) Serve(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
