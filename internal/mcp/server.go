package mcp

import (
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/docchat/internal/assistant"
	"github.com/ziadkadry99/docchat/internal/session"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes document question-answering tools.
// All tool calls share one chat session.
type Server struct {
	svc *assistant.Service
	mcp *server.MCPServer

	mu   sync.Mutex
	sess *session.Session
}

// NewServer creates a new MCP server. Turns are appended to sess.
func NewServer(svc *assistant.Service, sess *session.Session) *Server {
	s := &Server{
		svc:  svc,
		sess: sess,
	}

	s.mcp = server.NewMCPServer(
		"docchat",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askDocumentsTool, s.handleAskDocuments)
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(processDocumentsTool, s.handleProcessDocuments)
	s.mcp.AddTool(getHistoryTool, s.handleGetHistory)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

// Session returns the session tool calls are recorded in.
func (s *Server) Session() *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}
