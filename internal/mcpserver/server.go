package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all IPSentry tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("ipsentry", "1.0.0")
	client := NewIPSentryClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolTrackIP, h.HandleTrackIP)
	s.AddTool(ToolListRecords, h.HandleListRecords)
	s.AddTool(ToolGetStats, h.HandleGetStats)

	return s
}
