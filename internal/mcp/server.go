package mcp

import (
	"fmt"
	"os"

	mcp "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport/stdio"
	"github.com/tliron/commonlog"

	"scribe/internal/operations"
)

var log = commonlog.GetLogger("scribe.mcp")

// RunMCPServer serves the editor operations as MCP tools over stdio.
// Logging must go to stderr or a file so it does not interfere with the protocol.
func RunMCPServer(ops *operations.Operations) error {
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return fmt.Errorf("MCP server mode requires stdin/stdout to be connected (not a terminal)")
	}

	server := mcp.NewServer(stdio.NewStdioServerTransport())

	log.Info("registering tools with MCP server")
	if err := RegisterOperationsTools(server, ops); err != nil {
		return fmt.Errorf("failed to register operations tools: %w", err)
	}

	log.Notice("MCP server ready, serving requests")
	if err := server.Serve(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	// Serve returns once the transport is running; requests are handled in background goroutines
	select {}
}
