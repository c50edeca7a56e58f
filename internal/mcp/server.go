/*
Package mcp implements the JSON-RPC tool servers spoken over stdio.

Transport is newline-delimited JSON-RPC 2.0: one request per line on
stdin, one response per line on stdout. Stdout carries protocol frames
only; all logging goes to stderr.

The protocol core is shared by both servers; each binary mode plugs in
a Toolset (doc search or the HR database) that supplies the tool
definitions and handles tools/call.
*/
package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"log/slog"

	"github.com/searchdock/searchdock/internal/version"
)

// protocolVersion is the MCP protocol revision this server speaks.
const protocolVersion = "2024-11-05"

// maxLineSize bounds a single request line (16 MiB).
const maxLineSize = 16 * 1024 * 1024

// Tool describes one callable tool for tools/list.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolResult is the outcome of one tools/call. Tool-level failures
// (bad arguments, unusable state) are reported here with IsError set,
// not as JSON-RPC errors: the call itself succeeded.
type ToolResult struct {
	// Text is the human-readable rendering of the result.
	Text string

	// Structured is the machine-readable result, emitted as
	// structuredContent when non-nil.
	Structured interface{}

	// IsError marks a tool-level failure.
	IsError bool
}

// Toolset supplies the tools one server mode exposes.
type Toolset interface {
	// Name is the serverInfo name reported during initialize.
	Name() string

	// Tools returns the tool definitions for tools/list.
	Tools() []Tool

	// Call executes a named tool. An unknown name must return
	// ErrUnknownTool wrapped or plain; any other error becomes a
	// JSON-RPC internal error.
	Call(name string, args map[string]interface{}) (*ToolResult, error)
}

// CapabilityReporter is optionally implemented by toolsets that
// advertise extra capability flags during initialize.
type CapabilityReporter interface {
	Capabilities() map[string]interface{}
}

// ErrUnknownTool is returned by Toolset.Call for unrecognized names.
var ErrUnknownTool = errors.New("unknown tool")

// Server runs the JSON-RPC loop over stdio for one toolset.
type Server struct {
	toolset Toolset
	out     *bufio.Writer
}

// NewServer creates a server serving the given toolset.
func NewServer(ts Toolset) *Server {
	return &Server{
		toolset: ts,
		out:     bufio.NewWriter(os.Stdout),
	}
}

// Run reads requests from stdin until it closes. Malformed lines get a
// parse-error response; the loop itself never stops on a bad request.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		response := s.handleRequest(line)
		if response != nil {
			s.sendResponse(response)
		}
	}

	return scanner.Err()
}

// Request represents an incoming JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents an outgoing JSON-RPC response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{}  `json:"id"`
	Result  interface{}  `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// ErrorObject represents a JSON-RPC error.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// handleRequest dispatches one request line. A nil return means no
// response is written (notifications).
func (s *Server) handleRequest(data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Warn("discarding malformed request", "error", err)
		return &Response{
			JSONRPC: "2.0",
			ID:      nil,
			Error:   &ErrorObject{Code: codeParseError, Message: "Parse error"},
		}
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(&req)
	case "notifications/initialized":
		// Notification, no response.
		return nil
	case "ping":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]interface{}{}}
	case "tools/list":
		return s.handleToolsList(&req)
	case "tools/call":
		return s.handleToolsCall(&req)
	default:
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &ErrorObject{Code: codeMethodNotFound, Message: "Method not found"},
		}
	}
}

// handleInitialize handles the initialize handshake.
func (s *Server) handleInitialize(req *Request) *Response {
	capabilities := map[string]interface{}{
		"tools": map[string]interface{}{},
	}
	if reporter, ok := s.toolset.(CapabilityReporter); ok {
		if extra := reporter.Capabilities(); len(extra) > 0 {
			capabilities["experimental"] = extra
		}
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities":    capabilities,
			"serverInfo": map[string]interface{}{
				"name":    s.toolset.Name(),
				"version": version.Version,
			},
		},
	}
}

// handleToolsList returns the toolset's tool definitions.
func (s *Server) handleToolsList(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": s.toolset.Tools(),
		},
	}
}

// handleToolsCall executes one tool and shapes the result.
func (s *Server) handleToolsCall(req *Request) *Response {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &ErrorObject{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)},
		}
	}

	result, err := s.toolset.Call(params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, ErrUnknownTool) {
			return &Response{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &ErrorObject{Code: codeInvalidParams, Message: fmt.Sprintf("Unknown tool: %s", params.Name)},
			}
		}
		slog.Error("tool call failed", "tool", params.Name, "error", err)
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &ErrorObject{Code: codeInternalError, Message: err.Error()},
		}
	}

	body := map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": result.Text},
		},
	}
	if result.Structured != nil {
		body["structuredContent"] = result.Structured
	}
	if result.IsError {
		body["isError"] = true
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  body,
	}
}

// sendResponse writes one JSON-RPC response line to stdout.
func (s *Server) sendResponse(resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		return
	}
	s.out.Write(data)
	s.out.WriteByte('\n')
	s.out.Flush()
}
