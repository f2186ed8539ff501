// Package mcp bridges MCP stdio clients to the feel HTTP server.
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const protocolVersion = "2024-11-05"

// Server implements an MCP stdio server that delegates to the HTTP mood server.
type Server struct {
	client *resty.Client
	log    zerolog.Logger

	outMu sync.Mutex
	out   io.Writer
}

// NewServer creates a new MCP server. apiKey may be empty.
func NewServer(serverURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Server {
	client := resty.New().
		SetBaseURL(strings.TrimRight(serverURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &Server{
		client: client,
		log:    log.With().Str("component", "mcp").Logger(),
	}
}

// Run reads requests from in and writes responses to out until in is
// exhausted.
func (s *Server) Run(in io.Reader, out io.Writer) error {
	s.out = out
	scanner := bufio.NewScanner(in)
	// Increase buffer for large messages
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(errorResponse(nil, codeParseError, "parse error: "+err.Error()))
			continue
		}

		if resp := s.handleRequest(&req); resp != nil {
			s.writeResponse(resp)
		}
	}

	return scanner.Err()
}

func (s *Server) handleRequest(req *Request) *Response {
	s.log.Debug().Str("method", req.Method).Msg("request")
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// Notification, no response
		return nil
	case "tools/list":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: ToolsListResult{Tools: ToolDefinitions()}}
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]string{}}
	default:
		return errorResponse(req.ID, codeMethodNotFound, "method not found: "+req.Method)
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    ServerCapabilities{Tools: &ToolCapabilities{}},
			ServerInfo:      ServerInfo{Name: "feel", Version: "1.0.0"},
		},
	}
}

func (s *Server) handleToolsCall(req *Request) *Response {
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid params")
	}

	var params CallToolParams
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid params: "+err.Error())
	}

	result, isError := s.dispatchTool(params.Name, params.Arguments)
	if isError {
		s.log.Warn().Str("tool", params.Name).Str("result", result).Msg("tool failed")
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: CallToolResult{
			Content: []ContentBlock{{Type: "text", Text: result}},
			IsError: isError,
		},
	}
}

func (s *Server) dispatchTool(name string, args map[string]any) (string, bool) {
	switch name {
	case "mood_analyze":
		return s.toolAnalyze(args)
	case "mood_history":
		return s.toolHistory(args)
	case "mood_stats":
		return s.call(s.client.R().Get("/stats"))
	case "mood_clear":
		return s.call(s.client.R().Delete("/history"))
	default:
		return fmt.Sprintf("unknown tool: %s", name), true
	}
}

// --- Tool implementations (HTTP delegation) ---

func (s *Server) toolAnalyze(args map[string]any) (string, bool) {
	message, _ := args["message"].(string)
	if strings.TrimSpace(message) == "" {
		return "message is required", true
	}
	if lang, ok := args["language"].(string); ok && lang != "" {
		if out, isErr := s.call(s.client.R().SetBody(map[string]string{"language": lang}).Put("/settings")); isErr {
			return out, true
		}
	}
	return s.call(s.client.R().SetBody(map[string]string{"message": message}).Post("/messages"))
}

func (s *Server) toolHistory(args map[string]any) (string, bool) {
	limit := int(getFloat(args, "limit", 10))
	return s.call(s.client.R().SetQueryParam("limit", fmt.Sprint(limit)).Get("/history"))
}

// --- HTTP helpers ---

func (s *Server) call(resp *resty.Response, err error) (string, bool) {
	if err != nil {
		return fmt.Sprintf("HTTP error: %s", err), true
	}
	return resp.String(), resp.StatusCode() >= 400
}

// --- Response helpers ---

func (s *Server) writeResponse(resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal response")
		return
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, "%s\n", data)
}

func errorResponse(id any, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}

// --- Argument helpers ---

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key]; ok {
		switch val := v.(type) {
		case float64:
			return val
		case int:
			return float64(val)
		}
	}
	return fallback
}
