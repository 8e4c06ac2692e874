package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/ingredients"
	"github.com/ironsheep/labelscan/internal/scanner"
	"github.com/ironsheep/labelscan/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "label_load", "label_lookup").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with CodeToolFailed.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithField("tool", params.Name).WithError(err).Info("tool failed")
		return s.errorResponse(req.ID, CodeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image
	case "label_load":
		return s.handleLabelLoad(ctx, args)
	case "label_select_region":
		return s.handleLabelSelectRegion(args)

	// Text
	case "label_extract_text":
		return s.handleLabelExtractText(ctx, args)
	case "label_verify_text":
		return s.handleLabelVerifyText(args)

	// Lookup
	case "label_lookup":
		return s.handleLabelLookup(ctx, args)
	case "ingredients_parse":
		return s.handleIngredientsParse(args)

	// Session
	case "label_state":
		return s.handleLabelState(args)
	case "label_new_session":
		return map[string]string{"session_id": s.svc.Store().Create().ID}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response. An empty data is omitted.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: "2.0", ID: id, Error: e}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

// sessionID returns the requested session, falling back to the default one.
// The default session is recreated if it was evicted while idle.
func (s *Server) sessionID(a sessionArgs) string {
	if a.SessionID != "" {
		return a.SessionID
	}
	if _, err := s.svc.Store().Get(s.defaultSession); errors.Is(err, session.ErrNotFound) {
		s.defaultSession = s.svc.Store().Create().ID
	}
	return s.defaultSession
}

// === Image Handlers ===

type labelLoadArgs struct {
	sessionArgs
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) handleLabelLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a labelLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var data []byte
	switch {
	case a.Path != "":
		b, err := os.ReadFile(a.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		data = b
	case a.ImageBase64 != "":
		b, err := base64.StdEncoding.DecodeString(a.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("invalid image_base64: %w", err)
		}
		data = b
	default:
		return nil, errors.New("path or image_base64 is required")
	}

	return s.svc.Upload(ctx, s.sessionID(a.sessionArgs), bytes.NewReader(data))
}

type labelSelectRegionArgs struct {
	sessionArgs
	imaging.Selection
	Space        string  `json:"space"`
	PreviewScale float64 `json:"preview_scale"`
}

type selectRegionResult struct {
	session.Snapshot
	Preview *imaging.CropResult `json:"preview"`
}

func (s *Server) handleLabelSelectRegion(args json.RawMessage) (interface{}, error) {
	var a labelSelectRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Space == "" {
		a.Space = "source"
	}
	if a.PreviewScale == 0 {
		a.PreviewScale = 1.0
	}
	space, err := scanner.ParseSpace(a.Space)
	if err != nil {
		return nil, err
	}

	id := s.sessionID(a.sessionArgs)
	snap, err := s.svc.SelectRegion(id, a.Selection, space)
	if err != nil {
		return nil, err
	}
	preview, err := s.svc.Preview(id, a.PreviewScale)
	if err != nil {
		return nil, err
	}
	return selectRegionResult{Snapshot: snap, Preview: preview}, nil
}

// === Text Handlers ===

func (s *Server) handleLabelExtractText(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.svc.Extract(ctx, s.sessionID(a))
}

type labelVerifyTextArgs struct {
	sessionArgs
	Text string `json:"text"`
}

func (s *Server) handleLabelVerifyText(args json.RawMessage) (interface{}, error) {
	var a labelVerifyTextArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.svc.EditText(s.sessionID(a.sessionArgs), a.Text)
}

// === Lookup Handlers ===

func (s *Server) handleLabelLookup(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.svc.Search(ctx, s.sessionID(a))
}

type ingredientsParseArgs struct {
	Text string `json:"text"`
}

type ingredientsParseResult struct {
	Normalized string                  `json:"normalized"`
	Candidates []ingredients.Candidate `json:"candidates"`
}

func (s *Server) handleIngredientsParse(args json.RawMessage) (interface{}, error) {
	var a ingredientsParseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	normalized := ingredients.Normalize(a.Text)
	return ingredientsParseResult{
		Normalized: normalized,
		Candidates: ingredients.SplitAndClean(normalized),
	}, nil
}

// === Session Handlers ===

func (s *Server) handleLabelState(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.svc.Snapshot(s.sessionID(a))
}
