// Package server exposes the label scanning pipeline to clients.
//
// Two front ends share one scanner.Service:
//
//   - Server speaks MCP (Model Context Protocol) over stdio so assistants
//     can drive a scan with tool calls.
//   - Web serves a plain HTML page for browsers.
//
// # MCP Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image:
//   - label_load: Load a label photo from a path or base64 bytes
//   - label_select_region: Set the crop box and return a preview
//
// Text:
//   - label_extract_text: OCR the crop box
//   - label_verify_text: Replace the text with a corrected version
//
// Lookup:
//   - label_lookup: Look every ingredient up in PubChem
//   - ingredients_parse: Show how text splits into search terms
//
// Session:
//   - label_state: Current state, crop box, text and results
//   - label_new_session: Start an independent scan
//
// Tools that take session_id fall back to a default session created when
// the server starts.
//
// # Web Interface
//
// Routes:
//
//	GET  /         page for the caller's session
//	POST /upload   multipart "image" field, JPEG or PNG
//	GET  /image    display-size PNG with the crop box drawn on it
//	POST /select   crop box in display pixels: left, top, width, height
//	POST /extract  OCR the crop box
//	POST /verify   save edited "text"
//	POST /search   save "text" if sent, then look up ingredients
//	GET  /healthz  JSON status
//	GET  /metrics  Prometheus metrics
//
// The session id travels in the labelscan_session cookie. Successful form
// posts redirect back to the page; failures re-render it with a message and
// a 400 (no selection, bad upload), 409 (step out of order) or 413 status.
//
// # Error Handling
//
// MCP tool errors are returned as JSON-RPC error responses with:
//   - code: CodeToolFailed (-32000) or a standard JSON-RPC code
//   - message: Human-readable error description
//   - data: The Go error string
package server
