package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var sessionProperty = map[string]interface{}{
	"type":        "string",
	"description": "Session to operate on. Omit to use the server's default session.",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image
		{
			Name:        "label_load",
			Description: "Load a JPEG or PNG label photo into the session, replacing any previous image, crop box, text and results. Large photos are downscaled to 1800 px on the longest side. Returns the image size, display geometry and, when text was detected, a suggested crop box.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty,
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"image_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded image bytes, used when path is empty",
					},
				},
			},
		},
		{
			Name:        "label_select_region",
			Description: "Set the crop box around the ingredient list. Coordinates are in source pixels by default; pass space=display for boxes drawn on the width-capped display canvas. Returns the source-space region and a PNG preview of the crop.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty,
					"left": map[string]interface{}{
						"type":        "number",
						"description": "Left edge X coordinate",
					},
					"top": map[string]interface{}{
						"type":        "number",
						"description": "Top edge Y coordinate",
					},
					"width": map[string]interface{}{
						"type":        "number",
						"description": "Box width, must be positive",
					},
					"height": map[string]interface{}{
						"type":        "number",
						"description": "Box height, must be positive",
					},
					"scale_x": map[string]interface{}{
						"type":        "number",
						"description": "Optional horizontal resize factor reported by a drawing canvas. Default 1.0",
						"default":     1.0,
					},
					"scale_y": map[string]interface{}{
						"type":        "number",
						"description": "Optional vertical resize factor reported by a drawing canvas. Default 1.0",
						"default":     1.0,
					},
					"space": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"source", "display"},
						"description": "Coordinate space of the box. Default source",
						"default":     "source",
					},
					"preview_scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for the returned preview. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"left", "top", "width", "height"},
			},
		},

		// Text
		{
			Name:        "label_extract_text",
			Description: "Run OCR on the selected crop box. The region is converted to grayscale and contrast-enhanced, then read as a single block of text. Fails with a no-selection error when no crop box is set.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty,
				},
			},
		},
		{
			Name:        "label_verify_text",
			Description: "Replace the recognized text with a corrected version before lookup.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty,
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Corrected ingredient text",
					},
				},
				"required": []string{"text"},
			},
		},

		// Lookup
		{
			Name:        "label_lookup",
			Description: "Split the session text into ingredients and look each one up in PubChem. Returns one result per ingredient in label order with status found, not_found, failed or skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty,
				},
			},
		},
		{
			Name:        "ingredients_parse",
			Description: "Show how a piece of label text is split into ingredient candidates and search terms, without looking anything up.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Label text, optionally starting with an Ingredients: header",
					},
				},
				"required": []string{"text"},
			},
		},

		// Session
		{
			Name:        "label_state",
			Description: "Return the session's current state, crop box, text and last results.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty,
				},
			},
		},
		{
			Name:        "label_new_session",
			Description: "Start an independent scan session and return its id.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
