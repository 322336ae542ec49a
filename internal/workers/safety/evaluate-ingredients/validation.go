package evaluateingredients

import "cosmetic-insights/internal/common/validation"

var inputSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"ingredients"},
	"properties": map[string]interface{}{
		"ingredients": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"source": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"ocr", "barcode"},
		},
		"productInfo": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name":    map[string]interface{}{"type": "string"},
				"brand":   map[string]interface{}{"type": "string"},
				"barcode": map[string]interface{}{"type": "string"},
				"source":  map[string]interface{}{"type": "string"},
			},
		},
		"reportId": map[string]interface{}{"type": "string"},
	},
})

// GetInputSchema returns the JSON schema for Input.
func GetInputSchema() *validation.Schema {
	return inputSchema
}
