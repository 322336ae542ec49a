package summarizereviews

import "cosmetic-insights/internal/common/validation"

var inputSchema = validation.MustSchema(map[string]interface{}{
	"type": "object",
	"anyOf": []interface{}{
		map[string]interface{}{"required": []interface{}{"reviews"}},
		map[string]interface{}{"required": []interface{}{"productId"}},
	},
	"properties": map[string]interface{}{
		"productId": map[string]interface{}{"type": "string", "minLength": 1},
		"topN":      map[string]interface{}{"type": "integer", "minimum": 1},
		"reviews": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"rating": map[string]interface{}{
						"type":    []interface{}{"number", "null"},
						"minimum": 1,
						"maximum": 5,
					},
					"title":          map[string]interface{}{"type": "string"},
					"text":           map[string]interface{}{"type": "string"},
					"sentiment":      map[string]interface{}{"type": "string"},
					"sentimentScore": map[string]interface{}{"type": []interface{}{"number", "null"}},
				},
			},
		},
	},
})

// GetInputSchema returns the JSON schema for Input.
func GetInputSchema() *validation.Schema {
	return inputSchema
}
