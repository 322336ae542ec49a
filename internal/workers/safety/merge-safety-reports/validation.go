package mergesafetyreports

import "cosmetic-insights/internal/common/validation"

var reportSchema = map[string]interface{}{
	"type": []interface{}{"object", "null"},
	"properties": map[string]interface{}{
		"ingredients": map[string]interface{}{
			"type": []interface{}{"array", "null"},
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"ingredient"},
				"properties": map[string]interface{}{
					"ingredient":  map[string]interface{}{"type": "string", "minLength": 1},
					"safetyScore": map[string]interface{}{"type": []interface{}{"number", "null"}},
					"hazards": map[string]interface{}{
						"type":  []interface{}{"array", "null"},
						"items": map[string]interface{}{"type": "string"},
					},
				},
			},
		},
		"lookupFailures": map[string]interface{}{"type": "integer", "minimum": 0},
	},
}

var inputSchema = validation.MustSchema(map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"ocrReport":     reportSchema,
		"barcodeReport": reportSchema,
		"reportId":      map[string]interface{}{"type": "string"},
	},
})

// GetInputSchema returns the JSON schema for Input.
func GetInputSchema() *validation.Schema {
	return inputSchema
}
