package lookupbarcode

import "cosmetic-insights/internal/common/validation"

var inputSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"barcode"},
	"properties": map[string]interface{}{
		"barcode": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
	},
})

// GetInputSchema returns the JSON schema for Input.
func GetInputSchema() *validation.Schema {
	return inputSchema
}
