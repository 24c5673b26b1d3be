package aichef

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

// RecipeSchema is the JSON Schema for a Recipe, shared by tool inputs, tool
// outputs, and structured-generation requests.
func RecipeSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"title":       {Type: "string"},
			"description": {Type: "string"},
			"ingredientGroups": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"heading": {Type: "string"},
						"ingredients": {
							Type:  "array",
							Items: IngredientSchema(),
						},
					},
					Required: []string{"heading", "ingredients"},
				},
			},
			"instructions": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"heading": {Type: "string"},
						"steps":   {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					},
					Required: []string{"heading", "steps"},
				},
			},
			"notes": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"url":   {Type: "string"},
		},
		Required: []string{"title", "description", "ingredientGroups", "instructions"},
	}
}

// IngredientSchema is the JSON Schema for a single typed ingredient.
func IngredientSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":   {Type: "string"},
			"amount": {Types: []string{"number", "null"}},
			"unit": {
				Type: "string",
				Enum: []any{"tablespoon", "teaspoon", "cup", "kilogram", "gram", "liter", "milliliter", "each"},
			},
			"notes": {Types: []string{"string", "null"}},
		},
		Required: []string{"name", "amount", "unit", "notes"},
	}
}

// SearchResultSchema is the JSON Schema for a single search result.
func SearchResultSchema(withSource bool) *jsonschema.Schema {
	props := map[string]*jsonschema.Schema{
		"title":   {Type: "string"},
		"url":     {Type: "string"},
		"summary": {Type: "string"},
	}
	required := []string{"title", "url", "summary"}
	if withSource {
		props["source"] = &jsonschema.Schema{Type: "string", Enum: []any{"web", "saved"}}
		required = append(required, "source")
	}
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}
