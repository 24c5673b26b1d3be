package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"github.com/prasha-au/aichef/units"
)

// ConvertUnits exposes imperial-to-metric conversion to the model.
type ConvertUnits struct{}

func NewConvertUnits() *ConvertUnits { return &ConvertUnits{} }

func (t *ConvertUnits) Name() string  { return "convert_units" }
func (t *ConvertUnits) Title() string { return "Convert Units" }
func (t *ConvertUnits) Description() string {
	return "Converts an imperial quantity (pounds, ounces) to its stored metric equivalent."
}

func (t *ConvertUnits) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"amount": {Type: "number"},
			"unit":   {Type: "string"},
		},
		Required: []string{"amount", "unit"},
	}
}

func (t *ConvertUnits) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"amount": {Type: "number"},
			"unit":   {Type: "string"},
		},
		Required: []string{"amount", "unit"},
	}
}

func (t *ConvertUnits) Run(_ context.Context, input map[string]any) (map[string]any, error) {
	amount, ok := input["amount"].(float64)
	if !ok {
		return nil, fmt.Errorf("amount must be a number")
	}
	unit, ok := input["unit"].(string)
	if !ok {
		return nil, fmt.Errorf("unit must be a string")
	}

	q, err := units.Convert(amount, unit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"amount": q.Amount, "unit": q.Unit}, nil
}
