// Package units converts imperial recipe quantities into the metric units the
// recipe store accepts. Conversion is pure: no I/O, no state.
package units

import (
	"errors"
	"fmt"
)

// ErrUnsupportedUnit means the input unit has no conversion. This is a data or
// programmer error and fails loud rather than guessing.
var ErrUnsupportedUnit = errors.New("unsupported unit")

// Quantity is a converted amount with its metric unit.
type Quantity struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

const (
	poundToKilogram = 0.453592
	// Ounces are treated as fluid ounces and converted to milliliters. This is a
	// deliberate approximation: recipe sites rarely distinguish weight from
	// volume ounces, and volume is the safer guess for cooking.
	ounceToMilliliter = 0.0283495
)

// Convert maps a non-negative imperial amount to its metric equivalent.
// Supported inputs are pound -> kilogram and ounce -> milliliter.
func Convert(amount float64, unit string) (Quantity, error) {
	if amount < 0 {
		return Quantity{}, fmt.Errorf("amount must not be negative, got %v", amount)
	}
	switch unit {
	case "pound", "pounds", "lb", "lbs":
		return Quantity{Amount: amount * poundToKilogram, Unit: "kilogram"}, nil
	case "ounce", "ounces", "oz":
		return Quantity{Amount: amount * ounceToMilliliter, Unit: "milliliter"}, nil
	default:
		return Quantity{}, fmt.Errorf("%w: %q", ErrUnsupportedUnit, unit)
	}
}
