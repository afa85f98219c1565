package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Unit is a weight unit offered by the converter.
type Unit string

const (
	UnitGram  Unit = "grams"
	UnitTael  Unit = "tael"
	UnitOunce Unit = "ounce"
)

// ErrUnknownUnit is returned for units the converter does not know.
var ErrUnknownUnit = errors.New("unknown weight unit")

// gramsPer holds how many grams one of each unit weighs.
var gramsPer = map[Unit]decimal.Decimal{
	UnitGram:  decimal.NewFromInt(1),
	UnitTael:  decimal.RequireFromString("37.5"),
	UnitOunce: GramsPerTroyOunce,
}

// Convert expresses value (in from) in the to unit.
func Convert(value decimal.Decimal, from, to Unit) (decimal.Decimal, error) {
	f, ok := gramsPer[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownUnit, from)
	}
	t, ok := gramsPer[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownUnit, to)
	}
	return value.Mul(f).Div(t), nil
}
