package table

import (
	"math"
	"strconv"
)

type kind uint8

const (
	kindNull kind = iota
	kindNumber
	kindString
)

// Value is a single table cell: a number, a string, or null.
// NaN numbers are stored as null so that missing values behave the same
// whether they came from the source file or from arithmetic on nulls.
type Value struct {
	kind kind
	num  float64
	str  string
}

// Null is the missing value.
var Null = Value{}

// Num returns a numeric cell. NaN and ±Inf become null.
func Num(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null
	}
	return Value{kind: kindNumber, num: f}
}

// Int returns a numeric cell holding an integer.
func Int(i int) Value {
	return Value{kind: kindNumber, num: float64(i)}
}

// Str returns a string cell.
func Str(s string) Value {
	return Value{kind: kindString, str: s}
}

// IsNull reports whether the cell is missing.
func (v Value) IsNull() bool { return v.kind == kindNull }

// IsNumber reports whether the cell holds a number.
func (v Value) IsNumber() bool { return v.kind == kindNumber }

// Float returns the numeric content. ok is false for null and string cells.
func (v Value) Float() (float64, bool) {
	if v.kind != kindNumber {
		return math.NaN(), false
	}
	return v.num, true
}

// FloatOrNaN returns the numeric content or NaN.
func (v Value) FloatOrNaN() float64 {
	f, _ := v.Float()
	return f
}

// String formats the cell for keys and display. Null formats as "".
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindString:
		return v.str
	default:
		return ""
	}
}

// Equal compares two cells. Nulls are equal to each other.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case kindNumber:
		return v.num == o.num
	case kindString:
		return v.str == o.str
	default:
		return true
	}
}

// Round returns the cell rounded to the given number of decimals.
// Non-numeric cells are returned unchanged.
func (v Value) Round(decimals int) Value {
	if v.kind != kindNumber {
		return v
	}
	p := math.Pow(10, float64(decimals))
	return Num(math.Round(v.num*p) / p)
}

// Parse converts raw CSV text into a cell. Empty strings and the usual
// missing-value markers become null; numeric text becomes a number.
func Parse(raw string) Value {
	switch raw {
	case "", "NA", "N/A", "NaN", "nan", "null", "NULL":
		return Null
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Num(f)
	}
	return Str(raw)
}
