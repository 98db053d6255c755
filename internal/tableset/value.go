package tableset

import (
	"math"
	"strconv"

	"tablecast/internal/common"
)

// Kind tags the four cell value cases.
type Kind int

const (
	KindAbsent Kind = iota
	KindInt
	KindDecimal
	KindText
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindText:
		return "text"
	default:
		return common.UnknownStr
	}
}

// Value is one table cell. It keeps the raw source lexeme alongside the
// parsed form so choice matching can see what the file actually said.
type Value struct {
	kind Kind
	raw  string
	i    int64
	f    float64
}

// Absent returns the missing-value cell.
func Absent() Value {
	return Value{kind: KindAbsent}
}

// Int returns an integer cell.
func Int(i int64) Value {
	return Value{kind: KindInt, raw: strconv.FormatInt(i, 10), i: i}
}

// Decimal returns a floating-point cell.
func Decimal(f float64) Value {
	return Value{kind: KindDecimal, raw: formatDecimal(f), f: f}
}

// Text returns a text cell.
func Text(s string) Value {
	return Value{kind: KindText, raw: s}
}

// ParseCell converts one raw source cell into a Value. Empty cells are
// absent; integer and decimal lexemes become numbers keeping their
// original text; everything else is text. The lexeme is not trimmed
// before parsing.
func ParseCell(s string) Value {
	if s == "" {
		return Absent()
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Value{kind: KindInt, raw: s, i: i}
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Value{kind: KindDecimal, raw: s, f: f}
	}

	return Value{kind: KindText, raw: s}
}

// Kind returns the value's case tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether the cell is missing.
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// Raw returns the cell text as read from the source, "" when absent.
func (v Value) Raw() string {
	return v.raw
}

// Render returns the document text for the value: integers and whole
// decimals without a decimal point, other decimals in their natural
// form, text as-is, absent as the empty string.
func (v Value) Render() string {
	switch v.kind {
	case KindAbsent:
		return ""
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDecimal:
		return formatDecimal(v.f)
	default:
		return v.raw
	}
}

func formatDecimal(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
