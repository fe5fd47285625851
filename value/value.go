// Value package defines the literal value types (int, long, decimal, string,
// datetime etc) produced by the lexer and handed to expression nodes.
package value

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	u "github.com/araddon/gou"
	"github.com/shopspring/decimal"
)

var (
	_ = u.EMPTY

	NilValueVal    = NilValue{}
	BoolValueTrue  = BoolValue{v: true}
	BoolValueFalse = BoolValue{v: false}

	EmptyStringValue = NewStringValue("")

	maxLongDecimal = decimal.New(math.MaxInt64, 0)
	minLongDecimal = decimal.New(math.MinInt64, 0)

	_ Value   = (StringValue)(EmptyStringValue)
	_ Value   = (*SliceValue)(nil)
	_ Numeric = (IntValue)(IntValue{})
	_ Numeric = (DecimalValue)(DecimalValue{})
)

// ValueType is the SQL data type of a value.
type ValueType uint8

const (
	// Enum values for Type system, DO NOT CHANGE the numbers, do not use iota
	UnknownType          ValueType = 0
	NilType              ValueType = 1
	BoolType             ValueType = 2
	TinyIntType          ValueType = 3
	SmallIntType         ValueType = 4
	IntType              ValueType = 5
	LongType             ValueType = 6
	DecimalType          ValueType = 7
	NumberType           ValueType = 8 // DOUBLE
	RealType             ValueType = 9
	TimeType             ValueType = 10
	DateType             ValueType = 11
	TimestampType        ValueType = 12
	TimestampTzType      ValueType = 13
	ByteSliceType        ValueType = 14
	UuidType             ValueType = 15
	StringType           ValueType = 20
	StringIgnoreCaseType ValueType = 21
	StringFixedType      ValueType = 22
	BlobType             ValueType = 23
	ClobType             ValueType = 24
	SliceValueType       ValueType = 30 // ARRAY
	ResultSetType        ValueType = 31
	JavaObjectType       ValueType = 32
	GeometryType         ValueType = 33
	EnumType             ValueType = 34
)

func (m ValueType) String() string {
	switch m {
	case NilType:
		return "NULL"
	case BoolType:
		return "BOOLEAN"
	case TinyIntType:
		return "TINYINT"
	case SmallIntType:
		return "SMALLINT"
	case IntType:
		return "INTEGER"
	case LongType:
		return "BIGINT"
	case DecimalType:
		return "DECIMAL"
	case NumberType:
		return "DOUBLE"
	case RealType:
		return "REAL"
	case TimeType:
		return "TIME"
	case DateType:
		return "DATE"
	case TimestampType:
		return "TIMESTAMP"
	case TimestampTzType:
		return "TIMESTAMP WITH TIME ZONE"
	case ByteSliceType:
		return "VARBINARY"
	case UuidType:
		return "UUID"
	case StringType:
		return "VARCHAR"
	case StringIgnoreCaseType:
		return "VARCHAR_IGNORECASE"
	case StringFixedType:
		return "CHAR"
	case BlobType:
		return "BLOB"
	case ClobType:
		return "CLOB"
	case SliceValueType:
		return "ARRAY"
	case ResultSetType:
		return "RESULT_SET"
	case JavaObjectType:
		return "JAVA_OBJECT"
	case GeometryType:
		return "GEOMETRY"
	case EnumType:
		return "ENUM"
	default:
		return "UNKNOWN"
	}
}

// IsNumeric is true for the integral, decimal and floating types.
func (m ValueType) IsNumeric() bool {
	switch m {
	case TinyIntType, SmallIntType, IntType, LongType, DecimalType, NumberType, RealType:
		return true
	}
	return false
}

// IsString is true for the character types.
func (m ValueType) IsString() bool {
	switch m {
	case StringType, StringIgnoreCaseType, StringFixedType, ClobType:
		return true
	}
	return false
}

// order is the widening rank used by HigherOrder; a value of lower rank
// converts to one of higher rank.
func (m ValueType) order() int {
	switch m {
	case NilType:
		return 0
	case BoolType:
		return 10
	case TinyIntType:
		return 20
	case SmallIntType:
		return 21
	case IntType:
		return 22
	case LongType:
		return 23
	case DecimalType:
		return 24
	case RealType:
		return 25
	case NumberType:
		return 26
	case TimeType:
		return 30
	case DateType:
		return 31
	case TimestampType:
		return 32
	case TimestampTzType:
		return 33
	case ByteSliceType:
		return 40
	case UuidType:
		return 41
	case StringFixedType:
		return 50
	case StringType:
		return 51
	case StringIgnoreCaseType:
		return 52
	case BlobType:
		return 60
	case ClobType:
		return 61
	case EnumType:
		return 62
	case GeometryType:
		return 63
	case SliceValueType:
		return 70
	case ResultSetType:
		return 71
	case JavaObjectType:
		return 72
	}
	return -1
}

// HigherOrder returns the type both @a and @b widen to.  Unknown types
// are ignored, NULL widens to anything.
func HigherOrder(a, b ValueType) ValueType {
	if a == UnknownType {
		return b
	}
	if b == UnknownType {
		return a
	}
	if a.order() >= b.order() {
		return a
	}
	return b
}

type (
	// Value is an immutable, typed literal.
	Value interface {
		// Is this a nil/empty?
		Nil() bool
		Type() ValueType
		// The underlying go value
		Value() interface{}
		ToString() string
		// SQL renders the literal so it parses back to the same value
		SQL() string
	}
	// Numeric is a value that can be negated and compared against zero.
	Numeric interface {
		Value
		Negate() Value
		Signum() int
	}

	NilValue  struct{}
	BoolValue struct {
		v bool
	}
	// IntValue is the 32 bit INTEGER.
	IntValue struct {
		v int32
	}
	// LongValue is the 64 bit BIGINT.
	LongValue struct {
		v int64
	}
	DecimalValue struct {
		v decimal.Decimal
	}
	// NumberValue is a DOUBLE.
	NumberValue struct {
		v float64
	}
	StringValue struct {
		v string
	}
	// StringIgnoreCaseValue compares case-insensitively (VARCHAR_IGNORECASE).
	StringIgnoreCaseValue struct {
		v string
	}
	ByteSliceValue struct {
		v []byte
	}
	// TimeValue holds DATE, TIME, TIMESTAMP and TIMESTAMP WITH TIME ZONE
	// values, the type tells which part is significant.
	TimeValue struct {
		t  time.Time
		vt ValueType
	}
	SliceValue struct {
		v []Value
	}
)

func NewNilValue() NilValue           { return NilValue{} }
func (m NilValue) Nil() bool          { return true }
func (m NilValue) Type() ValueType    { return NilType }
func (m NilValue) Value() interface{} { return nil }
func (m NilValue) ToString() string   { return "" }
func (m NilValue) SQL() string        { return "NULL" }

func NewBoolValue(v bool) BoolValue {
	if v {
		return BoolValueTrue
	}
	return BoolValueFalse
}
func (m BoolValue) Nil() bool          { return false }
func (m BoolValue) Type() ValueType    { return BoolType }
func (m BoolValue) Value() interface{} { return m.v }
func (m BoolValue) Val() bool          { return m.v }
func (m BoolValue) ToString() string   { return strconv.FormatBool(m.v) }
func (m BoolValue) SQL() string {
	if m.v {
		return "TRUE"
	}
	return "FALSE"
}

func NewIntValue(v int32) IntValue    { return IntValue{v: v} }
func (m IntValue) Nil() bool          { return false }
func (m IntValue) Type() ValueType    { return IntType }
func (m IntValue) Value() interface{} { return m.v }
func (m IntValue) Val() int32         { return m.v }
func (m IntValue) ToString() string   { return strconv.FormatInt(int64(m.v), 10) }
func (m IntValue) SQL() string        { return m.ToString() }
func (m IntValue) Signum() int        { return signum(int64(m.v)) }
func (m IntValue) Negate() Value {
	if m.v == math.MinInt32 {
		return NewLongValue(-int64(m.v))
	}
	return NewIntValue(-m.v)
}

func NewLongValue(v int64) LongValue   { return LongValue{v: v} }
func (m LongValue) Nil() bool          { return false }
func (m LongValue) Type() ValueType    { return LongType }
func (m LongValue) Value() interface{} { return m.v }
func (m LongValue) Val() int64         { return m.v }
func (m LongValue) ToString() string   { return strconv.FormatInt(m.v, 10) }
func (m LongValue) Signum() int        { return signum(m.v) }
func (m LongValue) SQL() string {
	if m.v >= math.MinInt32 && m.v <= math.MaxInt32 {
		return "CAST(" + m.ToString() + " AS BIGINT)"
	}
	return m.ToString()
}
func (m LongValue) Negate() Value {
	if m.v == math.MinInt64 {
		return NewDecimalValue(decimal.New(m.v, 0).Neg())
	}
	return NewLongValue(-m.v)
}

func NewDecimalValue(v decimal.Decimal) DecimalValue { return DecimalValue{v: v} }
func (m DecimalValue) Nil() bool                     { return false }
func (m DecimalValue) Type() ValueType               { return DecimalType }
func (m DecimalValue) Value() interface{}            { return m.v }
func (m DecimalValue) Val() decimal.Decimal          { return m.v }
func (m DecimalValue) ToString() string              { return m.v.String() }
func (m DecimalValue) Signum() int                   { return m.v.Sign() }
func (m DecimalValue) Negate() Value                 { return NewDecimalValue(m.v.Neg()) }
func (m DecimalValue) SQL() string {
	s := m.v.String()
	if strings.Contains(s, ".") {
		return s
	}
	// a bare integer in this range reads back as INT or BIGINT
	if m.v.Cmp(minLongDecimal) >= 0 && m.v.Cmp(maxLongDecimal) <= 0 {
		return "CAST(" + s + " AS DECIMAL)"
	}
	return s
}

// IsIntegral reports whether the decimal has no fractional part.
func (m DecimalValue) IsIntegral() bool {
	return m.v.Equal(m.v.Truncate(0))
}

func NewNumberValue(v float64) NumberValue { return NumberValue{v: v} }
func (m NumberValue) Nil() bool            { return math.IsNaN(m.v) }
func (m NumberValue) Type() ValueType      { return NumberType }
func (m NumberValue) Value() interface{}   { return m.v }
func (m NumberValue) Val() float64         { return m.v }
func (m NumberValue) ToString() string     { return strconv.FormatFloat(m.v, 'g', -1, 64) }
func (m NumberValue) Negate() Value        { return NewNumberValue(-m.v) }
func (m NumberValue) SQL() string          { return "CAST(" + m.ToString() + " AS DOUBLE)" }
func (m NumberValue) Signum() int {
	switch {
	case m.v < 0:
		return -1
	case m.v > 0:
		return 1
	}
	return 0
}

func NewStringValue(v string) StringValue { return StringValue{v: v} }
func (m StringValue) Nil() bool           { return false }
func (m StringValue) Type() ValueType     { return StringType }
func (m StringValue) Value() interface{}  { return m.v }
func (m StringValue) Val() string         { return m.v }
func (m StringValue) ToString() string    { return m.v }
func (m StringValue) SQL() string         { return QuoteString(m.v) }

func NewStringIgnoreCaseValue(v string) StringIgnoreCaseValue { return StringIgnoreCaseValue{v: v} }
func (m StringIgnoreCaseValue) Nil() bool                     { return false }
func (m StringIgnoreCaseValue) Type() ValueType               { return StringIgnoreCaseType }
func (m StringIgnoreCaseValue) Value() interface{}            { return m.v }
func (m StringIgnoreCaseValue) ToString() string              { return m.v }
func (m StringIgnoreCaseValue) SQL() string                   { return QuoteString(m.v) }

func NewByteSliceValue(v []byte) ByteSliceValue { return ByteSliceValue{v: v} }
func (m ByteSliceValue) Nil() bool              { return m.v == nil }
func (m ByteSliceValue) Type() ValueType        { return ByteSliceType }
func (m ByteSliceValue) Value() interface{}     { return m.v }
func (m ByteSliceValue) Val() []byte            { return m.v }
func (m ByteSliceValue) ToString() string       { return hex.EncodeToString(m.v) }
func (m ByteSliceValue) SQL() string            { return "X'" + hex.EncodeToString(m.v) + "'" }

func NewDateValue(t time.Time) TimeValue        { return TimeValue{t: t, vt: DateType} }
func NewTimeOfDayValue(t time.Time) TimeValue   { return TimeValue{t: t, vt: TimeType} }
func NewTimestampValue(t time.Time) TimeValue   { return TimeValue{t: t, vt: TimestampType} }
func NewTimestampTzValue(t time.Time) TimeValue { return TimeValue{t: t, vt: TimestampTzType} }
func (m TimeValue) Nil() bool                   { return false }
func (m TimeValue) Type() ValueType             { return m.vt }
func (m TimeValue) Value() interface{}          { return m.t }
func (m TimeValue) Val() time.Time              { return m.t }
func (m TimeValue) ToString() string            { return FormatTime(m.t, m.vt) }
func (m TimeValue) SQL() string                 { return m.vt.String() + " " + QuoteString(m.ToString()) }

func NewSliceValues(v []Value) *SliceValue { return &SliceValue{v: v} }
func (m *SliceValue) Nil() bool            { return len(m.v) == 0 }
func (m *SliceValue) Type() ValueType      { return SliceValueType }
func (m *SliceValue) Value() interface{}   { return m.v }
func (m *SliceValue) Val() []Value         { return m.v }
func (m *SliceValue) Len() int             { return len(m.v) }
func (m *SliceValue) ToString() string {
	parts := make([]string, len(m.v))
	for i, v := range m.v {
		parts[i] = v.ToString()
	}
	return strings.Join(parts, ",")
}
func (m *SliceValue) SQL() string {
	parts := make([]string, len(m.v))
	for i, v := range m.v {
		parts[i] = v.SQL()
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func signum(v int64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

// QuoteString renders @s as a single quoted SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.Replace(s, "'", "''", -1) + "'"
}

// Negate returns -v for numeric values and folds the two boundary cases
// where negation narrows the literal:  -(2147483648) is INT and
// -(9223372036854775808) is BIGINT.
func Negate(v Value) (Value, error) {
	switch vt := v.(type) {
	case LongValue:
		if vt.v == -math.MinInt32 {
			return NewIntValue(math.MinInt32), nil
		}
		return vt.Negate(), nil
	case DecimalValue:
		if vt.v.Equal(minLongDecimal.Neg()) {
			return NewLongValue(math.MinInt64), nil
		}
		return vt.Negate(), nil
	case Numeric:
		return vt.Negate(), nil
	case NilValue:
		return v, nil
	}
	return nil, fmt.Errorf("cannot negate %s", v.Type())
}

// IntOrLong narrows @v to INT when it fits 32 bits.
func IntOrLong(v int64) Value {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return NewIntValue(int32(v))
	}
	return NewLongValue(v)
}

// ToInt64 extracts an integral value from integral numeric values and
// numeric strings.
func ToInt64(v Value) (int64, bool) {
	switch vt := v.(type) {
	case IntValue:
		return int64(vt.v), true
	case LongValue:
		return vt.v, true
	case DecimalValue:
		if vt.IsIntegral() && vt.v.Cmp(minLongDecimal) >= 0 && vt.v.Cmp(maxLongDecimal) <= 0 {
			return vt.v.IntPart(), true
		}
	case NumberValue:
		if vt.v == math.Trunc(vt.v) && !math.IsInf(vt.v, 0) {
			return int64(vt.v), true
		}
	case StringValue:
		if iv, err := strconv.ParseInt(strings.TrimSpace(vt.v), 10, 64); err == nil {
			return iv, true
		}
	}
	return 0, false
}

// Equal compares two values by type and content.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	switch at := a.(type) {
	case DecimalValue:
		return at.v.Equal(b.(DecimalValue).v)
	case ByteSliceValue:
		return string(at.v) == string(b.(ByteSliceValue).v)
	case TimeValue:
		return at.t.Equal(b.(TimeValue).t)
	case *SliceValue:
		bs := b.(*SliceValue)
		if len(at.v) != len(bs.v) {
			return false
		}
		for i := range at.v {
			if !Equal(at.v[i], bs.v[i]) {
				return false
			}
		}
		return true
	}
	return a.Value() == b.Value()
}
