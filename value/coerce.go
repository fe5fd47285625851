package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrConversion is returned when a constant cannot be converted.
var ErrConversion = fmt.Errorf("value conversion not possible")

// Convert converts a constant to @to, used when folding CAST of literals.
func Convert(v Value, to ValueType) (Value, error) {
	if v == nil || v.Type() == NilType {
		return NilValueVal, nil
	}
	if v.Type() == to {
		return v, nil
	}
	switch to {
	case StringType, StringFixedType, ClobType:
		return NewStringValue(v.ToString()), nil
	case StringIgnoreCaseType:
		return NewStringIgnoreCaseValue(v.ToString()), nil
	case BoolType:
		return toBool(v)
	case TinyIntType, SmallIntType, IntType:
		iv, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if iv < math.MinInt32 || iv > math.MaxInt32 {
			return nil, fmt.Errorf("numeric value out of range: %d", iv)
		}
		return NewIntValue(int32(iv)), nil
	case LongType:
		iv, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return NewLongValue(iv), nil
	case DecimalType:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		return NewDecimalValue(d), nil
	case NumberType, RealType:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		f, _ := d.Float64()
		return NewNumberValue(f), nil
	case DateType:
		if tv, ok := v.(TimeValue); ok {
			return NewDateValue(tv.t), nil
		}
		return ParseDate(v.ToString())
	case TimeType:
		if tv, ok := v.(TimeValue); ok {
			return NewTimeOfDayValue(tv.t), nil
		}
		return ParseTime(v.ToString())
	case TimestampType:
		if tv, ok := v.(TimeValue); ok {
			return NewTimestampValue(tv.t), nil
		}
		return ParseTimestamp(v.ToString(), false)
	case TimestampTzType:
		if tv, ok := v.(TimeValue); ok {
			return NewTimestampTzValue(tv.t), nil
		}
		return ParseTimestamp(v.ToString(), true)
	case ByteSliceType, BlobType:
		if v.Type().IsString() {
			b, err := ParseHex(v.ToString())
			if err != nil {
				return nil, err
			}
			return NewByteSliceValue(b), nil
		}
	}
	return nil, ErrConversion
}

func toBool(v Value) (Value, error) {
	switch vt := v.(type) {
	case BoolValue:
		return vt, nil
	case Numeric:
		return NewBoolValue(vt.Signum() != 0), nil
	}
	switch strings.ToUpper(strings.TrimSpace(v.ToString())) {
	case "TRUE", "T", "YES", "Y", "1":
		return BoolValueTrue, nil
	case "FALSE", "F", "NO", "N", "0":
		return BoolValueFalse, nil
	}
	return nil, ErrConversion
}

func toInt64(v Value) (int64, error) {
	if iv, ok := ToInt64(v); ok {
		return iv, nil
	}
	switch vt := v.(type) {
	case DecimalValue:
		// cast rounds half up
		return vt.v.Round(0).IntPart(), nil
	case NumberValue:
		return int64(math.Round(vt.v)), nil
	case BoolValue:
		if vt.v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, ErrConversion
}

func toDecimal(v Value) (decimal.Decimal, error) {
	switch vt := v.(type) {
	case IntValue:
		return decimal.New(int64(vt.v), 0), nil
	case LongValue:
		return decimal.New(vt.v, 0), nil
	case DecimalValue:
		return vt.v, nil
	case NumberValue:
		return decimal.NewFromFloat(vt.v), nil
	case BoolValue:
		if vt.v {
			return decimal.New(1, 0), nil
		}
		return decimal.New(0, 0), nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.ToString()))
	if err != nil {
		if f, ferr := strconv.ParseFloat(strings.TrimSpace(v.ToString()), 64); ferr == nil {
			return decimal.NewFromFloat(f), nil
		}
		return d, ErrConversion
	}
	return d, nil
}
