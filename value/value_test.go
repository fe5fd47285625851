package value

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNegateBoundaries(t *testing.T) {
	// 2147483648 only fits a BIGINT, its negation fits an INT
	v, err := Negate(NewLongValue(2147483648))
	assert.Equal(t, nil, err)
	assert.Equal(t, IntType, v.Type())
	assert.Equal(t, int32(math.MinInt32), v.(IntValue).Val())

	d, err := decimal.NewFromString("9223372036854775808")
	assert.Equal(t, nil, err)
	v, err = Negate(NewDecimalValue(d))
	assert.Equal(t, nil, err)
	assert.Equal(t, LongType, v.Type())
	assert.Equal(t, int64(math.MinInt64), v.(LongValue).Val())

	v, err = Negate(NewIntValue(5))
	assert.Equal(t, nil, err)
	assert.Equal(t, NewIntValue(-5), v)

	v, err = Negate(NewIntValue(math.MinInt32))
	assert.Equal(t, nil, err)
	assert.Equal(t, LongType, v.Type())

	_, err = Negate(NewStringValue("x"))
	assert.NotEqual(t, nil, err)
}

func TestHigherOrder(t *testing.T) {
	assert.Equal(t, LongType, HigherOrder(IntType, LongType))
	assert.Equal(t, StringType, HigherOrder(IntType, StringType))
	assert.Equal(t, IntType, HigherOrder(NilType, IntType))
	assert.Equal(t, DecimalType, HigherOrder(UnknownType, DecimalType))
}

func TestSQLRendering(t *testing.T) {
	assert.Equal(t, "'it''s'", NewStringValue("it's").SQL())
	assert.Equal(t, "X'0aff'", NewByteSliceValue([]byte{0x0a, 0xff}).SQL())
	assert.Equal(t, "TRUE", NewBoolValue(true).SQL())
	assert.Equal(t, "NULL", NilValueVal.SQL())
	assert.Equal(t, "12", NewIntValue(12).SQL())
	assert.Equal(t, "CAST(12 AS BIGINT)", NewLongValue(12).SQL())
	assert.Equal(t, "3000000000", NewLongValue(3000000000).SQL())
	assert.Equal(t, "CAST(4294967295 AS DECIMAL)", NewDecimalValue(decimal.New(4294967295, 0)).SQL())
	assert.Equal(t, "9223372036854775808", NewDecimalValue(decimal.RequireFromString("9223372036854775808")).SQL())
	assert.Equal(t, "1.5", NewDecimalValue(decimal.RequireFromString("1.5")).SQL())

	dv, err := ParseDate("2020-01-31")
	assert.Equal(t, nil, err)
	assert.Equal(t, "DATE '2020-01-31'", dv.SQL())

	tv, err := ParseTime("12:30:05")
	assert.Equal(t, nil, err)
	assert.Equal(t, "TIME '12:30:05'", tv.SQL())

	ts, err := ParseTimestamp("2020-01-31 12:30:05.25", false)
	assert.Equal(t, nil, err)
	assert.Equal(t, "TIMESTAMP '2020-01-31 12:30:05.25'", ts.SQL())

	_, err = ParseTime("noon")
	assert.NotEqual(t, nil, err)
}

func TestParseHex(t *testing.T) {
	b, err := ParseHex("01 ab")
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte{0x01, 0xab}, b)
	_, err = ParseHex("abc")
	assert.Equal(t, ErrInvalidHex, err)
}

func TestConvert(t *testing.T) {
	v, err := Convert(NewStringValue("42"), IntType)
	assert.Equal(t, nil, err)
	assert.Equal(t, NewIntValue(42), v)

	v, err = Convert(NewIntValue(7), StringType)
	assert.Equal(t, nil, err)
	assert.Equal(t, NewStringValue("7"), v)

	v, err = Convert(NewStringValue("2001-02-03"), DateType)
	assert.Equal(t, nil, err)
	assert.Equal(t, time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC), v.(TimeValue).Val())

	v, err = Convert(NilValueVal, LongType)
	assert.Equal(t, nil, err)
	assert.Equal(t, NilType, v.Type())

	_, err = Convert(NewStringValue("abc"), LongType)
	assert.NotEqual(t, nil, err)
}

func TestEqual(t *testing.T) {
	d1, _ := ParseDecimal("1.50")
	d2, _ := ParseDecimal("1.5")
	assert.True(t, Equal(NewDecimalValue(d1), NewDecimalValue(d2)))
	assert.False(t, Equal(NewIntValue(1), NewLongValue(1)))
	assert.True(t, Equal(NewSliceValues([]Value{NewIntValue(1)}), NewSliceValues([]Value{NewIntValue(1)})))
}

func TestTypeByName(t *testing.T) {
	dt, ok := TypeByName("int4")
	assert.True(t, ok)
	assert.Equal(t, IntType, dt.Type)
	assert.Equal(t, "INTEGER", dt.Name)

	dt, ok = TypeByName("IDENTITY")
	assert.True(t, ok)
	assert.True(t, dt.AutoIncrement)

	_, ok = TypeByName("NOPE")
	assert.False(t, ok)

	vc, _ := TypeByName("VARCHAR")
	ti := NewTypeInfo(vc)
	ti.Precision = 20
	assert.Equal(t, "VARCHAR(20)", ti.SQL())

	dec, _ := TypeByName("NUMERIC")
	ti = NewTypeInfo(dec)
	ti.Precision, ti.Scale = 10, 2
	assert.Equal(t, "DECIMAL(10, 2)", ti.SQL())
}
