package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DataType describes one SQL type name the parser accepts.
type DataType struct {
	Type              ValueType
	Name              string // canonical name
	DefaultPrecision  int64
	MaxPrecision      int64
	DefaultScale      int
	MaxScale          int
	DefaultDisplay    int
	SupportsPrecision bool
	SupportsScale     bool
	// AutoIncrement marks the pseudo types IDENTITY and SERIAL
	AutoIncrement bool
	// Hidden types are only valid when spelled by the parser (TIMESTAMP WITH TIME ZONE)
	Hidden bool
}

// TypeInfo is the resolved column type of a column definition or CAST.
type TypeInfo struct {
	Type        ValueType
	Name        string // the type name as written, after multi word folding
	Precision   int64
	Scale       int
	DisplaySize int
	Enumerators []string
	Unsigned    bool
}

const (
	MaxNumericPrecision = math.MaxInt32
	MaxStringLength     = math.MaxInt32
	MaxTimeScale        = 9
	// DefaultTimestampScale is the fractional second digits of TIMESTAMP
	DefaultTimestampScale = 6
)

var (
	typesByName = make(map[string]*DataType)
	typeNames   []string
)

func addType(dt DataType, names ...string) {
	for _, n := range names {
		d := dt
		d.Name = names[0]
		typesByName[n] = &d
		typeNames = append(typeNames, n)
	}
}

func init() {
	addType(DataType{Type: NilType}, "NULL")
	addType(DataType{Type: StringType, DefaultPrecision: MaxStringLength, MaxPrecision: MaxStringLength,
		SupportsPrecision: true}, "VARCHAR", "CHARACTER VARYING", "VARCHAR2", "NVARCHAR", "NVARCHAR2",
		"VARCHAR_CASESENSITIVE", "TID", "LONGVARCHAR", "LONG VARCHAR")
	addType(DataType{Type: StringIgnoreCaseType, DefaultPrecision: MaxStringLength, MaxPrecision: MaxStringLength,
		SupportsPrecision: true}, "VARCHAR_IGNORECASE")
	addType(DataType{Type: StringFixedType, DefaultPrecision: 1, MaxPrecision: MaxStringLength,
		SupportsPrecision: true}, "CHAR", "CHARACTER", "NCHAR")
	addType(DataType{Type: BoolType, DefaultPrecision: 1, DefaultDisplay: 5}, "BOOLEAN", "BIT", "BOOL")
	addType(DataType{Type: TinyIntType, DefaultPrecision: 3, DefaultDisplay: 4}, "TINYINT")
	addType(DataType{Type: SmallIntType, DefaultPrecision: 5, DefaultDisplay: 6}, "SMALLINT", "YEAR", "INT2")
	addType(DataType{Type: IntType, DefaultPrecision: 10, DefaultDisplay: 11}, "INTEGER", "INT",
		"MEDIUMINT", "INT4", "SIGNED")
	addType(DataType{Type: IntType, DefaultPrecision: 10, DefaultDisplay: 11, AutoIncrement: true}, "SERIAL")
	addType(DataType{Type: LongType, DefaultPrecision: 19, DefaultDisplay: 20}, "BIGINT", "INT8", "LONG")
	addType(DataType{Type: LongType, DefaultPrecision: 19, DefaultDisplay: 20, AutoIncrement: true},
		"IDENTITY", "BIGSERIAL")
	addType(DataType{Type: DecimalType, DefaultPrecision: 65535, MaxPrecision: MaxNumericPrecision,
		DefaultScale: 32767, MaxScale: math.MaxInt32, DefaultDisplay: 65537,
		SupportsPrecision: true, SupportsScale: true}, "DECIMAL", "DEC", "NUMERIC", "NUMBER")
	addType(DataType{Type: NumberType, DefaultPrecision: 17, DefaultDisplay: 24}, "DOUBLE", "FLOAT",
		"FLOAT8", "DOUBLE PRECISION")
	addType(DataType{Type: RealType, DefaultPrecision: 7, DefaultDisplay: 15}, "REAL", "FLOAT4")
	addType(DataType{Type: TimeType, DefaultPrecision: 8, MaxPrecision: 18, MaxScale: MaxTimeScale,
		DefaultDisplay: 8, SupportsScale: true}, "TIME", "TIME WITHOUT TIME ZONE")
	addType(DataType{Type: DateType, DefaultPrecision: 10, DefaultDisplay: 10}, "DATE")
	addType(DataType{Type: TimestampType, DefaultPrecision: 26, MaxPrecision: 29,
		DefaultScale: DefaultTimestampScale, MaxScale: MaxTimeScale, DefaultDisplay: 26,
		SupportsScale: true}, "TIMESTAMP", "DATETIME", "DATETIME2", "SMALLDATETIME", "TIMESTAMP WITHOUT TIME ZONE")
	addType(DataType{Type: TimestampTzType, DefaultPrecision: 32, MaxPrecision: 35,
		DefaultScale: DefaultTimestampScale, MaxScale: MaxTimeScale, DefaultDisplay: 32,
		SupportsScale: true, Hidden: true}, "TIMESTAMP WITH TIME ZONE")
	addType(DataType{Type: ByteSliceType, DefaultPrecision: MaxStringLength, MaxPrecision: MaxStringLength,
		SupportsPrecision: true}, "VARBINARY", "BINARY", "BINARY VARYING", "RAW", "BYTEA", "LONG RAW",
		"LONGVARBINARY")
	addType(DataType{Type: UuidType, DefaultPrecision: 16, DefaultDisplay: 36}, "UUID")
	addType(DataType{Type: JavaObjectType, DefaultPrecision: math.MaxInt32}, "OTHER", "OBJECT", "JAVA_OBJECT")
	addType(DataType{Type: BlobType, DefaultPrecision: math.MaxInt64, MaxPrecision: math.MaxInt64,
		SupportsPrecision: true}, "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "IMAGE", "OID")
	addType(DataType{Type: ClobType, DefaultPrecision: math.MaxInt64, MaxPrecision: math.MaxInt64,
		SupportsPrecision: true}, "CLOB", "TINYTEXT", "TEXT", "MEDIUMTEXT", "LONGTEXT", "NTEXT", "NCLOB")
	addType(DataType{Type: SliceValueType, DefaultPrecision: math.MaxInt32}, "ARRAY")
	addType(DataType{Type: ResultSetType, DefaultPrecision: math.MaxInt32}, "RESULT_SET")
	addType(DataType{Type: GeometryType, DefaultPrecision: math.MaxInt32}, "GEOMETRY")
	addType(DataType{Type: EnumType, DefaultPrecision: math.MaxInt32}, "ENUM")
}

// TypeByName looks up a type by its upper case name; the second return is
// false for unknown names and for types that may only be produced from
// multi-word spellings.
func TypeByName(name string) (*DataType, bool) {
	dt, ok := typesByName[strings.ToUpper(name)]
	if !ok || dt.Hidden && !strings.Contains(name, " ") {
		return nil, false
	}
	return dt, true
}

// TypeNames lists all the registered type spellings in registration order.
func TypeNames() []string {
	return append([]string(nil), typeNames...)
}

// NewTypeInfo returns the default TypeInfo of @dt.
func NewTypeInfo(dt *DataType) TypeInfo {
	return TypeInfo{
		Type:        dt.Type,
		Name:        dt.Name,
		Precision:   dt.DefaultPrecision,
		Scale:       dt.DefaultScale,
		DisplaySize: dt.DefaultDisplay,
	}
}

// SQL renders the type as it would be written in a column definition.
func (t TypeInfo) SQL() string {
	var b strings.Builder
	b.WriteString(t.Name)
	switch {
	case len(t.Enumerators) > 0:
		b.WriteByte('(')
		for i, e := range t.Enumerators {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(QuoteString(e))
		}
		b.WriteByte(')')
	default:
		dt, ok := typesByName[t.Name]
		if !ok {
			break
		}
		if dt.SupportsPrecision && t.Precision != dt.DefaultPrecision {
			b.WriteString("(" + strconv.FormatInt(t.Precision, 10))
			if dt.SupportsScale && t.Scale != dt.DefaultScale {
				b.WriteString(", " + strconv.Itoa(t.Scale))
			}
			b.WriteByte(')')
		} else if !dt.SupportsPrecision && dt.SupportsScale && t.Scale != dt.DefaultScale {
			// TIMESTAMP(3) WITH TIME ZONE, the scale follows the first word
			scale := "(" + strconv.Itoa(t.Scale) + ")"
			if i := strings.Index(t.Name, " "); i > 0 {
				b.Reset()
				b.WriteString(t.Name[:i] + scale + t.Name[i:])
			} else {
				b.WriteString(scale)
			}
		}
	}
	if t.Unsigned {
		b.WriteString(" UNSIGNED")
	}
	return b.String()
}

func (t TypeInfo) String() string {
	return fmt.Sprintf("%s[%s p=%d s=%d]", t.Name, t.Type, t.Precision, t.Scale)
}

// TypeOfValueType returns the default TypeInfo of the canonical type for
// @vt, VARCHAR when there is none.
func TypeOfValueType(vt ValueType) TypeInfo {
	switch vt {
	case UnknownType, NilType:
		vt = StringType
	}
	for _, n := range typeNames {
		dt := typesByName[n]
		if dt.Type == vt && !dt.AutoIncrement && dt.Name == n {
			return NewTypeInfo(dt)
		}
	}
	return NewTypeInfo(typesByName["VARCHAR"])
}
