package expr

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

var (
	_ = u.EMPTY

	// the func mutex
	funcMu sync.RWMutex
	funcs  = make(map[string]*FuncInfo)

	aggregates = map[string]AggregateType{
		"COUNT":        AggCount,
		"SUM":          AggSum,
		"MIN":          AggMin,
		"MAX":          AggMax,
		"AVG":          AggAvg,
		"GROUP_CONCAT": AggGroupConcat,
		"STRING_AGG":   AggGroupConcat,
		"STDDEV_SAMP":  AggStddevSamp,
		"STDDEV":       AggStddevSamp,
		"STDDEV_POP":   AggStddevPop,
		"STDDEVP":      AggStddevPop,
		"VAR_POP":      AggVarPop,
		"VARP":         AggVarPop,
		"VAR_SAMP":     AggVarSamp,
		"VAR":          AggVarSamp,
		"VARIANCE":     AggVarSamp,
		"BOOL_OR":      AggBoolOr,
		"SOME":         AggBoolOr,
		"BOOL_AND":     AggBoolAnd,
		"EVERY":        AggBoolAnd,
		"SELECTIVITY":  AggSelectivity,
		"HISTOGRAM":    AggHistogram,
		"BIT_OR":       AggBitOr,
		"BIT_AND":      AggBitAnd,
		"MEDIAN":       AggMedian,
		"ARRAY_AGG":    AggArrayAgg,
		"MODE":         AggMode,
		"ENVELOPE":     AggEnvelope,
	}
)

// VarArgs is the Params value of functions taking a variable argument count.
const VarArgs = -1

// FuncKind selects the special argument grammar of a built-in.
type FuncKind uint8

const (
	FuncKindNormal        FuncKind = 0
	FuncKindCast          FuncKind = 1  // CAST(x AS type)
	FuncKindConvert       FuncKind = 2  // CONVERT(x, type), swapped in some modes
	FuncKindExtract       FuncKind = 3  // EXTRACT(unit FROM x)
	FuncKindDateAdd       FuncKind = 4  // DATEADD(unit, n, x)
	FuncKindDateDiff      FuncKind = 5  // DATEDIFF(unit, a, b)
	FuncKindSubstring     FuncKind = 6  // SUBSTRING(x FROM a FOR b)
	FuncKindPosition      FuncKind = 7  // POSITION(a IN b)
	FuncKindTrim          FuncKind = 8  // TRIM(LEADING c FROM x)
	FuncKindTable         FuncKind = 9  // TABLE(col type = values)
	FuncKindTableDistinct FuncKind = 10 // TABLE_DISTINCT(..)
	FuncKindRowNumber     FuncKind = 11 // ROW_NUMBER() OVER ()
	FuncKindCase          FuncKind = 12
	FuncKindSet           FuncKind = 13 // @x := value
	FuncKindCurrval       FuncKind = 14
	FuncKindArrayGet      FuncKind = 15 // x[i]
)

// FuncInfo describes a built-in function.
type FuncInfo struct {
	Name   string
	Kind   FuncKind
	Params int // fixed argument count or VarArgs
	// MinParams/MaxParams bound VarArgs functions, MaxParams 0 is unbounded
	MinParams     int
	MaxParams     int
	Return        value.ValueType
	Deterministic bool
	// NoParens functions may be written without () (CURRENT_DATE)
	NoParens bool
}

// CheckArgs validates the argument count of a call.
func (m *FuncInfo) CheckArgs(n int) error {
	if m.Params != VarArgs {
		if n != m.Params {
			return sqlerr.New(sqlerr.InvalidParameterCount, m.Name, strconv.Itoa(m.Params))
		}
		return nil
	}
	if n < m.MinParams || (m.MaxParams > 0 && n > m.MaxParams) {
		want := strconv.Itoa(m.MinParams) + ".."
		if m.MaxParams > 0 {
			want += strconv.Itoa(m.MaxParams)
		}
		return sqlerr.New(sqlerr.InvalidParameterCount, m.Name, want)
	}
	return nil
}

// FuncAdd registers a built-in, names are case insensitive.
func FuncAdd(info *FuncInfo, aliases ...string) {
	funcMu.Lock()
	defer funcMu.Unlock()
	info.Name = strings.ToUpper(info.Name)
	funcs[info.Name] = info
	for _, a := range aliases {
		funcs[strings.ToUpper(a)] = info
	}
}

// FuncLookup finds a built-in function by name.
func FuncLookup(name string) (*FuncInfo, bool) {
	funcMu.RLock()
	defer funcMu.RUnlock()
	f, ok := funcs[strings.ToUpper(name)]
	return f, ok
}

// FuncNames lists the registered names, sorted.
func FuncNames() []string {
	funcMu.RLock()
	defer funcMu.RUnlock()
	names := make([]string, 0, len(funcs))
	for n := range funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AggregateType is the built-in aggregate function kind.
type AggregateType uint8

const (
	AggCountAll    AggregateType = 0
	AggCount       AggregateType = 1
	AggGroupConcat AggregateType = 2
	AggSum         AggregateType = 3
	AggMin         AggregateType = 4
	AggMax         AggregateType = 5
	AggAvg         AggregateType = 6
	AggStddevPop   AggregateType = 7
	AggStddevSamp  AggregateType = 8
	AggVarPop      AggregateType = 9
	AggVarSamp     AggregateType = 10
	AggBoolOr      AggregateType = 11
	AggBoolAnd     AggregateType = 12
	AggBitOr       AggregateType = 13
	AggBitAnd      AggregateType = 14
	AggSelectivity AggregateType = 15
	AggHistogram   AggregateType = 16
	AggMedian      AggregateType = 17
	AggArrayAgg    AggregateType = 18
	AggMode        AggregateType = 19
	AggEnvelope    AggregateType = 20
)

var aggNames = map[AggregateType]string{
	AggCountAll:    "COUNT",
	AggCount:       "COUNT",
	AggGroupConcat: "GROUP_CONCAT",
	AggSum:         "SUM",
	AggMin:         "MIN",
	AggMax:         "MAX",
	AggAvg:         "AVG",
	AggStddevPop:   "STDDEV_POP",
	AggStddevSamp:  "STDDEV_SAMP",
	AggVarPop:      "VAR_POP",
	AggVarSamp:     "VAR_SAMP",
	AggBoolOr:      "BOOL_OR",
	AggBoolAnd:     "BOOL_AND",
	AggBitOr:       "BIT_OR",
	AggBitAnd:      "BIT_AND",
	AggSelectivity: "SELECTIVITY",
	AggHistogram:   "HISTOGRAM",
	AggMedian:      "MEDIAN",
	AggArrayAgg:    "ARRAY_AGG",
	AggMode:        "MODE",
	AggEnvelope:    "ENVELOPE",
}

func (m AggregateType) String() string { return aggNames[m] }

func (m AggregateType) returnType() value.ValueType {
	switch m {
	case AggCountAll, AggCount, AggBitOr, AggBitAnd:
		return value.LongType
	case AggGroupConcat:
		return value.StringType
	case AggBoolOr, AggBoolAnd:
		return value.BoolType
	case AggStddevPop, AggStddevSamp, AggVarPop, AggVarSamp:
		return value.NumberType
	case AggSelectivity:
		return value.IntType
	case AggHistogram, AggArrayAgg:
		return value.SliceValueType
	case AggEnvelope:
		return value.GeometryType
	}
	return value.UnknownType
}

// AggregateLookup finds a built-in aggregate by (any case) name.
func AggregateLookup(name string) (AggregateType, bool) {
	t, ok := aggregates[strings.ToUpper(name)]
	return t, ok
}

func fn(name string, params int, ret value.ValueType, aliases ...string) {
	FuncAdd(&FuncInfo{Name: name, Params: params, Return: ret, Deterministic: true}, aliases...)
}

func fnVar(name string, min, max int, ret value.ValueType, aliases ...string) {
	FuncAdd(&FuncInfo{Name: name, Params: VarArgs, MinParams: min, MaxParams: max, Return: ret, Deterministic: true}, aliases...)
}

func fnSpecial(name string, kind FuncKind, params int, ret value.ValueType, aliases ...string) {
	FuncAdd(&FuncInfo{Name: name, Kind: kind, Params: params, Return: ret, Deterministic: true}, aliases...)
}

func init() {
	// numeric
	for _, name := range []string{"ACOS", "ASIN", "ATAN", "COS", "COSH", "COT", "DEGREES", "EXP",
		"LN", "LOG10", "RADIANS", "SIN", "SINH", "SQRT", "TAN", "TANH"} {
		fn(name, 1, value.NumberType)
	}
	fn("ABS", 1, value.UnknownType)
	fn("ATAN2", 2, value.NumberType)
	fn("BITAND", 2, value.LongType)
	fn("BITGET", 2, value.BoolType)
	fn("BITOR", 2, value.LongType)
	fn("BITXOR", 2, value.LongType)
	fn("CEILING", 1, value.UnknownType, "CEIL")
	fn("FLOOR", 1, value.UnknownType)
	fnVar("LOG", 1, 2, value.NumberType)
	fn("MOD", 2, value.LongType)
	fn("PI", 0, value.NumberType)
	fn("POWER", 2, value.NumberType)
	fnVar("ROUND", 1, 2, value.UnknownType)
	fn("ROUNDMAGIC", 1, value.NumberType)
	fn("SIGN", 1, value.IntType)
	fnVar("TRUNCATE", 1, 2, value.UnknownType, "TRUNC")
	fnVar("HASH", 2, 3, value.ByteSliceType)
	fn("ENCRYPT", 3, value.ByteSliceType)
	fn("DECRYPT", 3, value.ByteSliceType)
	fnVar("COMPRESS", 1, 2, value.ByteSliceType)
	fn("EXPAND", 1, value.ByteSliceType)
	fn("ZERO", 0, value.IntType)
	fnVar("ORA_HASH", 1, 3, value.LongType)
	FuncAdd(&FuncInfo{Name: "RAND", Params: VarArgs, MaxParams: 1, Return: value.NumberType}, "RANDOM")
	FuncAdd(&FuncInfo{Name: "RANDOM_UUID", Params: 0, Return: value.UuidType}, "UUID")
	FuncAdd(&FuncInfo{Name: "SECURE_RAND", Params: 1, Return: value.ByteSliceType})

	// string
	fn("ASCII", 1, value.IntType)
	fn("BIT_LENGTH", 1, value.LongType)
	fn("CHAR", 1, value.StringType, "CHR")
	fn("CHAR_LENGTH", 1, value.IntType, "CHARACTER_LENGTH", "LENGTH")
	fnVar("CONCAT", 2, 0, value.StringType)
	fnVar("CONCAT_WS", 3, 0, value.StringType)
	fn("DIFFERENCE", 2, value.IntType)
	fn("HEXTORAW", 1, value.StringType)
	fn("INSERT", 4, value.StringType)
	fn("LOWER", 1, value.StringType, "LCASE")
	fn("LEFT", 2, value.StringType)
	fnVar("LOCATE", 2, 3, value.IntType)
	fnVar("INSTR", 2, 3, value.IntType)
	fnVar("LPAD", 2, 3, value.StringType)
	fnVar("LTRIM", 1, 2, value.StringType)
	fn("OCTET_LENGTH", 1, value.LongType)
	fn("RAWTOHEX", 1, value.StringType)
	fn("REPEAT", 2, value.StringType)
	fnVar("REPLACE", 2, 3, value.StringType)
	fn("RIGHT", 2, value.StringType)
	fnVar("RPAD", 2, 3, value.StringType)
	fnVar("RTRIM", 1, 2, value.StringType)
	fn("SOUNDEX", 1, value.StringType)
	fn("SPACE", 1, value.StringType)
	fn("UPPER", 1, value.StringType, "UCASE")
	fn("STRINGENCODE", 1, value.StringType)
	fn("STRINGDECODE", 1, value.StringType)
	fn("STRINGTOUTF8", 1, value.ByteSliceType)
	fn("UTF8TOSTRING", 1, value.StringType)
	fn("XMLATTR", 2, value.StringType)
	fnVar("XMLNODE", 1, 4, value.StringType)
	fn("XMLCOMMENT", 1, value.StringType)
	fn("XMLCDATA", 1, value.StringType)
	fn("XMLSTARTDOC", 0, value.StringType)
	fnVar("XMLTEXT", 1, 2, value.StringType)
	fnVar("REGEXP_REPLACE", 3, 4, value.StringType)
	fnVar("REGEXP_LIKE", 2, 3, value.BoolType)
	fnVar("TO_CHAR", 1, 3, value.StringType)
	fn("TRANSLATE", 3, value.StringType)
	fnSpecial("SUBSTRING", FuncKindSubstring, VarArgs, value.StringType, "SUBSTR")
	fnSpecial("POSITION", FuncKindPosition, 2, value.IntType)
	fnSpecial("TRIM", FuncKindTrim, VarArgs, value.StringType)

	// date and time
	for _, name := range []string{"DAYNAME", "MONTHNAME"} {
		fn(name, 1, value.StringType)
	}
	for _, name := range []string{"DAY_OF_MONTH", "DAY_OF_WEEK", "DAY_OF_YEAR", "HOUR", "MINUTE", "MONTH",
		"QUARTER", "SECOND", "WEEK", "YEAR", "ISO_WEEK", "ISO_YEAR", "ISO_DAY_OF_WEEK"} {
		fn(name, 1, value.IntType)
	}
	FuncAdd(funcs["DAY_OF_MONTH"], "DAYOFMONTH")
	FuncAdd(funcs["DAY_OF_WEEK"], "DAYOFWEEK")
	FuncAdd(funcs["DAY_OF_YEAR"], "DAYOFYEAR")
	fnSpecial("DATEADD", FuncKindDateAdd, 3, value.TimestampType, "TIMESTAMPADD")
	fnSpecial("DATEDIFF", FuncKindDateDiff, 3, value.LongType, "TIMESTAMPDIFF")
	fnSpecial("EXTRACT", FuncKindExtract, 2, value.IntType)
	fnVar("FORMATDATETIME", 2, 4, value.StringType)
	fnVar("PARSEDATETIME", 2, 4, value.TimestampType)
	fn("DATE_TRUNC", 2, value.TimestampType)
	fnVar("TO_DATE", 1, 3, value.TimestampType)
	fnVar("TO_TIMESTAMP", 1, 3, value.TimestampType)
	FuncAdd(&FuncInfo{Name: "CURRENT_DATE", Params: 0, Return: value.DateType, NoParens: true}, "CURDATE", "TODAY")
	FuncAdd(&FuncInfo{Name: "CURRENT_TIME", Params: VarArgs, MaxParams: 1, Return: value.TimeType, NoParens: true}, "CURTIME", "SYSTIME")
	FuncAdd(&FuncInfo{Name: "LOCALTIME", Params: VarArgs, MaxParams: 1, Return: value.TimeType, NoParens: true})
	FuncAdd(&FuncInfo{Name: "CURRENT_TIMESTAMP", Params: VarArgs, MaxParams: 1, Return: value.TimestampTzType, NoParens: true}, "SYSTIMESTAMP", "SYSDATE")
	FuncAdd(&FuncInfo{Name: "LOCALTIMESTAMP", Params: VarArgs, MaxParams: 1, Return: value.TimestampType, NoParens: true}, "NOW")

	// system
	fnSpecial("CAST", FuncKindCast, 1, value.UnknownType)
	fnSpecial("CONVERT", FuncKindConvert, 1, value.UnknownType)
	fnSpecial("CASE", FuncKindCase, VarArgs, value.UnknownType)
	fnSpecial("ARRAY_GET", FuncKindArrayGet, 2, value.UnknownType)
	fn("ARRAY_LENGTH", 1, value.IntType)
	fn("ARRAY_CONTAINS", 2, value.BoolType)
	fn("ARRAY_CONCAT", 2, value.SliceValueType)
	fn("ARRAY_APPEND", 2, value.SliceValueType)
	fn("ARRAY_SLICE", 3, value.SliceValueType)
	fn("CASEWHEN", 3, value.UnknownType)
	fnVar("COALESCE", 1, 0, value.UnknownType, "NVL")
	fnVar("DECODE", 2, 0, value.UnknownType)
	fnVar("GREATEST", 1, 0, value.UnknownType)
	fnVar("LEAST", 1, 0, value.UnknownType)
	fn("IFNULL", 2, value.UnknownType)
	fn("NULLIF", 2, value.UnknownType)
	fn("NVL2", 3, value.UnknownType)
	fn("TRUNCATE_VALUE", 3, value.UnknownType)
	fn("H2VERSION", 0, value.StringType)
	fnVar("UNNEST", 1, 0, value.ResultSetType)
	fn("SIGNAL", 2, value.NilType)
	fn("DB_OBJECT_ID", 2, value.IntType)
	fnVar("DB_OBJECT_SQL", 2, 3, value.StringType)
	FuncAdd(&FuncInfo{Name: "SET", Kind: FuncKindSet, Params: 2, Return: value.UnknownType})
	FuncAdd(&FuncInfo{Name: "CURRVAL", Kind: FuncKindCurrval, Params: VarArgs, MinParams: 1, MaxParams: 2, Return: value.LongType})
	FuncAdd(&FuncInfo{Name: "NEXTVAL", Params: VarArgs, MinParams: 1, MaxParams: 2, Return: value.LongType})
	FuncAdd(&FuncInfo{Name: "TABLE", Kind: FuncKindTable, Params: VarArgs, MinParams: 1, Return: value.ResultSetType, Deterministic: true})
	FuncAdd(&FuncInfo{Name: "TABLE_DISTINCT", Kind: FuncKindTableDistinct, Params: VarArgs, MinParams: 1, Return: value.ResultSetType, Deterministic: true})
	FuncAdd(&FuncInfo{Name: "ROW_NUMBER", Kind: FuncKindRowNumber, Params: 0, Return: value.LongType})
	FuncAdd(&FuncInfo{Name: "CSVREAD", Params: VarArgs, MinParams: 1, MaxParams: 3, Return: value.ResultSetType})
	FuncAdd(&FuncInfo{Name: "CSVWRITE", Params: VarArgs, MinParams: 2, Return: value.IntType})
	FuncAdd(&FuncInfo{Name: "FILE_READ", Params: VarArgs, MinParams: 1, MaxParams: 2, Return: value.UnknownType})
	FuncAdd(&FuncInfo{Name: "FILE_WRITE", Params: 2, Return: value.LongType})
	FuncAdd(&FuncInfo{Name: "LINK_SCHEMA", Params: 6, Return: value.ResultSetType})
	FuncAdd(&FuncInfo{Name: "CANCEL_SESSION", Params: 1, Return: value.BoolType})
	FuncAdd(&FuncInfo{Name: "DISK_SPACE_USED", Params: 1, Return: value.LongType})
	FuncAdd(&FuncInfo{Name: "ESTIMATED_ENVELOPE", Params: 2, Return: value.LongType})
	for _, name := range []string{"AUTOCOMMIT", "READONLY"} {
		FuncAdd(&FuncInfo{Name: name, Params: 0, Return: value.BoolType})
	}
	for _, name := range []string{"LOCK_MODE", "LOCK_TIMEOUT", "MEMORY_FREE", "MEMORY_USED", "SESSION_ID"} {
		FuncAdd(&FuncInfo{Name: name, Params: 0, Return: value.IntType})
	}
	FuncAdd(&FuncInfo{Name: "DATABASE", Params: 0, Return: value.StringType})
	FuncAdd(&FuncInfo{Name: "DATABASE_PATH", Params: 0, Return: value.StringType})
	FuncAdd(&FuncInfo{Name: "IDENTITY", Params: 0, Return: value.LongType}, "LAST_INSERT_ID")
	FuncAdd(&FuncInfo{Name: "SCOPE_IDENTITY", Params: 0, Return: value.LongType})
	FuncAdd(&FuncInfo{Name: "SCHEMA", Params: 0, Return: value.StringType}, "CURRENT_SCHEMA")
	FuncAdd(&FuncInfo{Name: "USER", Params: 0, Return: value.StringType}, "CURRENT_USER")
	FuncAdd(&FuncInfo{Name: "TRANSACTION_ID", Params: 0, Return: value.StringType})
}
