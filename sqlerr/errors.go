// Package sqlerr holds the error taxonomy shared by the lexer, the grammar
// and the catalog binder.  Every failure while turning SQL text into a
// statement is an *Error carrying the source text, the byte offset of the
// failure and, for syntax errors found in diagnostic mode, the list of
// tokens that would have been accepted.
package sqlerr

import (
	"fmt"
	"strings"

	u "github.com/araddon/gou"
	"github.com/pkg/errors"
)

var _ = u.EMPTY

// Kind is the broad class of a parse failure.
type Kind uint8

const (
	// Enum values, DO NOT CHANGE the numbers
	KindUnknown      Kind = 0
	KindSyntax       Kind = 1 // token did not match the grammar
	KindSemantic     Kind = 2 // structurally valid but illegal
	KindResolution   Kind = 3 // catalog object missing or mismatched
	KindUnterminated Kind = 4 // comment, string, quoted name ran off the end
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindSemantic:
		return "semantic"
	case KindResolution:
		return "resolution"
	case KindUnterminated:
		return "unterminated"
	default:
		return "unknown"
	}
}

// Code is the numeric error code, numbered after the H2/SQLState style codes
// so clients of the original engine see familiar values.
type Code int

const (
	SyntaxError                        Code = 42000
	SyntaxErrorExpected                Code = 42001
	TableOrViewNotFound                Code = 42102
	IndexNotFound                      Code = 42112
	DuplicateColumnName                Code = 42121
	ColumnNotFound                     Code = 42122
	ColumnCountDoesNotMatch            Code = 21002
	NumericValueOutOfRange             Code = 22003
	InvalidDatetimeConstant            Code = 22007
	UnknownDataType                    Code = 50004
	FeatureNotSupported                Code = 50100
	HexStringWrong                     Code = 90004
	InvalidValue                       Code = 90008
	ParameterNotSet                    Code = 90012
	DatabaseNotFound                   Code = 90013
	FunctionNotFound                   Code = 90022
	UserNotFound                       Code = 90032
	SequenceNotFound                   Code = 90036
	ViewNotFound                       Code = 90037
	InvalidValueScalePrecision         Code = 90051
	ConstantNotFound                   Code = 90115
	RoleNotFound                       Code = 90070
	RolesAndRightCannotBeMixed         Code = 90072
	FunctionAliasAlreadyExists         Code = 90076
	FunctionAliasNotFound              Code = 90077
	SchemaNotFound                     Code = 90079
	SchemaNameMustMatch                Code = 90080
	UnknownMode                        Code = 90088
	ConstantAlreadyExists              Code = 90114
	LiteralsAreNotAllowed              Code = 90116
	CannotMixIndexedAndUnindexedParams Code = 90123
	AggregateNotFound                  Code = 90132
	UnterminatedConstruct              Code = 42002
	InvalidParameterCount              Code = 7001
	SecondPrimaryKey                   Code = 90017
	TriggerNotFound                    Code = 90042
	ConstraintNotFound                 Code = 90057
	UnsupportedSetting                 Code = 90113
	UserDataTypeNotFound               Code = 90120
	ColumnAliasNotSpecified            Code = 90156
	SchemaAlreadyExists                Code = 90078
	SequenceAlreadyExists              Code = 90035
	IndexAlreadyExists                 Code = 42111
	UserAlreadyExists                  Code = 90033
	RoleAlreadyExists                  Code = 90069
	TriggerAlreadyExists               Code = 90041
	ConstraintAlreadyExists            Code = 90045
	UserDataTypeAlreadyExists          Code = 90119
	MethodNotFound                     Code = 90087
	InvalidUseOfAggregate              Code = 90054
	ObjectNotInQuery                   Code = 90055
	AmbiguousColumnName                Code = 90059
	TableOrViewAlreadyExists           Code = 42101
	OrderByNotInResult                 Code = 90068
)

type codeInfo struct {
	kind Kind
	tmpl string
}

var codes = map[Code]codeInfo{
	SyntaxError:                        {KindSyntax, "Syntax error in SQL statement %s"},
	SyntaxErrorExpected:                {KindSyntax, "Syntax error in SQL statement %s; expected %q"},
	UnterminatedConstruct:              {KindUnterminated, "Unterminated %s in SQL statement %s"},
	TableOrViewNotFound:                {KindResolution, "Table %q not found"},
	IndexNotFound:                      {KindResolution, "Index %q not found"},
	DuplicateColumnName:                {KindSemantic, "Duplicate column name %q"},
	ColumnNotFound:                     {KindResolution, "Column %q not found"},
	ColumnCountDoesNotMatch:            {KindSemantic, "Column count does not match"},
	NumericValueOutOfRange:             {KindSemantic, "Numeric value out of range: %q"},
	InvalidDatetimeConstant:            {KindSemantic, "Cannot parse %q constant %q"},
	UnknownDataType:                    {KindSemantic, "Unknown data type: %q"},
	FeatureNotSupported:                {KindSemantic, "Feature not supported: %q"},
	HexStringWrong:                     {KindSemantic, "Hexadecimal string contains non-hex character: %q"},
	InvalidValue:                       {KindSemantic, "Invalid value %q for parameter %q"},
	ParameterNotSet:                    {KindSemantic, "Parameter %q is not set"},
	DatabaseNotFound:                   {KindResolution, "Database %q not found"},
	FunctionNotFound:                   {KindResolution, "Function %q not found"},
	UserNotFound:                       {KindResolution, "User %q not found"},
	SequenceNotFound:                   {KindResolution, "Sequence %q not found"},
	ViewNotFound:                       {KindResolution, "View %q not found"},
	InvalidValueScalePrecision:         {KindSemantic, "Invalid value %q for parameter %q"},
	ConstantNotFound:                   {KindResolution, "Constant %q not found"},
	RoleNotFound:                       {KindResolution, "Role %q not found"},
	RolesAndRightCannotBeMixed:         {KindSemantic, "Roles and rights cannot be mixed"},
	FunctionAliasAlreadyExists:         {KindSemantic, "Function alias %q already exists"},
	FunctionAliasNotFound:              {KindResolution, "Function alias %q not found"},
	SchemaNotFound:                     {KindResolution, "Schema %q not found"},
	SchemaNameMustMatch:                {KindResolution, "Schema name must match"},
	UnknownMode:                        {KindSemantic, "Unknown mode %q"},
	ConstantAlreadyExists:              {KindSemantic, "Constant %q already exists"},
	LiteralsAreNotAllowed:              {KindSemantic, "Literals of this kind are not allowed"},
	CannotMixIndexedAndUnindexedParams: {KindSemantic, "Cannot mix indexed and non-indexed parameters"},
	AggregateNotFound:                  {KindResolution, "Aggregate %q not found"},
	InvalidParameterCount:              {KindSemantic, "Invalid parameter count for %q, expected count: %q"},
	SecondPrimaryKey:                   {KindSemantic, "Attempt to define a second primary key"},
	TriggerNotFound:                    {KindResolution, "Trigger %q not found"},
	ConstraintNotFound:                 {KindResolution, "Constraint %q not found"},
	UnsupportedSetting:                 {KindSemantic, "Unsupported setting %q"},
	UserDataTypeNotFound:               {KindResolution, "User data type %q not found"},
	ColumnAliasNotSpecified:            {KindSemantic, "Column alias is not specified for expression %q"},
	SchemaAlreadyExists:                {KindSemantic, "Schema %q already exists"},
	SequenceAlreadyExists:              {KindSemantic, "Sequence %q already exists"},
	IndexAlreadyExists:                 {KindSemantic, "Index %q already exists"},
	UserAlreadyExists:                  {KindSemantic, "User %q already exists"},
	RoleAlreadyExists:                  {KindSemantic, "Role %q already exists"},
	TriggerAlreadyExists:               {KindSemantic, "Trigger %q already exists"},
	ConstraintAlreadyExists:            {KindSemantic, "Constraint %q already exists"},
	UserDataTypeAlreadyExists:          {KindSemantic, "User data type %q already exists"},
	MethodNotFound:                     {KindResolution, "Method %q not found"},
	InvalidUseOfAggregate:              {KindResolution, "Invalid use of aggregate function %q"},
	ObjectNotInQuery:                   {KindResolution, "%q is only allowed inside a query"},
	AmbiguousColumnName:                {KindResolution, "Ambiguous column name %q"},
	TableOrViewAlreadyExists:           {KindSemantic, "Table %q already exists"},
	OrderByNotInResult:                 {KindResolution, "Order by expression %q must be in the result list in this case"},
}

// Error is a positioned failure.
type Error struct {
	Kind     Kind
	Code     Code
	Params   []string // message parameters, usually the offending name
	SQL      string   // original statement text, may be empty
	Pos      int      // byte offset into SQL, -1 if unknown
	Expected []string // accepted alternatives, diagnostic pass only
}

// New creates an error for @code, the kind is derived from the code.
func New(code Code, params ...string) *Error {
	ci, ok := codes[code]
	if !ok {
		ci = codeInfo{KindUnknown, "General error %q"}
	}
	return &Error{Kind: ci.kind, Code: code, Params: params, Pos: -1}
}

// Syntax creates a syntax error at @pos of @sql.
func Syntax(sql string, pos int, expected []string) *Error {
	e := &Error{Kind: KindSyntax, Code: SyntaxError, SQL: sql, Pos: pos}
	if len(expected) > 0 {
		e.Code = SyntaxErrorExpected
		e.Expected = append([]string(nil), expected...)
	}
	return e
}

// Unterminated creates an unterminated-construct error anchored at the opening
// offset of @what (comment, string, quoted identifier).
func Unterminated(sql string, pos int, what string) *Error {
	return &Error{Kind: KindUnterminated, Code: UnterminatedConstruct, Params: []string{what}, SQL: sql, Pos: pos}
}

// At attaches the statement text and position unless already set.
func (e *Error) At(sql string, pos int) *Error {
	if e.SQL == "" {
		e.SQL = sql
	}
	if e.Pos < 0 {
		e.Pos = pos
	}
	return e
}

// MarkedSQL returns the statement with the [*] marker inserted at Pos.
func (e *Error) MarkedSQL() string {
	return AddMarker(e.SQL, e.Pos)
}

func (e *Error) Error() string {
	ci := codes[e.Code]
	switch e.Code {
	case SyntaxError:
		return fmt.Sprintf(ci.tmpl, quote(e.MarkedSQL()))
	case SyntaxErrorExpected:
		return fmt.Sprintf(ci.tmpl, quote(e.MarkedSQL()), strings.Join(e.Expected, ", "))
	case UnterminatedConstruct:
		what := "construct"
		if len(e.Params) > 0 {
			what = e.Params[0]
		}
		return fmt.Sprintf(ci.tmpl, what, quote(e.MarkedSQL()))
	}
	tmpl := ci.tmpl
	if tmpl == "" {
		tmpl = "General error %q"
	}
	args := make([]interface{}, strings.Count(tmpl, "%"))
	for i := range args {
		if i < len(e.Params) {
			args[i] = e.Params[i]
		} else {
			args[i] = ""
		}
	}
	msg := fmt.Sprintf(tmpl, args...)
	if e.SQL != "" {
		msg += "; SQL statement:\n" + e.MarkedSQL()
	}
	return fmt.Sprintf("%s [%d]", msg, int(e.Code))
}

func quote(s string) string {
	return `"` + s + `"`
}

// AddMarker inserts [*] at byte offset @pos of @sql; out of range offsets
// are clamped to the end.
func AddMarker(sql string, pos int) string {
	if pos < 0 {
		return sql
	}
	if pos > len(sql) {
		pos = len(sql)
	}
	return sql[:pos] + "[*]" + sql[pos:]
}

// AsError extracts the *Error behind @err, following pkg/errors causes.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	if e, ok := errors.Cause(err).(*Error); ok {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of @err or KindUnknown.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the Code of @err or 0.
func CodeOf(err error) Code {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return 0
}

// Is reports whether @err carries @code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
