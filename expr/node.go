// Package expr is the expression tree produced by the grammar: literals,
// parameters, column references, operators, conditions, function calls and
// aggregates.  Every node renders back to SQL text that re-parses into an
// equivalent tree.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/value"
)

var (
	_ = u.EMPTY

	// Standard errors
	ErrNotConstant = fmt.Errorf("expression is not constant")
)

type (
	// A Node is an element in the expression tree.
	Node interface {
		// String is the SQL representation of the node, parseable back to itself
		String() string
	}

	// Typed nodes know their result type before binding.
	Typed interface {
		ValueType() value.ValueType
	}

	// Query is a nested query expression (sub-select, union, values).  The
	// statement package implements it.
	Query interface {
		String() string
		// ColumnCount is the width of the result, -1 when not yet known
		ColumnCount() int
	}
)

// OpType is the arithmetic or string operator of a BinaryNode.
type OpType uint8

const (
	OpConcat   OpType = 0
	OpPlus     OpType = 1
	OpMinus    OpType = 2
	OpMultiply OpType = 3
	OpDivide   OpType = 4
	OpModulus  OpType = 5
	OpNegate   OpType = 6
)

func (m OpType) String() string {
	switch m {
	case OpConcat:
		return "||"
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpModulus:
		return "%"
	case OpNegate:
		return "-"
	}
	return "?"
}

// CompareType is the operator of a ComparisonNode.
type CompareType uint8

const (
	CompareEqual             CompareType = 0
	CompareGE                CompareType = 1
	CompareGT                CompareType = 2
	CompareLE                CompareType = 3
	CompareLT                CompareType = 4
	CompareNE                CompareType = 5
	CompareIsNull            CompareType = 6
	CompareIsNotNull         CompareType = 7
	CompareEqualNullSafe     CompareType = 8 // IS, IS NOT DISTINCT FROM
	CompareNotEqualNullSafe  CompareType = 9 // IS NOT, IS DISTINCT FROM
	CompareSpatialIntersects CompareType = 10
)

func (m CompareType) String() string {
	switch m {
	case CompareEqual:
		return "="
	case CompareGE:
		return ">="
	case CompareGT:
		return ">"
	case CompareLE:
		return "<="
	case CompareLT:
		return "<"
	case CompareNE:
		return "<>"
	case CompareIsNull:
		return "IS NULL"
	case CompareIsNotNull:
		return "IS NOT NULL"
	case CompareEqualNullSafe:
		return "IS"
	case CompareNotEqualNullSafe:
		return "IS NOT"
	case CompareSpatialIntersects:
		return "&&"
	}
	return "?"
}

// CompareTypeOf maps a comparison token to its operator.
func CompareTypeOf(tok lex.TokenType) (CompareType, bool) {
	switch tok {
	case lex.TokenEqual:
		return CompareEqual, true
	case lex.TokenGE:
		return CompareGE, true
	case lex.TokenGT:
		return CompareGT, true
	case lex.TokenLE:
		return CompareLE, true
	case lex.TokenLT:
		return CompareLT, true
	case lex.TokenNE:
		return CompareNE, true
	case lex.TokenSpatialIntersects:
		return CompareSpatialIntersects, true
	}
	return 0, false
}

type (
	// ValueNode holds a constant.
	ValueNode struct {
		Value value.Value
	}

	// DefaultNode is the DEFAULT keyword in INSERT/UPDATE/MERGE value lists.
	DefaultNode struct{}

	// ParamNode is a ? placeholder.  Index is zero based; Value is set when
	// the parameter was bound before parsing (internal statements).
	ParamNode struct {
		Index int
		Value value.Value
	}

	// ColumnNode is a possibly qualified column reference.  Source is the
	// alias of the table filter the binder mapped it to, empty if unbound.
	ColumnNode struct {
		Database string
		Schema   string
		Table    string
		Column   string
		Source   string
		// Const is set when the name resolved to a schema constant
		Const value.Value
	}

	// WildcardNode is * or T.* in a select list.
	WildcardNode struct {
		Schema string
		Table  string
		// Except lists columns excluded from the expansion
		Except []*ColumnNode
	}

	// AliasNode names a select list expression.  AliasColumnName marks
	// aliases that also rename the underlying column (AS in some modes).
	AliasNode struct {
		Expr            Node
		Alias           string
		AliasColumnName bool
	}

	// BinaryNode is an arithmetic or concatenation operation; Right is nil
	// for OpNegate.
	BinaryNode struct {
		Op    OpType
		Left  Node
		Right Node
	}

	// ComparisonNode compares two operands; Right is nil for IS [NOT] NULL.
	ComparisonNode struct {
		Op    CompareType
		Left  Node
		Right Node
	}

	// AndOrNode is a boolean AND or OR.
	AndOrNode struct {
		And   bool
		Left  Node
		Right Node
	}

	// NotNode negates its operand.
	NotNode struct {
		Arg Node
	}

	// InNode is x IN (a, b, c).
	InNode struct {
		Left Node
		List []Node
	}

	// InQueryNode is x IN (SELECT ..), x op ALL (..) or x op ANY (..).
	InQueryNode struct {
		Left  Node
		Query Query
		All   bool
		Op    CompareType
	}

	// InParamNode is x = ANY(?) where the parameter is an array.
	InParamNode struct {
		Left  Node
		Param *ParamNode
	}

	// ExistsNode is EXISTS (query).
	ExistsNode struct {
		Query Query
	}

	// LikeNode is LIKE, ILIKE or a regular expression match.
	LikeNode struct {
		Left    Node
		Pattern Node
		Escape  Node
		Regexp  bool
	}

	// SubqueryNode is a scalar sub-select.
	SubqueryNode struct {
		Query Query
	}

	// ListNode is a parenthesized row value (a, b).
	ListNode struct {
		Items []Node
	}

	// FuncNode is a call of a built-in function.
	FuncNode struct {
		Name string
		Info *FuncInfo
		Args []Node
		// Type is the target of CAST, CONVERT and :: casts
		Type *value.TypeInfo
	}

	// TableFuncNode is TABLE(name type = values, ..) or TABLE_DISTINCT.
	TableFuncNode struct {
		Distinct bool
		Columns  []TableFuncColumn
	}

	// TableFuncColumn is one column of a table function.
	TableFuncColumn struct {
		Name   string
		Type   value.TypeInfo
		Values Node
	}

	// CaseNode is a simple (Operand set) or searched CASE.
	CaseNode struct {
		Operand Node
		Whens   []Node
		Thens   []Node
		Else    Node
	}

	// AggregateNode is a built-in aggregate.  Arg is nil for COUNT(*).
	AggregateNode struct {
		Type      AggregateType
		Name      string // spelling used, STRING_AGG keeps its own name
		Arg       Node
		Distinct  bool
		OrderBy   []*OrderNode
		Separator Node
		Filter    Node
	}

	// UserAggregateNode calls an aggregate created with CREATE AGGREGATE.
	UserAggregateNode struct {
		Name     string
		Args     []Node
		Distinct bool
		Filter   Node
	}

	// UserFuncNode calls a function alias created with CREATE ALIAS.
	UserFuncNode struct {
		Schema        string
		Name          string
		Args          []Node
		Deterministic bool
	}

	// SequenceNode is NEXT VALUE FOR seq or seq.NEXTVAL.
	SequenceNode struct {
		Schema string
		Name   string
	}

	// VariableNode is a session variable @name.
	VariableNode struct {
		Name string
	}

	// RownumNode is ROWNUM or ROW_NUMBER() OVER ().
	RownumNode struct{}

	// OrderNode is one ORDER BY item.
	OrderNode struct {
		Expr       Node
		Desc       bool
		NullsFirst bool
		NullsLast  bool
		// Positional is ORDER BY n, Expr is the 1 based result column
		Positional bool
	}
)

// NewValueNode wraps a constant.
func NewValueNode(v value.Value) *ValueNode {
	if v == nil {
		v = value.NilValueVal
	}
	return &ValueNode{Value: v}
}

func NewNullNode() *ValueNode { return &ValueNode{Value: value.NilValueVal} }
func NewBoolNode(b bool) *ValueNode {
	if b {
		return &ValueNode{Value: value.BoolValueTrue}
	}
	return &ValueNode{Value: value.BoolValueFalse}
}

func (m *ValueNode) String() string             { return m.Value.SQL() }
func (m *ValueNode) ValueType() value.ValueType { return m.Value.Type() }

func (m *DefaultNode) String() string { return "DEFAULT" }

func (m *ParamNode) String() string { return "?" + strconv.Itoa(m.Index+1) }
func (m *ParamNode) ValueType() value.ValueType {
	if m.Value != nil {
		return m.Value.Type()
	}
	return value.UnknownType
}

// NewColumnNode creates an unbound column reference.
func NewColumnNode(schema, table, column string) *ColumnNode {
	return &ColumnNode{Schema: schema, Table: table, Column: column}
}

func (m *ColumnNode) String() string {
	var b strings.Builder
	if m.Database != "" {
		b.WriteString(lex.QuoteIdentifierIfNeeded(m.Database))
		b.WriteByte('.')
	}
	if m.Schema != "" {
		b.WriteString(lex.QuoteIdentifierIfNeeded(m.Schema))
		b.WriteByte('.')
	}
	if m.Table != "" {
		b.WriteString(lex.QuoteIdentifierIfNeeded(m.Table))
		b.WriteByte('.')
	}
	b.WriteString(lex.QuoteIdentifierIfNeeded(m.Column))
	return b.String()
}

func (m *WildcardNode) String() string {
	var s string
	switch {
	case m.Table == "":
		s = "*"
	case m.Schema == "":
		s = lex.QuoteIdentifierIfNeeded(m.Table) + ".*"
	default:
		s = lex.QuoteIdentifierIfNeeded(m.Schema) + "." + lex.QuoteIdentifierIfNeeded(m.Table) + ".*"
	}
	if len(m.Except) > 0 {
		cols := make([]string, len(m.Except))
		for i, c := range m.Except {
			cols[i] = c.String()
		}
		s += " EXCEPT (" + strings.Join(cols, ", ") + ")"
	}
	return s
}

func (m *AliasNode) String() string {
	return m.Expr.String() + " AS " + lex.QuoteIdentifierIfNeeded(m.Alias)
}

// NewBinary creates an operation node.
func NewBinary(op OpType, l, r Node) *BinaryNode {
	return &BinaryNode{Op: op, Left: l, Right: r}
}

func (m *BinaryNode) String() string {
	if m.Op == OpNegate {
		return "(- " + m.Left.String() + ")"
	}
	return "(" + m.Left.String() + " " + m.Op.String() + " " + m.Right.String() + ")"
}
func (m *BinaryNode) ValueType() value.ValueType {
	if m.Op == OpConcat {
		return value.StringType
	}
	return value.UnknownType
}

// NewComparison creates a comparison node.
func NewComparison(op CompareType, l, r Node) *ComparisonNode {
	return &ComparisonNode{Op: op, Left: l, Right: r}
}

func (m *ComparisonNode) String() string {
	switch m.Op {
	case CompareIsNull, CompareIsNotNull:
		return "(" + m.Left.String() + " " + m.Op.String() + ")"
	case CompareSpatialIntersects:
		return "INTERSECTS(" + m.Left.String() + ", " + m.Right.String() + ")"
	}
	return "(" + m.Left.String() + " " + m.Op.String() + " " + m.Right.String() + ")"
}
func (m *ComparisonNode) ValueType() value.ValueType { return value.BoolType }

func NewAnd(l, r Node) *AndOrNode { return &AndOrNode{And: true, Left: l, Right: r} }
func NewOr(l, r Node) *AndOrNode  { return &AndOrNode{Left: l, Right: r} }

func (m *AndOrNode) String() string {
	op := " OR "
	if m.And {
		op = " AND "
	}
	return "(" + m.Left.String() + op + m.Right.String() + ")"
}
func (m *AndOrNode) ValueType() value.ValueType { return value.BoolType }

func (m *NotNode) String() string             { return "(NOT " + m.Arg.String() + ")" }
func (m *NotNode) ValueType() value.ValueType { return value.BoolType }

func (m *InNode) String() string {
	return "(" + m.Left.String() + " IN(" + joinNodes(m.List) + "))"
}
func (m *InNode) ValueType() value.ValueType { return value.BoolType }

func (m *InQueryNode) String() string {
	switch {
	case m.All:
		return "(" + m.Left.String() + " " + m.Op.String() + " ALL(" + m.Query.String() + "))"
	case m.Op != CompareEqual:
		return "(" + m.Left.String() + " " + m.Op.String() + " ANY(" + m.Query.String() + "))"
	}
	return "(" + m.Left.String() + " IN(" + m.Query.String() + "))"
}
func (m *InQueryNode) ValueType() value.ValueType { return value.BoolType }

func (m *InParamNode) String() string {
	return "(" + m.Left.String() + " = ANY(" + m.Param.String() + "))"
}
func (m *InParamNode) ValueType() value.ValueType { return value.BoolType }

func (m *ExistsNode) String() string             { return "EXISTS(" + m.Query.String() + ")" }
func (m *ExistsNode) ValueType() value.ValueType { return value.BoolType }

func (m *LikeNode) String() string {
	if m.Regexp {
		return "(" + m.Left.String() + " REGEXP " + m.Pattern.String() + ")"
	}
	s := "(" + m.Left.String() + " LIKE " + m.Pattern.String()
	if m.Escape != nil {
		s += " ESCAPE " + m.Escape.String()
	}
	return s + ")"
}
func (m *LikeNode) ValueType() value.ValueType { return value.BoolType }

func (m *SubqueryNode) String() string { return "(" + m.Query.String() + ")" }

func (m *ListNode) String() string {
	if len(m.Items) == 1 {
		return "(" + m.Items[0].String() + ",)"
	}
	return "(" + joinNodes(m.Items) + ")"
}

// NewFuncNode creates a call of a registered built-in.
func NewFuncNode(info *FuncInfo) *FuncNode {
	return &FuncNode{Name: info.Name, Info: info}
}

// NewCast wraps @arg into CAST(arg AS typ).
func NewCast(arg Node, typ value.TypeInfo) *FuncNode {
	info, _ := FuncLookup("CAST")
	return &FuncNode{Name: info.Name, Info: info, Args: []Node{arg}, Type: &typ}
}

func (m *FuncNode) String() string {
	switch m.Info.Kind {
	case FuncKindCast, FuncKindConvert:
		return "CAST(" + m.Args[0].String() + " AS " + m.Type.SQL() + ")"
	case FuncKindExtract:
		unit := m.Args[0].String()
		if vn, ok := m.Args[0].(*ValueNode); ok {
			unit = vn.Value.ToString()
		}
		return "EXTRACT(" + unit + " FROM " + m.Args[1].String() + ")"
	case FuncKindArrayGet:
		// second argument is the one based index
		return "ARRAY_GET(" + joinNodes(m.Args) + ")"
	case FuncKindSet:
		return "SET(" + joinNodes(m.Args) + ")"
	case FuncKindCurrval:
		return "CURRVAL(" + joinNodes(m.Args) + ")"
	}
	if len(m.Args) == 0 && m.Info.NoParens {
		return m.Name
	}
	return m.Name + "(" + joinNodes(m.Args) + ")"
}
func (m *FuncNode) ValueType() value.ValueType {
	if m.Type != nil {
		return m.Type.Type
	}
	return m.Info.Return
}

func (m *TableFuncNode) String() string {
	var b strings.Builder
	if m.Distinct {
		b.WriteString("TABLE_DISTINCT(")
	} else {
		b.WriteString("TABLE(")
	}
	for i, c := range m.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(lex.QuoteIdentifierIfNeeded(c.Name))
		b.WriteByte(' ')
		b.WriteString(c.Type.SQL())
		b.WriteByte('=')
		b.WriteString(c.Values.String())
	}
	b.WriteByte(')')
	return b.String()
}
func (m *TableFuncNode) ValueType() value.ValueType { return value.ResultSetType }

func (m *CaseNode) String() string {
	var b strings.Builder
	b.WriteString("CASE")
	if m.Operand != nil {
		b.WriteByte(' ')
		b.WriteString(m.Operand.String())
	}
	for i := range m.Whens {
		b.WriteString(" WHEN ")
		b.WriteString(m.Whens[i].String())
		b.WriteString(" THEN ")
		b.WriteString(m.Thens[i].String())
	}
	if m.Else != nil {
		b.WriteString(" ELSE ")
		b.WriteString(m.Else.String())
	}
	b.WriteString(" END")
	return b.String()
}

func (m *AggregateNode) String() string {
	var b strings.Builder
	name := m.Name
	if name == "" {
		name = m.Type.String()
	}
	b.WriteString(name)
	b.WriteByte('(')
	if m.Type == AggCountAll {
		b.WriteByte('*')
	} else {
		if m.Distinct {
			b.WriteString("DISTINCT ")
		}
		b.WriteString(m.Arg.String())
		if m.Name == "STRING_AGG" && m.Separator != nil {
			b.WriteString(", ")
			b.WriteString(m.Separator.String())
		}
		if len(m.OrderBy) > 0 {
			b.WriteString(" ORDER BY ")
			b.WriteString(OrderString(m.OrderBy))
		}
		if m.Name != "STRING_AGG" && m.Separator != nil {
			b.WriteString(" SEPARATOR ")
			b.WriteString(m.Separator.String())
		}
	}
	b.WriteByte(')')
	if m.Filter != nil {
		b.WriteString(" FILTER (WHERE " + m.Filter.String() + ")")
	}
	return b.String()
}
func (m *AggregateNode) ValueType() value.ValueType { return m.Type.returnType() }

func (m *UserAggregateNode) String() string {
	s := lex.QuoteIdentifierIfNeeded(m.Name) + "("
	if m.Distinct {
		s += "DISTINCT "
	}
	s += joinNodes(m.Args) + ")"
	if m.Filter != nil {
		s += " FILTER (WHERE " + m.Filter.String() + ")"
	}
	return s
}

func (m *UserFuncNode) String() string {
	return qualified(m.Schema, m.Name) + "(" + joinNodes(m.Args) + ")"
}

func (m *SequenceNode) String() string             { return "(NEXT VALUE FOR " + qualified(m.Schema, m.Name) + ")" }
func (m *SequenceNode) ValueType() value.ValueType { return value.LongType }

func (m *VariableNode) String() string { return "@" + lex.QuoteIdentifierIfNeeded(m.Name) }

func (m *RownumNode) String() string             { return "ROWNUM()" }
func (m *RownumNode) ValueType() value.ValueType { return value.IntType }

func (m *OrderNode) String() string {
	s := m.Expr.String()
	if m.Desc {
		s += " DESC"
	}
	if m.NullsFirst {
		s += " NULLS FIRST"
	} else if m.NullsLast {
		s += " NULLS LAST"
	}
	return s
}

// OrderString renders a comma separated ORDER BY list.
func OrderString(list []*OrderNode) string {
	parts := make([]string, len(list))
	for i, o := range list {
		parts[i] = o.String()
	}
	return strings.Join(parts, ", ")
}

func qualified(schema, name string) string {
	if schema == "" {
		return lex.QuoteIdentifierIfNeeded(name)
	}
	return lex.QuoteIdentifierIfNeeded(schema) + "." + lex.QuoteIdentifierIfNeeded(name)
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		if n == nil {
			parts[i] = "NULL"
			continue
		}
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

// TypeOf returns the result type of @n when known before binding.
func TypeOf(n Node) value.ValueType {
	if t, ok := n.(Typed); ok {
		return t.ValueType()
	}
	return value.UnknownType
}
