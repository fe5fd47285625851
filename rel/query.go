package rel

import (
	"strconv"
	"strings"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/value"
)

var _ = u.EMPTY

// UnionType is the set operation of a SqlUnion.
type UnionType uint8

const (
	UnionDistinct  UnionType = 0
	UnionAll       UnionType = 1
	UnionExcept    UnionType = 2
	UnionIntersect UnionType = 3
)

func (m UnionType) String() string {
	switch m {
	case UnionAll:
		return "UNION ALL"
	case UnionExcept:
		return "EXCEPT"
	case UnionIntersect:
		return "INTERSECT"
	}
	return "UNION"
}

// dual is the name of the one row table of SELECT without FROM
const dualName = "DUAL"

type (
	// Query is a statement producing rows: select, set operation or VALUES.
	Query interface {
		Prepared
		expr.Query
		expr.QueryVisitor
		// ColumnNames of the result, after wildcard expansion
		ColumnNames() []string
		tail() *queryTail
	}

	// queryTail is what may follow any query: ORDER BY, LIMIT / OFFSET and
	// FETCH, SAMPLE_SIZE and FOR UPDATE.
	queryTail struct {
		OrderBy    []*expr.OrderNode
		Limit      expr.Node
		Offset     expr.Node
		SampleSize expr.Node
		// FetchPercent and WithTies come from TOP n PERCENT WITH TIES
		FetchPercent bool
		WithTies     bool
		ForUpdate    bool
	}

	// SqlSelect is one SELECT block.
	SqlSelect struct {
		stmtBase
		queryTail
		Distinct   bool
		DistinctOn []expr.Node
		// Columns is the select list as written
		Columns []expr.Node
		// Expanded is the select list with wildcards expanded
		Expanded []expr.Node
		// From are the top level filters, comma separated in FROM
		From []*TableFilter
		// Filters is every filter of the query in join order
		Filters      []*TableFilter
		Where        expr.Node
		GroupBy      []expr.Node
		Having       expr.Node
		IsGroupQuery bool
		// Top is set when the limit was written as SELECT TOP n
		Top bool

		names  []string
		inited bool
	}

	// SqlUnion is UNION [ALL], EXCEPT / MINUS or INTERSECT of two queries.
	SqlUnion struct {
		stmtBase
		queryTail
		Type  UnionType
		Left  Query
		Right Query
	}

	// ValuesTable is a VALUES row list used as a table.  Columns are
	// named C1..Cn with the widest type seen in each position.
	ValuesTable struct {
		Rows    [][]expr.Node
		Columns []*schema.Column
	}

	// TableFilter is one table source in FROM, plus the join hanging off it.
	TableFilter struct {
		// Table is the catalog table or the synthetic table of a derived
		// table, VALUES list or function
		Table *schema.Table
		Alias string
		// Query of a derived table
		Query Query
		// Function of a table function (TABLE(..), CSVREAD(..))
		Function expr.Node
		// Range holds the SYSTEM_RANGE(min, max[, step]) arguments
		Range  []expr.Node
		Values *ValuesTable
		// Dual is the one row table, Implicit when no FROM was written
		Dual     bool
		Implicit bool

		DerivedColumns []string
		IndexHints     []string

		Join          *TableFilter
		JoinOuter     bool
		JoinCondition expr.Node
		// NestedJoin is set on the wrapper of a parenthesized join
		NestedJoin *TableFilter
		// NaturalColumns are not visible unqualified, the other side of the
		// NATURAL JOIN provides them
		NaturalColumns []string

		OrderInFrom int
	}
)

func (m *queryTail) tail() *queryTail { return m }

func (m *queryTail) String() string {
	var b strings.Builder
	if len(m.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range m.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			if !o.Positional && expr.TypeOf(o.Expr) == value.IntType {
				// a constant, not a column position
				b.WriteByte('=')
			}
			b.WriteString(o.String())
		}
	}
	if m.Limit != nil && (m.FetchPercent || m.WithTies) {
		if m.Offset != nil {
			b.WriteString(" OFFSET " + m.Offset.String() + " ROWS")
		}
		b.WriteString(" FETCH FIRST " + m.Limit.String())
		if m.FetchPercent {
			b.WriteString(" PERCENT")
		}
		if m.WithTies {
			b.WriteString(" ROWS WITH TIES")
		} else {
			b.WriteString(" ROWS ONLY")
		}
	} else if m.Limit != nil {
		b.WriteString(" LIMIT " + m.Limit.String())
		if m.Offset != nil {
			b.WriteString(" OFFSET " + m.Offset.String())
		}
		if m.SampleSize != nil {
			b.WriteString(" SAMPLE_SIZE " + m.SampleSize.String())
		}
	} else if m.Offset != nil {
		b.WriteString(" OFFSET " + m.Offset.String() + " ROWS")
	}
	if m.ForUpdate {
		b.WriteString(" FOR UPDATE")
	}
	return b.String()
}

func (m *SqlSelect) Kind() StatementKind { return KindSelect }
func (m *SqlSelect) IsQuery() bool       { return true }
func (m *SqlUnion) Kind() StatementKind  { return KindSelect }
func (m *SqlUnion) IsQuery() bool        { return true }

// addCondition ANDs @c into WHERE.
func (m *SqlSelect) addCondition(c expr.Node) {
	if m.Where == nil {
		m.Where = c
		return
	}
	m.Where = expr.NewAnd(c, m.Where)
}

// addFilter registers @f, @top filters are also listed in From.
func (m *SqlSelect) addFilter(f *TableFilter, top bool) {
	m.Filters = append(m.Filters, f)
	if top {
		m.From = append(m.From, f)
	}
}

// ColumnCount is the width of the result.
func (m *SqlSelect) ColumnCount() int {
	if !m.inited {
		return -1
	}
	return len(m.Expanded)
}

func (m *SqlSelect) ColumnNames() []string { return m.names }

func (m *SqlSelect) String() string {
	var b strings.Builder
	b.WriteString("SELECT")
	if m.Top && m.Limit != nil {
		b.WriteString(" TOP (" + m.Limit.String() + ")")
		if m.FetchPercent {
			b.WriteString(" PERCENT")
		}
		if m.WithTies {
			b.WriteString(" WITH TIES")
		}
	}
	if m.Distinct {
		b.WriteString(" DISTINCT")
		if len(m.DistinctOn) > 0 {
			b.WriteString(" ON(" + joinExprs(m.DistinctOn) + ")")
		}
	}
	b.WriteByte(' ')
	cols := m.Expanded
	if !m.inited {
		cols = m.Columns
	}
	b.WriteString(joinExprs(cols))
	if from := fromString(m.From); from != "" {
		b.WriteString(" FROM ")
		b.WriteString(from)
	}
	if m.Where != nil {
		b.WriteString(" WHERE " + m.Where.String())
	}
	if len(m.GroupBy) > 0 {
		b.WriteString(" GROUP BY " + joinExprs(m.GroupBy))
	}
	if m.Having != nil {
		b.WriteString(" HAVING " + m.Having.String())
	}
	tail := m.queryTail
	if m.Top {
		tail.Limit = nil
	}
	b.WriteString(tail.String())
	return b.String()
}

// WalkExpressions visits every expression of the query, sub-queries of
// derived tables included.
func (m *SqlSelect) WalkExpressions(fn func(expr.Node) expr.VisitStatus) expr.VisitStatus {
	cols := m.Expanded
	if !m.inited {
		cols = m.Columns
	}
	nodes := append([]expr.Node(nil), cols...)
	nodes = append(nodes, m.DistinctOn...)
	nodes = append(nodes, m.Where)
	nodes = append(nodes, m.GroupBy...)
	nodes = append(nodes, m.Having)
	for _, o := range m.OrderBy {
		nodes = append(nodes, o.Expr)
	}
	nodes = append(nodes, m.Limit, m.Offset, m.SampleSize)
	for _, n := range nodes {
		if expr.Walk(n, fn) == expr.VisitFinal {
			return expr.VisitFinal
		}
	}
	for _, f := range m.Filters {
		if f.walkExpressions(fn) == expr.VisitFinal {
			return expr.VisitFinal
		}
	}
	return expr.VisitContinue
}

// init expands wildcards and computes the result column names.
func (m *SqlSelect) init(aliasColumnName bool) error {
	if m.inited {
		return nil
	}
	expanded := make([]expr.Node, 0, len(m.Columns))
	for _, c := range m.Columns {
		w, ok := c.(*expr.WildcardNode)
		if !ok {
			expanded = append(expanded, c)
			continue
		}
		cols, err := m.expandWildcard(w)
		if err != nil {
			return err
		}
		expanded = append(expanded, cols...)
	}
	m.Expanded = expanded
	m.names = make([]string, len(expanded))
	for i, e := range expanded {
		m.names[i] = columnName(e)
	}
	m.inited = true
	return nil
}

func (m *SqlSelect) expandWildcard(w *expr.WildcardNode) ([]expr.Node, error) {
	var out []expr.Node
	matched := false
	for _, f := range m.Filters {
		if f.Table == nil || f.NestedJoin != nil {
			continue
		}
		if w.Table != "" {
			if f.Name() != w.Table || (w.Schema != "" && f.Table.Schema != w.Schema) {
				continue
			}
		}
		matched = true
		for _, c := range f.VisibleColumns() {
			if w.Table == "" && f.isNaturalColumn(c) {
				continue
			}
			if excluded(w.Except, f, c) {
				continue
			}
			out = append(out, &expr.ColumnNode{Table: f.Name(), Column: c, Source: f.Name()})
		}
	}
	if w.Table != "" && !matched {
		return nil, tableNotFound(w.Table)
	}
	return out, nil
}

func excluded(except []*expr.ColumnNode, f *TableFilter, col string) bool {
	for _, e := range except {
		if e.Column != col {
			continue
		}
		if e.Table == "" || e.Table == f.Name() {
			return true
		}
	}
	return false
}

// columnName is the result column name of a select list entry.
func columnName(e expr.Node) string {
	switch n := e.(type) {
	case *expr.AliasNode:
		return n.Alias
	case *expr.ColumnNode:
		return n.Column
	}
	return e.String()
}

func (m *SqlUnion) ColumnCount() int      { return m.Left.ColumnCount() }
func (m *SqlUnion) ColumnNames() []string { return m.Left.ColumnNames() }

func (m *SqlUnion) String() string {
	return "(" + m.Left.String() + ") " + m.Type.String() + " (" + m.Right.String() + ")" + m.queryTail.String()
}

func (m *SqlUnion) WalkExpressions(fn func(expr.Node) expr.VisitStatus) expr.VisitStatus {
	if m.Left.WalkExpressions(fn) == expr.VisitFinal {
		return expr.VisitFinal
	}
	if m.Right.WalkExpressions(fn) == expr.VisitFinal {
		return expr.VisitFinal
	}
	for _, n := range []expr.Node{m.Limit, m.Offset, m.SampleSize} {
		if expr.Walk(n, fn) == expr.VisitFinal {
			return expr.VisitFinal
		}
	}
	for _, o := range m.OrderBy {
		if expr.Walk(o.Expr, fn) == expr.VisitFinal {
			return expr.VisitFinal
		}
	}
	return expr.VisitContinue
}

// Name is the alias, or the table name when no alias was given.
func (m *TableFilter) Name() string {
	if m.Alias != "" {
		return m.Alias
	}
	if m.Table != nil {
		return m.Table.Name
	}
	return ""
}

// Schema of a catalog table, empty for derived tables and functions.
func (m *TableFilter) Schema() string {
	if m.Table == nil || m.Query != nil || m.Function != nil || m.Values != nil || m.Range != nil {
		return ""
	}
	return m.Table.Schema
}

// VisibleColumns are the column names the filter exposes, derived column
// names replace the table's.
func (m *TableFilter) VisibleColumns() []string {
	if m.Table == nil {
		return nil
	}
	cols := m.Table.VisibleColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		if i < len(m.DerivedColumns) {
			names[i] = m.DerivedColumns[i]
		}
	}
	return names
}

// HasColumn reports whether @name is a column of the filter.
func (m *TableFilter) HasColumn(name string) bool {
	if m.Table == nil {
		return false
	}
	if len(m.DerivedColumns) > 0 {
		for _, c := range m.DerivedColumns {
			if c == name {
				return true
			}
		}
		return false
	}
	_, ok := m.Table.Column(name)
	return ok
}

// columnsUnknown is true for sources whose columns are only known when the
// statement runs (CSVREAD, LINK_SCHEMA, self referencing CTEs).
func (m *TableFilter) columnsUnknown() bool {
	return m.Table == nil || (len(m.Table.Columns) == 0 && !m.Dual)
}

func (m *TableFilter) isNaturalColumn(name string) bool {
	for _, c := range m.NaturalColumns {
		if c == name {
			return true
		}
	}
	return false
}

// addJoin appends @join at the end of the join chain, @on becomes its
// join condition.
func (m *TableFilter) addJoin(join *TableFilter, outer bool, on expr.Node) {
	if m.Join != nil {
		m.Join.addJoin(join, outer, on)
		return
	}
	m.Join = join
	join.JoinOuter = outer
	if on != nil {
		join.addJoinCondition(on)
	}
}

func (m *TableFilter) addJoinCondition(on expr.Node) {
	if m.JoinCondition == nil {
		m.JoinCondition = on
		return
	}
	m.JoinCondition = expr.NewAnd(m.JoinCondition, on)
}

// visit calls @fn for this filter, its nested join and its join chain.
func (m *TableFilter) visit(fn func(*TableFilter)) {
	for f := m; f != nil; f = f.Join {
		fn(f)
		if f.NestedJoin != nil {
			f.NestedJoin.visit(fn)
		}
	}
}

func (m *TableFilter) walkExpressions(fn func(expr.Node) expr.VisitStatus) expr.VisitStatus {
	if m.Query != nil {
		if m.Query.WalkExpressions(fn) == expr.VisitFinal {
			return expr.VisitFinal
		}
	}
	nodes := []expr.Node{m.Function, m.JoinCondition}
	nodes = append(nodes, m.Range...)
	if m.Values != nil {
		for _, row := range m.Values.Rows {
			nodes = append(nodes, row...)
		}
	}
	for _, n := range nodes {
		if expr.Walk(n, fn) == expr.VisitFinal {
			return expr.VisitFinal
		}
	}
	return expr.VisitContinue
}

// source renders the filter without its join chain.
func (m *TableFilter) source() string {
	var b strings.Builder
	switch {
	case m.NestedJoin != nil:
		b.WriteString("(" + m.NestedJoin.chainString() + ")")
	case m.Query != nil:
		b.WriteString("(" + m.Query.String() + ")")
	case m.Values != nil:
		b.WriteString(m.Values.String())
	case m.Range != nil:
		b.WriteString("SYSTEM_RANGE(" + joinExprs(m.Range) + ")")
	case m.Function != nil:
		b.WriteString(m.Function.String())
	case m.Dual:
		b.WriteString(dualName)
	case m.Table.Temporary || m.Table.Hidden:
		b.WriteString(quoteName(m.Table.Name))
	default:
		b.WriteString(m.Table.SQL())
	}
	if m.Alias != "" && m.NestedJoin == nil && (m.Table == nil || m.Alias != m.Table.Name || m.Query != nil || m.Values != nil) {
		b.WriteString(" " + quoteName(m.Alias))
		if len(m.DerivedColumns) > 0 {
			b.WriteString("(" + joinNames(m.DerivedColumns) + ")")
		}
	}
	if len(m.IndexHints) > 0 {
		b.WriteString(" USE INDEX (" + joinNames(m.IndexHints) + ")")
	}
	return b.String()
}

// chainString renders the filter and its joins.
func (m *TableFilter) chainString() string {
	var b strings.Builder
	b.WriteString(m.source())
	for j := m.Join; j != nil; j = j.Join {
		if j.JoinOuter {
			b.WriteString(" LEFT OUTER JOIN ")
		} else {
			b.WriteString(" INNER JOIN ")
		}
		b.WriteString(j.source())
		b.WriteString(" ON ")
		if j.JoinCondition != nil {
			b.WriteString(j.JoinCondition.String())
		} else {
			b.WriteString("1=1")
		}
	}
	return b.String()
}

func (m *TableFilter) String() string { return m.chainString() }

func fromString(top []*TableFilter) string {
	parts := make([]string, 0, len(top))
	for _, f := range top {
		if f.Implicit {
			continue
		}
		parts = append(parts, f.chainString())
	}
	return strings.Join(parts, ", ")
}

func (m *ValuesTable) String() string {
	rows := make([]string, len(m.Rows))
	for i, r := range m.Rows {
		rows[i] = "(" + joinExprs(r) + ")"
	}
	return "VALUES " + strings.Join(rows, ", ")
}

// derivedTable builds the synthetic table of a derived table or CTE from
// the result columns of @q.
func derivedTable(schemaName, name string, q Query, colNames []string) *schema.Table {
	names := q.ColumnNames()
	var nodes []expr.Node
	if sel, ok := q.(*SqlSelect); ok {
		nodes = sel.Expanded
	}
	cols := make([]*schema.Column, len(names))
	for i, n := range names {
		if i < len(colNames) {
			n = colNames[i]
		}
		vt := value.UnknownType
		if i < len(nodes) {
			vt = expr.TypeOf(nodes[i])
		}
		cols[i] = schema.NewColumn(n, value.TypeOfValueType(vt))
	}
	t := schema.NewView(schemaName, name, q.String(), cols...)
	t.Hidden = true
	return t
}

func quoteName(s string) string { return lex.QuoteIdentifierIfNeeded(s) }

func joinNames(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = quoteName(n)
	}
	return strings.Join(parts, ", ")
}

func joinExprs(nodes []expr.Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		if n == nil {
			parts[i] = "DEFAULT"
			continue
		}
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

func itoa(i int) string { return strconv.Itoa(i) }
