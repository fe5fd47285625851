package rel

import (
	"strings"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/sqlerr"
)

// rowIDColumn is the pseudo column every base table has.
const rowIDColumn = "_ROWID_"

// scope is the set of table filters a column reference may bind to, a
// sub-query sees the scopes of the queries around it.
type scope struct {
	filters []*TableFilter
	// sel allows ORDER BY to refer to select list aliases
	sel    *SqlSelect
	parent *scope
}

func newScope(parent *scope, filters ...*TableFilter) *scope {
	return &scope{filters: filters, parent: parent}
}

// binder is implemented by statements with expressions of their own
// scoping rules (constraints and defaults of DDL).
type binder interface {
	bind(p *Parser)
}

// bindStatement resolves every column reference of @stmt against the
// tables it reads from.
func (p *Parser) bindStatement(stmt Prepared) {
	switch m := stmt.(type) {
	case Query:
		p.bindQuery(m, nil)
	case *SqlInsert:
		p.bindRows(m.Rows, nil)
		if m.Query != nil {
			p.bindQuery(m.Query, nil)
		}
		target := newScope(nil, &TableFilter{Table: m.Table})
		for _, a := range m.OnDuplicate {
			p.bindExpr(a.Expr, target)
		}
	case *SqlUpdate:
		sc := newScope(nil, m.Filter)
		for _, a := range m.Set {
			p.bindExpr(a.Expr, sc)
		}
		p.bindExpr(m.Where, sc)
		for _, o := range m.OrderBy {
			p.bindExpr(o.Expr, sc)
		}
		p.bindExpr(m.Limit, nil)
	case *SqlDelete:
		sc := newScope(nil, m.Filter)
		p.bindExpr(m.Where, sc)
		p.bindExpr(m.Limit, nil)
	case *SqlMerge:
		p.bindRows(m.Rows, nil)
		if m.Query != nil {
			p.bindQuery(m.Query, nil)
		}
	case *SqlMergeUsing:
		p.bindMergeUsing(m)
	case *SqlReplace:
		p.bindRows(m.Rows, nil)
		if m.Query != nil {
			p.bindQuery(m.Query, nil)
		}
	case *SqlCall:
		p.bindExpr(m.Expr, nil)
	case *SqlExplain:
		p.bindStatement(m.Statement)
	case *SqlPrepare:
		p.bindStatement(m.Statement)
	case *SqlExecute:
		for _, a := range m.Args {
			p.bindExpr(a, nil)
		}
	case binder:
		m.bind(p)
	}
}

func (p *Parser) bindMergeUsing(m *SqlMergeUsing) {
	if m.Query != nil {
		p.bindQuery(m.Query, nil)
	}
	both := newScope(nil, m.Target, m.Source)
	p.bindExpr(m.On, both)
	if m.Update != nil {
		for _, a := range m.Update.Set {
			p.bindExpr(a.Expr, both)
		}
		p.bindExpr(m.Update.Where, both)
	}
	if m.Delete != nil {
		p.bindExpr(m.Delete.Where, both)
	}
	if m.Insert != nil {
		p.bindRows(m.Insert.Rows, newScope(nil, m.Source))
	}
	if m.TargetMatchQuery != nil {
		p.bindQuery(m.TargetMatchQuery, newScope(nil, m.Source))
	}
}

func (p *Parser) bindRows(rows [][]expr.Node, sc *scope) {
	for _, row := range rows {
		for _, n := range row {
			p.bindExpr(n, sc)
		}
	}
}

// bindQuery binds @q, @outer is the scope of the enclosing query of a
// correlated sub-query.
func (p *Parser) bindQuery(q Query, outer *scope) {
	p.initQuery(q)
	switch m := q.(type) {
	case *SqlUnion:
		p.bindQuery(m.Left, outer)
		p.bindQuery(m.Right, outer)
		names := m.ColumnNames()
		for _, o := range m.OrderBy {
			if o.Positional {
				continue
			}
			if c, ok := o.Expr.(*expr.ColumnNode); ok && c.Table == "" {
				if !p.containsName(names, c.Column) {
					p.fail(sqlerr.New(sqlerr.OrderByNotInResult, c.Column))
				}
				c.Source = c.Column
				continue
			}
			p.bindExpr(o.Expr, outer)
		}
		p.bindExpr(m.Limit, outer)
		p.bindExpr(m.Offset, outer)
	case *SqlSelect:
		p.bindSelect(m, outer)
	}
}

func (p *Parser) bindSelect(sel *SqlSelect, outer *scope) {
	sc := newScope(outer, sel.Filters...)
	for _, f := range sel.Filters {
		if f.Query != nil {
			p.bindQuery(f.Query, outer)
		}
		p.bindExpr(f.Function, outer)
		for _, n := range f.Range {
			p.bindExpr(n, outer)
		}
		if f.Values != nil {
			p.bindRows(f.Values.Rows, outer)
		}
		p.bindExpr(f.JoinCondition, sc)
	}
	for _, n := range sel.Expanded {
		p.bindExpr(n, sc)
	}
	for _, n := range sel.DistinctOn {
		p.bindExpr(n, sc)
	}
	p.bindExpr(sel.Where, sc)
	// GROUP BY and ORDER BY may name select list aliases
	ordered := &scope{filters: sc.filters, sel: sel, parent: outer}
	for _, n := range sel.GroupBy {
		p.bindExpr(n, ordered)
	}
	p.bindExpr(sel.Having, sc)
	for _, o := range sel.OrderBy {
		if !o.Positional {
			p.bindExpr(o.Expr, ordered)
		}
	}
	p.bindExpr(sel.Limit, outer)
	p.bindExpr(sel.Offset, outer)
	p.bindExpr(sel.SampleSize, outer)
}

// bindExpr binds the columns of @n, sub-queries are bound with @sc as
// their outer scope.
func (p *Parser) bindExpr(n expr.Node, sc *scope) {
	if n == nil {
		return
	}
	expr.Walk(n, func(c expr.Node) expr.VisitStatus {
		switch m := c.(type) {
		case *expr.ColumnNode:
			p.bindColumn(m, sc)
		case *expr.SubqueryNode:
			p.bindSubquery(m.Query, sc)
			return expr.VisitSkip
		case *expr.ExistsNode:
			p.bindSubquery(m.Query, sc)
			return expr.VisitSkip
		case *expr.InQueryNode:
			p.bindExpr(m.Left, sc)
			p.bindSubquery(m.Query, sc)
			return expr.VisitSkip
		}
		return expr.VisitContinue
	})
}

func (p *Parser) bindSubquery(q expr.Query, sc *scope) {
	if rq, ok := q.(Query); ok {
		p.bindQuery(rq, sc)
	}
}

// bindColumn resolves @c to the innermost scope declaring it.  Within one
// scope an unqualified name found in two tables is ambiguous.
func (p *Parser) bindColumn(c *expr.ColumnNode, sc *scope) {
	if c.Source != "" || c.Const != nil {
		return
	}
	for s := sc; s != nil; s = s.parent {
		if f := p.lookupColumn(c, s); f != nil {
			c.Source = f.Name()
			return
		}
		if s.sel != nil && c.Table == "" && p.containsName(s.sel.ColumnNames(), c.Column) {
			// select list alias
			c.Source = c.Column
			return
		}
	}
	if c.Table == "" {
		if k, ok := p.cat.FindConstant(p.session.CurrentSchema(), c.Column); ok {
			c.Const = k.Value
			return
		}
	}
	name := c.Column
	if c.Table != "" {
		name = c.Table + "." + c.Column
	}
	p.fail(sqlerr.New(sqlerr.ColumnNotFound, name))
}

func (p *Parser) lookupColumn(c *expr.ColumnNode, s *scope) *TableFilter {
	var found, unknown *TableFilter
	for _, f := range s.filters {
		if f.NestedJoin != nil || f.Table == nil {
			continue
		}
		if c.Table != "" {
			if !p.equalsToken(f.Name(), c.Table) {
				continue
			}
			if c.Schema != "" && f.Schema() != "" && !p.equalsToken(f.Schema(), c.Schema) {
				continue
			}
		} else if f.isNaturalColumn(c.Column) {
			continue
		}
		switch {
		case p.filterHasColumn(f, c.Column):
			if found != nil && c.Table == "" {
				p.fail(sqlerr.New(sqlerr.AmbiguousColumnName, c.Column))
			}
			if found == nil {
				found = f
			}
		case f.columnsUnknown():
			if unknown == nil {
				unknown = f
			}
		}
	}
	if found != nil {
		return found
	}
	return unknown
}

// filterHasColumn matches @name against the columns of @f the way the
// session folds identifiers, _ROWID_ matches every base table.
func (p *Parser) filterHasColumn(f *TableFilter, name string) bool {
	if len(f.DerivedColumns) > 0 {
		return p.containsName(f.DerivedColumns, name)
	}
	if f.HasColumn(name) {
		return true
	}
	if !p.toUpper {
		if _, ok := f.Table.ColumnIgnoreCase(name); ok {
			return true
		}
	}
	return f.Query == nil && f.Values == nil && f.Function == nil && !f.Dual &&
		strings.EqualFold(name, rowIDColumn)
}

func (p *Parser) containsName(names []string, name string) bool {
	for _, n := range names {
		if p.equalsToken(n, name) {
			return true
		}
	}
	return false
}
