package rel

import (
	"sort"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

// parseSelect reads a query with its set operations and ORDER BY / LIMIT
// tail.
func (p *Parser) parseSelect() Query {
	return p.parseSelectUnion()
}

func (p *Parser) parseSelectUnion() Query {
	return p.parseSelectUnionExtension(p.parseSelectSub(), false)
}

// parseSelectUnionExtension reads UNION, EXCEPT / MINUS and INTERSECT after
// @q, left associative.  The tail is read unless @unionOnly.
func (p *Parser) parseSelectUnionExtension(q Query, unionOnly bool) Query {
loop:
	for {
		var typ UnionType
		switch {
		case p.readIfTok(lex.TokenUnion):
			if p.readIfTok(lex.TokenAll) {
				typ = UnionAll
			} else {
				p.readIfTok(lex.TokenDistinct)
				typ = UnionDistinct
			}
		case p.readIfTok(lex.TokenMinusKw), p.readIfTok(lex.TokenExcept):
			typ = UnionExcept
		case p.readIfTok(lex.TokenIntersect):
			typ = UnionIntersect
		default:
			break loop
		}
		q = &SqlUnion{Type: typ, Left: q, Right: p.parseSelectSub()}
	}
	if !unionOnly {
		p.parseEndOfQuery(q)
	}
	return q
}

func (p *Parser) parseSelectSub() Query {
	if p.readIfTok(lex.TokenLeftParenthesis) {
		q := p.parseSelectUnion()
		p.readTok(lex.TokenRightParenthesis)
		return q
	}
	if p.readIfTok(lex.TokenWith) {
		q, ok := p.parseWithStatementOrQuery().(Query)
		if !ok {
			p.fail(sqlerr.New(sqlerr.SyntaxError, "WITH statement supports only SELECT in this context"))
		}
		return q
	}
	return p.parseSelectSimple()
}

// parseSelectSimple reads one SELECT block, or the FROM .. SELECT form.
func (p *Parser) parseSelectSimple() *SqlSelect {
	fromFirst := false
	switch {
	case p.readIfTok(lex.TokenSelect):
	case p.readIfTok(lex.TokenFrom):
		fromFirst = true
	default:
		p.failSyntax()
	}
	sel := &SqlSelect{}
	old := p.currentSelect
	p.currentSelect = sel
	p.currentPrepared = sel
	if fromFirst {
		p.parseSelectFromPart(sel)
		p.readTok(lex.TokenSelect)
		p.parseSelectListPart(sel)
	} else {
		p.parseSelectListPart(sel)
		if p.readIfTok(lex.TokenFrom) {
			p.parseSelectFromPart(sel)
		} else {
			// SELECT 1 reads from the one row table
			f := &TableFilter{Table: p.dualTable(), Dual: true, Implicit: true}
			p.nextOrderInFrom(f)
			sel.addFilter(f, true)
		}
	}
	if p.readIfTok(lex.TokenWhere) {
		sel.addCondition(p.readExpression())
	}
	// GROUP BY belongs to the outer query, aggregates there are not ours
	p.currentSelect = old
	if p.readIfTok(lex.TokenGroup) {
		p.read("BY")
		sel.IsGroupQuery = true
		for {
			sel.GroupBy = append(sel.GroupBy, p.readExpression())
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
	}
	p.currentSelect = sel
	if p.readIfTok(lex.TokenHaving) {
		sel.IsGroupQuery = true
		sel.Having = p.readExpression()
	}
	p.currentSelect = old
	return sel
}

// parseSelectListPart reads [TOP n | LIMIT o n] [DISTINCT [ON (..)] | ALL]
// and the select list.
func (p *Parser) parseSelectListPart(sel *SqlSelect) {
	// no aggregates in TOP and LIMIT
	temp := p.currentSelect
	p.currentSelect = nil
	if p.readIf("TOP") {
		// TOP 1 +? A is TOP 1 of the column +?A, so only a term is read
		sel.Limit = p.readTerm()
		sel.Top = true
		if p.readIf("PERCENT") {
			sel.FetchPercent = true
		}
		if p.readIfTok(lex.TokenWith) {
			p.read("TIES")
			sel.WithTies = true
		}
	} else if p.readIfTok(lex.TokenLimit) {
		sel.Offset = p.readTerm()
		sel.Limit = p.readTerm()
	}
	p.currentSelect = temp
	if p.readIfTok(lex.TokenDistinct) {
		sel.Distinct = true
		if p.readIfTok(lex.TokenOn) {
			p.readTok(lex.TokenLeftParenthesis)
			for {
				sel.DistinctOn = append(sel.DistinctOn, p.readExpression())
				if !p.readIfMore(true) {
					break
				}
			}
		}
	} else {
		p.readIfTok(lex.TokenAll)
	}
	aliasColumnName := p.settings.AliasColumnName || p.mode.AliasColumnName
	for {
		if p.readIfTok(lex.TokenStar) {
			sel.Columns = append(sel.Columns, &expr.WildcardNode{Except: p.readWildcardExcept()})
		} else {
			e := p.readExpression()
			if p.readIf("AS") || p.isIdentifier() {
				e = &expr.AliasNode{Expr: e, Alias: p.readAliasIdentifier(), AliasColumnName: aliasColumnName}
			}
			sel.Columns = append(sel.Columns, e)
		}
		if !p.readIfTok(lex.TokenComma) {
			return
		}
	}
}

// parseSelectFromPart reads the comma separated table sources of FROM.
func (p *Parser) parseSelectFromPart(sel *SqlSelect) {
	for {
		f := p.readTableFilter()
		p.parseJoinTableFilter(f, sel)
		if !p.readIfTok(lex.TokenComma) {
			break
		}
	}
	if p.session.ForceJoinOrder {
		sort.SliceStable(sel.From, func(i, j int) bool {
			return sel.From[i].OrderInFrom < sel.From[j].OrderInFrom
		})
	}
}

// parseJoinTableFilter reads the joins of @top and registers every filter
// with @sel.  Inner joins up to the first outer join are flattened into
// top level filters with their ON condition moved to WHERE.
func (p *Parser) parseJoinTableFilter(top *TableFilter, sel *SqlSelect) {
	top = p.readJoin(top)
	sel.addFilter(top, true)
	outer := false
	for {
		if n := top.NestedJoin; n != nil {
			n.visit(func(f *TableFilter) { sel.addFilter(f, false) })
		}
		join := top.Join
		if join == nil {
			return
		}
		outer = outer || join.JoinOuter
		if outer {
			sel.addFilter(join, false)
		} else {
			if join.JoinCondition != nil {
				sel.addCondition(join.JoinCondition)
			}
			join.JoinCondition = nil
			top.Join = nil
			sel.addFilter(join, true)
		}
		top = join
	}
}

// parseEndOfQuery reads ORDER BY, OFFSET / FETCH, LIMIT, SAMPLE_SIZE and
// FOR UPDATE.
func (p *Parser) parseEndOfQuery(q Query) {
	t := q.tail()
	if p.readIfTok(lex.TokenOrder) {
		p.read("BY")
		old := p.currentSelect
		if sel, ok := q.(*SqlSelect); ok {
			p.currentSelect = sel
		}
		for {
			// ORDER BY =1 orders by the constant, not the first column
			canBeNumber := !p.readIfTok(lex.TokenEqual)
			o := &expr.OrderNode{Expr: p.readExpression()}
			if _, ok := o.Expr.(*expr.ParamNode); ok {
				p.setRecompile()
				o.Positional = true
			} else if canBeNumber && isIntConstant(o.Expr) {
				o.Positional = true
			}
			p.parseSortType(o)
			t.OrderBy = append(t.OrderBy, o)
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
		p.currentSelect = old
	}
	// no aggregates in LIMIT and OFFSET
	temp := p.currentSelect
	p.currentSelect = nil
	if p.readIfTok(lex.TokenOffset) {
		t.Offset = p.readExpression()
		if !p.readIf("ROW") {
			p.readIf("ROWS")
		}
	}
	if p.readIfTok(lex.TokenFetch) {
		if !p.readIf("FIRST") {
			p.read("NEXT")
		}
		if p.readIf("ROW") {
			t.Limit = expr.NewValueNode(value.NewIntValue(1))
		} else {
			t.Limit = p.readExpression()
			if p.readIf("PERCENT") {
				t.FetchPercent = true
			}
			if !p.readIf("ROW") {
				p.read("ROWS")
			}
		}
		if p.readIfTok(lex.TokenWith) {
			p.read("TIES")
			t.WithTies = true
		} else {
			p.read("ONLY")
		}
	}
	if p.readIfTok(lex.TokenLimit) {
		t.Limit = p.readExpression()
		if p.readIfTok(lex.TokenOffset) {
			t.Offset = p.readExpression()
		} else if p.readIfTok(lex.TokenComma) {
			// LIMIT offset, count
			t.Offset = t.Limit
			t.Limit = p.readExpression()
		}
		if p.readIf("SAMPLE_SIZE") {
			t.SampleSize = p.readExpression()
		}
	}
	p.currentSelect = temp
	if p.readIfTok(lex.TokenFor) {
		if p.readIf("UPDATE") {
			if p.readIf("OF") {
				for {
					p.readIdentifierWithSchema()
					if !p.readIfTok(lex.TokenComma) {
						break
					}
				}
			} else {
				p.readIf("NOWAIT")
			}
			t.ForUpdate = true
		} else if p.readIf("READ") || p.readIfTok(lex.TokenFetch) {
			p.read("ONLY")
		}
	}
	if p.mode.IsolationLevelInSelectOrInsertStatement {
		p.parseIsolationClause()
	}
}

func isIntConstant(n expr.Node) bool {
	vn, ok := n.(*expr.ValueNode)
	return ok && vn.Value.Type() == value.IntType
}

// parseIsolationClause skips the DB2 style WITH RR|RS|CS|UR suffix.
func (p *Parser) parseIsolationClause() {
	if !p.readIfTok(lex.TokenWith) {
		return
	}
	switch {
	case p.readIf("RR"), p.readIf("RS"):
		// concurrent access resolution, USE AND KEEP .. LOCKS
		if p.readIf("USE") {
			p.read("AND")
			p.read("KEEP")
			if !p.readIf("SHARE") && !p.readIf("UPDATE") {
				p.read("EXCLUSIVE")
			}
			p.read("LOCKS")
		}
	case p.readIf("CS"), p.readIf("UR"):
	default:
		p.failSyntax()
	}
	u.Warnf("isolation level clause ignored")
}

// initQuery expands the wildcards of @q so its columns are known while
// the enclosing statement is still being read.
func (p *Parser) initQuery(q Query) {
	switch m := q.(type) {
	case *SqlSelect:
		if err := m.init(p.settings.AliasColumnName || p.mode.AliasColumnName); err != nil {
			p.failErr(err)
		}
	case *SqlUnion:
		p.initQuery(m.Left)
		p.initQuery(m.Right)
		if m.Left.ColumnCount() != m.Right.ColumnCount() {
			p.fail(sqlerr.New(sqlerr.ColumnCountDoesNotMatch))
		}
	}
}

// parseValuesStatement is VALUES (..), (..) as a query of its own.
func (p *Parser) parseValuesStatement() Prepared {
	sel := &SqlSelect{}
	old := p.currentSelect
	p.currentSelect = sel
	f := &TableFilter{Values: p.parseValuesTable()}
	f.Table = p.valuesTable(f.Values)
	p.nextOrderInFrom(f)
	sel.addFilter(f, true)
	sel.Columns = []expr.Node{&expr.WildcardNode{}}
	p.currentSelect = old
	return p.parseSelectUnionExtension(sel, false)
}
