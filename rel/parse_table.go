package rel

import (
	"strings"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

// fromAliasExclude are words that may follow a table without being its
// alias; LEFT and RIGHT are functions as well so they are not keywords.
var fromAliasExclude = []string{"LEFT", "RIGHT"}

func (p *Parser) nextOrderInFrom(f *TableFilter) {
	f.OrderInFrom = p.orderInFrom
	p.orderInFrom++
}

// readTableFilter reads one table source of FROM: a derived table, a
// parenthesized join, VALUES, a range or table function, or a named table.
func (p *Parser) readTableFilter() *TableFilter {
	f := &TableFilter{}
	switch {
	case p.readIfTok(lex.TokenLeftParenthesis):
		if !p.isSelect() {
			top := p.readJoin(p.readTableFilter())
			p.readTok(lex.TokenRightParenthesis)
			if alias := p.readFromAlias(fromAliasExclude); alias != "" {
				top.Alias = alias
				top.DerivedColumns = p.readDerivedColumnNames()
			}
			return top
		}
		q := p.parseSelectUnion()
		p.readTok(lex.TokenRightParenthesis)
		p.initQuery(q)
		f.Query = q
		f.Table = derivedTable(schema.MainSchema, p.session.NextSystemIdentifier(p.sql), q, nil)
	case p.readIf("VALUES"):
		f.Values = p.parseValuesTable()
		f.Table = p.valuesTable(f.Values)
	default:
		schemaName, name := p.readIdentifierWithSchema()
		if schemaName != "" {
			if _, ok := p.session.FindSchema(schemaName); !ok && !p.isDualTable(schemaName, name) {
				p.fail(sqlerr.New(sqlerr.SchemaNotFound, schemaName))
			}
		}
		paren := p.readIfTok(lex.TokenLeftParenthesis)
		if paren && p.readIf("INDEX") {
			// FROM T (INDEX IDX), the hint is ignored
			p.readIdentifierWithSchema()
			p.readTok(lex.TokenRightParenthesis)
			paren = false
		}
		switch {
		case paren && (p.equalsToken(name, "SYSTEM_RANGE") || p.equalsToken(name, "GENERATE_SERIES")):
			f.Range = []expr.Node{p.readExpression()}
			p.readTok(lex.TokenComma)
			f.Range = append(f.Range, p.readExpression())
			if p.readIfTok(lex.TokenComma) {
				f.Range = append(f.Range, p.readExpression())
			}
			p.readTok(lex.TokenRightParenthesis)
			f.Table = schema.NewTable(schema.MainSchema, "SYSTEM_RANGE", schema.NewColumnType("X", "BIGINT"))
			f.Table.Type = schema.TableTypeSystem
		case paren:
			fn := p.readFunction(schemaName, name)
			switch m := fn.(type) {
			case *expr.FuncNode, *expr.TableFuncNode:
			case *expr.UserFuncNode:
				if !m.Deterministic {
					p.setRecompile()
				}
			default:
				p.failSyntax()
			}
			f.Function = fn
			f.Table = functionTable(fn)
		default:
			f.Table = p.readTableOrView(schemaName, name)
			p.noteTableRef(f.Table)
			f.Dual = f.Table.Type == schema.TableTypeSystem && f.Table.Name == dualName
		}
	}
	// USE may be an alias, kept for old scripts
	if p.readIf("USE") {
		if p.readIf("INDEX") {
			f.IndexHints = p.parseIndexHints(f.Table)
		} else {
			f.Alias = "USE"
			f.DerivedColumns = p.readDerivedColumnNames()
		}
	} else if alias := p.readFromAlias(fromAliasExclude); alias != "" {
		f.Alias = alias
		f.DerivedColumns = p.readDerivedColumnNames()
		if p.readIf("USE") {
			p.read("INDEX")
			f.IndexHints = p.parseIndexHints(f.Table)
		}
	}
	if len(f.DerivedColumns) > 0 && !f.columnsUnknown() && len(f.DerivedColumns) != len(f.Table.VisibleColumns()) {
		p.fail(sqlerr.New(sqlerr.ColumnCountDoesNotMatch))
	}
	// a WITH view is referred to by its own name
	if f.Alias == "" && f.Table.IsView() && f.Table.TableExpression {
		f.Alias = f.Table.Name
	}
	p.nextOrderInFrom(f)
	return f
}

// functionTable is the synthetic table of a table function, its columns
// are only known up front for TABLE(..).
func functionTable(fn expr.Node) *schema.Table {
	var t *schema.Table
	switch m := fn.(type) {
	case *expr.TableFuncNode:
		cols := make([]*schema.Column, len(m.Columns))
		for i, c := range m.Columns {
			cols[i] = schema.NewColumn(c.Name, c.Type)
		}
		t = schema.NewTable(schema.MainSchema, "TABLE", cols...)
	case *expr.FuncNode:
		t = schema.NewTable(schema.MainSchema, m.Name)
	case *expr.UserFuncNode:
		t = schema.NewTable(schema.MainSchema, m.Name)
	}
	t.Type = schema.TableTypeSystem
	t.Persistent = false
	return t
}

// readFromAlias reads [AS] alias, an unquoted word in @exclude is not an
// alias.
func (p *Parser) readFromAlias(exclude []string) string {
	if p.readIf("AS") {
		return p.readAliasIdentifier()
	}
	if !p.isIdentifier() {
		return ""
	}
	if !p.s.Quoted() {
		for _, w := range exclude {
			if strings.EqualFold(w, p.s.Token()) {
				return ""
			}
		}
	}
	return p.readAliasIdentifier()
}

func (p *Parser) readDerivedColumnNames() []string {
	if !p.readIfTok(lex.TokenLeftParenthesis) {
		return nil
	}
	var names []string
	for {
		names = append(names, p.readAliasIdentifier())
		if !p.readIfMore(true) {
			return names
		}
	}
}

// parseIndexHints reads (idx, ..) after USE INDEX, every index must
// belong to @t.
func (p *Parser) parseIndexHints(t *schema.Table) []string {
	if t == nil {
		p.failSyntax()
	}
	p.readTok(lex.TokenLeftParenthesis)
	names := []string{}
	if p.readIfTok(lex.TokenRightParenthesis) {
		return names
	}
	for {
		schemaName, name := p.readIdentifierWithSchema()
		if schemaName == "" {
			schemaName = t.Schema
		}
		idx, ok := p.cat.FindIndex(schemaName, name)
		if !ok || idx.Table != t.Name {
			p.fail(sqlerr.New(sqlerr.IndexNotFound, name))
		}
		dup := false
		for _, n := range names {
			dup = dup || n == idx.Name
		}
		if !dup {
			names = append(names, idx.Name)
		}
		if !p.readIfMore(true) {
			return names
		}
	}
}

// readJoin reads the joins following @top.  A RIGHT JOIN swaps the sides
// so the returned filter may not be @top.
func (p *Parser) readJoin(top *TableFilter) *TableFilter {
	last := top
	for {
		var join *TableFilter
		switch {
		case p.readIf("RIGHT"):
			p.readIf("OUTER")
			p.readTok(lex.TokenJoin)
			// the right hand side is the inner table
			join = p.readJoin(p.readTableFilter())
			p.addJoin(join, top, true, p.readJoinOn())
			top = join
		case p.readIf("LEFT"):
			p.readIf("OUTER")
			p.readTok(lex.TokenJoin)
			join = p.readJoin(p.readTableFilter())
			p.addJoin(top, join, true, p.readJoinOn())
		case p.readIfTok(lex.TokenFull):
			p.failSyntax()
		case p.readIfTok(lex.TokenInner):
			p.readTok(lex.TokenJoin)
			join = p.readTableFilter()
			top = p.readJoin(top)
			p.addJoin(top, join, false, p.readJoinOn())
		case p.readIfTok(lex.TokenJoin):
			join = p.readTableFilter()
			top = p.readJoin(top)
			p.addJoin(top, join, false, p.readJoinOn())
		case p.readIfTok(lex.TokenCross):
			p.readTok(lex.TokenJoin)
			join = p.readTableFilter()
			p.addJoin(top, join, false, nil)
		case p.readIfTok(lex.TokenNatural):
			p.readTok(lex.TokenJoin)
			join = p.readTableFilter()
			p.addJoin(top, join, false, p.naturalJoinCondition(last, join))
		default:
			return top
		}
		last = join
	}
}

func (p *Parser) readJoinOn() expr.Node {
	if p.readIfTok(lex.TokenOn) {
		return p.readExpression()
	}
	return nil
}

// naturalJoinCondition ANDs left.c = right.c for every column name the
// two filters share; the right side columns become hidden for unqualified
// references.
func (p *Parser) naturalJoinCondition(left, right *TableFilter) expr.Node {
	var on expr.Node
	for _, lc := range left.VisibleColumns() {
		for _, rc := range right.VisibleColumns() {
			if !p.equalsToken(lc, rc) {
				continue
			}
			right.NaturalColumns = append(right.NaturalColumns, rc)
			eq := expr.NewComparison(expr.CompareEqual,
				&expr.ColumnNode{Table: left.Name(), Column: lc},
				&expr.ColumnNode{Table: right.Name(), Column: rc})
			if on == nil {
				on = eq
			} else {
				on = expr.NewAnd(on, eq)
			}
		}
	}
	return on
}

// addJoin attaches @join to the end of the chain of @top.  A filter that
// already carries joins of its own is wrapped into a nested join first,
// so its chain keeps its own semantics.
func (p *Parser) addJoin(top, join *TableFilter, outer bool, on expr.Node) {
	if join.Join != nil {
		alias := joinPrefix + itoa(p.s.LastPos())
		join = &TableFilter{
			Table:       schema.NewTable(schema.MainSchema, alias),
			Alias:       alias,
			NestedJoin:  join,
			OrderInFrom: join.OrderInFrom,
		}
	}
	top.addJoin(join, outer, on)
}

// parseValuesTable reads the rows of VALUES.  A row is (a, b, ..) or a
// single bare expression.
func (p *Parser) parseValuesTable() *ValuesTable {
	vt := &ValuesTable{}
	var types []value.ValueType
	for {
		multi := p.readIfTok(lex.TokenLeftParenthesis)
		var row []expr.Node
		for {
			e := p.readExpression()
			typ := value.UnknownType
			if folded, err := expr.Fold(e); err == nil {
				typ = expr.TypeOf(folded)
			}
			i := len(row)
			if len(vt.Rows) == 0 {
				types = append(types, typ)
			} else if i >= len(types) {
				p.fail(sqlerr.New(sqlerr.ColumnCountDoesNotMatch))
			} else {
				types[i] = value.HigherOrder(types[i], typ)
			}
			row = append(row, e)
			if !multi || !p.readIfMore(true) {
				break
			}
		}
		vt.Rows = append(vt.Rows, row)
		if !p.readIfTok(lex.TokenComma) {
			break
		}
	}
	for _, row := range vt.Rows {
		if len(row) != len(types) {
			p.fail(sqlerr.New(sqlerr.ColumnCountDoesNotMatch))
		}
	}
	vt.Columns = make([]*schema.Column, len(types))
	for i, t := range types {
		vt.Columns[i] = schema.NewColumn("C"+itoa(i+1), value.TypeOfValueType(t))
	}
	return vt
}

// valuesTable is the synthetic table behind a VALUES list.
func (p *Parser) valuesTable(vt *ValuesTable) *schema.Table {
	t := schema.NewTable(schema.MainSchema, p.session.NextSystemIdentifier(p.sql), vt.Columns...)
	t.Type = schema.TableTypeSystem
	t.Persistent = false
	t.Hidden = true
	return t
}
