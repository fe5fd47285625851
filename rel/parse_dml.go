package rel

import (
	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

// queryAliasPrefix names the source of MERGE USING (subquery) without alias
const queryAliasPrefix = "MERGE_SOURCE_"

// readSimpleTableFilter reads a table name and alias for the DML targets.
// SET is never an alias, PostgreSQL accepts it as a table name.
func (p *Parser) readSimpleTableFilter(exclude ...string) *TableFilter {
	schemaName, name := p.readIdentifierWithSchema()
	f := &TableFilter{Table: p.readTableOrView(schemaName, name)}
	if p.readIf("AS") {
		f.Alias = p.readAliasIdentifier()
	} else if p.isIdentifier() && !p.isWord("SET") {
		excluded := false
		for _, w := range exclude {
			excluded = excluded || p.isWord(w)
		}
		if !excluded {
			f.Alias = p.readAliasIdentifier()
		}
	}
	return f
}

// readTableColumn reads [[schema.]table.]column of @f's table.
func (p *Parser) readTableColumn(f *TableFilter) string {
	name := p.readColumnIdentifier()
	if p.readIfTok(lex.TokenDot) {
		table := name
		name = p.readColumnIdentifier()
		if p.readIfTok(lex.TokenDot) {
			if !p.equalsToken(table, f.Table.Schema) {
				p.fail(sqlerr.New(sqlerr.SchemaNameMustMatch))
			}
			table = name
			name = p.readColumnIdentifier()
		}
		if !p.equalsToken(table, f.Name()) && !p.equalsToken(table, f.Table.Name) {
			p.fail(tableNotFound(table))
		}
	}
	return p.checkColumn(f.Table, name)
}

// checkColumn verifies @name is a column of @t and returns its catalog
// spelling.
func (p *Parser) checkColumn(t *schema.Table, name string) string {
	if len(t.Columns) == 0 {
		return name
	}
	if p.settings.RowID && name == "_ROWID_" {
		return name
	}
	c, ok := t.Column(name)
	if !ok && !p.toUpper {
		c, ok = t.ColumnIgnoreCase(name)
	}
	if !ok {
		p.fail(sqlerr.New(sqlerr.ColumnNotFound, name))
	}
	return c.Name
}

// parseColumnList reads the columns of @t up to ), duplicates are an
// error.  The ( has been read.
func (p *Parser) parseColumnList(t *schema.Table) []string {
	var cols []string
	if p.readIfTok(lex.TokenRightParenthesis) {
		return cols
	}
	seen := make(map[string]bool)
	for {
		c := p.checkColumn(t, p.readColumnIdentifier())
		if seen[c] {
			p.fail(sqlerr.New(sqlerr.DuplicateColumnName, c))
		}
		seen[c] = true
		cols = append(cols, c)
		if !p.readIfMore(false) {
			return cols
		}
	}
}

// parseNameList reads plain names up to ), a trailing comma is accepted.
func (p *Parser) parseNameList() []string {
	var names []string
	for {
		names = append(names, p.readColumnIdentifier())
		if !p.readIfMore(false) {
			return names
		}
	}
}

// parseValuesForInsert reads one row after its (, DEFAULT is a nil entry.
func (p *Parser) parseValuesForInsert() []expr.Node {
	row := []expr.Node{}
	if p.readIfTok(lex.TokenRightParenthesis) {
		return row
	}
	for {
		if p.readIf("DEFAULT") {
			row = append(row, nil)
		} else {
			row = append(row, p.readExpression())
		}
		if !p.readIfMore(false) {
			return row
		}
	}
}

func (p *Parser) parseInsert() Prepared {
	cmd := &SqlInsert{}
	p.currentPrepared = cmd
	if p.mode.OnDuplicateKeyUpdate && p.readIf("IGNORE") {
		cmd.Ignore = true
	}
	p.read("INTO")
	cmd.Table = p.readTableOrView(p.readIdentifierWithSchema())
	if p.parseInsertGivenTable(cmd, cmd.Table) {
		return cmd
	}
	if p.mode.OnDuplicateKeyUpdate && p.readIfTok(lex.TokenOn) {
		p.read("DUPLICATE")
		p.read("KEY")
		p.read("UPDATE")
		f := &TableFilter{Table: cmd.Table}
		for {
			col := p.readTableColumn(f)
			p.readTok(lex.TokenEqual)
			cmd.OnDuplicate = append(cmd.OnDuplicate, Assignment{Column: col, Expr: p.readExpressionOrDefault()})
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
	}
	if p.mode.IsolationLevelInSelectOrInsertStatement {
		p.parseIsolationClause()
	}
	return cmd
}

// parseInsertGivenTable reads everything after INSERT INTO t, shared with
// MERGE USING.  True means the statement ended with a parenthesized
// query.
func (p *Parser) parseInsertGivenTable(cmd *SqlInsert, t *schema.Table) bool {
	if p.readIfTok(lex.TokenLeftParenthesis) {
		if p.isSelect() {
			cmd.Query = p.parseSelect()
			p.readTok(lex.TokenRightParenthesis)
			return true
		}
		cmd.Columns = p.parseColumnList(t)
	}
	if p.readIf("DIRECT") {
		cmd.Direct = true
	}
	if p.readIf("SORTED") {
		cmd.Sorted = true
	}
	switch {
	case p.readIf("DEFAULT"):
		p.read("VALUES")
		cmd.Rows = [][]expr.Node{{}}
	case p.readIf("VALUES"):
		p.readTok(lex.TokenLeftParenthesis)
		for {
			cmd.Rows = append(cmd.Rows, p.parseValuesForInsert())
			// (..),; is accepted
			if !p.readIfTok(lex.TokenComma) || !p.readIfTok(lex.TokenLeftParenthesis) {
				break
			}
		}
	case p.readIf("SET"):
		if cmd.Columns != nil {
			p.failSyntax()
		}
		f := &TableFilter{Table: t}
		var row []expr.Node
		for {
			cmd.Columns = append(cmd.Columns, p.readTableColumn(f))
			p.readTok(lex.TokenEqual)
			row = append(row, p.readExpressionOrDefault())
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
		cmd.Rows = [][]expr.Node{row}
		cmd.setForm = true
	default:
		cmd.Query = p.parseSelect()
	}
	if len(cmd.Columns) > 0 {
		for _, row := range cmd.Rows {
			if len(row) != len(cmd.Columns) {
				p.fail(sqlerr.New(sqlerr.ColumnCountDoesNotMatch))
			}
		}
	}
	return false
}

func (p *Parser) parseUpdate() Prepared {
	cmd := &SqlUpdate{}
	p.currentPrepared = cmd
	cmd.Filter = p.readSimpleTableFilter()
	p.parseUpdateSetClause(cmd)
	return cmd
}

// parseUpdateSetClause reads SET .. [WHERE ..] [ORDER BY ..] [LIMIT n].
// (a, b) = expr assigns the elements of the array expr in order.
func (p *Parser) parseUpdateSetClause(cmd *SqlUpdate) {
	p.read("SET")
	if p.readIfTok(lex.TokenLeftParenthesis) {
		var cols []string
		for {
			cols = append(cols, p.readTableColumn(cmd.Filter))
			if !p.readIfMore(true) {
				break
			}
		}
		p.readTok(lex.TokenEqual)
		e := p.readExpression()
		if len(cols) == 1 {
			cmd.Set = append(cmd.Set, Assignment{Column: cols[0], Expr: e})
		} else {
			info, _ := expr.FuncLookup("ARRAY_GET")
			for i, c := range cols {
				fn := expr.NewFuncNode(info)
				fn.Args = []expr.Node{e, expr.NewValueNode(value.NewIntValue(int32(i + 1)))}
				cmd.Set = append(cmd.Set, Assignment{Column: c, Expr: fn})
			}
		}
	} else {
		for {
			col := p.readTableColumn(cmd.Filter)
			p.readTok(lex.TokenEqual)
			cmd.Set = append(cmd.Set, Assignment{Column: col, Expr: p.readExpressionOrDefault()})
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
	}
	if p.readIfTok(lex.TokenWhere) {
		cmd.Where = p.readExpression()
	}
	if p.readIfTok(lex.TokenOrder) {
		p.read("BY")
		cmd.OrderBy = p.parseSimpleOrderList()
	}
	if p.readIfTok(lex.TokenLimit) {
		cmd.Limit = p.readFoldedTerm()
	}
}

// readFoldedTerm is a term folded to a constant where possible, used for
// TOP and LIMIT of DML.
func (p *Parser) readFoldedTerm() expr.Node {
	e := p.readTerm()
	if folded, err := expr.Fold(e); err == nil {
		return folded
	}
	return e
}

func (p *Parser) parseDelete() Prepared {
	cmd := &SqlDelete{}
	if p.readIf("TOP") {
		cmd.Limit = p.readFoldedTerm()
	}
	p.currentPrepared = cmd
	if !p.readIfTok(lex.TokenFrom) {
		// DELETE T FROM T, MySQL only
		if !p.mode.Is(lex.ModeMySQL) {
			p.failSyntax()
		}
		p.readIdentifierWithSchema()
		p.readTok(lex.TokenFrom)
	}
	cmd.Filter = p.readSimpleTableFilter()
	p.parseDeleteGivenTable(cmd)
	return cmd
}

func (p *Parser) parseDeleteGivenTable(cmd *SqlDelete) {
	if p.readIfTok(lex.TokenWhere) {
		cmd.Where = p.readExpression()
	}
	if cmd.Limit == nil && p.readIfTok(lex.TokenLimit) {
		cmd.Limit = p.readFoldedTerm()
	}
}

func (p *Parser) parseMerge() Prepared {
	cmd := &SqlMerge{}
	p.currentPrepared = cmd
	p.read("INTO")
	cmd.Target = p.readSimpleTableFilter("USING", "KEY", "VALUES")
	t := cmd.Target.Table
	if p.readIf("USING") {
		return p.parseMergeUsing(cmd)
	}
	if p.readIfTok(lex.TokenLeftParenthesis) {
		if p.isSelect() {
			cmd.Query = p.parseSelect()
			p.readTok(lex.TokenRightParenthesis)
			return cmd
		}
		cmd.Columns = p.parseColumnList(t)
	}
	if p.readIf("KEY") {
		p.readTok(lex.TokenLeftParenthesis)
		cmd.Keys = p.parseColumnList(t)
	}
	if p.readIf("VALUES") {
		for {
			p.readTok(lex.TokenLeftParenthesis)
			cmd.Rows = append(cmd.Rows, p.parseValuesForInsert())
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
	} else {
		cmd.Query = p.parseSelect()
	}
	return cmd
}

// parseMergeUsing reads the USING form.  The target match query is built
// from the ON condition once the statement is complete.
func (p *Parser) parseMergeUsing(old *SqlMerge) Prepared {
	cmd := &SqlMergeUsing{Target: old.Target}
	p.currentPrepared = cmd
	if p.readIfTok(lex.TokenLeftParenthesis) {
		if !p.isSelect() {
			p.failSyntax()
		}
		cmd.Query = p.parseSelect()
		p.readTok(lex.TokenRightParenthesis)
		p.initQuery(cmd.Query)
		cmd.QueryAlias = p.readFromAlias(nil)
		if cmd.QueryAlias == "" {
			cmd.QueryAlias = queryAliasPrefix + itoa(p.s.LastPos())
		}
		cmd.Source = &TableFilter{
			Table: derivedTable(schema.MainSchema, cmd.QueryAlias, cmd.Query, nil),
			Alias: cmd.QueryAlias,
			Query: cmd.Query,
		}
	} else {
		cmd.Source = p.readSimpleTableFilter()
		// the source rows, SELECT * FROM source
		sel := &SqlSelect{Columns: []expr.Node{&expr.WildcardNode{}}}
		sel.addFilter(&TableFilter{Table: cmd.Source.Table, Alias: cmd.Source.Alias}, true)
		p.initQuery(sel)
		cmd.Query = sel
	}
	p.readTok(lex.TokenOn)
	cmd.On = p.readExpression()
	p.read("WHEN")
	matched := p.readIf("MATCHED")
	if matched {
		p.parseWhenMatched(cmd)
	} else {
		p.parseWhenNotMatched(cmd)
	}
	if p.readIf("WHEN") {
		if matched {
			p.parseWhenNotMatched(cmd)
		} else {
			p.read("MATCHED")
			p.parseWhenMatched(cmd)
		}
	}
	cmd.TargetMatchQuery = p.targetMatchQuery(cmd)
	return cmd
}

func (p *Parser) parseWhenMatched(cmd *SqlMergeUsing) {
	p.read("THEN")
	ok := false
	if p.readIf("UPDATE") {
		upd := &SqlUpdate{Filter: cmd.Target}
		p.parseUpdateSetClause(upd)
		cmd.Update = upd
		ok = true
	}
	if p.readIf("DELETE") {
		del := &SqlDelete{Filter: cmd.Target}
		p.parseDeleteGivenTable(del)
		cmd.Delete = del
		ok = true
	}
	if !ok {
		p.failSyntax()
	}
}

func (p *Parser) parseWhenNotMatched(cmd *SqlMergeUsing) {
	p.readTok(lex.TokenNot)
	p.read("MATCHED")
	p.read("THEN")
	p.read("INSERT")
	ins := &SqlInsert{Table: cmd.Target.Table}
	p.parseInsertGivenTable(ins, ins.Table)
	cmd.Insert = ins
}

// targetMatchQuery is SELECT _ROWID_ FROM target WHERE on, the existence
// check of the target row for one source row.
func (p *Parser) targetMatchQuery(cmd *SqlMergeUsing) *SqlSelect {
	sel := &SqlSelect{
		Columns: []expr.Node{expr.NewColumnNode("", "", "_ROWID_")},
		Where:   cmd.On,
	}
	sel.addFilter(&TableFilter{Table: cmd.Target.Table, Alias: cmd.Target.Alias}, true)
	if err := sel.init(false); err != nil {
		p.failErr(err)
	}
	return sel
}

// parseReplace is the MySQL REPLACE, it reads like a MERGE without KEY.
func (p *Parser) parseReplace() Prepared {
	cmd := &SqlReplace{}
	p.currentPrepared = cmd
	p.read("INTO")
	cmd.Table = p.readTableOrView(p.readIdentifierWithSchema())
	if p.readIfTok(lex.TokenLeftParenthesis) {
		if p.isSelect() {
			cmd.Query = p.parseSelect()
			p.readTok(lex.TokenRightParenthesis)
			return cmd
		}
		cmd.Columns = p.parseColumnList(cmd.Table)
	}
	if p.readIf("VALUES") {
		for {
			p.readTok(lex.TokenLeftParenthesis)
			cmd.Rows = append(cmd.Rows, p.parseValuesForInsert())
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
	} else {
		cmd.Query = p.parseSelect()
	}
	return cmd
}
