package rel

import (
	"strings"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/schema"
)

type (
	// Assignment is one column = value of UPDATE, INSERT .. SET and ON
	// DUPLICATE KEY UPDATE.  A nil Expr is DEFAULT.
	Assignment struct {
		Column string
		Expr   expr.Node
	}

	// SqlInsert is INSERT INTO t [(cols)] VALUES .. | SET .. | query.
	SqlInsert struct {
		stmtBase
		Table   *schema.Table
		Columns []string
		// Rows of VALUES, a nil entry is DEFAULT; DEFAULT VALUES is a
		// single empty row
		Rows   [][]expr.Node
		Query  Query
		Direct bool
		Sorted bool
		// Ignore and OnDuplicate are the MySQL extensions
		Ignore      bool
		OnDuplicate []Assignment
		setForm     bool
	}

	// SqlUpdate is UPDATE t SET .. [WHERE ..] [ORDER BY ..] [LIMIT n].
	SqlUpdate struct {
		stmtBase
		Filter *TableFilter
		Set    []Assignment
		Where  expr.Node
		// OrderBy is accepted for MySQL and otherwise ignored
		OrderBy []*expr.OrderNode
		Limit   expr.Node
	}

	// SqlDelete is DELETE [TOP n] FROM t [WHERE ..] [LIMIT n].
	SqlDelete struct {
		stmtBase
		Filter *TableFilter
		Where  expr.Node
		Limit  expr.Node
	}

	// SqlMerge is MERGE INTO t [(cols)] [KEY (cols)] VALUES .. | query.
	SqlMerge struct {
		stmtBase
		Target  *TableFilter
		Columns []string
		Keys    []string
		Rows    [][]expr.Node
		Query   Query
	}

	// SqlMergeUsing is MERGE INTO t USING source ON cond WHEN [NOT] MATCHED.
	SqlMergeUsing struct {
		stmtBase
		Target *TableFilter
		// Source is the table or the derived table of Query
		Source     *TableFilter
		Query      Query
		QueryAlias string
		On         expr.Node
		Update     *SqlUpdate
		Delete     *SqlDelete
		Insert     *SqlInsert
		// TargetMatchQuery selects the target rows matching a source row,
		// built from the ON condition
		TargetMatchQuery *SqlSelect
	}

	// SqlReplace is the MySQL REPLACE INTO, an insert or update by primary
	// key.
	SqlReplace struct {
		stmtBase
		Table   *schema.Table
		Columns []string
		Rows    [][]expr.Node
		Query   Query
	}
)

func (m *SqlInsert) Kind() StatementKind     { return KindInsert }
func (m *SqlUpdate) Kind() StatementKind     { return KindUpdate }
func (m *SqlDelete) Kind() StatementKind     { return KindDelete }
func (m *SqlMerge) Kind() StatementKind      { return KindMerge }
func (m *SqlMergeUsing) Kind() StatementKind { return KindMergeUsing }
func (m *SqlReplace) Kind() StatementKind    { return KindReplace }

func (m Assignment) String() string {
	if m.Expr == nil {
		return quoteName(m.Column) + " = DEFAULT"
	}
	return quoteName(m.Column) + " = " + m.Expr.String()
}

func assignments(list []Assignment) string {
	parts := make([]string, len(list))
	for i, a := range list {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func rowsString(rows [][]expr.Node) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = "(" + joinExprs(r) + ")"
	}
	return strings.Join(parts, ", ")
}

// insertBody renders the column list and values or query shared by
// INSERT, MERGE and REPLACE.
func insertBody(b *strings.Builder, cols []string, rows [][]expr.Node, q Query) {
	if len(cols) > 0 {
		b.WriteString(" (" + joinNames(cols) + ")")
	}
	if q != nil {
		b.WriteString(" " + q.String())
		return
	}
	b.WriteString(" VALUES " + rowsString(rows))
}

func (m *SqlInsert) String() string {
	var b strings.Builder
	b.WriteString("INSERT ")
	if m.Ignore {
		b.WriteString("IGNORE ")
	}
	b.WriteString("INTO " + m.Table.SQL())
	switch {
	case m.setForm && len(m.Rows) == 1:
		set := make([]Assignment, len(m.Columns))
		for i, c := range m.Columns {
			set[i] = Assignment{Column: c, Expr: m.Rows[0][i]}
		}
		b.WriteString(" SET " + assignments(set))
	case m.Query == nil && len(m.Rows) == 1 && len(m.Rows[0]) == 0 && len(m.Columns) == 0:
		b.WriteString(" DEFAULT VALUES")
	default:
		if m.Direct {
			b.WriteString(" DIRECT")
		}
		if m.Sorted {
			b.WriteString(" SORTED")
		}
		insertBody(&b, m.Columns, m.Rows, m.Query)
	}
	if len(m.OnDuplicate) > 0 {
		b.WriteString(" ON DUPLICATE KEY UPDATE " + assignments(m.OnDuplicate))
	}
	return b.String()
}

func (m *SqlUpdate) String() string {
	var b strings.Builder
	b.WriteString("UPDATE " + m.Filter.source())
	b.WriteString(" SET " + assignments(m.Set))
	if m.Where != nil {
		b.WriteString(" WHERE " + m.Where.String())
	}
	if len(m.OrderBy) > 0 {
		b.WriteString(" ORDER BY " + expr.OrderString(m.OrderBy))
	}
	if m.Limit != nil {
		b.WriteString(" LIMIT " + m.Limit.String())
	}
	return b.String()
}

func (m *SqlDelete) String() string {
	var b strings.Builder
	b.WriteString("DELETE FROM " + m.Filter.source())
	if m.Where != nil {
		b.WriteString(" WHERE " + m.Where.String())
	}
	if m.Limit != nil {
		b.WriteString(" LIMIT " + m.Limit.String())
	}
	return b.String()
}

func (m *SqlMerge) String() string {
	var b strings.Builder
	b.WriteString("MERGE INTO " + m.Target.Table.SQL())
	if len(m.Columns) > 0 {
		b.WriteString(" (" + joinNames(m.Columns) + ")")
	}
	if len(m.Keys) > 0 {
		b.WriteString(" KEY(" + joinNames(m.Keys) + ")")
	}
	insertBody(&b, nil, m.Rows, m.Query)
	return b.String()
}

func (m *SqlMergeUsing) String() string {
	var b strings.Builder
	b.WriteString("MERGE INTO " + m.Target.source() + " USING ")
	if m.Query != nil && m.Source.Query != nil {
		b.WriteString("(" + m.Query.String() + ") " + quoteName(m.QueryAlias))
	} else {
		b.WriteString(m.Source.source())
	}
	b.WriteString(" ON " + m.On.String())
	if m.Update != nil || m.Delete != nil {
		b.WriteString(" WHEN MATCHED THEN")
		if m.Update != nil {
			b.WriteString(" UPDATE SET " + assignments(m.Update.Set))
			if m.Update.Where != nil {
				b.WriteString(" WHERE " + m.Update.Where.String())
			}
		}
		if m.Delete != nil {
			b.WriteString(" DELETE")
			if m.Delete.Where != nil {
				b.WriteString(" WHERE " + m.Delete.Where.String())
			}
		}
	}
	if m.Insert != nil {
		b.WriteString(" WHEN NOT MATCHED THEN INSERT")
		insertBody(&b, m.Insert.Columns, m.Insert.Rows, m.Insert.Query)
	}
	return b.String()
}

func (m *SqlReplace) String() string {
	var b strings.Builder
	b.WriteString("REPLACE INTO " + m.Table.SQL())
	insertBody(&b, m.Columns, m.Rows, m.Query)
	return b.String()
}

var (
	_ Prepared = (*SqlInsert)(nil)
	_ Prepared = (*SqlUpdate)(nil)
	_ Prepared = (*SqlDelete)(nil)
	_ Prepared = (*SqlMerge)(nil)
	_ Prepared = (*SqlMergeUsing)(nil)
	_ Prepared = (*SqlReplace)(nil)
)
