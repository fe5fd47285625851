package rel

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/testutil"
	"github.com/araddon/qlfront/value"
)

func TestMain(m *testing.M) {
	testutil.Setup()
	os.Exit(m.Run())
}

func mustParse(t *testing.T, sess *schema.Session, sql string) Prepared {
	stmt, err := Parse(sess, sql)
	require.Nil(t, err, sql)
	require.NotNil(t, stmt, sql)
	return stmt
}

func mustSelect(t *testing.T, sess *schema.Session, sql string) *SqlSelect {
	sel, ok := mustParse(t, sess, sql).(*SqlSelect)
	require.True(t, ok, sql)
	return sel
}

func TestSelectWildcard(t *testing.T) {
	sess := testutil.NewSession("")
	sql := "SELECT * FROM A"
	sel := mustSelect(t, sess, sql)
	assert.Equal(t, KindSelect, sel.Kind())
	assert.True(t, sel.IsQuery())
	assert.Equal(t, sql, sel.SQL())
	assert.Equal(t, []string{"X", "Y"}, sel.ColumnNames())
	assert.Equal(t, 2, sel.ColumnCount())
	assert.Equal(t, "SELECT A.X, A.Y FROM PUBLIC.A", sel.String())

	// the rendering parses back to itself
	again := mustSelect(t, sess, sel.String())
	assert.Equal(t, sel.String(), again.String())
}

func TestSelectWithoutFrom(t *testing.T) {
	sess := testutil.NewSession("")
	sel := mustSelect(t, sess, "SELECT 1")
	require.Equal(t, 1, len(sel.From))
	assert.True(t, sel.From[0].Dual)
	assert.True(t, sel.From[0].Implicit)
	assert.Equal(t, "SELECT 1", sel.String())
}

func TestMinimumIntegerLiterals(t *testing.T) {
	sess := testutil.NewSession("")

	sel := mustSelect(t, sess, "SELECT -2147483648")
	vn, ok := sel.Expanded[0].(*expr.ValueNode)
	require.True(t, ok)
	assert.Equal(t, value.IntType, vn.Value.Type())
	assert.Equal(t, "-2147483648", vn.Value.ToString())

	sel = mustSelect(t, sess, "SELECT -9223372036854775808")
	vn, ok = sel.Expanded[0].(*expr.ValueNode)
	require.True(t, ok)
	assert.Equal(t, value.LongType, vn.Value.Type())
	assert.Equal(t, "-9223372036854775808", vn.Value.ToString())

	// not a literal, stays a negation
	sel = mustSelect(t, sess, "SELECT -X FROM A")
	_, ok = sel.Expanded[0].(*expr.BinaryNode)
	assert.True(t, ok)
}

func TestParameters(t *testing.T) {
	sess := testutil.NewSession("")

	stmt := mustParse(t, sess, "SELECT X FROM A WHERE X = ? AND Y = ?")
	require.Equal(t, 2, len(stmt.Params()))
	assert.Equal(t, 0, stmt.Params()[0].Index)
	assert.Equal(t, 1, stmt.Params()[1].Index)

	stmt = mustParse(t, sess, "SELECT ?2, ?1, ?2")
	require.Equal(t, 2, len(stmt.Params()))
	assert.Equal(t, "?1", stmt.Params()[0].String())
	assert.Equal(t, "?2", stmt.Params()[1].String())

	_, err := Parse(sess, "SELECT ?1, ?3")
	assert.True(t, sqlerr.Is(err, sqlerr.ParameterNotSet), "%v", err)

	_, err = Parse(sess, "SELECT ?, ?1")
	assert.True(t, sqlerr.Is(err, sqlerr.CannotMixIndexedAndUnindexedParams), "%v", err)

	_, err = Parse(sess, "SELECT ?1, ?")
	assert.True(t, sqlerr.Is(err, sqlerr.CannotMixIndexedAndUnindexedParams), "%v", err)
}

func TestResolutionErrors(t *testing.T) {
	sess := testutil.NewSession("")
	tests := []struct {
		sql  string
		code sqlerr.Code
	}{
		{"SELECT * FROM NOPE", sqlerr.TableOrViewNotFound},
		{"SELECT * FROM NOSCHEMA.A", sqlerr.SchemaNotFound},
		{"SELECT NOPE FROM A", sqlerr.ColumnNotFound},
		{"SELECT X FROM A, B", sqlerr.AmbiguousColumnName},
		{"SELECT A.Z FROM A", sqlerr.ColumnNotFound},
	}
	for _, tt := range tests {
		_, err := Parse(sess, tt.sql)
		assert.True(t, sqlerr.Is(err, tt.code), "%s: %v", tt.sql, err)
	}
	// qualified it is fine
	mustParse(t, sess, "SELECT A.X, B.X FROM A, B")
	mustParse(t, sess, "SELECT S2.T.V FROM S2.T")
}

func TestSyntaxErrorMarker(t *testing.T) {
	sess := testutil.NewSession("")
	sql := "SELECT * FROM A WHERE"
	_, err := Parse(sess, sql)
	require.NotNil(t, err)
	e, ok := sqlerr.AsError(err)
	require.True(t, ok)
	assert.Equal(t, sqlerr.KindSyntax, e.Kind)
	assert.Equal(t, "SELECT * FROM A WHERE[*]", e.MarkedSQL())

	_, err = Parse(sess, "SELEC 1")
	e, ok = sqlerr.AsError(err)
	require.True(t, ok)
	assert.Equal(t, sqlerr.KindSyntax, e.Kind)
	assert.Equal(t, "[*]SELEC 1", e.MarkedSQL())
	assert.Equal(t, []string{"SAVEPOINT", "SCRIPT", "SELECT", "SET", "SHOW", "SHUTDOWN"}, e.Expected)

	_, err = Parse(sess, "SELECT * FROM A WHERE X =")
	e, ok = sqlerr.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "SELECT * FROM A WHERE X =[*]", e.MarkedSQL())
	assert.Contains(t, e.Expected, "expression")

	// trailing garbage after a complete statement
	_, err = Parse(sess, "SELECT 1 1")
	assert.Equal(t, sqlerr.KindSyntax, sqlerr.KindOf(err))
}

func TestUnterminatedString(t *testing.T) {
	sess := testutil.NewSession("")
	_, err := Parse(sess, "SELECT 'abc")
	e, ok := sqlerr.AsError(err)
	require.True(t, ok)
	assert.Equal(t, sqlerr.KindUnterminated, e.Kind)
	assert.Equal(t, 7, e.Pos)
}

func TestInnerJoinFlattened(t *testing.T) {
	sess := testutil.NewSession("")
	sel := mustSelect(t, sess, "SELECT * FROM A INNER JOIN B ON A.X = B.X")
	require.Equal(t, 2, len(sel.From))
	assert.Equal(t, "A", sel.From[0].Name())
	assert.Equal(t, "B", sel.From[1].Name())
	assert.Nil(t, sel.From[0].Join)
	require.NotNil(t, sel.Where)
	assert.Equal(t, []string{"X", "Y", "X", "Z"}, sel.ColumnNames())
}

func TestOuterJoins(t *testing.T) {
	sess := testutil.NewSession("")

	sel := mustSelect(t, sess, "SELECT * FROM A LEFT OUTER JOIN B ON A.X = B.X")
	require.Equal(t, 1, len(sel.From))
	assert.Equal(t, 2, len(sel.Filters))
	require.NotNil(t, sel.From[0].Join)
	assert.True(t, sel.From[0].Join.JoinOuter)
	assert.Equal(t, "B", sel.From[0].Join.Name())
	assert.Nil(t, sel.Where)

	// RIGHT JOIN swaps the sides
	sel = mustSelect(t, sess, "SELECT * FROM A RIGHT JOIN B ON A.X = B.X")
	require.Equal(t, 1, len(sel.From))
	assert.Equal(t, "B", sel.From[0].Name())
	require.NotNil(t, sel.From[0].Join)
	assert.Equal(t, "A", sel.From[0].Join.Name())
	assert.True(t, sel.From[0].Join.JoinOuter)

	_, err := Parse(sess, "SELECT * FROM A FULL JOIN B ON A.X = B.X")
	assert.Equal(t, sqlerr.KindSyntax, sqlerr.KindOf(err))
}

func TestNaturalJoin(t *testing.T) {
	sess := testutil.NewSession("")
	sel := mustSelect(t, sess, "SELECT * FROM A NATURAL JOIN B")
	require.Equal(t, 2, len(sel.From))
	assert.Equal(t, []string{"X"}, sel.From[1].NaturalColumns)
	// X of B is hidden
	assert.Equal(t, []string{"X", "Y", "Z"}, sel.ColumnNames())
	cmp, ok := sel.Where.(*expr.ComparisonNode)
	require.True(t, ok)
	assert.Equal(t, expr.CompareEqual, cmp.Op)

	// unqualified X is not ambiguous
	mustParse(t, sess, "SELECT X FROM A NATURAL JOIN B")
}

func TestFromOrder(t *testing.T) {
	sess := testutil.NewSession("")
	sel := mustSelect(t, sess, "SELECT * FROM B, A, C")
	require.Equal(t, 3, len(sel.From))
	for i, name := range []string{"B", "A", "C"} {
		assert.Equal(t, name, sel.From[i].Name())
		assert.Equal(t, i, sel.From[i].OrderInFrom)
	}
}

func TestCaseForms(t *testing.T) {
	sess := testutil.NewSession("")

	sel := mustSelect(t, sess, "SELECT CASE X WHEN 1 THEN 'a' WHEN 2 THEN 'b' ELSE 'c' END FROM A")
	cn, ok := sel.Expanded[0].(*expr.CaseNode)
	require.True(t, ok)
	assert.NotNil(t, cn.Operand)
	assert.Equal(t, 2, len(cn.Whens))
	assert.Equal(t, 2, len(cn.Thens))
	assert.NotNil(t, cn.Else)

	sel = mustSelect(t, sess, "SELECT CASE WHEN X = 1 THEN 'a' END FROM A")
	cn, ok = sel.Expanded[0].(*expr.CaseNode)
	require.True(t, ok)
	assert.Nil(t, cn.Operand)
	assert.Nil(t, cn.Else)

	// CASE ELSE x END is just x
	sel = mustSelect(t, sess, "SELECT CASE ELSE 5 END")
	vn, ok := sel.Expanded[0].(*expr.ValueNode)
	require.True(t, ok)
	assert.Equal(t, "5", vn.Value.ToString())

	_, err := Parse(sess, "SELECT CASE WHEN X = 1 THEN 'a' FROM A")
	assert.Equal(t, sqlerr.KindSyntax, sqlerr.KindOf(err))
}

func TestDeleteTableFromOnlyMySQL(t *testing.T) {
	_, err := Parse(testutil.NewSession(""), "DELETE A FROM A WHERE X = 1")
	assert.Equal(t, sqlerr.KindSyntax, sqlerr.KindOf(err))

	stmt := mustParse(t, testutil.NewSession("MySQL"), "DELETE A FROM A WHERE X = 1")
	del, ok := stmt.(*SqlDelete)
	require.True(t, ok)
	assert.Equal(t, KindDelete, del.Kind())
	assert.Equal(t, "A", del.Filter.Table.Name)
	assert.NotNil(t, del.Where)
}

func TestQuotingEquivalence(t *testing.T) {
	sess := testutil.NewSession("MSSQLServer")
	for _, sql := range []string{`SELECT "X" FROM A`, "SELECT [X] FROM A", "SELECT `X` FROM A", "SELECT x FROM a",
		"SELECT `x` FROM `a`", "SELECT `x` FROM a"} {
		sel := mustSelect(t, sess, sql)
		col, ok := sel.Expanded[0].(*expr.ColumnNode)
		require.True(t, ok, sql)
		assert.Equal(t, "X", col.Column, sql)
		assert.Equal(t, "A", sel.From[0].Table.Name, sql)
	}
	// quoted names are case sensitive
	_, err := Parse(sess, `SELECT "x" FROM A`)
	assert.True(t, sqlerr.Is(err, sqlerr.ColumnNotFound), "%v", err)
	for _, mode := range []string{"", "MySQL"} {
		sel := mustSelect(t, testutil.NewSession(mode), "SELECT `x` FROM `a`")
		assert.Equal(t, "A", sel.From[0].Table.Name, mode)
	}
}

func TestUnion(t *testing.T) {
	sess := testutil.NewSession("")
	stmt := mustParse(t, sess, "SELECT X FROM A UNION ALL SELECT X FROM B EXCEPT SELECT 1")
	u, ok := stmt.(*SqlUnion)
	require.True(t, ok)
	assert.Equal(t, UnionExcept, u.Type)
	left, ok := u.Left.(*SqlUnion)
	require.True(t, ok)
	assert.Equal(t, UnionAll, left.Type)
	assert.Equal(t, []string{"X"}, u.ColumnNames())
	assert.True(t, u.IsQuery())
}

func TestCommonTableExpression(t *testing.T) {
	sess := testutil.NewSession("")
	stmt := mustParse(t, sess,
		"WITH R(N) AS (SELECT 1 UNION ALL SELECT N + 1 FROM R WHERE N < 3) SELECT N FROM R")
	sel, ok := stmt.(*SqlSelect)
	require.True(t, ok)
	assert.Equal(t, []string{"N"}, sel.ColumnNames())
	assert.True(t, sel.AlwaysRecompile())

	views := sel.CteViews()
	require.Equal(t, 1, len(views))
	assert.Equal(t, "R", views[0].Name)
	assert.True(t, views[0].Recursive)

	// nothing is left registered once parsing is done
	_, found := sess.FindLocalTempTable("R")
	assert.False(t, found)

	// a failing body does not leak either
	_, err := Parse(sess, "WITH W AS (SELECT NOPE FROM A) SELECT * FROM W")
	assert.True(t, sqlerr.Is(err, sqlerr.ColumnNotFound), "%v", err)
	_, found = sess.FindLocalTempTable("W")
	assert.False(t, found)
	for _, mode := range []string{"", "MySQL", "PostgreSQL"} {
		_, err = Parse(testutil.NewSession(mode), "WITH W AS (SELECT NOPE FROM A) SELECT * FROM W")
		assert.True(t, sqlerr.Is(err, sqlerr.ColumnNotFound), "%s: %v", mode, err)
	}
	_, err = Parse(sess, "CREATE VIEW V2 AS WITH W AS (SELECT NOPE FROM A) SELECT * FROM W")
	assert.True(t, sqlerr.Is(err, sqlerr.ColumnNotFound), "%v", err)
	_, found = sess.Catalog.FindTable("PUBLIC", "W")
	assert.False(t, found)

	// not recursive
	sel = mustSelect(t, sess, "WITH W AS (SELECT X FROM A) SELECT X FROM W")
	require.Equal(t, 1, len(sel.CteViews()))
	assert.False(t, sel.CteViews()[0].Recursive)
}

func TestParseStatements(t *testing.T) {
	sess := testutil.NewSession("")
	stmts, err := ParseStatements(sess, "SELECT 1; SELECT X FROM A;")
	require.Nil(t, err)
	require.Equal(t, 2, len(stmts))
	assert.Equal(t, KindSelect, stmts[0].Kind())
	assert.Equal(t, KindSelect, stmts[1].Kind())

	_, err = ParseStatements(sess, "SELECT 1; SELECT NOPE FROM A")
	assert.True(t, sqlerr.Is(err, sqlerr.ColumnNotFound), "%v", err)

	// positions count from the start of the script
	script := "SELECT 1; SELECT * FROM A WHERE"
	_, err = ParseStatements(sess, script)
	e, ok := sqlerr.AsError(err)
	require.True(t, ok)
	assert.Equal(t, script, e.SQL)
	assert.Equal(t, len(script), e.Pos)
	assert.Equal(t, script+"[*]", e.MarkedSQL())

	_, err = ParseStatements(sess, "SELECT 1;\nSELECT 'abc")
	e, ok = sqlerr.AsError(err)
	require.True(t, ok)
	assert.Equal(t, sqlerr.KindUnterminated, e.Kind)
	assert.Equal(t, 17, e.Pos)
}

func TestSetAndShow(t *testing.T) {
	sess := testutil.NewSession("")

	stmt := mustParse(t, sess, "SET SCHEMA S2")
	set, ok := stmt.(*SqlSet)
	require.True(t, ok)
	assert.Equal(t, KindSet, set.Kind())
	assert.Equal(t, "SCHEMA", set.Name)
	assert.Equal(t, "S2", set.Str)

	stmt = mustParse(t, sess, "SET MODE MySQL")
	set, ok = stmt.(*SqlSet)
	require.True(t, ok)
	assert.Equal(t, "MODE", set.Name)

	_, err := Parse(sess, "SET MODE NOPE")
	assert.True(t, sqlerr.Is(err, sqlerr.UnknownMode), "%v", err)

	stmt = mustParse(t, sess, "SHOW CLIENT_ENCODING")
	assert.Equal(t, KindSelect, stmt.Kind())
	assert.True(t, stmt.IsQuery())
}

func TestTransactionCommands(t *testing.T) {
	sess := testutil.NewSession("")
	for _, sql := range []string{"COMMIT", "ROLLBACK", "BEGIN", "SAVEPOINT SP1", "ROLLBACK TO SAVEPOINT SP1"} {
		stmt := mustParse(t, sess, sql)
		assert.Equal(t, KindTransaction, stmt.Kind(), sql)
	}
}

func TestHexLiteralRendering(t *testing.T) {
	sess := testutil.NewSession("")
	sel := mustSelect(t, sess, "SELECT 0xFFFFFFFF")
	vn, ok := sel.Expanded[0].(*expr.ValueNode)
	require.True(t, ok)
	assert.Equal(t, value.DecimalType, vn.Value.Type())
	rendered := vn.String()
	assert.Equal(t, "CAST(4294967295 AS DECIMAL)", rendered)

	again := mustSelect(t, sess, "SELECT "+rendered)
	assert.Equal(t, KindSelect, again.Kind())
	assert.Equal(t, 1, again.ColumnCount())
	assert.NotContains(t, again.Expanded[0].String(), ".0")
}
