package rel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/testutil"
	"github.com/araddon/qlfront/value"
)

func TestInsertForms(t *testing.T) {
	sess := testutil.NewSession("")

	ins := mustParse(t, sess, "INSERT INTO A (X, Y) VALUES (1, 'a'), (2, DEFAULT)").(*SqlInsert)
	assert.Equal(t, KindInsert, ins.Kind())
	assert.Equal(t, []string{"X", "Y"}, ins.Columns)
	require.Equal(t, 2, len(ins.Rows))
	assert.Nil(t, ins.Rows[1][1])

	ins = mustParse(t, sess, "INSERT INTO A DEFAULT VALUES").(*SqlInsert)
	assert.Equal(t, 1, len(ins.Rows))
	assert.Equal(t, 0, len(ins.Rows[0]))

	ins = mustParse(t, sess, "INSERT INTO A SELECT X, Z FROM B").(*SqlInsert)
	assert.NotNil(t, ins.Query)

	_, err := Parse(sess, "INSERT INTO A (NOPE) VALUES (1)")
	assert.NotNil(t, err)
}

func TestInsertOnDuplicateKeyMySQL(t *testing.T) {
	sess := testutil.NewSession("MySQL")
	ins := mustParse(t, sess, "INSERT INTO A (X) VALUES (1) ON DUPLICATE KEY UPDATE Y = 'b'").(*SqlInsert)
	require.Equal(t, 1, len(ins.OnDuplicate))
	assert.Equal(t, "Y", ins.OnDuplicate[0].Column)
}

func TestUpdate(t *testing.T) {
	sess := testutil.NewSession("")
	upd := mustParse(t, sess, "UPDATE A SET X = X + 1 WHERE Y = ?").(*SqlUpdate)
	assert.Equal(t, KindUpdate, upd.Kind())
	require.Equal(t, 1, len(upd.Set))
	assert.Equal(t, "X", upd.Set[0].Column)
	assert.Equal(t, 1, len(upd.Params()))
	assert.NotNil(t, upd.Where)
}

func TestMergeKey(t *testing.T) {
	sess := testutil.NewSession("")
	m := mustParse(t, sess, "MERGE INTO A KEY (X) VALUES (1, 'a')").(*SqlMerge)
	assert.Equal(t, KindMerge, m.Kind())
	assert.Equal(t, []string{"X"}, m.Keys)
	assert.Equal(t, 1, len(m.Rows))
}

func TestMergeUsing(t *testing.T) {
	sess := testutil.NewSession("")
	sql := "MERGE INTO A USING B ON A.X = B.X " +
		"WHEN MATCHED THEN UPDATE SET Y = B.Z " +
		"WHEN NOT MATCHED THEN INSERT (X, Y) VALUES (B.X, B.Z)"
	m := mustParse(t, sess, sql).(*SqlMergeUsing)
	assert.Equal(t, KindMergeUsing, m.Kind())
	assert.NotNil(t, m.Update)
	assert.NotNil(t, m.Insert)
	assert.Nil(t, m.Delete)
	require.NotNil(t, m.TargetMatchQuery)
	assert.Equal(t, "A", m.TargetMatchQuery.From[0].Table.Name)
	assert.Equal(t, m.On, m.TargetMatchQuery.Where)
}

func TestInlineParameterValues(t *testing.T) {
	sess := testutil.NewSession("")
	stmt := mustParse(t, sess, "SELECT X FROM A WHERE X = ?1 AND Y = ?2 {1: 5, 2: 'b'}")
	require.Equal(t, 2, len(stmt.Params()))
	assert.Equal(t, value.NewIntValue(5), stmt.Params()[0].Value)
	assert.Equal(t, value.NewStringValue("b"), stmt.Params()[1].Value)

	// every parameter needs a value once the block is given
	_, err := Parse(sess, "SELECT X FROM A WHERE X = ?1 AND Y = ?2 {1: 5}")
	assert.NotNil(t, err)
}

func TestTermSuffixes(t *testing.T) {
	sess := testutil.NewSession("")

	sel := mustSelect(t, sess, "SELECT X::VARCHAR FROM A")
	fn, ok := sel.Columns[0].(*expr.FuncNode)
	require.True(t, ok)
	assert.Equal(t, "CAST", fn.Name)

	sel = mustSelect(t, sess, "SELECT Y[1] FROM A")
	fn, ok = sel.Columns[0].(*expr.FuncNode)
	require.True(t, ok)
	assert.Equal(t, "ARRAY_GET", fn.Name)
	assert.Equal(t, 2, len(fn.Args))
}

func TestOutsideQueryContext(t *testing.T) {
	sess := testutil.NewSession("")

	_, err := Parse(sess, "CALL COUNT(*)")
	require.NotNil(t, err)
	assert.Equal(t, sqlerr.InvalidUseOfAggregate, sqlerr.CodeOf(err))

	_, err = Parse(sess, "UPDATE A SET X = MAX(X)")
	require.NotNil(t, err)
	assert.Equal(t, sqlerr.InvalidUseOfAggregate, sqlerr.CodeOf(err))

	_, err = Parse(sess, "CREATE TABLE T9(X INT DEFAULT ROWNUM)")
	require.NotNil(t, err)
	assert.Equal(t, sqlerr.ObjectNotInQuery, sqlerr.CodeOf(err))

	// inside a statement both are fine
	mustParse(t, sess, "SELECT COUNT(*), ROWNUM FROM A")
	mustParse(t, sess, "DELETE FROM A WHERE ROWNUM < 3")
}
