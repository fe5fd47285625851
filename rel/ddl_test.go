package rel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/testutil"
)

func TestCreateTableColumns(t *testing.T) {
	sess := testutil.NewSession("")
	stmt := mustParse(t, sess, "CREATE TABLE T1(ID INT AUTO_INCREMENT PRIMARY KEY, NAME VARCHAR(20) NOT NULL)")
	ct, ok := stmt.(*SqlCreateTable)
	require.True(t, ok)
	assert.Equal(t, KindCreateTable, ct.Kind())
	assert.Equal(t, schema.MainSchema, ct.Schema)
	assert.Equal(t, "T1", ct.Name)
	assert.True(t, ct.PersistData)
	assert.True(t, ct.PersistIndexes)

	require.Equal(t, 2, len(ct.Columns))
	assert.True(t, ct.Columns[0].AutoIncrement)
	assert.False(t, ct.Columns[0].Nullable)
	assert.False(t, ct.Columns[1].Nullable)
	assert.Equal(t, "NAME", ct.Columns[1].Name)

	// the key is its own constraint, not a column flag
	assert.False(t, ct.Columns[0].PrimaryKey)
	require.Equal(t, 1, len(ct.Constraints))
	assert.Equal(t, schema.ConstraintPrimaryKey, ct.Constraints[0].Type)
	assert.Equal(t, []IndexColumn{{Name: "ID"}}, ct.Constraints[0].Columns)
	assert.Equal(t, "T1", ct.Constraints[0].Table)
}

func TestCreateTableIdentity(t *testing.T) {
	sess := testutil.NewSession("")
	ct, ok := mustParse(t, sess, "CREATE TABLE T2(ID IDENTITY, V VARCHAR)").(*SqlCreateTable)
	require.True(t, ok)
	require.Equal(t, 2, len(ct.Columns))
	assert.True(t, ct.Columns[0].AutoIncrement)
	assert.False(t, ct.Columns[0].PrimaryKey)
	require.Equal(t, 1, len(ct.Constraints))
	assert.Equal(t, schema.ConstraintPrimaryKey, ct.Constraints[0].Type)
}

func TestCreateTableCheck(t *testing.T) {
	sess := testutil.NewSession("")
	ct, ok := mustParse(t, sess, "CREATE TABLE T3(ID INT CHECK (ID > 0), NAME VARCHAR)").(*SqlCreateTable)
	require.True(t, ok)
	require.Equal(t, 2, len(ct.Columns))
	require.Equal(t, 1, len(ct.Constraints))
	assert.Equal(t, schema.ConstraintCheck, ct.Constraints[0].Type)
	assert.NotNil(t, ct.Constraints[0].Check)

	// the check sees the columns of the table being created only
	_, err := Parse(sess, "CREATE TABLE T4(ID INT CHECK (NOPE > 0))")
	assert.True(t, sqlerr.Is(err, sqlerr.ColumnNotFound), "%v", err)
}

func TestCreateTableMySQLKeys(t *testing.T) {
	sess := testutil.NewSession("MySQL")
	ct, ok := mustParse(t, sess, "CREATE TABLE T5(ID INT, KEY K1 (ID)) ENGINE=InnoDB").(*SqlCreateTable)
	require.True(t, ok)
	assert.Equal(t, 1, len(ct.Columns))
	require.Equal(t, 1, len(ct.Indexes))
	assert.Equal(t, "K1", ct.Indexes[0].Name)

	// KEY followed by a type is a column named KEY
	ct, ok = mustParse(t, sess, "CREATE TABLE T6(ID INT, KEY INT)").(*SqlCreateTable)
	require.True(t, ok)
	require.Equal(t, 2, len(ct.Columns))
	assert.Equal(t, "KEY", ct.Columns[1].Name)
	assert.Equal(t, 0, len(ct.Indexes))

	_, err := Parse(sess, "CREATE TABLE T7(ID INT) ENGINE=Aria")
	assert.True(t, sqlerr.Is(err, sqlerr.FeatureNotSupported), "%v", err)
}

func TestCreateTableAsSelect(t *testing.T) {
	sess := testutil.NewSession("")
	ct, ok := mustParse(t, sess, "CREATE TABLE T8 AS SELECT X FROM A WITH NO DATA").(*SqlCreateTable)
	require.True(t, ok)
	require.NotNil(t, ct.Query)
	assert.Equal(t, []string{"X"}, ct.Query.ColumnNames())
}

func TestCreateIndex(t *testing.T) {
	sess := testutil.NewSession("")
	idx, ok := mustParse(t, sess, "CREATE UNIQUE INDEX IDX_T ON A(X DESC, Y)").(*SqlCreateIndex)
	require.True(t, ok)
	assert.Equal(t, KindCreateIndex, idx.Kind())
	assert.True(t, idx.Unique)
	assert.Equal(t, "A", idx.Table)
	require.Equal(t, 2, len(idx.Columns))
	assert.True(t, idx.Columns[0].Desc)
	assert.False(t, idx.Columns[1].Desc)

	_, err := Parse(sess, "CREATE INDEX S2.IDX ON A(X)")
	assert.True(t, sqlerr.Is(err, sqlerr.SchemaNameMustMatch), "%v", err)
}

func TestCreateView(t *testing.T) {
	sess := testutil.NewSession("")
	v, ok := mustParse(t, sess, "CREATE VIEW V1 AS SELECT X FROM A").(*SqlCreateView)
	require.True(t, ok)
	assert.Equal(t, KindCreateView, v.Kind())
	require.NotNil(t, v.Query)

	_, err := Parse(sess, "CREATE VIEW V2 AS SELECT NOPE FROM A")
	assert.True(t, sqlerr.Is(err, sqlerr.ColumnNotFound), "%v", err)

	// a forced view keeps the text of a body that does not bind
	v, ok = mustParse(t, sess, "CREATE FORCE VIEW V3 AS SELECT NOPE FROM A").(*SqlCreateView)
	require.True(t, ok)
	assert.True(t, v.Force)
	assert.Nil(t, v.Query)
	assert.Equal(t, "SELECT NOPE FROM A", v.QuerySQL)
}

func TestAlterTable(t *testing.T) {
	sess := testutil.NewSession("")

	ac, ok := mustParse(t, sess, "ALTER TABLE A ADD CONSTRAINT C1 CHECK (X > 0)").(*SqlAddConstraint)
	require.True(t, ok)
	assert.Equal(t, KindAddConstraint, ac.Kind())
	assert.Equal(t, "C1", ac.Name)
	assert.Equal(t, schema.ConstraintCheck, ac.Type)

	at, ok := mustParse(t, sess, "ALTER TABLE A ADD COLUMN Z INT").(*SqlAlterTable)
	require.True(t, ok)
	assert.Equal(t, AlterAddColumn, at.Action)
	require.Equal(t, 1, len(at.Columns))
	assert.Equal(t, "Z", at.Columns[0].Name)

	at, ok = mustParse(t, sess, "ALTER TABLE A ALTER COLUMN X SET NOT NULL").(*SqlAlterTable)
	require.True(t, ok)
	assert.Equal(t, AlterColumnNotNull, at.Action)
	assert.Equal(t, "X", at.Column)

	at, ok = mustParse(t, sess, "ALTER TABLE A DROP COLUMN Y").(*SqlAlterTable)
	require.True(t, ok)
	assert.Equal(t, AlterDropColumn, at.Action)
	assert.Equal(t, []string{"Y"}, at.Drop)

	_, err := Parse(sess, "ALTER TABLE NOPE DROP COLUMN X")
	assert.True(t, sqlerr.Is(err, sqlerr.TableOrViewNotFound), "%v", err)

	_, err = Parse(sess, "ALTER TABLE A DROP COLUMN NOPE")
	assert.True(t, sqlerr.Is(err, sqlerr.ColumnNotFound), "%v", err)
}

func TestAlterTableIfExistsNoOp(t *testing.T) {
	sess := testutil.NewSession("")
	for _, sql := range []string{
		"ALTER TABLE IF EXISTS NOPE DROP COLUMN X",
		"ALTER TABLE A DROP COLUMN IF EXISTS NOPE",
	} {
		stmt := mustParse(t, sess, sql)
		assert.Equal(t, KindNoOp, stmt.Kind(), sql)
	}
}

func TestDrop(t *testing.T) {
	sess := testutil.NewSession("")
	d, ok := mustParse(t, sess, "DROP TABLE A, S2.T CASCADE").(*SqlDrop)
	require.True(t, ok)
	assert.Equal(t, KindDrop, d.Kind())
	assert.Equal(t, schema.ObjectTable, d.Type)
	assert.Equal(t, []ObjectName{{Schema: "PUBLIC", Name: "A"}, {Schema: "S2", Name: "T"}}, d.Objects)
	assert.Equal(t, DropCascade, d.Action)
	assert.Equal(t, "DROP TABLE PUBLIC.A, S2.T CASCADE", d.String())

	d, ok = mustParse(t, sess, "DROP TABLE IF EXISTS NOPE").(*SqlDrop)
	require.True(t, ok)
	assert.True(t, d.IfExists)

	d, ok = mustParse(t, sess, "DROP ALL OBJECTS DELETE FILES").(*SqlDrop)
	require.True(t, ok)
	assert.True(t, d.AllObjects)
	assert.Equal(t, "DROP ALL OBJECTS DELETE FILES", d.String())
}

func TestCommentOnColumn(t *testing.T) {
	sess := testutil.NewSession("")
	for _, sql := range []string{
		"COMMENT ON COLUMN A.X IS 'the x'",
		"COMMENT ON COLUMN PUBLIC.A.X IS 'the x'",
		"COMMENT ON COLUMN TESTDB.PUBLIC.A.X IS 'the x'",
	} {
		c, ok := mustParse(t, sess, sql).(*SqlComment)
		require.True(t, ok, sql)
		assert.Equal(t, KindComment, c.Kind())
		assert.Equal(t, "PUBLIC", c.Schema, sql)
		assert.Equal(t, "A", c.Name, sql)
		assert.Equal(t, "X", c.Column, sql)
	}
	_, err := Parse(sess, "COMMENT ON COLUMN OTHERDB.PUBLIC.A.X IS 'the x'")
	assert.Equal(t, sqlerr.KindSyntax, sqlerr.KindOf(err))
}

func TestGrantRevoke(t *testing.T) {
	sess := testutil.NewSession("")
	g, ok := mustParse(t, sess, "GRANT SELECT, INSERT ON A, B TO U1").(*SqlGrantRevoke)
	require.True(t, ok)
	assert.True(t, g.Grant)
	assert.Equal(t, []Right{RightSelect, RightInsert}, g.Rights)
	assert.Equal(t, 2, len(g.Tables))
	assert.Equal(t, "U1", g.Grantee)

	g, ok = mustParse(t, sess, "REVOKE R1 FROM U1").(*SqlGrantRevoke)
	require.True(t, ok)
	assert.False(t, g.Grant)
	assert.Equal(t, []string{"R1"}, g.Roles)

	_, err := Parse(sess, "GRANT SELECT, R1 TO U1")
	assert.True(t, sqlerr.Is(err, sqlerr.RolesAndRightCannotBeMixed), "%v", err)
}

func TestCreateAliasOfBuiltin(t *testing.T) {
	sess := testutil.NewSession("")
	_, err := Parse(sess, `CREATE ALIAS ABS FOR "java.lang.Math.abs"`)
	assert.True(t, sqlerr.Is(err, sqlerr.FunctionAliasAlreadyExists), "%v", err)

	a, ok := mustParse(t, sess, `CREATE ALIAS MY_ABS DETERMINISTIC FOR "java.lang.Math.abs"`).(*SqlCreateAlias)
	require.True(t, ok)
	assert.True(t, a.Deterministic)
	assert.Equal(t, "java.lang.Math.abs", a.Method)
}

func TestCreateMisc(t *testing.T) {
	sess := testutil.NewSession("")

	_, err := Parse(sess, `CREATE CONSTANT "SELECT" VALUE 1`)
	assert.True(t, sqlerr.Is(err, sqlerr.ConstantAlreadyExists), "%v", err)

	_, err = Parse(sess, "CREATE USER U2")
	assert.Equal(t, sqlerr.KindSyntax, sqlerr.KindOf(err))
	cu, ok := mustParse(t, sess, "CREATE USER U2 PASSWORD 'secret' ADMIN").(*SqlCreateUser)
	require.True(t, ok)
	assert.True(t, cu.Admin)
	assert.NotNil(t, cu.Password)

	_, err = Parse(sess, "ALTER USER NOPE ADMIN TRUE")
	assert.True(t, sqlerr.Is(err, sqlerr.UserNotFound), "%v", err)

	cs, ok := mustParse(t, sess, "CREATE SCHEMA S3").(*SqlCreateSchema)
	require.True(t, ok)
	assert.Equal(t, schema.DefaultUser, cs.Authorization)

	seq, ok := mustParse(t, sess, "CREATE SEQUENCE SQ START WITH 10 INCREMENT BY 2 NOCYCLE").(*SqlCreateSequence)
	require.True(t, ok)
	require.NotNil(t, seq.Start)
	assert.Equal(t, "10", seq.Start.String())
	assert.Equal(t, "2", seq.Increment.String())
	assert.True(t, seq.NoCycle)

	tr, ok := mustParse(t, sess, `CREATE TRIGGER TR1 BEFORE INSERT, UPDATE ON A FOR EACH ROW CALL "org.Trig"`).(*SqlCreateTrigger)
	require.True(t, ok)
	assert.True(t, tr.Before)
	assert.True(t, tr.RowBased)
	assert.Equal(t, []string{"INSERT", "UPDATE"}, tr.Events)
	assert.Equal(t, "org.Trig", tr.Class)

	tt, ok := mustParse(t, sess, "TRUNCATE TABLE A RESTART IDENTITY").(*SqlTruncate)
	require.True(t, ok)
	assert.True(t, tt.Restart)
	assert.Equal(t, "A", tt.Table.Name)
}
