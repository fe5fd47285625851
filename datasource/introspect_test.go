package datasource

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araddon/qlfront/rel"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/value"
)

func TestIntrospectSqlite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	db, err := sqlx.Connect("sqlite3", path)
	require.Nil(t, err)
	db.MustExec(`create table users (id integer primary key, name varchar(40) not null, bio text)`)
	db.MustExec(`create table "Orders" (id integer, user_id integer, total decimal(10,2), primary key (id))`)
	db.MustExec(`create view v_users as select id from users`)
	require.Nil(t, db.Close())

	ctx := context.Background()
	cat, err := Introspect(ctx, "sqlite3:"+path)
	require.Nil(t, err)
	assert.Equal(t, "SQLITE3", cat.ShortName())

	users, ok := cat.FindTable(schema.MainSchema, "USERS")
	require.True(t, ok)
	assert.Equal(t, []string{"ID", "NAME", "BIO"}, users.ColumnNames())
	id, _ := users.Column("ID")
	assert.True(t, id.PrimaryKey)
	assert.Equal(t, value.IntType, id.Type.Type)
	name, _ := users.Column("NAME")
	assert.False(t, name.Nullable)
	assert.Equal(t, int64(40), name.Type.Precision)
	bio, _ := users.Column("BIO")
	assert.True(t, bio.Nullable)
	assert.Equal(t, value.ClobType, bio.Type.Type)

	orders, ok := cat.FindTable(schema.MainSchema, "ORDERS")
	require.True(t, ok)
	total, _ := orders.Column("TOTAL")
	assert.Equal(t, value.DecimalType, total.Type.Type)
	assert.Equal(t, 2, total.Type.Scale)
	_, ok = cat.FindConstraint(schema.MainSchema, "PK_ORDERS")
	assert.True(t, ok)

	// views are not tables
	_, ok = cat.FindTable(schema.MainSchema, "V_USERS")
	assert.False(t, ok)

	sess := schema.NewSession(cat, "")
	stmt, err := rel.Parse(sess, "SELECT u.name, o.total FROM users u LEFT JOIN orders o ON o.user_id = u.id")
	require.Nil(t, err)
	assert.Equal(t, rel.KindSelect, stmt.Kind())
}

func TestIntrospectBadSource(t *testing.T) {
	ctx := context.Background()
	_, err := Introspect(ctx, "nodsn")
	assert.NotNil(t, err)
	_, err = Introspect(ctx, "oracle:scott/tiger")
	assert.NotNil(t, err)
}

func TestDialectRegistry(t *testing.T) {
	assert.Equal(t, []string{"mssql", "mysql", "postgres", "sqlite3", "sqlserver"}, Drivers())
	d, ok := DialectFor("mysql")
	require.True(t, ok)
	assert.Equal(t, "MySQL", d.Mode().Name)
	d, _ = DialectFor("mssql")
	assert.Equal(t, "MSSQLServer", d.Mode().Name)

	assert.Panics(t, func() { RegisterDialect("sqlite3", &sqliteDialect{}) })
}

func TestRemoteSchemaNames(t *testing.T) {
	assert.Equal(t, "PUBLIC", remoteSchema("dbo"))
	assert.Equal(t, "PUBLIC", remoteSchema("public"))
	assert.Equal(t, "PUBLIC", remoteSchema(""))
	assert.Equal(t, "SALES", remoteSchema("sales"))
}
