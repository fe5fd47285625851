package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araddon/qlfront/rel"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/value"
)

var shopCatalog = `
name: shop
mode: mysql
users:
  - {name: app, admin: false}
roles: [reader]
domains:
  - {name: email, type: "varchar(200)", not_null: true}
schemas:
  - name: public
    tables:
      - name: orders
        primary_key: [id]
        columns:
          - {name: id, type: bigint, auto_increment: true}
          - {name: customer_id, type: int}
          - {name: total, type: "decimal(10,2)"}
          - {name: placed, type: datetime}
    views:
      - name: big_orders
        query: SELECT ID, TOTAL FROM ORDERS WHERE TOTAL > 100
        columns:
          - {name: id, type: bigint}
          - {name: total, type: "decimal(10,2)"}
    sequences: [order_seq]
    constants:
      - {name: small, value: 7}
      - {name: huge, value: 5000000000}
      - {name: label, value: shop}
    synonyms:
      - {name: o, table: orders}
    indexes:
      - {name: idx_orders_customer, table: orders, columns: [customer_id]}
  - name: sales
    owner: app
    tables:
      - name: customers
        columns:
          - {name: id, type: int, not_null: true}
          - {name: name, type: "varchar(50)"}
`

func TestLoadCatalog(t *testing.T) {
	db, err := LoadCatalog([]byte(shopCatalog))
	require.Nil(t, err)
	assert.Equal(t, "SHOP", db.ShortName())
	assert.Equal(t, "MySQL", db.Mode().Name)

	orders, ok := db.FindTable(schema.MainSchema, "ORDERS")
	require.True(t, ok)
	assert.Equal(t, []string{"ID", "CUSTOMER_ID", "TOTAL", "PLACED"}, orders.ColumnNames())
	id, _ := orders.Column("ID")
	assert.True(t, id.PrimaryKey)
	assert.False(t, id.Nullable)
	assert.True(t, id.AutoIncrement)
	total, _ := orders.Column("TOTAL")
	assert.Equal(t, int64(10), total.Type.Precision)
	assert.Equal(t, 2, total.Type.Scale)

	_, ok = db.FindConstraint(schema.MainSchema, "PK_ORDERS")
	assert.True(t, ok)
	_, ok = db.FindIndex(schema.MainSchema, "IDX_ORDERS_CUSTOMER")
	assert.True(t, ok)
	_, ok = db.FindSequence(schema.MainSchema, "ORDER_SEQ")
	assert.True(t, ok)
	_, ok = db.FindSynonym(schema.MainSchema, "O")
	assert.True(t, ok)
	_, ok = db.FindUser("APP")
	assert.True(t, ok)
	_, ok = db.FindRole("READER")
	assert.True(t, ok)
	dom, ok := db.FindDomain("EMAIL")
	require.True(t, ok)
	assert.False(t, dom.Column.Nullable)

	sales, ok := db.FindSchema("SALES")
	require.True(t, ok)
	assert.Equal(t, "APP", sales.Owner)
	_, ok = db.FindTable("SALES", "CUSTOMERS")
	assert.True(t, ok)

	small, ok := db.FindConstant(schema.MainSchema, "SMALL")
	require.True(t, ok)
	assert.Equal(t, value.IntType, small.Value.Type())
	huge, _ := db.FindConstant(schema.MainSchema, "HUGE")
	assert.Equal(t, value.LongType, huge.Value.Type())
	label, _ := db.FindConstant(schema.MainSchema, "LABEL")
	assert.Equal(t, value.StringType, label.Value.Type())
}

func TestLoadedCatalogBinds(t *testing.T) {
	db, err := LoadCatalog([]byte(shopCatalog))
	require.Nil(t, err)
	sess := schema.NewSession(db, "")

	stmt, err := rel.Parse(sess, "SELECT o.id, c.name FROM orders o, sales.customers c WHERE o.customer_id = c.id")
	require.Nil(t, err)
	assert.Equal(t, rel.KindSelect, stmt.Kind())

	_, err = rel.Parse(sess, "SELECT missing FROM orders")
	assert.NotNil(t, err)
}

func TestLoadCatalogErrors(t *testing.T) {
	// unknown keys are rejected
	_, err := LoadCatalog([]byte("name: x\ntabels: []\n"))
	assert.NotNil(t, err)

	_, err = LoadCatalog([]byte("mode: NotAMode\n"))
	assert.NotNil(t, err)

	_, err = LoadCatalog([]byte(`
schemas:
  - name: public
    tables:
      - name: t
        columns:
          - {name: a, type: nosuchtype}
`))
	assert.NotNil(t, err)

	_, err = LoadCatalog([]byte(`
schemas:
  - name: public
    tables:
      - name: t
        primary_key: [b]
        columns:
          - {name: a, type: int}
`))
	assert.NotNil(t, err)

	// defaults when the file names nothing
	db, err := LoadCatalog([]byte("{}"))
	require.Nil(t, err)
	assert.Equal(t, DefaultCatalogName, db.ShortName())
}
