package qlfdriver

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araddon/qlfront/rel"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/testutil"
)

func TestMain(m *testing.M) {
	testutil.Setup()
	RegisterCatalog("fixture", testutil.NewCatalog(""))
	os.Exit(m.Run())
}

func TestPrepareThroughDatabaseSQL(t *testing.T) {
	db, err := sqlx.Connect(DriverName, "fixture")
	require.Nil(t, err)
	defer db.Close()

	stmt, err := db.Preparex("SELECT X, Y FROM A WHERE X = ?")
	require.Nil(t, err)
	defer stmt.Close()

	_, err = stmt.Exec(1)
	assert.Equal(t, ErrNotSupported, err)

	_, err = db.Preparex("SELECT NOPE FROM A")
	require.NotNil(t, err)
	assert.Equal(t, sqlerr.ColumnNotFound, sqlerr.CodeOf(err))

	_, err = db.Preparex("SELECT * FROM")
	require.NotNil(t, err)
	assert.Equal(t, sqlerr.KindSyntax, sqlerr.KindOf(err))
}

func TestDriverStatement(t *testing.T) {
	conn, err := (&qlfDriver{}).Open("fixture")
	require.Nil(t, err)

	s, err := conn.Prepare("SELECT X FROM A WHERE X = ?2 AND Y = ?1")
	require.Nil(t, err)
	assert.Equal(t, 2, s.NumInput())
	qs := s.(*qlfStmt)
	assert.Equal(t, rel.KindSelect, qs.stmt.Kind())

	_, err = conn.Begin()
	assert.Equal(t, ErrNotSupported, err)

	require.Nil(t, conn.Close())
	_, err = conn.Prepare("SELECT 1")
	assert.Equal(t, ErrClosed, err)
}

func TestUnknownCatalog(t *testing.T) {
	_, err := (&qlfDriver{}).Open("nothing-registered")
	assert.NotNil(t, err)

	conn, err := (&qlfDriver{}).Open("")
	require.Nil(t, err)
	_, err = conn.Prepare("SELECT 1")
	assert.Nil(t, err)
}
