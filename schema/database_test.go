package schema

import (
	"flag"
	"os"
	"testing"

	u "github.com/araddon/gou"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

var VerboseTests *bool = flag.Bool("vv", false, "Verbose Logging?")

func TestMain(m *testing.M) {
	flag.Parse()
	if *VerboseTests {
		u.SetupLogging("debug")
		u.SetColorOutput()
	}
	os.Exit(m.Run())
}

func newTestDb(t *testing.T) *Database {
	db, err := NewDatabase("testdb", nil, nil)
	require.Nil(t, err)
	return db
}

func TestNewDatabase(t *testing.T) {
	db := newTestDb(t)
	assert.Equal(t, "TESTDB", db.ShortName())
	assert.Equal(t, lex.RegularMode, db.Mode())
	assert.Equal(t, []string{InformationSchema, MainSchema}, db.SchemaNames())

	_, ok := db.FindUser(DefaultUser)
	assert.True(t, ok)
	help, ok := db.FindTable(InformationSchema, "HELP")
	require.True(t, ok)
	assert.Equal(t, TableTypeSystem, help.Type)
	_, ok = help.Column("TOPIC")
	assert.True(t, ok)

	lower, err := NewDatabase("mixed", nil, &Settings{})
	require.Nil(t, err)
	assert.Equal(t, "mixed", lower.ShortName())
}

func TestAddFindRemove(t *testing.T) {
	db := newTestDb(t)
	tbl := NewTable(MainSchema, "A", NewColumnType("X", "INT"), NewColumnType("Y", "VARCHAR"))
	require.Nil(t, db.AddObject(tbl))

	got, ok := db.FindTable(MainSchema, "A")
	require.True(t, ok)
	assert.Equal(t, tbl.ID, got.ID)
	assert.Equal(t, []string{"X", "Y"}, got.ColumnNames())
	_, ok = db.FindTable(MainSchema, "a")
	assert.False(t, ok)

	err := db.AddObject(NewTable(MainSchema, "A"))
	assert.True(t, sqlerr.Is(err, sqlerr.TableOrViewAlreadyExists))
	err = db.AddObject(NewSynonym(MainSchema, "A", MainSchema, "B"))
	assert.True(t, sqlerr.Is(err, sqlerr.TableOrViewAlreadyExists))
	err = db.AddObject(NewTable("NOPE", "A"))
	assert.True(t, sqlerr.Is(err, sqlerr.SchemaNotFound))

	require.Nil(t, db.AddObject(NewSequence(MainSchema, "SEQ")))
	_, ok = db.FindSequence(MainSchema, "SEQ")
	assert.True(t, ok)

	require.Nil(t, db.AddObject(NewIndex(MainSchema, "IDX_A", "A", "X")))
	assert.Equal(t, 1, len(db.IndexesOf(MainSchema, "A")))

	require.Nil(t, db.RemoveObject(tbl))
	_, ok = db.FindTable(MainSchema, "A")
	assert.False(t, ok)
	assert.Equal(t, ErrNotFound, db.RemoveObject(tbl))
}

func TestDropSchemaCascades(t *testing.T) {
	db := newTestDb(t)
	s := NewSchema("S1", DefaultUser)
	require.Nil(t, db.AddObject(s))
	require.Nil(t, db.AddObject(NewTable("S1", "T1")))
	require.Nil(t, db.AddObject(NewTable("S1", "T2")))
	require.Nil(t, db.AddObject(NewConstant("S1", "PI", value.NewStringValue("3.14"))))
	assert.Equal(t, 2, len(db.Tables("S1")))
	assert.Equal(t, "T1", db.Tables("S1")[0].Name)

	require.Nil(t, db.RemoveObject(s))
	assert.Equal(t, 0, len(db.Tables("S1")))
	_, ok := db.FindConstant("S1", "PI")
	assert.False(t, ok)
	assert.Equal(t, []string{InformationSchema, MainSchema}, db.SchemaNames())
}

func TestMetaLock(t *testing.T) {
	db := newTestDb(t)
	lock := db.LockMeta()
	view := NewView(MainSchema, "V", "SELECT 1")
	require.Nil(t, lock.AddObject(view))

	done := make(chan error)
	go func() {
		done <- db.AddObject(NewTable(MainSchema, "OTHER"))
	}()
	require.Nil(t, lock.RemoveObject(view))
	lock.Unlock()
	lock.Unlock()
	assert.Nil(t, <-done)

	_, ok := db.FindTable(MainSchema, "V")
	assert.False(t, ok)
	_, ok = db.FindTable(MainSchema, "OTHER")
	assert.True(t, ok)
}

func TestSession(t *testing.T) {
	db := newTestDb(t)
	require.Nil(t, db.AddObject(NewSchema("S1", DefaultUser)))
	require.Nil(t, db.AddObject(NewTable("S1", "T1")))
	require.Nil(t, db.AddObject(NewSynonym(MainSchema, "SYN", "S1", "T1")))
	require.Nil(t, db.AddObject(NewSequence("S1", "SEQ")))

	s := NewSession(db, "")
	assert.Equal(t, MainSchema, s.CurrentSchema())
	assert.True(t, sqlerr.Is(s.SetCurrentSchema("NOPE"), sqlerr.SchemaNotFound))

	tbl, ok := s.ResolveTable(MainSchema, "SYN")
	require.True(t, ok)
	assert.Equal(t, "T1", tbl.Name)
	_, ok = s.FindTableOrView(MainSchema, "SYN")
	assert.False(t, ok)

	_, ok = s.FindSequence(MainSchema, "SEQ")
	assert.False(t, ok)
	s.SetSearchPath([]string{"S1"})
	_, ok = s.FindSequence(MainSchema, "SEQ")
	assert.True(t, ok)

	tmp := NewTable(MainSchema, "TMP")
	require.Nil(t, s.AddLocalTempTable(tmp))
	assert.True(t, tmp.Temporary)
	_, ok = s.ResolveTable("S1", "TMP")
	assert.True(t, ok)
	s.RemoveLocalTempTable(tmp)
	_, ok = s.FindLocalTempTable("TMP")
	assert.False(t, ok)

	sch, ok := s.FindSchema("SESSION")
	require.True(t, ok)
	assert.Equal(t, MainSchema, sch.Name)

	s.SetVariable("X", value.NewIntValue(1))
	assert.Equal(t, value.NewIntValue(1), s.Variable("X"))
	s.SetVariable("X", nil)
	assert.True(t, s.Variable("X").Nil())

	assert.Equal(t, "_1", s.NextSystemIdentifier("select _0 from t"))

	s.SetParsingView(true, "V")
	assert.True(t, s.ParsingView())
	s.SetParsingView(false, "V")
	assert.False(t, s.ParsingView())
}

func TestSettings(t *testing.T) {
	assert.True(t, IsSetting("allow_literals"))
	assert.False(t, IsSetting("NO_SUCH_SETTING"))
	RegisterSetting("MY_SETTING")
	assert.True(t, IsSetting("MY_SETTING"))
	names := SettingNames()
	assert.Equal(t, "ALLOW_LITERALS", names[0])

	s := DefaultSettings()
	c := s.Clone()
	c.RowID = true
	assert.False(t, s.RowID)
}

func TestColumnSQL(t *testing.T) {
	c := NewColumnType("ID", "BIGINT")
	c.Nullable = false
	c.Default = "1"
	assert.Equal(t, "ID BIGINT DEFAULT 1 NOT NULL", c.SQL())

	fa := NewFunctionAlias(MainSchema, "F")
	assert.True(t, fa.Accepts(3))
	fa.ParamCounts = []int{1}
	assert.False(t, fa.Accepts(2))
}
