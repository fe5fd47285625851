package rel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/testutil"
)

func TestCacheHitAndMiss(t *testing.T) {
	sess := testutil.NewSession("")
	c := NewCache(4)

	s1, err := c.Parse(sess, "SELECT X FROM A")
	require.Nil(t, err)
	s2, err := c.Parse(sess, "SELECT X FROM A")
	require.Nil(t, err)
	assert.True(t, s1 == s2, "second parse is served from the cache")

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 1, c.Len())

	// different text, different entry
	_, err = c.Parse(sess, "SELECT Y FROM A")
	require.Nil(t, err)
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCacheSkipsDDLAndRecompile(t *testing.T) {
	sess := testutil.NewSession("")
	c := NewCache(4)

	_, err := c.Parse(sess, "CREATE TABLE T9(ID INT)")
	require.Nil(t, err)
	_, err = c.Parse(sess, "WITH W AS (SELECT X FROM A) SELECT X FROM W")
	require.Nil(t, err)
	assert.Equal(t, 0, c.Len())

	// errors are not cached either
	_, err = c.Parse(sess, "SELECT NOPE FROM A")
	assert.NotNil(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCacheInvalidatedByCatalogChange(t *testing.T) {
	db := testutil.NewCatalog("")
	sess := schema.NewSession(db, "")
	c := NewCache(4)

	s1, err := c.Parse(sess, "SELECT * FROM A")
	require.Nil(t, err)

	before := db.Version()
	require.Nil(t, db.AddObject(schema.NewTable(schema.MainSchema, "FRESH", schema.NewColumnType("ID", "INT"))))
	assert.True(t, db.Version() > before)

	s2, err := c.Parse(sess, "SELECT * FROM A")
	require.Nil(t, err)
	assert.True(t, s1 != s2, "catalog change forces a new parse")
	assert.Equal(t, 1, c.Len())
}

func TestCacheScopedBySchema(t *testing.T) {
	db := testutil.NewCatalog("")
	c := NewCache(4)

	pub := schema.NewSession(db, "")
	s1, err := c.Parse(pub, "SELECT 1")
	require.Nil(t, err)

	other := schema.NewSession(db, "")
	require.Nil(t, other.SetCurrentSchema("S2"))
	s2, err := c.Parse(other, "SELECT 1")
	require.Nil(t, err)
	assert.True(t, s1 != s2)
	assert.Equal(t, 2, c.Len())
}
