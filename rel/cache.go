package rel

import (
	"strings"
	"sync"

	u "github.com/araddon/gou"
	"github.com/dchest/siphash"
	"github.com/golang/groupcache/lru"

	"github.com/araddon/qlfront/schema"
)

const (
	cacheKey0 = 456729
	cacheKey1 = 1111581582
)

// DefaultCacheSize is the number of statements a Cache keeps unless told
// otherwise.
const DefaultCacheSize = 256

// versioned catalogs report a change counter, a cached statement is only
// reused while it did not move.
type versioned interface {
	Version() uint64
}

type cacheEntry struct {
	sql     string
	scope   string
	version uint64
	stmt    Prepared
}

// Cache is a bounded cache of parsed statements keyed by SQL text, mode and
// the session's schema and search path.  Statements marked AlwaysRecompile
// and DDL are never cached.  Returned statements are shared between callers
// and must not be modified.
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	hits   uint64
	misses uint64
}

// NewCache creates a cache holding at most @size statements.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{lru: lru.New(size)}
}

// cacheScope is everything besides the text that changes how a statement
// binds.
func cacheScope(session *schema.Session) string {
	return session.Mode().String() + "\x00" + session.CurrentSchema() + "\x00" +
		strings.Join(session.SearchPath(), ",")
}

func catalogVersion(cat schema.Catalog) uint64 {
	if v, ok := cat.(versioned); ok {
		return v.Version()
	}
	return 0
}

func cacheable(stmt Prepared) bool {
	if stmt.AlwaysRecompile() {
		return false
	}
	k := stmt.Kind()
	return k < KindCreateTable || k > KindGrantRevoke
}

// Parse returns the cached statement for @sql or parses it with a new
// Parser of @session.
func (c *Cache) Parse(session *schema.Session, sql string) (Prepared, error) {
	scope := cacheScope(session)
	version := catalogVersion(session.Catalog)
	key := siphash.Hash(cacheKey0, cacheKey1, []byte(scope+"\x00"+sql))

	c.mu.Lock()
	if raw, ok := c.lru.Get(key); ok {
		e := raw.(*cacheEntry)
		if e.sql == sql && e.scope == scope && e.version == version {
			c.hits++
			c.mu.Unlock()
			u.Debugf("statement cache hit %q", sql)
			return e.stmt, nil
		}
		c.lru.Remove(key)
	}
	c.misses++
	c.mu.Unlock()

	stmt, err := NewParser(session).Parse(sql)
	if err != nil {
		return nil, err
	}
	if !cacheable(stmt) {
		return stmt, nil
	}
	c.mu.Lock()
	c.lru.Add(key, &cacheEntry{sql: sql, scope: scope, version: version, stmt: stmt})
	c.mu.Unlock()
	return stmt, nil
}

// Len is the number of cached statements.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Purge drops every cached statement.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.lru.Clear()
	c.mu.Unlock()
}
