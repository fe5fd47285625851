package schema

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	u "github.com/araddon/gou"
	"github.com/google/btree"
	"github.com/hashicorp/go-memdb"

	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/sqlerr"
)

var (
	_ Catalog  = (*Database)(nil)
	_ MetaLock = (*metaLock)(nil)

	allObjectTypes = []ObjectType{ObjectSchema, ObjectTable, ObjectIndex, ObjectSequence,
		ObjectAlias, ObjectConstant, ObjectConstraint, ObjectTrigger, ObjectSynonym,
		ObjectAggregate, ObjectDomain, ObjectUser, ObjectRole}
)

// Database is an in-memory Catalog.  Objects live in a go-memdb store with
// one table per object kind, reads are snapshot transactions so a lookup
// never sees a half applied change.
type Database struct {
	name     string
	db       *memdb.MemDB
	meta     sync.Mutex
	mu       sync.RWMutex
	mode     *lex.Mode
	settings *Settings
	// ordered schema names
	schemaNames *btree.BTree
	// version counts catalog changes other than statement scoped views
	version uint64
}

type nameItem string

func (m nameItem) Less(than btree.Item) bool { return m < than.(nameItem) }

func tableName(t ObjectType) string { return strings.ToLower(t.String()) }

func makeCatalogSchema() *memdb.DBSchema {
	s := &memdb.DBSchema{Tables: make(map[string]*memdb.TableSchema)}
	for _, ot := range allObjectTypes {
		ts := &memdb.TableSchema{
			Name:    tableName(ot),
			Indexes: make(map[string]*memdb.IndexSchema),
		}
		ts.Indexes["uuid"] = &memdb.IndexSchema{
			Name:    "uuid",
			Unique:  true,
			Indexer: &memdb.StringFieldIndex{Field: "ID"},
		}
		if ot.schemaScoped() {
			ts.Indexes["id"] = &memdb.IndexSchema{
				Name:   "id",
				Unique: true,
				Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
					&memdb.StringFieldIndex{Field: "Schema"},
					&memdb.StringFieldIndex{Field: "Name"},
				}},
			}
			ts.Indexes["schema"] = &memdb.IndexSchema{
				Name:    "schema",
				Indexer: &memdb.StringFieldIndex{Field: "Schema"},
			}
		} else {
			ts.Indexes["id"] = &memdb.IndexSchema{
				Name:    "id",
				Unique:  true,
				Indexer: &memdb.StringFieldIndex{Field: "Name"},
			}
		}
		switch ot {
		case ObjectIndex, ObjectConstraint, ObjectTrigger:
			ts.Indexes["table"] = &memdb.IndexSchema{
				Name: "table",
				Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
					&memdb.StringFieldIndex{Field: "Schema"},
					&memdb.StringFieldIndex{Field: "Table"},
				}},
			}
		}
		s.Tables[ts.Name] = ts
	}
	return s
}

// NewDatabase creates a database holding the main schema, the information
// schema and the default admin user.  A nil @mode is the regular mode, nil
// @settings are the defaults.
func NewDatabase(name string, mode *lex.Mode, settings *Settings) (*Database, error) {
	if mode == nil {
		mode = lex.RegularMode
	}
	if settings == nil {
		settings = DefaultSettings()
	}
	db, err := memdb.NewMemDB(makeCatalogSchema())
	if err != nil {
		u.Warnf("could not create catalog store %v", err)
		return nil, err
	}
	if settings.IdentifiersToUpper {
		name = strings.ToUpper(name)
	}
	m := &Database{
		name:        name,
		db:          db,
		mode:        mode,
		settings:    settings,
		schemaNames: btree.New(4),
	}
	for _, obj := range []Object{
		NewUser(DefaultUser, true),
		NewSchema(MainSchema, DefaultUser),
		NewSchema(InformationSchema, DefaultUser),
	} {
		if err := m.AddObject(obj); err != nil {
			return nil, err
		}
	}
	for _, t := range informationSchemaTables() {
		if err := m.AddObject(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Database) ShortName() string { return m.name }

// Version changes whenever an object is added or removed, statements bound
// against an older version may refer to objects that are gone.
func (m *Database) Version() uint64 { return atomic.LoadUint64(&m.version) }

func (m *Database) changed(obj Object) {
	if t, ok := obj.(*Table); ok && t.TableExpression {
		return
	}
	atomic.AddUint64(&m.version, 1)
}

func (m *Database) Mode() *lex.Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// SetMode switches the compatibility mode for statements parsed afterwards.
func (m *Database) SetMode(mode *lex.Mode) {
	m.mu.Lock()
	m.mode = mode
	m.mu.Unlock()
}

func (m *Database) Settings() *Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

func (m *Database) first(ot ObjectType, args ...interface{}) (interface{}, bool) {
	txn := m.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tableName(ot), "id", args...)
	if err != nil {
		u.Warnf("catalog lookup %s %v failed: %v", ot, args, err)
		return nil, false
	}
	return raw, raw != nil
}

func (m *Database) FindSchema(name string) (*Schema, bool) {
	raw, ok := m.first(ObjectSchema, name)
	if !ok {
		return nil, false
	}
	return raw.(*Schema), true
}

func (m *Database) SchemaNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, m.schemaNames.Len())
	m.schemaNames.Ascend(func(i btree.Item) bool {
		names = append(names, string(i.(nameItem)))
		return true
	})
	return names
}

func (m *Database) FindTable(schema, name string) (*Table, bool) {
	raw, ok := m.first(ObjectTable, schema, name)
	if !ok {
		return nil, false
	}
	return raw.(*Table), true
}

func (m *Database) FindSynonym(schema, name string) (*Synonym, bool) {
	raw, ok := m.first(ObjectSynonym, schema, name)
	if !ok {
		return nil, false
	}
	return raw.(*Synonym), true
}

func (m *Database) FindIndex(schema, name string) (*Index, bool) {
	raw, ok := m.first(ObjectIndex, schema, name)
	if !ok {
		return nil, false
	}
	return raw.(*Index), true
}

func (m *Database) FindSequence(schema, name string) (*Sequence, bool) {
	raw, ok := m.first(ObjectSequence, schema, name)
	if !ok {
		return nil, false
	}
	return raw.(*Sequence), true
}

func (m *Database) FindFunctionAlias(schema, name string) (*FunctionAlias, bool) {
	raw, ok := m.first(ObjectAlias, schema, name)
	if !ok {
		return nil, false
	}
	return raw.(*FunctionAlias), true
}

func (m *Database) FindConstant(schema, name string) (*Constant, bool) {
	raw, ok := m.first(ObjectConstant, schema, name)
	if !ok {
		return nil, false
	}
	return raw.(*Constant), true
}

func (m *Database) FindConstraint(schema, name string) (*Constraint, bool) {
	raw, ok := m.first(ObjectConstraint, schema, name)
	if !ok {
		return nil, false
	}
	return raw.(*Constraint), true
}

func (m *Database) FindTrigger(schema, name string) (*Trigger, bool) {
	raw, ok := m.first(ObjectTrigger, schema, name)
	if !ok {
		return nil, false
	}
	return raw.(*Trigger), true
}

func (m *Database) FindAggregate(name string) (*UserAggregate, bool) {
	raw, ok := m.first(ObjectAggregate, name)
	if !ok {
		return nil, false
	}
	return raw.(*UserAggregate), true
}

func (m *Database) FindDomain(name string) (*Domain, bool) {
	raw, ok := m.first(ObjectDomain, name)
	if !ok {
		return nil, false
	}
	return raw.(*Domain), true
}

func (m *Database) FindUser(name string) (*User, bool) {
	raw, ok := m.first(ObjectUser, name)
	if !ok {
		return nil, false
	}
	return raw.(*User), true
}

func (m *Database) FindRole(name string) (*Role, bool) {
	raw, ok := m.first(ObjectRole, name)
	if !ok {
		return nil, false
	}
	return raw.(*Role), true
}

func (m *Database) Tables(schema string) []*Table {
	txn := m.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableName(ObjectTable), "schema", schema)
	if err != nil {
		u.Warnf("could not list tables of %q: %v", schema, err)
		return nil
	}
	var out []*Table
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*Table))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IndexesOf lists the indexes defined on a table.
func (m *Database) IndexesOf(schema, table string) []*Index {
	txn := m.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableName(ObjectIndex), "table", schema, table)
	if err != nil {
		return nil
	}
	var out []*Index
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*Index))
	}
	return out
}

// AddObject registers @obj, failing when the name is taken or the schema of
// a schema object does not exist.
func (m *Database) AddObject(obj Object) error {
	m.meta.Lock()
	defer m.meta.Unlock()
	return m.addObject(obj)
}

// RemoveObject drops @obj, dropping a schema drops everything in it.
func (m *Database) RemoveObject(obj Object) error {
	m.meta.Lock()
	defer m.meta.Unlock()
	return m.removeObject(obj)
}

// LockMeta holds off all other catalog writers until Unlock.
func (m *Database) LockMeta() MetaLock {
	m.meta.Lock()
	u.Debugf("catalog %s meta lock taken", m.name)
	return &metaLock{db: m}
}

type metaLock struct {
	db   *Database
	once sync.Once
}

func (l *metaLock) AddObject(obj Object) error    { return l.db.addObject(obj) }
func (l *metaLock) RemoveObject(obj Object) error { return l.db.removeObject(obj) }
func (l *metaLock) Unlock() {
	l.once.Do(func() {
		u.Debugf("catalog %s meta lock released", l.db.name)
		l.db.meta.Unlock()
	})
}

func existsError(obj Object) *sqlerr.Error {
	name := obj.Meta().Name
	switch obj.ObjectType() {
	case ObjectSchema:
		return sqlerr.New(sqlerr.SchemaAlreadyExists, name)
	case ObjectTable, ObjectSynonym:
		return sqlerr.New(sqlerr.TableOrViewAlreadyExists, name)
	case ObjectIndex:
		return sqlerr.New(sqlerr.IndexAlreadyExists, name)
	case ObjectSequence:
		return sqlerr.New(sqlerr.SequenceAlreadyExists, name)
	case ObjectAlias, ObjectAggregate:
		return sqlerr.New(sqlerr.FunctionAliasAlreadyExists, name)
	case ObjectConstant:
		return sqlerr.New(sqlerr.ConstantAlreadyExists, name)
	case ObjectConstraint:
		return sqlerr.New(sqlerr.ConstraintAlreadyExists, name)
	case ObjectTrigger:
		return sqlerr.New(sqlerr.TriggerAlreadyExists, name)
	case ObjectDomain:
		return sqlerr.New(sqlerr.UserDataTypeAlreadyExists, name)
	case ObjectUser:
		return sqlerr.New(sqlerr.UserAlreadyExists, name)
	case ObjectRole:
		return sqlerr.New(sqlerr.RoleAlreadyExists, name)
	}
	return sqlerr.New(sqlerr.FeatureNotSupported, obj.ObjectType().String())
}

func (m *Database) addObject(obj Object) error {
	meta := obj.Meta()
	ot := obj.ObjectType()
	txn := m.db.Txn(true)
	defer txn.Abort()
	if ot.schemaScoped() {
		if raw, _ := txn.First(tableName(ObjectSchema), "id", meta.Schema); raw == nil {
			return sqlerr.New(sqlerr.SchemaNotFound, meta.Schema)
		}
	}
	args := []interface{}{meta.Name}
	if ot.schemaScoped() {
		args = []interface{}{meta.Schema, meta.Name}
	}
	if raw, _ := txn.First(tableName(ot), "id", args...); raw != nil {
		return existsError(obj)
	}
	// tables and synonyms share one namespace
	switch ot {
	case ObjectTable:
		if raw, _ := txn.First(tableName(ObjectSynonym), "id", args...); raw != nil {
			return existsError(obj)
		}
	case ObjectSynonym:
		if raw, _ := txn.First(tableName(ObjectTable), "id", args...); raw != nil {
			return existsError(obj)
		}
	}
	if err := txn.Insert(tableName(ot), obj); err != nil {
		return err
	}
	txn.Commit()
	m.changed(obj)
	if ot == ObjectSchema {
		m.mu.Lock()
		m.schemaNames.ReplaceOrInsert(nameItem(meta.Name))
		m.mu.Unlock()
	}
	u.Debugf("catalog %s added %s %s", m.name, ot, meta.SQL())
	return nil
}

func (m *Database) removeObject(obj Object) error {
	meta := obj.Meta()
	ot := obj.ObjectType()
	txn := m.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(tableName(ot), "uuid", meta.ID)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	if err := txn.Delete(tableName(ot), raw); err != nil {
		return err
	}
	if ot == ObjectSchema {
		for _, st := range allObjectTypes {
			if !st.schemaScoped() {
				continue
			}
			if _, err := txn.DeleteAll(tableName(st), "schema", meta.Name); err != nil {
				return err
			}
		}
	}
	txn.Commit()
	m.changed(obj)
	if ot == ObjectSchema {
		m.mu.Lock()
		m.schemaNames.Delete(nameItem(meta.Name))
		m.mu.Unlock()
	}
	u.Debugf("catalog %s removed %s %s", m.name, ot, meta.SQL())
	return nil
}

func informationSchemaTables() []*Table {
	cols := func(spec ...string) []*Column {
		out := make([]*Column, 0, len(spec)/2)
		for i := 0; i+1 < len(spec); i += 2 {
			out = append(out, NewColumnType(spec[i], spec[i+1]))
		}
		return out
	}
	tables := []*Table{
		NewTable(InformationSchema, "HELP", cols(
			"ID", "INT", "SECTION", "VARCHAR", "TOPIC", "VARCHAR", "SYNTAX", "VARCHAR", "TEXT", "VARCHAR")...),
		NewTable(InformationSchema, "SCHEMATA", cols(
			"CATALOG_NAME", "VARCHAR", "SCHEMA_NAME", "VARCHAR", "SCHEMA_OWNER", "VARCHAR",
			"DEFAULT_CHARACTER_SET_NAME", "VARCHAR", "IS_DEFAULT", "BOOLEAN", "REMARKS", "VARCHAR")...),
		NewTable(InformationSchema, "TABLES", cols(
			"TABLE_CATALOG", "VARCHAR", "TABLE_SCHEMA", "VARCHAR", "TABLE_NAME", "VARCHAR",
			"TABLE_TYPE", "VARCHAR", "STORAGE_TYPE", "VARCHAR", "SQL", "VARCHAR", "REMARKS", "VARCHAR")...),
		NewTable(InformationSchema, "COLUMNS", cols(
			"TABLE_CATALOG", "VARCHAR", "TABLE_SCHEMA", "VARCHAR", "TABLE_NAME", "VARCHAR",
			"COLUMN_NAME", "VARCHAR", "ORDINAL_POSITION", "INT", "COLUMN_DEFAULT", "VARCHAR",
			"IS_NULLABLE", "VARCHAR", "DATA_TYPE", "INT", "TYPE_NAME", "VARCHAR",
			"NUMERIC_PRECISION", "INT", "NUMERIC_SCALE", "INT", "REMARKS", "VARCHAR")...),
		NewTable(InformationSchema, "INDEXES", cols(
			"TABLE_CATALOG", "VARCHAR", "TABLE_SCHEMA", "VARCHAR", "TABLE_NAME", "VARCHAR",
			"NON_UNIQUE", "BOOLEAN", "INDEX_NAME", "VARCHAR", "ORDINAL_POSITION", "SMALLINT",
			"COLUMN_NAME", "VARCHAR", "PRIMARY_KEY", "BOOLEAN", "INDEX_TYPE_NAME", "VARCHAR")...),
		NewTable(InformationSchema, "SEQUENCES", cols(
			"SEQUENCE_CATALOG", "VARCHAR", "SEQUENCE_SCHEMA", "VARCHAR", "SEQUENCE_NAME", "VARCHAR",
			"CURRENT_VALUE", "BIGINT", "INCREMENT", "BIGINT", "MIN_VALUE", "BIGINT", "MAX_VALUE", "BIGINT")...),
		NewTable(InformationSchema, "SETTINGS", cols("NAME", "VARCHAR", "VALUE", "VARCHAR")...),
		NewTable(InformationSchema, "USERS", cols("NAME", "VARCHAR", "ADMIN", "VARCHAR", "REMARKS", "VARCHAR")...),
	}
	for _, t := range tables {
		t.Type = TableTypeSystem
		t.Persistent = false
	}
	return tables
}
