package schema

import (
	"strconv"
	"strings"

	"github.com/pborman/uuid"

	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/value"
)

// ObjectType is the kind of a catalog object.
type ObjectType uint8

const (
	// DO NOT CHANGE the numbers, they index the memdb tables
	ObjectSchema     ObjectType = 0
	ObjectTable      ObjectType = 1
	ObjectIndex      ObjectType = 2
	ObjectSequence   ObjectType = 3
	ObjectAlias      ObjectType = 4
	ObjectConstant   ObjectType = 5
	ObjectConstraint ObjectType = 6
	ObjectTrigger    ObjectType = 7
	ObjectSynonym    ObjectType = 8
	ObjectAggregate  ObjectType = 9
	ObjectDomain     ObjectType = 10
	ObjectUser       ObjectType = 11
	ObjectRole       ObjectType = 12
)

var objectTypeNames = map[ObjectType]string{
	ObjectSchema:     "SCHEMA",
	ObjectTable:      "TABLE",
	ObjectIndex:      "INDEX",
	ObjectSequence:   "SEQUENCE",
	ObjectAlias:      "ALIAS",
	ObjectConstant:   "CONSTANT",
	ObjectConstraint: "CONSTRAINT",
	ObjectTrigger:    "TRIGGER",
	ObjectSynonym:    "SYNONYM",
	ObjectAggregate:  "AGGREGATE",
	ObjectDomain:     "DOMAIN",
	ObjectUser:       "USER",
	ObjectRole:       "ROLE",
}

func (m ObjectType) String() string { return objectTypeNames[m] }

// schemaScoped object kinds are keyed by (Schema, Name), the others by Name.
func (m ObjectType) schemaScoped() bool {
	switch m {
	case ObjectSchema, ObjectAggregate, ObjectDomain, ObjectUser, ObjectRole:
		return false
	}
	return true
}

// Object is any catalog object.
type Object interface {
	Meta() *DbObject
	ObjectType() ObjectType
}

// DbObject is the identity shared by all catalog objects.
type DbObject struct {
	ID        string
	Schema    string // empty for database level objects
	Name      string
	Comment   string
	Temporary bool
}

func newDbObject(schema, name string) DbObject {
	return DbObject{ID: uuid.NewRandom().String(), Schema: schema, Name: name}
}

func (m *DbObject) Meta() *DbObject { return m }

// SQL is the quoted, schema qualified name.
func (m *DbObject) SQL() string {
	if m.Schema == "" {
		return lex.QuoteIdentifierIfNeeded(m.Name)
	}
	return lex.QuoteIdentifierIfNeeded(m.Schema) + "." + lex.QuoteIdentifierIfNeeded(m.Name)
}

type (
	// Schema is a named namespace of tables, sequences, aliases etc.
	Schema struct {
		DbObject
		Owner string
	}

	// TableType tells plain tables from views, linked and system tables
	TableType uint8

	// Table is a table or a view.  Views carry their query text, the
	// parser never looks into a view body once it is created.
	Table struct {
		DbObject
		Type       TableType
		Columns    []*Column
		Global     bool
		Persistent bool
		Hidden     bool
		Engine     string
		// Query is the view body
		Query string
		// Recursive marks a view that refers to itself (WITH RECURSIVE)
		Recursive bool
		// TableExpression views are created by WITH and live only as long
		// as the statement that declared them
		TableExpression bool
		// Linked table connection
		Driver       string
		URL          string
		LinkedSchema string
		LinkedTable  string
		cols         map[string]int
	}

	// Column is one column of a table
	Column struct {
		Name          string
		Type          value.TypeInfo
		Nullable      bool
		Default       string
		OnUpdate      string
		Computed      string
		Check         string
		AutoIncrement bool
		// IncrementStart and IncrementBy of an auto increment column
		IncrementStart int64
		IncrementBy    int64
		NullToDefault  bool
		PrimaryKey     bool
		Sequence       string
		Selectivity    int
		Comment        string
		Invisible      bool
		Domain         string
	}

	// Index on one or more columns of a table
	Index struct {
		DbObject
		Table   string
		Columns []string
		Unique  bool
		Primary bool
		Hash    bool
		Spatial bool
	}

	// Sequence is a number generator
	Sequence struct {
		DbObject
		Start          int64
		Increment      int64
		MinValue       int64
		MaxValue       int64
		Cache          int64
		Cycle          bool
		BelongsToTable bool
	}

	// Constant is a named, schema level value
	Constant struct {
		DbObject
		Value value.Value
	}

	// FunctionAlias is a user function bound to an external method or
	// source body.  ParamCounts lists the accepted argument counts, empty
	// accepts any.
	FunctionAlias struct {
		DbObject
		Class           string
		Method          string
		Source          string
		Deterministic   bool
		BufferResultSet bool
		ParamCounts     []int
	}

	// UserAggregate is a database level user defined aggregate
	UserAggregate struct {
		DbObject
		Class string
	}

	// Domain is a named column template (CREATE DOMAIN / CREATE TYPE)
	Domain struct {
		DbObject
		Column *Column
	}

	// Trigger on a table
	Trigger struct {
		DbObject
		Table    string
		Before   bool
		Events   []string
		RowBased bool
		Class    string
		Source   string
	}

	// ConstraintType for Constraint
	ConstraintType uint8

	// Constraint on a table
	Constraint struct {
		DbObject
		Type       ConstraintType
		Table      string
		Columns    []string
		RefSchema  string
		RefTable   string
		RefColumns []string
		Check      string
	}

	// Synonym is an alternate name for a table
	Synonym struct {
		DbObject
		TargetSchema string
		TargetTable  string
	}

	// User is a database user
	User struct {
		DbObject
		Admin bool
	}

	// Role groups rights
	Role struct {
		DbObject
	}
)

const (
	TableTypeTable    TableType = 0
	TableTypeView     TableType = 1
	TableTypeLinked   TableType = 2
	TableTypeSystem   TableType = 3
	TableTypeExternal TableType = 4
)

const (
	ConstraintCheck      ConstraintType = 0
	ConstraintPrimaryKey ConstraintType = 1
	ConstraintUnique     ConstraintType = 2
	ConstraintReferences ConstraintType = 3
)

func (m *Schema) ObjectType() ObjectType        { return ObjectSchema }
func (m *Table) ObjectType() ObjectType         { return ObjectTable }
func (m *Index) ObjectType() ObjectType         { return ObjectIndex }
func (m *Sequence) ObjectType() ObjectType      { return ObjectSequence }
func (m *Constant) ObjectType() ObjectType      { return ObjectConstant }
func (m *FunctionAlias) ObjectType() ObjectType { return ObjectAlias }
func (m *UserAggregate) ObjectType() ObjectType { return ObjectAggregate }
func (m *Domain) ObjectType() ObjectType        { return ObjectDomain }
func (m *Trigger) ObjectType() ObjectType       { return ObjectTrigger }
func (m *Constraint) ObjectType() ObjectType    { return ObjectConstraint }
func (m *Synonym) ObjectType() ObjectType       { return ObjectSynonym }
func (m *User) ObjectType() ObjectType          { return ObjectUser }
func (m *Role) ObjectType() ObjectType          { return ObjectRole }

// NewSchema creates a schema owned by @owner.
func NewSchema(name, owner string) *Schema {
	return &Schema{DbObject: newDbObject("", name), Owner: owner}
}

// NewTable creates a plain table.
func NewTable(schema, name string, cols ...*Column) *Table {
	t := &Table{DbObject: newDbObject(schema, name), Persistent: true}
	t.SetColumns(cols)
	return t
}

// NewView creates a view with the given body and output columns.
func NewView(schema, name, query string, cols ...*Column) *Table {
	t := &Table{DbObject: newDbObject(schema, name), Type: TableTypeView, Query: query}
	t.SetColumns(cols)
	return t
}

// NewColumn creates a nullable column.
func NewColumn(name string, t value.TypeInfo) *Column {
	return &Column{Name: name, Type: t, Nullable: true}
}

// NewColumnType creates a nullable column of the named type, the type name
// must be known.
func NewColumnType(name, typeName string) *Column {
	dt, ok := value.TypeByName(typeName)
	if !ok {
		panic("unknown data type " + typeName)
	}
	return NewColumn(name, value.NewTypeInfo(dt))
}

func NewIndex(schema, name, table string, cols ...string) *Index {
	return &Index{DbObject: newDbObject(schema, name), Table: table, Columns: cols}
}

func NewSequence(schema, name string) *Sequence {
	return &Sequence{DbObject: newDbObject(schema, name), Start: 1, Increment: 1,
		MinValue: 1, MaxValue: 1<<63 - 1, Cache: 32}
}

func NewConstant(schema, name string, v value.Value) *Constant {
	return &Constant{DbObject: newDbObject(schema, name), Value: v}
}

func NewFunctionAlias(schema, name string) *FunctionAlias {
	return &FunctionAlias{DbObject: newDbObject(schema, name)}
}

func NewUserAggregate(name, class string) *UserAggregate {
	return &UserAggregate{DbObject: newDbObject("", name), Class: class}
}

func NewDomain(name string, col *Column) *Domain {
	return &Domain{DbObject: newDbObject("", name), Column: col}
}

func NewTrigger(schema, name, table string) *Trigger {
	return &Trigger{DbObject: newDbObject(schema, name), Table: table}
}

func NewConstraint(schema, name, table string, typ ConstraintType) *Constraint {
	return &Constraint{DbObject: newDbObject(schema, name), Table: table, Type: typ}
}

func NewSynonym(schema, name, targetSchema, targetTable string) *Synonym {
	return &Synonym{DbObject: newDbObject(schema, name), TargetSchema: targetSchema, TargetTable: targetTable}
}

func NewUser(name string, admin bool) *User {
	return &User{DbObject: newDbObject("", name), Admin: admin}
}

func NewRole(name string) *Role {
	return &Role{DbObject: newDbObject("", name)}
}

// SetColumns replaces the columns and rebuilds the name positions.
func (m *Table) SetColumns(cols []*Column) {
	m.Columns = cols
	m.cols = make(map[string]int, len(cols))
	for i, c := range cols {
		m.cols[c.Name] = i
	}
}

// AddColumn appends a column.
func (m *Table) AddColumn(c *Column) {
	if m.cols == nil {
		m.cols = make(map[string]int)
	}
	m.cols[c.Name] = len(m.Columns)
	m.Columns = append(m.Columns, c)
}

// Column finds a column by exact name.
func (m *Table) Column(name string) (*Column, bool) {
	i, ok := m.cols[name]
	if !ok {
		return nil, false
	}
	return m.Columns[i], true
}

// ColumnIgnoreCase finds a column ignoring case, exact matches win.
func (m *Table) ColumnIgnoreCase(name string) (*Column, bool) {
	if c, ok := m.Column(name); ok {
		return c, true
	}
	for _, c := range m.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames in table order.
func (m *Table) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// VisibleColumns are the columns a wildcard expands to.
func (m *Table) VisibleColumns() []*Column {
	out := make([]*Column, 0, len(m.Columns))
	for _, c := range m.Columns {
		if !c.Invisible {
			out = append(out, c)
		}
	}
	return out
}

func (m *Table) IsView() bool { return m.Type == TableTypeView }

// PrimaryKey returns the primary key columns declared inline.
func (m *Table) PrimaryKey() []string {
	var pk []string
	for _, c := range m.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// Clone is a shallow copy with its own column list.
func (m *Table) Clone() *Table {
	t := *m
	cols := make([]*Column, len(m.Columns))
	for i, c := range m.Columns {
		cc := *c
		cols[i] = &cc
	}
	t.SetColumns(cols)
	return &t
}

// SQL is the column definition as written in CREATE TABLE.
func (m *Column) SQL() string {
	var b strings.Builder
	b.WriteString(lex.QuoteIdentifierIfNeeded(m.Name))
	b.WriteByte(' ')
	if m.Domain != "" {
		b.WriteString(lex.QuoteIdentifierIfNeeded(m.Domain))
	} else {
		b.WriteString(m.Type.SQL())
	}
	if m.Computed != "" {
		b.WriteString(" AS " + m.Computed)
	} else if m.Default != "" {
		b.WriteString(" DEFAULT " + m.Default)
	}
	if m.OnUpdate != "" {
		b.WriteString(" ON UPDATE " + m.OnUpdate)
	}
	if m.Invisible {
		b.WriteString(" INVISIBLE")
	}
	if m.AutoIncrement {
		b.WriteString(" AUTO_INCREMENT")
		if m.IncrementBy != 0 && (m.IncrementStart != 1 || m.IncrementBy != 1) {
			b.WriteString("(" + strconv.FormatInt(m.IncrementStart, 10) + ", " + strconv.FormatInt(m.IncrementBy, 10) + ")")
		}
	}
	if !m.Nullable {
		b.WriteString(" NOT NULL")
	}
	if m.Check != "" {
		b.WriteString(" CHECK " + m.Check)
	}
	return b.String()
}

// Clone copies the column.
func (m *Column) Clone() *Column {
	c := *m
	return &c
}

// Accepts reports whether @n arguments match one of the registered
// parameter counts.
func (m *FunctionAlias) Accepts(n int) bool {
	if len(m.ParamCounts) == 0 {
		return true
	}
	for _, c := range m.ParamCounts {
		if c == n || c < 0 {
			return true
		}
	}
	return false
}
