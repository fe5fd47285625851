package schema

import (
	"strconv"
	"strings"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

// SystemIdentifierPrefix starts generated names (anonymous views, aliases)
const SystemIdentifierPrefix = "_"

// Statement is what a Session keeps for a prepared procedure.
type Statement interface {
	SQL() string
}

// Session is the state of one connection: current schema, schema search
// path, variables, local temporary tables and prepared procedures.  A
// Session is not safe for concurrent use.
type Session struct {
	Catalog Catalog
	User    string

	// ForceJoinOrder keeps FROM a, b, c in declared order
	ForceJoinOrder bool
	// AllowLiterals lifts the ALLOW_LITERALS check for internal statements
	AllowLiterals bool

	currentSchema string
	searchPath    []string
	variables     map[string]value.Value
	localTemp     map[string]*Table
	procedures    map[string]Statement
	systemID      int
	parsingViews  []string
}

// NewSession opens a session on @cat in the main schema.
func NewSession(cat Catalog, user string) *Session {
	if user == "" {
		user = DefaultUser
	}
	return &Session{
		Catalog:       cat,
		User:          user,
		currentSchema: MainSchema,
		variables:     make(map[string]value.Value),
		localTemp:     make(map[string]*Table),
		procedures:    make(map[string]Statement),
	}
}

func (m *Session) Mode() *lex.Mode     { return m.Catalog.Mode() }
func (m *Session) Settings() *Settings { return m.Catalog.Settings() }

// CurrentSchema is the schema unqualified names resolve in first.
func (m *Session) CurrentSchema() string { return m.currentSchema }

// SetCurrentSchema switches the current schema, it must exist.
func (m *Session) SetCurrentSchema(name string) error {
	if _, ok := m.Catalog.FindSchema(name); !ok {
		return sqlerr.New(sqlerr.SchemaNotFound, name)
	}
	m.currentSchema = name
	return nil
}

// SearchPath is the list of schemas tried after the current schema.
func (m *Session) SearchPath() []string { return m.searchPath }

func (m *Session) SetSearchPath(schemas []string) {
	m.searchPath = append([]string(nil), schemas...)
}

// Variable returns the @name session variable, NULL if never set.
func (m *Session) Variable(name string) value.Value {
	if v, ok := m.variables[name]; ok {
		return v
	}
	return value.NewNilValue()
}

func (m *Session) SetVariable(name string, v value.Value) {
	if v == nil || v.Nil() {
		delete(m.variables, name)
		return
	}
	m.variables[name] = v
}

// VariableNames lists the variables that are set.
func (m *Session) VariableNames() []string {
	names := make([]string, 0, len(m.variables))
	for n := range m.variables {
		names = append(names, n)
	}
	return names
}

// FindLocalTempTable finds a table only this session sees.
func (m *Session) FindLocalTempTable(name string) (*Table, bool) {
	t, ok := m.localTemp[name]
	return t, ok
}

func (m *Session) AddLocalTempTable(t *Table) error {
	if _, ok := m.localTemp[t.Name]; ok {
		return sqlerr.New(sqlerr.TableOrViewAlreadyExists, t.Name)
	}
	t.Temporary = true
	m.localTemp[t.Name] = t
	return nil
}

func (m *Session) RemoveLocalTempTable(t *Table) {
	delete(m.localTemp, t.Name)
}

// Procedure finds a statement registered by PREPARE.
func (m *Session) Procedure(name string) (Statement, bool) {
	p, ok := m.procedures[name]
	return p, ok
}

func (m *Session) AddProcedure(name string, stmt Statement) {
	m.procedures[name] = stmt
}

func (m *Session) RemoveProcedure(name string) {
	delete(m.procedures, name)
}

// NextSystemIdentifier returns a generated name that does not occur in @sql.
func (m *Session) NextSystemIdentifier(sql string) string {
	for {
		id := SystemIdentifierPrefix + strconv.Itoa(m.systemID)
		m.systemID++
		if !strings.Contains(sql, id) {
			return id
		}
	}
}

// ParsingView is true while the body of CREATE VIEW is being parsed, CTEs
// inside it become part of the view instead of temporary scaffolding.
func (m *Session) ParsingView() bool { return len(m.parsingViews) > 0 }

func (m *Session) SetParsingView(parsing bool, name string) {
	if parsing {
		m.parsingViews = append(m.parsingViews, name)
		return
	}
	for i := len(m.parsingViews) - 1; i >= 0; i-- {
		if m.parsingViews[i] == name {
			m.parsingViews = append(m.parsingViews[:i], m.parsingViews[i+1:]...)
			return
		}
	}
	u.Warnf("not parsing view %q", name)
}

// ResolveTable finds a table, view, local temporary table or synonym target
// named @name in @schema.
func (m *Session) ResolveTable(schema, name string) (*Table, bool) {
	if t, ok := m.Catalog.FindTable(schema, name); ok {
		return t, true
	}
	if t, ok := m.localTemp[name]; ok {
		return t, true
	}
	if syn, ok := m.Catalog.FindSynonym(schema, name); ok {
		return m.Catalog.FindTable(syn.TargetSchema, syn.TargetTable)
	}
	return nil, false
}

// FindTableOrView is ResolveTable without synonyms.
func (m *Session) FindTableOrView(schema, name string) (*Table, bool) {
	if t, ok := m.Catalog.FindTable(schema, name); ok {
		return t, true
	}
	t, ok := m.localTemp[name]
	return t, ok
}

// FindSchema also accepts SESSION, the schema of local temporary tables.
func (m *Session) FindSchema(name string) (*Schema, bool) {
	if s, ok := m.Catalog.FindSchema(name); ok {
		return s, true
	}
	if strings.EqualFold(name, "SESSION") {
		return m.Catalog.FindSchema(m.currentSchema)
	}
	return nil, false
}

// FindSequence looks in @schema then along the search path.
func (m *Session) FindSequence(schema, name string) (*Sequence, bool) {
	if s, ok := m.Catalog.FindSequence(schema, name); ok {
		return s, true
	}
	for _, sn := range m.searchPath {
		if s, ok := m.Catalog.FindSequence(sn, name); ok {
			return s, true
		}
	}
	return nil, false
}

// FindFunctionAlias looks in @schema then along the search path.
func (m *Session) FindFunctionAlias(schema, name string) (*FunctionAlias, bool) {
	if f, ok := m.Catalog.FindFunctionAlias(schema, name); ok {
		return f, true
	}
	for _, sn := range m.searchPath {
		if f, ok := m.Catalog.FindFunctionAlias(sn, name); ok {
			return f, true
		}
	}
	return nil, false
}
