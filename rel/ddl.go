package rel

import (
	"strconv"
	"strings"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/schema"
)

// ReferentialAction is the ON DELETE / ON UPDATE action of a foreign key.
type ReferentialAction uint8

const (
	RefRestrict ReferentialAction = iota
	RefCascade
	RefSetNull
	RefSetDefault
)

var refActionSQL = map[ReferentialAction]string{
	RefRestrict:   "RESTRICT",
	RefCascade:    "CASCADE",
	RefSetNull:    "SET NULL",
	RefSetDefault: "SET DEFAULT",
}

func (m ReferentialAction) String() string { return refActionSQL[m] }

// DropAction is the CASCADE / RESTRICT suffix of DROP, DropDefault leaves
// it to the DROP_RESTRICT setting.
type DropAction uint8

const (
	DropDefault DropAction = iota
	DropCascade
	DropRestrict
	DropIgnore
)

var dropActionSQL = map[DropAction]string{
	DropCascade:  " CASCADE",
	DropRestrict: " RESTRICT",
	DropIgnore:   " IGNORE",
}

// AlterTableAction says what an ALTER TABLE changes.
type AlterTableAction uint8

const (
	AlterAddColumn AlterTableAction = iota
	AlterDropColumn
	AlterRename
	AlterRenameColumn
	AlterRenameConstraint
	AlterDropConstraint
	AlterDropIndex
	AlterDropPrimaryKey
	AlterSetReferentialIntegrity
	AlterColumnType
	AlterColumnNull
	AlterColumnNotNull
	AlterColumnDefault
	AlterColumnOnUpdate
	AlterColumnVisibility
	AlterColumnSelectivity
	AlterColumnRestart
)

// AlterUserAction says what an ALTER USER changes.
type AlterUserAction uint8

const (
	AlterUserPassword AlterUserAction = iota
	AlterUserRename
	AlterUserAdmin
)

// Right is a privilege of GRANT and REVOKE.
type Right string

const (
	RightSelect         Right = "SELECT"
	RightDelete         Right = "DELETE"
	RightInsert         Right = "INSERT"
	RightUpdate         Right = "UPDATE"
	RightAll            Right = "ALL"
	RightAlterAnySchema Right = "ALTER ANY SCHEMA"
)

type (
	// IndexColumn is one column of an index or key with its sort order.
	IndexColumn struct {
		Name       string
		Desc       bool
		NullsFirst bool
		NullsLast  bool
	}

	// TableElements are the columns, constraints and indexes of a table
	// definition or of ALTER TABLE ADD.
	TableElements struct {
		Columns     []*ColumnDef
		Constraints []*SqlAddConstraint
		Indexes     []*SqlCreateIndex
	}

	// ObjectName is a possibly schema qualified object name.
	ObjectName struct {
		Schema string
		Name   string
	}

	// ColumnDef is a column of CREATE TABLE or ALTER TABLE ADD with the
	// expressions it was declared with.  The Column carries their text.
	ColumnDef struct {
		*schema.Column
		DefaultExpr  expr.Node
		OnUpdateExpr expr.Node
		ComputedExpr expr.Node
		CheckExpr    expr.Node
	}

	// SequenceOptions are the options shared by CREATE and ALTER SEQUENCE,
	// nil expressions are not set.
	SequenceOptions struct {
		Start      expr.Node
		Increment  expr.Node
		MinValue   expr.Node
		MaxValue   expr.Node
		Cache      expr.Node
		NoMinValue bool
		NoMaxValue bool
		Cycle      bool
		NoCycle    bool
	}

	// SqlCreateTable is CREATE [TEMPORARY] TABLE.  Inline keys and
	// references are split off into Constraints and Indexes, applied after
	// the table exists.
	SqlCreateTable struct {
		stmtBase
		Schema         string
		Name           string
		IfNotExists    bool
		Temporary      bool
		Global         bool
		PersistIndexes bool
		PersistData    bool
		OnCommitDrop   bool
		OnCommitDelete bool
		Transactional  bool
		Hidden         bool
		Comment        string
		Engine         string
		EngineParams   []string
		TableElements
		Query      Query
		Sorted     bool
		WithNoData bool
	}

	// SqlCreateLinkedTable is CREATE LINKED TABLE t (driver, url, user,
	// password, [schema,] table).
	SqlCreateLinkedTable struct {
		stmtBase
		Schema       string
		Name         string
		IfNotExists  bool
		Temporary    bool
		Global       bool
		Force        bool
		Comment      string
		Driver       string
		URL          string
		User         string
		Password     string
		RemoteSchema string
		RemoteTable  string
		EmitUpdates  bool
		ReadOnly     bool
	}

	// SqlCreateView is CREATE [OR REPLACE] [FORCE] VIEW.  A forced view
	// whose body does not parse keeps only the body text.
	SqlCreateView struct {
		stmtBase
		Schema          string
		Name            string
		IfNotExists     bool
		OrReplace       bool
		Force           bool
		TableExpression bool
		Comment         string
		Columns         []string
		Query           Query
		QuerySQL        string
	}

	// SqlCreateIndex is CREATE [UNIQUE] [HASH] [SPATIAL] INDEX or CREATE
	// PRIMARY KEY, and the INDEX / AFFINITY KEY of a table definition.
	SqlCreateIndex struct {
		stmtBase
		Schema        string
		Name          string
		Table         string
		IfNotExists   bool
		IfTableExists bool
		Unique        bool
		PrimaryKey    bool
		Hash          bool
		Spatial       bool
		Affinity      bool
		Comment       string
		Columns       []IndexColumn
	}

	// SqlAddConstraint is ALTER TABLE t ADD CONSTRAINT, and a key, check or
	// reference declared in a table definition.
	SqlAddConstraint struct {
		stmtBase
		Type           schema.ConstraintType
		Schema         string
		Table          string
		Name           string
		IfNotExists    bool
		IfTableExists  bool
		Comment        string
		Columns        []IndexColumn
		Index          string
		PrimaryKeyHash bool
		Check          expr.Node
		RefSchema      string
		RefTable       string
		RefColumns     []IndexColumn
		RefIndex       string
		OnDelete       ReferentialAction
		OnUpdate       ReferentialAction
		// CheckExisting validates the rows already in the table
		CheckExisting bool
	}

	// SqlCreateSequence is CREATE SEQUENCE.
	SqlCreateSequence struct {
		stmtBase
		SequenceOptions
		Schema         string
		Name           string
		IfNotExists    bool
		BelongsToTable bool
	}

	// SqlCreateTrigger is CREATE TRIGGER.
	SqlCreateTrigger struct {
		stmtBase
		Schema      string
		Name        string
		Table       string
		IfNotExists bool
		Force       bool
		Before      bool
		InsteadOf   bool
		Events      []string
		OnRollback  bool
		RowBased    bool
		QueueSize   int
		NoWait      bool
		Source      string
		Class       string
	}

	// SqlCreateUser is CREATE USER.
	SqlCreateUser struct {
		stmtBase
		Name        string
		IfNotExists bool
		Comment     string
		Password    expr.Node
		Salt        expr.Node
		Hash        expr.Node
		Admin       bool
	}

	// SqlCreateRole is CREATE ROLE.
	SqlCreateRole struct {
		stmtBase
		Name        string
		IfNotExists bool
	}

	// SqlCreateSchema is CREATE SCHEMA.
	SqlCreateSchema struct {
		stmtBase
		Name          string
		IfNotExists   bool
		Authorization string
		EngineParams  []string
	}

	// SqlCreateConstant is CREATE CONSTANT name VALUE expr.
	SqlCreateConstant struct {
		stmtBase
		Schema      string
		Name        string
		IfNotExists bool
		Value       expr.Node
	}

	// SqlCreateDomain is CREATE DOMAIN (TYPE, DATATYPE), the column is named
	// VALUE.
	SqlCreateDomain struct {
		stmtBase
		Name        string
		IfNotExists bool
		Column      *ColumnDef
	}

	// SqlCreateAggregate is CREATE AGGREGATE name FOR class.
	SqlCreateAggregate struct {
		stmtBase
		Schema      string
		Name        string
		IfNotExists bool
		Force       bool
		Class       string
	}

	// SqlCreateAlias is CREATE ALIAS name AS source | FOR method.
	SqlCreateAlias struct {
		stmtBase
		Schema          string
		Name            string
		IfNotExists     bool
		Force           bool
		Deterministic   bool
		BufferResultSet bool
		Source          string
		Method          string
	}

	// SqlCreateSynonym is CREATE [OR REPLACE] SYNONYM name FOR table.
	SqlCreateSynonym struct {
		stmtBase
		Schema       string
		Name         string
		IfNotExists  bool
		OrReplace    bool
		TargetSchema string
		TargetTable  string
		Comment      string
	}

	// SqlDrop drops one object, or several tables.  AllObjects is DROP ALL
	// OBJECTS.
	SqlDrop struct {
		stmtBase
		Type        schema.ObjectType
		Objects     []ObjectName
		IfExists    bool
		Action      DropAction
		AllObjects  bool
		DeleteFiles bool
		// Table of DROP INDEX i ON t
		Table ObjectName
	}

	// SqlAlterTable is an ALTER TABLE other than ADD CONSTRAINT.
	SqlAlterTable struct {
		stmtBase
		Action        AlterTableAction
		Schema        string
		Table         string
		IfTableExists bool
		IfExists      bool
		IfNotExists   bool
		// TableElements added, NewColumn is the replacement of a type change
		TableElements
		NewColumn *ColumnDef
		Before    string
		After     string
		First     bool
		// Column is the altered column, Drop the dropped ones
		Column  string
		Drop    []string
		NewName string
		// Constraint or index name
		Constraint string
		Expr       expr.Node
		Visible    bool
		Hidden     bool
		Enabled    bool
		// CheckExisting is nil unless CHECK or NOCHECK was given
		CheckExisting *bool
	}

	// SqlAlterIndex is ALTER INDEX i RENAME TO n.
	SqlAlterIndex struct {
		stmtBase
		Schema   string
		Name     string
		NewName  string
		IfExists bool
	}

	// SqlAlterView is ALTER VIEW v RECOMPILE.
	SqlAlterView struct {
		stmtBase
		Schema   string
		Name     string
		View     *schema.Table
		IfExists bool
	}

	// SqlAlterSchema is ALTER SCHEMA s RENAME TO n.
	SqlAlterSchema struct {
		stmtBase
		Name    string
		NewName string
	}

	// SqlAlterSequence is ALTER SEQUENCE, and ALTER TABLE t ALTER COLUMN c
	// RESTART WITH n on the sequence of the column.
	SqlAlterSequence struct {
		stmtBase
		SequenceOptions
		Schema   string
		Name     string
		IfExists bool
		Table    string
		Column   string
	}

	// SqlAlterUser is ALTER USER and SET PASSWORD / SET SALT.
	SqlAlterUser struct {
		stmtBase
		Action   AlterUserAction
		User     string
		Password expr.Node
		Salt     expr.Node
		Hash     expr.Node
		NewName  string
		Admin    bool
	}

	// SqlComment is COMMENT ON type name IS expr, Column is set for COMMENT
	// ON COLUMN.
	SqlComment struct {
		stmtBase
		Type    schema.ObjectType
		Schema  string
		Name    string
		Column  string
		Comment expr.Node
	}

	// SqlTruncate is TRUNCATE TABLE t [RESTART IDENTITY].
	SqlTruncate struct {
		stmtBase
		Table   *schema.Table
		Restart bool
	}

	// SqlGrantRevoke grants or revokes rights on tables or a schema, or
	// roles.  The two are never mixed.
	SqlGrantRevoke struct {
		stmtBase
		Grant   bool
		Rights  []Right
		Roles   []string
		Tables  []*schema.Table
		Schema  string
		Grantee string
	}
)

func (m *SqlCreateTable) Kind() StatementKind       { return KindCreateTable }
func (m *SqlCreateLinkedTable) Kind() StatementKind { return KindCreateLinked }
func (m *SqlCreateView) Kind() StatementKind        { return KindCreateView }
func (m *SqlCreateIndex) Kind() StatementKind       { return KindCreateIndex }
func (m *SqlAddConstraint) Kind() StatementKind     { return KindAddConstraint }
func (m *SqlCreateSequence) Kind() StatementKind    { return KindCreateSequence }
func (m *SqlCreateTrigger) Kind() StatementKind     { return KindCreateTrigger }
func (m *SqlCreateUser) Kind() StatementKind        { return KindCreateUser }
func (m *SqlCreateRole) Kind() StatementKind        { return KindCreateRole }
func (m *SqlCreateSchema) Kind() StatementKind      { return KindCreateSchema }
func (m *SqlCreateConstant) Kind() StatementKind    { return KindCreateConstant }
func (m *SqlCreateDomain) Kind() StatementKind      { return KindCreateDomain }
func (m *SqlCreateAggregate) Kind() StatementKind   { return KindCreateAgg }
func (m *SqlCreateAlias) Kind() StatementKind       { return KindCreateAlias }
func (m *SqlCreateSynonym) Kind() StatementKind     { return KindCreateSynonym }
func (m *SqlDrop) Kind() StatementKind              { return KindDrop }
func (m *SqlAlterTable) Kind() StatementKind        { return KindAlterTable }
func (m *SqlAlterIndex) Kind() StatementKind        { return KindAlterIndex }
func (m *SqlAlterView) Kind() StatementKind         { return KindAlterView }
func (m *SqlAlterSchema) Kind() StatementKind       { return KindAlterSchema }
func (m *SqlAlterSequence) Kind() StatementKind     { return KindAlterSequence }
func (m *SqlAlterUser) Kind() StatementKind         { return KindAlterUser }
func (m *SqlComment) Kind() StatementKind           { return KindComment }
func (m *SqlTruncate) Kind() StatementKind          { return KindTruncate }
func (m *SqlGrantRevoke) Kind() StatementKind       { return KindGrantRevoke }

func qualified(schemaName, name string) string {
	if schemaName == "" {
		return quoteName(name)
	}
	return quoteName(schemaName) + "." + quoteName(name)
}

func ifNotExists(b bool) string {
	if b {
		return "IF NOT EXISTS "
	}
	return ""
}

func ifExists(b bool) string {
	if b {
		return "IF EXISTS "
	}
	return ""
}

func commentSQL(c string) string {
	if c == "" {
		return ""
	}
	return " COMMENT " + quoteString(c)
}

func quoteString(s string) string {
	return "'" + strings.Replace(s, "'", "''", -1) + "'"
}

func (m IndexColumn) String() string {
	s := quoteName(m.Name)
	if m.Desc {
		s += " DESC"
	}
	if m.NullsFirst {
		s += " NULLS FIRST"
	} else if m.NullsLast {
		s += " NULLS LAST"
	}
	return s
}

func indexColumns(cols []IndexColumn) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (m ObjectName) String() string { return qualified(m.Schema, m.Name) }

func (m *ColumnDef) String() string { return m.Column.SQL() }

func (m *SequenceOptions) String() string {
	var b strings.Builder
	if m.Increment != nil {
		b.WriteString(" INCREMENT BY " + m.Increment.String())
	}
	if m.MinValue != nil {
		b.WriteString(" MINVALUE " + m.MinValue.String())
	} else if m.NoMinValue {
		b.WriteString(" NO MINVALUE")
	}
	if m.MaxValue != nil {
		b.WriteString(" MAXVALUE " + m.MaxValue.String())
	} else if m.NoMaxValue {
		b.WriteString(" NO MAXVALUE")
	}
	if m.Cycle {
		b.WriteString(" CYCLE")
	} else if m.NoCycle {
		b.WriteString(" NO CYCLE")
	}
	if m.Cache != nil {
		b.WriteString(" CACHE " + m.Cache.String())
	}
	return b.String()
}

func (m *SqlCreateTable) String() string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if m.Temporary {
		if m.Global {
			b.WriteString("GLOBAL ")
		} else {
			b.WriteString("LOCAL ")
		}
		b.WriteString("TEMPORARY ")
	} else if m.PersistIndexes {
		b.WriteString("CACHED ")
	} else {
		b.WriteString("MEMORY ")
	}
	b.WriteString("TABLE " + ifNotExists(m.IfNotExists) + qualified(m.Schema, m.Name))
	b.WriteString(commentSQL(m.Comment))
	var defs []string
	for _, c := range m.Columns {
		defs = append(defs, c.String())
	}
	for _, c := range m.Constraints {
		defs = append(defs, c.definition())
	}
	for _, ix := range m.Indexes {
		defs = append(defs, ix.definition())
	}
	if len(defs) > 0 || m.Query == nil {
		b.WriteString("(" + strings.Join(defs, ", ") + ")")
	}
	if m.Engine != "" {
		b.WriteString(" ENGINE " + quoteName(m.Engine))
	}
	if len(m.EngineParams) > 0 {
		b.WriteString(" WITH " + joinNames(m.EngineParams))
	}
	if m.OnCommitDrop {
		b.WriteString(" ON COMMIT DROP")
	} else if m.OnCommitDelete {
		b.WriteString(" ON COMMIT DELETE ROWS")
	}
	if !m.PersistData {
		b.WriteString(" NOT PERSISTENT")
	}
	if m.Transactional {
		b.WriteString(" TRANSACTIONAL")
	}
	if m.Hidden {
		b.WriteString(" HIDDEN")
	}
	if m.Query != nil {
		b.WriteString(" AS ")
		if m.Sorted {
			b.WriteString("SORTED ")
		}
		b.WriteString(m.Query.String())
		if m.WithNoData {
			b.WriteString(" WITH NO DATA")
		}
	}
	return b.String()
}

func (m *SqlCreateLinkedTable) String() string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if m.Force {
		b.WriteString("FORCE ")
	}
	if m.Temporary {
		if m.Global {
			b.WriteString("GLOBAL ")
		} else {
			b.WriteString("LOCAL ")
		}
		b.WriteString("TEMPORARY ")
	}
	b.WriteString("LINKED TABLE " + ifNotExists(m.IfNotExists) + qualified(m.Schema, m.Name))
	b.WriteString(commentSQL(m.Comment))
	args := []string{quoteString(m.Driver), quoteString(m.URL), quoteString(m.User), quoteString(m.Password)}
	if m.RemoteSchema != "" {
		args = append(args, quoteString(m.RemoteSchema))
	}
	args = append(args, quoteString(m.RemoteTable))
	b.WriteString("(" + strings.Join(args, ", ") + ")")
	if m.EmitUpdates {
		b.WriteString(" EMIT UPDATES")
	} else if m.ReadOnly {
		b.WriteString(" READONLY")
	}
	return b.String()
}

func (m *SqlCreateView) String() string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if m.OrReplace {
		b.WriteString("OR REPLACE ")
	}
	if m.Force {
		b.WriteString("FORCE ")
	}
	b.WriteString("VIEW " + ifNotExists(m.IfNotExists))
	if m.TableExpression {
		b.WriteString("TABLE_EXPRESSION ")
	}
	b.WriteString(qualified(m.Schema, m.Name))
	b.WriteString(commentSQL(m.Comment))
	if len(m.Columns) > 0 {
		b.WriteString("(" + joinNames(m.Columns) + ")")
	}
	if m.Query != nil {
		b.WriteString(" AS " + m.Query.String())
	} else {
		b.WriteString(" AS " + m.QuerySQL)
	}
	return b.String()
}

// definition renders the index inside a table definition.
func (m *SqlCreateIndex) definition() string {
	if m.Affinity {
		return "AFFINITY KEY " + indexColumns(m.Columns)
	}
	s := "INDEX "
	if m.Name != "" {
		s += quoteName(m.Name) + " "
	}
	return s + indexColumns(m.Columns)
}

func (m *SqlCreateIndex) String() string {
	var b strings.Builder
	b.WriteString("CREATE ")
	switch {
	case m.PrimaryKey:
		b.WriteString("PRIMARY KEY ")
		if m.Hash {
			b.WriteString("HASH ")
		}
	default:
		if m.Unique {
			b.WriteString("UNIQUE ")
		}
		if m.Hash {
			b.WriteString("HASH ")
		}
		if m.Spatial {
			b.WriteString("SPATIAL ")
		}
		b.WriteString("INDEX ")
	}
	if m.Name != "" {
		b.WriteString(ifNotExists(m.IfNotExists) + qualified(m.Schema, m.Name) + " ")
	}
	b.WriteString("ON " + qualified(m.Schema, m.Table))
	b.WriteString(commentSQL(m.Comment))
	b.WriteString(indexColumns(m.Columns))
	return b.String()
}

// definition renders the constraint inside a table definition.
func (m *SqlAddConstraint) definition() string {
	var b strings.Builder
	if m.Name != "" {
		b.WriteString("CONSTRAINT " + ifNotExists(m.IfNotExists) + quoteName(m.Name) + " ")
	}
	switch m.Type {
	case schema.ConstraintPrimaryKey:
		b.WriteString("PRIMARY KEY ")
		if m.PrimaryKeyHash {
			b.WriteString("HASH ")
		}
		b.WriteString(indexColumns(m.Columns))
	case schema.ConstraintUnique:
		b.WriteString("UNIQUE " + indexColumns(m.Columns))
	case schema.ConstraintCheck:
		b.WriteString("CHECK " + m.Check.String())
	case schema.ConstraintReferences:
		b.WriteString("FOREIGN KEY " + indexColumns(m.Columns))
		b.WriteString(" REFERENCES " + qualified(m.RefSchema, m.RefTable))
		if len(m.RefColumns) > 0 {
			b.WriteString(indexColumns(m.RefColumns))
		}
		if m.OnDelete != RefRestrict {
			b.WriteString(" ON DELETE " + m.OnDelete.String())
		}
		if m.OnUpdate != RefRestrict {
			b.WriteString(" ON UPDATE " + m.OnUpdate.String())
		}
	}
	if m.Index != "" {
		b.WriteString(" INDEX " + quoteName(m.Index))
	}
	return b.String()
}

func (m *SqlAddConstraint) String() string {
	s := "ALTER TABLE " + ifExists(m.IfTableExists) + qualified(m.Schema, m.Table) + " ADD " + m.definition()
	if !m.CheckExisting && (m.Type == schema.ConstraintCheck || m.Type == schema.ConstraintReferences) {
		s += " NOCHECK"
	}
	return s
}

func (m *SqlCreateSequence) String() string {
	s := "CREATE SEQUENCE " + ifNotExists(m.IfNotExists) + qualified(m.Schema, m.Name)
	if m.Start != nil {
		s += " START WITH " + m.Start.String()
	}
	s += m.SequenceOptions.String()
	if m.BelongsToTable {
		s += " BELONGS_TO_TABLE"
	}
	return s
}

func (m *SqlCreateTrigger) String() string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if m.Force {
		b.WriteString("FORCE ")
	}
	b.WriteString("TRIGGER " + ifNotExists(m.IfNotExists) + qualified(m.Schema, m.Name))
	switch {
	case m.InsteadOf:
		b.WriteString(" INSTEAD OF ")
	case m.Before:
		b.WriteString(" BEFORE ")
	default:
		b.WriteString(" AFTER ")
	}
	events := append([]string(nil), m.Events...)
	if m.OnRollback {
		events = append(events, "ROLLBACK")
	}
	b.WriteString(strings.Join(events, ", "))
	b.WriteString(" ON " + qualified(m.Schema, m.Table))
	if m.RowBased {
		b.WriteString(" FOR EACH ROW")
	}
	if m.QueueSize > 0 {
		b.WriteString(" QUEUE " + strconv.Itoa(m.QueueSize))
	}
	if m.NoWait {
		b.WriteString(" NOWAIT")
	}
	if m.Class != "" {
		b.WriteString(" CALL " + quoteName(m.Class))
	} else {
		b.WriteString(" AS " + quoteString(m.Source))
	}
	return b.String()
}

func (m *SqlCreateUser) String() string {
	s := "CREATE USER " + ifNotExists(m.IfNotExists) + quoteName(m.Name) + commentSQL(m.Comment)
	if m.Password != nil {
		s += " PASSWORD " + m.Password.String()
	} else {
		s += " SALT " + m.Salt.String() + " HASH " + m.Hash.String()
	}
	if m.Admin {
		s += " ADMIN"
	}
	return s
}

func (m *SqlCreateRole) String() string {
	return "CREATE ROLE " + ifNotExists(m.IfNotExists) + quoteName(m.Name)
}

func (m *SqlCreateSchema) String() string {
	s := "CREATE SCHEMA " + ifNotExists(m.IfNotExists) + quoteName(m.Name) +
		" AUTHORIZATION " + quoteName(m.Authorization)
	if len(m.EngineParams) > 0 {
		s += " WITH " + joinNames(m.EngineParams)
	}
	return s
}

func (m *SqlCreateConstant) String() string {
	return "CREATE CONSTANT " + ifNotExists(m.IfNotExists) + qualified(m.Schema, m.Name) +
		" VALUE " + m.Value.String()
}

func (m *SqlCreateDomain) String() string {
	// the column renders as VALUE type ..
	def := m.Column.String()
	def = strings.TrimPrefix(def, quoteName(m.Column.Name)+" ")
	return "CREATE DOMAIN " + ifNotExists(m.IfNotExists) + quoteName(m.Name) + " AS " + def
}

func (m *SqlCreateAggregate) String() string {
	s := "CREATE "
	if m.Force {
		s += "FORCE "
	}
	return s + "AGGREGATE " + ifNotExists(m.IfNotExists) + qualified(m.Schema, m.Name) +
		" FOR " + quoteName(m.Class)
}

func (m *SqlCreateAlias) String() string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if m.Force {
		b.WriteString("FORCE ")
	}
	b.WriteString("ALIAS " + ifNotExists(m.IfNotExists) + qualified(m.Schema, m.Name))
	if m.Deterministic {
		b.WriteString(" DETERMINISTIC")
	}
	if !m.BufferResultSet {
		b.WriteString(" NOBUFFER")
	}
	if m.Method != "" {
		b.WriteString(" FOR " + quoteName(m.Method))
	} else {
		b.WriteString(" AS " + quoteString(m.Source))
	}
	return b.String()
}

func (m *SqlCreateSynonym) String() string {
	s := "CREATE "
	if m.OrReplace {
		s += "OR REPLACE "
	}
	return s + "SYNONYM " + ifNotExists(m.IfNotExists) + qualified(m.Schema, m.Name) +
		" FOR " + qualified(m.TargetSchema, m.TargetTable) + commentSQL(m.Comment)
}

func (m *SqlDrop) String() string {
	if m.AllObjects {
		if m.DeleteFiles {
			return "DROP ALL OBJECTS DELETE FILES"
		}
		return "DROP ALL OBJECTS"
	}
	names := make([]string, len(m.Objects))
	for i, n := range m.Objects {
		names[i] = n.String()
	}
	s := "DROP " + m.Type.String() + " " + ifExists(m.IfExists) + strings.Join(names, ", ")
	if m.Table.Name != "" {
		s += " ON " + m.Table.String()
	}
	return s + dropActionSQL[m.Action]
}

func objectSchemaScoped(t schema.ObjectType) bool {
	switch t {
	case schema.ObjectSchema, schema.ObjectUser, schema.ObjectRole,
		schema.ObjectDomain, schema.ObjectAggregate:
		return false
	}
	return true
}

func checkExisting(b *bool) string {
	switch {
	case b == nil:
		return ""
	case *b:
		return " CHECK"
	}
	return " NOCHECK"
}

func (m *SqlAlterTable) String() string {
	s := "ALTER TABLE " + ifExists(m.IfTableExists) + qualified(m.Schema, m.Table)
	col := quoteName(m.Column)
	switch m.Action {
	case AlterAddColumn:
		defs := make([]string, len(m.Columns))
		for i, c := range m.Columns {
			defs[i] = c.String()
		}
		s += " ADD COLUMN " + ifNotExists(m.IfNotExists)
		if len(defs) == 1 {
			s += defs[0]
		} else {
			s += "(" + strings.Join(defs, ", ") + ")"
		}
		switch {
		case m.Before != "":
			s += " BEFORE " + quoteName(m.Before)
		case m.After != "":
			s += " AFTER " + quoteName(m.After)
		case m.First:
			s += " FIRST"
		}
		return s
	case AlterDropColumn:
		return s + " DROP COLUMN " + ifExists(m.IfExists) + joinNames(m.Drop)
	case AlterRename:
		s += " RENAME TO " + quoteName(m.NewName)
		if m.Hidden {
			s += " HIDDEN"
		}
		return s
	case AlterRenameColumn:
		return s + " ALTER COLUMN " + col + " RENAME TO " + quoteName(m.NewName)
	case AlterRenameConstraint:
		return s + " RENAME CONSTRAINT " + quoteName(m.Constraint) + " TO " + quoteName(m.NewName)
	case AlterDropConstraint:
		return s + " DROP CONSTRAINT " + ifExists(m.IfExists) + quoteName(m.Constraint)
	case AlterDropIndex:
		return s + " DROP INDEX " + quoteName(m.Constraint)
	case AlterDropPrimaryKey:
		return s + " DROP PRIMARY KEY"
	case AlterSetReferentialIntegrity:
		return s + " SET REFERENTIAL_INTEGRITY " + strings.ToUpper(strconv.FormatBool(m.Enabled)) +
			checkExisting(m.CheckExisting)
	case AlterColumnType:
		return s + " ALTER COLUMN " + m.NewColumn.String()
	case AlterColumnNull:
		return s + " ALTER COLUMN " + col + " SET NULL"
	case AlterColumnNotNull:
		return s + " ALTER COLUMN " + col + " SET NOT NULL"
	case AlterColumnDefault:
		if m.Expr == nil {
			return s + " ALTER COLUMN " + col + " DROP DEFAULT"
		}
		return s + " ALTER COLUMN " + col + " SET DEFAULT " + m.Expr.String()
	case AlterColumnOnUpdate:
		if m.Expr == nil {
			return s + " ALTER COLUMN " + col + " DROP ON UPDATE"
		}
		return s + " ALTER COLUMN " + col + " SET ON UPDATE " + m.Expr.String()
	case AlterColumnVisibility:
		if m.Visible {
			return s + " ALTER COLUMN " + col + " SET VISIBLE"
		}
		return s + " ALTER COLUMN " + col + " SET INVISIBLE"
	case AlterColumnSelectivity:
		return s + " ALTER COLUMN " + col + " SELECTIVITY " + m.Expr.String()
	}
	return s
}

func (m *SqlAlterIndex) String() string {
	return "ALTER INDEX " + ifExists(m.IfExists) + qualified(m.Schema, m.Name) + " RENAME TO " + quoteName(m.NewName)
}

func (m *SqlAlterView) String() string {
	return "ALTER VIEW " + ifExists(m.IfExists) + qualified(m.Schema, m.Name) + " RECOMPILE"
}

func (m *SqlAlterSchema) String() string {
	return "ALTER SCHEMA " + quoteName(m.Name) + " RENAME TO " + quoteName(m.NewName)
}

func (m *SqlAlterSequence) String() string {
	if m.Column != "" {
		return "ALTER TABLE " + qualified(m.Schema, m.Table) + " ALTER COLUMN " + quoteName(m.Column) +
			" RESTART WITH " + m.Start.String()
	}
	s := "ALTER SEQUENCE " + ifExists(m.IfExists) + qualified(m.Schema, m.Name)
	if m.Start != nil {
		s += " RESTART WITH " + m.Start.String()
	}
	return s + m.SequenceOptions.String()
}

func (m *SqlAlterUser) String() string {
	s := "ALTER USER " + quoteName(m.User)
	switch m.Action {
	case AlterUserRename:
		return s + " RENAME TO " + quoteName(m.NewName)
	case AlterUserAdmin:
		return s + " ADMIN " + strings.ToUpper(strconv.FormatBool(m.Admin))
	}
	if m.Password != nil {
		return s + " SET PASSWORD " + m.Password.String()
	}
	return s + " SET SALT " + m.Salt.String() + " HASH " + m.Hash.String()
}

func (m *SqlComment) String() string {
	if m.Column != "" {
		return "COMMENT ON COLUMN " + qualified(m.Schema, m.Name) + "." + quoteName(m.Column) +
			" IS " + m.Comment.String()
	}
	name := quoteName(m.Name)
	if objectSchemaScoped(m.Type) {
		name = qualified(m.Schema, m.Name)
	}
	return "COMMENT ON " + m.Type.String() + " " + name + " IS " + m.Comment.String()
}

func (m *SqlTruncate) String() string {
	s := "TRUNCATE TABLE " + m.Table.SQL()
	if m.Restart {
		s += " RESTART IDENTITY"
	}
	return s
}

func (m *SqlGrantRevoke) String() string {
	var b strings.Builder
	if m.Grant {
		b.WriteString("GRANT ")
	} else {
		b.WriteString("REVOKE ")
	}
	if len(m.Roles) > 0 {
		b.WriteString(joinNames(m.Roles))
	} else {
		rights := make([]string, len(m.Rights))
		for i, r := range m.Rights {
			rights[i] = string(r)
		}
		b.WriteString(strings.Join(rights, ", "))
		switch {
		case m.Schema != "":
			b.WriteString(" ON SCHEMA " + quoteName(m.Schema))
		case len(m.Tables) > 0:
			names := make([]string, len(m.Tables))
			for i, t := range m.Tables {
				names[i] = t.SQL()
			}
			b.WriteString(" ON " + strings.Join(names, ", "))
		}
	}
	if m.Grant {
		b.WriteString(" TO ")
	} else {
		b.WriteString(" FROM ")
	}
	b.WriteString(quoteName(m.Grantee))
	return b.String()
}

var (
	_ Prepared = (*SqlCreateTable)(nil)
	_ Prepared = (*SqlCreateLinkedTable)(nil)
	_ Prepared = (*SqlCreateView)(nil)
	_ Prepared = (*SqlCreateIndex)(nil)
	_ Prepared = (*SqlAddConstraint)(nil)
	_ Prepared = (*SqlCreateSequence)(nil)
	_ Prepared = (*SqlCreateTrigger)(nil)
	_ Prepared = (*SqlCreateUser)(nil)
	_ Prepared = (*SqlCreateRole)(nil)
	_ Prepared = (*SqlCreateSchema)(nil)
	_ Prepared = (*SqlCreateConstant)(nil)
	_ Prepared = (*SqlCreateDomain)(nil)
	_ Prepared = (*SqlCreateAggregate)(nil)
	_ Prepared = (*SqlCreateAlias)(nil)
	_ Prepared = (*SqlCreateSynonym)(nil)
	_ Prepared = (*SqlDrop)(nil)
	_ Prepared = (*SqlAlterTable)(nil)
	_ Prepared = (*SqlAlterIndex)(nil)
	_ Prepared = (*SqlAlterView)(nil)
	_ Prepared = (*SqlAlterSchema)(nil)
	_ Prepared = (*SqlAlterSequence)(nil)
	_ Prepared = (*SqlAlterUser)(nil)
	_ Prepared = (*SqlComment)(nil)
	_ Prepared = (*SqlTruncate)(nil)
	_ Prepared = (*SqlGrantRevoke)(nil)
)
