package rel

import (
	"strings"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

// nullConstraint is what a column definition says about NULL.
type nullConstraint uint8

const (
	noNullConstraint nullConstraint = iota
	nullIsAllowed
	nullIsNotAllowed
)

func (p *Parser) readIfExists(ifExists bool) bool {
	if p.readIf("IF") {
		p.read("EXISTS")
		return true
	}
	return ifExists
}

func (p *Parser) readIfNotExists() bool {
	if p.readIf("IF") {
		p.read("NOT")
		p.read("EXISTS")
		return true
	}
	return false
}

// readCommentIf reads COMMENT [IS] 'text'.
func (p *Parser) readCommentIf() string {
	if p.readIf("COMMENT") {
		p.readIf("IS")
		return p.readString()
	}
	return ""
}

func (p *Parser) readIfAffinity() bool {
	return p.readIf("AFFINITY") || p.readIf("SHARD")
}

// sameSchema fails unless two schema names are the same.
func (p *Parser) sameSchema(a, b string) {
	if !p.equalsToken(a, b) {
		p.fail(sqlerr.New(sqlerr.SchemaNameMustMatch))
	}
}

// checkSchemaOf fails when @written names a schema other than @owner, an
// empty @written defaults to @owner.
func (p *Parser) checkSchemaOf(owner, written string) {
	if written != "" {
		p.sameSchema(owner, written)
	}
}

// parseIndexColumnList reads name [ASC|DESC] [NULLS FIRST|LAST], .. after
// the opening (.
func (p *Parser) parseIndexColumnList() []IndexColumn {
	var cols []IndexColumn
	for {
		c := IndexColumn{Name: p.readColumnIdentifier()}
		o := &expr.OrderNode{}
		p.parseSortType(o)
		c.Desc = o.Desc
		c.NullsFirst = o.NullsFirst
		c.NullsLast = o.NullsLast
		cols = append(cols, c)
		if !p.readIfMore(true) {
			return cols
		}
	}
}

func (p *Parser) parseDeclare() Prepared { return p.parseCreate() }

func (p *Parser) parseCreate() Prepared {
	orReplace := false
	if p.readIf("OR") {
		p.read("REPLACE")
		orReplace = true
	}
	force := p.readIf("FORCE")
	switch {
	case p.readIf("VIEW"):
		return p.parseCreateView(force, orReplace)
	case p.readIf("ALIAS"):
		return p.parseCreateAlias(force)
	case p.readIf("SEQUENCE"):
		return p.parseCreateSequence()
	case p.readIf("USER"):
		return p.parseCreateUser()
	case p.readIf("TRIGGER"):
		return p.parseCreateTrigger(force)
	case p.readIf("ROLE"):
		return p.parseCreateRole()
	case p.readIf("SCHEMA"):
		return p.parseCreateSchema()
	case p.readIf("CONSTANT"):
		return p.parseCreateConstant()
	case p.readIf("DOMAIN") || p.readIf("TYPE") || p.readIf("DATATYPE"):
		return p.parseCreateDomain()
	case p.readIf("AGGREGATE"):
		return p.parseCreateAggregate(force)
	case p.readIf("LINKED"):
		return p.parseCreateLinkedTable(false, false, force)
	}
	memory, cached := false, false
	if p.readIf("MEMORY") {
		memory = true
	} else if p.readIf("CACHED") {
		cached = true
	}
	switch {
	case p.readIf("LOCAL"):
		p.read("TEMPORARY")
		if p.readIf("LINKED") {
			return p.parseCreateLinkedTable(true, false, force)
		}
		p.read("TABLE")
		return p.parseCreateTable(true, false, cached)
	case p.readIf("GLOBAL"):
		p.read("TEMPORARY")
		if p.readIf("LINKED") {
			return p.parseCreateLinkedTable(true, true, force)
		}
		p.read("TABLE")
		return p.parseCreateTable(true, true, cached)
	case p.readIf("TEMP") || p.readIf("TEMPORARY"):
		if p.readIf("LINKED") {
			return p.parseCreateLinkedTable(true, true, force)
		}
		p.read("TABLE")
		return p.parseCreateTable(true, true, cached)
	case p.readIf("TABLE"):
		if !cached && !memory {
			cached = p.settings.DefaultTableType == schema.TableStorageCached
		}
		return p.parseCreateTable(false, false, cached)
	case p.readIf("SYNONYM"):
		return p.parseCreateSynonym(orReplace)
	}
	return p.parseCreateIndex()
}

func (p *Parser) parseCreateIndex() Prepared {
	cmd := &SqlCreateIndex{}
	if p.readIf("PRIMARY") {
		p.read("KEY")
		cmd.PrimaryKey = true
		cmd.Hash = p.readIf("HASH")
	} else {
		cmd.Unique = p.readIf("UNIQUE")
		cmd.Hash = p.readIf("HASH")
		cmd.Spatial = p.readIf("SPATIAL")
		p.read("INDEX")
	}
	indexSchema, named := "", false
	if !p.isWord("ON") {
		cmd.IfNotExists = p.readIfNotExists()
		indexSchema, cmd.Name = p.readIdentifierWithSchema()
		named = true
	}
	p.read("ON")
	tableSchema, table := p.readIdentifierWithSchema()
	if named {
		p.sameSchema(p.schemaOrDefault(indexSchema), p.schemaOrDefault(tableSchema))
	}
	cmd.Schema = p.getSchema(tableSchema).Name
	cmd.Table = table
	cmd.Comment = p.readCommentIf()
	p.readTok(lex.TokenLeftParenthesis)
	cmd.Columns = p.parseIndexColumnList()
	if p.readIf("USING") {
		p.read("BTREE")
	}
	return cmd
}

func (p *Parser) parseCreateTable(temp, globalTemp, persistIndexes bool) Prepared {
	ifNot := p.readIfNotExists()
	schemaName, name := p.readIdentifierWithSchema()
	if temp && globalTemp && p.equalsToken(schemaName, "SESSION") {
		// DB2 declares local temporary tables in SESSION
		schemaName = p.session.CurrentSchema()
		globalTemp = false
	}
	sch := p.getSchema(schemaName)
	cmd := &SqlCreateTable{
		Schema:         sch.Name,
		Name:           name,
		IfNotExists:    ifNot,
		Temporary:      temp,
		Global:         globalTemp,
		PersistIndexes: persistIndexes,
		PersistData:    true,
	}
	cmd.Comment = p.readCommentIf()
	if p.readIfTok(lex.TokenLeftParenthesis) {
		if !p.readIfTok(lex.TokenRightParenthesis) {
			for {
				p.parseTableColumnDefinition(&cmd.TableElements, sch.Name, name)
				if !p.readIfMore(false) {
					break
				}
			}
		}
	}
	// MySQL table options
	if p.readIf("COMMENT") {
		if p.readIfTok(lex.TokenEqual) {
			cmd.Comment = p.readString()
		}
	}
	if p.readIf("ENGINE") {
		if p.readIfTok(lex.TokenEqual) {
			engine := p.readUniqueIdentifier()
			if !strings.EqualFold(engine, "INNODB") && !strings.EqualFold(engine, "MYISAM") {
				p.fail(sqlerr.New(sqlerr.FeatureNotSupported, engine))
			}
		} else {
			cmd.Engine = p.readUniqueIdentifier()
		}
	}
	if p.readIfTok(lex.TokenWith) {
		cmd.EngineParams = p.readEngineParams()
	}
	if p.readIf("AUTO_INCREMENT") {
		p.readTok(lex.TokenEqual)
		if !p.isTok(lex.TokenValue) || p.s.Value().Type() != value.IntType {
			p.failExpected("integer")
		}
		p.next()
	}
	p.readIf("DEFAULT")
	if p.readIf("CHARSET") {
		p.readTok(lex.TokenEqual)
		if !p.readIf("UTF8") {
			p.read("UTF8MB4")
		}
	}
	if temp {
		if p.readIfTok(lex.TokenOn) {
			p.read("COMMIT")
			if p.readIf("DROP") {
				cmd.OnCommitDrop = true
			} else if p.readIf("DELETE") {
				p.read("ROWS")
				cmd.OnCommitDelete = true
			}
		} else if p.readIfTok(lex.TokenNot) {
			if !p.readIf("PERSISTENT") {
				p.read("LOGGED")
			}
			cmd.PersistData = false
		}
		if p.readIf("TRANSACTIONAL") {
			cmd.Transactional = true
		}
	} else if !persistIndexes && p.readIfTok(lex.TokenNot) {
		p.read("PERSISTENT")
		cmd.PersistData = false
	}
	if p.readIf("HIDDEN") {
		cmd.Hidden = true
	}
	if p.readIf("AS") {
		cmd.Sorted = p.readIf("SORTED")
		cmd.Query = p.parseSelect()
		if p.readIfTok(lex.TokenWith) {
			cmd.WithNoData = p.readIf("NO")
			p.read("DATA")
		}
	}
	if p.readIf("ROW_FORMAT") {
		if p.readIfTok(lex.TokenEqual) {
			p.readColumnIdentifier()
		}
	}
	return cmd
}

func (p *Parser) readEngineParams() []string {
	var params []string
	for {
		params = append(params, p.readUniqueIdentifier())
		if !p.readIfTok(lex.TokenComma) {
			return params
		}
	}
}

// parseTableColumnDefinition reads one element of a table definition into
// @te.  Column level keys become constraints of their own.
func (p *Parser) parseTableColumnDefinition(te *TableElements, schemaName, tableName string) {
	if c := p.parseAlterTableAddConstraintIf(schemaName, tableName, false); c != nil {
		te.add(c)
		return
	}
	col := p.parseColumnForTable(p.readColumnIdentifier(), true, true)
	if col.AutoIncrement && col.PrimaryKey {
		col.PrimaryKey = false
		te.Constraints = append(te.Constraints, &SqlAddConstraint{
			Type:          schema.ConstraintPrimaryKey,
			Schema:        schemaName,
			Table:         tableName,
			Columns:       []IndexColumn{{Name: col.Name}},
			CheckExisting: true,
		})
	}
	te.Columns = append(te.Columns, col)
	constraintName := ""
	if p.readIfTok(lex.TokenConstraint) {
		constraintName = p.readColumnIdentifier()
	}
	affinity := p.mode.AllowAffinityKey && p.readIfAffinity()
	single := []IndexColumn{{Name: col.Name}}
	switch {
	case p.readIfTok(lex.TokenPrimary):
		p.read("KEY")
		te.Constraints = append(te.Constraints, &SqlAddConstraint{
			Type:           schema.ConstraintPrimaryKey,
			Schema:         schemaName,
			Table:          tableName,
			Name:           constraintName,
			Columns:        single,
			PrimaryKeyHash: p.readIf("HASH"),
			CheckExisting:  true,
		})
		if p.readIf("AUTO_INCREMENT") {
			p.parseAutoIncrement(col.Column)
		}
		if affinity {
			te.Indexes = append(te.Indexes, affinityIndex(schemaName, tableName, single))
		}
	case affinity:
		p.read("KEY")
		te.Indexes = append(te.Indexes, affinityIndex(schemaName, tableName, single))
	case p.readIfTok(lex.TokenUnique):
		te.Constraints = append(te.Constraints, &SqlAddConstraint{
			Type:          schema.ConstraintUnique,
			Schema:        schemaName,
			Table:         tableName,
			Name:          constraintName,
			Columns:       single,
			CheckExisting: true,
		})
	}
	if p.parseNotNullConstraint() == nullIsNotAllowed {
		col.Nullable = false
	}
	if p.readIfTok(lex.TokenCheck) {
		te.Constraints = append(te.Constraints, &SqlAddConstraint{
			Type:          schema.ConstraintCheck,
			Schema:        schemaName,
			Table:         tableName,
			Name:          constraintName,
			Check:         p.readExpression(),
			CheckExisting: true,
		})
	}
	if p.readIf("REFERENCES") {
		ref := &SqlAddConstraint{
			Type:          schema.ConstraintReferences,
			Schema:        schemaName,
			Table:         tableName,
			Name:          constraintName,
			Columns:       single,
			CheckExisting: true,
		}
		p.parseReferences(ref, schemaName, tableName)
		te.Constraints = append(te.Constraints, ref)
	}
}

func (te *TableElements) add(c Prepared) {
	switch m := c.(type) {
	case *SqlAddConstraint:
		te.Constraints = append(te.Constraints, m)
	case *SqlCreateIndex:
		te.Indexes = append(te.Indexes, m)
	}
}

func affinityIndex(schemaName, tableName string, cols []IndexColumn) *SqlCreateIndex {
	return &SqlCreateIndex{Schema: schemaName, Table: tableName, Affinity: true, Columns: cols}
}

// parseAlterTableAddConstraintIf reads a table constraint, or an INDEX /
// KEY where the mode allows them, and returns nil if there is none.
func (p *Parser) parseAlterTableAddConstraintIf(schemaName, tableName string, ifTableExists bool) Prepared {
	var (
		name       string
		comment    string
		ifNot      bool
		allowIndex = p.mode.IndexDefinitionInCreateTable
	)
	if p.readIfTok(lex.TokenConstraint) {
		ifNot = p.readIfNotExists()
		var written string
		written, name = p.readIdentifierWithSchema()
		p.checkSchemaOf(schemaName, written)
		comment = p.readCommentIf()
		allowIndex = true
	}
	cmd := &SqlAddConstraint{
		Schema:        schemaName,
		Table:         tableName,
		Name:          name,
		IfNotExists:   ifNot,
		IfTableExists: ifTableExists,
		Comment:       comment,
		CheckExisting: true,
	}
	switch {
	case p.readIfTok(lex.TokenPrimary):
		p.read("KEY")
		cmd.Type = schema.ConstraintPrimaryKey
		cmd.PrimaryKeyHash = p.readIf("HASH")
		p.readTok(lex.TokenLeftParenthesis)
		cmd.Columns = p.parseIndexColumnList()
		if p.readIf("INDEX") {
			_, cmd.Index = p.readIdentifierWithSchema()
		}
		return cmd
	case allowIndex && (p.isWord("INDEX") || p.isWord("KEY")):
		// INDEX and KEY are also column names: KEY INT is a column
		mark := p.mark()
		p.next()
		if p.isIdentifier() && !p.s.Quoted() {
			if _, ok := value.TypeByName(strings.ToUpper(p.s.Token())); ok {
				p.resetTo(mark)
				return nil
			}
		}
		ix := &SqlCreateIndex{
			Schema:        schemaName,
			Table:         tableName,
			IfTableExists: ifTableExists,
			Comment:       comment,
		}
		if !p.readIfTok(lex.TokenLeftParenthesis) {
			ix.Name = p.readUniqueIdentifier()
			p.readTok(lex.TokenLeftParenthesis)
		}
		ix.Columns = p.parseIndexColumnList()
		if p.readIf("USING") {
			p.read("BTREE")
		}
		return ix
	case p.mode.AllowAffinityKey && p.readIfAffinity():
		p.read("KEY")
		p.readTok(lex.TokenLeftParenthesis)
		ix := affinityIndex(schemaName, tableName, p.parseIndexColumnList())
		ix.IfTableExists = ifTableExists
		return ix
	case p.readIfTok(lex.TokenCheck):
		cmd.Type = schema.ConstraintCheck
		cmd.Check = p.readExpression()
	case p.readIfTok(lex.TokenUnique):
		cmd.Type = schema.ConstraintUnique
		p.readIf("KEY")
		p.readIf("INDEX")
		if !p.readIfTok(lex.TokenLeftParenthesis) {
			cmd.Name = p.readUniqueIdentifier()
			p.readTok(lex.TokenLeftParenthesis)
		}
		cmd.Columns = p.parseIndexColumnList()
		if p.readIf("INDEX") {
			_, cmd.Index = p.readIdentifierWithSchema()
		}
		if p.readIf("USING") {
			p.read("BTREE")
		}
	case p.readIfTok(lex.TokenForeign):
		cmd.Type = schema.ConstraintReferences
		p.read("KEY")
		p.readTok(lex.TokenLeftParenthesis)
		cmd.Columns = p.parseIndexColumnList()
		if p.readIf("INDEX") {
			_, cmd.Index = p.readIdentifierWithSchema()
		}
		p.read("REFERENCES")
		p.parseReferences(cmd, schemaName, tableName)
	default:
		if name != "" {
			p.failSyntax()
		}
		return nil
	}
	if p.readIf("NOCHECK") {
		cmd.CheckExisting = false
	} else {
		p.readIfTok(lex.TokenCheck)
	}
	return cmd
}

// parseReferences reads the referenced table of a foreign key, a bare
// column list refers to the table itself.
func (p *Parser) parseReferences(cmd *SqlAddConstraint, schemaName, tableName string) {
	if p.readIfTok(lex.TokenLeftParenthesis) {
		cmd.RefSchema, cmd.RefTable = schemaName, tableName
		cmd.RefColumns = p.parseIndexColumnList()
	} else {
		refSchema, refTable := p.readIdentifierWithSchema()
		if refSchema == "" {
			refSchema = schemaName
		}
		cmd.RefSchema = p.getSchema(refSchema).Name
		cmd.RefTable = refTable
		if p.readIfTok(lex.TokenLeftParenthesis) {
			cmd.RefColumns = p.parseIndexColumnList()
		}
	}
	if p.readIf("INDEX") {
		_, cmd.RefIndex = p.readIdentifierWithSchema()
	}
	for p.readIfTok(lex.TokenOn) {
		if p.readIf("DELETE") {
			cmd.OnDelete = p.parseAction()
		} else {
			p.read("UPDATE")
			cmd.OnUpdate = p.parseAction()
		}
	}
	if p.readIfTok(lex.TokenNot) {
		p.read("DEFERRABLE")
	} else {
		p.readIf("DEFERRABLE")
	}
}

func (p *Parser) parseAction() ReferentialAction {
	if a, ok := p.parseCascadeOrRestrict(); ok {
		if a == DropCascade {
			return RefCascade
		}
		return RefRestrict
	}
	if p.readIf("NO") {
		p.read("ACTION")
		return RefRestrict
	}
	p.read("SET")
	if p.readIfTok(lex.TokenNull) {
		return RefSetNull
	}
	p.read("DEFAULT")
	return RefSetDefault
}

func (p *Parser) parseCascadeOrRestrict() (DropAction, bool) {
	switch {
	case p.readIf("CASCADE"):
		return DropCascade, true
	case p.readIf("RESTRICT"):
		return DropRestrict, true
	}
	return DropDefault, false
}

// parseNotNullConstraint reads NULL or NOT NULL, with the Oracle
// ENABLE / DISABLE / VALIDATE suffixes.
func (p *Parser) parseNotNullConstraint() nullConstraint {
	var c nullConstraint
	switch {
	case p.isTok(lex.TokenNot):
		mark := p.mark()
		p.next()
		if !p.readIfTok(lex.TokenNull) {
			// NOT PERSISTENT and friends belong to the table
			p.resetTo(mark)
			return noNullConstraint
		}
		c = nullIsNotAllowed
	case p.readIfTok(lex.TokenNull):
		c = nullIsAllowed
	default:
		return noNullConstraint
	}
	if p.mode.Is(lex.ModeOracle) {
		if p.readIf("ENABLE") {
			// VALIDATE and NOVALIDATE only change how existing rows are checked
			if !p.readIf("VALIDATE") {
				p.readIf("NOVALIDATE")
			}
		}
		if p.readIf("DISABLE") {
			c = nullIsAllowed
			if !p.readIf("VALIDATE") {
				p.readIf("NOVALIDATE")
			}
		}
	}
	return c
}

// parseAutoIncrement reads the optional (start [, increment]) of
// AUTO_INCREMENT and IDENTITY.
func (p *Parser) parseAutoIncrement(col *schema.Column) {
	start, inc := int64(1), int64(1)
	if p.readIfTok(lex.TokenLeftParenthesis) {
		start = p.readLong()
		if p.readIfTok(lex.TokenComma) {
			inc = p.readLong()
		}
		p.readTok(lex.TokenRightParenthesis)
	}
	col.AutoIncrement = true
	col.IncrementStart = start
	col.IncrementBy = inc
}

// parseColumnForTable reads a column definition after its name.
func (p *Parser) parseColumnForTable(name string, defaultNullable, forTable bool) *ColumnDef {
	var col *schema.Column
	isIdentity := p.readIf("IDENTITY")
	if isIdentity || p.readIf("BIGSERIAL") {
		// Oracle: ID IDENTITY is NUMBER(19) AUTO_INCREMENT PRIMARY KEY
		if isIdentity && p.mode.Is(lex.ModeOracle) && p.isIdentifier() &&
			p.equalsToken(p.s.Token(), "NUMBER") {
			col = p.parseColumnWithType(name, forTable)
		} else {
			col = schema.NewColumnType(name, "BIGINT")
		}
		p.parseAutoIncrement(col)
		col.Nullable = false
		col.PrimaryKey = isIdentity
	} else if p.readIf("SERIAL") {
		col = schema.NewColumnType(name, "INT")
		p.parseAutoIncrement(col)
		col.Nullable = false
	} else {
		col = p.parseColumnWithType(name, forTable)
	}
	def := &ColumnDef{Column: col}
	if p.readIf("INVISIBLE") {
		col.Invisible = true
	} else if p.readIf("VISIBLE") {
		col.Invisible = false
	}
	switch p.parseNotNullConstraint() {
	case nullIsAllowed:
		col.Nullable = true
	case nullIsNotAllowed:
		col.Nullable = false
	default:
		if !col.AutoIncrement {
			col.Nullable = defaultNullable && col.Nullable
		}
	}
	switch {
	case p.readIf("AS"):
		if isIdentity {
			p.failSyntax()
		}
		def.ComputedExpr = p.readExpression()
		col.Computed = def.ComputedExpr.String()
	case p.readIf("DEFAULT"):
		def.DefaultExpr = p.readExpression()
		col.Default = def.DefaultExpr.String()
	case p.readIf("GENERATED"):
		if !p.readIf("ALWAYS") {
			p.read("BY")
			p.read("DEFAULT")
		}
		p.read("AS")
		p.read("IDENTITY")
		start, inc := int64(1), int64(1)
		if p.readIfTok(lex.TokenLeftParenthesis) {
			p.read("START")
			p.readIfTok(lex.TokenWith)
			start = p.readLong()
			p.readIfTok(lex.TokenComma)
			if p.readIf("INCREMENT") {
				p.readIf("BY")
				inc = p.readLong()
			}
			p.readTok(lex.TokenRightParenthesis)
		}
		col.AutoIncrement = true
		col.IncrementStart = start
		col.IncrementBy = inc
		col.PrimaryKey = true
	}
	if p.isTok(lex.TokenOn) {
		mark := p.mark()
		p.next()
		if p.readIf("UPDATE") {
			def.OnUpdateExpr = p.readExpression()
			col.OnUpdate = def.OnUpdateExpr.String()
		} else {
			p.resetTo(mark)
		}
	}
	if p.parseNotNullConstraint() == nullIsNotAllowed {
		col.Nullable = false
	}
	if p.readIf("AUTO_INCREMENT") || p.readIf("BIGSERIAL") || p.readIf("SERIAL") {
		p.parseAutoIncrement(col)
		if p.parseNotNullConstraint() == nullIsNotAllowed {
			col.Nullable = false
		}
		col.Nullable = false
	} else if p.readIf("IDENTITY") {
		p.parseAutoIncrement(col)
		col.PrimaryKey = true
		col.Nullable = false
		if p.parseNotNullConstraint() == nullIsNotAllowed {
			col.Nullable = false
		}
	}
	if p.readIf("NULL_TO_DEFAULT") {
		col.NullToDefault = true
	}
	if p.readIf("SEQUENCE") {
		seqSchema, seqName := p.readIdentifierWithSchema()
		col.Sequence = p.findSequence(seqSchema, seqName).SQL()
	}
	if p.readIf("SELECTIVITY") {
		col.Selectivity = p.readNonNegativeInt()
	}
	if c := p.readCommentIf(); c != "" {
		col.Comment = c
	}
	return def
}

func (p *Parser) parseCreateView(force, orReplace bool) Prepared {
	cmd := &SqlCreateView{OrReplace: orReplace, Force: force}
	cmd.IfNotExists = p.readIfNotExists()
	cmd.TableExpression = p.readIf("TABLE_EXPRESSION")
	schemaName, name := p.readIdentifierWithSchema()
	cmd.Schema = p.getSchema(schemaName).Name
	cmd.Name = name
	cmd.Comment = p.readCommentIf()
	if p.readIfTok(lex.TokenLeftParenthesis) {
		cmd.Columns = p.parseNameList()
	}
	p.read("AS")
	start := p.s.LastPos()
	q, err := p.parseViewBody(name)
	if err != nil {
		if !force {
			panic(err)
		}
		// a forced view keeps its text, it is checked again when used
		for !p.isTok(lex.TokenEOF) && !p.isTok(lex.TokenSemicolon) {
			p.next()
		}
		cmd.QuerySQL = strings.TrimSpace(p.s.Slice(start, p.s.LastPos()))
		return cmd
	}
	cmd.Query = q
	return cmd
}

// parseViewBody parses and binds the query of a view, errors are returned
// instead of aborting so FORCE can keep the text.
func (p *Parser) parseViewBody(name string) (q Query, err *sqlerr.Error) {
	p.session.SetParsingView(true, name)
	defer func() {
		p.session.SetParsingView(false, name)
		if r := recover(); r != nil {
			e, ok := r.(*sqlerr.Error)
			if !ok {
				panic(r)
			}
			q, err = nil, e
		}
	}()
	q = p.parseSelect()
	p.bindQuery(q, nil)
	return q, nil
}

// checkAliasName fails when @name is taken by a keyword, a built-in
// function or aggregate.
func (p *Parser) checkAliasName(name string, allowOverride bool) {
	_, builtin := expr.FuncLookup(name)
	if builtin && allowOverride {
		return
	}
	_, agg := expr.AggregateLookup(name)
	if lex.IsKeyword(name) || builtin || agg {
		p.fail(sqlerr.New(sqlerr.FunctionAliasAlreadyExists, name))
	}
}

func (p *Parser) parseCreateAlias(force bool) Prepared {
	cmd := &SqlCreateAlias{Force: force, BufferResultSet: true}
	cmd.IfNotExists = p.readIfNotExists()
	schemaName, name := p.readIdentifierWithSchema()
	p.checkAliasName(name, p.settings.AllowBuiltinAliasOverride)
	cmd.Schema = p.getSchema(schemaName).Name
	cmd.Name = name
	cmd.Deterministic = p.readIf("DETERMINISTIC")
	if p.readIf("NOBUFFER") {
		cmd.BufferResultSet = false
	}
	if p.readIf("AS") {
		cmd.Source = p.readString()
	} else {
		p.readTok(lex.TokenFor)
		cmd.Method = p.readUniqueIdentifier()
	}
	return cmd
}

// parseSequenceOptions reads options in any order.  CREATE starts with
// START WITH, ALTER restarts with RESTART WITH.
func (p *Parser) parseSequenceOptions(opts *SequenceOptions, create bool) bool {
	belongsToTable := false
	for {
		switch {
		case create && p.readIf("START"):
			p.readIfTok(lex.TokenWith)
			opts.Start = p.readExpression()
		case !create && p.readIf("RESTART"):
			p.readIfTok(lex.TokenWith)
			opts.Start = p.readExpression()
		case p.readIf("INCREMENT"):
			p.readIf("BY")
			opts.Increment = p.readExpression()
		case p.readIf("MINVALUE"):
			opts.MinValue = p.readExpression()
		case p.readIf("NOMINVALUE"):
			opts.NoMinValue = true
		case p.readIf("MAXVALUE"):
			opts.MaxValue = p.readExpression()
		case p.readIf("NOMAXVALUE"):
			opts.NoMaxValue = true
		case p.readIf("CYCLE"):
			opts.Cycle = true
		case p.readIf("NOCYCLE"):
			opts.NoCycle = true
		case p.readIf("NO"):
			switch {
			case p.readIf("MINVALUE"):
				opts.NoMinValue = true
			case p.readIf("MAXVALUE"):
				opts.NoMaxValue = true
			case p.readIf("CYCLE"):
				opts.NoCycle = true
			case p.readIf("CACHE"):
				opts.Cache = expr.NewValueNode(value.NewIntValue(1))
			default:
				p.failSyntax()
			}
		case p.readIf("CACHE"):
			opts.Cache = p.readExpression()
		case p.readIf("NOCACHE"):
			opts.Cache = expr.NewValueNode(value.NewIntValue(1))
		case create && p.readIf("BELONGS_TO_TABLE"):
			belongsToTable = true
		case p.readIfTok(lex.TokenOrder) || p.readIf("NOORDER"):
			// Oracle compatibility, ignored
		default:
			return belongsToTable
		}
	}
}

func (p *Parser) parseCreateSequence() Prepared {
	cmd := &SqlCreateSequence{}
	cmd.IfNotExists = p.readIfNotExists()
	schemaName, name := p.readIdentifierWithSchema()
	cmd.Schema = p.getSchema(schemaName).Name
	cmd.Name = name
	cmd.BelongsToTable = p.parseSequenceOptions(&cmd.SequenceOptions, true)
	return cmd
}

func (p *Parser) parseCreateUser() Prepared {
	cmd := &SqlCreateUser{}
	cmd.IfNotExists = p.readIfNotExists()
	cmd.Name = p.readUniqueIdentifier()
	cmd.Comment = p.readCommentIf()
	switch {
	case p.readIf("PASSWORD"):
		cmd.Password = p.readExpression()
	case p.readIf("SALT"):
		cmd.Salt = p.readExpression()
		p.read("HASH")
		cmd.Hash = p.readExpression()
	case p.readIf("IDENTIFIED"):
		p.read("BY")
		// the password is written as an identifier
		cmd.Password = expr.NewValueNode(value.NewStringValue(p.readColumnIdentifier()))
	default:
		p.failSyntax()
	}
	cmd.Admin = p.readIf("ADMIN")
	return cmd
}

func (p *Parser) parseCreateTrigger(force bool) Prepared {
	cmd := &SqlCreateTrigger{Force: force}
	cmd.IfNotExists = p.readIfNotExists()
	triggerSchema, name := p.readIdentifierWithSchema()
	cmd.Name = name
	switch {
	case p.readIf("INSTEAD"):
		p.read("OF")
		cmd.InsteadOf = true
		cmd.Before = true
	case p.readIf("BEFORE"):
		cmd.Before = true
	default:
		p.read("AFTER")
	}
	for {
		switch {
		case p.readIf("INSERT"):
			cmd.Events = append(cmd.Events, "INSERT")
		case p.readIf("UPDATE"):
			cmd.Events = append(cmd.Events, "UPDATE")
		case p.readIf("DELETE"):
			cmd.Events = append(cmd.Events, "DELETE")
		case p.readIfTok(lex.TokenSelect):
			cmd.Events = append(cmd.Events, "SELECT")
		case p.readIf("ROLLBACK"):
			cmd.OnRollback = true
		default:
			p.failSyntax()
		}
		if !p.readIfTok(lex.TokenComma) && !(p.mode.Is(lex.ModePostgreSQL) && p.readIf("OR")) {
			break
		}
	}
	p.readTok(lex.TokenOn)
	tableSchema, table := p.readIdentifierWithSchema()
	p.sameSchema(p.schemaOrDefault(triggerSchema), p.schemaOrDefault(tableSchema))
	cmd.Schema = p.getSchema(tableSchema).Name
	cmd.Table = table
	if p.readIfTok(lex.TokenFor) {
		p.read("EACH")
		p.read("ROW")
		cmd.RowBased = true
	} else {
		cmd.RowBased = false
	}
	if p.readIf("QUEUE") {
		cmd.QueueSize = p.readNonNegativeInt()
	}
	cmd.NoWait = p.readIf("NOWAIT")
	if p.readIf("AS") {
		cmd.Source = p.readString()
	} else {
		p.read("CALL")
		cmd.Class = p.readUniqueIdentifier()
	}
	return cmd
}

func (p *Parser) parseCreateRole() Prepared {
	cmd := &SqlCreateRole{}
	cmd.IfNotExists = p.readIfNotExists()
	cmd.Name = p.readUniqueIdentifier()
	return cmd
}

func (p *Parser) parseCreateSchema() Prepared {
	cmd := &SqlCreateSchema{}
	cmd.IfNotExists = p.readIfNotExists()
	cmd.Name = p.readUniqueIdentifier()
	if p.readIf("AUTHORIZATION") {
		cmd.Authorization = p.readUniqueIdentifier()
	} else {
		cmd.Authorization = p.session.User
	}
	if p.readIfTok(lex.TokenWith) {
		cmd.EngineParams = p.readEngineParams()
	}
	return cmd
}

func (p *Parser) parseCreateConstant() Prepared {
	cmd := &SqlCreateConstant{}
	cmd.IfNotExists = p.readIfNotExists()
	schemaName, name := p.readIdentifierWithSchema()
	cmd.Schema = p.getSchema(schemaName).Name
	if lex.IsKeyword(name) {
		p.fail(sqlerr.New(sqlerr.ConstantAlreadyExists, name))
	}
	cmd.Name = name
	p.read("VALUE")
	cmd.Value = p.readExpression()
	return cmd
}

func (p *Parser) parseCreateDomain() Prepared {
	cmd := &SqlCreateDomain{}
	cmd.IfNotExists = p.readIfNotExists()
	cmd.Name = p.readUniqueIdentifier()
	p.read("AS")
	col := p.parseColumnForTable("VALUE", true, false)
	if p.readIfTok(lex.TokenCheck) {
		col.CheckExpr = p.readExpression()
		col.Check = col.CheckExpr.String()
	}
	cmd.Column = col
	return cmd
}

func (p *Parser) parseCreateAggregate(force bool) Prepared {
	cmd := &SqlCreateAggregate{Force: force}
	cmd.IfNotExists = p.readIfNotExists()
	schemaName, name := p.readIdentifierWithSchema()
	p.checkAliasName(name, false)
	cmd.Schema = p.getSchema(schemaName).Name
	cmd.Name = name
	p.readTok(lex.TokenFor)
	cmd.Class = p.readUniqueIdentifier()
	return cmd
}

func (p *Parser) parseCreateLinkedTable(temp, globalTemp, force bool) Prepared {
	p.read("TABLE")
	cmd := &SqlCreateLinkedTable{Temporary: temp, Global: globalTemp, Force: force}
	cmd.IfNotExists = p.readIfNotExists()
	schemaName, name := p.readIdentifierWithSchema()
	cmd.Schema = p.getSchema(schemaName).Name
	cmd.Name = name
	cmd.Comment = p.readCommentIf()
	p.readTok(lex.TokenLeftParenthesis)
	cmd.Driver = p.readString()
	p.readTok(lex.TokenComma)
	cmd.URL = p.readString()
	p.readTok(lex.TokenComma)
	cmd.User = p.readString()
	p.readTok(lex.TokenComma)
	cmd.Password = p.readString()
	p.readTok(lex.TokenComma)
	cmd.RemoteTable = p.readString()
	if p.readIfTok(lex.TokenComma) {
		cmd.RemoteSchema = cmd.RemoteTable
		cmd.RemoteTable = p.readString()
	}
	p.readTok(lex.TokenRightParenthesis)
	if p.readIf("EMIT") {
		p.read("UPDATES")
		cmd.EmitUpdates = true
	} else if p.readIf("READONLY") {
		cmd.ReadOnly = true
	}
	return cmd
}

func (p *Parser) parseCreateSynonym(orReplace bool) Prepared {
	cmd := &SqlCreateSynonym{OrReplace: orReplace}
	cmd.IfNotExists = p.readIfNotExists()
	schemaName, name := p.readIdentifierWithSchema()
	cmd.Schema = p.getSchema(schemaName).Name
	cmd.Name = name
	p.readTok(lex.TokenFor)
	targetSchema, target := p.readIdentifierWithSchema()
	cmd.TargetSchema = p.getSchema(targetSchema).Name
	cmd.TargetTable = target
	cmd.Comment = p.readCommentIf()
	return cmd
}

func (p *Parser) parseAlter() Prepared {
	switch {
	case p.readIf("TABLE"):
		return p.parseAlterTable()
	case p.readIf("USER"):
		return p.parseAlterUser()
	case p.readIf("INDEX"):
		return p.parseAlterIndex()
	case p.readIf("SCHEMA"):
		return p.parseAlterSchema()
	case p.readIf("SEQUENCE"):
		return p.parseAlterSequence()
	case p.readIf("VIEW"):
		return p.parseAlterView()
	}
	p.failSyntax()
	return nil
}

func (p *Parser) parseAlterIndex() Prepared {
	cmd := &SqlAlterIndex{}
	cmd.IfExists = p.readIfExists(false)
	schemaName, name := p.readIdentifierWithSchema()
	cmd.Schema = p.getSchema(schemaName).Name
	cmd.Name = name
	p.read("RENAME")
	p.read("TO")
	newSchema, newName := p.readIdentifierWithSchema()
	p.checkSchemaOf(cmd.Schema, newSchema)
	cmd.NewName = newName
	return cmd
}

func (p *Parser) parseAlterView() Prepared {
	cmd := &SqlAlterView{}
	cmd.IfExists = p.readIfExists(false)
	schemaName, name := p.readIdentifierWithSchema()
	cmd.Schema = p.getSchema(schemaName).Name
	cmd.Name = name
	t, ok := p.session.FindTableOrView(cmd.Schema, name)
	if !ok || !t.IsView() {
		if !cmd.IfExists {
			p.fail(sqlerr.New(sqlerr.ViewNotFound, name))
		}
	} else {
		cmd.View = t
	}
	p.read("RECOMPILE")
	return cmd
}

func (p *Parser) parseAlterSchema() Prepared {
	ifExists := p.readIfExists(false)
	dbOrSchema, name := p.readIdentifierWithSchema()
	if dbOrSchema != "" {
		// ALTER SCHEMA db.schema
		p.checkDatabase(dbOrSchema)
	}
	p.read("RENAME")
	p.read("TO")
	newName := p.readUniqueIdentifier()
	if _, ok := p.session.FindSchema(name); !ok {
		if ifExists {
			return &SqlNoOp{}
		}
		p.fail(sqlerr.New(sqlerr.SchemaNotFound, name))
	}
	return &SqlAlterSchema{Name: name, NewName: newName}
}

func (p *Parser) parseAlterSequence() Prepared {
	cmd := &SqlAlterSequence{}
	cmd.IfExists = p.readIfExists(false)
	schemaName, name := p.readIdentifierWithSchema()
	cmd.Schema = p.getSchema(schemaName).Name
	cmd.Name = name
	if _, ok := p.session.FindSequence(cmd.Schema, name); !ok && !cmd.IfExists {
		p.fail(sqlerr.New(sqlerr.SequenceNotFound, name))
	}
	p.parseSequenceOptions(&cmd.SequenceOptions, false)
	return cmd
}

func (p *Parser) parseAlterUser() Prepared {
	name := p.readUniqueIdentifier()
	if _, ok := p.cat.FindUser(name); !ok {
		p.fail(sqlerr.New(sqlerr.UserNotFound, name))
	}
	cmd := &SqlAlterUser{User: name}
	switch {
	case p.readIf("SET"):
		cmd.Action = AlterUserPassword
		if p.readIf("PASSWORD") {
			cmd.Password = p.readExpression()
		} else {
			p.read("SALT")
			cmd.Salt = p.readExpression()
			p.read("HASH")
			cmd.Hash = p.readExpression()
		}
	case p.readIf("RENAME"):
		p.read("TO")
		cmd.Action = AlterUserRename
		cmd.NewName = p.readUniqueIdentifier()
	case p.readIf("ADMIN"):
		cmd.Action = AlterUserAdmin
		if p.readIfTok(lex.TokenTrue) {
			cmd.Admin = true
		} else {
			p.readTok(lex.TokenFalse)
		}
	default:
		p.failSyntax()
	}
	return cmd
}

// tableIfTableExists resolves the table of an ALTER TABLE, nil when it is
// missing under IF EXISTS.
func (p *Parser) tableIfTableExists(schemaName, name string, ifTableExists bool) *schema.Table {
	t, ok := p.session.ResolveTable(schemaName, name)
	if !ok {
		if ifTableExists {
			return nil
		}
		p.fail(tableNotFound(name))
	}
	return t
}

// columnIfTableExists resolves a column of the ALTER TABLE target, nil when
// the table is missing under IF EXISTS or its columns are not known.
func (p *Parser) columnIfTableExists(schemaName, table, column string, ifTableExists bool) *schema.Column {
	t := p.tableIfTableExists(schemaName, table, ifTableExists)
	if t == nil || len(t.Columns) == 0 {
		return nil
	}
	c, _ := t.Column(p.checkColumn(t, column))
	return c
}

func (p *Parser) parseAlterTable() Prepared {
	ifTableExists := p.readIfExists(false)
	schemaName, table := p.readIdentifierWithSchema()
	sch := p.getSchema(schemaName).Name
	alter := func(a AlterTableAction) *SqlAlterTable {
		return &SqlAlterTable{Action: a, Schema: sch, Table: table, IfTableExists: ifTableExists}
	}
	switch {
	case p.readIf("ADD"):
		if c := p.parseAlterTableAddConstraintIf(sch, table, ifTableExists); c != nil {
			return c
		}
		return p.parseAlterTableAddColumn(alter(AlterAddColumn))
	case p.readIf("SET"):
		p.read("REFERENTIAL_INTEGRITY")
		cmd := alter(AlterSetReferentialIntegrity)
		cmd.Enabled = p.readBooleanSetting()
		if p.readIfTok(lex.TokenCheck) {
			b := true
			cmd.CheckExisting = &b
		} else if p.readIf("NOCHECK") {
			b := false
			cmd.CheckExisting = &b
		}
		return cmd
	case p.readIf("RENAME"):
		switch {
		case p.readIf("COLUMN"):
			cmd := alter(AlterRenameColumn)
			cmd.Column = p.readColumnIdentifier()
			p.read("TO")
			cmd.NewName = p.readColumnIdentifier()
			if c := p.columnIfTableExists(sch, table, cmd.Column, ifTableExists); c != nil {
				cmd.Column = c.Name
			}
			return cmd
		case p.readIfTok(lex.TokenConstraint):
			cmd := alter(AlterRenameConstraint)
			written, name := p.readIdentifierWithSchema()
			p.checkSchemaOf(sch, written)
			cmd.Constraint = name
			p.read("TO")
			cmd.NewName = p.readColumnIdentifier()
			return p.commandIfTableExists(sch, table, ifTableExists, cmd)
		}
		p.read("TO")
		cmd := alter(AlterRename)
		written, newName := p.readIdentifierWithSchema()
		p.checkSchemaOf(sch, written)
		cmd.NewName = newName
		cmd.Hidden = p.readIf("HIDDEN")
		return cmd
	case p.readIf("DROP"):
		return p.parseAlterTableDrop(sch, table, ifTableExists, alter)
	case p.readIf("CHANGE"):
		// MySQL: CHANGE [COLUMN] old new definition
		p.readIf("COLUMN")
		cmd := alter(AlterRenameColumn)
		cmd.Column = p.readColumnIdentifier()
		cmd.NewName = p.readColumnIdentifier()
		c := p.columnIfTableExists(sch, table, cmd.Column, ifTableExists)
		nullable := c == nil || c.Nullable
		// the new definition is read but only the name changes
		p.parseColumnForTable(cmd.NewName, nullable, true)
		if c != nil {
			cmd.Column = c.Name
		}
		return cmd
	case p.readIf("MODIFY"):
		// MySQL and Oracle: MODIFY [COLUMN] [(] c definition [)]
		p.readIf("COLUMN")
		paren := p.readIfTok(lex.TokenLeftParenthesis)
		cmd := p.parseAlterTableAlterColumnNullOrType(sch, table, ifTableExists, alter)
		if paren {
			p.readTok(lex.TokenRightParenthesis)
		}
		return cmd
	case p.readIf("ALTER"):
		return p.parseAlterTableAlterColumn(sch, table, ifTableExists, alter)
	}
	p.failSyntax()
	return nil
}

// commandIfTableExists is a no-op when the table is missing under IF
// EXISTS.
func (p *Parser) commandIfTableExists(schemaName, table string, ifTableExists bool, cmd Prepared) Prepared {
	if p.tableIfTableExists(schemaName, table, ifTableExists) == nil {
		return &SqlNoOp{}
	}
	return cmd
}

func (p *Parser) parseAlterTableAddColumn(cmd *SqlAlterTable) Prepared {
	p.readIf("COLUMN")
	if p.readIfTok(lex.TokenLeftParenthesis) {
		for {
			p.parseTableColumnDefinition(&cmd.TableElements, cmd.Schema, cmd.Table)
			if !p.readIfMore(true) {
				break
			}
		}
	} else {
		cmd.IfNotExists = p.readIfNotExists()
		p.parseTableColumnDefinition(&cmd.TableElements, cmd.Schema, cmd.Table)
	}
	switch {
	case p.readIf("BEFORE"):
		cmd.Before = p.readColumnIdentifier()
	case p.readIf("AFTER"):
		cmd.After = p.readColumnIdentifier()
	case p.readIf("FIRST"):
		cmd.First = true
	}
	return cmd
}

func (p *Parser) parseAlterTableDrop(sch, table string, ifTableExists bool, alter func(AlterTableAction) *SqlAlterTable) Prepared {
	switch {
	case p.readIfTok(lex.TokenConstraint):
		cmd := alter(AlterDropConstraint)
		ifExists := p.readIfExists(false)
		written, name := p.readIdentifierWithSchema()
		cmd.IfExists = p.readIfExists(ifExists)
		p.checkSchemaOf(sch, written)
		cmd.Constraint = name
		return p.commandIfTableExists(sch, table, ifTableExists, cmd)
	case p.readIfTok(lex.TokenForeign):
		// MySQL: DROP FOREIGN KEY name
		p.read("KEY")
		cmd := alter(AlterDropConstraint)
		written, name := p.readIdentifierWithSchema()
		p.checkSchemaOf(sch, written)
		cmd.Constraint = name
		return p.commandIfTableExists(sch, table, ifTableExists, cmd)
	case p.readIf("INDEX"):
		// MySQL: DROP INDEX name, which may also be a unique constraint
		written, name := p.readIdentifierWithSchema()
		p.checkSchemaOf(sch, written)
		var cmd Prepared
		if _, ok := p.cat.FindIndex(sch, name); ok {
			cmd = &SqlDrop{Type: schema.ObjectIndex, Objects: []ObjectName{{Schema: sch, Name: name}}}
		} else {
			c := alter(AlterDropConstraint)
			c.Constraint = name
			cmd = c
		}
		return p.commandIfTableExists(sch, table, ifTableExists, cmd)
	case p.readIfTok(lex.TokenPrimary):
		p.read("KEY")
		if p.tableIfTableExists(sch, table, ifTableExists) == nil {
			return &SqlNoOp{}
		}
		return alter(AlterDropPrimaryKey)
	}
	p.readIf("COLUMN")
	ifExists := p.readIfExists(false)
	t := p.tableIfTableExists(sch, table, ifTableExists)
	cmd := alter(AlterDropColumn)
	cmd.IfExists = ifExists
	paren := p.readIfTok(lex.TokenLeftParenthesis)
	for {
		name := p.readColumnIdentifier()
		if t != nil {
			if !ifExists || p.tableHasColumn(t, name) {
				cmd.Drop = append(cmd.Drop, p.checkColumn(t, name))
			}
		}
		if !p.readIfTok(lex.TokenComma) {
			break
		}
	}
	if paren {
		p.readTok(lex.TokenRightParenthesis)
	}
	if t == nil || len(cmd.Drop) == 0 {
		return &SqlNoOp{}
	}
	return cmd
}

func (p *Parser) tableHasColumn(t *schema.Table, name string) bool {
	return p.filterHasColumn(&TableFilter{Table: t}, name)
}

// parseAlterTableAlterColumnNullOrType reads c NULL, c NOT NULL or c with
// a new definition.
func (p *Parser) parseAlterTableAlterColumnNullOrType(sch, table string, ifTableExists bool, alter func(AlterTableAction) *SqlAlterTable) Prepared {
	name := p.readColumnIdentifier()
	c := p.columnIfTableExists(sch, table, name, ifTableExists)
	if c != nil {
		name = c.Name
	}
	switch p.parseNotNullConstraint() {
	case nullIsAllowed:
		cmd := alter(AlterColumnNull)
		cmd.Column = name
		return cmd
	case nullIsNotAllowed:
		cmd := alter(AlterColumnNotNull)
		cmd.Column = name
		return cmd
	}
	return p.parseAlterTableAlterColumnType(name, c, alter)
}

func (p *Parser) parseAlterTableAlterColumnType(name string, old *schema.Column, alter func(AlterTableAction) *SqlAlterTable) Prepared {
	nullable := old == nil || old.Nullable
	cmd := alter(AlterColumnType)
	cmd.Column = name
	cmd.NewColumn = p.parseColumnForTable(name, nullable, true)
	return cmd
}

func (p *Parser) parseAlterTableAlterColumn(sch, table string, ifTableExists bool, alter func(AlterTableAction) *SqlAlterTable) Prepared {
	p.readIf("COLUMN")
	name := p.readColumnIdentifier()
	c := p.columnIfTableExists(sch, table, name, ifTableExists)
	if c != nil {
		name = c.Name
	}
	with := func(a AlterTableAction) *SqlAlterTable {
		cmd := alter(a)
		cmd.Column = name
		return cmd
	}
	switch {
	case p.readIf("RENAME"):
		p.read("TO")
		cmd := with(AlterRenameColumn)
		cmd.NewName = p.readColumnIdentifier()
		return cmd
	case p.readIf("DROP"):
		switch {
		case p.readIf("DEFAULT"):
			return with(AlterColumnDefault)
		case p.readIfTok(lex.TokenOn):
			p.read("UPDATE")
			return with(AlterColumnOnUpdate)
		}
		p.readTok(lex.TokenNot)
		p.readTok(lex.TokenNull)
		return with(AlterColumnNull)
	case p.readIf("TYPE"):
		// PostgreSQL: ALTER COLUMN c TYPE definition
		return p.parseAlterTableAlterColumnType(name, c, alter)
	case p.readIf("SET"):
		if p.readIf("DATA") {
			p.read("TYPE")
			return p.parseAlterTableAlterColumnType(name, c, alter)
		}
		switch p.parseNotNullConstraint() {
		case nullIsAllowed:
			return with(AlterColumnNull)
		case nullIsNotAllowed:
			return with(AlterColumnNotNull)
		}
		switch {
		case p.readIf("DEFAULT"):
			cmd := with(AlterColumnDefault)
			cmd.Expr = p.readExpression()
			return cmd
		case p.readIfTok(lex.TokenOn):
			p.read("UPDATE")
			cmd := with(AlterColumnOnUpdate)
			cmd.Expr = p.readExpression()
			return cmd
		case p.readIf("INVISIBLE"):
			return with(AlterColumnVisibility)
		case p.readIf("VISIBLE"):
			cmd := with(AlterColumnVisibility)
			cmd.Visible = true
			return cmd
		}
		p.failSyntax()
	case p.readIf("RESTART"):
		p.readIfTok(lex.TokenWith)
		cmd := &SqlAlterSequence{Schema: sch, Table: table, Column: name}
		cmd.Start = p.readExpression()
		return p.commandIfTableExists(sch, table, ifTableExists, cmd)
	case p.readIf("SELECTIVITY"):
		cmd := with(AlterColumnSelectivity)
		cmd.Expr = p.readExpression()
		return cmd
	}
	return p.parseAlterTableAlterColumnType(name, c, alter)
}

func (p *Parser) parseDrop() Prepared {
	switch {
	case p.readIf("TABLE"):
		cmd := &SqlDrop{Type: schema.ObjectTable}
		cmd.IfExists = p.readIfExists(false)
		for {
			s, name := p.readIdentifierWithSchema()
			cmd.Objects = append(cmd.Objects, ObjectName{Schema: p.getSchema(s).Name, Name: name})
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
		cmd.IfExists = p.readIfExists(cmd.IfExists)
		cmd.Action, _ = p.parseCascadeOrRestrict()
		return cmd
	case p.readIf("INDEX"):
		cmd := &SqlDrop{Type: schema.ObjectIndex}
		cmd.IfExists = p.readIfExists(false)
		s, name := p.readIdentifierWithSchema()
		cmd.Objects = []ObjectName{{Schema: p.getSchema(s).Name, Name: name}}
		cmd.IfExists = p.readIfExists(cmd.IfExists)
		// MySQL: DROP INDEX i ON t
		if p.readIfTok(lex.TokenOn) {
			ts, tn := p.readIdentifierWithSchema()
			cmd.Table = ObjectName{Schema: p.getSchema(ts).Name, Name: tn}
		}
		return cmd
	case p.readIf("USER"):
		cmd := &SqlDrop{Type: schema.ObjectUser}
		cmd.IfExists = p.readIfExists(false)
		cmd.Objects = []ObjectName{{Name: p.readUniqueIdentifier()}}
		cmd.IfExists = p.readIfExists(cmd.IfExists)
		p.readIf("CASCADE")
		return cmd
	case p.readIf("SEQUENCE"):
		return p.parseDropSchemaObject(schema.ObjectSequence, false)
	case p.readIf("CONSTANT"):
		return p.parseDropSchemaObject(schema.ObjectConstant, false)
	case p.readIf("TRIGGER"):
		return p.parseDropSchemaObject(schema.ObjectTrigger, false)
	case p.readIf("VIEW"):
		return p.parseDropSchemaObject(schema.ObjectTable, true)
	case p.readIf("ROLE"):
		cmd := &SqlDrop{Type: schema.ObjectRole}
		cmd.IfExists = p.readIfExists(false)
		cmd.Objects = []ObjectName{{Name: p.readUniqueIdentifier()}}
		cmd.IfExists = p.readIfExists(cmd.IfExists)
		return cmd
	case p.readIf("ALIAS"):
		return p.parseDropSchemaObject(schema.ObjectAlias, false)
	case p.readIf("SCHEMA"):
		cmd := &SqlDrop{Type: schema.ObjectSchema}
		cmd.IfExists = p.readIfExists(false)
		cmd.Objects = []ObjectName{{Name: p.readUniqueIdentifier()}}
		cmd.IfExists = p.readIfExists(cmd.IfExists)
		cmd.Action, _ = p.parseCascadeOrRestrict()
		return cmd
	case p.readIfTok(lex.TokenAll):
		p.read("OBJECTS")
		cmd := &SqlDrop{AllObjects: true}
		if p.readIf("DELETE") {
			p.read("FILES")
			cmd.DeleteFiles = true
		}
		return cmd
	case p.readIf("DOMAIN") || p.readIf("TYPE") || p.readIf("DATATYPE"):
		cmd := &SqlDrop{Type: schema.ObjectDomain}
		cmd.IfExists = p.readIfExists(false)
		cmd.Objects = []ObjectName{{Name: p.readUniqueIdentifier()}}
		cmd.IfExists = p.readIfExists(cmd.IfExists)
		if a, ok := p.parseCascadeOrRestrict(); ok {
			cmd.Action = a
		}
		return cmd
	case p.readIf("AGGREGATE"):
		cmd := &SqlDrop{Type: schema.ObjectAggregate}
		cmd.IfExists = p.readIfExists(false)
		cmd.Objects = []ObjectName{{Name: p.readUniqueIdentifier()}}
		cmd.IfExists = p.readIfExists(cmd.IfExists)
		return cmd
	case p.readIf("SYNONYM"):
		return p.parseDropSchemaObject(schema.ObjectSynonym, false)
	}
	p.failSyntax()
	return nil
}

// parseDropSchemaObject is DROP type [IF EXISTS] [schema.]name [IF EXISTS],
// views also take CASCADE or RESTRICT.
func (p *Parser) parseDropSchemaObject(t schema.ObjectType, action bool) Prepared {
	cmd := &SqlDrop{Type: t}
	cmd.IfExists = p.readIfExists(false)
	s, name := p.readIdentifierWithSchema()
	cmd.Objects = []ObjectName{{Schema: p.getSchema(s).Name, Name: name}}
	cmd.IfExists = p.readIfExists(cmd.IfExists)
	if action {
		cmd.Action, _ = p.parseCascadeOrRestrict()
	}
	return cmd
}

func (p *Parser) parseComment() Prepared {
	p.readTok(lex.TokenOn)
	cmd := &SqlComment{}
	column := false
	switch {
	case p.readIf("TABLE") || p.readIf("VIEW"):
		cmd.Type = schema.ObjectTable
	case p.readIf("COLUMN"):
		cmd.Type = schema.ObjectTable
		column = true
	case p.readIf("CONSTANT"):
		cmd.Type = schema.ObjectConstant
	case p.readIfTok(lex.TokenConstraint):
		cmd.Type = schema.ObjectConstraint
	case p.readIf("ALIAS"):
		cmd.Type = schema.ObjectAlias
	case p.readIf("INDEX"):
		cmd.Type = schema.ObjectIndex
	case p.readIf("ROLE"):
		cmd.Type = schema.ObjectRole
	case p.readIf("SCHEMA"):
		cmd.Type = schema.ObjectSchema
	case p.readIf("SEQUENCE"):
		cmd.Type = schema.ObjectSequence
	case p.readIf("TRIGGER"):
		cmd.Type = schema.ObjectTrigger
	case p.readIf("USER"):
		cmd.Type = schema.ObjectUser
	case p.readIf("DOMAIN"):
		cmd.Type = schema.ObjectDomain
	default:
		p.failSyntax()
	}
	if column {
		// [[database.]schema.]table.column
		parts := []string{p.readUniqueIdentifier()}
		for p.readIfTok(lex.TokenDot) {
			parts = append(parts, p.readUniqueIdentifier())
		}
		schemaName := ""
		if len(parts) == 4 {
			if !p.equalsToken(parts[0], p.cat.ShortName()) {
				p.failExpected("database name")
			}
			parts = parts[1:]
		}
		if len(parts) == 3 {
			schemaName = parts[0]
			parts = parts[1:]
		}
		if len(parts) != 2 {
			p.failExpected("table.column")
		}
		cmd.Schema = p.getSchema(schemaName).Name
		cmd.Name = parts[0]
		cmd.Column = parts[1]
	} else {
		s, name := p.readIdentifierWithSchema()
		if objectSchemaScoped(cmd.Type) {
			s = p.schemaOrDefault(s)
		}
		cmd.Schema = s
		cmd.Name = name
	}
	p.readTok(lex.TokenIs)
	cmd.Comment = p.readExpression()
	return cmd
}

func (p *Parser) parseTruncate() Prepared {
	p.read("TABLE")
	cmd := &SqlTruncate{Table: p.readTableOrViewName()}
	if p.readIf("CONTINUE") {
		p.read("IDENTITY")
	} else if p.readIf("RESTART") {
		p.read("IDENTITY")
		cmd.Restart = true
	}
	return cmd
}

func (p *Parser) parseGrant() Prepared  { return p.parseGrantRevoke(true) }
func (p *Parser) parseRevoke() Prepared { return p.parseGrantRevoke(false) }

func (p *Parser) parseGrantRevoke(grant bool) Prepared {
	cmd := &SqlGrantRevoke{Grant: grant}
	tableClause := p.addRoleOrRight(cmd)
	for p.readIfTok(lex.TokenComma) {
		p.addRoleOrRight(cmd)
		if len(cmd.Rights) > 0 && len(cmd.Roles) > 0 {
			p.fail(sqlerr.New(sqlerr.RolesAndRightCannotBeMixed))
		}
	}
	if tableClause && p.readIfTok(lex.TokenOn) {
		if p.readIf("SCHEMA") {
			name := p.readUniqueIdentifier()
			if _, ok := p.cat.FindSchema(name); !ok {
				p.fail(sqlerr.New(sqlerr.SchemaNotFound, name))
			}
			cmd.Schema = name
		} else {
			for {
				cmd.Tables = append(cmd.Tables, p.readTableOrViewName())
				if !p.readIfTok(lex.TokenComma) {
					break
				}
			}
		}
	}
	if grant {
		p.read("TO")
	} else {
		p.readTok(lex.TokenFrom)
	}
	cmd.Grantee = p.readUniqueIdentifier()
	return cmd
}

// addRoleOrRight reads one right or role, true when an ON clause may
// follow.
func (p *Parser) addRoleOrRight(cmd *SqlGrantRevoke) bool {
	switch {
	case p.readIfTok(lex.TokenSelect):
		cmd.Rights = append(cmd.Rights, RightSelect)
	case p.readIf("DELETE"):
		cmd.Rights = append(cmd.Rights, RightDelete)
	case p.readIf("INSERT"):
		cmd.Rights = append(cmd.Rights, RightInsert)
	case p.readIf("UPDATE"):
		cmd.Rights = append(cmd.Rights, RightUpdate)
	case p.readIfTok(lex.TokenAll):
		cmd.Rights = append(cmd.Rights, RightAll)
	case p.readIf("ALTER"):
		p.read("ANY")
		p.read("SCHEMA")
		cmd.Rights = append(cmd.Rights, RightAlterAnySchema)
		return false
	case p.readIf("CONNECT") || p.readIf("RESOURCE"):
		// accepted and ignored
	default:
		cmd.Roles = append(cmd.Roles, p.readUniqueIdentifier())
		return false
	}
	return true
}

// shadowTable is a table of @cols used to bind expressions of a table that
// does not exist yet.
func shadowTable(schemaName, name string, cols []*ColumnDef) *schema.Table {
	t := schema.NewTable(schemaName, name)
	for _, c := range cols {
		t.AddColumn(c.Column)
	}
	return t
}

func (p *Parser) bindTableElements(t *schema.Table, te *TableElements) {
	sc := newScope(nil, &TableFilter{Table: t})
	for _, c := range te.Columns {
		p.bindColumnDef(c, sc)
	}
	for _, c := range te.Constraints {
		p.bindExpr(c.Check, sc)
	}
}

func (p *Parser) bindColumnDef(c *ColumnDef, sc *scope) {
	if c == nil {
		return
	}
	p.bindExpr(c.DefaultExpr, nil)
	p.bindExpr(c.OnUpdateExpr, nil)
	p.bindExpr(c.ComputedExpr, sc)
	p.bindExpr(c.CheckExpr, sc)
}

// alterTarget is the table of an ALTER TABLE with @extra columns added, a
// missing table binds against unknown columns.
func (p *Parser) alterTarget(schemaName, name string, extra []*ColumnDef) *schema.Table {
	t, ok := p.session.ResolveTable(schemaName, name)
	if !ok {
		return schema.NewTable(schemaName, name)
	}
	if len(extra) == 0 {
		return t
	}
	t = t.Clone()
	for _, c := range extra {
		t.AddColumn(c.Column)
	}
	return t
}

func (m *SqlCreateTable) bind(p *Parser) {
	p.bindTableElements(shadowTable(m.Schema, m.Name, m.Columns), &m.TableElements)
	if m.Query != nil {
		p.bindQuery(m.Query, nil)
	}
}

func (m *SqlAlterTable) bind(p *Parser) {
	switch m.Action {
	case AlterAddColumn:
		p.bindTableElements(p.alterTarget(m.Schema, m.Table, m.Columns), &m.TableElements)
	case AlterColumnType:
		sc := newScope(nil, &TableFilter{Table: p.alterTarget(m.Schema, m.Table, nil)})
		p.bindColumnDef(m.NewColumn, sc)
	default:
		p.bindExpr(m.Expr, nil)
	}
}

func (m *SqlAddConstraint) bind(p *Parser) {
	if m.Check != nil {
		t := p.alterTarget(m.Schema, m.Table, nil)
		p.bindExpr(m.Check, newScope(nil, &TableFilter{Table: t}))
	}
}

func (m *SqlCreateDomain) bind(p *Parser) {
	t := shadowTable("", m.Name, []*ColumnDef{m.Column})
	p.bindColumnDef(m.Column, newScope(nil, &TableFilter{Table: t}))
}

func (m *SqlCreateConstant) bind(p *Parser) { p.bindExpr(m.Value, nil) }

func (m *SequenceOptions) bind(p *Parser) {
	for _, n := range []expr.Node{m.Start, m.Increment, m.MinValue, m.MaxValue, m.Cache} {
		p.bindExpr(n, nil)
	}
}

func (m *SqlComment) bind(p *Parser) { p.bindExpr(m.Comment, nil) }

func (m *SqlCreateUser) bind(p *Parser) {
	p.bindExpr(m.Password, nil)
	p.bindExpr(m.Salt, nil)
	p.bindExpr(m.Hash, nil)
}

func (m *SqlAlterUser) bind(p *Parser) {
	p.bindExpr(m.Password, nil)
	p.bindExpr(m.Salt, nil)
	p.bindExpr(m.Hash, nil)
}
