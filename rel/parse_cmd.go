package rel

import (
	"strconv"
	"strings"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

// pgVersion is reported by SHOW SERVER_VERSION
const pgVersion = "8.2.23"

// noOpSettings are accepted for compatibility, the value is read and
// dropped.
var noOpSettings = []string{
	"CREATE", "PAGE_STORE", "CACHE_TYPE",
	"FILE_LOCK", "DB_CLOSE_ON_EXIT", "AUTO_SERVER", "AUTO_SERVER_PORT",
	"AUTO_RECONNECT", "ASSERT", "ACCESS_MODE_DATA", "OPEN_NEW", "JMX",
	"PAGE_SIZE", "RECOVER", "NAMES", "SCOPE_GENERATED_KEYS",
}

// readTableOrViewName reads [schema.]name and resolves it.
func (p *Parser) readTableOrViewName() *schema.Table {
	schemaName, name := p.readIdentifierWithSchema()
	return p.readTableOrView(schemaName, name)
}

func (p *Parser) parseBackup() Prepared {
	p.read("TO")
	return &SqlBackup{File: p.readExpression()}
}

func (p *Parser) parseAnalyze() Prepared {
	cmd := &SqlAnalyze{}
	if p.readIf("TABLE") {
		cmd.Table = p.readTableOrViewName()
	}
	if p.readIf("SAMPLE_SIZE") {
		cmd.SampleSize = p.readNonNegativeInt()
	}
	return cmd
}

func (p *Parser) parseBegin() Prepared {
	if !p.readIf("WORK") {
		p.readIf("TRANSACTION")
	}
	return &SqlTransaction{Type: TxBegin}
}

func (p *Parser) parseCommit() Prepared {
	if p.readIf("TRANSACTION") {
		return &SqlTransaction{Type: TxCommitTransaction, Name: p.readUniqueIdentifier()}
	}
	p.readIf("WORK")
	return &SqlTransaction{Type: TxCommit}
}

func (p *Parser) parseShutdown() Prepared {
	t := TxShutdown
	switch {
	case p.readIf("IMMEDIATELY"):
		t = TxShutdownImmediately
	case p.readIf("COMPACT"):
		t = TxShutdownCompact
	case p.readIf("DEFRAG"):
		t = TxShutdownDefrag
	default:
		p.readIf("SCRIPT")
	}
	return &SqlTransaction{Type: t}
}

func (p *Parser) parseRollback() Prepared {
	if p.readIf("TRANSACTION") {
		return &SqlTransaction{Type: TxRollbackTransaction, Name: p.readUniqueIdentifier()}
	}
	if p.readIf("TO") {
		p.read("SAVEPOINT")
		return &SqlTransaction{Type: TxRollbackToSavepoint, Name: p.readUniqueIdentifier()}
	}
	p.readIf("WORK")
	return &SqlTransaction{Type: TxRollback}
}

func (p *Parser) parseSavepoint() Prepared {
	return &SqlTransaction{Type: TxSavepoint, Name: p.readUniqueIdentifier()}
}

// parseRelease is RELEASE [SAVEPOINT] name, savepoints are released on
// commit anyway.
func (p *Parser) parseRelease() Prepared {
	p.readIf("SAVEPOINT")
	p.readUniqueIdentifier()
	return &SqlNoOp{}
}

func (p *Parser) parseCheckpoint() Prepared {
	if p.readIf("SYNC") {
		return &SqlTransaction{Type: TxCheckpointSync}
	}
	return &SqlTransaction{Type: TxCheckpoint}
}

// parsePrepare is PREPARE COMMIT name, or PREPARE name [(types)] AS
// statement.  The parameter types are checked and otherwise ignored.
func (p *Parser) parsePrepare() Prepared {
	if p.readIf("COMMIT") {
		return &SqlTransaction{Type: TxPrepareCommit, Name: p.readUniqueIdentifier()}
	}
	name := p.readAliasIdentifier()
	if p.readIfTok(lex.TokenLeftParenthesis) {
		for i := 0; ; i++ {
			p.parseColumnWithType("C"+strconv.Itoa(i), true)
			if !p.readIfMore(true) {
				break
			}
		}
	}
	p.read("AS")
	return &SqlPrepare{Name: name, Statement: p.parsePrepared()}
}

func (p *Parser) parseExecute() Prepared {
	name := p.readAliasIdentifier()
	if _, ok := p.session.Procedure(name); !ok {
		p.fail(sqlerr.New(sqlerr.FunctionAliasNotFound, name))
	}
	cmd := &SqlExecute{Name: name}
	if p.readIfTok(lex.TokenLeftParenthesis) {
		for {
			cmd.Args = append(cmd.Args, p.readExpression())
			if !p.readIfMore(true) {
				break
			}
		}
	}
	return cmd
}

func (p *Parser) parseDeallocate() Prepared {
	p.readIf("PLAN")
	return &SqlDeallocate{Name: p.readAliasIdentifier()}
}

func (p *Parser) parseExplain() Prepared {
	cmd := &SqlExplain{}
	if p.readIf("ANALYZE") {
		cmd.Analyze = true
	} else if p.readIf("PLAN") {
		p.readIfTok(lex.TokenFor)
	}
	switch {
	case p.isTok(lex.TokenSelect) || p.isTok(lex.TokenFrom) || p.isTok(lex.TokenLeftParenthesis) || p.isTok(lex.TokenWith):
		cmd.Statement = p.parseSelect()
	case p.readIf("DELETE"):
		cmd.Statement = p.parseDelete()
	case p.readIf("UPDATE"):
		cmd.Statement = p.parseUpdate()
	case p.readIf("INSERT"):
		cmd.Statement = p.parseInsert()
	case p.readIf("MERGE"):
		cmd.Statement = p.parseMerge()
	default:
		p.failSyntax()
	}
	return cmd
}

func (p *Parser) parseCall() Prepared {
	cmd := &SqlCall{}
	p.currentPrepared = cmd
	cmd.Expr = p.readExpression()
	return cmd
}

// parseHelp selects the help topics containing every remaining word.
func (p *Parser) parseHelp() Prepared {
	t, ok := p.cat.FindTable(schema.InformationSchema, "HELP")
	if !ok {
		p.fail(tableNotFound("HELP"))
	}
	sel := &SqlSelect{Columns: []expr.Node{&expr.WildcardNode{}}}
	f := &TableFilter{Table: t}
	p.nextOrderInFrom(f)
	sel.addFilter(f, true)
	upper, _ := expr.FuncLookup("UPPER")
	for !p.isTok(lex.TokenEOF) && !p.isTok(lex.TokenSemicolon) {
		word := p.s.Token()
		p.next()
		fn := expr.NewFuncNode(upper)
		fn.Args = []expr.Node{&expr.ColumnNode{Schema: schema.InformationSchema, Table: "HELP", Column: "TOPIC"}}
		sel.addCondition(&expr.LikeNode{
			Left:    fn,
			Pattern: expr.NewValueNode(value.NewStringValue("%" + word + "%")),
		})
	}
	p.initQuery(sel)
	return sel
}

// parseShow rewrites the compatibility SHOW commands into a query over
// INFORMATION_SCHEMA.  PostgreSQL and MySQL forms are only known in their
// modes and the regular mode.
func (p *Parser) parseShow() Prepared {
	pg := p.mode.Is(lex.ModeRegular) || p.mode.Is(lex.ModePostgreSQL)
	my := p.mode.Is(lex.ModeRegular) || p.mode.Is(lex.ModeMySQL)
	var params []value.Value
	var b strings.Builder
	b.WriteString("SELECT ")
	switch {
	case pg && p.readIf("CLIENT_ENCODING"):
		b.WriteString("'UNICODE' AS CLIENT_ENCODING FROM DUAL")
	case pg && p.readIf("DEFAULT_TRANSACTION_ISOLATION"):
		b.WriteString("'read committed' AS DEFAULT_TRANSACTION_ISOLATION FROM DUAL")
	case pg && p.readIf("TRANSACTION"):
		p.read("ISOLATION")
		p.read("LEVEL")
		b.WriteString("'read committed' AS TRANSACTION_ISOLATION FROM DUAL")
	case pg && p.readIf("DATESTYLE"):
		b.WriteString("'ISO' AS DATESTYLE FROM DUAL")
	case pg && p.readIf("SERVER_VERSION"):
		b.WriteString("'" + pgVersion + "' AS SERVER_VERSION FROM DUAL")
	case pg && p.readIf("SERVER_ENCODING"):
		b.WriteString("'UTF8' AS SERVER_ENCODING FROM DUAL")
	case my && p.readIf("TABLES"):
		schemaName := schema.MainSchema
		if p.readIfTok(lex.TokenFrom) {
			schemaName = p.readUniqueIdentifier()
		}
		b.WriteString("TABLE_NAME, TABLE_SCHEMA FROM INFORMATION_SCHEMA.TABLES " +
			"WHERE TABLE_SCHEMA=? ORDER BY TABLE_NAME")
		params = append(params, value.NewStringValue(schemaName))
	case my && p.readIf("COLUMNS"):
		p.readTok(lex.TokenFrom)
		schemaName, tableName := p.readIdentifierWithSchema()
		schemaName = p.schemaOrDefault(schemaName)
		if p.readIfTok(lex.TokenFrom) {
			schemaName = p.readUniqueIdentifier()
		}
		b.WriteString("C.COLUMN_NAME FIELD, C.TYPE_NAME TYPE, C.IS_NULLABLE \"NULL\", " +
			"IFNULL(C.COLUMN_DEFAULT, 'NULL') \"DEFAULT\" " +
			"FROM INFORMATION_SCHEMA.COLUMNS C " +
			"WHERE C.TABLE_NAME=? AND C.TABLE_SCHEMA=? ORDER BY C.ORDINAL_POSITION")
		params = append(params, value.NewStringValue(tableName), value.NewStringValue(schemaName))
	case my && (p.readIf("DATABASES") || p.readIf("SCHEMAS")):
		b.WriteString("SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA")
	default:
		p.failSyntax()
	}
	return p.prepareInternal(b.String(), params)
}

// prepareInternal parses generated SQL in the same session, literals are
// allowed whatever the ALLOW_LITERALS setting.
func (p *Parser) prepareInternal(sql string, values []value.Value) Prepared {
	old := p.session.AllowLiterals
	p.session.AllowLiterals = true
	defer func() { p.session.AllowLiterals = old }()
	stmt, err := NewParser(p.session).Parse(sql)
	if err != nil {
		u.Warnf("internal statement failed %q: %v", sql, err)
		p.failErr(err)
	}
	for i, param := range stmt.Params() {
		if i < len(values) {
			param.Value = values[i]
		}
	}
	p.params = append(p.params, stmt.Params()...)
	return stmt
}

// readIfEqualOrTo reads an optional = or TO between setting and value.
func (p *Parser) readIfEqualOrTo() {
	if !p.readIfTok(lex.TokenEqual) {
		p.readIf("TO")
	}
}

func (p *Parser) parseSet() Prepared {
	if p.readIfTok(lex.TokenAt) {
		cmd := &SqlSet{Name: "VARIABLE", Variable: p.readAliasIdentifier()}
		p.readIfEqualOrTo()
		cmd.Expr = p.readExpression()
		return cmd
	}
	for _, name := range noOpSettings {
		if p.readIf(name) {
			p.readIfEqualOrTo()
			p.next()
			return &SqlNoOp{}
		}
	}
	switch {
	case p.readIf("HSQLDB"):
		p.readTok(lex.TokenDot)
		p.read("DEFAULT_TABLE_TYPE")
		p.readIfEqualOrTo()
		p.next()
		return &SqlNoOp{}
	case p.readIf("AUTOCOMMIT"):
		p.readIfEqualOrTo()
		if p.readBooleanSetting() {
			return &SqlTransaction{Type: TxAutocommitOn}
		}
		return &SqlTransaction{Type: TxAutocommitOff}
	case p.readIf("MVCC"):
		p.readIfEqualOrTo()
		p.readBooleanSetting()
		return &SqlNoOp{}
	case p.mode.Is(lex.ModeMSSQLServer) && p.readIf("NOCOUNT"):
		p.readBooleanSetting()
		return &SqlNoOp{}
	case p.readIf("EXCLUSIVE"):
		p.readIfEqualOrTo()
		return &SqlSet{Name: "EXCLUSIVE", Expr: p.readExpression()}
	case p.readIf("IGNORECASE"):
		p.readIfEqualOrTo()
		return p.setInt("IGNORECASE", boolInt(p.readBooleanSetting()))
	case p.readIf("PASSWORD"):
		p.readIfEqualOrTo()
		return &SqlAlterUser{Action: AlterUserPassword, User: p.session.User, Password: p.readExpression()}
	case p.readIf("SALT"):
		p.readIfEqualOrTo()
		cmd := &SqlAlterUser{Action: AlterUserPassword, User: p.session.User, Salt: p.readExpression()}
		p.read("HASH")
		cmd.Hash = p.readExpression()
		return cmd
	case p.readIf("MODE"):
		p.readIfEqualOrTo()
		name := p.readAliasIdentifier()
		if _, err := lex.ModeByName(name); err != nil {
			p.fail(sqlerr.New(sqlerr.UnknownMode, name))
		}
		return &SqlSet{Name: "MODE", Str: name}
	case p.readIf("COMPRESS_LOB"):
		p.readIfEqualOrTo()
		if p.isTok(lex.TokenValue) {
			return &SqlSet{Name: "COMPRESS_LOB", Str: p.readString()}
		}
		return &SqlSet{Name: "COMPRESS_LOB", Str: p.readUniqueIdentifier()}
	case p.readIf("DATABASE"):
		p.readIfEqualOrTo()
		p.read("COLLATION")
		return p.parseSetCollation()
	case p.readIf("COLLATION"):
		p.readIfEqualOrTo()
		return p.parseSetCollation()
	case p.readIf("BINARY_COLLATION"):
		p.readIfEqualOrTo()
		name := p.readAliasIdentifier()
		if !p.equalsToken(name, "UNSIGNED") && !p.equalsToken(name, "SIGNED") {
			p.fail(sqlerr.New(sqlerr.InvalidValue, name, "BINARY_COLLATION"))
		}
		return &SqlSet{Name: "BINARY_COLLATION", Str: name}
	case p.readIf("CLUSTER"):
		p.readIfEqualOrTo()
		return &SqlSet{Name: "CLUSTER", Str: p.readString()}
	case p.readIf("DATABASE_EVENT_LISTENER"):
		p.readIfEqualOrTo()
		return &SqlSet{Name: "DATABASE_EVENT_LISTENER", Str: p.readString()}
	case p.readIf("JAVA_OBJECT_SERIALIZER"):
		p.readIfEqualOrTo()
		return &SqlSet{Name: "JAVA_OBJECT_SERIALIZER", Str: p.readString()}
	case p.readIf("ALLOW_LITERALS"):
		p.readIfEqualOrTo()
		switch {
		case p.readIf("NONE"):
			return p.setInt("ALLOW_LITERALS", int(lex.AllowLiteralsNone))
		case p.readIfTok(lex.TokenAll):
			return p.setInt("ALLOW_LITERALS", int(lex.AllowLiteralsAll))
		case p.readIf("NUMBERS"):
			return p.setInt("ALLOW_LITERALS", int(lex.AllowLiteralsNumbers))
		}
		return p.setInt("ALLOW_LITERALS", p.readNonNegativeInt())
	case p.readIf("DEFAULT_TABLE_TYPE"):
		p.readIfEqualOrTo()
		switch {
		case p.readIf("MEMORY"):
			return p.setInt("DEFAULT_TABLE_TYPE", int(schema.TableStorageMemory))
		case p.readIf("CACHED"):
			return p.setInt("DEFAULT_TABLE_TYPE", int(schema.TableStorageCached))
		}
		return p.setInt("DEFAULT_TABLE_TYPE", p.readNonNegativeInt())
	case p.readIf("SCHEMA"):
		p.readIfEqualOrTo()
		return &SqlSet{Name: "SCHEMA", Str: p.readAliasIdentifier()}
	case p.readIf("DATESTYLE"):
		p.readIfEqualOrTo()
		if !p.readIf("ISO") {
			if s := p.readString(); !p.equalsToken(s, "ISO") {
				p.failSyntax()
			}
		}
		return &SqlNoOp{}
	case p.readIf("SEARCH_PATH") || p.readIf("SCHEMA_SEARCH_PATH"):
		p.readIfEqualOrTo()
		cmd := &SqlSet{Name: "SCHEMA_SEARCH_PATH"}
		for {
			cmd.Strings = append(cmd.Strings, p.readAliasIdentifier())
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
		return cmd
	}
	if !p.isIdentifier() {
		p.failSyntax()
	}
	name := strings.ToUpper(p.s.Token())
	switch name {
	case "LOGSIZE":
		name = "MAX_LOG_SIZE"
	case "FOREIGN_KEY_CHECKS":
		name = "REFERENTIAL_INTEGRITY"
	}
	if !schema.IsSetting(name) {
		p.failSyntax()
	}
	p.next()
	p.readIfEqualOrTo()
	return &SqlSet{Name: name, Expr: p.readExpression()}
}

func (p *Parser) setInt(name string, i int) *SqlSet {
	return &SqlSet{Name: name, Int: i, hasInt: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// collationStrength maps STRENGTH to the collator levels.
var collationStrength = map[string]int{
	"PRIMARY":   0,
	"SECONDARY": 1,
	"TERTIARY":  2,
	"IDENTICAL": 3,
}

func (p *Parser) parseSetCollation() Prepared {
	name := p.readAliasIdentifier()
	cmd := &SqlSet{Name: "COLLATION", Str: name}
	if p.equalsToken(name, "OFF") {
		return cmd
	}
	if p.readIf("STRENGTH") {
		word := "PRIMARY"
		if !p.readIfTok(lex.TokenPrimary) {
			if !p.isIdentifier() {
				p.failSyntax()
			}
			word = strings.ToUpper(p.s.Token())
			if _, ok := collationStrength[word]; !ok {
				p.failSyntax()
			}
			p.next()
		}
		cmd.Int, cmd.hasInt = collationStrength[word], true
	}
	return cmd
}

func (p *Parser) parseUse() Prepared {
	p.readIfEqualOrTo()
	return &SqlSet{Name: "SCHEMA", Str: p.readAliasIdentifier()}
}

func (p *Parser) readScriptFile() ScriptFile {
	f := ScriptFile{File: p.readExpression()}
	if p.readIf("COMPRESSION") {
		f.Compression = p.readUniqueIdentifier()
	}
	if p.readIf("CIPHER") {
		f.Cipher = p.readUniqueIdentifier()
		if p.readIf("PASSWORD") {
			f.Password = p.readExpression()
		}
	}
	if p.readIf("CHARSET") {
		f.Charset = p.readString()
	}
	return f
}

func (p *Parser) parseRunScript() Prepared {
	p.readTok(lex.TokenFrom)
	return &SqlRunScript{ScriptFile: p.readScriptFile()}
}

func (p *Parser) parseScript() Prepared {
	cmd := &SqlScript{Data: true, Passwords: true, Settings: true}
	cmd.Simple = p.readIf("SIMPLE")
	if p.readIf("NODATA") {
		cmd.Data = false
	}
	if p.readIf("NOPASSWORDS") {
		cmd.Passwords = false
	}
	if p.readIf("NOSETTINGS") {
		cmd.Settings = false
	}
	cmd.Drop = p.readIf("DROP")
	if p.readIf("BLOCKSIZE") {
		cmd.BlockSize = p.readLong()
	}
	if p.readIf("TO") {
		f := p.readScriptFile()
		cmd.To = &f
	}
	if p.readIf("SCHEMA") {
		for {
			cmd.Schemas = append(cmd.Schemas, p.readUniqueIdentifier())
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
	} else if p.readIf("TABLE") {
		for {
			cmd.Tables = append(cmd.Tables, p.readTableOrViewName())
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
	}
	return cmd
}
