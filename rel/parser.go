package rel

import (
	"math"
	"sort"
	"strconv"
	"strings"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

const (
	// maxParameterIndex bounds ?N
	maxParameterIndex = 100000
	// joinPrefix names the wrapper filter of a nested join
	joinPrefix = "SYSTEM_JOIN_"
)

// commands maps the first keyword of a statement to its production, the
// keyword has been consumed when the production runs.
var commands map[string]func(*Parser) Prepared

func init() {
	commands = map[string]func(*Parser) Prepared{
		"ALTER":      (*Parser).parseAlter,
		"ANALYZE":    (*Parser).parseAnalyze,
		"BACKUP":     (*Parser).parseBackup,
		"BEGIN":      (*Parser).parseBegin,
		"CALL":       (*Parser).parseCall,
		"CHECKPOINT": (*Parser).parseCheckpoint,
		"COMMENT":    (*Parser).parseComment,
		"COMMIT":     (*Parser).parseCommit,
		"CREATE":     (*Parser).parseCreate,
		"DEALLOCATE": (*Parser).parseDeallocate,
		"DECLARE":    (*Parser).parseDeclare,
		"DELETE":     (*Parser).parseDelete,
		"DROP":       (*Parser).parseDrop,
		"EXECUTE":    (*Parser).parseExecute,
		"EXPLAIN":    (*Parser).parseExplain,
		"GRANT":      (*Parser).parseGrant,
		"HELP":       (*Parser).parseHelp,
		"INSERT":     (*Parser).parseInsert,
		"MERGE":      (*Parser).parseMerge,
		"PREPARE":    (*Parser).parsePrepare,
		"RELEASE":    (*Parser).parseRelease,
		"REPLACE":    (*Parser).parseReplace,
		"REVOKE":     (*Parser).parseRevoke,
		"ROLLBACK":   (*Parser).parseRollback,
		"RUNSCRIPT":  (*Parser).parseRunScript,
		"SAVEPOINT":  (*Parser).parseSavepoint,
		"SCRIPT":     (*Parser).parseScript,
		"SET":        (*Parser).parseSet,
		"SHOW":       (*Parser).parseShow,
		"SHUTDOWN":   (*Parser).parseShutdown,
		"TRUNCATE":   (*Parser).parseTruncate,
		"UPDATE":     (*Parser).parseUpdate,
		"USE":        (*Parser).parseUse,
		"VALUES":     (*Parser).parseValuesStatement,
	}
}

// Parser turns SQL text into Prepared statements bound to a session.  A
// Parser is not safe for concurrent use, each session owns its own.
type Parser struct {
	session  *schema.Session
	cat      schema.Catalog
	mode     *lex.Mode
	settings *schema.Settings
	toUpper  bool

	s   *lex.Scanner
	sql string

	// params are unindexed ? parameters in reading order, indexed holds ?N
	// parameters by index and is nil until the first ?N
	params    []*expr.ParamNode
	indexed   []*expr.ParamNode
	recompile bool

	// currentSelect is the query aggregates belong to, currentPrepared the
	// statement ROWNUM refers to
	currentSelect   *SqlSelect
	currentPrepared Prepared
	orderInFrom     int

	// cteViews registered while parsing, removed again unless they belong
	// to a view being created
	cteViews []*schema.Table
	// shadows are the placeholders of table expressions being read, true
	// once referenced
	shadows map[*schema.Table]bool
	meta    schema.MetaLock
}

// NewParser creates a parser for @session.
func NewParser(session *schema.Session) *Parser {
	cat := session.Catalog
	settings := cat.Settings()
	return &Parser{
		session:  session,
		cat:      cat,
		mode:     cat.Mode(),
		settings: settings,
		toUpper:  settings.IdentifiersToUpper,
	}
}

// Parse a single statement against @session.
//
//	stmt, err := rel.Parse(session, "SELECT X FROM A WHERE Y = ?")
func Parse(session *schema.Session, sql string) (Prepared, error) {
	return NewParser(session).Parse(sql)
}

// ParseStatements parses a ; separated script.
func ParseStatements(session *schema.Session, sql string) ([]Prepared, error) {
	return NewParser(session).ParseStatements(sql)
}

// Parse parses exactly one statement, optionally followed by a semicolon.
func (p *Parser) Parse(sql string) (Prepared, error) {
	stmt, _, err := p.parse(sql)
	return stmt, err
}

// ParseStatements parses statements until the input is used up.  Error
// positions are offsets into the whole script.
func (p *Parser) ParseStatements(script string) ([]Prepared, error) {
	var stmts []Prepared
	sql := script
	for {
		stmt, rest, err := p.parse(sql)
		if err != nil {
			if base := len(script) - len(sql); base > 0 {
				if e, ok := sqlerr.AsError(err); ok && e.SQL == sql {
					e.SQL = script
					if e.Pos >= 0 {
						e.Pos += base
					}
				}
			}
			return nil, err
		}
		if stmt.Kind() != KindNoOp || len(stmts) == 0 {
			stmts = append(stmts, stmt)
		}
		if strings.TrimSpace(rest) == "" {
			break
		}
		sql = rest
	}
	return stmts, nil
}

// parse runs the fast pass and, when it fails with a syntax error, a second
// pass collecting the expected tokens for the message.  Only a fast pass
// result is ever returned.
func (p *Parser) parse(sql string) (Prepared, string, error) {
	stmt, rest, err := p.parseWith(sql, false)
	if err == nil {
		return stmt, rest, nil
	}
	if sqlerr.KindOf(err) != sqlerr.KindSyntax {
		return nil, "", err
	}
	u.Debugf("fast parse failed, diagnostic pass: %v", err)
	if _, _, derr := p.parseWith(sql, true); derr != nil {
		return nil, "", derr
	}
	return nil, "", err
}

func (p *Parser) parseWith(sql string, diagnostic bool) (stmt Prepared, rest string, err error) {
	p.reset()
	s, err := lex.NewScanner(sql, p.mode, p.toUpper)
	if err != nil {
		return nil, "", err
	}
	s.Literals = p.settings.AllowLiterals
	s.LiteralsChecked = p.session.AllowLiterals
	s.SetDiagnostic(diagnostic)
	p.s = s
	p.sql = sql

	defer p.recover(&err)
	p.next()
	stmt = p.parsePrepared()
	switch p.s.Type() {
	case lex.TokenEOF:
	case lex.TokenSemicolon:
		rest = sql[p.s.Pos():]
	default:
		p.failSyntax()
	}
	p.bindStatement(stmt)
	p.dropTemporaryViews(false)
	return stmt, rest, nil
}

func (p *Parser) reset() {
	p.s = nil
	p.params = nil
	p.indexed = nil
	p.recompile = false
	p.currentSelect = nil
	p.currentPrepared = nil
	p.orderInFrom = 0
	p.cteViews = nil
	p.shadows = make(map[*schema.Table]bool)
	p.meta = nil
}

// recover turns a grammar abort into the returned error.  Views registered
// for WITH are removed on every failure.
func (p *Parser) recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	e, ok := r.(*sqlerr.Error)
	if !ok {
		panic(r)
	}
	p.dropTemporaryViews(true)
	*errp = e
}

// fail aborts the parse with @e positioned at the current token.
func (p *Parser) fail(e *sqlerr.Error) {
	if p.s != nil {
		e = p.s.Error(e)
	}
	panic(e)
}

func (p *Parser) failErr(err error) {
	if e, ok := sqlerr.AsError(err); ok {
		p.fail(e)
	}
	p.fail(sqlerr.New(sqlerr.SyntaxError).At(p.sql, p.s.TokenPos()))
}

func (p *Parser) failSyntax() {
	panic(p.s.SyntaxError())
}

// failExpected is a syntax error naming what was expected, also in the
// fast pass.
func (p *Parser) failExpected(what string) {
	panic(sqlerr.Syntax(p.sql, p.s.TokenPos(), []string{what}))
}

func (p *Parser) next() {
	if err := p.s.Next(); err != nil {
		p.failErr(err)
	}
}

func (p *Parser) mark() int { return p.s.Mark() }

func (p *Parser) resetTo(mark int) {
	if err := p.s.Reset(mark); err != nil {
		p.failErr(err)
	}
}

// equalsToken compares names the way the session folds identifiers.
func (p *Parser) equalsToken(a, b string) bool {
	return a == b || (!p.toUpper && strings.EqualFold(a, b))
}

// isWord is true when the current token is the keyword @word; quoted
// identifiers never match.
func (p *Parser) isWord(word string) bool {
	if tok, ok := lex.KeywordType(word); ok {
		return p.s.Type() == tok
	}
	return p.s.Type() == lex.TokenIdentity && !p.s.Quoted() && p.equalsToken(word, p.s.Token())
}

// readIf consumes @word if it is the current token.
func (p *Parser) readIf(word string) bool {
	if p.isWord(word) {
		p.next()
		return true
	}
	p.s.Expect(word)
	return false
}

func (p *Parser) read(word string) {
	if !p.readIf(word) {
		p.failSyntax()
	}
}

func (p *Parser) isTok(tok lex.TokenType) bool { return p.s.Type() == tok }

func (p *Parser) readIfTok(tok lex.TokenType) bool {
	if p.s.Type() == tok {
		p.next()
		return true
	}
	p.s.Expect(tok.String())
	return false
}

func (p *Parser) readTok(tok lex.TokenType) {
	if !p.readIfTok(tok) {
		p.failSyntax()
	}
}

// readIfMore reads , or ); a trailing comma before ) is accepted unless
// @strict.
func (p *Parser) readIfMore(strict bool) bool {
	if p.readIfTok(lex.TokenComma) {
		return strict || !p.readIfTok(lex.TokenRightParenthesis)
	}
	p.readTok(lex.TokenRightParenthesis)
	return false
}

// isIdentifier is an unreserved name at the current position.
func (p *Parser) isIdentifier() bool {
	return p.s.Type() == lex.TokenIdentity
}

func (p *Parser) readColumnIdentifier() string {
	if p.s.Type() != lex.TokenIdentity {
		p.failExpected("identifier")
	}
	name := p.s.Token()
	p.next()
	return name
}

func (p *Parser) readAliasIdentifier() string  { return p.readColumnIdentifier() }
func (p *Parser) readUniqueIdentifier() string { return p.readColumnIdentifier() }

// readIdentifierWithSchema reads [[database.]schema.]name, the schema is
// empty when none was written.
func (p *Parser) readIdentifierWithSchema() (string, string) {
	name := p.readColumnIdentifier()
	schemaName := ""
	if p.readIfTok(lex.TokenDot) {
		schemaName = name
		name = p.readColumnIdentifier()
	}
	if p.isTok(lex.TokenDot) && p.equalsToken(schemaName, p.cat.ShortName()) {
		p.next()
		schemaName = name
		name = p.readColumnIdentifier()
	}
	return schemaName, name
}

// schemaOrDefault applies the current schema to an unqualified name.
func (p *Parser) schemaOrDefault(schemaName string) string {
	if schemaName == "" {
		return p.session.CurrentSchema()
	}
	return schemaName
}

// getSchema resolves @name, it must exist.
func (p *Parser) getSchema(name string) *schema.Schema {
	if name == "" {
		name = p.session.CurrentSchema()
	}
	s, ok := p.session.FindSchema(name)
	if !ok {
		p.fail(sqlerr.New(sqlerr.SchemaNotFound, name))
	}
	return s
}

func (p *Parser) readInt() int {
	minus := false
	if p.readIfTok(lex.TokenMinus) {
		minus = true
	} else {
		p.readIfTok(lex.TokenPlus)
	}
	if p.s.Type() != lex.TokenValue {
		p.failExpected("integer")
	}
	v := p.s.Value()
	if minus {
		nv, err := value.Negate(v)
		if err != nil {
			p.failExpected("integer")
		}
		v = nv
	}
	i, ok := value.ToInt64(v)
	if !ok || v.Type() == value.StringType || i > math.MaxInt32 || i < math.MinInt32 {
		p.failExpected("integer")
	}
	p.next()
	return int(i)
}

func (p *Parser) readLong() int64 {
	minus := false
	if p.readIfTok(lex.TokenMinus) {
		minus = true
	} else {
		p.readIfTok(lex.TokenPlus)
	}
	if p.s.Type() != lex.TokenValue {
		p.failExpected("long")
	}
	v := p.s.Value()
	if minus {
		nv, err := value.Negate(v)
		if err != nil {
			p.failExpected("long")
		}
		v = nv
	}
	i, ok := value.ToInt64(v)
	if !ok || v.Type() == value.StringType {
		p.failExpected("long")
	}
	p.next()
	return i
}

func (p *Parser) readBooleanSetting() bool {
	switch {
	case p.s.Type() == lex.TokenValue:
		i, ok := value.ToInt64(p.s.Value())
		if !ok {
			p.failSyntax()
		}
		p.next()
		return i != 0
	case p.readIfTok(lex.TokenTrue) || p.readIf("ON"):
		return true
	case p.readIfTok(lex.TokenFalse) || p.readIf("OFF"):
		return false
	}
	p.failSyntax()
	return false
}

// readString reads a constant string expression, concatenations and casts
// of literals included.
func (p *Parser) readString() string {
	e := p.readConcat()
	folded, err := expr.Fold(e)
	if err != nil {
		p.failExpected("string")
	}
	vn, ok := folded.(*expr.ValueNode)
	if !ok {
		p.failExpected("string")
	}
	return vn.Value.ToString()
}

// readStringOrParameter is a string literal, or a parameter set later.
func (p *Parser) readStringOrParameter() expr.Node {
	if p.isTok(lex.TokenParameter) {
		return p.readParameter()
	}
	return expr.NewValueNode(value.NewStringValue(p.readString()))
}

// isSelect looks past any ( for SELECT, FROM or WITH.
func (p *Parser) isSelect() bool {
	mark := p.mark()
	for p.readIfTok(lex.TokenLeftParenthesis) {
	}
	sel := p.isTok(lex.TokenSelect) || p.isTok(lex.TokenFrom) || p.isTok(lex.TokenWith)
	p.resetTo(mark)
	return sel
}

// readParameter reads ? or ?N (or $N), the current token is the marker.
func (p *Parser) readParameter() *expr.ParamNode {
	idx, indexed, err := p.s.ReadParameterIndex()
	if err != nil {
		p.failErr(err)
	}
	var param *expr.ParamNode
	if indexed {
		if p.indexed == nil {
			if len(p.params) > 0 {
				p.fail(sqlerr.New(sqlerr.CannotMixIndexedAndUnindexedParams))
			}
			p.indexed = make([]*expr.ParamNode, 0, idx)
		}
		idx--
		if idx < 0 || idx >= maxParameterIndex {
			p.fail(sqlerr.New(sqlerr.InvalidValue, strconv.Itoa(idx+1), "parameter index"))
		}
		for len(p.indexed) <= idx {
			p.indexed = append(p.indexed, nil)
		}
		param = p.indexed[idx]
		if param == nil {
			param = &expr.ParamNode{Index: idx}
			p.indexed[idx] = param
		}
	} else {
		if p.indexed != nil {
			p.fail(sqlerr.New(sqlerr.CannotMixIndexedAndUnindexedParams))
		}
		param = &expr.ParamNode{Index: len(p.params)}
		p.params = append(p.params, param)
	}
	p.next()
	return param
}

// parsePrepared dispatches on the first token of a statement.
func (p *Parser) parsePrepared() Prepared {
	start := p.s.LastPos()
	var c Prepared
	switch p.s.Type() {
	case lex.TokenEOF, lex.TokenSemicolon:
		c = &SqlNoOp{}
	case lex.TokenParameter:
		// ?= CALL f(..), the leading parameter receives the result
		out := p.readParameter()
		out.Value = value.NilValueVal
		p.readTok(lex.TokenEqual)
		p.read("CALL")
		call := p.parseCall().(*SqlCall)
		call.ReturnParam = out
		c = call
	case lex.TokenLeftParenthesis, lex.TokenSelect, lex.TokenFrom:
		c = p.parseSelect()
	case lex.TokenWith:
		p.next()
		c = p.parseWithStatementOrQuery()
	case lex.TokenIdentity:
		if !p.s.Quoted() {
			c = p.parseCommand()
		}
	}
	if c == nil {
		p.failSyntax()
	}
	p.finishParameters(c)
	c.base().setSQL(strings.TrimSpace(p.s.Slice(start, p.s.LastPos())))
	if p.recompile {
		c.base().setRecompile()
	}
	return c
}

// queryStarts are the keywords beginning a statement outside of commands.
var queryStarts = []string{"FROM", "SELECT", "WITH"}

func (p *Parser) parseCommand() Prepared {
	word := strings.ToUpper(p.s.Token())
	if fn, ok := commands[word]; ok {
		p.next()
		return fn(p)
	}
	if !p.s.Diagnostic() {
		p.failSyntax()
	}
	// offer every command starting with the same letter
	var candidates []string
	for _, kw := range queryStarts {
		if word != "" && kw[0] == word[0] {
			candidates = append(candidates, kw)
		}
	}
	for kw := range commands {
		if word != "" && kw[0] == word[0] {
			candidates = append(candidates, kw)
		}
	}
	sort.Strings(candidates)
	for _, kw := range candidates {
		p.s.Expect(kw)
	}
	p.failSyntax()
	return nil
}

// finishParameters checks indexed parameters for gaps and reads the legacy
// {1: value, ..} block binding parameters inline.
func (p *Parser) finishParameters(c Prepared) {
	params := p.params
	if p.indexed != nil {
		for i, param := range p.indexed {
			if param == nil {
				p.fail(sqlerr.New(sqlerr.ParameterNotSet, "#"+strconv.Itoa(i+1)))
			}
		}
		params = p.indexed
	}
	if p.readIfTok(lex.TokenLeftBrace) {
		for {
			idx := int(p.readLong()) - 1
			if idx < 0 || idx >= len(params) {
				p.failSyntax()
			}
			p.readTok(lex.TokenColon)
			e, err := expr.Fold(p.readExpression())
			if err != nil {
				p.failErr(err)
			}
			vn, ok := e.(*expr.ValueNode)
			if !ok {
				p.fail(sqlerr.New(sqlerr.InvalidValue, e.String(), "parameter"))
			}
			params[idx].Value = vn.Value
			if !p.readIfTok(lex.TokenComma) {
				break
			}
		}
		p.readTok(lex.TokenRightBrace)
		for _, param := range params {
			if param.Value == nil {
				p.fail(sqlerr.New(sqlerr.ParameterNotSet, "#"+strconv.Itoa(param.Index+1)))
			}
		}
	}
	c.base().setParams(params)
}

// tableNotFound is the error for a missing table, a view with the name of
// a missing CTE reports the same.
func tableNotFound(name string) *sqlerr.Error {
	return sqlerr.New(sqlerr.TableOrViewNotFound, name)
}

// readTableOrView resolves a table name read by readIdentifierWithSchema.
func (p *Parser) readTableOrView(schemaName, name string) *schema.Table {
	if schemaName != "" {
		if t, ok := p.session.ResolveTable(schemaName, name); ok {
			return t
		}
		if !p.isDualTable(schemaName, name) {
			p.getSchema(schemaName)
		}
	} else {
		if t, ok := p.session.ResolveTable(p.session.CurrentSchema(), name); ok {
			return t
		}
		for _, sn := range p.session.SearchPath() {
			if t, ok := p.session.ResolveTable(sn, name); ok {
				return t
			}
		}
	}
	if p.isDualTable(schemaName, name) {
		return p.dualTable()
	}
	p.fail(tableNotFound(name))
	return nil
}

// isDualTable is true for DUAL (SYS.DUAL) and, in modes that know it,
// SYSIBM.SYSDUMMY1.
func (p *Parser) isDualTable(schemaName, name string) bool {
	if (schemaName == "" || p.equalsToken(schemaName, "SYS")) && p.equalsToken(name, dualName) {
		return true
	}
	return p.mode.SysDummy1 && (schemaName == "" || p.equalsToken(schemaName, "SYSIBM")) &&
		p.equalsToken(name, "SYSDUMMY1")
}

// dualTable is the one row table with a single column X.
func (p *Parser) dualTable() *schema.Table {
	t := schema.NewTable(schema.MainSchema, dualName, schema.NewColumnType("X", "BIGINT"))
	t.Type = schema.TableTypeSystem
	return t
}

// findSequence resolves [schema.]name as a sequence.
func (p *Parser) findSequence(schemaName, name string) *schema.Sequence {
	seq, ok := p.session.FindSequence(p.schemaOrDefault(schemaName), name)
	if !ok {
		p.fail(sqlerr.New(sqlerr.SequenceNotFound, name))
	}
	return seq
}

// setRecompile marks the statement as never cacheable.
func (p *Parser) setRecompile() { p.recompile = true }
