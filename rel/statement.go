// Package rel is the SQL grammar: it turns SQL text into Prepared
// statements (queries, DML, DDL and session commands) bound against a
// schema.Session.
package rel

import (
	"fmt"

	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/schema"
)

var _ = u.EMPTY

// StatementKind identifies the command a Prepared statement carries.
type StatementKind uint8

const (
	// DO NOT CHANGE the numbers, they are stored with cached plans
	KindNoOp           StatementKind = 0
	KindSelect         StatementKind = 1
	KindInsert         StatementKind = 2
	KindUpdate         StatementKind = 3
	KindDelete         StatementKind = 4
	KindMerge          StatementKind = 5
	KindMergeUsing     StatementKind = 6
	KindReplace        StatementKind = 7
	KindCall           StatementKind = 8
	KindExplain        StatementKind = 9
	KindExecute        StatementKind = 10
	KindDeallocate     StatementKind = 11
	KindPrepare        StatementKind = 12
	KindTransaction    StatementKind = 13
	KindSet            StatementKind = 14
	KindCreateTable    StatementKind = 20
	KindCreateLinked   StatementKind = 21
	KindCreateView     StatementKind = 22
	KindCreateIndex    StatementKind = 23
	KindCreateSequence StatementKind = 24
	KindCreateTrigger  StatementKind = 25
	KindCreateUser     StatementKind = 26
	KindCreateRole     StatementKind = 27
	KindCreateSchema   StatementKind = 28
	KindCreateConstant StatementKind = 29
	KindCreateDomain   StatementKind = 30
	KindCreateAgg      StatementKind = 31
	KindCreateAlias    StatementKind = 32
	KindCreateSynonym  StatementKind = 33
	KindDrop           StatementKind = 40
	KindAlterTable     StatementKind = 41
	KindAddConstraint  StatementKind = 42
	KindAlterIndex     StatementKind = 43
	KindAlterSchema    StatementKind = 44
	KindAlterSequence  StatementKind = 45
	KindAlterUser      StatementKind = 46
	KindAlterView      StatementKind = 47
	KindComment        StatementKind = 48
	KindTruncate       StatementKind = 49
	KindGrantRevoke    StatementKind = 50
	KindAnalyze        StatementKind = 51
	KindBackup         StatementKind = 60
	KindRunScript      StatementKind = 61
	KindScript         StatementKind = 62
)

var kindNames = map[StatementKind]string{
	KindNoOp:           "NOOP",
	KindSelect:         "SELECT",
	KindInsert:         "INSERT",
	KindUpdate:         "UPDATE",
	KindDelete:         "DELETE",
	KindMerge:          "MERGE",
	KindMergeUsing:     "MERGE USING",
	KindReplace:        "REPLACE",
	KindCall:           "CALL",
	KindExplain:        "EXPLAIN",
	KindExecute:        "EXECUTE",
	KindDeallocate:     "DEALLOCATE",
	KindPrepare:        "PREPARE",
	KindTransaction:    "TRANSACTION",
	KindSet:            "SET",
	KindCreateTable:    "CREATE TABLE",
	KindCreateLinked:   "CREATE LINKED TABLE",
	KindCreateView:     "CREATE VIEW",
	KindCreateIndex:    "CREATE INDEX",
	KindCreateSequence: "CREATE SEQUENCE",
	KindCreateTrigger:  "CREATE TRIGGER",
	KindCreateUser:     "CREATE USER",
	KindCreateRole:     "CREATE ROLE",
	KindCreateSchema:   "CREATE SCHEMA",
	KindCreateConstant: "CREATE CONSTANT",
	KindCreateDomain:   "CREATE DOMAIN",
	KindCreateAgg:      "CREATE AGGREGATE",
	KindCreateAlias:    "CREATE ALIAS",
	KindCreateSynonym:  "CREATE SYNONYM",
	KindDrop:           "DROP",
	KindAlterTable:     "ALTER TABLE",
	KindAddConstraint:  "ADD CONSTRAINT",
	KindAlterIndex:     "ALTER INDEX",
	KindAlterSchema:    "ALTER SCHEMA",
	KindAlterSequence:  "ALTER SEQUENCE",
	KindAlterUser:      "ALTER USER",
	KindAlterView:      "ALTER VIEW",
	KindComment:        "COMMENT",
	KindTruncate:       "TRUNCATE",
	KindGrantRevoke:    "GRANT/REVOKE",
	KindAnalyze:        "ANALYZE",
	KindBackup:         "BACKUP",
	KindRunScript:      "RUNSCRIPT",
	KindScript:         "SCRIPT",
}

func (m StatementKind) String() string {
	if s, ok := kindNames[m]; ok {
		return s
	}
	return fmt.Sprintf("StatementKind(%d)", m)
}

type (
	// Prepared is a parsed and bound statement.
	Prepared interface {
		Kind() StatementKind
		// SQL is the source text the statement was parsed from
		SQL() string
		// Params in index order, no gaps
		Params() []*expr.ParamNode
		// AlwaysRecompile statements must not be cached
		AlwaysRecompile() bool
		// IsQuery is true for statements returning a result set
		IsQuery() bool
		String() string
		base() *stmtBase
	}

	stmtBase struct {
		sql       string
		params    []*expr.ParamNode
		recompile bool
		// views created for WITH, in creation order
		cteViews []*schema.Table
	}
)

func (m *stmtBase) SQL() string                   { return m.sql }
func (m *stmtBase) Params() []*expr.ParamNode     { return m.params }
func (m *stmtBase) AlwaysRecompile() bool         { return m.recompile }
func (m *stmtBase) IsQuery() bool                 { return false }
func (m *stmtBase) base() *stmtBase               { return m }
func (m *stmtBase) setSQL(sql string)             { m.sql = sql }
func (m *stmtBase) setRecompile()                 { m.recompile = true }
func (m *stmtBase) setParams(p []*expr.ParamNode) { m.params = p }

// CteViews are the common table expressions the statement was parsed with,
// they are no longer registered once parsing finished.
func (m *stmtBase) CteViews() []*schema.Table { return m.cteViews }

type (
	// SqlNoOp is an empty statement or an ignored compatibility command.
	SqlNoOp struct {
		stmtBase
	}

	// SqlCall is CALL expr, or ?= CALL expr.
	SqlCall struct {
		stmtBase
		Expr expr.Node
		// ReturnParam is set for the {?= CALL f()} form
		ReturnParam *expr.ParamNode
	}

	// SqlExplain is EXPLAIN [ANALYZE | PLAN FOR] statement.
	SqlExplain struct {
		stmtBase
		Analyze   bool
		Statement Prepared
	}

	// SqlPrepare is PREPARE name [(types)] AS statement.
	SqlPrepare struct {
		stmtBase
		Name      string
		Statement Prepared
	}

	// SqlExecute runs a prepared procedure.
	SqlExecute struct {
		stmtBase
		Name string
		Args []expr.Node
	}

	// SqlDeallocate drops a prepared procedure.
	SqlDeallocate struct {
		stmtBase
		Name string
	}
)

func (m *SqlNoOp) Kind() StatementKind       { return KindNoOp }
func (m *SqlNoOp) String() string            { return "" }
func (m *SqlCall) Kind() StatementKind       { return KindCall }
func (m *SqlCall) IsQuery() bool             { return true }
func (m *SqlExplain) Kind() StatementKind    { return KindExplain }
func (m *SqlExplain) IsQuery() bool          { return true }
func (m *SqlPrepare) Kind() StatementKind    { return KindPrepare }
func (m *SqlExecute) Kind() StatementKind    { return KindExecute }
func (m *SqlDeallocate) Kind() StatementKind { return KindDeallocate }

func (m *SqlCall) String() string {
	if m.ReturnParam != nil {
		return m.ReturnParam.String() + " = CALL " + m.Expr.String()
	}
	return "CALL " + m.Expr.String()
}

func (m *SqlExplain) String() string {
	if m.Analyze {
		return "EXPLAIN ANALYZE " + m.Statement.String()
	}
	return "EXPLAIN " + m.Statement.String()
}

func (m *SqlPrepare) String() string {
	return "PREPARE " + quoteName(m.Name) + " AS " + m.Statement.String()
}

func (m *SqlExecute) String() string {
	s := "EXECUTE " + quoteName(m.Name)
	if len(m.Args) > 0 {
		s += "(" + joinExprs(m.Args) + ")"
	}
	return s
}

func (m *SqlDeallocate) String() string { return "DEALLOCATE PLAN " + quoteName(m.Name) }

// Interface checks
var (
	_ Prepared = (*SqlNoOp)(nil)
	_ Prepared = (*SqlCall)(nil)
	_ Prepared = (*SqlExplain)(nil)
	_ Prepared = (*SqlPrepare)(nil)
	_ Prepared = (*SqlExecute)(nil)
	_ Prepared = (*SqlDeallocate)(nil)
)
