package rel

import (
	"strconv"
	"strings"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/schema"
)

// TransactionType is the action of a SqlTransaction.
type TransactionType uint8

const (
	TxBegin TransactionType = iota
	TxCommit
	TxCommitTransaction
	TxRollback
	TxRollbackTransaction
	TxRollbackToSavepoint
	TxSavepoint
	TxPrepareCommit
	TxCheckpoint
	TxCheckpointSync
	TxShutdown
	TxShutdownImmediately
	TxShutdownCompact
	TxShutdownDefrag
	TxAutocommitOn
	TxAutocommitOff
)

var txSQL = map[TransactionType]string{
	TxBegin:               "BEGIN",
	TxCommit:              "COMMIT",
	TxCommitTransaction:   "COMMIT TRANSACTION",
	TxRollback:            "ROLLBACK",
	TxRollbackTransaction: "ROLLBACK TRANSACTION",
	TxRollbackToSavepoint: "ROLLBACK TO SAVEPOINT",
	TxSavepoint:           "SAVEPOINT",
	TxPrepareCommit:       "PREPARE COMMIT",
	TxCheckpoint:          "CHECKPOINT",
	TxCheckpointSync:      "CHECKPOINT SYNC",
	TxShutdown:            "SHUTDOWN",
	TxShutdownImmediately: "SHUTDOWN IMMEDIATELY",
	TxShutdownCompact:     "SHUTDOWN COMPACT",
	TxShutdownDefrag:      "SHUTDOWN DEFRAG",
	TxAutocommitOn:        "SET AUTOCOMMIT TRUE",
	TxAutocommitOff:       "SET AUTOCOMMIT FALSE",
}

func (m TransactionType) String() string { return txSQL[m] }

type (
	// SqlTransaction is a transaction or database lifecycle command.
	SqlTransaction struct {
		stmtBase
		Type TransactionType
		// Name of the transaction or savepoint
		Name string
	}

	// SqlSet changes a setting, the current schema or a session variable.
	// Exactly one of Expr, Str, Strings or Int carries the value, as the
	// setting requires.
	SqlSet struct {
		stmtBase
		Name string
		// Variable is set for SET @name = expr
		Variable string
		Expr     expr.Node
		Str      string
		Strings  []string
		Int      int
		hasInt   bool
	}

	// SqlAnalyze is ANALYZE [TABLE t] [SAMPLE_SIZE n].
	SqlAnalyze struct {
		stmtBase
		Table      *schema.Table
		SampleSize int
	}

	// SqlBackup is BACKUP TO file.
	SqlBackup struct {
		stmtBase
		File expr.Node
	}

	// ScriptFile is the target file of SCRIPT TO and RUNSCRIPT FROM.
	ScriptFile struct {
		File        expr.Node
		Compression string
		Cipher      string
		Password    expr.Node
		Charset     string
	}

	// SqlRunScript is RUNSCRIPT FROM file.
	SqlRunScript struct {
		stmtBase
		ScriptFile
	}

	// SqlScript is SCRIPT [SIMPLE] [NODATA] .. [TO file] [SCHEMA ..|TABLE ..].
	SqlScript struct {
		stmtBase
		Simple    bool
		Data      bool
		Passwords bool
		Settings  bool
		Drop      bool
		BlockSize int64
		// To is nil when the script is returned as a result
		To      *ScriptFile
		Schemas []string
		Tables  []*schema.Table
	}
)

func (m *SqlTransaction) Kind() StatementKind { return KindTransaction }
func (m *SqlSet) Kind() StatementKind         { return KindSet }
func (m *SqlAnalyze) Kind() StatementKind     { return KindAnalyze }
func (m *SqlBackup) Kind() StatementKind      { return KindBackup }
func (m *SqlRunScript) Kind() StatementKind   { return KindRunScript }
func (m *SqlScript) Kind() StatementKind      { return KindScript }
func (m *SqlScript) IsQuery() bool            { return m.To == nil }

func (m *SqlTransaction) String() string {
	if m.Name != "" {
		return m.Type.String() + " " + quoteName(m.Name)
	}
	return m.Type.String()
}

func (m *SqlSet) String() string {
	if m.Variable != "" {
		return "SET @" + quoteName(m.Variable) + " = " + m.Expr.String()
	}
	s := "SET " + m.Name + " "
	switch {
	case m.Expr != nil:
		return s + m.Expr.String()
	case len(m.Strings) > 0:
		return s + joinNames(m.Strings)
	case m.hasInt:
		return s + strconv.Itoa(m.Int)
	}
	if m.Name == "SCHEMA" || m.Name == "MODE" {
		return s + quoteName(m.Str)
	}
	return s + "'" + strings.Replace(m.Str, "'", "''", -1) + "'"
}

func (m *SqlAnalyze) String() string {
	s := "ANALYZE"
	if m.Table != nil {
		s += " TABLE " + m.Table.SQL()
	}
	if m.SampleSize > 0 {
		s += " SAMPLE_SIZE " + strconv.Itoa(m.SampleSize)
	}
	return s
}

func (m *SqlBackup) String() string { return "BACKUP TO " + m.File.String() }

func (m *ScriptFile) String() string {
	s := m.File.String()
	if m.Compression != "" {
		s += " COMPRESSION " + m.Compression
	}
	if m.Cipher != "" {
		s += " CIPHER " + m.Cipher
		if m.Password != nil {
			s += " PASSWORD " + m.Password.String()
		}
	}
	if m.Charset != "" {
		s += " CHARSET '" + m.Charset + "'"
	}
	return s
}

func (m *SqlRunScript) String() string { return "RUNSCRIPT FROM " + m.ScriptFile.String() }

func (m *SqlScript) String() string {
	var b strings.Builder
	b.WriteString("SCRIPT")
	if m.Simple {
		b.WriteString(" SIMPLE")
	}
	if !m.Data {
		b.WriteString(" NODATA")
	}
	if !m.Passwords {
		b.WriteString(" NOPASSWORDS")
	}
	if !m.Settings {
		b.WriteString(" NOSETTINGS")
	}
	if m.Drop {
		b.WriteString(" DROP")
	}
	if m.BlockSize > 0 {
		b.WriteString(" BLOCKSIZE " + strconv.FormatInt(m.BlockSize, 10))
	}
	if m.To != nil {
		b.WriteString(" TO " + m.To.String())
	}
	if len(m.Schemas) > 0 {
		b.WriteString(" SCHEMA " + joinNames(m.Schemas))
	}
	if len(m.Tables) > 0 {
		names := make([]string, len(m.Tables))
		for i, t := range m.Tables {
			names[i] = t.SQL()
		}
		b.WriteString(" TABLE " + strings.Join(names, ", "))
	}
	return b.String()
}

var (
	_ Prepared = (*SqlTransaction)(nil)
	_ Prepared = (*SqlSet)(nil)
	_ Prepared = (*SqlAnalyze)(nil)
	_ Prepared = (*SqlBackup)(nil)
	_ Prepared = (*SqlRunScript)(nil)
	_ Prepared = (*SqlScript)(nil)
)
