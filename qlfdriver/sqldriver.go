package qlfdriver

import (
	"database/sql/driver"

	"github.com/araddon/qlfront/rel"
	"github.com/araddon/qlfront/schema"
)

var (
	_ driver.Driver = (*qlfDriver)(nil)
	_ driver.Conn   = (*qlfConn)(nil)
	_ driver.Stmt   = (*qlfStmt)(nil)
)

type qlfDriver struct{}

// Open a connection with its own session, so SET SCHEMA and local
// temporary tables stay per connection.
func (m *qlfDriver) Open(name string) (driver.Conn, error) {
	db, err := openCatalog(name)
	if err != nil {
		return nil, err
	}
	sess := schema.NewSession(db, "")
	return &qlfConn{session: sess, parser: rel.NewParser(sess)}, nil
}

type qlfConn struct {
	session *schema.Session
	parser  *rel.Parser
	closed  bool
}

// Prepare parses and binds @query, only one statement is accepted.
func (m *qlfConn) Prepare(query string) (driver.Stmt, error) {
	if m.closed {
		return nil, ErrClosed
	}
	stmt, err := m.parser.Parse(query)
	if err != nil {
		return nil, err
	}
	return &qlfStmt{stmt: stmt}, nil
}

func (m *qlfConn) Close() error {
	m.closed = true
	return nil
}

func (m *qlfConn) Begin() (driver.Tx, error) { return nil, ErrNotSupported }

type qlfStmt struct {
	stmt rel.Prepared
}

func (m *qlfStmt) Close() error { return nil }

// NumInput is the number of ? or ?n parameters of the statement.
func (m *qlfStmt) NumInput() int { return len(m.stmt.Params()) }

func (m *qlfStmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, ErrNotSupported
}

func (m *qlfStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, ErrNotSupported
}
