package rel

import (
	u "github.com/araddon/gou"

	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/sqlerr"
)

// withLimitedStatements is the message for WITH followed by anything but a
// query or INSERT, UPDATE, MERGE, DELETE and CREATE TABLE.
const withLimitedStatements = "WITH statement supports only SELECT, CREATE TABLE, INSERT, UPDATE, MERGE or DELETE statements"

// parseWithStatementOrQuery reads the table expressions after WITH and the
// statement using them.  The views are registered while the statement is
// read and dropped again when parsing ends, unless they belong to the body
// of a view being created.
func (p *Parser) parseWithStatementOrQuery() Prepared {
	p.readIf("RECURSIVE")
	temporary := !p.session.ParsingView()
	var views []*schema.Table
	for {
		views = append(views, p.parseSingleCommonTableExpression(temporary))
		if !p.readIfTok(lex.TokenComma) {
			break
		}
	}
	parens := 0
	for p.readIfTok(lex.TokenLeftParenthesis) {
		parens++
	}
	var c Prepared
	switch {
	case p.isTok(lex.TokenSelect):
		c = p.parseSelectUnion()
	case p.readIf("INSERT"):
		c = p.parseInsert()
	case p.readIf("UPDATE"):
		c = p.parseUpdate()
	case p.readIf("MERGE"):
		c = p.parseMerge()
	case p.readIf("DELETE"):
		c = p.parseDelete()
	case p.readIf("CREATE"):
		if !p.isWord("TABLE") {
			p.fail(sqlerr.New(sqlerr.SyntaxError, withLimitedStatements))
		}
		c = p.parseCreate()
	default:
		p.fail(sqlerr.New(sqlerr.SyntaxError, withLimitedStatements))
	}
	for ; parens > 0; parens-- {
		p.readTok(lex.TokenRightParenthesis)
	}
	p.setRecompile()
	if q, ok := c.(Query); ok {
		p.initQuery(q)
	}
	// dependents first
	for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
		views[i], views[j] = views[j], views[i]
	}
	if temporary {
		c.base().cteViews = views
	}
	return c
}

// parseSingleCommonTableExpression reads name [(cols)] AS (query).  A
// placeholder table with the declared columns is visible while the body
// is read so the body may refer to itself; it is replaced by the final
// view, flagged recursive when the body did refer to it.  The sequence
// runs under the catalog meta lock.
func (p *Parser) parseSingleCommonTableExpression(temporary bool) *schema.Table {
	schemaName, name := p.readIdentifierWithSchema()
	schemaName = p.schemaOrDefault(schemaName)
	var colNames []string
	var cols []*schema.Column
	if p.readIfTok(lex.TokenLeftParenthesis) {
		colNames = p.parseNameList()
		for _, c := range colNames {
			// the type is not known before the body is read
			cols = append(cols, schema.NewColumnType(c, "VARCHAR"))
		}
	}

	lock := p.lockMeta()
	defer lock.release()

	var old *schema.Table
	if temporary {
		old, _ = p.session.FindLocalTempTable(name)
	} else {
		old, _ = p.cat.FindTable(schemaName, name)
	}
	if old != nil {
		if !old.IsView() || !old.TableExpression {
			p.fail(sqlerr.New(sqlerr.TableOrViewAlreadyExists, name))
		}
		p.removeView(lock, old)
	}

	shadow := schema.NewTable(schemaName, name, cols...)
	shadow.Persistent = false
	shadow.TableExpression = true
	p.addView(lock, shadow, temporary)
	u.Debugf("cte %s placeholder registered", name)
	p.shadows[shadow] = false

	q := func() Query {
		defer func() {
			p.removeView(lock, shadow)
		}()
		p.read("AS")
		p.readTok(lex.TokenLeftParenthesis)
		q := p.parseSelect()
		p.readTok(lex.TokenRightParenthesis)
		p.initQuery(q)
		// bound while the placeholder is visible, a self reference
		// resolves against it
		p.bindQuery(q, nil)
		return q
	}()
	recursive := p.shadows[shadow]
	delete(p.shadows, shadow)
	if len(colNames) > 0 && len(colNames) != q.ColumnCount() {
		p.fail(sqlerr.New(sqlerr.ColumnCountDoesNotMatch))
	}

	view := derivedTable(schemaName, name, q, colNames)
	view.TableExpression = true
	view.Recursive = recursive
	view.Temporary = temporary
	p.addView(lock, view, temporary)
	u.Debugf("cte %s registered recursive=%v", name, recursive)
	p.cteViews = append(p.cteViews, view)
	return view
}

// metaHold is the parser's hold of the catalog meta lock.  Nested table
// expressions share the outermost hold.
type metaHold struct {
	p     *Parser
	lock  schema.MetaLock
	owner bool
}

func (p *Parser) lockMeta() *metaHold {
	if p.meta != nil {
		return &metaHold{p: p, lock: p.meta}
	}
	p.meta = p.cat.LockMeta()
	return &metaHold{p: p, lock: p.meta, owner: true}
}

func (h *metaHold) release() {
	if h.owner {
		h.p.meta = nil
		h.lock.Unlock()
	}
}

func (p *Parser) addView(h *metaHold, t *schema.Table, temporary bool) {
	var err error
	if temporary {
		err = p.session.AddLocalTempTable(t)
	} else {
		err = h.lock.AddObject(t)
	}
	if err != nil {
		p.failErr(err)
	}
}

func (p *Parser) removeView(h *metaHold, t *schema.Table) {
	if t.Temporary {
		p.session.RemoveLocalTempTable(t)
		return
	}
	if err := h.lock.RemoveObject(t); err != nil && err != schema.ErrNotFound {
		u.Warnf("could not remove %s: %v", t.Name, err)
	}
}

// noteTableRef records a reference to a table expression placeholder.
func (p *Parser) noteTableRef(t *schema.Table) {
	if _, ok := p.shadows[t]; ok {
		p.shadows[t] = true
	}
}

// dropTemporaryViews unregisters the views created for WITH, latest
// first.  On error the views of a view body are dropped as well.
func (p *Parser) dropTemporaryViews(onError bool) {
	if len(p.cteViews) == 0 {
		return
	}
	h := p.lockMeta()
	defer h.release()
	for i := len(p.cteViews) - 1; i >= 0; i-- {
		t := p.cteViews[i]
		if !t.Temporary && !onError {
			continue
		}
		p.removeView(h, t)
		u.Debugf("cte %s dropped", t.Name)
	}
	p.cteViews = nil
}
