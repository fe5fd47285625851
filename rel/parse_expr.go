package rel

import (
	"strings"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

// Expression grammar, loosest binding first:
//
//	OR -> AND -> NOT / predicates -> || ~ !~ -> + - -> * / % -> unary -> term

// noParenFuncs are the built-ins that may be written without (), mapped to
// the function they call.
var noParenFuncs = map[string]string{
	"CURRENT_USER":      "USER",
	"CURRENT_TIMESTAMP": "CURRENT_TIMESTAMP",
	"LOCALTIMESTAMP":    "LOCALTIMESTAMP",
	"SYSDATE":           "CURRENT_TIMESTAMP",
	"SYSTIMESTAMP":      "CURRENT_TIMESTAMP",
	"CURRENT_DATE":      "CURRENT_DATE",
	"TODAY":             "CURRENT_DATE",
	"CURRENT_TIME":      "CURRENT_TIME",
	"LOCALTIME":         "LOCALTIME",
	"SYSTIME":           "CURRENT_TIME",
}

// upper folds @name the way keywords are compared.
func (p *Parser) upper(name string) string {
	if p.toUpper {
		return name
	}
	return strings.ToUpper(name)
}

// readExpressionOrDefault allows the DEFAULT keyword of value lists.
func (p *Parser) readExpressionOrDefault() expr.Node {
	if p.readIf("DEFAULT") {
		return &expr.DefaultNode{}
	}
	return p.readExpression()
}

func (p *Parser) readExpression() expr.Node {
	r := p.readAnd()
	for p.readIf("OR") {
		r = expr.NewOr(r, p.readAnd())
	}
	return r
}

func (p *Parser) readAnd() expr.Node {
	r := p.readCondition()
	for p.readIf("AND") {
		r = expr.NewAnd(r, p.readCondition())
	}
	return r
}

func (p *Parser) readCondition() expr.Node {
	if p.readIfTok(lex.TokenNot) {
		return &expr.NotNode{Arg: p.readCondition()}
	}
	if p.readIfTok(lex.TokenExists) {
		p.readTok(lex.TokenLeftParenthesis)
		q := p.parseSelect()
		p.readTok(lex.TokenRightParenthesis)
		return &expr.ExistsNode{Query: q}
	}
	if p.isWord("INTERSECTS") {
		mark := p.mark()
		p.next()
		if p.readIfTok(lex.TokenLeftParenthesis) {
			a := p.readConcat()
			p.readTok(lex.TokenComma)
			b := p.readConcat()
			p.readTok(lex.TokenRightParenthesis)
			return expr.NewComparison(expr.CompareSpatialIntersects, a, b)
		}
		p.resetTo(mark)
	}
	r := p.readConcat()
	for {
		// NOT NULL after an expression belongs to a column definition
		mark := p.mark()
		not := p.readIfTok(lex.TokenNot)
		if not && p.isTok(lex.TokenNull) {
			p.resetTo(mark)
			break
		}
		switch {
		case p.readIfTok(lex.TokenLike):
			r = p.readLike(r, false)
		case p.readIf("ILIKE"):
			r = p.readLike(expr.NewCast(r, ignoreCaseType()), false)
		case p.readIf("REGEXP"):
			p.setRecompile()
			r = &expr.LikeNode{Left: r, Pattern: p.readConcat(), Regexp: true}
		case p.readIfTok(lex.TokenIs):
			r = p.readIs(r)
		case p.readIf("IN"):
			r = p.readIn(r)
		case p.readIf("BETWEEN"):
			low := p.readConcat()
			p.read("AND")
			high := p.readConcat()
			r = expr.NewAnd(expr.NewComparison(expr.CompareLE, low, r), expr.NewComparison(expr.CompareGE, high, r))
		default:
			if not {
				p.failSyntax()
			}
			op, ok := expr.CompareTypeOf(p.s.Type())
			if !ok {
				return r
			}
			p.next()
			r = p.readComparison(r, op)
		}
		if not {
			r = &expr.NotNode{Arg: r}
		}
	}
	return r
}

func ignoreCaseType() value.TypeInfo {
	dt, _ := value.TypeByName("VARCHAR_IGNORECASE")
	return value.NewTypeInfo(dt)
}

func (p *Parser) readLike(left expr.Node, regexp bool) expr.Node {
	like := &expr.LikeNode{Left: left, Pattern: p.readConcat(), Regexp: regexp}
	if p.readIf("ESCAPE") {
		like.Escape = p.readConcat()
	}
	p.setRecompile()
	return like
}

// readIs reads what follows IS.
func (p *Parser) readIs(r expr.Node) expr.Node {
	if p.readIfTok(lex.TokenNot) {
		switch {
		case p.readIfTok(lex.TokenNull):
			return expr.NewComparison(expr.CompareIsNotNull, r, nil)
		case p.readIfTok(lex.TokenDistinct):
			p.readTok(lex.TokenFrom)
			return expr.NewComparison(expr.CompareEqualNullSafe, r, p.readConcat())
		}
		return expr.NewComparison(expr.CompareNotEqualNullSafe, r, p.readConcat())
	}
	switch {
	case p.readIfTok(lex.TokenNull):
		return expr.NewComparison(expr.CompareIsNull, r, nil)
	case p.readIfTok(lex.TokenDistinct):
		p.readTok(lex.TokenFrom)
		return expr.NewComparison(expr.CompareNotEqualNullSafe, r, p.readConcat())
	}
	return expr.NewComparison(expr.CompareEqualNullSafe, r, p.readConcat())
}

// readIn reads the list or query after IN.
func (p *Parser) readIn(r expr.Node) expr.Node {
	p.readTok(lex.TokenLeftParenthesis)
	if p.readIfTok(lex.TokenRightParenthesis) {
		if p.mode.ProhibitEmptyInPredicate {
			p.fail(sqlerr.New(sqlerr.FeatureNotSupported, "IN ()"))
		}
		return expr.NewBoolNode(false)
	}
	if p.isSelect() {
		q := p.parseSelect()
		p.readTok(lex.TokenRightParenthesis)
		return &expr.InQueryNode{Left: r, Query: q, Op: expr.CompareEqual}
	}
	var list []expr.Node
	for {
		list = append(list, p.readExpression())
		if !p.readIfTok(lex.TokenComma) {
			break
		}
	}
	p.readTok(lex.TokenRightParenthesis)
	if len(list) == 1 {
		switch n := list[0].(type) {
		case *expr.SubqueryNode:
			return &expr.InQueryNode{Left: r, Query: n.Query, Op: expr.CompareEqual}
		case *expr.FuncNode:
			// x IN (UNNEST(?)) is x = ANY(?)
			if n.Name == "UNNEST" && len(n.Args) == 1 {
				if param, ok := n.Args[0].(*expr.ParamNode); ok {
					return &expr.InParamNode{Left: r, Param: param}
				}
			}
		}
	}
	return &expr.InNode{Left: r, List: list}
}

// readComparison reads the right side of a comparison, the operator has
// been consumed.
func (p *Parser) readComparison(r expr.Node, op expr.CompareType) expr.Node {
	if p.readIfTok(lex.TokenAll) {
		p.readTok(lex.TokenLeftParenthesis)
		q := p.parseSelect()
		p.readTok(lex.TokenRightParenthesis)
		return &expr.InQueryNode{Left: r, Query: q, All: true, Op: op}
	}
	if p.readIf("ANY") || p.readIf("SOME") {
		p.readTok(lex.TokenLeftParenthesis)
		var n expr.Node
		if p.isTok(lex.TokenParameter) && op == expr.CompareEqual {
			n = &expr.InParamNode{Left: r, Param: p.readParameter()}
		} else {
			n = &expr.InQueryNode{Left: r, Query: p.parseSelect(), Op: op}
		}
		p.readTok(lex.TokenRightParenthesis)
		return n
	}
	right := p.readConcat()
	if p.isOuterJoinMarker() {
		p.next()
		p.next()
		p.next()
		return p.outerJoin(op, r, right)
	}
	return expr.NewComparison(op, r, right)
}

// isOuterJoinMarker is true when the current token starts the Oracle (+)
// outer join marker.
func (p *Parser) isOuterJoinMarker() bool {
	if !p.isTok(lex.TokenLeftParenthesis) {
		return false
	}
	mark := p.mark()
	p.next()
	ok := p.isTok(lex.TokenPlus)
	if ok {
		p.next()
		ok = p.isTok(lex.TokenRightParenthesis)
	}
	p.resetTo(mark)
	return ok
}

// outerJoin rewrites a.x = b.x(+) into a LEFT OUTER JOIN b ON a.x = b.x;
// the condition left in WHERE is TRUE.
func (p *Parser) outerJoin(op expr.CompareType, left, right expr.Node) expr.Node {
	cmp := expr.NewComparison(op, left, right)
	lc, lok := left.(*expr.ColumnNode)
	rc, rok := right.(*expr.ColumnNode)
	if p.currentSelect == nil || !lok || !rok {
		return cmp
	}
	sel := p.currentSelect
	leftF, _ := columnFilter(sel.From, lc)
	rightF, top := columnFilter(sel.From, rc)
	if leftF == nil || rightF == nil || leftF == rightF {
		return cmp
	}
	if top >= 0 && sel.From[top] == rightF {
		sel.From = append(sel.From[:top], sel.From[top+1:]...)
		leftF.addJoin(rightF, true, cmp)
	} else {
		rightF.addJoinCondition(cmp)
	}
	return expr.NewBoolNode(true)
}

// columnFilter finds the filter of @top (join chains included) a column
// belongs to, and the index of its chain in @top.
func columnFilter(top []*TableFilter, col *expr.ColumnNode) (*TableFilter, int) {
	for i, t := range top {
		for f := t; f != nil; f = f.Join {
			if col.Table != "" {
				if f.Name() == col.Table && (col.Schema == "" || f.Schema() == col.Schema) {
					return f, i
				}
				continue
			}
			if f.HasColumn(col.Column) {
				return f, i
			}
		}
	}
	return nil, -1
}

func (p *Parser) readConcat() expr.Node {
	r := p.readSum()
	for {
		switch {
		case p.readIfTok(lex.TokenConcat):
			r = expr.NewBinary(expr.OpConcat, r, p.readSum())
		case p.readIfTok(lex.TokenTilde):
			if p.readIfTok(lex.TokenStar) {
				r = expr.NewCast(r, ignoreCaseType())
			}
			p.setRecompile()
			r = &expr.LikeNode{Left: r, Pattern: p.readSum(), Regexp: true}
		case p.readIfTok(lex.TokenNotTilde):
			if p.readIfTok(lex.TokenStar) {
				r = expr.NewCast(r, ignoreCaseType())
			}
			p.setRecompile()
			r = &expr.NotNode{Arg: &expr.LikeNode{Left: r, Pattern: p.readSum(), Regexp: true}}
		default:
			return r
		}
	}
}

func (p *Parser) readSum() expr.Node {
	r := p.readFactor()
	for {
		switch {
		case p.readIfTok(lex.TokenPlus):
			r = expr.NewBinary(expr.OpPlus, r, p.readFactor())
		case p.readIfTok(lex.TokenMinus):
			r = expr.NewBinary(expr.OpMinus, r, p.readFactor())
		default:
			return r
		}
	}
}

func (p *Parser) readFactor() expr.Node {
	r := p.readTerm()
	for {
		switch {
		case p.readIfTok(lex.TokenStar):
			r = expr.NewBinary(expr.OpMultiply, r, p.readTerm())
		case p.readIfTok(lex.TokenDivide):
			r = expr.NewBinary(expr.OpDivide, r, p.readTerm())
		case p.readIfTok(lex.TokenModulus):
			r = expr.NewBinary(expr.OpModulus, r, p.readTerm())
		default:
			return r
		}
	}
}

func (p *Parser) readTerm() expr.Node {
	var r expr.Node
	switch p.s.Type() {
	case lex.TokenAt:
		p.next()
		v := &expr.VariableNode{Name: p.readAliasIdentifier()}
		r = v
		if p.readIfTok(lex.TokenColonEq) {
			info, _ := expr.FuncLookup("SET")
			fn := expr.NewFuncNode(info)
			fn.Args = []expr.Node{v, p.readExpression()}
			r = fn
		}
	case lex.TokenParameter:
		r = p.readParameter()
	case lex.TokenSelect, lex.TokenFrom, lex.TokenWith:
		r = &expr.SubqueryNode{Query: p.parseSelect()}
	case lex.TokenIdentity:
		r = p.readIdentifierTerm()
	case lex.TokenMinus:
		p.next()
		if p.isTok(lex.TokenValue) {
			// -2147483648 is an INT, -9223372036854775808 a BIGINT
			if v, err := value.Negate(p.s.Value()); err == nil {
				p.next()
				r = expr.NewValueNode(v)
				break
			}
		}
		r = &expr.BinaryNode{Op: expr.OpNegate, Left: p.readTerm()}
	case lex.TokenPlus:
		p.next()
		r = p.readTerm()
	case lex.TokenLeftParenthesis:
		p.next()
		if p.readIfTok(lex.TokenRightParenthesis) {
			r = &expr.ListNode{}
			break
		}
		r = p.readExpression()
		if p.readIfMore(true) {
			list := &expr.ListNode{Items: []expr.Node{r}}
			if !p.readIfTok(lex.TokenRightParenthesis) {
				for {
					list.Items = append(list.Items, p.readExpression())
					if !p.readIfMore(false) {
						break
					}
				}
			}
			r = list
		}
	case lex.TokenTrue:
		p.next()
		r = expr.NewBoolNode(true)
	case lex.TokenFalse:
		p.next()
		r = expr.NewBoolNode(false)
	case lex.TokenNull:
		p.next()
		r = expr.NewNullNode()
	case lex.TokenRownum:
		p.next()
		if p.readIfTok(lex.TokenLeftParenthesis) {
			p.readTok(lex.TokenRightParenthesis)
		}
		r = p.rownum()
	case lex.TokenValue:
		r = expr.NewValueNode(p.s.Value())
		p.next()
	default:
		p.s.Expect("expression")
		p.failSyntax()
	}
	return p.readTermSuffix(r)
}

// readTermSuffix reads array access x[i] and x::type casts.
func (p *Parser) readTermSuffix(r expr.Node) expr.Node {
	for {
		switch {
		case p.readIfTok(lex.TokenLeftBracket):
			info, _ := expr.FuncLookup("ARRAY_GET")
			fn := expr.NewFuncNode(info)
			idx := expr.NewBinary(expr.OpPlus, p.readExpression(), expr.NewValueNode(value.NewIntValue(1)))
			fn.Args = []expr.Node{r, idx}
			p.readTok(lex.TokenRightBracket)
			r = fn
		case p.readIfTok(lex.TokenColonColon):
			if p.readIf("PG_CATALOG") {
				p.readTok(lex.TokenDot)
			}
			if p.readIf("REGCLASS") {
				fa, ok := p.session.FindFunctionAlias(schema.MainSchema, "PG_GET_OID")
				if !ok {
					p.failSyntax()
				}
				r = &expr.UserFuncNode{Schema: fa.Schema, Name: fa.Name, Args: []expr.Node{r}, Deterministic: fa.Deterministic}
			} else {
				col := p.parseColumnWithType("", false)
				r = expr.NewCast(r, col.Type)
			}
		default:
			return r
		}
	}
}

// rownum is ROWNUM of the current query or statement.
func (p *Parser) rownum() expr.Node {
	if p.currentSelect == nil && p.currentPrepared == nil {
		p.fail(sqlerr.New(sqlerr.ObjectNotInQuery, "ROWNUM"))
	}
	return &expr.RownumNode{}
}

func (p *Parser) isStringValue() bool {
	return p.isTok(lex.TokenValue) && p.s.Value().Type() == value.StringType
}

// readIdentifierTerm reads a term starting with a name: column, function
// call, CASE, typed literal or a no-parens function.
func (p *Parser) readIdentifierTerm() expr.Node {
	name := p.s.Token()
	if p.s.Quoted() {
		p.next()
		switch {
		case p.isTok(lex.TokenLeftParenthesis) && !p.isOuterJoinMarker():
			p.next()
			return p.readFunction("", name)
		case p.readIfTok(lex.TokenDot):
			return p.readTermObjectDot(name)
		}
		return &expr.ColumnNode{Column: name}
	}
	p.next()
	if p.readIfTok(lex.TokenDot) {
		return p.readTermObjectDot(name)
	}
	word := p.upper(name)
	// CASE(x) is not a function call
	if word == "CASE" {
		return p.readCase()
	}
	if p.isTok(lex.TokenLeftParenthesis) && !p.isOuterJoinMarker() {
		p.next()
		return p.readFunction("", name)
	}
	if fname, ok := noParenFuncs[word]; ok {
		return p.readFunctionWithoutParameters(fname)
	}
	switch word {
	case "CURRENT":
		if p.mode.Is(lex.ModeDB2) {
			return p.readDB2SpecialRegister(name)
		}
	case "NEXT":
		if p.readIf("VALUE") {
			p.readTok(lex.TokenFor)
			schemaName, seqName := p.readIdentifierWithSchema()
			seq := p.findSequence(schemaName, seqName)
			return &expr.SequenceNode{Schema: seq.Schema, Name: seq.Name}
		}
	case "TIME":
		without := p.readIf("WITHOUT")
		if without {
			p.read("TIME")
			p.read("ZONE")
		}
		if !p.isStringValue() {
			if without {
				p.failSyntax()
			}
			return &expr.ColumnNode{Column: name}
		}
		return p.readTypedLiteral("TIME")
	case "TIMESTAMP":
		if p.readIfTok(lex.TokenWith) {
			p.read("TIME")
			p.read("ZONE")
			if !p.isStringValue() {
				p.failSyntax()
			}
			return p.readTypedLiteral("TIMESTAMP WITH TIME ZONE")
		}
		without := p.readIf("WITHOUT")
		if without {
			p.read("TIME")
			p.read("ZONE")
		}
		if !p.isStringValue() {
			if without {
				p.failSyntax()
			}
			return &expr.ColumnNode{Column: name}
		}
		return p.readTypedLiteral("TIMESTAMP")
	}
	if p.isStringValue() {
		switch word {
		case "DATE", "D":
			return p.readTypedLiteral("DATE")
		case "T":
			return p.readTypedLiteral("TIME")
		case "TS":
			return p.readTypedLiteral("TIMESTAMP")
		case "X":
			s := p.s.Value().ToString()
			b, err := value.ParseHex(s)
			if err != nil {
				p.fail(sqlerr.New(sqlerr.HexStringWrong, s))
			}
			p.next()
			return expr.NewValueNode(value.NewByteSliceValue(b))
		case "E":
			// E'PROJECT\\_DATA' is 'PROJECT\_DATA'
			s := strings.Replace(p.s.Value().ToString(), `\\`, `\`, -1)
			p.next()
			return expr.NewValueNode(value.NewStringValue(s))
		case "N":
			s := p.s.Value().ToString()
			p.next()
			return expr.NewValueNode(value.NewStringValue(s))
		}
	}
	return &expr.ColumnNode{Column: name}
}

// readTypedLiteral parses the current string token as a @typ constant.
func (p *Parser) readTypedLiteral(typ string) expr.Node {
	s := p.s.Value().ToString()
	var (
		v   value.TimeValue
		err error
	)
	switch typ {
	case "DATE":
		v, err = value.ParseDate(s)
	case "TIME":
		v, err = value.ParseTime(s)
	case "TIMESTAMP":
		v, err = value.ParseTimestamp(s, false)
	default:
		v, err = value.ParseTimestamp(s, true)
	}
	if err != nil {
		p.fail(sqlerr.New(sqlerr.InvalidDatetimeConstant, typ, s))
	}
	p.next()
	return expr.NewValueNode(v)
}

// readDB2SpecialRegister reads CURRENT TIMESTAMP, CURRENT TIME and
// CURRENT DATE, anything else leaves CURRENT a column.
func (p *Parser) readDB2SpecialRegister(name string) expr.Node {
	switch {
	case p.readIf("TIMESTAMP"):
		if p.readIfTok(lex.TokenWith) {
			p.read("TIME")
			p.read("ZONE")
			return p.readFunctionWithoutParameters("CURRENT_TIMESTAMP")
		}
		return p.readFunctionWithoutParameters("LOCALTIMESTAMP")
	case p.readIf("TIME"):
		return p.readFunctionWithoutParameters("CURRENT_TIME")
	case p.readIf("DATE"):
		return p.readFunctionWithoutParameters("CURRENT_DATE")
	}
	return &expr.ColumnNode{Column: name}
}

// readWildcardOrSequenceValue reads what may follow "name." other than a
// column: *, NEXTVAL or CURRVAL.  Nil when none of these follows.
func (p *Parser) readWildcardOrSequenceValue(schemaName, objectName string) expr.Node {
	if p.readIfTok(lex.TokenStar) {
		w := &expr.WildcardNode{Schema: schemaName, Table: objectName}
		w.Except = p.readWildcardExcept()
		return w
	}
	currval := p.isWord("CURRVAL")
	if !currval && !p.isWord("NEXTVAL") {
		return nil
	}
	seq, ok := p.session.FindSequence(p.schemaOrDefault(schemaName), objectName)
	if !ok {
		// a column named NEXTVAL
		return nil
	}
	p.next()
	if currval {
		info, _ := expr.FuncLookup("CURRVAL")
		fn := expr.NewFuncNode(info)
		fn.Args = []expr.Node{
			expr.NewValueNode(value.NewStringValue(seq.Schema)),
			expr.NewValueNode(value.NewStringValue(seq.Name)),
		}
		p.setRecompile()
		return fn
	}
	return &expr.SequenceNode{Schema: seq.Schema, Name: seq.Name}
}

// readWildcardExcept reads the EXCEPT (col, ..) list of a wildcard, EXCEPT
// followed by a query is a set operation and left alone.
func (p *Parser) readWildcardExcept() []*expr.ColumnNode {
	if !p.isTok(lex.TokenExcept) {
		return nil
	}
	mark := p.mark()
	p.next()
	if !p.isTok(lex.TokenLeftParenthesis) || p.isSelect() {
		p.resetTo(mark)
		return nil
	}
	p.next()
	var cols []*expr.ColumnNode
	for {
		c, ok := p.readExpression().(*expr.ColumnNode)
		if !ok {
			p.failExpected("column")
		}
		cols = append(cols, c)
		if !p.readIfMore(true) {
			break
		}
	}
	return cols
}

// readTermObjectDot reads the rest of a dotted name, "objectName." has
// been read.  Each qualifier is checked as soon as its role is known: a
// function schema must exist, a database name must be this database.
func (p *Parser) readTermObjectDot(objectName string) expr.Node {
	if e := p.readWildcardOrSequenceValue("", objectName); e != nil {
		return e
	}
	name := p.readColumnIdentifier()
	if p.isTok(lex.TokenLeftParenthesis) && !p.isOuterJoinMarker() {
		p.next()
		return p.readFunction(objectName, name)
	}
	if !p.readIfTok(lex.TokenDot) {
		return &expr.ColumnNode{Table: objectName, Column: name}
	}
	schemaName := objectName
	objectName = name
	if e := p.readWildcardOrSequenceValue(schemaName, objectName); e != nil {
		return e
	}
	name = p.readColumnIdentifier()
	if p.isTok(lex.TokenLeftParenthesis) && !p.isOuterJoinMarker() {
		p.checkDatabase(schemaName)
		p.next()
		return p.readFunction(objectName, name)
	}
	if !p.readIfTok(lex.TokenDot) {
		return &expr.ColumnNode{Schema: schemaName, Table: objectName, Column: name}
	}
	p.checkDatabase(schemaName)
	dbName := schemaName
	schemaName = objectName
	objectName = name
	if e := p.readWildcardOrSequenceValue(schemaName, objectName); e != nil {
		return e
	}
	name = p.readColumnIdentifier()
	return &expr.ColumnNode{Database: dbName, Schema: schemaName, Table: objectName, Column: name}
}

// checkDatabase requires @name to be the short name of this database.
func (p *Parser) checkDatabase(name string) {
	if !p.equalsToken(p.cat.ShortName(), name) {
		p.fail(sqlerr.New(sqlerr.DatabaseNotFound, name))
	}
}
