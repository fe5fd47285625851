package rel

import (
	"strconv"
	"strings"

	"github.com/araddon/qlfront/expr"
	"github.com/araddon/qlfront/lex"
	"github.com/araddon/qlfront/schema"
	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

// dateParts are the unit names DATEADD and DATEDIFF accept as bare words.
var dateParts = map[string]bool{
	"YEAR": true, "YYYY": true, "YY": true, "SQL_TSI_YEAR": true,
	"QUARTER": true, "QQ": true, "Q": true, "SQL_TSI_QUARTER": true,
	"MONTH": true, "MM": true, "M": true, "SQL_TSI_MONTH": true,
	"WEEK": true, "WW": true, "WK": true, "ISO_WEEK": true, "SQL_TSI_WEEK": true,
	"DAY": true, "DD": true, "D": true, "SQL_TSI_DAY": true,
	"DAY_OF_YEAR": true, "DAYOFYEAR": true, "DY": true,
	"DAY_OF_WEEK": true, "DAYOFWEEK": true, "DW": true, "ISO_DAY_OF_WEEK": true,
	"HOUR": true, "HH": true, "SQL_TSI_HOUR": true,
	"MINUTE": true, "MI": true, "N": true, "SQL_TSI_MINUTE": true,
	"SECOND": true, "SS": true, "S": true, "SQL_TSI_SECOND": true,
	"MILLISECOND": true, "MS": true, "MICROSECOND": true, "MCS": true,
	"NANOSECOND": true, "NS": true, "EPOCH": true,
	"TIMEZONE_HOUR": true, "TIMEZONE_MINUTE": true,
}

// readFunction reads a call, the opening parenthesis has been consumed.
// A schema qualified name is always a function alias.
func (p *Parser) readFunction(schemaName, name string) expr.Node {
	if schemaName != "" {
		return p.readJavaFunction(schemaName, name, true)
	}
	if p.settings.AllowBuiltinAliasOverride {
		if f := p.readJavaFunction("", name, false); f != nil {
			return f
		}
	}
	if agg, ok := expr.AggregateLookup(name); ok {
		return p.readAggregate(agg, p.upper(name))
	}
	info, ok := expr.FuncLookup(name)
	if !ok {
		if ua, ok := p.cat.FindAggregate(name); ok {
			return p.readUserAggregate(ua)
		}
		return p.readJavaFunction("", name, true)
	}
	fn := expr.NewFuncNode(info)
	switch info.Kind {
	case expr.FuncKindCast:
		fn.Args = []expr.Node{p.readExpression()}
		p.read("AS")
		t := p.parseColumnWithType("", false).Type
		fn.Type = &t
		p.readTok(lex.TokenRightParenthesis)
	case expr.FuncKindConvert:
		var t value.TypeInfo
		if p.mode.SwapConvertFunctionParameters {
			t = p.parseColumnWithType("", false).Type
			p.readTok(lex.TokenComma)
			fn.Args = []expr.Node{p.readExpression()}
		} else {
			fn.Args = []expr.Node{p.readExpression()}
			p.readTok(lex.TokenComma)
			t = p.parseColumnWithType("", false).Type
		}
		fn.Type = &t
		p.readTok(lex.TokenRightParenthesis)
	case expr.FuncKindExtract:
		unit := strings.ToUpper(p.readColumnIdentifier())
		p.readTok(lex.TokenFrom)
		fn.Args = []expr.Node{expr.NewValueNode(value.NewStringValue(unit)), p.readExpression()}
		p.readTok(lex.TokenRightParenthesis)
	case expr.FuncKindDateAdd, expr.FuncKindDateDiff:
		var unit expr.Node
		if p.isIdentifier() && !p.s.Quoted() && dateParts[strings.ToUpper(p.s.Token())] {
			unit = expr.NewValueNode(value.NewStringValue(strings.ToUpper(p.s.Token())))
			p.next()
		} else {
			unit = p.readExpression()
		}
		p.readTok(lex.TokenComma)
		a := p.readExpression()
		p.readTok(lex.TokenComma)
		b := p.readExpression()
		p.readTok(lex.TokenRightParenthesis)
		fn.Args = []expr.Node{unit, a, b}
	case expr.FuncKindSubstring:
		fn.Args = p.readSubstringArgs()
	case expr.FuncKindPosition:
		// the first operand must not swallow IN
		search := p.readConcat()
		if !p.readIfTok(lex.TokenComma) {
			p.read("IN")
		}
		fn.Args = []expr.Node{search, p.readExpression()}
		p.readTok(lex.TokenRightParenthesis)
	case expr.FuncKindTrim:
		fn = p.readTrim(fn)
	case expr.FuncKindTable, expr.FuncKindTableDistinct:
		return p.readTableFunction(info.Kind == expr.FuncKindTableDistinct)
	case expr.FuncKindRowNumber:
		p.readTok(lex.TokenRightParenthesis)
		p.read("OVER")
		p.readTok(lex.TokenLeftParenthesis)
		p.readTok(lex.TokenRightParenthesis)
		return p.rownum()
	default:
		fn.Args = p.readArgs()
		if err := info.CheckArgs(len(fn.Args)); err != nil {
			p.failErr(err)
		}
	}
	if !fn.Info.Deterministic {
		p.setRecompile()
	}
	return fn
}

// readArgs reads a comma separated argument list and the closing ).
func (p *Parser) readArgs() []expr.Node {
	if p.readIfTok(lex.TokenRightParenthesis) {
		return nil
	}
	var args []expr.Node
	for {
		args = append(args, p.readExpression())
		if !p.readIfMore(true) {
			return args
		}
	}
}

// readSubstringArgs reads SUBSTRING(s FROM a [FOR b]), SUBSTRING(s FOR b)
// or SUBSTRING(s, a [, b]).
func (p *Parser) readSubstringArgs() []expr.Node {
	args := []expr.Node{p.readExpression()}
	switch {
	case p.readIfTok(lex.TokenFrom):
		args = append(args, p.readExpression())
		if p.readIfTok(lex.TokenFor) {
			args = append(args, p.readExpression())
		}
	case p.readIfTok(lex.TokenFor):
		args = append(args, expr.NewValueNode(value.NewIntValue(0)), p.readExpression())
	default:
		p.readTok(lex.TokenComma)
		args = append(args, p.readExpression())
		if p.readIfTok(lex.TokenComma) {
			args = append(args, p.readExpression())
		}
	}
	p.readTok(lex.TokenRightParenthesis)
	return args
}

// readTrim reads TRIM([LEADING|TRAILING|BOTH] [chars] FROM s), TRIM(chars
// FROM s) and TRIM(s, chars).  LEADING and TRAILING become LTRIM and RTRIM.
func (p *Parser) readTrim(fn *expr.FuncNode) *expr.FuncNode {
	var chars expr.Node
	side := ""
	switch {
	case p.readIf("LEADING"):
		side = "LTRIM"
	case p.readIf("TRAILING"):
		side = "RTRIM"
	case p.readIf("BOTH"):
		side = "TRIM"
	}
	if side != "" {
		info, _ := expr.FuncLookup(side)
		fn = expr.NewFuncNode(info)
		if !p.readIfTok(lex.TokenFrom) {
			chars = p.readExpression()
			p.readTok(lex.TokenFrom)
		}
	}
	s := p.readExpression()
	if p.readIfTok(lex.TokenComma) {
		chars = p.readExpression()
	} else if p.readIfTok(lex.TokenFrom) {
		chars = s
		s = p.readExpression()
	}
	fn.Args = []expr.Node{s}
	if chars != nil {
		fn.Args = append(fn.Args, chars)
	}
	p.readTok(lex.TokenRightParenthesis)
	return fn
}

// readTableFunction reads the columns of TABLE(name type = values, ..).
func (p *Parser) readTableFunction(distinct bool) expr.Node {
	tf := &expr.TableFuncNode{Distinct: distinct}
	for {
		name := p.readAliasIdentifier()
		col := p.parseColumnWithType(name, false)
		p.readTok(lex.TokenEqual)
		tf.Columns = append(tf.Columns, expr.TableFuncColumn{Name: name, Type: col.Type, Values: p.readExpression()})
		if !p.readIfMore(true) {
			return tf
		}
	}
}

// readFunctionWithoutParameters is a built-in written without (), such as
// CURRENT_TIMESTAMP.
func (p *Parser) readFunctionWithoutParameters(name string) expr.Node {
	if p.settings.AllowBuiltinAliasOverride {
		if fa, ok := p.session.FindFunctionAlias(p.session.CurrentSchema(), name); ok {
			return p.userFunction(fa, nil)
		}
	}
	info, ok := expr.FuncLookup(name)
	if !ok {
		p.fail(sqlerr.New(sqlerr.FunctionNotFound, name))
	}
	if !info.Deterministic {
		p.setRecompile()
	}
	return expr.NewFuncNode(info)
}

// readJavaFunction calls a function alias; with @required false a missing
// alias returns nil and consumes nothing.
func (p *Parser) readJavaFunction(schemaName, name string, required bool) expr.Node {
	var (
		fa *schema.FunctionAlias
		ok bool
	)
	if schemaName != "" {
		s := p.getSchema(schemaName)
		fa, ok = p.cat.FindFunctionAlias(s.Name, name)
	} else {
		fa, ok = p.session.FindFunctionAlias(p.session.CurrentSchema(), name)
	}
	if !ok {
		if required {
			p.fail(sqlerr.New(sqlerr.FunctionNotFound, name))
		}
		return nil
	}
	return p.userFunction(fa, p.readArgs())
}

func (p *Parser) userFunction(fa *schema.FunctionAlias, args []expr.Node) expr.Node {
	if !fa.Accepts(len(args)) {
		p.fail(sqlerr.New(sqlerr.MethodNotFound, fa.Name+"("+strconv.Itoa(len(args))+")"))
	}
	if !fa.Deterministic {
		p.setRecompile()
	}
	return &expr.UserFuncNode{Schema: fa.Schema, Name: fa.Name, Args: args, Deterministic: fa.Deterministic}
}

// readAggregate reads the arguments of a built-in aggregate, the query it
// belongs to becomes a group query.
func (p *Parser) readAggregate(agg expr.AggregateType, name string) expr.Node {
	if p.currentSelect == nil {
		p.fail(sqlerr.New(sqlerr.InvalidUseOfAggregate, name))
	}
	p.currentSelect.IsGroupQuery = true
	n := &expr.AggregateNode{Type: agg}
	if name == "STRING_AGG" {
		n.Name = name
	}
	switch {
	case agg == expr.AggCount:
		if p.readIfTok(lex.TokenStar) {
			n.Type = expr.AggCountAll
			break
		}
		n.Distinct = p.readIfTok(lex.TokenDistinct)
		n.Arg = p.readExpression()
		if _, ok := n.Arg.(*expr.WildcardNode); ok && !n.Distinct {
			n.Type = expr.AggCountAll
			n.Arg = nil
		}
	case name == "STRING_AGG":
		n.Distinct = p.readIfTok(lex.TokenDistinct)
		n.Arg = p.readExpression()
		p.readTok(lex.TokenComma)
		n.Separator = p.readExpression()
		n.OrderBy = p.readAggregateOrder()
	case agg == expr.AggGroupConcat:
		n.Distinct = p.readIfTok(lex.TokenDistinct)
		n.Arg = p.readExpression()
		n.OrderBy = p.readAggregateOrder()
		if p.readIf("SEPARATOR") {
			n.Separator = p.readExpression()
		}
	case agg == expr.AggArrayAgg:
		n.Distinct = p.readIfTok(lex.TokenDistinct)
		n.Arg = p.readExpression()
		n.OrderBy = p.readAggregateOrder()
	default:
		n.Distinct = p.readIfTok(lex.TokenDistinct)
		n.Arg = p.readExpression()
	}
	p.readTok(lex.TokenRightParenthesis)
	n.Filter = p.readFilterCondition()
	return n
}

func (p *Parser) readAggregateOrder() []*expr.OrderNode {
	if !p.readIfTok(lex.TokenOrder) {
		return nil
	}
	p.read("BY")
	return p.parseSimpleOrderList()
}

func (p *Parser) readUserAggregate(ua *schema.UserAggregate) expr.Node {
	if p.currentSelect == nil {
		p.fail(sqlerr.New(sqlerr.InvalidUseOfAggregate, ua.Name))
	}
	p.currentSelect.IsGroupQuery = true
	n := &expr.UserAggregateNode{Name: ua.Name}
	n.Distinct = p.readIfTok(lex.TokenDistinct)
	n.Args = p.readArgs()
	n.Filter = p.readFilterCondition()
	return n
}

// readFilterCondition reads FILTER (WHERE cond) after an aggregate, FILTER
// not followed by ( is left for the caller (an alias).
func (p *Parser) readFilterCondition() expr.Node {
	if !p.isWord("FILTER") {
		return nil
	}
	mark := p.mark()
	p.next()
	if !p.readIfTok(lex.TokenLeftParenthesis) {
		p.resetTo(mark)
		return nil
	}
	p.readTok(lex.TokenWhere)
	cond := p.readExpression()
	p.readTok(lex.TokenRightParenthesis)
	return cond
}

func (p *Parser) parseSimpleOrderList() []*expr.OrderNode {
	var list []*expr.OrderNode
	for {
		o := &expr.OrderNode{Expr: p.readExpression()}
		p.parseSortType(o)
		list = append(list, o)
		if !p.readIfTok(lex.TokenComma) {
			return list
		}
	}
}

// parseSortType reads [ASC|DESC] [NULLS FIRST|LAST].
func (p *Parser) parseSortType(o *expr.OrderNode) {
	if p.readIf("DESC") {
		o.Desc = true
	} else {
		p.readIf("ASC")
	}
	if p.readIf("NULLS") {
		if p.readIf("FIRST") {
			o.NullsFirst = true
		} else {
			p.read("LAST")
			o.NullsLast = true
		}
	}
}

// readCase reads a CASE expression after the CASE keyword.  A CASE without
// any WHEN is its ELSE value, or NULL.
func (p *Parser) readCase() expr.Node {
	if e, ok := p.readCaseShortcut(); ok {
		return e
	}
	n := &expr.CaseNode{}
	if !p.isWord("WHEN") {
		n.Operand = p.readExpression()
		if e, ok := p.readCaseShortcut(); ok {
			return e
		}
	}
	p.read("WHEN")
	for {
		n.Whens = append(n.Whens, p.readExpression())
		p.read("THEN")
		n.Thens = append(n.Thens, p.readExpression())
		if !p.readIf("WHEN") {
			break
		}
	}
	if p.readIf("ELSE") {
		n.Else = p.readExpression()
	}
	p.read("END")
	p.readIf("CASE")
	return n
}

// readCaseShortcut handles CASE END and CASE ELSE x END.
func (p *Parser) readCaseShortcut() (expr.Node, bool) {
	switch {
	case p.readIf("END"):
		p.readIf("CASE")
		return expr.NewNullNode(), true
	case p.readIf("ELSE"):
		e := p.readExpression()
		p.read("END")
		p.readIf("CASE")
		return e, true
	}
	return nil, false
}

// parseColumnWithType reads a data type (or domain name) and returns a
// column of that type named @columnName.  @forTable keeps the domain name
// on the column.
func (p *Parser) parseColumnWithType(columnName string, forTable bool) *schema.Column {
	if !p.isIdentifier() {
		p.failExpected("data type")
	}
	original := p.s.Token()
	quoted := p.s.Quoted()
	p.next()
	if d, ok := p.cat.FindDomain(original); ok {
		col := *d.Column
		col.Name = columnName
		if forTable {
			col.Domain = d.Name
		}
		return &col
	}
	name := strings.ToUpper(original)
	if quoted {
		name = original
	}
	switch name {
	case "LONG":
		if p.readIf("RAW") {
			name = "LONG RAW"
		} else if p.readIf("VARCHAR") {
			name = "LONG VARCHAR"
		}
	case "DOUBLE":
		if p.readIf("PRECISION") {
			name = "DOUBLE PRECISION"
		}
	case "CHARACTER":
		if p.readIf("VARYING") {
			name = "CHARACTER VARYING"
		}
	case "BINARY":
		if p.readIf("VARYING") {
			name = "BINARY VARYING"
		}
	}
	dt, ok := value.TypeByName(name)
	if !ok || !p.mode.TypeAllowed(name) {
		p.fail(sqlerr.New(sqlerr.UnknownDataType, original))
	}
	if p.settings.IgnoreCase && dt.Type == value.StringType && name != "VARCHAR_CASESENSITIVE" {
		name = "VARCHAR_IGNORECASE"
		dt, _ = value.TypeByName(name)
	}
	info := value.NewTypeInfo(dt)
	info.Name = name

	switch {
	case dt.Type == value.TimeType || dt.Type == value.TimestampType:
		info = p.readTimeType(info, name)
	case name == "FLOAT":
		if p.readIfTok(lex.TokenLeftParenthesis) {
			prec := p.readNonNegativeInt()
			if prec > 53 {
				p.fail(sqlerr.New(sqlerr.InvalidValueScalePrecision, strconv.Itoa(prec), "precision"))
			}
			p.readTok(lex.TokenRightParenthesis)
			if prec <= 24 {
				rt, _ := value.TypeByName("REAL")
				info = value.NewTypeInfo(rt)
			}
		}
	case dt.Type == value.EnumType:
		info.Enumerators = p.readEnumerators()
	case dt.SupportsPrecision:
		if p.readIfTok(lex.TokenLeftParenthesis) {
			p.readPrecision(dt, &info)
		}
	default:
		// INT(11), the display width is ignored
		if p.readIfTok(lex.TokenLeftParenthesis) {
			p.readNonNegativeInt()
			p.readTok(lex.TokenRightParenthesis)
		}
	}
	if (dt.Type == value.StringType || dt.Type == value.StringFixedType) && p.isTok(lex.TokenFor) {
		mark := p.mark()
		p.next()
		if p.readIf("BIT") {
			p.read("DATA")
			bin, _ := value.TypeByName("BINARY")
			prec := info.Precision
			info = value.NewTypeInfo(bin)
			info.Precision = prec
		} else {
			p.resetTo(mark)
		}
	}
	if p.readIf("UNSIGNED") {
		info.Unsigned = true
	}
	if dt.SupportsPrecision && dt.SupportsScale && int64(info.Scale) > info.Precision {
		p.fail(sqlerr.New(sqlerr.InvalidValueScalePrecision, strconv.Itoa(info.Scale), strconv.FormatInt(info.Precision, 10)))
	}
	return schema.NewColumn(columnName, info)
}

// readTimeType reads the fractional seconds scale and the time zone
// suffix of TIME and TIMESTAMP types.
func (p *Parser) readTimeType(info value.TypeInfo, name string) value.TypeInfo {
	if name == "SMALLDATETIME" {
		info.Scale = 0
	} else if p.readIfTok(lex.TokenLeftParenthesis) {
		info.Scale = p.readNonNegativeInt()
		if info.Scale > value.MaxTimeScale {
			p.fail(sqlerr.New(sqlerr.InvalidValueScalePrecision, strconv.Itoa(info.Scale), "scale"))
		}
		p.readTok(lex.TokenRightParenthesis)
	}
	switch name {
	case "TIME":
		if p.readIf("WITHOUT") {
			p.read("TIME")
			p.read("ZONE")
		}
	case "TIMESTAMP":
		if p.readIfTok(lex.TokenWith) {
			p.read("TIME")
			p.read("ZONE")
			tz, _ := value.TypeByName("TIMESTAMP WITH TIME ZONE")
			scale := info.Scale
			info = value.NewTypeInfo(tz)
			info.Scale = scale
		} else if p.readIf("WITHOUT") {
			p.read("TIME")
			p.read("ZONE")
		}
	}
	// precision is the display size: hh:mm:ss[.fff]
	display := 8
	switch info.Type {
	case value.TimestampType:
		display = 19
	case value.TimestampTzType:
		display = 25
	}
	if info.Scale > 0 {
		display += info.Scale + 1
	}
	info.Precision = int64(display)
	info.DisplaySize = display
	return info
}

// readPrecision reads (MAX) or (n [K|M|G] [CHAR|BYTE] [, scale]) after the
// opening parenthesis.
func (p *Parser) readPrecision(dt *value.DataType, info *value.TypeInfo) {
	if p.readIf("MAX") {
		info.Precision = dt.MaxPrecision
		p.readTok(lex.TokenRightParenthesis)
		return
	}
	prec := p.readLong()
	if prec < 0 {
		p.fail(sqlerr.New(sqlerr.InvalidValue, strconv.FormatInt(prec, 10), "precision"))
	}
	switch {
	case p.readIf("K"):
		prec *= 1 << 10
	case p.readIf("M"):
		prec *= 1 << 20
	case p.readIf("G"):
		prec *= 1 << 30
	}
	if !p.readIf("CHAR") {
		p.readIf("BYTE")
	}
	info.Precision = prec
	if dt.SupportsScale {
		info.Scale = 0
		if p.readIfTok(lex.TokenComma) {
			info.Scale = p.readInt()
		}
	}
	p.readTok(lex.TokenRightParenthesis)
}

// readEnumerators reads ('a', 'b', ..) of an ENUM, the list must not be
// empty nor repeat a value.
func (p *Parser) readEnumerators() []string {
	p.readTok(lex.TokenLeftParenthesis)
	if p.isTok(lex.TokenRightParenthesis) {
		p.fail(sqlerr.New(sqlerr.InvalidValue, "()", "ENUM"))
	}
	var (
		list []string
		seen = make(map[string]bool)
	)
	for {
		e := p.readString()
		if seen[e] {
			p.fail(sqlerr.New(sqlerr.InvalidValue, e, "ENUM"))
		}
		seen[e] = true
		list = append(list, e)
		if !p.readIfMore(true) {
			return list
		}
	}
}

func (p *Parser) readNonNegativeInt() int {
	i := p.readInt()
	if i < 0 {
		p.fail(sqlerr.New(sqlerr.InvalidValue, strconv.Itoa(i), "non-negative integer"))
	}
	return i
}
