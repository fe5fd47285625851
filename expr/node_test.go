package expr

import (
	"flag"
	"os"
	"testing"

	u "github.com/araddon/gou"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

var VerboseTests *bool = flag.Bool("vv", false, "Verbose Logging?")

func TestMain(m *testing.M) {
	flag.Parse()
	if *VerboseTests {
		u.SetupLogging("debug")
		u.SetColorOutput()
	}
	os.Exit(m.Run())
}

func intNode(i int32) *ValueNode { return NewValueNode(value.NewIntValue(i)) }

type fakeQuery string

func (m fakeQuery) String() string   { return string(m) }
func (m fakeQuery) ColumnCount() int { return 1 }

func TestNodeStrings(t *testing.T) {
	col := NewColumnNode("", "T", "x")
	tests := []struct {
		n    Node
		want string
	}{
		{intNode(1), "1"},
		{NewNullNode(), "NULL"},
		{&ParamNode{Index: 0}, "?1"},
		{col, `T."x"`},
		{&ColumnNode{Schema: "PUBLIC", Table: "T", Column: "ID"}, "PUBLIC.T.ID"},
		{&WildcardNode{}, "*"},
		{&WildcardNode{Table: "T"}, "T.*"},
		{NewBinary(OpPlus, intNode(1), intNode(2)), "(1 + 2)"},
		{NewBinary(OpNegate, col, nil), `(- T."x")`},
		{NewComparison(CompareIsNull, col, nil), `(T."x" IS NULL)`},
		{NewComparison(CompareNE, intNode(1), intNode(2)), "(1 <> 2)"},
		{NewComparison(CompareSpatialIntersects, intNode(1), intNode(2)), "INTERSECTS(1, 2)"},
		{NewAnd(NewBoolNode(true), NewBoolNode(false)), "(TRUE AND FALSE)"},
		{&NotNode{Arg: NewBoolNode(true)}, "(NOT TRUE)"},
		{&InNode{Left: intNode(1), List: []Node{intNode(2), intNode(3)}}, "(1 IN(2, 3))"},
		{&InQueryNode{Left: intNode(1), Query: fakeQuery("SELECT 1"), All: true, Op: CompareGT}, "(1 > ALL(SELECT 1))"},
		{&InQueryNode{Left: intNode(1), Query: fakeQuery("SELECT 1")}, "(1 IN(SELECT 1))"},
		{&ExistsNode{Query: fakeQuery("SELECT 1")}, "EXISTS(SELECT 1)"},
		{&LikeNode{Left: col, Pattern: NewValueNode(value.NewStringValue("a%")), Escape: NewValueNode(value.NewStringValue("!"))},
			`(T."x" LIKE 'a%' ESCAPE '!')`},
		{&ListNode{Items: []Node{intNode(1)}}, "(1,)"},
		{&ListNode{Items: []Node{intNode(1), intNode(2)}}, "(1, 2)"},
		{&CaseNode{Whens: []Node{NewBoolNode(true)}, Thens: []Node{intNode(1)}, Else: intNode(2)}, "CASE WHEN TRUE THEN 1 ELSE 2 END"},
		{&AggregateNode{Type: AggCountAll}, "COUNT(*)"},
		{&AggregateNode{Type: AggCount, Arg: col, Distinct: true, Filter: NewBoolNode(true)}, `COUNT(DISTINCT T."x") FILTER (WHERE TRUE)`},
		{&SequenceNode{Schema: "PUBLIC", Name: "SEQ"}, "(NEXT VALUE FOR PUBLIC.SEQ)"},
		{&VariableNode{Name: "V"}, "@V"},
		{&AliasNode{Expr: intNode(1), Alias: "ORDER"}, `1 AS "ORDER"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.n.String())
	}
}

func TestCastRendering(t *testing.T) {
	dt, ok := value.TypeByName("INT")
	assert.True(t, ok)
	c := NewCast(NewValueNode(value.NewStringValue("12")), value.NewTypeInfo(dt))
	assert.Equal(t, "CAST('12' AS INTEGER)", c.String())
	assert.Equal(t, value.IntType, TypeOf(c))

	folded, err := Fold(c)
	assert.Equal(t, nil, err)
	assert.Equal(t, intNode(12), folded)
}

func TestFuncLookup(t *testing.T) {
	f, ok := FuncLookup("lcase")
	assert.True(t, ok)
	assert.Equal(t, "LOWER", f.Name)
	assert.Equal(t, nil, f.CheckArgs(1))
	assert.True(t, sqlerr.Is(f.CheckArgs(2), sqlerr.InvalidParameterCount))

	f, _ = FuncLookup("SUBSTRING")
	assert.Equal(t, FuncKindSubstring, f.Kind)

	f, _ = FuncLookup("ROUND")
	assert.Equal(t, nil, f.CheckArgs(2))
	assert.NotEqual(t, nil, f.CheckArgs(3))

	r, _ := FuncLookup("RAND")
	assert.False(t, r.Deterministic)

	_, ok = FuncLookup("NO_SUCH_FUNCTION")
	assert.False(t, ok)

	at, ok := AggregateLookup("string_agg")
	assert.True(t, ok)
	assert.Equal(t, AggGroupConcat, at)
	_, ok = AggregateLookup("LOWER")
	assert.False(t, ok)
}

func TestWalkAndDeterminism(t *testing.T) {
	rand, _ := FuncLookup("RAND")
	n := NewAnd(
		NewComparison(CompareEqual, NewColumnNode("", "", "A"), &ParamNode{Index: 0}),
		NewComparison(CompareLT, NewColumnNode("", "T", "B"), NewFuncNode(rand)),
	)
	cols := Columns(n)
	assert.Equal(t, 2, len(cols))
	assert.Equal(t, "A", cols[0].Column)
	assert.Equal(t, "B", cols[1].Column)
	assert.Equal(t, 1, len(Params(n)))
	assert.False(t, IsDeterministic(n))
	assert.True(t, IsDeterministic(cols[0]))

	visited := 0
	Walk(n, func(Node) VisitStatus {
		visited++
		return VisitFinal
	})
	assert.Equal(t, 1, visited)

	agg := &AggregateNode{Type: AggSum, Arg: NewColumnNode("", "", "A")}
	assert.True(t, HasAggregate(NewBinary(OpPlus, agg, intNode(1))))
	assert.False(t, HasAggregate(n))
}

func TestFold(t *testing.T) {
	n, err := Fold(NewBinary(OpMultiply, NewBinary(OpPlus, intNode(1), intNode(2)), intNode(4)))
	assert.Equal(t, nil, err)
	assert.Equal(t, intNode(12), n)

	n, err = Fold(NewBinary(OpPlus, intNode(1), NewValueNode(value.NewLongValue(2))))
	assert.Equal(t, nil, err)
	assert.Equal(t, NewValueNode(value.NewLongValue(3)), n)

	n, err = Fold(NewBinary(OpDivide, intNode(7), intNode(2)))
	assert.Equal(t, nil, err)
	assert.Equal(t, intNode(3), n)

	// left for runtime
	n, _ = Fold(NewBinary(OpDivide, intNode(7), intNode(0)))
	assert.Equal(t, "(7 / 0)", n.String())

	_, err = Fold(NewBinary(OpPlus, intNode(2147483647), intNode(1)))
	assert.True(t, sqlerr.Is(err, sqlerr.NumericValueOutOfRange))

	n, _ = Fold(NewBinary(OpPlus, NewValueNode(value.NewDecimalValue(decimal.RequireFromString("1.5"))), intNode(1)))
	assert.Equal(t, "2.5", n.(*ValueNode).Value.ToString())

	n, _ = Fold(NewComparison(CompareGE, intNode(3), intNode(2)))
	assert.Equal(t, NewBoolNode(true), n)
	n, _ = Fold(NewComparison(CompareEqual, intNode(3), NewNullNode()))
	assert.Equal(t, NewNullNode(), n)
	n, _ = Fold(NewComparison(CompareEqualNullSafe, NewNullNode(), NewNullNode()))
	assert.Equal(t, NewBoolNode(true), n)

	n, _ = Fold(NewAnd(NewColumnNode("", "", "A"), NewBoolNode(false)))
	assert.Equal(t, NewBoolNode(false), n)
	n, _ = Fold(NewOr(NewColumnNode("", "", "A"), NewBoolNode(false)))
	assert.Equal(t, "(A OR FALSE)", n.String())

	n, _ = Fold(&NotNode{Arg: NewComparison(CompareIsNull, intNode(1), nil)})
	assert.Equal(t, NewBoolNode(true), n)

	n, _ = Fold(NewBinary(OpNegate, intNode(5), nil))
	assert.Equal(t, intNode(-5), n)
	n, _ = Fold(NewBinary(OpConcat, NewValueNode(value.NewStringValue("a")), NewValueNode(value.NewStringValue("b"))))
	assert.Equal(t, "'ab'", n.String())
}
