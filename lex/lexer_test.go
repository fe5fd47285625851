package lex

import (
	"flag"
	"os"
	"testing"

	u "github.com/araddon/gou"
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

type tokExpect struct {
	t      TokenType
	text   string
	quoted bool
}

func scanAll(t *testing.T, sql string, mode *Mode, toUpper bool) []tokExpect {
	s, err := NewScanner(sql, mode, toUpper)
	assert.Equal(t, nil, err)
	var toks []tokExpect
	for {
		err = s.Next()
		assert.Equal(t, nil, err, sql)
		if err != nil || s.Type() == TokenEOF {
			return toks
		}
		toks = append(toks, tokExpect{s.Type(), s.Token(), s.Quoted()})
	}
}

func TestClassifyKeepsLength(t *testing.T) {
	sql := "SELECT /* c */ a -- line\n, b // x\nFROM t"
	src, err := Classify(sql, RegularMode, true)
	assert.Equal(t, nil, err)
	assert.Equal(t, len(sql)+2, len(src.Command))
	assert.Equal(t, "SELECT         A        \n, B     \nFROM T", string(src.Command[:len(sql)]))
}

func TestUnterminated(t *testing.T) {
	tests := []struct {
		sql string
		pos int
	}{
		{"SELECT 'abc", 7},
		{"SELECT /* abc", 7},
		{`SELECT "abc`, 7},
		{"SELECT `abc", 7},
		{"SELECT $$abc", 7},
	}
	for _, tt := range tests {
		_, err := NewScanner(tt.sql, RegularMode, true)
		assert.NotEqual(t, nil, err, tt.sql)
		e, ok := sqlerr.AsError(err)
		assert.True(t, ok)
		assert.Equal(t, sqlerr.KindUnterminated, e.Kind, tt.sql)
		assert.Equal(t, tt.pos, e.Pos, tt.sql)
	}
	_, err := NewScanner("SELECT [abc", ModeMust("MSSQLServer"), true)
	assert.Equal(t, sqlerr.KindUnterminated, sqlerr.KindOf(err))
}

func ModeMust(name string) *Mode {
	m, err := ModeByName(name)
	if err != nil {
		panic(err)
	}
	return m
}

func TestScanTokens(t *testing.T) {
	toks := scanAll(t, "select a1, \"Mixed\"\"Q\" FROM t WHERE x<>1 AND y!=2 OR z>=3 || w::int := @v && q !~ r;", RegularMode, true)
	assert.Equal(t, []tokExpect{
		{TokenSelect, "SELECT", false},
		{TokenIdentity, "A1", false},
		{TokenComma, ",", false},
		{TokenIdentity, `Mixed"Q`, true},
		{TokenFrom, "FROM", false},
		{TokenIdentity, "T", false},
		{TokenWhere, "WHERE", false},
		{TokenIdentity, "X", false},
		{TokenNE, "<>", false},
		{TokenValue, "1", false},
		{TokenIdentity, "AND", false},
		{TokenIdentity, "Y", false},
		{TokenNE, "!=", false},
		{TokenValue, "2", false},
		{TokenIdentity, "OR", false},
		{TokenIdentity, "Z", false},
		{TokenGE, ">=", false},
		{TokenValue, "3", false},
		{TokenConcat, "||", false},
		{TokenIdentity, "W", false},
		{TokenColonColon, "::", false},
		{TokenIdentity, "INT", false},
		{TokenColonEq, ":=", false},
		{TokenAt, "@", false},
		{TokenIdentity, "V", false},
		{TokenSpatialIntersects, "&&", false},
		{TokenIdentity, "Q", false},
		{TokenNotTilde, "!~", false},
		{TokenIdentity, "R", false},
		{TokenSemicolon, ";", false},
	}, toks)
}

func TestKeywordsCaseInsensitiveWithoutFolding(t *testing.T) {
	toks := scanAll(t, "select Col from T", RegularMode, false)
	assert.Equal(t, TokenSelect, toks[0].t)
	assert.Equal(t, "select", toks[0].text)
	assert.Equal(t, "Col", toks[1].text)
	assert.Equal(t, TokenFrom, toks[2].t)
}

func TestQuotingEquivalence(t *testing.T) {
	mssql := ModeMust("mssqlserver")
	for _, sql := range []string{"[col]", `"col"`} {
		toks := scanAll(t, sql, mssql, true)
		assert.Equal(t, 1, len(toks), sql)
		assert.Equal(t, tokExpect{TokenIdentity, "col", true}, toks[0], sql)
	}
	// backticks fold like unquoted names, whatever the mode
	for _, mode := range []*Mode{RegularMode, ModeMust("mysql"), mssql} {
		toks := scanAll(t, "`col` `cöl`", mode, false)
		if assert.Equal(t, 2, len(toks)) {
			assert.Equal(t, tokExpect{TokenIdentity, "COL", true}, toks[0])
			assert.Equal(t, tokExpect{TokenIdentity, "CÖL", true}, toks[1])
		}
	}
	// without bracket quoting [ is an array bracket
	toks := scanAll(t, "a[1]", RegularMode, true)
	assert.Equal(t, TokenLeftBracket, toks[1].t)
	assert.Equal(t, TokenRightBracket, toks[3].t)
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		sql string
		vt  value.ValueType
		str string
	}{
		{"12", value.IntType, "12"},
		{"2147483647", value.IntType, "2147483647"},
		{"2147483648", value.LongType, "2147483648"},
		{"10L", value.LongType, "10"},
		{"9223372036854775808", value.DecimalType, "9223372036854775808"},
		{"1.5", value.DecimalType, "1.5"},
		{".5", value.DecimalType, "0.5"},
		{"1E3", value.DecimalType, "1000"},
		{"1e-2", value.DecimalType, "0.01"},
		{"0x1F", value.IntType, "31"},
		{"0XFFFFFFFFFF", value.DecimalType, "1099511627775"},
	}
	for _, tt := range tests {
		s, err := NewScanner(tt.sql, RegularMode, true)
		assert.Equal(t, nil, err)
		assert.Equal(t, nil, s.Next(), tt.sql)
		assert.Equal(t, TokenValue, s.Type(), tt.sql)
		assert.Equal(t, tt.vt, s.Value().Type(), tt.sql)
		assert.Equal(t, tt.str, s.Value().ToString(), tt.sql)
		assert.Equal(t, nil, s.Next())
		assert.Equal(t, TokenEOF, s.Type(), tt.sql)
	}
	s, _ := NewScanner("1E+", RegularMode, true)
	err := s.Next()
	assert.Equal(t, sqlerr.KindSyntax, sqlerr.KindOf(err))
}

func TestStrings(t *testing.T) {
	s, err := NewScanner("'it''s' $$ raw 'x' $$ ''", RegularMode, true)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Next())
	assert.Equal(t, value.NewStringValue("it's"), s.Value())
	assert.Equal(t, nil, s.Next())
	assert.Equal(t, value.NewStringValue(" raw 'x' "), s.Value())
	assert.Equal(t, nil, s.Next())
	assert.Equal(t, value.NewStringValue(""), s.Value())

	s, _ = NewScanner("''", ModeMust("Oracle"), true)
	assert.Equal(t, nil, s.Next())
	assert.Equal(t, value.NilType, s.Value().Type())
}

func TestLiteralsAllowed(t *testing.T) {
	s, _ := NewScanner("1 'a'", RegularMode, true)
	s.Literals = AllowLiteralsNumbers
	assert.Equal(t, nil, s.Next())
	err := s.Next()
	assert.True(t, sqlerr.Is(err, sqlerr.LiteralsAreNotAllowed))

	s, _ = NewScanner("1", RegularMode, true)
	s.Literals = AllowLiteralsNone
	assert.True(t, sqlerr.Is(s.Next(), sqlerr.LiteralsAreNotAllowed))
}

func TestParameterIndex(t *testing.T) {
	s, _ := NewScanner("?12 ? $3", RegularMode, true)
	assert.Equal(t, nil, s.Next())
	assert.Equal(t, TokenParameter, s.Type())
	idx, ok, err := s.ReadParameterIndex()
	assert.Equal(t, nil, err)
	assert.True(t, ok)
	assert.Equal(t, 12, idx)
	assert.Equal(t, nil, s.Next())
	assert.Equal(t, TokenParameter, s.Type())
	_, ok, _ = s.ReadParameterIndex()
	assert.False(t, ok)
	assert.Equal(t, nil, s.Next())
	assert.Equal(t, TokenParameter, s.Type())
	idx, ok, _ = s.ReadParameterIndex()
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestMarkReset(t *testing.T) {
	s, _ := NewScanner("a ( b )", RegularMode, true)
	assert.Equal(t, nil, s.Next())
	assert.Equal(t, nil, s.Next())
	mark := s.Mark()
	assert.Equal(t, nil, s.Next())
	assert.Equal(t, "B", s.Token())
	assert.Equal(t, nil, s.Reset(mark))
	assert.Equal(t, TokenLeftParenthesis, s.Type())
	assert.Equal(t, 2, s.TokenPos())
}

func TestDiagnostics(t *testing.T) {
	s, _ := NewScanner("a b", RegularMode, true)
	s.SetDiagnostic(true)
	assert.Equal(t, nil, s.Next())
	s.Expect("FROM")
	s.Expect("WHERE")
	assert.Equal(t, []string{"FROM", "WHERE"}, s.Expected())
	e := s.SyntaxError()
	assert.Equal(t, sqlerr.SyntaxErrorExpected, e.Code)
	assert.Equal(t, 0, e.Pos)
	assert.Equal(t, nil, s.Next())
	assert.Equal(t, 0, len(s.Expected()))

	s, _ = NewScanner("a", RegularMode, true)
	s.Expect("FROM")
	assert.Equal(t, 0, len(s.Expected()))
}

func TestPoundAndDollarNames(t *testing.T) {
	toks := scanAll(t, "#tmp a$b", ModeMust("MSSQLServer"), true)
	assert.Equal(t, "#TMP", toks[0].text)
	assert.Equal(t, "A$B", toks[1].text)

	toks = scanAll(t, "Grüße", RegularMode, true)
	assert.Equal(t, 1, len(toks))
	assert.Equal(t, TokenIdentity, toks[0].t)
}
