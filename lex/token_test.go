package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/araddon/qlfront/sqlerr"
)

func TestKeywordTable(t *testing.T) {
	tok, ok := KeywordType("select")
	assert.True(t, ok)
	assert.Equal(t, TokenSelect, tok)
	assert.Equal(t, "SELECT", tok.String())
	assert.True(t, tok.IsKeyword())

	_, ok = KeywordType("INSERT")
	assert.False(t, ok)

	assert.True(t, IsKeyword("current_timestamp"))
	assert.True(t, IsKeyword("Rownum"))
	assert.False(t, IsKeyword("TABLE"))
	assert.Equal(t, "<>", TokenNE.String())
	assert.True(t, TokenColonEq.IsOperator())
}

func TestSimpleIdentifier(t *testing.T) {
	assert.True(t, IsSimpleIdentifier("ABC_1"))
	assert.True(t, IsSimpleIdentifier("_X"))
	assert.False(t, IsSimpleIdentifier("1A"))
	assert.False(t, IsSimpleIdentifier("abc"))
	assert.False(t, IsSimpleIdentifier("FROM"))
	assert.False(t, IsSimpleIdentifier(""))
	assert.Equal(t, `"a""b"`, QuoteIdentifier(`a"b`))
	assert.Equal(t, `""`, QuoteIdentifier(""))
	assert.Equal(t, "ABC", QuoteIdentifierIfNeeded("ABC"))
	assert.Equal(t, `"ORDER"`, QuoteIdentifierIfNeeded("ORDER"))
}

func TestModes(t *testing.T) {
	m, err := ModeByName("mysql")
	assert.Equal(t, nil, err)
	assert.True(t, m.Is(ModeMySQL))
	assert.True(t, m.OnDuplicateKeyUpdate)
	assert.True(t, m.IndexDefinitionInCreateTable)

	pg, _ := ModeByName("POSTGRESQL")
	assert.False(t, pg.TypeAllowed("tinyint"))
	assert.True(t, pg.TypeAllowed("INT"))
	assert.True(t, pg.SerialColumnIsNotPK)
	assert.True(t, RegularMode.TypeAllowed("TINYINT"))
	assert.False(t, RegularMode.ProhibitEmptyInPredicate)

	_, err = ModeByName("nope")
	assert.True(t, sqlerr.Is(err, sqlerr.UnknownMode))
	assert.Equal(t, 9, len(ModeNames()))
}
