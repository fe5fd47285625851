package sqlerr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSyntaxMessage(t *testing.T) {
	e := Syntax("SELECT * FORM T", 9, nil)
	assert.Equal(t, KindSyntax, e.Kind)
	assert.Equal(t, `Syntax error in SQL statement "SELECT * [*]FORM T"`, e.Error())

	e = Syntax("SELECT * FORM T", 9, []string{"FROM", "WHERE"})
	assert.Equal(t, SyntaxErrorExpected, e.Code)
	assert.Contains(t, e.Error(), `expected "FROM, WHERE"`)
}

func TestNewResolution(t *testing.T) {
	e := New(TableOrViewNotFound, "T1").At("SELECT * FROM T1", 14)
	assert.Equal(t, KindResolution, e.Kind)
	assert.Contains(t, e.Error(), `Table "T1" not found`)
	assert.Contains(t, e.Error(), "FROM [*]T1")
	assert.Contains(t, e.Error(), "[42102]")

	// At never overrides an earlier position
	e.At("other", 2)
	assert.Equal(t, 14, e.Pos)
	assert.Equal(t, "SELECT * FROM T1", e.SQL)
}

func TestKindOfWrapped(t *testing.T) {
	var err error = Unterminated("SELECT 'abc", 7, "string")
	wrapped := errors.Wrap(err, "parse")
	assert.Equal(t, KindUnterminated, KindOf(wrapped))
	assert.True(t, Is(wrapped, UnterminatedConstruct))
	assert.Equal(t, KindUnknown, KindOf(errors.New("x")))
	assert.Equal(t, Code(0), CodeOf(nil))
}

func TestAddMarker(t *testing.T) {
	assert.Equal(t, "ab[*]c", AddMarker("abc", 2))
	assert.Equal(t, "abc[*]", AddMarker("abc", 10))
	assert.Equal(t, "abc", AddMarker("abc", -1))
}
