package lex

import (
	"math"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	u "github.com/araddon/gou"
	"github.com/shopspring/decimal"

	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

var _ = u.EMPTY

// charClass is the classification of one byte of the working copy.
type charClass uint8

const (
	charWhite        charClass = 0
	charEnd          charClass = 1
	charValue        charClass = 2
	charQuoted       charClass = 3
	charName         charClass = 4
	charSpecial1     charClass = 5
	charSpecial2     charClass = 6
	charString       charClass = 7
	charDot          charClass = 8
	charDollarQuoted charClass = 9
)

// LiteralsAllowed is the ALLOW_LITERALS database setting.
type LiteralsAllowed uint8

const (
	AllowLiteralsNone    LiteralsAllowed = 0
	AllowLiteralsNumbers LiteralsAllowed = 1
	AllowLiteralsAll     LiteralsAllowed = 2
)

// Source is the classified form of one SQL string.  Command has the same
// length as Original plus two trailing blanks, so offsets map 1:1 between
// them and lookahead of one byte never runs off the end.
type Source struct {
	Original string
	Command  []byte
	Types    []charClass
}

// Classify blanks comments, folds case of bare names (when @toUpper),
// rewrites bracket and backtick quoting to double quotes and assigns each
// byte its class.  An unterminated comment, string or quoted name fails at
// the offset where it starts.
func Classify(sql string, mode *Mode, toUpper bool) (*Source, error) {
	n := len(sql)
	command := make([]byte, n+2)
	copy(command, sql)
	command[n] = ' '
	command[n+1] = ' '
	types := make([]charClass, n+2)
	unterminated := func(start int, what string) error {
		return sqlerr.Unterminated(sql, start, what)
	}
	var lastType charClass
	for i := 0; i < n; i++ {
		c := command[i]
		typ := charWhite
		switch c {
		case '/':
			if command[i+1] == '*' {
				start := i
				command[i], command[i+1] = ' ', ' '
				i += 2
				for {
					if i >= n {
						return nil, unterminated(start, "comment")
					}
					if command[i] == '*' && command[i+1] == '/' {
						break
					}
					command[i] = ' '
					i++
				}
				command[i], command[i+1] = ' ', ' '
				i++
			} else if command[i+1] == '/' {
				i = blankLine(command, i, n)
			} else {
				typ = charSpecial1
			}
		case '-':
			if command[i+1] == '-' {
				i = blankLine(command, i, n)
			} else {
				typ = charSpecial1
			}
		case '$':
			if command[i+1] == '$' && (i == 0 || command[i-1] <= ' ') {
				start := i
				command[i], command[i+1] = ' ', ' '
				i += 2
				for {
					if i >= n || i+1 >= n {
						return nil, unterminated(start, "dollar quoted string")
					}
					if command[i] == '$' && command[i+1] == '$' {
						break
					}
					types[i] = charDollarQuoted
					i++
				}
				command[i], command[i+1] = ' ', ' '
				i++
			} else if lastType == charName || lastType == charValue {
				// $ inside an identifier
				typ = charName
			} else {
				// $1 style parameter
				typ = charSpecial1
			}
		case '(', ')', '{', '}', '*', ',', ';', '+', '%', '?', '@', ']':
			typ = charSpecial1
		case '!', '<', '>', '|', '=', ':', '&', '~':
			typ = charSpecial2
		case '.':
			typ = charDot
		case '\'':
			typ = charString
			types[i] = typ
			start := i
			for i++; ; i++ {
				if i >= n {
					return nil, unterminated(start, "string")
				}
				if command[i] == '\'' {
					break
				}
			}
		case '[':
			if mode != nil && mode.SquareBracketQuotedNames {
				command[i] = '"'
				typ = charQuoted
				types[i] = typ
				start := i
				for i++; ; i++ {
					if i >= n {
						return nil, unterminated(start, "quoted identifier")
					}
					if command[i] == ']' {
						break
					}
				}
				command[i] = '"'
			} else {
				typ = charSpecial1
			}
		case '`':
			// MySQL alias for ", but not case sensitive
			command[i] = '"'
			typ = charQuoted
			types[i] = typ
			start := i
			for i++; ; i++ {
				if i >= n {
					return nil, unterminated(start, "quoted identifier")
				}
				c := command[i]
				if c == '`' {
					break
				}
				switch {
				case c >= 'a' && c <= 'z':
					command[i] = c - ('a' - 'A')
				case c >= utf8.RuneSelf:
					r, size := utf8.DecodeRune(command[i:n])
					if up := unicode.ToUpper(r); up != r && utf8.RuneLen(up) == size {
						utf8.EncodeRune(command[i:], up)
					}
					i += size - 1
				}
			}
			command[i] = '"'
		case '"':
			typ = charQuoted
			types[i] = typ
			start := i
			for i++; ; i++ {
				if i >= n {
					return nil, unterminated(start, "quoted identifier")
				}
				if command[i] == '"' {
					break
				}
			}
		case '_':
			typ = charName
		case '#':
			if mode != nil && mode.SupportPoundSymbolForColumnNames {
				typ = charName
			} else {
				typ = charSpecial1
			}
		default:
			switch {
			case c >= 'a' && c <= 'z':
				if toUpper {
					command[i] = c - ('a' - 'A')
				}
				typ = charName
			case c >= 'A' && c <= 'Z':
				typ = charName
			case c >= '0' && c <= '9':
				typ = charValue
			case c <= ' ':
				// whitespace
			case c >= utf8.RuneSelf:
				r, size := utf8.DecodeRune(command[i:n])
				switch {
				case unicode.IsSpace(r):
				case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
					typ = charName
					if toUpper {
						up := unicode.ToUpper(r)
						if up != r && utf8.RuneLen(up) == size {
							utf8.EncodeRune(command[i:], up)
						}
					}
				default:
					typ = charSpecial1
				}
				for j := 1; j < size; j++ {
					types[i+j-1] = typ
				}
				i += size - 1
			default:
				typ = charSpecial1
			}
		}
		types[i] = typ
		lastType = typ
	}
	types[n] = charEnd
	types[n+1] = charEnd
	return &Source{Original: sql, Command: command, Types: types}, nil
}

// blankLine blanks a -- or // comment up to the end of the line and returns
// the index of the line terminator (or last byte).
func blankLine(command []byte, i, n int) int {
	for i < n {
		c := command[i]
		if c == '\n' || c == '\r' {
			return i
		}
		command[i] = ' '
		if i == n-1 {
			return i
		}
		i++
	}
	return i
}

// Scanner is the pull tokenizer over a classified Source.  It keeps the
// current token, its type, whether it was quoted and its literal value, and
// the offsets of the previous and current tokens.  Mark and Reset give O(1)
// backtracking.
type Scanner struct {
	src     *Source
	mode    *Mode
	toUpper bool

	// Literals is the ALLOW_LITERALS level enforced while scanning
	Literals LiteralsAllowed
	// LiteralsChecked disables the literal check (internal statements)
	LiteralsChecked bool

	pos     int // end of current token, next read starts here
	lastPos int // end of the previous token
	tokPos  int // start of the current token

	token  string
	typ    TokenType
	quoted bool
	val    value.Value

	diagnostic bool
	expected   []string
}

// NewScanner classifies @sql and returns a scanner positioned before the
// first token; call Next to read it.
func NewScanner(sql string, mode *Mode, toUpper bool) (*Scanner, error) {
	if mode == nil {
		mode = RegularMode
	}
	src, err := Classify(sql, mode, toUpper)
	if err != nil {
		return nil, err
	}
	return &Scanner{src: src, mode: mode, toUpper: toUpper, Literals: AllowLiteralsAll}, nil
}

// SetDiagnostic enables the expected-token accumulator.
func (s *Scanner) SetDiagnostic(on bool) {
	s.diagnostic = on
	s.expected = nil
}

// Diagnostic is true in the pass collecting expected tokens.
func (s *Scanner) Diagnostic() bool { return s.diagnostic }

func (s *Scanner) Source() *Source          { return s.src }
func (s *Scanner) Mode() *Mode              { return s.mode }
func (s *Scanner) IdentifiersToUpper() bool { return s.toUpper }
func (s *Scanner) Token() string            { return s.token }
func (s *Scanner) Type() TokenType          { return s.typ }
func (s *Scanner) Quoted() bool             { return s.quoted }
func (s *Scanner) Value() value.Value       { return s.val }
func (s *Scanner) Pos() int                 { return s.pos }
func (s *Scanner) LastPos() int             { return s.lastPos }
func (s *Scanner) TokenPos() int            { return s.tokPos }
func (s *Scanner) SQL() string              { return s.src.Original }

// Mark returns an offset that Reset can return to, it re-reads the current token.
func (s *Scanner) Mark() int { return s.lastPos }

// Reset moves back to @mark and reads the token found there.
func (s *Scanner) Reset(mark int) error {
	s.pos = mark
	return s.Next()
}

// SkipToEnd moves the cursor to end of input.
func (s *Scanner) SkipToEnd() error {
	s.pos = len(s.src.Original)
	return s.Next()
}

// PeekByte is the working copy byte at the cursor, without skipping blanks.
func (s *Scanner) PeekByte() byte {
	return s.src.Command[s.pos]
}

// Slice returns the original text between two offsets.
func (s *Scanner) Slice(start, end int) string {
	n := len(s.src.Original)
	if end > n {
		end = n
	}
	if start > end {
		return ""
	}
	return s.src.Original[start:end]
}

// Expect records @tok as one of the alternatives at the current position.
func (s *Scanner) Expect(tok string) {
	if s.diagnostic {
		s.expected = append(s.expected, tok)
	}
}

// Expected returns the recorded alternatives.
func (s *Scanner) Expected() []string {
	return s.expected
}

// SyntaxError is a syntax error at the current token.
func (s *Scanner) SyntaxError() *sqlerr.Error {
	return sqlerr.Syntax(s.src.Original, s.tokPos, s.expected)
}

// Error positions @e at the current token.
func (s *Scanner) Error(e *sqlerr.Error) *sqlerr.Error {
	return e.At(s.src.Original, s.tokPos)
}

// Next reads the next token.
func (s *Scanner) Next() error {
	s.quoted = false
	s.val = nil
	if s.expected != nil {
		s.expected = s.expected[:0]
	}
	types := s.src.Types
	chars := s.src.Command
	s.lastPos = s.pos
	i := s.pos
	typ := types[i]
	for typ == charWhite {
		i++
		typ = types[i]
	}
	start := i
	s.tokPos = start
	c := chars[i]
	i++
	s.token = ""
	switch typ {
	case charName:
		for types[i] == charName || types[i] == charValue {
			i++
		}
		s.token = string(chars[start:i])
		s.typ = TokenIdentity
		if tok, ok := KeywordType(s.token); ok {
			s.typ = tok
		}
		s.pos = i
		return nil
	case charQuoted:
		var sb strings.Builder
		for {
			begin := i
			for chars[i] != '"' {
				i++
			}
			sb.Write(chars[begin:i])
			i++
			if chars[i] != '"' {
				break
			}
			sb.WriteByte('"')
			i++
		}
		s.token = sb.String()
		s.quoted = true
		s.typ = TokenIdentity
		s.pos = i
		return nil
	case charSpecial2:
		if types[i] == charSpecial2 {
			c1 := chars[i]
			i++
			tok, ok := specialType2(c, c1)
			if !ok {
				s.pos = i
				return s.SyntaxError()
			}
			s.typ = tok
			s.token = string([]byte{c, c1})
		} else {
			tok, ok := specialType1(c)
			if !ok {
				return s.SyntaxError()
			}
			s.typ = tok
			s.token = string(c)
		}
		s.pos = i
		return nil
	case charSpecial1:
		tok, ok := specialType1(c)
		if !ok {
			return s.SyntaxError()
		}
		s.typ = tok
		s.token = string(c)
		s.pos = i
		return nil
	case charValue:
		return s.readNumber(start, i, c)
	case charDot:
		if types[i] != charValue {
			s.typ = TokenDot
			s.token = "."
			s.pos = i
			return nil
		}
		return s.readDecimal(i-1, i)
	case charString:
		var sb strings.Builder
		for {
			begin := i
			for chars[i] != '\'' {
				i++
			}
			sb.WriteString(s.src.Original[begin:i])
			i++
			if chars[i] != '\'' {
				break
			}
			sb.WriteByte('\'')
			i++
		}
		if err := s.checkLiterals(true); err != nil {
			return err
		}
		s.pos = i
		s.setString(sb.String(), start)
		return nil
	case charDollarQuoted:
		begin := i - 1
		for types[i] == charDollarQuoted {
			i++
		}
		if err := s.checkLiterals(true); err != nil {
			return err
		}
		s.pos = i
		s.setString(s.src.Original[begin:i], start)
		return nil
	case charEnd:
		s.typ = TokenEOF
		s.pos = i - 1
		return nil
	}
	return s.SyntaxError()
}

func (s *Scanner) setString(str string, start int) {
	s.typ = TokenValue
	s.token = s.src.Original[start:s.pos]
	if str == "" && s.mode.TreatEmptyStringsAsNull {
		s.val = value.NilValueVal
		return
	}
	s.val = value.NewStringValue(str)
}

func (s *Scanner) readNumber(start, i int, c byte) error {
	chars := s.src.Command
	if c == '0' && (chars[i] == 'X' || chars[i] == 'x') {
		// hex number
		var number int64
		start += 2
		i++
		for {
			c = chars[i]
			d, ok := hexDigit(c)
			if !ok {
				if err := s.checkLiterals(false); err != nil {
					return err
				}
				if i == start {
					s.pos = i
					return s.SyntaxError()
				}
				s.setValue(value.NewIntValue(int32(number)), i)
				return nil
			}
			number = number<<4 + int64(d)
			if number > math.MaxInt32 {
				return s.readHexDecimal(start, i)
			}
			i++
		}
	}
	number := int64(c - '0')
	for {
		c = chars[i]
		if c < '0' || c > '9' {
			if c == '.' || c == 'E' || c == 'e' || c == 'L' {
				return s.readDecimal(start, i)
			}
			if err := s.checkLiterals(false); err != nil {
				return err
			}
			s.setValue(value.NewIntValue(int32(number)), i)
			return nil
		}
		number = number*10 + int64(c-'0')
		if number > math.MaxInt32 {
			return s.readDecimal(start, i)
		}
		i++
	}
}

func (s *Scanner) setValue(v value.Value, end int) {
	s.typ = TokenValue
	s.val = v
	s.pos = end
	s.token = s.src.Original[s.tokPos:end]
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

func (s *Scanner) readHexDecimal(start, i int) error {
	chars := s.src.Command
	for {
		i++
		if _, ok := hexDigit(chars[i]); !ok {
			break
		}
	}
	bi, ok := new(big.Int).SetString(string(chars[start:i]), 16)
	if !ok {
		return s.SyntaxError()
	}
	if err := s.checkLiterals(false); err != nil {
		return err
	}
	s.setValue(value.NewDecimalValue(decimal.NewFromBigInt(bi, 0)), i)
	return nil
}

func (s *Scanner) readDecimal(start, i int) error {
	chars := s.src.Command
	types := s.src.Types
	for types[i] == charDot || types[i] == charValue {
		i++
	}
	containsE := false
	if chars[i] == 'E' || chars[i] == 'e' {
		containsE = true
		i++
		if chars[i] == '+' || chars[i] == '-' {
			i++
		}
		if types[i] != charValue {
			s.pos = i
			return s.SyntaxError()
		}
		for types[i] == charValue {
			i++
		}
	}
	sub := string(chars[start:i])
	if err := s.checkLiterals(false); err != nil {
		return err
	}
	if !containsE && !strings.Contains(sub, ".") {
		bi, ok := new(big.Int).SetString(sub, 10)
		if !ok {
			return s.SyntaxError()
		}
		if bi.IsInt64() {
			s.setValue(value.NewLongValue(bi.Int64()), i)
			// constants like 10000000L
			if chars[i] == 'L' {
				s.pos++
			}
			return nil
		}
		s.setValue(value.NewDecimalValue(decimal.NewFromBigInt(bi, 0)), i)
		return nil
	}
	d, err := decimal.NewFromString(sub)
	if err != nil {
		return s.Error(sqlerr.New(sqlerr.InvalidValue, sub, "number"))
	}
	s.setValue(value.NewDecimalValue(d), i)
	return nil
}

func (s *Scanner) checkLiterals(text bool) error {
	if s.LiteralsChecked {
		return nil
	}
	if s.Literals == AllowLiteralsNone || (text && s.Literals != AllowLiteralsAll) {
		return s.Error(sqlerr.New(sqlerr.LiteralsAreNotAllowed))
	}
	return nil
}

// ReadParameterIndex reads the digits directly following a ? parameter
// marker; ok is false when no digit follows.
func (s *Scanner) ReadParameterIndex() (int, bool, error) {
	chars := s.src.Command
	i := s.pos
	if chars[i] < '0' || chars[i] > '9' {
		return 0, false, nil
	}
	var number int64
	for chars[i] >= '0' && chars[i] <= '9' {
		number = number*10 + int64(chars[i]-'0')
		if number > math.MaxInt32 {
			return 0, false, s.Error(sqlerr.New(sqlerr.InvalidValue, string(chars[s.pos:i+1]), "parameter index"))
		}
		i++
	}
	s.tokPos = s.pos
	s.setValue(value.NewIntValue(int32(number)), i)
	return int(number), true, nil
}

func specialType1(c byte) (TokenType, bool) {
	switch c {
	case '?', '$':
		return TokenParameter, true
	case '@':
		return TokenAt, true
	case '+':
		return TokenPlus, true
	case '-':
		return TokenMinus, true
	case '*':
		return TokenStar, true
	case ',':
		return TokenComma, true
	case '{':
		return TokenLeftBrace, true
	case '}':
		return TokenRightBrace, true
	case '/':
		return TokenDivide, true
	case '%':
		return TokenModulus, true
	case ';':
		return TokenSemicolon, true
	case ':':
		return TokenColon, true
	case '[':
		return TokenLeftBracket, true
	case ']':
		return TokenRightBracket, true
	case '~':
		return TokenTilde, true
	case '(':
		return TokenLeftParenthesis, true
	case ')':
		return TokenRightParenthesis, true
	case '<':
		return TokenLT, true
	case '>':
		return TokenGT, true
	case '=':
		return TokenEqual, true
	}
	return TokenNil, false
}

func specialType2(c0, c1 byte) (TokenType, bool) {
	switch c0 {
	case ':':
		if c1 == ':' {
			return TokenColonColon, true
		} else if c1 == '=' {
			return TokenColonEq, true
		}
	case '>':
		if c1 == '=' {
			return TokenGE, true
		}
	case '<':
		if c1 == '=' {
			return TokenLE, true
		} else if c1 == '>' {
			return TokenNE, true
		}
	case '!':
		if c1 == '=' {
			return TokenNE, true
		} else if c1 == '~' {
			return TokenNotTilde, true
		}
	case '|':
		if c1 == '|' {
			return TokenConcat, true
		}
	case '&':
		if c1 == '&' {
			return TokenSpatialIntersects, true
		}
	}
	return TokenNil, false
}
