package lex

import (
	"fmt"
	"strings"
)

// TokenType identifies the type of lexical tokens.
type TokenType uint16

// TokenInfo describes a token for error messages and keyword lookup.
type TokenInfo struct {
	T           TokenType
	Kw          string
	Description string
}

const (
	// List of all TokenTypes Note we do NOT use IOTA because it is evil
	//  if we change the position (ie, add a token not at end) it will cause any
	//  usage of tokens serialized on disk/database to be invalid

	// Basic grammar items
	TokenNil       TokenType = 0 // not used
	TokenEOF       TokenType = 1 // end of input
	TokenIdentity  TokenType = 2 // identifier, quoted or bare, includes non-reserved words
	TokenParameter TokenType = 3 // ? or $
	TokenValue     TokenType = 4 // literal value, see Scanner.Value

	// Operators and punctuation
	TokenEqual             TokenType = 20 // =
	TokenGE                TokenType = 21 // >=
	TokenGT                TokenType = 22 // >
	TokenLT                TokenType = 23 // <
	TokenLE                TokenType = 24 // <=
	TokenNE                TokenType = 25 // <> or !=
	TokenAt                TokenType = 26 // @
	TokenMinus             TokenType = 27 // -
	TokenPlus              TokenType = 28 // +
	TokenConcat            TokenType = 29 // ||
	TokenLeftParenthesis   TokenType = 30 // (
	TokenRightParenthesis  TokenType = 31 // )
	TokenSpatialIntersects TokenType = 32 // &&
	TokenStar              TokenType = 33 // *
	TokenComma             TokenType = 34 // ,
	TokenDot               TokenType = 35 // .
	TokenLeftBrace         TokenType = 36 // {
	TokenRightBrace        TokenType = 37 // }
	TokenDivide            TokenType = 38 // /
	TokenModulus           TokenType = 39 // %
	TokenSemicolon         TokenType = 40 // ;
	TokenColon             TokenType = 41 // :
	TokenLeftBracket       TokenType = 42 // [
	TokenRightBracket      TokenType = 43 // ]
	TokenTilde             TokenType = 44 // ~
	TokenColonColon        TokenType = 45 // ::
	TokenColonEq           TokenType = 46 // :=
	TokenNotTilde          TokenType = 47 // !~

	// Reserved keywords, never usable as bare identifiers
	TokenAll        TokenType = 100
	TokenCheck      TokenType = 101
	TokenConstraint TokenType = 102
	TokenCross      TokenType = 103
	TokenDistinct   TokenType = 104
	TokenExcept     TokenType = 105
	TokenExists     TokenType = 106
	TokenFalse      TokenType = 107
	TokenFetch      TokenType = 108
	TokenFor        TokenType = 109
	TokenForeign    TokenType = 110
	TokenFrom       TokenType = 111
	TokenFull       TokenType = 112
	TokenGroup      TokenType = 113
	TokenHaving     TokenType = 114
	TokenInner      TokenType = 115
	TokenIntersect  TokenType = 116
	TokenIs         TokenType = 117
	TokenJoin       TokenType = 118
	TokenLike       TokenType = 119
	TokenLimit      TokenType = 120
	TokenMinusKw    TokenType = 121 // MINUS, the set operation
	TokenNatural    TokenType = 122
	TokenNot        TokenType = 123
	TokenNull       TokenType = 124
	TokenOffset     TokenType = 125
	TokenOn         TokenType = 126
	TokenOrder      TokenType = 127
	TokenPrimary    TokenType = 128
	TokenRownum     TokenType = 129
	TokenSelect     TokenType = 130
	TokenTrue       TokenType = 131
	TokenUnion      TokenType = 132
	TokenUnique     TokenType = 133
	TokenWhere      TokenType = 134
	TokenWith       TokenType = 135
)

var (
	// TokenNameMap is the text and description of each token
	TokenNameMap = map[TokenType]*TokenInfo{
		TokenNil:       {Description: "NIL"},
		TokenEOF:       {Description: "EOF"},
		TokenIdentity:  {Description: "identifier"},
		TokenParameter: {Kw: "?", Description: "parameter"},
		TokenValue:     {Description: "value"},

		TokenEqual:             {Kw: "="},
		TokenGE:                {Kw: ">="},
		TokenGT:                {Kw: ">"},
		TokenLT:                {Kw: "<"},
		TokenLE:                {Kw: "<="},
		TokenNE:                {Kw: "<>"},
		TokenAt:                {Kw: "@"},
		TokenMinus:             {Kw: "-"},
		TokenPlus:              {Kw: "+"},
		TokenConcat:            {Kw: "||"},
		TokenLeftParenthesis:   {Kw: "("},
		TokenRightParenthesis:  {Kw: ")"},
		TokenSpatialIntersects: {Kw: "&&"},
		TokenStar:              {Kw: "*"},
		TokenComma:             {Kw: ","},
		TokenDot:               {Kw: "."},
		TokenLeftBrace:         {Kw: "{"},
		TokenRightBrace:        {Kw: "}"},
		TokenDivide:            {Kw: "/"},
		TokenModulus:           {Kw: "%"},
		TokenSemicolon:         {Kw: ";"},
		TokenColon:             {Kw: ":"},
		TokenLeftBracket:       {Kw: "["},
		TokenRightBracket:      {Kw: "]"},
		TokenTilde:             {Kw: "~"},
		TokenColonColon:        {Kw: "::"},
		TokenColonEq:           {Kw: ":="},
		TokenNotTilde:          {Kw: "!~"},

		TokenAll:        {Kw: "ALL"},
		TokenCheck:      {Kw: "CHECK"},
		TokenConstraint: {Kw: "CONSTRAINT"},
		TokenCross:      {Kw: "CROSS"},
		TokenDistinct:   {Kw: "DISTINCT"},
		TokenExcept:     {Kw: "EXCEPT"},
		TokenExists:     {Kw: "EXISTS"},
		TokenFalse:      {Kw: "FALSE"},
		TokenFetch:      {Kw: "FETCH"},
		TokenFor:        {Kw: "FOR"},
		TokenForeign:    {Kw: "FOREIGN"},
		TokenFrom:       {Kw: "FROM"},
		TokenFull:       {Kw: "FULL"},
		TokenGroup:      {Kw: "GROUP"},
		TokenHaving:     {Kw: "HAVING"},
		TokenInner:      {Kw: "INNER"},
		TokenIntersect:  {Kw: "INTERSECT"},
		TokenIs:         {Kw: "IS"},
		TokenJoin:       {Kw: "JOIN"},
		TokenLike:       {Kw: "LIKE"},
		TokenLimit:      {Kw: "LIMIT"},
		TokenMinusKw:    {Kw: "MINUS"},
		TokenNatural:    {Kw: "NATURAL"},
		TokenNot:        {Kw: "NOT"},
		TokenNull:       {Kw: "NULL"},
		TokenOffset:     {Kw: "OFFSET"},
		TokenOn:         {Kw: "ON"},
		TokenOrder:      {Kw: "ORDER"},
		TokenPrimary:    {Kw: "PRIMARY"},
		TokenRownum:     {Kw: "ROWNUM"},
		TokenSelect:     {Kw: "SELECT"},
		TokenTrue:       {Kw: "TRUE"},
		TokenUnion:      {Kw: "UNION"},
		TokenUnique:     {Kw: "UNIQUE"},
		TokenWhere:      {Kw: "WHERE"},
		TokenWith:       {Kw: "WITH"},
	}

	// reserved keyword text to token
	reserved = make(map[string]TokenType)
)

func init() {
	for tok, ti := range TokenNameMap {
		ti.T = tok
		if tok.IsKeyword() {
			reserved[ti.Kw] = tok
		}
	}
}

// String is the token text used in "expected" lists.
func (typ TokenType) String() string {
	ti, ok := TokenNameMap[typ]
	if !ok {
		return fmt.Sprintf("TokenType(%d)", typ)
	}
	if ti.Kw != "" {
		return ti.Kw
	}
	return ti.Description
}

// IsKeyword is true for the reserved words.
func (typ TokenType) IsKeyword() bool {
	return typ >= TokenAll && typ <= TokenWith
}

// IsOperator is true for punctuation and operator tokens.
func (typ TokenType) IsOperator() bool {
	return typ >= TokenEqual && typ <= TokenNotTilde
}

// KeywordType returns the reserved token for an (upper case) word.
func KeywordType(word string) (TokenType, bool) {
	tok, ok := reserved[strings.ToUpper(word)]
	return tok, ok
}
