package lex

import "strings"

// words that tokenize as identifiers but still need quoting when used as names
var nonReservedKeywords = map[string]bool{
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"CURRENT_TIMESTAMP": true,
	"INTERSECTS":        true,
	"SYSDATE":           true,
	"SYSTIME":           true,
	"SYSTIMESTAMP":      true,
	"TODAY":             true,
}

// IsKeyword reports whether @s (any case) is a keyword that must be quoted
// to be used as an identifier.
func IsKeyword(s string) bool {
	up := strings.ToUpper(s)
	if _, ok := reserved[up]; ok {
		return true
	}
	return nonReservedKeywords[up]
}

// IsSimpleIdentifier is true when @s can be written without quotes: it
// starts with A-Z or _, continues with A-Z, 0-9 or _ and is no keyword.
func IsSimpleIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return !IsKeyword(s)
}

// QuoteIdentifier double quotes @s, doubling embedded quotes.
func QuoteIdentifier(s string) string {
	return `"` + strings.Replace(s, `"`, `""`, -1) + `"`
}

// QuoteIdentifierIfNeeded only quotes names that are not simple identifiers.
func QuoteIdentifierIfNeeded(s string) string {
	if IsSimpleIdentifier(s) {
		return s
	}
	return QuoteIdentifier(s)
}
