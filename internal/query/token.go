package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind identifies what a token is.
type TokenKind int

// Token kinds produced by Tokenize.
const (
	TokenTag TokenKind = iota
	TokenAnd
	TokenOr
	TokenNot
	TokenLBracket
	TokenRBracket
)

// String returns the kind name used in syntax error messages.
func (k TokenKind) String() string {
	switch k {
	case TokenTag:
		return "TAG"
	case TokenAnd:
		return "AND"
	case TokenOr:
		return "OR"
	case TokenNot:
		return "NOT"
	case TokenLBracket:
		return "LBRACKET"
	case TokenRBracket:
		return "RBRACKET"
	}
	return "UNKNOWN"
}

// Token is one lexical unit of a query string.
type Token struct {
	Kind TokenKind
	Text string
}

// wordOperators are matched as whole words, case-insensitively. Order matters
// only for ties at the same position, which cannot happen since no operator is
// a prefix of another at the same start.
var wordOperators = []struct {
	word string
	kind TokenKind
}{
	{"AND", TokenAnd},
	{"OR", TokenOr},
	{"NOT", TokenNot},
}

// Tokenize splits a query into tag, operator, and bracket tokens. The only
// delimiters are AND, OR, NOT (whole words, any case) and the brackets [ ].
// Everything between delimiters is a single tag, so tags may contain spaces
// and punctuation without quoting. Tokenize never fails; bracket matching is
// the parser's problem.
func Tokenize(query string) []Token {
	var tokens []Token
	pos := 0
	for pos < len(query) {
		// Skip leading whitespace.
		for pos < len(query) && isSpaceAt(query, pos) {
			pos++
		}
		if pos == len(query) {
			break
		}

		delimPos, delimEnd, delimKind, found := nextDelimiter(query, pos)
		if !found {
			delimPos = len(query)
			delimEnd = len(query)
		}

		if tag := strings.TrimSpace(query[pos:delimPos]); tag != "" {
			tokens = append(tokens, Token{Kind: TokenTag, Text: tag})
		}
		if found {
			tokens = append(tokens, Token{Kind: delimKind, Text: query[delimPos:delimEnd]})
		}
		pos = delimEnd
	}
	return tokens
}

// nextDelimiter finds the earliest delimiter at or after pos. Word operators
// only count when bounded by non-word characters on both sides, so a tag like
// "android" is never split on its "and".
func nextDelimiter(query string, pos int) (start, end int, kind TokenKind, found bool) {
	start = len(query)
	for i := pos; i < len(query) && i < start; i++ {
		switch query[i] {
		case '[':
			return i, i + 1, TokenLBracket, true
		case ']':
			return i, i + 1, TokenRBracket, true
		}
		for _, op := range wordOperators {
			if matchWordAt(query, i, op.word) {
				return i, i + len(op.word), op.kind, true
			}
		}
	}
	return 0, 0, 0, false
}

// matchWordAt reports whether word occurs at position i as a whole word,
// ignoring case.
func matchWordAt(s string, i int, word string) bool {
	if i+len(word) > len(s) {
		return false
	}
	if !strings.EqualFold(s[i:i+len(word)], word) {
		return false
	}
	if i > 0 && isWordByteBefore(s, i) {
		return false
	}
	if end := i + len(word); end < len(s) && isWordRuneAt(s, end) {
		return false
	}
	return true
}

func isSpaceAt(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}

func isWordRuneAt(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWordRune(r)
}

func isWordByteBefore(s string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
