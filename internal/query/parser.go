// Package query implements the boolean tag-query language: a tokenizer, a
// recursive-descent parser, and a set-algebra evaluator over a tag index.
//
// Grammar, loosest binding first:
//
//	Expression := Term (OR Term)*
//	Term       := Factor (AND Factor)*
//	Factor     := NOT Factor | '[' Expression ']' | TAG
//
// so "a OR b AND NOT c" parses as Or(a, And(b, Not(c))).
package query

import (
	"fmt"
	"strings"
)

// maxDepth caps Factor nesting. Interactive queries never get close, but
// machine-generated bracket towers should fail cleanly instead of blowing the
// goroutine stack.
const maxDepth = 512

// SyntaxError reports a malformed query: mismatched brackets, an operator or
// bracket where a tag was expected, or leftover tokens after a complete
// expression. It carries the offending token so callers can show users what
// tripped the parser.
type SyntaxError struct {
	Msg  string
	Kind string // token kind name, empty when the query just ended early
	Text string // token literal text
}

func (e *SyntaxError) Error() string {
	if e.Kind == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: Token(%s, %q)", e.Msg, e.Kind, e.Text)
}

type parser struct {
	tokens []Token
	pos    int
}

// Parse turns a query string into its AST. An empty or whitespace-only query
// parses to AllImages. Any other malformed input returns a *SyntaxError.
func Parse(query string) (Node, error) {
	if strings.TrimSpace(query) == "" {
		return AllImages{}, nil
	}
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return AllImages{}, nil
	}

	p := &parser{tokens: tokens}
	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, &SyntaxError{
			Msg:  "unexpected token at end of query",
			Kind: tok.Kind.String(),
			Text: tok.Text,
		}
	}
	return node, nil
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (Token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *parser) parseExpression(depth int) (Node, error) {
	node, err := p.parseTerm(depth)
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenOr {
			return node, nil
		}
		p.pos++
		right, err := p.parseTerm(depth)
		if err != nil {
			return nil, err
		}
		node = Or{Left: node, Right: right}
	}
}

func (p *parser) parseTerm(depth int) (Node, error) {
	node, err := p.parseFactor(depth)
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenAnd {
			return node, nil
		}
		p.pos++
		right, err := p.parseFactor(depth)
		if err != nil {
			return nil, err
		}
		node = And{Left: node, Right: right}
	}
}

func (p *parser) parseFactor(depth int) (Node, error) {
	if depth >= maxDepth {
		return nil, &SyntaxError{Msg: fmt.Sprintf("query nesting exceeds %d levels", maxDepth)}
	}

	tok, ok := p.next()
	if !ok {
		return nil, &SyntaxError{Msg: "unexpected end of query, expected tag, NOT, or bracket"}
	}

	switch tok.Kind {
	case TokenNot:
		// NOT applies to the next Factor, so NOT NOT a is legal.
		inner, err := p.parseFactor(depth + 1)
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil

	case TokenLBracket:
		inner, err := p.parseExpression(depth + 1)
		if err != nil {
			return nil, err
		}
		closing, ok := p.next()
		if !ok || closing.Kind != TokenRBracket {
			if !ok {
				return nil, &SyntaxError{Msg: "mismatched brackets: expected ']'"}
			}
			return nil, &SyntaxError{
				Msg:  "mismatched brackets: expected ']'",
				Kind: closing.Kind.String(),
				Text: closing.Text,
			}
		}
		return Bracket{Inner: inner}, nil

	case TokenTag:
		return Tag{Name: tok.Text}, nil

	default:
		return nil, &SyntaxError{
			Msg:  "invalid syntax: unexpected token",
			Kind: tok.Kind.String(),
			Text: tok.Text,
		}
	}
}
