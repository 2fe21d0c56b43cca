package query

import (
	"reflect"
	"testing"
)

func TestTokenize_TagsWithSpaces(t *testing.T) {
	tokens := Tokenize("black cat AND red collar")

	expected := []Token{
		{Kind: TokenTag, Text: "black cat"},
		{Kind: TokenAnd, Text: "AND"},
		{Kind: TokenTag, Text: "red collar"},
	}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestTokenize_CaseInsensitiveOperators(t *testing.T) {
	tests := []struct {
		query string
		kinds []TokenKind
	}{
		{"a and b", []TokenKind{TokenTag, TokenAnd, TokenTag}},
		{"a Or b", []TokenKind{TokenTag, TokenOr, TokenTag}},
		{"not a", []TokenKind{TokenNot, TokenTag}},
		{"a AnD b oR c", []TokenKind{TokenTag, TokenAnd, TokenTag, TokenOr, TokenTag}},
	}

	for _, tt := range tests {
		tokens := Tokenize(tt.query)
		if len(tokens) != len(tt.kinds) {
			t.Errorf("query %q: expected %d tokens, got %v", tt.query, len(tt.kinds), tokens)
			continue
		}
		for i, kind := range tt.kinds {
			if tokens[i].Kind != kind {
				t.Errorf("query %q token %d: expected kind %s, got %s", tt.query, i, kind, tokens[i].Kind)
			}
		}
	}
}

func TestTokenize_OperatorInsideWordIsNotSplit(t *testing.T) {
	tests := []struct {
		query string
		tag   string
	}{
		{"android", "android"},
		{"nothing", "nothing"},
		{"horse", "horse"},
		{"band", "band"},
		{"sandy beach", "sandy beach"},
		{"not_a_tag", "not_a_tag"},
	}

	for _, tt := range tests {
		tokens := Tokenize(tt.query)
		if len(tokens) != 1 || tokens[0].Kind != TokenTag || tokens[0].Text != tt.tag {
			t.Errorf("query %q: expected single tag %q, got %v", tt.query, tt.tag, tokens)
		}
	}
}

func TestTokenize_Brackets(t *testing.T) {
	tokens := Tokenize("[cat OR dog] AND cute")

	expected := []Token{
		{Kind: TokenLBracket, Text: "["},
		{Kind: TokenTag, Text: "cat"},
		{Kind: TokenOr, Text: "OR"},
		{Kind: TokenTag, Text: "dog"},
		{Kind: TokenRBracket, Text: "]"},
		{Kind: TokenAnd, Text: "AND"},
		{Kind: TokenTag, Text: "cute"},
	}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestTokenize_BracketsAdjacentToTags(t *testing.T) {
	// Brackets delimit without surrounding whitespace.
	tokens := Tokenize("[a]AND[b]")

	expected := []Token{
		{Kind: TokenLBracket, Text: "["},
		{Kind: TokenTag, Text: "a"},
		{Kind: TokenRBracket, Text: "]"},
		{Kind: TokenAnd, Text: "AND"},
		{Kind: TokenLBracket, Text: "["},
		{Kind: TokenTag, Text: "b"},
		{Kind: TokenRBracket, Text: "]"},
	}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestTokenize_Empty(t *testing.T) {
	for _, query := range []string{"", "   ", "\t\n"} {
		if tokens := Tokenize(query); len(tokens) != 0 {
			t.Errorf("query %q: expected no tokens, got %v", query, tokens)
		}
	}
}

func TestTokenize_PunctuationStaysInTag(t *testing.T) {
	tokens := Tokenize("cat's collar AND 35mm")

	expected := []Token{
		{Kind: TokenTag, Text: "cat's collar"},
		{Kind: TokenAnd, Text: "AND"},
		{Kind: TokenTag, Text: "35mm"},
	}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestTokenize_UnbalancedBracketsStillTokenize(t *testing.T) {
	// The tokenizer never fails; the parser rejects the imbalance.
	tokens := Tokenize("[cat")

	expected := []Token{
		{Kind: TokenLBracket, Text: "["},
		{Kind: TokenTag, Text: "cat"},
	}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}
