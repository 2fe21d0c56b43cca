package query

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParse_EmptyQuery(t *testing.T) {
	for _, query := range []string{"", "   ", "\t "} {
		node, err := Parse(query)
		if err != nil {
			t.Fatalf("query %q: unexpected error: %v", query, err)
		}
		if _, ok := node.(AllImages); !ok {
			t.Errorf("query %q: expected AllImages, got %T", query, node)
		}
	}
}

func TestParse_SingleTag(t *testing.T) {
	node, err := Parse("black cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(node, Tag{Name: "black cat"}) {
		t.Errorf("expected Tag(black cat), got %#v", node)
	}
}

func TestParse_Precedence(t *testing.T) {
	// AND binds tighter than OR: a OR b AND c == Or(a, And(b, c)).
	node, err := Parse("a OR b AND c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := Or{
		Left:  Tag{Name: "a"},
		Right: And{Left: Tag{Name: "b"}, Right: Tag{Name: "c"}},
	}
	if !reflect.DeepEqual(node, Node(expected)) {
		t.Errorf("expected %#v, got %#v", expected, node)
	}
}

func TestParse_NotBindsTightest(t *testing.T) {
	// NOT a AND b == And(Not(a), b), not Not(And(a, b)).
	node, err := Parse("NOT a AND b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := And{
		Left:  Not{Inner: Tag{Name: "a"}},
		Right: Tag{Name: "b"},
	}
	if !reflect.DeepEqual(node, Node(expected)) {
		t.Errorf("expected %#v, got %#v", expected, node)
	}
}

func TestParse_BracketsOverridePrecedence(t *testing.T) {
	node, err := Parse("[a OR b] AND c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := And{
		Left:  Bracket{Inner: Or{Left: Tag{Name: "a"}, Right: Tag{Name: "b"}}},
		Right: Tag{Name: "c"},
	}
	if !reflect.DeepEqual(node, Node(expected)) {
		t.Errorf("expected %#v, got %#v", expected, node)
	}
}

func TestParse_DoubleNegation(t *testing.T) {
	node, err := Parse("NOT NOT a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := Not{Inner: Not{Inner: Tag{Name: "a"}}}
	if !reflect.DeepEqual(node, Node(expected)) {
		t.Errorf("expected %#v, got %#v", expected, node)
	}
}

func TestParse_LeftAssociativity(t *testing.T) {
	node, err := Parse("a AND b AND c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := And{
		Left:  And{Left: Tag{Name: "a"}, Right: Tag{Name: "b"}},
		Right: Tag{Name: "c"},
	}
	if !reflect.DeepEqual(node, Node(expected)) {
		t.Errorf("expected %#v, got %#v", expected, node)
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unclosed bracket", "[cat"},
		{"stray closing bracket", "cat]"},
		{"empty brackets", "[]"},
		{"trailing operator", "cat AND"},
		{"leading binary operator", "AND cat"},
		{"double operator", "cat AND OR dog"},
		{"bare operator", "OR"},
		{"bare not", "NOT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Parse(tt.query)
			if err == nil {
				t.Fatalf("query %q: expected error, got %#v", tt.query, node)
			}
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Errorf("query %q: expected *SyntaxError, got %T", tt.query, err)
			}
		})
	}
}

func TestParse_SyntaxErrorCarriesToken(t *testing.T) {
	_, err := Parse("cat AND OR dog")

	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if syntaxErr.Kind != "OR" {
		t.Errorf("expected offending token kind OR, got %q", syntaxErr.Kind)
	}
	if !strings.Contains(syntaxErr.Error(), "OR") {
		t.Errorf("expected error message to name the token, got %q", syntaxErr.Error())
	}
}

func TestParse_DeepNestingRejected(t *testing.T) {
	query := strings.Repeat("[", 600) + "a" + strings.Repeat("]", 600)

	_, err := Parse(query)
	if err == nil {
		t.Fatal("expected error for excessive nesting")
	}
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("expected *SyntaxError, got %T", err)
	}
}

func TestParse_StringRoundTrip(t *testing.T) {
	tests := []string{
		"a AND b",
		"a OR b AND c",
		"[a OR b] AND c",
		"NOT a",
		"NOT [a OR b]",
	}

	for _, query := range tests {
		node, err := Parse(query)
		if err != nil {
			t.Fatalf("query %q: unexpected error: %v", query, err)
		}
		if node.String() != query {
			t.Errorf("expected %q to round-trip, got %q", query, node.String())
		}
	}
}
