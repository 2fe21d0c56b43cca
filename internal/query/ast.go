package query

import "fmt"

// Node is one node of a parsed query tree. Trees are built bottom-up by Parse
// and never mutated afterwards. The set of implementations is closed: Tag,
// And, Or, Not, Bracket, and AllImages.
type Node interface {
	fmt.Stringer
	node()
}

// Tag matches every image carrying the named tag.
type Tag struct {
	Name string
}

// And matches images matched by both sides.
type And struct {
	Left, Right Node
}

// Or matches images matched by either side.
type Or struct {
	Left, Right Node
}

// Not matches every in-scope image its operand does not match.
type Not struct {
	Inner Node
}

// Bracket is explicit grouping. It evaluates exactly as its inner expression;
// it exists so parsed queries round-trip with their brackets intact.
type Bracket struct {
	Inner Node
}

// AllImages matches every image in scope. Produced for an empty query.
type AllImages struct{}

func (Tag) node()       {}
func (And) node()       {}
func (Or) node()        {}
func (Not) node()       {}
func (Bracket) node()   {}
func (AllImages) node() {}

func (n Tag) String() string       { return n.Name }
func (n And) String() string       { return fmt.Sprintf("%s AND %s", n.Left, n.Right) }
func (n Or) String() string        { return fmt.Sprintf("%s OR %s", n.Left, n.Right) }
func (n Not) String() string       { return fmt.Sprintf("NOT %s", n.Inner) }
func (n Bracket) String() string   { return fmt.Sprintf("[%s]", n.Inner) }
func (n AllImages) String() string { return "" }
