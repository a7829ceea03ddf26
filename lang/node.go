package lang

import "strings"

// Node is an element of a parsed template.
type Node interface {
	node()
	String() string
}

// Literal is raw template text: a number, string, whitespace, or a stray
// operator at the top level.
type Literal struct {
	Token Token
}

// Call invokes a registry function with resolved arguments.
type Call struct {
	Name   string // lowercase, without the marker
	Args   []Node
	Offset int
}

// Ident references a call-local argument or an environment constant.
// Ident nodes only occur inside the body of a [Define].
type Ident struct {
	Name string
}

// Define installs a function into the per-evaluation overlay. Invoking the
// function binds Params to the call arguments and evaluates Body.
type Define struct {
	Name   string
	Params []string
	Body   Node
}

func (Literal) node() {}
func (Call) node()    {}
func (Ident) node()   {}
func (Define) node()  {}

func (n Literal) String() string { return n.Token.Value }

func (n Call) String() string {
	var b strings.Builder

	b.WriteRune(Marker)
	b.WriteString(strings.ToUpper(n.Name))
	b.WriteByte('(')

	for i, arg := range n.Args {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(arg.String())
	}

	b.WriteByte(')')

	return b.String()
}

func (n Ident) String() string { return n.Name }

func (n Define) String() string {
	return "def " + n.Name + "(" + strings.Join(n.Params, ", ") + ") = " +
		n.Body.String()
}

// Template is a parsed template ready for evaluation. Templates are
// immutable and safe to share between goroutines.
type Template struct {
	Source string
	Nodes  []Node
}

// Calls returns the number of call nodes in t, including nested calls.
func (t *Template) Calls() int {
	var count func(Node) int

	count = func(n Node) int {
		switch n := n.(type) {
		case Call:
			c := 1
			for _, arg := range n.Args {
				c += count(arg)
			}

			return c

		case Define:
			return count(n.Body)

		default:
			return 0
		}
	}

	total := 0
	for _, n := range t.Nodes {
		total += count(n)
	}

	return total
}

// String reproduces the template in canonical form.
func (t *Template) String() string {
	var b strings.Builder

	for _, n := range t.Nodes {
		b.WriteString(n.String())
	}

	return b.String()
}
