package remote

import (
	"context"
	"strings"
)

// Term types as they appear in SPARQL JSON results.
const (
	TermURI          = "uri"
	TermLiteral      = "literal"
	TermTypedLiteral = "typed-literal"
	TermBlankNode    = "bnode"
)

// Term is one bound value in a query result.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Canonical returns the term in its wire form: <iri>, "text", "text"@lang,
// "text"^^<datatype> or _:label.
func (t Term) Canonical() string {
	switch t.Type {
	case TermURI:
		return "<" + t.Value + ">"
	case TermBlankNode:
		return "_:" + t.Value
	}

	lit := `"` + literalEscaper.Replace(t.Value) + `"`
	switch {
	case t.Datatype != "":
		return lit + "^^<" + t.Datatype + ">"
	case t.Lang != "":
		return lit + "@" + t.Lang
	default:
		return lit
	}
}

// URI returns a URI term.
func URI(iri string) Term {
	return Term{Type: TermURI, Value: iri}
}

// Literal returns a plain literal term.
func Literal(value string) Term {
	return Term{Type: TermLiteral, Value: value}
}

// TypedLiteral returns a literal term with a datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Type: TermLiteral, Value: value, Datatype: datatype}
}

// Binding maps query variable names to their bound terms.
type Binding map[string]Term

// Source is a remote associative knowledge service.
//
// ExecuteQuery blocks until the whole result is available. Implementations
// should honor ctx cancellation.
type Source interface {
	ExecuteQuery(ctx context.Context, query string) ([]Binding, error)
}

// SourceFunc adapts an ordinary function to the Source interface.
type SourceFunc func(ctx context.Context, query string) ([]Binding, error)

// ExecuteQuery calls f.
func (f SourceFunc) ExecuteQuery(ctx context.Context, query string) ([]Binding, error) {
	return f(ctx, query)
}
