package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zero-day-ai/rlmemory/memory"
)

func TestTerm_Canonical(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{name: "uri", term: URI("http://example.org/a"), want: "<http://example.org/a>"},
		{name: "plain literal", term: Literal("cat"), want: `"cat"`},
		{name: "escaped literal", term: Literal(`say "hi"`), want: `"say \"hi\""`},
		{name: "typed literal", term: TypedLiteral("1", "http://www.w3.org/2001/XMLSchema#int"), want: `"1"^^<http://www.w3.org/2001/XMLSchema#int>`},
		{name: "legacy typed literal", term: Term{Type: TermTypedLiteral, Value: "NAN", Datatype: "http://www.w3.org/2001/XMLSchema#float"}, want: `"NAN"^^<http://www.w3.org/2001/XMLSchema#float>`},
		{name: "language literal", term: Term{Type: TermLiteral, Value: "chat", Lang: "fr"}, want: `"chat"@fr`},
		{name: "blank node", term: Term{Type: TermBlankNode, Value: "b0"}, want: "_:b0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term.Canonical())
		})
	}
}

func TestSPARQLBuilder(t *testing.T) {
	var b SPARQLBuilder

	assert.Equal(t,
		"SELECT DISTINCT ?attr ?value WHERE {\n    <http://example.org/a> ?attr ?value .\n}",
		b.RetrieveQuery("<http://example.org/a>"),
	)

	got := b.MatchQuery(memory.Record{"<p2>": "<o2>", "<p1>": `"x"`}, 3)
	assert.Equal(t,
		"SELECT DISTINCT ?concept WHERE {\n    ?concept <p1> \"x\" ; <p2> <o2> ;\n        <http://xmlns.com/foaf/0.1/name> ?__name__ .\n} ORDER BY ?__name__ LIMIT 1 OFFSET 3",
		got,
	)

	custom := SPARQLBuilder{NameProperty: "<http://www.w3.org/2000/01/rdf-schema#label>"}
	assert.Contains(t, custom.MatchQuery(memory.Record{"<p>": "<o>"}, 0), "<http://www.w3.org/2000/01/rdf-schema#label> ?__name__")
}
