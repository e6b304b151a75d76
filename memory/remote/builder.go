package remote

import (
	"fmt"
	"strings"

	"github.com/zero-day-ai/rlmemory/memory"
)

// Result variables bound by the queries of a QueryBuilder.
const (
	VarAttr    = "attr"
	VarValue   = "value"
	VarConcept = "concept"
)

// DefaultNameProperty orders match results.
const DefaultNameProperty = "<http://xmlns.com/foaf/0.1/name>"

// QueryBuilder renders the two queries the remote store issues.
type QueryBuilder interface {
	// RetrieveQuery selects every (VarAttr, VarValue) pair of id.
	RetrieveQuery(id string) string

	// MatchQuery selects at most one VarConcept carrying every attribute of
	// attrs, skipping offset results of a stable ordering.
	MatchQuery(attrs memory.Record, offset int) string
}

// SPARQLBuilder renders SPARQL SELECT queries. Attribute names and values are
// inserted verbatim, so they must already be in wire form (e.g. <iri> or
// "1979-11-30"^^xsd:date).
type SPARQLBuilder struct {
	// NameProperty is the predicate used to order match results.
	// Defaults to DefaultNameProperty.
	NameProperty string
}

var _ QueryBuilder = SPARQLBuilder{}

// RetrieveQuery implements QueryBuilder.
func (b SPARQLBuilder) RetrieveQuery(id string) string {
	return fmt.Sprintf("SELECT DISTINCT ?%s ?%s WHERE {\n    %s ?%s ?%s .\n}", VarAttr, VarValue, id, VarAttr, VarValue)
}

// MatchQuery implements QueryBuilder. Conditions are rendered in attribute order.
func (b SPARQLBuilder) MatchQuery(attrs memory.Record, offset int) string {
	name := b.NameProperty
	if name == "" {
		name = DefaultNameProperty
	}

	conditions := make([]string, 0, len(attrs))
	for _, attr := range attrs.Keys() {
		conditions = append(conditions, fmt.Sprintf("%s %v", attr, attrs[attr]))
	}

	return fmt.Sprintf(
		"SELECT DISTINCT ?%s WHERE {\n    ?%s %s ;\n        %s ?__name__ .\n} ORDER BY ?__name__ LIMIT 1 OFFSET %d",
		VarConcept, VarConcept, strings.Join(conditions, " ; "), name, offset,
	)
}
