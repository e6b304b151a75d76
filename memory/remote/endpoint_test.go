package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/rlmemory/memory"
)

const resultsJSON = `{
  "head": {"vars": ["attr", "value"]},
  "results": {"bindings": [
    {"attr": {"type": "uri", "value": "http://dbpedia.org/ontology/releaseDate"},
     "value": {"type": "literal", "value": "1979-11-30", "datatype": "http://www.w3.org/2001/XMLSchema#date"}},
    {"attr": {"type": "uri", "value": "http://www.w3.org/2000/01/rdf-schema#label"},
     "value": {"type": "literal", "value": "The Wall", "xml:lang": "en"}}
  ]}
}`

func TestSPARQLEndpoint_ExecuteQuery(t *testing.T) {
	var gotQuery, gotAccept, gotUser string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("query")
		gotAccept = r.Header.Get("Accept")
		gotUser, _, _ = r.BasicAuth()

		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(resultsJSON))
	}))
	defer server.Close()

	endpoint := NewSPARQLEndpoint(server.URL, WithBasicAuth("reader", "secret"), WithHTTPClient(server.Client()))
	query := SPARQLBuilder{}.RetrieveQuery(theWall)

	bindings, err := endpoint.ExecuteQuery(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, query, gotQuery)
	assert.Equal(t, "application/sparql-results+json", gotAccept)
	assert.Equal(t, "reader", gotUser)

	require.Len(t, bindings, 2)
	assert.Equal(t, releaseDate, bindings[0][VarAttr].Canonical())
	assert.Equal(t, `"1979-11-30"^^<http://www.w3.org/2001/XMLSchema#date>`, bindings[0][VarValue].Canonical())
	assert.Equal(t, `"The Wall"@en`, bindings[1][VarValue].Canonical())
}

func TestSPARQLEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewSPARQLEndpoint(server.URL).ExecuteQuery(context.Background(), "SELECT * WHERE {}")
			assert.ErrorIs(t, err, memory.ErrSourceFailed)
		})
	}
}

func TestSPARQLEndpoint_WithStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(resultsJSON))
	}))
	defer server.Close()

	s := New(NewSPARQLEndpoint(server.URL))
	rec, err := s.Retrieve(context.Background(), theWall)
	require.NoError(t, err)
	assert.Equal(t, `"1979-11-30"^^<http://www.w3.org/2001/XMLSchema#date>`, rec[releaseDate])
	assert.Equal(t, `"The Wall"@en`, rec["<http://www.w3.org/2000/01/rdf-schema#label>"])
}
