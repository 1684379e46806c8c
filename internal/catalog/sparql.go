package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	domerrors "github.com/oulookup/oubot/internal/errors"
	"github.com/oulookup/oubot/internal/fetch"
	"github.com/oulookup/oubot/internal/logger"
)

// Query templates for the data.open.ac.uk graphs. The %s placeholder takes an
// exact-match FILTER on the code.
const (
	xcriQuery = `
PREFIX xcri: <http://xcri.org/profiles/catalog/1.2/>
PREFIX dc: <http://purl.org/dc/elements/1.1/>
PREFIX mlo: <http://purl.org/net/mlo/>
PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>

SELECT ?id ?title ?url ?type
FROM <http://data.open.ac.uk/context/xcri> WHERE {
  ?course a xcri:course .
  ?course xcri:internalID ?id .
  ?course dc:title ?title .
  ?course mlo:url ?url .
  ?course rdf:type ?type
  FILTER (STRSTARTS ( STR ( ?type ), "http://data.open.ac.uk/ontology/" ))
  %s
}
`

	xcriQualificationsQuery = `
PREFIX mlo: <http://purl.org/net/mlo/>
PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
PREFIX vocab: <http://purl.org/vocab/aiiso/schema#>

SELECT ?id ?title ?url ?type
FROM <http://data.open.ac.uk/context/qualification> WHERE {
  ?qualification vocab:code ?id .
  ?qualification vocab:name ?title .
  ?qualification mlo:url ?url .
  ?qualification rdf:type ?type
  FILTER (STRSTARTS ( STR ( ?type ), "http://data.open.ac.uk/saou/ontology" ))
  %s
}
`

	oldCoursesQuery = `
PREFIX aiiso: <http://purl.org/vocab/aiiso/schema#>
PREFIX dcterms: <http://purl.org/dc/terms/>

SELECT ?id ?title
FROM <http://data.open.ac.uk/context/oldcourses> WHERE {
  ?course a aiiso:Module .
  ?course aiiso:code ?id .
  ?course dcterms:title ?title
  %s
}
`
)

// SparqlClient queries the structured catalogs on data.open.ac.uk.
type SparqlClient struct {
	endpoint string
	fetcher  *fetch.Client
	logger   *logger.Logger
}

// NewSparqlClient creates a SPARQL catalog client.
func NewSparqlClient(endpoint string, fetcher *fetch.Client, log *logger.Logger) *SparqlClient {
	return &SparqlClient{
		endpoint: endpoint,
		fetcher:  fetcher,
		logger:   log.WithModule("sparql"),
	}
}

// sparqlResponse mirrors the application/sparql-results+json envelope.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Query runs one SPARQL query with offset/limit appended, returning one map
// of variable name to value per binding.
func (c *SparqlClient) Query(ctx context.Context, query string, offset, limit int) ([]map[string]string, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("%s offset %d limit %d", query, offset, limit))

	body, err := c.fetcher.GetBody(ctx, c.endpoint+"?"+params.Encode(), map[string]string{
		"Accept": "application/sparql-results+json",
	})
	if err != nil {
		return nil, err
	}

	var parsed sparqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domerrors.NewParseError(c.endpoint, err)
	}

	rows := make([]map[string]string, 0, len(parsed.Results.Bindings))
	for _, binding := range parsed.Results.Bindings {
		row := make(map[string]string, len(binding))
		for name, cell := range binding {
			row[name] = cell.Value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// exactFilter builds the exact-match FILTER for a normalized code.
func exactFilter(code string) string {
	return fmt.Sprintf(`FILTER(?id = "%s")`, code)
}

// FindCurrent looks up a code in the current catalogs: courses first, then
// qualifications. Returns nil when neither graph has the code.
func (c *SparqlClient) FindCurrent(ctx context.Context, code string) (*Result, error) {
	filter := exactFilter(code)

	courses, err := c.Query(ctx, fmt.Sprintf(xcriQuery, filter), 0, 1)
	if err != nil {
		return nil, err
	}
	if len(courses) > 0 {
		return rowToResult(code, courses[0]), nil
	}

	qualifications, err := c.Query(ctx, fmt.Sprintf(xcriQualificationsQuery, filter), 0, 1)
	if err != nil {
		return nil, err
	}
	if len(qualifications) > 0 {
		return rowToResult(code, qualifications[0]), nil
	}

	return nil, nil
}

// FindLegacy looks up a code in the oldcourses graph.
func (c *SparqlClient) FindLegacy(ctx context.Context, code string) (*Result, error) {
	rows, err := c.Query(ctx, fmt.Sprintf(oldCoursesQuery, exactFilter(code)), 0, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rowToResult(code, rows[0]), nil
	}
	return nil, nil
}

func rowToResult(code string, row map[string]string) *Result {
	result := &Result{Code: code, Title: row["title"]}
	if u, ok := row["url"]; ok && u != "" {
		result.URL = &u
	}
	return result
}
