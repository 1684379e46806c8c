// Package catalog resolves course, module and qualification codes against the
// Open University catalogs: a static seed cache, the data.open.ac.uk SPARQL
// endpoint (current and legacy graphs), and the Digital Archive pages as a
// last-resort scrape.
package catalog

// Result is a resolved catalog entry. It is produced whole by exactly one
// resolution layer and never partially filled.
type Result struct {
	Code  string
	Title string
	URL   *string // nil when the catalog holds no landing page for the code
}

// HasURL reports whether the entry carries a landing-page URL.
func (r Result) HasURL() bool {
	return r.URL != nil && *r.URL != ""
}
