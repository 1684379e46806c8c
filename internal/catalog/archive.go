package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	domerrors "github.com/oulookup/oubot/internal/errors"
	"github.com/oulookup/oubot/internal/fetch"
	"github.com/oulookup/oubot/internal/logger"
)

// archiveTitleRegex extracts the title from a Digital Archive module page.
// The match runs over the raw body on purpose: the archive serves titles with
// HTML entities intact and downstream output must preserve them verbatim.
var archiveTitleRegex = regexp.MustCompile(
	`<title>[a-zA-Z]{1,3}[0-9]{1,3} (.*) - Open University Digital Archive</title>`,
)

// ArchiveScraper is the last-resort lookup against the public Digital Archive
// pages. Archive hits carry no landing-page URL.
type ArchiveScraper struct {
	baseURL string
	fetcher *fetch.Client
	logger  *logger.Logger
}

// NewArchiveScraper creates an archive-page scraper rooted at baseURL.
func NewArchiveScraper(baseURL string, fetcher *fetch.Client, log *logger.Logger) *ArchiveScraper {
	return &ArchiveScraper{
		baseURL: baseURL,
		fetcher: fetcher,
		logger:  log.WithModule("archive"),
	}
}

// Find fetches the archive page for a code and extracts its title.
// Returns nil when the page is missing or its title does not match.
func (a *ArchiveScraper) Find(ctx context.Context, code string) (*Result, error) {
	pageURL := fmt.Sprintf("%s/library/digital-archive/module/xcri:%s", a.baseURL, code)

	body, err := a.fetcher.GetBody(ctx, pageURL, nil)
	if err != nil {
		// A missing archive page is a normal miss, not a failure.
		var queryErr *domerrors.QueryError
		if errors.As(err, &queryErr) && queryErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	match := archiveTitleRegex.FindSubmatch(body)
	if match == nil {
		return nil, nil
	}

	return &Result{Code: code, Title: string(match[1])}, nil
}
