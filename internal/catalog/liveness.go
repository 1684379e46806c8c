package catalog

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/corpix/uarand"

	"github.com/oulookup/oubot/internal/fetch"
	"github.com/oulookup/oubot/internal/logger"
	"github.com/oulookup/oubot/internal/metrics"
)

// LivenessChecker probes a catalog URL to decide whether the entry is
// genuinely active. Catalogs redirect retired codes to generic landing pages,
// so "active" requires both a 200 and the code surviving in the final URL.
type LivenessChecker struct {
	httpClient     *http.Client
	coursesBaseURL string
	retries        int
	retryDelay     time.Duration
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

// NewLivenessChecker creates a liveness checker. retries is the number of
// additional attempts after a transport failure; retryDelay is the fixed gap
// between attempts.
func NewLivenessChecker(timeout time.Duration, retries int, retryDelay time.Duration, coursesBaseURL string, m *metrics.Metrics, log *logger.Logger) *LivenessChecker {
	return &LivenessChecker{
		httpClient:     &http.Client{Timeout: timeout},
		coursesBaseURL: coursesBaseURL,
		retries:        retries,
		retryDelay:     retryDelay,
		metrics:        m,
		logger:         log.WithModule("liveness"),
	}
}

// Check probes a URL for a code. Returns nil when there is no URL to check,
// otherwise a pointer to the verdict. Transport failure after exhausting
// retries counts as inactive, not unknown.
func (l *LivenessChecker) Check(ctx context.Context, rawURL, code string) *bool {
	if rawURL == "" {
		l.metrics.RecordLivenessCheck("skipped")
		return nil
	}

	active := false
	err := fetch.RetryFixed(ctx, l.retries, l.retryDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", uarand.GetRandom())

		resp, err := l.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, resp.Body)

		finalURL := resp.Request.URL.String()
		correctRedirect := strings.Contains(strings.ToLower(finalURL), strings.ToLower(code))
		active = correctRedirect && resp.StatusCode == http.StatusOK
		return nil
	})
	if err != nil {
		l.logger.WithError(err).
			WithField("url", rawURL).
			WithField("code", code).
			Warn("Liveness probe failed after retries")
		active = false
	}

	if active {
		l.metrics.RecordLivenessCheck("active")
	} else {
		l.metrics.RecordLivenessCheck("inactive")
	}
	return &active
}

// ResolveLink decides which URL, if any, a resolved entry should link to.
//
// Entries with a catalog URL link it only when the probe confirms it active.
// Entries without one may still be live on the course pages (the seed export
// marks some current qualifications as inactive), so the known templates are
// probed with the lowercased code; the first active probe supplies the link.
func (l *LivenessChecker) ResolveLink(ctx context.Context, res Result) string {
	if res.HasURL() {
		if active := l.Check(ctx, *res.URL, res.Code); active != nil && *active {
			return *res.URL
		}
		return ""
	}

	for _, candidate := range l.fallbackURLs(res.Code) {
		if active := l.Check(ctx, candidate, res.Code); active != nil && *active {
			return candidate
		}
	}
	return ""
}

// fallbackURLs returns the course-page templates to probe for a code with no
// catalog URL. Codes shorter than four characters are qualification codes.
func (l *LivenessChecker) fallbackURLs(code string) []string {
	lower := strings.ToLower(code)
	if len(code) < 4 {
		return []string{l.coursesBaseURL + "/qualifications/" + lower}
	}
	return []string{
		l.coursesBaseURL + "/qualifications/details/" + lower,
		l.coursesBaseURL + "/modules/" + lower,
	}
}
