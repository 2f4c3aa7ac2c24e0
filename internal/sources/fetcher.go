// Package sources fetches and cleans the reference documents used to
// ground LLM answers. Fetches fan out concurrently; a failing or slow
// source is excluded without affecting the others, and an empty result set
// is a valid degraded outcome.
package sources

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxSources caps how many URLs are fetched per request.
	MaxSources = 6
	// MaxSourceChars caps the cleaned text kept per source.
	MaxSourceChars = 1800

	defaultTimeout = 10 * time.Second

	// Read a bounded amount of the raw body; cleanup shrinks it further.
	maxBodyBytes = 1 << 20
)

var (
	scriptPattern     = regexp.MustCompile(`(?is)<script.*?</script>`)
	stylePattern      = regexp.MustCompile(`(?is)<style.*?</style>`)
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Source is one cleaned grounding document.
type Source struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Fetcher retrieves grounding documents over HTTP.
type Fetcher struct {
	client *http.Client
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher with the given per-request timeout.
// A non-positive timeout selects the default.
func NewFetcher(logger zerolog.Logger, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch retrieves up to MaxSources URLs concurrently and returns the
// sources that yielded non-empty cleaned text, in input order. Individual
// failures are logged and skipped, never returned as errors.
func (f *Fetcher) Fetch(ctx context.Context, urls []string) []Source {
	if len(urls) > MaxSources {
		urls = urls[:MaxSources]
	}
	if len(urls) == 0 {
		return nil
	}

	results := make([]Source, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		g.Go(func() error {
			text, err := f.fetchOne(ctx, url)
			if err != nil {
				f.logger.Warn().Err(err).Str("url", url).Msg("grounding source skipped")
				return nil
			}
			results[i] = Source{URL: url, Text: text}
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]Source, 0, len(results))
	for _, source := range results {
		if source.Text != "" {
			kept = append(kept, source)
		}
	}

	f.logger.Debug().
		Int("requested", len(urls)).
		Int("kept", len(kept)).
		Msg("grounding sources fetched")

	return kept
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &statusError{url: url, status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}

	cleaned := StripHTML(string(body))
	if len(cleaned) > MaxSourceChars {
		cleaned = cleaned[:MaxSourceChars]
	}
	return cleaned, nil
}

// StripHTML removes script and style blocks, drops the remaining markup,
// and collapses whitespace runs into single spaces.
func StripHTML(html string) string {
	text := scriptPattern.ReplaceAllString(html, " ")
	text = stylePattern.ReplaceAllString(text, " ")
	text = tagPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

type statusError struct {
	url    string
	status int
}

func (e *statusError) Error() string {
	return "unexpected status " + http.StatusText(e.status) + " fetching " + e.url
}
