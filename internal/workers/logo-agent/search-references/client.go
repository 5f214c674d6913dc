// internal/workers/logo-agent/search-references/client.go
package searchreferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	apperrors "logo-workers/internal/common/errors"
	commonhttp "logo-workers/internal/common/http"
	"logo-workers/internal/common/metrics"
	"logo-workers/internal/common/validation"
	"logo-workers/internal/models"
)

const (
	strategyImage   = "image"
	strategyWeb     = "web"
	strategySnippet = "snippet"

	imageSearchPath = "/images/search"
	webSearchPath   = "/web/search"
)

// Hosts known to block hotlinking or automated downloads.
var deniedHosts = []string{
	"shutterstock", "gettyimages", "istockphoto", "alamy", "dreamstime",
	"123rf", "depositphotos", "pinterest", "facebook", "instagram",
}

// Hosts that generally serve logo files to anonymous clients.
var allowedHosts = []string{
	"wikimedia", "wikipedia", "githubusercontent", "seeklogo", "brandfetch",
	"logos-world", "1000logos", "worldvectorlogo",
}

var (
	disallowedQueryChars = regexp.MustCompile(`[^\p{L}\p{N}\s&'.+-]`)
	whitespace           = regexp.MustCompile(`\s+`)
	logoWord             = regexp.MustCompile(`(?i)\blogos?\b`)
)

// Client is the reference search client. One Client shares one throttle, so
// every caller using it is spaced by Config.MinInterval.
type Client struct {
	config   *Config
	http     *http.Client
	fetcher  *commonhttp.Client
	throttle *Throttle
	logger   Logger
}

func NewClient(config *Config, log Logger) *Client {
	return &Client{
		config:   config,
		http:     &http.Client{Timeout: config.Timeout},
		fetcher:  commonhttp.NewBrowserClient(config.FetchTimeout),
		throttle: NewThrottle(config.MinInterval),
		logger:   log,
	}
}

// NormalizeQuery strips disallowed characters, collapses whitespace and
// appends "logo" when absent.
func NormalizeQuery(query string) string {
	q := collapse(disallowedQueryChars.ReplaceAllString(query, " "))
	if q == "" {
		return ""
	}
	if !logoWord.MatchString(q) {
		q += " logo"
	}
	return q
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Search returns up to maxResults ranked candidates. The image endpoint is
// tried first; malformed-query and other recoverable failures fall back to
// the web endpoint. Invalid credentials, rate limiting and timeouts are
// returned as they are.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	q := NormalizeQuery(query)
	if q == "" {
		return nil, apperrors.NewSearchMalformedQueryError(query)
	}
	if maxResults <= 0 {
		maxResults = c.config.MaxResults
	}
	if c.config.APIKey == "" {
		return nil, apperrors.NewSearchInvalidCredentialsError("api key is not configured")
	}

	results, err := c.imageSearch(ctx, q, maxResults)
	if err == nil && len(results) > 0 {
		return results, nil
	}
	if isTerminal(err) {
		return nil, err
	}

	fields := map[string]interface{}{"query": q}
	if err != nil {
		fields["error"] = err.Error()
	}
	c.logger.Warn("image search unusable, falling back to web search", fields)

	results, err = c.webImageSearch(ctx, q, maxResults)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, apperrors.NewSearchNoResultsError(q)
	}
	return results, nil
}

// SearchSnippets returns plain web results for design-trend extraction.
func (c *Client) SearchSnippets(ctx context.Context, query string, count int) ([]models.Snippet, error) {
	q := collapse(query)
	if q == "" {
		return nil, apperrors.NewSearchMalformedQueryError(query)
	}
	if c.config.APIKey == "" {
		return nil, apperrors.NewSearchInvalidCredentialsError("api key is not configured")
	}

	var body braveWebResponse
	params := url.Values{"q": {q}, "count": {strconv.Itoa(count)}, "search_lang": {"en"}}
	if err := c.get(ctx, strategySnippet, webSearchPath, params, &body); err != nil {
		return nil, err
	}

	snippets := make([]models.Snippet, 0, len(body.Web.Results))
	for _, r := range body.Web.Results {
		if len(snippets) >= count {
			break
		}
		snippets = append(snippets, models.Snippet{Title: r.Title, Description: r.Description, URL: r.URL})
	}
	return snippets, nil
}

func (c *Client) imageSearch(ctx context.Context, q string, maxResults int) ([]models.SearchResult, error) {
	var body braveImageResponse
	params := url.Values{
		"q":           {q},
		"count":       {strconv.Itoa(requestCount(maxResults))},
		"safesearch":  {"strict"},
		"search_lang": {"en"},
	}
	if err := c.get(ctx, strategyImage, imageSearchPath, params, &body); err != nil {
		return nil, err
	}

	candidates := make([]models.SearchResult, 0, len(body.Results))
	for _, r := range body.Results {
		host := r.MetaURL.Hostname
		if host == "" {
			host = r.Source
		}
		if host == "" {
			host = hostOf(r.URL)
		}
		candidates = append(candidates, models.SearchResult{
			ImageURL:      r.Properties.URL,
			ThumbnailURL:  r.Thumbnail.Src,
			SourcePageURL: r.URL,
			Hostname:      host,
			Title:         r.Title,
			Width:         r.Properties.Width,
			Height:        r.Properties.Height,
		})
	}
	return c.rank(candidates, maxResults), nil
}

func (c *Client) webImageSearch(ctx context.Context, q string, maxResults int) ([]models.SearchResult, error) {
	var body braveWebResponse
	params := url.Values{"q": {q}, "count": {strconv.Itoa(requestCount(maxResults))}}
	if err := c.get(ctx, strategyWeb, webSearchPath, params, &body); err != nil {
		if isTerminal(err) {
			return nil, err
		}
		c.logger.Warn("web search fallback failed", map[string]interface{}{
			"query": q,
			"error": err.Error(),
		})
		return nil, apperrors.NewSearchNoResultsError(q)
	}

	candidates := make([]models.SearchResult, 0, len(body.Web.Results))
	for _, r := range body.Web.Results {
		if r.Thumbnail.Src == "" {
			continue
		}
		image := r.Thumbnail.Original
		if image == "" {
			image = r.Thumbnail.Src
		}
		host := r.MetaURL.Hostname
		if host == "" {
			host = hostOf(r.URL)
		}
		candidates = append(candidates, models.SearchResult{
			ImageURL:      image,
			ThumbnailURL:  r.Thumbnail.Src,
			SourcePageURL: r.URL,
			Hostname:      host,
			Title:         r.Title,
			Description:   r.Description,
		})
	}
	return c.rank(candidates, maxResults), nil
}

// get performs one throttled call against the search API and decodes the
// JSON body into out.
func (c *Client) get(ctx context.Context, strategy, endpoint string, params url.Values, out interface{}) error {
	if err := c.throttle.Wait(ctx); err != nil {
		c.observe(strategy, "timeout")
		return apperrors.NewSearchTimeoutError(params.Get("q"))
	}

	reqURL := strings.TrimRight(c.config.BaseURL, "/") + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", strategy, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			c.observe(strategy, "timeout")
			return apperrors.NewSearchTimeoutError(params.Get("q"))
		}
		c.observe(strategy, "network_error")
		return fmt.Errorf("%s search: %w", strategy, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		c.observe(strategy, "invalid_credentials")
		return apperrors.NewSearchInvalidCredentialsError(fmt.Sprintf("status %d", resp.StatusCode))
	case http.StatusTooManyRequests:
		c.observe(strategy, "rate_limited")
		return apperrors.NewSearchRateLimitedError()
	case http.StatusUnprocessableEntity:
		c.observe(strategy, "malformed_query")
		return apperrors.NewSearchMalformedQueryError(params.Get("q"))
	default:
		io.Copy(io.Discard, resp.Body)
		c.observe(strategy, "http_"+strconv.Itoa(resp.StatusCode))
		return fmt.Errorf("%s search returned %d", strategy, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.observe(strategy, "decode_error")
		return fmt.Errorf("decode %s response: %w", strategy, err)
	}
	c.observe(strategy, "success")
	return nil
}

func (c *Client) observe(strategy, outcome string) {
	metrics.ReferenceSearchRequests.WithLabelValues(strategy, outcome).Inc()
}

// rank filters, scores, sorts by (priority, area) descending, dedupes by
// image URL and keeps at most max results.
func (c *Client) rank(candidates []models.SearchResult, max int) []models.SearchResult {
	kept := make([]models.SearchResult, 0, len(candidates))
	for _, r := range candidates {
		if !validation.ValidateURL(r.ImageURL) {
			if !validation.ValidateURL(r.ThumbnailURL) {
				continue
			}
			r.ImageURL = r.ThumbnailURL
		}
		if matchesHost(r, deniedHosts) {
			continue
		}
		if r.Width > 0 && r.Height > 0 &&
			(r.Width < c.config.MinResultDimension || r.Height < c.config.MinResultDimension) {
			continue
		}
		r.IsAccessible = matchesHost(r, allowedHosts)
		r.Priority = priority(r)
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Priority != kept[j].Priority {
			return kept[i].Priority > kept[j].Priority
		}
		return kept[i].Area() > kept[j].Area()
	})

	seen := make(map[string]bool, len(kept))
	out := make([]models.SearchResult, 0, max)
	for _, r := range kept {
		if seen[r.ImageURL] {
			continue
		}
		seen[r.ImageURL] = true
		out = append(out, r)
		if len(out) == max {
			break
		}
	}
	return out
}

func priority(r models.SearchResult) int {
	p := 0
	if r.IsAccessible {
		p += 3
	}
	title := strings.ToLower(r.Title)
	if strings.Contains(title, "logo") {
		p += 2
	}
	switch strings.ToLower(path.Ext(pathOf(r.ImageURL))) {
	case ".svg", ".png":
		p++
	}
	if strings.Contains(title, "official") || strings.Contains(strings.ToLower(r.Description), "official") {
		p++
	}
	return p
}

func matchesHost(r models.SearchResult, hosts []string) bool {
	candidates := []string{
		strings.ToLower(r.Hostname),
		hostOf(r.ImageURL),
		hostOf(r.SourcePageURL),
	}
	for _, h := range hosts {
		for _, c := range candidates {
			if c != "" && strings.Contains(c, h) {
				return true
			}
		}
	}
	return false
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

func requestCount(maxResults int) int {
	n := maxResults * 4
	if n > 20 {
		n = 20
	}
	if n < maxResults {
		n = maxResults
	}
	return n
}

// isTerminal reports failures that must not fall back to another strategy.
func isTerminal(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrCodeSearchInvalidCredentials) ||
		apperrors.HasCode(err, apperrors.ErrCodeSearchRateLimited) ||
		apperrors.HasCode(err, apperrors.ErrCodeSearchTimeout)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
