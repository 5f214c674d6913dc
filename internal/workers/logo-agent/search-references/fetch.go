// internal/workers/logo-agent/search-references/fetch.go
package searchreferences

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
	"golang.org/x/net/html"

	apperrors "logo-workers/internal/common/errors"
	commonhttp "logo-workers/internal/common/http"
	"logo-workers/internal/common/metrics"
	"logo-workers/internal/common/validation"
	"logo-workers/internal/models"
)

// FetchImage downloads and decodes a selected result. The full image URL is
// tried first, then the thumbnail; each URL gets up to FetchAttempts tries
// for retryable failures. An HTML page is followed once through its
// og:image tag.
func (c *Client) FetchImage(ctx context.Context, result models.SearchResult) (*models.ReferenceImage, error) {
	var lastErr error
	for _, u := range candidateURLs(result) {
		ref, err := c.fetchWithRetry(ctx, u, result.SourcePageURL)
		if err == nil {
			ref.Result = result
			metrics.ReferenceImageFetches.WithLabelValues("success").Inc()
			c.logger.Info("reference image fetched", map[string]interface{}{
				"url":    u,
				"format": ref.Format,
				"width":  ref.Width,
				"height": ref.Height,
			})
			return ref, nil
		}

		lastErr = err
		c.logger.Warn("reference image fetch failed", map[string]interface{}{
			"url":   u,
			"error": err.Error(),
		})
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = apperrors.NewFetchNetworkError(result.ImageURL, errors.New("no downloadable url"))
	}
	outcome := "error"
	if code, ok := apperrors.CodeOf(lastErr); ok {
		outcome = strings.ToLower(string(code))
	}
	metrics.ReferenceImageFetches.WithLabelValues(outcome).Inc()
	return nil, lastErr
}

func candidateURLs(r models.SearchResult) []string {
	var urls []string
	for _, u := range []string{r.ImageURL, r.ThumbnailURL} {
		if !validation.ValidateURL(u) {
			continue
		}
		dup := false
		for _, seen := range urls {
			if seen == u {
				dup = true
			}
		}
		if !dup {
			urls = append(urls, u)
		}
	}
	return urls
}

func (c *Client) fetchWithRetry(ctx context.Context, rawURL, referer string) (*models.ReferenceImage, error) {
	var lastErr error
	for attempt := 0; attempt < c.config.FetchAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, apperrors.NewFetchNetworkError(rawURL, ctx.Err())
			}
		}

		ref, err := c.fetchOnce(ctx, rawURL, referer, true)
		if err == nil {
			return ref, nil
		}
		lastErr = err

		var stdErr *apperrors.StandardError
		if !errors.As(err, &stdErr) || !stdErr.Retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, rawURL, referer string, followPage bool) (*models.ReferenceImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.NewFetchNetworkError(rawURL, err)
	}
	if validation.ValidateURL(referer) {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.fetcher.Do(req)
	if err != nil {
		if commonhttp.IsTLSError(err) {
			return nil, apperrors.NewFetchSSLError(rawURL, err)
		}
		return nil, apperrors.NewFetchNetworkError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.NewFetchHTTPStatusError(rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxImageBytes+1))
	if err != nil {
		return nil, apperrors.NewFetchNetworkError(rawURL, err)
	}
	if int64(len(body)) > c.config.MaxImageBytes {
		return nil, apperrors.NewImageDecodeError(rawURL, fmt.Errorf("body exceeds %d bytes", c.config.MaxImageBytes))
	}

	if isHTML(resp.Header.Get("Content-Type"), body) {
		if !followPage {
			return nil, apperrors.NewImageDecodeError(rawURL, errors.New("got an html page instead of an image"))
		}
		og := ogImage(bytes.NewReader(body), resp.Request.URL)
		if og == "" {
			return nil, apperrors.NewImageDecodeError(rawURL, errors.New("html page has no og:image"))
		}
		return c.fetchOnce(ctx, og, rawURL, false)
	}

	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewImageDecodeError(rawURL, err)
	}
	b := img.Bounds()
	if b.Dx() < c.config.MinImageDimension || b.Dy() < c.config.MinImageDimension {
		return nil, apperrors.NewImageTooSmallError(rawURL, b.Dx(), b.Dy())
	}

	return &models.ReferenceImage{
		Image:     img,
		Format:    format,
		Width:     b.Dx(),
		Height:    b.Dy(),
		SourceURL: rawURL,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 256)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// ogImage returns the absolute og:image (or twitter:image) URL declared in
// the document head.
func ogImage(body io.Reader, base *url.URL) string {
	z := html.NewTokenizer(body)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "body" {
				return ""
			}
			if tok.Data != "meta" {
				continue
			}
			var property, content string
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "property", "name":
					property = strings.ToLower(a.Val)
				case "content":
					content = strings.TrimSpace(a.Val)
				}
			}
			if content == "" {
				continue
			}
			switch property {
			case "og:image", "og:image:url", "og:image:secure_url", "twitter:image":
				ref, err := url.Parse(content)
				if err != nil {
					continue
				}
				if base != nil {
					ref = base.ResolveReference(ref)
				}
				if validation.ValidateURL(ref.String()) {
					return ref.String()
				}
			}
		}
	}
}
