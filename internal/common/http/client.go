// internal/common/http/client.go
package http

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
	"strings"
	"time"
)

// BrowserUserAgent is sent on image downloads; several logo hosts refuse
// requests that do not look like a browser.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client is an http.Client that fills in default headers on every request.
type Client struct {
	httpClient *http.Client
	headers    http.Header
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    http.Header{},
	}
}

// NewBrowserClient returns a client whose requests carry browser-like
// User-Agent, Accept and fetch metadata headers.
func NewBrowserClient(timeout time.Duration) *Client {
	c := NewClient(timeout)
	c.headers.Set("User-Agent", BrowserUserAgent)
	c.headers.Set("Accept", "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8")
	c.headers.Set("Accept-Language", "en-US,en;q=0.9")
	c.headers.Set("Cache-Control", "no-cache")
	c.headers.Set("Sec-Fetch-Dest", "image")
	c.headers.Set("Sec-Fetch-Mode", "no-cors")
	c.headers.Set("Sec-Fetch-Site", "cross-site")
	return c
}

// WithTransport swaps the underlying transport, mainly for tests.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	c.httpClient.Transport = rt
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for k, vals := range c.headers {
		if req.Header.Get(k) != "" {
			continue
		}
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	return c.httpClient.Do(req)
}

// IsTLSError reports whether err came from certificate verification or the
// TLS handshake.
func IsTLSError(err error) bool {
	if err == nil {
		return false
	}
	var (
		unknownAuth x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		certErr     x509.CertificateInvalidError
		recordErr   tls.RecordHeaderError
		verifyErr   *tls.CertificateVerificationError
	)
	switch {
	case errors.As(err, &unknownAuth), errors.As(err, &hostErr), errors.As(err, &certErr),
		errors.As(err, &recordErr), errors.As(err, &verifyErr):
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "x509:") || strings.Contains(msg, "tls:")
}
