// Package source reads lamp test logs from local files or HTTP(S) URLs.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps remote downloads. Lamp test logs are a few MB at most.
const maxBodySize = 64 * 1024 * 1024

// ErrUnsupportedScheme is returned for URLs other than http and https.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// ErrUnknownEncoding is returned by LookupEncoding for unsupported names.
var ErrUnknownEncoding = errors.New("unknown encoding")

// Reader loads the full text of a lamp test log.
type Reader struct {
	httpClient *http.Client
	timeout    time.Duration
	encoding   encoding.Encoding // nil means UTF-8
}

// Option configures a Reader.
type Option func(*Reader)

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Reader) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithEncoding decodes input from a single-byte character set.
func WithEncoding(enc encoding.Encoding) Option {
	return func(r *Reader) {
		r.encoding = enc
	}
}

// WithHTTPClient replaces the HTTP client used for remote inputs.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Reader) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// NewReader creates a Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsURL reports whether location looks like a URL rather than a path.
func IsURL(location string) bool {
	return strings.Contains(location, "://")
}

// ReadAll returns the decoded text at location.
func (r *Reader) ReadAll(ctx context.Context, location string) (string, error) {
	var data []byte
	var err error
	if IsURL(location) {
		data, err = r.fetch(ctx, location)
	} else {
		data, err = os.ReadFile(location) // #nosec G304 -- user-provided paths are expected
		if err != nil {
			err = fmt.Errorf("reading %s: %w", location, err)
		}
	}
	if err != nil {
		return "", err
	}

	if r.encoding != nil {
		decoded, _, err := transform.Bytes(r.encoding.NewDecoder(), data)
		if err != nil {
			return "", fmt.Errorf("decoding %s: %w", location, err)
		}
		data = decoded
	}
	return string(data), nil
}

func (r *Reader) fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", location, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "lamptest")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching %s: status %d", location, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// LookupEncoding maps a configuration name to a decoder. "" and "utf-8"
// return nil, meaning no decoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	default:
		return nil, fmt.Errorf("%w %q (use utf-8, windows-1252, iso-8859-1 or iso-8859-15)", ErrUnknownEncoding, name)
	}
}
