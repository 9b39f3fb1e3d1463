// Package canon implements the URL Canonicalizer: it turns a captured
// absolute URL into the canonical internal path used to address entries in
// the output bundle.
package canon

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"

	"github.com/kiwix/warc2zim-rewriter/internal/fuzzy"
)

// ErrInvalidURL is returned when a URL cannot be parsed, carries a scheme
// other than http/https, or lacks a host.
var ErrInvalidURL = errors.New("canon: invalid url")

var multiSlash = regexp.MustCompile(`/{2,}`)

// Canonicalizer turns absolute URLs into canonical paths. It carries the
// fuzzy rule list as injected configuration (never a process-wide
// singleton), so tests can substitute alternate rule sets.
type Canonicalizer struct {
	Rules *fuzzy.Engine
}

// New returns a Canonicalizer using the given fuzzy rule engine. A nil
// engine is treated as an engine with no rules.
func New(rules *fuzzy.Engine) *Canonicalizer {
	return &Canonicalizer{Rules: rules}
}

// Canonicalize implements spec §4.1: parse, drop scheme/port/userinfo/
// fragment, punycode-decode and lowercase the host, percent-decode the path
// once (substituting "/" for an empty path), collapse runs of "/" in the
// combined path+query, percent-decode the query once converting "+" to
// space, then apply the fuzzy rule engine.
func (c *Canonicalizer) Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrInvalidURL
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if u.Host == "" {
		return "", ErrInvalidURL
	}

	host, err := decodeHost(u.Hostname())
	if err != nil {
		return "", ErrInvalidURL
	}

	path := u.EscapedPath()
	decodedPath, err := url.PathUnescape(path)
	if err != nil {
		// Fall back to the raw (still percent-encoded) path rather than
		// fail the whole record; a reference that fails to decode is
		// handled by the caller per spec §7.
		decodedPath = path
	}
	if decodedPath == "" {
		decodedPath = "/"
	}

	combined := decodedPath
	if u.RawQuery != "" {
		// url.QueryUnescape percent-decodes and converts "+" to space in
		// one step, exactly the query-only substitution spec §3/§4.1
		// requires (the path's "+" is left untouched above).
		query, qerr := url.QueryUnescape(u.RawQuery)
		if qerr != nil {
			query = u.RawQuery
		}
		combined = decodedPath + "?" + query
	}

	combined = multiSlash.ReplaceAllString(combined, "/")

	result := host + combined
	if c.Rules != nil {
		result = c.Rules.Apply(result)
	}
	return result, nil
}

// decodeHost converts a punycode (xn--...) host label set to Unicode and
// lowercases the result. Hosts without punycode labels pass through
// lowercased unchanged.
func decodeHost(host string) (string, error) {
	if host == "" {
		return "", ErrInvalidURL
	}
	decoded, err := idna.ToUnicode(host)
	if err != nil {
		// idna.ToUnicode is lenient but can still fail on malformed
		// punycode; fall back to the raw (lowercased) host rather than
		// reject the whole URL.
		decoded = host
	}
	return strings.ToLower(decoded), nil
}
