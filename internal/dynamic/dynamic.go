// Package dynamic implements the Dynamic Rewriter Helper (spec §4.4): the
// small runtime module embedded once in the output bundle that performs
// the equivalent of the Static Rewriter's pipeline for URLs synthesized at
// replay time in the browser.
//
// This package is the Go-side twin of the embedded JS asset (asset.go):
// both implement the same pipeline against the same fuzzy rule source
// (internal/fuzzy.DefaultRules), so the test suite can assert
// offline/online parity (spec §8) without executing JavaScript. Keeping
// two hand-written implementations of "the same pipeline" is the whole
// point of the exercise spec.md describes — see DESIGN.md's note on the
// "Shared rule source" design constraint.
package dynamic

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/kiwix/warc2zim-rewriter/internal/canon"
	"github.com/kiwix/warc2zim-rewriter/internal/rewrite"
)

// Context is the per-request configuration the helper needs to rewrite a
// URL synthesized at runtime (spec §3 "Document context" plus
// bundle_prefix, which only the Dynamic Helper consumes).
type Context struct {
	CurrentURL     string
	OriginalHost   string
	OriginalScheme string
	OriginalURL    string
	BundlePrefix   string
}

// Helper ties the Context-independent pipeline (the Canonicalizer) to the
// per-call rewriting logic.
type Helper struct {
	Canon *canon.Canonicalizer
}

// New returns a Helper using the given Canonicalizer (normally the same
// instance, carrying the same injected fuzzy rules, used to build the
// Static Rewriter — spec §9 "Global state").
func New(c *canon.Canonicalizer) *Helper {
	return &Helper{Canon: c}
}

var schemePrefix = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*):`)

// Rewrite implements spec §4.4's rewrite(url, ...) entry point: the same
// pipeline as the Static Rewriter (spec §4.3), except it emits absolute
// URLs rooted at ctx.BundlePrefix instead of relative links (since it runs
// in unknown DOM contexts), and it applies the already-rewritten heuristic
// to avoid double-rewriting a URL the Static Rewriter already processed.
func (h *Helper) Rewrite(ctx Context, rawURL string) string {
	s := strings.TrimSpace(rawURL)

	if s == "" || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "{") || strings.HasPrefix(s, "*") {
		return rawURL
	}
	if m := schemePrefix.FindStringSubmatch(s); m != nil {
		scheme := strings.ToLower(m[1])
		if scheme != "http" && scheme != "https" {
			return rawURL
		}
	}

	doc, err := rewrite.NewDocument(ctx.OriginalURL, hostPathOf(ctx), nil)
	if err != nil {
		return rawURL
	}

	if rewrite.AlreadyRewritten(doc, s) {
		return rawURL
	}

	rw := rewrite.New(h.Canon)
	targetPath, ok := rw.ResolveAndCanonicalize(doc, s)
	if !ok {
		// "If percent-decoding the path fails (malformed encoding), the
		// helper attempts a best-effort percent-encoding of the raw input
		// before re-parsing." (spec §4.4)
		targetPath, ok = rw.ResolveAndCanonicalize(doc, bestEffortEncode(s))
		if !ok {
			return rawURL
		}
	}

	return ctx.BundlePrefix + rewrite.PercentEncode(targetPath)
}

// hostPathOf derives the canonical path of the document currently loaded
// in the browser (ctx.CurrentURL, falling back to OriginalURL), used only
// to evaluate the already-rewritten heuristic's path-depth check.
func hostPathOf(ctx Context) string {
	docURL := ctx.CurrentURL
	if docURL == "" {
		docURL = ctx.OriginalURL
	}
	u, err := url.Parse(docURL)
	if err != nil {
		return ""
	}
	return u.Host + u.Path
}

// bestEffortEncode percent-encodes each byte of raw input that failed to
// parse as a URL, except unreserved characters, RFC 3986 reserved
// delimiters and "%", so a second parse attempt has a chance of
// succeeding (spec §4.4).
func bestEffortEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case strings.IndexByte("-_.~:/?#[]@!$&'()*+,;=%", c) >= 0:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xF])
		}
	}
	return b.String()
}
