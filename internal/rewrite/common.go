// Package rewrite implements the Static Rewriter (spec §4.3): the HTML,
// CSS, and JS sub-rewriters that turn every reference inside a payload
// into a relative link resolving inside the bundle.
package rewrite

import (
	"net/url"
	"strings"

	"github.com/kiwix/warc2zim-rewriter/internal/canon"
)

// Document is the per-payload document context (spec §3 "Document
// context"), minus BundlePrefix which only the Dynamic Helper needs — the
// Static Rewriter emits purely relative links.
type Document struct {
	OriginalURL   string
	CanonicalPath string
	base          *url.URL // effective base, updated by <base href>
	KnownPaths    KnownPaths
}

// KnownPaths is the read-only set of canonical paths declared by pass 1
// (spec §3 "Known-path set"). Consultation is advisory: a path absent from
// the set is still rewritten, since the bundle may resolve it via alias or
// fuzzy equivalence at replay time (spec §4.3).
type KnownPaths interface {
	Contains(canonicalPath string) bool
}

// NewDocument builds a Document for one payload. originalURL is the URL the
// payload was captured from; canonicalPath is its own canonical path
// (already computed by the Canonicalizer on pass 1/2).
func NewDocument(originalURL, canonicalPath string, known KnownPaths) (*Document, error) {
	base, err := url.Parse(originalURL)
	if err != nil {
		return nil, canon.ErrInvalidURL
	}
	return &Document{
		OriginalURL:   originalURL,
		CanonicalPath: canonicalPath,
		base:          base,
		KnownPaths:    known,
	}, nil
}

// SetBase updates the effective document base, honoring an HTML <base
// href> element for subsequent resolution within the same document (spec
// §4.3.1).
func (d *Document) SetBase(raw string) {
	resolved, err := d.base.Parse(raw)
	if err != nil {
		return
	}
	d.base = resolved
}

// Rewriter ties the common pipeline to a Canonicalizer.
type Rewriter struct {
	Canon *canon.Canonicalizer
}

// New returns a Rewriter using the given Canonicalizer.
func New(c *canon.Canonicalizer) *Rewriter {
	return &Rewriter{Canon: c}
}

// RewriteRef runs the common pipeline (spec §4.3) on one reference found in
// attribute/CSS/JS context. It returns the (possibly unchanged) string to
// emit and whether the pipeline actually rewrote it.
func (rw *Rewriter) RewriteRef(d *Document, raw string) (string, bool) {
	switch classify(raw) {
	case refAnchorOnly, refNonNavigational:
		return raw, false
	}

	if AlreadyRewritten(d, raw) {
		return raw, false
	}

	targetPath, ok := rw.ResolveAndCanonicalize(d, raw)
	if !ok {
		// InvalidUrl on a reference: leave it unmodified (spec §7).
		return raw, false
	}

	rel := relativize(d.CanonicalPath, targetPath)
	return PercentEncode(rel), true
}

// refKind classifies a reference per spec §3 "Reference".
type refKind int

const (
	refAbsolute refKind = iota
	refSchemeRelative
	refAbsolutePath
	refRelative
	refAnchorOnly
	refNonNavigational
)

// classify determines how a raw reference token should be treated, before
// any resolution happens.
func classify(raw string) refKind {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return refNonNavigational
	case strings.HasPrefix(s, "#"):
		return refAnchorOnly
	case strings.HasPrefix(s, "{") || strings.HasPrefix(s, "*"):
		return refNonNavigational
	case hasNonNavigationalScheme(s):
		return refNonNavigational
	case strings.HasPrefix(s, "//"):
		return refSchemeRelative
	case strings.HasPrefix(s, "/"):
		return refAbsolutePath
	case hasScheme(s):
		return refAbsolute
	default:
		return refRelative
	}
}

var nonNavSchemes = []string{"data:", "blob:", "mailto:", "javascript:", "about:", "tel:"}

func hasNonNavigationalScheme(s string) bool {
	lower := strings.ToLower(s)
	for _, scheme := range nonNavSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// hasScheme reports whether s begins with "scheme:" where scheme looks
// like an RFC 3986 scheme (letters, digits, +, -, .). This deliberately
// does not special-case http/https: any scheme-looking prefix not already
// caught by hasNonNavigationalScheme is treated as absolute-with-scheme so
// it goes through canonicalization (which itself rejects non-http(s)
// schemes per spec §4.1 step 1).
func hasScheme(s string) bool {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 {
		return false
	}
	scheme := s[:idx]
	for i, r := range scheme {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigitOrSym := r == '+' || r == '-' || r == '.' || (r >= '0' && r <= '9')
		if i == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !isDigitOrSym {
			return false
		}
	}
	// Drive-letter forms ("c:/x") and scheme-less host:port forms
	// ("localhost:8080/x") also pass this check and are classified as
	// absolute; callers reach it only after refSchemeRelative/
	// refAbsolutePath have already been ruled out.
	return true
}

// ResolveAndCanonicalize implements the first two steps of the common
// pipeline (spec §4.3): resolve the reference against the document's
// current base, then canonicalize.
func (rw *Rewriter) ResolveAndCanonicalize(d *Document, raw string) (canonicalPath string, ok bool) {
	resolved, err := d.base.Parse(raw)
	if err != nil {
		return "", false
	}
	cp, err := rw.Canon.Canonicalize(resolved.String())
	if err != nil {
		return "", false
	}
	return cp, true
}

// RelativeLink exposes relativize to callers outside this package that
// need to address a fixed bundle path (such as the reserved
// "_zim_static/" helper asset) relative to a document's own canonical
// path, using the same "../" logic as every rewritten reference.
func RelativeLink(documentCanonicalPath, targetCanonicalPath string) string {
	return relativize(documentCanonicalPath, targetCanonicalPath)
}

// relativize computes the "../" sequence plus target path needed to reach
// targetCanonicalPath from documentCanonicalPath (spec §4.3 step 3): the
// number of "/" segments separating them, counted from the document's
// containing directory down to the longest shared path prefix, then back
// down into the target's remaining segments.
func relativize(documentCanonicalPath, targetCanonicalPath string) string {
	docSegs := splitSegments(documentCanonicalPath)
	targetSegs := splitSegments(targetCanonicalPath)

	// Directory of the document: drop its last segment (the document
	// itself is a "file", not a "directory").
	var docDir []string
	if len(docSegs) > 0 {
		docDir = docSegs[:len(docSegs)-1]
	}

	common := 0
	for common < len(docDir) && common < len(targetSegs) && docDir[common] == targetSegs[common] {
		common++
	}

	ups := len(docDir) - common
	downs := targetSegs[common:]

	if ups == 0 {
		return "./" + strings.Join(downs, "/")
	}
	return strings.Repeat("../", ups) + strings.Join(downs, "/")
}

// splitSegments splits a canonical path (host+path[?query]) on "/",
// dropping empty segments produced by a leading slash (canonical paths
// never contain one post-collapse, but the host+path join never does
// either).
func splitSegments(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PercentEncode implements spec §4.3 step 4: every octet outside the
// unreserved set is encoded except "/" between path segments, and the "?"
// separating path from query plus "=" inside the query are themselves
// encoded, so downstream intermediaries cannot strip or reinterpret the
// query.
func PercentEncode(relLink string) string {
	var b strings.Builder
	b.Grow(len(relLink) + 8)
	for i := 0; i < len(relLink); i++ {
		c := relLink[i]
		switch {
		case isUnreserved(c):
			b.WriteByte(c)
		case c == '/':
			b.WriteByte(c)
		case c == '?':
			b.WriteString("%3F")
		case c == '=':
			b.WriteString("%3D")
		default:
			b.WriteString(percentByte(c))
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	// Open Question §9/SPEC_FULL.md resolution: these browser-lax reserved
	// characters are left decoded on both the offline and online code
	// paths, so parity holds without either side special-casing them.
	case c == '\'' || c == '!' || c == '*' || c == '(' || c == ')':
		return true
	// ":" and "@" are RFC 3986 pchar and appear literally within a path
	// segment (e.g. MediaWiki's "File:" namespace prefix, spec §8 scenario
	// 6); encoding them would both contradict that scenario's expected
	// output and disagree with relativize(), which never encodes them.
	case c == ':' || c == '@':
		return true
	default:
		return false
	}
}

const hexDigits = "0123456789ABCDEF"

func percentByte(c byte) string {
	return string([]byte{'%', hexDigits[c>>4], hexDigits[c&0xF]})
}

// AlreadyRewritten implements the heuristic from spec §4.3/§9: the
// reference is relative and begins with "../"; the first non-".." segment
// contains a "." (hostname-like); and resolving the reference against the
// document's original URL ends up exactly one path level too high in the
// hierarchy (i.e. it climbs past the host). All three conditions together
// imply a cross-host previously-rewritten link.
func AlreadyRewritten(d *Document, raw string) bool {
	if !strings.HasPrefix(raw, "../") {
		return false
	}
	segs := strings.Split(raw, "/")
	i := 0
	for i < len(segs) && segs[i] == ".." {
		i++
	}
	if i >= len(segs) || !strings.Contains(segs[i], ".") {
		return false
	}
	climbs := i
	docSegs := splitSegments(d.CanonicalPath)
	docDirDepth := 0
	if len(docSegs) > 0 {
		docDirDepth = len(docSegs) - 1
	}
	// "exactly one path level too high": climbing past the host means the
	// reference asks for one more ".." than the document's directory
	// depth provides.
	return climbs == docDirDepth+1
}
