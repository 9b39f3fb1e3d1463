package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiwix/warc2zim-rewriter/internal/canon"
	"github.com/kiwix/warc2zim-rewriter/internal/fuzzy"
	"github.com/kiwix/warc2zim-rewriter/internal/rewrite"
)

func newRewriter(t *testing.T) *rewrite.Rewriter {
	t.Helper()
	return rewrite.New(canon.New(fuzzy.NewEngine(fuzzy.DefaultRules)))
}

func TestRewriteRef_Example1(t *testing.T) {
	rw := newRewriter(t)
	d, err := rewrite.NewDocument(
		"https://www.example.com/path1/resource1.html",
		"www.example.com/path1/resource1.html",
		nil,
	)
	require.NoError(t, err)

	got, changed := rw.RewriteRef(d, "https://www.example.com/javascript/content.txt")
	assert.True(t, changed)
	assert.Equal(t, "../javascript/content.txt", got)
}

func TestRewriteRef_Example2_SchemeRelative(t *testing.T) {
	rw := newRewriter(t)
	d, err := rewrite.NewDocument(
		"https://www.example.com/path1/resource1.html",
		"www.example.com/path1/resource1.html",
		nil,
	)
	require.NoError(t, err)

	got, changed := rw.RewriteRef(d, "//www.example.com/javascript/content.txt")
	assert.True(t, changed)
	assert.Equal(t, "../javascript/content.txt", got)
}

func TestRewriteRef_Example3_QueryPercentEncoded(t *testing.T) {
	rw := newRewriter(t)
	d, err := rewrite.NewDocument(
		"https://www.example.com/path1/resource1.html",
		"www.example.com/path1/resource1.html",
		nil,
	)
	require.NoError(t, err)

	got, changed := rw.RewriteRef(d, "https://www.example.com/javascript/content.txt?query=value")
	assert.True(t, changed)
	assert.Contains(t, got, "content.txt%3Fquery%3Dvalue")
}

func TestRewriteRef_Example5_AnchorOnlyPassesThrough(t *testing.T) {
	rw := newRewriter(t)
	d, err := rewrite.NewDocument(
		"https://www.example.com/path1/resource1.html",
		"www.example.com/path1/resource1.html",
		nil,
	)
	require.NoError(t, err)

	got, changed := rw.RewriteRef(d, "#anchor")
	assert.False(t, changed)
	assert.Equal(t, "#anchor", got)
}

func TestRewriteRef_Example6_SameDirectory(t *testing.T) {
	rw := newRewriter(t)
	d, err := rewrite.NewDocument(
		"https://en.wikipedia.org/wiki/Kiwix",
		"en.wikipedia.org/wiki/Kiwix",
		nil,
	)
	require.NoError(t, err)

	got, changed := rw.RewriteRef(d, "https://en.wikipedia.org/wiki/File:Kiwix_logo_v3.svg")
	assert.True(t, changed)
	assert.Equal(t, "./File:Kiwix_logo_v3.svg", got)
}

func TestRewriteRef_NonNavigationalSchemePassesThrough(t *testing.T) {
	rw := newRewriter(t)
	d, err := rewrite.NewDocument("https://example.com/a.html", "example.com/a.html", nil)
	require.NoError(t, err)

	for _, raw := range []string{
		"data:image/png;base64,abc",
		"mailto:a@b.com",
		"javascript:void(0)",
		"blob:https://example.com/uuid",
	} {
		got, changed := rw.RewriteRef(d, raw)
		assert.False(t, changed, raw)
		assert.Equal(t, raw, got, raw)
	}
}

func TestRewriteRef_InvalidReferenceLeftUnmodified(t *testing.T) {
	rw := newRewriter(t)
	d, err := rewrite.NewDocument("https://example.com/a.html", "example.com/a.html", nil)
	require.NoError(t, err)

	got, changed := rw.RewriteRef(d, "ftp://example.com/file")
	assert.False(t, changed)
	assert.Equal(t, "ftp://example.com/file", got)
}

func TestRewriteRef_BaseHrefAffectsResolution(t *testing.T) {
	rw := newRewriter(t)
	d, err := rewrite.NewDocument(
		"https://www.example.com/path1/resource1.html",
		"www.example.com/path1/resource1.html",
		nil,
	)
	require.NoError(t, err)
	d.SetBase("https://www.example.com/other/")

	got, changed := rw.RewriteRef(d, "sibling.txt")
	assert.True(t, changed)
	assert.Equal(t, "../other/sibling.txt", got)
}

func TestPercentEncode_PreservesUnreserved(t *testing.T) {
	got := rewrite.PercentEncode("a-b_c.d~e/f")
	assert.Equal(t, "a-b_c.d~e/f", got)
}

func TestPercentEncode_LeavesBrowserLaxCharsDecoded(t *testing.T) {
	got := rewrite.PercentEncode("file'name!(1)*.txt")
	assert.Equal(t, "file'name!(1)*.txt", got)
}

func TestPercentEncode_EncodesQueryDelimiters(t *testing.T) {
	got := rewrite.PercentEncode("path?query=value")
	assert.Equal(t, "path%3Fquery%3Dvalue", got)
}

func TestAlreadyRewritten_DetectsClimbPastHost(t *testing.T) {
	// Document canonical path "www.example.com/a/b/c.html" has directory
	// depth 3 (www.example.com, a, b); relativize() can climb at most 3
	// levels from here, so a reference climbing a 4th level into a
	// hostname-looking segment is the heuristic's positive case (spec
	// §4.3/§9).
	d, err := rewrite.NewDocument(
		"https://www.example.com/a/b/c.html",
		"www.example.com/a/b/c.html",
		nil,
	)
	require.NoError(t, err)

	assert.True(t, rewrite.AlreadyRewritten(d, "../../../../other.com/x.txt"))
}

func TestAlreadyRewritten_OwnHostRelativeLinkIsNotFlagged(t *testing.T) {
	// The Static Rewriter's own cross-directory, same-host output (spec
	// example 1) must not itself be mistaken for an already-rewritten
	// cross-host link.
	d, err := rewrite.NewDocument(
		"https://www.example.com/path1/resource1.html",
		"www.example.com/path1/resource1.html",
		nil,
	)
	require.NoError(t, err)

	assert.False(t, rewrite.AlreadyRewritten(d, "../javascript/content.txt"))
}

func TestAlreadyRewritten_OrdinaryRelativeLinkIsNotFlagged(t *testing.T) {
	d, err := rewrite.NewDocument(
		"https://www.example.com/path1/resource1.html",
		"www.example.com/path1/resource1.html",
		nil,
	)
	require.NoError(t, err)

	assert.False(t, rewrite.AlreadyRewritten(d, "../other.html"))
	assert.False(t, rewrite.AlreadyRewritten(d, "./sibling.html"))
}
