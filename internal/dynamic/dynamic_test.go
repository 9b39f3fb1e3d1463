package dynamic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kiwix/warc2zim-rewriter/internal/canon"
	"github.com/kiwix/warc2zim-rewriter/internal/dynamic"
	"github.com/kiwix/warc2zim-rewriter/internal/fuzzy"
)

func newHelper() *dynamic.Helper {
	return dynamic.New(canon.New(fuzzy.NewEngine(fuzzy.DefaultRules)))
}

func baseCtx() dynamic.Context {
	return dynamic.Context{
		CurrentURL:     "https://www.example.com/path1/resource1.html",
		OriginalHost:   "www.example.com",
		OriginalScheme: "https",
		OriginalURL:    "https://www.example.com/path1/resource1.html",
		BundlePrefix:   "http://library/content/myzim/",
	}
}

func TestHelper_Rewrite_Example1(t *testing.T) {
	h := newHelper()
	got := h.Rewrite(baseCtx(), "https://www.example.com/javascript/content.txt")
	assert.Equal(t, "http://library/content/myzim/www.example.com/javascript/content.txt", got)
}

func TestHelper_Rewrite_Example2_SchemeRelative(t *testing.T) {
	h := newHelper()
	got := h.Rewrite(baseCtx(), "//www.example.com/javascript/content.txt")
	assert.Equal(t, "http://library/content/myzim/www.example.com/javascript/content.txt", got)
}

func TestHelper_Rewrite_Example3_QueryEncoded(t *testing.T) {
	h := newHelper()
	got := h.Rewrite(baseCtx(), "https://www.example.com/javascript/content.txt?query=value")
	assert.Contains(t, got, "content.txt%3Fquery%3Dvalue")
}

func TestHelper_Rewrite_AnchorPassesThrough(t *testing.T) {
	h := newHelper()
	got := h.Rewrite(baseCtx(), "#anchor")
	assert.Equal(t, "#anchor", got)
}

func TestHelper_Rewrite_NonNavigationalSchemePassesThrough(t *testing.T) {
	h := newHelper()
	got := h.Rewrite(baseCtx(), "data:image/png;base64,abc")
	assert.Equal(t, "data:image/png;base64,abc", got)
}

func TestHelper_Rewrite_StabilityOnAlreadyRewrittenOutput(t *testing.T) {
	// Already-rewritten stability (spec §8/§4.3): a reference that climbs
	// one level further than the document's directory depth into a
	// hostname-looking segment is treated as a previously-rewritten
	// cross-host link and returned unchanged.
	h := newHelper()
	ctx := dynamic.Context{
		CurrentURL:     "https://www.example.com/a/b/c.html",
		OriginalHost:   "www.example.com",
		OriginalScheme: "https",
		OriginalURL:    "https://www.example.com/a/b/c.html",
		BundlePrefix:   "http://library/content/myzim/",
	}
	// CanonicalPath "www.example.com/a/b/c.html" has directory depth 3, so
	// the heuristic requires a 4th climb to flag this as already-rewritten.
	alreadyRewritten := "../../../../other.com/x.txt"
	got := h.Rewrite(ctx, alreadyRewritten)
	assert.Equal(t, alreadyRewritten, got)
}

func TestInfo_FieldsPopulated(t *testing.T) {
	cfg := dynamic.Info(
		"https://www.example.com/path1/resource1.html",
		"www.example.com",
		"https",
		"https://www.example.com/path1/resource1.html",
		"http://library/content/myzim/",
	)
	assert.Equal(t, "rewrite", cfg.RewriteFunction)
	assert.Equal(t, "http://library/content/myzim/", cfg.Prefix)
	assert.Equal(t, "http://library/content/myzim/_zim_static/", cfg.StaticPrefix)
	assert.Equal(t, "www.example.com", cfg.WombatHost)
	assert.Equal(t, "https", cfg.WombatScheme)
}

func TestAsset_EmbedsFuzzyRules(t *testing.T) {
	js := string(dynamic.Asset())
	assert.Contains(t, js, "FUZZY_RULES")
	assert.Contains(t, js, "youtube-video-info")
}
