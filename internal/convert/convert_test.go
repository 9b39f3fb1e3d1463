package convert_test

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiwix/warc2zim-rewriter/internal/canon"
	"github.com/kiwix/warc2zim-rewriter/internal/convert"
	"github.com/kiwix/warc2zim-rewriter/internal/fuzzy"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newCanonicalizer() *canon.Canonicalizer {
	return canon.New(fuzzy.NewEngine(fuzzy.DefaultRules))
}

// fakeStream replays a fixed slice of records, then ErrStreamDone.
type fakeStream struct {
	records []convert.Record
	i       int
}

func (s *fakeStream) Next() (convert.Record, error) {
	if s.i >= len(s.records) {
		return convert.Record{}, convert.ErrStreamDone
	}
	r := s.records[s.i]
	s.i++
	return r, nil
}

func payloadOf(s string) func() ([]byte, error) {
	return func() ([]byte, error) { return []byte(s), nil }
}

// fakeSink records every Put/PutAlias call for assertions.
type fakeSink struct {
	content map[string][]byte
	alias   map[string]string
}

func newFakeSink() *fakeSink {
	return &fakeSink{content: make(map[string][]byte), alias: make(map[string]string)}
}

func (s *fakeSink) Put(canonicalPath string, content []byte, mediaType string) error {
	if _, ok := s.content[canonicalPath]; ok {
		return convert.ErrCollision
	}
	s.content[canonicalPath] = content
	return nil
}

func (s *fakeSink) PutAlias(canonicalPath, aliasOf string) error {
	if _, ok := s.alias[canonicalPath]; ok {
		return convert.ErrCollision
	}
	s.alias[canonicalPath] = aliasOf
	return nil
}

func TestPass1_BuildsKnownPathSetFromContentRecords(t *testing.T) {
	stream := &fakeStream{records: []convert.Record{
		{ID: "1", OriginalURL: "https://www.example.com/a.html", Status: 200},
		{ID: "2", OriginalURL: "https://www.example.com/b.html", Status: 301, RedirectTarget: "https://www.example.com/a.html"},
		{ID: "3", OriginalURL: "https://www.example.com/c.png", Status: 404},
	}}
	known, err := convert.Pass1(stream, newCanonicalizer(), testLogger())
	require.NoError(t, err)
	assert.True(t, known.Contains("www.example.com/a.html"))
	assert.False(t, known.Contains("www.example.com/b.html"))
	assert.False(t, known.Contains("www.example.com/c.png"))
	assert.Equal(t, 1, known.Len())
}

func TestPass1_SkipsInvalidRecordURL(t *testing.T) {
	stream := &fakeStream{records: []convert.Record{
		{ID: "1", OriginalURL: "ftp://example.com/a", Status: 200},
		{ID: "2", OriginalURL: "https://example.com/b.html", Status: 200},
	}}
	known, err := convert.Pass1(stream, newCanonicalizer(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, known.Len())
	assert.True(t, known.Contains("example.com/b.html"))
}

func TestPass2_WritesContentRecord(t *testing.T) {
	c := newCanonicalizer()
	known := convert.NewKnownPathSet()
	known.Add("www.example.com/a.html")

	stream := &fakeStream{records: []convert.Record{
		{
			ID:          "1",
			OriginalURL: "https://www.example.com/a.html",
			MediaType:   "text/html",
			RecordType:  "document",
			Status:      200,
			Payload:     payloadOf(`<html><body><a href="https://www.example.com/b.html">x</a></body></html>`),
		},
	}}
	sink := newFakeSink()
	stats, err := convert.Pass2(stream, c, known, sink, convert.Pass2Options{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Written)
	assert.Equal(t, 0, stats.Skipped)
	body, ok := sink.content["www.example.com/a.html"]
	require.True(t, ok)
	assert.Contains(t, string(body), `href="./b.html"`)
}

func TestPass2_RedirectToKnownTargetIsAliased(t *testing.T) {
	c := newCanonicalizer()
	known := convert.NewKnownPathSet()
	known.Add("www.example.com/a.html")

	stream := &fakeStream{records: []convert.Record{
		{ID: "1", OriginalURL: "https://www.example.com/old.html", Status: 301, RedirectTarget: "https://www.example.com/a.html"},
	}}
	sink := newFakeSink()
	stats, err := convert.Pass2(stream, c, known, sink, convert.Pass2Options{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Aliased)
	assert.Equal(t, "www.example.com/a.html", sink.alias["www.example.com/old.html"])
}

func TestPass2_RedirectToUnknownTargetIsDropped(t *testing.T) {
	c := newCanonicalizer()
	known := convert.NewKnownPathSet()

	stream := &fakeStream{records: []convert.Record{
		{ID: "1", OriginalURL: "https://www.example.com/old.html", Status: 302, RedirectTarget: "https://www.example.com/missing.html"},
	}}
	sink := newFakeSink()
	stats, err := convert.Pass2(stream, c, known, sink, convert.Pass2Options{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Aliased)
	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, sink.alias)
}

func TestPass2_EmptyPayloadIsSkipped(t *testing.T) {
	c := newCanonicalizer()
	known := convert.NewKnownPathSet()
	known.Add("www.example.com/a.html")

	stream := &fakeStream{records: []convert.Record{
		{ID: "1", OriginalURL: "https://www.example.com/a.html", MediaType: "text/html", Status: 200, Payload: payloadOf("")},
	}}
	sink := newFakeSink()
	stats, err := convert.Pass2(stream, c, known, sink, convert.Pass2Options{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Written)
	assert.Equal(t, 1, stats.Skipped)
}

func TestPass2_OtherStatusIsSkipped(t *testing.T) {
	c := newCanonicalizer()
	known := convert.NewKnownPathSet()

	stream := &fakeStream{records: []convert.Record{
		{ID: "1", OriginalURL: "https://www.example.com/missing.html", Status: 404},
	}}
	sink := newFakeSink()
	stats, err := convert.Pass2(stream, c, known, sink, convert.Pass2Options{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, sink.content)
}

func TestPass2_ModuleScriptDiscoveryMarksLaterRecordAsModule(t *testing.T) {
	c := newCanonicalizer()
	known := convert.NewKnownPathSet()
	known.Add("www.example.com/a.html")
	known.Add("www.example.com/mod.js")

	stream := &fakeStream{records: []convert.Record{
		{
			ID:          "1",
			OriginalURL: "https://www.example.com/a.html",
			MediaType:   "text/html",
			RecordType:  "document",
			Status:      200,
			Payload:     payloadOf(`<html><body><script type="module" src="https://www.example.com/mod.js"></script></body></html>`),
		},
		{
			ID:          "2",
			OriginalURL: "https://www.example.com/mod.js",
			MediaType:   "text/javascript",
			RecordType:  "script",
			Status:      200,
			// Bare specifier import untouched; relative one rewritten to the
			// same "./sibling.js". Classic-mode rewriting gives the same
			// bytes for this payload (spec §4.4).
			Payload: payloadOf(`import x from "./sibling.js"; import y from "bare";`),
		},
	}}
	sink := newFakeSink()
	stats, err := convert.Pass2(stream, c, known, sink, convert.Pass2Options{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Written)
	modBody := string(sink.content["www.example.com/mod.js"])
	assert.Contains(t, modBody, `from "./sibling.js"`)
	assert.Contains(t, modBody, `from "bare"`)
}
