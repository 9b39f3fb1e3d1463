// Package warcsrc adapts github.com/datatogether/warc into
// convert.RecordStream, the only point where internal/convert's core
// touches concrete WARC I/O (spec §1 treats "WARC I/O and iteration" as an
// external collaborator).
package warcsrc

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/datatogether/warc"

	"github.com/kiwix/warc2zim-rewriter/internal/convert"
)

// Stream reads response and revisit records out of a single WARC file,
// producing convert.Record values in the file's natural order (spec §5
// "original fetch order" assumption for module propagation).
type Stream struct {
	r *warc.Reader
}

// Open wraps an already-open WARC byte stream in a reader created with
// github.com/datatogether/warc's NewReader.
func Open(src io.Reader) *Stream {
	return &Stream{r: warc.NewReader(src)}
}

// Next implements convert.RecordStream. Non-response/revisit record types
// (warcinfo, request, metadata) are skipped transparently; the caller never
// sees them.
func (s *Stream) Next() (convert.Record, error) {
	for {
		rec, err := s.r.ReadRecord()
		if errors.Is(err, io.EOF) {
			return convert.Record{}, convert.ErrStreamDone
		}
		if err != nil {
			return convert.Record{}, err
		}

		switch rec.Type {
		case warc.RESPONSE, warc.REVISIT:
		default:
			continue
		}

		out, ok := decodeRecord(rec)
		if !ok {
			continue
		}
		return out, nil
	}
}

// decodeRecord parses the embedded HTTP response carried by a WARC
// response/revisit record's content block, extracting status, media type,
// redirect target, and a lazily-materialized body.
func decodeRecord(rec *warc.Record) (convert.Record, bool) {
	raw, err := io.ReadAll(rec.Content)
	if err != nil {
		return convert.Record{}, false
	}

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil)
	if err != nil {
		return convert.Record{}, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return convert.Record{}, false
	}

	return convert.Record{
		ID:             rec.Header.Get("WARC-Record-ID"),
		OriginalURL:    rec.TargetUri(),
		MediaType:      resp.Header.Get("Content-Type"),
		RecordType:     recordTypeHint(resp.Header.Get("Content-Type")),
		Status:         resp.StatusCode,
		RedirectTarget: resp.Header.Get("Location"),
		Payload: func() ([]byte, error) {
			return body, nil
		},
	}, true
}

// recordTypeHint derives spec §3's authoritative "record-type hint" from
// the embedded response's Content-Type when the WARC record itself carries
// no stronger signal (github.com/datatogether/warc doesn't distinguish
// document/stylesheet/script at the WARC layer — that's an HTTP-level
// concept replay tooling usually infers the same way).
func recordTypeHint(contentType string) string {
	switch {
	case bytes.Contains([]byte(contentType), []byte("html")):
		return "document"
	case bytes.Contains([]byte(contentType), []byte("css")):
		return "stylesheet"
	case bytes.Contains([]byte(contentType), []byte("javascript")),
		bytes.Contains([]byte(contentType), []byte("ecmascript")):
		return "script"
	default:
		return ""
	}
}
