package convert

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/kiwix/warc2zim-rewriter/internal/canon"
)

// Pass1 implements spec §2's first pass: iterate the record stream once,
// canonicalizing each content-bearing record's original URL into the known-
// path set. Pass 1 never reads payloads — only status and original URL are
// needed.
func Pass1(stream RecordStream, c *canon.Canonicalizer, log zerolog.Logger) (*KnownPathSet, error) {
	known := NewKnownPathSet()

	for {
		rec, err := stream.Next()
		if errors.Is(err, ErrStreamDone) {
			return known, nil
		}
		if err != nil {
			return known, err
		}

		if classifyStatus(rec.Status) != statusContent {
			continue
		}

		cp, err := c.Canonicalize(rec.OriginalURL)
		if err != nil {
			// InvalidUrl on a record URL: skip the record (spec §7).
			log.Warn().Str("record_id", rec.ID).Str("url", rec.OriginalURL).
				Msg("pass1: skipping record with invalid url")
			continue
		}
		known.Add(cp)
	}
}
