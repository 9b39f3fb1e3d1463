package convert

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/kiwix/warc2zim-rewriter/internal/canon"
	"github.com/kiwix/warc2zim-rewriter/internal/rewrite"
)

// Stats tallies the "written, aliased, or skipped" summary spec §7 requires.
type Stats struct {
	Written int
	Aliased int
	Skipped int
}

// Pass2Options configures the Static Rewriter's header injection and custom
// CSS link for every HTML document it rewrites.
type Pass2Options struct {
	HeaderSnippet rewrite.HeaderInjector
	CustomCSSLink string
}

// Pass2 implements spec §2's second pass: re-read the stream, rewrite
// content-bearing records through the Static Rewriter, and turn redirect
// records into aliases when their target is a known path. known must be the
// KnownPathSet built by Pass1 over the same stream.
func Pass2(stream RecordStream, c *canon.Canonicalizer, known *KnownPathSet, sink EntrySink, opts Pass2Options, log zerolog.Logger) (Stats, error) {
	var stats Stats
	classifier := newModuleClassifier()
	rw := rewrite.New(c)

	for {
		rec, err := stream.Next()
		if errors.Is(err, ErrStreamDone) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		switch classifyStatus(rec.Status) {
		case statusSkip:
			stats.Skipped++
		case statusRedirect:
			handleRedirect(rec, c, known, sink, &stats, log)
		case statusContent:
			handleContent(rec, c, rw, known, classifier, opts, sink, &stats, log)
		}
	}
}

func handleRedirect(rec Record, c *canon.Canonicalizer, known *KnownPathSet, sink EntrySink, stats *Stats, log zerolog.Logger) {
	cp, err := c.Canonicalize(rec.OriginalURL)
	if err != nil {
		log.Warn().Str("record_id", rec.ID).Str("url", rec.OriginalURL).
			Msg("pass2: skipping redirect record with invalid source url")
		stats.Skipped++
		return
	}
	if rec.RedirectTarget == "" {
		stats.Skipped++
		return
	}
	targetCP, err := c.Canonicalize(rec.RedirectTarget)
	if err != nil || !known.Contains(targetCP) {
		// Open Question Q2 resolution: a redirect whose target falls outside
		// the known-path set is dropped rather than aliased to a dangling
		// entry (spec §9).
		stats.Skipped++
		return
	}
	if err := sink.PutAlias(cp, targetCP); err != nil {
		log.Warn().Str("record_id", rec.ID).Err(err).Msg("pass2: alias write failed")
		stats.Skipped++
		return
	}
	stats.Aliased++
}

func handleContent(rec Record, c *canon.Canonicalizer, rw *rewrite.Rewriter, known *KnownPathSet,
	classifier *moduleClassifier, opts Pass2Options, sink EntrySink, stats *Stats, log zerolog.Logger) {

	cp, err := c.Canonicalize(rec.OriginalURL)
	if err != nil {
		log.Warn().Str("record_id", rec.ID).Str("url", rec.OriginalURL).
			Msg("pass2: skipping content record with invalid url")
		stats.Skipped++
		return
	}

	payload, err := rec.Payload()
	if err != nil {
		log.Warn().Str("record_id", rec.ID).Err(err).Msg("pass2: payload read failed")
		stats.Skipped++
		return
	}
	if len(payload) == 0 {
		// EmptyPayload: silently dropped (spec §7).
		stats.Skipped++
		return
	}

	doc, err := rewrite.NewDocument(rec.OriginalURL, cp, known)
	if err != nil {
		stats.Skipped++
		return
	}

	class := rewrite.InferMediaClass(rec.RecordType, rec.MediaType, classifier.IsModule(cp))

	htmlOpts := rewrite.HTMLOptions{
		HeaderSnippet: opts.HeaderSnippet,
		CustomCSSLink: opts.CustomCSSLink,
		OnModuleScript: func(discoveredPath string) {
			classifier.MarkModule(discoveredPath)
		},
	}

	rewritten, err := rw.Rewrite(doc, class, payload, htmlOpts)
	if err != nil {
		// ParseError: fall back to passthrough with the original bytes
		// (spec §7); rw.Rewrite already returns the original payload on
		// failure, so rewritten here is the passthrough value.
		log.Warn().Str("record_id", rec.ID).Str("url", rec.OriginalURL).Err(err).
			Msg("pass2: parse error, passing through original payload")
	}

	if class == rewrite.JSModuleClass {
		for _, spec := range rewrite.DiscoverModuleImports(payload) {
			if importCP, ok := rw.ResolveAndCanonicalize(doc, spec); ok {
				classifier.MarkModule(importCP)
			}
		}
	}

	if err := sink.Put(cp, rewritten, rec.MediaType); err != nil {
		if errors.Is(err, ErrCollision) {
			// Collision: alias creation only makes sense when the colliding
			// write targets a different canonical path than what's already
			// there, which by construction (same cp) it never does here, so
			// this is always a silent drop (spec §7).
			stats.Skipped++
			return
		}
		log.Warn().Str("record_id", rec.ID).Err(err).Msg("pass2: content write failed")
		stats.Skipped++
		return
	}
	stats.Written++
}
