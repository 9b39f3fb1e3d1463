package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/kiwix/warc2zim-rewriter/internal/canon"
	"github.com/kiwix/warc2zim-rewriter/internal/convert"
	"github.com/kiwix/warc2zim-rewriter/internal/dynamic"
	"github.com/kiwix/warc2zim-rewriter/internal/fuzzy"
	"github.com/kiwix/warc2zim-rewriter/internal/rewrite"
	"github.com/kiwix/warc2zim-rewriter/internal/warcsrc"
	"github.com/kiwix/warc2zim-rewriter/internal/zimsink"
)

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "rewrite a WARC file into a bundle zip",
		ArgsUsage: "input.warc output.zip",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "custom-css", Usage: "URL of a user-supplied stylesheet to link from every document"},
			&cli.BoolFlag{Name: "verbose"},
		},
		Action: doConvert,
	}
}

func doConvert(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("convert requires input.warc and output.zip")
	}
	inPath := c.Args().Get(0)
	outPath := c.Args().Get(1)
	log := newLogger(c.Bool("verbose"))

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	canonicalizer := canon.New(fuzzy.NewEngine(fuzzy.DefaultRules))

	log.Info().Str("input", inPath).Msg("pass 1: building known-path set")
	known, err := convert.Pass1(warcsrc.Open(in), canonicalizer, log)
	if err != nil {
		return fmt.Errorf("pass1: %w", err)
	}
	log.Info().Int("known_paths", known.Len()).Msg("pass 1 complete")

	if _, err := in.Seek(0, 0); err != nil {
		return fmt.Errorf("rewind input for pass 2: %w", err)
	}

	sink := zimsink.New()

	opts := convert.Pass2Options{
		HeaderSnippet: func(d *rewrite.Document) string {
			assetPath := rewrite.RelativeLink(d.CanonicalPath, zimsink.StaticAssetPath+"helper.js")
			return dynamic.HeaderSnippet(d.OriginalURL, assetPath)
		},
	}
	if custom := c.String("custom-css"); custom != "" {
		opts.CustomCSSLink = fmt.Sprintf(`<link rel="stylesheet" href=%q>`, custom)
	}

	correlationID := uuid.New().String()
	runLog := log.With().Str("run_id", correlationID).Logger()

	runLog.Info().Msg("pass 2: rewriting content")
	stats, err := convert.Pass2(warcsrc.Open(in), canonicalizer, known, sink, opts, runLog)
	if err != nil {
		return fmt.Errorf("pass2: %w", err)
	}

	if err := sink.PutStaticAsset("helper.js", dynamic.Asset()); err != nil {
		return fmt.Errorf("write helper asset: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	if err := sink.Close(out); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}

	runLog.Info().
		Int("written", stats.Written).
		Int("aliased", stats.Aliased).
		Int("skipped", stats.Skipped).
		Msg("convert complete")
	fmt.Printf("written=%d aliased=%d skipped=%d\n", stats.Written, stats.Aliased, stats.Skipped)
	return nil
}
