// Command warc2zim rewrites WARC-captured content into a relocatable
// offline bundle (spec §1). See SPEC_FULL.md for the full pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "warc2zim",
		Usage: "rewrite WARC content into a relocatable offline bundle",
		Commands: []*cli.Command{
			convertCommand(),
			canonCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
