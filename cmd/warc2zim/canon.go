package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/kiwix/warc2zim-rewriter/internal/canon"
	"github.com/kiwix/warc2zim-rewriter/internal/fuzzy"
)

func canonCommand() *cli.Command {
	return &cli.Command{
		Name:      "canon",
		Usage:     "print the canonical path the converter would use for a URL",
		ArgsUsage: "url",
		Action:    doCanon,
	}
}

func doCanon(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("canon requires a url argument")
	}
	canonicalizer := canon.New(fuzzy.NewEngine(fuzzy.DefaultRules))
	path, err := canonicalizer.Canonicalize(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
