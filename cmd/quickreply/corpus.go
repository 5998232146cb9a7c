package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/quickreply/pkg/pathutil"
)

type corpusEntry struct {
	Key      string `json:"key"`
	Response string `json:"response"`
	Source   string `json:"source"`
}

func corpusCommand(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	responses := a.engine.Corpus()
	entries := make([]corpusEntry, 0, responses.Len())
	for _, key := range responses.Keys() {
		reply, _ := responses.Response(key)
		entries = append(entries, corpusEntry{Key: key, Response: reply, Source: pathutil.SourceLabel(responses.Source(key), a.cfg.Corpus.Root)})
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, entries)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSOURCE\tRESPONSE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, e.Source, e.Response)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d responses (fingerprint %016x)\n", responses.Len(), responses.Fingerprint())
	return nil
}
