package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/quickreply/internal/matcher"
)

func matchCommand(c *cli.Context) error {
	input := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(input) == "" {
		return cli.Exit("match requires a message, e.g. quickreply match \"hello there\"", 2)
	}

	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.guard.Match(c.Context, input)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, result)
	}
	printResult(c.App.Writer, result, a.cfg.Matching.Debug)
	return nil
}

func batchCommand(c *cli.Context) error {
	var r io.Reader = c.App.Reader
	if path := c.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	inputs, err := readLines(r)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return cli.Exit("batch received no messages", 2)
	}

	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	results, err := a.guard.MatchBatch(c.Context, inputs)
	if err != nil {
		return err
	}

	w := c.App.Writer
	for i, result := range results {
		if c.Bool("json") {
			if err := writeJSON(w, struct {
				Input string `json:"input"`
				matcher.MatchResult
			}{inputs[i], result}); err != nil {
				return err
			}
			continue
		}
		match := result.Match
		if match == "" {
			match = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%.3f\n", inputs[i], match, result.Confidence)
	}
	return nil
}

// readLines returns the non-blank lines of r
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return lines, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}

// printResult renders a result for humans. The reply goes first so the
// output can be piped; the summary line follows.
func printResult(w io.Writer, result matcher.MatchResult, debug bool) {
	switch {
	case result.Matched():
		fmt.Fprintln(w, result.SuggestedResponse)
	case result.SuggestedResponse != "":
		fmt.Fprintf(w, "%s (best guess)\n", result.SuggestedResponse)
	default:
		fmt.Fprintln(w, "No canned response fits.")
	}
	if result.Error != "" {
		fmt.Fprintf(w, "  note: %s\n", result.Error)
	}
	fmt.Fprintf(w, "  %s\n", result.String())

	if debug && result.Debug != nil {
		d := result.Debug
		fmt.Fprintf(w, "  normalized=%q tier=%s ngram=%d overlap=%d exhaustive=%d\n",
			d.Normalized, d.Tier, d.NgramHits, d.OverlapHits, d.ExhaustiveHits)
		for _, cand := range d.Candidates {
			fmt.Fprintf(w, "    %-24s %.3f %s\n", cand.Key, cand.Confidence, cand.Dominant)
		}
	}
}
