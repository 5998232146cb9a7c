package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/standardbeagle/quickreply/internal/corpus"
	"github.com/standardbeagle/quickreply/internal/logging"
	"github.com/standardbeagle/quickreply/pkg/pathutil"
)

const chatHelp = `Commands:
  :patterns   show inputs that missed, most frequent first
  :clear      forget recorded patterns
  :reload     reload the corpus from its files
  :stats      show engine and breaker statistics
  :quit       leave
Anything else is matched against the corpus.`

func chatCommand(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	if c.Bool("watch") || a.cfg.Corpus.Watch {
		stop, err := a.watchCorpus()
		if err != nil {
			return err
		}
		defer stop()
	}

	w := c.App.Writer
	fmt.Fprintf(w, "quickreply: %d responses loaded. Type :help for commands.\n", a.engine.Corpus().Len())

	scanner := bufio.NewScanner(c.App.Reader)
	for {
		fmt.Fprint(w, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := a.chatDirective(w, line); quit {
				return nil
			}
			continue
		}

		result, err := a.guard.Match(c.Context, line)
		if err != nil {
			fmt.Fprintf(w, "  %v\n", err)
			continue
		}
		printResult(w, result, a.cfg.Matching.Debug)
	}
}

// chatDirective runs a ':' command and reports whether chat should end
func (a *app) chatDirective(w io.Writer, line string) bool {
	switch strings.ToLower(line) {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprintln(w, chatHelp)
	case ":patterns":
		patterns := a.engine.Learning().Patterns()
		if len(patterns) == 0 {
			fmt.Fprintln(w, "  no patterns recorded")
		}
		for _, p := range patterns {
			suggestion := p.SuggestedKey
			if suggestion == "" {
				suggestion = "-"
			}
			fmt.Fprintf(w, "  %3d  %-32s -> %s\n", p.Frequency, p.InputText, suggestion)
		}
	case ":clear":
		fmt.Fprintf(w, "  cleared %d patterns\n", a.engine.Learning().Clear())
	case ":reload":
		changed, err := a.reloadEngine()
		switch {
		case err != nil:
			fmt.Fprintf(w, "  reload failed: %v\n", err)
		case changed:
			fmt.Fprintf(w, "  reloaded %d responses\n", a.engine.Corpus().Len())
		default:
			fmt.Fprintln(w, "  corpus unchanged")
		}
	case ":stats":
		stats := a.engine.Stats()
		state := a.guard.State()
		fmt.Fprintf(w, "  responses=%d ngrams=%d patterns=%d threshold=%.2f cache=%d (hit rate %.0f%%)\n",
			stats.CorpusSize, stats.NgramCount, stats.LearningPatterns, stats.Threshold,
			stats.QueryCacheSize, stats.QueryCacheHitRate*100)
		fmt.Fprintf(w, "  breaker=%s failures=%d\n", state.PhaseName, state.Failures)
	default:
		fmt.Fprintf(w, "  unknown command %s; try :help\n", line)
	}
	return false
}

// reloadEngine rebuilds the corpus from its sources and swaps it in
func (a *app) reloadEngine() (bool, error) {
	next, err := a.reloadCorpus()
	if err != nil {
		return false, err
	}
	return a.engine.Reload(next)
}

// watchCorpus reloads the engine whenever corpus files change. The
// returned func stops the watcher.
func (a *app) watchCorpus() (func(), error) {
	if len(a.cfg.Corpus.Include) == 0 {
		a.logger.Warn("watch requested but no corpus files are configured; nothing to watch")
		return func() {}, nil
	}

	debounce := time.Duration(a.cfg.Corpus.DebounceMs) * time.Millisecond
	watcher, err := corpus.NewWatcher(a.cfg.Corpus.Root, a.cfg.Corpus.Include, debounce, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create corpus watcher: %w", err)
	}

	watcher.OnChange(func(paths []string) {
		paths = pathutil.ToRelativeAll(paths, a.cfg.Corpus.Root)
		changed, err := a.reloadEngine()
		if err != nil {
			a.logger.Warn("corpus reload failed; keeping current corpus",
				zap.Strings("paths", paths), zap.Error(err))
			return
		}
		if changed {
			a.logger.Info("corpus files changed",
				zap.Strings("paths", paths),
				zap.Int(logging.FieldCount, a.engine.Corpus().Len()))
		}
	})

	if err := watcher.Start(); err != nil {
		_ = watcher.Stop()
		return nil, err
	}
	return func() { _ = watcher.Stop() }, nil
}
