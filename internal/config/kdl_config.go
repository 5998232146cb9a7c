package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/quickreply/internal/semantic"
)

// LoadKDL attempts to load configuration from the .quickreply.kdl file in dir
func LoadKDL(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, ConfigFileName)

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil // No KDL config found, use defaults
	}

	cfg, err := LoadKDLFile(kdlPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadKDLFile loads an explicit config file. Relative corpus roots resolve
// against the directory holding the file.
func LoadKDLFile(kdlPath string) (*Config, error) {
	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", kdlPath, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(kdlPath)
	if cfg.Corpus.Root != "" && !filepath.IsAbs(cfg.Corpus.Root) {
		cfg.Corpus.Root = filepath.Clean(filepath.Join(dir, cfg.Corpus.Root))
	} else if cfg.Corpus.Root == "" {
		if absRoot, err := filepath.Abs(dir); err == nil {
			cfg.Corpus.Root = absRoot
		} else {
			cfg.Corpus.Root = dir
		}
	}

	return cfg, nil
}

// Simple KDL parser for quickreply configuration
func parseKDL(content string) (*Config, error) {
	cfg := Default()
	cfg.Corpus.Root = ""

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "matching":
			parseMatching(cfg, n)
		case "normalize":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "stop_words":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Normalize.RemoveStopWords = b
					}
				case "stemming":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Normalize.Stemming = b
					}
				case "stem_algorithm":
					assignSimpleString(cn, "stem_algorithm", func(v string) { cfg.Normalize.StemAlgorithm = v })
				}
			}
		case "similarity":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "char_gram_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Similarity.CharGramSize = v
					}
				case "jaro_winkler_scale":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Similarity.JaroWinklerScale = v
					}
				case "edit_max_length":
					if v, ok := firstIntArg(cn); ok {
						cfg.Similarity.EditMaxLength = v
					}
				}
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "min_n":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MinN = v
					}
				case "max_n":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MaxN = v
					}
				}
			}
		case "limits":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_input_length":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.MaxInputLength = v
					}
				case "hard_ceiling":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.HardCeiling = v
					}
				case "processing_budget":
					if d, ok := durationArg(cn); ok {
						cfg.Limits.ProcessingBudget = d
					}
				case "query_cache_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.QueryCacheSize = v
					}
				}
			}
		case "resilience":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Resilience.Enabled = b
					}
				case "failure_threshold":
					if v, ok := firstIntArg(cn); ok {
						cfg.Resilience.FailureThreshold = v
					}
				case "reset_timeout":
					if d, ok := durationArg(cn); ok {
						cfg.Resilience.ResetTimeout = d
					}
				case "call_timeout":
					if d, ok := durationArg(cn); ok {
						cfg.Resilience.CallTimeout = d
					}
				}
			}
		case "corpus":
			parseCorpus(cfg, n)
		}
	}

	return cfg, nil
}

func parseMatching(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "threshold":
			if v, ok := firstFloatArg(cn); ok {
				cfg.Matching.Threshold = v
			}
		case "algorithms":
			names := collectStringArgs(cn)
			algs := make([]semantic.Algorithm, 0, len(names))
			for _, name := range names {
				algs = append(algs, semantic.Algorithm(name))
			}
			cfg.Matching.Algorithms = algs
		case "weights": // weights { levenshtein 0.3; cosine 0.1 }
			for _, wn := range cn.Children {
				if v, ok := firstFloatArg(wn); ok {
					cfg.Matching.Weights[semantic.Algorithm(nodeName(wn))] = v
				}
			}
		case "debug":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Matching.Debug = b
			}
		}
	}
}

func parseCorpus(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "root":
			assignSimpleString(cn, "root", func(v string) { cfg.Corpus.Root = v })
		case "include":
			cfg.Corpus.Include = append(cfg.Corpus.Include, collectStringArgs(cn)...)
		case "defaults":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Corpus.UseDefault = b
			}
		case "watch":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Corpus.Watch = b
			}
		case "debounce_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Corpus.DebounceMs = v
			}
		case "response": // response "hello" "Hi there!"
			args := collectStringArgs(cn)
			if len(args) == 2 {
				cfg.Corpus.Inline[args[0]] = args[1]
			} else {
				log.Printf("WARNING: corpus response expects a key and a reply, got %d string arguments", len(args))
			}
		}
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		nodeName := nodeName(n)
		log.Printf("WARNING: invalid float value for '%s' in KDL config, expected number but got %T", nodeName, n.Arguments[0].Value)
		return 0, false
	}
}

// durationArg accepts integer milliseconds or a Go duration string ("30s")
func durationArg(n *document.Node) (time.Duration, bool) {
	if v, ok := firstIntArg(n); ok {
		return time.Duration(v) * time.Millisecond, true
	}
	if s, ok := firstStringArg(n); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			log.Printf("WARNING: invalid duration %q for '%s' in KDL config: %v", s, nodeName(n), err)
			return 0, false
		}
		return d, true
	}
	return 0, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block format: include { "a.kdl"; "b.toml" }
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
