package corpus

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	qrerrors "github.com/standardbeagle/quickreply/internal/errors"
)

// Source describes where a corpus comes from. Sources are layered in
// order: built-in defaults, matched files (sorted by path), inline entries.
type Source struct {
	Root       string
	Include    []string
	Inline     map[string]string
	UseDefault bool
}

// Load builds a corpus from every layer of src
func Load(src Source) (*Corpus, error) {
	b := NewBuilder()

	if src.UseDefault {
		b.AddAll(DefaultSource, defaultResponses)
	}

	files, err := ResolveFiles(src.Root, src.Include)
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		entries, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			b.Add(path, e.Key, e.Response)
		}
	}

	b.AddAll("inline", src.Inline)

	return b.Build()
}

// ResolveFiles expands doublestar patterns relative to root into a sorted,
// de-duplicated list of corpus file paths.
func ResolveFiles(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	if root == "" {
		root = "."
	}

	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, qrerrors.NewCorpusError(pattern, fmt.Errorf("invalid glob pattern"))
		}
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, qrerrors.NewCorpusError(pattern, err)
		}
		for _, m := range matches {
			if !IsCorpusFile(m) {
				continue
			}
			path := filepath.Join(root, filepath.FromSlash(m))
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// MatchesAny reports whether a root-relative path matches one of the patterns
func MatchesAny(patterns []string, relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}

// IsCorpusFile reports whether path has a supported corpus extension
func IsCorpusFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kdl", ".toml":
		return true
	default:
		return false
	}
}

// Entry is one parsed corpus file entry, in file order
type Entry struct {
	Key      string
	Response string
}

// LoadFile parses a .kdl or .toml corpus file
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, qrerrors.NewCorpusError(path, err)
	}

	var entries []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kdl":
		entries, err = ParseKDL(data)
	case ".toml":
		entries, err = ParseTOML(data)
	default:
		err = fmt.Errorf("unsupported corpus file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, qrerrors.NewCorpusError(path, err)
	}
	return entries, nil
}

// ParseKDL reads response nodes in either form:
//
//	response "hello" "Hi there!"
//	response "who are you" {
//	    reply "I'm QuickReply."
//	}
func ParseKDL(data []byte) ([]Entry, error) {
	doc, err := kdl.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL corpus: %w", err)
	}

	var entries []Entry
	for _, n := range doc.Nodes {
		if nodeName(n) != "response" {
			continue
		}
		args := stringArgs(n)
		switch {
		case len(args) == 2:
			entries = append(entries, Entry{Key: args[0], Response: args[1]})
		case len(args) == 1:
			reply, ok := childString(n, "reply")
			if !ok {
				return nil, fmt.Errorf("response %q has no reply", args[0])
			}
			entries = append(entries, Entry{Key: args[0], Response: reply})
		default:
			return nil, fmt.Errorf("response node expects a key and a reply, got %d string arguments", len(args))
		}
	}
	return entries, nil
}

// tomlCorpus is the TOML corpus layout:
//
//	[responses]
//	"hello" = "Hi there!"
type tomlCorpus struct {
	Responses map[string]string `toml:"responses"`
}

// ParseTOML reads the [responses] table; entries come back sorted by key
func ParseTOML(data []byte) ([]Entry, error) {
	var tc tomlCorpus
	if err := toml.Unmarshal(data, &tc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML corpus: %w", err)
	}

	keys := make([]string, 0, len(tc.Responses))
	for k := range tc.Responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry{Key: k, Response: tc.Responses[k]})
	}
	return entries, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func stringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func childString(n *document.Node, name string) (string, bool) {
	for _, cn := range n.Children {
		if nodeName(cn) != name {
			continue
		}
		if args := stringArgs(cn); len(args) > 0 {
			return args[0], true
		}
	}
	return "", false
}
