package corpus

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	qrerrors "github.com/standardbeagle/quickreply/internal/errors"
)

// Corpus errors
var (
	ErrEmptyKey      = errors.New("key is empty")
	ErrEmptyResponse = errors.New("response is empty")
	ErrDuplicateKey  = errors.New("duplicate key")
)

// Corpus maps canonical key phrases to canned responses.
// It is immutable once built and safe for concurrent readers.
type Corpus struct {
	responses   map[string]string
	keys        []string
	sources     map[string]string
	fingerprint uint64
}

// New builds a corpus from a single in-memory mapping
func New(responses map[string]string) (*Corpus, error) {
	b := NewBuilder()
	keys := make([]string, 0, len(responses))
	for k := range responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Add("inline", k, responses[k])
	}
	return b.Build()
}

// MustNew is New for static corpora; it panics on invalid input
func MustNew(responses map[string]string) *Corpus {
	c, err := New(responses)
	if err != nil {
		panic(err)
	}
	return c
}

// Keys returns the keys in ascending order. The slice is a copy.
func (c *Corpus) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Response returns the canned response for key
func (c *Corpus) Response(key string) (string, bool) {
	r, ok := c.responses[key]
	return r, ok
}

// Source returns where key was defined
func (c *Corpus) Source(key string) string {
	return c.sources[key]
}

// Len returns the number of entries
func (c *Corpus) Len() int {
	return len(c.keys)
}

// Entries returns a copy of the key to response mapping
func (c *Corpus) Entries() map[string]string {
	out := make(map[string]string, len(c.responses))
	for k, v := range c.responses {
		out[k] = v
	}
	return out
}

// Fingerprint is a content hash of the sorted entries; equal corpora hash equal
func (c *Corpus) Fingerprint() uint64 {
	return c.fingerprint
}

func (c *Corpus) computeFingerprint() uint64 {
	d := xxhash.New()
	for _, k := range c.keys {
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(c.responses[k])
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// Builder accumulates entries from several sources. Within one source a
// repeated key is an error; a later source overrides an earlier one.
type Builder struct {
	responses map[string]string
	sources   map[string]string
	errs      []error
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		responses: make(map[string]string),
		sources:   make(map[string]string),
	}
}

// Add records one entry. Keys and responses are trimmed.
func (b *Builder) Add(source, key, response string) {
	key = strings.TrimSpace(key)
	response = strings.TrimSpace(response)

	switch {
	case key == "":
		b.errs = append(b.errs, qrerrors.NewCorpusError(source, ErrEmptyKey))
		return
	case response == "":
		b.errs = append(b.errs, qrerrors.NewCorpusError(source, ErrEmptyResponse).WithKey(key))
		return
	case b.sources[key] == source:
		b.errs = append(b.errs, qrerrors.NewCorpusError(source, ErrDuplicateKey).WithKey(key))
		return
	}

	b.responses[key] = response
	b.sources[key] = source
}

// AddAll records every entry of m under one source, in key order
func (b *Builder) AddAll(source string, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Add(source, k, m[k])
	}
}

// Build validates and freezes the corpus
func (b *Builder) Build() (*Corpus, error) {
	if err := qrerrors.NewMultiError(b.errs).ErrorOrNil(); err != nil {
		return nil, err
	}
	if len(b.responses) == 0 {
		return nil, qrerrors.NewCorpusError("corpus", fmt.Errorf("no responses defined"))
	}

	c := &Corpus{
		responses: make(map[string]string, len(b.responses)),
		sources:   make(map[string]string, len(b.sources)),
		keys:      make([]string, 0, len(b.responses)),
	}
	for k, v := range b.responses {
		c.responses[k] = v
		c.sources[k] = b.sources[k]
		c.keys = append(c.keys, k)
	}
	sort.Strings(c.keys)
	c.fingerprint = c.computeFingerprint()
	return c, nil
}
