// Copyright © 2024 The nxt authors

package lsp

import (
	"context"
	"sync"

	"github.com/luthersystems/nxt/analysis"
	"github.com/luthersystems/nxt/lint"
	"github.com/luthersystems/nxt/parser"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
	"github.com/minio/highwayhash"
)

// contentKey keys the content hash of the analysis cache.
var contentKey = make([]byte, 32)

func contentHash(content string) uint64 {
	return highwayhash.Sum64([]byte(content), contentKey)
}

// maxCachedAnalyses bounds the number of analyses kept by a DocumentStore.
const maxCachedAnalyses = 64

type cacheKey struct {
	uri  string
	hash uint64
}

// cachedAnalysis is the parse and lint state of one version of a document.
type cachedAnalysis struct {
	content  string
	tree     *syntax.Root
	lines    *token.LineIndex
	analysis *analysis.Result
	diags    []lint.Diagnostic
}

// analysisCache remembers recent analyses by URI and content hash so that a
// reverted edit or a reopened file does not run the linter again. Entries
// are evicted oldest first.
type analysisCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cachedAnalysis
	order   []cacheKey
}

func newAnalysisCache() *analysisCache {
	return &analysisCache{entries: make(map[cacheKey]*cachedAnalysis)}
}

func (c *analysisCache) get(uri string, hash uint64, content string) *cachedAnalysis {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[cacheKey{uri, hash}]
	if e == nil || e.content != content {
		return nil
	}
	return e
}

func (c *analysisCache) put(uri string, hash uint64, e *cachedAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{uri, hash}
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = e
	for len(c.order) > maxCachedAnalyses {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *analysisCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Document represents an open text document tracked by the LSP server.
type Document struct {
	mu      sync.Mutex
	URI     string
	Version int32
	Content string

	hash  uint64
	tree  *syntax.Root
	lines *token.LineIndex

	// Set by analyze; cleared whenever the content changes.
	analyzed bool
	analysis *analysis.Result
	diags    []lint.Diagnostic

	cache *analysisCache
}

// parse parses the document content, or restores a cached analysis of the
// same content. The parser always produces a tree, recording syntax errors
// in it.
func (d *Document) parse() {
	d.hash = contentHash(d.Content)
	if e := d.cache.get(d.URI, d.hash, d.Content); e != nil {
		d.tree = e.tree
		d.lines = e.lines
		d.analyzed = true
		d.analysis = e.analysis
		d.diags = e.diags
		return
	}
	d.tree = parser.Parse(uriToPath(d.URI), []byte(d.Content))
	d.lines = d.tree.Lines()
	d.analyzed = false
	d.analysis = nil
	d.diags = nil
}

// analyze runs the linter over the tree unless the current content was
// already analyzed. The caller must hold d.mu.
func (d *Document) analyze(ctx context.Context, l *lint.Linter) {
	if d.analyzed {
		return
	}
	res, diags, err := l.Check(ctx, d.tree)
	if err != nil {
		log.Warningf("%s: %v", d.URI, err)
		return
	}
	d.analyzed = true
	d.analysis = res
	d.diags = diags
	d.cache.put(d.URI, d.hash, &cachedAnalysis{
		content:  d.Content,
		tree:     d.tree,
		lines:    d.lines,
		analysis: res,
		diags:    diags,
	})
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu    sync.RWMutex
	docs  map[string]*Document
	cache *analysisCache
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:  make(map[string]*Document),
		cache: newAnalysisCache(),
	}
}

// Open adds a document to the store and parses it.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
		cache:   s.cache,
	}
	doc.parse()
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync). Unchanged content keeps
// the current tree; content seen before reuses its cached analysis.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri, cache: s.cache}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	defer doc.mu.Unlock()
	doc.Version = version
	if doc.tree != nil && doc.Content == content {
		return doc
	}
	doc.Content = content
	doc.parse()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// snapshot is an immutable view of an analyzed document.
type snapshot struct {
	uri      string
	content  string
	tree     *syntax.Root
	lines    *token.LineIndex
	analysis *analysis.Result // nil when the analysis failed
	diags    []lint.Diagnostic
}

// snapshot analyzes the document if needed and returns its current state.
func (s *Server) snapshot(uri string) *snapshot {
	doc := s.docs.Get(uri)
	if doc == nil {
		return nil
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	doc.analyze(context.Background(), s.linter)
	return &snapshot{
		uri:      doc.URI,
		content:  doc.Content,
		tree:     doc.tree,
		lines:    doc.lines,
		analysis: doc.analysis,
		diags:    doc.diags,
	}
}
