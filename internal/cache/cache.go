package cache

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/pavelanni/karne/internal/model"
)

// DefaultSize is the number of recent analyses kept when no size is configured.
const DefaultSize = 5

// Analyses is a bounded, least-recently-used store of analysis results keyed
// by payload fingerprint. It is safe for concurrent use.
type Analyses struct {
	lru *lru.Cache[string, model.AnalysisResult]
}

// New creates a cache holding at most size results.
func New(size int) (*Analyses, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	c, err := lru.New[string, model.AnalysisResult](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Analyses{lru: c}, nil
}

// Get returns the cached result for key. A nil cache never hits.
func (a *Analyses) Get(key string) (model.AnalysisResult, bool) {
	if a == nil {
		return model.AnalysisResult{}, false
	}
	r, ok := a.lru.Get(key)
	if ok {
		slog.Debug("analysis cache hit", "key", key[:min(12, len(key))])
	}
	return r, ok
}

// Add stores r under key, evicting the least recently used entry when full.
func (a *Analyses) Add(key string, r model.AnalysisResult) {
	if a == nil {
		return
	}
	if evicted := a.lru.Add(key, r); evicted {
		slog.Debug("analysis cache evicted oldest entry")
	}
}

// Len returns the number of cached results.
func (a *Analyses) Len() int {
	if a == nil {
		return 0
	}
	return a.lru.Len()
}

// Purge drops every cached result.
func (a *Analyses) Purge() {
	if a == nil {
		return
	}
	a.lru.Purge()
}

// Fingerprint hashes the extracted text and every encoded document into a
// stable cache key. Part boundaries are length-prefixed so that moving bytes
// between parts changes the key.
func Fingerprint(text string, images []string) string {
	h, _ := blake2b.New256(nil)
	writePart(h, text)
	for _, img := range images {
		writePart(h, img)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writePart(w io.Writer, s string) {
	fmt.Fprintf(w, "%d:", len(s))
	_, _ = io.WriteString(w, s)
}
