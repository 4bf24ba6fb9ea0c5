// Package index is the in-memory semantic index over ground-truth claims and
// processed documents. Vectors are searched with an exact (flat) L2 scan.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/claimtrust/internal/cache"
	"github.com/ppiankov/claimtrust/internal/model"
	"github.com/ppiankov/claimtrust/internal/worker"
)

// ErrEmptyIndex is returned when a query has nothing to search
var ErrEmptyIndex = errors.New("semantic index has no entries")

// Kind separates ledger records from processed documents
type Kind string

const (
	KindGroundTruth Kind = "ground_truth"
	KindDocument    Kind = "document"
)

// Meta is stored alongside each vector
type Meta struct {
	Kind     Kind
	Record   *model.GroundTruthRecord // set for ground-truth entries
	Filename string
	DocType  model.DocType
	ClaimID  string
}

type entry struct {
	id     int
	vector []float32
	meta   Meta
}

// Index is safe for concurrent use: queries share a read lock, adds take the write lock
type Index struct {
	embedder Embedder
	mu       sync.RWMutex
	entries  []entry
}

// New creates an empty index backed by embedder
func New(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// NewEmbedder builds the configured embedder, wrapped in the embedding cache
func NewEmbedder(cfg model.IndexConfig, c cache.Cache, ttl time.Duration, limiter *worker.Limiter) (Embedder, error) {
	var base Embedder
	switch strings.ToLower(cfg.Embedder) {
	case "", "hash":
		return NewHashEmbedder(cfg.Dimensions), nil
	case "openai":
		e, err := NewOpenAIEmbedder(cfg, limiter)
		if err != nil {
			return nil, err
		}
		base = e
	default:
		return nil, fmt.Errorf("unknown embedder: %s (supported: hash, openai)", cfg.Embedder)
	}
	return NewCachedEmbedder(base, c, ttl), nil
}

// Embedder returns the embedder in use
func (ix *Index) Embedder() Embedder {
	return ix.embedder
}

// Len returns the number of indexed vectors
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Add embeds text and stores it, returning the new vector ID
func (ix *Index) Add(ctx context.Context, text string, meta Meta) (int, error) {
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return -1, fmt.Errorf("embed: %w", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if len(ix.entries) > 0 && len(ix.entries[0].vector) != len(vec) {
		return -1, fmt.Errorf("vector has %d dimensions, index has %d", len(vec), len(ix.entries[0].vector))
	}

	id := len(ix.entries)
	ix.entries = append(ix.entries, entry{id: id, vector: vec, meta: meta})
	return id, nil
}

// AddRecord indexes one ground-truth record
func (ix *Index) AddRecord(ctx context.Context, r model.GroundTruthRecord) (int, error) {
	rec := r
	return ix.Add(ctx, r.Text(), Meta{Kind: KindGroundTruth, Record: &rec})
}

// AddRecords indexes the whole ledger, stopping at the first failure
func (ix *Index) AddRecords(ctx context.Context, records []model.GroundTruthRecord) error {
	for i, r := range records {
		if _, err := ix.AddRecord(ctx, r); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// Query returns up to k ground-truth matches for text, closest first.
// Ties on distance keep insertion order.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]model.Match, error) {
	hits, err := ix.nearest(ctx, text, k, KindGroundTruth)
	if err != nil {
		return nil, err
	}

	matches := make([]model.Match, 0, len(hits))
	for i, h := range hits {
		matches = append(matches, model.Match{
			Record:          *h.entry.meta.Record,
			SimilarityScore: Similarity(h.distance),
			Distance:        h.distance,
			Rank:            i + 1,
		})
	}
	return matches, nil
}

// Search returns up to k indexed documents similar to text, skipping excludeID
func (ix *Index) Search(ctx context.Context, text string, k, excludeID int) ([]model.SimilarDocument, error) {
	hits, err := ix.nearest(ctx, text, k+1, KindDocument)
	if err != nil {
		return nil, err
	}

	out := make([]model.SimilarDocument, 0, len(hits))
	for _, h := range hits {
		if h.entry.id == excludeID {
			continue
		}
		if len(out) == k {
			break
		}
		out = append(out, model.SimilarDocument{
			ID:              h.entry.id,
			Filename:        h.entry.meta.Filename,
			DocType:         h.entry.meta.DocType,
			ClaimID:         h.entry.meta.ClaimID,
			Distance:        h.distance,
			SimilarityScore: Similarity(h.distance),
		})
	}
	return out, nil
}

type hit struct {
	entry    entry
	distance float64
}

func (ix *Index) nearest(ctx context.Context, text string, k int, kind Kind) ([]hit, error) {
	if k <= 0 {
		return []hit{}, nil
	}

	// Embed outside the lock so slow embedders never block writers
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var hits []hit
	for _, e := range ix.entries {
		if e.meta.Kind != kind {
			continue
		}
		if len(e.vector) != len(vec) {
			return nil, fmt.Errorf("query has %d dimensions, index has %d", len(vec), len(e.vector))
		}
		hits = append(hits, hit{entry: e, distance: L2(vec, e.vector)})
	}
	if len(hits) == 0 {
		return nil, ErrEmptyIndex
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].distance < hits[j].distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// L2 is the Euclidean distance between equal-length vectors
func L2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Similarity maps a distance onto (0,1]
func Similarity(distance float64) float64 {
	if distance < 0 || math.IsNaN(distance) {
		distance = 0
	}
	return 1 / (1 + distance)
}
