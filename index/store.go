// Package index is the vector index store: it owns the indexed tool
// records and their vectors, persists them as an artifact pair, and
// answers nearest-neighbour queries with adaptive score filtering.
//
// The store is read-mostly. Add, Build and Load must not run concurrently
// with anything else on the same Store; once built or loaded, records and
// vectors are never mutated by Search, so concurrent searches need no
// locking.
package index

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/richinex/toolpilot/embedding"
	"github.com/richinex/toolpilot/internal/dsa"
	"github.com/richinex/toolpilot/model"
)

// Defaults for Options fields left zero.
const (
	DefaultRetrievalCount = 10
	DefaultStdCoef        = 0.5
)

// Options configures a Store.
type Options struct {
	IndexPath    string
	MetadataPath string

	// Compression of the vector payload: zstd, lz4 or none.
	Compression string

	// Adaptive filtering: drop scores below mean - StdCoef*stddev of the
	// top-K batch.
	ApplyStd bool
	StdCoef  float64

	// RetrievalCount is the top-K used when Search is given topK <= 0.
	RetrievalCount int

	// Dim fixes the dimension of an index built with no records. When
	// zero, it is discovered by embedding the empty string.
	Dim int
}

// Store holds tool records and their vectors.
type Store struct {
	opts     Options
	embedder embedding.Embedder
	logger   zerolog.Logger

	records []model.ToolRecord
	vectors [][]float32 // as added, before normalization
	dim     int

	// Populated by Build and Load.
	matrix []float32 // len(records) x dim, row-major, L2-normalized
	loaded bool
	byID   *dsa.Trie[int]
	byName *dsa.Trie[int]
}

// New creates an empty store.
func New(embedder embedding.Embedder, opts Options, logger zerolog.Logger) *Store {
	if opts.Compression == "" {
		opts.Compression = CompressionZstd
	}
	if opts.RetrievalCount <= 0 {
		opts.RetrievalCount = DefaultRetrievalCount
	}
	return &Store{
		opts:     opts,
		embedder: embedder,
		logger:   logger.With().Str("component", "index").Logger(),
		byID:     dsa.NewTrie[int](),
		byName:   dsa.NewTrie[int](),
	}
}

// Add embeds text and appends it with info under toolID. The first vector
// fixes the store's dimension; later vectors of another length fail with
// a DimensionMismatchError. The record id is its insertion ordinal.
// Adding to a built or loaded store makes it unsearchable until the next
// Build.
func (s *Store) Add(ctx context.Context, toolID, text string, info model.ToolInfo) error {
	if _, exists := s.byID.Get(toolID); exists {
		return fmt.Errorf("add %s: duplicate tool id", toolID)
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("add %s: %w", toolID, err)
	}
	if s.dim == 0 {
		s.dim = len(vec)
	} else if len(vec) != s.dim {
		return &model.DimensionMismatchError{Want: s.dim, Got: len(vec)}
	}

	if info.Parameters.Required == nil {
		info.Parameters.Required = []model.Param{}
	}
	if info.Parameters.Optional == nil {
		info.Parameters.Optional = []model.Param{}
	}

	id := len(s.records)
	s.records = append(s.records, model.ToolRecord{
		ID:          id,
		ToolID:      toolID,
		Text:        text,
		Name:        info.Name,
		APIName:     info.APIName,
		Description: info.Description,
		Parameters:  info.Parameters,
	})
	s.vectors = append(s.vectors, vec)
	s.byID.Insert(toolID, id)

	// The built matrix no longer covers every record.
	s.matrix = nil
	s.loaded = false
	return nil
}

// Build normalizes every vector, makes the store searchable and persists
// the artifact pair. With no records it still writes a valid empty pair.
func (s *Store) Build(ctx context.Context) error {
	if len(s.records) == 0 && s.dim == 0 {
		dim := s.opts.Dim
		if dim <= 0 {
			vec, err := s.embedder.Embed(ctx, "")
			if err != nil {
				return fmt.Errorf("discover dimension: %w", err)
			}
			dim = len(vec)
		}
		s.dim = dim
	}

	matrix := make([]float32, len(s.vectors)*s.dim)
	for i, vec := range s.vectors {
		copy(matrix[i*s.dim:(i+1)*s.dim], vec)
		normalize(matrix[i*s.dim : (i+1)*s.dim])
	}

	if err := writePair(s.opts, s.records, matrix, s.dim); err != nil {
		return err
	}

	s.matrix = matrix
	s.reindex()
	s.loaded = true

	s.logger.Info().
		Int("records", len(s.records)).
		Int("dim", s.dim).
		Str("index", s.opts.IndexPath).
		Str("metadata", s.opts.MetadataPath).
		Msg("index built")
	return nil
}

// Load reads the persisted pair, replacing anything held in memory.
func (s *Store) Load() error {
	records, matrix, dim, err := readPair(s.opts)
	if err != nil {
		return err
	}

	byID := dsa.NewTrie[int]()
	for i := range records {
		if byID.Insert(records[i].ToolID, i) {
			return &model.CorruptIndexError{Reason: fmt.Sprintf("duplicate tool id %s", records[i].ToolID)}
		}
	}

	s.records = records
	s.matrix = matrix
	s.dim = dim
	s.vectors = make([][]float32, len(records))
	for i := range records {
		s.vectors[i] = matrix[i*dim : (i+1)*dim : (i+1)*dim]
	}
	s.reindex()
	s.loaded = true

	s.logger.Info().Int("records", len(records)).Int("dim", dim).Msg("index loaded")
	return nil
}

func (s *Store) reindex() {
	s.byID = dsa.NewTrie[int]()
	s.byName = dsa.NewTrie[int]()
	for i, r := range s.records {
		s.byID.Insert(r.ToolID, i)
		s.byName.Insert(r.Name+"\x00"+r.ToolID, i)
	}
}

// Lookup returns the record indexed under toolID.
func (s *Store) Lookup(toolID string) (model.ToolRecord, bool) {
	i, ok := s.byID.Get(toolID)
	if !ok {
		return model.ToolRecord{}, false
	}
	return s.records[i], true
}

// WithPrefix returns the records whose name starts with prefix, ordered by
// name. An empty prefix lists every record.
func (s *Store) WithPrefix(prefix string) []model.ToolRecord {
	idx := s.byName.WithPrefix(prefix)
	out := make([]model.ToolRecord, len(idx))
	for i, n := range idx {
		out[i] = s.records[n]
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Dim returns the vector dimension, or 0 before the first Add/Build/Load.
func (s *Store) Dim() int { return s.dim }

// Loaded reports whether the store is searchable.
func (s *Store) Loaded() bool { return s.loaded }

// normalize scales vec to unit length in place. Zero vectors stay zero.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}
