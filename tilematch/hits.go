package tilematch

import (
	"fmt"
	"sort"
)

// Hits is what the tile index returns for one query: packed quality words
// mapped to packed position words. Treated as read-only.
type Hits struct {
	Name      string
	Sequence  string
	ByQuality map[uint32][]uint64
}

// Qualities returns the quality keys strongest first: more tiles, then fewer mismatches.
func (h Hits) Qualities() []uint32 {
	keys := make([]uint32, 0, len(h.ByQuality))
	for k := range h.ByQuality {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, mi := UnpackQuality(keys[i])
		tj, mj := UnpackQuality(keys[j])
		if ti != tj {
			return ti > tj
		}
		return mi < mj
	})
	return keys
}

// Bucket decodes the hits stored under one quality key.
func (h Hits) Bucket(q uint32) ([]TileMatch, error) {
	ps := h.ByQuality[q]
	out := make([]TileMatch, 0, len(ps))
	for _, p := range ps {
		m, err := FromWords(q, p)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", h.Name, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// All decodes every hit, strongest buckets first.
func (h Hits) All() ([]TileMatch, error) {
	var out []TileMatch
	for _, q := range h.Qualities() {
		b, err := h.Bucket(q)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// Add appends one hit, packing its fields.
func (h *Hits) Add(tileRunLength, mismatchCount int, position int64, offset int, reverse bool) error {
	m, err := New(tileRunLength, mismatchCount, position, offset, reverse)
	if err != nil {
		return err
	}
	if h.ByQuality == nil {
		h.ByQuality = make(map[uint32][]uint64)
	}
	h.ByQuality[m.Quality] = append(h.ByQuality[m.Quality], m.Position)
	return nil
}
