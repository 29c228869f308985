package tilematch

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/cespare/xxhash"
)

// Set is a multiset of TileMatch values believed to explain one query.
// The contained values are kept sorted so equality and hashing do not
// depend on construction order.
type Set struct {
	matches []TileMatch
}

func NewSet(ms ...TileMatch) Set {
	cp := make([]TileMatch, len(ms))
	copy(cp, ms)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Less(cp[j]) })
	return Set{matches: cp}
}

func (s Set) Len() int {
	return len(s.matches)
}

// Matches returns a copy of the normalized contents.
func (s Set) Matches() []TileMatch {
	cp := make([]TileMatch, len(s.matches))
	copy(cp, s.matches)
	return cp
}

func (s Set) At(i int) TileMatch {
	return s.matches[i]
}

// Add returns a new set holding s plus ms.
func (s Set) Add(ms ...TileMatch) Set {
	all := make([]TileMatch, 0, len(s.matches)+len(ms))
	all = append(all, s.matches...)
	all = append(all, ms...)
	return NewSet(all...)
}

func (s Set) Contains(m TileMatch) bool {
	i := sort.Search(len(s.matches), func(i int) bool { return !s.matches[i].Less(m) })
	return i < len(s.matches) && s.matches[i] == m
}

func (s Set) Equal(o Set) bool {
	if len(s.matches) != len(o.matches) {
		return false
	}
	for i := range s.matches {
		if s.matches[i] != o.matches[i] {
			return false
		}
	}
	return true
}

func (s Set) bytes() []byte {
	buf := make([]byte, 12*len(s.matches))
	for i, m := range s.matches {
		binary.LittleEndian.PutUint32(buf[i*12:], m.Quality)
		binary.LittleEndian.PutUint64(buf[i*12+4:], m.Position)
	}
	return buf
}

// Key hashes the normalized encoding.
func (s Set) Key() uint64 {
	return xxhash.Sum64(s.bytes())
}

func (s Set) String() string {
	parts := make([]string, len(s.matches))
	for i, m := range s.matches {
		parts[i] = m.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// SetIndex collects distinct sets in first-seen order.
type SetIndex struct {
	byKey map[uint64][]int
	sets  []Set
}

func NewSetIndex() *SetIndex {
	return &SetIndex{byKey: make(map[uint64][]int)}
}

// Add stores s unless an equal set is already present, reporting whether it was added.
func (x *SetIndex) Add(s Set) bool {
	k := s.Key()
	for _, i := range x.byKey[k] {
		if x.sets[i].Equal(s) {
			return false
		}
	}
	x.byKey[k] = append(x.byKey[k], len(x.sets))
	x.sets = append(x.sets, s)
	return true
}

func (x *SetIndex) Len() int {
	return len(x.sets)
}

func (x *SetIndex) Sets() []Set {
	cp := make([]Set, len(x.sets))
	copy(cp, x.sets)
	return cp
}
