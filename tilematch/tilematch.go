// Package tilematch packs tile-run descriptors into a pair of scalars and
// groups them into order-independent hypothesis sets.
package tilematch

import (
	"errors"
	"fmt"
)

// DefaultTileLength is the length of a tile in the upstream index.
const DefaultTileLength = 13

const (
	qualityBits    = 16
	qualityMask    = 1<<qualityBits - 1
	MaxTileCount   = qualityMask
	MaxMismatch    = qualityMask
	positionBits   = 40
	positionMask   = 1<<positionBits - 1
	MaxPosition    = positionMask
	offsetShift    = positionBits
	offsetBits     = 16
	offsetMask     = 1<<offsetBits - 1
	MaxOffset      = offsetMask
	reverseBit     = 62
	reverseFlag    = uint64(1) << reverseBit
	positionFields = positionMask | offsetMask<<offsetShift | reverseFlag
)

// ErrInvalidEncoding is returned when a field does not fit its bit width.
var ErrInvalidEncoding = errors.New("invalid encoding")

// PackQuality compacts tileRunLength and mismatchCount into one word, 16 bits each.
func PackQuality(tileRunLength, mismatchCount int) (uint32, error) {
	if tileRunLength < 1 || tileRunLength > MaxTileCount {
		return 0, fmt.Errorf("tile run length %d: %w", tileRunLength, ErrInvalidEncoding)
	}
	if mismatchCount < 0 || mismatchCount > MaxMismatch {
		return 0, fmt.Errorf("mismatch count %d: %w", mismatchCount, ErrInvalidEncoding)
	}
	return uint32(tileRunLength)<<qualityBits | uint32(mismatchCount), nil
}

func UnpackQuality(q uint32) (tileRunLength, mismatchCount int) {
	return int(q >> qualityBits), int(q & qualityMask)
}

// PackPosition compacts by 40,16,1: reference position in the low bits,
// offset of the run's first tile above it and the strand in bit 62.
func PackPosition(position int64, offset int, reverse bool) (uint64, error) {
	if position < 0 || position > MaxPosition {
		return 0, fmt.Errorf("position %d: %w", position, ErrInvalidEncoding)
	}
	if offset < 0 || offset > MaxOffset {
		return 0, fmt.Errorf("sequence offset %d: %w", offset, ErrInvalidEncoding)
	}
	p := uint64(position) | uint64(offset)<<offsetShift
	if reverse {
		p |= reverseFlag
	}
	return p, nil
}

func UnpackPosition(p uint64) (position int64, offset int, reverse bool) {
	return int64(p & positionMask), int((p >> offsetShift) & offsetMask), p&reverseFlag != 0
}

// TileMatch is one contiguous run of matching tiles.
type TileMatch struct {
	Quality  uint32
	Position uint64
}

// New packs the five run fields into a TileMatch.
func New(tileRunLength, mismatchCount int, position int64, offset int, reverse bool) (TileMatch, error) {
	q, err := PackQuality(tileRunLength, mismatchCount)
	if err != nil {
		return TileMatch{}, err
	}
	p, err := PackPosition(position, offset, reverse)
	if err != nil {
		return TileMatch{}, err
	}
	return TileMatch{Quality: q, Position: p}, nil
}

// FromWords validates already packed words, as they arrive from the tile index.
func FromWords(q uint32, p uint64) (TileMatch, error) {
	if tc, _ := UnpackQuality(q); tc < 1 {
		return TileMatch{}, fmt.Errorf("tile run length %d: %w", tc, ErrInvalidEncoding)
	}
	if p&^positionFields != 0 {
		return TileMatch{}, fmt.Errorf("position word %#x has unused bits set: %w", p, ErrInvalidEncoding)
	}
	return TileMatch{Quality: q, Position: p}, nil
}

func (m TileMatch) TileRunLength() int {
	tc, _ := UnpackQuality(m.Quality)
	return tc
}

func (m TileMatch) MismatchCount() int {
	_, mm := UnpackQuality(m.Quality)
	return mm
}

func (m TileMatch) ReferencePosition() int64 {
	return int64(m.Position & positionMask)
}

// SequenceOffset is the offset as stored, i.e. on the strand of the run.
func (m TileMatch) SequenceOffset() int {
	return int((m.Position >> offsetShift) & offsetMask)
}

func (m TileMatch) Reverse() bool {
	return m.Position&reverseFlag != 0
}

// Length is the number of query bases covered by the run.
func (m TileMatch) Length(tileLength int) int {
	return m.TileRunLength() + tileLength - 1
}

// StartPositionInSequence returns the forward-strand query offset of the
// run's first base. Reverse runs store their offset on the reverse
// complemented query, so it is reflected back here.
func (m TileMatch) StartPositionInSequence(querySize, tileLength int) int {
	if !m.Reverse() {
		return m.SequenceOffset()
	}
	return querySize - m.SequenceOffset() - m.Length(tileLength)
}

// Less orders by position word then quality word.
func (m TileMatch) Less(o TileMatch) bool {
	if m.Position != o.Position {
		return m.Position < o.Position
	}
	return m.Quality < o.Quality
}

func (m TileMatch) String() string {
	strand := '+'
	if m.Reverse() {
		strand = '-'
	}
	return fmt.Sprintf("[tiles:%d, mismatches:%d, position:%d, offset:%d, strand:%c]",
		m.TileRunLength(), m.MismatchCount(), m.ReferencePosition(), m.SequenceOffset(), strand)
}
