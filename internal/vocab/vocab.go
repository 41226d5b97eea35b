// Package vocab maps between board cell indices (0..63) and the move vocabulary
// of the sequence model (0 = pass, 1..60 = playable cells).
//
// The four centre cells are occupied from the start and never played, so they
// have no token. Token order follows board order with those four cells removed.
package vocab

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

const (
	// Size is the number of model tokens, pass included.
	Size = 61
	// PassToken is reserved for pass and never maps to a cell.
	PassToken = 0

	boardCells = 64
)

// Excluded lists the centre cells without a token, ascending.
// Both directions of the mapping are derived from this table only.
var Excluded = [4]int{27, 28, 35, 36}

// ErrInvalidIndex is returned when external input holds a board index outside
// 0..63 or a probability vector of the wrong width.
var ErrInvalidIndex = errors.New("vocab: index out of range")

// ErrNoToken is returned for an in-range input that has no counterpart: a centre
// cell has no token and PassToken has no cell.
var ErrNoToken = errors.New("vocab: no mapping")

// IsExcluded reports whether cell i is one of the centre cells.
func IsExcluded(i int) bool {
	return lo.Contains(Excluded[:], i)
}

// BoardToVocab returns the token for board cell i. ok is false for the centre
// cells and for indices outside the board.
func BoardToVocab(i int) (token int, ok bool) {
	if i < 0 || i >= boardCells || IsExcluded(i) {
		return 0, false
	}
	below := lo.CountBy(Excluded[:], func(e int) bool { return e < i })
	return i - below + 1, true
}

// VocabToBoard returns the board cell for token v. ok is false for PassToken and
// for tokens outside 0..60.
func VocabToBoard(v int) (cell int, ok bool) {
	if v <= PassToken || v >= Size {
		return 0, false
	}
	// 依次把 4 个空洞插回去；Excluded 升序，所以一次遍历就到不动点
	i := v - 1
	for _, e := range Excluded {
		if i >= e {
			i++
		}
	}
	return i, true
}

// TokenOf is BoardToVocab with the failure spelled out: ErrInvalidIndex for i
// outside 0..63, ErrNoToken for a centre cell.
func TokenOf(i int) (int, error) {
	if i < 0 || i >= boardCells {
		return 0, fmt.Errorf("cell %d: %w", i, ErrInvalidIndex)
	}
	t, ok := BoardToVocab(i)
	if !ok {
		return 0, fmt.Errorf("cell %d: %w", i, ErrNoToken)
	}
	return t, nil
}

// CellOf is VocabToBoard with the failure spelled out: ErrInvalidIndex for v
// outside 0..60, ErrNoToken for PassToken.
func CellOf(v int) (int, error) {
	if v < PassToken || v >= Size {
		return 0, fmt.Errorf("token %d: %w", v, ErrInvalidIndex)
	}
	c, ok := VocabToBoard(v)
	if !ok {
		return 0, fmt.Errorf("token %d: %w", v, ErrNoToken)
	}
	return c, nil
}

// EncodeHistory translates a move history into tokens, oldest first. Centre cells
// are dropped. When the result is longer than maxLen only the newest maxLen tokens
// are kept; maxLen <= 0 disables truncation.
func EncodeHistory[M ~int](moves []M, maxLen int) ([]int, error) {
	tokens := make([]int, 0, len(moves))
	for n, m := range moves {
		t, err := TokenOf(int(m))
		switch {
		case errors.Is(err, ErrNoToken):
			continue
		case err != nil:
			return nil, fmt.Errorf("history entry %d: %w", n, err)
		}
		tokens = append(tokens, t)
	}
	if maxLen > 0 && len(tokens) > maxLen {
		tokens = tokens[len(tokens)-maxLen:]
	}
	return tokens, nil
}

// DecodeProbabilities turns a dense vector over all Size tokens into a map from
// board cell to probability. The pass token is never part of the result.
func DecodeProbabilities[F ~float32 | ~float64](probs []F) (map[int]float64, error) {
	if len(probs) != Size {
		return nil, fmt.Errorf("probability vector has %d entries, want %d: %w", len(probs), Size, ErrInvalidIndex)
	}
	out := make(map[int]float64, Size-1)
	for v := PassToken + 1; v < Size; v++ {
		cell, ok := VocabToBoard(v)
		if !ok {
			continue
		}
		out[cell] = float64(probs[v])
	}
	return out, nil
}

// Candidate is one cell with its probability.
type Candidate struct {
	Cell int
	Prob float64
}

// TopK returns the k most probable cells, highest first; ties go to the lower
// cell. k <= 0 returns every entry.
func TopK(probs map[int]float64, k int) []Candidate {
	cands := lo.MapToSlice(probs, func(cell int, p float64) Candidate {
		return Candidate{Cell: cell, Prob: p}
	})
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Prob != cands[j].Prob {
			return cands[i].Prob > cands[j].Prob
		}
		return cands[i].Cell < cands[j].Cell
	})
	if k > 0 && len(cands) > k {
		cands = cands[:k]
	}
	return cands
}
