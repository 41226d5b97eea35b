package vocab

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
)

func TestBoardToVocabAllCells(t *testing.T) {
	seen := map[int]int{}
	prev := 0
	for i := 0; i < 64; i++ {
		tok, ok := BoardToVocab(i)
		switch i {
		case 27, 28, 35, 36:
			assert.False(t, ok, "cell %d must have no token", i)
			continue
		}
		assert.True(t, ok, "cell %d", i)
		assert.GreaterOrEqual(t, tok, 1)
		assert.LessOrEqual(t, tok, 60)
		assert.Greater(t, tok, prev, "tokens must grow with the cell index")
		prev = tok

		back, ok := VocabToBoard(tok)
		assert.True(t, ok)
		assert.Equal(t, i, back, "round trip of cell %d", i)

		_, dup := seen[tok]
		assert.False(t, dup, "token %d used twice", tok)
		seen[tok] = i
	}
	assert.Len(t, seen, 60)
}

func TestVocabToBoardAllTokens(t *testing.T) {
	is := is.New(t)

	_, ok := VocabToBoard(PassToken)
	is.True(!ok)
	_, ok = VocabToBoard(-1)
	is.True(!ok)
	_, ok = VocabToBoard(Size)
	is.True(!ok)

	for v := 1; v < Size; v++ {
		cell, ok := VocabToBoard(v)
		is.True(ok)
		is.True(!IsExcluded(cell))
		tok, ok := BoardToVocab(cell)
		is.True(ok)
		is.Equal(tok, v)
	}
}

func TestOffsetsAroundCentre(t *testing.T) {
	cases := []struct {
		cell, token int
	}{
		{0, 1},
		{26, 27},
		{29, 28},
		{34, 33},
		{37, 34},
		{63, 60},
	}
	for _, c := range cases {
		tok, ok := BoardToVocab(c.cell)
		assert.True(t, ok)
		assert.Equal(t, c.token, tok, "cell %d", c.cell)
	}
}

func TestBoardToVocabOutOfRange(t *testing.T) {
	is := is.New(t)
	_, ok := BoardToVocab(-1)
	is.True(!ok)
	_, ok = BoardToVocab(64)
	is.True(!ok)
}

func TestCheckedLookups(t *testing.T) {
	is := is.New(t)

	tok, err := TokenOf(19)
	is.NoErr(err)
	is.Equal(tok, 20)
	cell, err := CellOf(20)
	is.NoErr(err)
	is.Equal(cell, 19)

	for _, i := range []int{-1, 64, 100} {
		_, err := TokenOf(i)
		is.True(errors.Is(err, ErrInvalidIndex))
	}
	_, err = TokenOf(27)
	is.True(errors.Is(err, ErrNoToken))

	for _, v := range []int{-1, 61} {
		_, err := CellOf(v)
		is.True(errors.Is(err, ErrInvalidIndex))
	}
	_, err = CellOf(PassToken)
	is.True(errors.Is(err, ErrNoToken))
	is.True(!errors.Is(err, ErrInvalidIndex))
}

type move int

func TestEncodeHistory(t *testing.T) {
	is := is.New(t)

	tokens, err := EncodeHistory([]move{19, 18, 17, 63}, 0)
	is.NoErr(err)
	is.Equal(tokens, []int{20, 19, 18, 60})

	// centre cells are dropped, not rejected
	tokens, err = EncodeHistory([]int{27, 0, 36}, 0)
	is.NoErr(err)
	is.Equal(tokens, []int{1})

	// only the newest entries survive truncation
	tokens, err = EncodeHistory([]int{0, 1, 2, 3, 4}, 3)
	is.NoErr(err)
	is.Equal(tokens, []int{3, 4, 5})

	tokens, err = EncodeHistory([]int{}, 60)
	is.NoErr(err)
	is.Equal(len(tokens), 0)

	_, err = EncodeHistory([]int{0, 64}, 0)
	is.True(errors.Is(err, ErrInvalidIndex))
	_, err = EncodeHistory([]int{-1}, 0)
	is.True(errors.Is(err, ErrInvalidIndex))
}

func TestDecodeProbabilities(t *testing.T) {
	is := is.New(t)

	probs := make([]float32, Size)
	var total float32
	for v := range probs {
		probs[v] = float32(v + 1)
		total += probs[v]
	}
	for v := range probs {
		probs[v] /= total
	}

	out, err := DecodeProbabilities(probs)
	is.NoErr(err)
	is.Equal(len(out), 60)
	for _, c := range Excluded {
		_, found := out[c]
		is.True(!found)
	}
	// token 1 is cell 0, token 60 is cell 63
	is.Equal(out[0], float64(probs[1]))
	is.Equal(out[63], float64(probs[60]))

	// pass mass never shows up
	sum := 0.0
	for _, p := range out {
		sum += p
	}
	assert.InDelta(t, 1-float64(probs[PassToken]), sum, 1e-5)

	_, err = DecodeProbabilities(make([]float64, 64))
	is.True(errors.Is(err, ErrInvalidIndex))
}

func TestTopK(t *testing.T) {
	is := is.New(t)
	probs := map[int]float64{0: 0.1, 19: 0.4, 26: 0.4, 44: 0.05, 63: 0.05}

	top := TopK(probs, 3)
	is.Equal(top, []Candidate{{19, 0.4}, {26, 0.4}, {0, 0.1}})
	is.Equal(len(TopK(probs, 0)), 5)
	is.Equal(len(TopK(probs, 10)), 5)
	is.Equal(len(TopK(nil, 3)), 0)
}
