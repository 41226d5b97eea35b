package driver

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"othello_go/internal/game"
	"othello_go/internal/vocab"
)

// dist builds a model output with the given cell probabilities; the rest of the
// mass sits on the pass token.
func dist(cells map[int]float32) []float32 {
	out := make([]float32, vocab.Size)
	var used float32
	for c, p := range cells {
		tok, ok := vocab.BoardToVocab(c)
		if !ok {
			panic(c)
		}
		out[tok] = p
		used += p
	}
	out[vocab.PassToken] = 1 - used
	return out
}

func failing(tokens []int) ([]float32, error) {
	return nil, errors.New("boom")
}

func afterOpening(t *testing.T) *game.GameState {
	t.Helper()
	gs := game.NewGameState()
	if _, err := gs.MakeMove(19); err != nil {
		t.Fatal(err)
	}
	return gs
}

func TestSuggestPicksBestLegalMove(t *testing.T) {
	is := is.New(t)
	gs := afterOpening(t)
	is.Equal(gs.LegalMoves(), []game.Move{18, 20, 34})

	var seen []int
	inf := InfererFunc(func(tokens []int) ([]float32, error) {
		seen = tokens
		// cell 0 is the favourite but not legal
		return dist(map[int]float32{0: 0.8, 20: 0.05, 34: 0.1}), nil
	})
	d := New(gs, inf, Options{})

	s, err := d.Suggest()
	is.NoErr(err)
	is.True(s.FromModel)
	is.NoErr(s.InferErr)
	is.Equal(s.Move, game.Move(34))
	is.Equal(seen, []int{20}) // token of c4
	is.Equal(len(s.Probs), 60)
	is.Equal(s.Side, game.White)
	is.Equal(s.Top(1)[0].Cell, 0)

	// Suggest does not touch the state
	is.Equal(gs.Ply(), 1)
	is.Equal(gs.CurrentPlayer, game.White)
}

func TestSuggestTieGoesToLowerCell(t *testing.T) {
	is := is.New(t)
	inf := InfererFunc(func([]int) ([]float32, error) {
		return dist(map[int]float32{20: 0.3, 34: 0.3}), nil
	})
	s, err := Suggest(afterOpening(t), inf, 60)
	is.NoErr(err)
	is.Equal(s.Move, game.Move(20))
}

func TestFailingInfererFallsBack(t *testing.T) {
	is := is.New(t)
	gs := afterOpening(t)
	before := gs.Clone()
	d := New(gs, InfererFunc(failing), Options{})

	s, err := d.Suggest()
	is.NoErr(err)
	is.True(!s.FromModel)
	is.True(s.InferErr != nil)
	is.Equal(len(s.Probs), 0)
	is.True(gs.Board.Get(int(s.Move)) == game.Empty)
	assert.Contains(t, s.Legal, s.Move)
	is.Equal(gs.Board, before.Board)
	is.Equal(len(d.Probabilities()), 0)
}

func TestNoModelAndEmptyHistory(t *testing.T) {
	is := is.New(t)

	s, err := Suggest(afterOpening(t), nil, 60)
	is.NoErr(err)
	is.True(errors.Is(s.InferErr, ErrInferenceUnavailable))

	called := false
	inf := InfererFunc(func([]int) ([]float32, error) {
		called = true
		return dist(nil), nil
	})
	s, err = Suggest(game.NewGameState(), inf, 60)
	is.NoErr(err)
	is.True(!called)
	is.True(errors.Is(s.InferErr, ErrInferenceUnavailable))
	assert.Contains(t, []game.Move{19, 26, 37, 44}, s.Move)
}

func TestBadOutputWidthFallsBack(t *testing.T) {
	is := is.New(t)
	inf := InfererFunc(func([]int) ([]float32, error) {
		return make([]float32, 64), nil
	})
	s, err := Suggest(afterOpening(t), inf, 60)
	is.NoErr(err)
	is.True(errors.Is(s.InferErr, vocab.ErrInvalidIndex))
	is.True(!s.FromModel)
}

func TestFallbackPrefersMostFlips(t *testing.T) {
	is := is.New(t)
	var b game.Board
	// row 0: _ W W B ; row 2: _ W B
	for _, i := range []int{3, 18} {
		is.NoErr(b.Set(i, game.Black))
	}
	for _, i := range []int{1, 2, 17} {
		is.NoErr(b.Set(i, game.White))
	}
	gs := game.NewGameStateFrom(b, game.Black)
	is.Equal(gs.LegalMoves(), []game.Move{0, 16})

	for i := 0; i < 10; i++ {
		s, err := Suggest(gs, nil, 60)
		is.NoErr(err)
		is.Equal(s.Move, game.Move(0))
	}
}

func TestContextIsTruncated(t *testing.T) {
	is := is.New(t)
	gs := afterOpening(t)
	_, err := gs.MakeMove(18)
	is.NoErr(err)
	_, err = gs.MakeMove(17)
	is.NoErr(err)

	var seen []int
	inf := InfererFunc(func(tokens []int) ([]float32, error) {
		seen = tokens
		return dist(nil), nil
	})
	_, err = Suggest(gs, inf, 2)
	is.NoErr(err)
	is.Equal(seen, []int{19, 18})
}

func TestCommitRejectsStaleSuggestion(t *testing.T) {
	is := is.New(t)
	d := New(afterOpening(t), InfererFunc(failing), Options{})

	s, err := d.Suggest()
	is.NoErr(err)
	is.NoErr(d.Play(s.Legal[len(s.Legal)-1]))

	err = d.Commit(s)
	is.True(errors.Is(err, ErrStale))
	is.Equal(d.State().Ply(), 2)
}

func TestModelTurnAndPlay(t *testing.T) {
	is := is.New(t)
	d := New(nil, InfererFunc(failing), Options{ModelSide: game.White})

	is.True(!d.IsModelTurn())
	is.True(errors.Is(d.Play(0), game.ErrIllegalMove))
	is.NoErr(d.Play(19))
	is.True(d.IsModelTurn())

	s, err := d.ModelTurn()
	is.NoErr(err)
	is.Equal(d.State().LastMove(), s.Move)
	is.Equal(d.State().CurrentPlayer, game.Black)
	is.True(!d.IsModelTurn())

	d.Reset()
	is.Equal(d.State().Ply(), 0)
}

func TestSuggestAfterGameOver(t *testing.T) {
	is := is.New(t)
	var full game.Board
	for i := 0; i < game.NumCells; i++ {
		is.NoErr(full.Set(i, game.Black))
	}
	d := New(game.NewGameStateFrom(full, game.Black), nil, Options{})
	_, err := d.Suggest()
	is.True(errors.Is(err, game.ErrGameOver))
	is.True(errors.Is(d.Commit(Suggestion{}), ErrStale))
}

func TestDetachRunsOnSnapshot(t *testing.T) {
	is := is.New(t)
	d := New(afterOpening(t), InfererFunc(failing), Options{})

	run := d.Detach()
	is.NoErr(d.Play(18))

	done := make(chan Suggestion)
	go func() {
		s, err := run()
		if err != nil {
			t.Error(err)
		}
		done <- s
	}()
	s := <-done
	is.Equal(s.Ply, 1)
	is.Equal(s.Side, game.White)
	is.True(errors.Is(d.Commit(s), ErrStale))
}
