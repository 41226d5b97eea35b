// Package driver runs a game between a human and the sequence model.
//
// Asking the model is split from applying its answer: Suggest only reads the
// state, Commit applies a suggestion if nothing moved in between. A failed or
// missing model never blocks the game; the fallback policy picks a legal move.
package driver

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"lukechampine.com/frand"

	"othello_go/internal/game"
	"othello_go/internal/vocab"
)

var (
	// ErrInferenceUnavailable means no model is loaded or there is no history to
	// condition on yet.
	ErrInferenceUnavailable = errors.New("driver: inference unavailable")
	// ErrStale is returned by Commit when the game advanced after the suggestion.
	ErrStale = errors.New("driver: stale suggestion")
)

// Inferer predicts the next-move distribution over the model vocabulary.
type Inferer interface {
	Predict(tokens []int) ([]float32, error)
}

// InfererFunc adapts a function to Inferer.
type InfererFunc func(tokens []int) ([]float32, error)

func (f InfererFunc) Predict(tokens []int) ([]float32, error) { return f(tokens) }

// DefaultContextLen matches the block size of the trained model.
const DefaultContextLen = 60

// Options configures a Driver.
type Options struct {
	ContextLen int            // tokens fed to the model, newest kept
	ModelSide  game.CellState // side played by the model; Empty = none
}

// Suggestion is a move proposal for one position.
type Suggestion struct {
	Ply       int            // GameState.Ply() when computed
	Side      game.CellState // side to move when computed
	Move      game.Move
	Probs     map[int]float64 // cell -> probability, empty without inference
	Legal     []game.Move
	FromModel bool  // false when the fallback policy chose Move
	InferErr  error // why the model was not used, if it was not
}

// Top returns the k most probable cells of the suggestion.
func (s Suggestion) Top(k int) []vocab.Candidate {
	return vocab.TopK(s.Probs, k)
}

// Driver owns a game state. It is not safe for concurrent use; hand a
// Clone of State() to other goroutines and call the package-level Suggest.
type Driver struct {
	state *game.GameState
	inf   Inferer
	opts  Options
	log   zerolog.Logger
}

// New returns a driver for state. inf may be nil.
func New(state *game.GameState, inf Inferer, opts Options) *Driver {
	if state == nil {
		state = game.NewGameState()
	}
	if opts.ContextLen <= 0 {
		opts.ContextLen = DefaultContextLen
	}
	return &Driver{
		state: state,
		inf:   inf,
		opts:  opts,
		log:   log.With().Str("component", "driver").Logger(),
	}
}

// State returns the live game state. Callers must not mutate it.
func (d *Driver) State() *game.GameState { return d.state }

// Options returns the driver's options.
func (d *Driver) Options() Options { return d.opts }

// HasModel reports whether an inferer is attached.
func (d *Driver) HasModel() bool { return d.inf != nil }

// IsModelTurn reports whether the model should move next.
func (d *Driver) IsModelTurn() bool {
	return !d.state.GameOver && d.opts.ModelSide != game.Empty &&
		d.state.CurrentPlayer == d.opts.ModelSide
}

// Play applies a move for the side to move. Illegal moves leave the state as is.
func (d *Driver) Play(m game.Move) error {
	flipped, err := d.state.MakeMove(m)
	if err != nil {
		d.log.Debug().Stringer("move", m).Err(err).Msg("rejected")
		return err
	}
	d.log.Debug().Stringer("move", m).Int("flipped", len(flipped)).
		Stringer("next", d.state.Phase).Msg("played")
	return nil
}

// Suggest computes a move for the side to move without changing the state.
func (d *Driver) Suggest() (Suggestion, error) {
	return Suggest(d.state, d.inf, d.opts.ContextLen)
}

// Detach returns a Suggest call bound to a copy of the current state. The
// returned function may run on any goroutine; pass its result to Commit.
func (d *Driver) Detach() func() (Suggestion, error) {
	snap := d.state.Clone()
	inf, n := d.inf, d.opts.ContextLen
	return func() (Suggestion, error) {
		return Suggest(snap, inf, n)
	}
}

// Commit applies s if the state is still the one s was computed for.
func (d *Driver) Commit(s Suggestion) error {
	if d.state.GameOver || s.Ply != d.state.Ply() || s.Side != d.state.CurrentPlayer {
		return fmt.Errorf("suggestion for ply %d, state at ply %d: %w", s.Ply, d.state.Ply(), ErrStale)
	}
	return d.Play(s.Move)
}

// ModelTurn suggests and commits in one step.
func (d *Driver) ModelTurn() (Suggestion, error) {
	s, err := d.Suggest()
	if err != nil {
		return s, err
	}
	return s, d.Commit(s)
}

// Probabilities returns the model's distribution for the current position, or
// an empty map when inference is unavailable.
func (d *Driver) Probabilities() map[int]float64 {
	probs, err := infer(d.state, d.inf, d.opts.ContextLen)
	if err != nil {
		return map[int]float64{}
	}
	return probs
}

// Reset starts a new game.
func (d *Driver) Reset() {
	d.state.Reset()
	d.log.Debug().Msg("new game")
}

// Suggest computes a move for gs. It only reads gs, so it may run on a cloned
// state in another goroutine.
func Suggest(gs *game.GameState, inf Inferer, contextLen int) (Suggestion, error) {
	if gs.GameOver {
		return Suggestion{}, game.ErrGameOver
	}
	s := Suggestion{
		Ply:   gs.Ply(),
		Side:  gs.CurrentPlayer,
		Legal: gs.LegalMoves(),
		Probs: map[int]float64{},
	}
	if len(s.Legal) == 0 {
		// settle never leaves a live state without moves
		return s, fmt.Errorf("no legal move for %v: %w", s.Side, game.ErrIllegalMove)
	}

	probs, err := infer(gs, inf, contextLen)
	if err != nil {
		s.InferErr = err
		s.Move = fallback(&gs.Board, s.Legal, s.Side)
		log.Debug().Err(err).Stringer("move", s.Move).Msg("fallback move")
		return s, nil
	}
	s.Probs = probs
	s.Move = argMax(probs, s.Legal)
	s.FromModel = true
	log.Debug().Stringer("move", s.Move).Float64("p", probs[int(s.Move)]).
		Int("ply", s.Ply).Msg("model move")
	return s, nil
}

func infer(gs *game.GameState, inf Inferer, contextLen int) (map[int]float64, error) {
	if inf == nil {
		return nil, ErrInferenceUnavailable
	}
	tokens, err := vocab.EncodeHistory(gs.History, contextLen)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty history: %w", ErrInferenceUnavailable)
	}
	raw, err := inf.Predict(tokens)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return vocab.DecodeProbabilities(raw)
}

// argMax picks the most probable legal move; ties go to the lower cell because
// legal is ascending.
func argMax(probs map[int]float64, legal []game.Move) game.Move {
	ps := lo.Map(legal, func(m game.Move, _ int) float64 { return probs[int(m)] })
	return legal[floats.MaxIdx(ps)]
}

// fallback 贪心：翻子最多，平手随机
func fallback(b *game.Board, legal []game.Move, side game.CellState) game.Move {
	best := lo.MaxBy(legal, func(a, m game.Move) bool {
		return game.FlipCount(b, a, side) > game.FlipCount(b, m, side)
	})
	top := game.FlipCount(b, best, side)
	ties := lo.Filter(legal, func(m game.Move, _ int) bool {
		return game.FlipCount(b, m, side) == top
	})
	return ties[frand.Intn(len(ties))]
}
