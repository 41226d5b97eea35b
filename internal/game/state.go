package game

import (
	"fmt"
)

// Phase is the turn-flow state of a game.
type Phase int

const (
	BlackToMove Phase = iota
	WhiteToMove
	GameOver
)

func (p Phase) String() string {
	switch p {
	case BlackToMove:
		return "BlackToMove"
	case WhiteToMove:
		return "WhiteToMove"
	}
	return "GameOver"
}

// GameState 包含了整局的状态：棋盘、轮到谁、分数、历史和胜负
//
// A GameState is owned by a single caller; it holds no locks. Use Clone to hand a
// snapshot to another goroutine.
type GameState struct {
	Board         Board     // 棋盘
	CurrentPlayer CellState // 当前玩家 (Black 或 White)；GameOver 之后保持最后一次的值
	Phase         Phase
	History       []Move // 实际落子的历史，不含 pass
	ScoreBlack    int
	ScoreWhite    int
	GameOver      bool
	Winner        CellState // 胜者 (Black、White 或 Empty 表示平局)

	passes int // forced passes so far
}

// NewGameState creates the standard starting position with Black to move.
func NewGameState() *GameState {
	return NewGameStateFrom(NewBoard(), Black)
}

// NewGameStateFrom builds a state from an arbitrary position. If side cannot move
// the turn is passed (or the game ended) immediately, following the same rule as
// after a move.
func NewGameStateFrom(b Board, side CellState) *GameState {
	if side != White {
		side = Black
	}
	gs := &GameState{
		Board:         b,
		CurrentPlayer: side,
	}
	gs.updateScores()
	gs.settle(Opponent(side))
	return gs
}

// updateScores 重新统计棋子数量
func (gs *GameState) updateScores() {
	gs.ScoreBlack, gs.ScoreWhite = gs.Board.Score()
}

// LegalMoves returns the legal moves for the side to move (nil once the game ended).
func (gs *GameState) LegalMoves() []Move {
	if gs.GameOver {
		return nil
	}
	return LegalMoves(&gs.Board, gs.CurrentPlayer)
}

// MakeMove applies m for the side to move, records it, and advances the turn.
// It returns the flipped cells.
func (gs *GameState) MakeMove(m Move) ([]Move, error) {
	if gs.GameOver {
		return nil, ErrGameOver
	}
	if !m.Valid() {
		return nil, fmt.Errorf("move %d: %w", int(m), ErrIllegalMove)
	}
	next, flipped, err := gs.Board.Apply(m, gs.CurrentPlayer)
	if err != nil {
		return nil, err
	}
	mover := gs.CurrentPlayer
	gs.Board = next
	gs.History = append(gs.History, m)
	gs.updateScores()
	gs.settle(mover)
	return flipped, nil
}

// settle decides who moves after mover has played:
//  1. the opponent if it has a legal move;
//  2. otherwise mover again (the opponent passes);
//  3. otherwise the game is over.
//
// Checking only the opponent would end games that the mover can still play on.
func (gs *GameState) settle(mover CellState) {
	opp := Opponent(mover)
	switch {
	case HasLegalMove(&gs.Board, opp):
		gs.CurrentPlayer = opp
	case HasLegalMove(&gs.Board, mover):
		gs.CurrentPlayer = mover
		gs.passes++
	default:
		gs.CurrentPlayer = opp
		gs.finish()
		return
	}
	if gs.CurrentPlayer == Black {
		gs.Phase = BlackToMove
	} else {
		gs.Phase = WhiteToMove
	}
}

// finish 标记结束并按子数判定胜负，相同子数为平局
func (gs *GameState) finish() {
	gs.GameOver = true
	gs.Phase = GameOver
	gs.updateScores()
	switch {
	case gs.ScoreBlack > gs.ScoreWhite:
		gs.Winner = Black
	case gs.ScoreWhite > gs.ScoreBlack:
		gs.Winner = White
	default:
		gs.Winner = Empty
	}
}

// GetScores returns the current disc counts (black, white).
func (gs *GameState) GetScores() (int, int) {
	return gs.ScoreBlack, gs.ScoreWhite
}

// Passes returns how many forced passes happened so far.
func (gs *GameState) Passes() int { return gs.passes }

// Ply counts every turn taken, passes included. It changes on every transition,
// so it can be used to detect stale snapshots.
func (gs *GameState) Ply() int { return len(gs.History) + gs.passes }

// LastMove returns the most recent placement, or Pass if nothing was played.
func (gs *GameState) LastMove() Move {
	if len(gs.History) == 0 {
		return Pass
	}
	return gs.History[len(gs.History)-1]
}

// Clone returns a deep copy that shares nothing with gs.
func (gs *GameState) Clone() *GameState {
	c := *gs
	c.History = append([]Move(nil), gs.History...)
	return &c
}

// Reset 重置到初始局面
func (gs *GameState) Reset() {
	*gs = *NewGameState()
}

// Replay rebuilds a game from the starting position by playing moves in order.
// Forced passes are implicit, exactly as during play.
func Replay(moves []Move) (*GameState, error) {
	gs := NewGameState()
	for i, m := range moves {
		if _, err := gs.MakeMove(m); err != nil {
			return gs, fmt.Errorf("replay move %d (%v): %w", i+1, m, err)
		}
	}
	return gs, nil
}
