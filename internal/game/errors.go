package game

import "errors"

var (
	// ErrIllegalMove is returned when a move is not in the current legal set.
	// Callers should re-prompt or pick another move.
	ErrIllegalMove = errors.New("illegal move")
	// ErrGameOver is returned when a move is attempted after the game ended.
	ErrGameOver = errors.New("game is over")
	// ErrInvalidIndex is returned for cell indices outside 0..63.
	ErrInvalidIndex = errors.New("cell index out of range")
)
