package game

import (
	"strings"
)

// CellState represents the state of a cell on the board.
// It can be Empty or occupied by Black or White.
type CellState int

const (
	Empty CellState = iota
	Black
	White
)

const (
	BoardSize = 8
	NumCells  = BoardSize * BoardSize
)

// String returns a human readable name for the cell state.
func (s CellState) String() string {
	switch s {
	case Black:
		return "Black"
	case White:
		return "White"
	}
	return "Empty"
}

// Directions defines the 8 compass offsets as (dRow, dCol).
var Directions = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Board is an 8×8 Othello board stored row-major.
// It is a value type: copying a Board copies every cell.
type Board struct {
	cells [NumCells]CellState
}

// NewBoard returns the standard starting position:
// White on d4/e5 (27, 36), Black on d5/e4 (28, 35).
func NewBoard() Board {
	var b Board
	b.cells[27] = White
	b.cells[28] = Black
	b.cells[35] = Black
	b.cells[36] = White
	return b
}

// InBounds returns true if (row, col) lies on the board.
func InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < BoardSize && col < BoardSize
}

// Index converts (row, col) to a linear cell index.
func Index(row, col int) int { return row*BoardSize + col }

// RowCol converts a linear cell index to (row, col).
func RowCol(i int) (row, col int) { return i / BoardSize, i % BoardSize }

// ValidIndex reports whether i is a board cell index 0..63.
func ValidIndex(i int) bool { return i >= 0 && i < NumCells }

// Get returns the cell state at index i. Out of range indices read as Empty.
func (b *Board) Get(i int) CellState {
	if !ValidIndex(i) {
		return Empty
	}
	return b.cells[i]
}

// At returns the cell state at (row, col).
func (b *Board) At(row, col int) CellState {
	if !InBounds(row, col) {
		return Empty
	}
	return b.cells[Index(row, col)]
}

// Set updates the cell at index i. Returns ErrInvalidIndex if i is out of range.
func (b *Board) Set(i int, s CellState) error {
	if !ValidIndex(i) {
		return ErrInvalidIndex
	}
	b.cells[i] = s
	return nil
}

// Count returns the number of cells in state s.
func (b *Board) Count(s CellState) int {
	n := 0
	for _, c := range b.cells {
		if c == s {
			n++
		}
	}
	return n
}

// Score returns the disc count for each side.
func (b *Board) Score() (black, white int) {
	for _, c := range b.cells {
		switch c {
		case Black:
			black++
		case White:
			white++
		}
	}
	return black, white
}

// String renders the board with row letters and column numbers,
// matching the move notation (row -> file letter, col -> rank digit).
func (b Board) String() string {
	var sb strings.Builder
	sb.WriteString("  1 2 3 4 5 6 7 8\n")
	for row := 0; row < BoardSize; row++ {
		sb.WriteByte(byte('a' + row))
		for col := 0; col < BoardSize; col++ {
			sb.WriteByte(' ')
			switch b.cells[Index(row, col)] {
			case Black:
				sb.WriteByte('X')
			case White:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
