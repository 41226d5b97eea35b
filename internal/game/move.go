package game

import (
	"fmt"
	"strings"
)

// Move is a cell index 0..63 (row-major) or Pass.
type Move int

// Pass is the symbolic move for a turn without a placement.
const Pass Move = -1

// Row returns the board row (0 = top).
func (m Move) Row() int { return int(m) / BoardSize }

// Col returns the board column (0 = left).
func (m Move) Col() int { return int(m) % BoardSize }

// IsPass reports whether m is the symbolic pass.
func (m Move) IsPass() bool { return m == Pass }

// Valid reports whether m names a board cell.
func (m Move) Valid() bool { return ValidIndex(int(m)) }

// String 返回 "<file><rank>" 记法：file = 'a'+row, rank = col+1。
// 注意这里行/列的命名和常规 Othello 记法是反的，旧的对局记录就是这么存的。
func (m Move) String() string {
	if m.IsPass() {
		return "pass"
	}
	if !m.Valid() {
		return fmt.Sprintf("?%d", int(m))
	}
	return fmt.Sprintf("%c%d", 'a'+m.Row(), m.Col()+1)
}

// ParseMove parses "<file><rank>" notation (case-insensitive) or "pass".
func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "pass" {
		return Pass, nil
	}
	if len(s) != 2 {
		return 0, fmt.Errorf("parse move %q: %w", s, ErrInvalidIndex)
	}
	row := int(s[0] - 'a')
	col := int(s[1] - '1')
	if !InBounds(row, col) {
		return 0, fmt.Errorf("parse move %q: %w", s, ErrInvalidIndex)
	}
	return Move(Index(row, col)), nil
}

// Opponent returns the other side. Empty maps to Empty.
func Opponent(player CellState) CellState {
	switch player {
	case Black:
		return White
	case White:
		return Black
	}
	return Empty
}

// flips collects every opposing disc that placing player's disc on m would flip.
// A direction counts only if it starts with at least one contiguous opposing disc
// and ends on player's own disc before an empty cell or the edge.
func flips(b *Board, m Move, player CellState) []Move {
	if !m.Valid() || b.cells[m] != Empty {
		return nil
	}
	opp := Opponent(player)
	var out []Move
	row, col := m.Row(), m.Col()
	for _, d := range Directions {
		r, c := row+d[0], col+d[1]
		start := len(out)
		for InBounds(r, c) && b.At(r, c) == opp {
			out = append(out, Move(Index(r, c)))
			r += d[0]
			c += d[1]
		}
		// 没有以己方棋子收尾，这个方向不算
		if len(out) == start || !InBounds(r, c) || b.At(r, c) != player {
			out = out[:start]
		}
	}
	return out
}

// IsLegal reports whether player may place a disc on m.
func IsLegal(b *Board, m Move, player CellState) bool {
	return len(flips(b, m, player)) > 0
}

// LegalMoves enumerates player's legal placements in ascending cell order.
// An empty result means player has to pass; it does not mean the game ended.
func LegalMoves(b *Board, player CellState) []Move {
	var moves []Move
	for i := 0; i < NumCells; i++ {
		if IsLegal(b, Move(i), player) {
			moves = append(moves, Move(i))
		}
	}
	return moves
}

// HasLegalMove is LegalMoves without the allocation.
func HasLegalMove(b *Board, player CellState) bool {
	for i := 0; i < NumCells; i++ {
		if IsLegal(b, Move(i), player) {
			return true
		}
	}
	return false
}

// FlipCount returns how many discs m would flip for player (0 when illegal).
func FlipCount(b *Board, m Move, player CellState) int {
	return len(flips(b, m, player))
}

// IsTerminal reports whether neither side has a legal move.
func IsTerminal(b *Board) bool {
	return !HasLegalMove(b, Black) && !HasLegalMove(b, White)
}

// Apply places player's disc on m and returns the resulting board together with
// the flipped cells. The receiver is left untouched.
func (b Board) Apply(m Move, player CellState) (Board, []Move, error) {
	if player != Black && player != White {
		return b, nil, fmt.Errorf("apply %v for %v: %w", m, player, ErrIllegalMove)
	}
	flipped := flips(&b, m, player)
	if len(flipped) == 0 {
		return b, nil, fmt.Errorf("apply %v for %v: %w", m, player, ErrIllegalMove)
	}
	b.cells[m] = player
	for _, f := range flipped {
		b.cells[f] = player
	}
	return b, flipped, nil
}
