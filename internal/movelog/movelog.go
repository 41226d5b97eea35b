// Package movelog reads and writes games as text, one game per line:
//
//	c4 c3 c2 ...   # comment
//
// Moves are board cells in a1..h8 notation. Passes are never written; they
// follow from the rules when the game is replayed.
package movelog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"othello_go/internal/game"
	"othello_go/internal/vocab"
)

// Game is one parsed line.
type Game struct {
	Line  int // 1-based line in the source
	Moves []game.Move
}

// Parse reads the moves of a single line. Comments after '#' are ignored.
func Parse(line string) ([]game.Move, error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	moves := make([]game.Move, 0, len(fields))
	for n, f := range fields {
		m, err := game.ParseMove(f)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", n+1, err)
		}
		if m.IsPass() {
			continue
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// Format writes moves in the form Parse reads.
func Format(moves []game.Move) string {
	var sb strings.Builder
	for i, m := range moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(m.String())
	}
	return sb.String()
}

// Read parses every non-empty line of r.
func Read(r io.Reader) ([]Game, error) {
	var games []Game
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		moves, err := Parse(sc.Text())
		if err != nil {
			return games, fmt.Errorf("line %d: %w", n, err)
		}
		if len(moves) == 0 {
			continue
		}
		games = append(games, Game{Line: n, Moves: moves})
	}
	return games, sc.Err()
}

// Write writes one line per game.
func Write(w io.Writer, games [][]game.Move) error {
	bw := bufio.NewWriter(w)
	for _, g := range games {
		if _, err := bw.WriteString(Format(g) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Replay validates a game move by move from the starting position.
func Replay(moves []game.Move) (*game.GameState, error) {
	return game.Replay(moves)
}

// Header returns the CSV header matching CSVRecord rows of at most maxLen tokens.
func Header(maxLen int) []string {
	h := []string{"game", "winner"}
	for i := 0; i < maxLen; i++ {
		h = append(h, "t"+strconv.Itoa(i))
	}
	return h
}

// CSVRecord replays a game and returns [id, winner, tokens...] where tokens are
// model vocabulary indices. Winner is black, white, draw, or none while unfinished.
func CSVRecord(id string, moves []game.Move, maxLen int) ([]string, error) {
	gs, err := Replay(moves)
	if err != nil {
		return nil, err
	}
	tokens, err := vocab.EncodeHistory(gs.History, maxLen)
	if err != nil {
		return nil, err
	}
	winner := "none"
	switch {
	case !gs.GameOver:
	case gs.Winner == game.Empty:
		winner = "draw"
	default:
		winner = strings.ToLower(gs.Winner.String())
	}
	rec := make([]string, 0, len(tokens)+2)
	rec = append(rec, id, winner)
	for _, t := range tokens {
		rec = append(rec, strconv.Itoa(t))
	}
	return rec, nil
}
