package shell

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"

	"othello_go/internal/driver"
	"othello_go/internal/game"
	"othello_go/internal/movelog"
)

func testController(modelSide game.CellState) (*Controller, *bytes.Buffer) {
	var buf bytes.Buffer
	d := driver.New(nil, nil, driver.Options{ModelSide: modelSide})
	return newController(d, &buf, 5), &buf
}

func TestMoveGetsAnswered(t *testing.T) {
	is := is.New(t)
	sc, buf := testController(game.White)

	is.NoErr(sc.Execute("c4"))
	st := sc.drv.State()
	is.Equal(st.History[0], game.Move(19))
	is.Equal(st.Ply(), 2)
	is.Equal(st.CurrentPlayer, game.Black)
	is.True(strings.Contains(buf.String(), "White plays"))
	is.True(strings.Contains(buf.String(), "fallback"))
}

func TestHotSeat(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(game.Empty)

	is.NoErr(sc.Execute("c4"))
	is.Equal(sc.drv.State().CurrentPlayer, game.White)
	is.NoErr(sc.Execute("play"))
	is.Equal(sc.drv.State().Ply(), 2)
}

func TestBadInput(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(game.White)

	is.True(errors.Is(sc.Execute("a1"), game.ErrIllegalMove))
	is.True(errors.Is(sc.Execute("frobnicate"), errUnknownCommand))
	is.True(errors.Is(sc.Execute("save"), errMissingArg))
	is.True(errors.Is(sc.Execute("exit"), errExit))
	is.NoErr(sc.Execute("   "))
	is.Equal(sc.drv.State().Ply(), 0)
}

func TestMovesAndProbs(t *testing.T) {
	is := is.New(t)
	sc, buf := testController(game.White)

	is.NoErr(sc.Execute("moves"))
	is.True(strings.Contains(buf.String(), "c4 d3 e6 f5"))

	buf.Reset()
	is.NoErr(sc.Execute("probs"))
	is.True(strings.Contains(buf.String(), "no prediction"))

	is.True(sc.Execute("probs x") != nil)
}

func TestSaveAndLoad(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(game.White)
	path := filepath.Join(t.TempDir(), "games.txt")

	is.NoErr(sc.Execute("c4"))
	is.NoErr(sc.Execute("save " + path))
	played := append([]game.Move(nil), sc.drv.State().History...)

	f, err := os.Open(path)
	is.NoErr(err)
	games, err := movelog.Read(f)
	f.Close()
	is.NoErr(err)
	is.Equal(len(games), 1)
	is.Equal(games[0].Moves, played)

	is.NoErr(sc.Execute("new"))
	is.Equal(sc.drv.State().Ply(), 0)

	is.NoErr(sc.Execute("load " + path))
	is.Equal(sc.drv.State().History, played)

	is.True(errors.Is(sc.Execute("load "+path+" 2"), game.ErrInvalidIndex))
}

func TestModelOpensAsBlack(t *testing.T) {
	is := is.New(t)
	sc, buf := testController(game.Black)

	err := sc.Execute("c4")
	is.True(errors.Is(err, game.ErrIllegalMove))
	is.True(strings.Contains(err.Error(), "not your turn"))
	is.Equal(sc.drv.State().Ply(), 0)

	is.NoErr(sc.Execute("new"))
	st := sc.drv.State()
	is.Equal(st.Ply(), 1)
	is.Equal(st.CurrentPlayer, game.White)
	is.True(strings.Contains(buf.String(), "Black plays"))

	// the human now answers as White
	is.NoErr(sc.Execute(st.LegalMoves()[0].String()))
	is.Equal(sc.drv.State().CurrentPlayer, game.White)
	is.Equal(sc.drv.State().Ply(), 3)
}

func TestLoadLeavesModelToMove(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "games.txt")
	is.NoErr(os.WriteFile(path, []byte("c4\n"), 0o644))

	sc, _ := testController(game.White)
	is.NoErr(sc.Execute("load " + path))
	st := sc.drv.State()
	is.Equal(st.History[0], game.Move(19))
	is.Equal(st.Ply(), 2)
	is.Equal(st.CurrentPlayer, game.Black)
}
