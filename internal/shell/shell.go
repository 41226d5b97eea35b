// Package shell is a line-oriented front end: type moves, see the board and
// the model's distribution.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"othello_go/internal/driver"
	"othello_go/internal/game"
	"othello_go/internal/movelog"
)

var (
	errExit           = errors.New("exit")
	errUnknownCommand = errors.New("unknown command")
	errMissingArg     = errors.New("missing argument")
)

const helpText = `commands:
  <move>          play a move, e.g. c4 (the model answers if it plays the other side)
  play            let the model (or the fallback) move for the side to move
  moves           list legal moves
  probs [k]       show the model's top k cells
  board           print the board
  new             start a new game
  save <path>     append the game to a move log
  load <path> [n] replay game n (default 1) from a move log
  help            this text
  exit            quit`

// Controller runs the interactive text front end over a driver.
type Controller struct {
	l    *readline.Instance
	out  io.Writer
	drv  *driver.Driver
	topK int
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// NewController opens a readline prompt on the terminal for drv.
func NewController(drv *driver.Driver, topK int) (*Controller, error) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mothello>\033[0m ",
		HistoryFile:     "/tmp/othello_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc := newController(drv, l.Stdout(), topK)
	sc.l = l
	return sc, nil
}

func newController(drv *driver.Driver, out io.Writer, topK int) *Controller {
	if topK <= 0 {
		topK = 10
	}
	return &Controller{out: out, drv: drv, topK: topK}
}

func (sc *Controller) showMessage(msg string) {
	io.WriteString(sc.out, msg)
	io.WriteString(sc.out, "\n")
}

// Execute runs one command line. It returns errExit for "exit".
func (sc *Controller) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "exit", "quit":
		return errExit
	case "help":
		sc.showMessage(helpText)
	case "board":
		sc.showBoard()
	case "moves":
		sc.showMessage(movelog.Format(sc.drv.State().LegalMoves()))
	case "probs":
		k := sc.topK
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			k = n
		}
		sc.showProbs(k)
	case "new":
		sc.drv.Reset()
		if err := sc.modelReplies(); err != nil {
			return err
		}
		sc.afterTurn()
	case "play":
		return sc.modelMove()
	case "save":
		if len(args) == 0 {
			return fmt.Errorf("save: %w", errMissingArg)
		}
		return sc.save(args[0])
	case "load":
		if len(args) == 0 {
			return fmt.Errorf("load: %w", errMissingArg)
		}
		n := 1
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			n = v
		}
		return sc.load(args[0], n)
	default:
		m, err := game.ParseMove(cmd)
		if err != nil {
			return fmt.Errorf("%q: %w", cmd, errUnknownCommand)
		}
		if sc.drv.IsModelTurn() {
			return fmt.Errorf("%v: not your turn: %w", m, game.ErrIllegalMove)
		}
		if err := sc.drv.Play(m); err != nil {
			return err
		}
		if err := sc.modelReplies(); err != nil {
			return err
		}
		sc.afterTurn()
	}
	return nil
}

func (sc *Controller) modelMove() error {
	s, err := sc.drv.ModelTurn()
	if err != nil {
		return err
	}
	src := "model"
	if !s.FromModel {
		src = "fallback"
		if s.InferErr != nil && !errors.Is(s.InferErr, driver.ErrInferenceUnavailable) {
			log.Warn().Err(s.InferErr).Msg("inference failed")
		}
	}
	msg := fmt.Sprintf("%v plays %v (%s", s.Side, s.Move, src)
	if s.FromModel {
		msg += fmt.Sprintf(", p=%.3f", s.Probs[int(s.Move)])
	}
	sc.showMessage(msg + ")")
	return nil
}

// modelReplies plays model moves until the human is to move or the game ends.
func (sc *Controller) modelReplies() error {
	for sc.drv.IsModelTurn() {
		if err := sc.modelMove(); err != nil {
			return err
		}
	}
	return nil
}

func (sc *Controller) afterTurn() {
	st := sc.drv.State()
	sc.showBoard()
	if st.GameOver {
		if st.Winner == game.Empty {
			sc.showMessage(fmt.Sprintf("game over: draw %d-%d", st.ScoreBlack, st.ScoreWhite))
		} else {
			sc.showMessage(fmt.Sprintf("game over: %v wins %d-%d", st.Winner, st.ScoreBlack, st.ScoreWhite))
		}
	}
}

func (sc *Controller) showBoard() {
	st := sc.drv.State()
	sc.showMessage(st.Board.String())
	status := fmt.Sprintf("Black %d  White %d", st.ScoreBlack, st.ScoreWhite)
	if !st.GameOver {
		status += fmt.Sprintf("  %v to move", st.CurrentPlayer)
	}
	sc.showMessage(status)
}

func (sc *Controller) showProbs(k int) {
	s, err := sc.drv.Suggest()
	if err != nil {
		sc.showMessage(err.Error())
		return
	}
	top := s.Top(k)
	if len(top) == 0 {
		sc.showMessage("no prediction (" + s.InferErr.Error() + ")")
		return
	}
	for _, c := range top {
		mark := ""
		if game.Move(c.Cell) == s.Move {
			mark = "  <- best legal"
		}
		sc.showMessage(fmt.Sprintf("%-3v %6.2f%%%s", game.Move(c.Cell), 100*c.Prob, mark))
	}
}

func (sc *Controller) save(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := movelog.Write(f, [][]game.Move{sc.drv.State().History}); err != nil {
		return err
	}
	sc.showMessage("saved to " + path)
	return nil
}

func (sc *Controller) load(path string, n int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	games, err := movelog.Read(f)
	if err != nil {
		return err
	}
	if n < 1 || n > len(games) {
		return fmt.Errorf("game %d of %d: %w", n, len(games), game.ErrInvalidIndex)
	}
	gs, err := movelog.Replay(games[n-1].Moves)
	if err != nil {
		return err
	}
	sc.drv.Reset()
	for _, m := range gs.History {
		if err := sc.drv.Play(m); err != nil {
			return err
		}
	}
	if err := sc.modelReplies(); err != nil {
		return err
	}
	sc.afterTurn()
	return nil
}

// Loop reads commands until exit or EOF, then signals sig.
func (sc *Controller) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	if err := sc.modelReplies(); err != nil {
		log.Error().Err(err).Msg("model move")
	}
	sc.afterTurn()
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		if err := sc.Execute(strings.TrimSpace(line)); err != nil {
			if errors.Is(err, errExit) {
				break
			}
			log.Error().Err(err).Msg("")
		}
	}
	log.Debug().Msg("exiting readline loop")
	sig <- syscall.SIGINT
}
