package ui

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog/log"

	"othello_go/internal/game"
	"othello_go/internal/movelog"
)

// ReplayScreen 回放棋谱：空格 播放/暂停，← → 单步，↑ ↓ 换盘
type ReplayScreen struct {
	games       []movelog.Game
	gi, si      int // 第 gi 盘，已走 si 步
	state       *game.GameState
	err         error
	playing     bool
	delay       time.Duration
	lastAdvance time.Time
	before      *game.Board
	anims       []*FlipAnim
}

func NewReplayScreen(games []movelog.Game, delay time.Duration) (*ReplayScreen, error) {
	if len(games) == 0 {
		return nil, fmt.Errorf("no games to replay")
	}
	r := &ReplayScreen{games: games, delay: delay, lastAdvance: time.Now()}
	r.rebuild()
	return r, nil
}

func (r *ReplayScreen) moves() []game.Move { return r.games[r.gi].Moves }

// rebuild 重放当前盘的前 si 步
func (r *ReplayScreen) rebuild() {
	r.state, r.err = game.Replay(r.moves()[:r.si])
	if r.err != nil {
		log.Warn().Err(r.err).Int("line", r.games[r.gi].Line).Msg("bad game")
		r.playing = false
	}
}

func (r *ReplayScreen) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		r.playing = !r.playing
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		r.playing = false
		r.advance()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		r.playing = false
		r.rewind()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
		r.jump(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
		r.jump(-1)
	}
	if r.playing && time.Since(r.lastAdvance) >= r.delay {
		r.advance()
	}
	return nil
}

// advance 前进一步，本盘结束后切到下一盘
func (r *ReplayScreen) advance() {
	r.lastAdvance = time.Now()
	if r.err != nil {
		return
	}
	if r.si >= len(r.moves()) {
		if r.gi+1 < len(r.games) {
			r.jump(1)
		} else {
			r.playing = false
		}
		return
	}
	before := r.state.Board
	r.si++
	r.rebuild()
	if r.err == nil {
		r.anims = append(pruneAnims(r.anims), flipAnims(&before, &r.state.Board)...)
	}
}

func (r *ReplayScreen) rewind() {
	if r.si == 0 {
		return
	}
	r.si--
	r.anims = nil
	r.rebuild()
}

func (r *ReplayScreen) jump(d int) {
	gi := r.gi + d
	if gi < 0 || gi >= len(r.games) {
		return
	}
	r.gi, r.si, r.anims = gi, 0, nil
	r.rebuild()
}

func (r *ReplayScreen) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x10, 0x10, 0x30, 0xff})
	st := r.state
	drawBoard(screen, &st.Board, boardMarks{last: st.LastMove(), anims: r.anims})

	status := "paused"
	if r.playing {
		status = "playing"
	}
	info := fmt.Sprintf("Game %d/%d  Move %d/%d  Black %d  White %d  [%s]",
		r.gi+1, len(r.games), r.si, len(r.moves()), st.ScoreBlack, st.ScoreWhite, status)
	drawText(screen, uiFace, info, boardX, 24, color.White)

	line := ""
	switch {
	case r.err != nil:
		line = r.err.Error()
	case st.GameOver:
		line = resultLine(st)
	case r.si > 0:
		line = fmt.Sprintf("last %v, %v to move", st.LastMove(), st.CurrentPlayer)
	}
	drawText(screen, uiFace, line, boardX, 44, color.RGBA{0xc0, 0xc0, 0xc0, 0xff})
	drawText(screen, uiFace, "space: play/pause   left/right: step   up/down: game",
		boardX, WindowHeight-24, color.RGBA{0x80, 0x80, 0x80, 0xff})
}

func (r *ReplayScreen) Layout(outsideWidth, outsideHeight int) (int, int) {
	return WindowWidth, WindowHeight
}
