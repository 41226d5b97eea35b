package ui

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/rs/zerolog/log"

	"othello_go/internal/driver"
	"othello_go/internal/game"
	"othello_go/internal/vocab"
)

const (
	// 窗口尺寸
	WindowWidth  = 800
	WindowHeight = 600

	// 模型落子前的停顿，让翻子动画先播完
	modelDelay = 450 * time.Millisecond
)

// suggestion is a background Suggest result tagged with the game it belongs to.
type suggestion struct {
	gen int
	s   driver.Suggestion
	err error
}

// GameScreen 实现 ebiten.Game 接口，管理游戏主循环和渲染
type GameScreen struct {
	drv  *driver.Driver
	topK int
	face *text.GoXFace

	// 后台推理：results 只在 Update 里读
	results  chan suggestion
	thinking bool
	current  *driver.Suggestion // 当前局面的建议，Ply 对不上就作废
	gen      int                // 新开一局就 +1，丢弃旧结果

	delayUntil time.Time
	anims      []*FlipAnim
	status     string
	sounds     *AudioManager
}

// NewGameScreen wraps a driver. topK bars are shown in the probability chart.
// ctx may be nil to run without sound.
func NewGameScreen(drv *driver.Driver, topK int, ctx *audio.Context) *GameScreen {
	return &GameScreen{
		drv:     drv,
		topK:    topK,
		face:    uiFace,
		results: make(chan suggestion, 1),
		sounds:  NewAudioManager(ctx),
	}
}

// Update 每帧更新：收后台结果、模型落子、处理玩家输入
func (gs *GameScreen) Update() error {
	gs.sounds.Update()
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		gs.newGame()
		return nil
	}
	gs.collect()

	st := gs.drv.State()
	if st.GameOver {
		return nil
	}
	if gs.current == nil && !gs.thinking {
		gs.launch()
	}

	if gs.drv.IsModelTurn() {
		if gs.current == nil || time.Now().Before(gs.delayUntil) || gs.animating() {
			return nil
		}
		gs.commit(*gs.current)
		return nil
	}

	gs.handleInput()
	return nil
}

// launch starts Suggest for the current position on another goroutine.
func (gs *GameScreen) launch() {
	run, gen := gs.drv.Detach(), gs.gen
	gs.thinking = true
	go func() {
		s, err := run()
		gs.results <- suggestion{gen: gen, s: s, err: err}
	}()
}

func (gs *GameScreen) collect() {
	select {
	case r := <-gs.results:
		gs.thinking = false
		if r.gen != gs.gen || r.s.Ply != gs.drv.State().Ply() {
			return
		}
		if r.err != nil {
			log.Error().Err(r.err).Msg("suggest")
			return
		}
		if r.s.InferErr != nil && !errors.Is(r.s.InferErr, driver.ErrInferenceUnavailable) {
			log.Warn().Err(r.s.InferErr).Int("ply", r.s.Ply).Msg("inference failed, using fallback")
		}
		gs.current = &r.s
	default:
	}
}

func (gs *GameScreen) commit(s driver.Suggestion) {
	before := gs.drv.State().Clone()
	err := gs.drv.Commit(s)
	gs.current = nil
	if err != nil {
		// 过期的建议直接丢掉，下一帧重新算
		log.Debug().Err(err).Msg("commit")
		return
	}
	src := "model"
	if !s.FromModel {
		src = "fallback"
	}
	gs.status = fmt.Sprintf("%v plays %v (%s)", s.Side, s.Move, src)
	gs.afterMove(before)
}

// afterMove starts flip animations and reports passes caused by the last move.
func (gs *GameScreen) afterMove(before *game.GameState) {
	st := gs.drv.State()
	flips := flipAnims(&before.Board, &st.Board)
	gs.anims = append(pruneAnims(gs.anims), flips...)
	gs.sounds.Play("place")
	if len(flips) > 0 {
		gs.sounds.Play("flip")
	}
	if st.Passes() > before.Passes() {
		gs.status = fmt.Sprintf("%v has no move and passes", game.Opponent(st.CurrentPlayer))
		gs.sounds.Play("pass")
	}
	if st.GameOver {
		gs.status = resultLine(st)
		gs.sounds.Play("game_over")
	}
	gs.delayUntil = time.Now().Add(modelDelay)
}

func (gs *GameScreen) newGame() {
	gs.drv.Reset()
	gs.gen++
	gs.current = nil
	gs.anims = nil
	gs.status = "new game"
}

func resultLine(st *game.GameState) string {
	if st.Winner == game.Empty {
		return fmt.Sprintf("draw %d-%d", st.ScoreBlack, st.ScoreWhite)
	}
	return fmt.Sprintf("%v wins %d-%d", st.Winner, st.ScoreBlack, st.ScoreWhite)
}

// Draw 每帧渲染：棋盘、概率图、状态栏
func (gs *GameScreen) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x18, 0x18, 0x20, 0xff})
	st := gs.drv.State()

	var probs map[int]float64
	var top []vocab.Candidate
	if gs.current != nil {
		probs = gs.current.Probs
		top = gs.current.Top(gs.topK)
	}
	var hints []game.Move
	if !gs.drv.IsModelTurn() {
		hints = st.LegalMoves()
	}
	drawBoard(screen, &st.Board, boardMarks{
		hints: hints,
		probs: probs,
		last:  st.LastMove(),
		anims: gs.anims,
	})
	drawChart(screen, gs.face, top)

	line := fmt.Sprintf("Black %d  White %d   %v to move", st.ScoreBlack, st.ScoreWhite, st.CurrentPlayer)
	if st.GameOver {
		line = resultLine(st)
	} else if gs.thinking && gs.drv.IsModelTurn() {
		line += "   thinking..."
	}
	if !gs.drv.HasModel() {
		line += "   [no model]"
	}
	drawText(screen, gs.face, line, boardX, 24, color.White)
	drawText(screen, gs.face, gs.status, boardX, 44, color.RGBA{0xc0, 0xc0, 0xc0, 0xff})
	drawText(screen, gs.face, "N: new game", boardX, WindowHeight-24, color.RGBA{0x80, 0x80, 0x80, 0xff})
}

// Layout 固定逻辑分辨率，窗口缩放交给 ebiten
func (gs *GameScreen) Layout(outsideWidth, outsideHeight int) (int, int) {
	return WindowWidth, WindowHeight
}
