package ui

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"othello_go/internal/game"
)

const flipDuration = 300 * time.Millisecond

// FlipAnim 一个棋子翻面的动画：先缩小成旧颜色，再放大成新颜色
type FlipAnim struct {
	Cell     int
	From, To game.CellState
	Start    time.Time
	Dur      time.Duration
}

// progress is in [0,1]; negative while the start is still in the future.
func (a *FlipAnim) progress() float64 {
	return float64(time.Since(a.Start)) / float64(a.Dur)
}

func (a *FlipAnim) Done() bool { return a.progress() >= 1 }

// flipAnims 比较前后两个棋盘，每个变色的格子一个动画，按离落子点的远近依次开始
func flipAnims(before, after *game.Board) []*FlipAnim {
	var out []*FlipAnim
	now := time.Now()
	placed := game.Pass
	for i := 0; i < game.NumCells; i++ {
		if before.Get(i) == game.Empty && after.Get(i) != game.Empty {
			placed = game.Move(i)
		}
	}
	for i := 0; i < game.NumCells; i++ {
		from, to := before.Get(i), after.Get(i)
		if from == game.Empty || from == to {
			continue
		}
		var delay time.Duration
		if placed.Valid() {
			delay = time.Duration(chebyshev(int(placed), i)-1) * 60 * time.Millisecond
		}
		out = append(out, &FlipAnim{
			Cell:  i,
			From:  from,
			To:    to,
			Start: now.Add(delay),
			Dur:   flipDuration,
		})
	}
	return out
}

// pruneAnims drops finished animations.
func pruneAnims(anims []*FlipAnim) []*FlipAnim {
	live := anims[:0]
	for _, a := range anims {
		if !a.Done() {
			live = append(live, a)
		}
	}
	return live
}

func (gs *GameScreen) animating() bool {
	gs.anims = pruneAnims(gs.anims)
	return len(gs.anims) > 0
}

func drawFlipping(dst *ebiten.Image, a *FlipAnim, cx, cy, r float32) {
	t := math.Max(a.progress(), 0)
	clr := discColor(a.From)
	if t >= 0.5 {
		clr = discColor(a.To)
	}
	scale := float32(math.Abs(math.Cos(math.Pi * t)))
	if scale < 0.05 {
		return
	}
	vector.DrawFilledCircle(dst, cx, cy, r*scale, clr, true)
}

func chebyshev(a, b int) int {
	ar, ac := game.RowCol(a)
	br, bc := game.RowCol(b)
	dr, dc := ar-br, ac-bc
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return max(dr, dc)
}
