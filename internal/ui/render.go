package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"othello_go/internal/game"
	"othello_go/internal/vocab"
)

// 棋盘几何
const (
	cellSize = 56
	boardX   = 24
	boardY   = 64
	boardPx  = cellSize * game.BoardSize

	chartX = boardX + boardPx + 32
	chartW = WindowWidth - chartX - 24
	barH   = 18
	barGap = 8
)

var (
	colBoard  = color.RGBA{0x1f, 0x7a, 0x3c, 0xff}
	colGrid   = color.RGBA{0x0c, 0x40, 0x1e, 0xff}
	colBlack  = color.RGBA{0x10, 0x10, 0x10, 0xff}
	colWhite  = color.RGBA{0xf0, 0xf0, 0xf0, 0xff}
	colHint   = color.NRGBA{0xff, 0xff, 0xff, 0x50}
	colLast   = color.RGBA{0xe0, 0x40, 0x40, 0xff}
	colBar    = color.RGBA{0x50, 0x80, 0xc0, 0xff}
	colBest   = color.RGBA{0xff, 0x8c, 0x00, 0xff}
	colText   = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	colShadow = color.RGBA{0x00, 0x00, 0x00, 0x40}
)

var uiFace = text.NewGoXFace(basicfont.Face7x13)

// boardMarks is everything drawn on top of the discs.
type boardMarks struct {
	hints []game.Move     // 合法落点提示
	probs map[int]float64 // 模型概率，空则不画
	last  game.Move
	anims []*FlipAnim
}

func discColor(s game.CellState) color.Color {
	if s == game.White {
		return colWhite
	}
	return colBlack
}

// drawBoard 画底板、概率热度、棋子和提示
func drawBoard(dst *ebiten.Image, b *game.Board, marks boardMarks) {
	vector.DrawFilledRect(dst, boardX, boardY, boardPx, boardPx, colBoard, false)

	// 概率越高格子越亮
	for cell, p := range marks.probs {
		if p <= 0 || b.Get(cell) != game.Empty {
			continue
		}
		row, col := game.RowCol(cell)
		a := uint8(40 + 200*p)
		vector.DrawFilledRect(dst,
			float32(boardX+col*cellSize), float32(boardY+row*cellSize),
			cellSize, cellSize, color.NRGBA{0xff, 0xd0, 0x40, a}, false)
	}

	for i := 0; i <= game.BoardSize; i++ {
		off := float32(i * cellSize)
		vector.StrokeLine(dst, boardX+off, boardY, boardX+off, boardY+boardPx, 2, colGrid, false)
		vector.StrokeLine(dst, boardX, boardY+off, boardX+boardPx, boardY+off, 2, colGrid, false)
	}

	animated := map[int]*FlipAnim{}
	for _, a := range marks.anims {
		if !a.Done() {
			animated[a.Cell] = a
		}
	}

	r := float32(cellSize)/2 - 6
	for i := 0; i < game.NumCells; i++ {
		s := b.Get(i)
		if s == game.Empty {
			continue
		}
		cx, cy := cellCenter(i)
		if a, ok := animated[i]; ok {
			drawFlipping(dst, a, cx, cy, r)
			continue
		}
		vector.DrawFilledCircle(dst, cx+2, cy+2, r, colShadow, true)
		vector.DrawFilledCircle(dst, cx, cy, r, discColor(s), true)
	}

	for _, m := range marks.hints {
		cx, cy := cellCenter(int(m))
		vector.DrawFilledCircle(dst, cx, cy, 6, colHint, true)
	}

	if marks.last.Valid() {
		cx, cy := cellCenter(int(marks.last))
		vector.DrawFilledCircle(dst, cx, cy, 4, colLast, true)
	}

	drawCoords(dst)
}

// drawCoords labels rows a..h and columns 1..8.
func drawCoords(dst *ebiten.Image) {
	for i := 0; i < game.BoardSize; i++ {
		drawText(dst, uiFace, string(rune('a'+i)), boardX-14, boardY+i*cellSize+cellSize/2-6, colText)
		drawText(dst, uiFace, fmt.Sprint(i+1), boardX+i*cellSize+cellSize/2-3, boardY-16, colText)
	}
}

// drawChart 横向柱状图：前 k 个候选，最高的用橙色
func drawChart(dst *ebiten.Image, face text.Face, top []vocab.Candidate) {
	drawText(dst, face, "model top moves", chartX, boardY-16, colText)
	if len(top) == 0 {
		drawText(dst, face, "(no prediction)", chartX, boardY+4, colText)
		return
	}
	maxP := top[0].Prob
	if maxP <= 0 {
		maxP = 1
	}
	const labelW = 28
	const pctW = 56
	barMax := float32(chartW - labelW - pctW)
	for i, c := range top {
		y := boardY + i*(barH+barGap)
		col := colBar
		if i == 0 {
			col = colBest
		}
		w := barMax * float32(c.Prob/maxP)
		drawText(dst, face, game.Move(c.Cell).String(), chartX, y+3, colText)
		vector.DrawFilledRect(dst, float32(chartX+labelW), float32(y), w, barH, col, false)
		drawText(dst, face, fmt.Sprintf("%5.1f%%", 100*c.Prob),
			chartX+labelW+int(w)+6, y+3, colText)
	}
}

func drawText(dst *ebiten.Image, face text.Face, s string, x, y int, clr color.Color) {
	if s == "" {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, s, face, op)
}
