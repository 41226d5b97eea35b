package ui

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"othello_go/internal/game"
)

// pixelToCell 把屏幕像素坐标反算成格子下标
func pixelToCell(x, y int) (game.Move, bool) {
	if x < boardX || y < boardY {
		return game.Pass, false
	}
	col := (x - boardX) / cellSize
	row := (y - boardY) / cellSize
	if !game.InBounds(row, col) {
		return game.Pass, false
	}
	return game.Move(game.Index(row, col)), true
}

// cellCenter returns the pixel centre of cell i.
func cellCenter(i int) (float32, float32) {
	row, col := game.RowCol(i)
	return float32(boardX + col*cellSize + cellSize/2), float32(boardY + row*cellSize + cellSize/2)
}

// handleInput 处理鼠标点击落子
func (gs *GameScreen) handleInput() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	m, ok := pixelToCell(ebiten.CursorPosition())
	if !ok {
		return
	}
	before := gs.drv.State().Clone()
	if err := gs.drv.Play(m); err != nil {
		if errors.Is(err, game.ErrIllegalMove) {
			gs.status = fmt.Sprintf("%v is not a legal move", m)
			gs.sounds.Play("illegal")
		}
		return
	}
	gs.current = nil
	gs.status = fmt.Sprintf("%v plays %v", before.CurrentPlayer, m)
	gs.afterMove(before)
}
