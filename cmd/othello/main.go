package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/rs/zerolog/log"

	"othello_go/internal/config"
	"othello_go/internal/driver"
	"othello_go/internal/ml"
	"othello_go/internal/ui"
)

func main() {
	cfg, err := config.Load(nil, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	config.SetupLogging(cfg.Debug)

	// 没有模型也能玩，落子退回贪心策略
	var inf driver.Inferer
	model, err := ml.Open(cfg.ML())
	switch {
	case errors.Is(err, ml.ErrNoModel):
		log.Info().Msg("no model configured, the computer plays greedily")
	case err != nil:
		log.Warn().Err(err).Msg("model unavailable, the computer plays greedily")
	default:
		defer ml.Shutdown()
		defer model.Close()
		inf = model
	}

	drv := driver.New(nil, inf, driver.Options{
		ContextLen: cfg.ContextLen,
		ModelSide:  cfg.ModelColor(),
	})
	var actx *audio.Context
	if cfg.Sound {
		actx = audio.NewContext(ui.SampleRate)
	}
	screen := ui.NewGameScreen(drv, cfg.TopK, actx)

	ebiten.SetTPS(30)
	ebiten.SetWindowSize(ui.WindowWidth, ui.WindowHeight)
	ebiten.SetWindowTitle("Othello")
	if err := ebiten.RunGame(screen); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}
