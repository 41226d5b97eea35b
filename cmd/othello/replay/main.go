package main

import (
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"othello_go/internal/config"
	"othello_go/internal/movelog"
	"othello_go/internal/ui"
)

func main() {
	in := pflag.StringP("in", "i", "games.txt", "move log, one game per line")
	delay := pflag.Duration("delay", 500*time.Millisecond, "delay between moves while playing")
	debug := pflag.Bool("debug", false, "debug logging")
	pflag.Parse()
	config.SetupLogging(*debug)

	f, err := os.Open(*in)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	games, err := movelog.Read(f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Str("file", *in).Msg("read move log")
	}

	screen, err := ui.NewReplayScreen(games, *delay)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	log.Info().Int("games", len(games)).Msg("loaded")

	ebiten.SetWindowSize(ui.WindowWidth, ui.WindowHeight)
	ebiten.SetWindowTitle("Othello replay")
	if err := ebiten.RunGame(screen); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}
