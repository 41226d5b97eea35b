package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"othello_go/internal/config"
	"othello_go/internal/driver"
	"othello_go/internal/ml"
	"othello_go/internal/shell"
)

func main() {
	cfg, err := config.Load(nil, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	config.SetupLogging(cfg.Debug)

	var inf driver.Inferer
	model, err := ml.Open(cfg.ML())
	switch {
	case errors.Is(err, ml.ErrNoModel):
		log.Info().Msg("no model configured")
	case err != nil:
		log.Warn().Err(err).Msg("model unavailable")
	default:
		defer ml.Shutdown()
		defer model.Close()
		inf = model
	}

	drv := driver.New(nil, inf, driver.Options{
		ContextLen: cfg.ContextLen,
		ModelSide:  cfg.ModelColor(),
	})
	sc, err := shell.NewController(drv, cfg.TopK)
	if err != nil {
		log.Fatal().Err(err).Msg("readline")
	}

	done := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		close(done)
	}()

	go sc.Loop(sig)
	<-done
	log.Debug().Msg("bye")
}
