package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"othello_go/internal/config"
	"othello_go/internal/driver"
	"othello_go/internal/game"
	"othello_go/internal/ml"
	"othello_go/internal/movelog"
)

// selfplay 有两种用法：
//
//	selfplay -in games.txt -out dataset.csv    把棋谱转成 token CSV
//	selfplay -n 1000 -out dataset.csv          自对弈生成棋谱并写 CSV（-log 另存文本棋谱）
func main() {
	fs := pflag.NewFlagSet("selfplay", pflag.ContinueOnError)
	in := fs.String("in", "", "move log to convert; empty = generate games")
	numGames := fs.IntP("num", "n", 1000, "games to generate")
	outFile := fs.StringP("out", "o", "dataset.csv", "CSV output")
	logFile := fs.String("log", "", "also write generated games as a move log")
	opening := fs.Int("random-opening", 4, "random plies before the policy takes over")
	workers := fs.IntP("workers", "j", max(runtime.NumCPU()/2, 1), "parallel workers")
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	config.SetupLogging(cfg.Debug)

	var inf driver.Inferer
	if cfg.ModelPath != "" {
		m, err := ml.Open(cfg.ML())
		if err != nil {
			log.Fatal().Err(err).Msg("open model")
		}
		defer ml.Shutdown()
		defer m.Close()
		inf = m
	}

	var games [][]game.Move
	if *in != "" {
		games, err = readGames(*in)
	} else {
		games, err = generate(context.Background(), *numGames, *workers, *opening, inf, cfg.ContextLen)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}

	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			log.Fatal().Err(err).Msg("create move log")
		}
		if err := movelog.Write(f, games); err != nil {
			log.Fatal().Err(err).Msg("write move log")
		}
		f.Close()
	}

	n, err := writeCSV(context.Background(), *outFile, games, cfg.ContextLen, *workers)
	if err != nil {
		log.Fatal().Err(err).Msg("write csv")
	}
	log.Info().Int("games", n).Str("out", *outFile).Msg("done")
}

func readGames(path string) ([][]game.Move, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	logged, err := movelog.Read(f)
	if err != nil {
		return nil, err
	}
	out := make([][]game.Move, len(logged))
	for i, g := range logged {
		out[i] = g.Moves
	}
	return out, nil
}

// generate plays n games in parallel. Each game gets its own driver, the model
// (if any) is shared.
func generate(ctx context.Context, n, workers, opening int, inf driver.Inferer, contextLen int) ([][]game.Move, error) {
	games := make([][]game.Move, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	log.Info().Int("games", n).Int("workers", workers).Bool("model", inf != nil).Msg("self-play")

	for id := 0; id < n; id++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			moves, err := playOne(inf, contextLen, opening)
			if err != nil {
				return fmt.Errorf("game %d: %w", id, err)
			}
			games[id] = moves
			if (id+1)%100 == 0 {
				log.Info().Msgf("played %d/%d", id+1, n)
			}
			return nil
		})
	}
	return games, g.Wait()
}

func playOne(inf driver.Inferer, contextLen, opening int) ([]game.Move, error) {
	d := driver.New(nil, inf, driver.Options{ContextLen: contextLen})
	for ply := 0; !d.State().GameOver; ply++ {
		if ply < opening {
			legal := d.State().LegalMoves()
			if err := d.Play(legal[frand.Intn(len(legal))]); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := d.ModelTurn(); err != nil {
			return nil, err
		}
	}
	return d.State().History, nil
}

// writeCSV 并发重放校验，写入时加锁，行顺序不保证
func writeCSV(ctx context.Context, path string, games [][]game.Move, maxLen, workers int) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(movelog.Header(maxLen)); err != nil {
		return 0, err
	}

	var (
		mu      sync.Mutex
		written int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, moves := range games {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := movelog.CSVRecord(strconv.Itoa(i+1), moves, maxLen)
			if err != nil {
				// 非法棋谱跳过，不中断整批
				log.Warn().Err(err).Int("game", i+1).Msg("skipped")
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			written++
			return w.Write(rec)
		})
	}
	if err := g.Wait(); err != nil {
		return written, err
	}
	w.Flush()
	return written, w.Error()
}
