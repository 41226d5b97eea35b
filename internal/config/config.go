package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"othello_go/internal/game"
	"othello_go/internal/ml"
)

const envPrefix = "OTHELLO"

// ErrInvalidConfig wraps every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid value")

// Config is the merged result of defaults, config file, environment and flags.
type Config struct {
	ModelPath  string `mapstructure:"model_path"`
	OrtLibPath string `mapstructure:"ort_lib_path"`
	UseCUDA    bool   `mapstructure:"use_cuda"`
	ContextLen int    `mapstructure:"context_len"`
	HumanSide  string `mapstructure:"human_side"`
	TopK       int    `mapstructure:"top_k"`
	Debug      bool   `mapstructure:"debug"`
	Sound      bool   `mapstructure:"sound"`
}

var keys = []string{"model_path", "ort_lib_path", "use_cuda", "context_len", "human_side", "top_k", "debug", "sound"}

// Load reads, in increasing priority: defaults, the file named by --config,
// OTHELLO_* environment variables, and flags in args. fs may carry the
// caller's own flags; it is created when nil.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	v := viper.New()
	v.SetDefault("model_path", "")
	v.SetDefault("ort_lib_path", "")
	v.SetDefault("use_cuda", false)
	v.SetDefault("context_len", 60)
	v.SetDefault("human_side", "black")
	v.SetDefault("top_k", 10)
	v.SetDefault("debug", false)
	v.SetDefault("sound", true)

	if fs == nil {
		fs = pflag.NewFlagSet("othello", pflag.ContinueOnError)
	}
	cfgFile := fs.String("config", "", "config file (yaml, toml or json)")
	fs.String("model-path", "", "ONNX model file; empty plays without a model")
	fs.String("ort-lib-path", "", "onnxruntime shared library")
	fs.Bool("use-cuda", false, "run the model on CUDA when available")
	fs.Int("context-len", 60, "tokens of history fed to the model")
	fs.String("human-side", "black", "black, white or none")
	fs.Int("top-k", 10, "cells shown in the probability chart")
	fs.Bool("debug", false, "debug logging")
	fs.Bool("sound", true, "play move sounds")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	// 只绑定显式给出的 flag，否则 flag 的默认值会盖住配置文件和环境变量
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !slices.Contains(keys, key) {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	// the runtime's own variable, as read by onnxruntime_go users
	if err := v.BindEnv("ort_lib_path", envPrefix+"_ORT_LIB_PATH", "ONNXRUNTIME_SHARED_LIBRARY_PATH"); err != nil {
		return nil, err
	}

	if *cfgFile != "" {
		v.SetConfigFile(*cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", *cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and enum values.
func (c *Config) Validate() error {
	if c.ContextLen <= 0 {
		return fmt.Errorf("context_len %d: %w", c.ContextLen, ErrInvalidConfig)
	}
	if c.TopK < 0 {
		return fmt.Errorf("top_k %d: %w", c.TopK, ErrInvalidConfig)
	}
	if _, err := c.HumanColor(); err != nil {
		return err
	}
	return nil
}

// HumanColor parses HumanSide. "none" gives Empty: two people share the board.
func (c *Config) HumanColor() (game.CellState, error) {
	switch strings.ToLower(strings.TrimSpace(c.HumanSide)) {
	case "black", "b", "x":
		return game.Black, nil
	case "white", "w", "o":
		return game.White, nil
	case "none", "":
		return game.Empty, nil
	}
	return game.Empty, fmt.Errorf("human_side %q: %w", c.HumanSide, ErrInvalidConfig)
}

// ModelColor is the side left to the model, Empty when nobody plays against it.
func (c *Config) ModelColor() game.CellState {
	h, err := c.HumanColor()
	if err != nil || h == game.Empty {
		return game.Empty
	}
	return game.Opponent(h)
}

// ML returns the model settings.
func (c *Config) ML() ml.Config {
	return ml.Config{
		ModelPath:  c.ModelPath,
		LibPath:    c.OrtLibPath,
		UseCUDA:    c.UseCUDA,
		ContextLen: c.ContextLen,
	}
}
