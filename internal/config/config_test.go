package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/spf13/pflag"

	"othello_go/internal/game"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"OTHELLO_MODEL_PATH", "OTHELLO_CONTEXT_LEN", "OTHELLO_HUMAN_SIDE",
		"OTHELLO_TOP_K", "OTHELLO_ORT_LIB_PATH", "ONNXRUNTIME_SHARED_LIBRARY_PATH",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefaults(t *testing.T) {
	is := is.New(t)
	clearEnv(t)

	cfg, err := Load(nil, nil)
	is.NoErr(err)
	is.Equal(cfg.ContextLen, 60)
	is.Equal(cfg.HumanSide, "black")
	is.Equal(cfg.TopK, 10)
	is.Equal(cfg.ModelPath, "")
	is.True(cfg.Sound)
	is.Equal(cfg.ModelColor(), game.White)
}

func TestPrecedence(t *testing.T) {
	is := is.New(t)
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "othello.yaml")
	is.NoErr(os.WriteFile(path, []byte("model_path: from-file.onnx\ncontext_len: 30\ntop_k: 5\n"), 0o644))

	cfg, err := Load(nil, []string{"--config", path})
	is.NoErr(err)
	is.Equal(cfg.ModelPath, "from-file.onnx")
	is.Equal(cfg.ContextLen, 30)

	t.Setenv("OTHELLO_CONTEXT_LEN", "40")
	cfg, err = Load(nil, []string{"--config", path})
	is.NoErr(err)
	is.Equal(cfg.ContextLen, 40)
	is.Equal(cfg.TopK, 5)

	cfg, err = Load(nil, []string{"--config", path, "--context-len", "50", "--human-side", "white"})
	is.NoErr(err)
	is.Equal(cfg.ContextLen, 50)
	is.Equal(cfg.ModelColor(), game.Black)
}

func TestRuntimeLibraryEnv(t *testing.T) {
	is := is.New(t)
	clearEnv(t)
	t.Setenv("ONNXRUNTIME_SHARED_LIBRARY_PATH", "/opt/ort/libonnxruntime.so")

	cfg, err := Load(nil, nil)
	is.NoErr(err)
	is.Equal(cfg.OrtLibPath, "/opt/ort/libonnxruntime.so")
}

func TestValidate(t *testing.T) {
	is := is.New(t)
	clearEnv(t)

	_, err := Load(nil, []string{"--context-len", "0"})
	is.True(errors.Is(err, ErrInvalidConfig))
	_, err = Load(nil, []string{"--human-side", "red"})
	is.True(errors.Is(err, ErrInvalidConfig))
	_, err = Load(nil, []string{"--config", "/does/not/exist.yaml"})
	is.True(err != nil)

	cfg := Config{ContextLen: 60, HumanSide: "none"}
	is.NoErr(cfg.Validate())
	is.Equal(cfg.ModelColor(), game.Empty)
}

func TestCallerFlags(t *testing.T) {
	is := is.New(t)
	clearEnv(t)

	fs := pflag.NewFlagSet("tool", pflag.ContinueOnError)
	n := fs.IntP("num", "n", 1, "")
	cfg, err := Load(fs, []string{"-n", "7", "--top-k", "3", "--sound=false"})
	is.NoErr(err)
	is.Equal(*n, 7)
	is.Equal(cfg.TopK, 3)
	is.Equal(cfg.ContextLen, 60)
	is.True(!cfg.Sound)
}
