package ml

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

// 环境变量覆盖，和配置里的同名项含义一致
const (
	envLibPath = "ONNXRUNTIME_SHARED_LIBRARY_PATH"
	envUseCUDA = "OTHELLO_USE_CUDA"
)

const (
	// Names used by the exported Othello-GPT graph.
	DefaultInputName  = "idx"
	DefaultOutputName = "logits"
	// DefaultContextLen is the block size the model was trained with.
	DefaultContextLen = 60
	// VocabSize is the width of the model's output distribution.
	VocabSize = 61
)

var (
	// ErrNoModel is returned when no model path was configured.
	ErrNoModel = errors.New("ml: no model configured")
	// ErrEmptyInput is returned for an empty token sequence.
	ErrEmptyInput = errors.New("ml: empty token sequence")
)

// Config selects the model file and runtime options.
type Config struct {
	ModelPath  string
	LibPath    string // onnxruntime shared library; empty = platform default
	UseCUDA    bool
	ContextLen int
	InputName  string
	OutputName string
}

// Model runs an exported sequence model through ONNX Runtime.
// Predict is safe to call from several goroutines; runs are serialised.
type Model struct {
	session    *ort.DynamicAdvancedSession
	mu         sync.Mutex
	contextLen int
	vocabSize  int
}

var (
	envOnce sync.Once
	envErr  error
)

// ensureEnv 全局只初始化一次 ORT 环境
func ensureEnv(libPath string) error {
	envOnce.Do(func() {
		if libPath == "" {
			libPath = os.Getenv(envLibPath)
		}
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if ort.IsInitialized() {
			return
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("ort.InitializeEnvironment: %w", err)
		}
	})
	return envErr
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ContextLen <= 0 {
		out.ContextLen = DefaultContextLen
	}
	if out.InputName == "" {
		out.InputName = DefaultInputName
	}
	if out.OutputName == "" {
		out.OutputName = DefaultOutputName
	}
	if os.Getenv(envUseCUDA) == "1" {
		out.UseCUDA = true
	}
	return out
}

// Open loads the model at cfg.ModelPath.
func Open(cfg Config) (*Model, error) {
	c := cfg.withDefaults()
	if c.ModelPath == "" {
		return nil, ErrNoModel
	}
	if _, err := os.Stat(c.ModelPath); err != nil {
		return nil, fmt.Errorf("model %s: %w", c.ModelPath, err)
	}
	if err := ensureEnv(c.LibPath); err != nil {
		return nil, err
	}

	vocab, err := outputWidth(c.ModelPath, c.OutputName)
	if err != nil {
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("ort.NewSessionOptions: %w", err)
	}
	defer opts.Destroy()

	if c.UseCUDA {
		if cu, err := ort.NewCUDAProviderOptions(); err == nil {
			if err := opts.AppendExecutionProviderCUDA(cu); err != nil {
				// 失败退回 CPU，不报错
				log.Warn().Err(err).Msg("CUDA provider unavailable, using CPU")
			}
			_ = cu.Destroy()
		} else {
			log.Warn().Err(err).Msg("CUDA provider options unavailable, using CPU")
		}
	}

	sess, err := ort.NewDynamicAdvancedSession(c.ModelPath,
		[]string{c.InputName}, []string{c.OutputName}, opts)
	if err != nil {
		return nil, fmt.Errorf("ort.NewDynamicAdvancedSession: %w", err)
	}
	log.Info().Str("path", c.ModelPath).Int("context", c.ContextLen).
		Bool("cuda", c.UseCUDA).Msg("model loaded")

	return &Model{
		session:    sess,
		contextLen: c.ContextLen,
		vocabSize:  vocab,
	}, nil
}

// outputWidth reads the last dimension of the logits output and checks it
// against the 61-token vocabulary. A dynamic (-1) width is accepted and checked
// again on every run.
func outputWidth(path, name string) (int, error) {
	_, outs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return 0, fmt.Errorf("ort.GetInputOutputInfo: %w", err)
	}
	for _, o := range outs {
		if o.Name != name {
			continue
		}
		dims := o.Dimensions
		if len(dims) == 0 {
			break
		}
		w := int(dims[len(dims)-1])
		if w > 0 && w != VocabSize {
			return 0, fmt.Errorf("model output %q has width %d, want %d", name, w, VocabSize)
		}
		return VocabSize, nil
	}
	return 0, fmt.Errorf("model has no output named %q", name)
}

// ContextLen returns the longest token sequence Predict accepts.
func (m *Model) ContextLen() int { return m.contextLen }

// Predict returns the next-move distribution (VocabSize entries summing to 1)
// after the given token sequence.
func (m *Model) Predict(tokens []int) ([]float32, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyInput
	}
	if len(tokens) > m.contextLen {
		return nil, fmt.Errorf("got %d tokens, context is %d", len(tokens), m.contextLen)
	}
	ids := make([]int64, len(tokens))
	for i, t := range tokens {
		if t < 0 || t >= m.vocabSize {
			return nil, fmt.Errorf("token %d at %d out of vocabulary", t, i)
		}
		ids[i] = int64(t)
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(len(ids))), ids)
	if err != nil {
		return nil, fmt.Errorf("NewTensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	m.mu.Lock()
	err = m.session.Run([]ort.Value{input}, outputs)
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}
	defer func() {
		for _, v := range outputs {
			if v != nil {
				_ = v.Destroy()
			}
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	row, err := LastRow(out.GetData(), m.vocabSize)
	if err != nil {
		return nil, err
	}
	return Softmax(row), nil
}

// Close releases the session. The process-wide environment is left alone so
// another Model can still be opened.
func (m *Model) Close() error {
	if m == nil || m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}

// Shutdown destroys the ONNX Runtime environment. Call once at process exit.
func Shutdown() {
	if ort.IsInitialized() {
		if err := ort.DestroyEnvironment(); err != nil {
			log.Error().Err(err).Msg("ort.DestroyEnvironment")
		}
	}
}
