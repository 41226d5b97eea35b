package ml

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
)

func TestSoftmaxSumsToOne(t *testing.T) {
	out := Softmax([]float32{1, 2, 3, 4})
	var sum float32
	for _, p := range out {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	for i := 1; i < len(out); i++ {
		assert.Greater(t, out[i], out[i-1])
	}
}

func TestSoftmaxLargeLogits(t *testing.T) {
	is := is.New(t)
	out := Softmax([]float32{1000, 1000})
	is.Equal(out[0], out[1])
	assert.InDelta(t, 0.5, out[0], 1e-6)

	is.Equal(len(Softmax(nil)), 0)
}

func TestLastRow(t *testing.T) {
	is := is.New(t)
	data := []float32{0, 1, 2, 3, 4, 5}

	row, err := LastRow(data, 3)
	is.NoErr(err)
	is.Equal(row, []float32{3, 4, 5})

	_, err = LastRow(data, 4)
	is.True(err != nil)
	_, err = LastRow(data[:2], 3)
	is.True(err != nil)
	_, err = LastRow(data, 0)
	is.True(err != nil)
}

func TestOpenWithoutModel(t *testing.T) {
	is := is.New(t)
	_, err := Open(Config{})
	is.Equal(err, ErrNoModel)

	_, err = Open(Config{ModelPath: t.TempDir() + "/missing.onnx"})
	is.True(err != nil)
}

func TestConfigDefaults(t *testing.T) {
	is := is.New(t)
	t.Setenv(envUseCUDA, "")
	c := (&Config{}).withDefaults()
	is.Equal(c.ContextLen, DefaultContextLen)
	is.Equal(c.InputName, DefaultInputName)
	is.Equal(c.OutputName, DefaultOutputName)
	is.True(!c.UseCUDA)

	t.Setenv(envUseCUDA, "1")
	is.True((&Config{}).withDefaults().UseCUDA)
}
