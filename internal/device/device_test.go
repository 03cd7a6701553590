package device

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseExecutionProfile(t *testing.T) {
	acc := ChooseExecutionProfile(true)
	assert.Equal(t, Profile{Device: CUDA, NumericFormat: FormatBF16}, acc)
	assert.True(t, acc.Accelerated())

	cpu := ChooseExecutionProfile(false)
	assert.Equal(t, Profile{Device: CPU, NumericFormat: FormatDefault}, cpu)
	assert.False(t, cpu.Accelerated())
	assert.Equal(t, "cpu/default", cpu.String())
}

func TestNormalize(t *testing.T) {
	for in, want := range map[string]string{"": Auto, " CPU ": CPU, "cuda": CUDA, "auto": Auto} {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := Normalize("tpu")
	assert.Error(t, err)
}

func TestNewProberModes(t *testing.T) {
	p, err := NewProber("cpu")
	require.NoError(t, err)
	ok, err := p.AcceleratorAvailable()
	require.NoError(t, err)
	assert.False(t, ok)

	p, err = NewProber("cuda")
	require.NoError(t, err)
	ok, _ = p.AcceleratorAvailable()
	assert.True(t, ok)

	p, err = NewProber("auto")
	require.NoError(t, err)
	assert.IsType(t, HostProber{}, p)

	_, err = NewProber("gpu-please")
	assert.Error(t, err)
}

func TestHostProber(t *testing.T) {
	d := t.TempDir()
	marker := filepath.Join(d, "nvidia0")
	require.NoError(t, os.WriteFile(marker, nil, 0o644))

	t.Setenv("CUDA_VISIBLE_DEVICES", "0")
	ok, err := HostProber{Paths: []string{marker}}.AcceleratorAvailable()
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = HostProber{Paths: []string{filepath.Join(d, "missing")}}.AcceleratorAvailable()
	assert.False(t, ok)

	t.Setenv("CUDA_VISIBLE_DEVICES", "-1")
	ok, _ = HostProber{Paths: []string{marker}}.AcceleratorAvailable()
	assert.False(t, ok, "CUDA_VISIBLE_DEVICES=-1 hides devices")
}

func TestProberFunc(t *testing.T) {
	boom := errors.New("probe failed")
	_, err := ProberFunc(func() (bool, error) { return false, boom }).AcceleratorAvailable()
	assert.ErrorIs(t, err, boom)
}
