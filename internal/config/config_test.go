package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
strict: false
kv_basis: context
accelerator: H100 SXM
quantization: int8
batch_size: 4
prompt_tokens: 1000
system_efficiency: 85
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ptr.To(false), cfg.Strict)
	assert.Equal(t, "context", cfg.KVBasis)
	assert.Equal(t, "H100 SXM", cfg.Accelerator)
	assert.Equal(t, ptr.To[uint32](4), cfg.BatchSize)
	assert.Equal(t, ptr.To[uint32](1000), cfg.PromptTokens)
	assert.Nil(t, cfg.OutputTokens)
	assert.Equal(t, ptr.To(85.0), cfg.SystemEfficiency)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "strict: [", "parse config"},
		{"kv basis", "kv_basis: window\n", "kv-cache basis"},
		{"quantization", "quantization: fp9\n", "unknown quantization"},
		{"efficiency", "decode_efficiency: 250\n", "decode_efficiency"},
		{"batch", "batch_size: 0\n", "batch_size"},
		{"log format", "log_format: xml\n", "log_format"},
		{"log level", "log_level: loud\n", "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPath(t *testing.T) {
	if p := Path(); p != "" {
		assert.Equal(t, "config.yaml", filepath.Base(p))
		assert.Equal(t, "llmroof", filepath.Base(filepath.Dir(p)))
	}
}
