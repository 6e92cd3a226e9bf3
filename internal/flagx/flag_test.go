package flagx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "separate value",
			args:         []string{"-c", "conf.json", "-a", "localhost"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "equals form",
			args:         []string{"-config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-config=alt.json"},
		},
		{
			name:         "unknown flags and positionals dropped",
			args:         []string{"-x", "1", "-y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "trailing flag without value",
			args:         []string{"-t"},
			allowedFlags: []string{"-t"},
			want:         []string{"-t"},
		},
		{
			name:         "next flag is not a value",
			args:         []string{"-a", "-d", "cache.db"},
			allowedFlags: []string{"-a", "-d"},
			want:         []string{"-a", "-d", "cache.db"},
		},
		{
			name:         "several owned flags keep order",
			args:         []string{"-d", "x.db", "-m", ":9100", "-a", ":50051"},
			allowedFlags: []string{"-a", "-d"},
			want:         []string{"-d", "x.db", "-a", ":50051"},
		},
		{
			name:         "empty",
			args:         nil,
			allowedFlags: []string{"-a"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFile(t *testing.T) {
	assert.Equal(t, "/etc/short.json", ConfigFile([]string{"-c", "/etc/short.json"}))
	assert.Equal(t, "/etc/long.json", ConfigFile([]string{"-a", "x", "-config", "/etc/long.json"}))
	assert.Equal(t, "/b.json", ConfigFile([]string{"-c", "/a.json", "-config=/b.json"}))
	assert.Empty(t, ConfigFile([]string{"-x", "1"}))
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"bin", "-c", "/tmp/conf.json"}
	assert.Equal(t, "/tmp/conf.json", JsonConfigFlags())
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"addr":"127.0.0.1:1"}`), 0o600))

	var v struct {
		Addr string `json:"addr"`
	}
	require.NoError(t, DecodeFile(good, &v))
	assert.Equal(t, "127.0.0.1:1", v.Addr)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{nope`), 0o600))
	assert.Error(t, DecodeFile(bad, &v))

	assert.Error(t, DecodeFile(filepath.Join(dir, "missing.json"), &v))
}
