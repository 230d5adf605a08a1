package tunnel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractURL(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "ngrok log line",
			line: `t=2026-08-27 lvl=info msg="started tunnel" url=https://abc123.ngrok-free.app`,
			want: "https://abc123.ngrok-free.app",
		},
		{
			name: "localtunnel output",
			line: "your url is: https://shiny-cat-42.loca.lt",
			want: "https://shiny-cat-42.loca.lt",
		},
		{
			name: "no url",
			line: "waiting for tunnel...",
			want: "",
		},
		{
			name: "http is not a public tunnel url",
			line: "forwarding http://localhost:8000",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractURL(tt.line))
		})
	}
}

func TestLoadSettings_DefaultsWhenMissing(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "tunnel.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadSettings_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tunnel.yaml")
	content := `
command: ["npx", "localtunnel", "--port", "8000"]
env_file: frontend/.env.production
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"npx", "localtunnel", "--port", "8000"}, s.Command)
	assert.Equal(t, "frontend/.env.production", s.EnvFile)
	// absent fields keep defaults
	assert.Equal(t, "firebase.json", s.FirebaseFile)
}
