package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-u", "https://lms.example.edu/api/v1", "-d", "/tmp/cache.db", "-k", "/tmp/cred.key", "-i", "10"},
			expected: &Config{
				BaseURL:             "https://lms.example.edu/api/v1",
				DatabasePath:        "/tmp/cache.db",
				KeyPath:             "/tmp/cred.key",
				OnlineCheckInterval: 10 * time.Second,
			},
		},
		{
			name:     "interval zero disables the prober",
			args:     []string{"cmd", "-i", "0"},
			expected: &Config{OnlineCheckInterval: 0},
		},
		{
			name:        "incorrect check interval",
			args:        []string{"cmd", "-i", "abc"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Equal(t, tt.expected, config)
		})
	}
}
