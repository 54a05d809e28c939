package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevelFlags(t *testing.T) {
	tests := []struct {
		name            string
		flags           []string
		env             map[string]string
		wantDefault     string
		wantPackages    map[string]string
		wantErrContains string
	}{
		{
			name:         "no flags",
			wantDefault:  "info",
			wantPackages: map[string]string{},
		},
		{
			name:         "bare level sets default",
			flags:        []string{"debug"},
			wantDefault:  "debug",
			wantPackages: map[string]string{},
		},
		{
			name:         "package levels",
			flags:        []string{"default=warn", "hierarchy=debug", "engine=error"},
			wantDefault:  "warn",
			wantPackages: map[string]string{"hierarchy": "debug", "engine": "error"},
		},
		{
			name:         "later flag wins",
			flags:        []string{"info", "hierarchy=warn", "hierarchy=debug"},
			wantDefault:  "info",
			wantPackages: map[string]string{"hierarchy": "debug"},
		},
		{
			name:         "empty flag ignored",
			flags:        []string{"", "error"},
			wantDefault:  "error",
			wantPackages: map[string]string{},
		},
		{
			name:         "environment package level",
			env:          map[string]string{"LOG_LEVEL_EVENT_QUEUE": "debug"},
			wantDefault:  "info",
			wantPackages: map[string]string{"event.queue": "debug"},
		},
		{
			name:         "flag overrides environment",
			flags:        []string{"event.queue=warn"},
			env:          map[string]string{"LOG_LEVEL_EVENT_QUEUE": "debug"},
			wantDefault:  "info",
			wantPackages: map[string]string{"event.queue": "warn"},
		},
		{
			name:            "invalid default",
			flags:           []string{"verbose"},
			wantErrContains: "invalid log level",
		},
		{
			name:            "invalid package level",
			flags:           []string{"engine=loud"},
			wantErrContains: `package "engine"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			def, pkgs, err := parseLogLevelFlags(tt.flags)
			if tt.wantErrContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDefault, def)
			assert.Equal(t, tt.wantPackages, pkgs)
		})
	}
}

func TestConvertEnvKeyToPackageName(t *testing.T) {
	assert.Equal(t, "engine", convertEnvKeyToPackageName("LOG_LEVEL_ENGINE"))
	assert.Equal(t, "event.queue", convertEnvKeyToPackageName("LOG_LEVEL_EVENT_QUEUE"))
}

func TestParseTime(t *testing.T) {
	ref := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"now", ref},
		{"NOW", ref},
		{"now-2h", ref.Add(-2 * time.Hour)},
		{"now - 30m", ref.Add(-30 * time.Minute)},
		{"now-45s", ref.Add(-45 * time.Second)},
		{"now-1d", ref.AddDate(0, 0, -1)},
		{"now-3hours", ref.Add(-3 * time.Hour)},
		{"1714557600", time.Unix(1714557600, 0).UTC()},
		{"2024-05-01T10:30:00Z", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseTime(tt.input, ref, "since")
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseTimeErrors(t *testing.T) {
	ref := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := parseTime("", ref, "since")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--since must not be empty")

	_, err = parseTime("-5", ref, "now")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")

	_, err = parseTime("now-2w", ref, "since")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported duration unit")
}

func TestWindowRejectsInvertedRange(t *testing.T) {
	w := windowOptions{since: "2024-05-01T12:00:00Z", now: "2024-05-01T10:00:00Z"}
	_, err := w.window(time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is after --now")
}
