package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name      string
		level     LogLevel
		emit      func(zerolog.Logger)
		wantEntry bool
	}{
		{
			name:      "debug passes at debug level",
			level:     LevelDebug,
			emit:      func(l zerolog.Logger) { l.Debug().Msg("test message") },
			wantEntry: true,
		},
		{
			name:      "debug suppressed at info level",
			level:     LevelInfo,
			emit:      func(l zerolog.Logger) { l.Debug().Msg("test message") },
			wantEntry: false,
		},
		{
			name:      "warn passes at warn level",
			level:     LevelWarn,
			emit:      func(l zerolog.Logger) { l.Warn().Msg("test message") },
			wantEntry: true,
		},
		{
			name:      "error passes at error level",
			level:     LevelError,
			emit:      func(l zerolog.Logger) { l.Error().Msg("test message") },
			wantEntry: true,
		},
		{
			name:      "disabled silences errors",
			level:     LevelDisabled,
			emit:      func(l zerolog.Logger) { l.Error().Msg("test message") },
			wantEntry: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Output: buf})
			t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

			tt.emit(logger)

			got := strings.Contains(buf.String(), "test message")
			if got != tt.wantEntry {
				t.Errorf("entry written = %v, want %v (output %q)", got, tt.wantEntry, buf.String())
			}
		})
	}
}

func TestSetup_ServiceField(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf, Service: "skyblock"})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	logger := NewLogger("credential-pool")
	logger.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["service"] != "skyblock" {
		t.Errorf("service = %v, want skyblock", entry["service"])
	}
	if entry["component"] != "credential-pool" {
		t.Errorf("component = %v, want credential-pool", entry["component"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{" ERROR ", zerolog.ErrorLevel},
		{LevelDisabled, zerolog.Disabled},
		{"trace", zerolog.TraceLevel},
		{"", zerolog.InfoLevel},
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}
