package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{" error ", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestComponentLoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(orig)

	// Error is emitted at every configurable level.
	For("video").Error("run %s failed", "abc")

	out := buf.String()
	if !strings.Contains(out, "[ERROR] [video] run abc failed") {
		t.Errorf("unexpected log line: %q", out)
	}
}

func TestLoggingFunctionsDoNotPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("logging panicked: %v", r)
		}
	}()
	Debug("test %s", "debug")
	Info("test %d", 1)
	Warn("test")
	Error("test")
	Printf("test %v", true)
	l := For("test")
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
}
