package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInitWithFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "api.log")

	if err := Init(Config{Level: "info", File: logFile}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("file logging works", "component", "test")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "file logging works") {
		t.Fatalf("log file does not contain message: %q", data)
	}
}

func TestInitLevels(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want log.Level
	}{
		{name: "explicit warn", cfg: Config{Level: "warn"}, want: log.WarnLevel},
		{name: "unknown falls back to info", cfg: Config{Level: "loud"}, want: log.InfoLevel},
		{name: "debug flag wins", cfg: Config{Level: "error", Debug: true}, want: log.DebugLevel},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := Init(test.cfg); err != nil {
				t.Fatalf("Init: %v", err)
			}
			if got := Logger.GetLevel(); got != test.want {
				t.Fatalf("level = %v, want %v", got, test.want)
			}
		})
	}
}
