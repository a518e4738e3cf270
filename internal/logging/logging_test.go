package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetupDefaultsToInfo(t *testing.T) {
	logger, closeFn, err := Setup(Config{})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer closeFn()
	if logger == nil {
		t.Fatal("nil logger")
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if _, _, err := Setup(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSetupWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "culturecored.log")
	logger, closeFn, err := Setup(Config{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	logger.Info("started", "component", "test")
	closeFn()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("log file is empty")
	}
}
