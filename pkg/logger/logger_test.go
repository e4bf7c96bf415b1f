package logger

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/JoshTKx/actress-webscraper/pkg/config"
)

func TestConsoleOutputGoesToStderr(t *testing.T) {
	origStderr, origStdout := os.Stderr, os.Stdout

	errRead, errWrite, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe failed: %v", err)
	}
	outRead, outWrite, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe failed: %v", err)
	}

	// The console writer captures the stream at construction time
	os.Stderr, os.Stdout = errWrite, outWrite
	log, newErr := New(&config.LoggingConfig{Level: "info"})
	os.Stderr, os.Stdout = origStderr, origStdout
	if newErr != nil {
		t.Fatalf("New failed: %v", newErr)
	}

	log.Info("console target check")

	errWrite.Close()
	outWrite.Close()

	errOut, _ := io.ReadAll(errRead)
	stdOut, _ := io.ReadAll(outRead)

	if !strings.Contains(string(errOut), "console target check") {
		t.Errorf("expected message on stderr, got %q", errOut)
	}
	if len(stdOut) != 0 {
		t.Errorf("stdout should stay clean, got %q", stdOut)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(&config.LoggingConfig{Level: "chatty"}); err == nil {
		t.Error("expected error for unknown log level")
	}
}
