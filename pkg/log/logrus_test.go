package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimpleFormatterOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("debug", &buf)

	logger.WithField("topic", "/scan").WithField("points", 12).Warnf("packed %s", "scan")

	line := buf.String()
	if !strings.Contains(line, "[WAR] packed scan") {
		t.Errorf("Expected level and message in output, got %q", line)
	}
	if !strings.HasSuffix(line, " points=12 topic=/scan\n") {
		t.Errorf("Expected sorted fields at end of line, got %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("info", &buf)

	logger.Debugf("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected debug entry to be filtered at info level, got %q", buf.String())
	}

	logger.Infof("shown")
	if !strings.Contains(buf.String(), "[INF] shown") {
		t.Errorf("Expected info entry, got %q", buf.String())
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("loud", &buf)

	logger.Debugf("hidden")
	logger.Infof("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected info level fallback, got %q", buf.String())
	}
}

func TestNewLogrusLoggerCreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := NewLogrusLogger("info", dir)
	if err != nil {
		t.Fatalf("NewLogrusLogger failed: %v", err)
	}
	logger.Infof("hello file")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("Expected log file to contain entry, got %q", string(data))
	}
}
