package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

func TestWriterEmptyPath(t *testing.T) {
	w, err := FileConfig{}.Writer()
	if err != nil || w != nil {
		t.Fatalf("expected nil writer for empty path, got %v %v", w, err)
	}
}

func TestWriterCreatesFileWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "gateway.log")
	w, err := FileConfig{Path: path}.Writer()
	if err != nil {
		t.Fatalf("Writer error: %v", err)
	}
	_, _ = w.Write([]byte("hello\n"))
	_ = w.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log not created at %s: %v", path, err)
	}
	l, ok := w.(*lj.Logger)
	if !ok {
		t.Fatalf("expected *lumberjack.Logger, got %T", w)
	}
	if l.MaxSize != DefaultMaxSizeMB || l.MaxBackups != DefaultMaxBackups || l.MaxAge != DefaultMaxAgeDays {
		t.Fatalf("defaults not applied: %+v", l)
	}
}

func TestWriterCustomRotation(t *testing.T) {
	w, _ := FileConfig{Path: filepath.Join(t.TempDir(), "x.log"), MaxSizeMB: 1, MaxBackups: 9, MaxAgeDays: 2, Compress: true}.Writer()
	l := w.(*lj.Logger)
	if l.MaxSize != 1 || l.MaxBackups != 9 || l.MaxAge != 2 || !l.Compress {
		t.Fatalf("custom rotation not applied: %+v", l)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "warning": slog.LevelWarn,
		"error": slog.LevelError, "": slog.LevelInfo, "bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Format: "json", Output: &buf}).Info("hi", "service", "gateway")
	if !strings.Contains(buf.String(), `"service":"gateway"`) || strings.Contains(buf.String(), `"time"`) {
		t.Fatalf("unexpected json output: %s", buf.String())
	}

	buf.Reset()
	New(Options{Color: true, Output: &buf}).With("pid", 7).Warn("careful")
	out := buf.String()
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "careful") || !strings.Contains(out, "pid=7") {
		t.Fatalf("unexpected color output: %q", out)
	}

	buf.Reset()
	New(Options{Level: "error", Output: &buf}).Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at error level: %q", buf.String())
	}
}
