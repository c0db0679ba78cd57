package logging

import "testing"

func TestInitLogger(t *testing.T) {
	InitLogger(LevelDebug, FormatJSON)
	if GetLogger() == nil {
		t.Fatal("GetLogger returned nil after InitLogger")
	}

	InitLogger(LevelInfo, FormatText)
	logger := GetLogger()
	if logger == nil {
		t.Fatal("GetLogger returned nil")
	}
	if !logger.Enabled(nil, 0) { // slog.LevelInfo
		t.Error("info level should be enabled")
	}
	if logger.Enabled(nil, -4) { // slog.LevelDebug
		t.Error("debug level should be disabled at info")
	}
}

func TestHelpersDoNotPanic(t *testing.T) {
	InitLogger(LevelDebug, FormatText)
	Debug("debug message", "k", "v")
	Info("info message")
	Warn("warn message")
	Error("error message", "err", "boom")
	RenderEvent("doc.pml", 120, 2, 0, 0)
	WriteIssue("bad element", 3, 9)
	TraceEvent("record", "/tmp/run")
}
