package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Logger writes every line to a per-run log file and mirrors everything but
// DEBUG to the console. Verbose lines only appear when verbose is on.
type Logger struct {
	file    io.WriteCloser
	console io.Writer
	verbose bool
}

func NewLogger(dir string, verbose bool) (*Logger, error) {
	// Create logs directory if it doesn't exist
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %v", err)
	}

	// Create log file with timestamp
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("sheetquote_%s.log", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %v", err)
	}

	return &Logger{file: file, console: os.Stdout, verbose: verbose}, nil
}

// NewConsoleLogger logs to w only. Used by tests and by the quote command.
func NewConsoleLogger(w io.Writer, verbose bool) *Logger {
	return &Logger{console: w, verbose: verbose}
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log("INFO", true, format, args...)
}

// Verbose logs progress lines that are only wanted with output.verbose.
func (l *Logger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.log("INFO", true, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log("DEBUG", false, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log("ERROR", true, format, args...)
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log("FATAL", true, format, args...)
	l.Close()
	os.Exit(1)
}

func (l *Logger) log(level string, console bool, format string, args ...interface{}) {
	timestamp := time.Now().Format("2006/01/02 15:04:05")
	message := fmt.Sprintf(format, args...)
	logLine := fmt.Sprintf("%s: %s %s\n", level, timestamp, message)

	if l.file != nil {
		fmt.Fprint(l.file, logLine)
	}

	if console && l.console != nil {
		fmt.Fprint(l.console, logLine)
	}
}

func (l *Logger) Close() error {
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}
