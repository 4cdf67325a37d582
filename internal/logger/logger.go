package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

var levelColors = map[Level]*color.Color{
	LevelDebug: color.New(color.FgCyan),
	LevelInfo:  color.New(color.FgGreen),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed),
	LevelFatal: color.New(color.FgRed, color.Bold),
}

type entry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Caller    string `json:"caller,omitempty"`
}

// Logger writes colored lines to the terminal and JSON lines to a daily file.
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	minimum Level
}

func NewLogger() *Logger {
	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		dir = "logs"
	}

	l := &Logger{minimum: LevelInfo}
	if os.Getenv("LOG_DEBUG") == "true" {
		l.minimum = LevelDebug
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "logger: cannot create %s: %v\n", dir, err)
		return l
	}

	name := filepath.Join(dir, fmt.Sprintf("payment-service-%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: cannot open %s: %v\n", name, err)
		return l
	}
	l.file = file

	l.Info("LOGGER", fmt.Sprintf("logging to %s", name))
	return l
}

func (l *Logger) write(level Level, category, message string) {
	if level < l.minimum {
		return
	}

	caller := ""
	if _, file, line, ok := runtime.Caller(2); ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     levelNames[level],
		Category:  strings.ToUpper(category),
		Message:   message,
		Caller:    caller,
	}

	clock := color.New(color.FgBlue).Sprint(e.Timestamp[11:19])
	tag := levelColors[level].Sprintf("%-5s [%-10s]", e.Level, e.Category)
	where := color.New(color.FgMagenta).Sprintf("(%s)", e.Caller)

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Printf("%s %s %s %s\n", clock, tag, e.Message, where)

	if l.file != nil {
		line, _ := json.Marshal(e)
		l.file.Write(append(line, '\n'))
	}
}

func (l *Logger) Debug(category, message string) { l.write(LevelDebug, category, message) }
func (l *Logger) Info(category, message string)  { l.write(LevelInfo, category, message) }
func (l *Logger) Warn(category, message string)  { l.write(LevelWarn, category, message) }
func (l *Logger) Error(category, message string) { l.write(LevelError, category, message) }

func (l *Logger) Fatal(category, message string) {
	l.write(LevelFatal, category, message)
	l.Close()
	os.Exit(1)
}

// LogTransaction tags a lifecycle step of a single payment transaction.
func (l *Logger) LogTransaction(action, transactionID, message string) {
	l.Info("PAYMENT", fmt.Sprintf("[%s] %s - %s", action, transactionID, message))
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
