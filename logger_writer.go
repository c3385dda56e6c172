package libemit

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log line. Lines below a writer logger's level are dropped.
type Level uint8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

func (lv Level) String() string {
	if int(lv) < len(levelNames) {
		return levelNames[lv]
	}
	return "UNKNOWN"
}

// writerLogger implements Logger on top of an io.Writer
type writerLogger struct {
	mu     *sync.Mutex
	writer io.Writer
	level  Level
	fields map[string]any
}

// NewWriterLogger creates a new logger that writes every line, debug included,
// to the provided writer.
func NewWriterLogger(writer io.Writer) Logger {
	return NewLeveledWriterLogger(writer, DebugLevel)
}

// NewLeveledWriterLogger is NewWriterLogger dropping lines below level.
func NewLeveledWriterLogger(writer io.Writer, level Level) Logger {
	return &writerLogger{
		mu:     &sync.Mutex{},
		writer: writer,
		level:  level,
		fields: make(map[string]any),
	}
}

func (l *writerLogger) WithField(key string, value any) Logger {
	newLogger := &writerLogger{
		mu:     l.mu,
		writer: l.writer,
		level:  l.level,
		fields: make(map[string]any, len(l.fields)+1),
	}
	// Copy existing fields
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	newLogger.fields[key] = value
	return newLogger
}

func (l *writerLogger) formatFields() string {
	if len(l.fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(" [")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, l.fields[k])
	}
	b.WriteString("]")
	return b.String()
}

func (l *writerLogger) log(level Level, render func() string) {
	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fields := l.formatFields()
	msg := strings.TrimSuffix(render(), "\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.writer, "[%s] %s%s: %s\n", timestamp, level, fields, msg)
}

func sprint(args []any) func() string {
	return func() string { return fmt.Sprint(args...) }
}

func sprintf(format string, args []any) func() string {
	return func() string { return fmt.Sprintf(format, args...) }
}

func sprintln(args []any) func() string {
	return func() string { return fmt.Sprintln(args...) }
}

func (l *writerLogger) Debug(args ...any)                 { l.log(DebugLevel, sprint(args)) }
func (l *writerLogger) Debugf(format string, args ...any) { l.log(DebugLevel, sprintf(format, args)) }
func (l *writerLogger) Debugln(args ...any)               { l.log(DebugLevel, sprintln(args)) }
func (l *writerLogger) Info(args ...any)                  { l.log(InfoLevel, sprint(args)) }
func (l *writerLogger) Infof(format string, args ...any)  { l.log(InfoLevel, sprintf(format, args)) }
func (l *writerLogger) Infoln(args ...any)                { l.log(InfoLevel, sprintln(args)) }
func (l *writerLogger) Warn(args ...any)                  { l.log(WarnLevel, sprint(args)) }
func (l *writerLogger) Warnf(format string, args ...any)  { l.log(WarnLevel, sprintf(format, args)) }
func (l *writerLogger) Warnln(args ...any)                { l.log(WarnLevel, sprintln(args)) }
func (l *writerLogger) Error(args ...any)                 { l.log(ErrorLevel, sprint(args)) }
func (l *writerLogger) Errorf(format string, args ...any) { l.log(ErrorLevel, sprintf(format, args)) }
func (l *writerLogger) Errorln(args ...any)               { l.log(ErrorLevel, sprintln(args)) }
