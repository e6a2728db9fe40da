// Package observability provides the logging hooks used by the document
// generator.
package observability

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger accepted by documents and caches.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is a key/value pair attached to a log entry.
type Field interface {
	Key() string
	Value() interface{}
}

type field struct {
	key string
	val interface{}
}

func (f field) Key() string        { return f.key }
func (f field) Value() interface{} { return f.val }

// Field constructors.

func String(key, value string) Field        { return field{key, value} }
func Int(key string, value int) Field       { return field{key, value} }
func Int64(key string, value int64) Field   { return field{key, value} }
func Float(key string, value float64) Field { return field{key, value} }
func Bool(key string, value bool) Field     { return field{key, value} }
func Error(key string, err error) Field     { return field{key, err} }

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Level is a logging threshold.
type Level int

// Levels in increasing severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	return l.logrus().String()
}

func (l Level) logrus() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarn:
		return logrus.WarnLevel
	}
	return logrus.ErrorLevel
}

// ParseLevel parses a level name. Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	lv, err := logrus.ParseLevel(strings.ToLower(s))
	if err != nil {
		return LevelInfo
	}
	switch lv {
	case logrus.TraceLevel, logrus.DebugLevel:
		return LevelDebug
	case logrus.WarnLevel:
		return LevelWarn
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return LevelError
	}
	return LevelInfo
}

// TextLogger adapts a logrus entry to Logger.
type TextLogger struct {
	entry *logrus.Entry
}

// NewTextLogger creates a logger writing logfmt lines at or above level
// to w.
func NewTextLogger(w io.Writer, level Level) *TextLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level.logrus())
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		QuoteEmptyFields: true,
	})
	return FromLogrus(l)
}

// FromLogrus wraps an existing logrus logger.
func FromLogrus(l *logrus.Logger) *TextLogger {
	return &TextLogger{entry: logrus.NewEntry(l)}
}

// Logrus returns the underlying logrus logger.
func (l *TextLogger) Logrus() *logrus.Logger { return l.entry.Logger }

func (l *TextLogger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Debug(msg)
}

func (l *TextLogger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Info(msg)
}

func (l *TextLogger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Warn(msg)
}

func (l *TextLogger) Error(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Error(msg)
}

func (l *TextLogger) With(fields ...Field) Logger {
	return &TextLogger{entry: l.entry.WithFields(toFields(fields))}
}

func toFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		v := f.Value()
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		out[f.Key()] = v
	}
	return out
}

// Metric names reported through log fields.
const (
	MetricPages        = "pdf.pages"
	MetricObjects      = "pdf.objects"
	MetricOutputBytes  = "pdf.output_bytes"
	MetricSubsetGlyphs = "pdf.subset_glyphs"
)
