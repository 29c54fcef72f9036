package logging

import (
	"context"
	"io"
	"maps"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// DefaultLogger is a zerolog-backed logger.
// Debug/Info -> stdout
// Warn/Error/Fatal -> stderr
//
// Loggers derived with WithFields or WithContext share the level, so
// SetLevel on any of them applies to all.
type DefaultLogger struct {
	stdout zerolog.Logger
	stderr zerolog.Logger
	level  *atomic.Int32
	fields Fields
}

func newLevel(l Level) *atomic.Int32 {
	v := &atomic.Int32{}
	v.Store(int32(l))
	return v
}

// NewDefaultLogger creates a logger with console output, colored when attached to a terminal
func NewDefaultLogger() *DefaultLogger {
	return newDefaultLogger(
		consoleWriter(os.Stdout, isTerminal(os.Stdout)),
		consoleWriter(os.Stderr, isTerminal(os.Stderr)),
	)
}

// NewDefaultLoggerNoColor creates a default logger without colored output
func NewDefaultLoggerNoColor() *DefaultLogger {
	return newDefaultLogger(consoleWriter(os.Stdout, false), consoleWriter(os.Stderr, false))
}

// NewJSONLogger writes every level as JSON lines to w
func NewJSONLogger(w io.Writer) *DefaultLogger {
	return newDefaultLogger(w, w)
}

func newDefaultLogger(stdout, stderr io.Writer) *DefaultLogger {
	return &DefaultLogger{
		stdout: zerolog.New(stdout).With().Timestamp().Logger(),
		stderr: zerolog.New(stderr).With().Timestamp().Logger(),
		level:  newLevel(InfoLevel),
		fields: make(Fields),
	}
}

func consoleWriter(out *os.File, color bool) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !color,
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (d *DefaultLogger) event(level Level) *zerolog.Event {
	switch level {
	case DebugLevel:
		return d.stdout.Debug()
	case InfoLevel:
		return d.stdout.Info()
	case WarnLevel:
		return d.stderr.Warn()
	case ErrorLevel:
		return d.stderr.Error()
	default:
		// zerolog's Fatal exits without letting us merge fields first
		return d.stderr.WithLevel(zerolog.FatalLevel)
	}
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields ...Fields) {
	if level < Level(d.level.Load()) {
		return
	}

	e := d.event(level)
	if err != nil {
		e = e.Err(err)
	}

	all := make(Fields, len(d.fields))
	maps.Copy(all, d.fields)
	for _, f := range fields {
		maps.Copy(all, f)
	}
	e.Fields(map[string]any(all)).Msg(msg)

	if level == FatalLevel {
		os.Exit(1)
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.log(DebugLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.log(InfoLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.log(WarnLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields...)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.log(FatalLevel, err, msg, fields...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields, len(d.fields)+len(fields))
	maps.Copy(newFields, d.fields)
	maps.Copy(newFields, fields)

	return &DefaultLogger{
		stdout: d.stdout,
		stderr: d.stderr,
		level:  d.level,
		fields: newFields,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level.Store(int32(level))
}

// NoOpLogger discards everything
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}

// Entry is a single message captured by a Recorder
type Entry struct {
	Level   Level
	Message string
	Err     error
	Fields  Fields
}

// Recorder keeps every entry in memory. Loggers derived with WithFields
// share the same entry list and level.
type Recorder struct {
	mu      *sync.Mutex
	entries *[]Entry
	level   *atomic.Int32
	fields  Fields
}

// NewRecorder creates an empty recorder that captures every level
func NewRecorder() *Recorder {
	return &Recorder{
		mu:      &sync.Mutex{},
		entries: &[]Entry{},
		level:   newLevel(DebugLevel),
		fields:  make(Fields),
	}
}

func (r *Recorder) record(level Level, err error, msg string, fields ...Fields) {
	if level < Level(r.level.Load()) {
		return
	}

	all := make(Fields, len(r.fields))
	maps.Copy(all, r.fields)
	for _, f := range fields {
		maps.Copy(all, f)
	}

	r.mu.Lock()
	*r.entries = append(*r.entries, Entry{Level: level, Message: msg, Err: err, Fields: all})
	r.mu.Unlock()
}

// Entries returns a copy of the captured entries
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(*r.entries))
	copy(out, *r.entries)
	return out
}

// EntriesAt returns the captured entries with the given level
func (r *Recorder) EntriesAt(level Level) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Debug(msg string, fields ...Fields) { r.record(DebugLevel, nil, msg, fields...) }
func (r *Recorder) Info(msg string, fields ...Fields)  { r.record(InfoLevel, nil, msg, fields...) }
func (r *Recorder) Warn(msg string, fields ...Fields)  { r.record(WarnLevel, nil, msg, fields...) }

func (r *Recorder) Error(err error, msg string, fields ...Fields) {
	r.record(ErrorLevel, err, msg, fields...)
}

// Fatal records the entry; it does not exit.
func (r *Recorder) Fatal(err error, msg string, fields ...Fields) {
	r.record(FatalLevel, err, msg, fields...)
}

func (r *Recorder) WithFields(fields Fields) Logger {
	newFields := make(Fields, len(r.fields)+len(fields))
	maps.Copy(newFields, r.fields)
	maps.Copy(newFields, fields)

	return &Recorder{
		mu:      r.mu,
		entries: r.entries,
		level:   r.level,
		fields:  newFields,
	}
}

func (r *Recorder) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return r.WithFields(fields)
	}
	return r
}

func (r *Recorder) SetLevel(level Level) {
	r.level.Store(int32(level))
}
