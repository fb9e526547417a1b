package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Entry is one record captured by a TestLogger. Error values are stored as
// their message.
type Entry struct {
	Level   Level
	Message string
	Fields  map[string]any
}

// recorder is shared by a TestLogger and every logger derived from it.
type recorder struct {
	mu      sync.Mutex
	buf     *bytes.Buffer
	entries []Entry
}

// TestLogger records log calls in memory. Profiler, task and server tests
// inject it to assert on skipped report items and fallbacks. Each record is
// also written to the returned buffer as one JSON line.
type TestLogger struct {
	rec    *recorder
	level  Level
	fields map[string]any
}

// NewTestLogger returns a logger capturing records at level and above.
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	rec := &recorder{buf: &bytes.Buffer{}}
	return &TestLogger{rec: rec, level: level}, rec.buf
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.record(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.record(LevelWarn, msg, fields) }

// Error stores a leading error value under ErrAttrKey, like the zerolog
// backend does.
func (t *TestLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			fields = append([]any{ErrAttrKey, err}, fields[1:]...)
		}
	}
	t.record(LevelError, msg, fields)
}

// With returns a logger sharing the same recorder.
func (t *TestLogger) With(fields ...any) Logger {
	return &TestLogger{rec: t.rec, level: t.level, fields: mergeFields(t.fields, fields)}
}

func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return level >= t.level
}

func mergeFields(base map[string]any, kv []any) map[string]any {
	out := make(map[string]any, len(base)+len(kv)/2)
	for k, v := range base {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		v := kv[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		out[fmt.Sprint(kv[i])] = v
	}
	return out
}

func (t *TestLogger) record(level Level, msg string, kv []any) {
	if level < t.level {
		return
	}
	e := Entry{Level: level, Message: msg, Fields: mergeFields(t.fields, kv)}

	line := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		line[k] = v
	}
	line["level"] = level.String()
	line["message"] = msg
	data, err := json.Marshal(line)
	if err != nil {
		data, _ = json.Marshal(map[string]any{"level": level.String(), "message": msg, "marshal_error": err.Error()})
	}

	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	t.rec.entries = append(t.rec.entries, e)
	t.rec.buf.Write(append(data, '\n'))
}

// Entries returns a copy of everything captured so far, in call order.
func (t *TestLogger) Entries() []Entry {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	return append([]Entry(nil), t.rec.entries...)
}

// ContainsMessage reports whether any captured message contains s.
func (t *TestLogger) ContainsMessage(s string) bool {
	for _, e := range t.Entries() {
		if strings.Contains(e.Message, s) {
			return true
		}
	}
	return false
}

// ContainsField reports whether any record carries key with the given value.
// Values are compared by their printed form so 42 and 42.0 match.
func (t *TestLogger) ContainsField(key string, value any) bool {
	want := fmt.Sprint(value)
	for _, e := range t.Entries() {
		if v, ok := e.Fields[key]; ok && fmt.Sprint(v) == want {
			return true
		}
	}
	return false
}

// Count returns the number of captured records at exactly level.
func (t *TestLogger) Count(level Level) int {
	n := 0
	for _, e := range t.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// String returns the captured JSON lines.
func (t *TestLogger) String() string {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	return t.rec.buf.String()
}

// TestLoggerProvider hands out loggers that all record into one TestLogger,
// for code that resolves its logger through SetGlobalProvider.
type TestLoggerProvider struct {
	mu     sync.Mutex
	logger *TestLogger
}

// NewTestLoggerProvider returns a provider and the buffer its loggers write to.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buf := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, buf
}

func (p *TestLoggerProvider) GetLogger() Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logger
}

// GetLoggerWithName tags records with ComponentKey.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel affects loggers handed out afterwards.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = &TestLogger{rec: p.logger.rec, level: level, fields: p.logger.fields}
}
