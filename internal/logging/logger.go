/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package logging provides structured, component-based logging for FlyMem.

The logger supports:
  - Log levels (DEBUG, INFO, WARN, ERROR)
  - Key-value fields attached to each message
  - A component name per logger for filtering
  - Text output with ANSI level colors, or one JSON object per line

An embedded engine should stay quiet by default, so the global level
starts at WARN and output goes to stderr. Hosts raise the level through
the configuration layer or SetGlobalLevel.

Usage:

	logger := logging.NewLogger("transaction")
	logger.Debug("forked", "parent", parent.ID(), "child", child.ID())
	logger.Warn("statement failed", "sql", text, "error", err)
*/
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	// DEBUG level for detailed debugging information.
	DEBUG Level = iota
	// INFO level for general operational information.
	INFO
	// WARN level for warning conditions.
	WARN
	// ERROR level for error conditions.
	ERROR
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown names map to WARN.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return WARN
	}
}

// Entry represents a single log entry with all its metadata.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger provides structured logging for one component.
type Logger struct {
	component string
	mu        sync.Mutex
}

// Config holds logger configuration options.
type Config struct {
	Level    Level
	Output   io.Writer
	JSONMode bool
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:    WARN,
		Output:   os.Stderr,
		JSONMode: false,
	}
}

var (
	globalConfig = DefaultConfig()
	globalMu     sync.RWMutex
)

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level Level) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig.Level = level
}

// GlobalLevel returns the current global log level.
func GlobalLevel() Level {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig.Level
}

// SetGlobalOutput sets the global log output.
func SetGlobalOutput(w io.Writer) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig.Output = w
}

// SetJSONMode enables or disables JSON output mode.
func SetJSONMode(enabled bool) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig.JSONMode = enabled
}

// Configure applies a full Config at once.
func Configure(cfg Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	globalConfig = cfg
}

// NewLogger creates a new Logger for the specified component.
// Level and output are read from the global configuration at write time,
// so loggers created in package init follow later configuration changes.
func NewLogger(component string) *Logger {
	return &Logger{component: component}
}

// Component returns the component name of the logger.
func (l *Logger) Component() string {
	return l.component
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= GlobalLevel()
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	globalMu.RLock()
	minLevel := globalConfig.Level
	output := globalConfig.Output
	jsonMode := globalConfig.JSONMode
	globalMu.RUnlock()

	if level < minLevel {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Component: l.component,
		Message:   msg,
	}

	if len(args) > 0 {
		entry.Fields = make(map[string]interface{})
		for i := 0; i < len(args)-1; i += 2 {
			key, ok := args[i].(string)
			if !ok {
				key = fmt.Sprintf("arg%d", i)
			}
			entry.Fields[key] = fieldValue(args[i+1])
		}
		if len(args)%2 != 0 {
			entry.Fields["extra"] = fieldValue(args[len(args)-1])
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if jsonMode {
		writeJSON(output, entry)
	} else {
		writeText(output, entry)
	}
}

// fieldValue renders errors as their message so JSON output keeps them.
func fieldValue(v interface{}) interface{} {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}

func writeJSON(w io.Writer, entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(w, "ERROR: failed to marshal log entry: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

// writeText writes the entry in human-readable text format.
// Format: 2006-01-02T15:04:05.000Z [LEVEL] [component] message key=value ...
func writeText(w io.Writer, entry Entry) {
	timestamp := entry.Timestamp.Format("2006-01-02T15:04:05.000Z")

	var levelColor string
	switch entry.Level {
	case "DEBUG":
		levelColor = "\033[36m" // Cyan
	case "INFO":
		levelColor = "\033[32m" // Green
	case "WARN":
		levelColor = "\033[33m" // Yellow
	case "ERROR":
		levelColor = "\033[31m" // Red
	default:
		levelColor = "\033[0m"
	}
	resetColor := "\033[0m"

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s[%-5s]%s [%s] %s",
		timestamp, levelColor, entry.Level, resetColor, entry.Component, entry.Message)

	// Fields are sorted so that lines are stable across runs.
	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}

	fmt.Fprintln(w, b.String())
}

// Debug logs a message at DEBUG level.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(DEBUG, msg, args...)
}

// Info logs a message at INFO level.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(INFO, msg, args...)
}

// Warn logs a message at WARN level.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(WARN, msg, args...)
}

// Error logs a message at ERROR level.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(ERROR, msg, args...)
}

// With returns a logger that adds the given fields to every message.
func (l *Logger) With(args ...interface{}) *ContextLogger {
	return &ContextLogger{logger: l, args: append([]interface{}(nil), args...)}
}

// ContextLogger is a logger with pre-set context fields.
type ContextLogger struct {
	logger *Logger
	args   []interface{}
}

// Debug logs a message at DEBUG level with context fields.
func (c *ContextLogger) Debug(msg string, args ...interface{}) {
	c.logger.log(DEBUG, msg, c.mergeArgs(args)...)
}

// Info logs a message at INFO level with context fields.
func (c *ContextLogger) Info(msg string, args ...interface{}) {
	c.logger.log(INFO, msg, c.mergeArgs(args)...)
}

// Warn logs a message at WARN level with context fields.
func (c *ContextLogger) Warn(msg string, args ...interface{}) {
	c.logger.log(WARN, msg, c.mergeArgs(args)...)
}

// Error logs a message at ERROR level with context fields.
func (c *ContextLogger) Error(msg string, args ...interface{}) {
	c.logger.log(ERROR, msg, c.mergeArgs(args)...)
}

func (c *ContextLogger) mergeArgs(args []interface{}) []interface{} {
	result := make([]interface{}, 0, len(c.args)+len(args))
	result = append(result, c.args...)
	return append(result, args...)
}

// ============================================================================
// Statement Tracking
// ============================================================================

var statementCounter uint64

// StatementContext tracks one statement batch for logging.
type StatementContext struct {
	ID        uint64
	StartTime time.Time
	SQL       string
}

// NewStatementContext creates a context with a process-unique ID.
func NewStatementContext(sql string) *StatementContext {
	return &StatementContext{
		ID:        atomic.AddUint64(&statementCounter, 1),
		StartTime: time.Now(),
		SQL:       sql,
	}
}

// Duration returns the time elapsed since the statement started.
func (s *StatementContext) Duration() time.Duration {
	return time.Since(s.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (s *StatementContext) DurationMs() float64 {
	return float64(s.Duration().Microseconds()) / 1000.0
}

// LogComplete logs a completed statement batch at DEBUG level.
func (s *StatementContext) LogComplete(logger *Logger, command string, args ...interface{}) {
	base := []interface{}{
		"statement_id", s.ID,
		"command", command,
		"duration_ms", fmt.Sprintf("%.2f", s.DurationMs()),
	}
	logger.Debug("statement completed", append(base, args...)...)
}

// LogError logs a failed statement batch at WARN level.
func (s *StatementContext) LogError(logger *Logger, err error, args ...interface{}) {
	base := []interface{}{
		"statement_id", s.ID,
		"sql", s.SQL,
		"error", err,
		"duration_ms", fmt.Sprintf("%.2f", s.DurationMs()),
	}
	logger.Warn("statement failed", append(base, args...)...)
}
