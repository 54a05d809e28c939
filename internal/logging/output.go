package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	coreMu  sync.RWMutex
	outCore zapcore.Core
	stdout  io.Writer = os.Stdout
	stderr  io.Writer = os.Stderr
)

// SetOutput routes every level to w. Intended for tests and for the CLI's --quiet style modes.
func SetOutput(w io.Writer) {
	coreMu.Lock()
	defer coreMu.Unlock()
	stdout, stderr = w, w
	outCore = buildCore()
}

// ResetOutput restores stdout/stderr routing
func ResetOutput() {
	coreMu.Lock()
	defer coreMu.Unlock()
	stdout, stderr = os.Stdout, os.Stderr
	outCore = buildCore()
}

func ensureCore() {
	coreMu.Lock()
	defer coreMu.Unlock()
	if outCore == nil {
		outCore = buildCore()
	}
}

// buildCore must be called with coreMu held. Level filtering happens in
// Logger.shouldLog so the cores accept everything.
func buildCore() zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.NameKey = "logger"
	encCfg.EncodeTime = encodeTimestamp
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.ConsoleSeparator = " "
	enc := zapcore.NewConsoleEncoder(encCfg)

	low := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl < zapcore.ErrorLevel })
	high := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= zapcore.ErrorLevel })

	return zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.AddSync(stdout), low),
		zapcore.NewCore(enc.Clone(), zapcore.AddSync(stderr), high),
	)
}

func encodeTimestamp(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(GetTimestamp(t))
}

// GetTimestamp formats t as RFC3339.
// Can be overridden via LOG_TIMESTAMP env var for testing.
func GetTimestamp(t time.Time) string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return t.Format(time.RFC3339)
}

// writeLog encodes one record. Fatal records are written straight to the core
// so zap does not terminate the process; Fatal calls exitFunc itself.
func (l *Logger) writeLog(level LogLevel, msg string, fields map[string]interface{}) {
	ensureCore()
	coreMu.RLock()
	core := outCore
	coreMu.RUnlock()

	entry := zapcore.Entry{
		LoggerName: l.name,
		Time:       time.Now(),
		Level:      level.zapLevel(),
		Message:    msg,
	}
	ce := core.Check(entry, nil)
	if ce == nil {
		return
	}
	ce.Write(toZapFields(fields)...)
}

// logf formats the message and writes it with the logger's fields
func (l *Logger) logf(level LogLevel, msg string, args ...interface{}) {
	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}
	l.writeLog(level, formatted, l.baseFields())
}

// toZapFields converts fields to zap fields in key order so output is stable
func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
