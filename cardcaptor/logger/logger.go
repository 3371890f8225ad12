package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand   LogType = "CMD"
	TypeComponent LogType = "CMP"
	TypeDB        LogType = "DB"
	TypeSystem    LogType = "SYS"
	TypeError     LogType = "ERR"
)

type Options struct {
	Level     slog.Leveler
	NoColor   bool
	AddSource bool
}

// CustomHandler prints one coloured line per record:
//
//	[CardCaptor] [15:04:05] [INFO] [CMD] Command completed [spawn by alice] [Status: success] took=12ms
type CustomHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	opts   Options
	attrs  []slog.Attr
	groups []string
}

func NewHandler(w io.Writer, opts Options) *CustomHandler {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	return &CustomHandler{
		mu:   &sync.Mutex{},
		w:    w,
		opts: opts,
	}
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(r.Message) {
		return nil
	}

	fields := collect(h.attrs, r)

	levelColor, levelText := colorGreen, "INFO"
	switch {
	case r.Level >= slog.LevelError:
		levelColor, levelText = colorRed, "ERROR"
	case r.Level >= slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	case r.Level < slog.LevelInfo:
		levelColor, levelText = colorPurple, "DEBUG"
	}

	message := r.Message
	if r.Level >= slog.LevelError {
		location := fields.get("error_location")
		if location == "" && h.opts.AddSource && r.PC != 0 {
			location = sourceOf(r.PC)
		}
		if location != "" {
			message = fmt.Sprintf("%s (%s)", message, location)
		}
		if details := fields.get("error"); details != "" {
			message = fmt.Sprintf("%s: %s", message, details)
		}
	}
	if name, user := fields.get("name"), fields.get("user_name"); name != "" && user != "" {
		message = fmt.Sprintf("%s [%s by %s]", message, name, user)
	}
	if status := fields.get("status"); status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}

	var extra strings.Builder
	prefix := strings.Join(h.groups, ".")
	for _, a := range fields.attrs {
		if isInternalAttr(a.Key) {
			continue
		}
		key := a.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		fmt.Fprintf(&extra, " %s=%v", key, a.Value)
	}

	line := fmt.Sprintf("[CardCaptor] [%s] [%s%s%s] [%s] %s%s",
		r.Time.Format(time.TimeOnly),
		levelColor, levelText, colorWhite,
		logType(fields.get("type")),
		message,
		extra.String(),
	)
	if h.opts.NoColor {
		line = strings.NewReplacer(levelColor, "", colorWhite, "").Replace(line)
	} else {
		line = colorWhite + line + colorReset
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

type recordFields struct {
	attrs []slog.Attr
}

func collect(handlerAttrs []slog.Attr, r slog.Record) recordFields {
	f := recordFields{attrs: make([]slog.Attr, 0, len(handlerAttrs)+r.NumAttrs())}
	f.attrs = append(f.attrs, handlerAttrs...)
	r.Attrs(func(a slog.Attr) bool {
		f.attrs = append(f.attrs, a)
		return true
	})
	return f
}

// get returns the last value for key, so record attrs win over handler attrs.
func (f recordFields) get(key string) string {
	for i := len(f.attrs) - 1; i >= 0; i-- {
		if f.attrs[i].Key == key {
			return f.attrs[i].Value.String()
		}
	}
	return ""
}

// disgo is chatty at debug level
var skippedMessages = []string{
	"locking buckets",
	"unlocking buckets",
	"gateway event",
	"cleaning up bucket",
	"cleaned up rate limit buckets",
	"binary message received",
	"received gateway message",
	"locking gateway rate limiter",
	"unlocking gateway rate limiter",
	"sending gateway command",
	"new request",
	"new response",
	"locking rest bucket",
	"unlocking rest bucket",
	"rate limit response headers",
	"sending heartbeat",
}

func shouldSkipLog(msg string) bool {
	msg = strings.ToLower(msg)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return true
		}
	}
	return false
}

func logType(t string) LogType {
	switch t {
	case "cmd":
		return TypeCommand
	case "component":
		return TypeComponent
	case "db":
		return TypeDB
	case "error":
		return TypeError
	default:
		return TypeSystem
	}
}

func isInternalAttr(key string) bool {
	switch key {
	case "type", "name", "user_name", "status", "error", "error_location":
		return true
	}
	return false
}

func sourceOf(pc uintptr) string {
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	if frame.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
}

// LogSystem logs a lifecycle event.
func LogSystem(msg string, attrs ...any) {
	slog.Info(msg, append([]any{slog.String("type", "sys")}, attrs...)...)
}

func LogError(msg string, err error, attrs ...any) {
	slog.Error(msg, append([]any{slog.String("type", "error"), slog.Any("error", err)}, attrs...)...)
}
