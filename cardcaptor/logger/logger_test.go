package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(NewHandler(&buf, Options{Level: level, NoColor: true})), &buf
}

func TestCustomHandler_Format(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l *slog.Logger)
		want  []string
		avoid []string
	}{
		{
			name: "Command",
			log: func(l *slog.Logger) {
				l.Info("Command completed",
					slog.String("type", "cmd"),
					slog.String("name", "spawn"),
					slog.String("user_name", "alice"),
					slog.String("status", "success"),
					slog.String("user_id", "42"))
			},
			want:  []string{"[INFO]", "[CMD]", "Command completed [spawn by alice] [Status: success]", "user_id=42"},
			avoid: []string{"type=", "status="},
		},
		{
			name: "Error",
			log: func(l *slog.Logger) {
				l.Error("Claim failed", slog.String("type", "db"), slog.Any("error", errors.New("connection reset")))
			},
			want: []string{"[ERROR]", "[DB]", "Claim failed: connection reset"},
		},
		{
			name: "Default type",
			log: func(l *slog.Logger) {
				l.Warn("Spawn pool exhausted")
			},
			want: []string{"[WARN]", "[SYS]"},
		},
		{
			name: "Component",
			log: func(l *slog.Logger) {
				l.With(slog.String("type", "component")).Info("Component interaction completed")
			},
			want: []string{"[CMP]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newTestLogger(slog.LevelDebug)
			tt.log(l)
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q missing %q", out, w)
				}
			}
			for _, a := range tt.avoid {
				if strings.Contains(out, a) {
					t.Errorf("output %q should not contain %q", out, a)
				}
			}
			if strings.Contains(out, "\033[") {
				t.Errorf("NoColor output contains escape codes: %q", out)
			}
		})
	}
}

func TestCustomHandler_Filtering(t *testing.T) {
	l, buf := newTestLogger(slog.LevelInfo)

	l.Debug("hidden debug line")
	l.Info("sending heartbeat to gateway")
	if buf.Len() != 0 {
		t.Errorf("expected nothing logged, got %q", buf.String())
	}

	l.Info("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected line to be logged, got %q", buf.String())
	}
}

func TestCustomHandler_Groups(t *testing.T) {
	l, buf := newTestLogger(slog.LevelInfo)
	l.WithGroup("spawn").Info("Spawn opened", slog.Int("units", 3))
	if !strings.Contains(buf.String(), "spawn.units=3") {
		t.Errorf("output %q missing grouped attr", buf.String())
	}
}
