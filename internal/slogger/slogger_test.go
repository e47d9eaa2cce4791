package slogger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureHandler wraps our handler to capture log output for testing
type captureHandler struct {
	*Handler
	buffer *bytes.Buffer
	logged bool
}

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	// Check if record should be included
	if !h.Handler.shouldIncludeRecord(r) {
		h.logged = false
		return nil
	}

	h.logged = true

	// Capture attributes for testing
	var attrs []string
	r.Attrs(func(a slog.Attr) bool {
		var valueStr string
		if a.Value.Any() == nil {
			valueStr = "<nil>"
		} else {
			valueStr = a.Value.String()
		}
		attrs = append(attrs, a.Key+"="+valueStr)
		return true
	})
	h.buffer.WriteString(strings.Join(attrs, " "))
	return nil
}

func newCapture(t *testing.T, opts HandlerOptions) (*captureHandler, *bytes.Buffer) {
	t.Helper()
	buffer := &bytes.Buffer{}
	handler := NewWithOptions(opts).Handler().(*Handler)
	return &captureHandler{Handler: handler, buffer: buffer}, buffer
}

func TestExcludeFreezePollRetry(t *testing.T) {
	tests := []struct {
		name      string
		attrs     map[string]any
		shouldLog bool
	}{
		{
			name:      "retry spam is excluded by key",
			attrs:     map[string]any{"freeze_poll_retry": "/a/b.txt"},
			shouldLog: false,
		},
		{
			name:      "unrelated commit log is not excluded",
			attrs:     map[string]any{"path": "/a/b.txt", "tier": "upper"},
			shouldLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture, buffer := newCapture(t, HandlerOptions{
				Level:   slog.LevelDebug,
				Exclude: []string{"freeze_poll_retry"},
			})

			record := slog.NewRecord(time.Now(), slog.LevelDebug, "retrying frozen path", 0)
			for k, v := range tt.attrs {
				record.AddAttrs(slog.Any(k, v))
			}
			capture.Handle(context.Background(), record)

			if tt.shouldLog != capture.logged {
				t.Errorf("shouldLog=%v, got logged=%v, buffer=%q", tt.shouldLog, capture.logged, buffer.String())
			}
		})
	}
}

func TestIncludeErrFilters(t *testing.T) {
	tests := []struct {
		name      string
		filters   []string
		attrs     map[string]any
		shouldLog bool
	}{
		{
			name:      "include err=* logs record with non-nil error",
			filters:   []string{"err=*"},
			attrs:     map[string]any{"err": "lower chmod failed", "path": "/x"},
			shouldLog: true,
		},
		{
			name:      "include err=* excludes record with nil error",
			filters:   []string{"err=*"},
			attrs:     map[string]any{"err": nil, "path": "/x"},
			shouldLog: false,
		},
		{
			name:      "include err=* excludes record without an err attribute",
			filters:   []string{"err=*"},
			attrs:     map[string]any{"path": "/x"},
			shouldLog: false,
		},
		{
			name:      "include err matches any err value including nil",
			filters:   []string{"err"},
			attrs:     map[string]any{"err": nil, "path": "/x"},
			shouldLog: true,
		},
		{
			name:      "include tier=upper logs matching tier",
			filters:   []string{"tier=upper"},
			attrs:     map[string]any{"tier": "upper", "path": "/x"},
			shouldLog: true,
		},
		{
			name:      "include tier=upper excludes lower",
			filters:   []string{"tier=upper"},
			attrs:     map[string]any{"tier": "lower", "path": "/x"},
			shouldLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture, buffer := newCapture(t, HandlerOptions{
				Level:   slog.LevelDebug,
				Include: tt.filters,
			})

			record := slog.NewRecord(time.Now(), slog.LevelInfo, "worker event", 0)
			for k, v := range tt.attrs {
				record.AddAttrs(slog.Any(k, v))
			}
			capture.Handle(context.Background(), record)

			if tt.shouldLog != capture.logged {
				t.Errorf("shouldLog=%v, got logged=%v, buffer=%q", tt.shouldLog, capture.logged, buffer.String())
			}
		})
	}
}

func TestCombinedIncludeExclude(t *testing.T) {
	// Only show lower-tier worker activity, but never the retry spam.
	capture, _ := newCapture(t, HandlerOptions{
		Level:   slog.LevelDebug,
		Include: []string{"tier=lower"},
		Exclude: []string{"freeze_poll_retry"},
	})

	record := slog.NewRecord(time.Now(), slog.LevelDebug, "commit sweep", 0)
	record.AddAttrs(slog.String("tier", "lower"), slog.String("freeze_poll_retry", "/d/f.txt"))
	capture.Handle(context.Background(), record)
	if capture.logged {
		t.Error("expected record excluded despite matching include, because it also matches exclude")
	}

	record = slog.NewRecord(time.Now(), slog.LevelDebug, "commit sweep", 0)
	record.AddAttrs(slog.String("tier", "lower"), slog.String("path", "/d/f.txt"))
	capture.Handle(context.Background(), record)
	if !capture.logged {
		t.Error("expected record logged: matches include, no exclude match")
	}
}

func TestNilValueFormatting(t *testing.T) {
	capture, buffer := newCapture(t, HandlerOptions{Level: slog.LevelDebug})

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "lower chmod failed", 0)
	record.AddAttrs(slog.Any("err", nil))
	capture.Handle(context.Background(), record)

	if !strings.Contains(buffer.String(), "err=<nil>") {
		t.Errorf("expected nil to be formatted as <nil>, got: %q", buffer.String())
	}
}
