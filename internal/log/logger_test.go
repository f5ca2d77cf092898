package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComponentIsAttached(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, JSON: true}).WithComponent(ComponentStore)
	l.InfoContext(context.Background(), "fetched", FieldCount, 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentStore {
		t.Fatalf("component = %v", rec[FieldComponent])
	}
	if rec[FieldCount] != float64(3) {
		t.Fatalf("count = %v", rec[FieldCount])
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Level: slog.LevelWarn})
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background(), nil) == nil {
		t.Fatal("expected fallback logger")
	}
	fallback := Nop().WithComponent(ComponentHTTP)
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Fatal("expected the fallback logger itself")
	}
}

func TestFromContextKeepsRequestAttributes(t *testing.T) {
	var buf bytes.Buffer
	reqLogger := New(Config{Output: &buf, JSON: true}).With(FieldRequestID, "req-12345678")
	ctx := IntoContext(context.Background(), reqLogger)

	FromContext(ctx, Nop().WithComponent(ComponentUpload)).InfoContext(ctx, "accepted")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if rec[FieldRequestID] != "req-12345678" {
		t.Fatalf("request_id = %v", rec[FieldRequestID])
	}
	if rec[FieldComponent] != ComponentUpload {
		t.Fatalf("component = %v", rec[FieldComponent])
	}
}
