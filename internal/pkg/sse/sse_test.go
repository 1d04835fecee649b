package sse

import (
	"strings"
	"testing"
	"time"
)

func TestFormatMessage(t *testing.T) {
	got, err := FormatMessage("n1", "work_order_update", map[string]string{"title": "Pump replaced"}, 0)
	if err != nil {
		t.Fatalf("FormatMessage: %v", err)
	}
	want := "id: n1\nevent: work_order_update\ndata: {\"title\":\"Pump replaced\"}\n\n"
	if got != want {
		t.Fatalf("frame = %q, want %q", got, want)
	}
}

func TestFormatMessageRetryHint(t *testing.T) {
	got, err := FormatMessage("n2", "heartbeat", map[string]string{}, 3000)
	if err != nil {
		t.Fatalf("FormatMessage: %v", err)
	}
	lines := strings.Split(got, "\n")
	if lines[2] != "retry: 3000" {
		t.Fatalf("retry line = %q, want %q", lines[2], "retry: 3000")
	}
	if !strings.HasSuffix(got, "\n\n") {
		t.Fatalf("frame missing blank-line terminator: %q", got)
	}
}

func TestFormatMessageUnserializableData(t *testing.T) {
	if _, err := FormatMessage("n3", "notification", func() {}, 0); err == nil {
		t.Fatal("expected error for unserializable data")
	}
}

func TestHeartbeat(t *testing.T) {
	frame := Heartbeat()
	if !strings.HasPrefix(frame, ": heartbeat ") {
		t.Fatalf("heartbeat frame = %q, want comment prefix", frame)
	}
	if !strings.HasSuffix(frame, "\n\n") {
		t.Fatalf("heartbeat frame missing blank-line terminator: %q", frame)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(frame, ": heartbeat "), "\n\n")
	if _, err := time.Parse(time.RFC3339, stamp); err != nil {
		t.Fatalf("heartbeat timestamp %q not RFC3339: %v", stamp, err)
	}
}
