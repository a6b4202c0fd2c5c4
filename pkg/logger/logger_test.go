package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Service: "reservations"})

	log.Info("hello", "k", "v")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record[SERVICE] != "reservations" {
		t.Errorf("service = %v", record[SERVICE])
	}
	if record["k"] != "v" {
		t.Errorf("k = %v", record["k"])
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Format: TEXT})

	log.Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text record, got %q", buf.String())
	}
}

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{level: DEBUG, wantDebug: true, wantInfo: true},
		{level: INFO, wantDebug: false, wantInfo: true},
		{level: WARN, wantDebug: false, wantInfo: false},
		{level: "bogus", wantDebug: false, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Output: &buf, Level: tt.level})

			log.Debug("d")
			if got := buf.Len() > 0; got != tt.wantDebug {
				t.Errorf("debug emitted = %v, want %v", got, tt.wantDebug)
			}
			buf.Reset()
			log.Info("i")
			if got := buf.Len() > 0; got != tt.wantInfo {
				t.Errorf("info emitted = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestWithRoom(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf}).WithRoom("room_a", 42)

	log.Info("promoted")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatal(err)
	}
	if record[ROOM] != "room_a" {
		t.Errorf("room = %v", record[ROOM])
	}
	if record[ID] != float64(42) {
		t.Errorf("id = %v", record[ID])
	}

	buf.Reset()
	New(Config{Output: &buf}).WithRoom("room_b", 0).Info("walk-in")
	if strings.Contains(buf.String(), `"id"`) {
		t.Errorf("zero id should be omitted: %q", buf.String())
	}
}
