package version

import (
	"runtime"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Service != "moodpulse" {
		t.Errorf("Service = %q, want %q", info.Service, "moodpulse")
	}
	if info.Version == "" || info.Commit == "" || info.BuildTime == "" {
		t.Errorf("build fields should have defaults, got %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestLogAttrs(t *testing.T) {
	attrs := Get().LogAttrs()
	if len(attrs)%2 != 0 {
		t.Fatalf("LogAttrs returned odd number of values: %d", len(attrs))
	}
	if attrs[0] != "version" {
		t.Errorf("first key = %v, want version", attrs[0])
	}
}
