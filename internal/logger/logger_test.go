package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/objmesh/internal/config"
	"github.com/Faultbox/objmesh/pkg/formats"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prev := Log
	Log = zap.New(core)
	t.Cleanup(func() { Log = prev })
	return logs
}

func TestInit_LevelFromConfig(t *testing.T) {
	tests := []struct {
		level string
		shown []string
		quiet []string
	}{
		{"", []string{"info msg", "warn msg"}, []string{"debug msg"}},
		{"debug", []string{"debug msg", "info msg", "error msg"}, nil},
		{"warn", []string{"warn msg", "error msg"}, []string{"debug msg", "info msg"}},
		{"ERROR", []string{"error msg"}, []string{"info msg", "warn msg"}},
	}

	for _, tt := range tests {
		t.Run("level="+tt.level, func(t *testing.T) {
			var console bytes.Buffer
			if err := initWith(config.LoggingConfig{Level: tt.level}, &console); err != nil {
				t.Fatalf("initWith failed: %v", err)
			}

			Debug("debug msg")
			Info("info msg")
			Warn("warn msg")
			Error("error msg")
			Sync()

			for _, msg := range tt.shown {
				if !strings.Contains(console.String(), msg) {
					t.Errorf("console missing %q:\n%s", msg, console.String())
				}
			}
			for _, msg := range tt.quiet {
				if strings.Contains(console.String(), msg) {
					t.Errorf("console has %q at level %q", msg, tt.level)
				}
			}
		})
	}
}

func TestInit_BadLevel(t *testing.T) {
	if err := Init(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestInit_LogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "objtool.log")
	cfg := config.LoggingConfig{Level: "debug", LogFile: logFile}
	if err := initWith(cfg, nil); err != nil {
		t.Fatalf("initWith failed: %v", err)
	}

	Named("assets").Debug("mesh loaded", File("crate.obj"))
	Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	for _, want := range []string{"DEBUG", "assets", "mesh loaded", "crate.obj"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("log file missing %q: %q", want, content)
		}
	}
	// The file encoder never colors levels.
	if strings.Contains(string(content), "\x1b[") {
		t.Errorf("log file has color codes: %q", content)
	}
}

func TestNamed(t *testing.T) {
	Log = nil
	if Named("assets") == nil {
		t.Fatal("Named returned nil before Init")
	}
	// Package helpers must not panic before Init either.
	Info("dropped")

	logs := observe(t)
	Named("assets").Info("mesh loaded")
	Info("top level")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].LoggerName != "assets" {
		t.Errorf("logger name = %q, want assets", entries[0].LoggerName)
	}
	if entries[1].LoggerName != "" {
		t.Errorf("top-level logger name = %q, want empty", entries[1].LoggerName)
	}
}

func TestInitNop(t *testing.T) {
	InitNop()
	if Log == nil {
		t.Fatal("InitNop left a nil logger")
	}
	Info("discarded")
	Sync()
}

func TestMeshField(t *testing.T) {
	mesh, err := formats.ParseOBJ([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\ns 1\nf 1//1 2//1 3//1\n"),
		formats.DefaultOBJOptions())
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	logs := observe(t)
	Info("mesh loaded", Mesh(mesh))

	fields, ok := logs.All()[0].ContextMap()["mesh"].(map[string]interface{})
	if !ok {
		t.Fatalf("mesh field is not an object: %v", logs.All()[0].ContextMap())
	}
	want := map[string]interface{}{
		"format":        "Vertex/Normal",
		"vertices":      3,
		"faces":         1,
		"collisions":    0,
		"skipped_lines": 1,
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("mesh.%s = %v, want %v", k, fields[k], v)
		}
	}
	if _, ok := fields["overflows"]; ok {
		t.Error("zero overflow count should be omitted")
	}
}

func TestFailureField(t *testing.T) {
	_, parseErr := formats.ParseOBJ([]byte("v 0 0 0\nvn 0 0 1\nf 1//1\n"), formats.DefaultOBJOptions())
	if parseErr == nil {
		t.Fatal("expected parse error")
	}

	logs := observe(t)
	Error("load failed", Failure(parseErr))
	Error("load failed", Failure(os.ErrNotExist))

	entries := logs.All()
	parsed := entries[0].ContextMap()["failure"].(map[string]interface{})
	if parsed["kind"] != "MalformedRecord" || parsed["line"] != 3 {
		t.Errorf("parse failure = %v, want kind MalformedRecord on line 3", parsed)
	}

	plain := entries[1].ContextMap()["failure"].(map[string]interface{})
	if _, ok := plain["kind"]; ok {
		t.Errorf("plain error got a kind: %v", plain)
	}
	if plain["error"] != os.ErrNotExist.Error() {
		t.Errorf("error = %v, want %q", plain["error"], os.ErrNotExist.Error())
	}
}
