package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/objmesh/internal/config"
	"github.com/Faultbox/objmesh/internal/logger"
)

const cubeFaceOBJ = `# two triangles
v 0 0 0
v 2 0 0
v 2 2 0
v 0 2 0
vn 0 0 1
usemtl metal
f 1//1 2//1 3//1
f 1//1 3//1 4//1
`

const decalOBJ = `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0.25
vt 1 0.25
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`

func setupFiles(t *testing.T) string {
	t.Helper()
	logger.InitNop()

	dir := t.TempDir()
	files := map[string]string{
		"quad.obj":        cubeFaceOBJ,
		"decal.obj":       decalOBJ,
		"nested/bad.obj":  "v 0 0 0\nvn 0 0 1\nf 1//1 1//1\n",
		"nested/note.txt": "not a mesh",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestCmdInfo(t *testing.T) {
	dir := setupFiles(t)

	var out bytes.Buffer
	code := cmdInfo(config.Default(), []string{filepath.Join(dir, "quad.obj")}, &out)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	for _, want := range []string{
		"Format:      Vertex/Normal",
		"Faces:       2",
		"Vertices:    4",
		"Indices:     6",
		"1 skipped lines",
		"usemtl",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCmdInfo_Failure(t *testing.T) {
	dir := setupFiles(t)

	var out bytes.Buffer
	if code := cmdInfo(config.Default(), []string{filepath.Join(dir, "nested/bad.obj")}, &out); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if code := cmdInfo(config.Default(), nil, &out); code != 1 {
		t.Errorf("exit code without args = %d, want 1", code)
	}
}

func TestCmdDump(t *testing.T) {
	dir := setupFiles(t)

	var out bytes.Buffer
	code := cmdDump(config.Default(), []string{"-n", "1", filepath.Join(dir, "quad.obj")}, &out)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	got := out.String()
	if !strings.Contains(got, "# 4 vertices") || !strings.Contains(got, "# 2 triangles") {
		t.Errorf("missing headers:\n%s", got)
	}
	if !strings.Contains(got, "0 1 2") {
		t.Errorf("missing first triangle:\n%s", got)
	}
	if strings.Contains(got, "0 2 3") {
		t.Errorf("limit not applied:\n%s", got)
	}
}

func TestCmdCheck(t *testing.T) {
	dir := setupFiles(t)

	cfg := config.Default()
	cfg.Loader.Workers = 2

	var out bytes.Buffer
	code := cmdCheck(cfg, []string{dir}, &out)
	if code != 1 {
		t.Errorf("exit code = %d, want 1 with a broken mesh", code)
	}

	got := out.String()
	if !strings.Contains(got, "quad.obj  4 vertices, 2 faces") {
		t.Errorf("missing ok line:\n%s", got)
	}
	if !strings.Contains(got, "FAIL") || !strings.Contains(got, "bad.obj") {
		t.Errorf("missing failure line:\n%s", got)
	}
	if strings.Contains(got, "note.txt") {
		t.Errorf("non-obj file checked:\n%s", got)
	}
}

func TestCollectOBJFiles(t *testing.T) {
	dir := setupFiles(t)

	files, err := collectOBJFiles([]string{dir, "missing.obj"})
	if err != nil {
		t.Fatalf("collectOBJFiles failed: %v", err)
	}
	if len(files) != 4 {
		t.Errorf("got %d files, want 4: %v", len(files), files)
	}
	if files[len(files)-1] != "missing.obj" {
		t.Errorf("missing argument not passed through: %v", files)
	}
}

func TestCmdInfo_Center(t *testing.T) {
	dir := setupFiles(t)

	var out bytes.Buffer
	code := cmdInfo(config.Default(), []string{"-center", filepath.Join(dir, "quad.obj")}, &out)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	got := out.String()
	if !strings.Contains(got, "Bounds:      min [0 0 0] max [2 2 0]") {
		t.Errorf("missing original bounds:\n%s", got)
	}
	if !strings.Contains(got, "Centered:    offset (1, 0), min [-1 0 0] max [1 2 0]") {
		t.Errorf("missing centered bounds:\n%s", got)
	}
}

func TestCmdDump_SearchPathFlipV(t *testing.T) {
	dir := setupFiles(t)

	cfg := config.Default()
	cfg.Loader.SearchPaths = []string{dir}

	var out bytes.Buffer
	code := cmdDump(cfg, []string{"-n", "0", "-flip-v", "decal.obj"}, &out)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	got := out.String()
	for _, want := range []string{
		"# decal.obj (Vertex/UV/Normal)",
		"# 3 vertices",
		"uv(0, 0.75)",
		"uv(1, 0.75)",
		"uv(0, 0)",
		"# 1 triangles",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestCmdDump_NoFaces(t *testing.T) {
	dir := t.TempDir()
	logger.InitNop()
	path := filepath.Join(dir, "points.obj")
	if err := os.WriteFile(path, []byte("v 0 0 0\n"), 0644); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	var out bytes.Buffer
	if code := cmdDump(config.Default(), []string{path}, &out); code != 1 {
		t.Errorf("exit code = %d, want 1 for a mesh without triangles", code)
	}
}

func TestPrintUsage(t *testing.T) {
	var out bytes.Buffer
	printUsage(&out)

	// Every global flag is documented.
	for _, flag := range []string{"-config", "-buckets", "-max-vertices", "-workers", "-debug", "-log-file"} {
		if !strings.Contains(out.String(), flag+" ") {
			t.Errorf("usage missing %s", flag)
		}
	}
}
