// objtool is a CLI utility for inspecting and checking Wavefront OBJ meshes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/objmesh/internal/assets"
	"github.com/Faultbox/objmesh/internal/config"
	"github.com/Faultbox/objmesh/internal/logger"
	"github.com/Faultbox/objmesh/internal/model"
)

func main() {
	// Global flags come before the command
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	args := config.Args()
	if len(args) < 1 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]
	logger.Debug("running command", zap.String("command", command), zap.Strings("args", args))

	var code int
	switch command {
	case "info":
		code = cmdInfo(cfg, args, os.Stdout)
	case "dump":
		code = cmdDump(cfg, args, os.Stdout)
	case "check":
		code = cmdCheck(cfg, args, os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stdout)
		code = 1
	}

	logger.Sync()
	os.Exit(code)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `objtool - Wavefront OBJ mesh utility

Usage:
  objtool [flags] <command> [options]

Commands:
  info [-center] <file.obj>       Show mesh format, counts and dedup stats
  dump [-n N] [-flip-v] <file.obj>
                                  Print the first N vertices and triangles
  check <file.obj|dir>...         Parse every mesh, report failures

Flags:
  -config <path>       Config file (default ./objtool.yaml)
  -buckets <n>         Vertex table bucket count
  -max-vertices <n>    Distinct vertex ceiling per mesh
  -workers <n>         Parallel parses for check
  -debug               Debug logging
  -log-file <path>     Also write logs to a rotating file

Examples:
  objtool info models/crate.obj
  objtool info -center models/crate.obj
  objtool dump -n 20 models/crate.obj
  objtool -workers 8 check assets/models`)
}

func newManager(cfg *config.Config) *assets.Manager {
	m := assets.NewManager(cfg.Parser.Options(), cfg.Loader.Workers, cfg.Loader.Cache)
	for _, dir := range cfg.Loader.SearchPaths {
		if err := m.AddSearchPath(dir); err != nil {
			logger.Warn("skipping search path", zap.String("dir", dir), zap.Error(err))
		}
	}
	return m
}

func cmdInfo(cfg *config.Config, args []string, w io.Writer) int {
	flags := flag.NewFlagSet("info", flag.ContinueOnError)
	center := flags.Bool("center", false, "Also report bounds after centering on X/Z")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if flags.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objtool info [-center] <file.obj>")
		return 1
	}
	name := flags.Arg(0)

	m := newManager(cfg)
	defer m.Close()

	obj, err := m.Load(name)
	if err != nil {
		reportError(name, err)
		return 1
	}

	fmt.Fprintf(w, "File:        %s\n", name)
	fmt.Fprintf(w, "Format:      %s\n", obj.Format)
	fmt.Fprintf(w, "Faces:       %d\n", obj.FaceCount)
	fmt.Fprintf(w, "Vertices:    %d\n", obj.VertexCount())
	fmt.Fprintf(w, "Indices:     %d\n", len(obj.Indices))
	fmt.Fprintf(w, "Dedup ratio: %.3f (%d corners)\n", obj.Stats.DedupRatio(), obj.Stats.Corners)
	fmt.Fprintf(w, "Table:       %d buckets, %d collisions, longest chain %d\n",
		obj.Stats.Buckets, obj.Stats.Collisions, obj.Stats.LongestChain)

	if mesh, err := model.BuildMesh(name, obj, model.BuildOptions{}); err == nil {
		fmt.Fprintf(w, "Bounds:      min %v max %v\n", mesh.Bounds.Min, mesh.Bounds.Max)
		if *center {
			cx, cz := model.CenterMeshXZ(mesh)
			fmt.Fprintf(w, "Centered:    offset (%g, %g), min %v max %v\n",
				cx, cz, mesh.Bounds.Min, mesh.Bounds.Max)
		}
	}

	if obj.SkippedLines > 0 || obj.Overflows > 0 {
		fmt.Fprintf(w, "\nWarnings: %d skipped lines, %d numeric overflows\n", obj.SkippedLines, obj.Overflows)
		for _, d := range obj.Diagnostics {
			fmt.Fprintf(w, "  %v\n", d)
		}
		if len(obj.Diagnostics) < obj.SkippedLines+obj.Overflows {
			fmt.Fprintf(w, "  ... (%d more)\n", obj.SkippedLines+obj.Overflows-len(obj.Diagnostics))
		}
	}
	return 0
}

func cmdDump(cfg *config.Config, args []string, w io.Writer) int {
	flags := flag.NewFlagSet("dump", flag.ContinueOnError)
	limit := flags.Int("n", 10, "Limit output to N vertices and triangles (0 = all)")
	flipV := flags.Bool("flip-v", false, "Flip texture V to top-left origin")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if flags.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objtool dump [-n N] [-flip-v] <file.obj>")
		return 1
	}
	name := flags.Arg(0)

	m := newManager(cfg)
	defer m.Close()

	obj, err := m.Load(name)
	if err != nil {
		reportError(name, err)
		return 1
	}

	fmt.Fprintf(w, "# %s (%s)\n", name, obj.Format)
	u := &textUploader{w: w, limit: *limit}
	if _, err := model.Upload(u, name, obj, model.BuildOptions{FlipV: *flipV}); err != nil {
		reportError(name, err)
		return 1
	}
	return 0
}

// textUploader prints meshes instead of sending them to a GPU.
type textUploader struct {
	w     io.Writer
	limit int // 0 = all
}

func (u *textUploader) UploadMesh(m *model.Mesh) error {
	vertexCount := len(m.Vertices)
	if u.limit > 0 && vertexCount > u.limit {
		vertexCount = u.limit
	}
	fmt.Fprintf(u.w, "# %d vertices\n", len(m.Vertices))
	for i, v := range m.Vertices[:vertexCount] {
		p, n := v.Position, v.Normal
		fmt.Fprintf(u.w, "%6d  p(%g, %g, %g)  n(%g, %g, %g)", i, p[0], p[1], p[2], n[0], n[1], n[2])
		if m.HasUVs {
			fmt.Fprintf(u.w, "  uv(%g, %g)", v.TexCoord[0], v.TexCoord[1])
		}
		fmt.Fprintln(u.w)
	}

	triCount := m.TriangleCount()
	if u.limit > 0 && triCount > u.limit {
		triCount = u.limit
	}
	fmt.Fprintf(u.w, "# %d triangles\n", m.TriangleCount())
	for i := 0; i < triCount; i++ {
		_, err := fmt.Fprintf(u.w, "%6d  %d %d %d\n", i, m.Indices[3*i], m.Indices[3*i+1], m.Indices[3*i+2])
		if err != nil {
			return err
		}
	}
	return nil
}

func cmdCheck(cfg *config.Config, args []string, w io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objtool check <file.obj|dir>...")
		return 1
	}

	files, err := collectOBJFiles(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No .obj files found")
		return 1
	}

	m := newManager(cfg)
	defer m.Close()

	meshes, err := m.LoadAll(context.Background(), files)

	names := make([]string, 0, len(meshes))
	for name := range meshes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		obj := meshes[name]
		status := "ok"
		if obj.SkippedLines > 0 || obj.Overflows > 0 {
			status = "ok (warnings)"
		}
		fmt.Fprintf(w, "%-14s %s  %d vertices, %d faces\n", status, name, obj.VertexCount(), obj.FaceCount)
	}

	failures := multierr.Errors(err)
	for _, e := range failures {
		fmt.Fprintf(w, "%-14s %v\n", "FAIL", e)
	}

	hits, misses := m.CacheStats()
	logger.Info("check finished",
		zap.Int("files", len(files)),
		zap.Int("failed", len(failures)),
		zap.Int("cache_hits", hits),
		zap.Int("cache_misses", misses),
	)
	fmt.Fprintf(os.Stderr, "\n(%d files, %d failed)\n", len(files), len(failures))
	if len(failures) > 0 {
		return 1
	}
	return 0
}

// collectOBJFiles expands directories into the .obj files below them.
func collectOBJFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			// Let the manager report it alongside parse failures.
			files = append(files, arg)
			continue
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".obj") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return files, nil
}

func reportError(name string, err error) {
	logger.Error("load failed", logger.File(name), logger.Failure(err))
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
