// Package formats provides parsers for 3D mesh file formats.
package formats

// Note: OBJ (Wavefront) parsing is implemented in obj.go
// Note: the vertex deduplication table lives in obj_dedup.go
