package formats

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/multierr"
)

// OBJ format errors.
var (
	ErrOBJNotFound         = errors.New("obj file not found")
	ErrOBJRead             = errors.New("reading obj file")
	ErrOBJEmpty            = errors.New("empty obj file")
	ErrMalformedOBJRecord  = errors.New("malformed obj record")
	ErrOBJCapacityExceeded = errors.New("obj vertex capacity exceeded")
	ErrInvalidOBJOptions   = errors.New("invalid obj options")
)

// maxOBJDiagnostics caps stored diagnostics; counters keep counting past it.
const maxOBJDiagnostics = 256

// OBJFaceFormat describes the corner layout of face records.
type OBJFaceFormat int

const (
	OBJFormatUnknown        OBJFaceFormat = iota // No face seen yet
	OBJFormatVertexNormal                        // f v//n v//n v//n
	OBJFormatVertexUVNormal                      // f v/t/n v/t/n v/t/n
)

// String returns a human-readable face format name.
func (f OBJFaceFormat) String() string {
	switch f {
	case OBJFormatUnknown:
		return "Unknown"
	case OBJFormatVertexNormal:
		return "Vertex/Normal"
	case OBJFormatVertexUVNormal:
		return "Vertex/UV/Normal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// OBJErrorKind classifies a failed parse.
type OBJErrorKind int

const (
	OBJIOFailure        OBJErrorKind = iota // File missing, unreadable or empty
	OBJMalformedRecord                      // Bad corner count or numeric token
	OBJCapacityExceeded                     // Too many distinct vertices
)

// String returns a human-readable error kind name.
func (k OBJErrorKind) String() string {
	switch k {
	case OBJIOFailure:
		return "IoFailure"
	case OBJMalformedRecord:
		return "MalformedRecord"
	case OBJCapacityExceeded:
		return "CapacityExceeded"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// OBJError is returned by every failed OBJ load or parse.
type OBJError struct {
	Kind        OBJErrorKind
	Line        int    // 1-based source line, 0 when not tied to a line
	Detail      string // What went wrong
	VertexCount int    // Distinct vertices emitted before the failure
	Err         error  // One of the ErrOBJ* sentinels
}

func (e *OBJError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Kind == OBJCapacityExceeded {
		msg += fmt.Sprintf(" (%d vertices emitted)", e.VertexCount)
	}
	return msg
}

func (e *OBJError) Unwrap() error {
	return e.Err
}

// OBJDiagnosticKind classifies a non-fatal parse event.
type OBJDiagnosticKind int

const (
	OBJDiagSkippedLine     OBJDiagnosticKind = iota // Unrecognized directive
	OBJDiagNumericOverflow                          // Number rounded to ±Inf
)

// String returns a human-readable diagnostic kind name.
func (k OBJDiagnosticKind) String() string {
	switch k {
	case OBJDiagSkippedLine:
		return "SkippedLine"
	case OBJDiagNumericOverflow:
		return "NumericOverflow"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// OBJDiagnostic is a warning attached to a successful parse.
type OBJDiagnostic struct {
	Kind OBJDiagnosticKind
	Line int
	Text string
}

func (d OBJDiagnostic) Error() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Kind, d.Text)
}

// OBJOptions configures the vertex deduplication table.
type OBJOptions struct {
	Buckets     int // Fixed hash bucket count
	MaxVertices int // Hard ceiling on distinct output vertices
}

// DefaultOBJOptions returns the default table configuration.
func DefaultOBJOptions() OBJOptions {
	return OBJOptions{
		Buckets:     DefaultOBJBuckets,
		MaxVertices: DefaultOBJMaxVertices,
	}
}

func (o OBJOptions) normalized() (OBJOptions, error) {
	if o.Buckets == 0 {
		o.Buckets = DefaultOBJBuckets
	}
	if o.MaxVertices == 0 {
		o.MaxVertices = DefaultOBJMaxVertices
	}
	if o.Buckets < 0 {
		return o, fmt.Errorf("%w: buckets %d", ErrInvalidOBJOptions, o.Buckets)
	}
	if o.MaxVertices < 0 || o.MaxVertices > math.MaxInt32 {
		return o, fmt.Errorf("%w: max vertices %d", ErrInvalidOBJOptions, o.MaxVertices)
	}
	return o, nil
}

// OBJStats summarizes deduplication work for one parse.
type OBJStats struct {
	Corners        int // Face corners processed
	UniqueVertices int // Distinct keys inserted
	Buckets        int // Table bucket count
	Collisions     int // Inserts that landed in an occupied bucket
	LongestChain   int // Longest bucket chain seen
}

// DedupRatio returns unique vertices per face corner (1 means no sharing).
func (s OBJStats) DedupRatio() float64 {
	if s.Corners == 0 {
		return 0
	}
	return float64(s.UniqueVertices) / float64(s.Corners)
}

// OBJMesh is an indexed triangle mesh parsed from an OBJ file.
// Positions, Normals and UVs are parallel and indexed by compact index.
type OBJMesh struct {
	Format    OBJFaceFormat
	Positions []mgl64.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2 // nil unless Format is OBJFormatVertexUVNormal
	Indices   []uint32     // 3 per triangle

	FaceCount    int
	SkippedLines int
	Overflows    int
	Diagnostics  []OBJDiagnostic // First maxOBJDiagnostics warnings
	Stats        OBJStats
}

// VertexCount returns the number of unique output vertices.
func (m *OBJMesh) VertexCount() int {
	return len(m.Positions)
}

// HasUVs returns true if the mesh carries texture coordinates.
func (m *OBJMesh) HasUVs() bool {
	return m.Format == OBJFormatVertexUVNormal
}

// Warnings combines all stored diagnostics into a single error, or nil.
func (m *OBJMesh) Warnings() error {
	var err error
	for _, d := range m.Diagnostics {
		err = multierr.Append(err, d)
	}
	return err
}

// Validate checks the length and index bound invariants of the mesh.
func (m *OBJMesh) Validate() error {
	n := len(m.Positions)
	if len(m.Normals) != n {
		return fmt.Errorf("normals: have %d, want %d", len(m.Normals), n)
	}
	if m.HasUVs() {
		if len(m.UVs) != n {
			return fmt.Errorf("uvs: have %d, want %d", len(m.UVs), n)
		}
	} else if m.UVs != nil {
		return fmt.Errorf("uvs present for format %s", m.Format)
	}
	if len(m.Indices) != 3*m.FaceCount {
		return fmt.Errorf("indices: have %d, want %d", len(m.Indices), 3*m.FaceCount)
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("index %d: %d out of range [0,%d)", i, idx, n)
		}
	}
	return nil
}

// ParseOBJ parses OBJ text into a deduplicated indexed mesh.
// Attributes must be declared before the faces that reference them.
func ParseOBJ(data []byte, opts OBJOptions) (*OBJMesh, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &OBJError{Kind: OBJIOFailure, Err: ErrOBJEmpty}
	}

	p := newOBJParser(data, opts)
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.finish(), nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string, opts OBJOptions) (*OBJMesh, error) {
	data, err := ReadOBJSource(path)
	if err != nil {
		return nil, err
	}
	return ParseOBJ(data, opts)
}

// objParser holds all state of one parse. Nothing is shared between parses.
type objParser struct {
	s     *objScanner
	table *dedupTable

	positions []mgl64.Vec3
	uvs       []mgl32.Vec2
	normals   []mgl32.Vec3

	mesh *OBJMesh
}

func newOBJParser(data []byte, opts OBJOptions) *objParser {
	return &objParser{
		s:     newOBJScanner(data),
		table: newDedupTable(opts.Buckets, opts.MaxVertices),
		mesh:  &OBJMesh{Stats: OBJStats{Buckets: opts.Buckets}},
	}
}

// run dispatches each record on its leading bytes.
func (p *objParser) run() error {
	s := p.s
	for {
		s.skipWhitespace()
		if s.atEnd() {
			return nil
		}

		var err error
		c0, c1 := s.peek(0), s.peek(1)
		switch {
		case c0 == '#':
			s.skipLine()
		case c0 == 'o' && endsKeyword(c1):
			s.skipLine()
		case c0 == 'v' && endsKeyword(c1):
			s.pos++
			err = p.parsePosition()
		case c0 == 'v' && c1 == 't' && endsKeyword(s.peek(2)):
			s.pos += 2
			err = p.parseUV()
		case c0 == 'v' && c1 == 'n' && endsKeyword(s.peek(2)):
			s.pos += 2
			err = p.parseNormal()
		case c0 == 'f' && endsKeyword(c1):
			s.pos++
			err = p.parseFace()
		default:
			p.skipUnknown()
		}
		if err != nil {
			return err
		}
	}
}

func (p *objParser) parsePosition() error {
	var v mgl64.Vec3
	for i := range v {
		f, err := p.float(64, "position")
		if err != nil {
			return err
		}
		v[i] = f
	}
	p.positions = append(p.positions, v)
	p.s.skipLine()
	return nil
}

func (p *objParser) parseUV() error {
	var v mgl32.Vec2
	for i := range v {
		f, err := p.float(32, "texture coordinate")
		if err != nil {
			return err
		}
		v[i] = float32(f)
	}
	p.uvs = append(p.uvs, v)
	p.s.skipLine()
	return nil
}

func (p *objParser) parseNormal() error {
	var v mgl32.Vec3
	for i := range v {
		f, err := p.float(32, "normal")
		if err != nil {
			return err
		}
		v[i] = float32(f)
	}
	p.normals = append(p.normals, v)
	p.s.skipLine()
	return nil
}

func (p *objParser) float(bitSize int, what string) (float64, error) {
	v, overflow, err := p.s.parseFloat(bitSize)
	if err != nil {
		return 0, p.malformed("%s: %v", what, err)
	}
	if overflow {
		p.mesh.Overflows++
		p.diag(OBJDiagNumericOverflow, fmt.Sprintf("%s component overflows to %v", what, v))
	}
	return v, nil
}

// parseFace reads exactly three corners, then resolves them through the
// dedup table. Nothing is emitted unless the whole record is valid.
func (p *objParser) parseFace() error {
	s := p.s
	var corners [3]dedupKey
	for i := range corners {
		if s.atLineEnd() {
			return p.malformed("face has %d corners, want 3", i)
		}
		if p.mesh.Format == OBJFormatUnknown {
			if err := p.detectFormat(); err != nil {
				return err
			}
		}
		k, err := p.parseCorner()
		if err != nil {
			return err
		}
		corners[i] = k
	}
	if !s.atLineEnd() {
		return p.malformed("face has more than 3 corners")
	}
	s.skipLine()

	for _, k := range corners {
		idx, inserted, err := p.table.lookupOrInsert(k)
		if err != nil {
			return &OBJError{
				Kind:        OBJCapacityExceeded,
				Line:        s.line,
				Detail:      fmt.Sprintf("more than %d distinct vertices", p.table.maxEntries),
				VertexCount: p.table.len(),
				Err:         err,
			}
		}
		if inserted {
			p.emit(k)
		}
		p.mesh.Indices = append(p.mesh.Indices, idx)
	}
	p.mesh.FaceCount++
	p.mesh.Stats.Corners += len(corners)
	return nil
}

// detectFormat peeks at the first corner of the first face without
// consuming it: digits, a slash, then either a second slash or a digit.
func (p *objParser) detectFormat() error {
	s := p.s
	off := 0
	for isDigit(s.peek(off)) {
		off++
	}
	if off == 0 {
		return p.malformed("face corner: %v", errNoDigits)
	}
	if s.peek(off) != '/' {
		return p.malformed("face corner without normal index is not supported")
	}
	switch next := s.peek(off + 1); {
	case next == '/':
		p.mesh.Format = OBJFormatVertexNormal
	case isDigit(next):
		p.mesh.Format = OBJFormatVertexUVNormal
	default:
		return p.malformed("unsupported face corner layout")
	}
	return nil
}

// parseCorner reads one corner in the frozen face format and maps its
// 1-based indices to 0-based pool indices.
func (p *objParser) parseCorner() (dedupKey, error) {
	var k dedupKey
	var err error

	if k.vertex, err = p.index("position", len(p.positions)); err != nil {
		return k, err
	}
	if !p.expect('/') {
		return k, p.malformed("face corner does not match format %s", p.mesh.Format)
	}

	if p.mesh.Format == OBJFormatVertexUVNormal {
		if k.uv, err = p.index("texture coordinate", len(p.uvs)); err != nil {
			return k, err
		}
	} else {
		k.uv = objNoUV
	}
	if !p.expect('/') {
		return k, p.malformed("face corner does not match format %s", p.mesh.Format)
	}

	if k.normal, err = p.index("normal", len(p.normals)); err != nil {
		return k, err
	}
	if c := p.s.peek(0); !p.s.atEnd() && !isSpace(c) && c != '#' {
		return k, p.malformed("unexpected %q after face corner", c)
	}
	return k, nil
}

// index reads a 1-based face index and checks it against the pool size.
func (p *objParser) index(what string, poolLen int) (uint32, error) {
	v, err := p.s.parseUint()
	if err != nil {
		if errors.Is(err, errNoDigits) && p.s.peek(0) == '/' {
			return 0, p.malformed("face corner does not match format %s", p.mesh.Format)
		}
		return 0, p.malformed("%s index: %v", what, err)
	}
	if v == 0 {
		return 0, p.malformed("%s index 0 (indices start at 1)", what)
	}
	if int(v-1) >= poolLen {
		return 0, p.malformed("%s index %d not defined (have %d)", what, v, poolLen)
	}
	return v - 1, nil
}

func (p *objParser) expect(c byte) bool {
	if !p.s.atEnd() && p.s.peek(0) == c {
		p.s.pos++
		return true
	}
	return false
}

// emit appends the attributes of a newly inserted key to the output.
func (p *objParser) emit(k dedupKey) {
	p.mesh.Positions = append(p.mesh.Positions, p.positions[k.vertex])
	p.mesh.Normals = append(p.mesh.Normals, p.normals[k.normal])
	if k.uv != objNoUV {
		p.mesh.UVs = append(p.mesh.UVs, p.uvs[k.uv])
	}
}

func (p *objParser) skipUnknown() {
	s := p.s
	start := s.pos
	s.skipToWhitespace()
	directive := string(s.buf[start:s.pos])
	p.mesh.SkippedLines++
	p.diag(OBJDiagSkippedLine, fmt.Sprintf("unrecognized directive %q", directive))
	s.skipLine()
}

func (p *objParser) diag(kind OBJDiagnosticKind, text string) {
	if len(p.mesh.Diagnostics) >= maxOBJDiagnostics {
		return
	}
	p.mesh.Diagnostics = append(p.mesh.Diagnostics, OBJDiagnostic{
		Kind: kind,
		Line: p.s.line,
		Text: text,
	})
}

func (p *objParser) malformed(format string, args ...any) *OBJError {
	return &OBJError{
		Kind:        OBJMalformedRecord,
		Line:        p.s.line,
		Detail:      fmt.Sprintf(format, args...),
		VertexCount: p.table.len(),
		Err:         ErrMalformedOBJRecord,
	}
}

func (p *objParser) finish() *OBJMesh {
	m := p.mesh
	m.Stats.UniqueVertices = p.table.len()
	m.Stats.Collisions = p.table.collisions
	m.Stats.LongestChain = p.table.longestWalk
	return m
}
