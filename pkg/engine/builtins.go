package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/mend/pkg/holes"
	"github.com/chazu/mend/pkg/kernel"
	"github.com/chazu/mend/pkg/scene"
	"github.com/chazu/mend/pkg/tessellate"
	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix marks keyword strings produced by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource adapts script syntax to what zygomys accepts:
//
//   - :keyword becomes the string "__kw_keyword", so keywords need no
//     global symbols;
//   - a hyphen between identifier characters becomes an underscore
//     (repair-holes -> repair_holes), since zygomys reads it as minus;
//   - ; line comments become // comments.
//
// String literals (double-quoted and backtick) are copied untouched.
func preprocessSource(source string) string {
	r := rewriter{src: source, out: make([]byte, 0, len(source)+len(source)/4)}
	for r.i < len(r.src) {
		c := r.src[r.i]
		switch {
		case c == '"':
			r.literal('"', true)
		case c == '`':
			r.literal('`', false)
		case c == ';':
			r.comment()
		case c == ':' && r.keyword():
		case c == '-' && r.kebab():
		default:
			r.out = append(r.out, c)
			r.i++
		}
	}
	return string(r.out)
}

type rewriter struct {
	src string
	out []byte
	i   int
}

// literal copies a quoted literal including both delimiters.
func (r *rewriter) literal(delim byte, escapes bool) {
	start := r.i
	r.i++
	for r.i < len(r.src) && r.src[r.i] != delim {
		if escapes && r.src[r.i] == '\\' {
			r.i++
		}
		r.i++
	}
	if r.i < len(r.src) {
		r.i++
	}
	r.out = append(r.out, r.src[start:min(r.i, len(r.src))]...)
}

func (r *rewriter) comment() {
	for r.i < len(r.src) && r.src[r.i] == ';' {
		r.i++
	}
	r.out = append(r.out, '/', '/')
	end := strings.IndexByte(r.src[r.i:], '\n')
	if end < 0 {
		end = len(r.src) - r.i
	}
	r.out = append(r.out, r.src[r.i:r.i+end]...)
	r.i += end
}

// keyword rewrites :name and reports whether it consumed anything.
// ":=" is passed through as an operator.
func (r *rewriter) keyword() bool {
	if r.i+1 >= len(r.src) {
		return false
	}
	next := r.src[r.i+1]
	if next == '=' {
		r.out = append(r.out, ':', '=')
		r.i += 2
		return true
	}
	if !isLetter(next) {
		return false
	}
	j := r.i + 1
	for j < len(r.src) && isKeywordChar(r.src[j]) {
		j++
	}
	r.out = append(r.out, '"')
	r.out = append(r.out, kwPrefix...)
	r.out = append(r.out, r.src[r.i+1:j]...)
	r.out = append(r.out, '"')
	r.i = j
	return true
}

// kebab turns an identifier hyphen into an underscore. A hyphen that
// follows a space or precedes a digit is left for zygomys as minus.
func (r *rewriter) kebab() bool {
	if r.i == 0 || r.i+1 >= len(r.src) {
		return false
	}
	if !isIdentChar(r.src[r.i-1]) || !isLetter(r.src[r.i+1]) {
		return false
	}
	r.out = append(r.out, '_')
	r.i++
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isKeywordChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

// ---------------------------------------------------------------------------
// Script values
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	v r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.v.X, v.v.Y, v.v.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSolid is a kernel solid that has not been meshed yet.
type sexpSolid struct {
	solid kernel.Solid
	op    string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(solid %s)", s.op)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpMesh is a handle to a mesh in the session scene.
type sexpMesh struct {
	id   kernel.MeshID
	name string
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mesh %q)", m.name)
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

type sexpReport struct {
	r *holes.Report
}

func (r *sexpReport) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(report :loops %d :repaired %d :faces %d)",
		len(r.r.Loops), r.r.Repaired(), r.r.FacesCreated())
}
func (r *sexpReport) Type() *zygo.RegisteredType { return nil }

type sexpStats struct {
	s scene.Stats
}

func (s *sexpStats) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(stats :vertices %d :faces %d :triangles %d :quads %d :ngons %d :boundary %d)",
		s.s.Vertices, s.s.Faces, s.s.Triangles, s.s.Quads, s.s.NGons, s.s.BoundaryEdges)
}
func (s *sexpStats) Type() *zygo.RegisteredType { return nil }

func sexpInt(n int) zygo.Sexp {
	return &zygo.SexpInt{Val: int64(n)}
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs splits args into keyword and positional arguments. A trailing
// keyword with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	res := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			res.positional = append(res.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			res.kw[name] = args[i+1]
			i++
		} else {
			res.kw[name] = zygo.SexpNull
		}
	}
	return res
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts a keyword (:z) or a plain string ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	if name, ok := isKW(s); ok {
		return name, nil
	}
	str, err := toString(s)
	if err != nil {
		return "", fmt.Errorf("expected keyword or string: %w", err)
	}
	return str, nil
}

// toAxis returns a coordinate selector for :x, :y or :z.
func toAxis(s zygo.Sexp) (func(r3.Vec) float64, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return nil, err
	}
	switch name {
	case "x":
		return func(v r3.Vec) float64 { return v.X }, nil
	case "y":
		return func(v r3.Vec) float64 { return v.Y }, nil
	case "z":
		return func(v r3.Vec) float64 { return v.Z }, nil
	}
	return nil, fmt.Errorf("invalid axis %q, expected x, y, or z", name)
}

func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.v, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

func toMesh(s zygo.Sexp) (*sexpMesh, error) {
	if v, ok := s.(*sexpMesh); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected mesh, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// builtins holds what script functions act on during one evaluation.
type builtins struct {
	kernel  kernel.Kernel
	repair  holes.Options
	session *Session
}

// registerBuiltins installs the script functions. Hyphenated names are
// registered in the underscore form preprocessSource produces.
func registerBuiltins(env *zygo.Zlisp, b *builtins) {
	table := map[string]builtinFunc{
		"vec3":           b.vec3,
		"box":            b.box,
		"cylinder":       b.cylinder,
		"translate":      b.translate,
		"rotate":         b.rotate,
		"union":          b.combine("union", b.kernel.Union),
		"difference":     b.combine("difference", b.kernel.Difference),
		"intersection":   b.combine("intersection", b.kernel.Intersection),
		"mesh":           b.mesh,
		"box_mesh":       b.boxMesh,
		"polymesh":       b.polymesh,
		"punch":          b.punch,
		"triangulate":    b.triangulate,
		"repair_holes":   b.repairHoles,
		"face_stats":     b.faceStats,
		"boundary_edges": b.boundaryEdges,
	}
	for name, fn := range table {
		env.AddFunction(name, fn)
	}
}

// (vec3 1 2 3)
func (b *builtins) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var c [3]float64
	for i, axis := range []string{"x", "y", "z"} {
		f, err := toFloat64(args[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
		}
		c[i] = f
	}
	return &sexpVec3{v: r3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
}

// (box 100 50 25)
func (b *builtins) box(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("box requires 3 dimensions, got %d", len(args))
	}
	var d [3]float64
	for i := range d {
		f, err := toFloat64(args[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: dimension %d: %w", i+1, err)
		}
		if f <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: dimension %d must be positive, got %g", i+1, f)
		}
		d[i] = f
	}
	return &sexpSolid{solid: b.kernel.Box(d[0], d[1], d[2]), op: "box"}, nil
}

// (cylinder :height 40 :radius 10)
func (b *builtins) cylinder(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	dims := map[string]float64{}
	for _, key := range []string{"height", "radius"} {
		v, ok := pa.kw[key]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("cylinder: missing :%s", key)
		}
		f, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %s: %w", key, err)
		}
		if f <= 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder: %s must be positive, got %g", key, f)
		}
		dims[key] = f
	}
	return &sexpSolid{solid: b.kernel.Cylinder(dims["height"], dims["radius"], 32), op: "cylinder"}, nil
}

// transformArgs reads (op solid (vec3 ...)).
func transformArgs(op string, args []zygo.Sexp) (kernel.Solid, r3.Vec, error) {
	if len(args) != 2 {
		return nil, r3.Vec{}, fmt.Errorf("%s requires a solid and a vec3", op)
	}
	s, err := toSolid(args[0])
	if err != nil {
		return nil, r3.Vec{}, fmt.Errorf("%s: %w", op, err)
	}
	v, err := toVec3(args[1])
	if err != nil {
		return nil, r3.Vec{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, v, nil
}

// (translate solid (vec3 10 0 0))
func (b *builtins) translate(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	s, v, err := transformArgs("translate", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpSolid{solid: b.kernel.Translate(s, v.X, v.Y, v.Z), op: "translate"}, nil
}

// (rotate solid (vec3 0 0 90)), angles in degrees
func (b *builtins) rotate(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	s, v, err := transformArgs("rotate", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpSolid{solid: b.kernel.Rotate(s, v.X, v.Y, v.Z), op: "rotate"}, nil
}

// combine folds a boolean operation left to right over two or more solids.
func (b *builtins) combine(op string, fn func(a, b kernel.Solid) kernel.Solid) builtinFunc {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", op, len(args))
		}
		acc, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: operand 1: %w", op, err)
		}
		for i, a := range args[1:] {
			s, err := toSolid(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", op, i+2, err)
			}
			acc = fn(acc, s)
		}
		return &sexpSolid{solid: acc, op: op}, nil
	}
}

// add stores m in the session scene and returns its handle.
func (b *builtins) add(op string, m *scene.Mesh) (zygo.Sexp, error) {
	id, err := b.session.Scene.Add(m)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
	}
	b.session.Meshes = append(b.session.Meshes, id)
	return &sexpMesh{id: id, name: m.Name}, nil
}

// (mesh "name" solid)
func (b *builtins) mesh(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("mesh requires a name and a solid")
	}
	meshName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("mesh: name: %w", err)
	}
	s, err := toSolid(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("mesh: %w", err)
	}
	km, err := b.kernel.ToMesh(s)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("mesh %q: %w", meshName, err)
	}
	km.PartName = meshName
	return b.add("mesh", tessellate.FromKernel(km))
}

// (box-mesh "name" (vec3 0 0 0) (vec3 1 1 1)) builds an exact quad box.
func (b *builtins) boxMesh(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("box-mesh requires a name and two corners")
	}
	meshName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("box-mesh: name: %w", err)
	}
	lo, err := toVec3(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("box-mesh: min: %w", err)
	}
	hi, err := toVec3(args[2])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("box-mesh: max: %w", err)
	}
	if !(lo.X < hi.X && lo.Y < hi.Y && lo.Z < hi.Z) {
		return zygo.SexpNull, fmt.Errorf("box-mesh: min %v must be below max %v on every axis", lo, hi)
	}
	return b.add("box-mesh", scene.Box(meshName, lo, hi))
}

// (polymesh "name" (list (vec3 ...) ...) (list (list 0 1 2) ...))
func (b *builtins) polymesh(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("polymesh requires a name, vertices and faces")
	}
	meshName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("polymesh: name: %w", err)
	}
	m := &scene.Mesh{Name: meshName}

	verts, err := sexpListToSlice(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("polymesh: vertices: %w", err)
	}
	for i, v := range verts {
		p, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polymesh: vertex %d: %w", i, err)
		}
		m.Positions = append(m.Positions, p)
	}

	faces, err := sexpListToSlice(args[2])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("polymesh: faces: %w", err)
	}
	for i, f := range faces {
		corners, err := sexpListToSlice(f)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polymesh: face %d: %w", i, err)
		}
		face := make([]int, len(corners))
		for j, c := range corners {
			if face[j], err = toInt(c); err != nil {
				return zygo.SexpNull, fmt.Errorf("polymesh: face %d corner %d: %w", i, j, err)
			}
		}
		m.Faces = append(m.Faces, face)
	}
	return b.add("polymesh", m)
}

// (punch m :axis :z :above 0.9) deletes every face whose corners all lie
// beyond the threshold; :below selects the other side. Returns the number
// of faces removed.
func (b *builtins) punch(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("punch requires a mesh")
	}
	m, err := toMesh(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("punch: %w", err)
	}
	axisArg, ok := pa.kw["axis"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("punch: missing :axis")
	}
	coord, err := toAxis(axisArg)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("punch: axis: %w", err)
	}

	above, hasAbove := pa.kw["above"]
	below, hasBelow := pa.kw["below"]
	if hasAbove == hasBelow {
		return zygo.SexpNull, fmt.Errorf("punch: exactly one of :above or :below is required")
	}
	side, limit := 1.0, above
	if hasBelow {
		side, limit = -1.0, below
	}
	threshold, err := toFloat64(limit)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("punch: threshold: %w", err)
	}

	n, err := b.session.Scene.DeleteFaces(m.id, func(corners []r3.Vec) bool {
		for _, c := range corners {
			if side*(coord(c)-threshold) <= 0 {
				return false
			}
		}
		return true
	})
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("punch: %w", err)
	}
	return sexpInt(n), nil
}

// meshArg reads the single mesh argument of op.
func meshArg(op string, args []zygo.Sexp) (*sexpMesh, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s requires a mesh", op)
	}
	m, err := toMesh(args[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

// (triangulate m)
func (b *builtins) triangulate(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	m, err := meshArg("triangulate", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	if err := b.session.Scene.Triangulate(m.id); err != nil {
		return zygo.SexpNull, fmt.Errorf("triangulate: %w", err)
	}
	return m, nil
}

// (repair-holes m)
func (b *builtins) repairHoles(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	m, err := meshArg("repair-holes", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	report, err := holes.RepairHoles(b.session.Scene, m.id, b.repair)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("repair-holes %q: %w", m.name, err)
	}
	b.session.Reports = append(b.session.Reports, report)
	return &sexpReport{r: report}, nil
}

// (face-stats m)
func (b *builtins) faceStats(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	m, err := meshArg("face-stats", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	st, err := b.session.Scene.Stats(m.id)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("face-stats: %w", err)
	}
	return &sexpStats{s: st}, nil
}

// (boundary-edges m)
func (b *builtins) boundaryEdges(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	m, err := meshArg("boundary-edges", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	edges, err := b.session.Scene.BoundaryEdges(m.id)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("boundary-edges: %w", err)
	}
	return sexpInt(len(edges)), nil
}
