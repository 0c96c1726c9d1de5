package engine

import (
	"testing"

	"github.com/chazu/mend/pkg/kernel/sdfx"
	"github.com/chazu/mend/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"keyword", `(punch m :axis :z)`, `(punch m "__kw_axis" "__kw_z")`},
		{"keyword in string preserved", `"a :keyword inside"`, `"a :keyword inside"`},
		{"escaped quote in string", `"say \"hi-there\" :x"`, `"say \"hi-there\" :x"`},
		{"backtick string preserved", "`raw :kw repair-holes`", "`raw :kw repair-holes`"},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(repair-holes m)`, `(repair_holes m)`},
		{"hyphen inside keyword kept", `:merge-distance`, `"__kw_merge-distance"`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative number preserved", `(vec3 -1 0 x-1)`, `(vec3 -1 0 x-1)`},
		{"double semicolon comment", `;; open :top`, `// open :top`},
		{"single semicolon comment", "; note\n(box 1 1 1)", "// note\n(box 1 1 1)"},
		{"bare colon", `(f : 1)`, `(f : 1)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preprocessSource(tt.input); got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	args := []zygo.Sexp{
		&zygo.SexpInt{Val: 1},
		&zygo.SexpStr{S: kwPrefix + "axis"},
		&zygo.SexpStr{S: kwPrefix + "z"},
		&zygo.SexpStr{S: "plain"},
		&zygo.SexpStr{S: kwPrefix + "flag"},
	}
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		t.Fatalf("positional = %d, want 2", len(pa.positional))
	}
	axis, err := toKeywordString(pa.kw["axis"])
	if err != nil || axis != "z" {
		t.Errorf("axis = %q, %v", axis, err)
	}
	if pa.kw["flag"] != zygo.SexpNull {
		t.Errorf("trailing keyword = %v, want SexpNull", pa.kw["flag"])
	}
}

func TestValueHelpers(t *testing.T) {
	if f, err := toFloat64(&zygo.SexpInt{Val: 3}); err != nil || f != 3 {
		t.Errorf("toFloat64(int) = %g, %v", f, err)
	}
	if f, err := toFloat64(&zygo.SexpFloat{Val: 2.5}); err != nil || f != 2.5 {
		t.Errorf("toFloat64(float) = %g, %v", f, err)
	}
	if _, err := toFloat64(&zygo.SexpStr{S: "x"}); err == nil {
		t.Error("toFloat64 accepted a string")
	}
	if _, err := toInt(&zygo.SexpFloat{Val: 1}); err == nil {
		t.Error("toInt accepted a float")
	}
	if items, err := sexpListToSlice(zygo.SexpNull); err != nil || len(items) != 0 {
		t.Errorf("empty list = %v, %v", items, err)
	}
	if _, err := toAxis(&zygo.SexpStr{S: kwPrefix + "w"}); err == nil {
		t.Error("toAxis accepted w")
	}
}

// run evaluates src with a coarse sdfx kernel and fails on any error.
func run(t *testing.T, src string) *Session {
	t.Helper()
	eng := NewEngine(WithKernel(sdfx.NewWithCells(16)))
	s, evalErrs, err := eng.Evaluate(src)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return s
}

func stats(t *testing.T, s *Session, i int) scene.Stats {
	t.Helper()
	if i >= len(s.Meshes) {
		t.Fatalf("session has %d meshes", len(s.Meshes))
	}
	st, err := s.Scene.Stats(s.Meshes[i])
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestBoxMeshPunch(t *testing.T) {
	tests := []struct {
		name string
		side string
	}{
		{"above", ":above 0.5"},
		{"below", ":below 0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := run(t, `
(def b (box-mesh "b" (vec3 0 0 0) (vec3 1 1 1)))
(punch b :axis :z `+tt.side+`)
`)
			st := stats(t, s, 0)
			if st.Faces != 5 || st.BoundaryEdges != 4 {
				t.Errorf("stats = %+v, want 5 faces and 4 boundary edges", st)
			}
		})
	}
}

func TestRepairHolesBuiltin(t *testing.T) {
	s := run(t, `
; open a box at the top and bottom, then close it again
(def b (box-mesh "b" (vec3 0 0 0) (vec3 2 2 2)))
(punch b :axis :z :above 1)
(punch b :axis :z :below 1)
(repair-holes b)
(face-stats b)
(boundary-edges b)
`)
	if len(s.Reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(s.Reports))
	}
	r := s.Reports[0]
	if len(r.Loops) != 2 || r.Repaired() != 2 || r.FacesCreated() != 4 {
		t.Errorf("report:\n%s", r)
	}
	st := stats(t, s, 0)
	if st.BoundaryEdges != 0 || st.Vertices != 8 {
		t.Errorf("stats = %+v, want a closed 8-vertex mesh", st)
	}
}

func TestTriangulateBuiltin(t *testing.T) {
	s := run(t, `(triangulate (box-mesh "b" (vec3 0 0 0) (vec3 1 1 1)))`)
	st := stats(t, s, 0)
	if st.Triangles != 12 || st.Quads != 0 {
		t.Errorf("stats = %+v, want 12 triangles", st)
	}
}

func TestPolymeshBuiltin(t *testing.T) {
	s := run(t, `
(polymesh "tris"
  (list (vec3 0 0 0) (vec3 1 0 0) (vec3 0 1 0) (vec3 1 1 0))
  (list [0 1 2] (list 1 3 2)))
`)
	st := stats(t, s, 0)
	if st.Vertices != 4 || st.Triangles != 2 || st.BoundaryEdges != 4 {
		t.Errorf("stats = %+v", st)
	}
}

func TestMeshBuiltin(t *testing.T) {
	s := run(t, `
(def body (difference (box 10 10 10) (translate (cylinder :height 20 :radius 2) (vec3 5 5 -5))))
(mesh "body" (rotate body (vec3 0 0 45)))
(mesh "plain" (union (box 1 1 1) (box 2 1 1) (box 1 2 1)))
`)
	if len(s.Meshes) != 2 {
		t.Fatalf("meshes = %d, want 2", len(s.Meshes))
	}
	for i, name := range []string{"body", "plain"} {
		m, err := s.Scene.Get(s.Meshes[i])
		if err != nil {
			t.Fatal(err)
		}
		if m.Name != name {
			t.Errorf("mesh %d name = %q, want %q", i, m.Name, name)
		}
		if st := stats(t, s, i); st.Triangles == 0 || st.Triangles != st.Faces {
			t.Errorf("mesh %q stats = %+v", name, st)
		}
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"box arity", `(box 1 2)`},
		{"box negative", `(box -1 1 1)`},
		{"box string", `(box "a" 1 1)`},
		{"cylinder missing radius", `(cylinder :height 1)`},
		{"union single", `(union (box 1 1 1))`},
		{"difference non-solid", `(difference (box 1 1 1) 3)`},
		{"translate without vec", `(translate (box 1 1 1) 1)`},
		{"mesh without name", `(mesh (box 1 1 1))`},
		{"box-mesh inverted", `(box-mesh "b" (vec3 1 1 1) (vec3 0 0 0))`},
		{"polymesh bad index", `(polymesh "p" (list (vec3 0 0 0)) (list (list 0 1 2)))`},
		{"polymesh float index", `(polymesh "p" (list (vec3 0 0 0)) (list (list 0.5 1 2)))`},
		{"punch bad axis", `(punch (box-mesh "b" (vec3 0 0 0) (vec3 1 1 1)) :axis :w :above 0)`},
		{"punch no side", `(punch (box-mesh "b" (vec3 0 0 0) (vec3 1 1 1)) :axis :z)`},
		{"punch both sides", `(punch (box-mesh "b" (vec3 0 0 0) (vec3 1 1 1)) :axis :z :above 1 :below 0)`},
		{"repair non-mesh", `(repair-holes 5)`},
		{"stats arity", `(face-stats)`},
	}
	eng := NewEngine(WithKernel(sdfx.NewWithCells(16)))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, evalErrs, err := eng.Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if s != nil || len(evalErrs) == 0 {
				t.Fatalf("expected eval errors, got session %v errors %v", s, evalErrs)
			}
		})
	}
}
