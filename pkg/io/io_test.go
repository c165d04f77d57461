package io

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/matzehuels/scenebox/pkg/errors"
	"github.com/matzehuels/scenebox/pkg/scene"
)

const cardTOML = `
name = "card"

[[node]]
id = "card"
kind = "relative"
children = ["a", "b"]
[node.style]
padding = [5]

[[node]]
id = "a"
kind = "rect"
width = 10
height = 10
fill = "red"
[[node.relation]]
kind = "align_top"
target = "container"
[[node.relation]]
kind = "align_left"
target = "container"

[[node]]
id = "b"
kind = "rect"
width = 20
height = 5
fill = "blue"
[[node.relation]]
kind = "below"
target = "a"
[[node.relation]]
kind = "align_left"
target = "a"
`

const cardHCL = `
name = "card"

variable "accent" {
  default = "blue"
}

node "card" {
  kind     = "relative"
  children = ["a", "b"]
  style {
    padding = [5]
  }
}

node "a" {
  kind   = "rect"
  width  = 10
  height = 10
  fill   = "red"
  relation "align_top" { target = "container" }
  relation "align_left" { target = "container" }
}

node "b" {
  kind   = "rect"
  width  = 20
  height = 5
  fill   = var.accent
  relation "below" { target = "a" }
  relation "align_left" { target = "a" }
}
`

func buildTOML(t *testing.T, src string) (*scene.Scene, error) {
	t.Helper()
	doc, err := ReadTOML(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	return Build(doc, BuildOptions{})
}

func TestBuildTOML(t *testing.T) {
	s, err := buildTOML(t, cardTOML)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.Name != "card" {
		t.Errorf("Name = %q", s.Name)
	}
	w, h, err := s.Size()
	if err != nil || w != 30 || h != 25 {
		t.Errorf("Size() = %d, %d, %v, want 30, 25", w, h, err)
	}
	if got := strings.Join(s.IDs(), ","); got != "card,a,b" {
		t.Errorf("IDs() = %s", got)
	}
}

func TestBuildHCL(t *testing.T) {
	doc, err := ParseHCL([]byte(cardHCL), "card.hcl", nil)
	if err != nil {
		t.Fatalf("ParseHCL: %v", err)
	}
	s, err := Build(doc, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w, h, _ := s.Size(); w != 30 || h != 25 {
		t.Errorf("size = %dx%d, want 30x25", w, h)
	}
	b, _ := s.Lookup("b")
	if got := b.(*scene.Rect).Fill(); got != scene.Blue {
		t.Errorf("fill = %v, want blue", got)
	}

	doc, err = ParseHCL([]byte(cardHCL), "card.hcl", map[string]string{"accent": "#00ff00"})
	if err != nil {
		t.Fatalf("ParseHCL with vars: %v", err)
	}
	if doc.Nodes[2].Fill != "#00ff00" {
		t.Errorf("overridden fill = %q", doc.Nodes[2].Fill)
	}

	if _, err := ParseHCL([]byte(cardHCL), "card.hcl", map[string]string{"nope": "1"}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("undeclared variable error = %v", err)
	}
	if _, err := ParseHCL([]byte(`node "a" {`), "bad.hcl", nil); !errs.Is(err, errs.ErrCodeInvalidScene) {
		t.Errorf("syntax error = %v", err)
	}
}

func TestTOMLAndHCLAgree(t *testing.T) {
	a, err := ReadTOML(strings.NewReader(cardTOML))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseHCL([]byte(cardHCL), "card.hcl", nil)
	if err != nil {
		t.Fatal(err)
	}
	if Hash(a) != Hash(b) {
		ja, _ := json.Marshal(a)
		jb, _ := json.Marshal(b)
		t.Errorf("documents differ:\n%s\n%s", ja, jb)
	}
}

func TestHash(t *testing.T) {
	a, _ := ReadTOML(strings.NewReader(cardTOML))
	b, _ := ReadTOML(strings.NewReader(cardTOML))
	if Hash(a) != Hash(b) {
		t.Error("Hash is not stable")
	}
	b.Nodes[1].Width = 11
	if Hash(a) == Hash(b) {
		t.Error("Hash ignores node changes")
	}
	if len(Hash(a)) != 64 {
		t.Errorf("Hash length = %d, want 64", len(Hash(a)))
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errs.Code
	}{
		{
			name: "unknown key",
			src:  "[[node]]\nid = \"a\"\nkind = \"rect\"\ncolour = \"red\"\n",
			code: errs.ErrCodeInvalidScene,
		},
		{
			name: "duplicate id",
			src:  "[[node]]\nid = \"a\"\nkind = \"rect\"\n[[node]]\nid = \"a\"\nkind = \"rect\"\n",
			code: errs.ErrCodeInvalidScene,
		},
		{
			name: "reserved id",
			src:  "[[node]]\nid = \"container\"\nkind = \"rect\"\n",
			code: errs.ErrCodeInvalidScene,
		},
		{
			name: "unknown kind",
			src:  "[[node]]\nid = \"a\"\nkind = \"circle\"\n",
			code: errs.ErrCodeInvalidScene,
		},
		{
			name: "unknown child",
			src:  "[[node]]\nid = \"a\"\nkind = \"flex\"\nchildren = [\"b\"]\n",
			code: errs.ErrCodeInvalidScene,
		},
		{
			name: "two parents",
			src: "root = \"r\"\n[[node]]\nid = \"r\"\nkind = \"flex\"\nchildren = [\"p\", \"q\"]\n" +
				"[[node]]\nid = \"p\"\nkind = \"flex\"\nchildren = [\"c\"]\n" +
				"[[node]]\nid = \"q\"\nkind = \"flex\"\nchildren = [\"c\"]\n" +
				"[[node]]\nid = \"c\"\nkind = \"rect\"\n",
			code: errs.ErrCodeInvalidScene,
		},
		{
			name: "no single root",
			src:  "[[node]]\nid = \"a\"\nkind = \"rect\"\n[[node]]\nid = \"b\"\nkind = \"rect\"\n",
			code: errs.ErrCodeInvalidScene,
		},
		{
			name: "unreachable",
			src:  "root = \"a\"\n[[node]]\nid = \"a\"\nkind = \"rect\"\n[[node]]\nid = \"b\"\nkind = \"rect\"\n",
			code: errs.ErrCodeInvalidScene,
		},
		{
			name: "leaf with children",
			src:  "[[node]]\nid = \"a\"\nkind = \"rect\"\nchildren = [\"b\"]\n[[node]]\nid = \"b\"\nkind = \"rect\"\n",
			code: errs.ErrCodeInvalidScene,
		},
		{
			name: "unknown relation",
			src:  relativeWith(`kind = "beside"`, `target = "container"`),
			code: errs.ErrCodeInvalidRelation,
		},
		{
			name: "foreign target",
			src:  relativeWith(`kind = "below"`, `target = "nowhere"`),
			code: errs.ErrCodeInvalidRelation,
		},
		{
			name: "self target",
			src:  relativeWith(`kind = "below"`, `target = "a"`),
			code: errs.ErrCodeInvalidRelation,
		},
		{
			name: "relation outside relative",
			src:  "[[node]]\nid = \"a\"\nkind = \"rect\"\n[[node.relation]]\nkind = \"below\"\ntarget = \"container\"\n",
			code: errs.ErrCodeInvalidRelation,
		},
		{
			name: "bad constraint",
			src: "[[node]]\nid = \"r\"\nkind = \"relative\"\nchildren = [\"a\"]\n" +
				"[[node]]\nid = \"a\"\nkind = \"rect\"\n[[node.constraint]]\nkind = \"align_top\"\ntarget = \"container\"\n",
			code: errs.ErrCodeInvalidRelation,
		},
		{
			name: "constraint against container",
			src: "[[node]]\nid = \"r\"\nkind = \"relative\"\nchildren = [\"a\"]\n" +
				"[[node]]\nid = \"a\"\nkind = \"rect\"\n[[node.constraint]]\nkind = \"left\"\ntarget = \"container\"\n",
			code: errs.ErrCodeInvalidRelation,
		},
		{
			name: "bad color",
			src:  "[[node]]\nid = \"a\"\nkind = \"rect\"\nfill = \"#zzz\"\n",
			code: errs.ErrCodeInvalidColor,
		},
		{
			name: "bad padding",
			src:  "[[node]]\nid = \"a\"\nkind = \"rect\"\n[node.style]\npadding = [1, 2, 3]\n",
			code: errs.ErrCodeInvalidScene,
		},
		{
			name: "width too large",
			src:  "[[node]]\nid = \"a\"\nkind = \"rect\"\nwidth = 200000\nheight = 10\n",
			code: errs.ErrCodeInvalidInput,
		},
		{
			name: "padding too large",
			src:  "[[node]]\nid = \"a\"\nkind = \"rect\"\n[node.style]\npadding = [1, 100000]\n",
			code: errs.ErrCodeInvalidInput,
		},
		{
			name: "offset too large",
			src: "[[node]]\nid = \"r\"\nkind = \"relative\"\nchildren = [\"a\"]\n" +
				"[[node]]\nid = \"a\"\nkind = \"rect\"\noffset = [0, -20000]\n",
			code: errs.ErrCodeInvalidInput,
		},
		{
			name: "path traversal",
			src:  "[[node]]\nid = \"a\"\nkind = \"image\"\npath = \"../secret.png\"\n",
			code: errs.ErrCodeInvalidPath,
		},
		{
			name: "missing image",
			src:  "[[node]]\nid = \"a\"\nkind = \"image\"\npath = \"missing.png\"\n",
			code: errs.ErrCodeFileNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildTOML(t, tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
		})
	}
}

func relativeWith(kind, target string) string {
	return "[[node]]\nid = \"r\"\nkind = \"relative\"\nchildren = [\"a\"]\n" +
		"[[node]]\nid = \"a\"\nkind = \"rect\"\n[[node.relation]]\n" + kind + "\n" + target + "\n"
}

func TestBuildImage(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "dot.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 8, 6))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	doc, err := ReadTOML(strings.NewReader("[[node]]\nid = \"pic\"\nkind = \"image\"\npath = \"dot.png\"\nwidth = 4\n"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Build(doc, BuildOptions{BaseDir: dir})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w, h, _ := s.Size(); w != 4 || h != 3 {
		t.Errorf("size = %dx%d, want 4x3", w, h)
	}
}

func TestBuildStrictOverride(t *testing.T) {
	src := `
[[node]]
id = "r"
kind = "relative"
children = ["frame", "out"]

[[node]]
id = "frame"
kind = "rect"
width = 40
height = 40
[[node.relation]]
kind = "align_top"
target = "container"
[[node.relation]]
kind = "align_left"
target = "container"

[[node]]
id = "out"
kind = "rect"
width = 10
height = 10
[[node.relation]]
kind = "left"
target = "frame"
[[node.relation]]
kind = "align_top"
target = "frame"
`
	doc, err := ReadTOML(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	strict := true
	s, err := Build(doc, BuildOptions{Strict: &strict})
	if err != nil {
		t.Fatal(err)
	}
	l, err := ExportLayout(s)
	if err != nil {
		t.Fatal(err)
	}
	if l.Width != 40 || len(l.Pruned) != 1 || l.Pruned[0] != "out" {
		t.Errorf("layout = %dx%d pruned %v, want 40 wide with [out]", l.Width, l.Height, l.Pruned)
	}
}

func TestWriteLayoutJSON(t *testing.T) {
	s, err := buildTOML(t, cardTOML)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteLayoutJSON(s, &buf); err != nil {
		t.Fatalf("WriteLayoutJSON: %v", err)
	}
	var got Layout
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []Placement{
		{ID: "card", Kind: "relative", X: 0, Y: 0, Width: 30, Height: 25},
		{ID: "a", Kind: "rect", Parent: "card", X: 5, Y: 5, Width: 10, Height: 10},
		{ID: "b", Kind: "rect", Parent: "card", X: 5, Y: 15, Width: 20, Height: 5},
	}
	if len(got.Nodes) != len(want) {
		t.Fatalf("nodes = %+v", got.Nodes)
	}
	for i := range want {
		if got.Nodes[i] != want[i] {
			t.Errorf("node %d = %+v, want %+v", i, got.Nodes[i], want[i])
		}
	}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "card.toml")
	hclPath := filepath.Join(dir, "card.hcl")
	os.WriteFile(tomlPath, []byte(cardTOML), 0o644)
	os.WriteFile(hclPath, []byte(cardHCL), 0o644)

	for _, p := range []string{tomlPath, hclPath} {
		doc, err := Import(p, nil)
		if err != nil {
			t.Errorf("Import(%s): %v", filepath.Base(p), err)
			continue
		}
		if len(doc.Nodes) != 3 {
			t.Errorf("Import(%s) nodes = %d", filepath.Base(p), len(doc.Nodes))
		}
	}
	if _, err := Import(filepath.Join(dir, "none.toml"), nil); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
	if _, err := Import(filepath.Join(dir, "card.yaml"), nil); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("yaml error = %v", err)
	}
}
