package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/scenebox/pkg/cache"
	errs "github.com/matzehuels/scenebox/pkg/errors"
	pkgio "github.com/matzehuels/scenebox/pkg/io"
	"github.com/matzehuels/scenebox/pkg/observability"
)

const sceneTOML = `
name = "column"

[[node]]
id = "col"
kind = "relative"
children = ["a", "b"]

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

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"png", false},
		{"jpeg", false},
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"pdf", true},
		{"PNG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"png", "json"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"png", "invalid"}); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("Invalid format error = %v", err)
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Path: "scene.toml", Formats: []string{"jpg"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %g, want %g", opts.Scale, DefaultScale)
	}
	if opts.Formats[0] != FormatJPEG {
		t.Errorf("Formats = %v, want [jpeg]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}

	opts = Options{Path: "scene.toml"}
	opts.SetRenderDefaults()
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatPNG {
		t.Errorf("default Formats = %v, want [png]", opts.Formats)
	}
}

func TestOptionsValidateForLoad(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"nothing", Options{}},
		{"both", Options{Path: "a.toml", Source: []byte("x"), SceneFormat: pkgio.FormatTOML}},
		{"source without format", Options{Source: []byte("x")}},
		{"bad extension", Options{Path: "scene.yaml"}},
		{"bad format", Options{Source: []byte("x"), SceneFormat: "yaml"}},
	}
	for _, tt := range tests {
		if err := tt.opts.ValidateForLoad(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	for _, opts := range []Options{
		{Scale: -1},
		{Scale: MaxScale + 1},
		{Quality: 101},
	} {
		if err := opts.ValidateForRender(); !errs.Is(err, errs.ErrCodeInvalidInput) {
			t.Errorf("ValidateForRender(%+v) = %v", opts, err)
		}
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Scale: 2, Quality: 80, Detailed: true}
	if k := opts.ArtifactKeyOpts(FormatPNG); k.Quality != 0 || k.Scale != 2 || k.Detailed {
		t.Errorf("png key opts = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatJSON); k.Scale != 0 || k.Quality != 0 {
		t.Errorf("json key opts = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatSVG); !k.Detailed {
		t.Errorf("svg key opts = %+v", k)
	}
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(fc, nil, nil)
}

func TestExecute(t *testing.T) {
	r := newRunner(t)
	ctx := context.Background()
	opts := Options{
		Source:      []byte(sceneTOML),
		SceneFormat: pkgio.FormatTOML,
		Formats:     []string{"png", "json", "dot"},
		Scale:       2,
	}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want misses", res.CacheInfo)
	}
	if res.Stats.Width != 20 || res.Stats.Height != 15 || res.Stats.NodeCount != 3 {
		t.Errorf("Stats = %+v", res.Stats)
	}

	img, err := png.Decode(bytes.NewReader(res.Artifacts["png"]))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("png size = %v, want 40x30 at scale 2", b)
	}
	var layout pkgio.Layout
	if err := json.Unmarshal(res.Artifacts["json"], &layout); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(layout.Nodes) != 3 {
		t.Errorf("layout nodes = %d, want 3", len(layout.Nodes))
	}
	if !strings.Contains(string(res.Artifacts["dot"]), `"a" -> "b" [label="below"]`) {
		t.Errorf("dot output:\n%s", res.Artifacts["dot"])
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !again.CacheInfo.LayoutHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", again.CacheInfo)
	}
	if !bytes.Equal(again.Artifacts["png"], res.Artifacts["png"]) {
		t.Error("cached png differs")
	}

	opts.Refresh = true
	fresh, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if fresh.CacheInfo.LayoutHit || fresh.CacheInfo.RenderHit {
		t.Errorf("refresh CacheInfo = %+v, want misses", fresh.CacheInfo)
	}
}

func TestExecutePartialCache(t *testing.T) {
	r := newRunner(t)
	ctx := context.Background()
	opts := Options{Source: []byte(sceneTOML), SceneFormat: pkgio.FormatTOML, Formats: []string{"json"}}
	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	opts.Formats = []string{"json", "jpeg"}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("RenderHit with a new format")
	}
	if len(res.Artifacts["json"]) == 0 || len(res.Artifacts["jpeg"]) == 0 {
		t.Errorf("artifacts = %v", len(res.Artifacts))
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errs.Code
	}{
		{"syntax", "[[node", errs.ErrCodeInvalidScene},
		{"unresolved", strings.Replace(sceneTOML, `kind = "align_left"
target = "container"`, `kind = "prior_to"
target = "container"`, 1), errs.ErrCodeLayoutFailed},
		{"cycle", strings.Replace(sceneTOML, `kind = "align_top"
target = "container"`, `kind = "below"
target = "b"`, 1), errs.ErrCodeInvalidScene},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(nil, nil, nil)
			_, err := r.Execute(context.Background(), Options{Source: []byte(tt.src), SceneFormat: pkgio.FormatTOML})
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
		})
	}
}

func TestCheckCanvas(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		formats []string
		scale   float64
		wantErr bool
	}{
		{"small png", 30, 25, []string{"png"}, 1, false},
		{"scaled within limit", 2000, 2000, []string{"png"}, 4, false},
		{"side too long", MaxCanvasSide + 1, 10, []string{"png"}, 1, true},
		{"side too long when scaled", 4000, 10, []string{"jpeg"}, 8, true},
		{"too many pixels", 10000, 10000, []string{"png"}, 1, true},
		{"downscale still draws full size", 10000, 10000, []string{"png"}, 0.5, true},
		{"no raster output", 100000, 100000, []string{"json", "dot", "svg"}, 1, false},
		{"raster among others", 100000, 10, []string{"json", "png"}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCanvas(&pkgio.Layout{Width: tt.w, Height: tt.h}, tt.formats, tt.scale)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckCanvas() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && errs.GetCode(err) != errs.ErrCodeInvalidInput {
				t.Errorf("code = %q, want %q", errs.GetCode(err), errs.ErrCodeInvalidInput)
			}
		})
	}
}

func TestExecuteLargeCanvas(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	src := strings.NewReplacer("width = 20", "width = 10000", "height = 5", "height = 10000").Replace(sceneTOML)
	opts := Options{Source: []byte(src), SceneFormat: pkgio.FormatTOML}

	_, err := r.Execute(context.Background(), opts)
	if got := errs.GetCode(err); got != errs.ErrCodeInvalidInput {
		t.Fatalf("png code = %q, want %q (%v)", got, errs.ErrCodeInvalidInput, err)
	}

	opts.Formats = []string{"json"}
	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("json Execute: %v", err)
	}
	if res.Stats.Width != 10000 || res.Stats.Height != 10010 {
		t.Errorf("size = %dx%d, want 10000x10010", res.Stats.Width, res.Stats.Height)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnLoadStart(context.Context, string) {
	h.record("load")
}

func (h *recordingHooks) OnLayoutStart(context.Context, int) {
	h.record("layout")
}

func (h *recordingHooks) OnRenderStart(context.Context, []string) {
	h.record("render")
}

func (h *recordingHooks) OnLayoutComplete(_ context.Context, w, h2, pruned int, _ time.Duration, err error) {
	if err == nil && w == 20 && h2 == 15 && pruned == 0 {
		h.record("layout ok")
	}
}

func TestExecuteHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), Options{Source: []byte(sceneTOML), SceneFormat: pkgio.FormatTOML, Formats: []string{"json"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(hooks.events, ","); got != "load,layout,layout ok,render" {
		t.Errorf("events = %s", got)
	}
}
