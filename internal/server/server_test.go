package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/scenebox/pkg/buildinfo"
	"github.com/matzehuels/scenebox/pkg/cache"
	pkgio "github.com/matzehuels/scenebox/pkg/io"
	"github.com/matzehuels/scenebox/pkg/observability"
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

const imageTOML = `
[[node]]
id = "frame"
kind = "relative"
children = ["logo"]

[[node]]
id = "logo"
kind = "image"
path = "logo.png"
[[node.relation]]
kind = "align_top"
target = "container"
[[node.relation]]
kind = "align_left"
target = "container"
`

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Close()
	})
	return ts
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *cache.RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisCache(context.Background(), cache.RedisConfig{Addr: mr.Addr(), Prefix: "scenebox:"})
	if err != nil {
		t.Fatalf("NewRedisCache() error: %v", err)
	}
	return mr, rc
}

func post(t *testing.T, url, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorDetail {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var h healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatal(err)
	}
	if h.Status != "ok" || h.Cache != "none" {
		t.Errorf("health = %+v, want status ok and cache none", h)
	}
	if _, err := uuid.Parse(resp.Header.Get(HeaderRequestID)); err != nil {
		t.Errorf("X-Request-ID = %q, not a UUID", resp.Header.Get(HeaderRequestID))
	}
}

func TestHealthzRedis(t *testing.T) {
	mr, rc := newRedis(t)
	ts := newTestServer(t, Config{Cache: rc})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	var h healthResponse
	_ = json.NewDecoder(resp.Body).Decode(&h)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || h.Cache != "ok" {
		t.Fatalf("healthy redis: status %d, cache %q", resp.StatusCode, h.Cache)
	}

	mr.Close()
	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	_ = json.NewDecoder(resp.Body).Decode(&h)
	if resp.StatusCode != http.StatusServiceUnavailable || h.Status != "degraded" {
		t.Errorf("redis down: status %d, health %+v; want 503 degraded", resp.StatusCode, h)
	}
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, Config{})
	given := uuid.NewString()

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"valid id kept", given, true},
		{"invalid id replaced", "not-a-uuid", false},
		{"missing id assigned", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
			if tt.header != "" {
				req.Header.Set(HeaderRequestID, tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			got := resp.Header.Get(HeaderRequestID)
			if tt.keep && got != tt.header {
				t.Errorf("X-Request-ID = %q, want %q", got, tt.header)
			}
			if !tt.keep {
				if _, err := uuid.Parse(got); err != nil || got == tt.header {
					t.Errorf("X-Request-ID = %q, want a fresh UUID", got)
				}
			}
		})
	}
}

func TestRenderPNG(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := post(t, ts.URL+"/v1/render?format=png", "application/toml", cardTOML)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", resp.StatusCode, decodeError(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if got := resp.Header.Get(HeaderSceneSize); got != "30x25" {
		t.Errorf("%s = %q, want 30x25", HeaderSceneSize, got)
	}
	if got := resp.Header.Get(HeaderCache); got != "miss" {
		t.Errorf("%s = %q, want miss", HeaderCache, got)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 25 {
		t.Errorf("image = %dx%d, want 30x25", b.Dx(), b.Dy())
	}
}

func TestRenderScaledDefaultsToPNG(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := post(t, ts.URL+"/v1/render?scale=2", "", cardTOML)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", resp.StatusCode, decodeError(t, resp))
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 50 {
		t.Errorf("image = %dx%d, want 60x50", b.Dx(), b.Dy())
	}
}

func TestRenderDOT(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := post(t, ts.URL+"/v1/render?format=dot", "application/toml", cardTOML)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"a" -> "b" [label="below"]`)) {
		t.Errorf("DOT output missing the below edge:\n%s", body)
	}
}

func TestRenderRedisCache(t *testing.T) {
	mr, rc := newRedis(t)
	ts := newTestServer(t, Config{Cache: rc, TTL: time.Hour})

	first := post(t, ts.URL+"/v1/render?format=json", "application/toml", cardTOML)
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first status = %d", first.StatusCode)
	}
	if got := first.Header.Get(HeaderCache); got != "miss" {
		t.Errorf("first %s = %q, want miss", HeaderCache, got)
	}

	keys := mr.Keys()
	if len(keys) == 0 {
		t.Fatal("no keys written to redis")
	}
	for _, k := range keys {
		if want := "scenebox:" + buildinfo.Version + ":"; !strings.HasPrefix(k, want) {
			t.Errorf("key %q lacks the %q prefix", k, want)
		}
		if ttl := mr.TTL(k); ttl != time.Hour {
			t.Errorf("TTL(%q) = %v, want 1h", k, ttl)
		}
	}

	second := post(t, ts.URL+"/v1/render?format=json", "application/toml", cardTOML)
	if got := second.Header.Get(HeaderCache); got != "hit" {
		t.Errorf("second %s = %q, want hit", HeaderCache, got)
	}
	a, _ := io.ReadAll(first.Body)
	b, _ := io.ReadAll(second.Body)
	if !bytes.Equal(a, b) {
		t.Error("cached artifact differs from the rendered one")
	}

	refreshed := post(t, ts.URL+"/v1/render?format=json&refresh=true", "application/toml", cardTOML)
	if got := refreshed.Header.Get(HeaderCache); got != "miss" {
		t.Errorf("refresh %s = %q, want miss", HeaderCache, got)
	}
}

func TestLayoutHCL(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := post(t, ts.URL+"/v1/layout?var=accent=green", "application/hcl", cardHCL)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", resp.StatusCode, decodeError(t, resp))
	}
	var l pkgio.Layout
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		t.Fatal(err)
	}
	if l.Width != 30 || l.Height != 25 {
		t.Errorf("size = %dx%d, want 30x25", l.Width, l.Height)
	}
	want := map[string][2]int{"card": {0, 0}, "a": {5, 5}, "b": {5, 15}}
	for _, p := range l.Nodes {
		if w, ok := want[p.ID]; ok && (p.X != w[0] || p.Y != w[1]) {
			t.Errorf("%s at (%d, %d), want (%d, %d)", p.ID, p.X, p.Y, w[0], w[1])
		}
		delete(want, p.ID)
	}
	if len(want) > 0 {
		t.Errorf("missing placements: %v", want)
	}
}

func TestLayoutStrictOverride(t *testing.T) {
	ts := newTestServer(t, Config{})
	src := cardTOML + `
[[node]]
id = "out"
kind = "rect"
width = 4
height = 4
[[node.relation]]
kind = "left"
target = "a"
[[node.relation]]
kind = "align_top"
target = "a"
`
	src = strings.Replace(src, `children = ["a", "b"]`, `children = ["a", "b", "out"]`, 1)

	resp := post(t, ts.URL+"/v1/layout?strict=true", "application/toml", src)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", resp.StatusCode, decodeError(t, resp))
	}
	var l pkgio.Layout
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		t.Fatal(err)
	}
	if len(l.Pruned) != 1 || l.Pruned[0] != "out" {
		t.Errorf("Pruned = %v, want [out]", l.Pruned)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodyBytes: 4096})

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		status      int
		code        string
	}{
		{"bad format", "POST", "/v1/render?format=gif", "application/toml", cardTOML, 400, "INVALID_FORMAT"},
		{"bad scale", "POST", "/v1/render?scale=-1", "application/toml", cardTOML, 400, "INVALID_INPUT"},
		{"bad strict", "POST", "/v1/layout?strict=maybe", "application/toml", cardTOML, 400, "INVALID_INPUT"},
		{"bad var", "POST", "/v1/layout?var=accent", "application/hcl", cardHCL, 400, "INVALID_INPUT"},
		{"bad scene_format", "POST", "/v1/layout?scene_format=yaml", "", cardTOML, 400, "INVALID_FORMAT"},
		{"unsupported content type", "POST", "/v1/layout", "application/yaml", cardTOML, 415, "UNSUPPORTED"},
		{"empty body", "POST", "/v1/layout", "application/toml", "", 400, "INVALID_INPUT"},
		{"syntax error", "POST", "/v1/layout", "application/toml", "[[node", 422, "INVALID_SCENE"},
		{"unknown relation", "POST", "/v1/layout", "application/toml",
			strings.Replace(cardTOML, `kind = "below"`, `kind = "beneath"`, 1), 422, "INVALID_RELATION"},
		{"unresolved position", "POST", "/v1/render", "application/toml",
			strings.Replace(cardTOML, "kind = \"align_left\"\ntarget = \"a\"", "kind = \"prior_to\"\ntarget = \"a\"", 1), 422, "LAYOUT_FAILED"},
		{"node too large", "POST", "/v1/render", "application/toml",
			strings.Replace(cardTOML, "width = 20", "width = 200000", 1), 400, "INVALID_INPUT"},
		{"canvas too large", "POST", "/v1/render", "application/toml",
			strings.NewReplacer("width = 20", "width = 10000", "height = 5", "height = 10000").Replace(cardTOML), 400, "INVALID_INPUT"},
		{"canvas too large when scaled", "POST", "/v1/render?scale=8", "application/toml",
			strings.Replace(cardTOML, "width = 20", "width = 4000", 1), 400, "INVALID_INPUT"},
		{"image without assets", "POST", "/v1/render", "application/toml", imageTOML, 422, "FILE_NOT_FOUND"},
		{"body too large", "POST", "/v1/layout", "application/toml", strings.Repeat("#", 5000), 413, "BODY_TOO_LARGE"},
		{"unknown route", "GET", "/v2/render", "", "", 404, "NOT_FOUND"},
		{"wrong method", "GET", "/v1/render", "", "", 405, "METHOD_NOT_ALLOWED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			e := decodeError(t, resp)
			if e.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", e.Code, tt.code, e.Message)
			}
			if e.RequestID != resp.Header.Get(HeaderRequestID) {
				t.Errorf("body request_id %q != header %q", e.RequestID, resp.Header.Get(HeaderRequestID))
			}
		})
	}
}

func TestLayoutLargeCanvas(t *testing.T) {
	ts := newTestServer(t, Config{})
	scene := strings.NewReplacer("width = 20", "width = 10000", "height = 5", "height = 10000").Replace(cardTOML)

	resp := post(t, ts.URL+"/v1/layout", "application/toml", scene)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", resp.StatusCode, decodeError(t, resp))
	}
	var l pkgio.Layout
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		t.Fatal(err)
	}
	if l.Width != 10010 || l.Height != 10020 {
		t.Errorf("layout size = %dx%d, want 10010x10020", l.Width, l.Height)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"uncoded", io.ErrUnexpectedEOF, 500, "INTERNAL_ERROR"},
		{"deadline", context.DeadlineExceeded, 504, "TIMEOUT"},
		{"canceled", context.Canceled, 503, "CANCELED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := statusFor(tt.err)
			if status != tt.status || code != tt.code {
				t.Errorf("statusFor(%v) = %d, %q; want %d, %q", tt.err, status, code, tt.status, tt.code)
			}
		})
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
	status []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
	h.status = append(h.status, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	post(t, ts.URL+"/v1/layout", "application/toml", cardTOML)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	want := []string{"GET /healthz", "POST /v1/layout"}
	if strings.Join(hooks.routes, ",") != strings.Join(want, ",") {
		t.Errorf("routes = %v, want %v", hooks.routes, want)
	}
	for i, s := range hooks.status {
		if s != http.StatusOK {
			t.Errorf("status[%d] = %d, want 200", i, s)
		}
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s, err := New(Config{Addr: "127.0.0.1:0", Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
