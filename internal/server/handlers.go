package server

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/scenebox/pkg/buildinfo"
	errs "github.com/matzehuels/scenebox/pkg/errors"
	pkgio "github.com/matzehuels/scenebox/pkg/io"
	"github.com/matzehuels/scenebox/pkg/pipeline"
)

// Response headers describing a solved scene.
const (
	HeaderCache     = "X-Cache"      // "hit" or "miss"
	HeaderSceneHash = "X-Scene-Hash" // content hash used for cache keys
	HeaderSceneSize = "X-Scene-Size" // "<width>x<height>"
	HeaderPruned    = "X-Pruned"     // comma-separated ids dropped by strict containers
)

// sceneTypes maps request media types to scene formats.
var sceneTypes = map[string]pkgio.Format{
	"application/toml":  pkgio.FormatTOML,
	"text/toml":         pkgio.FormatTOML,
	"application/hcl":   pkgio.FormatHCL,
	"application/x-hcl": pkgio.FormatHCL,
	"text/x-hcl":        pkgio.FormatHCL,
}

type pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Cache   string `json:"cache"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Version: buildinfo.Version, Cache: "none"}
	status := http.StatusOK
	if p, ok := s.runner.Cache.(pinger); ok {
		resp.Cache = "ok"
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Warn("cache ping failed", "err", err)
			resp.Status, resp.Cache = "degraded", "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

// handleRender solves the scene and returns one artifact.
//
// Query parameters: format (png, jpeg, json, dot, svg; default png), scale,
// quality, detailed, strict, refresh, scene_format and var=name=value.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.sceneOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()

	format := pipeline.FormatPNG
	if f := q.Get("format"); f != "" {
		format = pipeline.NormalizeFormat(strings.ToLower(f))
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.fail(w, r, err)
		return
	}
	opts.Formats = []string{format}
	if opts.Scale, err = floatParam(q.Get("scale")); err != nil {
		s.fail(w, r, err)
		return
	}
	if opts.Quality, err = intParam("quality", q.Get("quality")); err != nil {
		s.fail(w, r, err)
		return
	}
	detailed, err := boolParam("detailed", q.Get("detailed"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts.Detailed = detailed != nil && *detailed

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", pipeline.ContentTypes[format])
	h.Set(HeaderSceneHash, result.SceneHash)
	h.Set(HeaderSceneSize, fmt.Sprintf("%dx%d", result.Stats.Width, result.Stats.Height))
	h.Set(HeaderCache, cacheStatus(result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit))
	if len(result.Layout.Pruned) > 0 {
		h.Set(HeaderPruned, strings.Join(result.Layout.Pruned, ","))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// handleLayout solves the scene and returns its placements.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.sceneOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ctx := r.Context()
	loaded, err := s.runner.Load(ctx, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	layout, hit, err := s.runner.LayoutWithCacheInfo(ctx, loaded.Scene, loaded.SceneHash, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set(HeaderSceneHash, loaded.SceneHash)
	w.Header().Set(HeaderCache, cacheStatus(hit))
	writeJSON(w, http.StatusOK, layout)
}

// sceneOptions reads the scene body and the load options shared by all
// scene routes.
func (s *Server) sceneOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	format, err := sceneFormat(r)
	if err != nil {
		return pipeline.Options{}, err
	}
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("read scene: %w", err)
	}
	if len(body) == 0 {
		return pipeline.Options{}, errs.New(errs.ErrCodeInvalidInput, "empty scene body")
	}
	vars, err := varsParam(q["var"])
	if err != nil {
		return pipeline.Options{}, err
	}
	strict, err := boolParam("strict", q.Get("strict"))
	if err != nil {
		return pipeline.Options{}, err
	}
	refresh, err := boolParam("refresh", q.Get("refresh"))
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Source:      body,
		SceneFormat: format,
		Vars:        vars,
		BaseDir:     s.assetDir,
		Strict:      strict,
		Refresh:     refresh != nil && *refresh,
	}, nil
}

// sceneFormat picks the scene syntax from ?scene_format or the
// Content-Type. TOML is assumed when neither is given.
func sceneFormat(r *http.Request) (pkgio.Format, error) {
	if f := r.URL.Query().Get("scene_format"); f != "" {
		switch format := pkgio.Format(strings.ToLower(f)); format {
		case pkgio.FormatTOML, pkgio.FormatHCL:
			return format, nil
		}
		return "", errs.New(errs.ErrCodeInvalidFormat, "invalid scene_format %q (must be toml or hcl)", f)
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return pkgio.FormatTOML, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeUnsupported, err, "invalid Content-Type %q", ct)
	}
	if mt == "text/plain" {
		return pkgio.FormatTOML, nil
	}
	format, ok := sceneTypes[mt]
	if !ok {
		return "", errs.New(errs.ErrCodeUnsupported, "unsupported Content-Type %q (want application/toml or application/hcl)", mt)
	}
	return format, nil
}

func varsParam(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "invalid var %q (want name=value)", p)
		}
		vars[name] = value
	}
	return vars, nil
}

// boolParam parses an optional boolean; nil means absent.
func boolParam(name, v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "invalid %s %q", name, v)
	}
	return &b, nil
}

func intParam(name, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errs.New(errs.ErrCodeInvalidInput, "invalid %s %q", name, v)
	}
	return n, nil
}

func floatParam(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, errs.New(errs.ErrCodeInvalidInput, "invalid scale %q", v)
	}
	return f, nil
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
